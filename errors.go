package dbfixture

import "errors"

// Common errors used throughout the dbfixture package
var (
	// ErrConfiguration is returned when the engine is asked to work with missing or invalid configuration.
	// Configuration errors
	ErrConfiguration = errors.New("configuration error")
	// ErrConfigNotFound indicates no configuration file was found at the given path.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrConfigValidation indicates the configuration file failed validation.
	ErrConfigValidation = errors.New("config validation error")
	// ErrNoDefaultDataSource is returned when the default data source is requested but none was registered.
	ErrNoDefaultDataSource = errors.New("no default data source registered")
	// ErrDataSourceNotFound indicates a named data source was not registered.
	ErrDataSourceNotFound = errors.New("data source not found")
	// ErrUnknownFormat indicates no dataset format provider is registered for a file extension.
	ErrUnknownFormat = errors.New("no dataset format registered for extension")
	// ErrUnknownCharset indicates the configured charset name is not recognized.
	ErrUnknownCharset = errors.New("unknown charset")

	// ErrMissingHeader indicates a delimited dataset file has no header row.
	// Dataset format errors
	ErrMissingHeader = errors.New("dataset file is missing its header row")
	// ErrNoDatasetElement indicates an XML dataset lacks the <dataset> root element.
	ErrNoDatasetElement = errors.New("no dataset root element")
	// ErrTableHeading indicates a markdown table is not preceded by a heading naming its table.
	ErrTableHeading = errors.New("markdown table has no table name heading")
	// ErrDatasetStructure indicates YAML or JSON dataset content is not a mapping from table names to row lists.
	ErrDatasetStructure = errors.New("dataset must map table names to row lists")

	// ErrDatabaseOperation is returned when a mutating SQL operation fails; it wraps the driver error.
	// Operation errors
	ErrDatabaseOperation = errors.New("database operation failed")
	// ErrDatabaseTester wraps any failure crossing the transaction boundary of an execution.
	ErrDatabaseTester = errors.New("database tester failure")
	// ErrUnknownOperation indicates an operation name outside the supported set.
	ErrUnknownOperation = errors.New("unknown database operation")
	// ErrUnknownOrdering indicates an ordering strategy name outside the supported set.
	ErrUnknownOrdering = errors.New("unknown table ordering strategy")
	// ErrUnsafeIdentifier is returned when a table or column name fails the safe-identifier policy.
	ErrUnsafeIdentifier = errors.New("unsafe SQL identifier")

	// ErrAssertion is returned when a dataset comparison found differences.
	// Comparison errors
	ErrAssertion = errors.New("dataset assertion failed")
	// ErrUnknownStrategy indicates a comparison strategy name outside the supported set.
	ErrUnknownStrategy = errors.New("unknown comparison strategy")
	// ErrRegexStrategyPattern indicates a REGEX strategy was configured without a valid pattern.
	ErrRegexStrategyPattern = errors.New("regex strategy requires a valid pattern")

	// ErrBlankIdentifier indicates an identifier value was empty after trimming.
	// Data model errors
	ErrBlankIdentifier = errors.New("identifier must not be blank")
	// ErrDuplicateColumn indicates a table declared the same column name twice.
	ErrDuplicateColumn = errors.New("duplicate column name in table")
	// ErrDuplicateTable indicates a table set declared the same table name twice.
	ErrDuplicateTable = errors.New("duplicate table name in table set")
	// ErrRowShape indicates a row's columns do not match its table's column list.
	ErrRowShape = errors.New("row columns do not match table columns")
	// ErrUnknownMergeStrategy indicates a merge strategy name outside the supported set.
	ErrUnknownMergeStrategy = errors.New("unknown merge strategy")

	// ErrUnsupportedDialect indicates the given database dialect is not supported.
	// Dialect errors
	ErrUnsupportedDialect = errors.New("unsupported database dialect")
	// ErrInvalidConnectionURL indicates a connection URL could not be parsed or validated.
	ErrInvalidConnectionURL = errors.New("invalid connection URL")
	// ErrConnectionFailed indicates the database could not be reached.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrMetadataUnavailable indicates foreign key metadata could not be read for ordering.
	// Metadata errors
	ErrMetadataUnavailable = errors.New("table metadata unavailable")
	// ErrSchemaJSONInvalid indicates a schema JSON document failed to decode or validate.
	ErrSchemaJSONInvalid = errors.New("invalid schema JSON document")
)
