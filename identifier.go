package dbfixture

import (
	"fmt"
	"regexp"
	"strings"
)

// Identifier kinds used across the engine. Each is a distinct string type so
// signatures cannot accidentally swap a table name for a scenario name; all of
// them share one validation rule: trimmed, non-blank, case-preserving.
type (
	// TableName identifies a table inside a dataset or a database.
	TableName string
	// SchemaName identifies a database schema qualifying table lookups.
	SchemaName string
	// ScenarioName identifies a logical test scenario rows can be tagged with.
	ScenarioName string
	// ScenarioMarker is the reserved column name flagging scenario tags.
	ScenarioMarker string
	// ColumnName identifies a column; lookups compare it case-insensitively.
	ColumnName string
)

// DefaultScenarioMarker is the marker column name used when none is configured.
const DefaultScenarioMarker ScenarioMarker = "[Scenario]"

func newIdentifier[T ~string](raw string) (T, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return T(""), fmt.Errorf("%w: %q", ErrBlankIdentifier, raw)
	}

	return T(trimmed), nil
}

// NewTableName validates and trims raw into a TableName.
func NewTableName(raw string) (TableName, error) {
	return newIdentifier[TableName](raw)
}

// NewSchemaName validates and trims raw into a SchemaName.
func NewSchemaName(raw string) (SchemaName, error) {
	return newIdentifier[SchemaName](raw)
}

// NewScenarioName validates and trims raw into a ScenarioName.
func NewScenarioName(raw string) (ScenarioName, error) {
	return newIdentifier[ScenarioName](raw)
}

// NewScenarioMarker validates and trims raw into a ScenarioMarker.
func NewScenarioMarker(raw string) (ScenarioMarker, error) {
	return newIdentifier[ScenarioMarker](raw)
}

// NewColumnName validates and trims raw into a ColumnName.
func NewColumnName(raw string) (ColumnName, error) {
	return newIdentifier[ColumnName](raw)
}

// safeIdentifier matches SQL identifiers that may be interpolated into
// statements after quoting. Only alphanumeric and underscore, starting with a
// letter or underscore; anything else is rejected to prevent injection via
// identifier interpolation.
var safeIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// EnsureSafeIdentifier rejects names that cannot be safely interpolated into
// SQL even when quoted.
func EnsureSafeIdentifier(name string) error {
	if !safeIdentifier.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrUnsafeIdentifier, name)
	}

	return nil
}

// EqualFold reports whether two table names match ignoring case.
func (n TableName) EqualFold(other TableName) bool {
	return strings.EqualFold(string(n), string(other))
}

// EqualFold reports whether two column names match ignoring case.
func (c ColumnName) EqualFold(other ColumnName) bool {
	return strings.EqualFold(string(c), string(other))
}
