package dbfixture

import (
	"fmt"
	"strings"
)

// Dialect represents supported database dialects
// This type is shared across all packages
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
	DialectMariaDB  Dialect = "mariadb"
)

// ParseDialect normalizes driver and URL scheme spellings to a Dialect.
func ParseDialect(raw string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	case "mariadb":
		return DialectMariaDB, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, raw)
	}
}

// Quote quotes an identifier for this dialect: backticks for MySQL and
// MariaDB, double quotes otherwise.
func (d Dialect) Quote(identifier string) string {
	switch d {
	case DialectMySQL, DialectMariaDB:
		return "`" + identifier + "`"
	default:
		return `"` + identifier + `"`
	}
}

// Placeholder returns the bind-parameter placeholder at a 1-based position:
// $N for PostgreSQL, ? otherwise.
func (d Dialect) Placeholder(position int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", position)
	}

	return "?"
}

// Feature represents DB-specific feature flags
type Feature int

const (
	FeatureTruncate      Feature = iota + 1 // TRUNCATE TABLE statement
	FeatureSchemaQualify                    // schema-qualified table references
	// Add more features as needed
)
