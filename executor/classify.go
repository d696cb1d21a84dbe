package executor

import (
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// ErrorKind is a driver-independent classification of a database error.
type ErrorKind string

const (
	KindUnknown             ErrorKind = ""
	KindUniqueViolation     ErrorKind = "unique violation"
	KindForeignKeyViolation ErrorKind = "foreign key violation"
	KindNotNullViolation    ErrorKind = "not null violation"
	KindCheckViolation      ErrorKind = "check violation"
	KindUndefinedTable      ErrorKind = "undefined table"
	KindSyntax              ErrorKind = "syntax error"
	KindUnsupported         ErrorKind = "unsupported statement"
	KindConnection          ErrorKind = "connection failure"
)

// Classify maps a driver error onto an ErrorKind, KindUnknown when the error
// carries no recognizable driver code.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPostgresError(pgErr)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return classifyMySQLError(myErr)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return classifySQLiteError(sqliteErr)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return KindConnection
	}

	return KindUnknown
}

// classifyPostgresError maps SQLSTATE codes.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
func classifyPostgresError(err *pgconn.PgError) ErrorKind {
	switch err.Code {
	case pgerrcode.UniqueViolation:
		return KindUniqueViolation
	case pgerrcode.ForeignKeyViolation:
		return KindForeignKeyViolation
	case pgerrcode.NotNullViolation:
		return KindNotNullViolation
	case pgerrcode.CheckViolation:
		return KindCheckViolation
	case pgerrcode.UndefinedTable:
		return KindUndefinedTable
	case pgerrcode.SyntaxError:
		return KindSyntax
	case pgerrcode.FeatureNotSupported, pgerrcode.WrongObjectType:
		return KindUnsupported
	}

	if pgerrcode.IsConnectionException(err.Code) {
		return KindConnection
	}

	return KindUnknown
}

// classifyMySQLError maps server error numbers.
// See: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
func classifyMySQLError(err *mysql.MySQLError) ErrorKind {
	switch err.Number {
	case 1062: // ER_DUP_ENTRY
		return KindUniqueViolation
	case 1216, 1217, 1451, 1452: // referenced row checks
		return KindForeignKeyViolation
	case 1701: // ER_TRUNCATE_ILLEGAL_FK
		return KindForeignKeyViolation
	case 1048, 1364: // ER_BAD_NULL_ERROR, ER_NO_DEFAULT_FOR_FIELD
		return KindNotNullViolation
	case 3819: // ER_CHECK_CONSTRAINT_VIOLATED
		return KindCheckViolation
	case 1146: // ER_NO_SUCH_TABLE
		return KindUndefinedTable
	case 1064: // ER_PARSE_ERROR
		return KindSyntax
	case 1235: // ER_NOT_SUPPORTED_YET
		return KindUnsupported
	default:
		return KindUnknown
	}
}

// classifySQLiteError maps extended result codes, falling back to message
// text for the generic SQLITE_ERROR that covers both missing tables and bad
// syntax.
// See: https://www.sqlite.org/rescode.html
func classifySQLiteError(err sqlite3.Error) ErrorKind {
	switch err.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return KindUniqueViolation
	case sqlite3.ErrConstraintForeignKey:
		return KindForeignKeyViolation
	case sqlite3.ErrConstraintNotNull:
		return KindNotNullViolation
	case sqlite3.ErrConstraintCheck:
		return KindCheckViolation
	}

	switch err.Code {
	case sqlite3.ErrError:
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "no such table") {
			return KindUndefinedTable
		}

		if strings.Contains(msg, "syntax error") {
			return KindSyntax
		}
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB:
		return KindConnection
	}

	return KindUnknown
}
