package executor

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyNilAndUnknown(t *testing.T) {
	assert.Equal(t, KindUnknown, Classify(nil))
	assert.Equal(t, KindUnknown, Classify(errors.New("boom")))
}

func TestClassifyPostgres(t *testing.T) {
	tests := []struct {
		code string
		want ErrorKind
	}{
		{pgerrcode.UniqueViolation, KindUniqueViolation},
		{pgerrcode.ForeignKeyViolation, KindForeignKeyViolation},
		{pgerrcode.NotNullViolation, KindNotNullViolation},
		{pgerrcode.CheckViolation, KindCheckViolation},
		{pgerrcode.UndefinedTable, KindUndefinedTable},
		{pgerrcode.SyntaxError, KindSyntax},
		{pgerrcode.FeatureNotSupported, KindUnsupported},
		{pgerrcode.ConnectionFailure, KindConnection},
		{pgerrcode.DivisionByZero, KindUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			err := fmt.Errorf("exec: %w", &pgconn.PgError{Code: tc.code})
			assert.Equal(t, tc.want, Classify(err))
		})
	}
}

func TestClassifyMySQL(t *testing.T) {
	tests := []struct {
		number uint16
		want   ErrorKind
	}{
		{1062, KindUniqueViolation},
		{1452, KindForeignKeyViolation},
		{1451, KindForeignKeyViolation},
		{1701, KindForeignKeyViolation},
		{1048, KindNotNullViolation},
		{1364, KindNotNullViolation},
		{3819, KindCheckViolation},
		{1146, KindUndefinedTable},
		{1064, KindSyntax},
		{1235, KindUnsupported},
		{1205, KindUnknown},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("%d", tc.number), func(t *testing.T) {
			err := fmt.Errorf("exec: %w", &mysql.MySQLError{Number: tc.number, Message: "test"})
			assert.Equal(t, tc.want, Classify(err))
		})
	}
}

// SQLite error values carry their message in an unexported field, so the
// classifications are checked against errors a real database produces.
func TestClassifySQLite(t *testing.T) {
	ds := openSQLite(t)

	_, err := ds.DB.Exec(`PRAGMA foreign_keys = ON`)
	require.NoError(t, err)
	_, err = ds.DB.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)
	_, err = ds.DB.Exec(`CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL REFERENCES users(id))`)
	require.NoError(t, err)
	_, err = ds.DB.Exec(`INSERT INTO users (id, name) VALUES (1, 'Alice')`)
	require.NoError(t, err)

	tests := []struct {
		name string
		stmt string
		want ErrorKind
	}{
		{"primary key", `INSERT INTO users (id, name) VALUES (1, 'Bob')`, KindUniqueViolation},
		{"unique", `INSERT INTO users (id, name) VALUES (2, 'Alice')`, KindUniqueViolation},
		{"not null", `INSERT INTO users (id, name) VALUES (3, NULL)`, KindNotNullViolation},
		{"foreign key", `INSERT INTO posts (id, user_id) VALUES (1, 42)`, KindForeignKeyViolation},
		{"missing table", `INSERT INTO missing (id) VALUES (1)`, KindUndefinedTable},
		{"syntax", `INSER INTO users VALUES (1)`, KindSyntax},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ds.DB.Exec(tc.stmt)
			require.Error(t, err)
			assert.Equal(t, tc.want, Classify(err))
		})
	}
}

func TestClassifyConnectionErrors(t *testing.T) {
	assert.Equal(t, KindConnection, Classify(fmt.Errorf("ping: %w", driver.ErrBadConn)))
	assert.Equal(t, KindConnection, Classify(fmt.Errorf("ping: %w", mysql.ErrInvalidConn)))
}
