package tableorder

import (
	"context"
	"database/sql"
	"fmt"

	dbfixture "github.com/shibukawa/dbfixture"
)

// DBSource reads foreign key relations from a live database catalog. Schema
// narrows the lookup; when empty the connection's current schema is used.
type DBSource struct {
	DB      *sql.DB
	Dialect dbfixture.Dialect
	Schema  string
}

const postgresReferencesQuery = `
	SELECT DISTINCT
		tc.table_name,
		ccu.table_name AS referenced_table
	FROM information_schema.table_constraints tc
	JOIN information_schema.constraint_column_usage ccu
		ON tc.constraint_name = ccu.constraint_name
		AND tc.table_schema = ccu.table_schema
	WHERE tc.constraint_type = 'FOREIGN KEY'
		AND tc.table_schema = COALESCE(NULLIF($1, ''), current_schema())
`

const mysqlReferencesQuery = `
	SELECT DISTINCT
		table_name,
		referenced_table_name
	FROM information_schema.key_column_usage
	WHERE referenced_table_name IS NOT NULL
		AND table_schema = COALESCE(NULLIF(?, ''), DATABASE())
`

// sqliteReferencesQuery resolves one table per call; SQLite exposes foreign
// keys through a per-table pragma rather than a catalog view.
const sqliteReferencesQuery = `SELECT DISTINCT "table" FROM pragma_foreign_key_list(?)`

// References implements MetadataSource against the configured database.
func (s *DBSource) References(ctx context.Context, tables []dbfixture.TableName) (map[dbfixture.TableName][]dbfixture.TableName, error) {
	switch s.Dialect {
	case dbfixture.DialectPostgres:
		return s.catalogReferences(ctx, postgresReferencesQuery)
	case dbfixture.DialectMySQL, dbfixture.DialectMariaDB:
		return s.catalogReferences(ctx, mysqlReferencesQuery)
	case dbfixture.DialectSQLite:
		return s.sqliteReferences(ctx, tables)
	default:
		return nil, fmt.Errorf("%w: %s", dbfixture.ErrUnsupportedDialect, s.Dialect)
	}
}

func (s *DBSource) catalogReferences(ctx context.Context, query string) (map[dbfixture.TableName][]dbfixture.TableName, error) {
	rows, err := s.DB.QueryContext(ctx, query, s.Schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dbfixture.ErrMetadataUnavailable, err)
	}
	defer rows.Close()

	refs := make(map[dbfixture.TableName][]dbfixture.TableName)

	for rows.Next() {
		var owner, referenced string
		if err := rows.Scan(&owner, &referenced); err != nil {
			return nil, fmt.Errorf("%w: %v", dbfixture.ErrMetadataUnavailable, err)
		}

		key := dbfixture.TableName(owner)
		refs[key] = append(refs[key], dbfixture.TableName(referenced))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", dbfixture.ErrMetadataUnavailable, err)
	}

	return refs, nil
}

func (s *DBSource) sqliteReferences(ctx context.Context, tables []dbfixture.TableName) (map[dbfixture.TableName][]dbfixture.TableName, error) {
	refs := make(map[dbfixture.TableName][]dbfixture.TableName)

	for _, table := range tables {
		targets, err := s.sqliteTableReferences(ctx, table)
		if err != nil {
			return nil, err
		}

		if len(targets) > 0 {
			refs[table] = targets
		}
	}

	return refs, nil
}

func (s *DBSource) sqliteTableReferences(ctx context.Context, table dbfixture.TableName) ([]dbfixture.TableName, error) {
	rows, err := s.DB.QueryContext(ctx, sqliteReferencesQuery, string(table))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dbfixture.ErrMetadataUnavailable, err)
	}
	defer rows.Close()

	var targets []dbfixture.TableName

	for rows.Next() {
		var referenced string
		if err := rows.Scan(&referenced); err != nil {
			return nil, fmt.Errorf("%w: %v", dbfixture.ErrMetadataUnavailable, err)
		}

		targets = append(targets, dbfixture.TableName(referenced))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", dbfixture.ErrMetadataUnavailable, err)
	}

	return targets, nil
}
