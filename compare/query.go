package compare

import (
	"context"
	"fmt"
	"strings"

	dbfixture "github.com/shibukawa/dbfixture"
	"github.com/shibukawa/dbfixture/datasource"
)

// FetchQuery materializes a query's result as a table named name, together
// with the driver-reported column metadata.
func FetchQuery(ctx context.Context, ds *datasource.DataSource, name dbfixture.TableName, query string, args ...any) (*dbfixture.Table, map[string]ColumnMeta, error) {
	rows, err := ds.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: query for %s: %v", dbfixture.ErrDatabaseOperation, name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: query for %s: %v", dbfixture.ErrDatabaseOperation, name, err)
	}

	meta := map[string]ColumnMeta{}

	if types, err := rows.ColumnTypes(); err == nil {
		for _, ct := range types {
			m := ColumnMeta{DatabaseType: ct.DatabaseTypeName()}
			if nullable, ok := ct.Nullable(); ok {
				m.Nullable = &nullable
			}

			meta[strings.ToUpper(ct.Name())] = m
		}
	}

	var values [][]any

	for rows.Next() {
		scan := make([]any, len(columns))
		ptrs := make([]any, len(columns))

		for i := range scan {
			ptrs[i] = &scan[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("%w: scan %s: %v", dbfixture.ErrDatabaseOperation, name, err)
		}

		values = append(values, scan)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %v", dbfixture.ErrDatabaseOperation, name, err)
	}

	table, err := dbfixture.NewTableFromValues(string(name), columns, values)
	if err != nil {
		return nil, nil, err
	}

	return table, meta, nil
}

// FetchTable materializes the full current contents of one table.
func FetchTable(ctx context.Context, ds *datasource.DataSource, name dbfixture.TableName) (*dbfixture.Table, map[string]ColumnMeta, error) {
	ref, err := ds.TableRef(name)
	if err != nil {
		return nil, nil, err
	}

	return FetchQuery(ctx, ds, name, "SELECT * FROM "+ref)
}

// AssertEqualsByQuery materializes the actual rows with a caller-supplied
// query and compares them against the expected table. The query decides the
// row order the expected table is matched against.
func AssertEqualsByQuery(ctx context.Context, ds *datasource.DataSource, expected *dbfixture.Table, query string, opts ...Option) error {
	o := newOptions(opts)

	actual, meta, err := FetchQuery(ctx, ds, expected.Name(), query)
	if err != nil {
		return err
	}

	report := &Report{}
	compareTable(report, o, expected, actual, meta)

	return o.finish(report)
}

// AssertEqualsDatabase reads the live contents of every expected table and
// compares, aggregating the differences of all tables into one report. Rows
// arrive in whatever order the database returns them; use AssertEqualsByQuery
// with an ORDER BY when the order matters.
func AssertEqualsDatabase(ctx context.Context, ds *datasource.DataSource, expected *dbfixture.TableSet, opts ...Option) error {
	o := newOptions(opts)
	report := &Report{}

	for _, table := range expected.Tables() {
		actual, meta, err := FetchTable(ctx, ds, table.Name())
		if err != nil {
			return err
		}

		compareTable(report, o, table, actual, meta)
	}

	return o.finish(report)
}
