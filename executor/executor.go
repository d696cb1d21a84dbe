// Package executor writes fixture datasets into a database under a selected
// operation. Every Execute call runs inside one transaction: the operation is
// applied table by table in resolved order, committed on success and rolled
// back on the first failure.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbfixture "github.com/shibukawa/dbfixture"
	"github.com/shibukawa/dbfixture/datasource"
	"github.com/shibukawa/dbfixture/tableorder"
)

// Executor applies dataset operations to one data source.
type Executor struct {
	ds        *datasource.DataSource
	tableInfo map[string]*dbfixture.TableInfo
	metadata  tableorder.MetadataSource
	timeout   time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithTableInfo supplies declared column metadata. When a column's type is
// known its values are coerced before binding; without metadata raw dataset
// values are bound as-is.
func WithTableInfo(infos map[dbfixture.TableName]*dbfixture.TableInfo) Option {
	return func(e *Executor) {
		e.tableInfo = make(map[string]*dbfixture.TableInfo, len(infos))
		for name, info := range infos {
			e.tableInfo[strings.ToLower(string(name))] = info
		}
	}
}

// WithMetadataSource overrides where foreign keys are read from during
// ordering, for example a tbls schema document instead of the live catalog.
func WithMetadataSource(source tableorder.MetadataSource) Option {
	return func(e *Executor) {
		e.metadata = source
	}
}

// WithStatementTimeout bounds each statement batch. The default is 30s.
func WithStatementTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.timeout = d
	}
}

// New creates an Executor bound to a data source. Ordering metadata defaults
// to the data source's own catalog.
func New(ds *datasource.DataSource, opts ...Option) *Executor {
	e := &Executor{
		ds:      ds,
		timeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.metadata == nil {
		e.metadata = &tableorder.DBSource{DB: ds.DB, Dialect: ds.Dialect, Schema: ds.Schema}
	}

	return e
}

// Result reports what one Execute call did.
type Result struct {
	// Order is the resolved table order the operation ran under.
	Order tableorder.Result
	// RowsAffected counts rows written by row-wise statements.
	RowsAffected int64
	// TruncateFallbacks lists tables where TRUNCATE degraded to DELETE.
	TruncateFallbacks []dbfixture.TableName
}

// Execute runs one operation over a dataset inside a single transaction.
// Failures roll back and come wrapped as ErrDatabaseTester so callers see one
// failure type regardless of which statement broke.
func (e *Executor) Execute(ctx context.Context, op dbfixture.Operation, set *dbfixture.TableSet, strategy dbfixture.OrderingStrategy) (*Result, error) {
	res := &Result{}

	if set.Len() == 0 {
		return res, nil
	}

	res.Order = tableorder.Resolve(ctx, strategy, set.Names(), e.metadata)

	tx, err := e.ds.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %v", dbfixture.ErrDatabaseTester, err)
	}

	if err := e.runOperation(ctx, tx, op, set, res); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return nil, fmt.Errorf("%w: rollback failed: %v (after: %v)", dbfixture.ErrDatabaseTester, rbErr, err)
		}

		return nil, fmt.Errorf("%w: %w", dbfixture.ErrDatabaseTester, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", dbfixture.ErrDatabaseTester, err)
	}

	return res, nil
}

func (e *Executor) runOperation(ctx context.Context, tx *sql.Tx, op dbfixture.Operation, set *dbfixture.TableSet, res *Result) error {
	switch op {
	case dbfixture.OperationNone:
		return nil
	case dbfixture.OperationInsert:
		return e.insertTables(ctx, tx, set, res.Order.Tables, res)
	case dbfixture.OperationUpdate:
		return e.updateTables(ctx, tx, set, res.Order.Tables, res)
	case dbfixture.OperationDelete:
		return e.deleteRows(ctx, tx, set, res.Order.Reversed(), res)
	case dbfixture.OperationDeleteAll:
		return e.deleteAll(ctx, tx, res.Order.Reversed())
	case dbfixture.OperationRefresh:
		return e.refreshTables(ctx, tx, set, res.Order.Tables, res)
	case dbfixture.OperationTruncateTable:
		return e.truncateTables(ctx, tx, res.Order.Reversed(), res)
	case dbfixture.OperationCleanInsert:
		if err := e.deleteAll(ctx, tx, res.Order.Reversed()); err != nil {
			return err
		}

		return e.insertTables(ctx, tx, set, res.Order.Tables, res)
	case dbfixture.OperationTruncateInsert:
		if err := e.truncateTables(ctx, tx, res.Order.Reversed(), res); err != nil {
			return err
		}

		return e.insertTables(ctx, tx, set, res.Order.Tables, res)
	default:
		return fmt.Errorf("%w: %q", dbfixture.ErrUnknownOperation, op)
	}
}

func (e *Executor) insertTables(ctx context.Context, tx *sql.Tx, set *dbfixture.TableSet, order []dbfixture.TableName, res *Result) error {
	for _, name := range order {
		table, ok := set.Table(name)
		if !ok {
			continue
		}

		n, err := e.insertTable(ctx, tx, table)
		if err != nil {
			return err
		}

		res.RowsAffected += n
	}

	return nil
}

func (e *Executor) insertTable(ctx context.Context, tx *sql.Tx, table *dbfixture.Table) (int64, error) {
	if table.RowCount() == 0 || table.ColumnCount() == 0 {
		return 0, nil
	}

	columns := table.Columns()

	query, err := e.buildInsert(table.Name(), columns)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, e.operationError("prepare insert into", table.Name(), err)
	}
	defer stmt.Close()

	info := e.info(table.Name())

	var affected int64

	for _, row := range table.Rows() {
		if _, err := stmt.ExecContext(ctx, e.bindRow(info, columns, row)...); err != nil {
			return affected, e.operationError("insert into", table.Name(), err)
		}

		affected++
	}

	return affected, nil
}

// updateTables updates rows keyed by each table's first column. Tables
// without non-key columns have nothing to set and are skipped, as are rows
// whose key matches nothing.
func (e *Executor) updateTables(ctx context.Context, tx *sql.Tx, set *dbfixture.TableSet, order []dbfixture.TableName, res *Result) error {
	for _, name := range order {
		table, ok := set.Table(name)
		if !ok {
			continue
		}

		n, err := e.updateTable(ctx, tx, table)
		if err != nil {
			return err
		}

		res.RowsAffected += n
	}

	return nil
}

func (e *Executor) updateTable(ctx context.Context, tx *sql.Tx, table *dbfixture.Table) (int64, error) {
	if table.RowCount() == 0 || table.ColumnCount() < 2 {
		return 0, nil
	}

	columns := table.Columns()

	query, err := e.buildUpdate(table.Name(), columns[0], columns[1:])
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, e.operationError("prepare update of", table.Name(), err)
	}
	defer stmt.Close()

	info := e.info(table.Name())

	var affected int64

	for _, row := range table.Rows() {
		values := e.bindRow(info, append(columns[1:], columns[0]), row)

		result, err := stmt.ExecContext(ctx, values...)
		if err != nil {
			return affected, e.operationError("update", table.Name(), err)
		}

		if n, err := result.RowsAffected(); err == nil {
			affected += n
		}
	}

	return affected, nil
}

// deleteRows removes the rows matched by each table's first-column key.
func (e *Executor) deleteRows(ctx context.Context, tx *sql.Tx, set *dbfixture.TableSet, order []dbfixture.TableName, res *Result) error {
	for _, name := range order {
		table, ok := set.Table(name)
		if !ok {
			continue
		}

		n, err := e.deleteTableRows(ctx, tx, table)
		if err != nil {
			return err
		}

		res.RowsAffected += n
	}

	return nil
}

func (e *Executor) deleteTableRows(ctx context.Context, tx *sql.Tx, table *dbfixture.Table) (int64, error) {
	if table.RowCount() == 0 || table.ColumnCount() == 0 {
		return 0, nil
	}

	columns := table.Columns()

	query, err := e.buildKeyedDelete(table.Name(), columns[0])
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, e.operationError("prepare delete from", table.Name(), err)
	}
	defer stmt.Close()

	info := e.info(table.Name())

	var affected int64

	for _, row := range table.Rows() {
		result, err := stmt.ExecContext(ctx, e.bindRow(info, columns[:1], row)...)
		if err != nil {
			return affected, e.operationError("delete from", table.Name(), err)
		}

		if n, err := result.RowsAffected(); err == nil {
			affected += n
		}
	}

	return affected, nil
}

// deleteAll clears every listed table. Declared-empty tables are cleared
// too: a table with no rows in the dataset still means "this table ends up
// empty" under delete-style operations.
func (e *Executor) deleteAll(ctx context.Context, tx *sql.Tx, order []dbfixture.TableName) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	for _, name := range order {
		ref, err := e.tableRef(name)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM "+ref); err != nil {
			return e.operationError("delete from", name, err)
		}
	}

	return nil
}

// refreshTables updates each row by key and inserts it when the update
// matched nothing, leaving unrelated rows in place.
func (e *Executor) refreshTables(ctx context.Context, tx *sql.Tx, set *dbfixture.TableSet, order []dbfixture.TableName, res *Result) error {
	for _, name := range order {
		table, ok := set.Table(name)
		if !ok {
			continue
		}

		n, err := e.refreshTable(ctx, tx, table)
		if err != nil {
			return err
		}

		res.RowsAffected += n
	}

	return nil
}

func (e *Executor) refreshTable(ctx context.Context, tx *sql.Tx, table *dbfixture.Table) (int64, error) {
	if table.RowCount() == 0 || table.ColumnCount() == 0 {
		return 0, nil
	}

	columns := table.Columns()
	info := e.info(table.Name())

	insertQuery, err := e.buildInsert(table.Name(), columns)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	insertStmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return 0, e.operationError("prepare insert into", table.Name(), err)
	}
	defer insertStmt.Close()

	if table.ColumnCount() == 1 {
		return e.refreshByExistence(ctx, tx, table, insertStmt, info)
	}

	updateQuery, err := e.buildUpdate(table.Name(), columns[0], columns[1:])
	if err != nil {
		return 0, err
	}

	updateStmt, err := tx.PrepareContext(ctx, updateQuery)
	if err != nil {
		return 0, e.operationError("prepare update of", table.Name(), err)
	}
	defer updateStmt.Close()

	var affected int64

	for _, row := range table.Rows() {
		updateValues := e.bindRow(info, append(columns[1:], columns[0]), row)

		result, err := updateStmt.ExecContext(ctx, updateValues...)
		if err != nil {
			return affected, e.operationError("update", table.Name(), err)
		}

		matched, err := result.RowsAffected()
		if err != nil {
			return affected, e.operationError("update", table.Name(), err)
		}

		if matched == 0 {
			if _, err := insertStmt.ExecContext(ctx, e.bindRow(info, columns, row)...); err != nil {
				return affected, e.operationError("insert into", table.Name(), err)
			}
		}

		affected++
	}

	return affected, nil
}

// refreshByExistence handles single-column tables, where there is nothing to
// update: the row is inserted only when its key is absent.
func (e *Executor) refreshByExistence(ctx context.Context, tx *sql.Tx, table *dbfixture.Table, insertStmt *sql.Stmt, info *dbfixture.TableInfo) (int64, error) {
	columns := table.Columns()

	existsQuery, err := e.buildExists(table.Name(), columns[0])
	if err != nil {
		return 0, err
	}

	existsStmt, err := tx.PrepareContext(ctx, existsQuery)
	if err != nil {
		return 0, e.operationError("prepare lookup in", table.Name(), err)
	}
	defer existsStmt.Close()

	var affected int64

	for _, row := range table.Rows() {
		values := e.bindRow(info, columns[:1], row)

		var count int64
		if err := existsStmt.QueryRowContext(ctx, values...).Scan(&count); err != nil {
			return affected, e.operationError("lookup in", table.Name(), err)
		}

		if count == 0 {
			if _, err := insertStmt.ExecContext(ctx, values...); err != nil {
				return affected, e.operationError("insert into", table.Name(), err)
			}

			affected++
		}
	}

	return affected, nil
}

func (e *Executor) truncateTables(ctx context.Context, tx *sql.Tx, order []dbfixture.TableName, res *Result) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	for _, name := range order {
		fellBack, err := e.truncateTable(ctx, tx, name)
		if err != nil {
			return err
		}

		if fellBack {
			res.TruncateFallbacks = append(res.TruncateFallbacks, name)
		}
	}

	return nil
}

func (e *Executor) truncateTable(ctx context.Context, tx *sql.Tx, name dbfixture.TableName) (bool, error) {
	ref, err := e.tableRef(name)
	if err != nil {
		return false, err
	}

	if !dbfixture.HasFeature(e.ds.Dialect, dbfixture.FeatureTruncate) {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+ref); err != nil {
			return false, e.operationError("delete from", name, err)
		}

		return true, nil
	}

	// A rejected TRUNCATE poisons the whole transaction on PostgreSQL, so
	// the attempt runs behind a savepoint.
	if _, err := tx.ExecContext(ctx, "SAVEPOINT dbfixture_truncate"); err != nil {
		return false, e.operationError("truncate", name, err)
	}

	if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE "+ref); err != nil {
		switch Classify(err) {
		case KindUnsupported, KindSyntax, KindForeignKeyViolation:
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT dbfixture_truncate"); rbErr != nil {
				return false, e.operationError("truncate", name, err)
			}

			if _, dErr := tx.ExecContext(ctx, "DELETE FROM "+ref); dErr != nil {
				return false, e.operationError("delete from", name, dErr)
			}

			return true, nil
		default:
			return false, e.operationError("truncate", name, err)
		}
	}

	// MySQL commits implicitly on TRUNCATE, taking the savepoint with it;
	// a failed release is not worth reporting.
	_, _ = tx.ExecContext(ctx, "RELEASE SAVEPOINT dbfixture_truncate")

	return false, nil
}

// info returns declared metadata for a table, nil when none was supplied.
func (e *Executor) info(name dbfixture.TableName) *dbfixture.TableInfo {
	if e.tableInfo == nil {
		return nil
	}

	return e.tableInfo[strings.ToLower(string(name))]
}

// bindRow collects the row's values for the listed columns in order, coerced
// against declared column types where known.
func (e *Executor) bindRow(info *dbfixture.TableInfo, columns []dbfixture.ColumnName, row dbfixture.Row) []any {
	values := make([]any, len(columns))

	for i, col := range columns {
		cell, _ := row.Value(col)
		values[i] = bindValue(columnInfo(info, col), cell)
	}

	return values
}

func columnInfo(info *dbfixture.TableInfo, col dbfixture.ColumnName) *dbfixture.ColumnInfo {
	if info == nil {
		return nil
	}

	for _, c := range info.Columns {
		if strings.EqualFold(c.Name, string(col)) {
			return c
		}
	}

	return nil
}

// operationError wraps a driver failure as ErrDatabaseOperation, naming the
// classified kind when recognized.
func (e *Executor) operationError(action string, table dbfixture.TableName, err error) error {
	if kind := Classify(err); kind != KindUnknown {
		return fmt.Errorf("%w: %s %s: %s: %w", dbfixture.ErrDatabaseOperation, action, table, kind, err)
	}

	return fmt.Errorf("%w: %s %s: %w", dbfixture.ErrDatabaseOperation, action, table, err)
}
