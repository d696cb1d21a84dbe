package executor

import (
	"fmt"
	"strings"

	dbfixture "github.com/shibukawa/dbfixture"
)

func (e *Executor) tableRef(name dbfixture.TableName) (string, error) {
	return e.ds.TableRef(name)
}

func (e *Executor) quoteColumns(columns []dbfixture.ColumnName) ([]string, error) {
	quoted := make([]string, len(columns))

	for i, col := range columns {
		if err := dbfixture.EnsureSafeIdentifier(string(col)); err != nil {
			return nil, err
		}

		quoted[i] = e.ds.Dialect.Quote(string(col))
	}

	return quoted, nil
}

func (e *Executor) buildInsert(name dbfixture.TableName, columns []dbfixture.ColumnName) (string, error) {
	ref, err := e.tableRef(name)
	if err != nil {
		return "", err
	}

	quoted, err := e.quoteColumns(columns)
	if err != nil {
		return "", err
	}

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = e.ds.Dialect.Placeholder(i + 1)
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ref,
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", ")), nil
}

// buildUpdate sets every non-key column, keyed by the first declared column.
// Placeholder positions run over the SET list first, then the key.
func (e *Executor) buildUpdate(name dbfixture.TableName, key dbfixture.ColumnName, setColumns []dbfixture.ColumnName) (string, error) {
	ref, err := e.tableRef(name)
	if err != nil {
		return "", err
	}

	quotedSet, err := e.quoteColumns(setColumns)
	if err != nil {
		return "", err
	}

	quotedKey, err := e.quoteColumns([]dbfixture.ColumnName{key})
	if err != nil {
		return "", err
	}

	assignments := make([]string, len(quotedSet))
	for i, col := range quotedSet {
		assignments[i] = col + " = " + e.ds.Dialect.Placeholder(i+1)
	}

	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		ref,
		strings.Join(assignments, ", "),
		quotedKey[0],
		e.ds.Dialect.Placeholder(len(setColumns)+1)), nil
}

func (e *Executor) buildKeyedDelete(name dbfixture.TableName, key dbfixture.ColumnName) (string, error) {
	ref, err := e.tableRef(name)
	if err != nil {
		return "", err
	}

	quotedKey, err := e.quoteColumns([]dbfixture.ColumnName{key})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		ref, quotedKey[0], e.ds.Dialect.Placeholder(1)), nil
}

func (e *Executor) buildExists(name dbfixture.TableName, key dbfixture.ColumnName) (string, error) {
	ref, err := e.tableRef(name)
	if err != nil {
		return "", err
	}

	quotedKey, err := e.quoteColumns([]dbfixture.ColumnName{key})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = %s",
		ref, quotedKey[0], e.ds.Dialect.Placeholder(1)), nil
}
