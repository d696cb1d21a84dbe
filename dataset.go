package dbfixture

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// CellValue is a scalar table cell. It distinguishes an SQL NULL from every
// present value; a missing column is expressed by lookup failure, never by a
// CellValue.
type CellValue struct {
	value any
	null  bool
}

// Null is the NULL cell sentinel.
var Null = CellValue{null: true}

// NewCellValue wraps a scalar into a CellValue. A nil value becomes Null.
func NewCellValue(value any) CellValue {
	if value == nil {
		return Null
	}

	return CellValue{value: value}
}

// IsNull reports whether the cell holds SQL NULL.
func (c CellValue) IsNull() bool {
	return c.null
}

// Value returns the wrapped scalar, nil for NULL.
func (c CellValue) Value() any {
	if c.null {
		return nil
	}

	return c.value
}

// String returns the cell's string form. NULL renders as the empty string.
func (c CellValue) String() string {
	if c.null {
		return ""
	}

	switch v := c.value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Equal reports full value equality. Both-NULL cells are equal; a NULL and a
// present value are not. Numeric values compare across integer and float
// representations so a scanned int64 matches a literal int.
func (c CellValue) Equal(other CellValue) bool {
	if c.null || other.null {
		return c.null && other.null
	}

	// Drivers hand text columns back as []byte, so bytes bridge to strings.
	if a, ok := c.value.([]byte); ok {
		switch b := other.value.(type) {
		case []byte:
			return bytes.Equal(a, b)
		case string:
			return string(a) == b
		}

		return false
	}

	if a, ok := c.value.(string); ok {
		if b, ok := other.value.([]byte); ok {
			return a == string(b)
		}
	}

	if a, ok := c.value.(time.Time); ok {
		if b, ok := other.value.(time.Time); ok {
			return a.Equal(b)
		}

		return false
	}

	if af, aok := toFloat(c.value); aok {
		if bf, bok := toFloat(other.value); bok {
			return af == bf
		}

		return false
	}

	if c.value == other.value {
		return true
	}

	return fmt.Sprintf("%v", c.value) == fmt.Sprintf("%v", other.value)
}

// toFloat widens any non-string numeric type to float64.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// Row is an ordered, immutable mapping from ColumnName to CellValue. Column
// order is the declaration order; lookups are case-insensitive.
type Row struct {
	columns []ColumnName
	values  []CellValue
	index   map[string]int
}

// NewRow builds a Row from parallel column and value slices.
func NewRow(columns []ColumnName, values []CellValue) (Row, error) {
	if len(columns) != len(values) {
		return Row{}, fmt.Errorf("%w: %d columns, %d values", ErrRowShape, len(columns), len(values))
	}

	cols := make([]ColumnName, len(columns))
	vals := make([]CellValue, len(values))
	index := make(map[string]int, len(columns))

	for i, raw := range columns {
		col, err := NewColumnName(string(raw))
		if err != nil {
			return Row{}, err
		}

		key := strings.ToLower(string(col))
		if _, exists := index[key]; exists {
			return Row{}, fmt.Errorf("%w: %s", ErrDuplicateColumn, col)
		}

		cols[i] = col
		vals[i] = values[i]
		index[key] = i
	}

	return Row{columns: cols, values: vals, index: index}, nil
}

// Columns returns the row's column names in declaration order.
func (r Row) Columns() []ColumnName {
	out := make([]ColumnName, len(r.columns))
	copy(out, r.columns)

	return out
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.columns)
}

// Value looks up a cell by column name, case-insensitively. The second result
// is false when the column is absent from the row.
func (r Row) Value(col ColumnName) (CellValue, bool) {
	i, ok := r.index[strings.ToLower(string(col))]
	if !ok {
		return CellValue{}, false
	}

	return r.values[i], true
}

// ValueAt returns the cell at position i in declaration order.
func (r Row) ValueAt(i int) CellValue {
	return r.values[i]
}

// ColumnAt returns the column name at position i.
func (r Row) ColumnAt(i int) ColumnName {
	return r.columns[i]
}

// Equal reports whether two rows have the same columns (ignoring case) in the
// same order with equal values.
func (r Row) Equal(other Row) bool {
	if len(r.columns) != len(other.columns) {
		return false
	}

	for i := range r.columns {
		if !r.columns[i].EqualFold(other.columns[i]) {
			return false
		}

		if !r.values[i].Equal(other.values[i]) {
			return false
		}
	}

	return true
}

// Table is a named, immutable list of rows sharing one ordered column list.
type Table struct {
	name    TableName
	columns []ColumnName
	rows    []Row
}

// NewTable builds a Table, validating that column names are unique
// (case-insensitively) and that every row's key set equals the column list.
func NewTable(name TableName, columns []ColumnName, rows []Row) (*Table, error) {
	validName, err := NewTableName(string(name))
	if err != nil {
		return nil, err
	}

	cols := make([]ColumnName, len(columns))
	seen := make(map[string]struct{}, len(columns))

	for i, raw := range columns {
		col, err := NewColumnName(string(raw))
		if err != nil {
			return nil, err
		}

		key := strings.ToLower(string(col))
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %s in table %s", ErrDuplicateColumn, col, validName)
		}

		seen[key] = struct{}{}
		cols[i] = col
	}

	copied := make([]Row, len(rows))

	for i, row := range rows {
		if row.Len() != len(cols) {
			return nil, fmt.Errorf("%w: table %s row %d has %d columns, want %d",
				ErrRowShape, validName, i, row.Len(), len(cols))
		}

		for _, col := range cols {
			if _, ok := row.Value(col); !ok {
				return nil, fmt.Errorf("%w: table %s row %d is missing column %s",
					ErrRowShape, validName, i, col)
			}
		}

		copied[i] = row
	}

	return &Table{name: validName, columns: cols, rows: copied}, nil
}

// NewTableFromValues builds a Table from raw column names and row value
// slices. nil values become NULL cells. This is the construction path used by
// the dataset file loaders.
func NewTableFromValues(name string, columns []string, rows [][]any) (*Table, error) {
	cols := make([]ColumnName, len(columns))
	for i, c := range columns {
		cols[i] = ColumnName(c)
	}

	built := make([]Row, len(rows))

	for i, values := range rows {
		if len(values) != len(columns) {
			return nil, fmt.Errorf("%w: table %s row %d has %d values, want %d",
				ErrRowShape, name, i, len(values), len(columns))
		}

		cells := make([]CellValue, len(values))
		for j, v := range values {
			cells[j] = NewCellValue(v)
		}

		row, err := NewRow(cols, cells)
		if err != nil {
			return nil, err
		}

		built[i] = row
	}

	return NewTable(TableName(name), cols, built)
}

// Name returns the table name.
func (t *Table) Name() TableName {
	return t.name
}

// Columns returns the column names in declaration order.
func (t *Table) Columns() []ColumnName {
	out := make([]ColumnName, len(t.columns))
	copy(out, t.columns)

	return out
}

// ColumnCount returns the number of declared columns.
func (t *Table) ColumnCount() int {
	return len(t.columns)
}

// Rows returns the rows in declaration order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)

	return out
}

// Row returns the row at position i.
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}

// TableSet is an ordered collection of tables with case-insensitively unique
// names.
type TableSet struct {
	tables []*Table
	index  map[string]int
}

// NewTableSet builds a TableSet preserving table order.
func NewTableSet(tables ...*Table) (*TableSet, error) {
	set := &TableSet{
		tables: make([]*Table, 0, len(tables)),
		index:  make(map[string]int, len(tables)),
	}

	for _, table := range tables {
		key := strings.ToLower(string(table.Name()))
		if _, dup := set.index[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTable, table.Name())
		}

		set.index[key] = len(set.tables)
		set.tables = append(set.tables, table)
	}

	return set, nil
}

// Tables returns the tables in declaration order.
func (s *TableSet) Tables() []*Table {
	if s == nil {
		return nil
	}

	out := make([]*Table, len(s.tables))
	copy(out, s.tables)

	return out
}

// Table looks a table up by name, case-insensitively.
func (s *TableSet) Table(name TableName) (*Table, bool) {
	if s == nil {
		return nil, false
	}

	i, ok := s.index[strings.ToLower(string(name))]
	if !ok {
		return nil, false
	}

	return s.tables[i], true
}

// Names returns the table names in declaration order.
func (s *TableSet) Names() []TableName {
	if s == nil {
		return nil
	}

	names := make([]TableName, len(s.tables))
	for i, t := range s.tables {
		names[i] = t.Name()
	}

	return names
}

// Len returns the number of tables.
func (s *TableSet) Len() int {
	if s == nil {
		return 0
	}

	return len(s.tables)
}
