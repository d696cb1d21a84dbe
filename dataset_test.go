package dbfixture

import (
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestNewCellValue(t *testing.T) {
	v := NewCellValue("hello")
	assert.False(t, v.IsNull())
	assert.Equal(t, "hello", v.Value().(string))

	n := NewCellValue(nil)
	assert.True(t, n.IsNull())
	assert.Zero(t, n.Value())

	assert.True(t, Null.IsNull())
}

func TestCellValueEqual(t *testing.T) {
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a    CellValue
		b    CellValue
		want bool
	}{
		{"both null", Null, NewCellValue(nil), true},
		{"null vs value", Null, NewCellValue("x"), false},
		{"value vs null", NewCellValue(0), Null, false},
		{"equal strings", NewCellValue("a"), NewCellValue("a"), true},
		{"different strings", NewCellValue("a"), NewCellValue("b"), false},
		{"int vs int64", NewCellValue(1), NewCellValue(int64(1)), true},
		{"int vs float", NewCellValue(1), NewCellValue(1.0), true},
		{"different numbers", NewCellValue(1), NewCellValue(2), false},
		{"numeric string vs int", NewCellValue("1.0"), NewCellValue(1), false},
		{"bytes equal", NewCellValue([]byte{1, 2}), NewCellValue([]byte{1, 2}), true},
		{"bytes differ", NewCellValue([]byte{1, 2}), NewCellValue([]byte{2, 1}), false},
		{"bytes vs string", NewCellValue([]byte("ab")), NewCellValue("ab"), true},
		{"string vs bytes", NewCellValue("ab"), NewCellValue([]byte("ab")), true},
		{"times equal", NewCellValue(ts), NewCellValue(ts.In(time.FixedZone("JST", 9*3600))), true},
		{"times differ", NewCellValue(ts), NewCellValue(ts.Add(time.Second)), false},
		{"bools", NewCellValue(true), NewCellValue(true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestCellValueString(t *testing.T) {
	assert.Equal(t, "", Null.String())
	assert.Equal(t, "text", NewCellValue("text").String())
	assert.Equal(t, "42", NewCellValue(42).String())
	assert.Equal(t, "ab", NewCellValue([]byte("ab")).String())
	assert.Equal(t, "2024-01-01 10:00:00",
		NewCellValue(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)).String())
}

func TestNewRow(t *testing.T) {
	cols := []ColumnName{"ID", "NAME"}

	row, err := NewRow(cols, []CellValue{NewCellValue(1), NewCellValue("A")})
	assert.NoError(t, err)
	assert.Equal(t, 2, row.Len())

	// lookups are case-insensitive
	v, ok := row.Value(ColumnName("id"))
	assert.True(t, ok)
	assert.Equal(t, 1, v.Value().(int))

	_, ok = row.Value(ColumnName("missing"))
	assert.False(t, ok)

	_, err = NewRow(cols, []CellValue{NewCellValue(1)})
	assert.True(t, errors.Is(err, ErrRowShape))

	_, err = NewRow([]ColumnName{"id", "ID"}, []CellValue{Null, Null})
	assert.True(t, errors.Is(err, ErrDuplicateColumn))
}

func TestRowEqual(t *testing.T) {
	cols := []ColumnName{"ID", "NAME"}
	r1, _ := NewRow(cols, []CellValue{NewCellValue(1), NewCellValue("A")})
	r2, _ := NewRow([]ColumnName{"id", "name"}, []CellValue{NewCellValue(int64(1)), NewCellValue("A")})
	r3, _ := NewRow(cols, []CellValue{NewCellValue(1), NewCellValue("B")})

	assert.True(t, r1.Equal(r2))
	assert.False(t, r1.Equal(r3))
}

func TestNewTable(t *testing.T) {
	cols := []ColumnName{"ID", "NAME"}
	row, _ := NewRow(cols, []CellValue{NewCellValue(1), NewCellValue("A")})

	table, err := NewTable("users", cols, []Row{row})
	assert.NoError(t, err)
	assert.Equal(t, TableName("users"), table.Name())
	assert.Equal(t, 1, table.RowCount())
	assert.Equal(t, 2, table.ColumnCount())

	_, err = NewTable("users", []ColumnName{"id", "ID"}, nil)
	assert.True(t, errors.Is(err, ErrDuplicateColumn))

	short, _ := NewRow([]ColumnName{"ID"}, []CellValue{NewCellValue(1)})
	_, err = NewTable("users", cols, []Row{short})
	assert.True(t, errors.Is(err, ErrRowShape))

	other, _ := NewRow([]ColumnName{"ID", "EMAIL"}, []CellValue{NewCellValue(1), Null})
	_, err = NewTable("users", cols, []Row{other})
	assert.True(t, errors.Is(err, ErrRowShape))

	_, err = NewTable("  ", cols, nil)
	assert.True(t, errors.Is(err, ErrBlankIdentifier))
}

func TestNewTableFromValues(t *testing.T) {
	table, err := NewTableFromValues("users", []string{"ID", "NAME"}, [][]any{
		{1, "A"},
		{2, nil},
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, table.RowCount())

	v, ok := table.Row(1).Value("NAME")
	assert.True(t, ok)
	assert.True(t, v.IsNull())

	_, err = NewTableFromValues("users", []string{"ID"}, [][]any{{1, 2}})
	assert.True(t, errors.Is(err, ErrRowShape))
}

func TestTableSet(t *testing.T) {
	users, _ := NewTableFromValues("users", []string{"ID"}, [][]any{{1}})
	orders, _ := NewTableFromValues("orders", []string{"ID"}, [][]any{{10}})

	set, err := NewTableSet(users, orders)
	assert.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []TableName{"users", "orders"}, set.Names())

	// lookup is case-insensitive
	got, ok := set.Table("USERS")
	assert.True(t, ok)
	assert.Equal(t, TableName("users"), got.Name())

	_, ok = set.Table("unknown")
	assert.False(t, ok)

	dup, _ := NewTableFromValues("USERS", []string{"ID"}, nil)
	_, err = NewTableSet(users, dup)
	assert.True(t, errors.Is(err, ErrDuplicateTable))
}

func TestTableSetEmpty(t *testing.T) {
	set, err := NewTableSet()
	assert.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.Equal(t, 0, len(set.Names()))
}
