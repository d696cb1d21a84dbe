package compare

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	dbfixture "github.com/shibukawa/dbfixture"
)

func mustTable(t *testing.T, name string, columns []string, rows [][]any) *dbfixture.Table {
	t.Helper()

	table, err := dbfixture.NewTableFromValues(name, columns, rows)
	assert.NoError(t, err)

	return table
}

func mustSet(t *testing.T, tables ...*dbfixture.Table) *dbfixture.TableSet {
	t.Helper()

	set, err := dbfixture.NewTableSet(tables...)
	assert.NoError(t, err)

	return set
}

func TestCompareTablesEqual(t *testing.T) {
	expected := mustTable(t, "users", []string{"id", "name", "email"}, [][]any{
		{1, "Alice", "alice@example.com"},
		{2, "Bob", nil},
	})
	actual := mustTable(t, "users", []string{"id", "name", "email"}, [][]any{
		{int64(1), "Alice", "alice@example.com"},
		{int64(2), "Bob", nil},
	})

	report := CompareTables(expected, actual)
	assert.True(t, report.Empty())
	assert.Equal(t, 0, report.Len())
}

func TestCompareTablesCollectsEveryDifference(t *testing.T) {
	expected := mustTable(t, "users", []string{"id", "name", "email"}, [][]any{
		{1, "Alice", "a@example.com"},
		{2, "Bob", "b@example.com"},
		{3, "Carol", "c@example.com"},
	})
	actual := mustTable(t, "users", []string{"id", "name", "email"}, [][]any{
		{1, "Alicia", "a@example.com"},
		{2, "Bob", "oops@example.com"},
	})

	report := CompareTables(expected, actual)

	assert.Equal(t, []Difference{
		{Table: "users", Path: "row_count", Expected: "3", Actual: "2"},
		{Table: "users", Path: "row[0].NAME", Expected: "Alice", Actual: "Alicia"},
		{Table: "users", Path: "row[1].EMAIL", Expected: "b@example.com", Actual: "oops@example.com"},
	}, report.Differences)
}

func TestCompareTablesReportsNullMismatches(t *testing.T) {
	expected := mustTable(t, "users", []string{"id", "email"}, [][]any{
		{1, nil},
	})
	actual := mustTable(t, "users", []string{"id", "email"}, [][]any{
		{1, "a@example.com"},
	})

	report := CompareTables(expected, actual)

	assert.Equal(t, []Difference{
		{Table: "users", Path: "row[0].EMAIL", Expected: "[null]", Actual: "a@example.com"},
	}, report.Differences)
}

func TestCompareTablesMissingColumn(t *testing.T) {
	expected := mustTable(t, "users", []string{"id", "email"}, [][]any{
		{1, "a@example.com"},
	})
	actual := mustTable(t, "users", []string{"id"}, [][]any{
		{1},
	})

	report := CompareTables(expected, actual)

	assert.Equal(t, []Difference{
		{Table: "users", Path: "row[0].EMAIL", Expected: "a@example.com", Actual: "<no such column>"},
	}, report.Differences)
}

func TestCompareTableSetsMissingAndExtraTables(t *testing.T) {
	users := mustTable(t, "users", []string{"id"}, [][]any{{1}})
	posts := mustTable(t, "posts", []string{"id"}, [][]any{{1}})
	tags := mustTable(t, "tags", []string{"id"}, [][]any{{1}})

	report := CompareTableSets(mustSet(t, users, posts), mustSet(t, users, tags))

	assert.Equal(t, []Difference{
		{Table: "posts", Path: "table_count", Expected: "present", Actual: "absent"},
		{Table: "tags", Path: "table_count", Expected: "absent", Actual: "present"},
	}, report.Differences)
}

func TestCompareTableSetsCountsTables(t *testing.T) {
	users := mustTable(t, "users", []string{"id"}, [][]any{{1}})
	posts := mustTable(t, "posts", []string{"id"}, [][]any{{1}})

	report := CompareTableSets(mustSet(t, users, posts), mustSet(t, users))

	assert.Equal(t, []Difference{
		{Path: "table_count", Expected: "2", Actual: "1"},
		{Table: "posts", Path: "table_count", Expected: "present", Actual: "absent"},
	}, report.Differences)
}

func TestCompareTableSetsMatchesNamesCaseInsensitively(t *testing.T) {
	expected := mustSet(t, mustTable(t, "USERS", []string{"id"}, [][]any{{1}}))
	actual := mustSet(t, mustTable(t, "users", []string{"id"}, [][]any{{1}}))

	assert.True(t, CompareTableSets(expected, actual).Empty())
}

func TestCompareExcludesColumns(t *testing.T) {
	expected := mustTable(t, "users", []string{"id", "created_at"}, [][]any{
		{1, "2024-01-01 00:00:00"},
	})
	actual := mustTable(t, "users", []string{"id", "created_at"}, [][]any{
		{1, "2025-06-30 12:34:56"},
	})

	assert.False(t, CompareTables(expected, actual).Empty())
	assert.True(t, CompareTables(expected, actual, WithExcludeColumns("CREATED_at")).Empty())
}

func TestCompareAppliesColumnStrategies(t *testing.T) {
	expected := mustTable(t, "items", []string{"id", "price", "code"}, [][]any{
		{1, "1.0", "abc-001"},
	})
	actual := mustTable(t, "items", []string{"id", "price", "code"}, [][]any{
		{1, 1, "ABC-001"},
	})

	report := CompareTables(expected, actual,
		WithStrategy("price", ColumnStrategy{Kind: StrategyNumeric}),
		WithStrategy("code", ColumnStrategy{Kind: StrategyCaseInsensitive}),
	)
	assert.True(t, report.Empty())

	// Without the strategies both columns mismatch.
	assert.Equal(t, 2, CompareTables(expected, actual).Len())
}

func TestCompareHonorsMatcherCells(t *testing.T) {
	expected := mustTable(t, "users", []string{"id", "email", "token", "updated_at"}, [][]any{
		{1, "[null]", "[regexp, [0-9a-f]+]", "[any]"},
		{2, "[notnull]", []any{"regexp", "tok-[0-9]+"}, "[any]"},
	})
	actual := mustTable(t, "users", []string{"id", "email", "token", "updated_at"}, [][]any{
		{1, nil, "deadbeef", "2024-01-01 00:00:00"},
		{2, "bob@example.com", "tok-42", nil},
	})

	assert.True(t, CompareTables(expected, actual).Empty())
}

func TestCompareReportsMatcherCellFailures(t *testing.T) {
	expected := mustTable(t, "users", []string{"id", "email"}, [][]any{
		{1, "[notnull]"},
	})
	actual := mustTable(t, "users", []string{"id", "email"}, [][]any{
		{1, nil},
	})

	report := CompareTables(expected, actual)

	assert.Equal(t, []Difference{
		{Table: "users", Path: "row[0].EMAIL", Expected: "[notnull]", Actual: "[null]"},
	}, report.Differences)
}

func TestAssertEqualsReturnsAssertionError(t *testing.T) {
	expected := mustSet(t, mustTable(t, "users", []string{"id", "name"}, [][]any{
		{1, "Alice"},
	}))
	actual := mustSet(t, mustTable(t, "users", []string{"id", "name"}, [][]any{
		{1, "Bob"},
	}))

	err := AssertEquals(expected, actual)
	assert.True(t, errors.Is(err, dbfixture.ErrAssertion))

	var ae *AssertionError
	assert.True(t, errors.As(err, &ae))
	assert.Equal(t, 1, ae.Report.Len())
	assert.True(t, strings.Contains(err.Error(), "row[0].NAME: expected Alice, actual Bob"))
}

func TestAssertEqualsPasses(t *testing.T) {
	set := mustSet(t, mustTable(t, "users", []string{"id"}, [][]any{{1}}))

	assert.NoError(t, AssertEquals(set, set))
}

func TestAssertEqualsTableUsesFailureHandler(t *testing.T) {
	expected := mustTable(t, "users", []string{"id"}, [][]any{{1}})
	actual := mustTable(t, "users", []string{"id"}, [][]any{{2}})

	var captured *Report
	err := AssertEqualsTable(expected, actual, WithFailureHandler(func(report *Report) error {
		captured = report

		return nil
	}))

	assert.NoError(t, err)
	assert.Equal(t, 1, captured.Len())
	assert.Equal(t, "row[0].ID", captured.Differences[0].Path)
}
