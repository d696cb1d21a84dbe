// Package compare checks actual table contents, in memory or read live from
// a database, against expected datasets. Differences are collected into a
// structured report instead of failing on the first mismatch.
package compare

import (
	"fmt"
	"strconv"
	"strings"

	dbfixture "github.com/shibukawa/dbfixture"
)

// Difference is one mismatch found during a comparison.
type Difference struct {
	// Table names the table the mismatch belongs to, empty for dataset-level
	// mismatches.
	Table dbfixture.TableName
	// Path locates the mismatch: "table_count", "row_count", or
	// "row[N].COLUMN".
	Path string
	// Expected and Actual hold the display forms of both sides.
	Expected string
	Actual   string
	// Column carries driver-reported metadata when the actual side was
	// materialized from a live query.
	Column *ColumnMeta
}

// ColumnMeta is column metadata captured from sql.ColumnType.
type ColumnMeta struct {
	DatabaseType string
	Nullable     *bool
}

// Report collects every difference of one comparison.
type Report struct {
	Differences []Difference
}

// Empty reports whether the comparison found no differences.
func (r *Report) Empty() bool {
	return r == nil || len(r.Differences) == 0
}

// Len returns the number of differences.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}

	return len(r.Differences)
}

func (r *Report) add(d Difference) {
	r.Differences = append(r.Differences, d)
}

// AssertionError is the failure raised by the default failure handler. It
// wraps ErrAssertion and carries the full difference report.
type AssertionError struct {
	Report *Report
}

func (e *AssertionError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "dataset assertion failed\n")
	RenderPlain(&b, e.Report)

	return strings.TrimSuffix(b.String(), "\n")
}

func (e *AssertionError) Unwrap() error {
	return dbfixture.ErrAssertion
}

// FailureHandler receives the report of a failed comparison. Whatever it
// returns is what the assertion call returns; returning nil swallows the
// failure.
type FailureHandler func(report *Report) error

func defaultFailureHandler(report *Report) error {
	return &AssertionError{Report: report}
}

type options struct {
	strategies map[string]ColumnStrategy
	exclude    map[string]struct{}
	handler    FailureHandler
}

// Option configures a comparison.
type Option func(*options)

// WithStrategy assigns a comparison strategy to a column. Column names match
// case-insensitively.
func WithStrategy(column string, strategy ColumnStrategy) Option {
	return func(o *options) {
		o.strategies[strings.ToUpper(column)] = strategy
	}
}

// WithExcludeColumns skips the listed columns entirely.
func WithExcludeColumns(columns ...string) Option {
	return func(o *options) {
		for _, col := range columns {
			o.exclude[strings.ToUpper(col)] = struct{}{}
		}
	}
}

// WithFailureHandler replaces the default handler, which returns an
// AssertionError carrying the report.
func WithFailureHandler(h FailureHandler) Option {
	return func(o *options) {
		o.handler = h
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		strategies: map[string]ColumnStrategy{},
		exclude:    map[string]struct{}{},
		handler:    defaultFailureHandler,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func (o *options) finish(report *Report) error {
	if report.Empty() {
		return nil
	}

	return o.handler(report)
}

// CompareTables compares one expected table against an actual one and
// returns the differences.
func CompareTables(expected, actual *dbfixture.Table, opts ...Option) *Report {
	o := newOptions(opts)
	report := &Report{}
	compareTable(report, o, expected, actual, nil)

	return report
}

// CompareTableSets compares two table sets by name and returns the
// differences. Extra and missing tables count as differences on both sides.
func CompareTableSets(expected, actual *dbfixture.TableSet, opts ...Option) *Report {
	o := newOptions(opts)
	report := &Report{}
	compareSets(report, o, expected, actual)

	return report
}

// AssertEquals compares two table sets and routes any differences through
// the failure handler.
func AssertEquals(expected, actual *dbfixture.TableSet, opts ...Option) error {
	o := newOptions(opts)
	report := &Report{}
	compareSets(report, o, expected, actual)

	return o.finish(report)
}

// AssertEqualsTable compares two tables and routes any differences through
// the failure handler.
func AssertEqualsTable(expected, actual *dbfixture.Table, opts ...Option) error {
	o := newOptions(opts)
	report := &Report{}
	compareTable(report, o, expected, actual, nil)

	return o.finish(report)
}

func compareSets(report *Report, o *options, expected, actual *dbfixture.TableSet) {
	if expected.Len() != actual.Len() {
		report.add(Difference{
			Path:     "table_count",
			Expected: strconv.Itoa(expected.Len()),
			Actual:   strconv.Itoa(actual.Len()),
		})
	}

	for _, want := range expected.Tables() {
		got, ok := actual.Table(want.Name())
		if !ok {
			report.add(Difference{
				Table:    want.Name(),
				Path:     "table_count",
				Expected: "present",
				Actual:   "absent",
			})

			continue
		}

		compareTable(report, o, want, got, nil)
	}

	for _, got := range actual.Tables() {
		if _, ok := expected.Table(got.Name()); !ok {
			report.add(Difference{
				Table:    got.Name(),
				Path:     "table_count",
				Expected: "absent",
				Actual:   "present",
			})
		}
	}
}

// compareTable walks the expected table's rows and columns against the
// actual table, collecting every difference. Rows pair up by position.
func compareTable(report *Report, o *options, expected, actual *dbfixture.Table, meta map[string]ColumnMeta) {
	if expected.RowCount() != actual.RowCount() {
		report.add(Difference{
			Table:    expected.Name(),
			Path:     "row_count",
			Expected: strconv.Itoa(expected.RowCount()),
			Actual:   strconv.Itoa(actual.RowCount()),
		})
	}

	rows := expected.RowCount()
	if actual.RowCount() < rows {
		rows = actual.RowCount()
	}

	columns := expected.Columns()

	for i := 0; i < rows; i++ {
		expRow := expected.Row(i)
		actRow := actual.Row(i)

		for _, col := range columns {
			upper := strings.ToUpper(string(col))
			if _, skip := o.exclude[upper]; skip {
				continue
			}

			expCell, _ := expRow.Value(col)
			path := fmt.Sprintf("row[%d].%s", i, upper)

			actCell, ok := actRow.Value(col)
			if !ok {
				report.add(Difference{
					Table:    expected.Name(),
					Path:     path,
					Expected: formatCell(expCell),
					Actual:   "<no such column>",
					Column:   columnMeta(meta, upper),
				})

				continue
			}

			strategy, overridden := matcherOverride(expCell)
			if !overridden {
				strategy = o.strategies[upper]
			}

			if !cellsMatch(strategy, expCell, actCell) {
				report.add(Difference{
					Table:    expected.Name(),
					Path:     path,
					Expected: formatCell(expCell),
					Actual:   formatCell(actCell),
					Column:   columnMeta(meta, upper),
				})
			}
		}
	}
}

func columnMeta(meta map[string]ColumnMeta, upper string) *ColumnMeta {
	if meta == nil {
		return nil
	}

	m, ok := meta[upper]
	if !ok {
		return nil
	}

	return &m
}

// formatCell renders a cell for the report: NULL as the dataset token, any
// other value through its string form.
func formatCell(cell dbfixture.CellValue) string {
	if cell.IsNull() {
		return "[null]"
	}

	return cell.String()
}
