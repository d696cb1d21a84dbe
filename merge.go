package dbfixture

import (
	"fmt"
	"strings"
)

// MergeStrategy selects how tables sharing a name across sources combine.
type MergeStrategy string

const (
	// MergeFirst keeps only the earliest-declared table of a group.
	MergeFirst MergeStrategy = "FIRST"
	// MergeLast keeps only the latest-declared table of a group, replacing
	// both column list and rows.
	MergeLast MergeStrategy = "LAST"
	// MergeUnion concatenates rows and removes fully-equal duplicates,
	// keeping the first occurrence.
	MergeUnion MergeStrategy = "UNION"
	// MergeUnionAll concatenates rows in source order, keeping duplicates.
	MergeUnionAll MergeStrategy = "UNION_ALL"
)

// DefaultMergeStrategy is used when no strategy is configured.
const DefaultMergeStrategy = MergeUnionAll

// ParseMergeStrategy parses a strategy name. The empty string yields the
// default.
func ParseMergeStrategy(raw string) (MergeStrategy, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	switch normalized {
	case "":
		return DefaultMergeStrategy, nil
	case string(MergeFirst), string(MergeLast), string(MergeUnion), string(MergeUnionAll):
		return MergeStrategy(normalized), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMergeStrategy, raw)
	}
}

// Merge combines multiple table sets into one. Tables are grouped by name
// across all sources; the group keeps the position of its first-seen table in
// the output. An empty input yields an empty set, a single input is returned
// unchanged with no strategy applied.
func Merge(sources []*TableSet, strategy MergeStrategy) (*TableSet, error) {
	switch strategy {
	case MergeFirst, MergeLast, MergeUnion, MergeUnionAll:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMergeStrategy, strategy)
	}

	if len(sources) == 0 {
		return NewTableSet()
	}

	if len(sources) == 1 {
		if sources[0] == nil {
			return NewTableSet()
		}

		return sources[0], nil
	}

	var order []string

	groups := make(map[string][]*Table)

	for _, source := range sources {
		for _, table := range source.Tables() {
			key := strings.ToLower(string(table.Name()))
			if _, seen := groups[key]; !seen {
				order = append(order, key)
			}

			groups[key] = append(groups[key], table)
		}
	}

	merged := make([]*Table, 0, len(order))

	for _, key := range order {
		group := groups[key]

		var (
			table *Table
			err   error
		)

		switch strategy {
		case MergeFirst:
			table = group[0]
		case MergeLast:
			table = group[len(group)-1]
		case MergeUnion:
			table, err = combineRows(group, true)
		case MergeUnionAll:
			table, err = combineRows(group, false)
		}

		if err != nil {
			return nil, err
		}

		merged = append(merged, table)
	}

	return NewTableSet(merged...)
}

// combineRows concatenates all rows of a group onto the first table's column
// list. Rows from later tables are projected onto that list by
// case-insensitive lookup; a column absent from a source row becomes NULL.
func combineRows(group []*Table, dedupe bool) (*Table, error) {
	base := group[0]
	columns := base.Columns()

	var rows []Row

	for _, table := range group {
		for _, row := range table.Rows() {
			projected, err := projectRow(row, columns)
			if err != nil {
				return nil, fmt.Errorf("table %s: %w", base.Name(), err)
			}

			if dedupe && containsRow(rows, projected) {
				continue
			}

			rows = append(rows, projected)
		}
	}

	return NewTable(base.Name(), columns, rows)
}

func projectRow(row Row, columns []ColumnName) (Row, error) {
	if sameColumns(row, columns) {
		return row, nil
	}

	values := make([]CellValue, len(columns))

	for i, col := range columns {
		if v, ok := row.Value(col); ok {
			values[i] = v
		} else {
			values[i] = Null
		}
	}

	return NewRow(columns, values)
}

func sameColumns(row Row, columns []ColumnName) bool {
	if row.Len() != len(columns) {
		return false
	}

	for i, col := range columns {
		if !row.ColumnAt(i).EqualFold(col) {
			return false
		}
	}

	return true
}

func containsRow(rows []Row, candidate Row) bool {
	for _, row := range rows {
		if row.Equal(candidate) {
			return true
		}
	}

	return false
}
