package dbfixture

import "strings"

// FilterScenario strips the scenario marker column from a table and, when
// scenario names are given, drops rows tagged for other scenarios.
//
// The first column is the scenario column only when its name equals the
// marker exactly, case-sensitively. Rows whose scenario tag is blank after
// trimming always pass. With no scenario names the filter is inactive: every
// row passes, though the scenario column is still stripped. Row order is
// preserved.
func FilterScenario(table *Table, marker ScenarioMarker, names []ScenarioName) *Table {
	columns := table.Columns()
	if len(columns) == 0 || string(columns[0]) != string(marker) {
		return table
	}

	keep := func(Row) bool { return true }

	if len(names) > 0 {
		keep = func(row Row) bool {
			tag := strings.TrimSpace(row.ValueAt(0).String())
			if tag == "" {
				return true
			}

			for _, name := range names {
				if tag == string(name) {
					return true
				}
			}

			return false
		}
	}

	stripped := columns[1:]
	rows := make([]Row, 0, table.RowCount())

	for _, row := range table.rows {
		if !keep(row) {
			continue
		}

		rows = append(rows, dropLeadingColumn(row))
	}

	return &Table{name: table.name, columns: stripped, rows: rows}
}

// FilterScenarioSet applies FilterScenario to every table of a set.
func FilterScenarioSet(set *TableSet, marker ScenarioMarker, names []ScenarioName) *TableSet {
	if set == nil {
		return nil
	}

	tables := make([]*Table, len(set.tables))
	for i, table := range set.tables {
		tables[i] = FilterScenario(table, marker, names)
	}

	filtered, _ := NewTableSet(tables...)

	return filtered
}

func dropLeadingColumn(row Row) Row {
	columns := make([]ColumnName, len(row.columns)-1)
	copy(columns, row.columns[1:])

	values := make([]CellValue, len(row.values)-1)
	copy(values, row.values[1:])

	index := make(map[string]int, len(columns))
	for i, col := range columns {
		index[strings.ToLower(string(col))] = i
	}

	return Row{columns: columns, values: values, index: index}
}
