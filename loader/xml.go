package loader

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"

	dbfixture "github.com/shibukawa/dbfixture"
)

// FlatXML parses DBUnit-style flat XML datasets: a <dataset> root whose child
// element tags name tables, one element per row, attributes as column values.
// The first occurrence of a table fixes its column order; later rows may omit
// attributes (NULL) or introduce new columns, which are appended. An element
// without attributes declares its table without adding a row.
type FlatXML struct{}

func (FlatXML) Extensions() []string {
	return []string{".xml"}
}

type xmlTable struct {
	name     string
	columns  []string
	position map[string]int
	rows     []map[string]any
}

func (FlatXML) Parse(r io.Reader, _ string) (*dbfixture.TableSet, error) {
	doc := etree.NewDocument()

	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse XML data: %w", err)
	}

	dataset := doc.SelectElement("dataset")
	if dataset == nil {
		return nil, dbfixture.ErrNoDatasetElement
	}

	// Group elements by tag name (table name)
	var order []string

	grouped := make(map[string]*xmlTable)

	for _, elem := range dataset.ChildElements() {
		key := strings.ToLower(elem.Tag)

		acc, ok := grouped[key]
		if !ok {
			acc = &xmlTable{name: elem.Tag, position: make(map[string]int)}
			grouped[key] = acc
			order = append(order, key)
		}

		if len(elem.Attr) == 0 {
			continue
		}

		row := make(map[string]any, len(elem.Attr))

		for _, attr := range elem.Attr {
			lower := strings.ToLower(attr.Key)
			if _, exists := acc.position[lower]; !exists {
				acc.position[lower] = len(acc.columns)
				acc.columns = append(acc.columns, attr.Key)
			}

			row[lower] = parseCell(attr.Value)
		}

		acc.rows = append(acc.rows, row)
	}

	tables := make([]*dbfixture.Table, 0, len(order))

	for _, key := range order {
		acc := grouped[key]
		rows := make([][]any, len(acc.rows))

		for i, row := range acc.rows {
			// Attributes omitted from a row stay nil and become NULL cells.
			values := make([]any, len(acc.columns))
			for lower, v := range row {
				values[acc.position[lower]] = v
			}

			rows[i] = values
		}

		table, err := dbfixture.NewTableFromValues(acc.name, acc.columns, rows)
		if err != nil {
			return nil, err
		}

		tables = append(tables, table)
	}

	return dbfixture.NewTableSet(tables...)
}
