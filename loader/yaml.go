package loader

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"

	dbfixture "github.com/shibukawa/dbfixture"
)

// YAML parses YAML and JSON datasets: a top-level mapping from table name to
// a list of rows, each row a mapping from column name to value. Table order
// follows the document; column order follows first appearance across rows.
// Null cells are expressed natively (YAML null / absent key).
type YAML struct{}

func (YAML) Extensions() []string {
	return []string{".yaml", ".yml", ".json"}
}

func (YAML) Parse(r io.Reader, _ string) (*dbfixture.TableSet, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	content = bytes.TrimSpace(content)
	if len(content) == 0 {
		return dbfixture.NewTableSet()
	}

	// Decode to yaml.MapSlice to preserve table and column order.
	var doc yaml.MapSlice

	err = yaml.UnmarshalWithOptions(content, &doc, yaml.UseOrderedMap())
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML data: %w", err)
	}

	tables := make([]*dbfixture.Table, 0, len(doc))

	for _, item := range doc {
		name, ok := item.Key.(string)
		if !ok {
			return nil, fmt.Errorf("%w: table name %v", dbfixture.ErrDatasetStructure, item.Key)
		}

		table, err := yamlTable(name, item.Value)
		if err != nil {
			return nil, err
		}

		tables = append(tables, table)
	}

	return dbfixture.NewTableSet(tables...)
}

func yamlTable(name string, value any) (*dbfixture.Table, error) {
	// A table with no rows declares the table for delete-style operations.
	if value == nil {
		return dbfixture.NewTableFromValues(name, nil, nil)
	}

	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a row list", dbfixture.ErrDatasetStructure, name)
	}

	var columns []string

	position := make(map[string]int)
	rawRows := make([]yaml.MapSlice, 0, len(list))

	for i, row := range list {
		mapping, ok := row.(yaml.MapSlice)
		if !ok {
			return nil, fmt.Errorf("%w: %s row %d is not a mapping", dbfixture.ErrDatasetStructure, name, i)
		}

		for _, cell := range mapping {
			key, ok := cell.Key.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s row %d has a non-string column name", dbfixture.ErrDatasetStructure, name, i)
			}

			lower := strings.ToLower(key)
			if _, exists := position[lower]; !exists {
				position[lower] = len(columns)
				columns = append(columns, key)
			}
		}

		rawRows = append(rawRows, mapping)
	}

	rows := make([][]any, len(rawRows))

	for i, mapping := range rawRows {
		// Columns absent from a row stay nil and become NULL cells.
		values := make([]any, len(columns))

		for _, cell := range mapping {
			key, _ := cell.Key.(string)
			values[position[strings.ToLower(key)]] = normalizeYAMLValue(cell.Value)
		}

		rows[i] = values
	}

	return dbfixture.NewTableFromValues(name, columns, rows)
}

// normalizeYAMLValue ensures consistent types for decoded scalars.
func normalizeYAMLValue(v any) any {
	switch val := v.(type) {
	case float64:
		// Convert to int if it's a whole number
		if float64(int64(val)) == val {
			return int64(val)
		}

		return val
	case float32:
		if float32(int32(val)) == val {
			return int32(val)
		}

		return val
	default:
		return v
	}
}
