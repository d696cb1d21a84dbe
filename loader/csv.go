package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	dbfixture "github.com/shibukawa/dbfixture"
)

// CSV parses comma-separated datasets. The first record is the header row;
// the table name comes from the file name. Lines starting with # are
// comments.
type CSV struct {
	Comma rune
}

func (CSV) Extensions() []string {
	return []string{".csv"}
}

func (p CSV) Parse(r io.Reader, name string) (*dbfixture.TableSet, error) {
	comma := p.Comma
	if comma == 0 {
		comma = ','
	}

	return parseDelimited(r, comma, name)
}

// TSV parses tab-separated datasets with the same layout as CSV.
type TSV struct{}

func (TSV) Extensions() []string {
	return []string{".tsv"}
}

func (TSV) Parse(r io.Reader, name string) (*dbfixture.TableSet, error) {
	return parseDelimited(r, '\t', name)
}

func parseDelimited(r io.Reader, comma rune, name string) (*dbfixture.TableSet, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse delimited data: %w", err)
	}

	if len(records) == 0 {
		return nil, dbfixture.ErrMissingHeader
	}

	headers := records[0]
	columns := make([]string, len(headers))

	for i, header := range headers {
		columns[i] = strings.TrimSpace(header)
	}

	rows := make([][]any, 0, len(records)-1)

	for _, record := range records[1:] {
		if isEmptyRecord(record) {
			continue
		}

		values := make([]any, len(record))
		for i, field := range record {
			values[i] = parseCell(field)
		}

		rows = append(rows, values)
	}

	table, err := dbfixture.NewTableFromValues(name, columns, rows)
	if err != nil {
		return nil, err
	}

	return dbfixture.NewTableSet(table)
}

// isEmptyRecord checks if a record contains only whitespace fields.
func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}

	return true
}
