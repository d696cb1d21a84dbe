package loader

import (
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	dbfixture "github.com/shibukawa/dbfixture"
)

// Markdown parses GFM table datasets. Each table is introduced by a heading
// holding the table name, followed by a pipe table whose header row names the
// columns. Prose between tables is ignored. The [null] token is the NULL
// sentinel.
type Markdown struct{}

func (Markdown) Extensions() []string {
	return []string{".md", ".markdown"}
}

func (Markdown) Parse(r io.Reader, _ string) (*dbfixture.TableSet, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
	)

	doc := md.Parser().Parse(text.NewReader(content))

	var (
		tables  []*dbfixture.Table
		heading string
	)

	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			heading = extractNodeText(node, content)

		case *extast.Table:
			if heading == "" {
				return ast.WalkStop, dbfixture.ErrTableHeading
			}

			table, err := markdownTable(heading, node, content)
			if err != nil {
				return ast.WalkStop, err
			}

			tables = append(tables, table)

			// One table per heading; a second table needs its own heading.
			heading = ""

			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	return dbfixture.NewTableSet(tables...)
}

func markdownTable(name string, tableNode ast.Node, content []byte) (*dbfixture.Table, error) {
	var (
		headers []string
		rows    [][]any
	)

	err := ast.Walk(tableNode, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *extast.TableHeader:
			for cell := node.FirstChild(); cell != nil; cell = cell.NextSibling() {
				headers = append(headers, extractNodeText(cell, content))
			}

			return ast.WalkSkipChildren, nil

		case *extast.TableRow:
			var cells []string
			for cell := node.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, extractNodeText(cell, content))
			}

			values := make([]any, len(headers))

			for i := range headers {
				if i < len(cells) {
					values[i] = parseCell(cells[i])
				} else {
					values[i] = ""
				}
			}

			rows = append(rows, values)

			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	return dbfixture.NewTableFromValues(name, headers, rows)
}

// extractNodeText extracts text content from any AST node.
func extractNodeText(node ast.Node, content []byte) string {
	var result strings.Builder

	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch textNode := n.(type) {
		case *ast.Text:
			segment := textNode.Segment
			result.Write(content[segment.Start:segment.Stop])
		case *ast.String:
			result.Write(textNode.Value)
		}

		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(result.String())
}
