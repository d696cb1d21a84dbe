package compare

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	dbfixture "github.com/shibukawa/dbfixture"
)

type style struct {
	summary func(format string, a ...any) string
	heading func(format string, a ...any) string
	path    func(format string, a ...any) string
	good    func(format string, a ...any) string
	bad     func(format string, a ...any) string
}

var plainStyle = style{
	summary: fmt.Sprintf,
	heading: fmt.Sprintf,
	path:    fmt.Sprintf,
	good:    fmt.Sprintf,
	bad:     fmt.Sprintf,
}

func colorStyle() style {
	return style{
		summary: color.New(color.FgRed, color.Bold).Sprintf,
		heading: color.New(color.Bold).Sprintf,
		path:    color.New(color.FgCyan).Sprintf,
		good:    color.New(color.FgGreen).Sprintf,
		bad:     color.New(color.FgRed).Sprintf,
	}
}

// RenderPlain writes the report as stable uncolored text, one difference per
// line grouped by table.
func RenderPlain(w io.Writer, report *Report) {
	render(w, report, plainStyle)
}

// RenderColor writes the report with color highlighting. It follows the
// fatih/color global switches, so redirected output degrades to plain text.
func RenderColor(w io.Writer, report *Report) {
	render(w, report, colorStyle())
}

func render(w io.Writer, report *Report, s style) {
	if report.Empty() {
		fmt.Fprintln(w, "no differences found")
		return
	}

	if report.Len() == 1 {
		fmt.Fprintln(w, s.summary("1 difference found"))
	} else {
		fmt.Fprintln(w, s.summary("%d differences found", report.Len()))
	}

	order, grouped := groupByTable(report)

	for _, table := range order {
		heading := "[dataset]"
		if table != "" {
			heading = "[" + string(table) + "]"
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, s.heading("%s", heading))

		for _, d := range grouped[table] {
			line := fmt.Sprintf("  %s: expected %s, actual %s",
				s.path("%s", d.Path), s.good("%s", d.Expected), s.bad("%s", d.Actual))

			if suffix := metaSuffix(d.Column); suffix != "" {
				line += " (" + suffix + ")"
			}

			fmt.Fprintln(w, line)
		}
	}
}

// groupByTable buckets differences by table, keeping first-appearance order.
// Dataset-level differences group under the empty name.
func groupByTable(report *Report) ([]dbfixture.TableName, map[dbfixture.TableName][]Difference) {
	var order []dbfixture.TableName

	grouped := map[dbfixture.TableName][]Difference{}

	for _, d := range report.Differences {
		if _, seen := grouped[d.Table]; !seen {
			order = append(order, d.Table)
		}

		grouped[d.Table] = append(grouped[d.Table], d)
	}

	return order, grouped
}

func metaSuffix(meta *ColumnMeta) string {
	if meta == nil {
		return ""
	}

	var parts []string

	if meta.DatabaseType != "" {
		parts = append(parts, meta.DatabaseType)
	}

	if meta.Nullable != nil {
		if *meta.Nullable {
			parts = append(parts, "nullable")
		} else {
			parts = append(parts, "not null")
		}
	}

	return strings.Join(parts, ", ")
}
