package executor

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/wbrown/janus-aql/aql"
)

// TableFormatter renders query results as markdown tables.
type TableFormatter struct {
	// MaxWidth is the maximum width of a cell; zero disables truncation
	MaxWidth int
	// TruncateString is appended to truncated cells
	TruncateString string
}

// NewTableFormatter creates a new table formatter with default settings
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		MaxWidth:       50,
		TruncateString: "...",
	}
}

// FormatRows formats projected result rows. Array rows become one column per
// position, object rows one column per attribute (the union over all rows)
// and anything else a single "value" column.
func (tf *TableFormatter) FormatRows(rows []aql.Value) string {
	if len(rows) == 0 {
		return "_No rows_"
	}

	columns, extract := tf.layout(rows)
	cells := make([][]string, len(rows))
	for i, row := range rows {
		vals := extract(row)
		cells[i] = make([]string, len(vals))
		for j, v := range vals {
			cells[i][j] = tf.formatValue(v)
		}
	}
	return tf.formatTable(columns, cells)
}

// FormatTuples formats raw join tuples under the given variable names.
func (tf *TableFormatter) FormatTuples(columns []string, tuples []Tuple) string {
	if len(tuples) == 0 {
		return fmt.Sprintf("_Columns: %v_\n\n_No rows_", columns)
	}
	cells := make([][]string, len(tuples))
	for i, t := range tuples {
		cells[i] = make([]string, len(columns))
		for j := range columns {
			if j < len(t) {
				cells[i][j] = tf.formatValue(t[j])
			}
		}
	}
	return tf.formatTable(columns, cells)
}

func (tf *TableFormatter) layout(rows []aql.Value) ([]string, func(aql.Value) []aql.Value) {
	allArrays, allObjects := true, true
	width := 0
	for _, r := range rows {
		switch r.Kind() {
		case aql.KindArray:
			allObjects = false
			if r.Len() > width {
				width = r.Len()
			}
		case aql.KindObject:
			allArrays = false
		default:
			allArrays, allObjects = false, false
		}
	}

	switch {
	case allArrays:
		columns := make([]string, width)
		for i := range columns {
			columns[i] = fmt.Sprintf("%d", i)
		}
		return columns, func(r aql.Value) []aql.Value {
			out := make([]aql.Value, width)
			for i := range out {
				out[i] = r.Index(i)
			}
			return out
		}

	case allObjects:
		seen := make(map[string]bool)
		var columns []string
		for _, r := range rows {
			for _, k := range r.Keys() {
				if !seen[k] {
					seen[k] = true
					columns = append(columns, k)
				}
			}
		}
		return columns, func(r aql.Value) []aql.Value {
			out := make([]aql.Value, len(columns))
			for i, k := range columns {
				out[i] = r.Get(k)
			}
			return out
		}
	}

	return []string{"value"}, func(r aql.Value) []aql.Value {
		return []aql.Value{r}
	}
}

// formatTable formats columns and cells as a markdown table
func (tf *TableFormatter) formatTable(columns []string, cells [][]string) string {
	tableString := &strings.Builder{}

	alignment := make([]tw.Align, len(columns))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)

	table.Header(columns)
	for _, row := range cells {
		table.Append(row)
	}
	table.Render()

	tableString.WriteString(fmt.Sprintf("\n_%d rows_\n", len(cells)))
	return tableString.String()
}

// formatValue renders strings bare and everything else as JSON.
func (tf *TableFormatter) formatValue(v aql.Value) string {
	var s string
	if str, ok := v.AsString(); ok {
		s = str
	} else {
		s = v.String()
	}
	if tf.MaxWidth > 0 && len(s) > tf.MaxWidth {
		cut := tf.MaxWidth - len(tf.TruncateString)
		if cut < 0 {
			cut = 0
		}
		s = s[:cut] + tf.TruncateString
	}
	return s
}

// RowsString returns the rows rendered with the default formatter.
func RowsString(rows []aql.Value) string {
	return NewTableFormatter().FormatRows(rows)
}
