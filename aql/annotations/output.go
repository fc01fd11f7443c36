package annotations

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// OutputFormatter formats events for human-readable display.
type OutputFormatter struct {
	useColor bool
	writer   io.Writer
}

// NewOutputFormatter creates a formatter that colors its output when w is a
// terminal.
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stdout
	}

	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}

	return &OutputFormatter{
		useColor: useColor,
		writer:   w,
	}
}

// SetColor forces color output on or off.
func (f *OutputFormatter) SetColor(enabled bool) {
	f.useColor = enabled
}

// Handle prints the event if it has a textual form.
func (f *OutputFormatter) Handle(event Event) {
	output := f.Format(event)
	if output != "" {
		fmt.Fprintln(f.writer, output)
	}
}

// Format converts an event to a human-readable string. Events without a
// display form yield "".
func (f *OutputFormatter) Format(event Event) string {
	latency := f.formatLatency(event.Latency)

	switch event.Name {
	case QueryInvoked:
		return fmt.Sprintf("%s Query %s: %s",
			latency,
			shortID(event.QueryID),
			truncateQuery(stringField(event, "query")))

	case QueryPlanCreated:
		plan := stringField(event, "plan")
		if cached, _ := event.Data["cached"].(bool); cached {
			return fmt.Sprintf("%s Plan (cached):\n%s", latency, indent(plan))
		}
		return fmt.Sprintf("%s Plan:\n%s", latency, indent(plan))

	case QueryComplete:
		if success, _ := event.Data["success"].(bool); !success {
			return fmt.Sprintf("%s %s Query %s failed: %v",
				latency,
				f.colorize("✗", color.FgRed),
				shortID(event.QueryID),
				event.Data["error"])
		}
		return fmt.Sprintf("%s %s Query %s done with %s",
			latency,
			f.colorize("===", color.FgGreen),
			shortID(event.QueryID),
			f.colorizeCount("rows", intField(event, "rows.count")))

	case IndexSelected:
		return fmt.Sprintf("%s FOR %s IN %s uses %s",
			latency,
			stringField(event, "variable"),
			stringField(event, "collection"),
			f.colorize(stringField(event, "index"), color.FgCyan))

	case IndexProbe:
		return fmt.Sprintf("%s Probe(%s, %s) %s → %s, %s",
			latency,
			stringField(event, "collection"),
			stringField(event, "index"),
			f.colorizeCount("probes", intField(event, "probes")),
			f.colorizeCount("documents", intField(event, "documents")),
			f.colorizeCount("matched", intField(event, "matched")))

	case CollectionScan:
		documents := intField(event, "documents")
		line := fmt.Sprintf("%s Scan(%s) %s → %s, %s",
			latency,
			stringField(event, "collection"),
			f.colorizeCount("scans", intField(event, "scans")),
			f.colorizeCount("documents", documents),
			f.colorizeCount("matched", intField(event, "matched")))
		if documents > 100000 {
			return line + " " + f.colorize("(consider an index)", color.FgYellow)
		}
		return line

	case FilterResidual:
		return fmt.Sprintf("%s Filter(%s) %d/%d passed",
			latency,
			stringField(event, "filter"),
			intField(event, "passed"),
			intField(event, "evaluated"))

	case ErrorQueryCompile, ErrorQueryBinding:
		return fmt.Sprintf("%s %s %v",
			latency,
			f.colorize("✗", color.FgRed),
			event.Data["error"])

	case ErrorEvaluation:
		return fmt.Sprintf("%s %s %s: %v",
			latency,
			f.colorize("!", color.FgYellow),
			stringField(event, "expr"),
			event.Data["error"])
	}

	return ""
}

// formatLatency renders d in brackets, colored by magnitude.
func (f *OutputFormatter) formatLatency(d time.Duration) string {
	if d < time.Millisecond {
		s := fmt.Sprintf("[%dµs]", d.Microseconds())
		if !f.useColor {
			return s
		}
		return color.GreenString(s)
	}

	ms := float64(d.Microseconds()) / 1000.0
	s := fmt.Sprintf("[%.1fms]", ms)

	if !f.useColor {
		return s
	}

	switch {
	case ms < 50:
		return color.GreenString(s)
	case ms < 200:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

// colorizeCount formats a count with a label. Counts get thousands
// separators.
func (f *OutputFormatter) colorizeCount(label string, count int) string {
	text := fmt.Sprintf("%s %s", humanize.Comma(int64(count)), label)

	if !f.useColor {
		return text
	}

	switch strings.ToLower(label) {
	case "rows":
		return color.CyanString(text)
	case "documents":
		return color.MagentaString(text)
	case "matched":
		return color.BlueString(text)
	default:
		return text
	}
}

func (f *OutputFormatter) colorize(text string, attrs ...color.Attribute) string {
	if !f.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

// truncateQuery collapses whitespace and shortens long queries for display.
func truncateQuery(query string) string {
	query = strings.Join(strings.Fields(query), " ")

	const maxLen = 80
	if len(query) <= maxLen {
		return query
	}

	return query[:maxLen-3] + "..."
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}

func indent(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

func stringField(event Event, key string) string {
	switch v := event.Data[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func intField(event Event, key string) int {
	switch v := event.Data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	}
	return 0
}

// ConsoleHandler returns a handler that prints formatted events to stderr.
func ConsoleHandler() Handler {
	return NewOutputFormatter(os.Stderr).Handle
}

// WriterHandler returns a handler that prints formatted events to w.
func WriterHandler(w io.Writer) Handler {
	return NewOutputFormatter(w).Handle
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
