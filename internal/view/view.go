// Package view provides output formatting for wtc commands.
package view

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/open-cli-collective/wtconv/pkg/wt"
)

// Format represents an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatPlain Format = "plain"
)

// ValidFormats returns the accepted --output values.
func ValidFormats() []string {
	return []string{string(FormatTable), string(FormatJSON), string(FormatPlain)}
}

// ValidateFormat checks an --output value. Empty means the default.
func ValidateFormat(format string) error {
	if format == "" {
		return nil
	}
	for _, f := range ValidFormats() {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid output format %q (valid: %s)", format, strings.Join(ValidFormats(), ", "))
}

// Renderer renders data in a specific format.
type Renderer struct {
	format  Format
	writer  io.Writer
	noColor bool
}

// NewRenderer creates a new renderer with the specified format.
func NewRenderer(format Format, noColor bool) *Renderer {
	if noColor {
		color.NoColor = true
	}
	if format == "" {
		format = FormatTable
	}
	return &Renderer{
		format:  format,
		writer:  os.Stdout,
		noColor: noColor,
	}
}

// SetWriter sets the output writer.
func (r *Renderer) SetWriter(w io.Writer) {
	r.writer = w
}

// RenderTable renders data as a table.
func (r *Renderer) RenderTable(headers []string, rows [][]string) {
	switch r.format {
	case FormatJSON:
		r.renderTableAsJSON(headers, rows)
		return
	case FormatPlain:
		r.renderTableAsPlain(rows)
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, val := range row {
			if i < len(widths) && len(val) > widths[i] {
				widths[i] = len(val)
			}
		}
	}

	bold := color.New(color.Bold)
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(r.writer, "  ")
		}
		bold.Fprintf(r.writer, "%-*s", widths[i], h)
	}
	fmt.Fprintln(r.writer)

	for _, row := range rows {
		for i, val := range row {
			if i > 0 {
				fmt.Fprint(r.writer, "  ")
			}
			if i == len(row)-1 {
				fmt.Fprint(r.writer, val)
				continue
			}
			fmt.Fprintf(r.writer, "%-*s", widths[i], val)
		}
		fmt.Fprintln(r.writer)
	}
}

func (r *Renderer) renderTableAsJSON(headers []string, rows [][]string) {
	var result []map[string]string
	for _, row := range rows {
		item := make(map[string]string)
		for i, header := range headers {
			if i < len(row) {
				item[strings.ToLower(header)] = row[i]
			}
		}
		result = append(result, item)
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Fprintln(r.writer, string(data))
}

func (r *Renderer) renderTableAsPlain(rows [][]string) {
	for _, row := range rows {
		fmt.Fprintln(r.writer, strings.Join(row, "\t"))
	}
}

// RenderJSON renders an object as JSON.
func (r *Renderer) RenderJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(r.writer, string(data))
	return nil
}

// RenderText renders plain text.
func (r *Renderer) RenderText(text string) {
	fmt.Fprintln(r.writer, text)
}

// RenderKeyValue renders a key-value pair.
func (r *Renderer) RenderKeyValue(key, value string) {
	if r.format == FormatJSON {
		data, _ := json.Marshal(map[string]string{key: value})
		fmt.Fprintln(r.writer, string(data))
		return
	}
	bold := color.New(color.Bold)
	bold.Fprintf(r.writer, "%s: ", key)
	fmt.Fprintln(r.writer, value)
}

// RenderLints renders the lints of a conversion, one per row.
func (r *Renderer) RenderLints(lints []wt.Lint) error {
	if r.format == FormatJSON {
		if lints == nil {
			lints = []wt.Lint{}
		}
		return r.RenderJSON(lints)
	}
	if len(lints) == 0 && r.format == FormatTable {
		r.Success("No lints")
		return nil
	}
	yellow := color.New(color.FgYellow)
	rows := make([][]string, 0, len(lints))
	for _, l := range lints {
		typ := l.Type
		if r.format == FormatTable {
			typ = yellow.Sprint(typ)
		}
		rows = append(rows, []string{typ, Truncate(lintDetails(l.Data), 80)})
	}
	r.RenderTable([]string{"TYPE", "DETAILS"}, rows)
	return nil
}

func lintDetails(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := data[k]
		if dsr, ok := v.(*wt.DSR); ok {
			v = fmt.Sprintf("%d..%d", dsr.Start, dsr.End)
		}
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, " ")
}

// RenderUsage renders the resource counters of one conversion direction
// against their limits.
func (r *Renderer) RenderUsage(ledger *wt.ResourceLedger) error {
	usage := ledger.Usage()
	names := make([]string, 0, len(usage))
	for n := range usage {
		names = append(names, n)
	}
	sort.Strings(names)

	if r.format == FormatJSON {
		type entry struct {
			Resource string `json:"resource"`
			Used     int    `json:"used"`
			Limit    *int   `json:"limit,omitempty"`
		}
		out := make([]entry, 0, len(names))
		for _, n := range names {
			e := entry{Resource: n, Used: usage[n]}
			if limit, ok := ledger.Limit(n); ok {
				e.Limit = &limit
			}
			out = append(out, e)
		}
		return r.RenderJSON(map[string]any{"direction": ledger.Direction(), "resources": out})
	}

	rows := make([][]string, 0, len(names))
	for _, n := range names {
		limit := "-"
		if l, ok := ledger.Limit(n); ok {
			limit = fmt.Sprint(l)
		}
		rows = append(rows, []string{string(ledger.Direction()), n, fmt.Sprint(usage[n]), limit})
	}
	r.RenderTable([]string{"DIRECTION", "RESOURCE", "USED", "LIMIT"}, rows)
	return nil
}

// Success prints a success message.
func (r *Renderer) Success(msg string) {
	green := color.New(color.FgGreen)
	green.Fprintln(r.writer, "✓ "+msg)
}

// Error prints an error message.
func (r *Renderer) Error(msg string) {
	red := color.New(color.FgRed)
	red.Fprintln(r.writer, "✗ "+msg)
}

// Truncate truncates a string to the specified length.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
