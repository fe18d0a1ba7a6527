// Package output renders CLI results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

// Printer writes results in one format. Unknown formats fall back to table.
type Printer struct {
	format Format
	w      io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(format string, w io.Writer) *Printer {
	f := Format(strings.ToLower(format))
	switch f {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		f = FormatTable
	}
	return &Printer{format: f, w: w}
}

// Format returns the effective output format.
func (p *Printer) Format() Format {
	return p.format
}

// Print writes data as JSON or YAML. In table format, rows renders the table;
// a nil rows falls back to JSON.
func (p *Printer) Print(data any, headers []string, rows func() [][]string) error {
	switch {
	case p.format == FormatYAML:
		out, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		_, err = p.w.Write(out)
		return err
	case p.format == FormatTable && rows != nil:
		p.table(headers, rows())
		return nil
	default:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.w, string(out))
		return err
	}
}

func (p *Printer) table(headers []string, rows [][]string) {
	table := tablewriter.NewWriter(p.w)
	table.SetHeader(headers)
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}

// Success prints a check-marked confirmation line.
func (p *Printer) Success(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

// Header prints a bold title followed by a rule.
func (p *Printer) Header(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, "%s\n%s\n", bold(fmt.Sprintf(format, args...)), strings.Repeat("─", 50))
}

// Text writes s followed by a newline.
func (p *Printer) Text(s string) {
	_, _ = fmt.Fprintln(p.w, s)
}
