package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/fatih/color"
	"github.com/mcncl/omconv/internal/convert"
	"github.com/mcncl/omconv/internal/models"
	"github.com/mcncl/omconv/internal/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// Report formats understood by FormatReport
const (
	ReportTable = "table"
	ReportJSON  = "json"
)

// Formatter renders converted documents and validation results for output
type Formatter struct {
	// JSONIndent is the number of spaces per JSON level; 0 is compact.
	JSONIndent int
	// XMLIndent is the number of spaces per XML level; 0 is compact.
	XMLIndent int
}

// NewFormatter creates a new Formatter instance
func NewFormatter(jsonIndent, xmlIndent int) *Formatter {
	return &Formatter{JSONIndent: jsonIndent, XMLIndent: xmlIndent}
}

// FormatJSON renders an OpenMath value as JSON text
func (f *Formatter) FormatJSON(n models.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	data, err := f.marshal(n)
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}
	return string(data), nil
}

// FormatXML renders an element tree as XML text
func (f *Formatter) FormatXML(el *etree.Element) (string, error) {
	if el == nil {
		return "", nil
	}
	out, err := convert.SerializeIndent(el, f.XMLIndent)
	if err != nil {
		return "", fmt.Errorf("failed to write XML: %w", err)
	}
	return strings.TrimRight(out, "\n"), nil
}

func (f *Formatter) marshal(v any) ([]byte, error) {
	if f.JSONIndent <= 0 {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", strings.Repeat(" ", f.JSONIndent))
}

// FormatReport renders a validation result as a status line followed by a
// table of errors, or as JSON.
func (f *Formatter) FormatReport(result *schema.Result, format string) (string, error) {
	switch format {
	case ReportJSON:
		data, err := f.marshal(result)
		if err != nil {
			return "", fmt.Errorf("failed to encode report: %w", err)
		}
		return string(data), nil
	case ReportTable, "":
	default:
		return "", fmt.Errorf("unknown report format %q", format)
	}

	var sb strings.Builder
	sb.WriteString(Status(result))
	if result.Valid {
		return sb.String(), nil
	}
	sb.WriteString("\n\n")

	rows := make([][]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		rows = append(rows, []string{loc, e.KeywordLocation, e.Message})
	}
	if err := renderTable(&sb, []string{"Location", "Keyword", "Message"}, rows); err != nil {
		return "", err
	}

	fmt.Fprintf(&sb, "\n_%d errors_", len(result.Errors))
	return sb.String(), nil
}

// renderTable writes a markdown table with plain separators.
func renderTable(w io.Writer, header []string, rows [][]string) error {
	alignment := make([]tw.Align, len(header))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(header)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to add table row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

// Status is a one-line verdict for a validation result, coloured when the
// terminal supports it.
func Status(result *schema.Result) string {
	if result.Valid {
		return fmt.Sprintf("%s against %s", color.GreenString("valid"), color.CyanString(result.Kind))
	}
	return fmt.Sprintf("%s against %s", color.RedString("invalid"), color.CyanString(result.Kind))
}

// FormatKinds renders the schema definitions as a table
func (f *Formatter) FormatKinds(defs []schema.Definition) (string, error) {
	if len(defs) == 0 {
		return "_No kinds_", nil
	}

	rows := make([][]string, 0, len(defs))
	for _, d := range defs {
		rows = append(rows, []string{d.Kind, strings.Join(d.Required, ", "), d.Description})
	}

	var sb strings.Builder
	if err := renderTable(&sb, []string{"Kind", "Required", "Description"}, rows); err != nil {
		return "", err
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
