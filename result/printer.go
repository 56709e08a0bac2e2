package result

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Printer renders query results as text, one line per match.
type Printer struct {
	Out   io.Writer
	Color bool
}

// NewPrinter returns a printer writing to out. Colour follows the terminal
// detection of fatih/color.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{Out: out, Color: !color.NoColor}
}

// Print writes every match of every query. Each line names the query it
// belongs to; queries without matches produce no output.
func (p *Printer) Print(queries []string, res *QueryResult) error {
	if res == nil {
		return nil
	}
	idColor := p.paint(color.FgCyan, color.Bold)
	distColor := p.paint(color.FgYellow)
	queryColor := p.paint(color.FgGreen)
	for i, matches := range res.Matches {
		query := ""
		if i < len(queries) {
			query = queries[i]
		}
		for j := range matches {
			m := matches[j]
			var b strings.Builder
			b.WriteString(queryColor.Sprintf("[%s]", query))
			b.WriteString(" id: ")
			b.WriteString(idColor.Sprint(m.ID))
			b.WriteString(", distance: ")
			b.WriteString(distColor.Sprint(strconv.FormatFloat(m.Distance, 'f', 6, 64)))
			b.WriteString(", metadata: ")
			b.WriteString(FormatMetadata(m.Metadata))
			b.WriteString(", document: ")
			b.WriteString(formatOptional(m.Document))
			if m.URI != nil || m.Data != nil {
				b.WriteString(", data: ")
				b.WriteString(formatOptional(m.URI))
				if m.Data != nil {
					bounds := m.Data.Bounds()
					fmt.Fprintf(&b, " (%dx%d)", bounds.Dx(), bounds.Dy())
				}
			}
			b.WriteByte('\n')
			if _, err := io.WriteString(p.Out, b.String()); err != nil {
				return err
			}
		}
	}
	return nil
}

// PrintRecords writes one line per record of a Get result.
func (p *Printer) PrintRecords(res *GetResult) error {
	if res == nil {
		return nil
	}
	idColor := p.paint(color.FgCyan, color.Bold)
	for _, rec := range res.Records {
		line := fmt.Sprintf("id: %s, metadata: %s, document: %s, uri: %s\n",
			idColor.Sprint(rec.ID), FormatMetadata(rec.Metadata), formatOptional(rec.Document), formatOptional(rec.URI))
		if _, err := io.WriteString(p.Out, line); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// FormatMetadata renders metadata with sorted keys, e.g. {category: sport, item_id: 6}.
func FormatMetadata(md Metadata) string {
	if md == nil {
		return "None"
	}
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %v", k, md[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatOptional(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}
