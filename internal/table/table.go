// Package table renders rows of text as aligned columns, either boxed with
// ASCII borders or as plain space separated columns.
package table

import (
	"io"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Alignment controls where text sits inside a column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Table accumulates rows and renders them to a writer.
type Table struct {
	writer      io.Writer
	header      []string
	rows        [][]string
	columnAlign []Alignment
	headerAlign []Alignment
	borders     bool
	padding     int
}

// NewTable returns a boxed table that renders to w.
func NewTable(w io.Writer) *Table {
	return &Table{writer: w, borders: true, padding: 2}
}

// WithHeader sets the header row.
func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

// WithColumnAlignment sets the alignment of each body column.
func (t *Table) WithColumnAlignment(align []Alignment) *Table {
	t.columnAlign = align
	return t
}

// WithHeaderAlignment sets the alignment of each header cell.
func (t *Table) WithHeaderAlignment(align []Alignment) *Table {
	t.headerAlign = align
	return t
}

// WithRows appends rows.
func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = append(t.rows, rows...)
	return t
}

// WithBorders enables or disables the ASCII box. Without borders, columns
// are separated by the padding and trailing whitespace is trimmed.
func (t *Table) WithBorders(borders bool) *Table {
	t.borders = borders
	return t
}

// WithPadding sets the number of spaces between columns of a borderless
// table.
func (t *Table) WithPadding(padding int) *Table {
	t.padding = padding
	return t
}

// Append adds one row.
func (t *Table) Append(row []string) {
	t.rows = append(t.rows, row)
}

// Render writes the table.
func (t *Table) Render() error {
	widths := t.columnWidths()
	var sb strings.Builder
	if t.borders {
		t.renderBoxed(&sb, widths)
	} else {
		t.renderPlain(&sb, widths)
	}
	_, err := io.WriteString(t.writer, sb.String())
	return err
}

func (t *Table) columnWidths() []int {
	var widths []int
	measure := func(row []string) {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := DisplayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	if t.header != nil {
		measure(t.header)
	}
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

func (t *Table) renderBoxed(sb *strings.Builder, widths []int) {
	separator := boxSeparator(widths)
	sb.WriteString(separator)
	if t.header != nil {
		writeBoxedRow(sb, t.header, widths, t.headerAlign)
		sb.WriteString(separator)
	}
	for _, row := range t.rows {
		writeBoxedRow(sb, row, widths, t.columnAlign)
	}
	sb.WriteString(separator)
}

func boxSeparator(widths []int) string {
	var sb strings.Builder
	sb.WriteString("+")
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteString("+")
	}
	sb.WriteString("\n")
	return sb.String()
}

func writeBoxedRow(sb *strings.Builder, row []string, widths []int, align []Alignment) {
	sb.WriteString("|")
	for i, w := range widths {
		sb.WriteString(" ")
		sb.WriteString(pad(cellAt(row, i), w, alignmentAt(align, i)))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

func (t *Table) renderPlain(sb *strings.Builder, widths []int) {
	gap := strings.Repeat(" ", t.padding)
	writeRow := func(row []string, align []Alignment) {
		var line strings.Builder
		for i, w := range widths {
			if i > 0 {
				line.WriteString(gap)
			}
			a := alignmentAt(align, i)
			cell := cellAt(row, i)
			if i == len(widths)-1 && a == AlignLeft {
				line.WriteString(cell)
			} else {
				line.WriteString(pad(cell, w, a))
			}
		}
		sb.WriteString(strings.TrimRight(line.String(), " "))
		sb.WriteString("\n")
	}
	if t.header != nil {
		writeRow(t.header, t.headerAlign)
	}
	for _, row := range t.rows {
		writeRow(row, t.columnAlign)
	}
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func alignmentAt(align []Alignment, i int) Alignment {
	if i < len(align) {
		return align[i]
	}
	return AlignLeft
}

func pad(s string, width int, align Alignment) string {
	n := width - DisplayWidth(s)
	if n <= 0 {
		return s
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", n) + s
	case AlignCenter:
		left := n / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", n-left)
	default:
		return s + strings.Repeat(" ", n)
	}
}

// DisplayWidth returns the number of terminal cells s occupies, ignoring
// ANSI color sequences.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(stripAnsi(s))
}

func stripAnsi(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
