package dis

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/risor-io/codedis/bytecode"
	"github.com/risor-io/codedis/internal/table"
	"github.com/risor-io/codedis/op"
)

// JumpTargetMarker prefixes instructions that some jump lands on.
const JumpTargetMarker = ">>"

// Print writes the text form of a listing and its nested listings to w.
// Only WithColor and WithInfo affect printing.
func Print(l *Listing, w io.Writer, opts ...Option) error {
	return newRenderer(newConfig(opts)).render(w, l)
}

type renderer struct {
	info bool

	bold    *color.Color
	faint   *color.Color
	red     *color.Color
	yellow  *color.Color
	green   *color.Color
	magenta *color.Color
	cyan    *color.Color
	blue    *color.Color
}

func newRenderer(cfg *config) *renderer {
	r := &renderer{
		info:    cfg.info,
		bold:    color.New(color.Bold),
		faint:   color.New(color.Faint),
		red:     color.New(color.FgRed),
		yellow:  color.New(color.FgYellow),
		green:   color.New(color.FgGreen),
		magenta: color.New(color.FgMagenta),
		cyan:    color.New(color.FgHiCyan),
		blue:    color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{r.bold, r.faint, r.red, r.yellow, r.green, r.magenta, r.cyan, r.blue} {
		if cfg.color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func (r *renderer) render(w io.Writer, l *Listing) error {
	if err := r.renderOne(w, l); err != nil {
		return err
	}
	for _, child := range l.Children {
		if _, err := fmt.Fprintf(w, "\nDisassembly of %s:\n", child.QualName()); err != nil {
			return err
		}
		if err := r.render(w, child); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) renderOne(w io.Writer, l *Listing) error {
	if r.info {
		if err := r.renderInfo(w, l.Code); err != nil {
			return err
		}
	}
	rows := make([][]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		marker := strings.Repeat(" ", len(JumpTargetMarker))
		if e.IsTarget {
			marker = r.yellow.Sprint(JumpTargetMarker)
		}
		rows = append(rows, []string{
			marker,
			strconv.Itoa(e.Offset),
			r.mnemonic(e),
			r.operand(e),
		})
	}
	return table.NewTable(w).
		WithBorders(false).
		WithColumnAlignment([]table.Alignment{
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
			table.AlignLeft,
		}).
		WithRows(rows).
		Render()
}

func (r *renderer) mnemonic(e Entry) string {
	if e.IsPlaceholder() {
		return r.red.Sprint(e.Mnemonic())
	}
	return r.bold.Sprint(e.Mnemonic())
}

func (r *renderer) operand(e Entry) string {
	res := e.Resolved
	if res.Display == "" {
		return ""
	}
	var display string
	switch {
	case e.IsPlaceholder() || res.Err != nil:
		display = r.red.Sprint(res.Display)
	case e.Info().Kind == op.Constant:
		display = r.constant(res.Value, res.Display)
	case e.Info().Kind.IsJump():
		display = r.blue.Sprint(res.Display)
	case e.Info().Kind == op.Name, e.Info().Kind == op.Local, e.Info().Kind == op.Free:
		display = r.cyan.Sprint(res.Display)
	default:
		display = res.Display
	}
	if res.Annotated {
		return display + " " + r.faint.Sprint("("+res.Raw+")")
	}
	return display
}

func (r *renderer) constant(value any, display string) string {
	switch value.(type) {
	case string, []byte:
		return r.green.Sprint(display)
	case int, int64, float64, bool:
		return r.yellow.Sprint(display)
	case *bytecode.Code, *bytecode.Function:
		return r.magenta.Sprint(display)
	default:
		return display
	}
}

func (r *renderer) renderInfo(w io.Writer, code *bytecode.Code) error {
	rows := [][]string{{"Name:", code.Name()}}
	if code.QualName() != code.Name() {
		rows = append(rows, []string{"Qualified name:", code.QualName()})
	}
	if code.Filename() != "" {
		rows = append(rows, []string{"Filename:", code.Filename()})
	}
	rows = append(rows,
		[]string{"Argument count:", strconv.Itoa(code.ArgCount())},
		[]string{"Number of locals:", strconv.Itoa(code.VarNameCount())},
		[]string{"Flags:", code.Flags().String()},
	)
	if err := table.NewTable(w).WithBorders(false).WithPadding(1).WithRows(rows).Render(); err != nil {
		return err
	}

	var sb strings.Builder
	section := func(title string, count int, item func(int) string) {
		if count == 0 {
			return
		}
		sb.WriteString(title + ":\n")
		for i := 0; i < count; i++ {
			fmt.Fprintf(&sb, "%4d: %s\n", i, item(i))
		}
	}
	section("Constants", code.ConstantCount(), func(i int) string { return Repr(code.ConstantAt(i)) })
	section("Names", code.NameCount(), code.NameAt)
	section("Variable names", code.VarNameCount(), code.VarNameAt)
	section("Free variables", code.FreeVarCount(), code.FreeVarAt)
	section("Cell variables", code.CellVarCount(), code.CellVarAt)
	sb.WriteString("\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
