package dis

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/risor-io/codedis/bytecode"
	"github.com/risor-io/codedis/errz"
	"github.com/risor-io/codedis/op"
)

// InvalidRef is displayed in place of an operand that points outside its
// table.
const InvalidRef = "<invalid ref>"

// ResolvedOperand is the meaning of one instruction's operand.
type ResolvedOperand struct {
	// Display is the human readable operand: a constant's repr, an
	// identifier, a comparison mnemonic, a jump target or an integer.
	Display string
	// Raw is the operand as stored in the instruction.
	Raw string
	// Annotated is set when the raw operand is shown next to the display.
	Annotated bool
	// Value is the constant for Constant operands.
	Value any
	// Target is the absolute jump target when HasTarget is set.
	Target    int
	HasTarget bool
	// Err is set when the operand could not be resolved.
	Err error
}

// Text returns the display followed by the parenthesized raw operand when
// the operand kind calls for one.
func (r ResolvedOperand) Text() string {
	if r.Annotated && r.Display != "" {
		return r.Display + " (" + r.Raw + ")"
	}
	return r.Display
}

var placeholderDisplay = map[string]string{
	reasonUnknownOpcode: "",
	reasonTruncated:     "<truncated>",
	reasonDangling:      "<dangling EXTENDED_ARG>",
	reasonTooManyExt:    "<too many EXTENDED_ARG>",
}

// Resolve interprets the operand of instr against the tables of code. It
// never fails: operands that point outside their table resolve to
// InvalidRef with Err set to an *errz.InvalidReferenceError.
func Resolve(code *bytecode.Code, instr Instruction) ResolvedOperand {
	if instr.Err != nil {
		var decodeErr *errz.DecodeError
		if errors.As(instr.Err, &decodeErr) {
			return ResolvedOperand{Display: placeholderDisplay[decodeErr.Reason]}
		}
		return ResolvedOperand{}
	}
	info := instr.Info()
	if !info.HasOperand() {
		return ResolvedOperand{}
	}
	raw := strconv.FormatUint(uint64(instr.Operand), 10)
	index := int64(instr.Operand)
	invalid := func(table string, size int, annotated bool) ResolvedOperand {
		return ResolvedOperand{
			Display:   InvalidRef,
			Raw:       raw,
			Annotated: annotated,
			Err: &errz.InvalidReferenceError{
				Offset: instr.Offset,
				Table:  table,
				Index:  index,
				Size:   size,
			},
		}
	}
	switch info.Kind {
	case op.Constant:
		if index >= int64(code.ConstantCount()) {
			return invalid("constants", code.ConstantCount(), true)
		}
		value := code.ConstantAt(int(index))
		return ResolvedOperand{Display: Repr(value), Raw: raw, Annotated: true, Value: value}
	case op.Name:
		if index >= int64(code.NameCount()) {
			return invalid("names", code.NameCount(), true)
		}
		return ResolvedOperand{Display: code.NameAt(int(index)), Raw: raw, Annotated: true}
	case op.Local:
		if index >= int64(code.VarNameCount()) {
			return invalid("varnames", code.VarNameCount(), true)
		}
		return ResolvedOperand{Display: code.VarNameAt(int(index)), Raw: raw, Annotated: true}
	case op.Free:
		if index >= int64(code.DerefCount()) {
			return invalid("cellvars+freevars", code.DerefCount(), true)
		}
		return ResolvedOperand{Display: code.DerefAt(int(index)), Raw: raw, Annotated: true}
	case op.Compare:
		name, ok := op.CompareOpName(code.Version(), instr.Operand)
		if !ok {
			return invalid("compare operators", len(op.CompareOps(code.Version())), true)
		}
		return ResolvedOperand{Display: name, Raw: raw}
	case op.JumpRelative, op.JumpAbsolute:
		target := jumpTarget(instr, info)
		if target < 0 || target >= int64(code.Len()) {
			r := invalid("instructions", code.Len(), true)
			r.Err.(*errz.InvalidReferenceError).Index = target
			return r
		}
		return ResolvedOperand{
			Display:   strconv.FormatInt(target, 10),
			Raw:       raw,
			Annotated: true,
			Target:    int(target),
			HasTarget: true,
		}
	default:
		return ResolvedOperand{Display: raw, Raw: raw}
	}
}

func jumpTarget(instr Instruction, info op.Info) int64 {
	distance := int64(instr.Operand) * op.JumpUnit
	if info.Kind == op.JumpAbsolute {
		return distance
	}
	next := int64(instr.End())
	if info.Backward {
		return next - distance
	}
	return next + distance
}

// Repr returns the printable representation of a constant: strings quoted,
// numbers literal, nested code as <code name>.
func Repr(value any) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32:
		return reprFloat(float64(v))
	case float64:
		return reprFloat(v)
	case string:
		return reprString(v)
	case []byte:
		return "b" + reprBytes(v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = Repr(item)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *bytecode.Code:
		if v == nil {
			return "None"
		}
		return "<code " + v.Name() + ">"
	case *bytecode.Function:
		if v == nil {
			return "None"
		}
		if v.Code() == nil {
			return "<function " + v.Name() + ">"
		}
		return "<code " + v.Code().Name() + ">"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func reprFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	// Pick fixed or exponent notation from the exponent of the shortest
	// representation, switching at the same points Python's repr does.
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.LastIndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func chooseQuote(s string) byte {
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		return '"'
	}
	return '\''
}

func reprString(s string) string {
	quote := chooseQuote(s)
	var sb strings.Builder
	sb.WriteByte(quote)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			fmt.Fprintf(&sb, `\x%02x`, s[i])
			i++
			continue
		}
		i += size
		switch {
		case r == '\\':
			sb.WriteString(`\\`)
		case r == rune(quote):
			sb.WriteByte('\\')
			sb.WriteByte(quote)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case unicode.IsPrint(r):
			sb.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			fmt.Fprintf(&sb, `\U%08x`, r)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}

func reprBytes(b []byte) string {
	quote := chooseQuote(string(b))
	var sb strings.Builder
	sb.WriteByte(quote)
	for _, c := range b {
		switch {
		case c == '\\':
			sb.WriteString(`\\`)
		case c == quote:
			sb.WriteByte('\\')
			sb.WriteByte(quote)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c >= 0x20 && c < 0x7f:
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, `\x%02x`, c)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}
