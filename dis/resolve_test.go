package dis

import (
	"errors"
	"math"
	"testing"

	"github.com/risor-io/codedis/bytecode"
	"github.com/risor-io/codedis/errz"
	"github.com/risor-io/codedis/op"
	"github.com/stretchr/testify/require"
)

func resolveAt(t *testing.T, code *bytecode.Code, offset int) ResolvedOperand {
	t.Helper()
	for instr := range Instructions(code) {
		if instr.Offset == offset {
			return Resolve(code, instr)
		}
	}
	t.Fatalf("no instruction at offset %d", offset)
	return ResolvedOperand{}
}

func requireInvalidRef(t *testing.T, r ResolvedOperand, table string, index int64, size int) {
	t.Helper()
	require.Equal(t, InvalidRef, r.Display)
	var refErr *errz.InvalidReferenceError
	require.True(t, errors.As(r.Err, &refErr), "expected an invalid reference, got %v", r.Err)
	require.Equal(t, table, refErr.Table)
	require.Equal(t, index, refErr.Index)
	require.Equal(t, size, refErr.Size)
	require.False(t, errz.IsFatal(r.Err))
}

func TestResolveConstant(t *testing.T) {
	code := codeWith(bytecode.MakeInstruction(op.LoadConst, 1), nil, "goodbye")
	r := resolveAt(t, code, 0)
	require.Equal(t, "'goodbye'", r.Display)
	require.Equal(t, "'goodbye' (1)", r.Text())
	require.Equal(t, "goodbye", r.Value)
	require.Nil(t, r.Err)
}

func TestResolveConstantOutOfRange(t *testing.T) {
	code := codeWith(bytecode.MakeInstruction(op.LoadConst, 5), nil)
	r := resolveAt(t, code, 0)
	require.Equal(t, "<invalid ref> (5)", r.Text())
	requireInvalidRef(t, r, "constants", 5, 1)
}

func TestResolveNames(t *testing.T) {
	e := &bytecode.Emitter{}
	e.Emit(op.LoadGlobal, 0)
	e.Emit(op.LoadFast, 1)
	e.Emit(op.LoadDeref, 0)
	e.Emit(op.LoadDeref, 1)
	e.Emit(op.LoadDeref, 2)
	e.Emit(op.StoreName, 3)
	require.NoError(t, e.Err())
	code := bytecode.NewCode(bytecode.CodeParams{
		Name:         "names",
		Instructions: e.Bytes(),
		Names:        []string{"print"},
		VarNames:     []string{"a", "b"},
		CellVars:     []string{"cell"},
		FreeVars:     []string{"free"},
	})

	require.Equal(t, "print (0)", resolveAt(t, code, 0).Text())
	require.Equal(t, "b (1)", resolveAt(t, code, 3).Text())
	require.Equal(t, "cell (0)", resolveAt(t, code, 6).Text())
	require.Equal(t, "free (1)", resolveAt(t, code, 9).Text())
	requireInvalidRef(t, resolveAt(t, code, 12), "cellvars+freevars", 2, 2)
	requireInvalidRef(t, resolveAt(t, code, 15), "names", 3, 1)
}

func TestResolveCompare(t *testing.T) {
	instructions := append(bytecode.MakeInstruction(op.CompareOp, 2),
		bytecode.MakeInstruction(op.CompareOp, 9)...)

	v1 := codeWith(instructions)
	require.Equal(t, "==", resolveAt(t, v1, 0).Text())
	require.Equal(t, "is not", resolveAt(t, v1, 3).Text())

	v2 := bytecode.NewCode(bytecode.CodeParams{
		Name:         "v2",
		Version:      op.Version2,
		Instructions: instructions,
	})
	require.Equal(t, "==", resolveAt(t, v2, 0).Text())
	requireInvalidRef(t, resolveAt(t, v2, 3), "compare operators", 9, 6)
}

func TestResolveJumps(t *testing.T) {
	e := &bytecode.Emitter{}
	e.Emit(op.JumpForward, 3)    // 0 -> 6
	e.Emit(op.Nop)               // 3
	e.Emit(op.Nop)               // 4
	e.Emit(op.Nop)               // 5
	e.Emit(op.JumpBackward, 9)   // 6 -> 0
	e.Emit(op.JumpAbsolute, 4)   // 9 -> 4
	e.Emit(op.JumpAbsolute, 100) // 12 -> out of range
	e.Emit(op.JumpBackward, 50)  // 15 -> negative
	require.NoError(t, e.Err())
	code := codeWith(e.Bytes())

	forward := resolveAt(t, code, 0)
	require.True(t, forward.HasTarget)
	require.Equal(t, 6, forward.Target)
	require.Equal(t, "6 (3)", forward.Text())

	backward := resolveAt(t, code, 6)
	require.Equal(t, 0, backward.Target)
	require.Equal(t, "0 (9)", backward.Text())

	absolute := resolveAt(t, code, 9)
	require.Equal(t, 4, absolute.Target)
	require.Equal(t, "4 (4)", absolute.Text())

	outside := resolveAt(t, code, 12)
	require.False(t, outside.HasTarget)
	require.Equal(t, "<invalid ref> (100)", outside.Text())
	requireInvalidRef(t, outside, "instructions", 100, 18)

	negative := resolveAt(t, code, 15)
	requireInvalidRef(t, negative, "instructions", -32, 18)
}

func TestResolveSmallIntAndNoOperand(t *testing.T) {
	instructions := append(bytecode.MakeInstruction(op.CallFunction, 2),
		bytecode.MakeInstruction(op.ReturnValue, 0)...)
	code := codeWith(instructions)

	call := resolveAt(t, code, 0)
	require.Equal(t, "2", call.Text())
	require.False(t, call.Annotated)

	require.Equal(t, ResolvedOperand{}, resolveAt(t, code, 3))
}

func TestResolvePlaceholders(t *testing.T) {
	code := codeWith([]byte{0xFE, 144, 0, 0, byte(op.PopTop), byte(op.LoadConst), 1})
	require.Equal(t, "", resolveAt(t, code, 0).Text())
	require.Equal(t, "<dangling EXTENDED_ARG>", resolveAt(t, code, 1).Text())
	require.Equal(t, "<truncated>", resolveAt(t, code, 5).Text())
}

func TestRepr(t *testing.T) {
	fn := bytecode.NewCode(bytecode.CodeParams{Name: "f"})
	tests := []struct {
		value any
		want  string
	}{
		{nil, "None"},
		{true, "True"},
		{false, "False"},
		{42, "42"},
		{int64(-7), "-7"},
		{1.0, "1.0"},
		{0.1, "0.1"},
		{123456789.0, "123456789.0"},
		{1e16, "1e+16"},
		{1e-5, "1e-05"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "nan"},
		{"hello", "'hello'"},
		{"it's", `"it's"`},
		{`both ' and "`, `'both \' and "'`},
		{"a\nb\\", `'a\nb\\'`},
		{"\x00", `'\x00'`},
		{"héllo", "'héllo'"},
		{[]byte("hi\xff"), `b'hi\xff'`},
		{[]any{}, "()"},
		{[]any{1}, "(1,)"},
		{[]any{1, "a", nil}, "(1, 'a', None)"},
		{fn, "<code f>"},
		{bytecode.NewFunction(bytecode.FunctionParams{Code: fn}), "<code f>"},
		{bytecode.NewFunction(bytecode.FunctionParams{Name: "g"}), "<function g>"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, Repr(tt.value))
		})
	}
}
