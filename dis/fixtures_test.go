package dis

import (
	"testing"

	"github.com/risor-io/codedis/bytecode"
	"github.com/risor-io/codedis/op"
	"github.com/stretchr/testify/require"
)

// sumFirstN is the compiled form of:
//
//	def sumFirstN(n):
//	    total = 0
//	    for i in range(1, n + 1):
//	        total = total + i
//	    return total
func sumFirstN(t *testing.T) *bytecode.Code {
	t.Helper()
	return bytecode.NewCode(bytecode.CodeParams{
		Name:         "sumFirstN",
		Filename:     "sum.py",
		ArgCount:     1,
		Flags:        bytecode.FlagOptimized | bytecode.FlagNewLocals,
		Instructions: sumFirstNInstructions(t),
		Constants:    []any{nil, 0, 1},
		Names:        []string{"range"},
		VarNames:     []string{"n", "total", "i"},
	})
}

func sumFirstNInstructions(t *testing.T) []byte {
	t.Helper()
	e := &bytecode.Emitter{}
	e.Emit(op.LoadConst, 1)
	e.Emit(op.StoreFast, 1)
	setup := e.Emit(op.SetupLoop, 0)
	e.Emit(op.LoadGlobal, 0)
	e.Emit(op.LoadConst, 2)
	e.Emit(op.LoadFast, 0)
	e.Emit(op.LoadConst, 2)
	e.Emit(op.BinaryAdd)
	e.Emit(op.CallFunction, 2)
	e.Emit(op.GetIter)
	loop := e.Emit(op.ForIter, 0)
	e.Emit(op.StoreFast, 2)
	e.Emit(op.LoadFast, 1)
	e.Emit(op.LoadFast, 2)
	e.Emit(op.BinaryAdd)
	e.Emit(op.StoreFast, 1)
	e.Emit(op.JumpAbsolute, uint32(loop))
	end := e.Emit(op.PopBlock)
	e.Emit(op.LoadFast, 1)
	e.Emit(op.ReturnValue)
	require.NoError(t, e.PatchOperand(loop, uint32(end-(loop+3))))
	require.NoError(t, e.PatchOperand(setup, uint32(end+1-(setup+3))))
	require.NoError(t, e.Err())
	return e.Bytes()
}

// module defines fn at the top level of a file.
func module(t *testing.T, fn *bytecode.Code) *bytecode.Code {
	t.Helper()
	e := &bytecode.Emitter{}
	e.Emit(op.LoadConst, 0)
	e.Emit(op.MakeFunction, 0)
	e.Emit(op.StoreName, 0)
	e.Emit(op.LoadConst, 1)
	e.Emit(op.ReturnValue)
	require.NoError(t, e.Err())
	return bytecode.NewCode(bytecode.CodeParams{
		Name:         "<module>",
		Filename:     "sum.py",
		Instructions: e.Bytes(),
		Constants:    []any{fn, nil},
		Names:        []string{fn.Name()},
	})
}

func codeWith(instructions []byte, constants ...any) *bytecode.Code {
	return bytecode.NewCode(bytecode.CodeParams{
		Name:         "test",
		Instructions: instructions,
		Constants:    constants,
	})
}

func withBytes(code *bytecode.Code, instructions []byte) *bytecode.Code {
	return bytecode.NewCode(bytecode.CodeParams{
		Name:         code.Name(),
		Filename:     code.Filename(),
		ArgCount:     code.ArgCount(),
		Instructions: instructions,
		Constants:    constantsOf(code),
		Names:        namesOf(code),
		VarNames:     varNamesOf(code),
	})
}

func constantsOf(code *bytecode.Code) []any {
	out := make([]any, code.ConstantCount())
	for i := range out {
		out[i] = code.ConstantAt(i)
	}
	return out
}

func namesOf(code *bytecode.Code) []string {
	out := make([]string, code.NameCount())
	for i := range out {
		out[i] = code.NameAt(i)
	}
	return out
}

func varNamesOf(code *bytecode.Code) []string {
	out := make([]string, code.VarNameCount())
	for i := range out {
		out[i] = code.VarNameAt(i)
	}
	return out
}

const sumFirstNListing = "" +
	"     0  LOAD_CONST     0 (1)\n" +
	"     3  STORE_FAST     total (1)\n" +
	"     6  SETUP_LOOP     46 (37)\n" +
	"     9  LOAD_GLOBAL    range (0)\n" +
	"    12  LOAD_CONST     1 (2)\n" +
	"    15  LOAD_FAST      n (0)\n" +
	"    18  LOAD_CONST     1 (2)\n" +
	"    21  BINARY_ADD\n" +
	"    22  CALL_FUNCTION  2\n" +
	"    25  GET_ITER\n" +
	">>  26  FOR_ITER       45 (16)\n" +
	"    29  STORE_FAST     i (2)\n" +
	"    32  LOAD_FAST      total (1)\n" +
	"    35  LOAD_FAST      i (2)\n" +
	"    38  BINARY_ADD\n" +
	"    39  STORE_FAST     total (1)\n" +
	"    42  JUMP_ABSOLUTE  26 (26)\n" +
	">>  45  POP_BLOCK\n" +
	">>  46  LOAD_FAST      total (1)\n" +
	"    49  RETURN_VALUE\n"

const moduleListing = "" +
	"     0  LOAD_CONST     <code sumFirstN> (0)\n" +
	"     3  MAKE_FUNCTION  0\n" +
	"     6  STORE_NAME     sumFirstN (0)\n" +
	"     9  LOAD_CONST     None (1)\n" +
	"    12  RETURN_VALUE\n"
