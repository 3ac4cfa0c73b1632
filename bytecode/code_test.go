package bytecode

import (
	"testing"

	"github.com/risor-io/codedis/op"
)

func TestNewCodeImmutability(t *testing.T) {
	instructions := []byte{byte(op.LoadConst), 0, 0, byte(op.ReturnValue)}
	constants := []any{42, "hello"}
	names := []string{"foo", "bar"}
	varNames := []string{"x"}

	code := NewCode(CodeParams{
		ID:           "test",
		Name:         "test_code",
		Instructions: instructions,
		Constants:    constants,
		Names:        names,
		VarNames:     varNames,
	})

	instructions[0] = byte(op.Nop)
	constants[0] = 99
	names[0] = "modified"
	varNames[0] = "y"

	if code.ByteAt(0) != byte(op.LoadConst) {
		t.Errorf("expected byte 0 to be LOAD_CONST, got %v", code.ByteAt(0))
	}
	if code.ConstantAt(0) != 42 {
		t.Errorf("expected constant 0 to be 42, got %v", code.ConstantAt(0))
	}
	if code.NameAt(0) != "foo" {
		t.Errorf("expected name 0 to be 'foo', got %v", code.NameAt(0))
	}
	if code.VarNameAt(0) != "x" {
		t.Errorf("expected varname 0 to be 'x', got %v", code.VarNameAt(0))
	}

	out := code.Instructions()
	out[0] = byte(op.Nop)
	if code.ByteAt(0) != byte(op.LoadConst) {
		t.Errorf("Instructions() must return a copy")
	}
}

func TestCodeDefaults(t *testing.T) {
	code := NewCode(CodeParams{Name: "main"})
	if code.ID() == "" {
		t.Errorf("expected a generated ID")
	}
	if other := NewCode(CodeParams{Name: "main"}); other.ID() == code.ID() {
		t.Errorf("expected distinct generated IDs, got %q twice", code.ID())
	}
	if code.QualName() != "main" {
		t.Errorf("expected qualname to default to the name, got %q", code.QualName())
	}
	if code.Version() != op.CurrentVersion {
		t.Errorf("expected version %d, got %d", op.CurrentVersion, code.Version())
	}
	if code.Len() != 0 {
		t.Errorf("expected empty instruction stream, got %d bytes", code.Len())
	}
}

func TestDerefTable(t *testing.T) {
	code := NewCode(CodeParams{
		Name:     "outer",
		CellVars: []string{"a", "b"},
		FreeVars: []string{"c"},
	})
	if code.DerefCount() != 3 {
		t.Fatalf("expected 3 closure variables, got %d", code.DerefCount())
	}
	for i, expected := range []string{"a", "b", "c"} {
		if got := code.DerefAt(i); got != expected {
			t.Errorf("DerefAt(%d): expected %q, got %q", i, expected, got)
		}
	}
}

func TestChildrenAndStats(t *testing.T) {
	inner := NewCode(CodeParams{Name: "inner"})
	lambda := NewCode(CodeParams{Name: "<lambda>"})
	fn := NewFunction(FunctionParams{Code: inner})
	outer := NewCode(CodeParams{
		Name:         "outer",
		Instructions: []byte{byte(op.ReturnValue)},
		Constants:    []any{nil, fn, "s", lambda, NewBuiltin("len")},
		Names:        []string{"print"},
		VarNames:     []string{"x", "y"},
	})

	children := outer.Children()
	if len(children) != 2 || children[0] != inner || children[1] != lambda {
		t.Fatalf("unexpected children: %v", children)
	}
	if fn.Name() != "inner" {
		t.Errorf("expected function name to default to code name, got %q", fn.Name())
	}

	stats := outer.Stats()
	expected := Stats{
		InstructionBytes: 1,
		ConstantCount:    5,
		NameCount:        1,
		VarNameCount:     2,
		NestedCodeCount:  2,
	}
	if stats != expected {
		t.Errorf("expected %+v, got %+v", expected, stats)
	}
}

func TestFlagsString(t *testing.T) {
	tests := []struct {
		flags    Flags
		expected string
	}{
		{0, ""},
		{FlagOptimized | FlagNewLocals, "OPTIMIZED, NEWLOCALS"},
		{FlagOptimized | FlagNewLocals | FlagNoFree, "OPTIMIZED, NEWLOCALS, NOFREE"},
		{FlagGenerator | 0x100, "GENERATOR, 0x100"},
	}
	for _, tt := range tests {
		if got := tt.flags.String(); got != tt.expected {
			t.Errorf("Flags(%d): expected %q, got %q", tt.flags, tt.expected, got)
		}
	}
	if !(FlagNested | FlagNoFree).Has(FlagNoFree) {
		t.Errorf("expected Has to report a set flag")
	}
}

func TestCallables(t *testing.T) {
	code := NewCode(CodeParams{Name: "area"})
	fn := NewFunction(FunctionParams{Name: "area", Code: code})
	method := NewBoundMethod("Circle", fn)
	builtin := NewBuiltin("len")

	var callables = []Callable{fn, method, builtin}
	if callables[0].Code() != code || callables[1].Code() != code {
		t.Errorf("expected compiled callables to expose their code")
	}
	if callables[2].Code() != nil {
		t.Errorf("expected builtin to have no code")
	}
	if method.Name() != "Circle.area" {
		t.Errorf("unexpected method name %q", method.Name())
	}
	if builtin.String() != "<built-in function len>" {
		t.Errorf("unexpected builtin string %q", builtin.String())
	}
}

func TestNilCallables(t *testing.T) {
	var fn *Function
	var method *BoundMethod
	var builtin *Builtin
	for _, c := range []Callable{fn, method, builtin} {
		if c.Code() != nil {
			t.Errorf("%T: expected no code", c)
		}
		if c.Name() != "" {
			t.Errorf("%T: expected an empty name, got %q", c, c.Name())
		}
	}
	if method.Function() != nil {
		t.Errorf("expected no function")
	}
	if builtin.String() != "<built-in function >" {
		t.Errorf("unexpected builtin string %q", builtin.String())
	}
	if fn.String() != "<function >" {
		t.Errorf("unexpected function string %q", fn.String())
	}
}
