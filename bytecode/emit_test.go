package bytecode

import (
	"bytes"
	"testing"

	"github.com/risor-io/codedis/op"
)

func TestMakeInstruction(t *testing.T) {
	tests := []struct {
		name     string
		opcode   op.Code
		operand  uint32
		expected []byte
	}{
		{"no operand", op.ReturnValue, 0, []byte{byte(op.ReturnValue)}},
		{"operand ignored", op.BinaryAdd, 7, []byte{byte(op.BinaryAdd)}},
		{"small operand", op.LoadConst, 1, []byte{byte(op.LoadConst), 1, 0}},
		{"little endian", op.LoadFast, 0x0102, []byte{byte(op.LoadFast), 0x02, 0x01}},
		{"widest base operand", op.LoadConst, 0xFFFF, []byte{byte(op.LoadConst), 0xFF, 0xFF}},
		{
			"extended operand",
			op.JumpAbsolute,
			0x00030004,
			[]byte{byte(op.ExtendedArg), 0x03, 0x00, byte(op.JumpAbsolute), 0x04, 0x00},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MakeInstruction(tt.opcode, tt.operand)
			if !bytes.Equal(got, tt.expected) {
				t.Errorf("expected % x, got % x", tt.expected, got)
			}
		})
	}
}

func TestEmitter(t *testing.T) {
	var e Emitter
	if pos := e.Emit(op.LoadConst, 0); pos != 0 {
		t.Errorf("expected offset 0, got %d", pos)
	}
	if pos := e.Emit(op.BinaryAdd); pos != 3 {
		t.Errorf("expected offset 3, got %d", pos)
	}
	if pos := e.Emit(op.LoadConst, 70000); pos != 4 {
		t.Errorf("expected offset 4, got %d", pos)
	}
	if e.Offset() != 10 {
		t.Errorf("expected length 10, got %d", e.Offset())
	}
	if e.Err() != nil {
		t.Fatalf("unexpected error: %v", e.Err())
	}
}

func TestEmitterErrors(t *testing.T) {
	var e Emitter
	e.Emit(op.LoadConst)
	if e.Err() == nil {
		t.Errorf("expected an error for a missing operand")
	}

	e = Emitter{}
	e.Emit(op.ReturnValue, 1)
	if e.Err() == nil {
		t.Errorf("expected an error for an unexpected operand")
	}

	e = Emitter{}
	e.Emit(op.Code(0xFE))
	if e.Err() == nil {
		t.Errorf("expected an error for an unknown opcode")
	}
	if e.Offset() != 1 {
		t.Errorf("expected the unknown opcode to still be written")
	}
}

func TestPatchOperand(t *testing.T) {
	var e Emitter
	jump := e.Emit(op.JumpForward, 0)
	e.Emit(op.Nop)
	wide := e.Emit(op.JumpAbsolute, 0x10000)

	if err := e.PatchOperand(jump, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.PatchOperand(wide, 0x20005); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []byte{
		byte(op.JumpForward), 1, 0,
		byte(op.Nop),
		byte(op.ExtendedArg), 2, 0, byte(op.JumpAbsolute), 5, 0,
	}
	if got := e.Bytes(); !bytes.Equal(got, expected) {
		t.Errorf("expected % x, got % x", expected, got)
	}

	if err := e.PatchOperand(jump, 0x10000); err == nil {
		t.Errorf("expected an error when the operand no longer fits")
	}
	if err := e.PatchOperand(3, 1); err == nil {
		t.Errorf("expected an error patching an instruction without operand")
	}
	if err := e.PatchOperand(100, 1); err == nil {
		t.Errorf("expected an error for an out of range offset")
	}
}
