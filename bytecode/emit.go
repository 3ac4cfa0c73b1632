package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/risor-io/codedis/op"
)

const operandMask = 1<<op.OperandBits - 1

// MakeInstruction encodes a single instruction. Opcodes without an operand
// encode to one byte. Operands that do not fit in op.OperandWidth bytes are
// split across an EXTENDED_ARG prefix.
func MakeInstruction(opcode op.Code, operand uint32) []byte {
	info := op.GetInfo(opcode)
	if !info.HasOperand() {
		return []byte{byte(opcode)}
	}
	var out []byte
	if operand > operandMask {
		out = appendOperandInstruction(out, op.ExtendedArg, operand>>op.OperandBits)
	}
	return appendOperandInstruction(out, opcode, operand&operandMask)
}

func appendOperandInstruction(out []byte, opcode op.Code, operand uint32) []byte {
	var arg [op.OperandWidth]byte
	binary.LittleEndian.PutUint16(arg[:], uint16(operand))
	out = append(out, byte(opcode))
	return append(out, arg[:]...)
}

// Emitter accumulates an instruction stream. The first error encountered is
// kept and returned by Err; later calls are still applied so offsets remain
// predictable.
type Emitter struct {
	buf     []byte
	failure error
}

// Emit appends an instruction and returns its offset. Opcodes that take an
// operand require exactly one; other opcodes take none.
func (e *Emitter) Emit(opcode op.Code, operands ...uint32) int {
	pos := len(e.buf)
	info, ok := op.Lookup(opcode)
	if !ok {
		e.fail(fmt.Errorf("emit: unknown opcode %d at offset %d", opcode, pos))
		e.buf = append(e.buf, byte(opcode))
		return pos
	}
	switch {
	case info.HasOperand() && len(operands) != 1:
		e.fail(fmt.Errorf("emit: %s takes one operand, got %d", info.Name, len(operands)))
	case !info.HasOperand() && len(operands) != 0:
		e.fail(fmt.Errorf("emit: %s takes no operand, got %d", info.Name, len(operands)))
	}
	var operand uint32
	if len(operands) > 0 {
		operand = operands[0]
	}
	e.buf = append(e.buf, MakeInstruction(opcode, operand)...)
	return pos
}

// EmitRaw appends bytes without validation.
func (e *Emitter) EmitRaw(b ...byte) int {
	pos := len(e.buf)
	e.buf = append(e.buf, b...)
	return pos
}

// Offset returns the offset the next instruction will be written to.
func (e *Emitter) Offset() int {
	return len(e.buf)
}

// PatchOperand replaces the operand of the instruction starting at pos. The
// encoded width of the instruction may not change, so a patched jump never
// shifts the instructions after it.
func (e *Emitter) PatchOperand(pos int, operand uint32) error {
	if pos < 0 || pos >= len(e.buf) {
		return fmt.Errorf("patch: offset %d out of range", pos)
	}
	wide := op.Code(e.buf[pos]) == op.ExtendedArg
	if wide {
		if pos+2*(1+op.OperandWidth) > len(e.buf) {
			return fmt.Errorf("patch: truncated instruction at offset %d", pos)
		}
		binary.LittleEndian.PutUint16(e.buf[pos+1:], uint16(operand>>op.OperandBits))
		pos += 1 + op.OperandWidth
	} else if operand > operandMask {
		return fmt.Errorf("patch: operand %d does not fit the instruction at offset %d", operand, pos)
	}
	info := op.GetInfo(op.Code(e.buf[pos]))
	if !info.HasOperand() {
		return fmt.Errorf("patch: %s at offset %d has no operand", info.Name, pos)
	}
	if pos+1+op.OperandWidth > len(e.buf) {
		return fmt.Errorf("patch: truncated instruction at offset %d", pos)
	}
	binary.LittleEndian.PutUint16(e.buf[pos+1:], uint16(operand&operandMask))
	return nil
}

// Bytes returns a copy of the instruction stream.
func (e *Emitter) Bytes() []byte {
	return copyBytes(e.buf)
}

// Err returns the first error recorded by Emit.
func (e *Emitter) Err() error {
	return e.failure
}

func (e *Emitter) fail(err error) {
	if e.failure == nil {
		e.failure = err
	}
}
