package dis

import (
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/risor-io/codedis/bytecode"
	"github.com/risor-io/codedis/errz"
	"github.com/risor-io/codedis/op"
)

// Reasons attached to decode errors.
const (
	reasonUnknownOpcode = "unknown opcode"
	reasonTruncated     = "truncated operand"
	reasonDangling      = "EXTENDED_ARG not followed by an instruction with an operand"
	reasonTooManyExt    = "too many EXTENDED_ARG prefixes"
)

// Instruction is one decoded instruction.
type Instruction struct {
	// Offset of the first byte, including any EXTENDED_ARG prefixes.
	Offset int
	Opcode op.Code
	// Operand is the full operand value with prefixes merged in. It is only
	// meaningful when HasOperand is set.
	Operand    uint32
	HasOperand bool
	// Length is the number of bytes consumed, prefixes included.
	Length int
	// Extended is the number of EXTENDED_ARG prefixes merged into Operand.
	Extended int
	// Err is set on placeholder instructions covering bytes that could not
	// be decoded. It is always a *errz.DecodeError.
	Err error
}

// Info returns the opcode information.
func (i Instruction) Info() op.Info {
	return op.GetInfo(i.Opcode)
}

// Mnemonic returns the opcode name, or the opcode number in angle brackets
// for unassigned opcodes.
func (i Instruction) Mnemonic() string {
	if info, ok := op.Lookup(i.Opcode); ok {
		return info.Name
	}
	return fmt.Sprintf("<%d>", i.Opcode)
}

// IsPlaceholder returns true if the instruction stands in for bytes that
// could not be decoded.
func (i Instruction) IsPlaceholder() bool {
	return i.Err != nil
}

// End returns the offset just past the instruction.
func (i Instruction) End() int {
	return i.Offset + i.Length
}

// Decoder iterates over the instructions of a code object. Every byte of the
// stream is covered by exactly one instruction; bytes that do not decode are
// covered by placeholder instructions and decoding resumes after them.
type Decoder struct {
	code *bytecode.Code
	pos  int
}

// NewDecoder creates a decoder positioned at the start of the stream.
func NewDecoder(code *bytecode.Code) *Decoder {
	return &Decoder{code: code}
}

// Reset moves the decoder back to the start of the stream.
func (d *Decoder) Reset() {
	d.pos = 0
}

// Next returns the next instruction. Returns false when the stream is
// exhausted.
func (d *Decoder) Next() (Instruction, bool) {
	n := d.code.Len()
	if d.pos >= n {
		return Instruction{}, false
	}
	start := d.pos
	pos := start
	var ext uint32
	prefixes := 0
	for {
		opcode := op.Code(d.code.ByteAt(pos))
		info, ok := op.Lookup(opcode)
		if !ok {
			if prefixes > 0 {
				// Emit the prefixes alone; the unknown byte gets its own
				// placeholder on the next call.
				return d.placeholder(start, pos-start, op.ExtendedArg, reasonDangling), true
			}
			return d.placeholder(start, 1, opcode, reasonUnknownOpcode), true
		}
		if !info.HasOperand() {
			if prefixes > 0 {
				return d.placeholder(start, pos-start, op.ExtendedArg, reasonDangling), true
			}
			d.pos = pos + 1
			return Instruction{Offset: start, Opcode: opcode, Length: 1}, true
		}
		if pos+1+op.OperandWidth > n {
			return d.placeholder(start, n-start, opcode, reasonTruncated), true
		}
		arg := uint32(binary.LittleEndian.Uint16(d.readOperand(pos + 1)))
		if opcode == op.ExtendedArg {
			if prefixes == op.MaxExtendedArgs {
				return d.placeholder(start, pos-start, op.ExtendedArg, reasonTooManyExt), true
			}
			ext = (ext | arg) << op.OperandBits
			prefixes++
			pos += 1 + op.OperandWidth
			if pos >= n {
				return d.placeholder(start, pos-start, op.ExtendedArg, reasonDangling), true
			}
			continue
		}
		d.pos = pos + 1 + op.OperandWidth
		return Instruction{
			Offset:     start,
			Opcode:     opcode,
			Operand:    ext | arg,
			HasOperand: true,
			Length:     d.pos - start,
			Extended:   prefixes,
		}, true
	}
}

func (d *Decoder) readOperand(pos int) []byte {
	var buf [op.OperandWidth]byte
	for i := range buf {
		buf[i] = d.code.ByteAt(pos + i)
	}
	return buf[:]
}

func (d *Decoder) placeholder(start, length int, opcode op.Code, reason string) Instruction {
	d.pos = start + length
	return Instruction{
		Offset: start,
		Opcode: opcode,
		Length: length,
		Err: &errz.DecodeError{
			Offset: start,
			Opcode: byte(opcode),
			Reason: reason,
		},
	}
}

// All returns the remaining instructions as a newly allocated slice.
func (d *Decoder) All() []Instruction {
	var results []Instruction
	for {
		instr, ok := d.Next()
		if !ok {
			break
		}
		results = append(results, instr)
	}
	return results
}

// Instructions returns a sequence over the instructions of code. Each range
// loop over the sequence decodes from the start of the stream.
func Instructions(code *bytecode.Code) iter.Seq[Instruction] {
	return func(yield func(Instruction) bool) {
		d := NewDecoder(code)
		for {
			instr, ok := d.Next()
			if !ok || !yield(instr) {
				return
			}
		}
	}
}
