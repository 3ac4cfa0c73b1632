// Package bytecode provides immutable representations of compiled code.
//
// A [Code] is a snapshot of one compiled function or module body: the raw
// instruction stream together with the tables its operands index into.
//
// # Key Types
//
//   - [Code]: instruction bytes, constants, names, local variable names,
//     free and cell variable names, argument count and flags
//   - [Function], [BoundMethod]: callables compiled to bytecode
//   - [Builtin]: a native callable with no bytecode
//   - [Emitter]: builds instruction streams, inserting EXTENDED_ARG prefixes
//     for wide operands
//
// # Immutability Guarantees
//
// All types in this package are immutable after construction:
//
//   - No mutation methods exist on any type
//   - All fields are unexported
//   - Constructors copy input slices to prevent caller mutation
//
// Index-based access is used for all tables:
//
//	code.ByteAt(0)
//	code.ConstantAt(i)
//	code.VarNameAt(j)
//
// # Instruction Encoding
//
// Each instruction starts with a one byte opcode from the [op] package.
// Opcodes whose operand kind is not op.None are followed by a two byte
// little-endian operand. An EXTENDED_ARG prefix contributes the high 16
// bits of the operand of the instruction that follows it.
//
// # Code Images
//
// [Marshal] and [Unmarshal] convert a code object, and every code object
// reachable through its constants, to and from a JSON image.
package bytecode
