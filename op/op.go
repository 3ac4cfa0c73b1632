// Package op defines the opcodes understood by the disassembler along with
// the operand kind of each one.
package op

// Code is a one byte opcode that selects an operation.
type Code uint8

// Encoding parameters of the instruction stream.
const (
	// OperandWidth is the number of bytes in an operand, stored little-endian.
	OperandWidth = 2

	// OperandBits is the number of operand bits contributed by one instruction.
	OperandBits = OperandWidth * 8

	// MaxExtendedArgs is the longest chain of EXTENDED_ARG prefixes allowed
	// in front of a single instruction.
	MaxExtendedArgs = 1

	// JumpUnit is the number of bytes one unit of a jump operand covers.
	JumpUnit = 1
)

const (
	Invalid Code = 0

	// Stack
	PopTop    Code = 1
	RotTwo    Code = 2
	RotThree  Code = 3
	DupTop    Code = 4
	DupTopTwo Code = 5
	Nop       Code = 9

	// Unary
	UnaryPositive Code = 10
	UnaryNegative Code = 11
	UnaryNot      Code = 12
	UnaryInvert   Code = 15

	// Binary
	BinaryPower       Code = 19
	BinaryMultiply    Code = 20
	BinaryModulo      Code = 22
	BinaryAdd         Code = 23
	BinarySubtract    Code = 24
	BinarySubscr      Code = 25
	BinaryFloorDivide Code = 26
	BinaryTrueDivide  Code = 27
	InplaceAdd        Code = 55
	InplaceSubtract   Code = 56
	InplaceMultiply   Code = 57
	StoreSubscr       Code = 60
	DeleteSubscr      Code = 61
	BinaryLShift      Code = 62
	BinaryRShift      Code = 63
	BinaryAnd         Code = 64
	BinaryXor         Code = 65
	BinaryOr          Code = 66

	// Iteration and blocks
	GetIter        Code = 68
	LoadBuildClass Code = 71
	ReturnValue    Code = 83
	PopBlock       Code = 87
	PopExcept      Code = 89

	// Names
	StoreName   Code = 90
	DeleteName  Code = 91
	StoreAttr   Code = 95
	StoreGlobal Code = 97
	LoadName    Code = 101
	LoadAttr    Code = 106
	ImportName  Code = 108
	ImportFrom  Code = 109
	LoadGlobal  Code = 116
	LoadMethod  Code = 160

	// Constants
	LoadConst Code = 100

	// Locals
	LoadFast   Code = 124
	StoreFast  Code = 125
	DeleteFast Code = 126

	// Closures
	LoadClosure Code = 135
	LoadDeref   Code = 136
	StoreDeref  Code = 137

	// Comparison
	CompareOp  Code = 107
	IsOp       Code = 117
	ContainsOp Code = 118

	// Jumps
	ForIter          Code = 93
	JumpForward      Code = 110
	JumpIfFalseOrPop Code = 111
	JumpIfTrueOrPop  Code = 112
	JumpAbsolute     Code = 113
	PopJumpIfFalse   Code = 114
	PopJumpIfTrue    Code = 115
	SetupLoop        Code = 120
	SetupExcept      Code = 121
	SetupFinally     Code = 122
	JumpBackward     Code = 134

	// Counts and small arguments
	UnpackSequence Code = 92
	BuildTuple     Code = 102
	BuildList      Code = 103
	BuildSet       Code = 104
	BuildMap       Code = 105
	RaiseVarargs   Code = 130
	CallFunction   Code = 131
	MakeFunction   Code = 132
	BuildSlice     Code = 133
	CallMethod     Code = 161

	// ExtendedArg supplies the high bits of the next instruction's operand.
	ExtendedArg Code = 144
)

// OperandKind describes how an opcode's operand is interpreted.
type OperandKind uint8

const (
	// None means the opcode carries no operand.
	None OperandKind = iota
	// Constant operands index the constant pool.
	Constant
	// Name operands index the name table (globals and attributes).
	Name
	// Local operands index the local variable table.
	Local
	// Free operands index cellvars followed by freevars.
	Free
	// Compare operands index the comparison operator table.
	Compare
	// JumpRelative operands are distances from the next instruction.
	JumpRelative
	// JumpAbsolute operands are offsets from the start of the stream.
	JumpAbsolute
	// SmallInt operands are used verbatim.
	SmallInt
)

// String returns the name of the operand kind.
func (k OperandKind) String() string {
	switch k {
	case None:
		return "none"
	case Constant:
		return "constant"
	case Name:
		return "name"
	case Local:
		return "local"
	case Free:
		return "free"
	case Compare:
		return "compare"
	case JumpRelative:
		return "jump_relative"
	case JumpAbsolute:
		return "jump_absolute"
	case SmallInt:
		return "small_int"
	default:
		return "unknown"
	}
}

// IsJump returns true for the two jump kinds.
func (k OperandKind) IsJump() bool {
	return k == JumpRelative || k == JumpAbsolute
}

// Info contains information about an opcode.
type Info struct {
	Code Code
	Name string
	Kind OperandKind
	// Backward is set on relative jumps that move toward lower offsets.
	Backward bool
}

// HasOperand returns true if instructions with this opcode carry an operand.
func (i Info) HasOperand() bool {
	return i.Kind != None
}

var (
	infos   [256]Info
	byNames = map[string]Code{}
)

func init() {
	type opInfo struct {
		op       Code
		name     string
		kind     OperandKind
		backward bool
	}
	ops := []opInfo{
		{BinaryAdd, "BINARY_ADD", None, false},
		{BinaryAnd, "BINARY_AND", None, false},
		{BinaryFloorDivide, "BINARY_FLOOR_DIVIDE", None, false},
		{BinaryLShift, "BINARY_LSHIFT", None, false},
		{BinaryModulo, "BINARY_MODULO", None, false},
		{BinaryMultiply, "BINARY_MULTIPLY", None, false},
		{BinaryOr, "BINARY_OR", None, false},
		{BinaryPower, "BINARY_POWER", None, false},
		{BinaryRShift, "BINARY_RSHIFT", None, false},
		{BinarySubscr, "BINARY_SUBSCR", None, false},
		{BinarySubtract, "BINARY_SUBTRACT", None, false},
		{BinaryTrueDivide, "BINARY_TRUE_DIVIDE", None, false},
		{BinaryXor, "BINARY_XOR", None, false},
		{BuildList, "BUILD_LIST", SmallInt, false},
		{BuildMap, "BUILD_MAP", SmallInt, false},
		{BuildSet, "BUILD_SET", SmallInt, false},
		{BuildSlice, "BUILD_SLICE", SmallInt, false},
		{BuildTuple, "BUILD_TUPLE", SmallInt, false},
		{CallFunction, "CALL_FUNCTION", SmallInt, false},
		{CallMethod, "CALL_METHOD", SmallInt, false},
		{CompareOp, "COMPARE_OP", Compare, false},
		{ContainsOp, "CONTAINS_OP", SmallInt, false},
		{DeleteFast, "DELETE_FAST", Local, false},
		{DeleteName, "DELETE_NAME", Name, false},
		{DeleteSubscr, "DELETE_SUBSCR", None, false},
		{DupTop, "DUP_TOP", None, false},
		{DupTopTwo, "DUP_TOP_TWO", None, false},
		{ExtendedArg, "EXTENDED_ARG", SmallInt, false},
		{ForIter, "FOR_ITER", JumpRelative, false},
		{GetIter, "GET_ITER", None, false},
		{ImportFrom, "IMPORT_FROM", Name, false},
		{ImportName, "IMPORT_NAME", Name, false},
		{InplaceAdd, "INPLACE_ADD", None, false},
		{InplaceMultiply, "INPLACE_MULTIPLY", None, false},
		{InplaceSubtract, "INPLACE_SUBTRACT", None, false},
		{IsOp, "IS_OP", SmallInt, false},
		{JumpAbsolute, "JUMP_ABSOLUTE", JumpAbsolute, false},
		{JumpBackward, "JUMP_BACKWARD", JumpRelative, true},
		{JumpForward, "JUMP_FORWARD", JumpRelative, false},
		{JumpIfFalseOrPop, "JUMP_IF_FALSE_OR_POP", JumpAbsolute, false},
		{JumpIfTrueOrPop, "JUMP_IF_TRUE_OR_POP", JumpAbsolute, false},
		{LoadAttr, "LOAD_ATTR", Name, false},
		{LoadBuildClass, "LOAD_BUILD_CLASS", None, false},
		{LoadClosure, "LOAD_CLOSURE", Free, false},
		{LoadConst, "LOAD_CONST", Constant, false},
		{LoadDeref, "LOAD_DEREF", Free, false},
		{LoadFast, "LOAD_FAST", Local, false},
		{LoadGlobal, "LOAD_GLOBAL", Name, false},
		{LoadMethod, "LOAD_METHOD", Name, false},
		{LoadName, "LOAD_NAME", Name, false},
		{MakeFunction, "MAKE_FUNCTION", SmallInt, false},
		{Nop, "NOP", None, false},
		{PopBlock, "POP_BLOCK", None, false},
		{PopExcept, "POP_EXCEPT", None, false},
		{PopJumpIfFalse, "POP_JUMP_IF_FALSE", JumpAbsolute, false},
		{PopJumpIfTrue, "POP_JUMP_IF_TRUE", JumpAbsolute, false},
		{PopTop, "POP_TOP", None, false},
		{RaiseVarargs, "RAISE_VARARGS", SmallInt, false},
		{ReturnValue, "RETURN_VALUE", None, false},
		{RotThree, "ROT_THREE", None, false},
		{RotTwo, "ROT_TWO", None, false},
		{SetupExcept, "SETUP_EXCEPT", JumpRelative, false},
		{SetupFinally, "SETUP_FINALLY", JumpRelative, false},
		{SetupLoop, "SETUP_LOOP", JumpRelative, false},
		{StoreAttr, "STORE_ATTR", Name, false},
		{StoreDeref, "STORE_DEREF", Free, false},
		{StoreFast, "STORE_FAST", Local, false},
		{StoreGlobal, "STORE_GLOBAL", Name, false},
		{StoreName, "STORE_NAME", Name, false},
		{StoreSubscr, "STORE_SUBSCR", None, false},
		{UnaryInvert, "UNARY_INVERT", None, false},
		{UnaryNegative, "UNARY_NEGATIVE", None, false},
		{UnaryNot, "UNARY_NOT", None, false},
		{UnaryPositive, "UNARY_POSITIVE", None, false},
		{UnpackSequence, "UNPACK_SEQUENCE", SmallInt, false},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Code:     o.op,
			Name:     o.name,
			Kind:     o.kind,
			Backward: o.backward,
		}
		byNames[o.name] = o.op
	}
}

// GetInfo returns information about the given opcode. Unassigned opcodes
// yield an Info with an empty name.
func GetInfo(op Code) Info {
	return infos[op]
}

// Lookup returns information about the given opcode and whether the opcode
// is assigned.
func Lookup(op Code) (Info, bool) {
	info := infos[op]
	return info, info.Name != ""
}

// ByName returns the opcode with the given mnemonic.
func ByName(name string) (Code, bool) {
	code, ok := byNames[name]
	return code, ok
}
