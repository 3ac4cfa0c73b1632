package bytecode

import (
	"github.com/gofrs/uuid"
	"github.com/risor-io/codedis/op"
)

// Code represents one compiled function or module body.
// It is immutable after creation and safe for concurrent use.
type Code struct {
	id       string
	name     string
	qualName string
	filename string
	argCount int
	flags    Flags
	version  op.Version

	instructions []byte
	constants    []any
	names        []string
	varNames     []string
	freeVars     []string
	cellVars     []string
}

// CodeParams contains parameters for creating a new Code.
type CodeParams struct {
	ID           string
	Name         string
	QualName     string
	Filename     string
	ArgCount     int
	Flags        Flags
	Version      op.Version
	Instructions []byte
	Constants    []any
	Names        []string
	VarNames     []string
	FreeVars     []string
	CellVars     []string
}

// NewCode creates a new immutable Code from the given parameters.
// Input slices are copied to ensure immutability. An ID is generated when
// none is given, and the qualified name defaults to the name.
func NewCode(params CodeParams) *Code {
	c := &Code{}
	c.init(params)
	return c
}

func (c *Code) init(params CodeParams) {
	id := params.ID
	if id == "" {
		id = newID()
	}
	qualName := params.QualName
	if qualName == "" {
		qualName = params.Name
	}
	version := params.Version
	if version == 0 {
		version = op.CurrentVersion
	}
	c.id = id
	c.name = params.Name
	c.qualName = qualName
	c.filename = params.Filename
	c.argCount = params.ArgCount
	c.flags = params.Flags
	c.version = version
	c.instructions = copyBytes(params.Instructions)
	c.constants = copyAny(params.Constants)
	c.names = copyStrings(params.Names)
	c.varNames = copyStrings(params.VarNames)
	c.freeVars = copyStrings(params.FreeVars)
	c.cellVars = copyStrings(params.CellVars)
}

func newID() string {
	id, err := uuid.NewV4()
	if err != nil {
		// The random source failing leaves the code without an identifier;
		// nothing downstream relies on IDs being unique.
		return ""
	}
	return id.String()
}

// ID returns the unique identifier for this code block.
func (c *Code) ID() string {
	return c.id
}

// Name returns the name of this code block.
func (c *Code) Name() string {
	return c.name
}

// QualName returns the dotted name of this code block including the names
// of the code blocks it is nested in.
func (c *Code) QualName() string {
	return c.qualName
}

// Filename returns the file the code was compiled from, if known.
func (c *Code) Filename() string {
	return c.filename
}

// ArgCount returns the number of positional parameters.
func (c *Code) ArgCount() int {
	return c.argCount
}

// Flags returns the code flags.
func (c *Code) Flags() Flags {
	return c.flags
}

// Version returns the bytecode format version.
func (c *Code) Version() op.Version {
	return c.version
}

// Len returns the length of the instruction stream in bytes.
func (c *Code) Len() int {
	return len(c.instructions)
}

// ByteAt returns the instruction stream byte at the given offset.
func (c *Code) ByteAt(offset int) byte {
	return c.instructions[offset]
}

// Instructions returns a copy of the raw instruction stream.
func (c *Code) Instructions() []byte {
	return copyBytes(c.instructions)
}

// ConstantCount returns the number of constants.
func (c *Code) ConstantCount() int {
	return len(c.constants)
}

// ConstantAt returns the constant at the given index.
func (c *Code) ConstantAt(index int) any {
	return c.constants[index]
}

// NameCount returns the number of names (globals and attributes).
func (c *Code) NameCount() int {
	return len(c.names)
}

// NameAt returns the name at the given index.
func (c *Code) NameAt(index int) string {
	return c.names[index]
}

// VarNameCount returns the number of local variable names.
func (c *Code) VarNameCount() int {
	return len(c.varNames)
}

// VarNameAt returns the local variable name at the given index.
func (c *Code) VarNameAt(index int) string {
	return c.varNames[index]
}

// FreeVarCount returns the number of free variables.
func (c *Code) FreeVarCount() int {
	return len(c.freeVars)
}

// FreeVarAt returns the free variable name at the given index.
func (c *Code) FreeVarAt(index int) string {
	return c.freeVars[index]
}

// CellVarCount returns the number of cell variables.
func (c *Code) CellVarCount() int {
	return len(c.cellVars)
}

// CellVarAt returns the cell variable name at the given index.
func (c *Code) CellVarAt(index int) string {
	return c.cellVars[index]
}

// DerefCount returns the size of the closure variable table, cellvars
// followed by freevars.
func (c *Code) DerefCount() int {
	return len(c.cellVars) + len(c.freeVars)
}

// DerefAt returns the closure variable name at the given index, where
// indexes past the cellvars continue into the freevars.
func (c *Code) DerefAt(index int) string {
	if index < len(c.cellVars) {
		return c.cellVars[index]
	}
	return c.freeVars[index-len(c.cellVars)]
}

// NestedCode returns the code object held by a constant, which is either a
// *Code or a function carrying code. The boolean is false for every other
// constant.
func NestedCode(constant any) (*Code, bool) {
	switch v := constant.(type) {
	case *Code:
		return v, v != nil
	case *Function:
		if v == nil || v.Code() == nil {
			return nil, false
		}
		return v.Code(), true
	default:
		return nil, false
	}
}

// Children returns the code objects found in the constant pool, in table
// order. The returned slice is newly allocated.
func (c *Code) Children() []*Code {
	var children []*Code
	for _, constant := range c.constants {
		if child, ok := NestedCode(constant); ok {
			children = append(children, child)
		}
	}
	return children
}

// Stats returns statistics about this code block.
func (c *Code) Stats() Stats {
	return Stats{
		InstructionBytes: len(c.instructions),
		ConstantCount:    len(c.constants),
		NameCount:        len(c.names),
		VarNameCount:     len(c.varNames),
		DerefCount:       c.DerefCount(),
		NestedCodeCount:  len(c.Children()),
	}
}
