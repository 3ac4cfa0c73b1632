package bytecode

// Stats contains statistics about a code block.
type Stats struct {
	// InstructionBytes is the length of the instruction stream.
	InstructionBytes int `json:"instruction_bytes"`

	// ConstantCount is the number of constants in the constant pool.
	ConstantCount int `json:"constant_count"`

	// NameCount is the number of global and attribute names.
	NameCount int `json:"name_count"`

	// VarNameCount is the number of local variables.
	VarNameCount int `json:"varname_count"`

	// DerefCount is the number of cell and free variables.
	DerefCount int `json:"deref_count"`

	// NestedCodeCount is the number of code objects in the constant pool.
	NestedCodeCount int `json:"nested_code_count"`
}
