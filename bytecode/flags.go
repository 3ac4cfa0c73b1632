package bytecode

import (
	"strconv"
	"strings"
)

// Flags is a bit set describing properties of a code block.
type Flags uint32

const (
	FlagOptimized   Flags = 1 << 0
	FlagNewLocals   Flags = 1 << 1
	FlagVarArgs     Flags = 1 << 2
	FlagVarKeywords Flags = 1 << 3
	FlagNested      Flags = 1 << 4
	FlagGenerator   Flags = 1 << 5
	FlagNoFree      Flags = 1 << 6
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagOptimized, "OPTIMIZED"},
	{FlagNewLocals, "NEWLOCALS"},
	{FlagVarArgs, "VARARGS"},
	{FlagVarKeywords, "VARKEYWORDS"},
	{FlagNested, "NESTED"},
	{FlagGenerator, "GENERATOR"},
	{FlagNoFree, "NOFREE"},
}

// Has returns true if every bit in other is set.
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

// String returns the set flag names separated by commas, followed by the
// hex value of any unknown bits.
func (f Flags) String() string {
	var parts []string
	rest := f
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
			rest &^= fn.flag
		}
	}
	if rest != 0 {
		parts = append(parts, "0x"+strconv.FormatUint(uint64(rest), 16))
	}
	return strings.Join(parts, ", ")
}
