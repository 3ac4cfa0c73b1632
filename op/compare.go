package op

// Version identifies a revision of the bytecode format. Revisions differ in
// the contents of the comparison operator table.
type Version uint8

const (
	// Version1 compares with a single COMPARE_OP that also covers
	// membership, identity and exception matching.
	Version1 Version = 1

	// Version2 moves membership and identity to CONTAINS_OP and IS_OP, so
	// COMPARE_OP only carries the ordering comparisons.
	Version2 Version = 2

	// CurrentVersion is used for code that does not state a version.
	CurrentVersion = Version1
)

var compareOps = map[Version][]string{
	Version1: {
		"<", "<=", "==", "!=", ">", ">=",
		"in", "not in", "is", "is not", "exception match", "BAD",
	},
	Version2: {
		"<", "<=", "==", "!=", ">", ">=",
	},
}

// CompareOps returns the comparison operator mnemonics for the given format
// version, indexed by COMPARE_OP operand. Unknown versions return nil.
func CompareOps(v Version) []string {
	ops, ok := compareOps[v]
	if !ok {
		return nil
	}
	out := make([]string, len(ops))
	copy(out, ops)
	return out
}

// CompareOpName returns the mnemonic for one COMPARE_OP operand.
func CompareOpName(v Version, index uint32) (string, bool) {
	ops := compareOps[v]
	if uint64(index) >= uint64(len(ops)) {
		return "", false
	}
	return ops[index], true
}

// Valid reports whether the version is known.
func (v Version) Valid() bool {
	_, ok := compareOps[v]
	return ok
}
