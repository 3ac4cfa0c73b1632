// Package errz defines the error kinds reported while disassembling code.
package errz

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// ErrExtraction indicates a target that carries no compiled code.
	ErrExtraction ErrorKind = iota
	// ErrDecode indicates bytes that do not form a valid instruction.
	ErrDecode
	// ErrInvalidRef indicates an operand that points outside its table.
	ErrInvalidRef
	// ErrCycle indicates code objects that contain themselves.
	ErrCycle
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrExtraction:
		return "extraction error"
	case ErrDecode:
		return "decode error"
	case ErrInvalidRef:
		return "invalid reference"
	case ErrCycle:
		return "cyclic code object"
	default:
		return "error"
	}
}

// FatalError is an interface for errors that may or may not be fatal.
type FatalError interface {
	Error() string
	IsFatal() bool
}

// KindError is implemented by every error in this package.
type KindError interface {
	Error() string
	Kind() ErrorKind
}

// ExtractionError is returned when a target has no compiled representation.
type ExtractionError struct {
	Target string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind(), e.Target, e.Reason)
}

func (e *ExtractionError) Kind() ErrorKind { return ErrExtraction }

func (e *ExtractionError) IsFatal() bool { return true }

// DecodeError describes bytes at an offset that could not be decoded.
type DecodeError struct {
	Offset int
	Opcode byte
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s at offset %d (opcode 0x%02x): %s", e.Kind(), e.Offset, e.Opcode, e.Reason)
}

func (e *DecodeError) Kind() ErrorKind { return ErrDecode }

// IsFatal is false: the listing shows a placeholder and decoding continues.
// Strict callers promote it themselves.
func (e *DecodeError) IsFatal() bool { return false }

// InvalidReferenceError describes an operand that indexes past the end of
// the table it refers to, or a jump that lands outside the stream.
type InvalidReferenceError struct {
	Offset int
	Table  string
	Index  int64
	Size   int
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s index %d out of range [0, %d)",
		e.Kind(), e.Offset, e.Table, e.Index, e.Size)
}

func (e *InvalidReferenceError) Kind() ErrorKind { return ErrInvalidRef }

func (e *InvalidReferenceError) IsFatal() bool { return false }

// CyclicCodeObjectError is returned when a code object is reachable from its
// own constants.
type CyclicCodeObjectError struct {
	// Path lists the qualified names from the outermost code object to the
	// one that closes the cycle.
	Path []string
}

func (e *CyclicCodeObjectError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind(), strings.Join(e.Path, " -> "))
}

func (e *CyclicCodeObjectError) Kind() ErrorKind { return ErrCycle }

func (e *CyclicCodeObjectError) IsFatal() bool { return true }

// IsFatal returns true if err, or any error it wraps, is a fatal error.
// Errors not defined by this package are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var fatal FatalError
	if errors.As(err, &fatal) {
		return fatal.IsFatal()
	}
	return true
}

// KindOf returns the kind of err and true if err wraps an error from this
// package.
func KindOf(err error) (ErrorKind, bool) {
	var ke KindError
	if errors.As(err, &ke) {
		return ke.Kind(), true
	}
	return 0, false
}
