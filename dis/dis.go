// Package dis disassembles bytecode into human readable listings.
//
// A disassembly runs in three steps. Extract finds the code object behind a
// target (a code object, a function, or a bound method), Analyze decodes and
// resolves its instructions along with those of every nested code object,
// and Print renders the resulting Listing as text. Disassemble runs all
// three and writes the text to the configured output.
//
// Bytes that cannot be decoded never stop a disassembly unless strict mode
// is enabled. They appear in the listing as placeholder instructions, and
// operands that point outside their tables are shown as <invalid ref>.
package dis

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/risor-io/codedis/bytecode"
	"github.com/risor-io/codedis/errz"
)

// Extract returns the code object behind target.
func Extract(target any) (*bytecode.Code, error) {
	switch t := target.(type) {
	case nil:
		return nil, &errz.ExtractionError{Target: "nil", Reason: "nothing to disassemble"}
	case *bytecode.Code:
		if t == nil {
			return nil, &errz.ExtractionError{Target: "nil code", Reason: "nothing to disassemble"}
		}
		return t, nil
	case *bytecode.Function:
		if t == nil {
			return nil, &errz.ExtractionError{Target: "nil function", Reason: "nothing to disassemble"}
		}
		return fromCallable(t)
	case *bytecode.BoundMethod:
		if t == nil {
			return nil, &errz.ExtractionError{Target: "nil bound method", Reason: "nothing to disassemble"}
		}
		return fromCallable(t)
	case *bytecode.Builtin:
		if t == nil {
			return nil, &errz.ExtractionError{Target: "nil builtin", Reason: "nothing to disassemble"}
		}
		return nil, &errz.ExtractionError{
			Target: t.String(),
			Reason: "built-in function has no bytecode",
		}
	case bytecode.Callable:
		if v := reflect.ValueOf(t); v.Kind() == reflect.Pointer && v.IsNil() {
			return nil, &errz.ExtractionError{Target: fmt.Sprintf("nil %T", t), Reason: "nothing to disassemble"}
		}
		return fromCallable(t)
	default:
		return nil, &errz.ExtractionError{
			Target: fmt.Sprintf("%T", target),
			Reason: "cannot disassemble this type",
		}
	}
}

func fromCallable(c bytecode.Callable) (*bytecode.Code, error) {
	code := c.Code()
	if code == nil {
		return nil, &errz.ExtractionError{
			Target: fmt.Sprintf("%T %s", c, c.Name()),
			Reason: "callable has no bytecode",
		}
	}
	return code, nil
}

// Disassemble writes the listing of target, followed by the listings of
// its nested code objects, to the configured output. Nothing is written if
// the disassembly fails.
func Disassemble(target any, opts ...Option) error {
	cfg := newConfig(opts)
	cfg.logger.Debug().Str("target", fmt.Sprintf("%T", target)).Msg("disassembling")
	listing, err := analyze(target, cfg)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := newRenderer(cfg).render(&buf, listing); err != nil {
		return err
	}
	if _, err := cfg.output.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing listing: %w", err)
	}
	cfg.logger.Debug().Int("bytes", buf.Len()).Msg("disassembly complete")
	return nil
}
