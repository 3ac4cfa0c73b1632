package dis

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/risor-io/codedis/bytecode"
	"github.com/risor-io/codedis/errz"
)

// Entry is one line of a listing: a decoded instruction and its resolved
// operand.
type Entry struct {
	Instruction
	Resolved ResolvedOperand
	// IsTarget is set when some jump in the same code object lands on this
	// instruction.
	IsTarget bool
}

// Listing is the disassembly of one code object followed by the listings
// of the code objects in its constant pool, in table order.
type Listing struct {
	Code     *bytecode.Code
	Entries  []Entry
	Children []*Listing

	errs *multierror.Error
}

// Name returns the name of the code object.
func (l *Listing) Name() string {
	return l.Code.Name()
}

// QualName returns the qualified name of the code object.
func (l *Listing) QualName() string {
	return l.Code.QualName()
}

// Walk calls fn for this listing and then each nested listing, depth first
// in constant table order.
func (l *Listing) Walk(fn func(*Listing)) {
	fn(l)
	for _, child := range l.Children {
		child.Walk(fn)
	}
}

// Err returns the recoverable problems found in this listing and its nested
// listings, or nil if there were none. Each problem is also visible in the
// rendered text as a placeholder.
func (l *Listing) Err() error {
	var result *multierror.Error
	l.Walk(func(child *Listing) {
		if child.errs != nil {
			result = multierror.Append(result, child.errs.Errors...)
		}
	})
	return result.ErrorOrNil()
}

// Analyze extracts the code of target and decodes and resolves it, along
// with every nested code object.
func Analyze(target any, opts ...Option) (*Listing, error) {
	return analyze(target, newConfig(opts))
}

func analyze(target any, cfg *config) (*Listing, error) {
	code, err := Extract(target)
	if err != nil {
		return nil, err
	}
	a := &analyzer{cfg: cfg, active: map[*bytecode.Code]bool{}}
	return a.listing(code)
}

type analyzer struct {
	cfg    *config
	active map[*bytecode.Code]bool
	path   []string
}

func (a *analyzer) listing(code *bytecode.Code) (*Listing, error) {
	if a.active[code] {
		path := make([]string, len(a.path), len(a.path)+1)
		copy(path, a.path)
		return nil, &errz.CyclicCodeObjectError{Path: append(path, code.QualName())}
	}
	a.active[code] = true
	a.path = append(a.path, code.QualName())
	defer func() {
		delete(a.active, code)
		a.path = a.path[:len(a.path)-1]
	}()

	log := a.cfg.logger.With().Str("code", code.QualName()).Logger()
	l := &Listing{Code: code}
	targets := map[int]bool{}
	for instr := range Instructions(code) {
		if instr.Err != nil {
			if a.cfg.strict {
				return nil, fmt.Errorf("%s: %w", code.QualName(), instr.Err)
			}
			log.Warn().Err(instr.Err).Int("offset", instr.Offset).Msg("undecodable bytes")
			l.errs = multierror.Append(l.errs, instr.Err)
		}
		operand := Resolve(code, instr)
		if operand.Err != nil {
			log.Warn().Err(operand.Err).Int("offset", instr.Offset).Msg("unresolved operand")
			l.errs = multierror.Append(l.errs, operand.Err)
		}
		if operand.HasTarget {
			targets[operand.Target] = true
		}
		l.Entries = append(l.Entries, Entry{Instruction: instr, Resolved: operand})
	}
	// Targets are only known once every jump has been resolved, so forward
	// jumps are marked in a second pass.
	for i := range l.Entries {
		l.Entries[i].IsTarget = targets[l.Entries[i].Offset]
	}
	log.Debug().Int("instructions", len(l.Entries)).Int("jump_targets", len(targets)).Msg("decoded code object")

	for i := 0; i < code.ConstantCount(); i++ {
		child, ok := bytecode.NestedCode(code.ConstantAt(i))
		if !ok {
			continue
		}
		childListing, err := a.listing(child)
		if err != nil {
			return nil, err
		}
		l.Children = append(l.Children, childListing)
	}
	return l, nil
}

type entryJSON struct {
	Offset     int     `json:"offset"`
	Opcode     int     `json:"opcode"`
	Mnemonic   string  `json:"mnemonic"`
	Length     int     `json:"length"`
	Operand    *uint32 `json:"operand,omitempty"`
	Display    string  `json:"display,omitempty"`
	JumpTarget *int    `json:"jump_target,omitempty"`
	IsTarget   bool    `json:"is_target,omitempty"`
	Error      string  `json:"error,omitempty"`
}

type listingJSON struct {
	Name         string      `json:"name"`
	QualName     string      `json:"qualname"`
	Filename     string      `json:"filename,omitempty"`
	Instructions []entryJSON `json:"instructions"`
	Children     []*Listing  `json:"children,omitempty"`
}

// MarshalJSON encodes the listing for programmatic consumers.
func (l *Listing) MarshalJSON() ([]byte, error) {
	out := listingJSON{
		Name:         l.Name(),
		QualName:     l.QualName(),
		Filename:     l.Code.Filename(),
		Instructions: make([]entryJSON, 0, len(l.Entries)),
		Children:     l.Children,
	}
	for _, e := range l.Entries {
		ej := entryJSON{
			Offset:   e.Offset,
			Opcode:   int(e.Opcode),
			Mnemonic: e.Mnemonic(),
			Length:   e.Length,
			Display:  e.Resolved.Display,
			IsTarget: e.IsTarget,
		}
		if e.HasOperand {
			value := e.Operand
			ej.Operand = &value
		}
		if e.Resolved.HasTarget {
			target := e.Resolved.Target
			ej.JumpTarget = &target
		}
		if e.Err != nil {
			ej.Error = e.Err.Error()
		} else if e.Resolved.Err != nil {
			ej.Error = e.Resolved.Err.Error()
		}
		out.Instructions = append(out.Instructions, ej)
	}
	return json.Marshal(out)
}
