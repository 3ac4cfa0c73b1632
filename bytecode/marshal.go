package bytecode

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/risor-io/codedis/op"
)

// Marshal converts a Code object and every code object reachable through
// its constants into a JSON code image. The given code is stored first.
func Marshal(code *Code) ([]byte, error) {
	state, err := stateFromCode(code)
	if err != nil {
		return nil, err
	}
	return json.Marshal(state)
}

// Unmarshal converts a JSON code image into a Code object. Code objects are
// allocated before any constants are decoded, so an image may reference a
// code object from its own constants; consumers walking nested code must
// guard against cycles.
func Unmarshal(data []byte) (*Code, error) {
	var state codeState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return codeFromState(&state)
}

// Serialization types

type constantDef struct {
	Type string `json:"type"`
}

type boolConstantDef struct {
	Type  string `json:"type"`
	Value bool   `json:"value"`
}

type intConstantDef struct {
	Type  string `json:"type"`
	Value int64  `json:"value"`
}

type floatConstantDef struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type stringConstantDef struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type bytesConstantDef struct {
	Type  string `json:"type"`
	Value []byte `json:"value"`
}

type tupleConstantDef struct {
	Type  string            `json:"type"`
	Value []json.RawMessage `json:"value"`
}

type codeConstantDef struct {
	Type  string `json:"type"`
	Value int    `json:"value"` // Index into codes array
}

type functionConstantDef struct {
	Type  string      `json:"type"`
	Value functionDef `json:"value"`
}

type functionDef struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	CodeIndex int    `json:"code_index"` // Index into codes array
}

type codeDef struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	QualName     string            `json:"qualname,omitempty"`
	Filename     string            `json:"filename,omitempty"`
	ArgCount     int               `json:"argcount"`
	Flags        Flags             `json:"flags"`
	Version      op.Version        `json:"version"`
	Instructions []byte            `json:"instructions"`
	Constants    []json.RawMessage `json:"constants"`
	Names        []string          `json:"names,omitempty"`
	VarNames     []string          `json:"varnames,omitempty"`
	FreeVars     []string          `json:"freevars,omitempty"`
	CellVars     []string          `json:"cellvars,omitempty"`
}

type codeState struct {
	Codes []*codeDef `json:"codes"`
}

// collectCodes returns code and every code object reachable from it, each
// once, in depth-first constant order.
func collectCodes(code *Code) []*Code {
	seen := map[*Code]bool{}
	var codes []*Code
	var walk func(c *Code)
	walk = func(c *Code) {
		if seen[c] {
			return
		}
		seen[c] = true
		codes = append(codes, c)
		for _, child := range c.Children() {
			walk(child)
		}
	}
	walk(code)
	return codes
}

func stateFromCode(code *Code) (*codeState, error) {
	if code == nil {
		return nil, errors.New("marshal: nil code")
	}
	allCodes := collectCodes(code)
	codeIndexMap := make(map[*Code]int, len(allCodes))
	for i, c := range allCodes {
		codeIndexMap[c] = i
	}

	state := &codeState{
		Codes: make([]*codeDef, len(allCodes)),
	}
	for i, c := range allCodes {
		constants := make([]json.RawMessage, c.ConstantCount())
		for j := 0; j < c.ConstantCount(); j++ {
			data, err := marshalConstant(c.ConstantAt(j), codeIndexMap)
			if err != nil {
				return nil, fmt.Errorf("marshal %s: constant %d: %w", c.QualName(), j, err)
			}
			constants[j] = data
		}
		state.Codes[i] = &codeDef{
			ID:           c.ID(),
			Name:         c.Name(),
			QualName:     c.QualName(),
			Filename:     c.Filename(),
			ArgCount:     c.ArgCount(),
			Flags:        c.Flags(),
			Version:      c.Version(),
			Instructions: c.Instructions(),
			Constants:    constants,
			Names:        copyStrings(c.names),
			VarNames:     copyStrings(c.varNames),
			FreeVars:     copyStrings(c.freeVars),
			CellVars:     copyStrings(c.cellVars),
		}
	}
	return state, nil
}

func codeFromState(state *codeState) (*Code, error) {
	if len(state.Codes) == 0 {
		return nil, errors.New("unmarshal: image contains no code")
	}
	// Allocate every code object up front so constants can refer to any of
	// them, including ones that appear later in the array.
	codes := make([]*Code, len(state.Codes))
	for i := range codes {
		codes[i] = &Code{}
	}
	for i, def := range state.Codes {
		if def == nil {
			return nil, fmt.Errorf("unmarshal: code %d is null", i)
		}
		if def.Version != 0 && !def.Version.Valid() {
			return nil, fmt.Errorf("unmarshal %s: unknown bytecode version %d", def.Name, def.Version)
		}
		constants, err := unmarshalConstants(def.Constants, codes)
		if err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", def.Name, err)
		}
		codes[i].init(CodeParams{
			ID:           def.ID,
			Name:         def.Name,
			QualName:     def.QualName,
			Filename:     def.Filename,
			ArgCount:     def.ArgCount,
			Flags:        def.Flags,
			Version:      def.Version,
			Instructions: def.Instructions,
			Constants:    constants,
			Names:        def.Names,
			VarNames:     def.VarNames,
			FreeVars:     def.FreeVars,
			CellVars:     def.CellVars,
		})
	}
	return codes[0], nil
}

func marshalConstant(c any, codeIndexMap map[*Code]int) (json.RawMessage, error) {
	switch v := c.(type) {
	case nil:
		return json.Marshal(constantDef{Type: "nil"})
	case bool:
		return json.Marshal(boolConstantDef{Type: "bool", Value: v})
	case int:
		return json.Marshal(intConstantDef{Type: "int", Value: int64(v)})
	case int64:
		return json.Marshal(intConstantDef{Type: "int", Value: v})
	case float32:
		return json.Marshal(floatConstantDef{Type: "float", Value: float64(v)})
	case float64:
		return json.Marshal(floatConstantDef{Type: "float", Value: v})
	case string:
		return json.Marshal(stringConstantDef{Type: "string", Value: v})
	case []byte:
		return json.Marshal(bytesConstantDef{Type: "bytes", Value: v})
	case []any:
		items := make([]json.RawMessage, len(v))
		for i, item := range v {
			data, err := marshalConstant(item, codeIndexMap)
			if err != nil {
				return nil, err
			}
			items[i] = data
		}
		return json.Marshal(tupleConstantDef{Type: "tuple", Value: items})
	case *Code:
		if v == nil {
			return json.Marshal(constantDef{Type: "nil"})
		}
		idx, ok := codeIndexMap[v]
		if !ok {
			return nil, fmt.Errorf("code %s is not part of the image", v.QualName())
		}
		return json.Marshal(codeConstantDef{Type: "code", Value: idx})
	case *Function:
		if v == nil {
			return json.Marshal(constantDef{Type: "nil"})
		}
		codeIndex := -1
		if v.Code() != nil {
			idx, ok := codeIndexMap[v.Code()]
			if !ok {
				return nil, fmt.Errorf("function %s code is not part of the image", v.Name())
			}
			codeIndex = idx
		}
		return json.Marshal(functionConstantDef{
			Type: "function",
			Value: functionDef{
				ID:        v.ID(),
				Name:      v.Name(),
				CodeIndex: codeIndex,
			},
		})
	default:
		return nil, fmt.Errorf("unknown constant type: %T", c)
	}
}

func unmarshalConstants(data []json.RawMessage, codes []*Code) ([]any, error) {
	constants := make([]any, len(data))
	for i, d := range data {
		c, err := unmarshalConstant(d, codes)
		if err != nil {
			return nil, fmt.Errorf("constant %d: %w", i, err)
		}
		constants[i] = c
	}
	return constants, nil
}

func unmarshalConstant(data json.RawMessage, codes []*Code) (any, error) {
	var def constantDef
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, err
	}

	switch def.Type {
	case "nil":
		return nil, nil
	case "bool":
		var d boolConstantDef
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d.Value, nil
	case "int":
		var d intConstantDef
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d.Value, nil
	case "float":
		var d floatConstantDef
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d.Value, nil
	case "string":
		var d stringConstantDef
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d.Value, nil
	case "bytes":
		var d bytesConstantDef
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d.Value, nil
	case "tuple":
		var d tupleConstantDef
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		items, err := unmarshalConstants(d.Value, codes)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []any{}
		}
		return items, nil
	case "code":
		var d codeConstantDef
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		if d.Value < 0 || d.Value >= len(codes) {
			return nil, fmt.Errorf("code index %d out of range", d.Value)
		}
		return codes[d.Value], nil
	case "function":
		var d functionConstantDef
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		var fnCode *Code
		if d.Value.CodeIndex >= 0 {
			if d.Value.CodeIndex >= len(codes) {
				return nil, fmt.Errorf("code index %d out of range", d.Value.CodeIndex)
			}
			fnCode = codes[d.Value.CodeIndex]
		}
		// The function name is taken from the image rather than the code,
		// whose fields may not be populated yet.
		return &Function{
			id:   d.Value.ID,
			name: d.Value.Name,
			code: fnCode,
		}, nil
	default:
		return nil, fmt.Errorf("unknown constant type: %s", def.Type)
	}
}
