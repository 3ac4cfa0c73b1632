package bytecode

import "fmt"

// Callable is implemented by values that can be called. Callables compiled
// to bytecode return their code; native callables return nil.
type Callable interface {
	Name() string
	Code() *Code
}

// Function represents a compiled function.
// It is immutable after creation.
type Function struct {
	id   string
	name string
	code *Code
}

// FunctionParams contains parameters for creating a new Function.
type FunctionParams struct {
	ID   string
	Name string
	Code *Code
}

// NewFunction creates a new immutable Function from the given parameters.
// The name defaults to the name of the code.
func NewFunction(params FunctionParams) *Function {
	name := params.Name
	if name == "" && params.Code != nil {
		name = params.Code.Name()
	}
	return &Function{
		id:   params.ID,
		name: name,
		code: params.Code,
	}
}

// ID returns the unique identifier for this function.
func (f *Function) ID() string {
	if f == nil {
		return ""
	}
	return f.id
}

// Methods of Function, BoundMethod and Builtin accept nil receivers and
// report an empty name and no code.

// Name returns the function name.
func (f *Function) Name() string {
	if f == nil {
		return ""
	}
	return f.name
}

// Code returns the compiled bytecode for this function's body.
func (f *Function) Code() *Code {
	if f == nil {
		return nil
	}
	return f.code
}

// String returns a string representation of the function.
func (f *Function) String() string {
	return fmt.Sprintf("<function %s>", f.Name())
}

// BoundMethod is a function bound to a receiver.
type BoundMethod struct {
	receiver string
	fn       *Function
}

// NewBoundMethod binds fn to a receiver, described by its type name.
func NewBoundMethod(receiver string, fn *Function) *BoundMethod {
	return &BoundMethod{receiver: receiver, fn: fn}
}

// Name returns the qualified method name.
func (m *BoundMethod) Name() string {
	if m == nil {
		return ""
	}
	if m.fn == nil {
		return m.receiver + ".<nil>"
	}
	return m.receiver + "." + m.fn.Name()
}

// Code returns the code of the underlying function.
func (m *BoundMethod) Code() *Code {
	if m == nil {
		return nil
	}
	return m.fn.Code()
}

// Function returns the underlying function.
func (m *BoundMethod) Function() *Function {
	if m == nil {
		return nil
	}
	return m.fn
}

func (m *BoundMethod) String() string {
	return fmt.Sprintf("<bound method %s>", m.Name())
}

// Builtin is a callable implemented natively. It has no bytecode.
type Builtin struct {
	name string
}

// NewBuiltin returns a builtin with the given name.
func NewBuiltin(name string) *Builtin {
	return &Builtin{name: name}
}

// Name returns the builtin's name.
func (b *Builtin) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

// Code always returns nil.
func (b *Builtin) Code() *Code {
	return nil
}

func (b *Builtin) String() string {
	return fmt.Sprintf("<built-in function %s>", b.Name())
}
