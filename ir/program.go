package ir

import "fmt"

// MainFunctionName is the entry point looked up by ExecuteProgram and the
// code generator.
const MainFunctionName = "Main"

// Function is a named instruction sequence with a declared parameter arity.
// Parameter types are opaque tags: only their count is semantically
// significant today, the strings are reserved for future typing.
type Function struct {
	Name       string
	ReturnType string
	ParamTypes []string
	Body       []Instruction
}

// Arity returns the declared number of parameters.
func (f *Function) Arity() int { return len(f.ParamTypes) }

// Program is an insertion-ordered collection of functions. Lookups return the
// first function whose name matches, so earlier declarations shadow later
// duplicates.
type Program struct {
	functions []*Function
}

func NewProgram(functions ...*Function) *Program {
	return &Program{functions: functions}
}

// AddFunction appends f, preserving declaration order.
func (p *Program) AddFunction(f *Function) {
	p.functions = append(p.functions, f)
}

// Function returns the first function named name, or nil when absent.
func (p *Program) Function(name string) *Function {
	for _, f := range p.functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Main returns the entry-point function, or nil when absent.
func (p *Program) Main() *Function { return p.Function(MainFunctionName) }

// Functions returns all functions in declaration order.
func (p *Program) Functions() []*Function { return p.functions }

// Validate checks the structural rules enforced on ingest: the program and
// every function body must be non-nil, and call targets must be non-empty.
// Range checks on argument indexes happen at execution time against the
// current frame's arity.
func (p *Program) Validate() error {
	if p == nil {
		return ErrNilProgram
	}
	for _, f := range p.functions {
		if f.Body == nil {
			return fmt.Errorf("function %s: %w", f.Name, ErrNilInstructions)
		}
		for pc, inst := range f.Body {
			if call, ok := inst.(Call); ok && call.Name == "" {
				return fmt.Errorf("function %s: instruction %d: %w", f.Name, pc, ErrEmptyCallTarget)
			}
		}
	}
	return nil
}
