// Package jet executes programs of a small stack-based arithmetic
// instruction set, either by interpreting them on a virtual machine or by
// compiling them to native code for the host CPU. The Run functions prefer
// native execution and fall back to the interpreter whenever compilation
// yields no artifact, so programs using interpreter-only facilities still
// execute.
package jet

import (
	"errors"
	"io"
	"os"

	"github.com/tinystack/jet/interpreter"
	"github.com/tinystack/jet/ir"
	"github.com/tinystack/jet/jit"
)

// Engine selects how Run executes a program.
type Engine string

const (
	// EngineAuto compiles when possible and otherwise interprets. Programs
	// that print fall back to the interpreter as compiled code has no output
	// facility.
	EngineAuto Engine = "auto"
	// EngineJIT requires native compilation and fails with ErrNotCompilable
	// when no artifact can be produced.
	EngineJIT Engine = "jit"
	// EngineVM always interprets.
	EngineVM Engine = "vm"
)

// ErrNotCompilable is returned by Run under EngineJIT when the program has
// no native rendition on this host.
var ErrNotCompilable = errors.New("program has no native rendition on this host")

// RuntimeConfig controls Run behavior, with defaults as NewRuntimeConfig.
type RuntimeConfig struct {
	engine Engine
	out    io.Writer
}

func NewRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{engine: EngineAuto, out: os.Stdout}
}

// WithEngine overrides the engine selection policy.
func (c *RuntimeConfig) WithEngine(engine Engine) *RuntimeConfig {
	ret := *c
	ret.engine = engine
	return &ret
}

// WithOutput sets the destination for values printed during interpretation.
func (c *RuntimeConfig) WithOutput(out io.Writer) *RuntimeConfig {
	ret := *c
	ret.out = out
	return &ret
}

// Run executes the program's entry function and returns its result.
func Run(p *ir.Program, config *RuntimeConfig) (int64, error) {
	if config == nil {
		config = NewRuntimeConfig()
	}
	return run(config, func() (*jit.CompiledFunction, error) { return jit.CompileProgram(p) },
		func() (int64, error) {
			vm := interpreter.NewVirtualMachine()
			vm.SetOutput(config.out)
			return vm.ExecuteProgram(p)
		},
		programPrints(p))
}

// RunInstructions executes a flat instruction list as a nullary entry
// function.
func RunInstructions(body []ir.Instruction, config *RuntimeConfig) (int64, error) {
	if config == nil {
		config = NewRuntimeConfig()
	}
	return run(config, func() (*jit.CompiledFunction, error) { return jit.CompileInstructions(body) },
		func() (int64, error) {
			vm := interpreter.NewVirtualMachine()
			vm.SetOutput(config.out)
			return vm.Execute(body)
		},
		bodyPrints(body))
}

func run(config *RuntimeConfig, compile func() (*jit.CompiledFunction, error), interpret func() (int64, error), prints bool) (int64, error) {
	switch config.engine {
	case EngineVM:
		return interpret()
	case EngineJIT:
		compiled, err := compile()
		if err != nil {
			return 0, err
		}
		if compiled == nil {
			return 0, ErrNotCompilable
		}
		defer compiled.Close()
		return compiled.Invoke(), nil
	default:
		if prints {
			return interpret()
		}
		compiled, err := compile()
		if err != nil {
			return 0, err
		}
		if compiled == nil {
			return interpret()
		}
		defer compiled.Close()
		return compiled.Invoke(), nil
	}
}

func programPrints(p *ir.Program) bool {
	if p == nil {
		return false
	}
	main := p.Main()
	if main == nil {
		return false
	}
	return bodyPrints(main.Body)
}

func bodyPrints(body []ir.Instruction) bool {
	for _, inst := range body {
		switch inst.Kind() {
		case ir.KindPrint:
			return true
		case ir.KindReturn:
			return false
		case ir.KindCall:
			// Conservative: the callee may print.
			return true
		}
	}
	return false
}
