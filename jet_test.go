package jet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinystack/jet/ir"
)

func addProgram() *ir.Program {
	return ir.NewProgram(&ir.Function{
		Name: ir.MainFunctionName, ReturnType: "int",
		Body: []ir.Instruction{ir.LoadImm{Value: 10}, ir.LoadImm{Value: 5}, ir.Add{}, ir.Return{}},
	})
}

func callProgram() *ir.Program {
	return ir.NewProgram(
		&ir.Function{
			Name: ir.MainFunctionName, ReturnType: "int",
			Body: []ir.Instruction{ir.LoadImm{Value: 6}, ir.LoadImm{Value: 4}, ir.Call{Name: "Add2"}, ir.Return{}},
		},
		&ir.Function{
			Name: "Add2", ReturnType: "int", ParamTypes: []string{"int", "int"},
			Body: []ir.Instruction{ir.LoadArg{Index: 0}, ir.LoadArg{Index: 1}, ir.Add{}, ir.Return{}},
		},
	)
}

func TestRun(t *testing.T) {
	t.Run("arithmetic", func(t *testing.T) {
		result, err := Run(addProgram(), nil)
		require.NoError(t, err)
		require.Equal(t, int64(15), result)
	})

	t.Run("calls fall back to the interpreter", func(t *testing.T) {
		result, err := Run(callProgram(), nil)
		require.NoError(t, err)
		require.Equal(t, int64(10), result)
	})

	t.Run("print goes to the configured output", func(t *testing.T) {
		var out bytes.Buffer
		program := ir.NewProgram(&ir.Function{
			Name: ir.MainFunctionName, ReturnType: "int",
			Body: []ir.Instruction{ir.LoadImm{Value: 7}, ir.Print{}, ir.Return{}},
		})
		result, err := Run(program, NewRuntimeConfig().WithOutput(&out))
		require.NoError(t, err)
		require.Equal(t, int64(7), result)
		require.Equal(t, "7\n", out.String())
	})

	t.Run("vm engine", func(t *testing.T) {
		result, err := Run(addProgram(), NewRuntimeConfig().WithEngine(EngineVM))
		require.NoError(t, err)
		require.Equal(t, int64(15), result)
	})

	t.Run("jit engine rejects calls", func(t *testing.T) {
		_, err := Run(callProgram(), NewRuntimeConfig().WithEngine(EngineJIT))
		require.ErrorIs(t, err, ErrNotCompilable)
	})

	t.Run("no main function", func(t *testing.T) {
		_, err := Run(ir.NewProgram(), nil)
		require.ErrorIs(t, err, ir.ErrNoMainFunction)
	})
}

func TestRunInstructions(t *testing.T) {
	t.Run("arithmetic", func(t *testing.T) {
		result, err := RunInstructions([]ir.Instruction{
			ir.LoadImm{Value: 100}, ir.LoadImm{Value: 50}, ir.Sub{},
			ir.LoadImm{Value: 3}, ir.Div{},
			ir.LoadImm{Value: 4}, ir.Mul{}, ir.Return{},
		}, nil)
		require.NoError(t, err)
		require.Equal(t, int64(64), result)
	})

	t.Run("print forces interpretation", func(t *testing.T) {
		var out bytes.Buffer
		result, err := RunInstructions([]ir.Instruction{
			ir.LoadImm{Value: 3}, ir.Print{}, ir.Return{},
		}, NewRuntimeConfig().WithOutput(&out))
		require.NoError(t, err)
		require.Equal(t, int64(3), result)
		require.Equal(t, "3\n", out.String())
	})

	t.Run("agreement between engines", func(t *testing.T) {
		body := []ir.Instruction{
			ir.LoadImm{Value: -9}, ir.LoadImm{Value: -4}, ir.Div{}, ir.Return{},
		}
		vmResult, err := RunInstructions(body, NewRuntimeConfig().WithEngine(EngineVM))
		require.NoError(t, err)
		autoResult, err := RunInstructions(body, nil)
		require.NoError(t, err)
		require.Equal(t, vmResult, autoResult)
	})
}
