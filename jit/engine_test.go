package jit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinystack/jet/ir"
)

func TestScanStackUse(t *testing.T) {
	for _, tc := range []struct {
		name     string
		body     []ir.Instruction
		expDepth int
		expErr   error
	}{
		{
			name:     "empty",
			body:     []ir.Instruction{},
			expDepth: 0,
		},
		{
			name:     "arithmetic chain",
			body:     []ir.Instruction{ir.LoadImm{Value: 1}, ir.LoadImm{Value: 2}, ir.Add{}, ir.Return{}},
			expDepth: 2,
		},
		{
			name: "peak before reduction",
			body: []ir.Instruction{
				ir.LoadImm{Value: 1}, ir.LoadImm{Value: 2}, ir.LoadImm{Value: 3},
				ir.Mul{}, ir.Add{}, ir.Return{},
			},
			expDepth: 3,
		},
		{
			name:     "print requires one operand",
			body:     []ir.Instruction{ir.LoadImm{Value: 1}, ir.Print{}, ir.Return{}},
			expDepth: 1,
		},
		{
			name:     "instructions after return are ignored",
			body:     []ir.Instruction{ir.Return{}, ir.Add{}},
			expDepth: 0,
		},
		{
			name:   "add underflow",
			body:   []ir.Instruction{ir.LoadImm{Value: 1}, ir.Add{}},
			expErr: ErrStackImbalance,
		},
		{
			name:   "print underflow",
			body:   []ir.Instruction{ir.Print{}},
			expErr: ErrStackImbalance,
		},
		{
			name:   "call is not supported",
			body:   []ir.Instruction{ir.Call{Name: "F"}},
			expErr: ErrUnsupportedInstruction,
		},
		{
			name:   "loadarg is not supported",
			body:   []ir.Instruction{ir.LoadArg{Index: 0}},
			expErr: ErrUnsupportedInstruction,
		},
		{
			name:     "frame fits exactly",
			body:     append(loads(maxNativeStackDepth), ir.Return{}),
			expDepth: maxNativeStackDepth,
		},
		{
			name:   "frame exceeded",
			body:   append(loads(maxNativeStackDepth+1), ir.Return{}),
			expErr: ErrStackOverflow,
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			depth, err := scanStackUse(tc.body)
			if tc.expErr != nil {
				require.ErrorIs(t, err, tc.expErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expDepth, depth)
		})
	}
}

func TestCompileInstructions_absentArtifact(t *testing.T) {
	for _, tc := range []struct {
		name string
		body []ir.Instruction
	}{
		{name: "call", body: []ir.Instruction{ir.Call{Name: "F"}, ir.Return{}}},
		{name: "loadarg", body: []ir.Instruction{ir.LoadArg{Index: 0}, ir.Return{}}},
		{name: "underflow", body: []ir.Instruction{ir.Add{}, ir.Return{}}},
		{name: "too deep", body: append(loads(maxNativeStackDepth+1), ir.Return{})},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			compiled, err := CompileInstructions(tc.body)
			require.NoError(t, err)
			require.Nil(t, compiled)
		})
	}
}

// loads builds a body of n immediate pushes.
func loads(n int) []ir.Instruction {
	body := make([]ir.Instruction, 0, n)
	for i := 0; i < n; i++ {
		body = append(body, ir.LoadImm{Value: int64(i)})
	}
	return body
}

func TestCompileInstructions_nil(t *testing.T) {
	_, err := CompileInstructions(nil)
	require.ErrorIs(t, err, ir.ErrNilInstructions)
}

func TestCompileProgram_errors(t *testing.T) {
	t.Run("nil program", func(t *testing.T) {
		_, err := CompileProgram(nil)
		require.ErrorIs(t, err, ir.ErrNilProgram)
	})

	t.Run("no main function", func(t *testing.T) {
		_, err := CompileProgram(ir.NewProgram(&ir.Function{
			Name: "Helper", Body: []ir.Instruction{ir.Return{}},
		}))
		require.ErrorIs(t, err, ir.ErrNoMainFunction)
	})

	t.Run("invalid program", func(t *testing.T) {
		_, err := CompileProgram(ir.NewProgram(&ir.Function{Name: ir.MainFunctionName}))
		require.ErrorIs(t, err, ir.ErrNilInstructions)
	})

	t.Run("entry with parameters has no artifact", func(t *testing.T) {
		compiled, err := CompileProgram(ir.NewProgram(&ir.Function{
			Name: ir.MainFunctionName, ParamTypes: []string{"int"},
			Body: []ir.Instruction{ir.LoadArg{Index: 0}, ir.Return{}},
		}))
		require.NoError(t, err)
		require.Nil(t, compiled)
	})
}
