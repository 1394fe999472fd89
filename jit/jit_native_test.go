//go:build amd64 || arm64
// +build amd64 arm64

package jit

import (
	"math"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinystack/jet/interpreter"
	"github.com/tinystack/jet/ir"
)

func requireSupportedPlatform(t *testing.T) {
	switch runtime.GOOS {
	case "darwin", "linux", "freebsd":
	default:
		t.Skip()
	}
}

func TestCompileInstructions_invoke(t *testing.T) {
	requireSupportedPlatform(t)

	for _, tc := range []struct {
		name string
		body []ir.Instruction
		exp  int64
	}{
		{
			name: "add",
			body: []ir.Instruction{ir.LoadImm{Value: 10}, ir.LoadImm{Value: 5}, ir.Add{}, ir.Return{}},
			exp:  15,
		},
		{
			name: "sub div mul chain",
			body: []ir.Instruction{
				ir.LoadImm{Value: 100}, ir.LoadImm{Value: 50}, ir.Sub{},
				ir.LoadImm{Value: 3}, ir.Div{},
				ir.LoadImm{Value: 4}, ir.Mul{}, ir.Return{},
			},
			exp: 64,
		},
		{
			name: "empty body returns zero",
			body: []ir.Instruction{},
			exp:  0,
		},
		{
			name: "return on empty stack",
			body: []ir.Instruction{ir.Return{}},
			exp:  0,
		},
		{
			name: "missing return leaves top of stack",
			body: []ir.Instruction{ir.LoadImm{Value: 42}},
			exp:  42,
		},
		{
			name: "min int64 immediate",
			body: []ir.Instruction{ir.LoadImm{Value: math.MinInt64}, ir.Return{}},
			exp:  math.MinInt64,
		},
		{
			name: "max int64 immediate",
			body: []ir.Instruction{ir.LoadImm{Value: math.MaxInt64}, ir.Return{}},
			exp:  math.MaxInt64,
		},
		{
			name: "add wraps around",
			body: []ir.Instruction{ir.LoadImm{Value: math.MaxInt64}, ir.LoadImm{Value: 1}, ir.Add{}, ir.Return{}},
			exp:  math.MinInt64,
		},
		{
			name: "div truncates toward zero",
			body: []ir.Instruction{ir.LoadImm{Value: -7}, ir.LoadImm{Value: 2}, ir.Div{}, ir.Return{}},
			exp:  -3,
		},
		{
			name: "stack filled to the frame limit",
			body: deepStackBody(maxNativeStackDepth),
			exp:  int64(maxNativeStackDepth),
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			compiled, err := CompileInstructions(tc.body)
			require.NoError(t, err)
			require.NotNil(t, compiled)
			defer func() {
				require.NoError(t, compiled.Close())
			}()

			require.Equal(t, tc.exp, compiled.Invoke())
			// Pure code: a second invocation observes nothing from the first.
			require.Equal(t, tc.exp, compiled.Invoke())
		})
	}
}

// deepStackBody pushes n ones and folds them with n-1 adds.
func deepStackBody(n int) []ir.Instruction {
	var body []ir.Instruction
	for i := 0; i < n; i++ {
		body = append(body, ir.LoadImm{Value: 1})
	}
	for i := 0; i < n-1; i++ {
		body = append(body, ir.Add{})
	}
	return append(body, ir.Return{})
}

// TestCompileInstructions_agreesWithInterpreter exercises the property that
// native execution and interpretation agree bit for bit.
func TestCompileInstructions_agreesWithInterpreter(t *testing.T) {
	requireSupportedPlatform(t)

	for _, body := range [][]ir.Instruction{
		{ir.LoadImm{Value: 0}, ir.LoadImm{Value: -1}, ir.Add{}, ir.Return{}},
		{ir.LoadImm{Value: math.MinInt64}, ir.LoadImm{Value: -1}, ir.Mul{}, ir.Return{}},
		{ir.LoadImm{Value: 7}, ir.LoadImm{Value: -2}, ir.Div{}, ir.Return{}},
		{ir.LoadImm{Value: -9}, ir.LoadImm{Value: -4}, ir.Div{}, ir.Return{}},
		{ir.LoadImm{Value: 1}, ir.LoadImm{Value: 2}, ir.LoadImm{Value: 3}, ir.Mul{}, ir.Sub{}, ir.Return{}},
	} {
		compiled, err := CompileInstructions(body)
		require.NoError(t, err)
		require.NotNil(t, compiled)

		vm := interpreter.NewVirtualMachine()
		expected, err := vm.Execute(body)
		require.NoError(t, err)

		require.Equal(t, expected, compiled.Invoke())
		require.NoError(t, compiled.Close())
	}
}

func TestCompiledFunction_Disassemble(t *testing.T) {
	requireSupportedPlatform(t)

	compiled, err := CompileInstructions([]ir.Instruction{
		ir.LoadImm{Value: 2}, ir.LoadImm{Value: 3}, ir.Add{}, ir.Return{},
	})
	require.NoError(t, err)
	require.NotNil(t, compiled)
	defer func() {
		require.NoError(t, compiled.Close())
	}()

	listing, err := compiled.Disassemble()
	require.NoError(t, err)
	require.NotEmpty(t, listing)
	require.Contains(t, listing, "RET")
}
