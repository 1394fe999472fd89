package text

import (
	"bufio"
	"bytes"
	"os"
	"strings"

	"github.com/tinystack/jet/ir"
)

// ParseFlat reads a flat-grammar file and returns a program whose single
// function is the entry point holding the file's instructions.
func ParseFlat(path string) (*ir.Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeFlat(source)
}

// DecodeFlat decodes flat-grammar source. Blank lines and comments are
// ignored; every remaining line must be a single instruction. Errors carry
// the 1-based line number via FormatError.
func DecodeFlat(source []byte) (*ir.Program, error) {
	body := []ir.Instruction{}

	scanner := bufio.NewScanner(bytes.NewReader(source))
	for line := 1; scanner.Scan(); line++ {
		fields := strings.Fields(stripComment(scanner.Text()))
		if len(fields) == 0 {
			continue
		}
		inst, err := parseInstruction(fields, false)
		if err != nil {
			return nil, formatError(line, err)
		}
		body = append(body, inst)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ir.NewProgram(&ir.Function{
		Name:       ir.MainFunctionName,
		ReturnType: flatMainReturnType,
		Body:       body,
	}), nil
}

// EncodeFlat renders a program back to flat-grammar source. Only programs
// holding a single parameterless entry function without calls can be
// rendered; anything else reports ErrNotFlatRepresentable.
func EncodeFlat(p *ir.Program) ([]byte, error) {
	if p == nil {
		return nil, ir.ErrNilProgram
	}
	functions := p.Functions()
	if len(functions) != 1 || functions[0].Name != ir.MainFunctionName || functions[0].Arity() != 0 {
		return nil, ErrNotFlatRepresentable
	}

	var b bytes.Buffer
	for _, inst := range functions[0].Body {
		switch inst.Kind() {
		case ir.KindCall, ir.KindLoadArg:
			return nil, ErrNotFlatRepresentable
		}
		b.WriteString(inst.String())
		b.WriteByte('\n')
	}
	return b.Bytes(), nil
}
