package text

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/tinystack/jet/ir"
)

// functionHeaderPattern matches "<returnType> <name>(<params>)" where params
// is a possibly empty comma-separated list of type tokens.
var functionHeaderPattern = regexp.MustCompile(`^([A-Za-z_]\w*)\s+([A-Za-z_]\w*)\s*\(([^)]*)\)$`)

// ParseProgram reads a function-block grammar file.
func ParseProgram(path string) (*ir.Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeProgram(source)
}

// DecodeProgram decodes function-block source. Each function is a header
// line, a line beginning with '{', instruction lines, then a line beginning
// with '}'. Instruction lines accept the flat grammar plus call and loadarg.
func DecodeProgram(source []byte) (*ir.Program, error) {
	p := ir.NewProgram()

	scanner := bufio.NewScanner(bytes.NewReader(source))
	line := 0
	// nextSignificantLine returns the next line that still has content after
	// comment stripping, or ok=false at EOF.
	nextSignificantLine := func() (text string, ok bool) {
		for scanner.Scan() {
			line++
			text = strings.TrimSpace(stripComment(scanner.Text()))
			if text != "" {
				return text, true
			}
		}
		return "", false
	}

	for {
		header, ok := nextSignificantLine()
		if !ok {
			break
		}
		m := functionHeaderPattern.FindStringSubmatch(header)
		if m == nil {
			return nil, formatError(line, fmt.Errorf("expected function header, have %q", header))
		}
		fn := &ir.Function{
			Name:       m[2],
			ReturnType: m[1],
			ParamTypes: splitParams(m[3]),
			Body:       []ir.Instruction{},
		}

		open, ok := nextSignificantLine()
		if !ok || !strings.HasPrefix(open, "{") {
			return nil, formatError(line, fmt.Errorf("%w: function %s", ErrMissingOpenBrace, fn.Name))
		}

		for {
			body, ok := nextSignificantLine()
			if !ok {
				return nil, formatError(line, fmt.Errorf("unexpected end of file in function %s", fn.Name))
			}
			if strings.HasPrefix(body, "}") {
				break
			}
			inst, err := parseInstruction(strings.Fields(body), true)
			if err != nil {
				return nil, formatError(line, err)
			}
			fn.Body = append(fn.Body, inst)
		}

		p.AddFunction(fn)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// identifierPattern matches the name and type tokens both grammars accept.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_]\w*$`)

// EncodeProgram renders a program back to function-block source. Function
// names and type tokens must be identifiers the grammar can spell back;
// anything else reports ErrNotProgramRepresentable.
func EncodeProgram(p *ir.Program) ([]byte, error) {
	if p == nil {
		return nil, ir.ErrNilProgram
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var b bytes.Buffer
	for i, fn := range p.Functions() {
		if !identifierPattern.MatchString(fn.Name) || !identifierPattern.MatchString(fn.ReturnType) {
			return nil, fmt.Errorf("%w: function %q", ErrNotProgramRepresentable, fn.Name)
		}
		for _, param := range fn.ParamTypes {
			if !identifierPattern.MatchString(param) {
				return nil, fmt.Errorf("%w: parameter type %q", ErrNotProgramRepresentable, param)
			}
		}

		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s(%s)\n{\n", fn.ReturnType, fn.Name, strings.Join(fn.ParamTypes, ", "))
		for _, inst := range fn.Body {
			b.WriteByte('\t')
			b.WriteString(inst.String())
			b.WriteByte('\n')
		}
		b.WriteString("}\n")
	}
	return b.Bytes(), nil
}

func splitParams(params string) []string {
	params = strings.TrimSpace(params)
	if params == "" {
		return nil
	}
	var types []string
	for _, t := range strings.Split(params, ",") {
		types = append(types, strings.TrimSpace(t))
	}
	return types
}
