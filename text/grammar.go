// Package text decodes the two surface grammars into ir values: the flat
// line-oriented grammar, whose file is the body of a single entry function,
// and the function-block grammar, which declares named functions with
// parameter lists. Encoders exist for the reverse direction.
package text

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tinystack/jet/ir"
)

// flatMainReturnType is the return type token attributed to the implicit
// entry function of a flat file. The flat grammar has no type syntax.
const flatMainReturnType = "int"

// stripComment removes a '#' or '//' comment suffix.
func stripComment(line string) string {
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	return line
}

// parseInstruction decodes one instruction line, already split into fields.
// Keywords are case-insensitive. programOps enables the instructions only
// meaningful inside a function block.
func parseInstruction(fields []string, programOps bool) (ir.Instruction, error) {
	keyword := strings.ToLower(fields[0])
	operands := fields[1:]

	requireOperands := func(n int) error {
		if len(operands) != n {
			return fmt.Errorf("%w: %s takes %d operand(s), have %d", ErrBadOperandCount, keyword, n, len(operands))
		}
		return nil
	}

	switch keyword {
	case "load":
		if err := requireOperands(1); err != nil {
			return nil, err
		}
		v, err := strconv.ParseInt(operands[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: load %q", ErrNonIntegerOperand, operands[0])
		}
		return ir.LoadImm{Value: v}, nil
	case "add":
		return ir.Add{}, requireOperands(0)
	case "sub":
		return ir.Sub{}, requireOperands(0)
	case "mul":
		return ir.Mul{}, requireOperands(0)
	case "div":
		return ir.Div{}, requireOperands(0)
	case "print":
		return ir.Print{}, requireOperands(0)
	case "ret", "return":
		return ir.Return{}, requireOperands(0)
	}

	if programOps {
		switch keyword {
		case "loadarg":
			if err := requireOperands(1); err != nil {
				return nil, err
			}
			index, err := strconv.ParseUint(operands[0], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: loadarg %q requires a non-negative integer", ErrNonIntegerOperand, operands[0])
			}
			return ir.LoadArg{Index: uint32(index)}, nil
		case "call":
			if err := requireOperands(1); err != nil {
				return nil, err
			}
			return ir.Call{Name: operands[0]}, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownInstruction, keyword)
}
