package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/tinystack/jet"
	"github.com/tinystack/jet/ir"
	"github.com/tinystack/jet/jit"
	"github.com/tinystack/jet/text"
)

const historyFile = ".jet_history"

const replHelp = `Enter flat-grammar instructions one per line. Commands:
  run     execute the buffered instructions and print the result
  asm     show the native code for the buffered instructions
  list    show the buffer
  clear   discard the buffer
  help    show this message
  quit    leave the session
`

func doRepl(args []string, stdOut, stdErr io.Writer, exit func(code int)) {
	if len(args) > 0 {
		fmt.Fprintln(stdErr, "repl takes no arguments")
		exit(1)
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	var buffer []ir.Instruction
	for {
		input, err := ln.Prompt("jet> ")
		if err != nil { // io.EOF on ctrl-D, liner.ErrPromptAborted on ctrl-C
			fmt.Fprintln(stdOut)
			break
		}
		line := strings.TrimSpace(input)
		if line == "" {
			continue
		}
		ln.AppendHistory(input)

		if quit := replStep(&buffer, line, stdOut); quit {
			break
		}
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	exit(0)
}

// replStep handles one line of input against the instruction buffer,
// reporting whether the session should end.
func replStep(buffer *[]ir.Instruction, line string, stdOut io.Writer) bool {
	switch strings.ToLower(line) {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprint(stdOut, replHelp)
		return false
	case "clear":
		*buffer = nil
		return false
	case "list":
		for _, inst := range *buffer {
			fmt.Fprintln(stdOut, inst.String())
		}
		return false
	case "run":
		if len(*buffer) == 0 {
			fmt.Fprintln(stdOut, "(buffer empty)")
			return false
		}
		result, err := jet.RunInstructions(*buffer, jet.NewRuntimeConfig().WithOutput(stdOut))
		if err != nil {
			fmt.Fprintln(stdOut, err)
			return false
		}
		fmt.Fprintln(stdOut, result)
		return false
	case "asm":
		if len(*buffer) == 0 {
			fmt.Fprintln(stdOut, "(buffer empty)")
			return false
		}
		replAsm(*buffer, stdOut)
		return false
	}

	program, err := text.DecodeFlat([]byte(line))
	if err != nil {
		fmt.Fprintln(stdOut, err)
		return false
	}
	*buffer = append(*buffer, program.Main().Body...)
	return false
}

func replAsm(buffer []ir.Instruction, stdOut io.Writer) {
	compiled, err := jit.CompileInstructions(buffer)
	if err != nil {
		fmt.Fprintln(stdOut, err)
		return
	}
	if compiled == nil {
		fmt.Fprintln(stdOut, "(no native rendition; interpreter only)")
		return
	}
	defer compiled.Close()

	listing, err := compiled.Disassemble()
	if err != nil {
		fmt.Fprintln(stdOut, err)
		return
	}
	fmt.Fprint(stdOut, listing)
}
