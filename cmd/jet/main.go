package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tinystack/jet"
	"github.com/tinystack/jet/internal/version"
	"github.com/tinystack/jet/ir"
	"github.com/tinystack/jet/jit"
	"github.com/tinystack/jet/text"
)

func main() {
	doMain(os.Stdout, os.Stderr, os.Exit)
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer, exit func(code int)) {
	flag.CommandLine.SetOutput(stdErr)

	var help bool
	flag.BoolVar(&help, "h", false, "print usage")

	flag.Parse()

	if help || flag.NArg() == 0 {
		printUsage(stdErr)
		exit(0)
	}

	switch flag.Arg(0) {
	case "run":
		doRun(flag.Args()[1:], stdOut, stdErr, exit)
	case "repl":
		doRepl(flag.Args()[1:], stdOut, stdErr, exit)
	case "version":
		fmt.Fprintln(stdOut, version.GetJetVersion())
		exit(0)
	default:
		fmt.Fprintln(stdErr, "invalid command")
		printUsage(stdErr)
		exit(1)
	}
}

func doRun(args []string, stdOut, stdErr io.Writer, exit func(code int)) {
	flags := flag.NewFlagSet("run", flag.ExitOnError)
	flags.SetOutput(stdErr)

	var help bool
	flags.BoolVar(&help, "h", false, "print usage")

	var programGrammar bool
	flags.BoolVar(&programGrammar, "program", false, "parse the file with the function-block grammar instead of the flat grammar")

	var engine string
	flags.StringVar(&engine, "engine", "auto", "execution engine: auto, jit or vm")

	var printAsm bool
	flags.BoolVar(&printAsm, "print-asm", false, "print the compiled native code before running")

	_ = flags.Parse(args)

	if help {
		printRunUsage(stdErr, flags)
		exit(0)
	}

	if flags.NArg() < 1 {
		fmt.Fprintln(stdErr, "missing path to program file")
		printRunUsage(stdErr, flags)
		exit(1)
	}

	var selected jet.Engine
	switch engine {
	case "auto":
		selected = jet.EngineAuto
	case "jit":
		selected = jet.EngineJIT
	case "vm":
		selected = jet.EngineVM
	default:
		fmt.Fprintf(stdErr, "invalid engine %q\n", engine)
		exit(1)
	}

	parse := text.ParseFlat
	if programGrammar {
		parse = text.ParseProgram
	}
	program, err := parse(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(stdErr, "error parsing program: %v\n", err)
		exit(1)
	}

	if printAsm {
		if err := dumpAssembly(program, stdOut); err != nil {
			fmt.Fprintf(stdErr, "error disassembling program: %v\n", err)
			exit(1)
		}
	}

	config := jet.NewRuntimeConfig().WithEngine(selected).WithOutput(stdOut)
	result, err := jet.Run(program, config)
	if err != nil {
		fmt.Fprintf(stdErr, "error running program: %v\n", err)
		exit(1)
	}
	fmt.Fprintln(stdOut, result)
	exit(0)
}

// dumpAssembly prints the native rendition of the entry function, or a note
// when there is none.
func dumpAssembly(program *ir.Program, stdOut io.Writer) error {
	compiled, err := jit.CompileProgram(program)
	if err != nil {
		return err
	}
	if compiled == nil {
		fmt.Fprintln(stdOut, "(no native rendition; interpreter only)")
		return nil
	}
	defer compiled.Close()

	listing, err := compiled.Disassemble()
	if err != nil {
		return err
	}
	fmt.Fprint(stdOut, listing)
	return nil
}

func printUsage(stdErr io.Writer) {
	fmt.Fprintln(stdErr, "jet CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  jet <command>")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Commands:")
	fmt.Fprintln(stdErr, "  run\t\tRuns a program file")
	fmt.Fprintln(stdErr, "  repl\t\tStarts an interactive session")
	fmt.Fprintln(stdErr, "  version\tDisplays the version of jet CLI")
}

func printRunUsage(stdErr io.Writer, flags *flag.FlagSet) {
	fmt.Fprintln(stdErr, "jet CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  jet run <options> <path to program file>")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Options:")
	flags.PrintDefaults()
}
