package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kristofer/jscore/internal/bytecode"
	"github.com/kristofer/jscore/internal/compiler"
	"github.com/kristofer/jscore/internal/heap"
	"github.com/kristofer/jscore/internal/interner"
	"github.com/kristofer/jscore/internal/parser"
	"github.com/kristofer/jscore/internal/statics"
	"github.com/kristofer/jscore/internal/vm"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		runREPL()
		return
	}

	switch os.Args[1] {
	case "version", "-v", "--version":
		fmt.Printf("jscore version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	case "repl":
		runREPL()
	case "run":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			printUsage()
			os.Exit(1)
		}
		runFile(os.Args[2])
	case "watch":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			fmt.Println("\nUsage: jscore watch <file.js>")
			os.Exit(1)
		}
		watchFile(os.Args[2])
	case "compile":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			fmt.Println("\nUsage: jscore compile <input.js> [output.jsb]")
			os.Exit(1)
		}
		inputFile := os.Args[2]
		outputFile := ""
		if len(os.Args) >= 4 {
			outputFile = os.Args[3]
		}
		compileFile(inputFile, outputFile)
	case "disassemble", "disasm":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			fmt.Println("\nUsage: jscore disassemble <file.jsb>")
			os.Exit(1)
		}
		disassembleFile(os.Args[2])
	default:
		runFile(os.Args[1])
	}
}

func printUsage() {
	fmt.Println("jscore - a small ECMAScript-like bytecode engine")
	fmt.Println("\nUsage:")
	fmt.Println("  jscore                       Start interactive REPL")
	fmt.Println("  jscore [file]                Run a .js or .jsb file")
	fmt.Println("  jscore run [file]            Run a .js or .jsb file")
	fmt.Println("  jscore watch [file]          Re-run a .js file on every save")
	fmt.Println("  jscore compile <in> [out]    Compile .js to .jsb bytecode")
	fmt.Println("  jscore disassemble <file>    Disassemble a .jsb bytecode file")
	fmt.Println("  jscore repl                  Start interactive REPL")
	fmt.Println("  jscore version               Show version")
	fmt.Println("  jscore help                  Show this help")
	fmt.Println("\nFile Extensions:")
	fmt.Println("  .js    Source code files (text)")
	fmt.Println("  .jsb   Compiled bytecode snapshots (binary)")
}

// newVM builds a VM with the global prototype chain and bindings
// installed; every entry point (run, watch, repl) shares this setup.
func newVM() (*vm.VM, *interner.Interner) {
	it := interner.New()
	v := vm.New(heap.New(), it)
	statics.Install(v)
	return v, it
}

func runFile(filename string) {
	ext := filepath.Ext(filename)
	if ext == ".jsb" {
		runBytecodeFile(filename)
		return
	}
	runSourceFile(filename)
}

func runSourceFile(filename string) {
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	v, it := newVM()
	proto, err := compileSource(string(data), it)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compile error: %v\n", err)
		os.Exit(1)
	}

	if _, err := v.Run(proto); err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
		os.Exit(1)
	}
}

func compileSource(src string, it *interner.Interner) (*bytecode.FunctionProto, error) {
	p := parser.New(src)
	program, err := p.Parse()
	if err != nil {
		return nil, err
	}
	return compiler.Compile(program, it)
}

// runBytecodeFile loads a pre-compiled snapshot and runs it directly,
// skipping lexing/parsing/compilation entirely.
func runBytecodeFile(filename string) {
	file, err := os.Open(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	it := interner.New()
	proto, err := bytecode.Decode(file, it)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading bytecode: %v\n", err)
		os.Exit(1)
	}

	v := vm.New(heap.New(), it)
	statics.Install(v)
	if _, err := v.Run(proto); err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
		os.Exit(1)
	}
}

func compileFile(inputFile, outputFile string) {
	if outputFile == "" {
		if filepath.Ext(inputFile) == ".js" {
			outputFile = inputFile[:len(inputFile)-3] + ".jsb"
		} else {
			outputFile = inputFile + ".jsb"
		}
	}

	data, err := os.ReadFile(inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	it := interner.New()
	proto, err := compileSource(string(data), it)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compile error: %v\n", err)
		os.Exit(1)
	}

	outFile, err := os.Create(outputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer outFile.Close()

	if err := bytecode.Encode(outFile, proto, it); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing bytecode: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Compiled %s -> %s\n", inputFile, outputFile)
}

func disassembleFile(filename string) {
	file, err := os.Open(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	it := interner.New()
	proto, err := bytecode.Decode(file, it)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading bytecode: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== Bytecode Disassembly: %s ===\n\n", filename)
	fmt.Printf("Constants Pool:\n")
	if len(proto.Constants) == 0 {
		fmt.Println("  (empty)")
	} else {
		for i, c := range proto.Constants {
			fmt.Printf("  [%d] %s\n", i, formatConstant(c, it))
		}
	}

	fmt.Println("\nInstructions:")
	if len(proto.Instructions) == 0 {
		fmt.Println("  (empty)")
	} else {
		fmt.Print(bytecode.Disassemble(proto, it))
	}
}

func formatConstant(c bytecode.Constant, it *interner.Interner) string {
	switch c.Kind {
	case bytecode.ConstNumber:
		return fmt.Sprintf("number: %v", c.Number)
	case bytecode.ConstBoolean:
		return fmt.Sprintf("boolean: %t", c.Boolean)
	case bytecode.ConstString:
		return fmt.Sprintf("string: %q", it.Lookup(c.Str))
	case bytecode.ConstIdentifier:
		return fmt.Sprintf("ident: %q", it.Lookup(c.Str))
	case bytecode.ConstFunction:
		name := "<anonymous>"
		if c.Function.HasName {
			name = it.Lookup(c.Function.Name)
		}
		return fmt.Sprintf("function: %s (%d params, %d instructions)",
			name, c.Function.ParamCount, len(c.Function.Instructions))
	case bytecode.ConstRegex:
		return fmt.Sprintf("regex: /%s/%s", it.Lookup(c.RegexPattern), it.Lookup(c.RegexFlags))
	default:
		return "unknown"
	}
}

// watchFile re-runs filename every time its modification time changes,
// until interrupted. The watcher and the run loop are two errgroup
// goroutines sharing a cancellation context: Ctrl-C stops the poll
// loop, which lets the group's Wait return instead of the process
// hanging on an unclosed channel.
func watchFile(filename string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	changed := make(chan struct{}, 1)

	eg.Go(func() error {
		return pollForChanges(ctx, filename, changed)
	})
	eg.Go(func() error {
		runFile(filename)
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-changed:
				fmt.Printf("--- %s changed, re-running ---\n", filename)
				runFile(filename)
			}
		}
	})

	if err := eg.Wait(); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
	}
}

func pollForChanges(ctx context.Context, filename string, changed chan<- struct{}) error {
	info, err := os.Stat(filename)
	if err != nil {
		return err
	}
	lastMod := info.ModTime()

	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			info, err := os.Stat(filename)
			if err != nil {
				continue
			}
			if info.ModTime().After(lastMod) {
				lastMod = info.ModTime()
				select {
				case changed <- struct{}{}:
				default:
				}
			}
		}
	}
}

// runREPL starts an interactive read-eval-print loop. Each accepted
// line runs on the same VM and interner, so the global object (and
// anything assigned to it without a declaration) persists across
// inputs. Top-level var/let/const and function declarations are locals
// of their own line's run and do not persist.
func runREPL() {
	fmt.Printf("jscore REPL v%s\n", version)
	fmt.Println("Type ':help' for help, ':quit' or ':exit' to exit")
	fmt.Println()

	v, it := newVM()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case ":quit", ":exit":
			fmt.Println("Goodbye!")
			return
		case ":help":
			printREPLHelp()
			continue
		case "":
			continue
		}

		evalREPL(v, it, line)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
	}
}

func evalREPL(v *vm.VM, it *interner.Interner, input string) {
	proto, err := compileSource(input, it)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	result, err := v.Run(proto)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	if !result.IsUndefined() {
		fmt.Printf("=> %s\n", v.ToJSString(result))
	}
}

func printREPLHelp() {
	fmt.Println("jscore REPL help")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  :help     Show this help message")
	fmt.Println("  :quit     Exit the REPL")
	fmt.Println("  :exit     Exit the REPL")
	fmt.Println()
	fmt.Println("Each line is compiled and run against the same VM, so")
	fmt.Println("globals assigned without a declaration (x = 1) stay visible;")
	fmt.Println("var/let/const and function declarations last for one line only.")
	fmt.Println()
}
