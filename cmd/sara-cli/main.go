// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"sara/internal/ast"
	"sara/internal/driver"
	"sara/internal/errors"
	"sara/internal/mir"
)

const defaultInput = "examples/in.sra"

type options struct {
	debug    bool
	emitMIR  bool
	emitGAS  bool
	emitLL   bool
	optLevel string

	collect   bool
	maxErrors int
	werror    bool
	noWarn    bool
}

func main() {
	// SIGINT aborts with the conventional exit code.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, syscall.SIGINT)
	go func() {
		<-interrupts
		os.Exit(130)
	}()

	os.Exit(run())
}

func run() int {
	opts := options{}
	flag.BoolVar(&opts.debug, "d", false, "print AST, MIR and emitted IR")
	flag.BoolVar(&opts.debug, "debug", false, "print AST, MIR and emitted IR")
	flag.BoolVar(&opts.emitMIR, "mir", false, "write optimized MIR to <stem>.mir and exit")
	flag.BoolVar(&opts.emitGAS, "asm", false, "write GAS assembly to <stem>.s and exit")
	flag.BoolVar(&opts.emitGAS, "gas", false, "write GAS assembly to <stem>.s and exit")
	flag.BoolVar(&opts.emitLL, "ll", false, "write LLVM IR to <stem>.ll and exit")

	var o0, o1, o2, o3, oSize, oTiny bool
	flag.BoolVar(&o0, "O0", false, "no optimization in the downstream compiler")
	flag.BoolVar(&o1, "O1", false, "basic downstream optimization (default)")
	flag.BoolVar(&o2, "O2", false, "more downstream optimization")
	flag.BoolVar(&o3, "O3", false, "maximum downstream optimization")
	flag.BoolVar(&oSize, "Os", false, "downstream optimization for size")
	flag.BoolVar(&oTiny, "Oz", false, "aggressive downstream optimization for size")

	flag.BoolVar(&opts.collect, "collect", false, "collect name/type errors instead of stopping at the first")
	flag.IntVar(&opts.maxErrors, "max-errors", errors.DefaultMaxErrors, "error cap in collecting mode")
	flag.BoolVar(&opts.werror, "Werror", false, "treat warnings as errors")
	flag.BoolVar(&opts.noWarn, "w", false, "suppress warnings")
	flag.Parse()

	opts.optLevel = "-O1"
	switch {
	case o0:
		opts.optLevel = "-O0"
	case o2:
		opts.optLevel = "-O2"
	case o3:
		opts.optLevel = "-O3"
	case oSize:
		opts.optLevel = "-Os"
	case oTiny:
		opts.optLevel = "-Oz"
	}

	input := defaultInput
	if flag.NArg() > 0 {
		input = flag.Arg(0)
	}

	source, err := os.ReadFile(input)
	if err != nil {
		color.Red("failed to read %s: %s", input, err)
		return 1
	}

	mode := errors.Immediate
	if opts.collect {
		mode = errors.Collect
	}
	bag := errors.NewBag(errors.Config{
		Mode:             mode,
		MaxErrors:        opts.maxErrors,
		WarningsAsErrors: opts.werror,
		SuppressWarnings: opts.noWarn,
	})

	result := driver.Compile(string(source), bag)
	reporter := errors.NewReporter(input, string(source))
	fmt.Print(reporter.FormatAll(bag.All()))
	if result == nil || bag.HasErrors() {
		fmt.Println(bag.Summary())
		return 1
	}

	if opts.debug {
		fmt.Println("=== AST ===")
		fmt.Print(ast.Print(result.Unit))
		fmt.Println("=== MIR (before optimization) ===")
		fmt.Print(result.PreOptMIR)
		fmt.Println("=== MIR (after optimization) ===")
		fmt.Print(mir.Print(result.Program))
		fmt.Println("=== LLVM IR ===")
		fmt.Print(result.LLVM())
	}

	stem := strings.TrimSuffix(input, filepath.Ext(input))

	switch {
	case opts.emitMIR:
		return writeArtifact(stem+".mir", result.MIR())
	case opts.emitGAS:
		return writeArtifact(stem+".s", result.GAS())
	case opts.emitLL:
		return writeArtifact(stem+".ll", result.LLVM())
	}

	return compileWithToolchain(stem, result.LLVM(), opts.optLevel, bag)
}

func writeArtifact(path, content string) int {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		color.Red("failed to write %s: %s", path, err)
		return 1
	}
	color.Green("wrote %s", path)
	return 0
}

// compileWithToolchain hands the emitted module to clang. When no toolchain
// is installed the IR is saved next to the source instead.
func compileWithToolchain(stem, llvmIR, optLevel string, bag *errors.Bag) int {
	llPath := stem + ".ll"
	if err := os.WriteFile(llPath, []byte(llvmIR), 0o644); err != nil {
		color.Red("failed to write %s: %s", llPath, err)
		return 1
	}

	clang, err := exec.LookPath("clang")
	if err != nil {
		color.Yellow("clang not found; LLVM IR saved to %s", llPath)
		fmt.Printf("to compile manually: clang %s -o %s %s\n", llPath, stem, optLevel)
		return 0
	}

	cmd := exec.Command(clang, llPath, "-o", stem, optLevel)
	output, err := cmd.CombinedOutput()
	if err != nil {
		color.Red("toolchain failed: %s", err)
		if len(output) > 0 {
			fmt.Print(string(output))
		}
		return 1
	}

	fmt.Println(bag.Summary())
	color.Green("wrote %s", stem)
	return 0
}
