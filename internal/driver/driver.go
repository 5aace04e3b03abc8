// Package driver orchestrates the pipeline: parse, resolve, type-check,
// DAG-share, lower to MIR, optimize, emit. The CLI and the language server
// both enter through here.
package driver

import (
	"sara/internal/ast"
	"sara/internal/astopt"
	"sara/internal/codegen/gas"
	"sara/internal/codegen/llvm"
	"sara/internal/errors"
	"sara/internal/mir"
	"sara/internal/parser"
	"sara/internal/semantic"
)

// Result carries the artifacts of a successful compilation.
type Result struct {
	Unit      *ast.TranslationUnit
	Program   *mir.Program
	PreOptMIR string
}

// Analyze runs the front half of the pipeline: lexing, parsing, symbol
// resolution and type checking. Diagnostics land in the bag; the returned
// unit is non-nil even when errors were found, so tooling can still inspect
// the partial AST.
func Analyze(source string, bag *errors.Bag) *ast.TranslationUnit {
	unit := parser.ParseSource(source, bag)
	// Lexical and syntax errors accumulate through the parse; the pipeline
	// stops here if any were found.
	if bag.HasErrors() {
		return unit
	}
	semantic.NewResolver(bag).Resolve(unit)
	if bag.HasErrors() {
		return unit
	}
	semantic.NewTypeChecker(bag).Check(unit)
	return unit
}

// Compile runs the whole pipeline. It returns nil when diagnostics stopped
// compilation; the bag holds the reasons.
func Compile(source string, bag *errors.Bag) *Result {
	unit := Analyze(source, bag)
	if bag.HasErrors() {
		return nil
	}

	astopt.Optimize(unit)
	program := mir.Build(unit)
	preOpt := mir.Print(program)
	mir.NewOptimizer().OptimizeProgram(program)

	return &Result{
		Unit:      unit,
		Program:   program,
		PreOptMIR: preOpt,
	}
}

// MIR renders the optimized MIR in its textual form.
func (r *Result) MIR() string {
	return mir.Print(r.Program)
}

// LLVM renders the program as a textual LLVM module.
func (r *Result) LLVM() string {
	return llvm.Emit(r.Program)
}

// GAS renders the program as x86-64 assembly.
func (r *Result) GAS() string {
	return gas.Emit(r.Program)
}
