package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"sara/internal/ast"
)

// Level represents the severity of a diagnostic.
type Level string

const (
	Error   Level = "error"
	Warning Level = "warning"
)

// CompilerError is a structured diagnostic with optional suggestions and
// source context.
type CompilerError struct {
	Level       Level
	Code        string // Stable code like E0001
	Message     string
	Position    ast.Position
	Length      int // Width of the marked region, at least 1
	Suggestions []string
	Notes       []string
}

// Reporter renders diagnostics against the source text of one file.
type Reporter struct {
	filename string
	lines    []string
}

func NewReporter(filename, source string) *Reporter {
	return &Reporter{
		filename: filename,
		lines:    strings.Split(source, "\n"),
	}
}

// Format renders a diagnostic with its source line and a column marker:
//
//	E0004: type error: trying to assign different types
//	  at line 3, column 7
//	  context: x = "oops";
//	               ^
//	  suggestion: ...
func (r *Reporter) Format(err CompilerError) string {
	var out strings.Builder

	levelColor := r.levelColor(err.Level)
	dim := color.New(color.Faint).SprintFunc()

	out.WriteString(fmt.Sprintf("%s: %s: %s\n",
		levelColor(err.Code), Category(err.Code), err.Message))
	out.WriteString(fmt.Sprintf("  at line %d, column %d\n",
		err.Position.Line, err.Position.Column))

	if err.Position.Line >= 1 && err.Position.Line <= len(r.lines) {
		line := r.lines[err.Position.Line-1]
		out.WriteString(fmt.Sprintf("  %s %s\n", dim("context:"), line))
		out.WriteString(fmt.Sprintf("           %s\n", r.marker(err)))
	}

	for _, s := range err.Suggestions {
		sug := color.New(color.FgCyan).SprintFunc()
		out.WriteString(fmt.Sprintf("  %s %s\n", sug("suggestion:"), s))
	}
	for _, n := range err.Notes {
		note := color.New(color.FgBlue).SprintFunc()
		out.WriteString(fmt.Sprintf("  %s %s\n", note("note:"), n))
	}

	return out.String()
}

// FormatAll renders a batch of diagnostics, preceded by the file name when
// one is known.
func (r *Reporter) FormatAll(diags []CompilerError) string {
	var out strings.Builder
	if r.filename != "" && len(diags) > 0 {
		out.WriteString(r.filename + ":\n")
	}
	for _, d := range diags {
		out.WriteString(r.Format(d))
	}
	return out.String()
}

func (r *Reporter) marker(err CompilerError) string {
	col := err.Position.Column
	if col < 1 {
		col = 1
	}
	length := err.Length
	if length < 1 {
		length = 1
	}
	pad := strings.Repeat(" ", col-1)
	caret := strings.Repeat("^", length)
	return pad + r.levelColor(err.Level)(caret)
}

func (r *Reporter) levelColor(level Level) func(...interface{}) string {
	if level == Warning {
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	return color.New(color.FgRed, color.Bold).SprintFunc()
}
