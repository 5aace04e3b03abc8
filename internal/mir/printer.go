package mir

import (
	"fmt"
	"strings"
)

// Print renders a program in the textual MIR form:
//
//	function name(p0, p1):
//	entry:
//	  t0 = const(0)
//	  retval(t0)
func Print(program *Program) string {
	var out strings.Builder
	for i, fn := range program.Functions {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(PrintFunction(fn))
	}
	return out.String()
}

func PrintFunction(fn *Function) string {
	var out strings.Builder
	fmt.Fprintf(&out, "function %s(%s):\n", fn.Name, strings.Join(fn.Params, ", "))
	for _, block := range fn.Blocks {
		fmt.Fprintf(&out, "%s:\n", block.Label)
		for _, instr := range block.Instrs {
			fmt.Fprintf(&out, "  %s\n", instr)
		}
	}
	return out.String()
}
