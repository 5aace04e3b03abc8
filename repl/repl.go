// Package repl SPDX-License-Identifier: Apache-2.0
// Package repl reads Sara source a line at a time, runs the front half of
// the compiler and echoes the decorated AST or the diagnostics.
package repl

import (
	"bufio"
	"fmt"
	"io"

	"sara/internal/ast"
	"sara/internal/driver"
	"sara/internal/errors"
)

const PROMPT = ">> "

func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, PROMPT)
		if !scanner.Scan() {
			return
		}

		line := scanner.Text()
		if line == "" {
			continue
		}

		bag := errors.NewBag(errors.Config{Mode: errors.Collect})
		unit := driver.Analyze(line, bag)

		if bag.HasErrors() {
			reporter := errors.NewReporter("repl", line)
			for _, diag := range bag.All() {
				fmt.Fprint(out, reporter.Format(diag))
			}
			continue
		}

		fmt.Fprintf(out, "AST:\n%s\n", ast.Print(unit))
	}
}
