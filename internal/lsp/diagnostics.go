package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
	"sara/internal/errors"
)

// ConvertDiagnostics transforms compiler diagnostics into LSP diagnostics
// for IDE display. Positions convert from the compiler's 1-based coordinates
// to the protocol's 0-based ones.
func ConvertDiagnostics(diags []errors.CompilerError) []protocol.Diagnostic {
	var out []protocol.Diagnostic
	for _, d := range diags {
		length := d.Length
		if length < 1 {
			length = 1
		}
		line := uint32(0)
		if d.Position.Line > 0 {
			line = uint32(d.Position.Line - 1)
		}
		col := uint32(0)
		if d.Position.Column > 0 {
			col = uint32(d.Position.Column - 1)
		}

		severity := protocol.DiagnosticSeverityError
		if d.Level == errors.Warning {
			severity = protocol.DiagnosticSeverityWarning
		}
		code := d.Code

		message := d.Message
		for _, s := range d.Suggestions {
			message += "\nsuggestion: " + s
		}

		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: col},
				End:   protocol.Position{Line: line, Character: col + uint32(length)},
			},
			Severity: ptrSeverity(severity),
			Code:     &protocol.IntegerOrString{Value: code},
			Source:   ptrString("sara"),
			Message:  message,
		})
	}
	return out
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
