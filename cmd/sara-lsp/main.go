// SPDX-License-Identifier: Apache-2.0
package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
	"sara/internal/lsp"
)

const lsName = "sara"

var (
	version = "0.0.1"
	handler protocol.Handler
)

func main() {
	// 1 = debug level, nil = default backend.
	commonlog.Configure(1, nil)

	saraHandler := lsp.NewSaraHandler()

	handler = protocol.Handler{
		Initialize:             saraHandler.Initialize,
		Initialized:            saraHandler.Initialized,
		Shutdown:               saraHandler.Shutdown,
		SetTrace:               saraHandler.SetTrace,
		TextDocumentDidOpen:    saraHandler.TextDocumentDidOpen,
		TextDocumentDidClose:   saraHandler.TextDocumentDidClose,
		TextDocumentDidChange:  saraHandler.TextDocumentDidChange,
		TextDocumentCompletion: saraHandler.TextDocumentCompletion,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Printf("Starting Sara LSP server %s...", version)

	// Editors talk to the server over stdio.
	if err := s.RunStdio(); err != nil {
		log.Println("Error starting Sara LSP server:", err)
		os.Exit(1)
	}
}
