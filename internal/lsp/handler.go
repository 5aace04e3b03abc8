package lsp

import (
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"sara/internal/ast"
	"sara/internal/driver"
	"sara/internal/errors"
)

// SaraHandler implements the LSP handlers for the Sara language: it runs
// the front half of the compiler on every edit and publishes the resulting
// diagnostics.
type SaraHandler struct {
	mu      sync.RWMutex
	content map[string]string
	units   map[string]*ast.TranslationUnit
}

func NewSaraHandler() *SaraHandler {
	return &SaraHandler{
		content: make(map[string]string),
		units:   make(map[string]*ast.TranslationUnit),
	}
}

// Initialize advertises the server's capabilities.
func (h *SaraHandler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("LSP Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider: ptrBool(false),
			},
		},
	}, nil
}

func (h *SaraHandler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("Sara LSP Initialized")
	return nil
}

func (h *SaraHandler) Shutdown(ctx *glsp.Context) error {
	log.Println("Sara LSP Shutdown")
	return nil
}

func (h *SaraHandler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

func (h *SaraHandler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Printf("Opened file: %s\n", params.TextDocument.URI)
	h.analyze(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (h *SaraHandler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	for _, change := range params.ContentChanges {
		if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			h.analyze(ctx, params.TextDocument.URI, whole.Text)
		}
	}
	return nil
}

func (h *SaraHandler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)
	delete(h.units, path)
	return nil
}

var keywordCompletions = []string{
	"if", "else", "while", "for", "return",
	"char", "int", "float", "string", "void",
	"print",
}

// TextDocumentCompletion offers the keyword set plus the names of the
// functions defined in the current document; variables and top-level
// declarations are not offered.
func (h *SaraHandler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (interface{}, error) {
	items := make([]protocol.CompletionItem, 0, len(keywordCompletions))
	kindKeyword := protocol.CompletionItemKindKeyword
	for _, kw := range keywordCompletions {
		kw := kw
		items = append(items, protocol.CompletionItem{
			Label: kw,
			Kind:  &kindKeyword,
		})
	}

	path, err := uriToPath(params.TextDocument.URI)
	if err == nil {
		h.mu.RLock()
		unit := h.units[path]
		h.mu.RUnlock()
		if unit != nil {
			kindFunction := protocol.CompletionItemKindFunction
			for _, item := range unit.Units {
				if fn, ok := item.(*ast.FunctionDefinition); ok {
					items = append(items, protocol.CompletionItem{
						Label: fn.Name.Name,
						Kind:  &kindFunction,
					})
				}
			}
		}
	}

	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        items,
	}, nil
}

// analyze runs lexing through type checking on the buffer contents and
// pushes the diagnostics to the editor. The editor wants everything at
// once, so the bag always collects.
func (h *SaraHandler) analyze(ctx *glsp.Context, uri protocol.DocumentUri, source string) {
	bag := errors.NewBag(errors.Config{Mode: errors.Collect})
	unit := driver.Analyze(source, bag)

	if path, err := uriToPath(uri); err == nil {
		h.mu.Lock()
		h.content[path] = source
		h.units[path] = unit
		h.mu.Unlock()
	}

	diagnostics := ConvertDiagnostics(bag.All())
	if diagnostics == nil {
		// An empty publish clears stale squiggles.
		diagnostics = []protocol.Diagnostic{}
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// uriToPath converts a document URI to a platform-local file path.
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
