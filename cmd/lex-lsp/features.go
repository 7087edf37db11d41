// cmd/lex-lsp/features.go
//
// ROLE: LSP feature handlers built on the document state from core.go.
//
// Handlers never reduce user code: hover and completion read the static form
// tables exported by the engine, symbols and folding read the bracket scan,
// and formatting re-prints the parsed program.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	lex "github.com/BlinfoldKing/lex-lang"
)

// LSP enum values used below.
const (
	completionKeyword  = 14
	completionOperator = 24

	symbolModule   = 2
	symbolFunction = 12
	symbolVariable = 13
	symbolConstant = 14
)

////////////////////////////////////////////////////////////////////////////////
// Lifecycle & text sync
////////////////////////////////////////////////////////////////////////////////

func (s *server) onInitialize(id json.RawMessage, _ json.RawMessage) {
	result := InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: TextDocumentSyncOptions{
				OpenClose: true,
				Change:    2, // Incremental
			},
			HoverProvider: true,
			CompletionProvider: &struct {
				TriggerCharacters []string `json:"triggerCharacters"`
			}{TriggerCharacters: []string{".", "("}},
			DocumentSymbolProvider:     true,
			DocumentFormattingProvider: true,
			FoldingRangeProvider:       true,
		},
		ServerInfo: map[string]string{"name": "lex-lsp", "version": lex.Version},
	}
	s.sendResponse(id, result, nil)
}

func (s *server) onDidOpen(raw json.RawMessage) {
	var params DidOpenParams
	_ = json.Unmarshal(raw, &params)

	doc := &docState{uri: params.TextDocument.URI, text: params.TextDocument.Text}
	s.mu.Lock()
	s.docs[doc.uri] = doc
	s.analyze(doc)
	s.mu.Unlock()
}

func (s *server) onDidChange(raw json.RawMessage) {
	var params DidChangeParams
	_ = json.Unmarshal(raw, &params)

	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.docs[params.TextDocument.URI]
	if doc == nil || len(params.ContentChanges) == 0 {
		return
	}

	// A full replace makes every other change in the batch moot.
	for _, ch := range params.ContentChanges {
		if ch.Range == nil {
			doc.text = ch.Text
			s.analyze(doc)
			return
		}
	}

	for _, ch := range params.ContentChanges {
		lines := lineOffsets(doc.text)
		start := posToOffset(lines, ch.Range.Start, doc.text)
		end := posToOffset(lines, ch.Range.End, doc.text)
		if end < start {
			start, end = end, start
		}
		var b bytes.Buffer
		b.WriteString(doc.text[:start])
		b.WriteString(ch.Text)
		b.WriteString(doc.text[end:])
		doc.text = b.String()
	}
	s.analyze(doc)
}

func (s *server) onDidClose(raw json.RawMessage) {
	var params DidCloseParams
	_ = json.Unmarshal(raw, &params)

	s.mu.Lock()
	delete(s.docs, params.TextDocument.URI)
	s.mu.Unlock()

	s.notify("textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []Diagnostic{},
	})
}

////////////////////////////////////////////////////////////////////////////////
// Hover
////////////////////////////////////////////////////////////////////////////////

func hoverText(word string) (string, bool) {
	if f, ok := lex.LookupForm(word); ok {
		return fmt.Sprintf("**%s** (form)\n\n`%s`\n\n%s", f.Keyword, f.Usage, f.Doc), true
	}
	if d, ok := lex.OperatorDocs[word]; ok {
		return fmt.Sprintf("**%s** (operator)\n\n%s", word, d), true
	}
	return "", false
}

func (s *server) onHover(id json.RawMessage, raw json.RawMessage) {
	var params TextDocumentPositionParams
	_ = json.Unmarshal(raw, &params)

	doc := s.snapshotDoc(params.TextDocument.URI)
	if doc == nil {
		s.sendResponse(id, nil, nil)
		return
	}
	off := posToOffset(doc.lines, params.Position, doc.text)
	tk, ok := tokenAtOffset(doc, off)
	if !ok || strings.HasPrefix(tk.Text, `"`) {
		s.sendResponse(id, nil, nil)
		return
	}
	content, ok := hoverText(tk.Text)
	if !ok {
		s.sendResponse(id, nil, nil)
		return
	}
	rng := makeRange(doc.lines, tk.Start, tk.End, doc.text)
	s.sendResponse(id, Hover{Contents: MarkupContent{Kind: "markdown", Value: content}, Range: &rng}, nil)
}

////////////////////////////////////////////////////////////////////////////////
// Completion
////////////////////////////////////////////////////////////////////////////////

func completionItems(prefix string) []CompletionItem {
	items := []CompletionItem{}
	for _, f := range lex.Forms {
		if !strings.HasPrefix(f.Keyword, prefix) {
			continue
		}
		items = append(items, CompletionItem{
			Label:         f.Keyword,
			Kind:          completionKeyword,
			Detail:        f.Usage,
			Documentation: &MarkupContent{Kind: "markdown", Value: f.Doc},
		})
	}
	if strings.HasPrefix(prefix, ".") {
		return items
	}
	ops := make([]string, 0, len(lex.OperatorDocs))
	for op := range lex.OperatorDocs {
		if strings.HasPrefix(op, prefix) {
			ops = append(ops, op)
		}
	}
	sort.Strings(ops)
	for _, op := range ops {
		items = append(items, CompletionItem{Label: op, Kind: completionOperator, Detail: lex.OperatorDocs[op]})
	}
	return items
}

func (s *server) onCompletion(id json.RawMessage, raw json.RawMessage) {
	var params TextDocumentPositionParams
	_ = json.Unmarshal(raw, &params)

	prefix := ""
	if doc := s.snapshotDoc(params.TextDocument.URI); doc != nil {
		off := posToOffset(doc.lines, params.Position, doc.text)
		if tk, ok := tokenAtOffset(doc, off); ok && off > tk.Start && !strings.HasPrefix(tk.Text, `"`) {
			prefix = doc.text[tk.Start:off]
		}
	}
	s.sendResponse(id, completionItems(prefix), nil)
}

////////////////////////////////////////////////////////////////////////////////
// Document symbols
////////////////////////////////////////////////////////////////////////////////

// headToken returns the first token directly inside l, if l starts with an
// atom rather than a nested list.
func headToken(doc *docState, l listSpan) (token, bool) {
	for _, t := range doc.toks {
		if t.Start <= l.Start {
			continue
		}
		if t.Start >= l.End {
			break
		}
		if strings.TrimSpace(doc.text[l.Start+1:t.Start]) != "" {
			return token{}, false
		}
		return t, true
	}
	return token{}, false
}

// formAt parses the source of one list on its own.
func formAt(doc *docState, l listSpan) (lex.Term, bool) {
	prog, err := lex.ParseProgram(doc.text[l.Start:l.End])
	if err != nil || len(prog.Items()) != 1 {
		return lex.Unknown, false
	}
	return prog.Items()[0], true
}

func symbolFor(form lex.Term) (name, detail string, kind int, ok bool) {
	xs := form.Items()
	if len(xs) < 2 {
		return "", "", 0, false
	}
	switch xs[0].Text() {
	case ".dec", ".declare":
		return xs[1].String(), "fact", symbolConstant, true
	case ".def":
		if len(xs) != 3 {
			return "", "", 0, false
		}
		return xs[1].String(), "rule", symbolFunction, true
	case ".load":
		return xs[1].Text(), "load", symbolModule, true
	case ".is":
		if len(xs) != 3 || !xs[1].IsVar() {
			return "", "", 0, false
		}
		return xs[1].Text(), "binding", symbolVariable, true
	}
	return "", "", 0, false
}

func documentSymbols(doc *docState) []DocumentSymbol {
	out := []DocumentSymbol{}
	for _, l := range doc.lists {
		head, ok := headToken(doc, l)
		if !ok || !strings.HasPrefix(head.Text, ".") {
			continue
		}
		form, ok := formAt(doc, l)
		if !ok {
			continue
		}
		name, detail, kind, ok := symbolFor(form)
		if !ok {
			continue
		}
		out = append(out, DocumentSymbol{
			Name:           name,
			Detail:         detail,
			Kind:           kind,
			Range:          makeRange(doc.lines, l.Start, l.End, doc.text),
			SelectionRange: makeRange(doc.lines, head.Start, head.End, doc.text),
		})
	}
	return out
}

func (s *server) onDocumentSymbols(id json.RawMessage, raw json.RawMessage) {
	var params DocumentParams
	_ = json.Unmarshal(raw, &params)

	doc := s.snapshotDoc(params.TextDocument.URI)
	if doc == nil {
		s.sendResponse(id, []DocumentSymbol{}, nil)
		return
	}
	s.sendResponse(id, documentSymbols(doc), nil)
}

////////////////////////////////////////////////////////////////////////////////
// Folding
////////////////////////////////////////////////////////////////////////////////

func foldingRanges(doc *docState) []FoldingRange {
	out := []FoldingRange{}
	for _, l := range doc.lists {
		a := offsetToPos(doc.lines, l.Start, doc.text).Line
		b := offsetToPos(doc.lines, l.End-1, doc.text).Line
		if b > a {
			out = append(out, FoldingRange{StartLine: a, EndLine: b})
		}
	}
	return out
}

func (s *server) onFoldingRange(id json.RawMessage, raw json.RawMessage) {
	var params DocumentParams
	_ = json.Unmarshal(raw, &params)

	doc := s.snapshotDoc(params.TextDocument.URI)
	if doc == nil {
		s.sendResponse(id, []FoldingRange{}, nil)
		return
	}
	s.sendResponse(id, foldingRanges(doc), nil)
}

////////////////////////////////////////////////////////////////////////////////
// Formatting
////////////////////////////////////////////////////////////////////////////////

// formatProgram prints each top-level form the way `lex fmt` does.
func formatProgram(prog lex.Term) string {
	var b strings.Builder
	for _, form := range prog.Items() {
		b.WriteString(strings.TrimRight(lex.FormatTerm(form), " "))
		b.WriteByte('\n')
	}
	return b.String()
}

func (s *server) onFormatting(id json.RawMessage, raw json.RawMessage) {
	var params DocumentParams
	_ = json.Unmarshal(raw, &params)

	doc := s.snapshotDoc(params.TextDocument.URI)
	// Nothing to offer for a document that does not parse.
	if doc == nil || !doc.parsed {
		s.sendResponse(id, []TextEdit{}, nil)
		return
	}
	text := formatProgram(doc.prog)
	if text == doc.text {
		s.sendResponse(id, []TextEdit{}, nil)
		return
	}
	s.sendResponse(id, []TextEdit{{
		Range:   makeRange(doc.lines, 0, len(doc.text), doc.text),
		NewText: text,
	}}, nil)
}
