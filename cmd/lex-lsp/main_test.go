package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	lex "github.com/BlinfoldKing/lex-lang"
)

// --- helpers ---------------------------------------------------------------

func mustDoc(t *testing.T, src string) *docState {
	t.Helper()
	s := newServer(&bytes.Buffer{})
	doc := &docState{uri: "file:///t.lex", text: src}
	s.analyze(doc)
	return doc
}

// frame encodes one client message the way an editor sends it.
func frame(t *testing.T, method string, id int, params any) string {
	t.Helper()
	msg := map[string]any{"jsonrpc": "2.0", "method": method}
	if id > 0 {
		msg["id"] = id
	}
	if params != nil {
		msg["params"] = params
	}
	var b bytes.Buffer
	if err := writeMsg(&b, msg); err != nil {
		t.Fatal(err)
	}
	return b.String()
}

type wireMsg struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ResponseError  `json:"error,omitempty"`
}

func readAllMsgs(t *testing.T, buf *bytes.Buffer) []wireMsg {
	t.Helper()
	var out []wireMsg
	r := bufio.NewReader(bytes.NewReader(buf.Bytes()))
	for {
		body, err := readMsg(r)
		if err != nil {
			break
		}
		var m wireMsg
		if err := json.Unmarshal(body, &m); err != nil {
			t.Fatalf("bad server message %s: %v", body, err)
		}
		out = append(out, m)
	}
	return out
}

func responseTo(t *testing.T, msgs []wireMsg, id string) wireMsg {
	t.Helper()
	for _, m := range msgs {
		if string(m.ID) == id {
			return m
		}
	}
	t.Fatalf("no response with id %s", id)
	return wireMsg{}
}

func openParams(text string) map[string]any {
	return map[string]any{"textDocument": map[string]any{
		"uri": "file:///t.lex", "languageId": "lex", "version": 1, "text": text,
	}}
}

func posParams(line, char int) map[string]any {
	return map[string]any{
		"textDocument": map[string]any{"uri": "file:///t.lex"},
		"position":     map[string]any{"line": line, "character": char},
	}
}

var docParams = map[string]any{"textDocument": map[string]any{"uri": "file:///t.lex"}}

// --- tests -----------------------------------------------------------------

func TestFramingRoundTrip(t *testing.T) {
	var b bytes.Buffer
	if err := writeMsg(&b, map[string]int{"x": 1}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(b.String(), "Content-Length: 7\r\n\r\n") {
		t.Fatalf("header = %q", b.String())
	}
	body, err := readMsg(bufio.NewReader(&b))
	if err != nil || string(body) != `{"x":1}` {
		t.Fatalf("readMsg = %q, %v", body, err)
	}
}

func TestUTF16Positioning(t *testing.T) {
	text := "(a 🙂 b)\n(c)"
	lines := lineOffsets(text)

	// After the emoji: "(a " is 3 units, the emoji 2 more.
	off := posToOffset(lines, Position{Line: 0, Character: 5}, text)
	if got := text[:off]; got != "(a 🙂" {
		t.Fatalf("posToOffset slice = %q", got)
	}
	if p := offsetToPos(lines, off, text); p.Line != 0 || p.Character != 5 {
		t.Fatalf("offsetToPos = %+v", p)
	}
	if p := offsetToPos(lines, strings.Index(text, "c"), text); p.Line != 1 || p.Character != 1 {
		t.Fatalf("second line = %+v", p)
	}
}

func TestScanTokensAndLists(t *testing.T) {
	toks, lists := scan(`(.print "a b") (x (y))`)
	var texts []string
	for _, tk := range toks {
		texts = append(texts, tk.Text)
	}
	if got := strings.Join(texts, "|"); got != `.print|"a b"|x|y` {
		t.Fatalf("tokens = %s", got)
	}
	if len(lists) != 3 {
		t.Fatalf("lists = %+v", lists)
	}
	if lists[0].Depth != 0 || lists[1].Depth != 0 || lists[2].Depth != 1 {
		t.Fatalf("depths = %+v", lists)
	}
}

func TestParseDiagnosticPosition(t *testing.T) {
	doc := &docState{text: "(a)\n(b#)"}
	doc.lines = lineOffsets(doc.text)
	_, err := lex.ParseProgram(doc.text)
	diags := parseDiagnostics(doc, err)
	if len(diags) != 1 {
		t.Fatalf("diags = %+v", diags)
	}
	d := diags[0]
	if d.Range.Start != (Position{Line: 1, Character: 2}) || d.Range.End != (Position{Line: 1, Character: 3}) {
		t.Fatalf("range = %+v", d.Range)
	}
	if d.Severity != 1 || d.Code != "INVALID_CHARACTER" || d.Source != "lex" {
		t.Fatalf("diag = %+v", d)
	}
}

func TestUnclosedBracketIsQuiet(t *testing.T) {
	doc := mustDoc(t, "(.dec (a b)")
	if doc.parsed {
		t.Fatalf("expected parse failure")
	}
	var out bytes.Buffer
	s := newServer(&out)
	s.analyze(doc)
	msgs := readAllMsgs(t, &out)
	if len(msgs) != 1 || msgs[0].Method != "textDocument/publishDiagnostics" {
		t.Fatalf("msgs = %+v", msgs)
	}
	var p PublishDiagnosticsParams
	_ = json.Unmarshal(msgs[0].Params, &p)
	if len(p.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %+v", p.Diagnostics)
	}
}

func TestUnknownFormWarning(t *testing.T) {
	doc := mustDoc(t, "(.dec (a b))\n(.frob x)")
	diags := formDiagnostics(doc)
	if len(diags) != 1 {
		t.Fatalf("diags = %+v", diags)
	}
	if diags[0].Severity != 2 || diags[0].Code != "UNKNOWN_FORM" {
		t.Fatalf("diag = %+v", diags[0])
	}
	if diags[0].Range.Start != (Position{Line: 1, Character: 1}) {
		t.Fatalf("range = %+v", diags[0].Range)
	}
}

func TestDocumentSymbols(t *testing.T) {
	src := strings.Join([]string{
		`(.dec (parent tom bob))`,
		`(.def (double X) (* X 2))`,
		`(.load "family")`,
		`(.is Who tom)`,
		`(.print (.eval (parent X bob)))`,
	}, "\n")
	syms := documentSymbols(mustDoc(t, src))
	if len(syms) != 4 {
		t.Fatalf("symbols = %+v", syms)
	}
	want := []struct {
		name string
		kind int
	}{
		{"(parent tom bob)", symbolConstant},
		{"(double X)", symbolFunction},
		{"family", symbolModule},
		{"Who", symbolVariable},
	}
	for i, w := range want {
		if syms[i].Name != w.name || syms[i].Kind != w.kind {
			t.Fatalf("symbol %d = %+v, want %s/%d", i, syms[i], w.name, w.kind)
		}
		if syms[i].Range.Start.Line != i {
			t.Fatalf("symbol %d on line %d", i, syms[i].Range.Start.Line)
		}
	}
}

func TestFoldingRanges(t *testing.T) {
	doc := mustDoc(t, "(.dec\n  (a b))\n(c)")
	fr := foldingRanges(doc)
	if len(fr) != 1 || fr[0].StartLine != 0 || fr[0].EndLine != 1 {
		t.Fatalf("folding = %+v", fr)
	}
}

func TestCompletionItems(t *testing.T) {
	items := completionItems(".de")
	var labels []string
	for _, it := range items {
		labels = append(labels, it.Label)
	}
	if got := strings.Join(labels, ","); got != ".declare,.dec,.def" {
		t.Fatalf("labels = %s", got)
	}
	for _, it := range completionItems("") {
		if it.Label == "**" {
			return
		}
	}
	t.Fatalf("operators missing from empty-prefix completion")
}

func TestFormatProgram(t *testing.T) {
	doc := mustDoc(t, "(.dec   (a   b))  (.print 1)")
	if !doc.parsed {
		t.Fatalf("expected a parsed document")
	}
	if got := formatProgram(doc.prog); got != "( .dec \n  ( a b ) )\n( .print 1 )\n" {
		t.Fatalf("format = %q", got)
	}
}

func TestServeSession(t *testing.T) {
	var in strings.Builder
	in.WriteString(frame(t, "initialize", 1, map[string]any{}))
	in.WriteString(frame(t, "textDocument/didOpen", 0, openParams("(.dec (a b))\n(.print 1)")))
	in.WriteString(frame(t, "textDocument/hover", 2, posParams(0, 2)))
	in.WriteString(frame(t, "textDocument/didChange", 0, map[string]any{
		"textDocument": map[string]any{"uri": "file:///t.lex"},
		"contentChanges": []map[string]any{{
			"range": map[string]any{
				"start": map[string]any{"line": 1, "character": 8},
				"end":   map[string]any{"line": 1, "character": 9},
			},
			"text": "#",
		}},
	}))
	in.WriteString(frame(t, "textDocument/formatting", 3, docParams))
	in.WriteString(frame(t, "workspace/symbol", 4, map[string]any{}))
	in.WriteString(frame(t, "shutdown", 5, nil))
	in.WriteString(frame(t, "exit", 0, nil))

	var out, errw bytes.Buffer
	serve(strings.NewReader(in.String()), &out, &errw)
	msgs := readAllMsgs(t, &out)

	var init InitializeResult
	_ = json.Unmarshal(responseTo(t, msgs, "1").Result, &init)
	if !init.Capabilities.HoverProvider || init.Capabilities.TextDocumentSync.Change != 2 {
		t.Fatalf("capabilities = %+v", init.Capabilities)
	}

	var hover Hover
	_ = json.Unmarshal(responseTo(t, msgs, "2").Result, &hover)
	if !strings.Contains(hover.Contents.Value, "(.dec fact)") {
		t.Fatalf("hover = %q", hover.Contents.Value)
	}

	// The edit turned "1" into "#": the last diagnostics report it.
	var last PublishDiagnosticsParams
	for _, m := range msgs {
		if m.Method == "textDocument/publishDiagnostics" {
			_ = json.Unmarshal(m.Params, &last)
		}
	}
	if len(last.Diagnostics) != 1 || last.Diagnostics[0].Range.Start != (Position{Line: 1, Character: 8}) {
		t.Fatalf("diagnostics = %+v", last.Diagnostics)
	}

	// A document that does not parse gets no edits.
	if got := string(responseTo(t, msgs, "3").Result); got != "[]" {
		t.Fatalf("formatting = %s", got)
	}
	if e := responseTo(t, msgs, "4").Error; e == nil || e.Code != -32601 {
		t.Fatalf("unknown method error = %+v", e)
	}
	if got := string(responseTo(t, msgs, "5").Result); got != "null" {
		t.Fatalf("shutdown = %s", got)
	}
}
