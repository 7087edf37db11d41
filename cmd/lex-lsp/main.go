// cmd/lex-lsp/main.go
//
// ROLE: Executable entrypoint and JSON-RPC dispatch loop. No language
// features live here; see features.go and core.go.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

func main() {
	serve(os.Stdin, os.Stdout, os.Stderr)
}

// serve runs the read loop until exit or end of input.
func serve(r io.Reader, w, errw io.Writer) {
	s := newServer(w)
	in := bufio.NewReader(r)

	for {
		msgBytes, err := readMsg(in)
		if err != nil {
			if err != io.EOF {
				fmt.Fprintln(errw, "read error:", err)
			}
			return
		}

		var req Request
		if err := json.Unmarshal(msgBytes, &req); err != nil {
			// Malformed JSON is ignored.
			continue
		}

		switch req.Method {
		case "initialize":
			s.onInitialize(req.ID, req.Params)
		case "initialized":
		case "shutdown":
			s.sendResponse(req.ID, nil, nil)
		case "exit":
			return

		case "textDocument/didOpen":
			s.onDidOpen(req.Params)
		case "textDocument/didChange":
			s.onDidChange(req.Params)
		case "textDocument/didClose":
			s.onDidClose(req.Params)

		case "textDocument/hover":
			s.onHover(req.ID, req.Params)
		case "textDocument/completion":
			s.onCompletion(req.ID, req.Params)
		case "textDocument/documentSymbol":
			s.onDocumentSymbols(req.ID, req.Params)
		case "textDocument/foldingRange":
			s.onFoldingRange(req.ID, req.Params)
		case "textDocument/formatting":
			s.onFormatting(req.ID, req.Params)

		default:
			// Requests need an answer; notifications do not.
			if len(req.ID) > 0 {
				s.sendResponse(req.ID, nil, &ResponseError{Code: -32601, Message: "method not found: " + req.Method})
			}
		}
	}
}
