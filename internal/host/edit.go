package host

import (
	"sort"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// EditsByURI flattens a workspace edit into text edits per URI. Both the
// changes map and text document edits in documentChanges are collected;
// resource operations are ignored.
func EditsByURI(edit protocol.WorkspaceEdit) map[string][]protocol.TextEdit {
	out := map[string][]protocol.TextEdit{}
	for uri, edits := range edit.Changes {
		out[string(uri)] = append(out[string(uri)], edits...)
	}
	for _, change := range edit.DocumentChanges {
		var tde protocol.TextDocumentEdit
		switch c := change.(type) {
		case protocol.TextDocumentEdit:
			tde = c
		case *protocol.TextDocumentEdit:
			tde = *c
		default:
			continue
		}
		uri := string(tde.TextDocument.URI)
		for _, e := range tde.Edits {
			switch te := e.(type) {
			case protocol.TextEdit:
				out[uri] = append(out[uri], te)
			case *protocol.TextEdit:
				out[uri] = append(out[uri], *te)
			case protocol.AnnotatedTextEdit:
				out[uri] = append(out[uri], te.TextEdit)
			}
		}
	}
	return out
}

// EditedURIs lists the URIs touched by edit in sorted order.
func EditedURIs(edit protocol.WorkspaceEdit) []string {
	byURI := EditsByURI(edit)
	uris := make([]string, 0, len(byURI))
	for uri := range byURI {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}
