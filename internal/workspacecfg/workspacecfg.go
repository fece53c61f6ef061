// Package workspacecfg edits run configurations (.vscode/launch.json) and
// build tasks (.vscode/tasks.json) of a workspace folder.
//
// Records keep their key order and unknown fields. A file that does not
// exist or does not parse reads as empty. When the file is open in the editor
// the buffer is edited in place, and saved only when it was clean.
package workspacecfg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/bifrost-mcp/bifrost/internal/host"
)

var log = commonlog.GetLogger("bifrost.workspacecfg")

// Record is one configuration or task.
type Record = *orderedmap.OrderedMap[string, any]

// Kind describes one of the two managed files.
type Kind struct {
	// Path is relative to the workspace folder.
	Path string
	// List is the top-level key holding the records.
	List string
	// Key identifies a record within the list.
	Key string
	// Version is written when the file is created.
	Version string
}

var (
	// Launch is .vscode/launch.json keyed by configuration name.
	Launch = Kind{Path: ".vscode/launch.json", List: "configurations", Key: "name", Version: "0.2.0"}
	// Tasks is .vscode/tasks.json keyed by task label.
	Tasks = Kind{Path: ".vscode/tasks.json", List: "tasks", Key: "label", Version: "2.0.0"}
)

// Store reads and writes the managed files through the workspace.
type Store struct {
	ws host.Workspace
}

// New returns a Store backed by ws.
func New(ws host.Workspace) *Store {
	return &Store{ws: ws}
}

// NewRecord builds a record from decoded JSON, keeping key order when the
// source is raw JSON.
func NewRecord(v any) (Record, error) {
	raw, ok := v.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(v); err != nil {
			return nil, err
		}
	}
	rec := orderedmap.New[string, any]()
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("record must be a JSON object: %w", err)
	}
	return rec, nil
}

// ID returns the identifying field of rec, or "".
func (k Kind) ID(rec Record) string {
	v, _ := rec.Get(k.Key)
	s, _ := v.(string)
	return s
}

func (s *Store) target(folder string, k Kind) string {
	return host.JoinURI(folder, k.Path)
}

// document is the whole file with raw values so unrelated keys survive.
type document = *orderedmap.OrderedMap[string, json.RawMessage]

func (s *Store) read(ctx context.Context, folder string, k Kind) document {
	uri := s.target(folder, k)
	var content []byte
	if doc, ok := s.ws.Buffer(uri); ok {
		content = []byte(doc.Text)
	} else {
		data, err := s.ws.ReadFile(ctx, uri)
		if err != nil {
			return nil
		}
		content = data
	}
	d := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(content, d); err != nil {
		log.Warningf("%s does not parse, treating as empty: %s", k.Path, err)
		return nil
	}
	return d
}

// List returns the records of k in folder.
func (s *Store) List(ctx context.Context, folder string, k Kind) []Record {
	d := s.read(ctx, folder, k)
	if d == nil {
		return []Record{}
	}
	raw, ok := d.Get(k.List)
	if !ok {
		return []Record{}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []Record{}
	}
	out := make([]Record, 0, len(items))
	for _, item := range items {
		rec, err := NewRecord(item)
		if err != nil {
			log.Debugf("%s: skipping non-object entry", k.Path)
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Save replaces the records of k in folder, creating the file when needed.
func (s *Store) Save(ctx context.Context, folder string, k Kind, records []Record) error {
	d := s.read(ctx, folder, k)
	if d == nil {
		d = orderedmap.New[string, json.RawMessage]()
		version, _ := json.Marshal(k.Version)
		d.Set("version", version)
	}
	if records == nil {
		records = []Record{}
	}
	list, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", k.List, err)
	}
	d.Set(k.List, list)

	compact, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode %s: %w", k.Path, err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "    "); err != nil {
		return fmt.Errorf("format %s: %w", k.Path, err)
	}
	return s.write(ctx, folder, k, out.String())
}

func (s *Store) write(ctx context.Context, folder string, k Kind, content string) error {
	uri := s.target(folder, k)
	if dir := path.Dir(k.Path); dir != "." {
		if err := s.ws.CreateDirectory(ctx, host.JoinURI(folder, dir)); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	doc, open := s.ws.Buffer(uri)
	if !open {
		if err := s.ws.WriteFile(ctx, uri, []byte(content)); err != nil {
			return fmt.Errorf("write %s: %w", k.Path, err)
		}
		return nil
	}

	edit := protocol.WorkspaceEdit{Changes: map[protocol.DocumentUri][]protocol.TextEdit{
		protocol.DocumentUri(uri): {{Range: doc.FullRange(), NewText: content}},
	}}
	applied, err := s.ws.ApplyEdit(ctx, edit)
	if err != nil {
		return fmt.Errorf("edit %s: %w", k.Path, err)
	}
	if !applied {
		return fmt.Errorf("edit %s: rejected by editor", k.Path)
	}
	if !doc.IsDirty {
		if _, err := s.ws.Save(ctx, uri); err != nil {
			return fmt.Errorf("save %s: %w", k.Path, err)
		}
	}
	return nil
}

// Add appends rec.
func (s *Store) Add(ctx context.Context, folder string, k Kind, rec Record) error {
	records := s.List(ctx, folder, k)
	return s.Save(ctx, folder, k, append(records, rec))
}

// Update shallow-merges partial into the first record whose key is id. It
// reports false when no record matches.
func (s *Store) Update(ctx context.Context, folder string, k Kind, id string, partial Record) (bool, error) {
	records := s.List(ctx, folder, k)
	for _, rec := range records {
		if k.ID(rec) != id {
			continue
		}
		if partial != nil {
			for p := partial.Oldest(); p != nil; p = p.Next() {
				rec.Set(p.Key, p.Value)
			}
		}
		return true, s.Save(ctx, folder, k, records)
	}
	return false, nil
}

// Remove drops every record whose key is id and reports whether any was
// removed. The file is rewritten either way.
func (s *Store) Remove(ctx context.Context, folder string, k Kind, id string) (bool, error) {
	records := s.List(ctx, folder, k)
	kept := make([]Record, 0, len(records))
	for _, rec := range records {
		if k.ID(rec) != id {
			kept = append(kept, rec)
		}
	}
	if err := s.Save(ctx, folder, k, kept); err != nil {
		return false, err
	}
	return len(kept) != len(records), nil
}
