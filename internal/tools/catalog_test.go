package tools

import (
	"encoding/json"
	"testing"
)

func TestCatalogCoversEveryName(t *testing.T) {
	cat := Catalog()
	if len(cat) != 87 {
		t.Fatalf("len(Catalog()) = %d, want 87", len(cat))
	}
	seen := map[Name]bool{}
	for _, d := range cat {
		if seen[d.Name] {
			t.Errorf("duplicate %s", d.Name)
		}
		seen[d.Name] = true
		if d.Description == "" {
			t.Errorf("%s has no description", d.Name)
		}
		if d.NewArgs() == nil {
			t.Errorf("%s has no argument type", d.Name)
		}
	}
	if len(Names()) != len(cat) {
		t.Errorf("Names() = %d entries", len(Names()))
	}
}

func TestInputSchemas(t *testing.T) {
	for _, d := range Catalog() {
		var s struct {
			Type       string                     `json:"type"`
			Properties map[string]json.RawMessage `json:"properties"`
			Required   []string                   `json:"required"`
			Schema     string                     `json:"$schema"`
		}
		if err := json.Unmarshal(d.InputSchema(), &s); err != nil {
			t.Errorf("%s: schema is not JSON: %v", d.Name, err)
			continue
		}
		if s.Type != "object" {
			t.Errorf("%s: type = %q", d.Name, s.Type)
		}
		if s.Schema != "" {
			t.Errorf("%s: unexpected $schema %q", d.Name, s.Schema)
		}
	}
}

func TestRequiredFields(t *testing.T) {
	tests := []struct {
		name Name
		want []string
	}{
		{Rename, []string{"textDocument", "position", "newName"}},
		{RunTerminalCommand, []string{"command"}},
		{SearchRegex, []string{"query"}},
		{AddBuildTask, []string{"task"}},
		{PromptUserChoice, []string{"message", "choices"}},
	}
	for _, tt := range tests {
		d, ok := Lookup(tt.name)
		if !ok {
			t.Fatalf("Lookup(%s) missing", tt.name)
		}
		var s struct {
			Properties map[string]json.RawMessage `json:"properties"`
			Required   []string                   `json:"required"`
		}
		if err := json.Unmarshal(d.InputSchema(), &s); err != nil {
			t.Fatal(err)
		}
		req := map[string]bool{}
		for _, r := range s.Required {
			req[r] = true
		}
		for _, w := range tt.want {
			if !req[w] {
				t.Errorf("%s: %q not required (required = %v)", tt.name, w, s.Required)
			}
			if _, ok := s.Properties[w]; !ok {
				t.Errorf("%s: no property %q", tt.name, w)
			}
		}
	}
}

func TestGatedTools(t *testing.T) {
	for _, n := range []Name{Rename, RunTerminalCommand, RunHostCommand, ApplyPatchReview, DeleteFile, RunBuildTask} {
		if d, _ := Lookup(n); !d.Gated {
			t.Errorf("%s should be gated", n)
		}
	}
	for _, n := range []Name{GetHoverInfo, ListFiles, DebugStatus} {
		if d, _ := Lookup(n); d.Gated {
			t.Errorf("%s should not be gated", n)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, ok := Lookup("no_such_tool"); ok {
		t.Error("Lookup(no_such_tool) found a tool")
	}
}
