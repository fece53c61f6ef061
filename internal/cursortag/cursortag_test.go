package cursortag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/host"
)

func at(line, char int) protocol.Position {
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(char)}
}

func TestNewTagFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tag, err := NewTag()
		if err != nil {
			t.Fatalf("NewTag() error = %v", err)
		}
		if !IsTag(tag) {
			t.Fatalf("NewTag() = %q, not a tag", tag)
		}
		if seen[tag] {
			t.Fatalf("duplicate tag %q", tag)
		}
		seen[tag] = true
	}
}

func TestRegistryEvictsLeastRecentlyUsed(t *testing.T) {
	r := New(2, 0)
	a, _ := r.Mint("file:///a", at(1, 1))
	b, _ := r.Mint("file:///b", at(2, 2))

	if _, ok := r.Lookup(a); !ok {
		t.Fatal("tag a should be present")
	}
	c, _ := r.Mint("file:///c", at(3, 3))

	if _, ok := r.Lookup(b); ok {
		t.Error("tag b should have been evicted")
	}
	if _, ok := r.Lookup(a); !ok {
		t.Error("recently used tag a should survive")
	}
	if e, ok := r.Lookup(c); !ok || e.URI != "file:///c" {
		t.Errorf("Lookup(c) = %+v, %v", e, ok)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestRegistryExpires(t *testing.T) {
	r := New(10, 20*time.Millisecond)
	tag, _ := r.Mint("file:///a", at(0, 0))
	time.Sleep(60 * time.Millisecond)
	if _, ok := r.Lookup(tag); ok {
		t.Error("tag should have expired")
	}
}

func TestCapture(t *testing.T) {
	doc := &host.Document{Text: "l0\nl1\nl2 x\nl3\nl4\nl5\nl6\nl7"}

	w := Capture(doc, at(2, 2), 3, 3, "<T>")
	if w.StartLine != 0 || w.EndLine != 5 {
		t.Errorf("window = %d..%d, want 0..5", w.StartLine, w.EndLine)
	}
	want := "l0\nl1\nl2<T> x\nl3\nl4\nl5"
	if w.Content != want {
		t.Errorf("Content = %q, want %q", w.Content, want)
	}

	w = Capture(doc, at(7, 2), -1, 5, "<T>")
	if w.StartLine != 7 || w.EndLine != 7 || w.Content != "l7<T>" {
		t.Errorf("clamped window = %+v", w)
	}
}

func TestClamp(t *testing.T) {
	doc := &host.Document{Text: "abc\nxy\n"}
	tests := []struct {
		in, want protocol.Position
	}{
		{at(0, 1), at(0, 1)},
		{at(0, 9), at(0, 3)},
		{at(1, 2), at(1, 2)},
		{at(7, 4), at(2, 0)},
	}
	for _, tt := range tests {
		if got := Clamp(doc, tt.in); got != tt.want {
			t.Errorf("Clamp(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestLocateStrategies(t *testing.T) {
	doc := &host.Document{Text: "foo bar\nbar baz\n<cursor-abcdefghij> here"}
	explicit := at(0, 2)
	search := "bar"

	tests := []struct {
		name    string
		hit     *Entry
		req     Request
		wantPos protocol.Position
		wantVia string
	}{
		{"registry hit wins", &Entry{Position: at(5, 5)}, Request{Tag: "<cursor-zzzzzzzzzz>", Position: &explicit}, at(5, 5), ViaTag},
		{"explicit position", nil, Request{Position: &explicit, SearchString: &search}, explicit, ViaPosition},
		{"first occurrence", nil, Request{SearchString: &search}, at(0, 4), ViaSearch},
		{"second occurrence", nil, Request{SearchString: &search, Occurrence: 2}, at(1, 0), ViaSearch},
		{"literal tag text", nil, Request{Tag: "<cursor-abcdefghij>"}, at(2, 0), ViaTagText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, via, err := Locate(context.Background(), doc, tt.hit, tt.req)
			if err != nil {
				t.Fatalf("Locate() error = %v", err)
			}
			if pos != tt.wantPos || via != tt.wantVia {
				t.Errorf("Locate() = %v via %q, want %v via %q", pos, via, tt.wantPos, tt.wantVia)
			}
		})
	}
}

func TestLocateNotFound(t *testing.T) {
	doc := &host.Document{Text: "nothing to see"}
	missing := "absent"

	_, via, err := Locate(context.Background(), doc, nil, Request{SearchString: &missing, Occurrence: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Locate() error = %v, want ErrNotFound", err)
	}
	if via != ViaSearch {
		t.Errorf("via = %q, want search", via)
	}

	_, via, _ = Locate(context.Background(), doc, nil, Request{Tag: "<cursor-0000000000>"})
	if via != ViaTag {
		t.Errorf("via = %q, want tag", via)
	}
}

func TestMintThenLocateSurvivesUnrelatedEdits(t *testing.T) {
	r := New(0, 0)
	doc := &host.Document{URI: "file:///d.go", Text: "a\nb\nc"}
	tag, _ := r.Mint(doc.URI, at(2, 1))

	doc.Text = strings.Replace(doc.Text, "a", "aaaa", 1)
	e, ok := r.Lookup(tag)
	if !ok {
		t.Fatal("tag missing")
	}
	pos, via, err := Locate(context.Background(), doc, &e, Request{Tag: tag})
	if err != nil || pos != at(2, 1) || via != ViaTag {
		t.Errorf("Locate() = %v %q %v", pos, via, err)
	}
}
