package review

import (
	"context"
	"errors"
	"testing"

	"github.com/bifrost-mcp/bifrost/internal/host/hosttest"
	"github.com/bifrost-mcp/bifrost/internal/lineedit"
)

func TestApplyPatch(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		patch string
		want  string
	}{
		{
			name: "with headers",
			text: "a\nb\nc\n",
			patch: "--- a.txt\n+++ a.txt\n@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n",
			want: "a\nB\nc\n",
		},
		{
			name:  "bare hunk",
			text:  "a\nb\nc\n",
			patch: "@@ -2,1 +2,2 @@\n b\n+b2\n",
			want:  "a\nb\nb2\nc\n",
		},
		{
			name:  "shifted hunk",
			text:  "x\ny\na\nb\nc\n",
			patch: "@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n",
			want:  "x\ny\na\nB\nc\n",
		},
		{
			name:  "drops final newline",
			text:  "a\nb\n",
			patch: "@@ -1,2 +1,2 @@\n a\n-b\n+c\n\\ No newline at end of file\n",
			want:  "a\nc",
		},
		{
			name:  "adds final newline",
			text:  "a\nb",
			patch: "@@ -1,2 +1,2 @@\n a\n-b\n\\ No newline at end of file\n+b\n",
			want:  "a\nb\n",
		},
		{
			name:  "into empty file",
			text:  "",
			patch: "@@ -0,0 +1,2 @@\n+one\n+two\n",
			want:  "one\ntwo\n",
		},
		{
			name:  "two hunks",
			text:  "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n",
			patch: "@@ -1,2 +1,3 @@\n 1\n+1.5\n 2\n@@ -9,2 +10,1 @@\n 9\n-10\n",
			want:  "1\n1.5\n2\n3\n4\n5\n6\n7\n8\n9\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyPatch(tt.text, tt.patch)
			if err != nil {
				t.Fatalf("ApplyPatch() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ApplyPatch() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyPatchMismatch(t *testing.T) {
	_, err := ApplyPatch("a\nb\n", "@@ -1,2 +1,2 @@\n a\n-zzz\n+y\n")
	if !errors.Is(err, ErrHunkMismatch) {
		t.Errorf("ApplyPatch() error = %v, want ErrHunkMismatch", err)
	}
}

func TestApplyPatchOfGeneratedDiff(t *testing.T) {
	before := "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"
	after := "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n"
	patch, err := lineedit.UnifiedDiff("main.go", before, after)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ApplyPatch(before, patch)
	if err != nil {
		t.Fatalf("ApplyPatch() error = %v\n%s", err, patch)
	}
	if got != after {
		t.Errorf("ApplyPatch() = %q, want %q", got, after)
	}
}

func TestManagerQueueAndAccept(t *testing.T) {
	fake := hosttest.New("/work")
	uri := fake.Workspace.AddFile("/work/pkg/a.txt", "a\nb\n")
	m := New(fake.Workspace, fake.Window)
	ctx := context.Background()

	if err := m.Queue(ctx, uri, "@@ -1,2 +1,2 @@\n a\n-b\n+first\n"); err != nil {
		t.Fatalf("Queue() error = %v", err)
	}
	if err := m.Queue(ctx, uri, "@@ -1,2 +1,2 @@\n a\n-b\n+second\n"); err != nil {
		t.Fatalf("Queue() error = %v", err)
	}
	if m.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1 (last write wins)", m.Pending())
	}
	if len(fake.Window.Diffs) != 2 || fake.Window.Diffs[1].Title != "Patch Preview: pkg/a.txt" {
		t.Errorf("previews = %+v", fake.Window.Diffs)
	}
	if disk, _ := fake.Workspace.Disk("/work/pkg/a.txt"); disk != "a\nb\n" {
		t.Errorf("queueing must not touch the document, disk = %q", disk)
	}

	n, err := m.AcceptAll(ctx)
	if err != nil || n != 1 {
		t.Fatalf("AcceptAll() = %d, %v", n, err)
	}
	if disk, _ := fake.Workspace.Disk("/work/pkg/a.txt"); disk != "a\nsecond\n" {
		t.Errorf("disk = %q", disk)
	}
	if m.Pending() != 0 {
		t.Errorf("Pending() = %d after accept", m.Pending())
	}
}

func TestManagerRejectAndOpenAll(t *testing.T) {
	fake := hosttest.New("/work")
	a := fake.Workspace.AddFile("/work/a.txt", "a\n")
	b := fake.Workspace.AddFile("/work/b.txt", "b\n")
	m := New(fake.Workspace, fake.Window)
	ctx := context.Background()

	for _, uri := range []string{a, b} {
		if err := m.Queue(ctx, uri, "@@ -1,1 +1,1 @@\n-"+uri[len(uri)-5:len(uri)-4]+"\n+z\n"); err != nil {
			t.Fatalf("Queue(%s) error = %v", uri, err)
		}
	}
	if got := m.OpenAll(ctx); got != 2 {
		t.Errorf("OpenAll() = %d, want 2", got)
	}
	list := m.List()
	if len(list) != 2 || list[0].URI != a || list[1].URI != b {
		t.Errorf("List() = %+v", list)
	}
	if got := m.RejectAll(); got != 2 {
		t.Errorf("RejectAll() = %d, want 2", got)
	}
	if m.Pending() != 0 {
		t.Error("queue should be empty")
	}
}

func TestManagerQueueFailureKeepsQueue(t *testing.T) {
	fake := hosttest.New("/work")
	uri := fake.Workspace.AddFile("/work/a.txt", "a\n")
	m := New(fake.Workspace, fake.Window)

	if err := m.Queue(context.Background(), uri, "@@ -1,1 +1,1 @@\n-nope\n+x\n"); err == nil {
		t.Fatal("Queue() should fail on mismatch")
	}
	if m.Pending() != 0 || len(fake.Window.Diffs) != 0 {
		t.Error("failed queue must not add a pending patch or preview")
	}
}
