package ui

import (
	"strings"
	"testing"
)

func TestRenderTree(t *testing.T) {
	root := &TreeItem{
		Label: "i.bonsai",
		Children: []*TreeItem{
			{Label: "fname-a", Children: []*TreeItem{{Label: "fname-b"}}},
			{Label: "fname-c", Children: []*TreeItem{{Label: "fname-d"}}},
		},
	}
	want := "i.bonsai\n" +
		"├── fname-a\n" +
		"│   └── fname-b\n" +
		"└── fname-c\n" +
		"    └── fname-d\n"
	if got := RenderTree(root); got != want {
		t.Errorf("RenderTree() =\n%s\nwant\n%s", got, want)
	}
	if got := RenderTree(nil); got != "" {
		t.Errorf("RenderTree(nil) = %q", got)
	}
}

func TestRenderRefs(t *testing.T) {
	d := NewDisplayContextWithWidth(80)
	out := RenderRefs(d, []RefRow{
		{ID: "fname-b", Type: "reftype", Line: 2},
		{ID: "no-doc", Line: 9, Zombie: true},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "fname-b") || !strings.Contains(lines[0], "reftype") {
		t.Errorf("first row = %q", lines[0])
	}
	if !strings.Contains(lines[1], SymbolZombie+" no-doc") {
		t.Errorf("zombie row = %q", lines[1])
	}
	if RenderRefs(d, nil) != "" {
		t.Error("empty rows rendered output")
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"a-very-long-id", 8, "a-ver..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := TruncateWithEllipsis(tt.in, tt.max); got != tt.want {
			t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestCount(t *testing.T) {
	if got := Count(1, "document", "documents"); got != "(1 document)" {
		t.Errorf("Count(1) = %q", got)
	}
	if got := Count(3, "document", "documents"); got != "(3 documents)" {
		t.Errorf("Count(3) = %q", got)
	}
}
