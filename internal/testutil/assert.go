package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// AssertFileExists fails the test if the file does not exist.
func (g *TestGarden) AssertFileExists(relPath string) {
	g.t.Helper()
	if _, err := os.Stat(filepath.Join(g.Path, relPath)); os.IsNotExist(err) {
		g.t.Errorf("expected file to exist: %s", relPath)
	}
}

// AssertFileNotExists fails the test if the file exists.
func (g *TestGarden) AssertFileNotExists(relPath string) {
	g.t.Helper()
	if _, err := os.Stat(filepath.Join(g.Path, relPath)); err == nil {
		g.t.Errorf("expected file to not exist: %s", relPath)
	}
}

// AssertFileContains fails the test if the file does not contain the substring.
func (g *TestGarden) AssertFileContains(relPath, substr string) {
	g.t.Helper()
	content := g.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		g.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertFileNotContains fails the test if the file contains the substring.
func (g *TestGarden) AssertFileNotContains(relPath, substr string) {
	g.t.Helper()
	content := g.ReadFile(relPath)
	if strings.Contains(content, substr) {
		g.t.Errorf("expected file %s to not contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertDoc fails the test unless the top-level document id.md has exactly want as content.
func (g *TestGarden) AssertDoc(id, want string) {
	g.t.Helper()
	if got := g.ReadDoc(id); got != want {
		g.t.Errorf("document %s = %q, want %q", id, got, want)
	}
}

// AssertUnchanged fails the test if any markdown file differs from before.
func (g *TestGarden) AssertUnchanged(before map[string]string) {
	g.t.Helper()
	after := g.Snapshot()
	if len(after) != len(before) {
		g.t.Errorf("garden has %d documents, want %d", len(after), len(before))
	}
	for path, content := range before {
		got, ok := after[path]
		if !ok {
			g.t.Errorf("document %s disappeared", path)
			continue
		}
		if got != content {
			g.t.Errorf("document %s changed: %q -> %q", path, content, got)
		}
	}
}

// AssertHasWarning checks that the result contains a warning with the given code.
func (r *CLIResult) AssertHasWarning(t *testing.T, code string) {
	t.Helper()
	for _, w := range r.Warnings {
		if w.Code == code {
			return
		}
	}
	t.Errorf("expected warning with code %s, got warnings: %+v", code, r.Warnings)
}

// AssertResultCount checks that a list in the result data has the expected length.
func (r *CLIResult) AssertResultCount(t *testing.T, key string, expected int) {
	t.Helper()
	results := r.DataList(key)
	if len(results) != expected {
		t.Errorf("expected %d %s, got %d\nRaw: %s", expected, key, len(results), r.RawJSON)
	}
}
