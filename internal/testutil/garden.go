// Package testutil provides reusable test utilities for tendr package and CLI tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestGarden represents a temporary garden for testing.
type TestGarden struct {
	Path     string
	t        *testing.T
	config   string
	doctypes string
	files    map[string]string
}

// NewTestGarden creates a new test garden builder.
// Call Build() to create the actual garden directory.
func NewTestGarden(t *testing.T) *TestGarden {
	t.Helper()
	return &TestGarden{
		t:     t,
		files: make(map[string]string),
	}
}

// WithConfig sets the config.toml content for the garden.
func (g *TestGarden) WithConfig(toml string) *TestGarden {
	g.config = toml
	return g
}

// WithDoctypes sets the t.doc.toml rule file for the garden.
func (g *TestGarden) WithDoctypes(toml string) *TestGarden {
	g.doctypes = toml
	return g
}

// WithFile adds a file to the garden.
// The path is relative to the garden root.
func (g *TestGarden) WithFile(path, content string) *TestGarden {
	g.files[path] = content
	return g
}

// WithDoc adds a top-level document named id.md.
func (g *TestGarden) WithDoc(id, content string) *TestGarden {
	return g.WithFile(id+".md", content)
}

// WithDocs adds several top-level documents keyed by id.
func (g *TestGarden) WithDocs(docs map[string]string) *TestGarden {
	for id, content := range docs {
		g.WithDoc(id, content)
	}
	return g
}

// Build creates the garden directory and all configured files.
func (g *TestGarden) Build() *TestGarden {
	g.t.Helper()

	g.Path = g.t.TempDir()

	if g.config != "" {
		g.writeFile("config.toml", g.config)
	}
	if g.doctypes != "" {
		g.writeFile("t.doc.toml", g.doctypes)
	}
	for path, content := range g.files {
		g.writeFile(path, content)
	}
	return g
}

func (g *TestGarden) writeFile(relPath, content string) {
	g.t.Helper()
	fullPath := filepath.Join(g.Path, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		g.t.Fatalf("failed to create directory %s: %v", dir, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		g.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
}

// ReadFile reads a file from the garden.
func (g *TestGarden) ReadFile(relPath string) string {
	g.t.Helper()
	fullPath := filepath.Join(g.Path, relPath)
	content, err := os.ReadFile(fullPath)
	if err != nil {
		g.t.Fatalf("failed to read file %s: %v", fullPath, err)
	}
	return string(content)
}

// ReadDoc reads the top-level document id.md.
func (g *TestGarden) ReadDoc(id string) string {
	g.t.Helper()
	return g.ReadFile(id + ".md")
}

// FileExists checks if a file exists in the garden.
func (g *TestGarden) FileExists(relPath string) bool {
	g.t.Helper()
	_, err := os.Stat(filepath.Join(g.Path, relPath))
	return err == nil
}

// Snapshot returns the content of every markdown file keyed by relative path.
func (g *TestGarden) Snapshot() map[string]string {
	g.t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(g.Path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(p) != ".md" {
			return nil
		}
		rel, err := filepath.Rel(g.Path, p)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(content)
		return nil
	})
	if err != nil {
		g.t.Fatalf("failed to snapshot garden: %v", err)
	}
	return out
}

// BonsaiGarden returns a small garden with an index hierarchy, typed
// references and one zombie link.
func BonsaiGarden() map[string]string {
	return map[string]string{
		"i.bonsai": "- [[fname-a]]\n  - [[fname-b]]\n- [[fname-c]]\n",
		"fname-a":  ":reftype::[[fname-b]]\n:attrtype::[[fname-c]]\n\n:linktype::[[fname-d]] and some text\n\n[[fname-e]]\n\n[[no-doc]]\n",
		"fname-b":  "[[fname-a]]\n",
		"fname-c":  ":attrtype::[[fname-a]]\n![[fname-a]]\n",
		"fname-d":  "",
		"fname-e":  "",
	}
}
