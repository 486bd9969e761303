// Package vault loads a garden directory into an in-memory corpus of documents.
package vault

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// Ext is the file extension of garden documents.
const Ext = ".md"

// Document is a single markdown file in the garden.
type Document struct {
	// ID is the base name with the extension stripped.
	ID string
	// Path is the absolute file path.
	Path string
	// RelPath is slash-separated and relative to the garden root.
	RelPath string
	Content string
	// ReadErr is set when the file could not be read; Content is then empty.
	ReadErr error
}

// Options controls corpus loading.
type Options struct {
	// Ignore holds doublestar patterns matched against slash-separated paths
	// relative to the root. Matching files and directories are skipped.
	Ignore []string
	// Concurrency bounds parallel file reads. Zero means runtime.NumCPU().
	Concurrency int
}

// Corpus is a snapshot of every document in a garden.
type Corpus struct {
	Root string
	// Docs is sorted by RelPath.
	Docs []*Document
	byID map[string][]*Document
}

// DuplicateIDError reports identifiers shared by more than one document.
type DuplicateIDError struct {
	// Paths maps each duplicated id to the relative paths that share it.
	Paths map[string][]string
}

func (e *DuplicateIDError) Error() string {
	ids := make([]string, 0, len(e.Paths))
	for id := range e.Paths {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%q (%s)", id, strings.Join(e.Paths[id], ", ")))
	}
	return "duplicate document ids: " + strings.Join(parts, "; ")
}

// Load walks root and reads every markdown document in it.
//
// Hidden directories (such as .git and .tendr) are skipped. Files that
// cannot be read are still part of the corpus with ReadErr set.
func Load(ctx context.Context, root string, opts *Options) (*Corpus, error) {
	if opts == nil {
		opts = &Options{}
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve garden root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("garden not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("garden root is not a directory: %s", absRoot)
	}

	var docs []*Document
	err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Best-effort: an unreadable directory should not hide the rest.
			if d != nil && d.IsDir() && p != absRoot {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(absRoot, p)
		if relErr != nil {
			return nil //nolint:nilerr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if p == absRoot {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || ignored(opts.Ignore, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(p), Ext) || ignored(opts.Ignore, rel) {
			return nil
		}
		docs = append(docs, &Document{
			ID:      IDFromPath(p),
			Path:    p,
			RelPath: rel,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk garden: %w", err)
	}

	if err := readAll(ctx, docs, opts.Concurrency); err != nil {
		return nil, err
	}
	return NewCorpus(absRoot, docs), nil
}

func readAll(ctx context.Context, docs []*Document, limit int) error {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(doc.Path)
			if err != nil {
				doc.ReadErr = err
				return nil
			}
			doc.Content = string(content)
			return nil
		})
	}
	return g.Wait()
}

func ignored(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// NewCorpus builds a corpus from already-loaded documents.
func NewCorpus(root string, docs []*Document) *Corpus {
	sorted := make([]*Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RelPath < sorted[j].RelPath })

	c := &Corpus{
		Root: root,
		Docs: sorted,
		byID: make(map[string][]*Document, len(sorted)),
	}
	for _, d := range sorted {
		c.byID[d.ID] = append(c.byID[d.ID], d)
	}
	return c
}

// IDFromPath returns the document id for a file path.
func IDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Get returns the document with the given id. When the id is duplicated the
// first document by relative path is returned.
func (c *Corpus) Get(id string) (*Document, bool) {
	docs := c.byID[id]
	if len(docs) == 0 {
		return nil, false
	}
	return docs[0], true
}

// Has reports whether id names a document in the corpus.
func (c *Corpus) Has(id string) bool {
	return len(c.byID[id]) > 0
}

// IDs returns every distinct document id in sorted order.
func (c *Corpus) IDs() []string {
	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Duplicates returns a *DuplicateIDError when two documents share an id.
func (c *Corpus) Duplicates() error {
	dup := &DuplicateIDError{Paths: map[string][]string{}}
	for id, docs := range c.byID {
		if len(docs) < 2 {
			continue
		}
		for _, d := range docs {
			dup.Paths[id] = append(dup.Paths[id], d.RelPath)
		}
	}
	if len(dup.Paths) == 0 {
		return nil
	}
	return dup
}

// Glob returns the documents whose relative path matches a doublestar pattern.
func (c *Corpus) Glob(pattern string) ([]*Document, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %q", pattern)
	}
	var out []*Document
	for _, d := range c.Docs {
		if ok, _ := doublestar.Match(pattern, d.RelPath); ok {
			out = append(out, d)
		}
	}
	return out, nil
}
