// Package garden opens a garden directory and exposes the operations the
// CLI runs against it.
//
// A Garden is a snapshot: it is loaded once and used for a single command.
// Cascades write to disk but do not refresh the loaded corpus.
package garden

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aidanlsb/tendr/internal/attrs"
	"github.com/aidanlsb/tendr/internal/cascade"
	"github.com/aidanlsb/tendr/internal/config"
	"github.com/aidanlsb/tendr/internal/doctype"
	"github.com/aidanlsb/tendr/internal/graph"
	"github.com/aidanlsb/tendr/internal/rels"
	"github.com/aidanlsb/tendr/internal/scancache"
	"github.com/aidanlsb/tendr/internal/semtree"
	"github.com/aidanlsb/tendr/internal/vault"
)

// ErrInvalidRules is returned by Open when the doctype rule file cannot be
// loaded or compiled.
var ErrInvalidRules = errors.New("invalid doctype rules")

// IndexDoctype is the doctype that marks hierarchy index documents when no
// index glob is configured.
const IndexDoctype = "index"

// Options controls Open.
type Options struct {
	// Config defaults to config.Default().
	Config *config.Config
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
	// Concurrency bounds parallel reads, scans and writes. Zero means
	// runtime.NumCPU().
	Concurrency int
	// FS overrides the filesystem used by cascades.
	FS cascade.FS
}

// Garden is a loaded garden.
type Garden struct {
	Root     string
	Config   *config.Config
	Corpus   *vault.Corpus
	Doctypes *doctype.Set

	logger      *slog.Logger
	cache       *scancache.Cache
	graph       *graph.Builder
	fs          cascade.FS
	concurrency int
	attributes  map[string]attrs.Attributes
}

// Open loads the garden at root. Duplicate ids do not fail the load; they
// are logged and block cascades later.
func Open(ctx context.Context, root string, opts *Options) (*Garden, error) {
	if opts == nil {
		opts = &Options{}
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	corpus, err := vault.Load(ctx, root, &vault.Options{
		Ignore:      cfg.Garden.Ignore,
		Concurrency: opts.Concurrency,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("garden loaded", "root", corpus.Root, "documents", len(corpus.Docs))
	if err := corpus.Duplicates(); err != nil {
		logger.Warn("garden has duplicate ids", "error", err)
	}

	rulePath := cfg.DoctypePath(corpus.Root)
	rules, err := doctype.Load(rulePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}
	set, err := doctype.Compile(rules, doctype.Options{Alphabet: cfg.ID.Alphabet, Size: cfg.ID.Size})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRules, rulePath, err)
	}
	logger.Debug("doctype rules loaded", "path", rulePath, "rules", len(set.Rules()))

	g := &Garden{
		Root:        corpus.Root,
		Config:      cfg,
		Corpus:      corpus,
		Doctypes:    set,
		logger:      logger,
		fs:          opts.FS,
		concurrency: opts.Concurrency,
		attributes:  map[string]attrs.Attributes{},
	}
	g.graph = graph.New(corpus)
	g.graph.Concurrency = opts.Concurrency

	if cfg.Cache.Enabled {
		path := cfg.CachePath(corpus.Root)
		cache, err := scancache.Open(path, logger)
		if err != nil {
			logger.Warn("scan cache unavailable, scanning without it", "path", path, "error", err)
		} else {
			g.cache = cache
			g.graph.Scanner = cache
		}
	}
	return g, nil
}

// Close prunes the scan cache down to the current corpus and releases it.
func (g *Garden) Close() error {
	if g.cache == nil {
		return nil
	}
	live := make([]string, 0, len(g.Corpus.Docs))
	for _, d := range g.Corpus.Docs {
		if d.ReadErr == nil {
			live = append(live, scancache.Hash(d.Content))
		}
	}
	if n, err := g.cache.Prune(live); err != nil {
		g.logger.Warn("failed to prune scan cache", "error", err)
	} else if stats, err := g.cache.Stats(); err == nil {
		g.logger.Debug("scan cache", "hits", stats.Hits, "misses", stats.Misses, "entries", stats.Entries, "pruned", n)
	}
	err := g.cache.Close()
	g.cache = nil
	return err
}

// Attributes returns the parsed attributes of doc. Unreadable or malformed
// attributes degrade to nil.
func (g *Garden) Attributes(doc *vault.Document) attrs.Attributes {
	if a, ok := g.attributes[doc.RelPath]; ok {
		return a
	}
	var a attrs.Attributes
	if doc.ReadErr != nil {
		g.logger.Debug("document unreadable, no attributes", "path", doc.RelPath, "error", doc.ReadErr)
	} else if parsed, _, err := attrs.Parse(doc.Content); err != nil {
		g.logger.Debug("attributes unparsable, ignoring", "path", doc.RelPath, "error", err)
	} else {
		a = parsed
	}
	g.attributes[doc.RelPath] = a
	return a
}

// Doctype classifies a loaded document.
func (g *Garden) Doctype(doc *vault.Document) string {
	return g.Doctypes.Resolve(doctype.Input{
		ID:         doc.ID,
		RelPath:    doc.RelPath,
		Attributes: g.Attributes(doc),
	})
}

// ResolveDoctype classifies the document with the given id.
func (g *Garden) ResolveDoctype(id string) (string, error) {
	doc, ok := g.Corpus.Get(strings.TrimSuffix(id, vault.Ext))
	if !ok {
		return "", fmt.Errorf("%w: %q", cascade.ErrNotFound, id)
	}
	return g.Doctype(doc), nil
}

// IndexDocs returns the documents that make up the hierarchy: those matching
// the configured index glob, or else those of doctype "index". The root
// document is always included when it exists.
func (g *Garden) IndexDocs() ([]*vault.Document, error) {
	var docs []*vault.Document
	if glob := g.Config.Garden.IndexGlob; glob != "" {
		matched, err := g.Corpus.Glob(glob)
		if err != nil {
			return nil, err
		}
		docs = matched
	} else {
		for _, d := range g.Corpus.Docs {
			if g.Doctype(d) == IndexDoctype {
				docs = append(docs, d)
			}
		}
	}
	if root, ok := g.Corpus.Get(g.Config.Garden.Root); ok {
		found := false
		for _, d := range docs {
			if d == root {
				found = true
				break
			}
		}
		if !found {
			docs = append(docs, root)
		}
	}
	return docs, nil
}

// Tree builds the hierarchy from the index documents.
func (g *Garden) Tree(ctx context.Context) (*semtree.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs, err := g.IndexDocs()
	if err != nil {
		return nil, err
	}
	contents := make(map[string]string, len(docs))
	for _, d := range docs {
		contents[d.ID] = d.Content
	}
	return semtree.Build(g.Config.Garden.Root, contents)
}

// QueryRelationships answers a relationship query for id. kind is one of
// rels.Kinds; empty means "ref". A hierarchy that fails to build is
// reported in the result's family section rather than as an error.
func (g *Garden) QueryRelationships(ctx context.Context, id, kind string) (*rels.Result, error) {
	f, err := rels.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	engine := &rels.Engine{Graph: g.graph, Doctype: g.Doctype}
	if f.Fam() {
		engine.Tree, engine.TreeErr = g.Tree(ctx)
		if engine.TreeErr != nil {
			g.logger.Debug("hierarchy unavailable", "error", engine.TreeErr)
		}
	}
	return engine.Query(ctx, strings.TrimSuffix(id, vault.Ext), f)
}

func (g *Garden) cascade() *cascade.Engine {
	return &cascade.Engine{
		Corpus:      g.Corpus,
		FS:          g.fs,
		Logger:      g.logger,
		Concurrency: g.concurrency,
	}
}

// RenameDocument renames the selected documents and repoints every
// reference to them.
func (g *Garden) RenameDocument(ctx context.Context, selector, replacement string, opts cascade.RenameOptions) (*cascade.Result, error) {
	return g.cascade().RenameDocument(ctx, selector, replacement, opts)
}

// RetypeReference renames a reference type label across the garden. kind
// is attr, link or ref (or the attrtype, linktype and reftype aliases).
func (g *Garden) RetypeReference(ctx context.Context, oldType, newType, kind string, opts cascade.RetypeOptions) (*cascade.Result, error) {
	scope, err := cascade.ParseScope(kind)
	if err != nil {
		return nil, err
	}
	return g.cascade().RetypeReference(ctx, oldType, newType, scope, opts)
}

// Find returns documents whose id equals pattern, or matches it as a
// regular expression.
func (g *Garden) Find(pattern string, regex bool) ([]*vault.Document, error) {
	return g.Corpus.Find(strings.TrimSuffix(pattern, vault.Ext), regex)
}
