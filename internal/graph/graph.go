// Package graph derives the typed reference graph of a garden.
//
// Nothing is stored: forward references come from scanning one document and
// backward references from scanning every other document, so results always
// reflect the files as loaded.
package graph

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/aidanlsb/tendr/internal/vault"
	"github.com/aidanlsb/tendr/internal/wikirefs"
)

// Scanner extracts references from document content.
type Scanner interface {
	Scan(content string) []wikirefs.Ref
}

// ScannerFunc adapts a function to Scanner.
type ScannerFunc func(content string) []wikirefs.Ref

// Scan calls f(content).
func (f ScannerFunc) Scan(content string) []wikirefs.Ref { return f(content) }

// DefaultScanner scans with wikirefs directly.
var DefaultScanner Scanner = ScannerFunc(wikirefs.Scan)

// Ref is one directed edge of the graph.
type Ref struct {
	Source string
	Target string
	Kind   wikirefs.Kind
	// Type is the optional relationship label; always empty for embeds.
	Type string
	// Label is the display text of the link, if any.
	Label string
	Line  int
	// Resolved is false for zombie references whose target is not a document.
	Resolved bool
}

// Builder computes references over a corpus.
type Builder struct {
	Corpus  *vault.Corpus
	Scanner Scanner
	// Concurrency bounds parallel scans in Backward. Zero means runtime.NumCPU().
	Concurrency int
}

// New returns a Builder using the default scanner.
func New(c *vault.Corpus) *Builder {
	return &Builder{Corpus: c}
}

func (b *Builder) scanner() Scanner {
	if b.Scanner == nil {
		return DefaultScanner
	}
	return b.Scanner
}

// Forward returns the references doc makes, in scan order. An attribute
// holding several targets yields one Ref per target.
func (b *Builder) Forward(doc *vault.Document) []Ref {
	if doc == nil {
		return nil
	}
	return b.lift(doc.ID, b.scanner().Scan(doc.Content))
}

// ForwardID is Forward for the document with the given id. A missing
// document has no forward references.
func (b *Builder) ForwardID(id string) []Ref {
	doc, ok := b.Corpus.Get(id)
	if !ok {
		return nil
	}
	return b.Forward(doc)
}

// Backward returns every reference to targetID from other documents, in
// corpus order. targetID need not exist.
func (b *Builder) Backward(ctx context.Context, targetID string) ([]Ref, error) {
	docs := b.Corpus.Docs
	found := make([][]Ref, len(docs))
	filter := wikirefs.Filter{Target: targetID}

	limit := b.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, doc := range docs {
		if doc.ID == targetID {
			continue
		}
		i, doc := i, doc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			refs := filter.Apply(b.scanner().Scan(doc.Content))
			if len(refs) > 0 {
				found[i] = b.lift(doc.ID, refs)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Ref
	for _, refs := range found {
		out = append(out, refs...)
	}
	return out, nil
}

func (b *Builder) lift(source string, scanned []wikirefs.Ref) []Ref {
	var out []Ref
	for _, r := range scanned {
		for _, t := range r.Targets {
			out = append(out, Ref{
				Source:   source,
				Target:   t.Name,
				Kind:     r.Kind,
				Type:     r.Type,
				Label:    t.Label,
				Line:     r.Line,
				Resolved: b.Corpus.Has(t.Name),
			})
		}
	}
	return out
}
