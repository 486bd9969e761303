// Package cascade renames documents and retypes references across a garden
// while keeping every reference consistent.
//
// A rename runs in three phases: the plan is built and validated from the
// loaded corpus without touching disk, every document file is renamed, and
// then every document is rewritten from the content loaded before the
// renames. Per-file failures during the last two phases are collected in the
// result instead of stopping the cascade, since earlier writes cannot be
// rolled back.
package cascade

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/aidanlsb/tendr/internal/atomicfile"
	"github.com/aidanlsb/tendr/internal/vault"
	"github.com/aidanlsb/tendr/internal/wikirefs"
)

// FS performs the file mutations of a cascade.
type FS interface {
	Rename(oldPath, newPath string) error
	WriteFile(path string, data []byte) error
}

type osFS struct{}

func (osFS) Rename(oldPath, newPath string) error     { return atomicfile.Rename(oldPath, newPath) }
func (osFS) WriteFile(path string, data []byte) error { return atomicfile.WriteFile(path, data) }

// OS is the FS backed by the real filesystem.
var OS FS = osFS{}

// Engine applies cascades to one loaded corpus.
type Engine struct {
	Corpus *vault.Corpus
	// FS defaults to OS.
	FS     FS
	Logger *slog.Logger
	// Concurrency bounds parallel writes. Zero means runtime.NumCPU().
	Concurrency int
}

// RenameOptions controls RenameDocument.
type RenameOptions struct {
	// Regex treats the selector as a regular expression over document ids.
	Regex bool
	// DryRun reports what would change without touching any file.
	DryRun bool
}

// RetypeOptions controls RetypeReference.
type RetypeOptions struct {
	DryRun bool
}

// Rename records one document whose id changed.
type Rename struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Failure records a file that could not be renamed, read or written.
type Failure struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Op    string `json:"op"`
	Error string `json:"error"`
}

// Message levels.
const (
	LevelInfo = "info"
	LevelWarn = "warn"
)

// Message is a note for the caller to show alongside the result.
type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Result reports the outcome of a cascade. Renamed and Changed differ: a
// renamed document may keep its content while many others change.
type Result struct {
	Renamed  []Rename  `json:"renamed"`
	Changed  []string  `json:"changed"`
	Failed   []Failure `json:"failed"`
	Messages []Message `json:"messages,omitempty"`
	DryRun   bool      `json:"dry_run"`
}

// OK reports whether every file operation succeeded.
func (r *Result) OK() bool {
	return len(r.Failed) == 0
}

func newResult(dryRun bool) *Result {
	return &Result{
		Renamed: []Rename{},
		Changed: []string{},
		Failed:  []Failure{},
		DryRun:  dryRun,
	}
}

func (r *Result) info(format string, args ...interface{}) {
	r.Messages = append(r.Messages, Message{Level: LevelInfo, Text: fmt.Sprintf(format, args...)})
}

func (r *Result) warn(format string, args ...interface{}) {
	r.Messages = append(r.Messages, Message{Level: LevelWarn, Text: fmt.Sprintf(format, args...)})
}

func (e *Engine) fs() FS {
	if e.FS == nil {
		return OS
	}
	return e.FS
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e.Logger
}

// RenameDocument renames the documents selected by selector and repoints
// every reference to them. Validation errors (ErrNotFound, ErrCollision,
// ErrDuplicateIDs, ErrInvalidID, ErrInvalidPattern) are returned before any
// file changes. Once mutation starts the operation runs to completion; ctx
// is only consulted beforehand.
func (e *Engine) RenameDocument(ctx context.Context, selector, replacement string, opts RenameOptions) (*Result, error) {
	plan, err := PlanRename(e.Corpus, selector, replacement, opts.Regex)
	if err != nil {
		return nil, err
	}
	res := newResult(opts.DryRun)
	if len(plan.Pairs) == 0 {
		res.info("%q already has that id; nothing to rename", selector)
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.Apply(plan, opts.DryRun), nil
}

// Apply executes a validated plan.
func (e *Engine) Apply(plan *Plan, dryRun bool) *Result {
	log := e.logger()
	res := newResult(dryRun)

	// Phase 1: physical renames. All of them finish before any rewrite.
	moved := e.renameFiles(plan, res, dryRun)

	renames := (&Plan{Pairs: moved}).Map()
	for _, p := range moved {
		res.Renamed = append(res.Renamed, Rename{Old: p.Old, New: p.New})
	}

	// Phase 2: rewrite every document from the loaded snapshot.
	newPath := make(map[string]string, len(moved))
	for _, p := range moved {
		newPath[p.Old] = p.NewPath
	}
	e.rewrite(res, dryRun, func(doc *vault.Document) (string, string, string) {
		id, path := doc.ID, doc.Path
		if np, ok := newPath[doc.ID]; ok {
			id, path = renames[doc.ID], np
		}
		return id, path, wikirefs.RenameTargets(renames, doc.Content)
	})

	if dryRun {
		res.info("dry run: %d document(s) would be renamed and %d changed", len(res.Renamed), len(res.Changed))
	}
	log.Debug("rename cascade finished",
		"renamed", len(res.Renamed), "changed", len(res.Changed), "failed", len(res.Failed), "dry_run", dryRun)
	return res
}

// renameFiles moves every planned document and returns the pairs that
// succeeded. When one pair's destination is another pair's source (a swap
// or chain) all sources are first parked under temporary names.
func (e *Engine) renameFiles(plan *Plan, res *Result, dryRun bool) []Pair {
	if dryRun {
		return plan.Pairs
	}
	log := e.logger()
	fsys := e.fs()

	sources := make(map[string]bool, len(plan.Pairs))
	for _, p := range plan.Pairs {
		sources[filepath.Clean(p.Path)] = true
	}
	staged := false
	for _, p := range plan.Pairs {
		if filepath.Clean(p.NewPath) != filepath.Clean(p.Path) && sources[filepath.Clean(p.NewPath)] {
			staged = true
			break
		}
	}

	fail := func(p Pair, err error) {
		log.Warn("rename failed", "id", p.Old, "path", p.Path, "error", err)
		res.Failed = append(res.Failed, Failure{ID: p.Old, Path: p.Path, Op: "rename", Error: err.Error()})
	}

	from := make([]string, len(plan.Pairs))
	ok := make([]bool, len(plan.Pairs))
	for i, p := range plan.Pairs {
		from[i] = p.Path
		ok[i] = true
		if !staged {
			continue
		}
		tmp := filepath.Join(filepath.Dir(p.Path), fmt.Sprintf(".%s.tendr-rename-%d%s", p.Old, i, filepath.Ext(p.Path)))
		if err := fsys.Rename(p.Path, tmp); err != nil {
			fail(p, err)
			ok[i] = false
			continue
		}
		from[i] = tmp
	}

	var moved []Pair
	for i, p := range plan.Pairs {
		if !ok[i] {
			continue
		}
		if err := fsys.Rename(from[i], p.NewPath); err != nil {
			fail(p, err)
			if from[i] != p.Path {
				if back := fsys.Rename(from[i], p.Path); back != nil {
					log.Warn("could not restore parked document", "path", from[i], "error", back)
					res.warn("%s was left at %s", p.Old, from[i])
				}
			}
			continue
		}
		log.Debug("renamed document", "old", p.Old, "new", p.New, "path", p.NewPath)
		moved = append(moved, p)
	}
	return moved
}

// rewrite applies edit to every document in parallel and writes the ones
// whose content changed. edit returns the id and path the document now has
// and its new content.
func (e *Engine) rewrite(res *Result, dryRun bool, edit func(doc *vault.Document) (id, path, content string)) {
	log := e.logger()
	fsys := e.fs()
	docs := e.Corpus.Docs

	type outcome struct {
		id      string
		changed bool
		failure *Failure
	}
	outcomes := make([]outcome, len(docs))

	limit := e.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			id, path, content := edit(doc)
			if doc.ReadErr != nil {
				outcomes[i] = outcome{id: id, failure: &Failure{ID: id, Path: path, Op: "read", Error: doc.ReadErr.Error()}}
				return nil
			}
			if content == doc.Content {
				return nil
			}
			if !dryRun {
				if err := fsys.WriteFile(path, []byte(content)); err != nil {
					log.Warn("write failed", "id", id, "path", path, "error", err)
					outcomes[i] = outcome{id: id, failure: &Failure{ID: id, Path: path, Op: "write", Error: err.Error()}}
					return nil
				}
				log.Debug("rewrote document", "id", id, "path", path)
			}
			outcomes[i] = outcome{id: id, changed: true}
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		switch {
		case o.failure != nil:
			res.Failed = append(res.Failed, *o.failure)
		case o.changed:
			res.Changed = append(res.Changed, o.id)
		}
	}
	sort.Strings(res.Changed)
	sort.SliceStable(res.Failed, func(i, j int) bool { return res.Failed[i].ID < res.Failed[j].ID })
}

// ParseScope converts a retype kind name into a scanner scope. The aliases
// attrtype, linktype and reftype are accepted; empty means ref.
func ParseScope(kind string) (wikirefs.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "ref", "reftype":
		return wikirefs.KindRef, nil
	case "attr", "attrtype":
		return wikirefs.KindAttr, nil
	case "link", "linktype":
		return wikirefs.KindLink, nil
	}
	return "", fmt.Errorf("%w %q (valid: attr, link, ref)", ErrInvalidScope, kind)
}

// RetypeReference renames the type label oldType to newType on every
// reference within scope. Targets are untouched. Finding nothing to change
// is a normal result carrying an informational message.
func (e *Engine) RetypeReference(ctx context.Context, oldType, newType string, scope wikirefs.Kind, opts RetypeOptions) (*Result, error) {
	for _, t := range []string{oldType, newType} {
		if !wikirefs.ValidType(t) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidType, t)
		}
	}
	switch scope {
	case wikirefs.KindRef, wikirefs.KindAttr, wikirefs.KindLink:
	default:
		return nil, fmt.Errorf("%w %q", ErrInvalidScope, scope)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := newResult(opts.DryRun)
	if oldType == newType {
		res.info("%q and %q are the same type; nothing to retype", oldType, newType)
		return res, nil
	}

	e.rewrite(res, opts.DryRun, func(doc *vault.Document) (string, string, string) {
		return doc.ID, doc.Path, wikirefs.Retype(oldType, newType, scope, doc.Content)
	})

	switch {
	case len(res.Changed) == 0 && len(res.Failed) == 0:
		res.info("no %s references of type %q; 0 documents changed", scope, oldType)
	case opts.DryRun:
		res.info("dry run: %d document(s) would change", len(res.Changed))
	}
	e.logger().Debug("retype cascade finished",
		"old", oldType, "new", newType, "scope", string(scope),
		"changed", len(res.Changed), "failed", len(res.Failed), "dry_run", opts.DryRun)
	return res, nil
}
