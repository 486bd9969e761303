package cascade

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/aidanlsb/tendr/internal/vault"
	"github.com/aidanlsb/tendr/internal/wikirefs"
)

// Pair is one planned rename.
type Pair struct {
	Old     string `json:"old"`
	New     string `json:"new"`
	Path    string `json:"path"`
	NewPath string `json:"new_path"`
}

// Plan is the complete set of renames for one operation, computed before
// anything is touched.
type Plan struct {
	Pairs []Pair
}

// Map returns the plan as old id -> new id.
func (p *Plan) Map() map[string]string {
	m := make(map[string]string, len(p.Pairs))
	for _, pair := range p.Pairs {
		m[pair.Old] = pair.New
	}
	return m
}

// PlanRename builds and validates the rename plan for selector. A literal
// selector names one document; with regex set, every id matching selector
// is renamed to re.ReplaceAllString(id, replacement), so "$1" and "${name}"
// expand capture groups. Ids the replacement leaves unchanged are skipped.
func PlanRename(c *vault.Corpus, selector, replacement string, regex bool) (*Plan, error) {
	if err := c.Duplicates(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDuplicateIDs, err)
	}

	var plan Plan
	if regex {
		re, err := regexp.Compile(selector)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		for _, id := range c.IDs() {
			if !re.MatchString(id) {
				continue
			}
			newID := re.ReplaceAllString(id, replacement)
			if newID == id {
				continue
			}
			plan.Pairs = append(plan.Pairs, pairFor(c, id, newID))
		}
		if len(plan.Pairs) == 0 {
			return nil, fmt.Errorf("%w: no document id matches %q", ErrNotFound, selector)
		}
	} else {
		oldID := strings.TrimSuffix(selector, vault.Ext)
		newID := strings.TrimSuffix(replacement, vault.Ext)
		if !c.Has(oldID) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, oldID)
		}
		if newID != oldID {
			plan.Pairs = append(plan.Pairs, pairFor(c, oldID, newID))
		}
	}

	if err := validate(c, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func pairFor(c *vault.Corpus, oldID, newID string) Pair {
	doc, _ := c.Get(oldID)
	ext := filepath.Ext(doc.Path)
	return Pair{
		Old:     oldID,
		New:     newID,
		Path:    doc.Path,
		NewPath: filepath.Join(filepath.Dir(doc.Path), newID+ext),
	}
}

// ValidID reports why id cannot name a document, or nil.
func ValidID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("%w: empty id", ErrInvalidID)
	case strings.TrimSpace(id) != id:
		return fmt.Errorf("%w: %q has surrounding whitespace", ErrInvalidID, id)
	case strings.HasPrefix(id, "."):
		return fmt.Errorf("%w: %q would be a hidden file", ErrInvalidID, id)
	case strings.ContainsAny(id, "/\\"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidID, id)
	case strings.ContainsAny(id, "[]|#\n"):
		return fmt.Errorf("%w: %q contains reference syntax", ErrInvalidID, id)
	case wikirefs.NormalizeName(id) != id:
		return fmt.Errorf("%w: references to %q would resolve to %q", ErrInvalidID, id, wikirefs.NormalizeName(id))
	}
	return nil
}

func validate(c *vault.Corpus, plan *Plan) error {
	renamed := make(map[string]bool, len(plan.Pairs))
	for _, p := range plan.Pairs {
		renamed[p.Old] = true
	}
	sources := make(map[string]bool, len(plan.Pairs))
	for _, p := range plan.Pairs {
		sources[filepath.Clean(p.Path)] = true
	}

	byNew := map[string][]string{}
	for _, p := range plan.Pairs {
		if err := ValidID(p.New); err != nil {
			return fmt.Errorf("rename %q: %w", p.Old, err)
		}
		byNew[p.New] = append(byNew[p.New], p.Old)
	}

	var collisions []Collision
	for _, p := range plan.Pairs {
		olds := byNew[p.New]
		if olds == nil {
			continue
		}
		delete(byNew, p.New)

		existing := c.Has(p.New) && !renamed[p.New]
		if !existing && !sources[filepath.Clean(p.NewPath)] && pathTaken(p.Path, p.NewPath) {
			existing = true
		}
		if existing || len(olds) > 1 {
			collisions = append(collisions, Collision{New: p.New, Old: olds, Existing: existing})
		}
	}
	if len(collisions) > 0 {
		sortCollisions(collisions)
		return &CollisionError{Collisions: collisions}
	}

	sort.Slice(plan.Pairs, func(i, j int) bool { return plan.Pairs[i].Old < plan.Pairs[j].Old })
	return nil
}

// pathTaken reports whether newPath is occupied by a file other than oldPath,
// such as a document hidden by an ignore pattern.
func pathTaken(oldPath, newPath string) bool {
	dst, err := os.Lstat(newPath)
	if err != nil {
		return !errors.Is(err, fs.ErrNotExist)
	}
	src, err := os.Stat(oldPath)
	if err != nil {
		return true
	}
	return !os.SameFile(src, dst)
}
