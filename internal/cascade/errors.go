package cascade

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound means the selector matched no document.
	ErrNotFound = errors.New("document not found")
	// ErrCollision means a new id would clash with another document.
	ErrCollision = errors.New("id collision")
	// ErrDuplicateIDs means the garden already has non-unique ids.
	ErrDuplicateIDs = errors.New("garden has duplicate document ids")
	// ErrInvalidID means a new id cannot name a document.
	ErrInvalidID = errors.New("invalid document id")
	// ErrInvalidPattern means a regex selector failed to compile.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrInvalidType means a reference type label is malformed.
	ErrInvalidType = errors.New("invalid reference type")
	// ErrInvalidScope means a retype scope is not attr, link or ref.
	ErrInvalidScope = errors.New("invalid retype scope")
)

// Collision describes one new id that cannot be used.
type Collision struct {
	New string `json:"new"`
	// Old lists the plan entries mapping to New.
	Old []string `json:"old"`
	// Existing is set when New already names a document that is not being
	// renamed, or a file on disk.
	Existing bool `json:"existing"`
}

// CollisionError reports every collision found while validating a plan.
type CollisionError struct {
	Collisions []Collision
}

func (e *CollisionError) Error() string {
	parts := make([]string, 0, len(e.Collisions))
	for _, c := range e.Collisions {
		if c.Existing {
			parts = append(parts, fmt.Sprintf("%s -> %q (already exists)", strings.Join(c.Old, ", "), c.New))
		} else {
			parts = append(parts, fmt.Sprintf("%s -> %q", strings.Join(c.Old, ", "), c.New))
		}
	}
	return "id collision: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrCollision.
func (e *CollisionError) Unwrap() error {
	return ErrCollision
}

func sortCollisions(cs []Collision) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].New < cs[j].New })
	for i := range cs {
		sort.Strings(cs[i].Old)
	}
}
