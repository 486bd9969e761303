// Package semtree builds the document hierarchy described by index documents.
//
// An index document lists other documents as nested bullets:
//
//	- [[fname-a]]
//	  - [[fname-b]]
//	- [[i.branch]]
//
// A bullet naming another index document grafts that document's bullets
// beneath it, so several index documents form one tree under the root.
package semtree

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aidanlsb/tendr/internal/attrs"
	"github.com/aidanlsb/tendr/internal/wikirefs"
)

// DefaultRoot is the root index document used when none is configured.
const DefaultRoot = "i.bonsai"

// ErrRootNotFound is returned when the root is not among the index documents.
var ErrRootNotFound = errors.New("root index document not found")

// DuplicateError reports a document placed in the tree more than once.
type DuplicateError struct {
	ID string
	// Index is the index document holding the second occurrence.
	Index string
	Line  int
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate tree entry %q in %s:%d", e.ID, e.Index, e.Line)
}

// IndentError reports a bullet whose indentation does not fit the document.
type IndentError struct {
	Index  string
	Line   int
	Reason string
}

func (e *IndentError) Error() string {
	return fmt.Sprintf("bad indentation in %s:%d: %s", e.Index, e.Line, e.Reason)
}

// Node is a document's position in the tree.
type Node struct {
	ID string
	// Ancestors runs from the root down to the direct parent.
	Ancestors []string
	Children  []string
	// Trunk is set for index documents.
	Trunk bool
}

// Tree is a built hierarchy.
type Tree struct {
	Root  string
	nodes map[string]*Node
	// order is depth-first, parents before children.
	order []string
	// Unreached lists index documents that are not part of the tree.
	Unreached []string
}

var bulletRe = regexp.MustCompile(`^([ \t]*)[-*+][ \t]+\[\[([^\[\]|]+)(?:\|[^\[\]]*)?\]\]`)

type item struct {
	id    string
	level int
	line  int
}

// Build assembles the tree rooted at root from index document contents keyed
// by document id.
func Build(root string, contents map[string]string) (*Tree, error) {
	if _, ok := contents[root]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrRootNotFound, root)
	}
	t := &Tree{Root: root, nodes: map[string]*Node{}}
	t.add(&Node{ID: root, Trunk: true})
	if err := t.expand(root, contents); err != nil {
		return nil, err
	}

	for id := range contents {
		if _, ok := t.nodes[id]; !ok {
			t.Unreached = append(t.Unreached, id)
		}
	}
	sort.Strings(t.Unreached)
	return t, nil
}

func (t *Tree) add(n *Node) {
	t.nodes[n.ID] = n
	t.order = append(t.order, n.ID)
}

func (t *Tree) expand(index string, contents map[string]string) error {
	items, err := parseIndex(index, contents[index])
	if err != nil {
		return err
	}
	parent := t.nodes[index]
	var stack []string
	for _, it := range items {
		if it.level > len(stack) {
			return &IndentError{Index: index, Line: it.line, Reason: "indented more than one level below its parent"}
		}
		stack = stack[:it.level]
		owner := parent
		if it.level > 0 {
			owner = t.nodes[stack[it.level-1]]
		}
		if _, dup := t.nodes[it.id]; dup {
			return &DuplicateError{ID: it.id, Index: index, Line: it.line}
		}
		_, isIndex := contents[it.id]
		n := &Node{
			ID:        it.id,
			Ancestors: append(append([]string(nil), owner.Ancestors...), owner.ID),
			Trunk:     isIndex,
		}
		owner.Children = append(owner.Children, n.ID)
		t.add(n)
		stack = append(stack, it.id)
		if isIndex {
			if err := t.expand(it.id, contents); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseIndex extracts bullet entries and their nesting levels. The first
// indented bullet fixes the indent unit for the document.
func parseIndex(index, content string) ([]item, error) {
	lines := strings.Split(content, "\n")
	start := 0
	if end, ok := attrs.FrontmatterBounds(lines); ok && end > 0 {
		start = end + 1
	}

	var (
		items []item
		unit  string
	)
	for i := start; i < len(lines); i++ {
		m := bulletRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		id := wikirefs.NormalizeName(strings.TrimSpace(m[2]))
		if id == "" {
			continue
		}
		indent := m[1]
		level := 0
		if indent != "" {
			if unit == "" {
				if strings.Contains(indent, " ") && strings.Contains(indent, "\t") {
					return nil, &IndentError{Index: index, Line: i + 1, Reason: "mixed tabs and spaces"}
				}
				unit = indent
				if unit[0] == '\t' {
					unit = "\t"
				}
			}
			if len(indent)%len(unit) != 0 || strings.Repeat(unit, len(indent)/len(unit)) != indent {
				return nil, &IndentError{Index: index, Line: i + 1, Reason: fmt.Sprintf("indent is not a multiple of %q", unit)}
			}
			level = len(indent) / len(unit)
		}
		items = append(items, item{id: id, level: level, line: i + 1})
	}
	return items, nil
}

// Node returns the tree node for id.
func (t *Tree) Node(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Len returns the number of nodes including the root.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Walk visits every node depth-first, parents before children. depth is 0
// for the root.
func (t *Tree) Walk(fn func(n *Node, depth int)) {
	for _, id := range t.order {
		n := t.nodes[id]
		fn(n, len(n.Ancestors))
	}
}
