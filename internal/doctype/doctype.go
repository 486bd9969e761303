// Package doctype classifies garden documents into named doctypes.
//
// Rules are evaluated in declaration order. Within a rule the prefix matcher
// is tried first, then the attribute matcher, then the path matcher. A prefix
// or attribute match returns at once; path matches are collected and the
// longest matching path wins once every rule has been seen.
package doctype

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/aidanlsb/tendr/internal/attrs"
)

// Default is the doctype of documents no rule matches.
const Default = "default"

// Rule is the set of matchers for one doctype. Zero fields are unset.
type Rule struct {
	Name string
	// Prefix is a literal id prefix or a template containing :id, :date,
	// :year, :month, :day, :hour or :minute.
	Prefix string
	// Attr is the attribute key that marks a document as this doctype.
	// It defaults to Name.
	Attr string
	// Path is a directory relative to the garden root.
	Path string
}

// Options configures template expansion.
type Options struct {
	// Alphabet lists the characters a generated :id may contain.
	Alphabet string
	// Size is the length of a generated :id.
	Size int
}

// DefaultOptions returns the id settings used when none are configured.
func DefaultOptions() Options {
	return Options{Alphabet: "0123456789abcdefghijklmnopqrstuvwxyz", Size: 8}
}

// Input is the document data needed for classification.
type Input struct {
	ID string
	// RelPath is slash-separated and relative to the garden root.
	RelPath string
	// Attributes may be nil when the document could not be read or parsed.
	Attributes attrs.Attributes
}

type matchKind int

const (
	matchPrefix matchKind = iota
	matchAttr
	matchPath
)

type matcher struct {
	kind    matchKind
	doctype string
	literal string
	re      *regexp.Regexp
}

func (m matcher) match(in Input) bool {
	switch m.kind {
	case matchPrefix:
		if m.re != nil {
			return m.re.MatchString(in.ID)
		}
		return strings.HasPrefix(in.ID, m.literal)
	case matchAttr:
		return in.Attributes.Has(m.literal)
	case matchPath:
		return inDir(in.RelPath, m.literal)
	}
	return false
}

// Set is a compiled, ordered rule set.
type Set struct {
	rules    []Rule
	matchers []matcher
}

// Compile validates rules and compiles prefix templates.
func Compile(rules []Rule, opts Options) (*Set, error) {
	if opts.Alphabet == "" || opts.Size <= 0 {
		def := DefaultOptions()
		if opts.Alphabet == "" {
			opts.Alphabet = def.Alphabet
		}
		if opts.Size <= 0 {
			opts.Size = def.Size
		}
	}

	s := &Set{rules: append([]Rule(nil), rules...)}
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.Name == "" {
			return nil, errors.New("doctype rule has no name")
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("doctype %q is defined twice", r.Name)
		}
		seen[r.Name] = true

		if r.Prefix != "" {
			m := matcher{kind: matchPrefix, doctype: r.Name, literal: r.Prefix}
			if isTemplate(r.Prefix) {
				re, err := compileTemplate(r.Prefix, opts)
				if err != nil {
					return nil, fmt.Errorf("doctype %q: %w", r.Name, err)
				}
				m.re = re
			}
			s.matchers = append(s.matchers, m)
		}

		key := r.Attr
		if key == "" {
			key = r.Name
		}
		s.matchers = append(s.matchers, matcher{kind: matchAttr, doctype: r.Name, literal: key})

		if r.Path != "" {
			s.matchers = append(s.matchers, matcher{kind: matchPath, doctype: r.Name, literal: cleanDir(r.Path)})
		}
	}
	return s, nil
}

// Rules returns the rules in evaluation order.
func (s *Set) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Names returns every doctype name plus Default.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.rules)+1)
	for _, r := range s.rules {
		names = append(names, r.Name)
	}
	return append(names, Default)
}

// Resolve returns the doctype of in.
func (s *Set) Resolve(in Input) string {
	best, bestLen := "", -1
	for _, m := range s.matchers {
		if !m.match(in) {
			continue
		}
		if m.kind != matchPath {
			return m.doctype
		}
		if len(m.literal) > bestLen {
			best, bestLen = m.doctype, len(m.literal)
		}
	}
	if bestLen >= 0 {
		return best
	}
	return Default
}

// Resolve compiles rules and classifies a single document.
func Resolve(in Input, rules []Rule, opts Options) (string, error) {
	s, err := Compile(rules, opts)
	if err != nil {
		return "", err
	}
	return s.Resolve(in), nil
}

func cleanDir(p string) string {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// inDir reports whether relPath lies inside dir. The empty dir is the root.
func inDir(relPath, dir string) bool {
	docDir := path.Dir(relPath)
	if dir == "" {
		return true
	}
	return docDir == dir || strings.HasPrefix(docDir, dir+"/")
}
