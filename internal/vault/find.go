package vault

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	goslug "github.com/gosimple/slug"
)

// ErrInvalidPattern is returned by Find for malformed regular expressions.
var ErrInvalidPattern = errors.New("invalid pattern")

// Find returns documents whose id equals name, or matches it as a regular
// expression when regex is set.
func (c *Corpus) Find(name string, regex bool) ([]*Document, error) {
	if !regex {
		return append([]*Document(nil), c.byID[name]...), nil
	}
	re, err := regexp.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid regular expression: %v", ErrInvalidPattern, name, err)
	}
	var out []*Document
	for _, d := range c.Docs {
		if re.MatchString(d.ID) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Suggest returns ids that look like id once both are slugified, for
// "did you mean" hints when a lookup misses.
func (c *Corpus) Suggest(id string) []string {
	want := slugID(id)
	if want == "" {
		return nil
	}
	var out []string
	for _, candidate := range c.IDs() {
		if candidate == id {
			continue
		}
		if slugID(candidate) == want {
			out = append(out, candidate)
		}
	}
	return out
}

func slugID(id string) string {
	id = strings.TrimSuffix(id, Ext)
	s := goslug.Make(id)
	if s == "" {
		s = strings.ToLower(strings.ReplaceAll(id, " ", "-"))
	}
	return s
}
