// Package attrs parses document attributes.
//
// Two equivalent encodings are supported and merged:
//
//   - YAML front matter between leading "---" lines
//   - caml attribute lines of the form ":key::value" (colon prefix optional),
//     including the list form where "key::" is followed by "- item" lines
//
// When both encodings set the same key, the caml value wins.
package attrs

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Attributes maps attribute keys to decoded values. caml values are strings
// or []string; YAML values keep the types yaml.v3 decodes.
type Attributes map[string]interface{}

// Has reports whether key is present.
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Keys returns the attribute keys in no particular order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	return keys
}

var (
	camlLineRe  = regexp.MustCompile(`^[ \t]*:?([\p{L}\p{N}_][\p{L}\p{N}_\-]*)[ \t]*::[ \t]*(.*?)[ \t\r]*$`)
	camlItemRe  = regexp.MustCompile(`^[ \t]*[-*+][ \t]+(.*?)[ \t\r]*$`)
	camlLinkRe  = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|[^\[\]]+)?\]\]`)
	fenceMarkRe = regexp.MustCompile("^[ \t]*(```|~~~)")
)

// FrontmatterBounds returns the index of the closing "---" line. ok is false
// when the text does not open with front matter; end is -1 when it is unclosed.
func FrontmatterBounds(lines []string) (end int, ok bool) {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return -1, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return i, true
		}
	}
	return -1, true
}

// Parse extracts attributes from text and returns the text that remains once
// the front matter block and caml attribute lines are removed.
func Parse(text string) (Attributes, string, error) {
	out := Attributes{}
	lines := strings.Split(text, "\n")

	body := lines
	if end, ok := FrontmatterBounds(lines); ok && end > 0 {
		var data map[string]interface{}
		if err := yaml.Unmarshal([]byte(strings.Join(lines[1:end], "\n")), &data); err != nil {
			return nil, text, fmt.Errorf("parse front matter: %w", err)
		}
		for k, v := range data {
			out[k] = v
		}
		body = lines[end+1:]
	}

	rest := parseCaml(body, out)
	return out, strings.Join(rest, "\n"), nil
}

func parseCaml(lines []string, out Attributes) []string {
	var rest []string
	inFence := false
	for i := 0; i < len(lines); i++ {
		ln := lines[i]
		if fenceMarkRe.MatchString(ln) {
			inFence = !inFence
			rest = append(rest, ln)
			continue
		}
		if inFence {
			rest = append(rest, ln)
			continue
		}
		m := camlLineRe.FindStringSubmatch(ln)
		if m == nil {
			rest = append(rest, ln)
			continue
		}
		key, value := m[1], m[2]
		if value != "" {
			out[key] = camlValue(value)
			continue
		}

		var items []string
		j := i + 1
		for ; j < len(lines); j++ {
			im := camlItemRe.FindStringSubmatch(lines[j])
			if im == nil {
				break
			}
			items = append(items, camlItem(im[1]))
		}
		if len(items) == 0 {
			out[key] = ""
			continue
		}
		out[key] = items
		i = j - 1
	}
	return rest
}

// camlValue decodes a single-line value: wikilinks become a list of targets,
// comma-separated plain values stay a single string.
func camlValue(v string) interface{} {
	links := camlLinkRe.FindAllStringSubmatch(v, -1)
	if len(links) == 0 {
		return v
	}
	names := make([]string, 0, len(links))
	for _, l := range links {
		names = append(names, strings.TrimSpace(l[1]))
	}
	return names
}

func camlItem(v string) string {
	if m := camlLinkRe.FindStringSubmatch(v); m != nil {
		return strings.TrimSpace(m[1])
	}
	return v
}
