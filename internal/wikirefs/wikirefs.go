// Package wikirefs scans and rewrites wiki references in markdown text.
//
// Reference grammar:
//
//	[[target]]                 link
//	[[target|label]]           link with display label
//	![[target]]                embed
//	:type::[[target]] text     typed link (inline, other text on the line)
//	:type::[[a]], [[b]]        attribute (the line holds nothing else)
//	:type::                    attribute in list form
//	- [[a]]
//	- [[b]]
//
// The leading colon of an attribute line is optional. References inside
// fenced code blocks and inline code spans are ignored, so rewrites never
// touch them.
package wikirefs

import (
	"regexp"
	"strings"
)

// Kind is the kind of a reference.
type Kind string

const (
	KindAttr  Kind = "attr"
	KindLink  Kind = "link"
	KindEmbed Kind = "embed"

	// KindRef is a scope covering every typed reference kind (attr + link).
	// Scan results never carry it.
	KindRef Kind = "ref"
)

// Target is one referenced document inside a reference.
type Target struct {
	// Name is the referenced document id: the base name without a ".md"
	// extension or "#fragment".
	Name string
	// Raw is the text between "[[" and "|" or "]]", trimmed.
	Raw   string
	Label string
	// Start and End delimit Name inside the scanned text.
	Start int
	End   int
}

// Ref is a single reference occurrence. Attribute references may hold several
// targets (one per list item); links and embeds hold exactly one.
type Ref struct {
	Kind    Kind
	Type    string
	Targets []Target
	// Line is 1-indexed.
	Line int
	// TypeStart and TypeEnd delimit Type inside the scanned text; both are -1
	// when the reference is untyped.
	TypeStart int
	TypeEnd   int
}

// Filter restricts scan results. Zero fields match everything.
type Filter struct {
	Kind   Kind
	Target string
}

const typePattern = `[\p{L}\p{N}_][\p{L}\p{N}_\-]*`

const linkPattern = `\[\[([^\[\]|]+)(?:\|([^\[\]]+))?\]\]`

var (
	linkRe       = regexp.MustCompile(linkPattern)
	inlineRe     = regexp.MustCompile(`(?::(` + typePattern + `)::)?(!)?` + linkPattern)
	attrLineRe   = regexp.MustCompile(`^[ \t]*:?(` + typePattern + `)[ \t]*::[ \t]*(` + linkPattern + `(?:[ \t]*,[ \t]*` + linkPattern + `)*)[ \t\r]*$`)
	attrHeaderRe = regexp.MustCompile(`^[ \t]*:?(` + typePattern + `)[ \t]*::[ \t\r]*$`)
	bulletRe     = regexp.MustCompile(`^[ \t]*[-*+][ \t]+` + linkPattern + `[ \t\r]*$`)
	typeRe       = regexp.MustCompile(`^` + typePattern + `$`)
)

// ValidType reports whether s can be used as a reference type label.
func ValidType(s string) bool {
	return typeRe.MatchString(s)
}

// NormalizeName converts a raw link target into a document id.
func NormalizeName(raw string) string {
	name, _, _ := splitName(raw)
	return name
}

// splitName returns the document id inside raw along with its byte offsets.
// Directory parts, a ".md" extension and a "#fragment" are not part of the id.
func splitName(raw string) (name string, start, end int) {
	end = len(raw)
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		end = i
	}
	if strings.HasSuffix(strings.ToLower(raw[:end]), ".md") {
		end -= len(".md")
	}
	start = strings.LastIndexByte(raw[:end], '/') + 1
	if start >= end {
		return "", 0, 0
	}
	return raw[start:end], start, end
}

// Scan extracts every reference in text, in document order.
func Scan(text string) []Ref {
	return ScanFiltered(text, Filter{})
}

// ScanFiltered extracts references matching f.
//
// When f.Target is set, attribute references keep only the matching targets
// and are dropped entirely if none match.
func ScanFiltered(text string, f Filter) []Ref {
	var (
		out   []Ref
		fence fenceState
	)

	lines := splitLines(text)
	for i := 0; i < len(lines); i++ {
		ln := lines[i]
		if fence.update(ln.text) || fence.inFence {
			continue
		}
		masked := maskInlineCode(ln.text)

		if ref, ok := scanAttrLine(masked, ln, i+1); ok {
			out = appendFiltered(out, ref, f)
			continue
		}
		if ref, consumed, ok := scanAttrList(lines, i); ok {
			out = appendFiltered(out, ref, f)
			i += consumed
			continue
		}
		for _, ref := range scanInline(masked, ln, i+1) {
			out = appendFiltered(out, ref, f)
		}
	}
	return out
}

type line struct {
	text   string
	offset int
}

func splitLines(text string) []line {
	var lines []line
	offset := 0
	for {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			lines = append(lines, line{text: text[offset:], offset: offset})
			return lines
		}
		lines = append(lines, line{text: text[offset : offset+i], offset: offset})
		offset += i + 1
	}
}

func scanAttrLine(masked string, ln line, lineNo int) (Ref, bool) {
	m := attrLineRe.FindStringSubmatchIndex(masked)
	if m == nil {
		return Ref{}, false
	}
	ref := Ref{
		Kind:      KindAttr,
		Type:      masked[m[2]:m[3]],
		Line:      lineNo,
		TypeStart: ln.offset + m[2],
		TypeEnd:   ln.offset + m[3],
	}
	valueStart := m[4]
	for _, lm := range linkRe.FindAllStringSubmatchIndex(masked[valueStart:m[5]], -1) {
		if t, ok := makeTarget(masked, lm, ln.offset, valueStart); ok {
			ref.Targets = append(ref.Targets, t)
		}
	}
	return ref, len(ref.Targets) > 0
}

// scanAttrList recognizes a "type::" header followed by bullet links. It
// returns the number of extra lines consumed.
func scanAttrList(lines []line, i int) (Ref, int, bool) {
	header := maskInlineCode(lines[i].text)
	m := attrHeaderRe.FindStringSubmatchIndex(header)
	if m == nil {
		return Ref{}, 0, false
	}
	ref := Ref{
		Kind:      KindAttr,
		Type:      header[m[2]:m[3]],
		Line:      i + 1,
		TypeStart: lines[i].offset + m[2],
		TypeEnd:   lines[i].offset + m[3],
	}
	consumed := 0
	for j := i + 1; j < len(lines); j++ {
		item := maskInlineCode(lines[j].text)
		bm := bulletRe.FindStringSubmatchIndex(item)
		if bm == nil {
			break
		}
		if t, ok := makeTarget(item, bm, lines[j].offset, 0); ok {
			ref.Targets = append(ref.Targets, t)
		}
		consumed++
	}
	if len(ref.Targets) == 0 {
		return Ref{}, 0, false
	}
	return ref, consumed, true
}

func scanInline(masked string, ln line, lineNo int) []Ref {
	var refs []Ref
	for _, m := range inlineRe.FindAllStringSubmatchIndex(masked, -1) {
		start := m[0]
		// Skip array syntax like [[[ref]]].
		if start > 0 && masked[start-1] == '[' {
			continue
		}
		t, ok := makeTarget(masked, m[4:], ln.offset, 0)
		if !ok {
			continue
		}
		ref := Ref{
			Kind:      KindLink,
			Targets:   []Target{t},
			Line:      lineNo,
			TypeStart: -1,
			TypeEnd:   -1,
		}
		switch {
		case m[4] >= 0:
			ref.Kind = KindEmbed
		case m[2] >= 0:
			ref.Type = masked[m[2]:m[3]]
			ref.TypeStart = ln.offset + m[2]
			ref.TypeEnd = ln.offset + m[3]
		}
		refs = append(refs, ref)
	}
	return refs
}

// makeTarget builds a Target from submatch indices where m[2:4] is the raw
// target group and m[4:6] the optional label group. base is the offset of
// the matched string inside the full text and shift is added to every index.
func makeTarget(s string, m []int, base, shift int) (Target, bool) {
	if len(m) < 6 || m[2] < 0 {
		return Target{}, false
	}
	rawStart, rawEnd := m[2]+shift, m[3]+shift
	raw := s[rawStart:rawEnd]
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Target{}, false
	}
	lead := strings.Index(raw, trimmed)
	name, ns, ne := splitName(trimmed)
	if name == "" {
		return Target{}, false
	}
	t := Target{
		Name:  name,
		Raw:   trimmed,
		Start: base + rawStart + lead + ns,
		End:   base + rawStart + lead + ne,
	}
	if m[4] >= 0 {
		t.Label = strings.TrimSpace(s[m[4]+shift : m[5]+shift])
	}
	return t, true
}

// Apply returns the references in refs that match f, narrowing attribute
// target lists the same way ScanFiltered does.
func (f Filter) Apply(refs []Ref) []Ref {
	if f.Kind == "" && f.Target == "" {
		return refs
	}
	var out []Ref
	for _, ref := range refs {
		out = appendFiltered(out, ref, f)
	}
	return out
}

func appendFiltered(out []Ref, ref Ref, f Filter) []Ref {
	if f.Kind != "" && !KindInScope(ref.Kind, f.Kind) {
		return out
	}
	if f.Target == "" {
		return append(out, ref)
	}
	var kept []Target
	for _, t := range ref.Targets {
		if t.Name == f.Target {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return out
	}
	ref.Targets = kept
	return append(out, ref)
}

// KindInScope reports whether a reference of kind k is covered by scope.
// KindRef covers attributes and links; an empty scope covers everything.
func KindInScope(k, scope Kind) bool {
	switch scope {
	case "":
		return true
	case KindRef:
		return k == KindAttr || k == KindLink
	default:
		return k == scope
	}
}
