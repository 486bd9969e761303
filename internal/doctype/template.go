package doctype

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var tokenRe = regexp.MustCompile(`:(minute|month|hour|year|date|day|id)\b`)

func tokenPattern(tok string, opts Options) string {
	switch tok {
	case "id":
		return "[" + charClass(opts.Alphabet) + "]{" + strconv.Itoa(opts.Size) + "}"
	case "date":
		return `\d{4}-\d{2}-\d{2}`
	case "year":
		return `\d{4}`
	default:
		return `\d{2}`
	}
}

// isTemplate reports whether prefix holds a placeholder. A token must end at
// a word boundary, so ":idea-" is literal.
func isTemplate(prefix string) bool {
	return tokenRe.MatchString(prefix)
}

// compileTemplate turns a prefix template into a regexp anchored at the start
// of an id. Text between tokens is matched literally.
func compileTemplate(tmpl string, opts Options) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")
	last := 0
	for _, m := range tokenRe.FindAllStringSubmatchIndex(tmpl, -1) {
		sb.WriteString(regexp.QuoteMeta(tmpl[last:m[0]]))
		sb.WriteString(tokenPattern(tmpl[m[2]:m[3]], opts))
		last = m[1]
	}
	sb.WriteString(regexp.QuoteMeta(tmpl[last:]))

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("invalid prefix template %q: %w", tmpl, err)
	}
	return re, nil
}

func charClass(alphabet string) string {
	var sb strings.Builder
	for _, r := range alphabet {
		switch r {
		case '\\', ']', '[', '^', '-':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
