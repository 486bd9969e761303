package wikirefs

import "strings"

// fenceState tracks whether the scanner is inside a fenced code block.
type fenceState struct {
	inFence bool
	ch      byte
	n       int
}

// update consumes one line and reports whether it was a fence marker.
// Leading indentation and blockquote prefixes are ignored so fences nested
// in quotes are still detected.
func (fs *fenceState) update(line string) bool {
	s := strings.TrimLeft(line, " \t")
	for strings.HasPrefix(s, ">") {
		s = strings.TrimLeft(s[1:], " \t")
	}
	if len(s) < 3 || (s[0] != '`' && s[0] != '~') {
		return false
	}
	ch := s[0]
	n := 0
	for n < len(s) && s[n] == ch {
		n++
	}
	if n < 3 {
		return false
	}

	if !fs.inFence {
		fs.inFence, fs.ch, fs.n = true, ch, n
		return true
	}
	if ch == fs.ch && n >= fs.n {
		fs.inFence, fs.ch, fs.n = false, 0, 0
		return true
	}
	return false
}

// maskInlineCode blanks out inline code spans with spaces so byte offsets
// into the line stay valid for the caller.
func maskInlineCode(line string) string {
	if strings.IndexByte(line, '`') < 0 {
		return line
	}
	out := []byte(line)
	i := 0
	for i < len(out) {
		if out[i] != '`' {
			i++
			continue
		}
		start := i
		open := 0
		for i < len(out) && out[i] == '`' {
			open++
			i++
		}
		for j := i; j < len(out); {
			if out[j] != '`' {
				j++
				continue
			}
			closeLen := 0
			for j < len(out) && out[j] == '`' {
				closeLen++
				j++
			}
			if closeLen == open {
				for k := start; k < j; k++ {
					out[k] = ' '
				}
				i = j
				break
			}
		}
	}
	return string(out)
}
