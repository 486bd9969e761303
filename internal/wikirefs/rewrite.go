package wikirefs

import (
	"sort"
	"strings"
)

type edit struct {
	start, end int
	text       string
}

// RenameTarget repoints every reference to oldName at newName.
func RenameTarget(oldName, newName, text string) string {
	return RenameTargets(map[string]string{oldName: newName}, text)
}

// RenameTargets repoints references using renames (old id -> new id).
//
// All substitutions are computed against text in a single scan and applied
// together, so a new id produced by one pair is never matched by another.
// Labels, directory parts, extensions and fragments around the id are kept.
func RenameTargets(renames map[string]string, text string) string {
	if len(renames) == 0 {
		return text
	}
	var edits []edit
	for _, ref := range Scan(text) {
		for _, t := range ref.Targets {
			if newName, ok := renames[t.Name]; ok && newName != t.Name {
				edits = append(edits, edit{start: t.Start, end: t.End, text: newName})
			}
		}
	}
	return applyEdits(text, edits)
}

// Retype renames the type label oldType to newType on every reference within
// scope (KindAttr, KindLink, or KindRef for both). Targets are left untouched.
func Retype(oldType, newType string, scope Kind, text string) string {
	if oldType == newType {
		return text
	}
	var edits []edit
	for _, ref := range ScanFiltered(text, Filter{Kind: scope}) {
		if ref.TypeStart < 0 || ref.Type != oldType {
			continue
		}
		edits = append(edits, edit{start: ref.TypeStart, end: ref.TypeEnd, text: newType})
	}
	return applyEdits(text, edits)
}

func applyEdits(text string, edits []edit) string {
	if len(edits) == 0 {
		return text
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var sb strings.Builder
	sb.Grow(len(text))
	last := 0
	for _, e := range edits {
		if e.start < last {
			continue
		}
		sb.WriteString(text[last:e.start])
		sb.WriteString(e.text)
		last = e.end
	}
	sb.WriteString(text[last:])
	return sb.String()
}
