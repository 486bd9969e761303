package rels

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned by ParseKind for names outside Kinds.
var ErrUnknownKind = errors.New("unknown relationship kind")

// Kinds lists every relationship kind name.
//
//	fam  = ancestor + child         (tree relationships)
//	ref  = attr + link + embed      (web relationships, both directions)
//	rel  = fam + ref
//	fore = foreref, back = backref
var Kinds = []string{
	"rel",
	"fam", "ancestor", "child",
	"ref", "attr", "link", "embed",
	"fore", "foreref", "foreattr", "forelink", "foreembed",
	"back", "backref", "backattr", "backlink", "backembed",
}

// Filter selects which relationship groups a query computes.
type Filter struct {
	Ancestors bool
	Children  bool

	ForeAttr  bool
	ForeLink  bool
	ForeEmbed bool

	BackAttr  bool
	BackLink  bool
	BackEmbed bool
}

// Fam reports whether any tree relationship is requested.
func (f Filter) Fam() bool { return f.Ancestors || f.Children }

// Fore reports whether any forward reference kind is requested.
func (f Filter) Fore() bool { return f.ForeAttr || f.ForeLink || f.ForeEmbed }

// Back reports whether any backward reference kind is requested.
func (f Filter) Back() bool { return f.BackAttr || f.BackLink || f.BackEmbed }

// ParseKind converts a kind name into a Filter. The empty string means "ref".
func ParseKind(kind string) (Filter, error) {
	k := strings.ToLower(strings.TrimSpace(kind))
	if k == "" {
		k = "ref"
	}

	var f Filter
	switch k {
	case "rel":
		f = Filter{Ancestors: true, Children: true}
		f.setFore(true, true, true)
		f.setBack(true, true, true)
	case "fam":
		f = Filter{Ancestors: true, Children: true}
	case "ancestor":
		f.Ancestors = true
	case "child":
		f.Children = true
	case "ref":
		f.setFore(true, true, true)
		f.setBack(true, true, true)
	case "attr":
		f.ForeAttr, f.BackAttr = true, true
	case "link":
		f.ForeLink, f.BackLink = true, true
	case "embed":
		f.ForeEmbed, f.BackEmbed = true, true
	case "fore", "foreref":
		f.setFore(true, true, true)
	case "foreattr":
		f.ForeAttr = true
	case "forelink":
		f.ForeLink = true
	case "foreembed":
		f.ForeEmbed = true
	case "back", "backref":
		f.setBack(true, true, true)
	case "backattr":
		f.BackAttr = true
	case "backlink":
		f.BackLink = true
	case "backembed":
		f.BackEmbed = true
	default:
		return Filter{}, fmt.Errorf("%w %q (valid: %s)", ErrUnknownKind, kind, strings.Join(Kinds, ", "))
	}
	return f, nil
}

func (f *Filter) setFore(attr, link, embed bool) {
	f.ForeAttr, f.ForeLink, f.ForeEmbed = attr, link, embed
}

func (f *Filter) setBack(attr, link, embed bool) {
	f.BackAttr, f.BackLink, f.BackEmbed = attr, link, embed
}
