// Package rels answers "what relates to what" questions about one document.
//
// Every requested group is present in the result, with Empty set when it
// holds nothing; groups that were not requested are nil.
package rels

import (
	"context"
	"fmt"

	"github.com/aidanlsb/tendr/internal/graph"
	"github.com/aidanlsb/tendr/internal/semtree"
	"github.com/aidanlsb/tendr/internal/vault"
	"github.com/aidanlsb/tendr/internal/wikirefs"
)

// Item is one related document.
type Item struct {
	ID    string `json:"id"`
	Type  string `json:"type,omitempty"`
	Label string `json:"label,omitempty"`
	Line  int    `json:"line,omitempty"`
	// Zombie is set when the relationship points at a missing document.
	Zombie bool `json:"zombie,omitempty"`
}

// List is an ordered group of items.
type List struct {
	Items []Item `json:"items"`
	Empty bool   `json:"empty"`
}

// AttrGroup holds the attribute references sharing one type label.
type AttrGroup struct {
	Type  string `json:"type"`
	Items []Item `json:"items"`
}

// AttrGroups are ordered by the first appearance of each type label.
type AttrGroups struct {
	Groups []AttrGroup `json:"groups"`
	Empty  bool        `json:"empty"`
}

// Refs holds the reference groups for one direction.
type Refs struct {
	Attrs  *AttrGroups `json:"attrs,omitempty"`
	Links  *List       `json:"links,omitempty"`
	Embeds *List       `json:"embeds,omitempty"`
}

// Family holds tree relationships.
type Family struct {
	Ancestors *List `json:"ancestors,omitempty"`
	Children  *List `json:"children,omitempty"`
	// Error describes why no tree was available.
	Error string `json:"error,omitempty"`
}

// Result is the answer to a relationship query.
type Result struct {
	ID    string `json:"id"`
	Found bool   `json:"found"`
	// Doctype is only set for documents that exist.
	Doctype     string   `json:"doctype,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Fam         *Family  `json:"fam,omitempty"`
	Fore        *Refs    `json:"fore,omitempty"`
	Back        *Refs    `json:"back,omitempty"`
}

// Engine runs relationship queries.
type Engine struct {
	Graph *graph.Builder
	// Tree may be nil when the garden has no usable hierarchy; TreeErr then
	// says why.
	Tree    *semtree.Tree
	TreeErr error
	// Doctype classifies existing documents. Nil leaves Result.Doctype empty.
	Doctype func(doc *vault.Document) string
}

// Query computes the relationships of id selected by f. A missing document
// is not an error: Found is false, forward groups are empty and backward
// groups are computed as usual.
func (e *Engine) Query(ctx context.Context, id string, f Filter) (*Result, error) {
	corpus := e.Graph.Corpus
	res := &Result{ID: id}

	doc, ok := corpus.Get(id)
	if ok {
		res.Found = true
		if e.Doctype != nil {
			res.Doctype = e.Doctype(doc)
		}
	} else {
		res.Suggestions = corpus.Suggest(id)
	}

	if f.Fam() {
		res.Fam = e.family(id, f, corpus)
	}
	if f.Fore() {
		var refs []graph.Ref
		if ok {
			refs = e.Graph.Forward(doc)
		}
		res.Fore = group(refs, f.ForeAttr, f.ForeLink, f.ForeEmbed, func(r graph.Ref) string { return r.Target })
	}
	if f.Back() {
		refs, err := e.Graph.Backward(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("backward references for %q: %w", id, err)
		}
		res.Back = group(refs, f.BackAttr, f.BackLink, f.BackEmbed, func(r graph.Ref) string { return r.Source })
	}
	return res, nil
}

func (e *Engine) family(id string, f Filter, corpus *vault.Corpus) *Family {
	fam := &Family{}
	var node *semtree.Node
	switch {
	case e.Tree != nil:
		node, _ = e.Tree.Node(id)
	case e.TreeErr != nil:
		fam.Error = e.TreeErr.Error()
	default:
		fam.Error = "no tree available"
	}

	if f.Ancestors {
		var ids []string
		if node != nil {
			ids = node.Ancestors
		}
		fam.Ancestors = idList(ids, corpus)
	}
	if f.Children {
		var ids []string
		if node != nil {
			ids = node.Children
		}
		fam.Children = idList(ids, corpus)
	}
	return fam
}

func idList(ids []string, corpus *vault.Corpus) *List {
	l := &List{Items: []Item{}}
	for _, id := range ids {
		l.Items = append(l.Items, Item{ID: id, Zombie: !corpus.Has(id)})
	}
	l.Empty = len(l.Items) == 0
	return l
}

// group splits refs by kind. other picks the document on the far side of
// each reference.
func group(refs []graph.Ref, attrs, links, embeds bool, other func(graph.Ref) string) *Refs {
	out := &Refs{}
	if attrs {
		out.Attrs = &AttrGroups{Groups: []AttrGroup{}}
	}
	if links {
		out.Links = &List{Items: []Item{}}
	}
	if embeds {
		out.Embeds = &List{Items: []Item{}}
	}

	index := map[string]int{}
	for _, r := range refs {
		it := Item{ID: other(r), Type: r.Type, Label: r.Label, Line: r.Line, Zombie: !r.Resolved}
		switch r.Kind {
		case wikirefs.KindAttr:
			if out.Attrs == nil {
				continue
			}
			i, seen := index[r.Type]
			if !seen {
				i = len(out.Attrs.Groups)
				index[r.Type] = i
				out.Attrs.Groups = append(out.Attrs.Groups, AttrGroup{Type: r.Type})
			}
			it.Type = ""
			out.Attrs.Groups[i].Items = append(out.Attrs.Groups[i].Items, it)
		case wikirefs.KindLink:
			if out.Links != nil {
				out.Links.Items = append(out.Links.Items, it)
			}
		case wikirefs.KindEmbed:
			if out.Embeds != nil {
				out.Embeds.Items = append(out.Embeds.Items, it)
			}
		}
	}

	if out.Attrs != nil {
		out.Attrs.Empty = len(out.Attrs.Groups) == 0
	}
	if out.Links != nil {
		out.Links.Empty = len(out.Links.Items) == 0
	}
	if out.Embeds != nil {
		out.Embeds.Empty = len(out.Embeds.Items) == 0
	}
	return out
}
