// Package dom models a page snapshot as a tree of isolated scopes: the
// primary document, same-origin sub-documents, and serialized shadow trees.
// Locator and resolver logic runs on this static model instead of the live
// page, so DOM races downgrade to "not found" instead of propagating.
package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ScopeKind says which kind of isolated tree a scope came from.
type ScopeKind string

const (
	ScopePrimary ScopeKind = "document"
	ScopeFrame   ScopeKind = "frame"
	ScopeShadow  ScopeKind = "shadow"
)

// RawScope is the wire form produced by the in-page capture script. Children
// appear in document order; cross-origin frames are absent (the capture
// script skips frames it cannot read).
type RawScope struct {
	ID       string      `json:"id"`
	Kind     string      `json:"kind"`
	HTML     string      `json:"html"`
	Children []*RawScope `json:"children"`
}

// Scope is one parsed isolated tree.
type Scope struct {
	ID       string
	Kind     ScopeKind
	Children []*Scope

	doc *goquery.Document
}

// Find runs a selector query inside this scope. A scope whose HTML failed to
// parse matches nothing.
func (s *Scope) Find(selector string) *goquery.Selection {
	if s == nil || s.doc == nil {
		return nil
	}
	return s.doc.Find(selector)
}

// Snapshot is the full scope tree captured from one page at one instant.
type Snapshot struct {
	Root *Scope
}

// maxScopes caps the total number of scopes accepted from a capture. A tree
// exposing back-references to an ancestor must not expand without bound.
const maxScopes = 256

// Parse converts a raw capture into a Snapshot. Scope IDs already seen are
// dropped, which makes cycles through back-references harmless. Scopes with
// unparseable HTML stay in the tree but match nothing. A nil or empty capture
// yields an empty snapshot rather than an error.
func Parse(raw *RawScope) *Snapshot {
	if raw == nil {
		return &Snapshot{}
	}
	visited := make(map[string]bool)
	total := 0

	// Explicit work queue instead of recursive descent keeps depth bounded
	// on hostile trees. Parent linkage is rebuilt as children are accepted.
	type item struct {
		raw    *RawScope
		parent *Scope
	}
	var root *Scope
	queue := []item{{raw: raw}}
	for len(queue) > 0 && total < maxScopes {
		it := queue[0]
		queue = queue[1:]
		if it.raw == nil || visited[it.raw.ID] {
			continue
		}
		visited[it.raw.ID] = true
		total++

		scope := &Scope{ID: it.raw.ID, Kind: parseKind(it.raw.Kind)}
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(it.raw.HTML)); err == nil {
			scope.doc = doc
		}
		if it.parent == nil {
			root = scope
		} else {
			it.parent.Children = append(it.parent.Children, scope)
		}
		for _, child := range it.raw.Children {
			queue = append(queue, item{raw: child, parent: scope})
		}
	}
	return &Snapshot{Root: root}
}

func parseKind(kind string) ScopeKind {
	switch ScopeKind(kind) {
	case ScopeFrame:
		return ScopeFrame
	case ScopeShadow:
		return ScopeShadow
	}
	return ScopePrimary
}

// Walk yields scopes breadth-first starting at the root: the primary tree
// first, then nested scopes in document order.
func (s *Snapshot) Walk() []*Scope {
	if s == nil || s.Root == nil {
		return nil
	}
	var out []*Scope
	queue := []*Scope{s.Root}
	for len(queue) > 0 {
		scope := queue[0]
		queue = queue[1:]
		out = append(out, scope)
		queue = append(queue, scope.Children...)
	}
	return out
}

// FromHTML builds a single-scope snapshot from static HTML. Test seam, also
// used when a caller already has rendered markup in hand.
func FromHTML(html string) *Snapshot {
	return Parse(&RawScope{ID: "main", Kind: string(ScopePrimary), HTML: html})
}
