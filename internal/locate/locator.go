// Package locate finds target content nodes across a page snapshot: the
// primary document, nested sub-documents, and shadow trees.
package locate

import (
	"sort"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"promoscan/internal/dom"
)

// Pattern is an opaque selector/heuristic bundle describing one content
// shape. Selectors form a fallback chain: the first selector that matches
// anything within a scope wins for that scope.
type Pattern struct {
	// Name is the structural slot identifier carried into records.
	Name string
	// Selectors tried in order until one yields nodes.
	Selectors []string
	// IndexAttr, when set, names an explicit ordering attribute (e.g.
	// data-swiper-slide-index). Nodes without it keep DOM order.
	IndexAttr string
	// Max bounds the number of matches reported; 0 means unbounded.
	Max int
}

// Match is one located node together with the scope it came from.
type Match struct {
	Scope *dom.Scope
	Node  *goquery.Selection
}

// Locate returns matching nodes for a pattern, in deterministic order. The
// primary tree is consulted first; nested scopes are only reported when the
// primary tree yields nothing. Each call is self-contained, no state is
// retained between calls. Any panic out of selector evaluation resolves to
// "no match".
func Locate(snap *dom.Snapshot, pat Pattern) []Match {
	for _, scope := range snap.Walk() {
		if matches := scopeMatches(scope, pat); len(matches) > 0 {
			return matches
		}
	}
	return nil
}

func scopeMatches(scope *dom.Scope, pat Pattern) (out []Match) {
	// A scope disappearing or a selector blowing up mid-traversal is a
	// re-render race, not an error.
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()
	for _, selector := range pat.Selectors {
		sel := scope.Find(selector)
		if sel == nil || sel.Length() == 0 {
			continue
		}
		sel.Each(func(_ int, node *goquery.Selection) {
			out = append(out, Match{Scope: scope, Node: node})
		})
		break
	}
	out = orderMatches(out, pat.IndexAttr)
	if pat.Max > 0 && len(out) > pat.Max {
		out = out[:pat.Max]
	}
	return out
}

// orderMatches sorts by the explicit index attribute when present, keeping
// DOM order for nodes that lack it.
func orderMatches(matches []Match, indexAttr string) []Match {
	if indexAttr == "" || len(matches) < 2 {
		return matches
	}
	type keyed struct {
		index int
		match Match
	}
	ordered := make([]keyed, 0, len(matches))
	for i, m := range matches {
		idx := i
		if v, ok := m.Node.Attr(indexAttr); ok {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				idx = n
			}
		}
		ordered = append(ordered, keyed{index: idx, match: m})
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].index < ordered[j].index })
	out := make([]Match, len(ordered))
	for i, k := range ordered {
		out[i] = k.match
	}
	return out
}

// First returns the first match for a pattern, or a zero Match when nothing
// matched anywhere in the snapshot.
func First(snap *dom.Snapshot, pat Pattern) (Match, bool) {
	matches := Locate(snap, pat)
	if len(matches) == 0 {
		return Match{}, false
	}
	return matches[0], true
}
