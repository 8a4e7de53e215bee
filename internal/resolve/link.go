package resolve

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// dataLinkAttrs are the conventional data-attributes that sites stash a
// navigation target in when the element is not a real anchor.
var dataLinkAttrs = []string{
	"data-url", "data-href", "data-link", "data-destination",
	"data-ga-link", "data-target", "data-to",
}

// maxAncestorHops bounds the upward walk when hunting for data-attributes or
// inline click handlers.
const maxAncestorHops = 8

var (
	onclickCallRe   = regexp.MustCompile(`(?:location\.href|window\.open)\s*\(\s*['"]([^'"]+)['"]`)
	onclickAssignRe = regexp.MustCompile(`location\.href\s*=\s*['"]([^'"]+)['"]`)
)

// onclickTarget extracts a navigation target from an inline click-handler
// body, recognizing location.href assignment and window.open/location.href
// call literals.
func onclickTarget(handler string) string {
	if handler == "" {
		return ""
	}
	if m := onclickCallRe.FindStringSubmatch(handler); m != nil {
		return m[1]
	}
	if m := onclickAssignRe.FindStringSubmatch(handler); m != nil {
		return m[1]
	}
	return ""
}

// linkStrategy tries one way of finding a navigation target for a node.
type linkStrategy func(sel *goquery.Selection) string

// linkStrategies is the fallback chain, evaluated left to right; the first
// strategy producing a non-empty sanitized value wins.
var linkStrategies = []linkStrategy{
	closestAnchor,
	ancestorDataAttrs,
	descendantAnchor,
	clickableHandler,
	enclosingFormAction,
}

// Link returns the most plausible navigation target for a node, sanitized
// and absolutized against the site host. Never panics; "" on total failure.
func Link(sel *goquery.Selection, baseHost string) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	for _, strategy := range linkStrategies {
		if raw := SanitizeLink(strategy(sel)); raw != "" {
			return AbsoluteURL(baseHost, raw)
		}
	}
	return ""
}

// closestAnchor: nearest enclosing (or self) anchor with an href.
func closestAnchor(sel *goquery.Selection) string {
	a := sel.Closest("a[href]")
	if a.Length() == 0 {
		return ""
	}
	href, _ := a.Attr("href")
	return href
}

// ancestorDataAttrs walks the node and up to maxAncestorHops ancestors
// looking for a data-attribute target or an inline onclick handler.
func ancestorDataAttrs(sel *goquery.Selection) string {
	n := sel
	for hop := 0; hop < maxAncestorHops && n.Length() > 0; hop++ {
		for _, attr := range dataLinkAttrs {
			if v, ok := n.Attr(attr); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		for _, attr := range []string{"onclick", "onClick"} {
			if v, ok := n.Attr(attr); ok {
				if target := onclickTarget(v); target != "" {
					return target
				}
			}
		}
		n = n.Parent()
	}
	return ""
}

func descendantAnchor(sel *goquery.Selection) string {
	a := sel.Find("a[href]").First()
	if a.Length() == 0 {
		return ""
	}
	href, _ := a.Attr("href")
	return href
}

// clickableHandler checks descendant and then ancestor clickable controls for
// an inline click handler with a parseable target.
func clickableHandler(sel *goquery.Selection) string {
	btn := sel.Find(`button[onclick], [role="button"][onclick]`).First()
	if btn.Length() > 0 {
		if v, ok := btn.Attr("onclick"); ok {
			if target := onclickTarget(v); target != "" {
				return target
			}
		}
	}
	up := sel.Closest(`button[onclick], [role="button"][onclick]`)
	if up.Length() > 0 {
		if v, ok := up.Attr("onclick"); ok {
			return onclickTarget(v)
		}
	}
	return ""
}

func enclosingFormAction(sel *goquery.Selection) string {
	form := sel.Closest("form[action]")
	if form.Length() == 0 {
		form = sel.Find("form[action]").First()
	}
	if form.Length() == 0 {
		return ""
	}
	action, _ := form.Attr("action")
	return action
}

// Text extracts the visible text of a node collapsed to single spaces.
func Text(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return strings.Join(strings.Fields(sel.Text()), " ")
}
