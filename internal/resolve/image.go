package resolve

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// cdnMarkers identify the CDN/format-optimized image variants we prefer when
// a srcset offers alternatives.
var cdnMarkers = []string{"dlcdnwebimgs.asus.com", "/fwebp"}

// lazyAttrs are the conventional lazy-load attribute names checked, in order,
// when an <img> has no usable src.
var lazyAttrs = []string{"src", "data-src", "data-original", "data-lazy"}

var bgURLRe = regexp.MustCompile(`(?i)url\(["']?([^"')]+)["']?\)`)

func hasCDNMarker(u string) bool {
	for _, m := range cdnMarkers {
		if strings.Contains(u, m) {
			return true
		}
	}
	return false
}

// chooseFromSrcset picks the best candidate out of a srcset value:
// CDN-optimized at exactly 1x, else first CDN-optimized, else first 1x, else
// the first candidate. Empty srcsets yield "".
func chooseFromSrcset(srcset string) string {
	var parts []string
	for _, p := range strings.Split(srcset, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	preferred := ""
	for _, p := range parts {
		u := strings.Fields(p)[0]
		if hasCDNMarker(u) && strings.HasSuffix(p, " 1x") {
			return u
		}
		if hasCDNMarker(u) && preferred == "" {
			preferred = u
		}
	}
	if preferred != "" {
		return preferred
	}
	for _, p := range parts {
		if strings.HasSuffix(p, " 1x") {
			return strings.Fields(p)[0]
		}
	}
	return strings.Fields(parts[0])[0]
}

// imageStrategy tries one way of finding an image URL on a node. Empty string
// means "not found, try the next one".
type imageStrategy func(sel *goquery.Selection) string

var imageStrategies = []imageStrategy{
	srcsetImage,
	plainImage,
	backgroundImage,
}

// Image returns the single best image URL for a node, absolutized against
// the site host. It never panics; total failure yields "".
func Image(sel *goquery.Selection, baseHost string) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	for _, strategy := range imageStrategies {
		if u := strategy(sel); u != "" {
			return AbsoluteURL(baseHost, u)
		}
	}
	return ""
}

// srcsetImage handles responsive-image constructs: <picture>/<source> sets on
// the node or below it. All srcsets are considered, CDN candidates first.
func srcsetImage(sel *goquery.Selection) string {
	sources := sel.Find("source[srcset]")
	if sel.Is("source[srcset]") {
		sources = sources.AddSelection(sel)
	}
	if sources.Length() == 0 {
		return ""
	}
	var picks []string
	sources.Each(func(_ int, s *goquery.Selection) {
		if srcset, ok := s.Attr("srcset"); ok {
			if pick := chooseFromSrcset(srcset); pick != "" {
				picks = append(picks, pick)
			}
		}
	})
	for _, p := range picks {
		if hasCDNMarker(p) {
			return p
		}
	}
	if len(picks) > 0 {
		return picks[0]
	}
	return ""
}

// plainImage reads a plain <img> reference, trying the lazy-load attribute
// names in order.
func plainImage(sel *goquery.Selection) string {
	img := sel
	if !sel.Is("img") {
		img = sel.Find("img").First()
	}
	if img.Length() == 0 {
		return ""
	}
	for _, attr := range lazyAttrs {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// backgroundImage parses a CSS url(...) token out of the node's background.
// The snapshot capture copies the computed background-image into data-bg-image
// for elements styled via stylesheets; inline style attributes are also read.
func backgroundImage(sel *goquery.Selection) string {
	for _, attr := range []string{"data-bg-image", "style"} {
		v, ok := sel.Attr(attr)
		if !ok || v == "" || strings.EqualFold(v, "none") {
			continue
		}
		if m := bgURLRe.FindStringSubmatch(v); m != nil {
			return m[1]
		}
	}
	return ""
}
