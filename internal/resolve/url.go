package resolve

import "strings"

// AbsoluteURL resolves raw against the site's known host. The host may carry
// a path suffix ("www.asus.com/pe/"); only the host part is used. Already
// absolute and protocol-relative URLs pass through untouched.
func AbsoluteURL(baseHost, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	host := baseHost
	if i := strings.Index(host, "/"); i >= 0 {
		host = host[:i]
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return "https://" + host + raw
}

// SanitizeLink discards script-execution pseudo-links and bare fragment
// markers. Sanitizing an already sanitized link is a no-op.
func SanitizeLink(link string) string {
	l := strings.TrimSpace(link)
	if l == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(l), "javascript:") {
		return ""
	}
	if l == "#" || l == "##" {
		return ""
	}
	return l
}
