package resolve

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const testHost = "www.asus.com/pe/"

func selection(t *testing.T, html, selector string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	sel := doc.Find(selector)
	require.Positive(t, sel.Length(), "selector %q matched nothing", selector)
	return sel
}

func TestChooseFromSrcset(t *testing.T) {
	tests := []struct {
		name   string
		srcset string
		want   string
	}{
		{
			name:   "cdn at unit density wins",
			srcset: "https://other.example.com/a.jpg 1x, https://dlcdnwebimgs.asus.com/b.webp 2x, https://dlcdnwebimgs.asus.com/c.webp 1x",
			want:   "https://dlcdnwebimgs.asus.com/c.webp",
		},
		{
			name:   "first cdn when none at unit density",
			srcset: "https://other.example.com/a.jpg 1x, https://cdn.example.com/img/fwebp 2x",
			want:   "https://cdn.example.com/img/fwebp",
		},
		{
			name:   "first unit density when no cdn",
			srcset: "https://other.example.com/a.jpg 2x, https://other.example.com/b.jpg 1x",
			want:   "https://other.example.com/b.jpg",
		},
		{
			name:   "first candidate as last resort",
			srcset: "https://other.example.com/a.jpg 2x, https://other.example.com/b.jpg 3x",
			want:   "https://other.example.com/a.jpg",
		},
		{name: "empty", srcset: "", want: ""},
		{name: "whitespace only", srcset: " , ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, chooseFromSrcset(tt.srcset))
		})
	}
}

// Given a candidate set with one CDN-optimized URL at unit density and one
// generic URL, the CDN-optimized one is returned.
func TestImagePrefersCDNVariant(t *testing.T) {
	html := `<picture>
		<source srcset="https://generic.example.com/banner.jpg 1x, https://dlcdnwebimgs.asus.com/gain/abc/fwebp 1x">
		<img src="https://generic.example.com/fallback.jpg">
	</picture>`
	got := Image(selection(t, html, "picture"), testHost)
	require.Equal(t, "https://dlcdnwebimgs.asus.com/gain/abc/fwebp", got)
}

func TestImageLazyAttributeFallback(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "plain src",
			html: `<div class="slot"><img src="/gain/x.png"></div>`,
			want: "https://www.asus.com/gain/x.png",
		},
		{
			name: "data-src before data-lazy",
			html: `<div class="slot"><img data-lazy="/lazy.png" data-src="/eager.png"></div>`,
			want: "https://www.asus.com/eager.png",
		},
		{
			name: "data-original",
			html: `<div class="slot"><img data-original="//cdn.asus.com/o.png"></div>`,
			want: "https://cdn.asus.com/o.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Image(selection(t, tt.html, ".slot"), testHost))
		})
	}
}

func TestImageBackgroundStyle(t *testing.T) {
	html := `<div class="slot" style="background-image: url('/imgs/bg.webp')"></div>`
	require.Equal(t, "https://www.asus.com/imgs/bg.webp", Image(selection(t, html, ".slot"), testHost))

	// Computed style copied into data-bg-image by the snapshot capture.
	html = `<div class="slot" data-bg-image='url("https://dlcdnwebimgs.asus.com/bg.webp")'></div>`
	require.Equal(t, "https://dlcdnwebimgs.asus.com/bg.webp", Image(selection(t, html, ".slot"), testHost))
}

func TestImageNeverFails(t *testing.T) {
	require.Empty(t, Image(nil, testHost))
	require.Empty(t, Image(selection(t, `<div class="slot"><p>no image here</p></div>`, ".slot"), testHost))
}
