package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"promoscan/internal/dom"
)

// captureJS serializes the rendered page into a scope tree: the primary
// document, every open shadow root, and every same-origin sub-document,
// recursively. Cross-origin frames throw on access and are skipped silently.
// A visited set plus a hard scope cap keep trees with back-references to an
// ancestor from recursing forever. Computed style the static side cannot
// recover is copied into attributes: background images into data-bg-image,
// and display:none/visibility:hidden into data-hidden so concealed dialogs
// are not mistaken for live content.
const captureJS = `(() => {
  const MAX_SCOPES = 256;
  let count = 0;
  const seen = new Set();

  const inlineComputed = (root) => {
    const nodes = root.querySelectorAll ? root.querySelectorAll("*") : [];
    for (const el of nodes) {
      try {
        const cs = getComputedStyle(el);
        const bg = cs.backgroundImage;
        if (bg && bg !== "none") el.setAttribute("data-bg-image", bg);
        if (cs.display === "none" || cs.visibility === "hidden") {
          el.setAttribute("data-hidden", "1");
        }
      } catch (e) {}
    }
  };

  const capture = (root, kind, id) => {
    if (!root || seen.has(root) || count >= MAX_SCOPES) return null;
    seen.add(root);
    count++;
    try { inlineComputed(root); } catch (e) {}

    let html = "";
    try {
      html = root.documentElement ? root.documentElement.outerHTML : root.innerHTML;
    } catch (e) {}

    const scope = {id: id, kind: kind, html: html, children: []};
    let si = 0;
    const nodes = root.querySelectorAll ? root.querySelectorAll("*") : [];
    for (const el of nodes) {
      if (el.shadowRoot) {
        const child = capture(el.shadowRoot, "shadow", id + "/shadow-" + si++);
        if (child) scope.children.push(child);
      }
    }
    let fi = 0;
    const frames = root.querySelectorAll ? root.querySelectorAll("iframe, frame") : [];
    for (const fr of frames) {
      try {
        const doc = fr.contentDocument || (fr.contentWindow && fr.contentWindow.document);
        if (!doc) continue;
        const child = capture(doc, "frame", id + "/frame-" + fi++);
        if (child) scope.children.push(child);
      } catch (e) {}
    }
    return scope;
  };

  return capture(document, "document", "main");
})()`

// Capture freezes the current page state into a static snapshot the locator
// and resolvers work on. Extraction never touches the live DOM after this,
// so re-render races cannot reach it.
func (s *Session) Capture(ctx context.Context) (*dom.Snapshot, error) {
	tctx, cancel := context.WithTimeout(s.pageCtx, 15*time.Second)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var raw dom.RawScope
	if err := chromedp.Run(tctx, chromedp.Evaluate(captureJS, &raw)); err != nil {
		return nil, fmt.Errorf("capture page snapshot: %w", err)
	}
	return dom.Parse(&raw), nil
}
