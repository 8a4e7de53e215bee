package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// consentJS clicks a cookie-consent accept button wherever one hides: known
// CMP selectors, buttons matched by text, shadow roots, and same-origin
// consent iframes. Returns whether anything was clicked.
const consentJS = `(() => {
  const texts = ["aceptar todas", "aceptar todo", "aceptar", "accept all", "accept", "agree", "allow all"];
  const tryClick = (btn) => {
    if (!btn) return false;
    try { btn.click(); return true; } catch (e) { return false; }
  };
  const selectors = [
    "#onetrust-accept-btn-handler",
    "#onetrust-accept-all-handler",
    "#CybotCookiebotDialogBodyLevelButtonAccept",
    ".osano-cm-accept-all",
    ".truste_button_2",
    ".qc-cmp2-summary-buttons .qc-cmp2-summary-buttons__button--accept-all",
    "button[aria-label*='aceptar' i]",
    "button[aria-label*='accept' i]",
  ];
  const byText = (root) => {
    const btns = root.querySelectorAll ? root.querySelectorAll("button, [role='button'], a") : [];
    for (const b of btns) {
      const t = (b.innerText || b.textContent || "").trim().toLowerCase();
      if (t && texts.some(n => t.includes(n)) && tryClick(b)) return true;
    }
    return false;
  };
  for (const sel of selectors) {
    const el = document.querySelector(sel);
    if (el && tryClick(el)) return true;
  }
  if (byText(document)) return true;
  // shadow roots
  const seen = new Set();
  const walk = (root) => {
    if (!root || seen.has(root)) return false;
    seen.add(root);
    if (byText(root)) return true;
    const nodes = root.querySelectorAll ? root.querySelectorAll("*") : [];
    for (const n of nodes) {
      if (n.shadowRoot && walk(n.shadowRoot)) return true;
    }
    return false;
  };
  if (walk(document)) return true;
  // same-origin consent iframes
  for (const fr of document.querySelectorAll("iframe")) {
    try {
      const doc = fr.contentDocument || (fr.contentWindow && fr.contentWindow.document);
      if (doc && byText(doc)) return true;
    } catch (e) {}
  }
  return false;
})()`

// AcceptConsent dismisses a cookie banner if one is showing. Failure to find
// one is the normal case and never an error.
func (s *Session) AcceptConsent(ctx context.Context) {
	tctx, cancel := context.WithTimeout(s.pageCtx, 5*time.Second)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var clicked bool
	if err := chromedp.Run(tctx, chromedp.Evaluate(consentJS, &clicked)); err != nil {
		s.logger.Debug("consent dismissal skipped", zap.Error(err))
		return
	}
	if clicked {
		s.logger.Info("cookie consent accepted")
	}
}

// triggerJS fires the gestures that late promotional overlays listen for:
// deep scroll and back, an exit-intent mouseout at the viewport edge, and a
// blur/focus cycle.
const triggerJS = `(() => {
  try {
    window.scrollTo(0, 1200);
    setTimeout(() => window.scrollTo(0, 0), 300);
    document.dispatchEvent(new MouseEvent("mouseout", {bubbles: true, cancelable: true, relatedTarget: null, clientY: 0}));
    window.dispatchEvent(new Event("blur"));
    window.dispatchEvent(new Event("focus"));
  } catch (e) {}
  return true;
})()`

// TriggerOverlays nudges the page into showing popups that only appear on
// user activity.
func (s *Session) TriggerOverlays(ctx context.Context) {
	tctx, cancel := context.WithTimeout(s.pageCtx, 5*time.Second)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var ok bool
	_ = chromedp.Run(tctx,
		chromedp.Evaluate(triggerJS, &ok),
		chromedp.Sleep(700*time.Millisecond),
	)
}
