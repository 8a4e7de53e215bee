// Package extract walks the storefront pages of one locale and turns their
// promotional surfaces into normalized records. Navigation failures never
// abort a run: each slot degrades to a diagnostic row and the walk goes on.
package extract

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"promoscan/internal/dom"
	"promoscan/internal/domain"
	"promoscan/internal/locate"
	"promoscan/internal/monitoring"
	"promoscan/internal/resolve"
)

// Navigator is the browser surface the pipeline drives. *browser.Session
// satisfies it; tests substitute a canned implementation.
type Navigator interface {
	Navigate(ctx context.Context, url string) bool
	Settle(ctx context.Context, d time.Duration)
	AcceptConsent(ctx context.Context)
	TriggerOverlays(ctx context.Context)
	Capture(ctx context.Context) (*dom.Snapshot, error)
}

type Pipeline struct {
	nav         Navigator
	pages       []PageSpec
	logger      *zap.Logger
	metrics     *monitoring.Metrics
	settleFloor time.Duration
}

func NewPipeline(nav Navigator, pages []PageSpec, logger *zap.Logger, m *monitoring.Metrics) *Pipeline {
	return &Pipeline{nav: nav, pages: pages, logger: logger, metrics: m}
}

// WithSettleFloor raises every page's post-navigation settle delay to at
// least d. Page-specific delays above the floor are kept.
func (p *Pipeline) WithSettleFloor(d time.Duration) *Pipeline {
	p.settleFloor = d
	return p
}

// Run scans every cataloged page for one locale and returns the collected
// records. The slice is never nil-sparse: every mandatory slot contributes
// at least one row, real or placeholder.
func (p *Pipeline) Run(ctx context.Context, locale string) []domain.Record {
	var out []domain.Record
	for _, page := range p.pages {
		if ctx.Err() != nil {
			break
		}
		out = append(out, p.scanPage(ctx, page, locale)...)
	}
	return out
}

func (p *Pipeline) scanPage(ctx context.Context, page PageSpec, locale string) []domain.Record {
	builder := NewBuilder(page.Scan(locale))
	log := p.logger.With(zap.String("page", page.Label), zap.String("locale", locale))

	if !p.nav.Navigate(ctx, page.URL(locale)) {
		log.Warn("page unreachable, recording placeholders")
		return p.missAll(builder, page, "Timeout loading page")
	}
	p.nav.AcceptConsent(ctx)
	if page.Overlays {
		p.nav.TriggerOverlays(ctx)
	}
	settle := page.Settle
	if p.settleFloor > settle {
		settle = p.settleFloor
	}
	p.nav.Settle(ctx, settle)

	snap, err := p.nav.Capture(ctx)
	if err != nil || snap == nil {
		log.Warn("snapshot failed, recording placeholders", zap.Error(err))
		return p.missAll(builder, page, "Snapshot unavailable")
	}

	var out []domain.Record
	for _, slot := range page.Slots {
		rows := p.extractSlot(snap, builder, slot)
		log.Info("slot scanned", zap.String("item", slot.Item), zap.Int("rows", len(rows)))
		out = append(out, rows...)
	}
	return out
}

// missAll covers every non-optional slot of a page with one diagnostic row.
func (p *Pipeline) missAll(builder *Builder, page PageSpec, reason string) []domain.Record {
	var out []domain.Record
	for _, slot := range page.Slots {
		if slot.Optional {
			continue
		}
		p.metrics.PlaceholderRows.Inc()
		out = append(out, builder.Placeholder(slot.Item, slot.SlotID, reason))
	}
	return out
}

func (p *Pipeline) extractSlot(snap *dom.Snapshot, builder *Builder, slot SlotSpec) []domain.Record {
	matches := locate.Locate(snap, slot.Pattern)
	if len(matches) == 0 {
		if slot.Optional || !slot.PlaceholderOnMiss {
			return nil
		}
		p.metrics.PlaceholderRows.Inc()
		return []domain.Record{builder.Placeholder(slot.Item, slot.SlotID, slot.MissReason)}
	}

	host := builder.scan.BaseHost

	type cell struct{ text, img, link string }
	var cells []cell
	seen := make(map[string]struct{})
	for _, m := range matches {
		// Concealed nodes are misses: the snapshot marks everything the
		// page had styled away with data-hidden.
		if hiddenNode(m.Node) {
			continue
		}
		c := cell{
			text: slotText(m.Node, slot),
			img:  slotImage(m.Node, slot, host),
			link: slotLink(m.Node, slot, host),
		}
		if c.text == "" {
			c.text = slot.FallbackText
		}
		if c.img == "" {
			c.img = slot.FallbackImage
		}
		if slot.SkipEmpty && c.img == "" && c.link == "" {
			continue
		}
		if slot.RequireFull && (c.text == "" || c.img == "" || c.link == "") {
			continue
		}
		if slot.Dedupe {
			key := c.img + "|" + c.link
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		cells = append(cells, c)
		if slot.MaxRows > 0 && len(cells) == slot.MaxRows {
			break
		}
	}

	if len(cells) == 0 {
		if slot.Optional || !slot.PlaceholderOnMiss {
			return nil
		}
		p.metrics.PlaceholderRows.Inc()
		return []domain.Record{builder.Placeholder(slot.Item, slot.SlotID, slot.MissReason)}
	}

	out := make([]domain.Record, 0, len(cells))
	for i, c := range cells {
		out = append(out, builder.Record(slot.Item, slot.SlotID, len(cells), c.text, c.img, c.link, i+1))
	}
	p.metrics.RecordsExtracted.WithLabelValues(slot.Item).Add(float64(len(out)))
	return out
}

func hiddenNode(sel *goquery.Selection) bool {
	return sel.Closest("[data-hidden]").Length() > 0
}

func slotText(node *goquery.Selection, slot SlotSpec) string {
	if slot.TextSelector != "" {
		if t := resolve.Text(node.Find(slot.TextSelector)); t != "" {
			return t
		}
	}
	if slot.TextFromNode {
		return resolve.Text(node)
	}
	return ""
}

func slotImage(node *goquery.Selection, slot SlotSpec, host string) string {
	if slot.ImageSelector != "" {
		if sub := node.Find(slot.ImageSelector); sub.Length() > 0 {
			if img := resolve.Image(sub, host); img != "" {
				return img
			}
		}
	}
	return resolve.Image(node, host)
}

func slotLink(node *goquery.Selection, slot SlotSpec, host string) string {
	if slot.LinkSelector != "" {
		sub := node.Find(slot.LinkSelector)
		if sub.Length() == 0 {
			return ""
		}
		return resolve.Link(sub, host)
	}
	return resolve.Link(node, host)
}
