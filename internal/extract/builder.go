package extract

import (
	"strconv"
	"strings"

	"promoscan/internal/domain"
	"promoscan/internal/resolve"
)

// Builder assembles normalized records for one scan. The scan context is
// fixed at construction; records come out as immutable values.
type Builder struct {
	scan domain.ScanContext
	date string
}

func NewBuilder(scan domain.ScanContext) *Builder {
	return &Builder{scan: scan, date: domain.Today()}
}

// Record builds one content row. The URL is sanitized again here so a raw
// pseudo-link can never reach the store, whichever path produced it.
func (b *Builder) Record(item, slotID string, elements int, text, imageURL, linkURL string, position int) domain.Record {
	return domain.Record{
		Date:          b.date,
		Locale:        b.scan.Locale,
		Site:          b.scan.Site,
		Item:          item,
		SlotID:        slotID,
		AnalyticsSlot: domain.AnalyticsSlotFor(item, position),
		ElementCount:  strconv.Itoa(elements),
		Text:          strings.TrimSpace(text),
		ImageURL:      strings.TrimSpace(imageURL),
		URL:           resolve.SanitizeLink(linkURL),
		Position:      position,
	}
}

// Placeholder builds a position-0 diagnostic row: "we looked and found
// nothing" recorded positively instead of as silence.
func (b *Builder) Placeholder(item, slotID, reason string) domain.Record {
	return domain.Record{
		Date:          b.date,
		Locale:        b.scan.Locale,
		Site:          b.scan.Site,
		Item:          item,
		SlotID:        slotID,
		AnalyticsSlot: domain.AnalyticsSlotFor(item, 0),
		ElementCount:  "0",
		Text:          reason,
		Position:      0,
	}
}
