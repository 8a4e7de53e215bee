package domain

import (
	"strconv"
	"time"
)

// Columns is the sheet header in write order. Range writes depend on this
// order, so it must match the remote worksheet layout.
var Columns = []string{
	"DATE", "COUNTRY", "WEB", "ITEM", "HTML_SLOT", "GA4_SLOT", "ELEMENTS",
	"TEXT", "IMAGE_URL", "URL", "PRODUCT_NAME", "PRODUCT_PRICE", "POSITION",
}

// Record is one extracted slot, one row of output. It is built once and
// treated as an immutable value from then on.
type Record struct {
	Date          string
	Locale        string
	Site          string
	Item          string
	SlotID        string
	AnalyticsSlot string
	ElementCount  string
	Text          string
	ImageURL      string
	URL           string
	ProductName   string
	ProductPrice  string
	// Position is the 1-based ordinal within the container. 0 marks a
	// placeholder row (timeout or content not found).
	Position int
}

// Key is the natural key used for update-vs-append decisions. All fields are
// strings because the comparison happens against raw sheet cells; Date is
// truncated to its 10-char ISO prefix.
type Key struct {
	Date     string
	Locale   string
	Item     string
	Position string
}

func NewKey(date, locale, item, position string) Key {
	if len(date) > 10 {
		date = date[:10]
	}
	return Key{Date: date, Locale: locale, Item: item, Position: position}
}

func (r Record) Key() Key {
	return NewKey(r.Date, r.Locale, r.Item, strconv.Itoa(r.Position))
}

// Row renders the record as sheet cells in Columns order.
func (r Record) Row() []string {
	return []string{
		r.Date, r.Locale, r.Site, r.Item, r.SlotID, r.AnalyticsSlot,
		r.ElementCount, r.Text, r.ImageURL, r.URL, r.ProductName,
		r.ProductPrice, strconv.Itoa(r.Position),
	}
}

// Cell returns the record value for a canonical column name.
func (r Record) Cell(column string) string {
	switch column {
	case "DATE":
		return r.Date
	case "COUNTRY":
		return r.Locale
	case "WEB":
		return r.Site
	case "ITEM":
		return r.Item
	case "HTML_SLOT":
		return r.SlotID
	case "GA4_SLOT":
		return r.AnalyticsSlot
	case "ELEMENTS":
		return r.ElementCount
	case "TEXT":
		return r.Text
	case "IMAGE_URL":
		return r.ImageURL
	case "URL":
		return r.URL
	case "PRODUCT_NAME":
		return r.ProductName
	case "PRODUCT_PRICE":
		return r.ProductPrice
	case "POSITION":
		return strconv.Itoa(r.Position)
	}
	return ""
}

// Today is the date stamp format used in the DATE column (no time of day).
func Today() string {
	return time.Now().Format("2006-01-02")
}

// ScanContext identifies the market and site a pipeline is scanning. It is
// passed explicitly into every resolver and locator call instead of living in
// shared mutable state, so pipelines stay independently runnable.
type ScanContext struct {
	Locale   string // market code, e.g. "PE"
	Site     string // logical site label, e.g. "www.asus.com/pe/"
	BaseHost string // host used to absolutize relative URLs
}
