package domain

import (
	"fmt"
	"strings"
)

// SlotPending is returned for every item without a GA4 slot mapping.
const SlotPending = "pending"

// AnalyticsSlotFor maps a business item label and slot position to the GA4
// slot name used by the analytics team. The mapping is total: unknown items
// map to "pending", never to an error. Positions <= 0 count as 1 for the
// numbered slots.
func AnalyticsSlotFor(item string, position int) string {
	if position <= 0 {
		position = 1
	}
	switch strings.ToLower(strings.TrimSpace(item)) {
	case "e-shop home pop up asus.com", "e-shop home pop up rog.com":
		return "ads_dialog"
	case "promotional slim banner home", "banner promotional rog.com":
		return "index_bar_banner_1"
	case "store promotion banner":
		return "store_bar_banner_1"
	case "store banner":
		return "store_home_1"
	case "store tabs", "deals page tab":
		return SlotPending
	case "home banner asus.com", "home banner rog.com":
		return fmt.Sprintf("hero_banner_%d", position)
	case "column banner":
		return fmt.Sprintf("column_banner_%d", position)
	case "news and promotions":
		return fmt.Sprintf("store_home_card_banner_%d", position)
	}
	return SlotPending
}
