package extract

import (
	"strings"
	"time"

	"promoscan/internal/domain"
	"promoscan/internal/locate"
)

// Site identifies which storefront a page belongs to. The two fronts share
// country codes but not hostnames.
type Site string

const (
	SiteASUS Site = "www.asus.com"
	SiteROG  Site = "rog.asus.com"
)

// SlotSpec describes one content type on a page: where its nodes live and
// how rows are shaped from them.
type SlotSpec struct {
	Item    string
	SlotID  string
	Pattern locate.Pattern

	// TextSelector is resolved inside each matched node. TextFromNode
	// falls back to the node's own text when the selector yields nothing.
	TextSelector string
	TextFromNode bool

	// ImageSelector narrows image resolution to a sub-node first; the
	// whole node is retried when the sub-node has no usable image.
	ImageSelector string

	// LinkSelector restricts link resolution to one descendant, e.g. a
	// popup's call-to-action button. Empty means resolve from the node.
	LinkSelector string

	// FallbackText and FallbackImage fill empty cells of an otherwise
	// live row. Used for the membership popup whose copy is rendered as
	// an image with no readable text.
	FallbackText  string
	FallbackImage string

	MaxRows     int  // cap on emitted rows, 0 = unbounded
	SkipEmpty   bool // drop nodes with neither image nor link
	Dedupe      bool // collapse repeats of the same (image, link) pair
	RequireFull bool // emit only rows with text, image and link all set

	// Optional slots never produce placeholders: absence is normal for
	// them (regional promo bars that most storefronts do not run).
	Optional bool

	// PlaceholderOnMiss emits a diagnostic row when the page loaded fine
	// but the slot was not found. Slots without it go silent on a miss
	// and only surface a placeholder on navigation failure.
	PlaceholderOnMiss bool
	MissReason        string
}

// PageSpec groups the slots that are read from a single navigation.
type PageSpec struct {
	Label  string
	Site   Site
	Path   string
	Settle time.Duration

	// Overlays pages get the consent sweep plus the idle/exit gestures
	// that coax deferred popup dialogs into rendering.
	Overlays bool

	Slots []SlotSpec
}

// URL builds the storefront address for a locale. Country codes are
// lowercase path segments on both fronts.
func (p PageSpec) URL(locale string) string {
	return "https://" + string(p.Site) + "/" + strings.ToLower(locale) + "/" + p.Path
}

// Scan builds the scan context used for record attribution on this page.
func (p PageSpec) Scan(locale string) domain.ScanContext {
	host := string(p.Site) + "/" + strings.ToLower(locale) + "/"
	return domain.ScanContext{Locale: strings.ToUpper(locale), Site: host, BaseHost: host}
}

const (
	settleDefault = 1800 * time.Millisecond
	settlePopup   = 3500 * time.Millisecond

	heroMaxSlots = 6
)

// Catalog returns the page inventory in scan order. Popup dialogs get a
// navigation of their own because the trigger gestures disturb carousel
// state on the same page.
func Catalog() []PageSpec {
	return []PageSpec{
		{
			Label:    "asus-home-popup",
			Site:     SiteASUS,
			Settle:   settlePopup,
			Overlays: true,
			Slots: []SlotSpec{
				{
					Item:   "E-SHOP HOME POP UP ASUS.com",
					SlotID: "PB_type_lowerRightCorner",
					Pattern: locate.Pattern{
						Name: "asus-popup",
						Selectors: []string{
							".PB_promotionBanner.PB_corner.PB_promotionMode",
							"#ads_dialog, [id*='ads_dialog']",
							"[class*='PB_promotionBanner']",
						},
						Max: 1,
					},
					TextSelector:      ".PB_title",
					ImageSelector:     ".PB_picture",
					LinkSelector:      "a.PB_button",
					FallbackText:      "MY ASUS Regístrate",
					FallbackImage:     "https://dlcdnwebimgs.asus.com/gain/5f77fa18-e244-488e-adff-181cdd651945/fwebp",
					MaxRows:           1,
					PlaceholderOnMiss: true,
					MissReason:        "No visible",
				},
			},
		},
		{
			Label:  "asus-home",
			Site:   SiteASUS,
			Settle: settleDefault,
			Slots: []SlotSpec{
				{
					Item:   "PROMOTIONAL SLIM BANNER HOME",
					SlotID: "PromotionBanner__swiperContainer__",
					Pattern: locate.Pattern{
						Name: "slim-banner",
						Selectors: []string{
							"[class^='PromotionBanner__swiperContainer__'] .swiper-slide",
							"[class*='PromotionBanner__'] .swiper-slide",
							// A slideless container still counts as one
							// banner.
							"[class^='PromotionBanner__swiperContainer__']",
						},
					},
					TextSelector: "[class^='PromotionBanner__text__']",
					TextFromNode: true,
				},
				{
					Item:   "HOME BANNER ASUS.com",
					SlotID: "#heroBanner",
					Pattern: locate.Pattern{
						Name: "hero",
						Selectors: []string{
							"#heroBanner .swiper-slide, #liBanner .swiper-slide",
							"[id*='hero'][class*='Banner'] .swiper-slide, [class*='Hero'][class*='Banner'] .swiper-slide",
							".swiper-slide, .slick-slide, [role='tabpanel'][id*='Slide'], [data-swiper-slide-index]",
						},
						IndexAttr: "data-swiper-slide-index",
					},
					MaxRows:   heroMaxSlots,
					SkipEmpty: true,
					Dedupe:    true,
				},
				{
					Item:   "COLUMN BANNER",
					SlotID: "ColumnBanner__colBannerCard__",
					Pattern: locate.Pattern{
						Name: "column-banner",
						Selectors: []string{
							"[class*='ColumnBanner__colBannerCard__']",
							"[class*='ColumnBanner'] [class*='colBanner']",
						},
					},
					MaxRows:   heroMaxSlots,
					SkipEmpty: true,
				},
			},
		},
		{
			Label:    "rog-home-popup",
			Site:     SiteROG,
			Settle:   settlePopup,
			Overlays: true,
			Slots: []SlotSpec{
				{
					Item:   "E-SHOP HOME POP UP ROG.com",
					SlotID: "PB_type_lowerRightCorner",
					Pattern: locate.Pattern{
						Name: "rog-popup",
						Selectors: []string{
							".PB_promotionBanner.PB_corner.PB_promotionMode",
							"#ads_dialog, [id*='ads_dialog']",
							"[class*='PB_promotionBanner']",
						},
						Max: 1,
					},
					TextSelector:      ".PB_title",
					ImageSelector:     ".PB_picture",
					LinkSelector:      "a.PB_button",
					MaxRows:           1,
					PlaceholderOnMiss: true,
					MissReason:        "No visible",
				},
			},
		},
		{
			Label:  "rog-home",
			Site:   SiteROG,
			Settle: settleDefault,
			Slots: []SlotSpec{
				{
					Item:   "HOME BANNER ROG.com",
					SlotID: "#heroBanner",
					Pattern: locate.Pattern{
						Name: "rog-hero",
						Selectors: []string{
							"#heroBanner .swiper-slide, #liBanner .swiper-slide",
							".swiper-slide, .slick-slide, [data-swiper-slide-index]",
						},
						IndexAttr: "data-swiper-slide-index",
					},
					MaxRows:   heroMaxSlots,
					SkipEmpty: true,
					Dedupe:    true,
				},
				{
					Item:   "BANNER PROMOTIONAL ROG.com",
					SlotID: "BannerPromotionBar__bannerPromotionBarBody__",
					Pattern: locate.Pattern{
						Name: "rog-promo-bar",
						Selectors: []string{
							"[class^='BannerPromotionBar__bannerPromotionBarBody__']",
						},
						Max: 1,
					},
					TextFromNode: true,
					MaxRows:      1,
					Optional:     true,
				},
			},
		},
		{
			Label:  "asus-deals",
			Site:   SiteASUS,
			Path:   "deals/all-deals/",
			Settle: settleDefault,
			Slots: []SlotSpec{
				{
					Item:   "DEALS PAGE TAB",
					SlotID: "DealsPage__swiperWrapper__1GwMv",
					Pattern: locate.Pattern{
						Name: "deals-tabs",
						Selectors: []string{
							".DealsPage__swiperWrapper__1GwMv > a",
							"[class^='DealsPage__swiperWrapper__'] > a",
						},
					},
					TextSelector:      ".DealsPage__tabText__2EAxm span",
					TextFromNode:      true,
					ImageSelector:     ".DealsPage__tabImageBox__eTIp7 picture",
					PlaceholderOnMiss: true,
					MissReason:        "No tabs found",
				},
			},
		},
		{
			Label:  "asus-store",
			Site:   SiteASUS,
			Path:   "store/",
			Settle: settleDefault,
			Slots: []SlotSpec{
				{
					Item:   "STORE PROMOTION BANNER",
					SlotID: "StorePromotionBanner__slideContent__",
					Pattern: locate.Pattern{
						Name: "store-promo",
						Selectors: []string{
							"[class^='StorePromotionBanner__slideContent__']",
						},
					},
					TextFromNode: true,
				},
				{
					Item:   "STORE BANNER",
					SlotID: "SlimBanner__item__1V1hw",
					Pattern: locate.Pattern{
						Name: "store-banner",
						Selectors: []string{
							"a.SlimBanner__item__1V1hw",
							"a[class^='SlimBanner__item__']",
						},
						Max: 1,
					},
					MaxRows:           1,
					PlaceholderOnMiss: true,
					MissReason:        "No visible",
				},
				{
					Item:   "STORE TABS",
					SlotID: "AllStore__swiperWrapper__1uYYw",
					Pattern: locate.Pattern{
						Name: "store-tabs",
						Selectors: []string{
							".AllStore__swiperWrapper__1uYYw > a",
							"[class^='AllStore__swiperWrapper__'] > a",
						},
					},
					TextSelector:      ".AllStore__tabText__3i5DV span",
					ImageSelector:     ".AllStore__tabImageBox__3PkVC picture",
					RequireFull:       true,
					PlaceholderOnMiss: true,
					MissReason:        "No tabs found",
				},
				{
					Item:   "NEWS AND PROMOTIONS",
					SlotID: "AllStore__storeNewsWrapper__",
					Pattern: locate.Pattern{
						Name: "store-news",
						Selectors: []string{
							"[class^='AllStore__storeNewsWrapper__'] a[class^='PromotionCard__promotionCard__']",
							"a[class^='PromotionCard__promotionCard__']",
						},
					},
					TextFromNode:      true,
					SkipEmpty:         true,
					Dedupe:            true,
					PlaceholderOnMiss: true,
					MissReason:        "No cards found",
				},
			},
		},
	}
}
