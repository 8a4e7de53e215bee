// Package browser owns the headless-browser session: guarded navigation,
// consent dismissal and page-snapshot capture.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"promoscan/internal/monitoring"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/119.0.0.0 Safari/537.36"

// Session is one browser page driven by a single sequential pipeline. DOM
// queries race with the page's own re-rendering, so a session is never
// shared between goroutines.
type Session struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	pageCtx     context.Context
	pageCancel  context.CancelFunc

	navTimeout time.Duration
	logger     *zap.Logger
	metrics    *monitoring.Metrics
}

func NewSession(ctx context.Context, headless bool, navTimeout time.Duration, logger *zap.Logger, m *monitoring.Metrics) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.WindowSize(1600, 1000),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	pageCtx, pageCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		pageCtx:     pageCtx,
		pageCancel:  pageCancel,
		navTimeout:  navTimeout,
		logger:      logger,
		metrics:     m,
	}
	// Repeated daily runs must never see an edge cache; belt to the
	// cache-buster's suspenders.
	err := chromedp.Run(pageCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Cache-Control": "no-cache",
			"Pragma":        "no-cache",
		}),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("start browser session: %w", err)
	}
	return s, nil
}

func (s *Session) Close() {
	s.pageCancel()
	s.allocCancel()
}

// cacheBust appends a monotonically increasing query parameter so repeated
// runs never hit a cached copy.
func cacheBust(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("_cb", fmt.Sprintf("%d", time.Now().UnixMilli()))
	u.RawQuery = q.Encode()
	return u.String()
}

// Navigate loads a page, waiting only for the initial structural load, not
// full resource completion, bounded by the configured timeout. It reports
// success; a timeout is an expected outcome, never an error. The caller is
// expected to emit a placeholder record and carry on.
func (s *Session) Navigate(ctx context.Context, rawURL string) bool {
	target := cacheBust(rawURL)
	s.logger.Info("navigating", zap.String("url", target))
	s.metrics.PagesNavigated.Inc()

	tctx, cancel := context.WithTimeout(s.pageCtx, s.navTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(tctx,
		chromedp.ActionFunc(func(cctx context.Context) error {
			// Raw Page.navigate instead of chromedp.Navigate: the
			// latter blocks on the full load event, which slow asset
			// CDNs routinely miss inside the budget.
			_, _, errText, _, err := page.Navigate(target).Do(cctx)
			if err != nil {
				return err
			}
			if errText != "" {
				return errors.New(errText)
			}
			return nil
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.metrics.NavigationTimeouts.Inc()
			s.logger.Warn("navigation timed out",
				zap.String("url", target),
				zap.Duration("timeout", s.navTimeout),
			)
		} else {
			s.logger.Warn("navigation failed", zap.String("url", target), zap.Error(err))
		}
		return false
	}
	return true
}

// Settle waits a fixed time for late-rendering widgets after navigation.
func (s *Session) Settle(ctx context.Context, d time.Duration) {
	tctx, cancel := context.WithTimeout(s.pageCtx, d+time.Second)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	_ = chromedp.Run(tctx, chromedp.Sleep(d))
}
