// Package browser is the rendered-page fallback fetcher: it drives headless
// Chrome via chromedp, waits for the results to render, and feeds the final
// HTML through the same parser the plain HTTP fetcher uses.
package browser

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"suumo-watcher/config"
	"suumo-watcher/models"
	"suumo-watcher/scraper/suumo"
	"suumo-watcher/utils"
)

// Fetcher renders a source URL in headless Chrome before parsing.
type Fetcher struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	logger      *utils.Logger
	retry       *utils.RetryConfig
}

// New starts a Chrome allocator shared by all fetches of this Fetcher.
func New(cfg *config.Config, logger *utils.Logger) *Fetcher {
	chromeBin := cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	if chromeBin != "" {
		logger.Info("[browser] Using browser binary: %s", chromeBin)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	allocCtx, cancelSilent := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	cancel := func() {
		cancelSilent()
		cancelAlloc()
	}

	return &Fetcher{
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
		timeout:     time.Duration(cfg.FetchTimeoutSec) * time.Second,
		logger:      logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Fetch renders one source URL and returns its listings.
func (f *Fetcher) Fetch(url string) ([]*models.Listing, error) {
	var listings []*models.Listing

	err := f.retry.Do("render "+url, func() error {
		ctx, cancel := chromedp.NewContext(f.allocCtx)
		defer cancel()

		ctx, cancelTimeout := context.WithTimeout(ctx, f.timeout)
		defer cancelTimeout()

		var html string
		err := chromedp.Run(ctx,
			chromedp.Navigate(url),
			chromedp.Sleep(2*time.Second),
			chromedp.OuterHTML("html", &html),
		)
		if err != nil {
			return fmt.Errorf("chromedp run: %w", err)
		}

		listings, err = suumo.ParseListings(strings.NewReader(html))
		return err
	})
	if err != nil {
		return nil, err
	}

	f.logger.Debug("[browser] %s — %d listings", url, len(listings))
	return listings, nil
}

// Close tears down the shared Chrome allocator.
func (f *Fetcher) Close() {
	f.cancelAlloc()
}

func findChromeBinary() string {
	candidates := []string{
		"google-chrome", "google-chrome-stable", "chromium", "chromium-browser",
	}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}
