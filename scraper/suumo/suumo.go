package suumo

import (
	"fmt"
	"net/http"
	"time"

	"suumo-watcher/config"
	"suumo-watcher/models"
	"suumo-watcher/utils"
)

// Fetcher retrieves search result pages over plain HTTP and parses them with
// goquery. The per-request timeout lives here, not in the orchestrator: a
// source that blows its timeout is simply reported as a failed source.
type Fetcher struct {
	client    *http.Client
	userAgent string
	logger    *utils.Logger
	retry     *utils.RetryConfig
}

// New creates a ready-to-use Fetcher.
func New(cfg *config.Config, logger *utils.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: time.Duration(cfg.FetchTimeoutSec) * time.Second,
		},
		userAgent: cfg.UserAgent,
		logger:    logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Fetch downloads one source URL and returns its listings.
func (f *Fetcher) Fetch(url string) ([]*models.Listing, error) {
	var listings []*models.Listing

	err := f.retry.Do("fetch "+url, func() error {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", f.userAgent)
		req.Header.Set("Accept-Language", "ja,en;q=0.8")

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		listings, err = ParseListings(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	f.logger.Debug("[suumo] %s — %d listings", url, len(listings))
	return listings, nil
}
