package services

import (
	"fmt"

	"suumo-watcher/models"
	"suumo-watcher/query"
	"suumo-watcher/utils"
)

const (
	// DefaultMaxConcurrent caps how many source fetches run at once.
	DefaultMaxConcurrent = 3
	// DefaultDelayMs is the minimum spacing between fetch starts. It bounds
	// the burst rate against the site without serializing total latency.
	DefaultDelayMs = 1000
)

// Fetcher retrieves and parses one source URL into listings. Implementations
// own their HTTP/timeout/retry mechanics; the crawler only cares about the
// outcome.
type Fetcher interface {
	Fetch(url string) ([]*models.Listing, error)
}

// Store is the persistence collaborator: known-ID lookups for classification
// and change-gated writes of crawl output.
type Store interface {
	KnownIDSource
	SaveCrawl(queryID string, records []*models.AnnotatedListing, summary models.CrawlSummary) (*models.CrawlSession, error)
}

// CrawlParams are the inputs of one crawl invocation.
type CrawlParams struct {
	URL string

	// MaxLatest > 0 switches classification to "first N merged records"
	// instead of new-vs-seen history comparison.
	MaxLatest int

	NotifyMode        NotifyMode
	FilteredMode      FilteredMode
	DistanceThreshold int

	// Zero values fall back to DefaultMaxConcurrent / DefaultDelayMs.
	MaxConcurrent int
	DelayMs       int
}

// Crawler orchestrates one crawl: resolve the query identity, fetch every
// source under the concurrency gate, merge, classify against history, filter
// for notification, and hand the result to the store.
type Crawler struct {
	fetcher    Fetcher
	store      Store
	merger     *Merger
	classifier *Classifier
	logger     *utils.Logger
}

// NewCrawler wires a Crawler from its collaborators.
func NewCrawler(fetcher Fetcher, store Store, logger *utils.Logger) *Crawler {
	return &Crawler{
		fetcher:    fetcher,
		store:      store,
		merger:     NewMerger(logger),
		classifier: NewClassifier(store, logger),
		logger:     logger,
	}
}

// Crawl runs one invocation. The only fatal error is an invalid top-level
// URL; failed sources degrade into the result's error list and the crawl
// completes. A persistence write failure is returned alongside the result —
// retry policy belongs to the caller, not here.
func (c *Crawler) Crawl(params CrawlParams) (*models.CrawlResult, error) {
	q, err := query.Parse(params.URL)
	if err != nil {
		return nil, err
	}

	queryID := q.ID()
	sources := q.SourceURLs()
	c.logger.Info("[crawl] %s — %d source(s)", q.Description(), len(sources))

	results := c.fetchAll(sources, params.MaxConcurrent, params.DelayMs)
	merged := c.merger.Merge(results)

	records := c.annotate(merged.Listings)

	mode := ModeNewOnly
	if params.MaxLatest > 0 {
		mode = ModeLatestN
	}
	fresh := c.classifier.Classify(queryID, records, mode, params.MaxLatest)

	policy := NotifyPolicy{
		Mode:            params.NotifyMode,
		Filtered:        params.FilteredMode,
		ThresholdMeters: params.DistanceThreshold,
	}
	sent := 0
	for _, rec := range fresh {
		rec.Notify = policy.Decide(rec.Listing)
		if rec.Notify.ShouldNotify {
			sent++
		}
	}

	summary := models.CrawlSummary{
		QueryID:           queryID,
		QueryDescription:  q.Description(),
		TotalFound:        merged.TotalFound,
		NewCount:          len(fresh),
		DuplicateCount:    merged.DuplicateCount,
		NotificationsSent: sent,
		SourceCount:       len(sources),
		Sources:           sourceStatuses(results),
		Errors:            merged.Errors,
	}
	result := &models.CrawlResult{Records: records, Summary: summary}

	if _, err := c.store.SaveCrawl(queryID, records, summary); err != nil {
		return result, fmt.Errorf("persist crawl %q: %w", queryID, err)
	}

	c.logger.Info("[crawl] Done — found %d, new %d, duplicates %d, failed sources %d",
		summary.TotalFound, summary.NewCount, summary.DuplicateCount, len(summary.Errors))
	return result, nil
}

// fetchAll retrieves every source. A single source is fetched directly; a
// multi-station expansion goes through the worker pool, which admits fetches
// in source order under the concurrency cap and spaces their starts. Results
// land at their source index, so the output order matches the input order
// regardless of completion order.
func (c *Crawler) fetchAll(sources []string, maxConcurrent, delayMs int) []*models.SourceResult {
	results := make([]*models.SourceResult, len(sources))

	if len(sources) == 1 {
		results[0] = c.fetchOne(0, sources[0])
		return results
	}

	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if delayMs <= 0 {
		delayMs = DefaultDelayMs
	}

	pool := utils.NewWorkerPool(maxConcurrent, delayMs)
	for i, src := range sources {
		i, src := i, src
		pool.Submit(func() {
			results[i] = c.fetchOne(i, src)
		})
	}
	pool.Wait()

	return results
}

func (c *Crawler) fetchOne(index int, src string) *models.SourceResult {
	listings, err := c.fetcher.Fetch(src)
	if err != nil {
		c.logger.Warn("[crawl] Source %d failed (%s): %v", index, src, err)
		return &models.SourceResult{Index: index, URL: src, Error: err.Error()}
	}
	return &models.SourceResult{Index: index, URL: src, Success: true, Listings: listings}
}

// annotate resolves entity identities for the merged set. Merge already
// rejected unidentifiable records, so resolution cannot fail here.
func (c *Crawler) annotate(listings []*models.Listing) []*models.AnnotatedListing {
	records := make([]*models.AnnotatedListing, 0, len(listings))
	for _, l := range listings {
		id, err := ResolveEntityID(l)
		if err != nil {
			continue
		}
		records = append(records, &models.AnnotatedListing{Listing: l, EntityID: id.String()})
	}
	return records
}

func sourceStatuses(results []*models.SourceResult) []models.SourceStatus {
	statuses := make([]models.SourceStatus, 0, len(results))
	for _, res := range results {
		if res == nil {
			continue
		}
		statuses = append(statuses, models.SourceStatus{
			URL:      res.URL,
			Success:  res.Success,
			Listings: len(res.Listings),
			Error:    res.Error,
		})
	}
	return statuses
}
