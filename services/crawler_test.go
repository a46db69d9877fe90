package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"suumo-watcher/models"
	"suumo-watcher/query"
)

type fakeFetcher struct {
	mu      sync.Mutex
	fetched []string
	byURL   map[string][]*models.Listing
	failOn  map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		byURL:  make(map[string][]*models.Listing),
		failOn: make(map[string]error),
	}
}

// stationResults registers listings for whichever expanded source URL
// carries the given station value.
func (f *fakeFetcher) stationResults(station string, listings ...*models.Listing) {
	f.byURL[station] = listings
}

func (f *fakeFetcher) Fetch(url string) ([]*models.Listing, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	f.mu.Unlock()

	key := query.StationOf(url)
	if err, ok := f.failOn[key]; ok {
		return nil, err
	}
	if listings, ok := f.byURL[key]; ok {
		return listings, nil
	}
	return nil, nil
}

type fakeStore struct {
	known     map[string]struct{}
	lookupErr error
	saveErr   error
	saved     []*models.AnnotatedListing
	savedSum  models.CrawlSummary
}

func (s *fakeStore) KnownEntityIDs(queryID string) (map[string]struct{}, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return s.known, nil
}

func (s *fakeStore) SaveCrawl(queryID string, records []*models.AnnotatedListing, summary models.CrawlSummary) (*models.CrawlSession, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.saved = records
	s.savedSum = summary
	return &models.CrawlSession{ID: "session", QueryID: queryID}, nil
}

func fastParams(url string) CrawlParams {
	return CrawlParams{
		URL:           url,
		NotifyMode:    NotifyAll,
		MaxConcurrent: 3,
		DelayMs:       1,
	}
}

func TestCrawlInvalidURLIsFatal(t *testing.T) {
	c := NewCrawler(newFakeFetcher(), &fakeStore{}, testLogger())

	_, err := c.Crawl(fastParams("https://example.com/?station=1"))
	if !errors.Is(err, query.ErrInvalidURL) {
		t.Errorf("error = %v; want ErrInvalidURL", err)
	}
}

func TestCrawlSingleSource(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.stationResults("4232", listing("/1", "A"), listing("/2", "B"))
	store := &fakeStore{known: map[string]struct{}{}}

	c := NewCrawler(fetcher, store, testLogger())
	result, err := c.Crawl(fastParams("https://suumo.jp/search/?region=13&station=4232"))
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	if len(fetcher.fetched) != 1 {
		t.Errorf("fetched %d URLs; want 1", len(fetcher.fetched))
	}
	if result.Summary.TotalFound != 2 || result.Summary.NewCount != 2 {
		t.Errorf("summary = %+v; want found=2 new=2", result.Summary)
	}
	if result.Summary.SourceCount != 1 {
		t.Errorf("sourceCount = %d; want 1", result.Summary.SourceCount)
	}
}

func TestCrawlMultiSourceMergesStations(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.stationResults("4232",
		listing("/19180936", "メゾン上野", models.StationDistance{Station: "上野駅", Distance: "歩5分"}))
	fetcher.stationResults("4233",
		listing("/19180936", "メゾン上野", models.StationDistance{Station: "御徒町駅", Distance: "歩11分"}))
	store := &fakeStore{known: map[string]struct{}{}}

	c := NewCrawler(fetcher, store, testLogger())
	result, err := c.Crawl(fastParams("https://suumo.jp/search/?region=13&station=4232,4233"))
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	if len(fetcher.fetched) != 2 {
		t.Fatalf("fetched %d URLs; want 2", len(fetcher.fetched))
	}
	if len(result.Records) != 1 {
		t.Fatalf("got %d records; want 1 merged", len(result.Records))
	}
	if got := len(result.Records[0].Stations); got != 2 {
		t.Errorf("merged record has %d station annotations; want 2", got)
	}
	if result.Summary.DuplicateCount != 1 {
		t.Errorf("duplicateCount = %d; want 1", result.Summary.DuplicateCount)
	}
}

func TestCrawlSourceOrderIsDeterministic(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.stationResults("4232", listing("/1", "A"))
	fetcher.stationResults("4233", listing("/2", "B"))
	fetcher.stationResults("4234", listing("/3", "C"))
	store := &fakeStore{known: map[string]struct{}{}}

	c := NewCrawler(fetcher, store, testLogger())
	result, err := c.Crawl(fastParams("https://suumo.jp/search/?region=13&station=4234,4232,4233"))
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	// Stations are normalized sorted, so source order is 4232, 4233, 4234
	// regardless of completion order.
	want := []string{"4232", "4233", "4234"}
	if len(result.Summary.Sources) != len(want) {
		t.Fatalf("got %d sources; want %d", len(result.Summary.Sources), len(want))
	}
	for i, st := range want {
		if got := query.StationOf(result.Summary.Sources[i].URL); got != st {
			t.Errorf("source %d is station %s; want %s", i, got, st)
		}
	}
}

func TestCrawlFailedSourceDegrades(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.stationResults("4232", listing("/1", "A"))
	fetcher.failOn["4233"] = fmt.Errorf("status 503")
	store := &fakeStore{known: map[string]struct{}{}}

	c := NewCrawler(fetcher, store, testLogger())
	result, err := c.Crawl(fastParams("https://suumo.jp/search/?region=13&station=4232,4233"))
	if err != nil {
		t.Fatalf("crawl must not fail on a degraded source: %v", err)
	}

	if len(result.Summary.Errors) != 1 {
		t.Fatalf("errors = %+v; want 1", result.Summary.Errors)
	}
	if result.Summary.TotalFound != 1 {
		t.Errorf("totalFound = %d; want 1 from the surviving source", result.Summary.TotalFound)
	}

	failed := 0
	for _, src := range result.Summary.Sources {
		if !src.Success {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("%d failed sources in status list; want 1", failed)
	}
}

func TestCrawlFailsOpenOnLookupError(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.stationResults("4232", listing("/1", "A"), listing("/2", "B"))
	store := &fakeStore{lookupErr: errors.New("db down")}

	c := NewCrawler(fetcher, store, testLogger())
	result, err := c.Crawl(fastParams("https://suumo.jp/search/?region=13&station=4232"))
	if err != nil {
		t.Fatalf("crawl must complete despite lookup failure: %v", err)
	}
	if result.Summary.NewCount != 2 {
		t.Errorf("newCount = %d; want all 2 (fail-open)", result.Summary.NewCount)
	}
}

func TestCrawlKnownRecordsNotReclassified(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.stationResults("4232", listing("/1", "A"), listing("/2", "B"))
	store := &fakeStore{known: map[string]struct{}{"link:/1": {}}}

	c := NewCrawler(fetcher, store, testLogger())
	result, err := c.Crawl(fastParams("https://suumo.jp/search/?region=13&station=4232"))
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	if result.Summary.NewCount != 1 {
		t.Fatalf("newCount = %d; want 1", result.Summary.NewCount)
	}
	if fresh := result.NewRecords(); len(fresh) != 1 || fresh[0].EntityID != "link:/2" {
		t.Errorf("new records = %+v; want only link:/2", fresh)
	}
}

func TestCrawlNotificationCounting(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.stationResults("4232",
		listing("/1", "near", models.StationDistance{Station: "上野駅", Distance: "500m"}),
		listing("/2", "far", models.StationDistance{Station: "上野駅", Distance: "1200m"}),
	)
	store := &fakeStore{known: map[string]struct{}{}}

	c := NewCrawler(fetcher, store, testLogger())
	params := fastParams("https://suumo.jp/search/?region=13&station=4232")
	params.NotifyMode = NotifyFiltered
	params.FilteredMode = FilteredNone
	params.DistanceThreshold = 800

	result, err := c.Crawl(params)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if result.Summary.NotificationsSent != 1 {
		t.Errorf("notificationsSent = %d; want 1", result.Summary.NotificationsSent)
	}
}

func TestCrawlPersistenceErrorPropagates(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.stationResults("4232", listing("/1", "A"))
	store := &fakeStore{known: map[string]struct{}{}, saveErr: errors.New("write refused")}

	c := NewCrawler(fetcher, store, testLogger())
	result, err := c.Crawl(fastParams("https://suumo.jp/search/?region=13&station=4232"))
	if err == nil {
		t.Fatal("persistence error was swallowed")
	}
	if result == nil {
		t.Fatal("result must accompany a persistence error")
	}
	if result.Summary.TotalFound != 1 {
		t.Errorf("result incomplete: %+v", result.Summary)
	}
}

func TestCrawlMaxLatestMode(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.stationResults("4232", listing("/1", "A"), listing("/2", "B"), listing("/3", "C"))
	store := &fakeStore{known: map[string]struct{}{"link:/1": {}}}

	c := NewCrawler(fetcher, store, testLogger())
	params := fastParams("https://suumo.jp/search/?region=13&station=4232")
	params.MaxLatest = 2

	result, err := c.Crawl(params)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	// latestN ignores history: /1 is returned even though it is known.
	fresh := result.NewRecords()
	if len(fresh) != 2 || fresh[0].EntityID != "link:/1" || fresh[1].EntityID != "link:/2" {
		t.Errorf("latest records wrong: %+v", fresh)
	}
}
