package models

import "time"

// SourceResult is the outcome of fetching one concrete source URL. A failed
// source keeps its slot (Index matches the source list order) so downstream
// station attribution stays deterministic.
type SourceResult struct {
	Index    int
	URL      string
	Success  bool
	Listings []*Listing
	Error    string
}

// SourceError records one degraded source inside an otherwise successful crawl.
type SourceError struct {
	URL     string
	Message string
}

// MergedSet is the output of the merge & deduplication stage. When every
// source succeeds, len(Listings) + DuplicateCount + RejectedCount equals
// TotalFound.
type MergedSet struct {
	Listings          []*Listing
	TotalFound        int
	DuplicateCount    int
	RejectedCount     int
	Errors            []SourceError
	SuccessfulSources int
}

// NotificationDecision is computed fresh each crawl and never persisted.
// DistanceFromThreshold is meters past the configured threshold; zero or
// negative means the listing is within range (or distance is unknown).
type NotificationDecision struct {
	ShouldNotify          bool
	Silent                bool
	DistanceFromThreshold int
}

// AnnotatedListing is a merged listing with its resolved entity identity and
// the notification decision attached for this invocation.
type AnnotatedListing struct {
	*Listing
	EntityID string
	IsNew    bool
	Notify   NotificationDecision
}

// SourceStatus summarises one source for the crawl report.
type SourceStatus struct {
	URL      string
	Success  bool
	Listings int
	Error    string
}

// CrawlSummary aggregates the counters a caller needs to report on one crawl.
type CrawlSummary struct {
	QueryID           string
	QueryDescription  string
	TotalFound        int
	NewCount          int
	DuplicateCount    int
	NotificationsSent int
	SourceCount       int
	Sources           []SourceStatus
	Errors            []SourceError
}

// CrawlResult is what one crawl invocation hands back to the caller. It is
// never persisted as its own entity; its effects reach storage through the
// Store collaborator.
type CrawlResult struct {
	Records []*AnnotatedListing
	Summary CrawlSummary
}

// NewRecords returns only the records classified as new this crawl.
func (r *CrawlResult) NewRecords() []*AnnotatedListing {
	out := make([]*AnnotatedListing, 0, r.Summary.NewCount)
	for _, rec := range r.Records {
		if rec.IsNew {
			out = append(out, rec)
		}
	}
	return out
}

// CrawlSession identifies one persisted crawl run.
type CrawlSession struct {
	ID         string
	QueryID    string
	StartedAt  time.Time
	TotalFound int
	NewCount   int
	Writes     int
}
