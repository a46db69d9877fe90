package services

import (
	"suumo-watcher/models"
	"suumo-watcher/utils"
)

// ClassifyMode selects how records are partitioned against crawl history.
type ClassifyMode string

const (
	// ModeLatestN returns the first N merged records regardless of history.
	ModeLatestN ClassifyMode = "latest"
	// ModeNewOnly returns records whose entity ID has not been seen under
	// this query identity before.
	ModeNewOnly ClassifyMode = "new_only"
)

// KnownIDSource is the slice of the storage collaborator the classifier
// needs: the set of entity IDs already associated with a query identity.
type KnownIDSource interface {
	KnownEntityIDs(queryID string) (map[string]struct{}, error)
}

// Classifier partitions merged records into new and previously seen.
type Classifier struct {
	store  KnownIDSource
	logger *utils.Logger
}

// NewClassifier creates a Classifier backed by the given ID source.
func NewClassifier(store KnownIDSource, logger *utils.Logger) *Classifier {
	return &Classifier{store: store, logger: logger}
}

// Classify flags each record's IsNew field and returns the new subset.
//
// An empty queryID (the search URL never resolved to an identity) yields no
// new records and a warning instead of failing the crawl. A lookup failure
// against the store fails open: every record is treated as new, trading
// duplicate notifications for never silently dropping a fresh listing.
func (c *Classifier) Classify(queryID string, records []*models.AnnotatedListing, mode ClassifyMode, latestN int) []*models.AnnotatedListing {
	if queryID == "" {
		c.logger.Warn("[classify] No query identity for this crawl — skipping classification")
		return nil
	}

	if mode == ModeLatestN {
		n := latestN
		if n > len(records) {
			n = len(records)
		}
		for i := 0; i < n; i++ {
			records[i].IsNew = true
		}
		return records[:n]
	}

	known, err := c.store.KnownEntityIDs(queryID)
	if err != nil {
		c.logger.Warn("[classify] Known-ID lookup failed for %q — treating all %d records as new: %v",
			queryID, len(records), err)
		for _, rec := range records {
			rec.IsNew = true
		}
		return records
	}

	var fresh []*models.AnnotatedListing
	for _, rec := range records {
		if _, seen := known[rec.EntityID]; seen {
			continue
		}
		rec.IsNew = true
		fresh = append(fresh, rec)
	}
	return fresh
}
