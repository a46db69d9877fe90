package services

import (
	"suumo-watcher/models"
	"suumo-watcher/utils"
)

// Merger unions per-source fetch results into one deduplicated listing set.
// A listing returned by several station-filtered sources keeps a single
// record whose station annotations are the union of what each source saw.
type Merger struct {
	logger *utils.Logger
}

// NewMerger creates a Merger with the given logger.
func NewMerger(logger *utils.Logger) *Merger {
	return &Merger{logger: logger}
}

// Merge reduces the per-source outcomes, in source order, into a MergedSet.
// Failed sources land in the error list and never block merging of the
// successful ones. The output order is first-seen order, which — because
// admission is by source index, not completion — is deterministic.
func (m *Merger) Merge(results []*models.SourceResult) *models.MergedSet {
	out := &models.MergedSet{}
	byID := make(map[string]*models.Listing)

	for _, res := range results {
		if res == nil {
			continue
		}
		if !res.Success {
			out.Errors = append(out.Errors, models.SourceError{
				URL:     res.URL,
				Message: res.Error,
			})
			continue
		}
		out.SuccessfulSources++

		for _, listing := range res.Listings {
			out.TotalFound++

			id, err := ResolveEntityID(listing)
			if err != nil {
				out.RejectedCount++
				m.logger.Warn("[merge] Rejecting unidentifiable listing from %s: %v", res.URL, err)
				continue
			}

			key := id.String()
			existing, seen := byID[key]
			if !seen {
				byID[key] = listing
				out.Listings = append(out.Listings, listing)
				continue
			}

			out.DuplicateCount++
			mergeStations(existing, listing)
		}
	}

	if out.DuplicateCount > 0 {
		m.logger.Debug("[merge] %d listings across %d sources, %d duplicates folded",
			out.TotalFound, out.SuccessfulSources, out.DuplicateCount)
	}
	return out
}

// mergeStations unions the duplicate's station annotations into the record
// that stays. Annotations are keyed by station name; the first-seen distance
// text wins for a station both sources report.
func mergeStations(dst, src *models.Listing) {
	for _, st := range src.Stations {
		if st.Station == "" || dst.HasStation(st.Station) {
			continue
		}
		dst.Stations = append(dst.Stations, st)
	}
}
