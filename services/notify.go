package services

import (
	"suumo-watcher/models"
	"suumo-watcher/query"
)

// NotifyMode is the top-level notification switch for a search.
type NotifyMode string

const (
	NotifyAll      NotifyMode = "all"
	NotifyFiltered NotifyMode = "filtered"
	NotifyNone     NotifyMode = "none"
)

// FilteredMode decides what happens to records that sit beyond the distance
// threshold when NotifyFiltered is active.
type FilteredMode string

const (
	FilteredNormal FilteredMode = "normal"
	FilteredSilent FilteredMode = "silent"
	FilteredNone   FilteredMode = "none"
)

// NotifyPolicy decides, per record, whether to notify and whether the
// notification should be delivered silently. It has no side effects and is
// independent of the new/seen classification.
type NotifyPolicy struct {
	Mode            NotifyMode
	Filtered        FilteredMode
	ThresholdMeters int
}

// Decide applies the policy to one listing. A record whose distance cannot
// be determined — no parsable proximity or no configured threshold — counts
// as near: the filter never suppresses an unknown-distance record.
func (p NotifyPolicy) Decide(l *models.Listing) models.NotificationDecision {
	switch p.Mode {
	case NotifyNone:
		return models.NotificationDecision{}
	case NotifyAll:
		return models.NotificationDecision{
			ShouldNotify:          true,
			DistanceFromThreshold: nearestDistance(l).Beyond(p.ThresholdMeters),
		}
	}

	// NotifyFiltered
	d := nearestDistance(l)
	beyond := d.Beyond(p.ThresholdMeters)
	if !d.FartherThan(p.ThresholdMeters) {
		return models.NotificationDecision{ShouldNotify: true, DistanceFromThreshold: beyond}
	}

	if p.Filtered == FilteredSilent {
		return models.NotificationDecision{
			ShouldNotify:          true,
			Silent:                true,
			DistanceFromThreshold: beyond,
		}
	}
	// FilteredNormal and FilteredNone both drop far records.
	return models.NotificationDecision{DistanceFromThreshold: beyond}
}

// nearestDistance picks the closest parsable station distance of a listing;
// unknown when no annotation parses.
func nearestDistance(l *models.Listing) query.Distance {
	best := query.Distance{}
	for _, st := range l.Stations {
		d := query.ParseDistance(st.Distance)
		if !d.Known() {
			continue
		}
		if !best.Known() || d.Meters() < best.Meters() {
			best = d
		}
	}
	return best
}
