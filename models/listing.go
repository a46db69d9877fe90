package models

import "time"

// StationDistance is one "reachable from station X" annotation on a listing.
// Distance keeps the raw proximity text as scraped (e.g. "歩10分", "1200m");
// parsing into meters happens in the query package when a comparison is needed.
type StationDistance struct {
	Station  string
	Distance string
}

// Listing is one property listing as scraped from a search results page.
// The same physical listing can show up under several station filters with
// different StationDistance annotations; merging reconciles those.
type Listing struct {
	Title     string
	Link      string
	HouseType string
	Rooms     string
	Stations  []StationDistance
	Tags      []string
	Images    []string
	ScrapedAt time.Time
}

// FirstStation returns the first station annotation, or an empty value when
// the listing carries none. Used as the composite-identity fallback input.
func (l *Listing) FirstStation() StationDistance {
	if len(l.Stations) == 0 {
		return StationDistance{}
	}
	return l.Stations[0]
}

// HasStation reports whether the listing already carries an annotation for
// the given station name.
func (l *Listing) HasStation(station string) bool {
	for _, s := range l.Stations {
		if s.Station == station {
			return true
		}
	}
	return false
}
