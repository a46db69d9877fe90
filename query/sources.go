package query

import "net/url"

// SourceURLs expands the search into the concrete URLs to fetch. A search
// filtering on K≥2 stations becomes K URLs, each carrying exactly one
// station value; the union of their stations reproduces the original set.
// Searches with zero or one station fetch the original URL unchanged.
func (q *Query) SourceURLs() []string {
	if len(q.Stations) <= 1 {
		return []string{q.raw}
	}

	urls := make([]string, 0, len(q.Stations))
	for _, station := range q.Stations {
		u := *q.parsed
		params := u.Query()
		params.Del("station")
		params.Set("station", station)
		u.RawQuery = params.Encode()
		urls = append(urls, u.String())
	}
	return urls
}

// MultiSource reports whether the search expands into more than one fetch.
func (q *Query) MultiSource() bool {
	return len(q.Stations) > 1
}

// StationOf returns the single station value carried by one of the expanded
// source URLs, or "" when the URL carries none. Used for attributing a
// per-source result back to its station filter.
func StationOf(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("station")
}
