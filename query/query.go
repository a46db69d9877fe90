package query

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// targetHost is the only host this watcher accepts search URLs for.
const targetHost = "suumo.jp"

// idSeparator joins the normalized identity components. It never occurs in
// query parameter values, so the joined string is unambiguous.
const idSeparator = "|"

// ErrInvalidURL means the URL does not belong to the target site or cannot
// be parsed at all. This is the single fatal error of a crawl invocation.
var ErrInvalidURL = errors.New("invalid search url")

// Query is the parsed, normalized form of one saved search. Two URLs that
// express the same filters with different parameter order, duplicate station
// encodings or trivial price formatting parse into equal Queries.
type Query struct {
	Region   string
	Kind     string
	Stations []string
	Price    string
	Sections []string
	Rooms    []string
	Floor    string

	// Extra holds unknown parameters passed through untouched. They still
	// participate in the identity (key-sorted) so two searches that differ
	// only in an unrecognised filter do not collapse into one history.
	Extra map[string]string

	raw    string
	parsed *url.URL
}

// Parse validates and normalizes a search URL.
func Parse(rawURL string) (*Query, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	host := u.Hostname()
	if host != targetHost && !strings.HasSuffix(host, "."+targetHost) {
		return nil, fmt.Errorf("%w: host %q is not %s", ErrInvalidURL, host, targetHost)
	}

	params := u.Query()
	q := &Query{
		Region:   strings.TrimSpace(params.Get("region")),
		Kind:     strings.TrimSpace(params.Get("kind")),
		Stations: normalizeList(params["station"]),
		Price:    normalizePrice(params.Get("price")),
		Sections: normalizeList(params["sect"]),
		Rooms:    normalizeList(params["rooms"]),
		Floor:    strings.TrimSpace(params.Get("floor")),
		Extra:    extraParams(params),
		raw:      rawURL,
		parsed:   u,
	}
	return q, nil
}

// ID derives the deterministic identity string for this search. It is the
// foreign key under which crawl history accumulates, so it must be stable
// across cosmetic URL differences.
func (q *Query) ID() string {
	parts := []string{
		q.Region,
		q.Kind,
		strings.Join(q.Stations, ","),
		q.Price,
		strings.Join(q.Sections, ","),
		strings.Join(q.Rooms, ","),
		q.Floor,
	}

	keys := make([]string, 0, len(q.Extra))
	for k := range q.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+q.Extra[k])
	}

	return strings.Join(parts, idSeparator)
}

// URL returns the original search URL as supplied by the caller.
func (q *Query) URL() string {
	return q.raw
}

// Description assembles a short human-readable label for the search from
// the region/kind code tables, e.g. "東京都 / 賃貸 / 2駅 / 価格 5-10".
func (q *Query) Description() string {
	var parts []string
	if q.Region != "" {
		parts = append(parts, RegionName(q.Region))
	}
	if q.Kind != "" {
		parts = append(parts, KindName(q.Kind))
	}
	if n := len(q.Stations); n > 0 {
		parts = append(parts, fmt.Sprintf("%d駅", n))
	}
	if q.Price != "" {
		parts = append(parts, "価格 "+q.Price)
	}
	if q.Floor != "" {
		parts = append(parts, "階数 "+q.Floor)
	}
	if len(parts) == 0 {
		return "条件なし"
	}
	return strings.Join(parts, " / ")
}

// normalizeList splits repeated and comma-grouped parameter values into a
// sorted, deduplicated list. station=1,2&station=2 and station=2&station=1
// come out identical.
func normalizeList(values []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if _, dup := seen[item]; dup {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	sort.Strings(out)
	return out
}

// normalizePrice canonicalizes a "min,max" price range: empty segments
// (trailing commas) are dropped, and a redundant zero lower bound is removed
// so "0,100000" and "100000" mean the same upper-bounded search.
func normalizePrice(raw string) string {
	var segs []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		segs = append(segs, s)
	}
	if len(segs) >= 2 && segs[0] == "0" {
		segs = segs[1:]
	}
	return strings.Join(segs, "-")
}

// knownParams are handled by the typed fields above; everything else is a
// pass-through filter.
var knownParams = map[string]struct{}{
	"region": {}, "kind": {}, "station": {}, "price": {},
	"sect": {}, "rooms": {}, "floor": {},
}

func extraParams(params url.Values) map[string]string {
	extra := make(map[string]string)
	for k, vals := range params {
		if _, known := knownParams[k]; known {
			continue
		}
		extra[k] = strings.Join(vals, ",")
	}
	return extra
}
