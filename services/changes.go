package services

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"

	"suumo-watcher/models"
)

// DefaultTitleSimilarity is the character-overlap ratio above which two
// titles count as the same listing re-scraped with minor noise. The value
// was tuned against observed re-scrape churn; it is configurable rather
// than exact.
const DefaultTitleSimilarity = 0.78

// ChangeResult says whether a persisted listing needs rewriting and which
// fields moved.
type ChangeResult struct {
	HasChanged    bool
	ChangedFields []string
}

// ChangeDetector compares an incoming listing against its last-persisted
// counterpart to decide whether a write is warranted. Image references are
// deliberately ignored: galleries reorder constantly without signaling a
// real update, and rewriting rows for that churn amplifies writes for
// nothing.
type ChangeDetector struct {
	titleSimilarity float64
}

// NewChangeDetector creates a detector. A non-positive threshold selects
// DefaultTitleSimilarity.
func NewChangeDetector(titleSimilarity float64) *ChangeDetector {
	if titleSimilarity <= 0 || titleSimilarity > 1 {
		titleSimilarity = DefaultTitleSimilarity
	}
	return &ChangeDetector{titleSimilarity: titleSimilarity}
}

// Compare decides whether incoming differs meaningfully from prior. A nil
// prior is a first sighting and always needs a write.
func (d *ChangeDetector) Compare(incoming, prior *models.Listing) ChangeResult {
	if prior == nil {
		return ChangeResult{HasChanged: true, ChangedFields: []string{"new_record"}}
	}

	if ContentHash(incoming) == ContentHash(prior) {
		return ChangeResult{}
	}

	var changed []string

	if !d.sameTitle(incoming.Title, prior.Title) {
		changed = append(changed, "title")
	}
	if normalizeField(incoming.HouseType) != normalizeField(prior.HouseType) {
		changed = append(changed, "house_type")
	}
	if normalizeField(incoming.Rooms) != normalizeField(prior.Rooms) {
		changed = append(changed, "rooms")
	}
	if normalizeField(stationField(incoming, 0)) != normalizeField(stationField(prior, 0)) {
		changed = append(changed, "station1")
	}
	if normalizeField(stationField(incoming, 1)) != normalizeField(stationField(prior, 1)) {
		changed = append(changed, "station2")
	}
	if !sameTagSet(incoming.Tags, prior.Tags) {
		changed = append(changed, "tags")
	}

	return ChangeResult{HasChanged: len(changed) > 0, ChangedFields: changed}
}

// ContentHash digests the fields that participate in change detection, in a
// stable order, with tags sorted and images excluded. Equal hashes
// short-circuit the field-by-field comparison.
func ContentHash(l *models.Listing) string {
	tags := append([]string(nil), l.Tags...)
	for i, t := range tags {
		tags[i] = normalizeField(t)
	}
	sort.Strings(tags)

	parts := []string{
		normalizeField(l.Title),
		normalizeField(l.HouseType),
		normalizeField(l.Rooms),
		normalizeField(stationField(l, 0)),
		normalizeField(stationField(l, 1)),
		strings.Join(tags, ","),
	}

	sum := md5.Sum([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// sameTitle accepts two titles as unchanged when their normalized forms
// match, or when their character overlap relative to the longer title meets
// the similarity threshold. This tolerates re-scraping noise without
// treating a genuinely edited title as unchanged.
func (d *ChangeDetector) sameTitle(a, b string) bool {
	na, nb := normalizeField(a), normalizeField(b)
	if na == nb {
		return true
	}
	return charOverlap(na, nb) >= d.titleSimilarity
}

// charOverlap returns the multiset character intersection of two strings as
// a fraction of the longer one.
func charOverlap(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	if longer == 0 {
		return 1
	}

	counts := make(map[rune]int, len(ra))
	for _, r := range ra {
		counts[r]++
	}
	common := 0
	for _, r := range rb {
		if counts[r] > 0 {
			counts[r]--
			common++
		}
	}
	return float64(common) / float64(longer)
}

func sameTagSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, t := range a {
		set[normalizeField(t)]++
	}
	for _, t := range b {
		key := normalizeField(t)
		if set[key] == 0 {
			return false
		}
		set[key]--
	}
	return true
}

func stationField(l *models.Listing, i int) string {
	if i >= len(l.Stations) {
		return ""
	}
	st := l.Stations[i]
	return strings.TrimSpace(st.Station + " " + st.Distance)
}

var fieldReplacer = strings.NewReplacer(
	"’", "'", "‘", "'", "“", `"`, "”", `"`, "`", "'",
	"–", "-", "—", "-", "‐", "-", "−", "-", "〜", "~", "～", "~",
)

// normalizeField lowercases, collapses whitespace and unifies quote/dash
// variants so cosmetic re-encoding noise never looks like a content change.
func normalizeField(s string) string {
	s = fieldReplacer.Replace(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}
