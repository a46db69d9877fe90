package query

import (
	"regexp"
	"strconv"
)

// WalkingSpeed is the conventional walking pace used by Japanese property
// listings when converting "歩N分" into a distance: 80 meters per minute.
const WalkingSpeed = 80

var (
	walkRe  = regexp.MustCompile(`(?:徒歩|歩)?\s*(\d+)\s*分`)
	minRe   = regexp.MustCompile(`(\d+)\s*min`)
	meterRe = regexp.MustCompile(`(\d+)\s*(?:m|ｍ|メートル)`)
)

// Distance is a proximity value normalized to meters. The zero value is
// "unknown": comparisons against unknown distances always report "near", so
// the notification filter never silently drops a record it cannot place.
type Distance struct {
	meters int
	known  bool
}

// Meters constructs a known distance.
func Meters(m int) Distance {
	if m < 0 {
		return Distance{}
	}
	return Distance{meters: m, known: true}
}

// ParseDistance converts a raw proximity string into a Distance. Walking
// minutes ("歩10分", "徒歩10分", "10 min") convert at WalkingSpeed; plain
// meter values ("800m") pass through. Anything else is unknown.
func ParseDistance(raw string) Distance {
	if raw == "" {
		return Distance{}
	}
	if m := walkRe.FindStringSubmatch(raw); m != nil {
		return fromNumber(m[1], WalkingSpeed)
	}
	if m := minRe.FindStringSubmatch(raw); m != nil {
		return fromNumber(m[1], WalkingSpeed)
	}
	if m := meterRe.FindStringSubmatch(raw); m != nil {
		return fromNumber(m[1], 1)
	}
	return Distance{}
}

func fromNumber(digits string, scale int) Distance {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return Distance{}
	}
	return Distance{meters: n * scale, known: true}
}

// Known reports whether the distance could be determined.
func (d Distance) Known() bool { return d.known }

// Meters returns the normalized value; zero when unknown.
func (d Distance) Meters() int {
	if !d.known {
		return 0
	}
	return d.meters
}

// FartherThan reports whether the distance exceeds thresholdMeters. Unknown
// distances and non-positive thresholds are never "far".
func (d Distance) FartherThan(thresholdMeters int) bool {
	if !d.known || thresholdMeters <= 0 {
		return false
	}
	return d.meters > thresholdMeters
}

// Beyond returns how many meters past the threshold the distance lies;
// negative when within the threshold, zero when either side is unknown.
func (d Distance) Beyond(thresholdMeters int) int {
	if !d.known || thresholdMeters <= 0 {
		return 0
	}
	return d.meters - thresholdMeters
}
