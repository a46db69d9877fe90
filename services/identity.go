package services

import (
	"errors"
	"net/url"
	"strings"

	"suumo-watcher/models"
)

// ErrUnidentifiable means a listing carries neither a link nor a title, so no
// stable identity can be derived and the record must be rejected.
var ErrUnidentifiable = errors.New("listing has neither link nor title")

// IDKind tags which identity source was available for a listing.
type IDKind int

const (
	IDKindLink IDKind = iota
	IDKindComposite
	IDKindTitle
)

func (k IDKind) String() string {
	switch k {
	case IDKindLink:
		return "link"
	case IDKindComposite:
		return "composite"
	default:
		return "title"
	}
}

// EntityID identifies one listing across repeated fetches. Link-derived IDs
// are stable even when the listing's proximity annotations change between
// crawls; the composite and title fallbacks trade reliability for coverage.
type EntityID struct {
	Kind        IDKind
	Value       string
	Reliability float64
}

// String renders the identity in its persisted form, prefixed by kind so a
// composite ID can never collide with a link ID that happens to share text.
func (id EntityID) String() string {
	return id.Kind.String() + ":" + id.Value
}

// ResolveEntityID derives the stable identity for a listing: canonical link
// path first, then title+first-station composite, then bare title.
func ResolveEntityID(l *models.Listing) (EntityID, error) {
	if link := normalizeLink(l.Link); link != "" {
		return EntityID{Kind: IDKindLink, Value: link, Reliability: 1.0}, nil
	}

	title := normalizeSpace(l.Title)
	if title == "" {
		return EntityID{}, ErrUnidentifiable
	}

	if st := l.FirstStation(); st.Station != "" {
		value := title + "@" + normalizeSpace(st.Station) + " " + normalizeSpace(st.Distance)
		return EntityID{Kind: IDKindComposite, Value: value, Reliability: 0.6}, nil
	}

	return EntityID{Kind: IDKindTitle, Value: title, Reliability: 0.3}, nil
}

// normalizeLink reduces a listing link to its canonical path: scheme, host
// casing, query strings and trailing slashes do not fragment identity.
func normalizeLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return strings.TrimRight(link, "/")
	}
	path := strings.TrimRight(u.Path, "/")
	if path == "" {
		return ""
	}
	return path
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
