package suumo

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"suumo-watcher/models"
)

// stationLineRe splits a proximity line like
// "東京メトロ日比谷線/六本木駅 歩10分" into station and walking time.
var stationLineRe = regexp.MustCompile(`^(.+?)\s*((?:徒歩|歩|バス)\s*\d+\s*分.*)$`)

// ParseListings extracts listings from a search results page. Each
// cassetteitem block is one building; its room rows share the building's
// title, tags and station annotations.
func ParseListings(r io.Reader) ([]*models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	now := time.Now()
	var listings []*models.Listing

	doc.Find("div.cassetteitem").Each(func(_ int, item *goquery.Selection) {
		title := cleanText(item.Find(".cassetteitem_content-title").First().Text())
		houseType := cleanText(item.Find(".cassetteitem_content-label span").First().Text())

		var stations []models.StationDistance
		item.Find(".cassetteitem_detail-col2 .cassetteitem_detail-text").Each(func(_ int, line *goquery.Selection) {
			if st, ok := parseStationLine(line.Text()); ok {
				stations = append(stations, st)
			}
		})

		var tags []string
		item.Find(".cassetteitem_other-col .ui-pct span, .cassetteitem-tag span").Each(func(_ int, tag *goquery.Selection) {
			if t := cleanText(tag.Text()); t != "" {
				tags = append(tags, t)
			}
		})

		var images []string
		item.Find(".cassetteitem_object-item img").Each(func(_ int, img *goquery.Selection) {
			src, ok := img.Attr("rel")
			if !ok || src == "" {
				src, _ = img.Attr("src")
			}
			if src != "" {
				images = append(images, src)
			}
		})

		// One listing per room row; buildings without room rows still
		// produce a single record so nothing silently disappears.
		rows := item.Find("table.cassetteitem_other tbody tr.js-cassette_link")
		if rows.Length() == 0 {
			listings = append(listings, &models.Listing{
				Title:     title,
				HouseType: houseType,
				Stations:  stations,
				Tags:      tags,
				Images:    images,
				ScrapedAt: now,
			})
			return
		}

		rows.Each(func(_ int, row *goquery.Selection) {
			link, _ := row.Find("a.js-cassette_link_href").First().Attr("href")
			listings = append(listings, &models.Listing{
				Title:     title,
				Link:      strings.TrimSpace(link),
				HouseType: houseType,
				Rooms:     cleanText(row.Find("span.cassetteitem_madori").First().Text()),
				Stations:  stations,
				Tags:      tags,
				Images:    images,
				ScrapedAt: now,
			})
		})
	})

	return listings, nil
}

// parseStationLine splits one access line into its station name and raw
// proximity text. Lines without a recognizable time suffix keep the whole
// line as the station name with an empty distance.
func parseStationLine(line string) (models.StationDistance, bool) {
	line = cleanText(line)
	if line == "" {
		return models.StationDistance{}, false
	}
	if m := stationLineRe.FindStringSubmatch(line); m != nil {
		return models.StationDistance{
			Station:  cleanText(m[1]),
			Distance: cleanText(m[2]),
		}, true
	}
	return models.StationDistance{Station: line}, true
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
