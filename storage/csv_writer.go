package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"suumo-watcher/models"
)

// CSVWriter appends newly discovered listings to a CSV file, one row per
// record with its notification decision. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"entity_id", "title", "link", "house_type", "rooms",
		"stations", "tags", "notify", "silent", "scraped_at",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// ExportNew writes only the records classified as new this crawl.
func (c *CSVWriter) ExportNew(records []*models.AnnotatedListing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, rec := range records {
		if !rec.IsNew {
			continue
		}

		stations := make([]string, 0, len(rec.Stations))
		for _, st := range rec.Stations {
			stations = append(stations, strings.TrimSpace(st.Station+" "+st.Distance))
		}

		row := []string{
			rec.EntityID,
			rec.Title,
			rec.Link,
			rec.HouseType,
			rec.Rooms,
			strings.Join(stations, "; "),
			strings.Join(rec.Tags, "; "),
			strconv.FormatBool(rec.Notify.ShouldNotify),
			strconv.FormatBool(rec.Notify.Silent),
			rec.ScrapedAt.Format(time.RFC3339),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
