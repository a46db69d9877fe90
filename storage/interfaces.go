package storage

import "suumo-watcher/models"

// NewListingExporter is the interface any export backend for freshly
// discovered listings must satisfy.
type NewListingExporter interface {
	ExportNew(records []*models.AnnotatedListing) error
	Close() error
}
