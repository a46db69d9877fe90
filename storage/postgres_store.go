package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"suumo-watcher/models"
	"suumo-watcher/services"
	"suumo-watcher/utils"
)

// tagSeparator joins tag lists into one column. Unit separator never occurs
// in scraped tag text.
const tagSeparator = "\x1f"

// PostgresStore persists crawl history to PostgreSQL. Every write first runs
// through the change detector so cosmetic re-scrape noise (reordered images,
// whitespace) does not amplify into row rewrites.
type PostgresStore struct {
	db       *sql.DB
	detector *services.ChangeDetector
	logger   *utils.Logger
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(dsn string, detector *services.ChangeDetector, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db, detector: detector, logger: logger}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			query_id     TEXT        NOT NULL,
			entity_id    TEXT        NOT NULL,
			title        TEXT        NOT NULL DEFAULT '',
			link         TEXT        NOT NULL DEFAULT '',
			house_type   TEXT        NOT NULL DEFAULT '',
			rooms        TEXT        NOT NULL DEFAULT '',
			station1     TEXT        NOT NULL DEFAULT '',
			station2     TEXT        NOT NULL DEFAULT '',
			tags         TEXT        NOT NULL DEFAULT '',
			content_hash VARCHAR(32) NOT NULL DEFAULT '',
			first_seen   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_seen    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (query_id, entity_id)
		);

		CREATE INDEX IF NOT EXISTS idx_listings_query ON listings(query_id);

		CREATE TABLE IF NOT EXISTS crawl_sessions (
			id          UUID        PRIMARY KEY,
			query_id    TEXT        NOT NULL,
			started_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			total_found INT         NOT NULL DEFAULT 0,
			new_count   INT         NOT NULL DEFAULT 0,
			writes      INT         NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_query ON crawl_sessions(query_id);
	`)
	return err
}

// KnownEntityIDs returns the set of entity IDs already persisted under the
// given query identity.
func (ps *PostgresStore) KnownEntityIDs(queryID string) (map[string]struct{}, error) {
	rows, err := ps.db.Query(`SELECT entity_id FROM listings WHERE query_id = $1`, queryID)
	if err != nil {
		return nil, fmt.Errorf("postgres: known ids: %w", err)
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan id: %w", err)
		}
		known[id] = struct{}{}
	}
	return known, rows.Err()
}

// SaveCrawl upserts the crawl's records — skipping any record the change
// detector judges unchanged — and records a session row. The call is
// idempotent: replaying the same crawl finds nothing changed and writes only
// a new session.
func (ps *PostgresStore) SaveCrawl(queryID string, records []*models.AnnotatedListing, summary models.CrawlSummary) (*models.CrawlSession, error) {
	session := &models.CrawlSession{
		ID:         uuid.New().String(),
		QueryID:    queryID,
		StartedAt:  time.Now(),
		TotalFound: summary.TotalFound,
		NewCount:   summary.NewCount,
	}

	for _, rec := range records {
		prior, err := ps.loadPrior(queryID, rec.EntityID)
		if err != nil {
			return nil, err
		}

		change := ps.detector.Compare(rec.Listing, prior)
		if !change.HasChanged {
			continue
		}

		if err := ps.upsert(queryID, rec); err != nil {
			return nil, err
		}
		session.Writes++
		ps.logger.Debug("[postgres] Wrote %s (%s)", rec.EntityID, strings.Join(change.ChangedFields, ","))
	}

	_, err := ps.db.Exec(`
		INSERT INTO crawl_sessions (id, query_id, started_at, total_found, new_count, writes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, session.ID, session.QueryID, session.StartedAt, session.TotalFound, session.NewCount, session.Writes)
	if err != nil {
		return nil, fmt.Errorf("postgres: insert session: %w", err)
	}

	return session, nil
}

// loadPrior reconstructs the last-persisted counterpart of a record, or nil
// on first sighting.
func (ps *PostgresStore) loadPrior(queryID, entityID string) (*models.Listing, error) {
	row := ps.db.QueryRow(`
		SELECT title, link, house_type, rooms, station1, station2, tags
		FROM listings
		WHERE query_id = $1 AND entity_id = $2
	`, queryID, entityID)

	var title, link, houseType, rooms, station1, station2, tags string
	err := row.Scan(&title, &link, &houseType, &rooms, &station1, &station2, &tags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: load prior %s: %w", entityID, err)
	}

	prior := &models.Listing{
		Title:     title,
		Link:      link,
		HouseType: houseType,
		Rooms:     rooms,
	}
	for _, st := range []string{station1, station2} {
		if st != "" {
			prior.Stations = append(prior.Stations, models.StationDistance{Station: st})
		}
	}
	if tags != "" {
		prior.Tags = strings.Split(tags, tagSeparator)
	}
	return prior, nil
}

func (ps *PostgresStore) upsert(queryID string, rec *models.AnnotatedListing) error {
	_, err := ps.db.Exec(`
		INSERT INTO listings (query_id, entity_id, title, link, house_type, rooms, station1, station2, tags, content_hash, first_seen, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		ON CONFLICT (query_id, entity_id) DO UPDATE SET
			title        = EXCLUDED.title,
			link         = EXCLUDED.link,
			house_type   = EXCLUDED.house_type,
			rooms        = EXCLUDED.rooms,
			station1     = EXCLUDED.station1,
			station2     = EXCLUDED.station2,
			tags         = EXCLUDED.tags,
			content_hash = EXCLUDED.content_hash,
			last_seen    = NOW()
	`, queryID, rec.EntityID, rec.Title, rec.Link, rec.HouseType, rec.Rooms,
		stationText(rec.Listing, 0), stationText(rec.Listing, 1),
		strings.Join(rec.Tags, tagSeparator), services.ContentHash(rec.Listing))
	if err != nil {
		return fmt.Errorf("postgres: upsert %s: %w", rec.EntityID, err)
	}
	return nil
}

// stationText flattens one station annotation into its stored column form.
func stationText(l *models.Listing, i int) string {
	if i >= len(l.Stations) {
		return ""
	}
	st := l.Stations[i]
	return strings.TrimSpace(st.Station + " " + st.Distance)
}

// SessionHistory returns the most recent crawl sessions for a query identity.
func (ps *PostgresStore) SessionHistory(queryID string, limit int) ([]*models.CrawlSession, error) {
	rows, err := ps.db.Query(`
		SELECT id, query_id, started_at, total_found, new_count, writes
		FROM crawl_sessions
		WHERE query_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, queryID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: session history: %w", err)
	}
	defer rows.Close()

	var sessions []*models.CrawlSession
	for rows.Next() {
		s := &models.CrawlSession{}
		if err := rows.Scan(&s.ID, &s.QueryID, &s.StartedAt, &s.TotalFound, &s.NewCount, &s.Writes); err != nil {
			return nil, fmt.Errorf("postgres: scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Close closes the database connection.
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
