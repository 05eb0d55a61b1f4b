package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/statuskit/statuskit/internal/model"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps site and webhook records as JSON blobs in sqlite.
// Selected when the configured data path ends in .db; the JSON file store
// stays the default for single-instance deployments.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

func NewSQLiteStore(filePath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sites (
			id TEXT PRIMARY KEY,
			subdomain TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sites_subdomain ON sites(subdomain);`,
		`CREATE TABLE IF NOT EXISTS webhooks (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		);`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to exec query %q: %w", query, err)
		}
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetSites() []model.Site {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sites := []model.Site{}
	rows, err := s.db.Query("SELECT data FROM sites ORDER BY created_at")
	if err != nil {
		return sites
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err == nil {
			var site model.Site
			if err := json.Unmarshal([]byte(data), &site); err == nil {
				sites = append(sites, site)
			}
		}
	}
	return sites
}

func (s *SQLiteStore) GetSite(id string) (model.Site, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.querySite("SELECT data FROM sites WHERE id = ?", id)
}

func (s *SQLiteStore) GetSiteBySubdomain(subdomain string) (model.Site, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.querySite("SELECT data FROM sites WHERE subdomain = ?", subdomain)
}

func (s *SQLiteStore) querySite(query, arg string) (model.Site, bool) {
	var data string
	if err := s.db.QueryRow(query, arg).Scan(&data); err != nil {
		return model.Site{}, false
	}
	var site model.Site
	if err := json.Unmarshal([]byte(data), &site); err != nil {
		return model.Site{}, false
	}
	return site, true
}

func (s *SQLiteStore) UpsertSite(site model.Site) (model.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	site.UpdatedAt = now

	if site.Subdomain != "" {
		if other, ok := s.querySite("SELECT data FROM sites WHERE subdomain = ?", site.Subdomain); ok && other.ID != site.ID {
			return model.Site{}, ErrSubdomainTaken
		}
	}

	// Updates keep the original creation time regardless of what the
	// caller sent; handlers decode fresh structs with a zero CreatedAt.
	if existing, ok := s.querySite("SELECT data FROM sites WHERE id = ?", site.ID); ok {
		site.CreatedAt = existing.CreatedAt
	} else {
		site.CreatedAt = now
	}

	data, err := json.Marshal(site)
	if err != nil {
		return model.Site{}, err
	}

	query := `INSERT INTO sites (id, subdomain, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
			  ON CONFLICT(id) DO UPDATE SET subdomain=excluded.subdomain, data=excluded.data, updated_at=excluded.updated_at`

	if _, err := s.db.Exec(query, site.ID, site.Subdomain, string(data), site.CreatedAt, site.UpdatedAt); err != nil {
		return model.Site{}, err
	}

	return site, nil
}

func (s *SQLiteStore) DeleteSite(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM sites WHERE id = ?", id)
	return err
}

func (s *SQLiteStore) GetWebhooks() []model.Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	webhooks := []model.Webhook{}
	rows, err := s.db.Query("SELECT data FROM webhooks ORDER BY created_at")
	if err != nil {
		return webhooks
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err == nil {
			var w model.Webhook
			if err := json.Unmarshal([]byte(data), &w); err == nil {
				webhooks = append(webhooks, w)
			}
		}
	}
	return webhooks
}

func (s *SQLiteStore) queryWebhook(id string) (model.Webhook, bool) {
	var data string
	if err := s.db.QueryRow("SELECT data FROM webhooks WHERE id = ?", id).Scan(&data); err != nil {
		return model.Webhook{}, false
	}
	var w model.Webhook
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return model.Webhook{}, false
	}
	return w, true
}

func (s *SQLiteStore) UpsertWebhook(w model.Webhook) (model.Webhook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	w.UpdatedAt = now
	if existing, ok := s.queryWebhook(w.ID); ok {
		w.CreatedAt = existing.CreatedAt
	} else {
		w.CreatedAt = now
	}

	data, err := json.Marshal(w)
	if err != nil {
		return model.Webhook{}, err
	}

	query := `INSERT INTO webhooks (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)
			  ON CONFLICT(id) DO UPDATE SET data=excluded.data, updated_at=excluded.updated_at`

	if _, err := s.db.Exec(query, w.ID, string(data), w.CreatedAt, w.UpdatedAt); err != nil {
		return model.Webhook{}, err
	}

	return w, nil
}

func (s *SQLiteStore) DeleteWebhook(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM webhooks WHERE id = ?", id)
	return err
}
