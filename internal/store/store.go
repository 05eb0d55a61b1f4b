package store

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/statuskit/statuskit/internal/model"
)

type State struct {
	Sites    []model.Site    `json:"sites"`
	Webhooks []model.Webhook `json:"webhooks"`
}

// ErrSubdomainTaken is returned when a site upsert would claim a subdomain
// another site already holds.
var ErrSubdomainTaken = errors.New("subdomain already in use")

type Store interface {
	GetSites() []model.Site
	GetSite(id string) (model.Site, bool)
	GetSiteBySubdomain(subdomain string) (model.Site, bool)
	UpsertSite(s model.Site) (model.Site, error)
	DeleteSite(id string) error

	GetWebhooks() []model.Webhook
	UpsertWebhook(w model.Webhook) (model.Webhook, error)
	DeleteWebhook(id string) error
}

type JSONStore struct {
	filePath string
	mu       sync.RWMutex
	state    State
}

func NewJSONStore(filePath string) (*JSONStore, error) {
	s := &JSONStore{filePath: filePath}
	if err := s.load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.state = State{
				Sites:    []model.Site{},
				Webhooks: []model.Webhook{},
			}
			return s, s.persist()
		}
		return nil, err
	}
	// Ensure non-nil slices
	if s.state.Sites == nil {
		s.state.Sites = []model.Site{}
	}
	if s.state.Webhooks == nil {
		s.state.Webhooks = []model.Webhook{}
	}
	return s, nil
}

// cloneSite detaches a site from the store's internal state. A Site carries
// nested maps and slices, so the struct copy alone would still share them
// with every other reader.
func cloneSite(s model.Site) model.Site {
	if s.MonitorIDs != nil {
		s.MonitorIDs = append([]string(nil), s.MonitorIDs...)
	}
	if s.ManualLogs != nil {
		logs := make(map[string][]model.LogEntry, len(s.ManualLogs))
		for k, v := range s.ManualLogs {
			logs[k] = append([]model.LogEntry(nil), v...)
		}
		s.ManualLogs = logs
	}
	if s.Theme != nil {
		theme := make(map[string]any, len(s.Theme))
		for k, v := range s.Theme {
			theme[k] = v
		}
		s.Theme = theme
	}
	return s
}

func (s *JSONStore) GetSites() []model.Site {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dst := make([]model.Site, len(s.state.Sites))
	for i, site := range s.state.Sites {
		dst[i] = cloneSite(site)
	}
	return dst
}

func (s *JSONStore) GetSite(id string) (model.Site, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, site := range s.state.Sites {
		if site.ID == id {
			return cloneSite(site), true
		}
	}
	return model.Site{}, false
}

func (s *JSONStore) GetSiteBySubdomain(subdomain string) (model.Site, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, site := range s.state.Sites {
		if site.Subdomain == subdomain {
			return cloneSite(site), true
		}
	}
	return model.Site{}, false
}

func (s *JSONStore) UpsertSite(site model.Site) (model.Site, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if site.Subdomain != "" {
		for i := range s.state.Sites {
			if s.state.Sites[i].ID != site.ID && s.state.Sites[i].Subdomain == site.Subdomain {
				return model.Site{}, ErrSubdomainTaken
			}
		}
	}

	found := false
	for i := range s.state.Sites {
		if s.state.Sites[i].ID == site.ID {
			site.CreatedAt = s.state.Sites[i].CreatedAt
			site.UpdatedAt = now
			s.state.Sites[i] = cloneSite(site)
			found = true
			break
		}
	}

	if !found {
		site.CreatedAt = now
		site.UpdatedAt = now
		s.state.Sites = append(s.state.Sites, cloneSite(site))
	}

	if err := s.persistLocked(); err != nil {
		return model.Site{}, err
	}

	return site, nil
}

func (s *JSONStore) DeleteSite(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.state.Sites[:0]
	for _, site := range s.state.Sites {
		if site.ID == id {
			continue
		}
		dst = append(dst, site)
	}
	s.state.Sites = dst

	return s.persistLocked()
}

func (s *JSONStore) GetWebhooks() []model.Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dst := make([]model.Webhook, len(s.state.Webhooks))
	copy(dst, s.state.Webhooks)
	return dst
}

func (s *JSONStore) UpsertWebhook(w model.Webhook) (model.Webhook, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.state.Webhooks {
		if s.state.Webhooks[i].ID == w.ID {
			w.CreatedAt = s.state.Webhooks[i].CreatedAt
			w.UpdatedAt = now
			s.state.Webhooks[i] = w
			found = true
			break
		}
	}

	if !found {
		w.CreatedAt = now
		w.UpdatedAt = now
		s.state.Webhooks = append(s.state.Webhooks, w)
	}

	if err := s.persistLocked(); err != nil {
		return model.Webhook{}, err
	}

	return w, nil
}

func (s *JSONStore) DeleteWebhook(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.state.Webhooks[:0]
	for _, w := range s.state.Webhooks {
		if w.ID == id {
			continue
		}
		dst = append(dst, w)
	}
	s.state.Webhooks = dst

	return s.persistLocked()
}

func (s *JSONStore) load() error {
	b, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return err
	}

	s.state = st
	return nil
}

func (s *JSONStore) persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

func (s *JSONStore) persistLocked() error {
	b, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.filePath)
}

func NewID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
