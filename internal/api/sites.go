package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/statuskit/statuskit/internal/model"
	"github.com/statuskit/statuskit/internal/notify"
	"github.com/statuskit/statuskit/internal/provider"
	"github.com/statuskit/statuskit/internal/stats"
	"github.com/statuskit/statuskit/internal/store"
)

func sitesRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Store.GetSites())
	})
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var s model.Site
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if s.ID == "" {
			s.ID = store.NewID()
		}
		s = normalizeSite(s)
		out, err := deps.Store.UpsertSite(s)
		if err != nil {
			writeError(w, upsertStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})
	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		site, ok := deps.Store.GetSite(chi.URLParam(r, "id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "site not found"})
			return
		}
		writeJSON(w, http.StatusOK, site)
	})
	r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var s model.Site
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		s.ID = id
		s = normalizeSite(s)
		out, err := deps.Store.UpsertSite(s)
		if err != nil {
			writeError(w, upsertStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})
	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Store.DeleteSite(chi.URLParam(r, "id")); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Post("/{id}/publish", deps.setPublished(true))
	r.Post("/{id}/unpublish", deps.setPublished(false))

	// Manual incident log, merged into provider logs at read time.
	r.Post("/{id}/logs", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		site, ok := deps.Store.GetSite(id)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "site not found"})
			return
		}
		var body struct {
			MonitorID string `json:"monitorId"`
			model.LogEntry
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if body.MonitorID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "monitorId is required"})
			return
		}
		if body.Type != model.LogTypeDown && body.Type != model.LogTypeUp {
			body.Type = model.LogTypeDown
		}
		if body.Datetime == 0 {
			body.Datetime = time.Now().Unix()
		}
		if site.ManualLogs == nil {
			site.ManualLogs = make(map[string][]model.LogEntry)
		}
		key := model.ParseMonitorID(body.MonitorID).String()
		site.ManualLogs[key] = append(site.ManualLogs[key], body.LogEntry)

		out, err := deps.Store.UpsertSite(site)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		detail := ""
		if body.Reason != nil {
			detail = body.Reason.Detail
		}
		deps.Notifier.Broadcast(r.Context(), deps.Store.GetWebhooks(), notify.Payload{
			Type:      notify.EventIncidentLogged,
			SiteID:    site.ID,
			Subdomain: site.Subdomain,
			At:        time.Now().UTC(),
			Data: map[string]any{
				"siteName":  site.Name,
				"monitorId": key,
				"detail":    detail,
			},
		})

		writeJSON(w, http.StatusOK, out)
	})

	// Dashboard analytics view: live records plus KPIs for one site. An
	// empty monitor selection lists everything the provider account has,
	// so the editor can pick.
	r.Get("/{id}/monitors", func(w http.ResponseWriter, r *http.Request) {
		site, ok := deps.Store.GetSite(chi.URLParam(r, "id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "site not found"})
			return
		}
		records, provErr := deps.siteMonitors(r.Context(), site, true)
		if provErr != nil {
			var unsupported *provider.UnsupportedProviderError
			if errors.As(provErr, &unsupported) {
				writeError(w, http.StatusBadRequest, provErr)
				return
			}
		}
		writeJSON(w, http.StatusOK, statusPayload(site, records, provErr))
	})

	return r
}

func (d Deps) setPublished(published bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		site, ok := d.Store.GetSite(chi.URLParam(r, "id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "site not found"})
			return
		}
		site.Published = published
		if published {
			now := time.Now().UTC()
			site.PublishedAt = &now
		}
		out, err := d.Store.UpsertSite(site)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		event := notify.EventSiteUnpublished
		if published {
			event = notify.EventSitePublished
		}
		d.Notifier.Broadcast(r.Context(), d.Store.GetWebhooks(), notify.Payload{
			Type:      event,
			SiteID:    site.ID,
			Subdomain: site.Subdomain,
			At:        time.Now().UTC(),
			Data:      map[string]any{"siteName": site.Name},
		})

		d.Logger.Info("site publish state changed",
			zap.String("site_id", site.ID),
			zap.String("subdomain", site.Subdomain),
			zap.Bool("published", published),
		)
		writeJSON(w, http.StatusOK, out)
	}
}

func upsertStatus(err error) int {
	if errors.Is(err, store.ErrSubdomainTaken) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func normalizeSite(s model.Site) model.Site {
	if s.MonitorIDs == nil {
		s.MonitorIDs = []string{}
	}
	if s.Provider == "" {
		s.Provider = model.ProviderUptimeRobot
	}
	return s
}

func statusPayload(site model.Site, records []model.MonitorRecord, provErr error) map[string]any {
	payload := map[string]any{
		"site": map[string]any{
			"subdomain": site.Subdomain,
			"name":      site.Name,
			"theme":     site.Theme,
		},
		"monitors": records,
		"kpis":     stats.ComputeKPIs(records),
	}
	if provErr != nil {
		payload["providerError"] = provErr.Error()
	}
	return payload
}
