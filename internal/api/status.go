package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/statuskit/statuskit/internal/demo"
	"github.com/statuskit/statuskit/internal/model"
	"github.com/statuskit/statuskit/internal/stats"
)

// handlePublicStatus serves the payload a published status page renders
// from. Provider failures degrade: the page still gets whatever demo and
// manual data exists plus a soft warning, never a hard error.
func (d Deps) handlePublicStatus(w http.ResponseWriter, r *http.Request) {
	subdomain := chi.URLParam(r, "subdomain")
	site, ok := d.Store.GetSiteBySubdomain(subdomain)
	if !ok || !site.Published {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "status page not found"})
		return
	}

	records, provErr := d.siteMonitors(r.Context(), site, false)
	writeJSON(w, http.StatusOK, statusPayload(site, records, provErr))
}

// siteMonitors assembles the unified record set for one site: demo
// monitors for the demo IDs in its configuration, provider records for the
// rest, manual logs merged in last. includeAll lets the dashboard fetch
// the whole provider account when no monitors are selected yet; the public
// page only ever fetches the configured set. A provider failure is
// returned alongside whatever records survived, and never includes the
// API key.
func (d Deps) siteMonitors(ctx context.Context, site model.Site, includeAll bool) ([]model.MonitorRecord, error) {
	demoWanted, realIDs := model.PartitionIDs(site.MonitorIDs)

	records := []model.MonitorRecord{}
	if len(demoWanted) > 0 {
		records = append(records, demo.Filter(demo.Monitors(), demoWanted)...)
	}

	var provErr error
	if site.APIKey != "" && (len(realIDs) > 0 || includeAll) {
		fetched, err := d.Fetcher.GetMonitors(ctx, site.Provider, site.APIKey, model.FetchOptions{
			MonitorIDs:         realIDs,
			ResponseTimes:      true,
			ResponseTimesLimit: 50,
			Logs:               true,
			LogsLimit:          25,
		})
		if err != nil {
			provErr = err
			d.Logger.Warn("provider fetch failed",
				zap.String("site_id", site.ID),
				zap.String("provider", string(site.Provider)),
				zap.Error(err),
			)
		} else {
			records = append(records, fetched...)
		}
	}

	return stats.MergeManualLogs(records, site.ManualLogs), provErr
}
