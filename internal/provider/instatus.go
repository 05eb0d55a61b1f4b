package provider

import (
	"context"
	"sync"
	"time"

	"github.com/statuskit/statuskit/internal/model"
)

const instatusAPIBase = "https://api.instatus.com"

var instatusStatus = map[string]model.Status{
	"OPERATIONAL":         model.StatusUp,
	"UNDERMAINTENANCE":    model.StatusPaused,
	"DEGRADEDPERFORMANCE": model.StatusDegraded,
	"PARTIALOUTAGE":       model.StatusDegraded,
	"MAJOROUTAGE":         model.StatusDown,
}

type instatusPage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type instatusMonitor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

type instatusIncident struct {
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	Started    string  `json:"started"`
	Resolved   *string `json:"resolved"`
	Components []struct {
		ID string `json:"id"`
	} `json:"components"`
}

// fetchInstatus discovers the account's first page, then fetches that
// page's monitors and incidents in parallel. Incidents are best-effort:
// losing them reduces data completeness but never fails the call.
func (f *Fetcher) fetchInstatus(ctx context.Context, apiKey string, opts model.FetchOptions) ([]model.MonitorRecord, error) {
	var pages []instatusPage
	if err := f.getJSON(ctx, model.ProviderInstatus, f.instatusBaseURL+"/v2/pages", apiKey, &pages); err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return []model.MonitorRecord{}, nil
	}
	pageID := pages[0].ID

	var (
		wg        sync.WaitGroup
		monitors  []instatusMonitor
		monErr    error
		incidents []instatusIncident
		incErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		monErr = f.getJSON(ctx, model.ProviderInstatus, f.instatusBaseURL+"/v1/"+pageID+"/monitors", apiKey, &monitors)
	}()
	go func() {
		defer wg.Done()
		incErr = f.getJSON(ctx, model.ProviderInstatus, f.instatusBaseURL+"/v1/"+pageID+"/incidents", apiKey, &incidents)
	}()
	wg.Wait()

	if monErr != nil {
		return nil, monErr
	}
	if incErr != nil {
		incidents = nil
	}

	logsByComponent := make(map[string][]model.LogEntry)
	for _, inc := range incidents {
		started, err := time.Parse(time.RFC3339, inc.Started)
		if err != nil {
			continue
		}
		var duration int64
		if inc.Resolved != nil {
			if resolved, err := time.Parse(time.RFC3339, *inc.Resolved); err == nil {
				duration = resolved.Unix() - started.Unix()
			}
		}
		entry := model.LogEntry{
			Type:     model.LogTypeDown,
			Datetime: started.Unix(),
			Duration: duration,
			Reason:   &model.LogReason{Code: inc.Status, Detail: inc.Name},
		}
		for _, c := range inc.Components {
			logsByComponent[c.ID] = append(logsByComponent[c.ID], entry)
		}
	}

	records := make([]model.MonitorRecord, 0, len(monitors))
	for _, m := range monitors {
		var created int64
		if t, err := time.Parse(time.RFC3339, m.CreatedAt); err == nil {
			created = t.Unix()
		}
		logs := logsByComponent[m.ID]
		if logs == nil {
			logs = []model.LogEntry{}
		}
		records = append(records, model.MonitorRecord{
			ID:                model.RealID(m.ID),
			FriendlyName:      m.Name,
			URL:               m.URL,
			Status:            mapStatus(instatusStatus, m.Status),
			CustomUptimeRatio: "100.000",
			ResponseTimes:     []model.ResponseTime{},
			Logs:              logs,
			CreateDatetime:    created,
		})
	}
	return filterByID(records, opts.MonitorIDs), nil
}
