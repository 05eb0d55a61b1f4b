package provider

import (
	"context"
	"time"

	"github.com/statuskit/statuskit/internal/model"
)

const betterStackAPIURL = "https://uptime.betterstack.com/api/v2/monitors"

var betterStackStatus = map[string]model.Status{
	"up":          model.StatusUp,
	"validating":  model.StatusUp,
	"down":        model.StatusDown,
	"paused":      model.StatusPaused,
	"maintenance": model.StatusPaused,
	"pending":     model.StatusPending,
}

type betterStackResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			URL               string `json:"url"`
			PronounceableName string `json:"pronounceable_name"`
			Status            string `json:"status"`
			CreatedAt         string `json:"created_at"`
		} `json:"attributes"`
	} `json:"data"`
}

// fetchBetterStack lists monitors through the JSON:API envelope. The API has
// no per-ID filter, so the requested IDs are applied client-side. Uptime
// ratios and latency history would cost one extra call per monitor, so they
// default to full uptime and empty history.
func (f *Fetcher) fetchBetterStack(ctx context.Context, apiKey string, opts model.FetchOptions) ([]model.MonitorRecord, error) {
	var parsed betterStackResponse
	if err := f.getJSON(ctx, model.ProviderBetterStack, f.betterStackURL, apiKey, &parsed); err != nil {
		return nil, err
	}
	if parsed.Data == nil {
		return nil, &MalformedResponseError{Provider: model.ProviderBetterStack, Reason: "missing data field"}
	}

	records := make([]model.MonitorRecord, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		name := m.Attributes.PronounceableName
		if name == "" {
			name = m.Attributes.URL
		}
		var created int64
		if t, err := time.Parse(time.RFC3339, m.Attributes.CreatedAt); err == nil {
			created = t.Unix()
		}
		records = append(records, model.MonitorRecord{
			ID:                model.RealID(m.ID),
			FriendlyName:      name,
			URL:               m.Attributes.URL,
			Status:            mapStatus(betterStackStatus, m.Attributes.Status),
			CustomUptimeRatio: "100.000",
			ResponseTimes:     []model.ResponseTime{},
			Logs:              []model.LogEntry{},
			CreateDatetime:    created,
		})
	}
	return filterByID(records, opts.MonitorIDs), nil
}
