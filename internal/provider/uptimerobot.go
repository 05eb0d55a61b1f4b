package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/statuskit/statuskit/internal/model"
)

const uptimeRobotAPIURL = "https://api.uptimerobot.com/v2/getMonitors"

// UptimeRobot already speaks the unified encoding; the table still guards
// against new native values leaking through.
var uptimeRobotStatus = map[int]model.Status{
	0: model.StatusPaused,
	1: model.StatusPending,
	2: model.StatusUp,
	8: model.StatusDegraded,
	9: model.StatusDown,
}

type uptimeRobotResponse struct {
	Stat  string `json:"stat"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
	Monitors []uptimeRobotMonitor `json:"monitors"`
}

type uptimeRobotMonitor struct {
	ID                json.Number `json:"id"`
	FriendlyName      string      `json:"friendly_name"`
	URL               string      `json:"url"`
	Status            int         `json:"status"`
	CreateDatetime    int64       `json:"create_datetime"`
	CustomUptimeRatio string      `json:"custom_uptime_ratio"`
	ResponseTimes     []struct {
		Datetime int64 `json:"datetime"`
		Value    int   `json:"value"`
	} `json:"response_times"`
	Logs []struct {
		Type     int   `json:"type"`
		Datetime int64 `json:"datetime"`
		Duration int64 `json:"duration"`
		Reason   *struct {
			Code   json.Number `json:"code"`
			Detail string      `json:"detail"`
		} `json:"reason"`
	} `json:"logs"`
}

// fetchUptimeRobot posts a form-encoded getMonitors request. The ID filter
// is pushed server-side via the dash-joined monitors parameter.
func (f *Fetcher) fetchUptimeRobot(ctx context.Context, apiKey string, opts model.FetchOptions) ([]model.MonitorRecord, error) {
	form := url.Values{}
	form.Set("api_key", apiKey)
	form.Set("format", "json")

	ratios := opts.UptimeRatioDays
	if ratios == "" {
		ratios = "1-7-30"
	}
	form.Set("custom_uptime_ratios", ratios)

	if len(opts.MonitorIDs) > 0 {
		form.Set("monitors", strings.Join(opts.MonitorIDs, "-"))
	}
	if opts.ResponseTimes {
		form.Set("response_times", "1")
		if opts.ResponseTimesLimit > 0 {
			form.Set("response_times_limit", strconv.Itoa(opts.ResponseTimesLimit))
		}
	}
	if opts.Logs {
		form.Set("logs", "1")
		if opts.LogsLimit > 0 {
			form.Set("logs_limit", strconv.Itoa(opts.LogsLimit))
		}
	}
	for k, v := range opts.Extra {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.uptimeRobotURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &FetchError{Provider: model.ProviderUptimeRobot, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Provider: model.ProviderUptimeRobot, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Provider: model.ProviderUptimeRobot, StatusCode: resp.StatusCode, Message: providerErrorMessage(body)}
	}

	var parsed uptimeRobotResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &MalformedResponseError{Provider: model.ProviderUptimeRobot, Reason: err.Error()}
	}
	if parsed.Stat != "ok" {
		msg := "provider reported stat " + strconv.Quote(parsed.Stat)
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return nil, &FetchError{Provider: model.ProviderUptimeRobot, Message: msg}
	}
	if parsed.Monitors == nil {
		return nil, &MalformedResponseError{Provider: model.ProviderUptimeRobot, Reason: "missing monitors field"}
	}

	records := make([]model.MonitorRecord, 0, len(parsed.Monitors))
	for _, m := range parsed.Monitors {
		rec := model.MonitorRecord{
			ID:                model.RealID(m.ID.String()),
			FriendlyName:      m.FriendlyName,
			URL:               m.URL,
			Status:            mapStatus(uptimeRobotStatus, m.Status),
			CustomUptimeRatio: m.CustomUptimeRatio,
			CreateDatetime:    m.CreateDatetime,
			ResponseTimes:     []model.ResponseTime{},
			Logs:              []model.LogEntry{},
		}
		for _, rt := range m.ResponseTimes {
			rec.ResponseTimes = append(rec.ResponseTimes, model.ResponseTime{Datetime: rt.Datetime, Value: rt.Value})
		}
		for _, l := range m.Logs {
			entry := model.LogEntry{Type: l.Type, Datetime: l.Datetime, Duration: l.Duration}
			if l.Reason != nil {
				entry.Reason = &model.LogReason{Code: l.Reason.Code.String(), Detail: l.Reason.Detail}
			}
			rec.Logs = append(rec.Logs, entry)
		}
		records = append(records, rec)
	}
	return records, nil
}

func mapStatus[K comparable](table map[K]model.Status, native K) model.Status {
	if s, ok := table[native]; ok {
		return s
	}
	return model.StatusPending
}
