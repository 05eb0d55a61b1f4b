// Package demo generates placeholder monitors so a status page renders
// before a real provider is connected. Demo monitors live in their own ID
// space (see model.MonitorID) and can sit next to real monitors on one page.
package demo

import (
	"math/rand/v2"
	"time"

	"github.com/statuskit/statuskit/internal/model"
)

const (
	MonitorCount  = 3
	historyPoints = 20
	pointSpacing  = 5 * time.Minute
)

type profile struct {
	name     string
	url      string
	baseMs   int
	jitterMs int
	uptime   string
}

var profiles = [MonitorCount]profile{
	{name: "Website", url: "https://example.com", baseMs: 120, jitterMs: 80, uptime: "100.000-99.980-99.950"},
	{name: "API", url: "https://api.example.com", baseMs: 60, jitterMs: 40, uptime: "100.000-100.000-99.990"},
	{name: "CDN", url: "https://cdn.example.com", baseMs: 25, jitterMs: 20, uptime: "99.990-99.970-99.920"},
}

// Monitors returns the fixed set of three demo monitors. The shape is
// deterministic (IDs, names, point count and spacing); only the latency
// values jitter between calls.
func Monitors() []model.MonitorRecord {
	now := time.Now().Unix()
	records := make([]model.MonitorRecord, 0, MonitorCount)
	for i, p := range profiles {
		times := make([]model.ResponseTime, 0, historyPoints)
		for j := historyPoints - 1; j >= 0; j-- {
			times = append(times, model.ResponseTime{
				Datetime: now - int64(j)*int64(pointSpacing.Seconds()),
				Value:    p.baseMs + rand.IntN(p.jitterMs+1),
			})
		}
		records = append(records, model.MonitorRecord{
			ID:                model.DemoID(i + 1),
			FriendlyName:      p.name,
			URL:               p.url,
			Status:            model.StatusUp,
			CustomUptimeRatio: p.uptime,
			ResponseTimes:     times,
			Logs:              []model.LogEntry{},
			CreateDatetime:    now - int64(30*24*time.Hour/time.Second),
		})
	}
	return records
}

// Filter keeps the demo monitors whose 1-based index is in wanted. A nil
// set keeps nothing.
func Filter(records []model.MonitorRecord, wanted map[int]bool) []model.MonitorRecord {
	out := make([]model.MonitorRecord, 0, len(records))
	for _, r := range records {
		if r.ID.IsDemo() && wanted[r.ID.DemoIndex()] {
			out = append(out, r)
		}
	}
	return out
}
