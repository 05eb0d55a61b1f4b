package model

import "time"

type Provider string

const (
	ProviderUptimeRobot Provider = "uptimerobot"
	ProviderBetterStack Provider = "betterstack"
	ProviderInstatus    Provider = "instatus"
)

// Status is the unified monitor status shared by every provider adapter.
// The values follow the legacy UptimeRobot encoding; every consumer that
// branches on a status branches on these five values.
type Status int

const (
	StatusPaused   Status = 0 // paused or under maintenance
	StatusPending  Status = 1 // unknown, not yet checked
	StatusUp       Status = 2
	StatusDegraded Status = 8 // seems down
	StatusDown     Status = 9
)

func (s Status) String() string {
	switch s {
	case StatusPaused:
		return "paused"
	case StatusPending:
		return "pending"
	case StatusUp:
		return "up"
	case StatusDegraded:
		return "degraded"
	case StatusDown:
		return "down"
	default:
		return "pending"
	}
}

// Log entry types. Several call sites compare against the literal values,
// so these must stay 1 and 2.
const (
	LogTypeDown = 1
	LogTypeUp   = 2
)

type LogReason struct {
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type LogEntry struct {
	Type     int        `json:"type"` // LogTypeDown or LogTypeUp
	Datetime int64      `json:"datetime"`
	Duration int64      `json:"duration"`
	Reason   *LogReason `json:"reason,omitempty"`
}

type ResponseTime struct {
	Datetime int64 `json:"datetime"`
	Value    int   `json:"value"` // milliseconds
}

// MonitorRecord is the unified shape every provider adapter produces.
type MonitorRecord struct {
	ID                MonitorID      `json:"id"`
	FriendlyName      string         `json:"friendlyName"`
	URL               string         `json:"url"`
	Status            Status         `json:"status"`
	CustomUptimeRatio string         `json:"customUptimeRatio"`
	ResponseTimes     []ResponseTime `json:"responseTimes"`
	Logs              []LogEntry     `json:"logs"`
	CreateDatetime    int64          `json:"createDatetime,omitempty"`
}

// FetchOptions carries the provider-agnostic request parameters. Extra is
// the escape hatch for provider-specific query keys; an adapter only passes
// it through to its own provider.
type FetchOptions struct {
	MonitorIDs         []string          `json:"monitorIds,omitempty"`
	UptimeRatioDays    string            `json:"uptimeRatioDays,omitempty"` // dash-separated day counts, e.g. "1-7-30"
	ResponseTimes      bool              `json:"responseTimes,omitempty"`
	ResponseTimesLimit int               `json:"responseTimesLimit,omitempty"`
	Logs               bool              `json:"logs,omitempty"`
	LogsLimit          int               `json:"logsLimit,omitempty"`
	Extra              map[string]string `json:"extra,omitempty"`
}

// Site is one hosted status page: the persisted configuration the editor
// writes and the public page reads. ManualLogs are user-authored incident
// entries keyed by monitor-ID string, merged into provider logs at read
// time. Theme is owned by the visual editor; the server stores it opaquely.
type Site struct {
	ID          string                `json:"id"`
	Subdomain   string                `json:"subdomain"`
	Name        string                `json:"name"`
	Provider    Provider              `json:"provider,omitempty"`
	APIKey      string                `json:"apiKey,omitempty"`
	MonitorIDs  []string              `json:"monitorIds"`
	ManualLogs  map[string][]LogEntry `json:"manualLogs,omitempty"`
	Theme       map[string]any        `json:"theme,omitempty"`
	Published   bool                  `json:"published"`
	PublishedAt *time.Time            `json:"publishedAt,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

type Webhook struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"` // webhook, slack, discord
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
