package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/statuskit/statuskit/internal/model"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = 30 * time.Second
)

type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider %q", e.Provider)
}

// FetchError is any transport failure or provider-reported application
// error. Message carries the provider's own wording when it sent one.
type FetchError struct {
	Provider   model.Provider
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: fetch failed (http %d): %s", e.Provider, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: fetch failed: %s", e.Provider, msg)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedResponseError is a 2xx response whose body does not parse into
// the expected shape. Callers treat it exactly like a FetchError.
type MalformedResponseError struct {
	Provider model.Provider
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %s", e.Provider, e.Reason)
}

// Options configures a Fetcher. Zero values fall back to conservative
// defaults; CacheTTL < 0 disables the response cache. The URL overrides
// exist for tests and proxies; empty means the provider's real endpoint.
type Options struct {
	Timeout  time.Duration
	CacheTTL time.Duration

	UptimeRobotURL  string
	BetterStackURL  string
	InstatusBaseURL string
}

// Fetcher dispatches monitor fetches to the provider adapters. It holds no
// credentials or ambient configuration: the API key and options arrive as
// plain parameters on every call.
type Fetcher struct {
	client *http.Client
	cache  *responseCache

	// Overridable in tests.
	uptimeRobotURL  string
	betterStackURL  string
	instatusBaseURL string
}

func NewFetcher(opts Options) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	var cache *responseCache
	if ttl > 0 {
		cache = newResponseCache(ttl)
	}
	f := &Fetcher{
		client:          &http.Client{Timeout: timeout},
		cache:           cache,
		uptimeRobotURL:  uptimeRobotAPIURL,
		betterStackURL:  betterStackAPIURL,
		instatusBaseURL: instatusAPIBase,
	}
	if opts.UptimeRobotURL != "" {
		f.uptimeRobotURL = opts.UptimeRobotURL
	}
	if opts.BetterStackURL != "" {
		f.betterStackURL = opts.BetterStackURL
	}
	if opts.InstatusBaseURL != "" {
		f.instatusBaseURL = opts.InstatusBaseURL
	}
	return f
}

// GetMonitors fetches unified monitor records from one provider. A missing
// provider defaults to UptimeRobot, the original sole provider. Unknown
// identifiers fail before any network call.
func (f *Fetcher) GetMonitors(ctx context.Context, provider model.Provider, apiKey string, opts model.FetchOptions) ([]model.MonitorRecord, error) {
	if provider == "" {
		provider = model.ProviderUptimeRobot
	}

	var fetch func(context.Context, string, model.FetchOptions) ([]model.MonitorRecord, error)
	switch provider {
	case model.ProviderUptimeRobot:
		fetch = f.fetchUptimeRobot
	case model.ProviderBetterStack:
		fetch = f.fetchBetterStack
	case model.ProviderInstatus:
		fetch = f.fetchInstatus
	default:
		return nil, &UnsupportedProviderError{Provider: string(provider)}
	}

	if f.cache != nil {
		key := cacheKey(provider, apiKey, opts)
		if records, ok := f.cache.get(key); ok {
			return records, nil
		}
		records, err := fetch(ctx, apiKey, opts)
		if err != nil {
			return nil, err
		}
		f.cache.put(key, records)
		return records, nil
	}

	return fetch(ctx, apiKey, opts)
}

// filterByID keeps the records whose ID matches one of the requested IDs,
// comparing both sides as strings so numeric and string forms of the same
// ID agree. An empty filter keeps everything. Provider order is preserved.
func filterByID(records []model.MonitorRecord, ids []string) []model.MonitorRecord {
	if len(ids) == 0 {
		return records
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]model.MonitorRecord, 0, len(records))
	for _, r := range records {
		if want[r.ID.String()] {
			out = append(out, r)
		}
	}
	return out
}

func (f *Fetcher) getJSON(ctx context.Context, provider model.Provider, url, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &FetchError{Provider: provider, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := f.client.Do(req)
	if err != nil {
		return &FetchError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &FetchError{Provider: provider, StatusCode: resp.StatusCode, Message: providerErrorMessage(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &MalformedResponseError{Provider: provider, Reason: err.Error()}
	}
	return nil
}

// providerErrorMessage pulls a human-readable message out of a provider
// error body, trying the common envelope keys before giving up.
func providerErrorMessage(body []byte) string {
	var envelope struct {
		Error   any    `json:"error"`
		Errors  any    `json:"errors"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	switch v := envelope.Error.(type) {
	case string:
		return v
	case map[string]any:
		if m, ok := v["message"].(string); ok {
			return m
		}
	}
	if s, ok := envelope.Errors.(string); ok {
		return s
	}
	return ""
}
