package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/statuskit/statuskit/internal/model"
)

const (
	EventSitePublished   = "site_published"
	EventSiteUnpublished = "site_unpublished"
	EventIncidentLogged  = "incident_logged"
)

type Payload struct {
	Type      string         `json:"type"`
	SiteID    string         `json:"siteId"`
	Subdomain string         `json:"subdomain"`
	At        time.Time      `json:"at"`
	Data      map[string]any `json:"data"`
}

type Dispatcher struct {
	client *http.Client
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Broadcast delivers one payload to every subscriber webhook, best-effort:
// a failed delivery is skipped, not retried and not surfaced to the caller.
func (d *Dispatcher) Broadcast(ctx context.Context, webhooks []model.Webhook, payload Payload) {
	for _, w := range webhooks {
		if w.URL == "" {
			continue
		}
		_ = Send(ctx, d.client, w, payload)
	}
}

func Send(ctx context.Context, client *http.Client, w model.Webhook, payload Payload) error {
	var body []byte
	var err error

	switch w.Type {
	case "slack":
		body, err = buildSlackPayload(payload)
	case "discord":
		body, err = buildDiscordPayload(payload)
	default:
		// Default to generic webhook
		body, err = json.Marshal(payload)
	}

	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook %s returned status %d: %s", w.Name, resp.StatusCode, string(respBody))
	}

	return nil
}

func buildSlackPayload(p Payload) ([]byte, error) {
	payload := map[string]any{
		"text": formatText(p),
	}
	return json.Marshal(payload)
}

func buildDiscordPayload(p Payload) ([]byte, error) {
	color := 0x5cdd8b // Green
	if p.Type == EventIncidentLogged {
		color = 0xdc3545 // Red
	}

	payload := map[string]any{
		"username": "StatusKit",
		"embeds": []map[string]any{
			{
				"title":       eventTitle(p.Type),
				"description": formatText(p),
				"color":       color,
				"timestamp":   p.At.Format(time.RFC3339),
			},
		},
	}
	return json.Marshal(payload)
}

func eventTitle(t string) string {
	switch t {
	case EventSitePublished:
		return "Status page published"
	case EventSiteUnpublished:
		return "Status page unpublished"
	case EventIncidentLogged:
		return "Incident logged"
	default:
		return t
	}
}

func formatText(p Payload) string {
	var buf bytes.Buffer

	buf.WriteString(eventTitle(p.Type))
	if p.Subdomain != "" {
		fmt.Fprintf(&buf, " (%s)", p.Subdomain)
	}
	buf.WriteString("\n")

	if name, ok := p.Data["siteName"].(string); ok && name != "" {
		fmt.Fprintf(&buf, "Site: %s\n", name)
	}
	if monitor, ok := p.Data["monitorId"].(string); ok && monitor != "" {
		fmt.Fprintf(&buf, "Monitor: %s\n", monitor)
	}
	if detail, ok := p.Data["detail"].(string); ok && detail != "" {
		fmt.Fprintf(&buf, "Detail: %s\n", detail)
	}
	fmt.Fprintf(&buf, "At: %s", p.At.Format("2006-01-02 15:04:05"))

	return buf.String()
}
