// Package archive wraps an archive/backlink aggregator: given a domain
// it returns archived snapshots and the domains linking to it.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tagus/trailhound/pkg/interfaces"
	"github.com/tagus/trailhound/pkg/logging"
)

// Client implements interfaces.SourceClient for an archive aggregator.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

// Option represents an option for configuring the client
type Option func(*Client)

// WithHTTPClient sets the HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets the logger for the client
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a new archive aggregator client.
func New(baseURL string, options ...Option) *Client {
	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logging.New(),
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// Name returns the name of the source
func (c *Client) Name() string {
	return "archive"
}

type archiveResponse struct {
	Domain    string `json:"domain"`
	Snapshots []struct {
		URL       string `json:"url"`
		Timestamp string `json:"timestamp"`
	} `json:"snapshots"`
	Backlinks []struct {
		SourceDomain string `json:"source_domain"`
	} `json:"backlinks"`
}

// Lookup aggregates archived snapshots and backlinks for a domain.
func (c *Client) Lookup(ctx context.Context, value string) ([]interfaces.SourceRecord, error) {
	endpoint := fmt.Sprintf("%s/v1/domain?name=%s", c.baseURL, url.QueryEscape(value))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build archive request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive API returned status %d", resp.StatusCode)
	}

	var payload archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode archive response: %w", err)
	}
	if len(payload.Snapshots) == 0 && len(payload.Backlinks) == 0 {
		return nil, nil
	}

	record := interfaces.SourceRecord{
		SourceName: c.Name(),
		RecordID:   "domain:" + payload.Domain,
		Title:      payload.Domain,
		Raw: map[string]interface{}{
			"snapshot_count": len(payload.Snapshots),
		},
	}
	for _, snapshot := range payload.Snapshots {
		record.Entities = append(record.Entities, interfaces.DiscoveredEntity{
			Value:    snapshot.URL,
			Kind:     "url",
			Relation: "archived_snapshot",
		})
	}
	for _, backlink := range payload.Backlinks {
		if backlink.SourceDomain == "" || backlink.SourceDomain == value {
			continue
		}
		record.Entities = append(record.Entities, interfaces.DiscoveredEntity{
			Value:    backlink.SourceDomain,
			Kind:     "domain",
			Relation: "backlink_from",
		})
	}

	c.logger.Debug(ctx, "Archive lookup complete", map[string]interface{}{
		"domain":    value,
		"snapshots": len(payload.Snapshots),
		"backlinks": len(payload.Backlinks),
	})

	return []interfaces.SourceRecord{record}, nil
}
