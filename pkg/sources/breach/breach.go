// Package breach wraps a breach-database search API. Given an email,
// username, or phone it returns the breach records the value appears in,
// together with the sibling identities each record exposes.
package breach

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/tagus/trailhound/pkg/interfaces"
	"github.com/tagus/trailhound/pkg/logging"
)

// Client implements interfaces.SourceClient for a breach database.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	records   []interfaces.SourceRecord
	timestamp time.Time
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

// New creates a new breach-database client.
func New(apiKey, baseURL string, options ...Option) *Client {
	client := &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.New(),
		cache:      make(map[string]cacheEntry),
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// Name returns the name of the source
func (c *Client) Name() string {
	return "breach_db"
}

type breachResponse struct {
	Breaches []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Verified bool   `json:"verified"`
		Rows     []struct {
			Field string `json:"field"`
			Value string `json:"value"`
			Kind  string `json:"kind"`
		} `json:"rows"`
	} `json:"breaches"`
}

// Lookup queries the breach database for a value. Results are cached for
// an hour to keep repeated chain iterations cheap.
func (c *Client) Lookup(ctx context.Context, value string) ([]interfaces.SourceRecord, error) {
	c.mu.Lock()
	if entry, ok := c.cache[value]; ok && time.Since(entry.timestamp) < time.Hour {
		c.mu.Unlock()
		return entry.records, nil
	}
	c.mu.Unlock()

	endpoint := fmt.Sprintf("%s/v2/search?q=%s", c.baseURL, url.QueryEscape(value))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build breach request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("breach request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("breach API returned status %d", resp.StatusCode)
	}

	var payload breachResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode breach response: %w", err)
	}

	records := make([]interfaces.SourceRecord, 0, len(payload.Breaches))
	for _, b := range payload.Breaches {
		record := interfaces.SourceRecord{
			SourceName: c.Name(),
			RecordID:   b.ID,
			Title:      b.Name,
			Confirmed:  b.Verified,
			Raw: map[string]interface{}{
				"breach_name": b.Name,
			},
		}
		for _, row := range b.Rows {
			if row.Value == "" || row.Value == value {
				continue
			}
			record.Entities = append(record.Entities, interfaces.DiscoveredEntity{
				Value:    row.Value,
				Kind:     row.Kind,
				Relation: "appears_in_breach",
			})
		}
		records = append(records, record)
	}

	c.logger.Debug(ctx, "Breach lookup complete", map[string]interface{}{
		"value":   value,
		"records": len(records),
	})

	c.mu.Lock()
	c.cache[value] = cacheEntry{records: records, timestamp: time.Now()}
	c.mu.Unlock()

	return records, nil
}
