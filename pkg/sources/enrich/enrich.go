// Package enrich wraps a person-enrichment API: given an email or phone
// it returns associated identities (names, usernames, other emails and
// phones, locations).
package enrich

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

// Client implements interfaces.SourceClient for an enrichment service.
type Client struct {
	apiKey     string
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

// New creates a new enrichment client.
func New(apiKey, baseURL string, options ...Option) *Client {
	client := &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.New(),
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// Name returns the name of the source
func (c *Client) Name() string {
	return "enrichment"
}

type enrichResponse struct {
	PersonID string `json:"person_id"`
	FullName string `json:"full_name"`
	Matched  bool   `json:"matched"`
	Contacts []struct {
		Kind  string `json:"kind"`
		Value string `json:"value"`
		Label string `json:"label"`
	} `json:"contacts"`
	Locations []string `json:"locations"`
}

// Lookup enriches a value into the identities associated with it.
func (c *Client) Lookup(ctx context.Context, value string) ([]interfaces.SourceRecord, error) {
	endpoint := fmt.Sprintf("%s/v1/enrich?value=%s", c.baseURL, url.QueryEscape(value))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build enrichment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("enrichment request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enrichment API returned status %d", resp.StatusCode)
	}

	var payload enrichResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode enrichment response: %w", err)
	}
	if payload.PersonID == "" {
		return nil, nil
	}

	record := interfaces.SourceRecord{
		SourceName: c.Name(),
		RecordID:   payload.PersonID,
		Title:      payload.FullName,
		Confirmed:  payload.Matched,
		Raw: map[string]interface{}{
			"full_name": payload.FullName,
		},
	}
	for _, contact := range payload.Contacts {
		if contact.Value == "" || contact.Value == value {
			continue
		}
		record.Entities = append(record.Entities, interfaces.DiscoveredEntity{
			Value:    contact.Value,
			Kind:     contact.Kind,
			Label:    contact.Label,
			Relation: "linked_contact",
		})
	}
	for _, location := range payload.Locations {
		record.Entities = append(record.Entities, interfaces.DiscoveredEntity{
			Value:    location,
			Kind:     "location",
			Relation: "associated_location",
		})
	}

	c.logger.Debug(ctx, "Enrichment lookup complete", map[string]interface{}{
		"value":    value,
		"entities": len(record.Entities),
	})

	return []interfaces.SourceRecord{record}, nil
}
