package breach

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
	"breaches": [
		{
			"id": "br-100",
			"name": "Acme Forum 2019",
			"verified": true,
			"rows": [
				{"field": "email", "value": "alice@example.com", "kind": "email"},
				{"field": "phone", "value": "bob_phone", "kind": "phone"},
				{"field": "username", "value": "carol_user", "kind": "username"},
				{"field": "password", "value": "", "kind": "password"}
			]
		},
		{
			"id": "br-200",
			"name": "Unattributed Dump",
			"verified": false,
			"rows": []
		}
	]
}`

func TestLookup(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/v2/search", r.URL.Path)
		assert.Equal(t, "alice@example.com", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	client := New("test-key", server.URL)
	records, err := client.Lookup(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "breach_db", first.SourceName)
	assert.Equal(t, "br-100", first.RecordID)
	assert.Equal(t, "Acme Forum 2019", first.Title)
	assert.True(t, first.Confirmed)

	// The queried value and empty rows are excluded from the discoveries.
	require.Len(t, first.Entities, 2)
	assert.Equal(t, "bob_phone", first.Entities[0].Value)
	assert.Equal(t, "phone", first.Entities[0].Kind)
	assert.Equal(t, "appears_in_breach", first.Entities[0].Relation)
	assert.Equal(t, "carol_user", first.Entities[1].Value)

	second := records[1]
	assert.False(t, second.Confirmed)
	assert.Empty(t, second.Entities)

	assert.Equal(t, 1, requests)
}

func TestLookupUsesCache(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	client := New("test-key", server.URL)

	for i := 0; i < 3; i++ {
		records, err := client.Lookup(context.Background(), "alice@example.com")
		require.NoError(t, err)
		assert.Len(t, records, 2)
	}

	assert.Equal(t, 1, requests)

	// A different value misses the cache.
	_, err := client.Lookup(context.Background(), "bob_phone")
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
}

func TestLookupNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New("test-key", server.URL)
	records, err := client.Lookup(context.Background(), "nobody@example.com")

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLookupServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New("test-key", server.URL)
	_, err := client.Lookup(context.Background(), "alice@example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
