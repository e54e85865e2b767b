package archive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/domain", r.URL.Path)
		assert.Equal(t, "example.com", r.URL.Query().Get("name"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"domain": "example.com",
			"snapshots": [
				{"url": "https://arc.example.org/20190101/example.com", "timestamp": "20190101"}
			],
			"backlinks": [
				{"source_domain": "blog.example.net"},
				{"source_domain": "example.com"},
				{"source_domain": ""}
			]
		}`))
	}))
	defer server.Close()

	client := New(server.URL)
	records, err := client.Lookup(context.Background(), "example.com")
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, "archive", record.SourceName)
	assert.Equal(t, "domain:example.com", record.RecordID)

	// Self-referencing and empty backlinks drop out.
	require.Len(t, record.Entities, 2)
	assert.Equal(t, "https://arc.example.org/20190101/example.com", record.Entities[0].Value)
	assert.Equal(t, "url", record.Entities[0].Kind)
	assert.Equal(t, "archived_snapshot", record.Entities[0].Relation)
	assert.Equal(t, "blog.example.net", record.Entities[1].Value)
	assert.Equal(t, "backlink_from", record.Entities[1].Relation)
}

func TestLookupEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"domain": "example.com", "snapshots": [], "backlinks": []}`))
	}))
	defer server.Close()

	client := New(server.URL)
	records, err := client.Lookup(context.Background(), "example.com")

	require.NoError(t, err)
	assert.Empty(t, records)
}
