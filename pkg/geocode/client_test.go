package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "33.214800", r.URL.Query().Get("lat"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{
			"display_name": "Denton County, Texas, United States",
			"address": {"town": "Ponder", "county": "Denton County", "state": "Texas", "country": "United States"}
		}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	place, err := client.Reverse(context.Background(), 33.2148, -97.1331)
	require.NoError(t, err)

	assert.Equal(t, "Denton County, Texas, United States", place.DisplayName)
	assert.Equal(t, "Ponder", place.Locality)
	assert.Equal(t, "Texas", place.Region)
	assert.Equal(t, "United States", place.Country)
}

func TestReverseUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.Reverse(context.Background(), 33.2, -97.1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reverse geocode request failed")
}

func TestReverseLocalityFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"display_name":"x","address":{"village":"Krum","country":"United States"}}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	place, err := client.Reverse(context.Background(), 33.2, -97.1)
	require.NoError(t, err)
	assert.Equal(t, "Krum", place.Locality)
}
