package probes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchGeoInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		fmt.Fprintf(w, `{"ip":"203.0.113.7","city":"Berlin","region":"Berlin","country":"DE","org":"AS3320 Deutsche Telekom AG"}`)
	}))
	defer server.Close()

	info, err := FetchGeoInfo(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", info.IP)
	assert.Equal(t, "Berlin", info.City)
	assert.Equal(t, "DE", info.Country)
	assert.Equal(t, "AS3320 Deutsche Telekom AG", info.Org)
}

func TestFetchGeoInfoFailing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "rate limited")
	}))
	defer server.Close()

	_, err := FetchGeoInfo(context.Background(), server.URL)
	assert.ErrorContains(t, err, "429: rate limited")
}
