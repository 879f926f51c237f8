package ndbc

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogBody = `<?xml version="1.0" encoding="UTF-8"?>
<stations created="2023-09-23T16:15:00UTC" count="1">
  <station id="46026" lat="37.755" lon="-122.839" name="SAN FRANCISCO" type="buoy" met="y"/>
</stations>`

func testClient(baseURL string) *Client {
	return NewClient(baseURL+"/activestations.xml", baseURL+"/latest_obs.txt",
		5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_FetchFeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "buoy-placefile")
		switch r.URL.Path {
		case "/activestations.xml":
			_, _ = io.WriteString(w, catalogBody)
		case "/latest_obs.txt":
			_, _ = io.WriteString(w, "#STN LAT LON\n46026 37.755 -122.839\n")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	cat, err := c.FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, catalogBody, string(cat))

	obs, err := c.FetchConditions(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(obs), "46026 37.755")
}

func TestClient_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchConditions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch conditions: status 503")
	assert.Contains(t, err.Error(), "maintenance")
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, catalogBody)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).FetchCatalog(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := testClient(url).FetchCatalog(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch catalog")
}
