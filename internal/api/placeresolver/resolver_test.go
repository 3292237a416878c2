package placeresolver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routecraft/routecraft/app/observability/metrics"
)

func TestMain(m *testing.M) {
	metrics.InitAppMetrics()
	os.Exit(m.Run())
}

func newTestResolver(t *testing.T, handler http.HandlerFunc) *GooglePlacesResolver {
	t.Setenv("GOOGLE_PLACES_API_KEY", "test-key")
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	resolver, err := NewGooglePlacesResolver(Config{BaseURL: srv.URL},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return resolver
}

func TestGooglePlacesResolver_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the top result", func(t *testing.T) {
		resolver := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/textsearch/json", r.URL.Path)
			assert.Equal(t, "Hagia Sophia Istanbul", r.URL.Query().Get("query"))
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))
			fmt.Fprint(w, `{
                "status": "OK",
                "results": [
                    {"place_id": "p-1", "name": "Hagia Sophia Grand Mosque",
                     "formatted_address": "Sultan Ahmet, Istanbul",
                     "geometry": {"location": {"lat": 41.0086, "lng": 28.9802}},
                     "rating": 4.7},
                    {"place_id": "p-2", "name": "Hagia Sophia Museum Shop"}
                ]
            }`)
		})

		match, err := resolver.Search(ctx, "Hagia Sophia", "Istanbul")
		require.NoError(t, err)
		require.NotNil(t, match)
		assert.Equal(t, "p-1", match.ExternalID)
		assert.Equal(t, "Hagia Sophia Grand Mosque", match.Name)
		assert.Equal(t, "Istanbul", match.City)
		assert.InDelta(t, 41.0086, match.Geo.Lat, 1e-9)
		require.NotNil(t, match.Rating)
		assert.InDelta(t, 4.7, *match.Rating, 1e-9)
	})

	t.Run("zero results is a clean miss", func(t *testing.T) {
		resolver := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status": "ZERO_RESULTS", "results": []}`)
		})

		match, err := resolver.Search(ctx, "Nonexistent Place", "Izmir")
		require.NoError(t, err)
		assert.Nil(t, match)
	})

	t.Run("repeat lookups are served from the cache", func(t *testing.T) {
		var calls atomic.Int32
		resolver := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			fmt.Fprint(w, `{
                "status": "OK",
                "results": [{"place_id": "p-1", "name": "Galata Tower",
                    "geometry": {"location": {"lat": 41.0256, "lng": 28.9744}}}]
            }`)
		})

		first, err := resolver.Search(ctx, "Galata Tower", "Istanbul")
		require.NoError(t, err)
		second, err := resolver.Search(ctx, "Galata Tower", "Istanbul")
		require.NoError(t, err)

		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, first, second)
	})

	t.Run("misses are cached too", func(t *testing.T) {
		var calls atomic.Int32
		resolver := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			fmt.Fprint(w, `{"status": "ZERO_RESULTS", "results": []}`)
		})

		for range 2 {
			match, err := resolver.Search(ctx, "Some Obscure Cafe", "Izmir")
			require.NoError(t, err)
			assert.Nil(t, match)
		}
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("provider error status is an error", func(t *testing.T) {
		resolver := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status": "REQUEST_DENIED", "results": []}`)
		})

		_, err := resolver.Search(ctx, "Anything", "")
		require.Error(t, err)
	})

	t.Run("http failure is an error", func(t *testing.T) {
		resolver := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := resolver.Search(ctx, "Anything", "")
		require.Error(t, err)
	})

	t.Run("missing API key fails construction", func(t *testing.T) {
		t.Setenv("GOOGLE_PLACES_API_KEY", "")
		_, err := NewGooglePlacesResolver(Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
		require.Error(t, err)
	})
}
