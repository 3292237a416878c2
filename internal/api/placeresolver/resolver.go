// Package placeresolver turns free-text stop names into canonical place
// records via the Google Places Text Search API.
package placeresolver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/routecraft/routecraft/app/observability/metrics"
	"github.com/routecraft/routecraft/internal/types"
)

var _ Resolver = (*GooglePlacesResolver)(nil)

// Resolver is the place search capability consumed by the enrichment
// pipeline. Search returns (nil, nil) when nothing matched the query.
type Resolver interface {
	Search(ctx context.Context, name, cityHint string) (*types.PlaceMatch, error)
}

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type GooglePlacesResolver struct {
	logger  *slog.Logger
	client  *http.Client
	baseURL string
	apiKey  string
	cache   *cache.Cache
}

func NewGooglePlacesResolver(cfg Config, logger *slog.Logger) (*GooglePlacesResolver, error) {
	apiKey := os.Getenv("GOOGLE_PLACES_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_PLACES_API_KEY environment variable is not set")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api/place"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}
	return &GooglePlacesResolver{
		logger:  logger,
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		cache:   cache.New(cacheTTL, 1*time.Hour),
	}, nil
}

// textSearchResponse mirrors the fields of the Places Text Search payload we
// actually consume.
type textSearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID          string `json:"place_id"`
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Rating float64 `json:"rating"`
	} `json:"results"`
}

func (g *GooglePlacesResolver) Search(ctx context.Context, name, cityHint string) (*types.PlaceMatch, error) {
	ctx, span := otel.Tracer("PlaceResolver").Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(attribute.String("place.query", name), attribute.String("place.city_hint", cityHint))

	m := metrics.Get()
	m.ResolverLookupsTotal.Add(ctx, 1)

	cacheKey := strings.ToLower(name) + "|" + strings.ToLower(cityHint)
	if cached, found := g.cache.Get(cacheKey); found {
		m.ResolverCacheHitsTotal.Add(ctx, 1)
		if cached == nil {
			return nil, nil
		}
		match := cached.(types.PlaceMatch)
		return &match, nil
	}

	query := name
	if cityHint != "" {
		query = name + " " + cityHint
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL+"/textsearch/json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build place search request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("place search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("place search returned status %d", resp.StatusCode)
	}

	var payload textSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse place search response: %w", err)
	}

	// ZERO_RESULTS is a clean "no match", anything else unexpected is an
	// error the pipeline will swallow per stop.
	if payload.Status != "OK" && payload.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("place search returned status %q", payload.Status)
	}
	if len(payload.Results) == 0 {
		g.logger.DebugContext(ctx, "Place search found no match",
			slog.String("query", query))
		g.cache.Set(cacheKey, nil, cache.DefaultExpiration)
		return nil, nil
	}

	top := payload.Results[0]
	match := types.PlaceMatch{
		ExternalID: top.PlaceID,
		Name:       top.Name,
		Address:    top.FormattedAddress,
		City:       cityHint,
		Geo:        types.GeoPoint{Lat: top.Geometry.Location.Lat, Lng: top.Geometry.Location.Lng},
	}
	if top.Rating > 0 {
		rating := top.Rating
		match.Rating = &rating
	}

	g.cache.Set(cacheKey, match, cache.DefaultExpiration)
	return &match, nil
}
