package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/nile-labs/registration-service/internal/config"
	"github.com/nile-labs/registration-service/internal/domain"
	apperrors "github.com/nile-labs/registration-service/pkg/util"
)

// Client resolves coordinates to a city name.
type Client interface {
	ResolveCity(ctx context.Context, latitude, longitude float64) (string, error)
}

// OpenCageClient calls the OpenCage reverse-geocoding API. An optional
// Redis-backed cache short-circuits repeated lookups for the same
// coordinates.
type OpenCageClient struct {
	baseURL    string
	apiKey     string
	language   string
	httpClient *http.Client
	cache      *Cache
	logger     *zap.Logger
}

// NewOpenCageClient builds a client from configuration. cache may be nil.
func NewOpenCageClient(cfg config.GeocodingConfig, cache *Cache, logger *zap.Logger) *OpenCageClient {
	return &OpenCageClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		language:   cfg.Language,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		cache:      cache,
		logger:     logger,
	}
}

type openCageResponse struct {
	Results []struct {
		Components struct {
			City string `json:"city"`
		} `json:"components"`
	} `json:"results"`
}

// ResolveCity issues one reverse-geocoding lookup and returns the first
// result's city, or "Unknown" when the response carries none. Transport
// failures and non-2xx responses surface as GEOCODING_UNAVAILABLE.
func (c *OpenCageClient) ResolveCity(ctx context.Context, latitude, longitude float64) (string, error) {
	if city, ok := c.cache.Get(ctx, latitude, longitude); ok {
		return city, nil
	}

	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("q", fmt.Sprintf("%f,%f", latitude, longitude))
	query.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return "", apperrors.NewGeocodingUnavailable(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewGeocodingUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperrors.NewGeocodingUnavailable(fmt.Errorf("geocoding responded with status %d", resp.StatusCode))
	}

	var body openCageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", apperrors.NewGeocodingUnavailable(err)
	}

	city := domain.CityUnknown
	if len(body.Results) > 0 && body.Results[0].Components.City != "" {
		city = body.Results[0].Components.City
	}

	c.cache.Set(ctx, latitude, longitude, city)
	if c.logger != nil {
		c.logger.Debug("resolved city",
			zap.Float64("latitude", latitude),
			zap.Float64("longitude", longitude),
			zap.String("city", city))
	}
	return city, nil
}
