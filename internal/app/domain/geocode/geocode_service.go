package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

const (
	defaultBaseURL = "https://nominatim.openstreetmap.org"
	requestTimeout = 10 * time.Second
	userAgent      = "mood-atlas/1.0"
)

// nominatimResponse is the subset of the reverse geocode payload we use.
type nominatimResponse struct {
	Address struct {
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// Service resolves coordinates to a city. Resolution is best-effort: any
// failure yields the Unknown sentinel, never an error, so a mood log is
// never blocked on a third-party lookup.
type Service struct {
	logger  *zap.Logger
	client  *http.Client
	baseURL string
	cache   *cache.Cache
}

func NewService(baseURL string, logger *zap.Logger) *Service {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Service{
		logger:  logger,
		client:  &http.Client{Timeout: requestTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache.New(24*time.Hour, 1*time.Hour),
	}
}

// cacheKey buckets coordinates to ~1km so nearby lookups share a result.
func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f:%.2f", lat, lon)
}

// Reverse resolves lat/lon to a Location. On any failure it returns the
// Unknown sentinel with the original coordinates preserved.
func (s *Service) Reverse(ctx context.Context, lat, lon float64) models.Location {
	ctx, span := otel.Tracer("GeocodeService").Start(ctx, "Reverse")
	defer span.End()
	span.SetAttributes(attribute.Float64("geo.lat", lat), attribute.Float64("geo.lon", lon))

	l := s.logger.With(zap.String("method", "Reverse"))

	key := cacheKey(lat, lon)
	if cached, found := s.cache.Get(key); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		loc := cached.(models.Location)
		loc.Latitude, loc.Longitude = lat, lon
		return loc
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	loc, err := s.lookup(ctx, lat, lon)
	if err != nil {
		l.Warn("Reverse geocode failed, using Unknown", zap.Error(err))
		span.RecordError(err)
		return unknownAt(lat, lon)
	}

	s.cache.Set(key, loc, cache.DefaultExpiration)
	loc.Latitude, loc.Longitude = lat, lon
	return loc
}

func (s *Service) lookup(ctx context.Context, lat, lon float64) (models.Location, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lon))
	q.Set("zoom", "10")
	endpoint := fmt.Sprintf("%s/reverse?%s", s.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Location{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return models.Location{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Location{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Location{}, fmt.Errorf("failed to read response: %w", err)
	}

	var payload nominatimResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.Location{}, fmt.Errorf("failed to decode response: %w", err)
	}

	city := payload.Address.City
	if city == "" {
		city = payload.Address.Town
	}
	if city == "" {
		city = payload.Address.Village
	}
	if city == "" {
		return models.Location{}, fmt.Errorf("no city in geocode response")
	}

	return models.Location{
		City:        city,
		Region:      payload.Address.State,
		Country:     payload.Address.Country,
		CountryCode: strings.ToUpper(payload.Address.CountryCode),
	}, nil
}

func unknownAt(lat, lon float64) models.Location {
	return models.Location{
		Latitude:  lat,
		Longitude: lon,
		City:      models.UnknownCity,
	}
}
