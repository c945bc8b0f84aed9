package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

const (
	defaultBaseURL = "https://app.ticketmaster.com/discovery/v2"
	requestTimeout = 10 * time.Second

	// DefaultRadiusMiles is the initial search radius; the mood-based
	// search widens to WideRadiusMiles when the first pass comes up short.
	DefaultRadiusMiles = 25
	WideRadiusMiles    = 100
	DefaultPageSize    = 18
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	EventsNearby(ctx context.Context, lat, lon float64, radiusMiles int, category string) ([]models.Event, error)
	MoodBasedEvents(ctx context.Context, lat, lon float64, size int) ([]models.Event, error)
}

// ServiceImpl queries the Ticketmaster Discovery API. With no API key
// configured, or when the API fails, it degrades to a bundled sample set
// instead of erroring: events are decorative, never load-bearing.
type ServiceImpl struct {
	logger  *zap.Logger
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewService(apiKey, baseURL string, logger *zap.Logger) *ServiceImpl {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &ServiceImpl{
		logger:  logger,
		client:  &http.Client{Timeout: requestTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// discoveryResponse mirrors the slice of the Discovery payload we consume.
type discoveryResponse struct {
	Embedded struct {
		Events []discoveryEvent `json:"events"`
	} `json:"_embedded"`
}

type discoveryEvent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Dates struct {
		Start struct {
			LocalDate string `json:"localDate"`
			LocalTime string `json:"localTime"`
		} `json:"start"`
	} `json:"dates"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
	Classifications []struct {
		Segment struct {
			Name string `json:"name"`
		} `json:"segment"`
	} `json:"classifications"`
	PriceRanges []struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"priceRanges"`
	Embedded struct {
		Venues []struct {
			Name string `json:"name"`
			City struct {
				Name string `json:"name"`
			} `json:"city"`
			State struct {
				StateCode string `json:"stateCode"`
			} `json:"state"`
		} `json:"venues"`
	} `json:"_embedded"`
}

// EventsNearby lists events around a coordinate, soonest first. Any API
// failure falls back to the sample set.
func (s *ServiceImpl) EventsNearby(ctx context.Context, lat, lon float64, radiusMiles int, category string) ([]models.Event, error) {
	ctx, span := otel.Tracer("EventsService").Start(ctx, "EventsNearby")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("geo.lat", lat),
		attribute.Float64("geo.lon", lon),
		attribute.Int("events.radius_miles", radiusMiles),
	)

	l := s.logger.With(zap.String("method", "EventsNearby"))

	if s.apiKey == "" {
		l.Debug("No Ticketmaster API key configured, serving sample events")
		span.SetAttributes(attribute.Bool("events.sample", true))
		return SampleEvents(), nil
	}

	found, err := s.query(ctx, lat, lon, radiusMiles, category)
	if err != nil {
		l.Warn("Ticketmaster query failed, serving sample events", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Discovery API failed")
		return SampleEvents(), nil
	}

	span.SetAttributes(attribute.Int("events.count", len(found)))
	span.SetStatus(codes.Ok, "Events retrieved")
	return found, nil
}

// MoodBasedEvents gathers up to size events for the recommendation widget.
// It searches the default radius first and widens once when that comes up
// short, deduplicating by event ID.
func (s *ServiceImpl) MoodBasedEvents(ctx context.Context, lat, lon float64, size int) ([]models.Event, error) {
	ctx, span := otel.Tracer("EventsService").Start(ctx, "MoodBasedEvents")
	defer span.End()

	if size <= 0 {
		size = DefaultPageSize
	}

	nearby, err := s.EventsNearby(ctx, lat, lon, 2*DefaultRadiusMiles, "")
	if err != nil {
		return nil, err
	}
	if len(nearby) >= size {
		return nearby[:size], nil
	}

	wider, err := s.EventsNearby(ctx, lat, lon, WideRadiusMiles, "")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(nearby))
	merged := make([]models.Event, 0, len(nearby)+len(wider))
	for _, e := range append(nearby, wider...) {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		merged = append(merged, e)
	}
	if len(merged) > size {
		merged = merged[:size]
	}
	span.SetAttributes(attribute.Int("events.count", len(merged)))
	return merged, nil
}

func (s *ServiceImpl) query(ctx context.Context, lat, lon float64, radiusMiles int, category string) ([]models.Event, error) {
	q := url.Values{}
	q.Set("apikey", s.apiKey)
	q.Set("latlong", fmt.Sprintf("%f,%f", lat, lon))
	q.Set("radius", fmt.Sprintf("%d", radiusMiles))
	q.Set("unit", "miles")
	q.Set("sort", "date,asc")
	if category != "" {
		q.Set("classificationName", category)
	}
	endpoint := fmt.Sprintf("%s/events.json?%s", s.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	var payload discoveryResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode response")
	}

	formatted := make([]models.Event, 0, len(payload.Embedded.Events))
	for _, ev := range payload.Embedded.Events {
		formatted = append(formatted, formatEvent(ev))
	}
	return formatted, nil
}

func formatEvent(ev discoveryEvent) models.Event {
	out := models.Event{
		ID:         ev.ID,
		Name:       ev.Name,
		Date:       ev.Dates.Start.LocalDate,
		Time:       ev.Dates.Start.LocalTime,
		URL:        ev.URL,
		Venue:      "Venue TBA",
		Category:   "Event",
		PriceRange: "Price TBA",
	}
	if out.Time == "" {
		out.Time = "TBA"
	}
	if len(ev.Embedded.Venues) > 0 {
		v := ev.Embedded.Venues[0]
		if v.Name != "" {
			out.Venue = v.Name
		}
		out.City = v.City.Name
		out.State = v.State.StateCode
	}
	if len(ev.Images) > 0 {
		out.Image = ev.Images[0].URL
	}
	if len(ev.Classifications) > 0 && ev.Classifications[0].Segment.Name != "" {
		out.Category = ev.Classifications[0].Segment.Name
	}
	if len(ev.PriceRanges) > 0 {
		out.PriceRange = fmt.Sprintf("$%g - $%g", ev.PriceRanges[0].Min, ev.PriceRanges[0].Max)
	}
	return out
}
