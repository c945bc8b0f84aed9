package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const discoveryPayload = `{
  "_embedded": {
    "events": [
      {
        "id": "ev-1",
        "name": "Harbor Jazz Night",
        "url": "https://tickets.example/ev-1",
        "dates": {"start": {"localDate": "2026-09-05", "localTime": "21:00:00"}},
        "images": [{"url": "https://img.example/ev-1.jpg"}],
        "classifications": [{"segment": {"name": "Music"}}],
        "priceRanges": [{"min": 20, "max": 45}],
        "_embedded": {"venues": [{"name": "Harbor Stage", "city": {"name": "Lisbon"}, "state": {"stateCode": ""}}]}
      },
      {
        "id": "ev-2",
        "name": "Open Mic",
        "url": "https://tickets.example/ev-2",
        "dates": {"start": {"localDate": "2026-09-06"}},
        "_embedded": {"venues": []}
      }
    ]
  }
}`

func TestEventsNearby(t *testing.T) {
	ctx := context.Background()

	t.Run("FormatsDiscoveryResponse", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/events.json", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "test-key", q.Get("apikey"))
			assert.Equal(t, "38.720000,-9.140000", q.Get("latlong"))
			assert.Equal(t, "25", q.Get("radius"))
			assert.Equal(t, "miles", q.Get("unit"))
			assert.Equal(t, "date,asc", q.Get("sort"))
			assert.Equal(t, "Music", q.Get("classificationName"))
			_, _ = w.Write([]byte(discoveryPayload))
		}))
		defer srv.Close()

		svc := NewService("test-key", srv.URL, zap.NewNop())
		found, err := svc.EventsNearby(ctx, 38.72, -9.14, 25, "Music")
		require.NoError(t, err)
		require.Len(t, found, 2)

		assert.Equal(t, "Harbor Jazz Night", found[0].Name)
		assert.Equal(t, "2026-09-05", found[0].Date)
		assert.Equal(t, "21:00:00", found[0].Time)
		assert.Equal(t, "Harbor Stage", found[0].Venue)
		assert.Equal(t, "Lisbon", found[0].City)
		assert.Equal(t, "Music", found[0].Category)
		assert.Equal(t, "$20 - $45", found[0].PriceRange)

		// Missing fields get the TBA placeholders.
		assert.Equal(t, "TBA", found[1].Time)
		assert.Equal(t, "Venue TBA", found[1].Venue)
		assert.Equal(t, "Event", found[1].Category)
		assert.Equal(t, "Price TBA", found[1].PriceRange)
	})

	t.Run("NoAPIKeyServesSamples", func(t *testing.T) {
		svc := NewService("", "http://unused.invalid", zap.NewNop())
		found, err := svc.EventsNearby(ctx, 38.72, -9.14, 25, "")
		require.NoError(t, err)
		assert.Equal(t, SampleEvents(), found)
	})

	t.Run("APIFailureServesSamples", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		svc := NewService("test-key", srv.URL, zap.NewNop())
		found, err := svc.EventsNearby(ctx, 38.72, -9.14, 25, "")
		require.NoError(t, err)
		assert.Equal(t, SampleEvents(), found)
	})

	t.Run("EmptyAreaIsEmptyNotSamples", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		svc := NewService("test-key", srv.URL, zap.NewNop())
		found, err := svc.EventsNearby(ctx, 38.72, -9.14, 25, "")
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestMoodBasedEvents(t *testing.T) {
	ctx := context.Background()

	makeEvents := func(ids ...string) string {
		type ev struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		evs := make([]ev, len(ids))
		for i, id := range ids {
			evs[i] = ev{ID: id, Name: "Event " + id}
		}
		payload := map[string]any{"_embedded": map[string]any{"events": evs}}
		raw, _ := json.Marshal(payload)
		return string(raw)
	}

	t.Run("WidensSearchAndDeduplicates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("radius") == "100" {
				_, _ = w.Write([]byte(makeEvents("a", "b", "c", "d")))
				return
			}
			_, _ = w.Write([]byte(makeEvents("a", "b")))
		}))
		defer srv.Close()

		svc := NewService("test-key", srv.URL, zap.NewNop())
		found, err := svc.MoodBasedEvents(ctx, 38.72, -9.14, 10)
		require.NoError(t, err)

		ids := make([]string, len(found))
		for i, e := range found {
			ids[i] = e.ID
		}
		assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
	})

	t.Run("EnoughNearbySkipsWiderSearch", func(t *testing.T) {
		var wideCalls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("radius") == "100" {
				wideCalls++
			}
			_, _ = w.Write([]byte(makeEvents("a", "b", "c")))
		}))
		defer srv.Close()

		svc := NewService("test-key", srv.URL, zap.NewNop())
		found, err := svc.MoodBasedEvents(ctx, 38.72, -9.14, 2)
		require.NoError(t, err)
		assert.Len(t, found, 2)
		assert.Zero(t, wideCalls)
	})
}
