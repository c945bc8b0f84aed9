package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

func TestReverse(t *testing.T) {
	ctx := context.Background()

	t.Run("ResolvesCity", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/reverse", r.URL.Path)
			assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"address":{"city":"Lisbon","state":"Lisboa","country":"Portugal","country_code":"pt"}}`))
		}))
		defer srv.Close()

		svc := NewService(srv.URL, zap.NewNop())
		loc := svc.Reverse(ctx, 38.72, -9.14)

		assert.False(t, loc.IsUnknown())
		assert.Equal(t, "Lisbon", loc.City)
		assert.Equal(t, "Lisboa", loc.Region)
		assert.Equal(t, "PT", loc.CountryCode)
		assert.Equal(t, 38.72, loc.Latitude)
		assert.Equal(t, -9.14, loc.Longitude)
	})

	t.Run("TownFallsBackWhenCityMissing", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"address":{"town":"Sintra","state":"Lisboa","country":"Portugal","country_code":"pt"}}`))
		}))
		defer srv.Close()

		svc := NewService(srv.URL, zap.NewNop())
		loc := svc.Reverse(ctx, 38.8, -9.39)
		assert.Equal(t, "Sintra", loc.City)
	})

	t.Run("ServerErrorYieldsUnknown", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		svc := NewService(srv.URL, zap.NewNop())
		loc := svc.Reverse(ctx, 38.72, -9.14)

		assert.True(t, loc.IsUnknown())
		assert.Equal(t, models.UnknownCity, loc.City)
		assert.Equal(t, 38.72, loc.Latitude, "coordinates survive a failed lookup")
	})

	t.Run("MalformedBodyYieldsUnknown", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		svc := NewService(srv.URL, zap.NewNop())
		assert.True(t, svc.Reverse(ctx, 1, 1).IsUnknown())
	})

	t.Run("EmptyAddressYieldsUnknown", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"address":{}}`))
		}))
		defer srv.Close()

		svc := NewService(srv.URL, zap.NewNop())
		assert.True(t, svc.Reverse(ctx, 1, 1).IsUnknown())
	})

	t.Run("NearbyLookupsShareACachedResult", func(t *testing.T) {
		var calls int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&calls, 1)
			_, _ = w.Write([]byte(`{"address":{"city":"Porto","country":"Portugal","country_code":"pt"}}`))
		}))
		defer srv.Close()

		svc := NewService(srv.URL, zap.NewNop())
		first := svc.Reverse(ctx, 41.1511, -8.6101)
		second := svc.Reverse(ctx, 41.1512, -8.6102)

		assert.Equal(t, "Porto", first.City)
		assert.Equal(t, "Porto", second.City)
		assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
	})

	t.Run("FailuresAreNotCached", func(t *testing.T) {
		var calls int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt64(&calls, 1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(`{"address":{"city":"Faro","country":"Portugal","country_code":"pt"}}`))
		}))
		defer srv.Close()

		svc := NewService(srv.URL, zap.NewNop())
		assert.True(t, svc.Reverse(ctx, 37.02, -7.93).IsUnknown())
		assert.Equal(t, "Faro", svc.Reverse(ctx, 37.02, -7.93).City)
	})
}
