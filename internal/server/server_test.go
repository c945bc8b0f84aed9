package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moodatlas/mood-atlas/internal/pkg/config"
)

func TestHTTPServerAssembly(t *testing.T) {
	mux := http.NewServeMux()
	s := &Server{
		cfg:    &config.Config{ServerPort: "9999"},
		router: mux,
	}

	srv := s.HTTPServer()

	assert.Equal(t, ":9999", srv.Addr)
	assert.Equal(t, http.Handler(mux), srv.Handler)
	assert.Equal(t, readTimeout, srv.ReadTimeout)
	assert.Equal(t, writeTimeout, srv.WriteTimeout)
	assert.Equal(t, idleTimeout, srv.IdleTimeout)
}

func TestSetRouterReplacesHandler(t *testing.T) {
	s := &Server{cfg: &config.Config{ServerPort: "8080"}}
	mux := http.NewServeMux()

	s.SetRouter(mux)

	assert.Equal(t, http.Handler(mux), s.HTTPServer().Handler)
}
