package server

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// shutdownGracePeriod bounds how long in-flight requests may finish after a
// termination signal. Live-feed WebSockets are hijacked connections and drop
// immediately; plain JSON requests comfortably fit in this window.
const shutdownGracePeriod = 10 * time.Second

// GracefulShutdown blocks until SIGINT/SIGTERM, drains the HTTP server, and
// signals completion on done.
func GracefulShutdown(srv *http.Server, logger *zap.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("Termination signal received, draining requests",
		zap.Duration("grace_period", shutdownGracePeriod))

	// Restore default signal handling so a second signal kills immediately.
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Drain period expired, closing remaining connections", zap.Error(err))
	}

	logger.Info("HTTP server stopped")
	done <- true
}
