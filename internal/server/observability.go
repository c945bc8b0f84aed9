package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/moodatlas/mood-atlas/internal/app/observability/metrics"
	"github.com/moodatlas/mood-atlas/internal/app/observability/tracer"
)

// ObservabilityShutdownFunc flushes and stops the telemetry providers.
type ObservabilityShutdownFunc func(context.Context) error

// InitObservability stands up the tracer and meter providers, then registers
// the application's metric instruments against them. Instrument registration
// must come after the providers: instruments created against the default
// no-op meter would record nothing for the life of the process.
func InitObservability(serviceName, metricsAddr string, logger *zap.Logger) (ObservabilityShutdownFunc, error) {
	otelShutdown, err := tracer.InitOtelProviders(serviceName, metricsAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics.InitAppMetrics()
	logger.Info("Observability initialized",
		zap.String("service", serviceName),
		zap.String("metrics_endpoint", metricsAddr+"/metrics"))

	return otelShutdown, nil
}
