package server

import (
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StartPprofServer exposes the profiling endpoints on their own listener so
// they never share a port with the public API. Reach it through an SSH
// tunnel; a failed profiler must not take the API down with it.
func StartPprofServer(addr string, logger *zap.Logger) {
	router := gin.New()
	pprof.Register(router)

	go func() {
		logger.Info("Starting pprof listener", zap.String("addr", addr))
		if err := router.Run(addr); err != nil {
			logger.Error("pprof listener stopped", zap.Error(err))
		}
	}()
}
