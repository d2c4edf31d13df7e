// Package debug hosts the optional operational endpoints: pprof and the
// prometheus metrics exposition.
package debug

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/krumpled/krumd/internal/core"
)

// StartUtilities spins off the servers associated with debug mode. Failures
// here only cost us the utility, never the server.
func StartUtilities(logger *logrus.Logger, cfg *core.Config) {
	if cfg.Debugging.PprofEnabled {
		go startPprofServer(logger, cfg.Debugging.PprofPort)
	}

	if cfg.Debugging.MetricsPort != 0 {
		go startMetricsServer(logger, cfg.Debugging.MetricsPort)
	}
}

func startPprofServer(logger *logrus.Logger, port int) {
	logger.Infof("starting pprof server on port %d", port)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), nil); err != nil {
		logger.Warnf("pprof server exited: %s", err)
	}
}

func startMetricsServer(logger *logrus.Logger, port int) {
	logger.Infof("exposing prometheus metrics on port %d", port)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
		logger.Warnf("metrics server exited: %s", err)
	}
}
