package metrics

import (
	"net/http"

	"github.com/nspcc-dev/statetrie/pkg/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewPrometheusService creates a new service exposing statetrie metrics
// registered in the default prometheus registry at /metrics.
func NewPrometheusService(cfg config.BasicService, log *zap.Logger) *Service {
	if log == nil {
		return nil
	}
	handler := http.NewServeMux()
	handler.Handle("/metrics", promhttp.Handler())
	return NewService("Prometheus", newServers(cfg, handler), cfg, log)
}

// newServers creates an http server for every unique configured address,
// all of them sharing the handler.
func newServers(cfg config.BasicService, handler http.Handler) []*http.Server {
	addrs := cfg.GetAddresses()
	srvs := make([]*http.Server, len(addrs))
	for i, addr := range addrs {
		srvs[i] = &http.Server{
			Addr:    addr,
			Handler: handler,
		}
	}
	return srvs
}
