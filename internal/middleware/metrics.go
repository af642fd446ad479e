package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts failed Redis commands by command name.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vidtube_redis_errors_total",
	Help: "Total number of failed Redis commands",
}, []string{"operation"})

// ActiveWebSockets tracks open notification sockets.
var ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "vidtube_active_websockets",
	Help: "Number of open notification websockets",
})

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the HTTP metrics collector for service. The collector
// registers with the default registry once per process, so repeated calls
// (one per test server) share it.
func InitMetrics(service string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(service)
	})
	return prom
}

// MetricsMiddleware records request counts and latencies.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return p.Middleware
}
