package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	serviceStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowctl",
			Subsystem: "service",
			Name:      "starts_total",
			Help:      "Number of successful service starts.",
		}, []string{"service"},
	)
	serviceStartFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowctl",
			Subsystem: "service",
			Name:      "start_failures_total",
			Help:      "Number of starts whose pid record never materialized.",
		}, []string{"service"},
	)
	serviceStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowctl",
			Subsystem: "service",
			Name:      "stops_total",
			Help:      "Number of confirmed service stops.",
		}, []string{"service"},
	)
	serviceStopFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowctl",
			Subsystem: "service",
			Name:      "stop_failures_total",
			Help:      "Number of services still alive after the stop timeout.",
		}, []string{"service"},
	)
	staleRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowctl",
			Subsystem: "service",
			Name:      "stale_records_total",
			Help:      "Number of stale pid records healed by liveness checks.",
		}, []string{"service"},
	)
)

// Register registers all metrics with the provided registerer. Registering
// the same registerer twice is a no-op; each distinct registerer gets the
// collectors.
func Register(r prometheus.Registerer) error {
	cs := []prometheus.Collector{
		serviceStarts, serviceStartFailures, serviceStops, serviceStopFailures, staleRecords,
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Handler exposes the default registry for the serve endpoint.
func Handler() http.Handler { return promhttp.Handler() }

func IncStart(service string)        { serviceStarts.WithLabelValues(service).Inc() }
func IncStartFailure(service string) { serviceStartFailures.WithLabelValues(service).Inc() }
func IncStop(service string)         { serviceStops.WithLabelValues(service).Inc() }
func IncStopFailure(service string)  { serviceStopFailures.WithLabelValues(service).Inc() }
func IncStale(service string)        { staleRecords.WithLabelValues(service).Inc() }
