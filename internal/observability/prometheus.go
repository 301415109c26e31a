package observability

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusSettings controls the Prometheus exposition. An empty Port
// serves metrics only through MetricsHandler.
type PrometheusSettings struct {
	Enabled  bool
	Endpoint string
	Port     string
}

// newPrometheusReader registers an OTel exporter plus the Go runtime
// collectors on a private registry
func newPrometheusReader() (sdkmetric.Reader, *prometheus.Registry, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, err
	}
	return exporter, registry, nil
}

// MetricsHandler serves the Prometheus registry, or 404 when disabled
func (om *Manager) MetricsHandler() http.Handler {
	if om == nil || om.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(om.registry, promhttp.HandlerOpts{})
}

// MetricsEndpoint is the path metrics are served under
func (om *Manager) MetricsEndpoint() string {
	if om == nil || om.settings.Prometheus.Endpoint == "" {
		return "/metrics"
	}
	return om.settings.Prometheus.Endpoint
}

func startPrometheusServer(registry *prometheus.Registry, settings PrometheusSettings) *http.Server {
	endpoint := settings.Endpoint
	if endpoint == "" {
		endpoint = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(endpoint, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		log.Printf("Prometheus metrics available at http://localhost%s%s", server.Addr, endpoint)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Prometheus server error: %v", err)
		}
	}()
	return server
}
