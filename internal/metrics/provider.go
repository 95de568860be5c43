// Package metrics exposes trace activity as Prometheus metrics via a hook.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRegistryProvider owns a dedicated Prometheus registry so hosts
// can scrape agenttrace metrics without touching the default registry.
type PrometheusRegistryProvider struct {
	registry *prometheus.Registry
}

// NewPrometheusRegistryProvider creates a provider with a fresh registry.
func NewPrometheusRegistryProvider() *PrometheusRegistryProvider {
	return &PrometheusRegistryProvider{
		registry: prometheus.NewRegistry(),
	}
}

// Registry returns the underlying Prometheus registry.
func (p *PrometheusRegistryProvider) Registry() *prometheus.Registry {
	return p.registry
}
