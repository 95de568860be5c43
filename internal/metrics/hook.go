package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/hooks"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
)

// Hook records span lifecycle counters and node durations into a Prometheus
// registry. Collector registration happens at construction, so metric-name
// collisions surface immediately rather than mid-trace.
type Hook struct {
	nodesStarted    prometheus.Counter
	nodesCompleted  *prometheus.CounterVec
	tracesCompleted prometheus.Counter
	nodeDuration    prometheus.Histogram
}

// NewHook creates the collectors and registers them with the registry.
func NewHook(registry *prometheus.Registry) (*Hook, error) {
	h := &Hook{
		nodesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agenttrace_nodes_started_total",
			Help: "Total number of trace nodes entered.",
		}),
		nodesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agenttrace_nodes_finished_total",
			Help: "Total number of trace nodes finished, by terminal status.",
		}, []string{"status"}),
		tracesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agenttrace_traces_completed_total",
			Help: "Total number of finalized traces.",
		}),
		nodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agenttrace_node_duration_seconds",
			Help:    "Wall-clock duration of finished trace nodes.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	for _, collector := range []prometheus.Collector{
		h.nodesStarted, h.nodesCompleted, h.tracesCompleted, h.nodeDuration,
	} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hook) OnNodeStarted(node *model.Node, traceID string) {
	h.nodesStarted.Inc()
}

func (h *Hook) OnNodeCompleted(node *model.Node, traceID string) {
	h.finishNode(node)
}

func (h *Hook) OnNodeFailed(node *model.Node, traceID string) {
	h.finishNode(node)
}

func (h *Hook) OnTraceCompleted(graph *model.TraceGraph) {
	h.tracesCompleted.Inc()
}

func (h *Hook) finishNode(node *model.Node) {
	h.nodesCompleted.WithLabelValues(string(node.Status)).Inc()
	if ms, ok := node.DurationMS(); ok {
		h.nodeDuration.Observe(ms / 1000.0)
	}
}

var _ hooks.Hook = (*Hook)(nil)
