package router

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bifrost-mcp/bifrost/internal/tools"
)

var tracer = otel.Tracer("bifrost.router")

// Dispatch outcomes used as the outcome label.
const (
	outcomeOK          = "ok"
	outcomeStatusError = "status_error"
	outcomeInvalid     = "invalid_arguments"
	outcomeUnknown     = "unknown_tool"
)

type metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// newMetrics creates the dispatch collectors on reg. A nil reg keeps them
// unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bifrost",
			Name:      "tool_calls_total",
			Help:      "Tool dispatches by tool and outcome",
		}, []string{"tool", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bifrost",
			Name:      "tool_duration_seconds",
			Help:      "Tool dispatch latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"tool"}),
	}
}

func (m *metrics) observe(name tools.Name, outcome string, elapsed time.Duration) {
	m.calls.WithLabelValues(string(name), outcome).Inc()
	m.duration.WithLabelValues(string(name)).Observe(elapsed.Seconds())
}

func startDispatchSpan(ctx context.Context, name tools.Name) (context.Context, trace.Span) {
	return tracer.Start(ctx, "router.Dispatch",
		trace.WithAttributes(attribute.String("bifrost.tool", string(name))),
	)
}

func endDispatchSpan(span trace.Span, outcome string, err error) {
	span.SetAttributes(attribute.String("bifrost.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
