package timeline

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName         = "lockscreen-todo/timeline"
	refreshEventName   = "timeline.refresh"
	refreshEventDomain = "widget"
)

// errNoSnapshot marks a cycle that found nothing in the store.
var errNoSnapshot = errors.New("no snapshot stored")

type refreshMetrics struct {
	logger *log.Logger
	start  time.Time
	span   trace.Span
}

func newRefreshMetrics(ctx context.Context, logger *log.Logger) (*refreshMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, refreshEventName)
	return &refreshMetrics{logger: logger, start: time.Now(), span: span}, ctx
}

// Finish records the outcome of the cycle on the span and as one structured
// log event.
func (m *refreshMetrics) Finish(tl Timeline, cause error) {
	if m == nil {
		return
	}
	items := 0
	if len(tl.Entries) > 0 {
		items = len(tl.Entries[0].Items)
	}
	attrs := []attribute.KeyValue{
		attribute.String("widget.state", tl.State.String()),
		attribute.Int("widget.items", items),
		attribute.Float64("widget.total_ms", durationToMillis(time.Since(m.start))),
		attribute.String("widget.next_refresh", tl.RefreshAt.UTC().Format(time.RFC3339)),
	}
	if cause != nil {
		attrs = append(attrs, attribute.String("widget.fallback_reason", cause.Error()))
	}

	if m.span != nil {
		m.span.SetAttributes(attrs...)
		if tl.State == Fallback {
			m.span.AddEvent("fallback")
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	severityText, severityNumber := severityForState(tl.State)
	fields := log.Fields{
		"event.name":      refreshEventName,
		"event.domain":    refreshEventDomain,
		"severity_text":   severityText,
		"severity_number": severityNumber,
		"attributes":      attributesToMap(attrs),
	}
	if m.span != nil && m.span.SpanContext().IsValid() {
		sc := m.span.SpanContext()
		fields["trace_id"] = sc.TraceID().String()
		fields["span_id"] = sc.SpanID().String()
	}
	entry := m.logger.WithFields(fields)
	if tl.State == Fallback {
		entry.Warn("observability.event")
		return
	}
	entry.Info("observability.event")
}

func severityForState(s State) (string, int) {
	if s == Fallback {
		return "WARN", 13
	}
	return "INFO", 9
}

func attributesToMap(attrs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
