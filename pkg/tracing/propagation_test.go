package tracing

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestKafkaHeaders_roundTripSpanContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "checkout")
	defer span.End()

	headers := InjectKafkaHeaders(ctx, []kafka.Header{{Key: "event_type", Value: []byte("OrderConfirmed")}})
	assert.NotEmpty(t, Traceparent(ctx))

	extracted := ExtractKafkaHeaders(context.Background(), headers)
	got := trace.SpanContextFromContext(extracted)
	assert.Equal(t, span.SpanContext().TraceID(), got.TraceID())
}

func TestTraceparent_noSpan(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	assert.Empty(t, Traceparent(context.Background()))
}

func TestInjectKafkaHeaders_keepsExisting(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "relay")
	defer span.End()

	stored := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	headers := InjectKafkaHeaders(ctx, []kafka.Header{{Key: TraceparentHeader, Value: []byte(stored)}})
	assert.Len(t, headers, 1)
	assert.Equal(t, stored, HeaderValue(headers, TraceparentHeader))
	assert.Empty(t, HeaderValue(headers, "missing"))
}
