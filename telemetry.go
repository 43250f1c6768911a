package pkcs8

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	otelattr "go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// scopeName is the OpenTelemetry instrumentation scope for this
// module. The global providers are looked up at init time; the otel
// globals delegate, so a provider installed later is still picked up.
const scopeName = "github.com/rbaliyan/pkcs8"

var (
	tracer = otel.Tracer(scopeName)

	opCounter   metric.Int64Counter
	pbeDuration metric.Float64Histogram
)

func init() {
	meter := otel.Meter(scopeName)

	var err error
	opCounter, err = meter.Int64Counter("pkcs8.operations",
		metric.WithDescription("Container operations by operation and outcome."))
	if err != nil {
		otel.Handle(err)
	}
	pbeDuration, err = meter.Float64Histogram("pkcs8.pbe.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of password-based encrypt and decrypt operations."))
	if err != nil {
		otel.Handle(err)
	}
}

func recordOp(op string, err error) {
	opCounter.Add(context.Background(), 1, metric.WithAttributes(
		otelattr.String("operation", op),
		otelattr.String("outcome", outcome(err)),
	))
}

// pbeSpan is a span plus the start time backing the duration
// histogram.
type pbeSpan struct {
	span  trace.Span
	start time.Time
	op    string
}

// startSpan opens a root span for a password-based operation. The API
// is synchronous and context-free, so spans have no parent.
func startSpan(op string) pbeSpan {
	_, span := tracer.Start(context.Background(), op,
		trace.WithSpanKind(trace.SpanKindInternal))
	return pbeSpan{span: span, start: time.Now(), op: op}
}

func endSpan(s pbeSpan, err error) {
	pbeDuration.Record(context.Background(), time.Since(s.start).Seconds(),
		metric.WithAttributes(
			otelattr.String("operation", s.op),
			otelattr.String("outcome", outcome(err)),
		))
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
