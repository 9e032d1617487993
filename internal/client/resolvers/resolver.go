package resolvers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrijs2005/folio/internal/client/client"
	"github.com/dmitrijs2005/folio/internal/client/metrics"
	"github.com/dmitrijs2005/folio/internal/common"
)

type options struct {
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures a resolver.
type Option func(*options)

// WithMetrics records fetch outcomes and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

func newOptions(opts []Option) options {
	o := options{tracer: otel.Tracer("folio/resolvers")}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func startSpan(ctx context.Context, t trace.Tracer, name string) (context.Context, trace.Span) {
	return t.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
}

func endSpan(span trace.Span, outcome string, err error) {
	span.SetAttributes(attribute.String("folio.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

var validate = validator.New()

// decode unmarshals a 2xx body into dst and validates it.
func decode(resp *client.Response, dst any) error {
	if err := json.Unmarshal(resp.Body, dst); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidResponse, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidResponse, err)
	}
	return nil
}
