package locals

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/goliatone/go-locals"

// WithTracerProvider records captures and watch evaluations as spans of
// provider. Without it the global provider is used, which is a no-op until
// otel.SetTracerProvider is called.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *inspectorConfig) {
		if provider == nil {
			cfg.tracer = nil
			return
		}
		cfg.tracer = provider.Tracer(tracerName)
	}
}

func (i *Inspector) tracer() trace.Tracer {
	if i.cfg.tracer != nil {
		return i.cfg.tracer
	}
	return otel.Tracer(tracerName)
}

func (i *Inspector) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return i.tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
