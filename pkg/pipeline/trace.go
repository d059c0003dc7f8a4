package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used when no tracer is given.
const TracerName = "github.com/kobweb-dev/kobgen/pkg/pipeline"

func defaultTracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// stage runs fn inside a span named after the stage and records its duration.
func (p *Processor) stage(ctx context.Context, name string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	attrs = append(attrs, attribute.String("kobgen.module", p.cfg.Module))
	ctx, span := p.tracer.Start(ctx, "kobgen."+name, trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	p.metrics.observeStage(name, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
