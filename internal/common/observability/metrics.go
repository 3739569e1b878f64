package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability holds the process tracer and the evaluation instruments
// exported through the Prometheus registry. A nil *Observability is valid
// and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	evaluations  otelmetric.Int64Counter
	overall      otelmetric.Float64Histogram
	stepDuration otelmetric.Float64Histogram
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())))
	otel.SetMeterProvider(mp)
	otel.SetTracerProvider(tp)

	o := &Observability{
		meterProvider:  mp,
		tracerProvider: tp,
		tracer:         tp.Tracer(serviceName),
	}
	meter := mp.Meter(serviceName)

	if o.evaluations, err = meter.Int64Counter("evaluations.completed",
		otelmetric.WithDescription("Interviews evaluated end to end")); err != nil {
		return nil, err
	}
	if o.overall, err = meter.Float64Histogram("evaluations.overall_score",
		otelmetric.WithDescription("Weighted overall score of evaluated interviews"),
		otelmetric.WithExplicitBucketBoundaries(20, 40, 50, 60, 70, 80, 90, 100)); err != nil {
		return nil, err
	}
	if o.stepDuration, err = meter.Float64Histogram("evaluations.step.duration",
		otelmetric.WithDescription("Duration of one evaluation stage"),
		otelmetric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return o, nil
}

// StartSpan starts a span under ctx. On a nil receiver the span is a no-op.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := trace.Tracer(noop.NewTracerProvider().Tracer(""))
	if o != nil && o.tracer != nil {
		tracer = o.tracer
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordEvaluation counts a finished evaluation by recommendation and
// records its overall score.
func (o *Observability) RecordEvaluation(ctx context.Context, recommendation string, overall float64) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("recommendation", recommendation))
	o.evaluations.Add(ctx, 1, attrs)
	o.overall.Record(ctx, overall, attrs)
}

// RecordStep records how long one evaluation stage took.
func (o *Observability) RecordStep(ctx context.Context, step string, d time.Duration) {
	if o == nil {
		return
	}
	o.stepDuration.Record(ctx, float64(d.Microseconds())/1000, otelmetric.WithAttributes(attribute.String("step", step)))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := o.meterProvider.Shutdown(ctx); err != nil {
		return err
	}
	return o.tracerProvider.Shutdown(ctx)
}
