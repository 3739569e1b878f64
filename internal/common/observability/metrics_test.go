package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestNilObservabilityIsSafe(t *testing.T) {
	var o *Observability
	ctx, span := o.StartSpan(context.Background(), "evaluate-interview", attribute.Int64("interview.id", 5))
	defer span.End()

	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
	o.RecordEvaluation(ctx, "Hire", 72.5)
	o.RecordStep(ctx, "knowledge", time.Second)
	assert.NoError(t, o.Shutdown(ctx))
}

func TestObservability(t *testing.T) {
	o, err := New("candidate-evaluator-test")
	require.NoError(t, err)

	ctx, span := o.StartSpan(context.Background(), "evaluate-interview")
	assert.True(t, span.SpanContext().IsValid())
	o.RecordStep(ctx, "confidence", 1500*time.Millisecond)
	o.RecordEvaluation(ctx, "Strong Hire", 91)
	span.End()

	assert.NoError(t, o.Shutdown(context.Background()))
}
