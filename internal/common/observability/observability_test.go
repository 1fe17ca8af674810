package observability

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracerProvider_DisabledWithoutEndpoint(t *testing.T) {
	tp, err := newTracerProvider(Config{ServiceName: "paysmallsmall-workers"})
	require.NoError(t, err)
	assert.Nil(t, tp)
}

func TestNewTracerProvider_WithEndpoint(t *testing.T) {
	tp, err := newTracerProvider(Config{
		ServiceName:    "paysmallsmall-workers",
		JaegerEndpoint: "http://127.0.0.1:14268/api/traces",
		SampleRatio:    0.5,
	})
	require.NoError(t, err)
	require.NotNil(t, tp)
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestObservability_RecordsAndShutsDown(t *testing.T) {
	o := New(Config{ServiceName: "paysmallsmall-workers"})
	require.NotNil(t, o)

	ctx, span := StartSpan(context.Background(), "compute-installment-plan", attribute.String("jobKey", "1"))
	o.RecordJobProcessed(ctx, "compute-installment-plan", "completed")
	o.RecordJobDuration(ctx, "compute-installment-plan", 12*time.Millisecond)
	span.End()

	assert.NotPanics(t, o.Shutdown)
}

func TestObservability_NilSafe(t *testing.T) {
	var o *Observability
	assert.NotPanics(t, func() {
		o.RecordJobProcessed(context.Background(), "x", "failed")
		o.RecordJobDuration(context.Background(), "x", time.Second)
		o.Shutdown()
	})
}
