package camunda

import (
	"context"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func createMockJob(key int64, variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               "compute-installment-plan",
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "pay-small-small",
		Retries:            3,
		Variables:          variables,
	}}
}

func TestRegistry_InstrumentPassesJobThrough(t *testing.T) {
	r := NewRegistry(nil, nil, zap.NewNop())

	var got []entities.Job
	h := r.instrument("compute-installment-plan", func(_ context.Context, _ worker.JobClient, job entities.Job) {
		got = append(got, job)
	})

	h(nil, createMockJob(7, `{"totalAmount":600000}`))

	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].Key)
	assert.Equal(t, int64(70), got[0].ProcessInstanceKey)
	assert.Equal(t, `{"totalAmount":600000}`, got[0].Variables)
}

func TestRegistry_InstrumentCarriesJobSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	r := NewRegistry(nil, nil, zap.NewNop())

	var handlerSpan trace.SpanContext
	h := r.instrument("approve-installment-application", func(ctx context.Context, _ worker.JobClient, _ entities.Job) {
		handlerSpan = trace.SpanContextFromContext(ctx)
	})
	h(nil, createMockJob(9, `{}`))

	require.True(t, handlerSpan.IsValid())
	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "approve-installment-application", ended[0].Name())
	assert.Equal(t, ended[0].SpanContext().SpanID(), handlerSpan.SpanID())
}

func TestRegistry_EmptyRegistry(t *testing.T) {
	r := NewRegistry(nil, nil, zap.NewNop())

	assert.Empty(t, r.TaskTypes())
	assert.NotPanics(t, r.Close)
}
