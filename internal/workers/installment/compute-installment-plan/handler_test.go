// internal/workers/installment/compute-installment-plan/handler_test.go
package computeinstallmentplan

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/config"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/errors"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/logger"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/installment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestHandler(t *testing.T) *Handler {
	h := NewHandler(ConfigFrom(config.WorkerConfig{Timeout: 1000}), installment.DefaultPolicy(), logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC) }
	return h
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_ShortTerm(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{TotalAmount: decimal.NewFromInt(600000)})
	require.NoError(t, err)

	assert.Equal(t, 3, output.Months)
	assert.Equal(t, "300000", output.FirstPayment.String())
	assert.Equal(t, "100000", output.MonthlyPayment.String())
	require.Len(t, output.Schedule, 4)
	assert.Equal(t, installment.KindDownPayment, output.Schedule[0].Kind)
	assert.Equal(t, time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC), output.Schedule[1].DueDate)
}

func TestHandler_Execute_LongTermWithRemainder(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		TotalAmount:   decimal.NewFromInt(280000),
		ScheduleStart: "2026-04-01",
	})
	require.NoError(t, err)

	assert.Equal(t, 6, output.Months)
	assert.Equal(t, "23333.33", output.MonthlyPayment.StringFixed(2))
	assert.Equal(t, "23333.35", output.FinalPayment.StringFixed(2))
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), output.Schedule[0].DueDate)

	sum := decimal.Zero
	for _, inst := range output.Schedule {
		sum = sum.Add(inst.Amount)
	}
	assert.True(t, sum.Equal(decimal.NewFromInt(280000)))
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{TotalAmount: decimal.NewFromInt(-5)})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidAmount))

	_, err = h.Execute(context.Background(), &Input{TotalAmount: decimal.NewFromInt(100), ScheduleStart: "soon"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
}

func TestParseInput(t *testing.T) {
	input, err := parseInput(`{"totalAmount": 600000}`)
	require.NoError(t, err)
	assert.True(t, input.TotalAmount.Equal(decimal.NewFromInt(600000)))

	input, err = parseInput(`{"totalAmount": "280000.50"}`)
	require.NoError(t, err)
	assert.Equal(t, "280000.5", input.TotalAmount.String())

	_, err = parseInput(`{"totalAmount": `)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInputParsingFailed))
}

func TestOutput_FlattensPlanVariables(t *testing.T) {
	h := newTestHandler(t)
	output, err := h.Execute(context.Background(), &Input{TotalAmount: decimal.NewFromInt(600000)})
	require.NoError(t, err)

	raw, err := json.Marshal(output)
	require.NoError(t, err)

	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &vars))
	assert.Equal(t, "300000", vars["firstPayment"])
	assert.Equal(t, float64(3), vars["months"])
	assert.Len(t, vars["schedule"], 4)
}
