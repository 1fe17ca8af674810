package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vmaktproject-ai/renewableZmart-sub001/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testActivity() *registry.Activity {
	return &registry.Activity{
		ID:          "refund-installment-payment",
		DisplayName: "Refund Installment Payment",
		Description: "Refunds a down payment.",
		TaskType:    "refund-installment-payment",
		Timeout:     "20s",
		InputSchema: map[string]interface{}{
			"properties": map[string]interface{}{
				"applicationId": map[string]interface{}{"type": "string"},
				"amount":        map[string]interface{}{},
			},
		},
		OutputSchema: map[string]interface{}{
			"properties": map[string]interface{}{
				"refunded": map[string]interface{}{"type": "boolean"},
				"months":   map[string]interface{}{"type": "integer"},
			},
		},
	}
}

func TestExportedName(t *testing.T) {
	assert.Equal(t, "ApplicationID", exportedName("applicationId"))
	assert.Equal(t, "AuthorizationURL", exportedName("authorizationUrl"))
	assert.Equal(t, "Months", exportedName("months"))
	assert.Equal(t, "", exportedName(""))
}

func TestNewWorkerData(t *testing.T) {
	data := newWorkerData(testActivity())

	assert.Equal(t, "refundinstallmentpayment", data.PackageName)
	assert.Equal(t, int64(20000), data.Timeout.Milliseconds())
	require.Len(t, data.InputFields, 2)
	assert.Equal(t, Field{Name: "Amount", GoType: "decimal.Decimal", JSONKey: "amount"}, data.InputFields[0])
	assert.Equal(t, Field{Name: "ApplicationID", GoType: "string", JSONKey: "applicationId"}, data.InputFields[1])
	assert.True(t, usesDecimal(data))
}

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "refund-installment-payment")
	data := newWorkerData(testActivity())

	written, err := generate(data, dir, false)
	require.NoError(t, err)
	assert.Len(t, written, 4)

	models, err := os.ReadFile(filepath.Join(dir, "models.go"))
	require.NoError(t, err)
	assert.Contains(t, string(models), `import "github.com/shopspring/decimal"`)
	assert.Contains(t, string(models), "ApplicationID string `json:\"applicationId\"`")
	assert.Contains(t, string(models), "Refunded bool `json:\"refunded\"`")

	handler, err := os.ReadFile(filepath.Join(dir, "handler.go"))
	require.NoError(t, err)
	assert.Contains(t, string(handler), `const TaskType = "refund-installment-payment"`)

	config, err := os.ReadFile(filepath.Join(dir, "config.go"))
	require.NoError(t, err)
	assert.Contains(t, string(config), "20000 * time.Millisecond")

	written, err = generate(data, dir, false)
	require.NoError(t, err)
	assert.Empty(t, written, "existing files are kept")

	written, err = generate(data, dir, true)
	require.NoError(t, err)
	assert.Len(t, written, 4)
}
