package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/vmaktproject-ai/renewableZmart-sub001/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddThenUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-registry.json")

	require.NoError(t, addActivity(path, registry.Activity{
		ID:          "reject-installment-application",
		DisplayName: "Reject Installment Application",
		Category:    "installment",
		TaskType:    "reject-installment-application",
		Timeout:     "15s",
	}))
	assert.Error(t, addActivity(path, registry.Activity{ID: "reject-installment-application"}))

	require.NoError(t, updateActivity(path, "reject-installment-application", "status", "completed"))
	require.NoError(t, updateActivity(path, "reject-installment-application", "retries", "3"))
	assert.Error(t, updateActivity(path, "reject-installment-application", "timeout", "later"))
	assert.Error(t, updateActivity(path, "reject-installment-application", "colour", "red"))
	assert.Error(t, updateActivity(path, "ghost", "status", "completed"))

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	a, ok := reg.Lookup("reject-installment-application")
	require.True(t, ok)
	assert.Equal(t, "completed", a.ImplementationStatus)
	assert.Equal(t, 3, a.Retries)
	assert.Equal(t, "15s", a.Timeout)
}

func TestUpdateActivity_RejectsInvalidStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, addActivity(path, registry.Activity{
		ID:          "a",
		DisplayName: "A",
		Category:    "installment",
		TaskType:    "a",
	}))

	assert.Error(t, updateActivity(path, "a", "status", "shipped"))
}

func TestHelp(t *testing.T) {
	var buf bytes.Buffer
	help(&buf)

	out := buf.String()
	assert.Contains(t, out, "Usage: registry-updater <command> [flags]")
	assert.Contains(t, out, "registry-updater validate -path configs/activity-registry.json")
	assert.NotContains(t, out, "\n\n\n")
}
