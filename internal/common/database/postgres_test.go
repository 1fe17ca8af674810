package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS installment_applications`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, ApplySchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplySchema_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE`).WillReturnError(errors.New("permission denied"))

	err = ApplySchema(context.Background(), db)
	assert.ErrorContains(t, err, "apply schema")
}

func TestSchemaGuardsStatusValues(t *testing.T) {
	for _, status := range []string{"'pending'", "'approved'", "'rejected'", "'payment_completed'"} {
		assert.Contains(t, schemaSQL, status)
	}
	assert.Contains(t, schemaSQL, "payment_reference    TEXT UNIQUE")
}
