package model

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGenerateUUIDWithSuffix(t *testing.T) {
	id := GenerateUUIDWithSuffix("cyc")
	assert.True(t, strings.HasPrefix(id, "cyc_"))

	_, err := uuid.Parse(strings.TrimPrefix(id, "cyc_"))
	assert.NoError(t, err)
}

func TestBatch_WithNameSuffix(t *testing.T) {
	now := time.Now().UTC()
	batch := Batch{
		{ID: uuid.New(), Name: "Ada", Email: "ada@example.com", CreatedAt: now, IsActive: true},
		{ID: uuid.New(), Name: "Grace", Email: "grace@example.com", CreatedAt: now, IsActive: false},
	}

	derived := batch.WithNameSuffix(" Updated")

	assert.Len(t, derived, 2)
	assert.Equal(t, "Ada Updated", derived[0].Name)
	assert.Equal(t, "Grace Updated", derived[1].Name)
	assert.Equal(t, batch[0].ID, derived[0].ID)
	assert.Equal(t, batch[1].Email, derived[1].Email)
	assert.Equal(t, batch[1].IsActive, derived[1].IsActive)
	assert.Equal(t, batch[0].CreatedAt, derived[0].CreatedAt)

	// source batch keeps the pre-update names
	assert.Equal(t, "Ada", batch[0].Name)
	assert.Equal(t, "Grace", batch[1].Name)
}

func TestBatch_IDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	batch := Batch{{ID: a}, {ID: b}}
	assert.Equal(t, []uuid.UUID{a, b}, batch.IDs())
	assert.Empty(t, Batch{}.IDs())
}

func TestCycleOutcome_Fields(t *testing.T) {
	outcome := CycleOutcome{
		CycleID:      "cyc_1",
		Succeeded:    false,
		Attempts:     4,
		Err:          errors.New("boom"),
		RowsInserted: 10,
	}

	fields := outcome.Fields()
	assert.Equal(t, "cyc_1", fields["cycle_id"])
	assert.Equal(t, 4, fields["attempts"])
	assert.Equal(t, int64(10), fields["rows_inserted"])
	assert.Equal(t, "boom", fields["error"])
	_, hasExportErr := fields["export_error"]
	assert.False(t, hasExportErr)
}
