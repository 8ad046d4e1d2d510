package generator

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	batch := New().Generate(50)
	require.Len(t, batch, 50)

	seen := make(map[uuid.UUID]struct{}, len(batch))
	for _, rec := range batch {
		assert.NotEqual(t, uuid.Nil, rec.ID)
		assert.NotEmpty(t, rec.Name)
		assert.Contains(t, rec.Email, "@")
		assert.True(t, rec.IsActive)
		assert.Equal(t, time.UTC, rec.CreatedAt.Location())
		assert.Equal(t, rec.CreatedAt, rec.CreatedAt.Truncate(time.Microsecond))

		_, dup := seen[rec.ID]
		assert.False(t, dup, "duplicate id %s", rec.ID)
		seen[rec.ID] = struct{}{}
	}
}

func TestGenerate_NonPositive(t *testing.T) {
	g := New()
	assert.Empty(t, g.Generate(0))
	assert.Empty(t, g.Generate(-3))
}

func TestNewSeeded_Deterministic(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 123456789, time.UTC) }

	a := NewSeeded(42, now).Generate(5)
	b := NewSeeded(42, now).Generate(5)
	assert.Equal(t, a, b)
	assert.Equal(t, 123456000, a[0].CreatedAt.Nanosecond())

	c := NewSeeded(7, now).Generate(5)
	assert.NotEqual(t, a[0].ID, c[0].ID)
}
