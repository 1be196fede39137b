package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Lupicald/Accesspro/internal/attend/types"
)

func TestLedger_RecordAndContains(t *testing.T) {
	l := NewLedger()

	key := types.DedupKey("1", time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local))
	assert.False(t, l.Contains(key))

	l.Record(key)
	assert.True(t, l.Contains(key))
	assert.Equal(t, 1, l.Len())

	// Recording the same key again is a no-op.
	l.Record(key)
	assert.Equal(t, 1, l.Len())
}

func TestLedger_BulkLoad(t *testing.T) {
	l := NewLedger()
	l.BulkLoad([]string{"1_2024-01-01 09:00:00", "2_2024-01-01 09:30:00"})

	assert.Equal(t, 2, l.Len())
	assert.True(t, l.Contains("1_2024-01-01 09:00:00"))
	assert.False(t, l.Contains("3_2024-01-01 09:00:00"))
}

func TestDedupKey_SecondPrecision(t *testing.T) {
	ts := time.Date(2024, 1, 1, 9, 0, 0, 500_000_000, time.Local)
	// Sub-second precision is deliberately dropped; two punches within
	// the same second collide.
	assert.Equal(t, "A_2024-01-01 09:00:00", types.DedupKey("A", ts))
}
