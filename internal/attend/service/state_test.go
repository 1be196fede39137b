package service

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lupicald/Accesspro/internal/attend/types"
)

func silentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestStateStore_UpsertPreservesAlert(t *testing.T) {
	s := NewStateStore(nil, nil, silentLogger())

	s.Upsert("9", "Ana", types.CategoryVisitor, types.ModeCheckIn, "2026-03-02 08:00:00")
	require.True(t, s.SetAlert("9"))

	// A new check-in refreshes activity but does not clear the alert.
	st := s.Upsert("9", "Ana", types.CategoryVisitor, types.ModeCheckIn, "2026-03-02 09:00:00")
	assert.True(t, st.Alert)
	assert.Equal(t, "2026-03-02 09:00:00", st.LastActivity)
}

func TestStateStore_CheckOutClearsAlert(t *testing.T) {
	s := NewStateStore(nil, nil, silentLogger())

	s.Upsert("9", "Ana", types.CategoryVisitor, types.ModeCheckIn, "2026-03-02 08:00:00")
	require.True(t, s.SetAlert("9"))

	st := s.Upsert("9", "Ana", types.CategoryVisitor, types.ModeCheckOut, "2026-03-02 12:00:00")
	assert.False(t, st.Alert)
	assert.Equal(t, types.ModeCheckOut, st.LastMode)
}

func TestStateStore_SetAlertEdgeTriggered(t *testing.T) {
	s := NewStateStore(nil, nil, silentLogger())
	s.Upsert("9", "Ana", types.CategoryVisitor, types.ModeCheckIn, "2026-03-02 08:00:00")

	assert.True(t, s.SetAlert("9"), "first call raises the alert")
	assert.False(t, s.SetAlert("9"), "already alerted is not a transition")
	assert.False(t, s.SetAlert("unknown"), "unknown person is not a transition")
}

func TestStateStore_ManualCheckOut(t *testing.T) {
	s := NewStateStore(nil, nil, silentLogger())
	now := time.Date(2026, 3, 2, 14, 30, 0, 0, time.Local)

	// Unknown person: created as a visitor named by id.
	st := s.CheckOut("42", now)
	assert.Equal(t, "42", st.Name)
	assert.Equal(t, types.CategoryVisitor, st.Category)
	assert.Equal(t, types.ModeCheckOut, st.LastMode)
	assert.Equal(t, "2026-03-02 14:30:00", st.LastActivity)

	// Known, alerted person: override clears the alert.
	s.Upsert("9", "Ana", types.CategoryVisitor, types.ModeCheckIn, "2026-03-02 08:00:00")
	require.True(t, s.SetAlert("9"))
	st = s.CheckOut("9", now)
	assert.False(t, st.Alert)
}

func TestStateStore_SyncProfiles(t *testing.T) {
	s := NewStateStore(nil, nil, silentLogger())
	s.Upsert("9", "J.Doe", types.CategoryVisitor, types.ModeCheckIn, "2026-03-02 08:00:00")

	s.SyncProfiles(map[string]types.Profile{
		"9": {Name: "Jane", Category: types.CategoryEmployee},
	})

	st, ok := s.Get("9")
	require.True(t, ok)
	assert.Equal(t, "Jane", st.Name, "configured name overrides the device-reported one")
	assert.Equal(t, types.CategoryEmployee, st.Category)
}

func TestStateStore_WriteThrough(t *testing.T) {
	saves := 0
	var last map[string]types.PersonState
	saver := func(m map[string]types.PersonState) error {
		saves++
		last = m
		return nil
	}

	s := NewStateStore(nil, saver, silentLogger())
	s.Upsert("9", "Ana", types.CategoryVisitor, types.ModeCheckIn, "2026-03-02 08:00:00")
	s.SetAlert("9")

	assert.Equal(t, 2, saves, "every mutation persists the full table")
	require.Contains(t, last, "9")
	assert.True(t, last["9"].Alert)
}

func TestStateStore_AllIsSortedSnapshot(t *testing.T) {
	s := NewStateStore(nil, nil, silentLogger())
	s.Upsert("2", "B", types.CategoryEmployee, types.ModeCheckIn, "2026-03-02 08:00:00")
	s.Upsert("1", "A", types.CategoryEmployee, types.ModeCheckIn, "2026-03-02 08:01:00")

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "1", all[0].PersonID)
	assert.Equal(t, "2", all[1].PersonID)
}
