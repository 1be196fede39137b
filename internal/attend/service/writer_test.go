package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lupicald/Accesspro/internal/attend/store/memory"
	"github.com/Lupicald/Accesspro/internal/attend/types"
)

type fakeReplica struct {
	mu   sync.Mutex
	rows [][]string
	err  error
}

func (r *fakeReplica) EnsureSheet(context.Context, []string) error { return r.err }

func (r *fakeReplica) AppendRows(_ context.Context, rows [][]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, rows...)
	return nil
}

type failingEventStore struct{}

func (failingEventStore) AppendEvents(context.Context, []types.ClassifiedEvent) error {
	return errors.New("disk full")
}
func (failingEventStore) LoadKeys(context.Context) ([]string, error) { return nil, nil }
func (failingEventStore) RecentEvents(context.Context, int) ([]types.ClassifiedEvent, error) {
	return nil, nil
}

type connectivityNotifier struct {
	NopNotifier
	mu     sync.Mutex
	events []string
}

func (n *connectivityNotifier) OnConnectivity(subsystem string, online bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	state := "offline"
	if online {
		state = "online"
	}
	n.events = append(n.events, subsystem+":"+state)
}

func testBatch() []types.ClassifiedEvent {
	return []types.ClassifiedEvent{{
		PersonID:  "9",
		Name:      "Ana",
		Category:  types.CategoryVisitor,
		Timestamp: "2026-03-02 09:00:00",
		Mode:      types.ModeCheckIn,
		Status:    types.StatusOnTime,
		Branch:    "main",
	}}
}

func TestDualWriter_ReplicaFailureDoesNotBlockLocal(t *testing.T) {
	local := memory.NewEventStore()
	rep := &fakeReplica{err: errors.New("replica unreachable")}
	w := NewDualWriter(local, rep, NopNotifier{}, silentLogger(), nil)

	err := w.Commit(context.Background(), testBatch())
	require.NoError(t, err, "remote failure is absorbed")
	assert.Len(t, local.Events(), 1, "local sink still receives the full batch")
}

func TestDualWriter_LocalFailureStillReachesReplica(t *testing.T) {
	rep := &fakeReplica{}
	w := NewDualWriter(failingEventStore{}, rep, NopNotifier{}, silentLogger(), nil)

	err := w.Commit(context.Background(), testBatch())
	require.Error(t, err, "local failure fails the commit")
	assert.Len(t, rep.rows, 1, "the replica still gets its attempt, keeping one durable copy")
}

func TestDualWriter_BothSinksFailing(t *testing.T) {
	rep := &fakeReplica{err: errors.New("replica unreachable")}
	w := NewDualWriter(failingEventStore{}, rep, NopNotifier{}, silentLogger(), nil)

	err := w.Commit(context.Background(), testBatch())
	require.Error(t, err)
	assert.Empty(t, rep.rows)
}

func TestDualWriter_LocalFailureNoReplicaConfigured(t *testing.T) {
	w := NewDualWriter(failingEventStore{}, nil, NopNotifier{}, silentLogger(), nil)
	require.Error(t, w.Commit(context.Background(), testBatch()))
}

func TestDualWriter_NoReplicaConfigured(t *testing.T) {
	local := memory.NewEventStore()
	w := NewDualWriter(local, nil, NopNotifier{}, silentLogger(), nil)

	require.NoError(t, w.Commit(context.Background(), testBatch()))
	assert.Len(t, local.Events(), 1)
}

func TestDualWriter_RowOrderMatchesColumns(t *testing.T) {
	local := memory.NewEventStore()
	rep := &fakeReplica{}
	w := NewDualWriter(local, rep, NopNotifier{}, silentLogger(), nil)

	require.NoError(t, w.Commit(context.Background(), testBatch()))
	require.Len(t, rep.rows, 1)
	require.Len(t, rep.rows[0], len(types.EventColumns))
	assert.Equal(t, "9", rep.rows[0][0])
	assert.Equal(t, "Ana", rep.rows[0][1])
	assert.Equal(t, "check_in", rep.rows[0][3])
}

func TestDualWriter_ConnectivityEdgeTriggered(t *testing.T) {
	local := memory.NewEventStore()
	rep := &fakeReplica{err: errors.New("down")}
	notify := &connectivityNotifier{}
	w := NewDualWriter(local, rep, notify, silentLogger(), nil)

	require.NoError(t, w.Commit(context.Background(), testBatch()))
	require.NoError(t, w.Commit(context.Background(), testBatch()))
	assert.Equal(t, []string{"replica:offline"}, notify.events, "repeated failures notify once")

	rep.err = nil
	require.NoError(t, w.Commit(context.Background(), testBatch()))
	assert.Equal(t, []string{"replica:offline", "replica:online"}, notify.events)
}

func TestDualWriter_EmptyBatchIsNoop(t *testing.T) {
	rep := &fakeReplica{}
	w := NewDualWriter(memory.NewEventStore(), rep, NopNotifier{}, silentLogger(), nil)

	require.NoError(t, w.Commit(context.Background(), nil))
	assert.Empty(t, rep.rows)
}
