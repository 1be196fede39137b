package device

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lupicald/Accesspro/internal/attend/types"
)

func newAgent(t *testing.T, handler http.Handler) *AgentClient {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewAgentClient(ts.URL, time.Second)
}

func TestAgentClient_ControlEndpoints(t *testing.T) {
	var paths []string
	agent := newAgent(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	ctx := context.Background()
	require.NoError(t, agent.Connect(ctx))
	require.NoError(t, agent.DisableCapture(ctx))
	require.NoError(t, agent.EnableCapture(ctx))
	require.NoError(t, agent.Disconnect(ctx))

	assert.Equal(t, []string{
		"/v1/connect",
		"/v1/capture/disable",
		"/v1/capture/enable",
		"/v1/disconnect",
	}, paths)
}

func TestAgentClient_Directory(t *testing.T) {
	agent := newAgent(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/users", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"users":[{"id":"9","name":"Ana"},{"id":"12","name":"Rex"}]}`))
	}))

	dir, err := agent.Directory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"9": "Ana", "12": "Rex"}, dir)
}

func TestAgentClient_Attendance(t *testing.T) {
	agent := newAgent(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/attendance", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"records":[
			{"person_id":"9","timestamp":"2026-03-02 09:00:00","code":0},
			{"person_id":"9","timestamp":"2026-03-02 18:01:00","code":255}
		]}`))
	}))

	punches, err := agent.Attendance(context.Background())
	require.NoError(t, err)
	require.Len(t, punches, 2)

	assert.Equal(t, "9", punches[0].PersonID)
	assert.Equal(t, types.PunchCodeCheckIn, punches[0].Code)
	// Wire timestamps are wall-clock local time.
	want := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	assert.True(t, punches[0].Timestamp.Equal(want), "got %v", punches[0].Timestamp)
	assert.Equal(t, types.PunchCodeUnspecified, punches[1].Code)
}

func TestAgentClient_AttendanceBadTimestamp(t *testing.T) {
	agent := newAgent(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"records":[{"person_id":"9","timestamp":"yesterday","code":0}]}`))
	}))

	_, err := agent.Attendance(context.Background())
	require.Error(t, err)
}

func TestAgentClient_Non2xxIsError(t *testing.T) {
	agent := newAgent(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	assert.Error(t, agent.Connect(context.Background()))
	_, err := agent.Directory(context.Background())
	assert.Error(t, err)
}
