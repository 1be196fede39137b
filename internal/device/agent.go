// Package device talks to the terminal through a device-agent bridge:
// a small sidecar that owns the vendor wire protocol and exposes it as
// plain HTTP. The engine never sees the protocol itself; every HTTP or
// decode failure here surfaces as a connectivity error and sends the
// poller into backoff.
package device

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Lupicald/Accesspro/internal/attend/types"
)

type AgentClient struct {
	baseURL string
	client  *http.Client
}

func NewAgentClient(baseURL string, timeout time.Duration) *AgentClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AgentClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *AgentClient) Connect(ctx context.Context) error {
	return c.post(ctx, "/v1/connect")
}

func (c *AgentClient) Disconnect(ctx context.Context) error {
	return c.post(ctx, "/v1/disconnect")
}

func (c *AgentClient) DisableCapture(ctx context.Context) error {
	return c.post(ctx, "/v1/capture/disable")
}

func (c *AgentClient) EnableCapture(ctx context.Context) error {
	return c.post(ctx, "/v1/capture/enable")
}

// Directory returns the device's user list as id → name.
func (c *AgentClient) Directory(ctx context.Context) (map[string]string, error) {
	var payload struct {
		Users []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"users"`
	}
	if err := c.get(ctx, "/v1/users", &payload); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(payload.Users))
	for _, u := range payload.Users {
		out[u.ID] = u.Name
	}
	return out, nil
}

// Attendance returns the device punch log. Timestamps come over the
// wire in TimeLayout and are interpreted in local time — schedules are
// wall-clock times at the site, not UTC.
func (c *AgentClient) Attendance(ctx context.Context) ([]types.PunchRecord, error) {
	var payload struct {
		Records []struct {
			PersonID  string `json:"person_id"`
			Timestamp string `json:"timestamp"`
			Code      int    `json:"code"`
		} `json:"records"`
	}
	if err := c.get(ctx, "/v1/attendance", &payload); err != nil {
		return nil, err
	}

	out := make([]types.PunchRecord, 0, len(payload.Records))
	for _, r := range payload.Records {
		ts, err := time.ParseInLocation(types.TimeLayout, r.Timestamp, time.Local)
		if err != nil {
			return nil, fmt.Errorf("attendance record %s: %w", r.PersonID, err)
		}
		out = append(out, types.PunchRecord{
			PersonID:  r.PersonID,
			Timestamp: ts,
			Code:      r.Code,
		})
	}
	return out, nil
}

func (c *AgentClient) post(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("agent %s: status %d", path, resp.StatusCode)
	}
	return nil
}

func (c *AgentClient) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("agent %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
