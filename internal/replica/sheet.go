// Package replica appends committed events to a remote sheet service.
// Authentication is a static bearer token; session lifecycle beyond
// that is the service's problem, not the engine's.
package replica

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type SheetClient struct {
	baseURL string
	sheet   string
	token   string
	client  *http.Client
}

func NewSheetClient(baseURL, sheet, token string, timeout time.Duration) *SheetClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SheetClient{
		baseURL: baseURL,
		sheet:   sheet,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// EnsureSheet creates the sheet with the given header columns if it
// does not exist. Idempotent: an already-exists response counts as
// success.
func (c *SheetClient) EnsureSheet(ctx context.Context, columns []string) error {
	body := map[string]any{"name": c.sheet, "columns": columns}

	resp, err := c.do(ctx, http.MethodPost, "/v1/sheets", body)
	if err != nil {
		return err
	}
	defer drain(resp)

	switch {
	case resp.StatusCode/100 == 2:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return nil
	default:
		return fmt.Errorf("ensure sheet %s: status %d", c.sheet, resp.StatusCode)
	}
}

// AppendRows appends the rows, in EventColumns order, to the sheet.
func (c *SheetClient) AppendRows(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	body := map[string]any{"rows": rows}

	path := "/v1/sheets/" + url.PathEscape(c.sheet) + "/rows"
	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("append %d rows to %s: status %d", len(rows), c.sheet, resp.StatusCode)
	}
	return nil
}

func (c *SheetClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s body: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.client.Do(req)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
