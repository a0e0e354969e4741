// Package client talks to a notes server over its JSON protocol.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/joelazar/fancy-forms/pkg/core"
	"github.com/joelazar/fancy-forms/pkg/mutation"
	"github.com/joelazar/fancy-forms/pkg/view"
)

// NotesPath is the route serving the notes page and its form action.
const NotesPath = "/notes"

// Error is a structured error answered by the server.
type Error struct {
	Status  int
	Message string
	ID      string
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s (note %s)", e.Message, e.ID)
	}
	return e.Message
}

// Is maps HTTP statuses onto the core error taxonomy.
func (e *Error) Is(target error) bool {
	switch target {
	case core.ErrValidation:
		return e.Status == http.StatusBadRequest
	case core.ErrTransient:
		return e.Status == http.StatusServiceUnavailable
	case core.ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Client implements view.Remote against a notes server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client for the server at baseURL. The timeout leaves room for
// the server's simulated delete latency.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// List returns every note.
func (c *Client) List(ctx context.Context) ([]core.Note, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+NotesPath, nil)
	if err != nil {
		return nil, err
	}
	var notes []core.Note
	if err := c.do(req, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// Create submits a create intent.
func (c *Client) Create(ctx context.Context, title, body string) (core.Note, error) {
	return c.submit(ctx, mutation.Submission{Intent: mutation.IntentCreate, Title: title, Body: body})
}

// Delete submits a delete intent and returns the removed note.
func (c *Client) Delete(ctx context.Context, id string) (core.Note, error) {
	return c.submit(ctx, mutation.Submission{Intent: mutation.IntentDelete, ID: id})
}

func (c *Client) submit(ctx context.Context, sub mutation.Submission) (core.Note, error) {
	form := sub.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+NotesPath, strings.NewReader(form))
	if err != nil {
		return core.Note{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var n core.Note
	if err := c.do(req, &n); err != nil {
		return core.Note{}, err
	}
	return n, nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var body struct {
			Error string `json:"error"`
			ID    string `json:"id"`
		}
		if jsonErr := json.Unmarshal(data, &body); jsonErr != nil || body.Error == "" {
			body.Error = strings.TrimSpace(string(data))
			if body.Error == "" {
				body.Error = http.StatusText(resp.StatusCode)
			}
		}
		return &Error{Status: resp.StatusCode, Message: body.Error, ID: body.ID}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

var _ view.Remote = (*Client)(nil)
