package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"
)

// NewRemoteLog picks the remote log for the configured relay URL. An empty
// URL means no spreadsheet backend is wired up; rows go to the process log
// instead so a dev instance still shows what would have been appended.
func NewRemoteLog(baseURL string) RemoteLog {
	if baseURL == "" {
		return LogRemote{}
	}
	return &RelayClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// RelayClient appends rows through the spreadsheet relay endpoint. The
// relay answers {success, error} for both streams.
type RelayClient struct {
	baseURL string
	client  *http.Client
}

type relayResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (c *RelayClient) AppendClientRow(ctx context.Context, row ClientRow) error {
	return c.post(ctx, "checkin", row)
}

func (c *RelayClient) AppendAssignmentRow(ctx context.Context, row AssignmentRow) error {
	return c.post(ctx, "preparer", row)
}

func (c *RelayClient) post(ctx context.Context, action string, row interface{}) error {
	body, err := json.Marshal(row)
	if err != nil {
		return &RemoteLogError{Op: action, Err: err}
	}
	url := c.baseURL + "/api/sheets?action=" + action
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &RemoteLogError{Op: action, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &RemoteLogError{Op: action, Err: err}
	}
	defer resp.Body.Close()

	var parsed relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return &RemoteLogError{Op: action, Err: err}
	}
	if !parsed.Success {
		msg := parsed.Error
		if msg == "" {
			msg = resp.Status
		}
		return &RemoteLogError{Op: action, Err: errors.New(msg)}
	}
	return nil
}

// LogRemote is the stub remote log used when no relay URL is configured.
type LogRemote struct{}

func (LogRemote) AppendClientRow(ctx context.Context, row ClientRow) error {
	log.Printf("sheets stub client row ticket=%s name=%s", row.TicketNumber, row.Name)
	return nil
}

func (LogRemote) AppendAssignmentRow(ctx context.Context, row AssignmentRow) error {
	log.Printf("sheets stub assignment row ticket=%s preparer=%s status=%s", row.TicketNumber, row.PreparerName, row.Status)
	return nil
}
