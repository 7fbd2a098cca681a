// Package sheets mirrors check-ins and service completions into the
// office's spreadsheet log. Delivery is best effort and at most once; the
// queue store never waits on it and never rolls back because of it.
package sheets

import (
	"context"
	"fmt"
	"time"
)

// ClientRow is one appended line in the client-records stream. Fields
// arrive already validated and formatted; no business logic here.
type ClientRow struct {
	TicketNumber string    `json:"ticketNumber"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	FilingStatus string    `json:"filingStatus"`
	CheckedInAt  time.Time `json:"checkedInAt"`
}

// AssignmentRow is one appended line in the assignment-records stream.
type AssignmentRow struct {
	Timestamp    time.Time `json:"timestamp"`
	ClientName   string    `json:"clientName"`
	PreparerName string    `json:"preparerName"`
	TicketNumber string    `json:"ticketNumber"`
	Status       string    `json:"status"`
}

// RemoteLog is the external append-only log with its two independent
// streams.
type RemoteLog interface {
	AppendClientRow(ctx context.Context, row ClientRow) error
	AppendAssignmentRow(ctx context.Context, row AssignmentRow) error
}

// RemoteLogError wraps a transport or remote-side rejection. It is logged
// and swallowed, never surfaced as a blocking error.
type RemoteLogError struct {
	Op  string
	Err error
}

func (e *RemoteLogError) Error() string {
	return fmt.Sprintf("remote log %s: %v", e.Op, e.Err)
}

func (e *RemoteLogError) Unwrap() error {
	return e.Err
}
