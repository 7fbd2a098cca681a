package models

import "time"

type ClientRecord struct {
	ID               string     `json:"id"`
	TicketNumber     string     `json:"ticket_number"`
	Name             string     `json:"name"`
	Phone            string     `json:"phone"`
	Email            string     `json:"email"`
	FilingStatus     string     `json:"filing_status"`
	CheckedInAt      time.Time  `json:"checked_in_at"`
	Position         int        `json:"position"`
	AssignedPreparer string     `json:"assigned_preparer,omitempty"`
	AssignedAt       *time.Time `json:"assigned_at,omitempty"`
	Served           bool       `json:"served"`
	CompletionStatus string     `json:"completion_status,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

const (
	StatusWaiting   = "waiting"
	StatusInService = "in_service"
	StatusServed    = "served"
)

const (
	CompletionCompleted = "completed"
	CompletionPending   = "pending"
)

// Status derives the queue status from the record's fields. A record is
// waiting until a preparer picks it up and in service until that preparer
// marks it served.
func (c ClientRecord) Status() string {
	switch {
	case c.Served:
		return StatusServed
	case c.AssignedPreparer != "":
		return StatusInService
	default:
		return StatusWaiting
	}
}

// FilingStatuses lists the accepted values for the check-in form's
// filing status field.
var FilingStatuses = []string{"Individual", "Business", "Other"}

func ValidFilingStatus(value string) bool {
	for _, status := range FilingStatuses {
		if status == value {
			return true
		}
	}
	return false
}
