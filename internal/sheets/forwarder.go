package sheets

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/k333333v-jpg/martinez-walker-checkin/internal/models"
)

// Forwarder pipes specific queue transitions to the remote log. Each
// forward runs in its own goroutine with a bounded timeout; failures are
// logged and dropped. Completions carry a short-lived per-preparer,
// per-kind guard so a doubled user action cannot append the same row
// twice: the guard clears on a fixed delay regardless of the remote call's
// outcome.
type Forwarder struct {
	remote   RemoteLog
	guardTTL time.Duration
	timeout  time.Duration

	mu       sync.Mutex
	inflight map[string]time.Time

	now func() time.Time
}

func NewForwarder(remote RemoteLog, guardTTL time.Duration) *Forwarder {
	if guardTTL <= 0 {
		guardTTL = 2 * time.Second
	}
	return &Forwarder{
		remote:   remote,
		guardTTL: guardTTL,
		timeout:  10 * time.Second,
		inflight: make(map[string]time.Time),
		now:      time.Now,
	}
}

// ForwardCheckIn mirrors a fresh check-in to the client-records stream.
func (f *Forwarder) ForwardCheckIn(record models.ClientRecord) {
	row := ClientRow{
		TicketNumber: record.TicketNumber,
		Name:         record.Name,
		Phone:        record.Phone,
		Email:        record.Email,
		FilingStatus: record.FilingStatus,
		CheckedInAt:  record.CheckedInAt,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		defer cancel()
		if err := f.remote.AppendClientRow(ctx, row); err != nil {
			log.Printf("forward check-in dropped ticket=%s: %v", row.TicketNumber, err)
		}
	}()
}

// ForwardCompletion mirrors a service completion to the assignment-records
// stream. Returns false when an identical forward for the same preparer
// and completion kind is still inside its guard window; the duplicate is
// rejected locally, not forwarded twice.
func (f *Forwarder) ForwardCompletion(preparerID string, record models.ClientRecord, status string) bool {
	key := preparerID + "_" + status
	if !f.acquire(key) {
		log.Printf("forward completion suppressed, duplicate in flight preparer=%s status=%s", preparerID, status)
		return false
	}

	row := AssignmentRow{
		Timestamp:    f.now().UTC(),
		ClientName:   record.Name,
		PreparerName: preparerID,
		TicketNumber: record.TicketNumber,
		Status:       status,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		defer cancel()
		if err := f.remote.AppendAssignmentRow(ctx, row); err != nil {
			log.Printf("forward completion dropped ticket=%s preparer=%s: %v", row.TicketNumber, preparerID, err)
		}
	}()
	return true
}

func (f *Forwarder) acquire(key string) bool {
	now := f.now()
	f.mu.Lock()
	defer f.mu.Unlock()
	if expiry, ok := f.inflight[key]; ok && now.Before(expiry) {
		return false
	}
	f.inflight[key] = now.Add(f.guardTTL)
	return true
}
