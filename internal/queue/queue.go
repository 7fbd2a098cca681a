package queue

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/k333333v-jpg/martinez-walker-checkin/internal/models"
)

// Store owns the authoritative queue state for this process instance.
// Every transition computes a full new snapshot from the committed one and
// swaps it in under the lock, so a transition is applied completely or not
// at all. There is no package-level instance; the store is constructed at
// startup and injected into whatever consumes it.
type Store struct {
	mu            sync.Mutex
	state         QueueState
	roster        []string
	prefix        string
	waitPerClient int
	now           func() time.Time
	newID         func() string
	onCommit      []func(QueueState)
}

type Options struct {
	TicketPrefix         string
	Preparers            []string
	WaitMinutesPerClient int

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

type CheckInInput struct {
	Name         string
	Phone        string
	Email        string
	FilingStatus string
}

func New(options Options) *Store {
	prefix := options.TicketPrefix
	if prefix == "" {
		prefix = "MWQ"
	}
	waitPerClient := options.WaitMinutesPerClient
	if waitPerClient <= 0 {
		waitPerClient = 15
	}
	now := options.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	newID := options.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	roster := make([]string, len(options.Preparers))
	copy(roster, options.Preparers)
	return &Store{
		state:         Initial(roster),
		roster:        roster,
		prefix:        prefix,
		waitPerClient: waitPerClient,
		now:           now,
		newID:         newID,
	}
}

// OnCommit registers a callback invoked with the new snapshot after every
// locally dispatched transition. Snapshots adopted via ReplaceState do not
// fire it; they are already someone else's commit.
func (s *Store) OnCommit(fn func(QueueState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCommit = append(s.onCommit, fn)
}

// CheckIn validates the form fields, issues the next ticket, and appends a
// new waiting record. Position is the waiting count of the pre-transition
// state plus one; it is a receipt snapshot, never re-derived.
func (s *Store) CheckIn(input CheckInInput) (models.ClientRecord, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"name", input.Name},
		{"phone", input.Phone},
		{"email", input.Email},
		{"filing_status", input.FilingStatus},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return models.ClientRecord{}, &ValidationError{Field: f.name}
		}
	}

	s.mu.Lock()
	ticket, nextSeq := NextTicket(s.prefix, s.state.NextTicketSeq)
	record := models.ClientRecord{
		ID:           s.newID(),
		TicketNumber: ticket,
		Name:         input.Name,
		Phone:        input.Phone,
		Email:        input.Email,
		FilingStatus: input.FilingStatus,
		CheckedInAt:  s.now(),
		Position:     s.state.waitingCount() + 1,
	}
	next := s.state.Clone()
	next.Clients = append(next.Clients, record)
	next.NextTicketSeq = nextSeq
	s.commitLocked(next)
	return record, nil
}

// AssignNext moves the head of the waiting line into service under the
// given preparer. It is a no-op when the line is empty or the preparer is
// already serving someone; an occupied slot is never overwritten.
func (s *Store) AssignNext(preparerID string) (models.ClientRecord, bool) {
	s.mu.Lock()
	current, ok := s.state.PreparerSlots[preparerID]
	if !ok || current != "" {
		s.mu.Unlock()
		return models.ClientRecord{}, false
	}
	head := s.state.headWaiting()
	if head < 0 {
		s.mu.Unlock()
		return models.ClientRecord{}, false
	}
	if !ValidTransition("assign_next", s.state.Clients[head].Status()) {
		s.mu.Unlock()
		return models.ClientRecord{}, false
	}

	next := s.state.Clone()
	assignedAt := s.now()
	next.Clients[head].AssignedPreparer = preparerID
	next.Clients[head].AssignedAt = &assignedAt
	next.PreparerSlots[preparerID] = next.Clients[head].ID
	record := next.Clients[head]
	s.commitLocked(next)
	return record, true
}

// Complete marks the preparer's current client served with the given
// completion status and frees the slot. A "pending" completion is terminal:
// the client does not rejoin the waiting line. No-op on an idle preparer.
func (s *Store) Complete(preparerID, status string) (models.ClientRecord, bool) {
	if status == "" {
		status = models.CompletionCompleted
	}

	s.mu.Lock()
	clientID, ok := s.state.PreparerSlots[preparerID]
	if !ok || clientID == "" {
		s.mu.Unlock()
		return models.ClientRecord{}, false
	}
	idx := s.state.clientByID(clientID)
	if idx < 0 || !ValidTransition("complete", s.state.Clients[idx].Status()) {
		s.mu.Unlock()
		return models.ClientRecord{}, false
	}

	next := s.state.Clone()
	completedAt := s.now()
	next.Clients[idx].Served = true
	next.Clients[idx].CompletionStatus = status
	next.Clients[idx].CompletedAt = &completedAt
	next.PreparerSlots[preparerID] = ""
	record := next.Clients[idx]
	s.commitLocked(next)
	return record, true
}

// ReplaceState adopts an externally observed snapshot wholesale, bypassing
// validation. Only the persistence bridge calls this; whichever instance's
// commit arrives last wins.
func (s *Store) ReplaceState(snapshot QueueState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = snapshot.Clone()
}

// commitLocked swaps in the new snapshot and notifies commit subscribers.
// The caller must hold the lock; it is released here so subscribers run
// outside it.
func (s *Store) commitLocked(next QueueState) {
	s.state = next
	subscribers := make([]func(QueueState), len(s.onCommit))
	copy(subscribers, s.onCommit)
	snapshot := next.Clone()
	s.mu.Unlock()
	for _, fn := range subscribers {
		fn(snapshot)
	}
}

// Snapshot returns a deep copy of the committed state.
func (s *Store) Snapshot() QueueState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Waiting returns the not-yet-assigned, not-yet-served records in check-in
// order.
func (s *Store) Waiting() []models.ClientRecord {
	return s.filter(models.StatusWaiting)
}

// InService returns the records currently assigned to a preparer.
func (s *Store) InService() []models.ClientRecord {
	return s.filter(models.StatusInService)
}

// ServedToday returns every served record, completed and pending alike.
func (s *Store) ServedToday() []models.ClientRecord {
	return s.filter(models.StatusServed)
}

func (s *Store) filter(status string) []models.ClientRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []models.ClientRecord{}
	for _, c := range s.state.Clients {
		if c.Status() == status {
			matched = append(matched, c)
		}
	}
	return matched
}

// Preparers returns the fixed roster in configuration order.
func (s *Store) Preparers() []string {
	roster := make([]string, len(s.roster))
	copy(roster, s.roster)
	return roster
}

// PreparerSlots maps each preparer to the record in service, keyed by
// roster name; idle preparers are absent from the result.
func (s *Store) PreparerSlots() map[string]models.ClientRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots := make(map[string]models.ClientRecord)
	for preparer, clientID := range s.state.PreparerSlots {
		if clientID == "" {
			continue
		}
		if idx := s.state.clientByID(clientID); idx >= 0 {
			slots[preparer] = s.state.Clients[idx]
		}
	}
	return slots
}

// EstimatedWaitMinutes applies the fixed per-client service-time assumption
// to a queue position.
func (s *Store) EstimatedWaitMinutes(position int) int {
	return position * s.waitPerClient
}
