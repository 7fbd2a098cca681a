package queue

import (
	"github.com/k333333v-jpg/martinez-walker-checkin/internal/models"
)

// QueueState is one full snapshot of the walk-in queue. Transitions never
// mutate a snapshot in place; they build a new one and swap it in.
//
// PreparerSlots maps each preparer on the roster to the ID of the client
// currently in service, or "" when idle. The Clients list is canonical;
// slots hold only references into it.
type QueueState struct {
	Clients       []models.ClientRecord `json:"clients"`
	PreparerSlots map[string]string     `json:"preparer_slots"`
	NextTicketSeq int                   `json:"next_ticket_seq"`
}

// Initial returns the empty state with every roster slot idle and the
// ticket counter at 1.
func Initial(preparers []string) QueueState {
	slots := make(map[string]string, len(preparers))
	for _, p := range preparers {
		slots[p] = ""
	}
	return QueueState{
		Clients:       []models.ClientRecord{},
		PreparerSlots: slots,
		NextTicketSeq: 1,
	}
}

// Clone deep-copies the snapshot so a transition can modify its copy
// without touching the committed one.
func (s QueueState) Clone() QueueState {
	clients := make([]models.ClientRecord, len(s.Clients))
	copy(clients, s.Clients)
	slots := make(map[string]string, len(s.PreparerSlots))
	for k, v := range s.PreparerSlots {
		slots[k] = v
	}
	return QueueState{
		Clients:       clients,
		PreparerSlots: slots,
		NextTicketSeq: s.NextTicketSeq,
	}
}

func (s QueueState) waitingCount() int {
	count := 0
	for _, c := range s.Clients {
		if c.Status() == models.StatusWaiting {
			count++
		}
	}
	return count
}

// headWaiting returns the index of the earliest checked-in waiting record.
// Clients are appended in check-in order, so the first waiting entry is the
// head of the line.
func (s QueueState) headWaiting() int {
	for i, c := range s.Clients {
		if c.Status() == models.StatusWaiting {
			return i
		}
	}
	return -1
}

func (s QueueState) clientByID(id string) int {
	for i, c := range s.Clients {
		if c.ID == id {
			return i
		}
	}
	return -1
}
