package queue

import "fmt"

// NextTicket formats the ticket label for the given counter and returns the
// incremented counter. Counters below 1000 are zero-padded to three digits;
// larger ones are rendered in full. Pure; the caller commits the new counter
// in the same transition that creates the record.
func NextTicket(prefix string, seq int) (string, int) {
	return fmt.Sprintf("%s-%03d", prefix, seq), seq + 1
}
