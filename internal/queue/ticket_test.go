package queue

import "testing"

func TestNextTicket(t *testing.T) {
	cases := []struct {
		prefix  string
		seq     int
		ticket  string
		nextSeq int
	}{
		{"MWQ", 1, "MWQ-001", 2},
		{"MWQ", 42, "MWQ-042", 43},
		{"MWQ", 999, "MWQ-999", 1000},
		{"MWQ", 1000, "MWQ-1000", 1001},
		{"MWQ", 12345, "MWQ-12345", 12346},
		{"TAX", 7, "TAX-007", 8},
	}

	for _, tt := range cases {
		ticket, nextSeq := NextTicket(tt.prefix, tt.seq)
		if ticket != tt.ticket || nextSeq != tt.nextSeq {
			t.Fatalf("NextTicket(%q, %d)=(%q, %d), want (%q, %d)", tt.prefix, tt.seq, ticket, nextSeq, tt.ticket, tt.nextSeq)
		}
	}
}
