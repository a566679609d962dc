// Package rotation holds the ordered staff roster and the persisted
// round-robin pointer.
//
// The pointer always refers to the next staff member to receive an
// assignment. Selection and advancement are split so the caller can
// persist the advanced state as the last atomic step of the whole
// assignment transaction: a crash before persistence simply re-selects
// the same member on retry, and the ledger keeps the item itself from
// being reprocessed.
package rotation

// State is the persisted rotation record: a roster snapshot plus the
// pointer into it.
type State struct {
	Roster  []string `json:"roster"`
	Pointer int      `json:"pointer"`
	// Total counts assignments ever made through this rotation.
	Total int `json:"total_processed"`
}

// WithRoster returns the state updated for a hot-reloaded roster.
// Roster changes take effect on the next selection; an out-of-range
// pointer is clamped to zero.
func (s State) WithRoster(roster []string) State {
	s.Roster = roster
	if s.Pointer < 0 || s.Pointer >= len(roster) {
		s.Pointer = 0
	}
	return s
}

// Next selects the staff member the pointer refers to and returns the
// advanced state. The caller must persist the advanced state before
// treating the assignment as committed.
func (s State) Next() (string, State, error) {
	if len(s.Roster) == 0 {
		return "", s, ErrRosterEmpty
	}
	if s.Pointer < 0 || s.Pointer >= len(s.Roster) {
		s.Pointer = 0
	}
	staff := s.Roster[s.Pointer]
	advanced := s
	advanced.Pointer = (s.Pointer + 1) % len(s.Roster)
	advanced.Total = s.Total + 1
	return staff, advanced, nil
}
