package analyzer

import (
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/parser"
)

// Sessions is an ordered mapping from session id to entries. Keys are in
// order of first appearance and each group keeps source order.
type Sessions struct {
	keys   []string
	groups map[string][]parser.LogEntry
}

// GroupBySession groups entries by session_id in a single pass. It never
// reorders entries.
func GroupBySession(entries []parser.LogEntry) *Sessions {
	s := &Sessions{groups: make(map[string][]parser.LogEntry)}

	for _, e := range entries {
		if _, seen := s.groups[e.SessionID]; !seen {
			s.keys = append(s.keys, e.SessionID)
		}
		s.groups[e.SessionID] = append(s.groups[e.SessionID], e)
	}

	return s
}

// Keys returns session ids in order of first appearance.
func (s *Sessions) Keys() []string {
	keys := make([]string, len(s.keys))
	copy(keys, s.keys)
	return keys
}

// Get returns the entries of one session.
func (s *Sessions) Get(id string) ([]parser.LogEntry, bool) {
	entries, ok := s.groups[id]
	return entries, ok
}

// Len returns the number of sessions.
func (s *Sessions) Len() int {
	return len(s.keys)
}

// Flatten concatenates every group in key order.
func (s *Sessions) Flatten() []parser.LogEntry {
	var out []parser.LogEntry
	for _, k := range s.keys {
		out = append(out, s.groups[k]...)
	}
	return out
}
