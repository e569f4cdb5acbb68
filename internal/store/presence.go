package store

import "github.com/runoshun/boardsync/internal/domain"

// PresenceStore is the set of collaborators currently online.
// Every update replaces the whole set.
type PresenceStore struct {
	entries []domain.PresenceEntry
}

// NewPresenceStore creates an empty PresenceStore.
func NewPresenceStore() *PresenceStore {
	return &PresenceStore{entries: []domain.PresenceEntry{}}
}

// Replace sets the online set to entries, dropping entries with a missing or
// placeholder user ID or email. A user ID is kept at most once, first wins.
// Returns the number of entries kept.
func (s *PresenceStore) Replace(entries []domain.PresenceEntry) int {
	seen := make(map[string]struct{}, len(entries))
	out := make([]domain.PresenceEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Valid() {
			continue
		}
		if _, dup := seen[e.UserID]; dup {
			continue
		}
		seen[e.UserID] = struct{}{}
		out = append(out, e)
	}
	s.entries = out
	return len(out)
}

// Clear empties the online set.
func (s *PresenceStore) Clear() {
	s.entries = []domain.PresenceEntry{}
}

// Entries returns a copy of the online set.
func (s *PresenceStore) Entries() []domain.PresenceEntry {
	out := make([]domain.PresenceEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
