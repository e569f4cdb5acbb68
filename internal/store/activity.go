package store

import "github.com/runoshun/boardsync/internal/domain"

// ActivityStore holds the activity log of the open project.
// The log is replaced wholesale by each successful fetch.
// Fields are ordered to minimize memory padding.
type ActivityStore struct {
	projectID string
	errMsg    string
	entries   []domain.ActivityEntry
	gen       uint64
	loading   bool
}

// ActivitySnapshot is an immutable copy of the ActivityStore state.
type ActivitySnapshot struct {
	ProjectID string
	Error     string
	Entries   []domain.ActivityEntry
	Loading   bool
}

// NewActivityStore creates an empty ActivityStore.
func NewActivityStore() *ActivityStore {
	return &ActivityStore{entries: []domain.ActivityEntry{}}
}

// BeginFetch marks a fetch of projectID as in flight and returns its generation.
func (s *ActivityStore) BeginFetch(projectID string) uint64 {
	s.gen++
	s.projectID = projectID
	s.loading = true
	return s.gen
}

// FinishFetch replaces the log with the response of fetch gen, in server order.
func (s *ActivityStore) FinishFetch(gen uint64, entries []domain.ActivityEntry) error {
	if gen != s.gen {
		return domain.ErrStaleResponse
	}
	s.entries = make([]domain.ActivityEntry, len(entries))
	copy(s.entries, entries)
	s.loading = false
	s.errMsg = ""
	return nil
}

// FailFetch records the failure of fetch gen. The previous log is kept.
func (s *ActivityStore) FailFetch(gen uint64, msg string) error {
	if gen != s.gen {
		return domain.ErrStaleResponse
	}
	s.loading = false
	s.errMsg = msg
	return nil
}

// ProjectID returns the project of the most recent fetch.
func (s *ActivityStore) ProjectID() string {
	return s.projectID
}

// Snapshot returns a copy of the store state.
func (s *ActivityStore) Snapshot() ActivitySnapshot {
	entries := make([]domain.ActivityEntry, len(s.entries))
	copy(entries, s.entries)
	return ActivitySnapshot{
		ProjectID: s.projectID,
		Error:     s.errMsg,
		Entries:   entries,
		Loading:   s.loading,
	}
}
