// Package store holds the client-side state containers of a board.
//
// None of the stores are safe for concurrent use. They are owned by a single
// writer (see package engine) and handed out to readers only as snapshots.
package store

import (
	"slices"

	"github.com/runoshun/boardsync/internal/domain"
)

// TaskStore is the local cache of the open project's tasks.
//
// Loads are tagged with a generation so a response for a superseded load is
// discarded. Writes are tagged with a per-task request id so a confirmation
// for an older request cannot overwrite the result of a newer one.
// Fields are ordered to minimize memory padding.
type TaskStore struct {
	confirmed map[string]domain.Status // Last status the server reported per task
	latest    map[string]uint64        // Newest request id issued per task
	pending   map[string]uint64        // Request id of an unconfirmed optimistic move
	projectID string
	errMsg    string
	tasks     []domain.Task
	gen       uint64
	nextReq   uint64
	loading   bool
	dedupe    bool
}

// TaskSnapshot is an immutable copy of the TaskStore state.
// Fields are ordered to minimize memory padding.
type TaskSnapshot struct {
	Pending   map[string]bool
	ProjectID string
	Error     string
	Tasks     []domain.Task
	Loading   bool
}

// NewTaskStore creates an empty TaskStore.
// When dedupeComments is set, AppendComment skips comments whose ID is already present.
func NewTaskStore(dedupeComments bool) *TaskStore {
	return &TaskStore{
		confirmed: make(map[string]domain.Status),
		latest:    make(map[string]uint64),
		pending:   make(map[string]uint64),
		tasks:     []domain.Task{},
		dedupe:    dedupeComments,
	}
}

// BeginLoad marks a load of projectID as in flight and returns its generation.
// Any load started earlier becomes stale.
func (s *TaskStore) BeginLoad(projectID string) uint64 {
	s.gen++
	s.projectID = projectID
	s.loading = true
	return s.gen
}

// FinishLoad replaces the task sequence with the response of load gen.
// Returns domain.ErrStaleResponse, leaving the store untouched, if gen was superseded.
func (s *TaskStore) FinishLoad(gen uint64, tasks []domain.Task) error {
	if gen != s.gen {
		return domain.ErrStaleResponse
	}
	s.tasks = make([]domain.Task, 0, len(tasks))
	s.confirmed = make(map[string]domain.Status, len(tasks))
	for _, t := range tasks {
		s.tasks = append(s.tasks, t.Clone())
		s.confirmed[t.ID] = t.Status
	}
	for id := range s.pending {
		if s.index(id) < 0 {
			delete(s.pending, id)
		}
	}
	s.loading = false
	s.errMsg = ""
	return nil
}

// FailLoad records the failure of load gen. The previous task sequence is kept.
func (s *TaskStore) FailLoad(gen uint64, msg string) error {
	if gen != s.gen {
		return domain.ErrStaleResponse
	}
	s.loading = false
	s.errMsg = msg
	return nil
}

// Prepend inserts a server-confirmed task at the front of the sequence.
// An existing task with the same ID is replaced.
func (s *TaskStore) Prepend(t domain.Task) {
	if i := s.index(t.ID); i >= 0 {
		s.tasks = slices.Delete(s.tasks, i, i+1)
	}
	s.tasks = slices.Insert(s.tasks, 0, t.Clone())
	s.confirmed[t.ID] = t.Status
	s.errMsg = ""
}

// Remove deletes the task with id. Reports whether it was present.
func (s *TaskStore) Remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	delete(s.confirmed, id)
	delete(s.pending, id)
	s.errMsg = ""
	return true
}

// AppendComment appends c to the comments of taskID.
// Reports false, changing nothing, when the task is not loaded or the comment
// is a duplicate by ID and deduplication is enabled.
func (s *TaskStore) AppendComment(taskID string, c domain.Comment) bool {
	i := s.index(taskID)
	if i < 0 {
		return false
	}
	if s.dedupe && s.tasks[i].HasComment(c.ID) {
		return false
	}
	s.tasks[i].Comments = append(s.tasks[i].Comments, c.Clone())
	return true
}

// ReplaceComments sets the full comment history of taskID.
func (s *TaskStore) ReplaceComments(taskID string, comments []domain.Comment) bool {
	i := s.index(taskID)
	if i < 0 {
		return false
	}
	cs := make([]domain.Comment, 0, len(comments))
	for _, c := range comments {
		cs = append(cs, c.Clone())
	}
	s.tasks[i].Comments = cs
	return true
}

// MoveStatus sets the status of task id locally and returns the previous status.
func (s *TaskStore) MoveStatus(id string, status domain.Status) (domain.Status, bool) {
	i := s.index(id)
	if i < 0 {
		return "", false
	}
	prev := s.tasks[i].Status
	s.tasks[i].Status = status
	return prev, true
}

// BeginRequest issues a new request id for a write to task id.
func (s *TaskStore) BeginRequest(id string) uint64 {
	s.nextReq++
	s.latest[id] = s.nextReq
	return s.nextReq
}

// BeginMove applies an optimistic status move and marks the task pending.
// Returns false with no change when the task is missing or already has status.
func (s *TaskStore) BeginMove(id string, status domain.Status) (uint64, bool) {
	i := s.index(id)
	if i < 0 || s.tasks[i].Status == status {
		return 0, false
	}
	reqID := s.BeginRequest(id)
	s.pending[id] = reqID
	s.tasks[i].Status = status
	return reqID, true
}

// FailRequest records the failure of request reqID on task id.
// If reqID is still the newest request for the task its pending marker is
// cleared. With revert set and reqID being the pending move itself, the last
// confirmed status is restored.
// Reports whether the status was reverted.
func (s *TaskStore) FailRequest(id string, reqID uint64, msg string, revert bool) bool {
	s.errMsg = msg
	if reqID == 0 || s.latest[id] != reqID {
		return false
	}
	pendingReq, wasPending := s.pending[id]
	delete(s.pending, id)
	if !revert || !wasPending || pendingReq != reqID {
		return false
	}
	confirmed, ok := s.confirmed[id]
	if !ok {
		return false
	}
	_, moved := s.MoveStatus(id, confirmed)
	return moved
}

// Merge reconciles a server confirmation into the store and returns the
// merged task.
//
// Only the fields present in p overwrite local ones; the local comment
// sequence is always kept. A reqID of 0 marks an untagged confirmation, which
// is always applied. A reqID older than the newest request for the task yields
// domain.ErrStaleResponse.
func (s *TaskStore) Merge(p domain.TaskPatch, reqID uint64) (domain.Task, error) {
	id := p.Task.ID
	i := s.index(id)
	if i < 0 {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	if reqID != 0 && reqID < s.latest[id] {
		return domain.Task{}, domain.ErrStaleResponse
	}

	merged := p.Apply(s.tasks[i])
	s.tasks[i] = merged

	if pr, ok := s.pending[id]; ok && reqID != 0 && pr <= reqID {
		delete(s.pending, id)
	}
	s.confirmed[id] = merged.Status
	s.errMsg = ""
	return merged.Clone(), nil
}

// SetError stores a user-facing error message.
func (s *TaskStore) SetError(msg string) {
	s.errMsg = msg
}

// Task returns a copy of the task with id.
func (s *TaskStore) Task(id string) (domain.Task, bool) {
	i := s.index(id)
	if i < 0 {
		return domain.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// Pending reports whether task id has an unconfirmed optimistic move.
func (s *TaskStore) Pending(id string) bool {
	_, ok := s.pending[id]
	return ok
}

// ProjectID returns the project of the most recent load.
func (s *TaskStore) ProjectID() string {
	return s.projectID
}

// Len returns the number of loaded tasks.
func (s *TaskStore) Len() int {
	return len(s.tasks)
}

// Snapshot returns a deep copy of the store state.
func (s *TaskStore) Snapshot() TaskSnapshot {
	snap := TaskSnapshot{
		Pending:   make(map[string]bool, len(s.pending)),
		ProjectID: s.projectID,
		Error:     s.errMsg,
		Tasks:     make([]domain.Task, 0, len(s.tasks)),
		Loading:   s.loading,
	}
	for _, t := range s.tasks {
		snap.Tasks = append(snap.Tasks, t.Clone())
	}
	for id := range s.pending {
		snap.Pending[id] = true
	}
	return snap
}

func (s *TaskStore) index(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.tasks, func(t domain.Task) bool { return t.ID == id })
}
