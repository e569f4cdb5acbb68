package store

import "maps"

// EditingStore tracks which collaborator is currently editing which task,
// as announced on the push channel.
type EditingStore struct {
	editors map[string]string // task ID -> user ID
}

// NewEditingStore creates an empty EditingStore.
func NewEditingStore() *EditingStore {
	return &EditingStore{editors: make(map[string]string)}
}

// Start records that userID is editing taskID.
func (s *EditingStore) Start(taskID, userID string) {
	if taskID == "" {
		return
	}
	s.editors[taskID] = userID
}

// Stop clears the editor of taskID.
func (s *EditingStore) Stop(taskID string) {
	delete(s.editors, taskID)
}

// Clear forgets all editors.
func (s *EditingStore) Clear() {
	clear(s.editors)
}

// EditorOf returns the user editing taskID, or "".
func (s *EditingStore) EditorOf(taskID string) string {
	return s.editors[taskID]
}

// Snapshot returns a copy of the task-to-editor map.
func (s *EditingStore) Snapshot() map[string]string {
	return maps.Clone(s.editors)
}
