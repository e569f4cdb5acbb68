package domain

// Column is one status column of a board.
type Column struct {
	Status Status
	Tasks  []Task
}

// Board is the per-column grouping of a project's tasks.
type Board struct {
	ProjectID string
	Columns   []Column
}

// BuildBoard partitions tasks into the three status columns, keeping only
// tasks of projectID. Relative order within a column follows the input order.
// Tasks with an unknown status appear in no column.
func BuildBoard(projectID string, tasks []Task) Board {
	statuses := AllStatuses()
	b := Board{
		ProjectID: projectID,
		Columns:   make([]Column, len(statuses)),
	}
	for i, s := range statuses {
		b.Columns[i] = Column{Status: s, Tasks: []Task{}}
	}
	for _, t := range tasks {
		if t.ProjectID != projectID {
			continue
		}
		idx := t.Status.Index()
		if idx < 0 {
			continue
		}
		b.Columns[idx].Tasks = append(b.Columns[idx].Tasks, t)
	}
	return b
}

// Column returns the tasks in the column for s, or nil for an unknown status.
func (b Board) Column(s Status) []Task {
	for _, c := range b.Columns {
		if c.Status == s {
			return c.Tasks
		}
	}
	return nil
}

// Count returns the number of tasks across all columns.
func (b Board) Count() int {
	n := 0
	for _, c := range b.Columns {
		n += len(c.Tasks)
	}
	return n
}
