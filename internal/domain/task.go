// Package domain contains core business entities and interfaces.
package domain

import (
	"slices"
	"strings"
	"time"
)

// Task is a work item on a project board.
// Fields are ordered to minimize memory padding.
type Task struct {
	CreatedAt     time.Time  `json:"createdAt"`               // Creation time (server-assigned)
	Deadline      *time.Time `json:"deadline,omitempty"`      // Optional due date
	ID            string     `json:"_id"`                     // Server-assigned ID
	Title         string     `json:"title"`                   // Title (required)
	Description   string     `json:"description,omitempty"`   // Description (optional)
	Status        Status     `json:"status"`                  // Board column
	ProjectID     string     `json:"project"`                 // Owning project (immutable)
	CreatorID     string     `json:"creator"`                 // Creating user (immutable)
	AssigneeID    string     `json:"assignee,omitempty"`      // Assigned user ID
	AssigneeEmail string     `json:"assigneeEmail,omitempty"` // Assigned user email
	Priority      Priority   `json:"priority,omitempty"`      // Optional priority
	Tags          []string   `json:"tags,omitempty"`          // Ordered set of tags
	Comments      []Comment  `json:"comments,omitempty"`      // Append-only comment history
}

// Clone returns a deep copy so that snapshots never share slices with the store.
func (t Task) Clone() Task {
	c := t
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	c.Tags = slices.Clone(t.Tags)
	if t.Comments != nil {
		c.Comments = make([]Comment, len(t.Comments))
		for i, cm := range t.Comments {
			c.Comments[i] = cm.Clone()
		}
	}
	return c
}

// Overdue reports whether the deadline is on a day before now's day.
func (t Task) Overdue(now time.Time) bool {
	if t.Deadline == nil {
		return false
	}
	y1, m1, d1 := t.Deadline.Date()
	y2, m2, d2 := now.In(t.Deadline.Location()).Date()
	deadline := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	today := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return deadline.Before(today)
}

// HasComment reports whether a comment with the given non-empty ID exists.
func (t Task) HasComment(id string) bool {
	if id == "" {
		return false
	}
	for _, c := range t.Comments {
		if c.ID == id {
			return true
		}
	}
	return false
}

// TaskField names a task attribute by its wire key.
type TaskField string

// Task fields a server response may carry.
const (
	FieldCreatedAt     TaskField = "createdAt"
	FieldDeadline      TaskField = "deadline"
	FieldTitle         TaskField = "title"
	FieldDescription   TaskField = "description"
	FieldStatus        TaskField = "status"
	FieldProject       TaskField = "project"
	FieldCreator       TaskField = "creator"
	FieldAssignee      TaskField = "assignee"
	FieldAssigneeEmail TaskField = "assigneeEmail"
	FieldPriority      TaskField = "priority"
	FieldTags          TaskField = "tags"
)

var taskFields = []TaskField{
	FieldCreatedAt, FieldDeadline, FieldTitle, FieldDescription, FieldStatus, FieldProject,
	FieldCreator, FieldAssignee, FieldAssigneeEmail, FieldPriority, FieldTags,
}

// TaskPatch is a task as confirmed by the server together with the set of
// fields the response actually contained. Absent fields say nothing about
// the task and must not overwrite local values.
// Fields are ordered to minimize memory padding.
type TaskPatch struct {
	present map[TaskField]bool
	Task    Task
}

// NewTaskPatch creates a patch of t carrying only the named fields.
// Unknown names are ignored.
func NewTaskPatch(t Task, fields ...TaskField) TaskPatch {
	p := TaskPatch{Task: t.Clone(), present: make(map[TaskField]bool, len(fields))}
	for _, f := range fields {
		if slices.Contains(taskFields, f) {
			p.present[f] = true
		}
	}
	return p
}

// FullPatch creates a patch in which every field of t is present.
func FullPatch(t Task) TaskPatch {
	return NewTaskPatch(t, taskFields...)
}

// Has reports whether the response contained field f.
func (p TaskPatch) Has(f TaskField) bool {
	return p.present[f]
}

// Apply returns local with the present fields of p written over it.
// The ID and the comment history of local are always kept.
func (p TaskPatch) Apply(local Task) Task {
	out := local.Clone()
	src := p.Task.Clone()
	if p.Has(FieldCreatedAt) {
		out.CreatedAt = src.CreatedAt
	}
	if p.Has(FieldDeadline) {
		out.Deadline = src.Deadline
	}
	if p.Has(FieldTitle) {
		out.Title = src.Title
	}
	if p.Has(FieldDescription) {
		out.Description = src.Description
	}
	if p.Has(FieldStatus) {
		out.Status = src.Status
	}
	if p.Has(FieldProject) {
		out.ProjectID = src.ProjectID
	}
	if p.Has(FieldCreator) {
		out.CreatorID = src.CreatorID
	}
	if p.Has(FieldAssignee) {
		out.AssigneeID = src.AssigneeID
	}
	if p.Has(FieldAssigneeEmail) {
		out.AssigneeEmail = src.AssigneeEmail
	}
	if p.Has(FieldPriority) {
		out.Priority = src.Priority
	}
	if p.Has(FieldTags) {
		out.Tags = src.Tags
	}
	return out
}

// TaskDraft holds the fields for a task that has not been created yet.
// Fields are ordered to minimize memory padding.
type TaskDraft struct {
	Deadline    *time.Time `json:"deadline,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	ProjectID   string     `json:"project"`
	Priority    Priority   `json:"priority,omitempty"`
	Assignee    string     `json:"assignee,omitempty"` // Honored by the server only for admins
	Tags        []string   `json:"tags,omitempty"`
}

// Validate checks the draft before any request is made.
// An empty status defaults to To Do.
func (d *TaskDraft) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(d.ProjectID) == "" {
		return ErrNoProject
	}
	if d.Status == "" {
		d.Status = StatusTodo
	}
	if !d.Status.IsValid() {
		return ErrInvalidStatus
	}
	if d.Priority != "" && !d.Priority.IsValid() {
		return ErrInvalidPriority
	}
	return nil
}

// TaskUpdate is a partial update. Nil fields are left unchanged.
// Fields are ordered to minimize memory padding.
type TaskUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Assignee    *string    `json:"assignee,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.Priority == nil && u.Deadline == nil && u.Assignee == nil && u.Tags == nil
}

// Validate checks the update before any request is made.
func (u TaskUpdate) Validate() error {
	if u.IsEmpty() {
		return ErrNoFieldsToUpdate
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return ErrEmptyTitle
	}
	if u.Status != nil && !u.Status.IsValid() {
		return ErrInvalidStatus
	}
	if u.Priority != nil && !u.Priority.IsValid() {
		return ErrInvalidPriority
	}
	return nil
}

// StatusUpdate builds an update that only changes the status.
func StatusUpdate(s Status) TaskUpdate {
	return TaskUpdate{Status: &s}
}

// TaskFilter specifies criteria for listing tasks of a project.
// Empty fields are not sent.
type TaskFilter struct {
	ProjectID string
	Title     string // Title substring
	Tag       string
	Assignee  string
	Priority  Priority
}

// ParseTags splits a comma separated list into an ordered set of tags.
// Blank entries and duplicates are dropped.
func ParseTags(csv string) []string {
	var tags []string
	for _, part := range strings.Split(csv, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" || slices.Contains(tags, tag) {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}
