package domain

import "time"

// UserRef identifies the acting user on comments and activity entries.
type UserRef struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Comment is a note attached to a task. Once appended it is never changed.
// Fields are ordered to minimize memory padding.
type Comment struct {
	CreatedAt time.Time `json:"createdAt"`
	Author    *UserRef  `json:"user,omitempty"`
	ID        string    `json:"_id,omitempty"`
	TaskID    string    `json:"task,omitempty"`
	Text      string    `json:"text"`
}

// Clone returns a copy that does not share the author pointer.
func (c Comment) Clone() Comment {
	if c.Author != nil {
		a := *c.Author
		c.Author = &a
	}
	return c
}

// ActivityEntry is one audit record of a project.
// Fields are ordered to minimize memory padding.
type ActivityEntry struct {
	CreatedAt time.Time `json:"createdAt"`
	User      UserRef   `json:"user"`
	ID        string    `json:"_id"`
	ProjectID string    `json:"project"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
}
