package domain

import "time"

// Task is a to-do item owned by exactly one identity.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Done        bool      `json:"done"`
	CreatedAt   time.Time `json:"created_at"`
	OwnerEmail  string    `json:"-"`
}

// OwnedBy reports whether email owns the task.
func (t *Task) OwnedBy(email string) bool {
	return t != nil && t.OwnerEmail == email
}
