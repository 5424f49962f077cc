package domain

import "time"

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the allowed priority values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task belongs to exactly one project (ProjectID is immutable after
// creation). CompletedBy holds the last user who toggled the completion
// state; it is a weak reference resolved at read time and is meaningful
// only once the task has been toggled at least once.
type Task struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	DueDate     time.Time `json:"due_date"`
	Completed   bool      `json:"completed"`
	CompletedBy string    `json:"completed_by,omitempty"`
	ProjectID   string    `json:"project"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Toggle flips the completion state and stamps the acting user. The stamp
// is overwritten in both directions: marking a task pending again still
// records who did it. Tasks remain toggleable indefinitely.
func (t *Task) Toggle(userID string) {
	t.Completed = !t.Completed
	t.CompletedBy = userID
}
