package ports

import (
	"context"
	"time"

	"github.com/uptask/project-system/internal/core/domain"
)

// TaskInput carries the fields for a new task.
type TaskInput struct {
	Name        string
	Description string
	Priority    domain.Priority
	DueDate     time.Time
	ProjectID   string
}

// TaskUpdate carries a partial task edit; zero-valued fields keep the
// stored value. Version semantics match ProjectUpdate.
type TaskUpdate struct {
	Name        string
	Description string
	Priority    domain.Priority
	DueDate     time.Time
	Version     int64
}

// UserRef is a resolved weak reference to a user identity.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// TaskView is the task record as exposed to clients and broadcast to
// rooms. CompletedBy carries the resolved identity of the last user who
// toggled the completion state.
type TaskView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	DueDate     time.Time       `json:"due_date"`
	Completed   bool            `json:"completed"`
	CompletedBy *UserRef        `json:"completed_by,omitempty"`
	ProjectID   string          `json:"project"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TaskService defines use-case operations for tasks. origin identifies the
// caller's realtime session so broadcasts can skip echoing back to it; it
// may be empty for callers without an open session.
type TaskService interface {
	Create(ctx context.Context, actorID, origin string, in TaskInput) (*TaskView, error)
	Get(ctx context.Context, actorID, taskID string) (*TaskView, error)
	Update(ctx context.Context, actorID, origin, taskID string, in TaskUpdate) (*TaskView, error)
	Delete(ctx context.Context, actorID, origin, taskID string) error
	// Toggle flips the completion state, stamping the acting user.
	// Collaborators may toggle; only the project creator may edit.
	Toggle(ctx context.Context, actorID, origin, taskID string) (*TaskView, error)
}
