package ports

import (
	"context"
	"time"

	"github.com/uptask/project-system/internal/core/domain"
)

// ProjectInput carries the fields a creator supplies for a new project.
type ProjectInput struct {
	Name        string
	Description string
	Client      string
	DueDate     time.Time
}

// ProjectUpdate carries a partial edit. Zero-valued fields keep the stored
// value. Version, when non-zero, is the version the client last saw; a
// mismatch is rejected with domain.ErrConflict.
type ProjectUpdate struct {
	Name        string
	Description string
	Client      string
	DueDate     time.Time
	Version     int64
}

// CollaboratorProfile is the public view of a user exposed to other
// project members. It never carries authentication material.
type CollaboratorProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProjectDetail is the task-bearing detail view of a project.
type ProjectDetail struct {
	Project       *domain.Project
	Tasks         []TaskView
	Collaborators []CollaboratorProfile
}

// ProjectService defines use-case operations for projects and their
// collaborator sets. Every operation takes the acting user's identity and
// enforces the access rules before touching the store.
type ProjectService interface {
	Create(ctx context.Context, actorID string, in ProjectInput) (*domain.Project, error)
	List(ctx context.Context, actorID string) ([]*domain.Project, error)
	Get(ctx context.Context, actorID, projectID string) (*ProjectDetail, error)
	Update(ctx context.Context, actorID, projectID string, in ProjectUpdate) (*domain.Project, error)
	Delete(ctx context.Context, actorID, projectID string) error

	// FindCollaborator looks up a collaborator candidate by email.
	FindCollaborator(ctx context.Context, email string) (*CollaboratorProfile, error)
	// AddCollaborator adds the user with the given email to the project's
	// collaborator set (creator only).
	AddCollaborator(ctx context.Context, actorID, projectID, email string) (*CollaboratorProfile, error)
	// RemoveCollaborator removes a user id from the set (creator only).
	RemoveCollaborator(ctx context.Context, actorID, projectID, userID string) error
}
