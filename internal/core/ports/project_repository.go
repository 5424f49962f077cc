package ports

import (
	"context"

	"github.com/uptask/project-system/internal/core/domain"
)

// ProjectRepository defines persistence operations for projects.
type ProjectRepository interface {
	Create(ctx context.Context, p *domain.Project) (*domain.Project, error)
	FindByID(ctx context.Context, id string) (*domain.Project, error)
	// ListForUser returns every project the user created or collaborates
	// on, without task lists.
	ListForUser(ctx context.Context, userID string) ([]*domain.Project, error)
	// Update persists the project with an optimistic version check: the
	// write only matches the stored document when its version equals
	// p.Version, and bumps the version on success. A lost race surfaces
	// domain.ErrConflict.
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}
