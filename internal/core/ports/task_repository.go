package ports

import (
	"context"

	"github.com/uptask/project-system/internal/core/domain"
)

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) (*domain.Task, error)
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	FindByProject(ctx context.Context, projectID string) ([]*domain.Task, error)
	// Update persists the task with the same optimistic version check as
	// ProjectRepository.Update.
	Update(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id string) error
	// DeleteByProject removes every task belonging to a project. Used when
	// the parent project is deleted.
	DeleteByProject(ctx context.Context, projectID string) error
}
