package service

import (
	"context"

	"github.com/uptask/project-system/internal/core/domain"
	"github.com/uptask/project-system/internal/core/ports"
)

// RoomAuthorizer returns the join-time authorization check used by the
// realtime hub: a session may only subscribe to a project room when its
// user passes the project read-visibility rule. The client's declared room
// id is never trusted on its own.
func RoomAuthorizer(projects ports.ProjectRepository) func(ctx context.Context, userID, projectID string) error {
	return func(ctx context.Context, userID, projectID string) error {
		if err := domain.ValidateID(projectID); err != nil {
			return err
		}
		project, err := projects.FindByID(ctx, projectID)
		if err != nil {
			return err
		}
		if !project.CanView(userID) {
			return domain.ErrForbidden
		}
		return nil
	}
}
