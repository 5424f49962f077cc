package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/uptask/project-system/internal/core/domain"
	"github.com/uptask/project-system/internal/core/ports"
)

// ProjectService implements project CRUD and collaborator management.
// Identifier validation, existence, then authorization are checked in that
// order on every operation, mirroring the access model: malformed ids
// short-circuit before any store lookup, and a missing resource is
// reported before the authorization verdict.
type ProjectService struct {
	projects ports.ProjectRepository
	tasks    ports.TaskRepository
	users    ports.UserRepository
	log      zerolog.Logger
}

func NewProjectService(projects ports.ProjectRepository, tasks ports.TaskRepository, users ports.UserRepository, log zerolog.Logger) *ProjectService {
	return &ProjectService{projects: projects, tasks: tasks, users: users, log: log}
}

func (s *ProjectService) Create(ctx context.Context, actorID string, in ports.ProjectInput) (*domain.Project, error) {
	now := time.Now().UTC()
	due := in.DueDate
	if due.IsZero() {
		due = now
	}

	project := &domain.Project{
		Name:        in.Name,
		Description: in.Description,
		Client:      in.Client,
		DueDate:     due,
		CreatorID:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.projects.Create(ctx, project)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create project")
		return nil, err
	}

	s.log.Info().Str("project_id", created.ID).Str("creator", actorID).Msg("project created")
	return created, nil
}

func (s *ProjectService) List(ctx context.Context, actorID string) ([]*domain.Project, error) {
	return s.projects.ListForUser(ctx, actorID)
}

// Get returns the task-bearing detail view with resolved collaborator
// profiles. Visible to the creator and collaborators.
func (s *ProjectService) Get(ctx context.Context, actorID, projectID string) (*ports.ProjectDetail, error) {
	project, err := s.viewable(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.FindByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	views := make([]ports.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, taskView(t, s.resolveUser(ctx, t.CompletedBy)))
	}

	collaborators := make([]ports.CollaboratorProfile, 0, len(project.Collaborators))
	for _, id := range project.Collaborators {
		u, err := s.users.FindByID(ctx, id)
		if err != nil {
			// dangling reference, expose the id only
			collaborators = append(collaborators, ports.CollaboratorProfile{ID: id})
			continue
		}
		collaborators = append(collaborators, ports.CollaboratorProfile{ID: u.ID, Name: u.Name, Email: u.Email})
	}

	return &ports.ProjectDetail{Project: project, Tasks: views, Collaborators: collaborators}, nil
}

func (s *ProjectService) Update(ctx context.Context, actorID, projectID string, in ports.ProjectUpdate) (*domain.Project, error) {
	project, err := s.editable(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}

	if in.Version != 0 && in.Version != project.Version {
		return nil, domain.ErrConflict
	}

	if in.Name != "" {
		project.Name = in.Name
	}
	if in.Description != "" {
		project.Description = in.Description
	}
	if in.Client != "" {
		project.Client = in.Client
	}
	if !in.DueDate.IsZero() {
		project.DueDate = in.DueDate
	}
	project.UpdatedAt = time.Now().UTC()

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes the project and all of its tasks.
func (s *ProjectService) Delete(ctx context.Context, actorID, projectID string) error {
	project, err := s.editable(ctx, actorID, projectID)
	if err != nil {
		return err
	}

	if err := s.projects.Delete(ctx, project.ID); err != nil {
		return err
	}
	if err := s.tasks.DeleteByProject(ctx, project.ID); err != nil {
		// project is already gone; log the orphaned tasks instead of
		// failing the request
		s.log.Error().Err(err).Str("project_id", project.ID).Msg("failed to delete project tasks")
	}

	s.log.Info().Str("project_id", project.ID).Msg("project deleted")
	return nil
}

func (s *ProjectService) FindCollaborator(ctx context.Context, email string) (*ports.CollaboratorProfile, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &ports.CollaboratorProfile{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

func (s *ProjectService) AddCollaborator(ctx context.Context, actorID, projectID, email string) (*ports.CollaboratorProfile, error) {
	project, err := s.managed(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := project.AddCollaborator(user.ID); err != nil {
		return nil, err
	}
	project.UpdatedAt = time.Now().UTC()

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}

	s.log.Info().Str("project_id", project.ID).Str("collaborator", user.ID).Msg("collaborator added")
	return &ports.CollaboratorProfile{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

func (s *ProjectService) RemoveCollaborator(ctx context.Context, actorID, projectID, userID string) error {
	if err := domain.ValidateID(userID); err != nil {
		return err
	}

	project, err := s.managed(ctx, actorID, projectID)
	if err != nil {
		return err
	}

	// removal of an absent id is a no-op, but the project is always
	// re-persisted
	project.RemoveCollaborator(userID)
	project.UpdatedAt = time.Now().UTC()

	if err := s.projects.Update(ctx, project); err != nil {
		return err
	}

	s.log.Info().Str("project_id", project.ID).Str("collaborator", userID).Msg("collaborator removed")
	return nil
}

// viewable loads a project the actor may read.
func (s *ProjectService) viewable(ctx context.Context, actorID, projectID string) (*domain.Project, error) {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.CanView(actorID) {
		return nil, domain.ErrForbidden
	}
	return project, nil
}

// editable loads a project the actor may write (creator only).
func (s *ProjectService) editable(ctx context.Context, actorID, projectID string) (*domain.Project, error) {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.CanEdit(actorID) {
		return nil, domain.ErrForbidden
	}
	return project, nil
}

// managed loads a project whose collaborator set the actor may mutate.
func (s *ProjectService) managed(ctx context.Context, actorID, projectID string) (*domain.Project, error) {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.CanManageCollaborators(actorID) {
		return nil, domain.ErrForbidden
	}
	return project, nil
}

func (s *ProjectService) load(ctx context.Context, projectID string) (*domain.Project, error) {
	if err := domain.ValidateID(projectID); err != nil {
		return nil, err
	}
	return s.projects.FindByID(ctx, projectID)
}

// resolveUser resolves a weak user reference for task views. A missing
// user degrades to an id-only reference.
func (s *ProjectService) resolveUser(ctx context.Context, userID string) *ports.UserRef {
	return resolveUserRef(ctx, s.users, userID)
}
