package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/uptask/project-system/internal/core/domain"
	"github.com/uptask/project-system/internal/core/ports"
)

// TaskService implements the task lifecycle. Authorization is derived
// transitively from the parent project: edits and deletes require the
// project write rule (creator only), the completion toggle only requires
// view access, so collaborators may toggle but not edit.
//
// Every successful mutation publishes a room event after the store write
// committed; the originating session is excluded from delivery.
type TaskService struct {
	tasks     ports.TaskRepository
	projects  ports.ProjectRepository
	users     ports.UserRepository
	publisher ports.EventPublisher
	log       zerolog.Logger
}

func NewTaskService(tasks ports.TaskRepository, projects ports.ProjectRepository, users ports.UserRepository, publisher ports.EventPublisher, log zerolog.Logger) *TaskService {
	return &TaskService{tasks: tasks, projects: projects, users: users, publisher: publisher, log: log}
}

func (s *TaskService) Create(ctx context.Context, actorID, origin string, in ports.TaskInput) (*ports.TaskView, error) {
	if err := domain.ValidateID(in.ProjectID); err != nil {
		return nil, err
	}

	project, err := s.projects.FindByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.CanEdit(actorID) {
		return nil, domain.ErrForbidden
	}

	now := time.Now().UTC()
	due := in.DueDate
	if due.IsZero() {
		due = now
	}
	priority := in.Priority
	if !priority.Valid() {
		priority = domain.PriorityLow
	}

	task := &domain.Task{
		Name:        in.Name,
		Description: in.Description,
		Priority:    priority,
		DueDate:     due,
		ProjectID:   project.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create task")
		return nil, err
	}

	// Two-sided update: the task document and the project's task list
	// must agree. If the list update loses, compensate by removing the
	// freshly inserted task.
	project.AppendTask(created.ID)
	project.UpdatedAt = now
	if err := s.projects.Update(ctx, project); err != nil {
		if delErr := s.tasks.Delete(ctx, created.ID); delErr != nil {
			s.log.Error().Err(delErr).Str("task_id", created.ID).Msg("failed to roll back orphan task")
		}
		return nil, err
	}

	view := taskView(created, nil)
	s.publish(ports.TaskEvent{Type: ports.EventTaskCreated, ProjectID: project.ID, Origin: origin, Task: view})

	s.log.Info().Str("task_id", created.ID).Str("project_id", project.ID).Msg("task created")
	return &view, nil
}

func (s *TaskService) Get(ctx context.Context, actorID, taskID string) (*ports.TaskView, error) {
	task, project, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !project.CanEdit(actorID) {
		return nil, domain.ErrForbidden
	}

	view := taskView(task, resolveUserRef(ctx, s.users, task.CompletedBy))
	return &view, nil
}

func (s *TaskService) Update(ctx context.Context, actorID, origin, taskID string, in ports.TaskUpdate) (*ports.TaskView, error) {
	task, project, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !project.CanEdit(actorID) {
		return nil, domain.ErrForbidden
	}
	if in.Version != 0 && in.Version != task.Version {
		return nil, domain.ErrConflict
	}

	if in.Name != "" {
		task.Name = in.Name
	}
	if in.Description != "" {
		task.Description = in.Description
	}
	if in.Priority != "" && in.Priority.Valid() {
		task.Priority = in.Priority
	}
	if !in.DueDate.IsZero() {
		task.DueDate = in.DueDate
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	view := taskView(task, resolveUserRef(ctx, s.users, task.CompletedBy))
	s.publish(ports.TaskEvent{Type: ports.EventTaskUpdated, ProjectID: project.ID, Origin: origin, Task: view})
	return &view, nil
}

// Delete removes the task and its id from the parent project's task list.
// The broadcast payload is the pre-deletion snapshot.
func (s *TaskService) Delete(ctx context.Context, actorID, origin, taskID string) error {
	task, project, err := s.load(ctx, taskID)
	if err != nil {
		return err
	}
	if !project.CanEdit(actorID) {
		return domain.ErrForbidden
	}

	snapshot := taskView(task, resolveUserRef(ctx, s.users, task.CompletedBy))

	project.RemoveTask(task.ID)
	project.UpdatedAt = time.Now().UTC()
	if err := s.projects.Update(ctx, project); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		// restore the list entry so the project keeps matching the
		// still-existing task document
		project.AppendTask(task.ID)
		project.UpdatedAt = time.Now().UTC()
		if restoreErr := s.projects.Update(ctx, project); restoreErr != nil {
			s.log.Error().Err(restoreErr).Str("task_id", task.ID).Str("project_id", project.ID).
				Msg("failed to restore task list entry after delete failure")
		}
		return err
	}

	s.publish(ports.TaskEvent{Type: ports.EventTaskDeleted, ProjectID: project.ID, Origin: origin, Task: snapshot})

	s.log.Info().Str("task_id", task.ID).Str("project_id", project.ID).Msg("task deleted")
	return nil
}

func (s *TaskService) Toggle(ctx context.Context, actorID, origin, taskID string) (*ports.TaskView, error) {
	task, project, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !project.CanView(actorID) {
		return nil, domain.ErrForbidden
	}

	task.Toggle(actorID)
	task.UpdatedAt = time.Now().UTC()
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	view := taskView(task, resolveUserRef(ctx, s.users, task.CompletedBy))
	s.publish(ports.TaskEvent{Type: ports.EventTaskStatusChanged, ProjectID: project.ID, Origin: origin, Task: view})
	return &view, nil
}

// load fetches a task and its parent project, validating the id first.
func (s *TaskService) load(ctx context.Context, taskID string) (*domain.Task, *domain.Project, error) {
	if err := domain.ValidateID(taskID); err != nil {
		return nil, nil, err
	}

	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}

	project, err := s.projects.FindByID(ctx, task.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return task, project, nil
}

func (s *TaskService) publish(ev ports.TaskEvent) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishTask(ev)
}

// taskView maps a task to its client-facing record.
func taskView(t *domain.Task, completedBy *ports.UserRef) ports.TaskView {
	return ports.TaskView{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Completed:   t.Completed,
		CompletedBy: completedBy,
		ProjectID:   t.ProjectID,
		Version:     t.Version,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// resolveUserRef resolves a weak user reference. Lookups never fail the
// caller: a missing user degrades to an id-only reference, an empty id
// resolves to nil.
func resolveUserRef(ctx context.Context, users ports.UserRepository, userID string) *ports.UserRef {
	if userID == "" {
		return nil
	}
	u, err := users.FindByID(ctx, userID)
	if err != nil {
		return &ports.UserRef{ID: userID}
	}
	return &ports.UserRef{ID: u.ID, Name: u.Name}
}
