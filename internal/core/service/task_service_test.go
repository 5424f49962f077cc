package service

import (
	"context"
	"testing"

	"github.com/uptask/project-system/internal/core/domain"
	"github.com/uptask/project-system/internal/core/ports"
)

type taskFixture struct {
	*projectFixture
	svc       *TaskService
	publisher *capturingPublisher
	task      *ports.TaskView
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	pf := newProjectFixture(t)
	publisher := &capturingPublisher{}
	svc := NewTaskService(pf.tasks, pf.projects, pf.users, publisher, discardLogger)

	task, err := svc.Create(context.Background(), pf.creator.ID, "sess-creator", ports.TaskInput{
		Name:      "write docs",
		Priority:  domain.PriorityMedium,
		ProjectID: pf.project.ID,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return &taskFixture{projectFixture: pf, svc: svc, publisher: publisher, task: task}
}

func TestTaskService_Create_UpdatesProjectList(t *testing.T) {
	f := newTaskFixture(t)

	stored, _ := f.projects.FindByID(context.Background(), f.project.ID)
	if len(stored.Tasks) != 1 || stored.Tasks[0] != f.task.ID {
		t.Fatalf("task id not mirrored into project list: %v", stored.Tasks)
	}

	events := f.publisher.all()
	if len(events) != 1 || events[0].Type != ports.EventTaskCreated {
		t.Fatalf("expected one task-created event, got %+v", events)
	}
	if events[0].ProjectID != f.project.ID || events[0].Origin != "sess-creator" {
		t.Fatalf("event carries wrong routing info: %+v", events[0])
	}
}

func TestTaskService_Create_CollaboratorForbidden(t *testing.T) {
	f := newTaskFixture(t)

	_, err := f.svc.Create(context.Background(), f.collab.ID, "", ports.TaskInput{Name: "x", ProjectID: f.project.ID})
	if err != domain.ErrForbidden {
		t.Fatalf("collaborator task creation must be forbidden, got %v", err)
	}
}

func TestTaskService_Toggle_StampsActor(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	// collaborator may toggle even though it may not edit
	view, err := f.svc.Toggle(ctx, f.collab.ID, "sess-u2", f.task.ID)
	if err != nil {
		t.Fatalf("collaborator toggle failed: %v", err)
	}
	if !view.Completed {
		t.Fatalf("toggle did not complete the task")
	}
	if view.CompletedBy == nil || view.CompletedBy.ID != f.collab.ID || view.CompletedBy.Name != "u2" {
		t.Fatalf("completedBy not resolved to acting user: %+v", view.CompletedBy)
	}

	// toggling back to pending stamps the new actor
	view, err = f.svc.Toggle(ctx, f.creator.ID, "", f.task.ID)
	if err != nil {
		t.Fatalf("toggle back failed: %v", err)
	}
	if view.Completed {
		t.Fatalf("second toggle did not revert to pending")
	}
	if view.CompletedBy == nil || view.CompletedBy.ID != f.creator.ID {
		t.Fatalf("pending stamp missing: %+v", view.CompletedBy)
	}

	events := f.publisher.all()
	last := events[len(events)-1]
	if last.Type != ports.EventTaskStatusChanged {
		t.Fatalf("expected task-status-changed event, got %s", last.Type)
	}
}

func TestTaskService_Toggle_OutsiderForbidden(t *testing.T) {
	f := newTaskFixture(t)

	if _, err := f.svc.Toggle(context.Background(), f.outsider.ID, "", f.task.ID); err != domain.ErrForbidden {
		t.Fatalf("outsider toggle must be forbidden, got %v", err)
	}
}

func TestTaskService_Update_CollaboratorForbidden(t *testing.T) {
	f := newTaskFixture(t)

	_, err := f.svc.Update(context.Background(), f.collab.ID, "", f.task.ID, ports.TaskUpdate{Name: "renamed"})
	if err != domain.ErrForbidden {
		t.Fatalf("collaborator task edit must be forbidden, got %v", err)
	}
}

func TestTaskService_Update_VersionConflict(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Update(ctx, f.creator.ID, "", f.task.ID, ports.TaskUpdate{Name: "v2"}); err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	_, err := f.svc.Update(ctx, f.creator.ID, "", f.task.ID, ports.TaskUpdate{Name: "v3", Version: f.task.Version})
	if err != domain.ErrConflict {
		t.Fatalf("stale version should conflict, got %v", err)
	}
}

func TestTaskService_Delete_TwoSided(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	if err := f.svc.Delete(ctx, f.creator.ID, "sess-creator", f.task.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := f.tasks.FindByID(ctx, f.task.ID); err != domain.ErrTaskNotFound {
		t.Fatalf("task record still in store: %v", err)
	}
	stored, _ := f.projects.FindByID(ctx, f.project.ID)
	for _, id := range stored.Tasks {
		if id == f.task.ID {
			t.Fatalf("task id still referenced by project: %v", stored.Tasks)
		}
	}

	events := f.publisher.all()
	last := events[len(events)-1]
	if last.Type != ports.EventTaskDeleted {
		t.Fatalf("expected task-deleted event, got %s", last.Type)
	}
	if last.Task.ID != f.task.ID || last.Task.Name != "write docs" {
		t.Fatalf("deleted event must carry the pre-deletion snapshot: %+v", last.Task)
	}
}

func TestTaskService_Delete_RestoresListOnTaskDeleteFailure(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	storeDown := domain.ErrConflict
	f.tasks.deleteErr = storeDown

	if err := f.svc.Delete(ctx, f.creator.ID, "", f.task.ID); err != storeDown {
		t.Fatalf("expected the task delete failure, got %v", err)
	}
	f.tasks.deleteErr = nil

	// the task document survives and the project list still references it
	if _, err := f.tasks.FindByID(ctx, f.task.ID); err != nil {
		t.Fatalf("task vanished despite failed delete: %v", err)
	}
	stored, _ := f.projects.FindByID(ctx, f.project.ID)
	found := false
	for _, id := range stored.Tasks {
		if id == f.task.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("project list lost the task reference: %v", stored.Tasks)
	}

	// no broadcast for an uncommitted mutation
	for _, ev := range f.publisher.all() {
		if ev.Type == ports.EventTaskDeleted {
			t.Fatalf("event fired for failed delete")
		}
	}
}

func TestTaskService_MalformedID_NoStoreCall(t *testing.T) {
	f := newTaskFixture(t)
	before := f.tasks.calls + f.projects.calls

	if _, err := f.svc.Get(context.Background(), f.creator.ID, "xyz"); err != domain.ErrMalformedID {
		t.Fatalf("expected ErrMalformedID, got %v", err)
	}
	if _, err := f.svc.Toggle(context.Background(), f.creator.ID, "", "not-hex"); err != domain.ErrMalformedID {
		t.Fatalf("expected ErrMalformedID, got %v", err)
	}
	if got := f.tasks.calls + f.projects.calls; got != before {
		t.Fatalf("malformed id reached the store: %d extra calls", got-before)
	}
}

func TestTaskService_Create_RollsBackOnProjectUpdateFailure(t *testing.T) {
	f := newTaskFixture(t)
	f.projects.updateErr = domain.ErrConflict

	_, err := f.svc.Create(context.Background(), f.creator.ID, "", ports.TaskInput{Name: "doomed", ProjectID: f.project.ID})
	if err != domain.ErrConflict {
		t.Fatalf("expected the project update failure, got %v", err)
	}

	f.projects.updateErr = nil
	orphans, _ := f.tasks.FindByProject(context.Background(), f.project.ID)
	if len(orphans) != 1 { // only the fixture task survives
		t.Fatalf("orphan task left behind: %d tasks", len(orphans))
	}

	// no broadcast for an uncommitted mutation
	for _, ev := range f.publisher.all() {
		if ev.Task.Name == "doomed" {
			t.Fatalf("event fired for rolled-back task")
		}
	}
}
