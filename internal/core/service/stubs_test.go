package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/uptask/project-system/internal/core/domain"
	"github.com/uptask/project-system/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory stub repositories. Each stub counts store calls so tests can
// assert that malformed-id paths short-circuit before any lookup.
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID  map[string]*domain.User
	calls int
	seq   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func (r *stubUserRepo) nextID() string {
	r.seq++
	return fmt.Sprintf("64b%021x", r.seq)
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.calls++
	clone := *u
	if clone.ID == "" {
		clone.ID = r.nextID()
	}
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.calls++
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.calls++
	for _, u := range r.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByToken(_ context.Context, token string) (*domain.User, error) {
	r.calls++
	if token == "" {
		return nil, domain.ErrUserNotFound
	}
	for _, u := range r.byID {
		if u.Token == token {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	r.calls++
	if _, ok := r.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *u
	r.byID[u.ID] = &clone
	return nil
}

type stubProjectRepo struct {
	byID      map[string]*domain.Project
	calls     int
	seq       int
	updateErr error
}

func newStubProjectRepo() *stubProjectRepo {
	return &stubProjectRepo{byID: make(map[string]*domain.Project)}
}

func (r *stubProjectRepo) nextID() string {
	r.seq++
	return fmt.Sprintf("64c%021x", r.seq)
}

func cloneProject(p *domain.Project) *domain.Project {
	clone := *p
	clone.Collaborators = append([]string(nil), p.Collaborators...)
	clone.Tasks = append([]string(nil), p.Tasks...)
	return &clone
}

func (r *stubProjectRepo) Create(_ context.Context, p *domain.Project) (*domain.Project, error) {
	r.calls++
	clone := cloneProject(p)
	if clone.ID == "" {
		clone.ID = r.nextID()
	}
	if clone.Version == 0 {
		clone.Version = 1
	}
	r.byID[clone.ID] = clone
	return cloneProject(clone), nil
}

func (r *stubProjectRepo) FindByID(_ context.Context, id string) (*domain.Project, error) {
	r.calls++
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return cloneProject(p), nil
}

func (r *stubProjectRepo) ListForUser(_ context.Context, userID string) ([]*domain.Project, error) {
	r.calls++
	var out []*domain.Project
	for _, p := range r.byID {
		if p.CanView(userID) {
			out = append(out, cloneProject(p))
		}
	}
	return out, nil
}

// Update mirrors the real repository's optimistic version check.
func (r *stubProjectRepo) Update(_ context.Context, p *domain.Project) error {
	r.calls++
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.byID[p.ID]
	if !ok {
		return domain.ErrProjectNotFound
	}
	if stored.Version != p.Version {
		return domain.ErrConflict
	}
	clone := cloneProject(p)
	clone.Version++
	r.byID[p.ID] = clone
	p.Version = clone.Version
	return nil
}

func (r *stubProjectRepo) Delete(_ context.Context, id string) error {
	r.calls++
	if _, ok := r.byID[id]; !ok {
		return domain.ErrProjectNotFound
	}
	delete(r.byID, id)
	return nil
}

type stubTaskRepo struct {
	byID      map[string]*domain.Task
	calls     int
	seq       int
	deleteErr error
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{byID: make(map[string]*domain.Task)}
}

func (r *stubTaskRepo) nextID() string {
	r.seq++
	return fmt.Sprintf("64d%021x", r.seq)
}

func (r *stubTaskRepo) Create(_ context.Context, t *domain.Task) (*domain.Task, error) {
	r.calls++
	clone := *t
	if clone.ID == "" {
		clone.ID = r.nextID()
	}
	if clone.Version == 0 {
		clone.Version = 1
	}
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, id string) (*domain.Task, error) {
	r.calls++
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *stubTaskRepo) FindByProject(_ context.Context, projectID string) ([]*domain.Task, error) {
	r.calls++
	var out []*domain.Task
	for _, t := range r.byID {
		if t.ProjectID == projectID {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubTaskRepo) Update(_ context.Context, t *domain.Task) error {
	r.calls++
	stored, ok := r.byID[t.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if stored.Version != t.Version {
		return domain.ErrConflict
	}
	clone := *t
	clone.Version++
	r.byID[t.ID] = &clone
	t.Version = clone.Version
	return nil
}

func (r *stubTaskRepo) Delete(_ context.Context, id string) error {
	r.calls++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.byID[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubTaskRepo) DeleteByProject(_ context.Context, projectID string) error {
	r.calls++
	for id, t := range r.byID {
		if t.ProjectID == projectID {
			delete(r.byID, id)
		}
	}
	return nil
}

// capturingPublisher records every published event.
type capturingPublisher struct {
	mu     sync.Mutex
	events []ports.TaskEvent
}

func (p *capturingPublisher) PublishTask(ev ports.TaskEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturingPublisher) all() []ports.TaskEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ports.TaskEvent(nil), p.events...)
}

// recordingMailer records sent mails; sends are fire-and-forget in the
// service, so tests use the done channel to wait for delivery.
type recordingMailer struct {
	mu            sync.Mutex
	confirmations []string
	resets        []string
	done          chan struct{}
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{done: make(chan struct{}, 8)}
}

func (m *recordingMailer) SendAccountConfirmation(_ context.Context, email, _, _ string) error {
	m.mu.Lock()
	m.confirmations = append(m.confirmations, email)
	m.mu.Unlock()
	m.done <- struct{}{}
	return nil
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, email, _, _ string) error {
	m.mu.Lock()
	m.resets = append(m.resets, email)
	m.mu.Unlock()
	m.done <- struct{}{}
	return nil
}
