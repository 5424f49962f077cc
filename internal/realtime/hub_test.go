package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/uptask/project-system/internal/core/domain"
	"github.com/uptask/project-system/internal/core/ports"
)

const (
	roomP1 = "64c000000000000000000001"
	roomP2 = "64c000000000000000000002"
)

func newTestHub(t *testing.T, authorize Authorizer) (*Hub, context.Context) {
	t.Helper()
	h := NewHub(Options{Authorize: authorize, Logger: zerolog.Nop()})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h, ctx
}

func newTestSession(id, userID string) *Session {
	return &Session{id: id, userID: userID, out: make(chan []byte, 8), log: zerolog.Nop()}
}

func allowAll(context.Context, string, string) error { return nil }

func recvEvent(t *testing.T, s *Session) ports.TaskEvent {
	t.Helper()
	select {
	case payload := <-s.out:
		var ev ports.TaskEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.Fatalf("bad frame %q: %v", payload, err)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("session %s received nothing", s.id)
		return ports.TaskEvent{}
	}
}

func assertSilent(t *testing.T, s *Session) {
	t.Helper()
	select {
	case payload := <-s.out:
		t.Fatalf("session %s unexpectedly received %q", s.id, payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_BroadcastExcludesOrigin(t *testing.T) {
	h, ctx := newTestHub(t, allowAll)

	a := newTestSession("sess-a", "ua")
	b := newTestSession("sess-b", "ub")
	c := newTestSession("sess-c", "uc")
	for _, s := range []*Session{a, b, c} {
		if err := h.Join(ctx, s, roomP1); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	h.PublishTask(ports.TaskEvent{
		Type:      ports.EventTaskCreated,
		ProjectID: roomP1,
		Origin:    a.id,
		Task:      ports.TaskView{ID: "t1", Name: "write docs"},
	})

	for _, s := range []*Session{b, c} {
		ev := recvEvent(t, s)
		if ev.Type != ports.EventTaskCreated || ev.Task.Name != "write docs" {
			t.Fatalf("session %s got wrong event: %+v", s.id, ev)
		}
	}
	assertSilent(t, a)
}

func TestHub_JoinRequiresAuthorization(t *testing.T) {
	deny := func(_ context.Context, userID, _ string) error {
		if userID == "intruder" {
			return domain.ErrForbidden
		}
		return nil
	}
	h, ctx := newTestHub(t, deny)

	member := newTestSession("sess-m", "member")
	intruder := newTestSession("sess-i", "intruder")

	if err := h.Join(ctx, member, roomP1); err != nil {
		t.Fatalf("member join: %v", err)
	}
	if err := h.Join(ctx, intruder, roomP1); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("intruder join should be forbidden, got %v", err)
	}

	h.PublishTask(ports.TaskEvent{Type: ports.EventTaskUpdated, ProjectID: roomP1})
	recvEvent(t, member)
	assertSilent(t, intruder)
}

func TestHub_EmptyRoomIsNoOp(t *testing.T) {
	h, ctx := newTestHub(t, allowAll)

	bystander := newTestSession("sess-b", "ub")
	if err := h.Join(ctx, bystander, roomP2); err != nil {
		t.Fatalf("join: %v", err)
	}

	// no one subscribed to P1
	h.PublishTask(ports.TaskEvent{Type: ports.EventTaskDeleted, ProjectID: roomP1})
	assertSilent(t, bystander)
}

func TestHub_DetachClearsAllRooms(t *testing.T) {
	h, ctx := newTestHub(t, allowAll)

	leaver := newTestSession("sess-l", "ul")
	stayer := newTestSession("sess-s", "us")
	for _, room := range []string{roomP1, roomP2} {
		if err := h.Join(ctx, leaver, room); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	if err := h.Join(ctx, stayer, roomP1); err != nil {
		t.Fatalf("join: %v", err)
	}

	h.detach(leaver)

	h.PublishTask(ports.TaskEvent{Type: ports.EventTaskUpdated, ProjectID: roomP1})
	h.PublishTask(ports.TaskEvent{Type: ports.EventTaskUpdated, ProjectID: roomP2})
	recvEvent(t, stayer)
	assertSilent(t, leaver)
}

func TestHub_LeaveSingleRoom(t *testing.T) {
	h, ctx := newTestHub(t, allowAll)

	s := newTestSession("sess-x", "ux")
	for _, room := range []string{roomP1, roomP2} {
		if err := h.Join(ctx, s, room); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	h.Leave(s, roomP1)
	// leaving a room never joined is a no-op
	h.Leave(s, "64c0000000000000000000ff")

	h.PublishTask(ports.TaskEvent{Type: ports.EventTaskUpdated, ProjectID: roomP1})
	assertSilent(t, s)
	h.PublishTask(ports.TaskEvent{Type: ports.EventTaskUpdated, ProjectID: roomP2})
	recvEvent(t, s)
}

func TestHub_DeliverDuringDisconnect(t *testing.T) {
	h := NewHub(Options{Authorize: allowAll, Logger: zerolog.Nop()})
	ctx := context.Background()

	ev := ports.TaskEvent{Type: ports.EventTaskUpdated, ProjectID: roomP1}

	// A session can tear down while the hub still holds it in a room
	// snapshot. Interleave delivery with disconnect to make sure a send
	// never hits a closed channel.
	for i := 0; i < 500; i++ {
		s := newTestSession("sess-race", "ur")
		if err := h.Join(ctx, s, roomP1); err != nil {
			t.Fatalf("join: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.deliver(ev)
		}()
		go func() {
			defer wg.Done()
			h.detach(s)
			s.close()
		}()
		wg.Wait()

		// a frame enqueued after close is dropped, not a panic
		s.enqueue([]byte(`{"event":"late"}`))
	}
}

// fakeRelay loops published events straight back into local delivery,
// standing in for a pub/sub broker.
type fakeRelay struct {
	loop chan ports.TaskEvent
}

func (r *fakeRelay) Publish(_ context.Context, ev ports.TaskEvent) error {
	r.loop <- ev
	return nil
}

func (r *fakeRelay) Run(ctx context.Context, deliver func(ports.TaskEvent)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-r.loop:
			deliver(ev)
		}
	}
}

func TestHub_RelayCarriesEvents(t *testing.T) {
	relay := &fakeRelay{loop: make(chan ports.TaskEvent, 8)}
	h := NewHub(Options{Authorize: allowAll, Relay: relay, Logger: zerolog.Nop()})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)

	origin := newTestSession("sess-o", "uo")
	other := newTestSession("sess-p", "up")
	for _, s := range []*Session{origin, other} {
		if err := h.Join(ctx, s, roomP1); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	h.PublishTask(ports.TaskEvent{Type: ports.EventTaskStatusChanged, ProjectID: roomP1, Origin: origin.id})

	ev := recvEvent(t, other)
	if ev.Type != ports.EventTaskStatusChanged {
		t.Fatalf("wrong event through relay: %+v", ev)
	}
	assertSilent(t, origin)
}
