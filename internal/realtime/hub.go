// Package realtime implements the room-scoped broadcast layer. Every
// project is a room keyed by its id; websocket sessions join rooms for the
// projects they are viewing and receive task-lifecycle events for those
// rooms, except for events they originated themselves.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/uptask/project-system/internal/api/metrics"
	"github.com/uptask/project-system/internal/core/ports"
)

const eventBuffer = 256

// Authorizer re-verifies project read access before a session is admitted
// to a room. The client's declared project id is not trusted on its own.
type Authorizer func(ctx context.Context, userID, projectID string) error

// Relay fans events out across instances. When configured, the hub
// publishes through the relay instead of delivering directly, and the
// relay feeds every instance's local delivery, this one included.
type Relay interface {
	Publish(ctx context.Context, ev ports.TaskEvent) error
	// Run blocks consuming relayed events and handing them to deliver
	// until ctx is cancelled.
	Run(ctx context.Context, deliver func(ports.TaskEvent)) error
}

// Hub owns the room registry. It implements ports.EventPublisher:
// publishing never blocks the triggering request, delivery is best-effort
// and an empty room is a silent no-op.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Session]struct{}

	events    chan ports.TaskEvent
	authorize Authorizer
	relay     Relay
	log       zerolog.Logger
}

// Options configures a Hub. Authorize is required; Relay is optional and
// nil keeps delivery in-process.
type Options struct {
	Authorize Authorizer
	Relay     Relay
	Logger    zerolog.Logger
}

func NewHub(opts Options) *Hub {
	return &Hub{
		rooms:     make(map[string]map[*Session]struct{}),
		events:    make(chan ports.TaskEvent, eventBuffer),
		authorize: opts.Authorize,
		relay:     opts.Relay,
		log:       opts.Logger,
	}
}

// PublishTask enqueues an event for fan-out. The call never blocks: when
// the hub is saturated the event is dropped and counted, the triggering
// request is unaffected.
func (h *Hub) PublishTask(ev ports.TaskEvent) {
	select {
	case h.events <- ev:
	default:
		metrics.EventsDroppedTotal.Inc()
		h.log.Warn().Str("project_id", ev.ProjectID).Str("event", string(ev.Type)).Msg("event queue full, dropping broadcast")
	}
}

// Run drains the event queue until ctx is cancelled. With a relay
// configured, events travel through it so every instance (this one
// included) delivers to its local sessions.
func (h *Hub) Run(ctx context.Context) {
	if h.relay != nil {
		go func() {
			if err := h.relay.Run(ctx, h.deliver); err != nil && ctx.Err() == nil {
				h.log.Error().Err(err).Msg("relay stopped")
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.events:
			if h.relay != nil {
				err := h.relay.Publish(ctx, ev)
				if err == nil {
					continue
				}
				h.log.Warn().Err(err).Str("project_id", ev.ProjectID).Msg("relay publish failed, delivering locally")
			}
			h.deliver(ev)
		}
	}
}

// deliver pushes the event to every session in the project's room except
// the originating one. Slow sessions have the frame dropped rather than
// blocking the fan-out.
func (h *Hub) deliver(ev ports.TaskEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode event")
		return
	}

	h.mu.RLock()
	room := h.rooms[ev.ProjectID]
	sessions := make([]*Session, 0, len(room))
	for s := range room {
		if s.id == ev.Origin {
			continue
		}
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		s.enqueue(payload)
	}
	metrics.EventsBroadcastTotal.WithLabelValues(string(ev.Type)).Add(float64(len(sessions)))
}

// Join subscribes a session to a project room after re-checking that the
// session's user may view the project.
func (h *Hub) Join(ctx context.Context, s *Session, projectID string) error {
	if h.authorize != nil {
		if err := h.authorize(ctx, s.userID, projectID); err != nil {
			return err
		}
	}

	h.mu.Lock()
	room, ok := h.rooms[projectID]
	if !ok {
		room = make(map[*Session]struct{})
		h.rooms[projectID] = room
	}
	room[s] = struct{}{}
	h.mu.Unlock()

	metrics.RoomsActive.Set(float64(h.roomCount()))
	h.log.Debug().Str("session", s.id).Str("project_id", projectID).Msg("session joined room")
	return nil
}

// Leave unsubscribes a session from one room. Leaving a room the session
// never joined is a no-op.
func (h *Hub) Leave(s *Session, projectID string) {
	h.mu.Lock()
	if room, ok := h.rooms[projectID]; ok {
		delete(room, s)
		if len(room) == 0 {
			delete(h.rooms, projectID)
		}
	}
	h.mu.Unlock()
	metrics.RoomsActive.Set(float64(h.roomCount()))
}

// detach clears a disconnecting session from every room it joined.
func (h *Hub) detach(s *Session) {
	h.mu.Lock()
	for projectID, room := range h.rooms {
		delete(room, s)
		if len(room) == 0 {
			delete(h.rooms, projectID)
		}
	}
	h.mu.Unlock()
	metrics.RoomsActive.Set(float64(h.roomCount()))
}

func (h *Hub) roomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
