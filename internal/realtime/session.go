package realtime

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/uptask/project-system/internal/api/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 32
)

// clientMessage is the only frame shape clients send: join or leave a
// project room.
type clientMessage struct {
	Action  string `json:"action"`
	Project string `json:"project"`
}

type serverFrame struct {
	Event   string `json:"event"`
	Session string `json:"session,omitempty"`
	Project string `json:"project,omitempty"`
	Message string `json:"message,omitempty"`
}

// Session is one websocket connection bound to an authenticated user. The
// session id doubles as the event origin marker: requests carrying it in
// X-Session-ID are not echoed back to this connection.
type Session struct {
	id     string
	userID string
	conn   *websocket.Conn
	hub    *Hub

	// mu makes enqueue and close mutually exclusive: the hub may still
	// hold a room snapshot containing this session when the read loop
	// tears it down, and a send must never race the channel close.
	mu     sync.Mutex
	closed bool
	out    chan []byte

	log zerolog.Logger
}

func NewSession(hub *Hub, conn *websocket.Conn, userID string, log zerolog.Logger) *Session {
	return &Session{
		id:     newSessionID(),
		userID: userID,
		conn:   conn,
		hub:    hub,
		out:    make(chan []byte, sendBuffer),
		log:    log,
	}
}

func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("sess-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// ID returns the session identifier announced to the client in the first
// frame.
func (s *Session) ID() string { return s.id }

// Run services the connection until the peer disconnects. It announces the
// session id, then pumps frames in both directions. Run blocks; the caller
// owns the goroutine.
func (s *Session) Run() {
	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()

	s.sendFrame(serverFrame{Event: "session", Session: s.id})

	go s.writeLoop()
	s.readLoop()
}

func (s *Session) readLoop() {
	defer func() {
		s.hub.detach(s)
		s.close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Str("session", s.id).Msg("websocket closed unexpectedly")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendFrame(serverFrame{Event: "error", Message: "malformed message"})
			continue
		}
		s.handle(msg)
	}
}

func (s *Session) handle(msg clientMessage) {
	switch msg.Action {
	case "join":
		ctx, cancel := joinContext()
		defer cancel()
		if err := s.hub.Join(ctx, s, msg.Project); err != nil {
			s.sendFrame(serverFrame{Event: "error", Project: msg.Project, Message: "cannot join project room"})
			return
		}
		s.sendFrame(serverFrame{Event: "joined", Project: msg.Project})
	case "leave":
		s.hub.Leave(s, msg.Project)
	default:
		s.sendFrame(serverFrame{Event: "error", Message: "unknown action"})
	}
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue hands a frame to the write loop without blocking. A session that
// cannot keep up loses frames instead of stalling the hub, and a session
// already torn down drops the frame silently.
func (s *Session) enqueue(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.out <- payload:
	default:
		metrics.EventsDroppedTotal.Inc()
		s.log.Warn().Str("session", s.id).Msg("session send buffer full, dropping frame")
	}
}

func (s *Session) sendFrame(frame serverFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	s.enqueue(payload)
}

// joinContext bounds the room authorization lookup so a slow store cannot
// wedge the read loop.
func joinContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// close marks the session dead and shuts the write loop down. The closed
// flag is flipped under mu, so any delivery that raced the teardown either
// finished its send already or will see the flag and drop the frame.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.out)
}
