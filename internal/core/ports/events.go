package ports

// TaskEventType identifies a task-lifecycle event broadcast to a project
// room.
type TaskEventType string

const (
	EventTaskCreated       TaskEventType = "task-created"
	EventTaskUpdated       TaskEventType = "task-updated"
	EventTaskDeleted       TaskEventType = "task-deleted"
	EventTaskStatusChanged TaskEventType = "task-status-changed"
)

// TaskEvent is pushed to every session subscribed to the project's room,
// except the originating session (it already has the authoritative result
// from the request/response cycle). For EventTaskDeleted the payload is
// the pre-deletion snapshot.
type TaskEvent struct {
	Type      TaskEventType `json:"event"`
	ProjectID string        `json:"project"`
	Origin    string        `json:"-"`
	Task      TaskView      `json:"task"`
}

// EventPublisher fans a task event out to the project's room. Publishing
// is fire-and-forget: it never blocks the triggering request, delivery is
// best-effort and unordered, and an empty room is a silent no-op.
type EventPublisher interface {
	PublishTask(event TaskEvent)
}
