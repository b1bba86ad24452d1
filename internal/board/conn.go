package board

import "encoding/json"

// Conn is one live client connection. The websocket handler adapts the
// real socket onto this; tests use in-memory fakes. Send must enqueue
// onto a single ordered per-connection channel and never block the
// caller: frames enqueued in order are delivered in order, which is
// what gives every client the same view of the room's sequence.
type Conn interface {
	// ID is the ephemeral connection identifier. One user may hold
	// several connections (multiple tabs), each with its own ID.
	ID() string
	// Username is the authenticated stable identity.
	Username() string
	// Send enqueues an already-marshaled frame for delivery.
	Send(data []byte) error
}

// Server frame event names. Client frames reuse "operation" and "chat"
// plus "join-room" / "leave-room".
const (
	EventPresence  = "presence"
	EventOperation = "operation"
	EventHistory   = "history"
	EventChat      = "chat"
)

type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// PresencePayload 접속자 수 알림
type PresencePayload struct {
	Count int `json:"count"`
}

// HistoryPayload is broadcast after undo/redo so clients replace their
// element list instead of appending.
type HistoryPayload struct {
	Kind     string `json:"kind"` // undo | redo
	Elements any    `json:"elements"`
}

// ChatPayload 채팅 메시지
type ChatPayload struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

func marshalFrame(event string, data any) []byte {
	b, err := json.Marshal(frame{Event: event, Data: data})
	if err != nil {
		// All payload types marshal cleanly; reaching this means a
		// programming error in the payload structs.
		return []byte(`{"event":"error"}`)
	}
	return b
}
