// Package board is the realtime collaborative-session engine: it tracks
// which connections are attached to which whiteboard, sequences and
// fans out drawing operations and chat, coordinates the shared undo/redo
// history, and keeps the server-held document convergent with what
// clients derive locally. Transport and storage stay behind the Conn
// and store.Store interfaces.
package board

import (
	"context"
	"log"
	"sync"
	"time"

	"collabboard/internal/model"
	"collabboard/internal/store"
)

// PresenceMirror publishes room head counts to an external system
// (Redis) so other instances or dashboards can observe them. Optional;
// a nil mirror disables it.
type PresenceMirror interface {
	SetCount(ctx context.Context, whiteboardID string, count int) error
	Clear(ctx context.Context, whiteboardID string) error
}

// Config ties down the hub's tunables.
type Config struct {
	HistoryDepth       int           // max undo snapshots per room, 0 = unbounded
	PersistMaxAttempts int           // store write attempts before dropping a snapshot
	PersistBackoff     time.Duration // initial retry backoff, doubles per attempt
}

// Hub is the room directory plus connection registry. Rooms are created
// lazily on first attach and evicted once the last participant detaches
// and any pending persistence completed; there is never more than one
// in-memory room per whiteboard.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	byConn map[string]*Room // connection registry: connID -> attached room

	store        store.Store
	persist      *persister
	mirror       PresenceMirror
	historyDepth int
}

// NewHub Hub 생성
func NewHub(st store.Store, mirror PresenceMirror, cfg Config) *Hub {
	if cfg.PersistMaxAttempts <= 0 {
		cfg.PersistMaxAttempts = 5
	}
	if cfg.PersistBackoff <= 0 {
		cfg.PersistBackoff = time.Second
	}
	return &Hub{
		rooms:        make(map[string]*Room),
		byConn:       make(map[string]*Room),
		store:        st,
		persist:      newPersister(st, cfg.PersistMaxAttempts, cfg.PersistBackoff),
		mirror:       mirror,
		historyDepth: cfg.HistoryDepth,
	}
}

// Attach joins a connection to a whiteboard room, creating the room on
// first attach. The caller's identity must already be verified; this
// checks participation against the store and returns ErrNotFound or
// ErrUnauthorized to the caller only.
func (h *Hub) Attach(ctx context.Context, conn Conn, whiteboardID string) error {
	ok, err := h.store.IsParticipant(ctx, whiteboardID, conn.Username())
	if err != nil {
		if err == store.ErrNotFound {
			return ErrNotFound
		}
		return err
	}
	if !ok {
		return ErrUnauthorized
	}

	// A connection holds at most one room; re-joining moves it.
	h.Detach(conn.ID())

	for {
		h.mu.Lock()
		room, exists := h.rooms[whiteboardID]
		if !exists {
			room = newRoom(whiteboardID, h)
			h.rooms[whiteboardID] = room
			log.Printf("[Hub] Created room: %s", whiteboardID)
		}
		h.mu.Unlock()

		if err := room.attach(ctx, conn); err != nil {
			h.releaseIfUnused(whiteboardID, room)
			return err
		}

		if h.finishAttach(conn, room) {
			h.mirrorCount(whiteboardID, room.count())
			return nil
		}

		// Eviction removed the room between the directory lookup and
		// room.attach; undo the membership and retry on a fresh room.
		room.detach(conn.ID())
	}
}

// finishAttach registers the connection, but only if the room is still
// the directory's room for its whiteboard. Reports false when eviction
// won the race and the attach must be retried, which keeps the
// directory at one in-memory room per whiteboard.
func (h *Hub) finishAttach(conn Conn, room *Room) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room.ID] != room {
		return false
	}
	h.byConn[conn.ID()] = room
	return true
}

// releaseIfUnused drops an empty room from the directory after a failed
// attach. The pointer comparison keeps it from removing a newer room
// created for the same whiteboard in the meantime.
func (h *Hub) releaseIfUnused(whiteboardID string, room *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[whiteboardID] == room && room.count() == 0 {
		delete(h.rooms, whiteboardID)
	}
}

// Detach removes a connection from its room, if any. Disconnection is
// the only cancellation signal: nothing is retried on behalf of a
// departed connection.
func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	room, ok := h.byConn[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.byConn, connID)
	h.mu.Unlock()

	_, empty := room.detach(connID)
	h.mirrorCount(room.ID, room.count())
	if empty {
		go h.evict(room)
	}
}

// evict releases an empty room once its pending persistence completed.
// A participant attaching meanwhile finds the room still in the map and
// aborts the eviction.
func (h *Hub) evict(room *Room) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := h.persist.flush(ctx, room.ID); err != nil {
		log.Printf("[Hub] Flush wait for room %s: %v", room.ID, err)
	}

	h.mu.Lock()
	if current, ok := h.rooms[room.ID]; ok && current == room && room.count() == 0 {
		delete(h.rooms, room.ID)
		log.Printf("[Hub] Evicted room: %s", room.ID)
	}
	h.mu.Unlock()

	if h.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.mirror.Clear(ctx, room.ID); err != nil {
			log.Printf("[Hub] Presence mirror clear for %s: %v", room.ID, err)
		}
	}
}

// Route dispatches one inbound operation from a connection to its room.
func (h *Hub) Route(conn Conn, op model.Element) error {
	room := h.roomOf(conn.ID())
	if room == nil {
		return ErrUnauthorized
	}
	return room.apply(conn, op)
}

// Chat relays a chat message to every member of the sender's room.
func (h *Hub) Chat(conn Conn, text string) error {
	room := h.roomOf(conn.ID())
	if room == nil {
		return ErrUnauthorized
	}
	return room.chat(conn, text)
}

// Elements returns the live document snapshot for an active room, so
// initial loads reflect unflushed operations. ok is false when no room
// is active and the caller should read the store instead.
func (h *Hub) Elements(whiteboardID string) ([]model.Element, bool) {
	h.mu.RLock()
	room, exists := h.rooms[whiteboardID]
	h.mu.RUnlock()
	if !exists {
		return nil, false
	}
	return room.elements()
}

// PresenceCount reports the number of connections attached to a room.
func (h *Hub) PresenceCount(whiteboardID string) int {
	h.mu.RLock()
	room, exists := h.rooms[whiteboardID]
	h.mu.RUnlock()
	if !exists {
		return 0
	}
	return room.count()
}

// Stats returns totals across all rooms.
func (h *Hub) Stats() (rooms, conns int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rooms = len(h.rooms)
	conns = len(h.byConn)
	return rooms, conns
}

// FlushAll waits for every pending store write, used on shutdown.
func (h *Hub) FlushAll(ctx context.Context) {
	h.mu.RLock()
	ids := make([]string, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		if err := h.persist.flush(ctx, id); err != nil {
			log.Printf("[Hub] Flush %s on shutdown: %v", id, err)
			return
		}
	}
}

func (h *Hub) roomOf(connID string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.byConn[connID]
}

func (h *Hub) mirrorCount(whiteboardID string, count int) {
	if h.mirror == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.mirror.SetCount(ctx, whiteboardID, count); err != nil {
			log.Printf("[Hub] Presence mirror update for %s: %v", whiteboardID, err)
		}
	}()
}
