package board

import (
	"context"
	"log"
	"sync"

	"collabboard/internal/model"
	"collabboard/internal/store"
)

// Room is the in-memory session state for one whiteboard while at least
// one participant is attached. All per-room shared state (document,
// history stacks, presence set, sequence counter) is serialized under
// one mutex, so sequence assignment and mutation form a single total
// order per room while different rooms proceed fully in parallel.
//
// Broadcast frames are enqueued onto each member's ordered send channel
// while the lock is held; that is what fixes the delivery order, and it
// never blocks because Conn.Send is a non-blocking enqueue. The actual
// socket writes happen on each connection's writer goroutine, so the
// lock is never held across network I/O.
type Room struct {
	ID  string
	hub *Hub

	mu     sync.Mutex
	conns  map[string]Conn
	doc    *document
	hist   *history
	seq    uint64
	loaded bool
}

func newRoom(id string, hub *Hub) *Room {
	return &Room{
		ID:    id,
		hub:   hub,
		conns: make(map[string]Conn),
		hist:  newHistory(hub.historyDepth),
	}
}

// ensureLoaded seeds the document from the external store on first
// attach. Called under r.mu; a failed load is retried by the next
// attach rather than poisoning the room.
func (r *Room) ensureLoaded(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	elements, err := r.hub.store.GetElements(ctx, r.ID)
	if err != nil {
		if err == store.ErrNotFound {
			return ErrNotFound
		}
		return err
	}
	r.doc = newDocument(elements)
	r.seq = r.doc.lastSeq
	r.loaded = true
	return nil
}

// attach registers the connection and broadcasts the new presence count
// to every member including the triggering one.
func (r *Room) attach(ctx context.Context, conn Conn) error {
	r.mu.Lock()
	if err := r.ensureLoaded(ctx); err != nil {
		r.mu.Unlock()
		return err
	}
	r.conns[conn.ID()] = conn
	count := len(r.conns)
	r.sendAll(marshalFrame(EventPresence, PresencePayload{Count: count}))
	r.mu.Unlock()

	log.Printf("[Room %s] Attached %s (%s), presence: %d", r.ID, conn.ID(), conn.Username(), count)
	return nil
}

// detach removes the connection and reports whether the room is now
// empty. Remaining members get a presence update.
func (r *Room) detach(connID string) (username string, empty bool) {
	r.mu.Lock()
	conn, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return "", false
	}
	delete(r.conns, connID)
	count := len(r.conns)
	r.sendAll(marshalFrame(EventPresence, PresencePayload{Count: count}))
	r.mu.Unlock()

	log.Printf("[Room %s] Detached %s, presence: %d", r.ID, connID, count)
	return conn.Username(), count == 0
}

func (r *Room) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// elements returns a snapshot of the live document for late joiners.
func (r *Room) elements() ([]model.Element, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return nil, false
	}
	return r.doc.snapshot(), true
}

// apply is the operation router: validate, sequence, mutate, checkpoint
// and broadcast one inbound operation. Authorization and validation
// errors go back to the originating connection only; other members are
// never affected by a rejected operation.
func (r *Room) apply(conn Conn, op model.Element) error {
	r.mu.Lock()

	if _, attached := r.conns[conn.ID()]; !attached {
		r.mu.Unlock()
		return ErrUnauthorized
	}
	if err := op.Validate(); err != nil {
		r.mu.Unlock()
		return ErrMalformedOperation
	}

	if !model.IsMutating(op.Tool) { // undo | redo
		restored, ok := r.navigateHistory(op.Tool)
		if !ok {
			// Empty stack: no state change, no broadcast.
			r.mu.Unlock()
			return nil
		}
		// Every member including the author receives the full restored
		// sequence, marked as history navigation so clients replace
		// rather than append.
		r.sendAll(marshalFrame(EventHistory, HistoryPayload{Kind: op.Tool, Elements: restored}))
		r.mu.Unlock()
		r.hub.persist.schedule(r.ID, restored)
		return nil
	}

	r.seq++
	op.Seq = r.seq
	op.Author = conn.Username()

	// Pre-mutation snapshot becomes the undo checkpoint; any redo
	// branch is discarded.
	r.hist.checkpoint(r.doc.snapshot())

	switch {
	case model.IsStrokeTool(op.Tool), op.Tool == model.ToolText:
		r.doc.append(op)
	case op.Tool == model.ToolEraser:
		r.doc.erase(op.X, op.Y, op.Size, op.Seq)
	case op.Tool == model.ToolClear:
		r.doc.clear(op.Seq)
	}

	// The author already rendered the operation locally; everyone
	// else gets the raw sequenced operation.
	r.sendExcept(conn.ID(), marshalFrame(EventOperation, op))
	snapshot := r.doc.snapshot()
	r.mu.Unlock()
	r.hub.persist.schedule(r.ID, snapshot)
	return nil
}

// navigateHistory performs undo/redo under the room lock, replacing the
// document wholesale with the restored snapshot.
func (r *Room) navigateHistory(kind string) ([]model.Element, bool) {
	current := r.doc.snapshot()

	var restored []model.Element
	var ok bool
	if kind == model.ToolUndo {
		restored, ok = r.hist.popUndo(current)
	} else {
		restored, ok = r.hist.popRedo(current)
	}
	if !ok {
		return nil, false
	}

	r.seq++
	r.doc.replace(restored, r.seq)
	return r.doc.snapshot(), true
}

// chat fans the message out to every member including the sender, so
// the sender's own message renders through the same path as everyone
// else's and chat ordering is identical on all clients.
func (r *Room) chat(conn Conn, text string) error {
	if text == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, attached := r.conns[conn.ID()]; !attached {
		return ErrUnauthorized
	}
	r.sendAll(marshalFrame(EventChat, ChatPayload{Sender: conn.Username(), Text: text}))
	return nil
}

// sendAll / sendExcept enqueue a frame for members. Called under r.mu.
// Delivery is at-most-once best-effort: a failed enqueue is logged and
// the connection's own read loop will notice the dead socket.
func (r *Room) sendAll(data []byte) {
	for _, c := range r.conns {
		if err := c.Send(data); err != nil {
			log.Printf("[Room %s] Send to %s failed: %v", r.ID, c.ID(), err)
		}
	}
}

func (r *Room) sendExcept(connID string, data []byte) {
	for id, c := range r.conns {
		if id == connID {
			continue
		}
		if err := c.Send(data); err != nil {
			log.Printf("[Room %s] Send to %s failed: %v", r.ID, id, err)
		}
	}
}
