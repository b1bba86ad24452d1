package board

import (
	"context"
	"log"
	"sync"
	"time"

	"collabboard/internal/model"
	"collabboard/internal/store"
)

// persister writes room snapshots to the external store without ever
// blocking a broadcast. Writes are latest-wins per whiteboard: while a
// write is in flight, newer snapshots overwrite the pending one instead
// of queueing. Failed writes are retried with exponential backoff; the
// in-memory document stays correct regardless, so persistence failures
// are invisible to participants until a room is evicted and reloaded.
type persister struct {
	store       store.Store
	maxAttempts int
	baseBackoff time.Duration

	mu      sync.Mutex
	cond    *sync.Cond
	pending map[string][]model.Element // latest unsaved snapshot per board
	running map[string]bool            // board has a worker in flight
}

func newPersister(st store.Store, maxAttempts int, baseBackoff time.Duration) *persister {
	p := &persister{
		store:       st,
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
		pending:     make(map[string][]model.Element),
		running:     make(map[string]bool),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// schedule records the snapshot as the latest state for the board and
// starts a worker if none is running. Fire-and-forget for the caller.
func (p *persister) schedule(whiteboardID string, snapshot []model.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending[whiteboardID] = snapshot
	if !p.running[whiteboardID] {
		p.running[whiteboardID] = true
		go p.run(whiteboardID)
	}
}

func (p *persister) run(whiteboardID string) {
	for {
		p.mu.Lock()
		snapshot, dirty := p.pending[whiteboardID]
		if !dirty {
			p.running[whiteboardID] = false
			p.cond.Broadcast()
			p.mu.Unlock()
			return
		}
		delete(p.pending, whiteboardID)
		p.mu.Unlock()

		p.write(whiteboardID, snapshot)
	}
}

// write attempts the store write with backoff. After maxAttempts the
// snapshot is dropped; a newer schedule will carry the full state
// anyway since writes are whole-document.
func (p *persister) write(whiteboardID string, snapshot []model.Element) {
	backoff := p.baseBackoff
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := p.store.PutElements(ctx, whiteboardID, snapshot)
		cancel()
		if err == nil {
			return
		}

		log.Printf("[Persister] Write failed for board %s (attempt %d/%d): %v",
			whiteboardID, attempt, p.maxAttempts, err)
		if attempt >= p.maxAttempts {
			log.Printf("[Persister] Giving up on board %s after %d attempts", whiteboardID, attempt)
			return
		}
		time.Sleep(backoff)
		backoff *= 2
	}
}

// flush blocks until the board has no pending or in-flight write, or
// the context expires. Room eviction waits on this so an empty room is
// only released once its last state reached the store (or retries were
// exhausted).
func (p *persister) flush(ctx context.Context, whiteboardID string) error {
	done := make(chan struct{})
	go func() {
		p.mu.Lock()
		for p.running[whiteboardID] {
			p.cond.Wait()
		}
		p.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
