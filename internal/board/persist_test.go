package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabboard/internal/model"
	"collabboard/internal/store"
)

// memStore is an in-memory store.Store for the core tests. failPuts
// makes the first N writes fail to exercise the retry path.
type memStore struct {
	mu           sync.Mutex
	boards       map[string][]model.Element
	participants map[string]map[string]bool
	failPuts     int
	puts         int
	gets         int
}

func newMemStore() *memStore {
	return &memStore{
		boards:       make(map[string][]model.Element),
		participants: make(map[string]map[string]bool),
	}
}

func (s *memStore) addBoard(id string, elements []model.Element, usernames ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards[id] = elements
	members := make(map[string]bool, len(usernames))
	for _, u := range usernames {
		members[u] = true
	}
	s.participants[id] = members
}

func (s *memStore) GetElements(_ context.Context, whiteboardID string) ([]model.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	elements, ok := s.boards[whiteboardID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return model.CloneElements(elements), nil
}

func (s *memStore) PutElements(_ context.Context, whiteboardID string, elements []model.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.failPuts > 0 {
		s.failPuts--
		return errors.New("store unavailable")
	}
	if _, ok := s.boards[whiteboardID]; !ok {
		return store.ErrNotFound
	}
	s.boards[whiteboardID] = model.CloneElements(elements)
	return nil
}

func (s *memStore) IsParticipant(_ context.Context, whiteboardID, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.participants[whiteboardID]
	if !ok {
		return false, store.ErrNotFound
	}
	return members[username], nil
}

func (s *memStore) saved(id string) []model.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneElements(s.boards[id])
}

func (s *memStore) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

func TestPersister_WritesSnapshot(t *testing.T) {
	st := newMemStore()
	st.addBoard("b1", nil)
	p := newPersister(st, 3, time.Millisecond)

	p.schedule("b1", snap(1, 2))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.flush(ctx, "b1"))
	assert.Equal(t, snap(1, 2), st.saved("b1"))
}

func TestPersister_LatestWins(t *testing.T) {
	st := newMemStore()
	st.addBoard("b1", nil)
	// One failure keeps the worker busy long enough for newer snapshots
	// to coalesce behind it.
	st.failPuts = 1
	p := newPersister(st, 5, 10*time.Millisecond)

	p.schedule("b1", snap(1))
	p.schedule("b1", snap(1, 2))
	p.schedule("b1", snap(1, 2, 3))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.flush(ctx, "b1"))
	assert.Equal(t, snap(1, 2, 3), st.saved("b1"))
}

func TestPersister_RetriesTransientFailure(t *testing.T) {
	st := newMemStore()
	st.addBoard("b1", nil)
	st.failPuts = 2
	p := newPersister(st, 5, time.Millisecond)

	p.schedule("b1", snap(1))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.flush(ctx, "b1"))
	assert.Equal(t, snap(1), st.saved("b1"))
	assert.GreaterOrEqual(t, st.putCount(), 3)
}

func TestPersister_GivesUpAfterMaxAttempts(t *testing.T) {
	st := newMemStore()
	st.addBoard("b1", snap(9))
	st.failPuts = 10
	p := newPersister(st, 2, time.Millisecond)

	p.schedule("b1", snap(1))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.flush(ctx, "b1"))
	// The snapshot was dropped after exhausting retries.
	assert.Equal(t, snap(9), st.saved("b1"))
	assert.Equal(t, 2, st.putCount())
}

func TestPersister_FlushIdleBoardReturnsImmediately(t *testing.T) {
	p := newPersister(newMemStore(), 3, time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NoError(t, p.flush(ctx, "never-written"))
}

func TestPersister_FlushHonorsContext(t *testing.T) {
	st := newMemStore()
	st.addBoard("b1", nil)
	st.failPuts = 100
	p := newPersister(st, 100, 50*time.Millisecond)

	p.schedule("b1", snap(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.flush(ctx, "b1"), context.DeadlineExceeded)
}
