package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyTTL guards against stale counts if an instance dies without
// cleaning up; live rooms refresh the key on every attach/detach.
const keyTTL = 60 * time.Second

// Update 상태 변경 이벤트 페이로드
type Update struct {
	WhiteboardID string `json:"whiteboardId"`
	Count        int    `json:"count"`
	Timestamp    int64  `json:"timestamp"`
}

// Mirror publishes per-room presence counts to Redis: a TTL'd key per
// room for point reads plus a pub/sub channel for watchers. This is an
// observability mirror for multi-instance setups, not the source of
// truth; the hub's in-memory count is authoritative.
type Mirror struct {
	client *redis.Client
}

// NewMirror connects and pings Redis.
func NewMirror(addr, password string, db int) (*Mirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("[Presence] Connected to %s", addr)
	return &Mirror{client: client}, nil
}

func (m *Mirror) roomKey(whiteboardID string) string {
	return fmt.Sprintf("presence:board:%s", whiteboardID)
}

// SetCount records the room's head count and publishes the update.
func (m *Mirror) SetCount(ctx context.Context, whiteboardID string, count int) error {
	if err := m.client.Set(ctx, m.roomKey(whiteboardID), count, keyTTL).Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(Update{
		WhiteboardID: whiteboardID,
		Count:        count,
		Timestamp:    time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	return m.client.Publish(ctx, "presence_updates", payload).Err()
}

// Clear removes the room's key when the room is evicted.
func (m *Mirror) Clear(ctx context.Context, whiteboardID string) error {
	return m.client.Del(ctx, m.roomKey(whiteboardID)).Err()
}

// GetCount reads a room's mirrored count; 0 when absent.
func (m *Mirror) GetCount(ctx context.Context, whiteboardID string) (int, error) {
	val, err := m.client.Get(ctx, m.roomKey(whiteboardID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// Subscribe returns the pub/sub stream of presence updates.
func (m *Mirror) Subscribe(ctx context.Context) *redis.PubSub {
	return m.client.Subscribe(ctx, "presence_updates")
}

// Close releases the client.
func (m *Mirror) Close() error {
	return m.client.Close()
}
