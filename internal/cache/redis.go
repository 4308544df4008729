// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the historian drains.
const DefaultQueueName = "board_game_session_events"

// Directions of a recorded event.
const (
	Inbound  = "in"
	Outbound = "out"
)

// SessionEventRecord is one frame sent or received by a client session.
type SessionEventRecord struct {
	SessionID  uuid.UUID       `json:"session_id"`
	EventIndex int             `json:"event_index"`
	RoomID     int64           `json:"room_id"`
	UserID     int64           `json:"user_id"`
	Game       string          `json:"game"`
	Direction  string          `json:"direction"`
	EventType  string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  int64           `json:"timestamp"`
}

// ConnectRedis opens a client and pings it.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Recorder pushes session events onto a Redis list.
type Recorder struct {
	rdb   *redis.Client
	queue string
}

func NewRecorder(rdb *redis.Client, queue string) *Recorder {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Recorder{rdb: rdb, queue: queue}
}

// Record serializes rec and RPushes it to the queue.
func (r *Recorder) Record(ctx context.Context, rec SessionEventRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal SessionEventRecord: %w", err)
	}
	if err := r.rdb.RPush(ctx, r.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", r.queue, err)
	}
	return nil
}

// Queue returns the list name.
func (r *Recorder) Queue() string {
	return r.queue
}

// Consumer pops session events from the queue.
type Consumer struct {
	rdb   *redis.Client
	queue string
}

func NewConsumer(rdb *redis.Client, queue string) *Consumer {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Consumer{rdb: rdb, queue: queue}
}

// Pop blocks up to timeout for the next record. ok is false when the wait
// timed out.
func (c *Consumer) Pop(ctx context.Context, timeout time.Duration) (rec SessionEventRecord, ok bool, err error) {
	res, err := c.rdb.BLPop(ctx, timeout, c.queue).Result()
	if errors.Is(err, redis.Nil) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("BLPop %s: %w", c.queue, err)
	}
	// res[0] is the list name, res[1] the payload
	if len(res) < 2 {
		return rec, false, nil
	}
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		return rec, false, fmt.Errorf("invalid session event record: %w", err)
	}
	return rec, true, nil
}
