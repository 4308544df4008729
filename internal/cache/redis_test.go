package cache

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a reachable Redis; they skip otherwise.
func testRedisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func TestRecorderPushesRecord(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb, err := ConnectRedis(ctx, testRedisAddr(), 0)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer rdb.Close()

	queue := "test_session_events_" + uuid.NewString()
	defer rdb.Del(context.Background(), queue)

	rec := SessionEventRecord{
		SessionID:  uuid.New(),
		EventIndex: 1,
		RoomID:     5,
		UserID:     7,
		Game:       "frog",
		Direction:  Inbound,
		EventType:  "DISCARD",
		Payload:    json.RawMessage(`{"users":[]}`),
		Timestamp:  time.Now().UnixMilli(),
	}
	r := NewRecorder(rdb, queue)
	require.NoError(t, r.Record(ctx, rec))

	got, ok, err := NewConsumer(rdb, queue).Pop(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.SessionID, got.SessionID)
	assert.Equal(t, "DISCARD", got.EventType)
	assert.JSONEq(t, `{"users":[]}`, string(got.Payload))
}

func TestNewRecorderDefaultQueue(t *testing.T) {
	assert.Equal(t, DefaultQueueName, NewRecorder(nil, "").Queue())
}

func TestConsumerTimesOutOnEmptyQueue(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb, err := ConnectRedis(ctx, testRedisAddr(), 0)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer rdb.Close()

	_, ok, err := NewConsumer(rdb, "test_empty_"+uuid.NewString()).Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConsumerRejectsGarbage(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb, err := ConnectRedis(ctx, testRedisAddr(), 0)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer rdb.Close()

	queue := "test_garbage_" + uuid.NewString()
	defer rdb.Del(context.Background(), queue)
	require.NoError(t, rdb.RPush(ctx, queue, "not json").Err())

	_, ok, err := NewConsumer(rdb, queue).Pop(ctx, time.Second)
	assert.Error(t, err)
	assert.False(t, ok)
}
