// internal/auth/credentials.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Keys under which the login flow stores credentials.
const (
	KeyAccessToken = "accessToken"
	KeyUserID      = "userID"
)

var (
	ErrMissingCredentials = errors.New("missing access token or user id")
	ErrTokenExpired       = errors.New("access token expired")
)

// Credentials authenticate the socket and REST calls.
type Credentials struct {
	Token  string
	UserID int64
}

// KeyValue is a read-only key/value store holding credentials.
// Get returns "" with a nil error when the key is absent.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
}

// Load reads the token and user id from kv. A user id missing from kv is
// taken from the token's claims when possible.
func Load(ctx context.Context, kv KeyValue) (Credentials, error) {
	token, err := kv.Get(ctx, KeyAccessToken)
	if err != nil {
		return Credentials{}, fmt.Errorf("load %s: %w", KeyAccessToken, err)
	}
	if token == "" {
		return Credentials{}, ErrMissingCredentials
	}
	if err := CheckExpiry(token); err != nil {
		return Credentials{}, err
	}

	raw, err := kv.Get(ctx, KeyUserID)
	if err != nil {
		return Credentials{}, fmt.Errorf("load %s: %w", KeyUserID, err)
	}
	var userID int64
	if raw != "" {
		userID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Credentials{}, fmt.Errorf("parse user id %q: %w", raw, ErrMissingCredentials)
		}
	} else if claims, err := ParseClaims(token); err == nil {
		userID = claims.UserID
	}
	if userID <= 0 {
		return Credentials{}, ErrMissingCredentials
	}
	return Credentials{Token: token, UserID: userID}, nil
}

// EnvStore reads credentials from environment variables, e.g. ACCESS_TOKEN and USER_ID.
type EnvStore struct {
	Names map[string]string
}

func NewEnvStore() *EnvStore {
	return &EnvStore{Names: map[string]string{
		KeyAccessToken: "ACCESS_TOKEN",
		KeyUserID:      "USER_ID",
	}}
}

func (e *EnvStore) Get(_ context.Context, key string) (string, error) {
	name, ok := e.Names[key]
	if !ok {
		return "", nil
	}
	return os.Getenv(name), nil
}

// MemoryStore keeps credentials in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

// RedisStore reads credentials shared by another process on the same device.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}
