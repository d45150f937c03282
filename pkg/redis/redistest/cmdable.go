// Package redistest provides an in-memory command set for tests that build a
// redis.Client without a server.
package redistest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cmdable stores keys in a map and answers the commands the client uses.
type Cmdable struct {
	mu     sync.Mutex
	Data   map[string]string
	SetErr error
	GetErr error
}

func NewCmdable() *Cmdable {
	return &Cmdable{Data: make(map[string]string)}
}

func (m *Cmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *Cmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	if m.SetErr != nil {
		return redis.NewStatusResult("", m.SetErr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = toString(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *Cmdable) Get(_ context.Context, key string) *redis.StringCmd {
	if m.GetErr != nil {
		return redis.NewStringResult("", m.GetErr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *Cmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.Data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// Value returns the stored string for key.
func (m *Cmdable) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Data[key]
	return v, ok
}

func toString(value any) string {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
