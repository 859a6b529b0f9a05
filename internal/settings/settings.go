package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ariefcatur/go-pharma-stock/internal/redisx"
	"github.com/redis/go-redis/v9"
)

var ErrInvalid = errors.New("invalid settings")

type Settings struct {
	Notifications  bool `json:"notifications"`
	LowStockAlerts bool `json:"low_stock_alerts"`
	ExpiryAlerts   bool `json:"expiry_alerts"`
	AutoReorder    bool `json:"auto_reorder"`
	ReorderLevel   int  `json:"reorder_level"`
}

func Defaults() Settings {
	return Settings{
		Notifications:  true,
		LowStockAlerts: true,
		ExpiryAlerts:   true,
		AutoReorder:    false,
		ReorderLevel:   20,
	}
}

func (s Settings) Validate() error {
	if s.ReorderLevel < 0 {
		return fmt.Errorf("%w: reorder_level must not be negative", ErrInvalid)
	}
	return nil
}

type Store interface {
	Get(ctx context.Context) (Settings, error)
	Put(ctx context.Context, s Settings) error
}

// RedisStore keeps the settings document as JSON under one key.
type RedisStore struct {
	RDB *redis.Client
}

func (r *RedisStore) Get(ctx context.Context) (Settings, error) {
	b, err := r.RDB.Get(ctx, redisx.KeySettings).Bytes()
	if errors.Is(err, redis.Nil) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, err
	}
	s := Defaults()
	if err := json.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

func (r *RedisStore) Put(ctx context.Context, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.RDB.Set(ctx, redisx.KeySettings, b, 0).Err()
}

type MemoryStore struct {
	mu  sync.RWMutex
	cur *Settings
}

func (m *MemoryStore) Get(context.Context) (Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cur == nil {
		return Defaults(), nil
	}
	return *m.cur, nil
}

func (m *MemoryStore) Put(_ context.Context, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = &s
	return nil
}
