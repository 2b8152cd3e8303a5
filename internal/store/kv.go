package store

import (
	"context"
	"errors"
	"strconv"
	"sync"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"retronote/internal/config"
	"retronote/internal/markup"
	"retronote/pkg/notedoc"
)

// Backend is a flat string key-value store.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, key string) error
	Close() error
}

// KVStore keeps each item under its own key, content as rendered markup.
type KVStore struct {
	b            Backend
	prefix       string
	defaultTheme string
	log          *zap.Logger
}

func NewKVStore(b Backend, prefix, defaultTheme string, log *zap.Logger) *KVStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &KVStore{b: b, prefix: prefix, defaultTheme: defaultTheme, log: log}
}

func (s *KVStore) key(name string) string { return s.prefix + name }

func (s *KVStore) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Content: notedoc.NewDocument(), Theme: s.defaultTheme}

	src, ok, err := s.b.Get(ctx, s.key(KeyContent))
	if err != nil {
		return nil, err
	}
	if ok {
		if snap.Content, err = markup.Parse(src); err != nil {
			return nil, err
		}
	}

	raw, ok, err := s.b.Get(ctx, s.key(KeyPreferences))
	if err != nil {
		return nil, err
	}
	if ok {
		p, err := ParsePreferences([]byte(raw))
		if err != nil {
			s.log.Warn("ignoring unreadable preferences", zap.Error(err))
		} else {
			snap.Preferences = p
		}
	}

	theme, ok, err := s.b.Get(ctx, s.key(KeyTheme))
	if err != nil {
		return nil, err
	}
	if ok && theme != "" {
		snap.Theme = theme
	}

	focus, ok, err := s.b.Get(ctx, s.key(KeyFocusMode))
	if err != nil {
		return nil, err
	}
	if ok {
		snap.FocusMode, _ = strconv.ParseBool(focus)
	}
	return snap, nil
}

func (s *KVStore) SaveContent(ctx context.Context, doc *notedoc.Document) error {
	return s.set(ctx, KeyContent, markup.Render(doc))
}

func (s *KVStore) SavePreferences(ctx context.Context, p Preferences) error {
	b, err := p.Marshal()
	if err != nil {
		return err
	}
	return s.set(ctx, KeyPreferences, string(b))
}

func (s *KVStore) SaveTheme(ctx context.Context, theme string) error {
	return s.set(ctx, KeyTheme, theme)
}

func (s *KVStore) SaveFocusMode(ctx context.Context, on bool) error {
	return s.set(ctx, KeyFocusMode, strconv.FormatBool(on))
}

func (s *KVStore) ClearContent(ctx context.Context) error {
	if err := s.b.Del(ctx, s.key(KeyContent)); err != nil {
		s.log.Error("clear content", zap.Error(err))
		return err
	}
	return nil
}

func (s *KVStore) Close() error { return s.b.Close() }

func (s *KVStore) set(ctx context.Context, name, value string) error {
	if err := s.b.Set(ctx, s.key(name), value); err != nil {
		s.log.Error("store write", zap.String("key", s.key(name)), zap.Error(err))
		return err
	}
	return nil
}

type MemoryBackend struct {
	mu     sync.Mutex
	data   map[string]string
	closed bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: map[string]string{}}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data[key] = value
	return nil
}

func (m *MemoryBackend) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.data, key)
	return nil
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

type RedisBackend struct {
	rdb *redis.Client
}

func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

// DialRedis connects and pings the configured server.
func DialRedis(ctx context.Context, cfg config.Redis) (*RedisBackend, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return NewRedisBackend(rdb), nil
}

func (r *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, key, value, 0).Err()
}

func (r *RedisBackend) Del(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

func (r *RedisBackend) Close() error { return r.rdb.Close() }
