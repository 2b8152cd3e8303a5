// Package store persists the note, its preferences, the theme and the focus
// mode flag.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"retronote/internal/config"
	"retronote/pkg/notedoc"
)

const (
	KeyContent     = "content"
	KeyPreferences = "preferences"
	KeyTheme       = "theme"
	KeyFocusMode   = "focus-mode"
)

var ErrClosed = errors.New("store: closed")

// Preferences are the toolbar defaults, stored as the JSON object
// {fontFamily, fontSize, color}.
type Preferences struct {
	FontFamily string `json:"fontFamily,omitempty"`
	FontSize   string `json:"fontSize,omitempty"`
	Color      string `json:"color,omitempty"`
}

func (p Preferences) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// ParsePreferences decodes stored preferences. Empty input yields the zero
// value.
func ParsePreferences(b []byte) (Preferences, error) {
	var p Preferences
	if len(b) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return Preferences{}, fmt.Errorf("store: preferences: %w", err)
	}
	return p, nil
}

type Snapshot struct {
	Content     *notedoc.Document
	Preferences Preferences
	Theme       string
	FocusMode   bool
}

type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	SaveContent(ctx context.Context, doc *notedoc.Document) error
	SavePreferences(ctx context.Context, p Preferences) error
	SaveTheme(ctx context.Context, theme string) error
	SaveFocusMode(ctx context.Context, on bool) error
	ClearContent(ctx context.Context) error
	Close() error
}

// Open builds the store selected by the storage section of cfg.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.Storage.Backend {
	case config.BackendFile:
		opts := notedoc.SaveOptions{Compression: cfg.Storage.Compression}
		if cfg.Storage.Encryption {
			opts.Encryption = notedoc.EncryptionOptions{Enabled: true, Password: cfg.Storage.Password}
		}
		return NewFileStore(cfg.Storage.Path, opts, cfg.Editor.DefaultTheme, log), nil
	case config.BackendRedis:
		b, err := DialRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewKVStore(b, cfg.Redis.Prefix, cfg.Editor.DefaultTheme, log), nil
	case config.BackendMemory:
		return NewKVStore(NewMemoryBackend(), cfg.Redis.Prefix, cfg.Editor.DefaultTheme, log), nil
	}
	return nil, fmt.Errorf("%w: unknown storage backend %q", config.ErrInvalidConfig, cfg.Storage.Backend)
}
