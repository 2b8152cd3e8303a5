package store

import (
	"context"
	"errors"
	"io/fs"
	"sync"

	"go.uber.org/zap"

	"retronote/pkg/notedoc"
)

// FileStore keeps everything in one note file. Each save rewrites the file
// through a temporary sibling.
type FileStore struct {
	mu           sync.Mutex
	path         string
	opts         notedoc.SaveOptions
	defaultTheme string
	log          *zap.Logger
	closed       bool
}

func NewFileStore(path string, opts notedoc.SaveOptions, defaultTheme string, log *zap.Logger) *FileStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileStore{path: path, opts: opts, defaultTheme: defaultTheme, log: log}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	note, err := s.read()
	if err != nil {
		return nil, err
	}
	prefs, err := ParsePreferences(note.Preferences)
	if err != nil {
		s.log.Warn("ignoring unreadable preferences", zap.String("path", s.path), zap.Error(err))
		prefs = Preferences{}
	}
	theme := note.Theme
	if theme == "" {
		theme = s.defaultTheme
	}
	return &Snapshot{Content: note.Content, Preferences: prefs, Theme: theme, FocusMode: note.FocusMode}, nil
}

func (s *FileStore) SaveContent(ctx context.Context, doc *notedoc.Document) error {
	return s.update(func(n *notedoc.Note) error {
		n.Content = doc.Clone()
		return nil
	})
}

func (s *FileStore) SavePreferences(ctx context.Context, p Preferences) error {
	return s.update(func(n *notedoc.Note) error {
		b, err := p.Marshal()
		if err != nil {
			return err
		}
		n.Preferences = b
		return nil
	})
}

func (s *FileStore) SaveTheme(ctx context.Context, theme string) error {
	return s.update(func(n *notedoc.Note) error {
		n.Theme = theme
		return nil
	})
}

func (s *FileStore) SaveFocusMode(ctx context.Context, on bool) error {
	return s.update(func(n *notedoc.Note) error {
		n.FocusMode = on
		return nil
	})
}

func (s *FileStore) ClearContent(ctx context.Context) error {
	return s.update(func(n *notedoc.Note) error {
		n.Content = notedoc.NewDocument()
		return nil
	})
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FileStore) update(mut func(*notedoc.Note) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	note, err := s.read()
	if err != nil {
		return err
	}
	if err := mut(note); err != nil {
		return err
	}
	if err := notedoc.SaveWithOptions(s.path, note, s.opts); err != nil {
		s.log.Error("save note", zap.String("path", s.path), zap.Error(err))
		return err
	}
	s.log.Debug("saved note", zap.String("path", s.path), zap.Int("chars", note.Content.Len()))
	return nil
}

func (s *FileStore) read() (*notedoc.Note, error) {
	if s.closed {
		return nil, ErrClosed
	}
	note, err := notedoc.LoadWithOptions(s.path, notedoc.LoadOptions{Password: s.opts.Encryption.Password})
	if errors.Is(err, fs.ErrNotExist) {
		return notedoc.NewNote(), nil
	}
	if err != nil {
		return nil, err
	}
	if note.Content == nil {
		note.Content = notedoc.NewDocument()
	}
	return note, nil
}
