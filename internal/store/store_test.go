package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"retronote/internal/config"
	"retronote/pkg/notedoc"
)

func sampleDoc() *notedoc.Document {
	return notedoc.NewDocument(
		notedoc.Run{Text: "Dear diary, "},
		notedoc.Run{Text: "today", Style: notedoc.Style{Bold: true, Color: "#ff00ff"}},
		notedoc.Run{Text: "\nwas fine.", Style: notedoc.Style{Italic: true, FontSize: 18}},
	)
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, snap.Content.Len())
	require.Equal(t, "cyber-purple", snap.Theme)
	require.False(t, snap.FocusMode)

	doc := sampleDoc()
	prefs := Preferences{FontFamily: "Courier New", FontSize: "16", Color: "#e0e0ff"}
	require.NoError(t, s.SaveContent(ctx, doc))
	require.NoError(t, s.SavePreferences(ctx, prefs))
	require.NoError(t, s.SaveTheme(ctx, "amber-terminal"))
	require.NoError(t, s.SaveFocusMode(ctx, true))

	snap, err = s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, doc.Runs(), snap.Content.Runs())
	require.Equal(t, prefs, snap.Preferences)
	require.Equal(t, "amber-terminal", snap.Theme)
	require.True(t, snap.FocusMode)

	require.NoError(t, s.ClearContent(ctx))
	snap, err = s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "", snap.Content.Text())
	require.Equal(t, "amber-terminal", snap.Theme, "clearing content keeps the theme")
	require.Equal(t, prefs, snap.Preferences)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes", "note.rnote")
	s := NewFileStore(path, notedoc.SaveOptions{Compression: true}, "cyber-purple", nil)
	exerciseStore(t, s)

	info, err := notedoc.InspectEnvelope(path)
	require.NoError(t, err)
	require.True(t, info.Compressed)
	require.NoError(t, s.Close())
	require.ErrorIs(t, s.SaveTheme(context.Background(), "x"), ErrClosed)
}

func TestFileStoreEncrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.rnote")
	opts := notedoc.SaveOptions{Encryption: notedoc.EncryptionOptions{Enabled: true, Password: "pw"}}
	s := NewFileStore(path, opts, "cyber-purple", nil)
	require.NoError(t, s.SaveContent(context.Background(), sampleDoc()))

	_, err := notedoc.Load(path)
	require.ErrorIs(t, err, notedoc.ErrPasswordRequired)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, sampleDoc().Text(), snap.Content.Text())
}

func TestKVStoreMemoryRoundTrip(t *testing.T) {
	exerciseStore(t, NewKVStore(NewMemoryBackend(), "retro-notes:", "cyber-purple", nil))
}

func TestKVStoreNormalizesLegacyMarkup(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	require.NoError(t, b.Set(ctx, "p:content", `<font size="18">big</font> plain`))
	require.NoError(t, b.Set(ctx, "p:preferences", `{"fontFamily":"Georgia","fontSize":"22"}`))
	s := NewKVStore(b, "p:", "cyber-purple", nil)

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []notedoc.Run{
		{Text: "big", Style: notedoc.Style{FontSize: 18}},
		{Text: " plain"},
	}, snap.Content.Runs())
	require.Equal(t, Preferences{FontFamily: "Georgia", FontSize: "22"}, snap.Preferences)
}

func TestKVStoreIgnoresBrokenPreferences(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	require.NoError(t, b.Set(ctx, KeyPreferences, `{not json`))
	snap, err := NewKVStore(b, "", "cyber-purple", nil).Load(ctx)
	require.NoError(t, err)
	require.Equal(t, Preferences{}, snap.Preferences)
}

func TestOpenSelectsBackend(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Storage.Backend = config.BackendMemory
	s, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.IsType(t, &KVStore{}, s)

	cfg.Storage.Backend = config.BackendFile
	cfg.Storage.Path = filepath.Join(t.TempDir(), "n.rnote")
	s, err = Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("RETRONOTE_TEST_REDIS")
	if addr == "" {
		t.Skip("RETRONOTE_TEST_REDIS not set")
	}
	ctx := context.Background()
	b, err := DialRedis(ctx, config.Redis{Addr: addr, DB: 15})
	require.NoError(t, err)
	prefix := "retronote-test:" + t.Name() + ":"
	for _, k := range []string{KeyContent, KeyPreferences, KeyTheme, KeyFocusMode} {
		require.NoError(t, b.Del(ctx, prefix+k))
	}
	s := NewKVStore(b, prefix, "cyber-purple", nil)
	defer s.Close()
	exerciseStore(t, s)
}
