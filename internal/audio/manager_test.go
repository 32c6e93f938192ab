package audio

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastui/internal/config"
	"github.com/jmylchreest/toastui/internal/model"
	"github.com/jmylchreest/toastui/internal/toast"
)

type fakeSink struct {
	mu          sync.Mutex
	played      []string
	preloaded   []string
	invalidated chan string
	volume      float64
	closed      bool
}

func newFakeSink() *fakeSink {
	return &fakeSink{invalidated: make(chan string, 8)}
}

func (s *fakeSink) Play(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.played = append(s.played, path)
	return nil
}

func (s *fakeSink) Preload(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preloaded = append(s.preloaded, path)
	return nil
}

func (s *fakeSink) Invalidate(path string) { s.invalidated <- path }

func (s *fakeSink) SetVolume(v float64) {
	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()
}

func (s *fakeSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *fakeSink) Played() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.played...)
}

func writeSound(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0600))
	return path
}

func TestChime_PlaysSoundForLevel(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true
	cfg.Audio.Volume = 50
	cfg.Audio.Sounds.Error = writeSound(t, dir, "error.wav")

	sink := newFakeSink()
	c := NewChimeWithSink(cfg, sink, nil)

	c.Added(toast.Ref{ID: "a", Content: model.Content{Level: model.LevelError}})
	c.Added(toast.Ref{ID: "b", Content: model.Content{Level: model.LevelInfo}})

	assert.Equal(t, []string{cfg.Audio.Sounds.Error}, sink.Played())
	assert.InDelta(t, 0.5, sink.volume, 1e-9)
}

func TestChime_DisabledIsSilent(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Audio.Sounds.Info = writeSound(t, t.TempDir(), "info.wav")

	sink := newFakeSink()
	c := NewChimeWithSink(cfg, sink, nil)
	c.Added(toast.Ref{Content: model.Content{Level: model.LevelInfo}})

	assert.Empty(t, sink.Played())
	assert.Equal(t, "", c.SoundFor(model.LevelInfo))
}

func TestChime_PlayFile(t *testing.T) {
	cfg := config.DefaultConfig()
	sink := newFakeSink()
	c := NewChimeWithSink(cfg, sink, nil)

	c.PlayFile("/tmp/hint.wav")
	assert.Empty(t, sink.Played(), "sounds disabled")

	cfg.Audio.Enabled = true
	c.UpdateConfig(cfg)
	c.PlayFile("")
	c.PlayFile("/tmp/hint.wav")
	assert.Equal(t, []string{"/tmp/hint.wav"}, sink.Played())
}

func TestChime_SkipsMissingFiles(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true
	cfg.Audio.Sounds.Warning = filepath.Join(t.TempDir(), "missing.ogg")

	c := NewChimeWithSink(cfg, newFakeSink(), nil)
	assert.Equal(t, "", c.SoundFor(model.LevelWarning))
}

func TestChime_UpdateConfig(t *testing.T) {
	dir := t.TempDir()
	sink := newFakeSink()
	c := NewChimeWithSink(config.DefaultConfig(), sink, nil)

	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true
	cfg.Audio.Sounds.Success = writeSound(t, dir, "ok.wav")
	c.UpdateConfig(cfg)

	c.Added(toast.Ref{Content: model.Content{Level: model.LevelSuccess}})
	assert.Equal(t, []string{cfg.Audio.Sounds.Success}, sink.Played())
}

func TestChime_AsQueueObserver(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true
	cfg.Audio.Sounds.Info = writeSound(t, t.TempDir(), "info.wav")

	sink := newFakeSink()
	c := NewChimeWithSink(cfg, sink, nil)
	q := toast.New(toast.Options{Duration: toast.NoAutoDismiss, Observer: c})
	defer q.Destroy()

	ref := q.Add(model.Content{Title: "hello"}, toast.AddOptions{})
	q.Close(ref.ID)
	q.Clear()

	assert.Len(t, sink.Played(), 1)
}

func TestChime_StartPreloadsAndWatches(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true
	cfg.Audio.Sounds.Info = writeSound(t, dir, "info.wav")

	sink := newFakeSink()
	c := NewChimeWithSink(cfg, sink, nil)
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	assert.Equal(t, []string{cfg.Audio.Sounds.Info}, sink.preloaded)

	// Unrelated files in the same directory are ignored.
	writeSound(t, dir, "other.wav")
	require.NoError(t, os.WriteFile(cfg.Audio.Sounds.Info, []byte("RIFF2"), 0600))

	select {
	case got := <-sink.invalidated:
		assert.Equal(t, cfg.Audio.Sounds.Info, got)
	case <-time.After(5 * time.Second):
		t.Fatal("sound was not invalidated")
	}
}

func TestVolumeExponent(t *testing.T) {
	assert.InDelta(t, -1.0, volumeExponent(0.5), 1e-9)
	assert.InDelta(t, 0.0, volumeExponent(1), 1e-9)
	assert.Equal(t, -10.0, volumeExponent(0))
}

func TestPlayer_Errors(t *testing.T) {
	p := NewPlayer(nil)
	assert.NoError(t, p.Play(""))

	err := p.Play(writeSound(t, t.TempDir(), "note.flac"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.Error(t, p.Preload(filepath.Join(t.TempDir(), "absent.wav")))

	p.SetVolume(3)
	assert.Equal(t, 1.0, p.Volume())
	p.SetVolume(-1)
	assert.Equal(t, 0.0, p.Volume())
}
