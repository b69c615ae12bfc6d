package monitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitEvent(t *testing.T, ch <-chan DropEvent) DropEvent {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "channel closed")
		return evt
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for drop event")
	}
	return DropEvent{}
}

func TestDropFolder_ReportsSettledFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "drop")
	d, err := NewDropFolder(dir, 50*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	events := d.Events()

	path := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o600))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("def")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	evt := waitEvent(t, events)
	assert.Equal(t, path, evt.Path)
	assert.Equal(t, int64(6), evt.Size)

	select {
	case extra := <-events:
		t.Fatalf("unexpected second event %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestDropFolder_IgnoresHiddenAndDirs(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDropFolder(dir, 30*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	events := d.Events()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".partial"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.pdf"), []byte("x"), 0o600))

	evt := waitEvent(t, events)
	assert.Equal(t, "doc.pdf", filepath.Base(evt.Path))
}

func TestDropFolder_CloseClosesChannel(t *testing.T) {
	d, err := NewDropFolder(t.TempDir(), 0)
	require.NoError(t, err)
	events := d.Events()

	require.NoError(t, d.Close())
	assert.NoError(t, d.Close())

	_, ok := <-events
	assert.False(t, ok)
}

func TestNewDropFolder_EmptyPath(t *testing.T) {
	_, err := NewDropFolder("  ", 0)
	assert.Error(t, err)
}
