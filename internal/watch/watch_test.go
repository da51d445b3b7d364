package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lli/internal/config"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, content, 0644))
}

func newTestMonitor(t *testing.T, path string, cfg config.Watch) (*Monitor, chan struct{}) {
	t.Helper()
	changes := make(chan struct{}, 16)
	monitor, err := NewMonitor(path, cfg, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	require.NoError(t, monitor.Start())
	t.Cleanup(monitor.Stop)
	return monitor, changes
}

func waitForChange(t *testing.T, changes chan struct{}) {
	t.Helper()
	select {
	case <-changes:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for a change notification")
	}
}

func TestMonitor_NotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	writeFile(t, path, []byte("start\n"))

	// Polling off: the notification must come from fsnotify.
	_, changes := newTestMonitor(t, path, config.Watch{DebounceMs: 50, PollIntervalMs: 0})

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = file.WriteString("appended\n")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	waitForChange(t, changes)
}

func TestMonitor_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	writeFile(t, path, []byte("start\n"))

	_, changes := newTestMonitor(t, path, config.Watch{DebounceMs: 200, PollIntervalMs: 0})

	for i := 0; i < 10; i++ {
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
		require.NoError(t, err)
		_, err = file.WriteString("burst line\n")
		require.NoError(t, err)
		require.NoError(t, file.Close())
		time.Sleep(10 * time.Millisecond)
	}

	waitForChange(t, changes)

	// The burst collapsed into few notifications, not one per write.
	time.Sleep(300 * time.Millisecond)
	extra := len(changes)
	assert.Less(t, extra, 5)
}

func TestMonitor_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	writeFile(t, path, []byte("start\n"))

	_, changes := newTestMonitor(t, path, config.Watch{DebounceMs: 50, PollIntervalMs: 0})

	writeFile(t, filepath.Join(dir, "other.log"), []byte("noise\n"))

	select {
	case <-changes:
		t.Fatal("notified for a sibling file")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestMonitor_PollingFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	writeFile(t, path, []byte("start\n"))

	_, changes := newTestMonitor(t, path, config.Watch{DebounceMs: 50, PollIntervalMs: 100})

	// No writes at all: the poll ticker still prompts a check.
	waitForChange(t, changes)
}

func TestMonitor_StopReleasesResources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	writeFile(t, path, []byte("start\n"))

	changes := make(chan struct{}, 1)
	monitor, err := NewMonitor(path, config.Watch{DebounceMs: 50, PollIntervalMs: 0}, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	require.NoError(t, monitor.Start())

	monitor.Stop()
}
