// Package watch notifies the owner of a log file that the file may
// have changed on disk. It does not decide what changed: the owner runs
// a change check against the index and reacts to its result.
package watch

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/lli/internal/config"
	"github.com/standardbeagle/lli/internal/debug"
	lerrors "github.com/standardbeagle/lli/internal/errors"
)

// Monitor watches one file through fsnotify and a polling fallback.
// Events are debounced: a burst of writes produces one notification
// after the debounce window closes. The poll ticker covers filesystems
// where fsnotify delivers nothing (network mounts).
type Monitor struct {
	path     string
	baseName string

	watcher      *fsnotify.Watcher
	debounce     time.Duration
	pollInterval time.Duration
	onChange     func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor creates a monitor for path. onChange is called on the
// monitor's goroutine whenever the file may have changed.
func NewMonitor(path string, cfg config.Watch, onChange func()) (*Monitor, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, lerrors.NewWatchError(path, "resolve", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, lerrors.NewWatchError(absPath, "create", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Monitor{
		path:         absPath,
		baseName:     filepath.Base(absPath),
		watcher:      watcher,
		debounce:     time.Duration(cfg.DebounceMs) * time.Millisecond,
		pollInterval: time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		onChange:     onChange,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Start begins delivering notifications. The watch is placed on the
// parent directory so that rotation (remove + recreate) is seen too.
func (m *Monitor) Start() error {
	dir := filepath.Dir(m.path)
	if err := m.watcher.Add(dir); err != nil {
		return lerrors.NewWatchError(dir, "add", err)
	}

	debug.LogWatch("monitoring %s (debounce %v, poll %v)", m.path, m.debounce, m.pollInterval)

	m.wg.Add(1)
	go m.run()

	return nil
}

// Stop shuts the monitor down and waits for its goroutine.
func (m *Monitor) Stop() {
	m.cancel()
	if err := m.watcher.Close(); err != nil {
		log.Printf("Warning: %v", lerrors.NewWatchError(m.path, "close", err))
	}
	m.wg.Wait()
}

func (m *Monitor) run() {
	defer m.wg.Done()

	// The debounce timer is armed by events and fires once per burst.
	timer := time.NewTimer(m.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	var poll *time.Ticker
	var pollC <-chan time.Time
	if m.pollInterval > 0 {
		poll = time.NewTicker(m.pollInterval)
		pollC = poll.C
		defer poll.Stop()
	}

	for {
		select {
		case <-m.ctx.Done():
			if armed && !timer.Stop() {
				<-timer.C
			}
			return

		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != m.baseName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			debug.LogWatch("event %v for %s", event.Op, event.Name)

			if armed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(m.debounce)
			armed = true

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: %v", lerrors.NewWatchError(m.path, "events", err))

		case <-timer.C:
			armed = false
			debug.LogWatch("debounce elapsed, notifying")
			m.notify()

		case <-pollC:
			if armed {
				// An fsnotify burst is in flight; let the debounce
				// window deliver it.
				continue
			}
			m.notify()
		}
	}
}

func (m *Monitor) notify() {
	if m.onChange != nil {
		m.onChange()
	}
}
