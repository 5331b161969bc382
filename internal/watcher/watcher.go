// Package watcher notifies when a task file's content changes.
package watcher

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"todoline/internal/clock"
)

// Change is emitted once per observed content change.
type Change struct {
	Path string
	At   time.Time
	// Removed is set when the file disappeared.
	Removed bool
}

// Watcher polls a file and emits a Change whenever its content hash differs
// from the previous poll.
type Watcher struct {
	Path         string
	PollInterval time.Duration

	clock clock.Clock
	log   *zap.Logger

	mu       sync.Mutex
	lastHash [sha256.Size]byte
	exists   bool
	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
	changeCh chan Change
	errorCh  chan error
}

// New creates a Watcher. A nil clock uses the wall clock; a nil logger discards.
func New(path string, pollInterval time.Duration, clk clock.Clock, log *zap.Logger) *Watcher {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		Path:         path,
		PollInterval: pollInterval,
		clock:        clk,
		log:          log,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
		changeCh:     make(chan Change, 10),
		errorCh:      make(chan error, 2),
	}
}

// Start snapshots the current content and begins polling in a background goroutine.
func (w *Watcher) Start() error {
	if _, err := w.Poll(); err != nil {
		return err
	}
	ticker := w.clock.NewTicker(w.PollInterval)
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	go func() {
		defer close(w.doneCh)
		defer ticker.Stop()
		for {
			select {
			case <-w.stopCh:
				return
			case <-ticker.C():
				changed, err := w.Poll()
				if err != nil {
					w.log.Warn("poll failed", zap.String("path", w.Path), zap.Error(err))
					select {
					case w.errorCh <- err:
					default:
					}
					continue
				}
				if changed {
					w.emit(Change{Path: w.Path, At: w.clock.Now(), Removed: !w.Exists()})
				}
			}
		}
	}()
	return nil
}

// Poll hashes the file once and reports whether it changed since the last poll.
func (w *Watcher) Poll() (bool, error) {
	data, err := os.ReadFile(w.Path)
	missing := errors.Is(err, os.ErrNotExist)
	if err != nil && !missing {
		return false, fmt.Errorf("read %s: %w", w.Path, err)
	}
	sum := sha256.Sum256(data)

	w.mu.Lock()
	defer w.mu.Unlock()
	changed := w.exists == missing || (!missing && sum != w.lastHash)
	w.exists = !missing
	w.lastHash = sum
	return changed, nil
}

// Exists reports whether the file was present at the last poll.
func (w *Watcher) Exists() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exists
}

func (w *Watcher) emit(c Change) {
	w.log.Debug("file changed", zap.String("path", c.Path), zap.Bool("removed", c.Removed))
	select {
	case w.changeCh <- c:
	case <-w.stopCh:
	}
}

// Stop stops the polling goroutine and waits for it to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.doneCh
	}
}

// Changes returns a channel of content changes.
func (w *Watcher) Changes() <-chan Change {
	return w.changeCh
}

// Errors returns a channel of errors encountered during polling.
func (w *Watcher) Errors() <-chan error {
	return w.errorCh
}
