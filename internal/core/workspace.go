// Package core ties the parsing engines to a task file on disk: it loads and
// re-parses the document, rolls recurring tasks over on a new day and applies
// editing commands.
package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"todoline/internal/clock"
	"todoline/internal/due"
	"todoline/internal/linkify"
	"todoline/internal/parser"
	"todoline/internal/rewrite"
	"todoline/internal/rollover"
	"todoline/internal/state"
	"todoline/pkg/task"
)

var (
	// ErrNoTask is returned when a command targets a line without a task.
	ErrNoTask = errors.New("no task on line")
	// ErrStale is returned when the task on a line no longer matches the
	// hash the caller saw, e.g. after another program inserted lines.
	ErrStale = errors.New("task changed on disk")
)

// Options configures a Workspace.
type Options struct {
	TabSize         int
	DefaultPriority byte
}

// Workspace owns one task document. Readers call Current and get an immutable
// parsed snapshot; every reload swaps the whole snapshot.
type Workspace struct {
	path  string
	opts  Options
	clock clock.Clock
	store state.Store
	links *linkify.Detector
	log   *zap.Logger

	doc atomic.Pointer[parser.Document]
	// mu serializes load/edit cycles so edits never race a reparse.
	mu sync.Mutex
}

// NewWorkspace creates a workspace for the file at path. A nil clock uses the
// wall clock; a nil logger discards; a nil store keeps visits in memory.
func NewWorkspace(path string, opts Options, clk clock.Clock, store state.Store, log *zap.Logger) (*Workspace, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if store == nil {
		store = state.NewInMemoryStore()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TabSize <= 0 {
		opts.TabSize = parser.DefaultTabSize
	}
	if opts.DefaultPriority == 0 {
		opts.DefaultPriority = parser.DefaultPriority
	}
	return &Workspace{
		path:  abs,
		opts:  opts,
		clock: clk,
		store: store,
		links: linkify.New(),
		log:   log.With(zap.String("file", abs)),
	}, nil
}

// Path returns the absolute path of the task file.
func (w *Workspace) Path() string { return w.path }

// Current returns the last parsed document, or nil before the first Load.
func (w *Workspace) Current() *parser.Document {
	return w.doc.Load()
}

// Load re-reads and re-parses the file against the clock's current date and
// swaps the result in.
func (w *Workspace) Load() (*parser.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.load()
}

func (w *Workspace) load() (*parser.Document, error) {
	lines, err := parser.ReadLines(w.path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", w.path, err)
	}
	doc := parser.ParseDocument(lines, w.links.Detect(lines), parser.Options{
		TabSize:         w.opts.TabSize,
		DefaultPriority: w.opts.DefaultPriority,
		TargetDate:      w.clock.Now(),
	})
	w.doc.Store(doc)
	w.log.Debug("document parsed", zap.Int("lines", len(lines)), zap.Int("tasks", len(doc.Tasks)))
	return doc, nil
}

// RolloverResult reports what a rollover did.
type RolloverResult struct {
	LastVisit time.Time
	Decisions []rollover.Decision
	Changed   bool
}

// Rollover compares the stored last visit with now. On a new day it applies
// the recurrence reset to the file; it always records now as the last visit.
// The first visit of a document only records the timestamp.
func (w *Workspace) Rollover() (RolloverResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	visit, err := w.store.Load(w.path)
	if errors.Is(err, state.ErrNotFound) {
		w.log.Info("first visit", zap.Time("at", now))
		if _, err := w.load(); err != nil {
			return RolloverResult{}, err
		}
		return RolloverResult{}, w.saveVisit(now)
	}
	if err != nil {
		return RolloverResult{}, fmt.Errorf("load visit: %w", err)
	}

	res := RolloverResult{LastVisit: visit.LastVisit}
	doc, err := w.load()
	if err != nil {
		return res, err
	}
	if !due.SameDay(visit.LastVisit, now) {
		res.Decisions = rollover.Reset(doc.Tasks, visit.LastVisit, now)
		res.Changed, err = rewrite.ApplyFile(w.path, doc.Lines, rewrite.RolloverEdits(doc, res.Decisions))
		if err != nil {
			return res, fmt.Errorf("apply rollover: %w", err)
		}
		if res.Changed {
			if _, err := w.load(); err != nil {
				return res, err
			}
		}
		w.log.Info("rolled over",
			zap.Time("last_visit", visit.LastVisit),
			zap.Int("decisions", len(res.Decisions)),
			zap.Bool("changed", res.Changed))
	}
	return res, w.saveVisit(now)
}

func (w *Workspace) saveVisit(at time.Time) error {
	if err := w.store.Save(state.Visit{Document: w.path, LastVisit: at}); err != nil {
		return fmt.Errorf("save visit: %w", err)
	}
	return nil
}

// ToggleDone completes, reopens or advances the count of the task on line.
// A non-empty expectHash must equal the current task's Hash.
func (w *Workspace) ToggleDone(line int, expectHash string) (*task.Task, error) {
	return w.edit(line, expectHash, func(t *task.Task) []rewrite.Edit {
		return rewrite.ToggleDone(t, w.clock.Now())
	})
}

// SetDue replaces the due expression of the task on line; "" removes it.
// A non-empty expectHash must equal the current task's Hash.
func (w *Workspace) SetDue(line int, expectHash, expr string) (*task.Task, error) {
	return w.edit(line, expectHash, func(t *task.Task) []rewrite.Edit {
		return rewrite.SetDue(t, expr)
	})
}

// edit re-reads the file, checks the task on line against expectHash,
// computes edits for it, writes them and returns the re-parsed task.
func (w *Workspace) edit(line int, expectHash string, compute func(*task.Task) []rewrite.Edit) (*task.Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc, err := w.load()
	if err != nil {
		return nil, err
	}
	t := task.FindAtLine(doc.Tree, line)
	if t == nil {
		return nil, fmt.Errorf("%w %d", ErrNoTask, line)
	}
	if expectHash != "" && t.Hash() != expectHash {
		return nil, fmt.Errorf("line %d: %w", line, ErrStale)
	}
	changed, err := rewrite.ApplyFile(w.path, doc.Lines, compute(t))
	if err != nil {
		return nil, fmt.Errorf("edit line %d: %w", line, err)
	}
	if !changed {
		return t, nil
	}
	if doc, err = w.load(); err != nil {
		return nil, err
	}
	w.log.Debug("task edited", zap.Int("line", line))
	return task.FindAtLine(doc.Tree, line), nil
}
