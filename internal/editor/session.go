package editor

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/hylla/rota/internal/domain"
)

var (
	ErrUnknownCell      = errors.New("unknown cell")
	ErrNotEditable      = errors.New("cell is not editable")
	ErrDragInProgress   = errors.New("drag already in progress")
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Document is the full editable state sent on every save.
type Document struct {
	Year        int                `json:"year"`
	Month       time.Month         `json:"month"`
	Assignments domain.Assignments `json:"assignments"`
}

// Persister issues save and commit requests and reports the HTTP-style status.
type Persister interface {
	Save(ctx context.Context, doc Document) (int, error)
	Commit(ctx context.Context) (int, error)
}

// Logger is the subset of the runtime logger the session writes to.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
}

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Config holds the session timings.
type Config struct {
	AutosaveDelay      time.Duration
	ToastDuration      time.Duration
	CommitConfirmDelay time.Duration
	RequestTimeout     time.Duration
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		AutosaveDelay:      2000 * time.Millisecond,
		ToastDuration:      1000 * time.Millisecond,
		CommitConfirmDelay: 1000 * time.Millisecond,
		RequestTimeout:     10 * time.Second,
	}
}

// normalize fills zero timings with defaults.
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.AutosaveDelay <= 0 {
		c.AutosaveDelay = def.AutosaveDelay
	}
	if c.ToastDuration <= 0 {
		c.ToastDuration = def.ToastDuration
	}
	if c.CommitConfirmDelay <= 0 {
		c.CommitConfirmDelay = def.CommitConfirmDelay
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	return c
}

// Option configures a Session.
type Option func(*Session)

// WithConfig sets the session timings.
func WithConfig(cfg Config) Option {
	return func(s *Session) {
		s.cfg = cfg.normalize()
	}
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger for request failures.
func WithLogger(logger Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRunner replaces how persistence calls are dispatched. The default starts a goroutine.
func WithRunner(run func(func())) Option {
	return func(s *Session) {
		if run != nil {
			s.spawn = run
		}
	}
}

// dragSession is the single in-flight drag.
type dragSession struct {
	source  CellID
	payload Input
}

// focusState is the single focused input.
type focusState struct {
	cell    CellID
	initial string
}

// State is a read-only snapshot for renderers.
type State struct {
	Board       Board
	Toast       Toast
	Dragging    bool
	DragSource  CellID
	Focused     bool
	FocusCell   CellID
	Suggestions map[string][]string
	LastError   error
}

// Session owns every piece of editor state for one open schedule.
// All handlers take the triggering cell explicitly.
type Session struct {
	mu        sync.Mutex
	cfg       Config
	clock     Clock
	tasks     *Tasks
	persister Persister
	logger    Logger
	spawn     func(func())
	inflight  sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closed    bool
	unsaved   bool
	changes   chan struct{}

	board       Board
	suggestions map[string][]string
	toast       Toast
	drag        *dragSession
	focus       *focusState
	hoverSource *CellID
	lastErr     error
}

// NewSession constructs a session over a layout.
func NewSession(layout domain.Layout, persister Persister, opts ...Option) *Session {
	s := &Session{
		cfg:       DefaultConfig(),
		clock:     SystemClock(),
		persister: persister,
		logger:    nopLogger{},
		spawn:     func(f func()) { go f() },
		changes:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.tasks = NewTasks(s.clock)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.loadLocked(layout)
	return s
}

// Load replaces the board with a fresh layout, dropping drag, focus, and hover state.
func (s *Session) Load(layout domain.Layout) {
	s.mu.Lock()
	s.loadLocked(layout)
	s.mu.Unlock()
	s.notify()
}

// loadLocked installs a layout; the caller holds s.mu or owns s exclusively.
func (s *Session) loadLocked(layout domain.Layout) {
	s.board = NewBoard(layout)
	s.suggestions = make(map[string][]string, len(layout.Suggestions))
	for duty, names := range layout.Suggestions {
		s.suggestions[duty] = append([]string(nil), names...)
	}
	s.drag = nil
	s.focus = nil
	s.hoverSource = nil
}

// Changes delivers a signal whenever state changes. Signals coalesce.
func (s *Session) Changes() <-chan struct{} {
	return s.changes
}

// notify signals a state change without blocking.
func (s *Session) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Board:       s.board.Clone(),
		Toast:       s.toast,
		Suggestions: maps.Clone(s.suggestions),
		LastError:   s.lastErr,
	}
	if s.drag != nil {
		st.Dragging = true
		st.DragSource = s.drag.source
	}
	if s.focus != nil {
		st.Focused = true
		st.FocusCell = s.focus.cell
	}
	return st
}

// Document returns the full document a save would carry.
func (s *Session) Document() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documentLocked()
}

// documentLocked snapshots the board; the caller holds s.mu.
func (s *Session) documentLocked() Document {
	return Document{Year: s.board.Year, Month: s.board.Month, Assignments: s.board.Assignments()}
}

// LastError returns the most recent persistence failure, cleared by the next success.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close saves any pending edit, cancels deferred tasks, and waits for in-flight requests.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.tasks.Cancel(TaskAutosave)
	pendingSave := s.unsaved
	s.unsaved = false
	doc := s.documentLocked()
	s.mu.Unlock()

	if pendingSave {
		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RequestTimeout)
		s.save(ctx, doc, false)
		cancel()
	}

	s.tasks.Stop()
	s.inflight.Wait()
	s.cancel()
}

// run dispatches fn with a request-scoped context unless the session is closed.
func (s *Session) run(fn func(ctx context.Context)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	s.dispatch(fn)
}

// dispatch spawns fn; the caller has already counted it in s.inflight.
func (s *Session) dispatch(fn func(ctx context.Context)) {
	s.spawn(func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RequestTimeout)
		defer cancel()
		fn(ctx)
	})
}

// fail records a failed request. Failures never reach the toast.
func (s *Session) fail(err error) {
	s.logger.Warn("persistence request failed", "err", err)
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.notify()
}

// cellLocked resolves id; the caller holds s.mu.
func (s *Session) cellLocked(id CellID) (*Cell, error) {
	cell, ok := s.board.Cell(id)
	if !ok {
		return nil, ErrUnknownCell
	}
	return cell, nil
}
