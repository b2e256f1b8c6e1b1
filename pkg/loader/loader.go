// Package loader reads every configured source, runs the parse and
// aggregation pipeline and publishes the result as an immutable state.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/analyzer"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/logging"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/parser"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/source"
)

var (
	// ErrNotLoaded is the error of the state before the first load.
	ErrNotLoaded = errors.New("no load has completed")

	// ErrNoSources is returned when a loader has nothing to read.
	ErrNoSources = errors.New("no sources configured")
)

// SourceInfo describes what one source contributed to a snapshot.
type SourceInfo struct {
	Name           string        `json:"name"`
	Format         source.Format `json:"format"`
	Bytes          int           `json:"bytes"`
	Rows           int           `json:"rows"`
	Dropped        int           `json:"dropped"`
	Entries        int           `json:"entries"`
	MissingHeaders []string      `json:"missing_headers,omitempty"`
}

// Snapshot is the result of one successful load. It is never modified
// after publication.
type Snapshot struct {
	ID       string
	LoadedAt time.Time
	Sources  []SourceInfo

	// Entries from all sources, in source order then row order.
	Entries  []parser.LogEntry
	Sessions *analyzer.Sessions
	Stats    analyzer.Stats
}

// Session returns the summary of one session.
func (s *Snapshot) Session(id string) (*analyzer.SessionSummary, bool) {
	entries, ok := s.Sessions.Get(id)
	if !ok {
		return nil, false
	}
	return analyzer.Summarize(id, entries), true
}

// Summaries returns every session summary in session order.
func (s *Snapshot) Summaries() []*analyzer.SessionSummary {
	out := make([]*analyzer.SessionSummary, 0, s.Sessions.Len())
	for _, id := range s.Sessions.Keys() {
		entries, _ := s.Sessions.Get(id)
		out = append(out, analyzer.Summarize(id, entries))
	}
	return out
}

// State is the outcome of the latest load. Exactly one of Snapshot and
// Err is set.
type State struct {
	Generation uint64
	Snapshot   *Snapshot
	Err        error
	StartedAt  time.Time
	Duration   time.Duration
}

// Failed reports whether the load could not read its sources.
func (s *State) Failed() bool {
	return s.Err != nil
}

// Empty reports whether the load succeeded without any entries.
func (s *State) Empty() bool {
	return s.Snapshot != nil && len(s.Snapshot.Entries) == 0
}

// Hook is called after every published state.
type Hook func(ctx context.Context, st *State)

// Loader runs loads one at a time and keeps the last published state.
type Loader struct {
	sources []source.Source
	logger  *slog.Logger
	hooks   []Hook
	now     func() time.Time

	mu         sync.Mutex
	generation uint64
	state      atomic.Pointer[State]
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logging.Component(logger, "loader")
	}
}

// WithHook registers a function called after each load.
func WithHook(h Hook) Option {
	return func(l *Loader) {
		if h != nil {
			l.hooks = append(l.hooks, h)
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		l.now = now
	}
}

// New creates a loader over sources. Sources are read in order.
func New(sources []source.Source, opts ...Option) *Loader {
	l := &Loader{
		sources: sources,
		logger:  logging.Component(nil, "loader"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.state.Store(&State{Err: ErrNotLoaded})
	return l
}

// Sources returns the configured sources.
func (l *Loader) Sources() []source.Source {
	return l.sources
}

// Current returns the last published state. It never returns nil.
func (l *Loader) Current() *State {
	return l.state.Load()
}

// Load reads all sources and publishes a new state. If any source cannot
// be read the published state is a failure with no entries, and the error
// is returned. Concurrent calls are serialized.
func (l *Loader) Load(ctx context.Context) (*State, error) {
	st := l.load(ctx)

	for _, h := range l.hooks {
		h(ctx, st)
	}
	return st, st.Err
}

func (l *Loader) load(ctx context.Context) *State {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := l.now()
	l.generation++
	st := &State{Generation: l.generation, StartedAt: start}

	snap, err := l.build(ctx, start)
	st.Duration = l.now().Sub(start)
	if err != nil {
		st.Err = err
		l.logger.Warn("load failed",
			slog.Uint64("generation", st.Generation),
			slog.String("error", err.Error()),
		)
	} else {
		st.Snapshot = snap
		l.logger.Info("load complete",
			slog.Uint64("generation", st.Generation),
			slog.String("snapshot", snap.ID),
			slog.Int("sources", len(snap.Sources)),
			slog.Int("entries", len(snap.Entries)),
			slog.Int("sessions", snap.Sessions.Len()),
			slog.Duration("duration", st.Duration),
		)
	}

	l.state.Store(st)
	recordMetrics(st)
	return st
}

// build reads every source before parsing anything, so a failed read
// leaves no partial result.
func (l *Loader) build(ctx context.Context, start time.Time) (*Snapshot, error) {
	if len(l.sources) == 0 {
		return nil, ErrNoSources
	}

	contents := make([][]byte, len(l.sources))
	for i, src := range l.sources {
		data, err := src.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", src.Name(), err)
		}
		l.logger.Debug("source read", slog.String("source", src.Name()), slog.Int("bytes", len(data)))
		contents[i] = data
	}

	snap := &Snapshot{
		ID:       uuid.NewString(),
		LoadedAt: start,
		Sources:  make([]SourceInfo, 0, len(l.sources)),
		Entries:  []parser.LogEntry{},
	}

	for i, src := range l.sources {
		result := Decode(contents[i], src.Format())
		snap.Entries = append(snap.Entries, result.Entries...)
		snap.Sources = append(snap.Sources, SourceInfo{
			Name:           src.Name(),
			Format:         src.Format(),
			Bytes:          len(contents[i]),
			Rows:           result.Rows,
			Dropped:        result.Dropped,
			Entries:        len(result.Entries),
			MissingHeaders: result.MissingHeaders,
		})
	}

	snap.Sessions = analyzer.GroupBySession(snap.Entries)
	snap.Stats = analyzer.ComputeStats(snap.Entries)

	return snap, nil
}
