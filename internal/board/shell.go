package board

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"busboard/internal/clock"
	"busboard/internal/metrics"
	"busboard/internal/models"
)

// DefaultTitle is the heading shown above the clock.
const DefaultTitle = "Bus Schedule"

// State is the position of the shell in its refresh cycle.
type State int

const (
	Idle State = iota
	Loading
	Loaded
	FetchFailed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case FetchFailed:
		return "fetch_failed"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Fetcher supplies one snapshot of the stop per call.
type Fetcher interface {
	FetchStopSchedule(ctx context.Context) (*models.Stop, error)
	Name() string
}

// Screen is everything needed to draw the board once.
type Screen struct {
	Title       string     `json:"title"`
	Clock       string     `json:"clock"`
	State       State      `json:"state"`
	Placeholder bool       `json:"placeholder"`
	Stale       bool       `json:"stale"`
	FetchedAt   *time.Time `json:"fetchedAt,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
	Stop        StopBlock  `json:"stop"`
}

// Options configures a Shell. Source and Clock are required.
type Options struct {
	Source       Fetcher
	Clock        clock.Clock
	Location     *time.Location
	PrimaryRoute string
	Title        string
	// Placeholder is displayed until the first successful fetch.
	Placeholder *models.Stop
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Shell owns the displayed snapshot and moves it through
// Idle -> Loading -> Loaded or FetchFailed. Snapshots are replaced whole and
// never mutated, so rendering works on a consistent copy.
type Shell struct {
	source       Fetcher
	clock        clock.Clock
	location     *time.Location
	primaryRoute string
	title        string
	metrics      *metrics.Metrics
	logger       *slog.Logger

	mu          sync.RWMutex
	state       State
	snapshot    *models.Stop
	placeholder *models.Stop
	fetchedAt   time.Time
	lastErr     error
}

func NewShell(opts Options) *Shell {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}

	return &Shell{
		source:       opts.Source,
		clock:        opts.Clock,
		location:     opts.Location,
		primaryRoute: opts.PrimaryRoute,
		title:        title,
		metrics:      opts.Metrics,
		logger:       logger.With(slog.String("component", "board_shell")),
		placeholder:  opts.Placeholder,
	}
}

// Mount performs the first fetch if the shell has never fetched. Later calls
// do nothing.
func (s *Shell) Mount(ctx context.Context) error {
	s.mu.RLock()
	idle := s.state == Idle
	s.mu.RUnlock()
	if !idle {
		return nil
	}
	return s.Refresh(ctx)
}

// Refresh fetches a new snapshot. On failure the previously displayed data
// stays on screen and the error is returned to the caller.
func (s *Shell) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.state = Loading
	s.mu.Unlock()

	start := time.Now()
	stop, err := s.source.FetchStopSchedule(ctx)
	elapsed := time.Since(start)
	now := s.clock.Now()

	s.mu.Lock()
	if err != nil {
		s.state = FetchFailed
		s.lastErr = err
	} else {
		s.state = Loaded
		s.snapshot = stop
		s.fetchedAt = now
		s.lastErr = nil
	}
	s.mu.Unlock()

	s.metrics.ObserveFetch(s.source.Name(), elapsed, err, now, len(stopRoutes(stop)), stop.TripCount())

	if err != nil {
		s.logger.Warn("schedule fetch failed",
			slog.String("source", s.source.Name()),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", elapsed))
		return err
	}

	s.logger.Info("schedule refreshed",
		slog.String("source", s.source.Name()),
		slog.String("stop", stop.Code),
		slog.Int("routes", len(stop.Routes)),
		slog.Int("trips", stop.TripCount()),
		slog.Duration("elapsed", elapsed))
	return nil
}

// State returns the current refresh state.
func (s *Shell) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns the stop currently displayed and whether it came from a
// successful fetch rather than the placeholder. It may be nil.
func (s *Shell) Snapshot() (*models.Stop, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot != nil {
		return s.snapshot, true
	}
	return s.placeholder, false
}

// SnapshotAge reports how long ago the displayed snapshot was fetched.
func (s *Shell) SnapshotAge() (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return 0, false
	}
	return s.clock.Now().Sub(s.fetchedAt), true
}

// Screen renders the board as of the clock's current time.
func (s *Shell) Screen() Screen {
	s.mu.RLock()
	state := s.state
	stop := s.snapshot
	fetchedAt := s.fetchedAt
	lastErr := s.lastErr
	placeholder := false
	if stop == nil {
		stop = s.placeholder
		placeholder = true
	}
	s.mu.RUnlock()

	now := clock.WallTimeOf(s.clock.Now(), s.location)

	screen := Screen{
		Title:       s.title,
		Clock:       now.String(),
		State:       state,
		Placeholder: placeholder,
		Stale:       state == FetchFailed,
		Stop:        RenderStop(stop, now, s.primaryRoute),
	}
	if !placeholder {
		t := fetchedAt
		screen.FetchedAt = &t
	}
	if lastErr != nil {
		screen.LastError = lastErr.Error()
	}
	return screen
}

func stopRoutes(stop *models.Stop) []models.Route {
	if stop == nil {
		return nil
	}
	return stop.Routes
}
