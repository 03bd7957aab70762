// Package clock abstracts wall-clock reads so the board's clock display and
// arrival projections can be driven by a fixed time in tests.
package clock

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Clock provides the current time.
// Use RealClock in production and MockClock in tests.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using actual system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock is a controllable, thread-safe Clock for tests.
type MockClock struct {
	currentTime time.Time
	mu          sync.Mutex
}

// NewMockClock creates a new MockClock set to the specified time.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

// Now returns the mock clock's current time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

// Set changes the mock clock's current time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = t
}

// Advance moves the mock clock by d. Negative durations move it backward.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}

// PinnedClock reads a fixed time from an environment variable on every call
// and falls back to system time when the variable is unset or unparsable.
// It lets a running board be pinned to a moment, e.g. to replay a fixture.
type PinnedClock struct {
	envVar   string
	location *time.Location
}

// NewPinnedClock creates a PinnedClock reading envVar. Times without a zone
// are interpreted in location.
func NewPinnedClock(envVar string, location *time.Location) *PinnedClock {
	return &PinnedClock{envVar: envVar, location: location}
}

// Now returns the pinned time, or system time if no valid pin is set.
func (p *PinnedClock) Now() time.Time {
	if t, err := p.pinned(); err == nil {
		return t
	}
	return time.Now()
}

func (p *PinnedClock) pinned() (time.Time, error) {
	if p.envVar == "" {
		return time.Time{}, errors.New("environment variable name not configured")
	}
	raw := strings.TrimSpace(os.Getenv(p.envVar))
	if raw == "" {
		return time.Time{}, errors.New("environment variable is empty: " + p.envVar)
	}
	t, err := parseTime(raw, p.location)
	if err != nil {
		slog.Warn("ignoring unparsable pinned clock value",
			slog.String("envVar", p.envVar), slog.String("value", raw))
		return time.Time{}, err
	}
	return t, nil
}

func parseTime(s string, location *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if location == nil {
		return time.Time{}, errors.New("timezone not configured")
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse time %q: expected RFC3339 or YYYY-MM-DD HH:MM[:SS]", s)
}

// WallTime is an hour and minute on a 24-hour clock face.
type WallTime struct {
	Hour   int
	Minute int
}

// WallTimeOf returns the wall-clock reading of t in location.
// A nil location leaves t's own zone untouched.
func WallTimeOf(t time.Time, location *time.Location) WallTime {
	if location != nil {
		t = t.In(location)
	}
	return WallTime{Hour: t.Hour(), Minute: t.Minute()}
}

// String renders the time as H:MM, hour unpadded and minute zero-padded.
func (w WallTime) String() string {
	return fmt.Sprintf("%d:%02d", w.Hour, w.Minute)
}
