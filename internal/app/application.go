package app

import (
	"log/slog"

	"busboard/internal/appconf"
	"busboard/internal/board"
	"busboard/internal/clock"
	"busboard/internal/metrics"
	"busboard/internal/source"
)

// Application holds the dependencies shared by the HTTP handlers, the
// middleware and the command line.
type Application struct {
	Config  appconf.Config
	Logger  *slog.Logger
	Clock   clock.Clock
	Metrics *metrics.Metrics
	Source  source.ScheduleSource
	Shell   *board.Shell
}

// New wires a Shell around src, showing the embedded fixture until the first
// successful fetch.
func New(cfg appconf.Config, logger *slog.Logger, c clock.Clock, m *metrics.Metrics, src source.ScheduleSource) *Application {
	shell := board.NewShell(board.Options{
		Source:       src,
		Clock:        c,
		Location:     cfg.Location,
		PrimaryRoute: cfg.PrimaryRoute,
		Placeholder:  source.LoadFixture(),
		Metrics:      m,
		Logger:       logger,
	})

	return &Application{
		Config:  cfg,
		Logger:  logger,
		Clock:   c,
		Metrics: m,
		Source:  src,
		Shell:   shell,
	}
}
