// Package source provides the schedule sources the board can be pointed at:
// the embedded Carleton sample, a payload file on disk, or the live API.
package source

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"busboard/internal/appconf"
	"busboard/internal/logging"
	"busboard/internal/models"
	"busboard/internal/octranspo"
)

// ScheduleSource supplies one decoded snapshot of a stop per call.
type ScheduleSource interface {
	FetchStopSchedule(ctx context.Context) (*models.Stop, error)
	Name() string
}

//go:embed testdata/carleton.json
var carletonPayload []byte

// Fixture serves the embedded sample payload for stop 5813.
type Fixture struct{}

func (Fixture) Name() string { return string(appconf.SourceFixture) }

func (Fixture) FetchStopSchedule(ctx context.Context) (*models.Stop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return octranspo.Decode(bytes.NewReader(carletonPayload))
}

// LoadFixture decodes the embedded sample. The payload ships with the binary,
// so a failure here is a build defect.
func LoadFixture() *models.Stop {
	stop, err := Fixture{}.FetchStopSchedule(context.Background())
	if err != nil {
		panic(fmt.Sprintf("embedded fixture is invalid: %v", err))
	}
	return stop
}

// File reads a route-summary payload from disk on every fetch.
type File struct {
	Path   string
	Logger *slog.Logger
}

func (f *File) Name() string { return string(appconf.SourceFile) }

func (f *File) FetchStopSchedule(ctx context.Context) (*models.Stop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schedule file: %w", err)
	}
	defer logging.SafeCloseWithLogging(fh, f.Logger, "schedule_file")

	stop, err := octranspo.Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("schedule file %s: %w", f.Path, err)
	}
	return stop, nil
}

// Live fetches the stop from the OC Transpo API.
type Live struct {
	Client *octranspo.Client
	StopNo string
}

func (l *Live) Name() string { return string(appconf.SourceOCTranspo) }

func (l *Live) FetchStopSchedule(ctx context.Context) (*models.Stop, error) {
	return l.Client.GetNextTripsForStopAllRoutes(ctx, l.StopNo)
}

// New builds the source selected by cfg.
func New(cfg appconf.Config, logger *slog.Logger) (ScheduleSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Source {
	case appconf.SourceFixture, "":
		return Fixture{}, nil
	case appconf.SourceFile:
		if cfg.FixturePath == "" {
			return nil, fmt.Errorf("source %q requires a fixture path", cfg.Source)
		}
		return &File{Path: cfg.FixturePath, Logger: logger}, nil
	case appconf.SourceOCTranspo:
		client := octranspo.NewClient(cfg.OCTranspo.BaseURL, cfg.OCTranspo.AppID, cfg.OCTranspo.APIKey, cfg.OCTranspo.Timeout, logger)
		return &Live{Client: client, StopNo: cfg.StopNo}, nil
	default:
		return nil, fmt.Errorf("unknown schedule source %q", cfg.Source)
	}
}
