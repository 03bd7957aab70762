// Package appconf holds the runtime configuration of the board: where the
// schedule comes from, which stop to show, and how the HTTP server behaves.
package appconf

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// ParseEnvironment maps a config or flag value onto an Environment.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "development", "dev":
		return Development, nil
	case "test":
		return Test, nil
	case "production", "prod":
		return Production, nil
	}
	return Development, fmt.Errorf("unknown environment %q", s)
}

// SourceKind selects the ScheduleSource implementation.
type SourceKind string

const (
	SourceFixture   SourceKind = "fixture"
	SourceFile      SourceKind = "file"
	SourceOCTranspo SourceKind = "octranspo"
)

const (
	DefaultPort         = 4000
	DefaultRateLimit    = 6
	DefaultTimezone     = "America/Toronto"
	DefaultPrimaryRoute = "2"
	DefaultStopNo       = "5813"
	DefaultBaseURL      = "https://api.octranspo1.com/v2.0"
	DefaultTimeout      = 10 * time.Second
)

// OCTranspoConfig holds the credentials and endpoint of the live API.
type OCTranspoConfig struct {
	BaseURL string
	AppID   string
	APIKey  string
	Timeout time.Duration
}

// Config is the resolved application configuration.
type Config struct {
	Port         int
	Env          Environment
	Verbose      bool
	RateLimit    int      // manual refreshes per minute per client; 0 blocks, negative disables
	ApiKeys      []string // keys accepted by the refresh endpoint; empty leaves it open
	Location     *time.Location
	PrimaryRoute string
	Source       SourceKind
	FixturePath  string
	StopNo       string
	OCTranspo    OCTranspoConfig
}

// Default returns a configuration that serves the embedded fixture.
func Default() Config {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		loc = time.Local
	}
	return Config{
		Port:         DefaultPort,
		Env:          Development,
		RateLimit:    DefaultRateLimit,
		Location:     loc,
		PrimaryRoute: DefaultPrimaryRoute,
		Source:       SourceFixture,
		StopNo:       DefaultStopNo,
		OCTranspo: OCTranspoConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
		},
	}
}

// Validate checks the cross-field rules that struct tags cannot express.
func (c Config) Validate() error {
	var errs []error

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch c.Source {
	case SourceFixture:
	case SourceFile:
		if c.FixturePath == "" {
			errs = append(errs, errors.New("source \"file\" requires fixture-path"))
		}
	case SourceOCTranspo:
		if c.StopNo == "" {
			errs = append(errs, errors.New("source \"octranspo\" requires stop-no"))
		}
		if c.OCTranspo.AppID == "" || c.OCTranspo.APIKey == "" {
			errs = append(errs, errors.New("source \"octranspo\" requires an app id and api key"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source %q", c.Source))
	}

	return errors.Join(errs...)
}

// ParseAPIKeys splits a comma-separated key list, dropping blanks.
func ParseAPIKeys(s string) []string {
	keys := []string{}
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
