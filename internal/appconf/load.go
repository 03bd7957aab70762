package appconf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// OCTranspoFileConfig is the on-disk form of OCTranspoConfig.
type OCTranspoFileConfig struct {
	BaseURL   string `json:"base-url" yaml:"base-url" toml:"base-url" validate:"omitempty,url"`
	AppID     string `json:"app-id" yaml:"app-id" toml:"app-id"`
	APIKey    string `json:"api-key" yaml:"api-key" toml:"api-key"`
	TimeoutMS int    `json:"timeout-ms" yaml:"timeout-ms" toml:"timeout-ms" validate:"gte=0"`
}

// FileConfig is the on-disk configuration. JSON, YAML and TOML files share
// one set of keys.
type FileConfig struct {
	Port         int                 `json:"port" yaml:"port" toml:"port" validate:"gte=0,lte=65535"`
	Env          string              `json:"env" yaml:"env" toml:"env" validate:"omitempty,oneof=development dev test production prod"`
	Verbose      bool                `json:"verbose" yaml:"verbose" toml:"verbose"`
	RateLimit    *int                `json:"rate-limit" yaml:"rate-limit" toml:"rate-limit" validate:"omitnil,gte=-1"` // 0 blocks refreshes, -1 disables limiting
	ApiKeys      []string            `json:"api-keys" yaml:"api-keys" toml:"api-keys" validate:"dive,required"`
	Timezone     string              `json:"timezone" yaml:"timezone" toml:"timezone" validate:"omitempty,timezone"`
	PrimaryRoute string              `json:"primary-route" yaml:"primary-route" toml:"primary-route"`
	Source       string              `json:"source" yaml:"source" toml:"source" validate:"omitempty,oneof=fixture file octranspo"`
	FixturePath  string              `json:"fixture-path" yaml:"fixture-path" toml:"fixture-path" validate:"required_if=Source file"`
	StopNo       string              `json:"stop-no" yaml:"stop-no" toml:"stop-no" validate:"omitempty,numeric"`
	OCTranspo    OCTranspoFileConfig `json:"octranspo" yaml:"octranspo" toml:"octranspo"`
}

// LoadFromFile reads and validates a configuration file.
func LoadFromFile(path string) (*FileConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err = toml.NewDecoder(bytes.NewReader(data)).Decode(&fc)
	case ".json":
		err = json.Unmarshal(data, &fc)
	default:
		err = yaml.Unmarshal(data, &fc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(fc); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &fc, nil
}

// ToAppConfig overlays the file values on Default().
func (fc *FileConfig) ToAppConfig() (Config, error) {
	cfg := Default()

	if fc.Port != 0 {
		cfg.Port = fc.Port
	}
	env, err := ParseEnvironment(fc.Env)
	if err != nil {
		return cfg, err
	}
	cfg.Env = env
	cfg.Verbose = fc.Verbose
	if fc.RateLimit != nil {
		cfg.RateLimit = *fc.RateLimit
	}
	if len(fc.ApiKeys) > 0 {
		cfg.ApiKeys = append([]string(nil), fc.ApiKeys...)
	}
	if fc.Timezone != "" {
		loc, err := time.LoadLocation(fc.Timezone)
		if err != nil {
			return cfg, fmt.Errorf("invalid timezone %q: %w", fc.Timezone, err)
		}
		cfg.Location = loc
	}
	if fc.PrimaryRoute != "" {
		cfg.PrimaryRoute = fc.PrimaryRoute
	}
	if fc.Source != "" {
		cfg.Source = SourceKind(fc.Source)
	}
	cfg.FixturePath = fc.FixturePath
	if fc.StopNo != "" {
		cfg.StopNo = fc.StopNo
	}
	if fc.OCTranspo.BaseURL != "" {
		cfg.OCTranspo.BaseURL = strings.TrimRight(fc.OCTranspo.BaseURL, "/")
	}
	cfg.OCTranspo.AppID = fc.OCTranspo.AppID
	cfg.OCTranspo.APIKey = fc.OCTranspo.APIKey
	if fc.OCTranspo.TimeoutMS > 0 {
		cfg.OCTranspo.Timeout = time.Duration(fc.OCTranspo.TimeoutMS) * time.Millisecond
	}

	return cfg, nil
}

// ApplyEnv loads dotenvPath (a missing file is fine) and lets the process
// environment override cfg. Credentials usually arrive this way.
func ApplyEnv(cfg *Config, dotenvPath string) error {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", dotenvPath, err)
		}
	}

	if v := os.Getenv("BUSBOARD_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BUSBOARD_PORT: %w", err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("BUSBOARD_ENV"); v != "" {
		env, err := ParseEnvironment(v)
		if err != nil {
			return fmt.Errorf("BUSBOARD_ENV: %w", err)
		}
		cfg.Env = env
	}
	if v := os.Getenv("BUSBOARD_RATE_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BUSBOARD_RATE_LIMIT: %w", err)
		}
		cfg.RateLimit = limit
	}
	if v := os.Getenv("BUSBOARD_API_KEYS"); v != "" {
		cfg.ApiKeys = ParseAPIKeys(v)
	}
	if v := os.Getenv("BUSBOARD_SOURCE"); v != "" {
		cfg.Source = SourceKind(v)
	}
	if v := os.Getenv("BUSBOARD_STOP_NO"); v != "" {
		cfg.StopNo = v
	}
	if v := os.Getenv("OCTRANSPO_APP_ID"); v != "" {
		cfg.OCTranspo.AppID = v
	}
	if v := os.Getenv("OCTRANSPO_API_KEY"); v != "" {
		cfg.OCTranspo.APIKey = v
	}

	return nil
}
