package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultServiceURL   = "http://127.0.0.1:8000/api"
	DefaultPollInterval = 2 * time.Second
)

// Config holds all configurable hats settings. Durations are Go duration
// strings such as "2s" or "750ms".
type Config struct {
	ServiceURL     string `json:"service_url"`
	PollInterval   string `json:"poll_interval"`
	RequestTimeout string `json:"request_timeout"` // empty: no client-side timeout
	DefaultFormat  string `json:"default_format"`  // "markdown" | "json" | "yaml"
	OutputDir      string `json:"output_dir"`
	LogLevel       string `json:"log_level"`
	LogFile        string `json:"log_file"` // "-" for stderr
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		ServiceURL:    DefaultServiceURL,
		PollInterval:  DefaultPollInterval.String(),
		DefaultFormat: "markdown",
		OutputDir:     ".",
		LogLevel:      "info",
	}
}

// LoadGlobal reads ~/.config/hats/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return loadFile(filepath.Join(home, ".config", "hats", "config.json"), true)
}

// LoadProject reads .hatsconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".hatsconfig", false)
}

// loadFile reads and parses a JSON config file at path. A missing file yields
// defaults when returnDefaults is set, nil otherwise.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// FromEnv reads the HATS_* environment overrides. Unset variables leave the
// corresponding field empty.
func FromEnv() *Config {
	return &Config{
		ServiceURL:     os.Getenv("HATS_SERVICE_URL"),
		PollInterval:   os.Getenv("HATS_POLL_INTERVAL"),
		RequestTimeout: os.Getenv("HATS_REQUEST_TIMEOUT"),
		LogLevel:       os.Getenv("HATS_LOG_LEVEL"),
		LogFile:        os.Getenv("HATS_LOG_FILE"),
	}
}

// Merge layers the given configs over defaults. Later layers take precedence;
// empty fields and nil layers are skipped.
func Merge(layers ...*Config) Config {
	result := Defaults()
	for _, l := range layers {
		if l == nil {
			continue
		}
		override(&result.ServiceURL, l.ServiceURL)
		override(&result.PollInterval, l.PollInterval)
		override(&result.RequestTimeout, l.RequestTimeout)
		override(&result.DefaultFormat, l.DefaultFormat)
		override(&result.OutputDir, l.OutputDir)
		override(&result.LogLevel, l.LogLevel)
		override(&result.LogFile, l.LogFile)
	}
	return result
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Load reads the global file, the project file and the environment and merges
// them in that order.
func Load() (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, err
	}
	project, err := LoadProject()
	if err != nil {
		return Config{}, err
	}
	return Merge(global, project, FromEnv()), nil
}

// PollEvery returns the poll interval, falling back to the default when the
// value is missing, malformed or not positive.
func (c Config) PollEvery() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return DefaultPollInterval
	}
	return d
}

// Timeout returns the per-request timeout, or zero for none.
func (c Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
