// Package config loads daemon and CLI settings from an optional YAML file and
// ABEL_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Adam-Blf/abel-assistant/pkg/lib"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/project"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	DefaultGRPCAddress = "127.0.0.1:50051"
	DefaultHTTPAddress = "127.0.0.1:8765"
	DefaultEventBuffer = 256
	DefaultWaitDelay   = 5 * time.Second
)

// Config holds the application configuration.
type Config struct {
	GRPCAddress string `yaml:"grpc_address"`
	// HTTPAddress empty disables the HTTP API.
	HTTPAddress string `yaml:"http_address"`
	// ProjectDir empty means "derive from the executable location".
	ProjectDir     string        `yaml:"project_dir"`
	ComposeCommand []string      `yaml:"compose_command"`
	DockerCommand  string        `yaml:"docker_command"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	WaitDelay      time.Duration `yaml:"wait_delay"`
	StreamOutput   bool          `yaml:"stream_output"`
	EventBuffer    int           `yaml:"event_buffer"`
	Log            LogConfig     `yaml:"log"`
	TLS            TLSConfig     `yaml:"tls"`
	Links          []lib.Link    `yaml:"links"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TLSConfig carries PEM contents, not file paths.
type TLSConfig struct {
	KeyPEM  string `yaml:"key"`
	CertPEM string `yaml:"cert"`
	CAPEM   string `yaml:"ca"`
}

// Enabled reports whether any TLS material was configured.
func (t TLSConfig) Enabled() bool {
	return t.KeyPEM != "" || t.CertPEM != "" || t.CAPEM != ""
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		GRPCAddress:    DefaultGRPCAddress,
		HTTPAddress:    DefaultHTTPAddress,
		ComposeCommand: []string{"docker-compose"},
		DockerCommand:  "docker",
		WaitDelay:      DefaultWaitDelay,
		EventBuffer:    DefaultEventBuffer,
		Log:            LogConfig{Level: "info", Format: "console"},
		Links: []lib.Link{
			{Name: "API DOCS", URL: "http://localhost:8000/docs"},
			{Name: "DASHBOARD", URL: "http://localhost:3000"},
			{Name: "QDRANT", URL: "http://localhost:6333/dashboard"},
		},
	}
}

// Load reads path, when not empty, over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(&cfg, path); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		val, ok := lookup(key)
		if !ok || strings.TrimSpace(val) == "" {
			return "", false
		}
		return strings.TrimSpace(val), true
	}

	if val, ok := get("ABEL_GRPC_ADDRESS"); ok {
		cfg.GRPCAddress = val
	}
	if val, ok := lookup("ABEL_HTTP_ADDRESS"); ok {
		// explicitly empty disables the HTTP API
		cfg.HTTPAddress = strings.TrimSpace(val)
	}
	if val, ok := get("ABEL_PROJECT_DIR"); ok {
		cfg.ProjectDir = val
	}
	if val, ok := get("ABEL_COMPOSE_COMMAND"); ok {
		cfg.ComposeCommand = strings.Fields(val)
	}
	if val, ok := get("ABEL_DOCKER_COMMAND"); ok {
		cfg.DockerCommand = val
	}
	if val, ok := get("ABEL_LOG_LEVEL"); ok {
		cfg.Log.Level = val
	}
	if val, ok := get("ABEL_LOG_FORMAT"); ok {
		cfg.Log.Format = val
	}

	// PEM blocks keep their surrounding whitespace
	if val, ok := lookup("ABEL_TLS_KEY"); ok && val != "" {
		cfg.TLS.KeyPEM = val
	}
	if val, ok := lookup("ABEL_TLS_CERT"); ok && val != "" {
		cfg.TLS.CertPEM = val
	}
	if val, ok := lookup("ABEL_CA_TLS_CERT"); ok && val != "" {
		cfg.TLS.CAPEM = val
	}

	var errs error
	if val, ok := get("ABEL_COMMAND_TIMEOUT"); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("ABEL_COMMAND_TIMEOUT: %w", err))
		} else {
			cfg.CommandTimeout = d
		}
	}
	if val, ok := get("ABEL_WAIT_DELAY"); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("ABEL_WAIT_DELAY: %w", err))
		} else {
			cfg.WaitDelay = d
		}
	}
	if val, ok := get("ABEL_STREAM_OUTPUT"); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("ABEL_STREAM_OUTPUT: %w", err))
		} else {
			cfg.StreamOutput = b
		}
	}
	if val, ok := get("ABEL_EVENT_BUFFER"); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("ABEL_EVENT_BUFFER: %w", err))
		} else {
			cfg.EventBuffer = n
		}
	}
	return errs
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs error
	add := func(err error) { errs = multierr.Append(errs, err) }

	if c.GRPCAddress == "" {
		add(errors.New("grpc_address must not be empty"))
	}
	if len(c.ComposeCommand) == 0 || c.ComposeCommand[0] == "" {
		add(errors.New("compose_command must name an executable"))
	}
	if c.DockerCommand == "" {
		add(errors.New("docker_command must not be empty"))
	}
	if c.CommandTimeout < 0 {
		add(fmt.Errorf("command_timeout must not be negative, got %s", c.CommandTimeout))
	}
	if c.WaitDelay <= 0 {
		add(fmt.Errorf("wait_delay must be positive, got %s", c.WaitDelay))
	}
	if c.EventBuffer <= 0 {
		add(fmt.Errorf("event_buffer must be positive, got %d", c.EventBuffer))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		add(fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		add(fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	if c.TLS.Enabled() && (c.TLS.KeyPEM == "" || c.TLS.CertPEM == "" || c.TLS.CAPEM == "") {
		add(errors.New("tls needs key, cert and ca together"))
	}
	for i, link := range c.Links {
		if link.Name == "" {
			add(fmt.Errorf("links[%d]: name must not be empty", i))
		}
		if u, err := url.Parse(link.URL); err != nil || u.Scheme == "" || u.Host == "" {
			add(fmt.Errorf("links[%d]: invalid url %q", i, link.URL))
		}
	}
	return errs
}

// ProjectResolver returns the configured project directory, or the one
// derived from the executable when none is set.
func (c Config) ProjectResolver() project.Resolver {
	if c.ProjectDir != "" {
		return project.Fixed(c.ProjectDir)
	}
	return project.FromExecutable()
}
