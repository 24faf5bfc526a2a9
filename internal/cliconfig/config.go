package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/smlship/internal/domain"
)

// Gateway defaults.
const (
	DefaultGateway     = "192.168.178.177:8888"
	DefaultTrigger     = "hello"
	DefaultBufferSize  = 1024
	DefaultIdleTimeout = 10 * time.Second
)

// Config holds CLI configuration for smlship.
type Config struct {
	Gateway     string
	Trigger     string
	BufferSize  int
	IdleTimeout time.Duration
	Deadline    time.Duration

	DumpPath  string
	CSVPath   string
	CSVHeader bool

	InfluxURL      string
	InfluxDB       string
	InfluxUser     string
	InfluxPassword string
	InfluxBatch    int
	InfluxTimeout  time.Duration

	SQLitePath string

	StateDir    string
	Incremental bool
	RequireData bool

	SerialPort string
	SerialBaud int

	WatchDebounce time.Duration

	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Gateway:        DefaultGateway,
		Trigger:        DefaultTrigger,
		BufferSize:     DefaultBufferSize,
		IdleTimeout:    DefaultIdleTimeout,
		DumpPath:       "dump.hex",
		CSVPath:        "-",
		InfluxDB:       "power",
		InfluxBatch:    500,
		InfluxTimeout:  10 * time.Second,
		SerialBaud:     9600,
		WatchDebounce:  500 * time.Millisecond,
		LogLevel:       "info",
		InfluxPassword: os.Getenv("SMLSHIP_INFLUX_PASSWORD"),
		StateDir:       "", // Derived from the home directory during Validate
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.Gateway == "" {
		c.Gateway = DefaultGateway
	}
	if c.Trigger == "" {
		return fmt.Errorf("%w: trigger payload must not be empty", domain.ErrInvalidConfig)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("%w: buffer size must be positive", domain.ErrInvalidConfig)
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("%w: idle timeout must be positive", domain.ErrInvalidConfig)
	}
	if c.Deadline < 0 {
		return fmt.Errorf("%w: deadline must not be negative", domain.ErrInvalidConfig)
	}
	if c.InfluxBatch < 0 {
		return fmt.Errorf("%w: influx batch must not be negative", domain.ErrInvalidConfig)
	}
	if c.InfluxURL != "" && c.InfluxTimeout <= 0 {
		return fmt.Errorf("%w: influx timeout must be positive", domain.ErrInvalidConfig)
	}
	if c.SerialBaud <= 0 {
		return fmt.Errorf("%w: serial baud rate must be positive", domain.ErrInvalidConfig)
	}

	// Ensure no trailing slash
	c.InfluxURL = strings.TrimRight(c.InfluxURL, "/")

	switch strings.ToLower(c.LogLevel) {
	case "":
		c.LogLevel = "info"
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		return fmt.Errorf("%w: unknown log level %q", domain.ErrInvalidConfig, c.LogLevel)
	}

	if c.StateDir == "" {
		if h, err := os.UserHomeDir(); err == nil {
			c.StateDir = filepath.Join(h, ".smlship")
		} else {
			c.StateDir = ".smlship"
		}
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
