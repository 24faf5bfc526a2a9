package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Gateway     string `toml:"gateway"`
	Trigger     string `toml:"trigger"`
	BufferSize  int    `toml:"buffer_size"`
	IdleTimeout string `toml:"idle_timeout"`
	Deadline    string `toml:"deadline"`

	DumpPath  string `toml:"dump"`
	CSVPath   string `toml:"csv"`
	CSVHeader *bool  `toml:"csv_header"`

	Influx struct {
		URL      string `toml:"url"`
		Database string `toml:"database"`
		User     string `toml:"user"`
		Password string `toml:"password"`
		Batch    int    `toml:"batch"`
		Timeout  string `toml:"timeout"`
	} `toml:"influx"`

	SQLitePath string `toml:"sqlite"`

	StateDir    string `toml:"state_dir"`
	Incremental *bool  `toml:"incremental"`
	RequireData *bool  `toml:"require_data"`

	Serial struct {
		Port string `toml:"port"`
		Baud int    `toml:"baud"`
	} `toml:"serial"`

	WatchDebounce string `toml:"watch_debounce"`
	LogLevel      string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.smlship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".smlship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("gateway", fc.Gateway, &cfg.Gateway)
	s.setString("trigger", fc.Trigger, &cfg.Trigger)
	s.setString("dump", fc.DumpPath, &cfg.DumpPath)
	s.setString("csv", fc.CSVPath, &cfg.CSVPath)
	s.setString("influx-url", fc.Influx.URL, &cfg.InfluxURL)
	s.setString("influx-db", fc.Influx.Database, &cfg.InfluxDB)
	s.setString("influx-user", fc.Influx.User, &cfg.InfluxUser)
	s.setString("influx-password", fc.Influx.Password, &cfg.InfluxPassword)
	s.setString("sqlite", fc.SQLitePath, &cfg.SQLitePath)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("serial-port", fc.Serial.Port, &cfg.SerialPort)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("idle-timeout", fc.IdleTimeout, &cfg.IdleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("deadline", fc.Deadline, &cfg.Deadline); err != nil {
		return err
	}
	if err := s.setDuration("influx-timeout", fc.Influx.Timeout, &cfg.InfluxTimeout); err != nil {
		return err
	}
	if err := s.setDuration("watch-debounce", fc.WatchDebounce, &cfg.WatchDebounce); err != nil {
		return err
	}

	s.setInt("buffer-size", fc.BufferSize, &cfg.BufferSize)
	s.setInt("influx-batch", fc.Influx.Batch, &cfg.InfluxBatch)
	s.setInt("serial-baud", fc.Serial.Baud, &cfg.SerialBaud)

	s.setBool("csv-header", fc.CSVHeader, &cfg.CSVHeader)
	s.setBool("incremental", fc.Incremental, &cfg.Incremental)
	s.setBool("require-data", fc.RequireData, &cfg.RequireData)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
