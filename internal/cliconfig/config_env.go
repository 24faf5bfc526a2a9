package cliconfig

import "os"

// envPrefix is prepended to every environment variable name.
const envPrefix = "SMLSHIP_"

// ApplyEnvConfig applies SMLSHIP_* environment variables to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(envPrefix + name) }

	s.setString("gateway", env("GATEWAY"), &cfg.Gateway)
	s.setString("trigger", env("TRIGGER"), &cfg.Trigger)
	s.setString("dump", env("DUMP"), &cfg.DumpPath)
	s.setString("csv", env("CSV"), &cfg.CSVPath)
	s.setString("influx-url", env("INFLUX_URL"), &cfg.InfluxURL)
	s.setString("influx-db", env("INFLUX_DB"), &cfg.InfluxDB)
	s.setString("influx-user", env("INFLUX_USER"), &cfg.InfluxUser)
	s.setString("influx-password", env("INFLUX_PASSWORD"), &cfg.InfluxPassword)
	s.setString("sqlite", env("SQLITE"), &cfg.SQLitePath)
	s.setString("state-dir", env("STATE_DIR"), &cfg.StateDir)
	s.setString("serial-port", env("SERIAL_PORT"), &cfg.SerialPort)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("idle-timeout", env("IDLE_TIMEOUT"), &cfg.IdleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("deadline", env("DEADLINE"), &cfg.Deadline); err != nil {
		return err
	}
	if err := s.setDuration("influx-timeout", env("INFLUX_TIMEOUT"), &cfg.InfluxTimeout); err != nil {
		return err
	}
	if err := s.setDuration("watch-debounce", env("WATCH_DEBOUNCE"), &cfg.WatchDebounce); err != nil {
		return err
	}

	if err := s.setIntFromString("buffer-size", env("BUFFER_SIZE"), &cfg.BufferSize); err != nil {
		return err
	}
	if err := s.setIntFromString("influx-batch", env("INFLUX_BATCH"), &cfg.InfluxBatch); err != nil {
		return err
	}
	if err := s.setIntFromString("serial-baud", env("SERIAL_BAUD"), &cfg.SerialBaud); err != nil {
		return err
	}

	s.setBoolFromString("csv-header", env("CSV_HEADER"), &cfg.CSVHeader)
	s.setBoolFromString("incremental", env("INCREMENTAL"), &cfg.Incremental)
	s.setBoolFromString("require-data", env("REQUIRE_DATA"), &cfg.RequireData)

	return nil
}
