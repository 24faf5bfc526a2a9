package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logAdapter "github.com/bft-labs/smlship/internal/adapters/log"
	"github.com/bft-labs/smlship/internal/cliconfig"
)

const helpDescription = `
Pull the stored SML dump from the meter gateway and turn it into readings.

The gateway keeps one line of hex bytes per SML frame. Every reading is a
timestamp frame, a power frame and a battery frame in that order; smlship
aligns them, decodes energy (Wh) and battery voltage, and writes the result
to CSV, InfluxDB or SQLite.

Configure via file ($HOME/.smlship/config.toml), SMLSHIP_* env, or flags.
`

var exampleUsage = strings.TrimSpace(`
  smlship fetch --gateway 192.168.178.177:8888 --csv readings.csv
  smlship decode dump.hex --influx-url http://troi:8086
  smlship capture --serial-port /dev/ttyACM0 --sqlite readings.db
  smlship watch /srv/dumps --incremental --sqlite readings.db
  smlship hex2bin dump.hex dump.bin
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	a := &cli{cfg: cliconfig.DefaultConfig(), log: cliconfig.Logger()}

	root := &cobra.Command{
		Use:           "smlship",
		Short:         "Fetch and decode SML meter dumps from the gateway",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.smlship/config.toml)")
	f.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (debug, info, warn, error)")

	f.StringVar(&a.cfg.CSVPath, "csv", a.cfg.CSVPath, `CSV output path ("-" for stdout, "" to disable)`)
	f.BoolVar(&a.cfg.CSVHeader, "csv-header", a.cfg.CSVHeader, "write a CSV header row")
	f.StringVar(&a.cfg.InfluxURL, "influx-url", a.cfg.InfluxURL, "InfluxDB base URL (empty disables)")
	f.StringVar(&a.cfg.InfluxDB, "influx-db", a.cfg.InfluxDB, "InfluxDB database")
	f.StringVar(&a.cfg.InfluxUser, "influx-user", a.cfg.InfluxUser, "InfluxDB user")
	f.StringVar(&a.cfg.InfluxPassword, "influx-password", a.cfg.InfluxPassword, "InfluxDB password")
	f.IntVar(&a.cfg.InfluxBatch, "influx-batch", a.cfg.InfluxBatch, "points per InfluxDB write")
	f.DurationVar(&a.cfg.InfluxTimeout, "influx-timeout", a.cfg.InfluxTimeout, "InfluxDB request timeout")
	f.StringVar(&a.cfg.SQLitePath, "sqlite", a.cfg.SQLitePath, "SQLite database path (empty disables)")

	f.StringVar(&a.cfg.StateDir, "state-dir", a.cfg.StateDir, "state directory for status.json (default: $HOME/.smlship)")
	f.BoolVar(&a.cfg.Incremental, "incremental", a.cfg.Incremental, "only emit readings newer than the last run")

	root.AddCommand(
		a.fetchCommand(),
		a.decodeCommand(),
		a.captureCommand(),
		a.watchCommand(),
		a.hex2binCommand(),
	)

	if err := root.Execute(); err != nil {
		a.log.Error().Err(err).Msg("smlship")
		os.Exit(1)
	}
}

// cli carries the resolved configuration shared by all subcommands.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	log     zerolog.Logger
	logger  *logAdapter.ZerologAdapter
}

// loadConfig layers file and env config under explicitly set flags.
func (a *cli) loadConfig(cmd *cobra.Command) error {
	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	// Build set of changed flags
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&a.cfg, fc, changed); err != nil {
			return err
		}
	}

	// Apply environment variables (SMLSHIP_*)
	// These override file config but are overridden by flags (checked via changed map)
	if err := cliconfig.ApplyEnvConfig(&a.cfg, changed); err != nil {
		return err
	}

	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if err := cliconfig.SetLogLevel(a.cfg.LogLevel); err != nil {
		return err
	}

	// Log configuration (masking the password)
	logCfg := a.cfg
	if len(logCfg.InfluxPassword) > 0 {
		logCfg.InfluxPassword = "*****"
	}
	a.log.Debug().Interface("config", logCfg).Msg("configuration")

	a.logger = logAdapter.NewZerologAdapterWithLogger(a.log)
	return nil
}
