package main

import (
	"context"
	"fmt"
	"io"
	"os"

	csvSink "github.com/bft-labs/smlship/internal/adapters/csv"
	"github.com/bft-labs/smlship/internal/adapters/fs"
	"github.com/bft-labs/smlship/internal/adapters/influx"
	"github.com/bft-labs/smlship/internal/adapters/sqlite"
	"github.com/bft-labs/smlship/internal/app"
	"github.com/bft-labs/smlship/internal/domain"
	"github.com/bft-labs/smlship/internal/ports"
)

// openSinks builds the sinks enabled in the configuration.
// Incremental runs append to the CSV file since earlier readings are not
// emitted again. On error every sink opened so far is closed.
func (a *cli) openSinks(ctx context.Context, stdout io.Writer, incremental bool) (ports.ReadingSink, error) {
	var sinks app.MultiSink
	fail := func(err error) (ports.ReadingSink, error) {
		_ = sinks.Close(ctx)
		return nil, err
	}

	switch a.cfg.CSVPath {
	case "":
	case "-":
		sinks = append(sinks, csvSink.NewSink(stdout, a.csvOptions()...))
	default:
		flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if incremental {
			flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		}
		f, err := os.OpenFile(a.cfg.CSVPath, flags, 0o644)
		if err != nil {
			return fail(fmt.Errorf("open csv: %w", err))
		}
		opts := []csvSink.Option{csvSink.WithCloser(f)}
		if a.cfg.CSVHeader {
			st, err := f.Stat()
			if err != nil {
				f.Close()
				return fail(fmt.Errorf("stat csv: %w", err))
			}
			if st.Size() == 0 {
				opts = append(opts, csvSink.WithHeader())
			}
		}
		sinks = append(sinks, csvSink.NewSink(f, opts...))
	}

	if a.cfg.InfluxURL != "" {
		s, err := influx.NewSink(influx.Config{
			URL:        a.cfg.InfluxURL,
			Database:   a.cfg.InfluxDB,
			Username:   a.cfg.InfluxUser,
			Password:   a.cfg.InfluxPassword,
			BatchSize:  a.cfg.InfluxBatch,
			Timeout:    a.cfg.InfluxTimeout,
			MaxRetries: influx.DefaultMaxRetries,
		}, nil, a.logger)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}

	if a.cfg.SQLitePath != "" {
		s, err := sqlite.Open(a.cfg.SQLitePath)
		if err != nil {
			return fail(fmt.Errorf("open sqlite: %w", err))
		}
		sinks = append(sinks, s)
	}

	if len(sinks) == 0 {
		return nil, fmt.Errorf("%w: no output configured (use --csv, --influx-url or --sqlite)", domain.ErrInvalidConfig)
	}
	return sinks, nil
}

func (a *cli) csvOptions() []csvSink.Option {
	if a.cfg.CSVHeader {
		return []csvSink.Option{csvSink.WithHeader()}
	}
	return nil
}

// openDump creates the raw dump file unless dumping is disabled.
func (a *cli) openDump() (ports.DumpWriter, error) {
	if a.cfg.DumpPath == "" {
		return nil, nil
	}
	d, err := fs.CreateDumpFile(a.cfg.DumpPath)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// decode runs one pipeline over source. The pipeline owns source and dump;
// they are closed even when opening the sinks fails.
func (a *cli) decode(ctx context.Context, source ports.ChunkSource, dump ports.DumpWriter, pcfg app.PipelineConfig, stdout io.Writer) (domain.Summary, error) {
	sink, err := a.openSinks(ctx, stdout, pcfg.Incremental)
	if err != nil {
		source.Close()
		if dump != nil {
			dump.Close()
		}
		return domain.Summary{}, err
	}

	var stateRepo ports.StateRepository
	if pcfg.Incremental {
		stateRepo = fs.NewStateFileRepository(a.cfg.StateDir)
	}

	p := app.NewPipeline(pcfg, source, sink, dump, stateRepo, a.logger)
	return p.Run(ctx)
}

// report prints the run summary on stderr.
func report(w io.Writer, s domain.Summary) {
	fmt.Fprintf(w, "%d readings emitted from %d frames (%d framing errors, %d decode failures, %d skipped, end: %s)\n",
		s.Emitted, s.Frames, s.FramingErrors, s.DecodeFailures, s.Skipped, s.End)
}
