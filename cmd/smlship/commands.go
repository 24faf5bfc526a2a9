package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bft-labs/smlship/internal/adapters/fs"
	"github.com/bft-labs/smlship/internal/adapters/serial"
	"github.com/bft-labs/smlship/internal/adapters/udp"
	"github.com/bft-labs/smlship/internal/app"
	"github.com/bft-labs/smlship/internal/domain"
	"github.com/bft-labs/smlship/internal/dumpwatch"
)

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func (a *cli) fetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Pull the dump from the gateway over UDP and decode it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			if a.cfg.Deadline > 0 {
				ctx, cancel = context.WithTimeout(ctx, a.cfg.Deadline)
				defer cancel()
			}

			dump, err := a.openDump()
			if err != nil {
				return err
			}
			source := udp.NewFetcher(udp.Config{
				Address:     a.cfg.Gateway,
				Trigger:     []byte(a.cfg.Trigger),
				BufferSize:  a.cfg.BufferSize,
				IdleTimeout: a.cfg.IdleTimeout,
			}, nil, a.logger)

			summary, err := a.decode(ctx, source, dump, app.PipelineConfig{
				RequireData: a.cfg.RequireData,
				Incremental: a.cfg.Incremental,
			}, cmd.OutOrStdout())
			report(cmd.ErrOrStderr(), summary)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&a.cfg.Gateway, "gateway", a.cfg.Gateway, "gateway UDP address (host:port)")
	f.StringVar(&a.cfg.Trigger, "trigger", a.cfg.Trigger, "payload sent to start the transfer")
	f.IntVar(&a.cfg.BufferSize, "buffer-size", a.cfg.BufferSize, "receive buffer size in bytes")
	f.DurationVar(&a.cfg.IdleTimeout, "idle-timeout", a.cfg.IdleTimeout, "end the transfer after this long without data")
	f.DurationVar(&a.cfg.Deadline, "deadline", a.cfg.Deadline, "overall fetch deadline (0 for none)")
	f.StringVar(&a.cfg.DumpPath, "dump", a.cfg.DumpPath, `write the raw hex stream here ("" to disable)`)
	f.BoolVar(&a.cfg.RequireData, "require-data", a.cfg.RequireData, "fail when the gateway sends nothing")
	return cmd
}

func (a *cli) decodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <dump.hex|->",
		Short: "Decode a stored hex dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			var source *fs.FileSource
			if args[0] == "-" {
				source = fs.NewReaderSource(os.Stdin)
			} else {
				s, err := fs.OpenFileSource(args[0])
				if err != nil {
					return err
				}
				source = s
			}

			summary, err := a.decode(ctx, source, nil, app.PipelineConfig{
				Incremental: a.cfg.Incremental,
			}, cmd.OutOrStdout())
			report(cmd.ErrOrStderr(), summary)
			return err
		},
	}
}

func (a *cli) captureCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Read the dump from the gateway's serial console and decode it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.SerialPort == "" {
				return fmt.Errorf("%w: --serial-port is required", domain.ErrInvalidConfig)
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			port, err := serial.Open(a.cfg.SerialPort, serial.PortOptions{BaudRate: a.cfg.SerialBaud})
			if err != nil {
				return err
			}
			dump, err := a.openDump()
			if err != nil {
				port.Close()
				return err
			}
			source := serial.NewSource(port, a.cfg.IdleTimeout, a.logger)

			summary, err := a.decode(ctx, source, dump, app.PipelineConfig{
				RequireData: a.cfg.RequireData,
				Incremental: a.cfg.Incremental,
			}, cmd.OutOrStdout())
			report(cmd.ErrOrStderr(), summary)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&a.cfg.SerialPort, "serial-port", a.cfg.SerialPort, "serial device, e.g. /dev/ttyACM0")
	f.IntVar(&a.cfg.SerialBaud, "serial-baud", a.cfg.SerialBaud, "serial baud rate")
	f.DurationVar(&a.cfg.IdleTimeout, "idle-timeout", a.cfg.IdleTimeout, "end the capture after this long without data")
	f.StringVar(&a.cfg.DumpPath, "dump", a.cfg.DumpPath, `write the raw hex stream here ("" to disable)`)
	f.BoolVar(&a.cfg.RequireData, "require-data", a.cfg.RequireData, "fail when nothing is received")
	return cmd
}

func (a *cli) watchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Decode hex dumps as they are written to a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			decodeFile := func(ctx context.Context, path string) (domain.Summary, error) {
				source, err := fs.OpenFileSource(path)
				if err != nil {
					return domain.Summary{}, err
				}
				// Rewritten dumps repeat old readings; the watermark drops them.
				return a.decode(ctx, source, nil, app.PipelineConfig{Incremental: true}, cmd.OutOrStdout())
			}

			w, err := dumpwatch.New(dumpwatch.Config{
				Dir:      args[0],
				Debounce: a.cfg.WatchDebounce,
			}, decodeFile, a.logger)
			if err != nil {
				return err
			}
			if err := w.Run(ctx); err != nil {
				return err
			}
			a.log.Info().Int("runs", w.Runs()).Msg("watcher stopped")
			return nil
		},
	}

	cmd.Flags().DurationVar(&a.cfg.WatchDebounce, "watch-debounce", a.cfg.WatchDebounce, "quiet period before a changed dump is decoded")
	return cmd
}

func (a *cli) hex2binCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hex2bin <in.hex|-> <out.bin|->",
		Short: "Convert a hex dump into the raw bytes it describes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := os.Stdin
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			if args[1] == "-" {
				n, err := fs.HexToBinary(in, cmd.OutOrStdout())
				a.log.Info().Int64("bytes", n).Msg("converted")
				return err
			}

			out, err := os.Create(args[1])
			if err != nil {
				return err
			}
			n, err := fs.HexToBinary(in, out)
			if cerr := out.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("hex2bin %s: %w", args[0], err)
			}
			a.log.Info().Int64("bytes", n).Str("out", args[1]).Msg("converted")
			return nil
		},
	}
}
