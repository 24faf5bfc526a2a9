// Package udp pulls the stored hex dump from the meter gateway over UDP.
package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/bft-labs/smlship/internal/domain"
	"github.com/bft-labs/smlship/internal/ports"
)

// Defaults match the gateway firmware.
const (
	DefaultAddress     = "192.168.178.177:8888"
	DefaultBufferSize  = 1024
	DefaultIdleTimeout = 10 * time.Second
)

// DefaultTrigger is sent to start a transfer. Any non-empty payload works.
var DefaultTrigger = []byte("hello")

// State is the fetch session state.
type State int

const (
	StateConnecting State = iota
	StateStreaming
	StateDoneEOT
	StateDoneTimeout
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateStreaming:
		return "Streaming"
	case StateDoneEOT:
		return "DoneEOT"
	case StateDoneTimeout:
		return "DoneTimeout"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Config contains configuration for a gateway fetch session.
type Config struct {
	Address     string
	Trigger     []byte
	BufferSize  int
	IdleTimeout time.Duration
}

// Fetcher implements ports.ChunkSource for one gateway session.
// It connects lazily on the first Next call, sends the trigger once and then
// receives until the EOT marker or the idle timeout. It never reconnects.
type Fetcher struct {
	cfg    Config
	dialer Dialer
	logger ports.Logger

	conn  Conn
	buf   []byte
	state State
	err   error
}

// NewFetcher creates a fetcher. Zero config fields take the gateway defaults.
func NewFetcher(cfg Config, dialer Dialer, logger ports.Logger) *Fetcher {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if len(cfg.Trigger) == 0 {
		cfg.Trigger = DefaultTrigger
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if dialer == nil {
		dialer = &NetDialer{}
	}
	return &Fetcher{
		cfg:    cfg,
		dialer: dialer,
		logger: logger,
		buf:    make([]byte, cfg.BufferSize),
		state:  StateConnecting,
	}
}

// State returns the current session state.
func (f *Fetcher) State() State {
	return f.state
}

// Err reports why the session stopped. An idle end wraps
// domain.ErrTransportTimeout even though Next treats it as a normal end.
func (f *Fetcher) Err() error {
	return f.err
}

// Next returns the next cleaned chunk from the gateway.
func (f *Fetcher) Next(ctx context.Context) (ports.Chunk, error) {
	switch f.state {
	case StateDoneEOT:
		return ports.Chunk{End: domain.EndEOT}, nil
	case StateDoneTimeout:
		return ports.Chunk{End: domain.EndTimeout}, nil
	case StateFailed:
		return ports.Chunk{End: domain.EndError}, f.err
	case StateConnecting:
		if err := f.connect(ctx); err != nil {
			return ports.Chunk{End: domain.EndError}, f.fail(err)
		}
	}
	return f.receive(ctx)
}

func (f *Fetcher) connect(ctx context.Context) error {
	conn, err := f.dialer.DialContext(ctx, "udp", f.cfg.Address)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.cfg.Address, err)
	}
	f.conn = conn
	if _, err := conn.Write(f.cfg.Trigger); err != nil {
		return fmt.Errorf("send trigger: %w", err)
	}
	f.state = StateStreaming
	f.logger.Debug("gateway session started", ports.String("address", f.cfg.Address))
	return nil
}

func (f *Fetcher) receive(ctx context.Context) (ports.Chunk, error) {
	deadline := time.Now().Add(f.cfg.IdleTimeout)
	capped := false
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
		capped = true
	}
	if err := f.conn.SetReadDeadline(deadline); err != nil {
		return ports.Chunk{End: domain.EndError}, f.fail(fmt.Errorf("set deadline: %w", err))
	}

	// Unblock the read when the caller cancels.
	stop := context.AfterFunc(ctx, func() {
		_ = f.conn.SetReadDeadline(time.Now())
	})
	n, err := f.conn.Read(f.buf)
	stop()

	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return ports.Chunk{End: domain.EndError}, f.fail(cerr)
		}
		// The socket deadline can fire just before the context notices.
		if capped && isTimeout(err) {
			return ports.Chunk{End: domain.EndError}, f.fail(context.DeadlineExceeded)
		}
		if isTimeout(err) {
			f.state = StateDoneTimeout
			f.err = fmt.Errorf("%w: no datagram for %s", domain.ErrTransportTimeout, f.cfg.IdleTimeout)
			f.logger.Error("transmission timeout", ports.Err(f.err), ports.Duration("idle_timeout", f.cfg.IdleTimeout))
			return ports.Chunk{End: domain.EndTimeout}, nil
		}
		return ports.Chunk{End: domain.EndError}, f.fail(fmt.Errorf("receive: %w", err))
	}

	data := domain.CleanChunk(f.buf[:n])
	if domain.HasEOT(data) {
		f.state = StateDoneEOT
		return ports.Chunk{Data: data, End: domain.EndEOT}, nil
	}
	return ports.Chunk{Data: data}, nil
}

// fail moves the session to StateFailed and remembers the error.
// Context errors are kept as-is; everything else is a transport failure.
func (f *Fetcher) fail(err error) error {
	f.state = StateFailed
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		f.err = err
	} else {
		f.err = fmt.Errorf("%w: %v", domain.ErrTransportIO, err)
	}
	return f.err
}

// Close releases the socket.
func (f *Fetcher) Close() error {
	if f.conn == nil {
		return nil
	}
	err := f.conn.Close()
	f.conn = nil
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

var _ ports.ChunkSource = (*Fetcher)(nil)
