package serial

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/bft-labs/smlship/internal/adapters/log"
	"github.com/bft-labs/smlship/internal/domain"
)

type mockPort struct {
	reads   [][]byte
	readErr error
	timeout time.Duration
	closed  bool
}

func (m *mockPort) Read(p []byte) (int, error) {
	if len(m.reads) == 0 {
		if m.readErr != nil {
			return 0, m.readErr
		}
		return 0, nil
	}
	n := copy(p, m.reads[0])
	m.reads = m.reads[1:]
	return n, nil
}

func (m *mockPort) SetReadTimeout(t time.Duration) error {
	m.timeout = t
	return nil
}

func (m *mockPort) Close() error {
	m.closed = true
	return nil
}

func TestSource_IdleEndsCapture(t *testing.T) {
	port := &mockPort{reads: [][]byte{
		[]byte("77 7 1\r\n"),
		[]byte("\x0512 3\r\n"),
	}}
	src := NewSource(port, 2*time.Second, log.NewNoopLogger())

	c, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "77 7 1\n", string(c.Data))
	assert.Equal(t, 2*time.Second, port.timeout)

	c, err = src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12 3\n", string(c.Data))
	assert.Equal(t, domain.EndNone, c.End)

	c, err = src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.EndTimeout, c.End)
	assert.Empty(t, c.Data)

	// Terminal state sticks.
	c, err = src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.EndTimeout, c.End)

	require.NoError(t, src.Close())
	assert.True(t, port.closed)
}

func TestSource_EOT(t *testing.T) {
	port := &mockPort{reads: [][]byte{[]byte("1 2\r\n\r\nEOT")}}
	src := NewSource(port, 0, log.NewNoopLogger())

	c, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.EndEOT, c.End)
	assert.Equal(t, "1 2\n\nEOT", string(c.Data))
	assert.Equal(t, DefaultIdleTimeout, port.timeout)
}

func TestSource_ReadError(t *testing.T) {
	port := &mockPort{readErr: errors.New("device unplugged")}
	src := NewSource(port, time.Second, log.NewNoopLogger())

	c, err := src.Next(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransportIO)
	assert.Equal(t, domain.EndError, c.End)
}

// blockingPort reads nothing until it is closed, like a quiet line with a
// long read timeout.
type blockingPort struct {
	closed chan struct{}
	closes int
	mu     sync.Mutex
}

func (b *blockingPort) Read(p []byte) (int, error) {
	<-b.closed
	return 0, errors.New("port closed")
}

func (b *blockingPort) SetReadTimeout(time.Duration) error { return nil }

func (b *blockingPort) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closes++
	if b.closes == 1 {
		close(b.closed)
	}
	return nil
}

func TestSource_CancelUnblocksRead(t *testing.T) {
	port := &blockingPort{closed: make(chan struct{})}
	src := NewSource(port, time.Hour, log.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	c, err := src.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.EndError, c.End)
	assert.Less(t, time.Since(start), 5*time.Second)

	require.NoError(t, src.Close())
	port.mu.Lock()
	defer port.mu.Unlock()
	assert.Equal(t, 1, port.closes)
}

func TestPortOptions_Mode(t *testing.T) {
	tests := []struct {
		name    string
		opts    PortOptions
		want    *serial.Mode
		wantErr bool
	}{
		{
			name: "defaults",
			opts: PortOptions{},
			want: &serial.Mode{BaudRate: 9600, DataBits: 8, StopBits: serial.OneStopBit, Parity: serial.NoParity},
		},
		{
			name: "even parity two stop bits",
			opts: PortOptions{BaudRate: 115200, StopBits: 2, Parity: "even"},
			want: &serial.Mode{BaudRate: 115200, DataBits: 8, StopBits: serial.TwoStopBits, Parity: serial.EvenParity},
		},
		{name: "bad data bits", opts: PortOptions{DataBits: 9}, wantErr: true},
		{name: "bad stop bits", opts: PortOptions{StopBits: 3}, wantErr: true},
		{name: "bad parity", opts: PortOptions{Parity: "mark"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.Mode()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
