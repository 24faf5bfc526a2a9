package udp

import (
	"context"
	"net"
	"time"
)

// Conn defines the datagram socket operations the fetcher needs.
// *net.UDPConn satisfies it; tests substitute a mock.
type Conn interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Dialer opens a connected datagram socket to a remote address.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (Conn, error)
}

// NetDialer implements Dialer with net.Dialer.
type NetDialer struct {
	net.Dialer
}

// DialContext connects a UDP socket to address.
func (d *NetDialer) DialContext(ctx context.Context, network, address string) (Conn, error) {
	c, err := d.Dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return c, nil
}
