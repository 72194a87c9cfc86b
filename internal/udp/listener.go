// Package udp wraps the datagram endpoints the bridge uses: a listener
// for simulator telemetry and a broadcaster for the test feeder.
package udp

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// packetConn is the subset of net.PacketConn the listener needs.
// Narrowed so tests can substitute a fake.
type packetConn interface {
	ReadFrom(p []byte) (n int, addr net.Addr, err error)
	SetReadDeadline(t time.Time) error
	Close() error
}

type Listener struct {
	addr string
	conn packetConn
}

type listenFunc func(network, address string) (net.PacketConn, error)

// NewListener binds a UDP socket on listen (e.g. ":49002", all
// interfaces). A bind failure here is fatal to startup.
func NewListener(listen string) (*Listener, error) {
	return newListener(listen, net.ListenPacket)
}

func newListener(listen string, listenPacket listenFunc) (*Listener, error) {
	conn, err := listenPacket("udp", listen)
	if err != nil {
		return nil, fmt.Errorf("udp listen %s: %w", listen, err)
	}
	return &Listener{addr: listen, conn: conn}, nil
}

// ReadDatagram waits up to wait for one datagram into buf. A quiet
// socket returns (0, false, nil) so the caller's loop can observe its
// shutdown signal between polls instead of blocking indefinitely.
func (l *Listener) ReadDatagram(buf []byte, wait time.Duration) (int, bool, error) {
	if err := l.conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
		return 0, false, err
	}
	n, _, err := l.conn.ReadFrom(buf)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return 0, false, nil
		}
		return 0, false, err
	}
	return n, true, nil
}

func (l *Listener) Addr() string { return l.addr }

func (l *Listener) Close() error {
	if l.conn == nil {
		return nil
	}
	return l.conn.Close()
}
