package ring

import (
	"errors"
	"net"
	"time"
)

// MaxDatagramSize is the largest datagram Recv accepts. A longer datagram
// is reported by Recv as ErrMalformedPacket, and the receive loop logs and
// drops it.
const MaxDatagramSize = 4096

// Transport is the external collaborator through which the engine
// exchanges datagrams with its right neighbor. The engine only ever sends
// to RightNeighbor and receives whatever arrives next, from whichever
// source — the incoming address is informational only and
// never affects a routing decision.
type Transport interface {
	SendTo(addr string, payload []byte) error
	// Recv blocks for up to timeout waiting for a datagram. It returns
	// ErrRecvTimeout, not an error wrapping it, when nothing arrived —
	// callers compare with errors.Is.
	Recv(timeout time.Duration) (payload []byte, from string, err error)
	Close() error
}

// Diagnosable is optionally implemented by a Transport that can report
// OS-level socket statistics, backing the operator's /debug command.
type Diagnosable interface {
	Stats() (SocketStats, error)
}

// UDPTransport is the concrete net.UDPConn-backed Transport used outside
// tests.
type UDPTransport struct {
	conn *net.UDPConn
}

// NewUDPTransport binds a UDP socket on 0.0.0.0:bindPort.
func NewUDPTransport(bindPort int) (*UDPTransport, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: bindPort})
	if err != nil {
		return nil, err
	}
	return &UDPTransport{conn: conn}, nil
}

// SendTo sends payload to addr ("host:port").
func (t *UDPTransport) SendTo(addr string, payload []byte) error {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	_, err = t.conn.WriteToUDP(payload, raddr)
	return err
}

// Recv waits up to timeout for a datagram.
func (t *UDPTransport) Recv(timeout time.Duration) ([]byte, string, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, "", err
	}

	buf := make([]byte, MaxDatagramSize+1)
	n, addr, err := t.conn.ReadFromUDP(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, "", ErrRecvTimeout
		}
		return nil, "", err
	}
	if n > MaxDatagramSize {
		return nil, addr.String(), ErrMalformedPacket
	}
	return buf[:n], addr.String(), nil
}

// Close releases the underlying socket. Any blocked Recv returns
// immediately with an error.
func (t *UDPTransport) Close() error { return t.conn.Close() }

// Stats reports OS-level receive-queue occupancy where supported.
func (t *UDPTransport) Stats() (SocketStats, error) { return socketStats(t.conn) }
