package ring

import "errors"

// Sentinel errors covering the taxonomy below. Call sites wrap
// these with fmt.Errorf("%w: ...") when extra context is useful; callers
// branch on taxonomy with errors.Is.
var (
	// ErrMalformedPacket is returned by DecodePacket when the payload is
	// not a well-formed data packet, and by UDPTransport.Recv for a
	// datagram longer than MaxDatagramSize. Receive-side only; the caller drops
	// the packet and logs it, the ring is otherwise unaffected.
	ErrMalformedPacket = errors.New("ring: malformed data packet")

	// ErrQueueFull is returned by Node.Enqueue when the outbound queue is
	// already at capacity. The underlying Queue.Enqueue itself reports
	// this as a plain bool, not an error — it is not a fault condition
	// for the queue, only for the caller that wanted a slot.
	ErrQueueFull = errors.New("ring: outbound queue full")

	// ErrConfigInvalid is returned by LoadConfig on any structural or
	// value error in the 4-line config file. Fatal at startup.
	ErrConfigInvalid = errors.New("ring: invalid node configuration")

	// ErrBindFailed is returned by NewNode when the local UDP socket
	// cannot be bound. Fatal at startup.
	ErrBindFailed = errors.New("ring: failed to bind local socket")

	// ErrRecvTimeout is returned by Transport.Recv when no datagram
	// arrived within the requested timeout. Not an error condition for
	// the receive loop — it is the mechanism by which the loop notices
	// shutdown within one second.
	ErrRecvTimeout = errors.New("ring: receive timeout")

	// ErrDiagUnsupported is returned by a Transport's Stats method when
	// OS-level socket diagnostics are not available on the current
	// platform or transport implementation.
	ErrDiagUnsupported = errors.New("ring: socket diagnostics unsupported on this platform")
)
