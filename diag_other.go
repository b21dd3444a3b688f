//go:build !linux

package ring

import "net"

// socketStats has no portable equivalent to SIOCINQ outside Linux; mirrors
// a platform split (uapi_linux.go / uapi_darwin.go).
func socketStats(conn net.PacketConn) (SocketStats, error) {
	return SocketStats{}, ErrDiagUnsupported
}
