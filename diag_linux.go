//go:build linux

package ring

import (
	"net"

	"github.com/higebu/netfd"
	"golang.org/x/sys/unix"
)

// socketStats reads the kernel's notion of how many bytes are currently
// queued for read on conn, via SIOCINQ on the raw file descriptor. Grounded
// on runZeroInc-conniver/pkg/exporter/exporter.go's use of
// netfd.GetFdFromConn to reach into a net.Conn for low-level statistics.
func socketStats(conn net.PacketConn) (SocketStats, error) {
	uc, ok := conn.(*net.UDPConn)
	if !ok {
		return SocketStats{}, ErrDiagUnsupported
	}

	fd := netfd.GetFdFromConn(uc)
	n, err := unix.IoctlGetInt(fd, unix.SIOCINQ)
	if err != nil {
		return SocketStats{}, err
	}
	return SocketStats{ReceiveQueueBytes: n}, nil
}
