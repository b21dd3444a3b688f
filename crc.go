package ring

import (
	"fmt"
	"hash/crc32"
)

// Checksum computes the CRC32 of a data packet's canonical form: the
// "2000" tag, then src/dest/status with the literal "0" standing in for
// the crc slot, then the message body. This exact construction — tag
// included — is preserved for wire interop with other implementations of
// this protocol that compute the CRC the same way; it looks redundant but
// must not be "cleaned up".
func Checksum(src, dest string, status Status, message string) uint32 {
	canonical := fmt.Sprintf("%s;%s:%s:%s:0:%s", dataWireTag, src, dest, status, message)
	return crc32.ChecksumIEEE([]byte(canonical))
}
