package ring

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Wire tags. "1000" and "2000" are wire artifacts only
// and must never be "cleaned up" in a reimplementation; other nodes on the
// ring compute CRCs over the canonical form that embeds the data tag
// verbatim.
const (
	tokenWireForm = "1000"
	dataWireTag   = "2000"
)

// Broadcast is the reserved destination meaning "deliver to every node".
const Broadcast = "TODOS"

// Status records a data packet's delivery outcome.
type Status string

const (
	// StatusUnclaimed is the initial status of every freshly originated
	// data packet. A packet that returns to its originator still carrying
	// this status means no node on the ring claimed the destination.
	StatusUnclaimed Status = "maquinanaoexiste"
	StatusACK       Status = "ACK"
	StatusNAK       Status = "NAK"
)

// EncodeToken returns the fixed wire form of the token marker.
func EncodeToken() []byte { return []byte(tokenWireForm) }

// IsToken reports whether payload is exactly the token wire form.
func IsToken(payload []byte) bool { return string(payload) == tokenWireForm }

// IsDataPacket reports whether payload begins with the data packet tag. It
// does not validate the rest of the structure — use DecodePacket for that.
func IsDataPacket(payload []byte) bool { return bytes.HasPrefix(payload, []byte(dataWireTag)) }

// DataPacket is the mutable wire entity that carries an application
// message around the ring, picking up a status and forwarding
// acknowledgement as it travels.
type DataPacket struct {
	Src     string
	Dest    string
	Status  Status
	CRC     string // decimal string as transmitted; may be malformed
	Message string
}

// NewDataPacket builds a fresh outbound data packet: status starts
// unclaimed and the crc field is a placeholder until Checksum + SetCRC are
// applied.
func NewDataPacket(src, dest, message string) *DataPacket {
	return &DataPacket{Src: src, Dest: dest, Status: StatusUnclaimed, CRC: "0", Message: message}
}

// SetCRC stores v in the packet's canonical decimal wire form.
func (p *DataPacket) SetCRC(v uint32) { p.CRC = formatCRC(v) }

// CRCValue parses the packet's crc field, accepting only the exact
// canonical decimal representation (no sign, no leading zeros). A parse
// failure is reported via the second return value, not an error — callers
// treat it as a CRC mismatch.
func (p *DataPacket) CRCValue() (uint32, bool) { return parseCRC(p.CRC) }

// Encode renders the packet to its wire form:
//
//	2000;<src>:<dest>:<status>:<crc>:<message>
//
// message is not escaped: it may itself contain colons, which is why
// decoding splits into at most five fields with the last absorbing the
// remainder.
func (p *DataPacket) Encode() []byte {
	return []byte(fmt.Sprintf("%s;%s:%s:%s:%s:%s", dataWireTag, p.Src, p.Dest, p.Status, p.CRC, p.Message))
}

// DecodePacket parses a data packet's wire form. It fails with
// ErrMalformedPacket when the "2000" prefix or the ";" separator is
// missing, or when fewer than five colon-separated fields can be
// recovered. It is never called on the token wire form.
func DecodePacket(payload []byte) (*DataPacket, error) {
	s := string(payload)

	prefix, rest, found := strings.Cut(s, ";")
	if !found {
		return nil, fmt.Errorf("%w: missing ';' separator", ErrMalformedPacket)
	}
	if prefix != dataWireTag {
		return nil, fmt.Errorf("%w: expected %q prefix, got %q", ErrMalformedPacket, dataWireTag, prefix)
	}

	parts := strings.SplitN(rest, ":", 5)
	if len(parts) != 5 {
		return nil, fmt.Errorf("%w: expected 5 fields, got %d", ErrMalformedPacket, len(parts))
	}

	return &DataPacket{
		Src:     parts[0],
		Dest:    parts[1],
		Status:  Status(parts[2]),
		CRC:     parts[3],
		Message: parts[4],
	}, nil
}

func formatCRC(v uint32) string { return strconv.FormatUint(uint64(v), 10) }

// parseCRC accepts only the exact canonical decimal form of a uint32: no
// sign, no leading zeros (other than the single digit "0" itself).
func parseCRC(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}
