package hwvideo

import "github.com/pion/rtp"

// Re-export pion/rtp types for convenience
type (
	// RTPPacket is an alias to pion's rtp.Packet
	RTPPacket = rtp.Packet

	// RTPHeader is an alias to pion's rtp.Header
	RTPHeader = rtp.Header
)

// Default MTU for RTP packets (UDP safe)
const DefaultMTU = 1200

// VideoClockRate is the RTP clock rate for video payloads.
const VideoClockRate = 90000

// RTPWriter is an interface for writing RTP packets.
type RTPWriter interface {
	// WriteRTP writes an RTP packet.
	WriteRTP(packet *RTPPacket) error

	// WriteRTPBytes writes raw RTP packet bytes.
	WriteRTPBytes(data []byte) error
}

// RTPReader is an interface for reading RTP packets.
type RTPReader interface {
	// ReadRTP reads an RTP packet.
	ReadRTP() (*RTPPacket, error)

	// ReadRTPBytes reads raw RTP packet bytes.
	ReadRTPBytes(buf []byte) (int, error)
}

// IsRTPTimestampOlder returns true if ts1 is older than or equal to ts2,
// handling 32-bit wraparound correctly per RTP timestamp comparison rules.
// This is used by depacketizers to discard late-arriving packets.
func IsRTPTimestampOlder(ts1, ts2 uint32) bool {
	if ts1 == ts2 {
		return true
	}
	// Standard RTP timestamp comparison with wraparound handling:
	// ts1 is older if (ts2 - ts1) < 2^31
	diff := ts2 - ts1
	return diff < 0x80000000
}
