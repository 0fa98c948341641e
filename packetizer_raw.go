package hwvideo

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pion/rtp"
)

// rawPayloadHeaderSize is the fixed RFC 4175 payload prefix: a 16-bit
// extended sequence number.
const rawPayloadHeaderSize = 2

// rawSegmentHeaderSize is one RFC 4175 sample-row segment header:
// 16-bit length, field bit + 15-bit line number, continuation bit +
// 15-bit pixel offset.
const rawSegmentHeaderSize = 6

// pixelGroup describes the smallest byte-aligned pixel grouping for a
// packed format; segments always carry whole groups.
func pixelGroup(format PixelFormat) (groupBytes, groupPixels int, ok bool) {
	switch format {
	case PixelFormatBGR0, PixelFormatRGB0:
		return 4, 1, true
	case PixelFormatUYVY:
		return 4, 2, true
	default:
		return 0, 0, false
	}
}

// RawVideoPacketizer segments packed raw video frames into RTP packets
// using the RFC 4175 uncompressed video payload layout. Each packet
// carries one or more sample-row segments; rows too large for the MTU
// continue in the next packet, and the marker bit closes each frame.
type RawVideoPacketizer struct {
	ssrc        uint32
	payloadType uint8
	mtu         int
	sequencer   rtp.Sequencer
	mu          sync.Mutex
}

// NewRawVideoPacketizer creates a raw video RTP packetizer.
func NewRawVideoPacketizer(ssrc uint32, pt uint8, mtu int) (*RawVideoPacketizer, error) {
	if mtu <= 0 {
		mtu = DefaultMTU
	}
	if mtu < 12+rawPayloadHeaderSize+rawSegmentHeaderSize+4 {
		return nil, fmt.Errorf("mtu %d too small for raw video payload", mtu)
	}
	return &RawVideoPacketizer{
		ssrc:        ssrc,
		payloadType: pt,
		mtu:         mtu,
		sequencer:   rtp.NewRandomSequencer(),
	}, nil
}

// rawSegment is one sample-row segment scheduled into a packet.
type rawSegment struct {
	line     int // scan line number
	offsetPx int // first pixel of the segment within the line
	length   int // data bytes
}

// Packetize converts a packed single-plane frame to RTP packets.
func (p *RawVideoPacketizer) Packetize(frame *VideoFrame) ([]*RTPPacket, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	groupBytes, groupPixels, ok := pixelGroup(frame.Format)
	if !ok {
		return nil, fmt.Errorf("raw packetizer: unsupported pixel format %s", frame.Format)
	}
	if len(frame.Data) != 1 || len(frame.Stride) != 1 {
		return nil, fmt.Errorf("raw packetizer: want 1 plane, got %d", len(frame.Data))
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("raw packetizer: invalid dimensions %dx%d", frame.Width, frame.Height)
	}

	rowBytes := frame.Width * groupBytes / groupPixels
	stride := frame.Stride[0]
	if stride < rowBytes || len(frame.Data[0]) < stride*(frame.Height-1)+rowBytes {
		return nil, fmt.Errorf("raw packetizer: plane too small for %dx%d", frame.Width, frame.Height)
	}

	timestamp := rtpTimestamp(frame.Timestamp)
	var packets []*RTPPacket

	line, offsetPx := 0, 0
	for line < frame.Height {
		budget := p.mtu - 12 - rawPayloadHeaderSize
		var segments []rawSegment

		for line < frame.Height && budget >= rawSegmentHeaderSize+groupBytes {
			budget -= rawSegmentHeaderSize
			offsetBytes := offsetPx * groupBytes / groupPixels
			remain := rowBytes - offsetBytes
			take := remain
			if take > budget {
				take = budget / groupBytes * groupBytes
			}
			segments = append(segments, rawSegment{line: line, offsetPx: offsetPx, length: take})
			budget -= take

			offsetBytes += take
			if offsetBytes >= rowBytes {
				line++
				offsetPx = 0
			} else {
				offsetPx = offsetBytes * groupPixels / groupBytes
			}
		}

		payload := make([]byte, 0, p.mtu-12)
		seq := p.sequencer.NextSequenceNumber()
		extSeq := uint16(p.sequencer.RollOverCount())
		payload = binary.BigEndian.AppendUint16(payload, extSeq)
		for i, seg := range segments {
			payload = binary.BigEndian.AppendUint16(payload, uint16(seg.length))
			payload = binary.BigEndian.AppendUint16(payload, uint16(seg.line)&0x7fff)
			off := uint16(seg.offsetPx) & 0x7fff
			if i < len(segments)-1 {
				off |= 0x8000 // continuation: another segment header follows
			}
			payload = binary.BigEndian.AppendUint16(payload, off)
		}
		for _, seg := range segments {
			start := seg.line*stride + seg.offsetPx*groupBytes/groupPixels
			payload = append(payload, frame.Data[0][start:start+seg.length]...)
		}

		packets = append(packets, &RTPPacket{
			Header: rtp.Header{
				Version:        2,
				Marker:         line >= frame.Height,
				PayloadType:    p.payloadType,
				SequenceNumber: seq,
				Timestamp:      timestamp,
				SSRC:           p.ssrc,
			},
			Payload: payload,
		})
	}

	return packets, nil
}

// PacketizeToBytes converts a frame to raw RTP packet bytes.
func (p *RawVideoPacketizer) PacketizeToBytes(frame *VideoFrame) ([][]byte, error) {
	packets, err := p.Packetize(frame)
	if err != nil {
		return nil, err
	}
	result := make([][]byte, len(packets))
	for i, pkt := range packets {
		result[i], _ = pkt.Marshal()
	}
	return result, nil
}

func (p *RawVideoPacketizer) SetSSRC(ssrc uint32)     { p.mu.Lock(); p.ssrc = ssrc; p.mu.Unlock() }
func (p *RawVideoPacketizer) SSRC() uint32            { p.mu.Lock(); defer p.mu.Unlock(); return p.ssrc }
func (p *RawVideoPacketizer) PayloadType() uint8      { p.mu.Lock(); defer p.mu.Unlock(); return p.payloadType }
func (p *RawVideoPacketizer) SetPayloadType(pt uint8) { p.mu.Lock(); p.payloadType = pt; p.mu.Unlock() }
func (p *RawVideoPacketizer) MTU() int                { p.mu.Lock(); defer p.mu.Unlock(); return p.mtu }
func (p *RawVideoPacketizer) SetMTU(mtu int)          { p.mu.Lock(); p.mtu = mtu; p.mu.Unlock() }

// rtpTimestamp converts a nanosecond timestamp to 90 kHz RTP units
// without overflowing intermediate products.
func rtpTimestamp(ns int64) uint32 {
	sec := ns / 1e9
	frac := ns % 1e9
	return uint32(sec*VideoClockRate + frac*VideoClockRate/1e9)
}

// RawVideoDepacketizer reassembles RFC 4175 packets into frames. The
// output geometry is fixed at construction; packets describing pixels
// outside it are rejected.
type RawVideoDepacketizer struct {
	format     PixelFormat
	width      int
	height     int
	groupBytes int
	groupPx    int
	rowBytes   int

	pixels    []byte
	timestamp uint32
	started   bool
	mu        sync.Mutex
}

// NewRawVideoDepacketizer creates a depacketizer producing frames of
// the given packed format and dimensions.
func NewRawVideoDepacketizer(format PixelFormat, width, height int) (*RawVideoDepacketizer, error) {
	groupBytes, groupPx, ok := pixelGroup(format)
	if !ok {
		return nil, fmt.Errorf("raw depacketizer: unsupported pixel format %s", format)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raw depacketizer: invalid dimensions %dx%d", width, height)
	}
	rowBytes := width * groupBytes / groupPx
	return &RawVideoDepacketizer{
		format:     format,
		width:      width,
		height:     height,
		groupBytes: groupBytes,
		groupPx:    groupPx,
		rowBytes:   rowBytes,
		pixels:     make([]byte, rowBytes*height),
	}, nil
}

// Depacketize processes an RTP packet and returns a complete frame
// when the packet carries the frame's marker. Returns nil while the
// frame is incomplete.
func (d *RawVideoDepacketizer) Depacketize(packet *RTPPacket) (*VideoFrame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// A new timestamp starts a new frame; drop any partial assembly.
	if d.started && packet.Header.Timestamp != d.timestamp {
		d.resetLocked()
	}
	d.timestamp = packet.Header.Timestamp
	d.started = true

	payload := packet.Payload
	if len(payload) < rawPayloadHeaderSize+rawSegmentHeaderSize {
		return nil, fmt.Errorf("raw depacketizer: payload too short (%d bytes)", len(payload))
	}

	// Parse segment headers until the continuation bit clears.
	pos := rawPayloadHeaderSize
	var segments []rawSegment
	for {
		if pos+rawSegmentHeaderSize > len(payload) {
			return nil, fmt.Errorf("raw depacketizer: truncated segment header")
		}
		length := int(binary.BigEndian.Uint16(payload[pos:]))
		lineNo := int(binary.BigEndian.Uint16(payload[pos+2:]) & 0x7fff)
		offWord := binary.BigEndian.Uint16(payload[pos+4:])
		pos += rawSegmentHeaderSize

		segments = append(segments, rawSegment{line: lineNo, offsetPx: int(offWord & 0x7fff), length: length})
		if offWord&0x8000 == 0 {
			break
		}
	}

	for _, seg := range segments {
		if pos+seg.length > len(payload) {
			return nil, fmt.Errorf("raw depacketizer: truncated segment data")
		}
		offsetBytes := seg.offsetPx * d.groupBytes / d.groupPx
		if seg.line >= d.height || offsetBytes+seg.length > d.rowBytes {
			return nil, fmt.Errorf("raw depacketizer: segment outside %dx%d frame (line %d, offset %d, len %d)",
				d.width, d.height, seg.line, seg.offsetPx, seg.length)
		}
		copy(d.pixels[seg.line*d.rowBytes+offsetBytes:], payload[pos:pos+seg.length])
		pos += seg.length
	}

	if !packet.Header.Marker {
		return nil, nil
	}

	frame := &VideoFrame{
		Data:   [][]byte{make([]byte, len(d.pixels))},
		Stride: []int{d.rowBytes},
		Width:  d.width,
		Height: d.height,
		Format: d.format,
	}
	copy(frame.Data[0], d.pixels)
	d.resetLocked()
	return frame, nil
}

// DepacketizeBytes processes raw RTP packet bytes.
func (d *RawVideoDepacketizer) DepacketizeBytes(data []byte) (*VideoFrame, error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(data); err != nil {
		return nil, err
	}
	return d.Depacketize(&pkt)
}

// Reset clears any buffered partial frame.
func (d *RawVideoDepacketizer) Reset() {
	d.mu.Lock()
	d.resetLocked()
	d.mu.Unlock()
}

func (d *RawVideoDepacketizer) resetLocked() {
	for i := range d.pixels {
		d.pixels[i] = 0
	}
	d.started = false
}
