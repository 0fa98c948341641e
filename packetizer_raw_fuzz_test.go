package hwvideo

import (
	"testing"

	"github.com/pion/rtp"
)

// FuzzRawVideoDepacketizerBytes feeds arbitrary packet bytes into the
// depacketizer. Run with: go test -fuzz=FuzzRawVideoDepacketizerBytes -fuzztime=30s
func FuzzRawVideoDepacketizerBytes(f *testing.F) {
	// Seed with real packets from the packetizer so the fuzzer starts
	// from the valid wire layout.
	p, err := NewRawVideoPacketizer(0x11223344, 96, 200)
	if err != nil {
		f.Fatalf("NewRawVideoPacketizer failed: %v", err)
	}
	frame := NewPackedFrame(PixelFormatBGR0, 16, 4)
	for i := range frame.Data[0] {
		frame.Data[0][i] = byte(i)
	}
	frame.Timestamp = 1_000_000_000
	valid, err := p.PacketizeToBytes(frame)
	if err != nil {
		f.Fatalf("PacketizeToBytes failed: %v", err)
	}
	for _, pkt := range valid {
		f.Add(pkt)
	}

	// Edge cases
	seeds := [][]byte{
		{},
		{0x80},
		{0x80, 0x60, 0x00, 0x01},
		// header only, no payload
		{0x80, 0x60, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x11, 0x22, 0x33, 0x44},
		// marker set, payload holds only the extended sequence number
		{0x80, 0xe0, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x11, 0x22, 0x33, 0x44, 0x00, 0x00},
		// truncated segment header
		{0x80, 0xe0, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x11, 0x22, 0x33, 0x44, 0x00, 0x00, 0xff, 0xff},
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	d, err := NewRawVideoDepacketizer(PixelFormatBGR0, 16, 4)
	if err != nil {
		f.Fatalf("NewRawVideoDepacketizer failed: %v", err)
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		// Must never panic regardless of input.
		frame, err := d.DepacketizeBytes(data)
		if err != nil {
			return
		}
		if frame == nil {
			return
		}

		// A completed frame always has the constructed geometry.
		if frame.Width != 16 || frame.Height != 4 {
			t.Errorf("frame geometry %dx%d, want 16x4", frame.Width, frame.Height)
		}
		if len(frame.Data) != 1 || len(frame.Stride) != 1 {
			t.Errorf("frame has %d planes, want 1", len(frame.Data))
		}
		if len(frame.Data[0]) != 16*4*4 {
			t.Errorf("frame plane size %d, want %d", len(frame.Data[0]), 16*4*4)
		}
		if frame.Format != PixelFormatBGR0 {
			t.Errorf("frame format %v, want BGR0", frame.Format)
		}
	})
}

// FuzzRawVideoDepacketizerPayload fuzzes the payload parser directly
// under a well-formed RTP header.
func FuzzRawVideoDepacketizerPayload(f *testing.F) {
	seeds := [][]byte{
		{},
		{0x00, 0x00},
		// one segment header claiming 64 bytes, no data
		{0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00},
		// line 0, offset 0, 4 data bytes
		{0x00, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00, 0x00, 0xaa, 0xbb, 0xcc, 0xdd},
		// line and offset out of range
		{0x00, 0x00, 0x00, 0x04, 0x7f, 0xff, 0x7f, 0xff, 0xaa, 0xbb, 0xcc, 0xdd},
		// continuation bit with the next header missing
		{0x00, 0x00, 0x00, 0x04, 0x00, 0x00, 0x80, 0x00},
		// declared length exceeds the payload
		{0x00, 0x00, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00},
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	d, err := NewRawVideoDepacketizer(PixelFormatUYVY, 32, 8)
	if err != nil {
		f.Fatalf("NewRawVideoDepacketizer failed: %v", err)
	}

	f.Fuzz(func(t *testing.T, payload []byte) {
		pkt := &RTPPacket{
			Header: rtp.Header{
				Version:     2,
				Marker:      true,
				PayloadType: 96,
				Timestamp:   90000,
				SSRC:        0x11223344,
			},
			Payload: payload,
		}

		// Must never panic; errors are expected for malformed payloads.
		frame, err := d.Depacketize(pkt)
		if err != nil || frame == nil {
			return
		}
		if frame.Width != 32 || frame.Height != 8 {
			t.Errorf("frame geometry %dx%d, want 32x8", frame.Width, frame.Height)
		}
	})
}
