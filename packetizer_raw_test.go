package hwvideo

import (
	"bytes"
	"testing"
)

// patternFrame builds a packed frame with a deterministic byte pattern.
func patternFrame(format PixelFormat, width, height int) *VideoFrame {
	frame := NewPackedFrame(format, width, height)
	for i := range frame.Data[0] {
		frame.Data[0][i] = byte(i*7 + 3)
	}
	frame.Timestamp = 1_000_000_000
	return frame
}

func TestRawVideoPacketizer(t *testing.T) {
	pkt, err := NewRawVideoPacketizer(12345, 96, 1200)
	if err != nil {
		t.Fatalf("NewRawVideoPacketizer failed: %v", err)
	}

	// Small enough for a single packet
	frame := patternFrame(PixelFormatBGR0, 16, 8)
	packets, err := pkt.Packetize(frame)
	if err != nil {
		t.Fatalf("Packetize failed: %v", err)
	}
	if len(packets) != 1 {
		t.Fatalf("got %d packets, want 1", len(packets))
	}

	p := packets[0]
	if p.Header.SSRC != 12345 {
		t.Errorf("SSRC = %d, want 12345", p.Header.SSRC)
	}
	if p.Header.PayloadType != 96 {
		t.Errorf("PayloadType = %d, want 96", p.Header.PayloadType)
	}
	if p.Header.Timestamp != 90000 {
		t.Errorf("Timestamp = %d, want 90000", p.Header.Timestamp)
	}
	if !p.Header.Marker {
		t.Error("single packet should carry the frame marker")
	}

	// 2 bytes extended sequence, 8 segment headers, 8 rows of 64 bytes
	wantLen := rawPayloadHeaderSize + 8*rawSegmentHeaderSize + 8*64
	if len(p.Payload) != wantLen {
		t.Errorf("payload length = %d, want %d", len(p.Payload), wantLen)
	}
}

func TestRawVideoPacketizer_SplitsLongLines(t *testing.T) {
	pkt, err := NewRawVideoPacketizer(1, 96, 1200)
	if err != nil {
		t.Fatalf("NewRawVideoPacketizer failed: %v", err)
	}

	// 640*4 = 2560 bytes per line, more than double the MTU budget.
	frame := patternFrame(PixelFormatBGR0, 640, 4)
	packets, err := pkt.Packetize(frame)
	if err != nil {
		t.Fatalf("Packetize failed: %v", err)
	}
	if len(packets) < 8 {
		t.Fatalf("got %d packets for 4 split lines, want at least 8", len(packets))
	}

	for i, p := range packets {
		if len(p.Payload)+12 > 1200 {
			t.Errorf("packet %d exceeds MTU: %d bytes", i, len(p.Payload)+12)
		}
		if i < len(packets)-1 && p.Header.Marker {
			t.Errorf("packet %d carries marker before the last", i)
		}
		if p.Header.Timestamp != packets[0].Header.Timestamp {
			t.Errorf("packet %d timestamp differs within one frame", i)
		}
	}
	if !packets[len(packets)-1].Header.Marker {
		t.Error("last packet should carry the frame marker")
	}

	// Sequence numbers are consecutive within the frame.
	for i := 1; i < len(packets); i++ {
		if packets[i].Header.SequenceNumber != packets[i-1].Header.SequenceNumber+1 {
			t.Errorf("sequence gap between packets %d and %d", i-1, i)
		}
	}
}

func TestRawVideoPacketizer_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		format PixelFormat
		width  int
		height int
		mtu    int
	}{
		{"bgr0 single packet", PixelFormatBGR0, 16, 8, 1200},
		{"bgr0 split lines", PixelFormatBGR0, 640, 16, 1200},
		{"rgb0 multi segment", PixelFormatRGB0, 32, 32, 1200},
		{"uyvy", PixelFormatUYVY, 64, 8, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt, err := NewRawVideoPacketizer(7, 96, tt.mtu)
			if err != nil {
				t.Fatalf("NewRawVideoPacketizer failed: %v", err)
			}
			dep, err := NewRawVideoDepacketizer(tt.format, tt.width, tt.height)
			if err != nil {
				t.Fatalf("NewRawVideoDepacketizer failed: %v", err)
			}

			frame := patternFrame(tt.format, tt.width, tt.height)
			packets, err := pkt.Packetize(frame)
			if err != nil {
				t.Fatalf("Packetize failed: %v", err)
			}

			var got *VideoFrame
			for i, p := range packets {
				out, err := dep.Depacketize(p)
				if err != nil {
					t.Fatalf("Depacketize packet %d failed: %v", i, err)
				}
				if i < len(packets)-1 && out != nil {
					t.Fatalf("packet %d completed the frame early", i)
				}
				if i == len(packets)-1 {
					got = out
				}
			}

			if got == nil {
				t.Fatal("marker packet did not complete the frame")
			}
			if got.Width != tt.width || got.Height != tt.height || got.Format != tt.format {
				t.Errorf("frame = %dx%d %s, want %dx%d %s",
					got.Width, got.Height, got.Format, tt.width, tt.height, tt.format)
			}
			if !bytes.Equal(got.Data[0], frame.Data[0]) {
				t.Error("reassembled pixels differ from the source frame")
			}
		})
	}
}

func TestRawVideoPacketizer_PaddedStride(t *testing.T) {
	pkt, err := NewRawVideoPacketizer(7, 96, 1200)
	if err != nil {
		t.Fatalf("NewRawVideoPacketizer failed: %v", err)
	}

	// 16px rows padded to a 80-byte stride; padding must not leak
	// into the payload.
	const width, height, stride = 16, 4, 80
	frame := &VideoFrame{
		Data:   [][]byte{make([]byte, stride*height)},
		Stride: []int{stride},
		Width:  width,
		Height: height,
		Format: PixelFormatBGR0,
	}
	rowBytes := width * 4
	for row := 0; row < height; row++ {
		for i := 0; i < rowBytes; i++ {
			frame.Data[0][row*stride+i] = byte(row + i)
		}
		for i := rowBytes; i < stride; i++ {
			frame.Data[0][row*stride+i] = 0xEE
		}
	}

	packets, err := pkt.Packetize(frame)
	if err != nil {
		t.Fatalf("Packetize failed: %v", err)
	}

	dep, err := NewRawVideoDepacketizer(PixelFormatBGR0, width, height)
	if err != nil {
		t.Fatalf("NewRawVideoDepacketizer failed: %v", err)
	}
	var got *VideoFrame
	for _, p := range packets {
		if got, err = dep.Depacketize(p); err != nil {
			t.Fatalf("Depacketize failed: %v", err)
		}
	}
	if got == nil {
		t.Fatal("frame not completed")
	}
	for row := 0; row < height; row++ {
		for i := 0; i < rowBytes; i++ {
			if got.Data[0][row*rowBytes+i] != byte(row+i) {
				t.Fatalf("row %d byte %d = %#x, want %#x",
					row, i, got.Data[0][row*rowBytes+i], byte(row+i))
			}
		}
	}
}

func TestRawVideoPacketizer_Bytes(t *testing.T) {
	pkt, err := NewRawVideoPacketizer(7, 96, 1200)
	if err != nil {
		t.Fatalf("NewRawVideoPacketizer failed: %v", err)
	}
	dep, err := NewRawVideoDepacketizer(PixelFormatRGB0, 32, 8)
	if err != nil {
		t.Fatalf("NewRawVideoDepacketizer failed: %v", err)
	}

	frame := patternFrame(PixelFormatRGB0, 32, 8)
	raw, err := pkt.PacketizeToBytes(frame)
	if err != nil {
		t.Fatalf("PacketizeToBytes failed: %v", err)
	}

	var got *VideoFrame
	for _, data := range raw {
		if got, err = dep.DepacketizeBytes(data); err != nil {
			t.Fatalf("DepacketizeBytes failed: %v", err)
		}
	}
	if got == nil || !bytes.Equal(got.Data[0], frame.Data[0]) {
		t.Error("byte-level round trip did not reproduce the frame")
	}
}

func TestRawVideoPacketizer_UnsupportedFormat(t *testing.T) {
	pkt, err := NewRawVideoPacketizer(7, 96, 1200)
	if err != nil {
		t.Fatalf("NewRawVideoPacketizer failed: %v", err)
	}

	frame := &VideoFrame{
		Data:   [][]byte{make([]byte, 64*48), make([]byte, 64*24)},
		Stride: []int{64, 64},
		Width:  64,
		Height: 48,
		Format: PixelFormatNV12,
	}
	if _, err := pkt.Packetize(frame); err == nil {
		t.Error("expected error for a planar format")
	}
}

func TestRawVideoPacketizer_MTUBounds(t *testing.T) {
	if _, err := NewRawVideoPacketizer(1, 96, 20); err == nil {
		t.Error("expected error for an MTU below the minimum payload")
	}

	// Zero selects the default.
	pkt, err := NewRawVideoPacketizer(1, 96, 0)
	if err != nil {
		t.Fatalf("NewRawVideoPacketizer failed: %v", err)
	}
	if pkt.MTU() != DefaultMTU {
		t.Errorf("MTU = %d, want %d", pkt.MTU(), DefaultMTU)
	}
}

func TestRawVideoDepacketizer_GeometryMismatch(t *testing.T) {
	pkt, err := NewRawVideoPacketizer(1, 96, 1200)
	if err != nil {
		t.Fatalf("NewRawVideoPacketizer failed: %v", err)
	}
	frame := patternFrame(PixelFormatBGR0, 64, 4)
	packets, err := pkt.Packetize(frame)
	if err != nil {
		t.Fatalf("Packetize failed: %v", err)
	}

	// Receiver negotiated half the width; segments overflow its rows.
	dep, err := NewRawVideoDepacketizer(PixelFormatBGR0, 32, 4)
	if err != nil {
		t.Fatalf("NewRawVideoDepacketizer failed: %v", err)
	}
	if _, err := dep.Depacketize(packets[0]); err == nil {
		t.Error("expected error for segments outside the negotiated frame")
	}
}

func TestRawVideoDepacketizer_TimestampChange(t *testing.T) {
	pkt, err := NewRawVideoPacketizer(1, 96, 1200)
	if err != nil {
		t.Fatalf("NewRawVideoPacketizer failed: %v", err)
	}
	dep, err := NewRawVideoDepacketizer(PixelFormatBGR0, 640, 4)
	if err != nil {
		t.Fatalf("NewRawVideoDepacketizer failed: %v", err)
	}

	first := patternFrame(PixelFormatBGR0, 640, 4)
	firstPackets, err := pkt.Packetize(first)
	if err != nil {
		t.Fatalf("Packetize failed: %v", err)
	}

	second := patternFrame(PixelFormatBGR0, 640, 4)
	for i := range second.Data[0] {
		second.Data[0][i] = byte(i * 3)
	}
	second.Timestamp = first.Timestamp + 33_000_000
	secondPackets, err := pkt.Packetize(second)
	if err != nil {
		t.Fatalf("Packetize failed: %v", err)
	}

	// Half of the first frame arrives, then the second frame in full.
	// The stale partial must not contaminate the completed frame.
	for _, p := range firstPackets[:len(firstPackets)/2] {
		if _, err := dep.Depacketize(p); err != nil {
			t.Fatalf("Depacketize failed: %v", err)
		}
	}
	var got *VideoFrame
	for _, p := range secondPackets {
		if got, err = dep.Depacketize(p); err != nil {
			t.Fatalf("Depacketize failed: %v", err)
		}
	}
	if got == nil {
		t.Fatal("second frame not completed")
	}
	if !bytes.Equal(got.Data[0], second.Data[0]) {
		t.Error("completed frame contaminated by the interrupted one")
	}
}

func TestRTPTimestamp(t *testing.T) {
	tests := []struct {
		ns   int64
		want uint32
	}{
		{0, 0},
		{1_000_000_000, 90000},
		{500_000_000, 45000},
		{33_366_666, 3002}, // one frame at 29.97
	}

	for _, tt := range tests {
		if got := rtpTimestamp(tt.ns); got != tt.want {
			t.Errorf("rtpTimestamp(%d) = %d, want %d", tt.ns, got, tt.want)
		}
	}
}
