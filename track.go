package hwvideo

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// MimeTypeRawVideo is the RFC 4175 uncompressed video media type.
const MimeTypeRawVideo = "video/raw"

// TrackState represents the state of a track.
type TrackState int

const (
	TrackStateLive  TrackState = iota // Track is active and accepting packets
	TrackStateEnded                   // Track has ended
)

func (s TrackState) String() string {
	switch s {
	case TrackStateLive:
		return "live"
	case TrackStateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// rawSampling maps a packed pixel format to its RFC 4175 sampling name.
func rawSampling(format PixelFormat) (string, bool) {
	switch format {
	case PixelFormatBGR0:
		return "BGRA", true
	case PixelFormatRGB0:
		return "RGBA", true
	case PixelFormatUYVY:
		return "YCbCr-4:2:2", true
	default:
		return "", false
	}
}

// RawVideoCodecCapability builds the webrtc codec capability for
// uncompressed video of the given format and geometry. The fmtp line
// carries the sampling, depth and dimensions a receiver needs to
// reassemble frames.
func RawVideoCodecCapability(format PixelFormat, width, height int) (webrtc.RTPCodecCapability, error) {
	sampling, ok := rawSampling(format)
	if !ok {
		return webrtc.RTPCodecCapability{}, fmt.Errorf("no raw video sampling for pixel format %s", format)
	}
	return webrtc.RTPCodecCapability{
		MimeType:    MimeTypeRawVideo,
		ClockRate:   VideoClockRate,
		SDPFmtpLine: fmt.Sprintf("sampling=%s; depth=8; width=%d; height=%d", sampling, width, height),
	}, nil
}

// RegisterRawVideoCodec registers the uncompressed video codec with a
// pion MediaEngine under the given dynamic payload type. Call this
// before building the PeerConnection that will carry a PreviewTrack.
func RegisterRawVideoCodec(engine *webrtc.MediaEngine, payloadType uint8, format PixelFormat, width, height int) error {
	capability, err := RawVideoCodecCapability(format, width, height)
	if err != nil {
		return err
	}
	return engine.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: capability,
		PayloadType:        webrtc.PayloadType(payloadType),
	}, webrtc.RTPCodecTypeVideo)
}

// PreviewTrack implements pion's webrtc.TrackLocal for uncompressed
// video. It accepts packets from a RawVideoPacketizer (it satisfies
// RTPWriter) and fans them out to every bound peer connection.
type PreviewTrack struct {
	id       string
	streamID string
	codec    webrtc.RTPCodecCapability

	state   atomic.Int32
	endedCb func()
	mu      sync.Mutex

	bindMu   sync.RWMutex
	bindings []webrtc.TrackLocalContext
}

// NewPreviewTrack creates a local track carrying uncompressed video of
// the given format and geometry.
func NewPreviewTrack(id, streamID string, format PixelFormat, width, height int) (*PreviewTrack, error) {
	codec, err := RawVideoCodecCapability(format, width, height)
	if err != nil {
		return nil, err
	}
	t := &PreviewTrack{
		id:       id,
		streamID: streamID,
		codec:    codec,
	}
	t.state.Store(int32(TrackStateLive))
	return t, nil
}

func (t *PreviewTrack) ID() string                { return t.id }
func (t *PreviewTrack) StreamID() string          { return t.streamID }
func (t *PreviewTrack) RID() string               { return "" }
func (t *PreviewTrack) Kind() webrtc.RTPCodecType { return webrtc.RTPCodecTypeVideo }

// Codec returns the codec capability.
func (t *PreviewTrack) Codec() webrtc.RTPCodecCapability {
	return t.codec
}

// State returns the current track state.
func (t *PreviewTrack) State() TrackState {
	return TrackState(t.state.Load())
}

// OnEnded sets a callback for when the track ends.
func (t *PreviewTrack) OnEnded(callback func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endedCb = callback
}

// Bind implements webrtc.TrackLocal.
func (t *PreviewTrack) Bind(ctx webrtc.TrackLocalContext) (webrtc.RTPCodecParameters, error) {
	t.bindMu.Lock()
	defer t.bindMu.Unlock()

	t.bindings = append(t.bindings, ctx)

	// Find matching codec from negotiated parameters
	params := ctx.CodecParameters()
	for _, p := range params {
		if p.MimeType == t.codec.MimeType {
			return p, nil
		}
	}

	// Fallback: return our codec with default payload type
	return webrtc.RTPCodecParameters{
		RTPCodecCapability: t.codec,
	}, nil
}

// Unbind implements webrtc.TrackLocal.
func (t *PreviewTrack) Unbind(ctx webrtc.TrackLocalContext) error {
	t.bindMu.Lock()
	defer t.bindMu.Unlock()

	for i, b := range t.bindings {
		if b.ID() == ctx.ID() {
			t.bindings = append(t.bindings[:i], t.bindings[i+1:]...)
			break
		}
	}
	return nil
}

// WriteRTP writes an RTP packet to all bound contexts.
func (t *PreviewTrack) WriteRTP(p *RTPPacket) error {
	t.bindMu.RLock()
	defer t.bindMu.RUnlock()

	for _, b := range t.bindings {
		if _, err := b.WriteStream().WriteRTP(&p.Header, p.Payload); err != nil {
			return err
		}
	}
	return nil
}

// WriteRTPBytes writes raw RTP packet bytes to all bound contexts.
func (t *PreviewTrack) WriteRTPBytes(data []byte) error {
	var p rtp.Packet
	if err := p.Unmarshal(data); err != nil {
		return err
	}
	return t.WriteRTP(&p)
}

// Close ends the track.
func (t *PreviewTrack) Close() error {
	old := TrackState(t.state.Swap(int32(TrackStateEnded)))
	if old != TrackStateEnded {
		t.mu.Lock()
		cb := t.endedCb
		t.mu.Unlock()
		if cb != nil {
			go cb()
		}
	}
	return nil
}

var (
	_ webrtc.TrackLocal = (*PreviewTrack)(nil)
	_ RTPWriter         = (*PreviewTrack)(nil)
)
