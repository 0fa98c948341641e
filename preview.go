package hwvideo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// PreviewState represents the state of a preview streamer.
type PreviewState int

const (
	PreviewStateIdle    PreviewState = iota // Not started
	PreviewStateRunning                     // Streaming frames
	PreviewStateStopped                     // Stopped
)

func (s PreviewState) String() string {
	switch s {
	case PreviewStateIdle:
		return "idle"
	case PreviewStateRunning:
		return "running"
	case PreviewStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// PreviewStreamer handles: VideoSource -> RawVideoPacketizer -> RTPWriter.
// Frames are sent uncompressed, so this is meant for local preview and
// diagnostics rather than WAN streaming.
type PreviewStreamer struct {
	source     VideoSource         // Raw frame source
	packetizer *RawVideoPacketizer // RTP packetizer
	writer     RTPWriter           // Output writer

	state  atomic.Int32
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stats   PreviewStats
	statsMu sync.Mutex

	onError func(error)
	mu      sync.Mutex
}

// PreviewStats provides preview streamer statistics.
type PreviewStats struct {
	FramesCaptured  uint64
	FramesDropped   uint64
	PacketsSent     uint64
	BytesSent       uint64
	PacketizeTimeUs uint64
	Errors          uint64
}

// PreviewConfig configures a preview streamer.
type PreviewConfig struct {
	Source     VideoSource         // Raw frame source
	Packetizer *RawVideoPacketizer // RTP packetizer
	Writer     RTPWriter           // Output writer
	OnError    func(error)         // Error callback
}

// NewPreviewStreamer creates a new preview streamer.
func NewPreviewStreamer(config PreviewConfig) (*PreviewStreamer, error) {
	if config.Source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if config.Packetizer == nil {
		return nil, fmt.Errorf("packetizer is required")
	}
	if config.Writer == nil {
		return nil, fmt.Errorf("writer is required")
	}

	p := &PreviewStreamer{
		source:     config.Source,
		packetizer: config.Packetizer,
		writer:     config.Writer,
		onError:    config.OnError,
	}
	p.state.Store(int32(PreviewStateIdle))

	return p, nil
}

// Start starts the streamer.
func (p *PreviewStreamer) Start() error {
	if PreviewState(p.state.Load()) == PreviewStateRunning {
		return fmt.Errorf("preview already running")
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.state.Store(int32(PreviewStateRunning))

	if err := p.source.Start(p.ctx); err != nil {
		p.state.Store(int32(PreviewStateIdle))
		return fmt.Errorf("failed to start source: %w", err)
	}

	p.wg.Add(1)
	go p.processLoop()

	return nil
}

// Stop stops the streamer.
func (p *PreviewStreamer) Stop() error {
	if PreviewState(p.state.Load()) != PreviewStateRunning {
		return nil
	}

	p.state.Store(int32(PreviewStateStopped))
	p.cancel()
	p.wg.Wait()

	p.source.Stop()

	return nil
}

// Close closes the streamer and releases the source.
func (p *PreviewStreamer) Close() error {
	p.Stop()
	return p.source.Close()
}

// State returns the current streamer state.
func (p *PreviewStreamer) State() PreviewState {
	return PreviewState(p.state.Load())
}

// Stats returns streamer statistics.
func (p *PreviewStreamer) Stats() PreviewStats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.stats
}

func (p *PreviewStreamer) processLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		frame, err := p.source.ReadFrame(p.ctx)
		if err != nil {
			if p.ctx.Err() != nil {
				return // Context cancelled
			}
			p.handleError(err)
			continue
		}

		if frame == nil {
			continue
		}

		p.statsMu.Lock()
		p.stats.FramesCaptured++
		p.statsMu.Unlock()

		// Packetize
		packetizeStart := time.Now()
		packets, err := p.packetizer.PacketizeToBytes(frame)
		packetizeTime := time.Since(packetizeStart)

		if err != nil {
			p.handleError(err)
			p.statsMu.Lock()
			p.stats.FramesDropped++
			p.statsMu.Unlock()
			continue
		}

		p.statsMu.Lock()
		p.stats.PacketizeTimeUs += uint64(packetizeTime.Microseconds())
		p.statsMu.Unlock()

		// Send packets
		for _, pkt := range packets {
			if err := p.writer.WriteRTPBytes(pkt); err != nil {
				p.handleError(err)
				continue
			}

			p.statsMu.Lock()
			p.stats.PacketsSent++
			p.stats.BytesSent += uint64(len(pkt))
			p.statsMu.Unlock()
		}
	}
}

func (p *PreviewStreamer) handleError(err error) {
	p.statsMu.Lock()
	p.stats.Errors++
	p.statsMu.Unlock()

	p.mu.Lock()
	cb := p.onError
	p.mu.Unlock()

	if cb != nil {
		go cb(err)
	}
}
