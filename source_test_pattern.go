package hwvideo

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// PatternType defines the type of test pattern to generate.
type PatternType int

const (
	PatternColorBars  PatternType = iota // SMPTE-style color bars
	PatternGradient                      // Horizontal gradient
	PatternSolidColor                    // Solid color
	PatternMovingBox                     // Moving box (animated)
)

func (p PatternType) String() string {
	switch p {
	case PatternColorBars:
		return "ColorBars"
	case PatternGradient:
		return "Gradient"
	case PatternSolidColor:
		return "SolidColor"
	case PatternMovingBox:
		return "MovingBox"
	default:
		return "Unknown"
	}
}

// TestPatternConfig configures a test pattern source.
type TestPatternConfig struct {
	Width    int         // Frame width (default: 1280)
	Height   int         // Frame height (default: 720)
	FPS      int         // Frames per second (default: 30)
	Pattern  PatternType // Pattern type (default: ColorBars)
	Format   PixelFormat // BGR0 or RGB0 (default: BGR0, the primary capture layout)
	Animated bool        // Enable animation for static patterns (MovingBox always animates)

	// For SolidColor pattern
	SolidR, SolidG, SolidB uint8
}

// DefaultTestPatternConfig returns a default test pattern configuration.
func DefaultTestPatternConfig() TestPatternConfig {
	return TestPatternConfig{
		Width:   1280,
		Height:  720,
		FPS:     30,
		Pattern: PatternColorBars,
		Format:  PixelFormatBGR0,
	}
}

// TestPatternSource generates synthetic packed video frames. It
// produces the same 32-bit layouts as swapchain frame capture, so the
// preview path can be exercised without a device.
type TestPatternSource struct {
	config TestPatternConfig

	// Pre-allocated packed pixel buffer, one plane.
	pixels []byte
	stride int

	// Byte offsets of the R, G, B channels within a pixel group.
	rOff, gOff, bOff int

	// Frame timing
	frameDuration time.Duration
	frameCount    uint64
	startTime     time.Time

	// State
	running  atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	frameCh  chan *VideoFrame
	doneCh   chan struct{}
	callback VideoFrameCallback

	mu sync.RWMutex
}

// NewTestPatternSource creates a new test pattern video source.
func NewTestPatternSource(config TestPatternConfig) *TestPatternSource {
	if config.Width <= 0 {
		config.Width = 1280
	}
	if config.Height <= 0 {
		config.Height = 720
	}
	if config.FPS <= 0 {
		config.FPS = 30
	}
	if config.Format != PixelFormatRGB0 {
		config.Format = PixelFormatBGR0
	}

	s := &TestPatternSource{
		config:        config,
		stride:        config.Width * 4,
		pixels:        make([]byte, config.Width*config.Height*4),
		frameDuration: time.Second / time.Duration(config.FPS),
		frameCh:       make(chan *VideoFrame, 2),
	}
	if config.Format == PixelFormatRGB0 {
		s.rOff, s.gOff, s.bOff = 0, 1, 2
	} else {
		s.bOff, s.gOff, s.rOff = 0, 1, 2
	}

	s.generatePattern(0)

	return s
}

// Start begins generating frames.
func (s *TestPatternSource) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("source already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.doneCh = make(chan struct{})
	s.running.Store(true)
	s.startTime = time.Now()
	s.frameCount = 0

	go s.generateLoop()

	return nil
}

// Stop stops generating frames and waits for the goroutine to exit.
func (s *TestPatternSource) Stop() error {
	if !s.running.Load() {
		return nil
	}

	s.running.Store(false)
	if s.cancel != nil {
		s.cancel()
	}

	// Wait for goroutine to finish
	if s.doneCh != nil {
		<-s.doneCh
	}

	return nil
}

// Close closes the source.
func (s *TestPatternSource) Close() error {
	s.Stop()
	s.mu.Lock()
	if s.frameCh != nil {
		close(s.frameCh)
		s.frameCh = nil
	}
	s.mu.Unlock()
	return nil
}

// ReadFrame reads the next frame (blocking).
func (s *TestPatternSource) ReadFrame(ctx context.Context) (*VideoFrame, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case frame, ok := <-s.frameCh:
		if !ok {
			return nil, fmt.Errorf("source closed")
		}
		return frame, nil
	}
}

// SetCallback sets the push-mode callback.
func (s *TestPatternSource) SetCallback(cb VideoFrameCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callback = cb
}

// Config returns the source configuration.
func (s *TestPatternSource) Config() SourceConfig {
	return SourceConfig{
		Width:      s.config.Width,
		Height:     s.config.Height,
		FPS:        s.config.FPS,
		Format:     s.config.Format,
		SourceType: SourceTypeTestPattern,
	}
}

func (s *TestPatternSource) generateLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.frameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.frameCount++

			if s.config.Animated || s.config.Pattern == PatternMovingBox {
				s.generatePattern(s.frameCount)
			}

			frame := &VideoFrame{
				Data:      [][]byte{s.pixels},
				Stride:    []int{s.stride},
				Width:     s.config.Width,
				Height:    s.config.Height,
				Format:    s.config.Format,
				Timestamp: time.Since(s.startTime).Nanoseconds(),
				Duration:  s.frameDuration.Nanoseconds(),
			}

			// Deliver via callback or channel
			s.mu.RLock()
			cb := s.callback
			s.mu.RUnlock()

			if cb != nil {
				cb(frame)
			} else {
				select {
				case <-s.ctx.Done():
					return
				case s.frameCh <- frame:
				default:
					// Drop frame if channel full
				}
			}
		}
	}
}

func (s *TestPatternSource) generatePattern(frameNum uint64) {
	switch s.config.Pattern {
	case PatternGradient:
		s.generateGradient()
	case PatternSolidColor:
		s.fill(s.config.SolidR, s.config.SolidG, s.config.SolidB)
	case PatternMovingBox:
		s.generateMovingBox(frameNum)
	default:
		s.generateColorBars()
	}
}

func (s *TestPatternSource) setPixel(x, y int, r, g, b uint8) {
	off := y*s.stride + x*4
	s.pixels[off+s.rOff] = r
	s.pixels[off+s.gOff] = g
	s.pixels[off+s.bOff] = b
}

func (s *TestPatternSource) fill(r, g, b uint8) {
	for y := 0; y < s.config.Height; y++ {
		for x := 0; x < s.config.Width; x++ {
			s.setPixel(x, y, r, g, b)
		}
	}
}

// Simplified 8-bar pattern at 75% intensity.
var colorBarsRGB = [][3]uint8{
	{192, 192, 192}, // White
	{192, 192, 0},   // Yellow
	{0, 192, 192},   // Cyan
	{0, 192, 0},     // Green
	{192, 0, 192},   // Magenta
	{192, 0, 0},     // Red
	{0, 0, 192},     // Blue
	{16, 16, 16},    // Black
}

func (s *TestPatternSource) generateColorBars() {
	w, h := s.config.Width, s.config.Height
	barWidth := w / 8

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			barIdx := x / barWidth
			if barIdx >= 8 {
				barIdx = 7
			}
			rgb := colorBarsRGB[barIdx]
			s.setPixel(x, y, rgb[0], rgb[1], rgb[2])
		}
	}
}

func (s *TestPatternSource) generateGradient() {
	w, h := s.config.Width, s.config.Height

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x * 255) / w)
			s.setPixel(x, y, v, v, v)
		}
	}
}

func (s *TestPatternSource) generateMovingBox(frameNum uint64) {
	w, h := s.config.Width, s.config.Height

	s.fill(16, 16, 16)

	// Box moves in a circle around the frame center.
	boxSize := 100
	centerX := w / 2
	centerY := h / 2
	radius := float64(min(w, h)) / 4

	angle := float64(frameNum) * 0.05 // Radians per frame
	boxX := centerX + int(radius*math.Cos(angle)) - boxSize/2
	boxY := centerY + int(radius*math.Sin(angle)) - boxSize/2

	for y := boxY; y < boxY+boxSize && y < h; y++ {
		if y < 0 {
			continue
		}
		for x := boxX; x < boxX+boxSize && x < w; x++ {
			if x < 0 {
				continue
			}
			s.setPixel(x, y, 235, 235, 235)
		}
	}
}

// Register test pattern source factory
func init() {
	RegisterVideoSource(SourceTypeTestPattern, func(config interface{}) (VideoSource, error) {
		cfg, ok := config.(*TestPatternConfig)
		if !ok {
			// Use default config
			defaultCfg := DefaultTestPatternConfig()
			cfg = &defaultCfg
		}
		return NewTestPatternSource(*cfg), nil
	})
}
