//go:build windows

package hwvideo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// SwapchainSourceConfig configures a swapchain capture source.
type SwapchainSourceConfig struct {
	// Swapchain to capture from. When nil, a device and flip-model
	// swapchain are negotiated on Window and owned by the source.
	Swapchain *Swapchain

	// Window is the target window handle, used only when Swapchain is
	// nil.
	Window uintptr

	// Width and Height of the negotiated swapchain when Swapchain is
	// nil.
	Width  int
	Height int

	// FPS is the capture rate (default: 30).
	FPS int

	// Device holds negotiation options used when Swapchain is nil.
	Device DeviceConfig
}

// SwapchainSource captures presented backbuffers as video frames. The
// underlying swapchain must use flip-model presentation; bitblt-model
// chains cannot be read back after present.
type SwapchainSource struct {
	swapchain *Swapchain
	device    *Device // Owned device when the source negotiated its own chain
	owned     bool

	fps           int
	frameDuration time.Duration

	// State
	running  atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	frameCh  chan *VideoFrame
	doneCh   chan struct{}
	callback VideoFrameCallback

	mu sync.RWMutex
}

// NewSwapchainSource creates a video source over a swapchain. When
// config.Swapchain is nil the source negotiates a device and swapchain
// on config.Window and releases them on Close.
func NewSwapchainSource(config SwapchainSourceConfig) (*SwapchainSource, error) {
	if config.FPS <= 0 {
		config.FPS = 30
	}

	s := &SwapchainSource{
		swapchain:     config.Swapchain,
		fps:           config.FPS,
		frameDuration: time.Second / time.Duration(config.FPS),
		frameCh:       make(chan *VideoFrame, 2),
	}

	if s.swapchain == nil {
		if config.Window == 0 {
			return nil, fmt.Errorf("swapchain source: window handle is required")
		}
		dev, err := CreateDevice(config.Device)
		if err != nil {
			return nil, err
		}
		sc, err := CreateSwapchain(dev, SwapchainConfig{
			Window: config.Window,
			Width:  config.Width,
			Height: config.Height,
			Flip:   true,
		})
		if err != nil {
			dev.Close()
			return nil, err
		}
		s.device = dev
		s.swapchain = sc
		s.owned = true
	}

	if s.swapchain.PresentMode() != PresentModeFlipSequential {
		if s.owned {
			s.swapchain.Close()
			s.device.Close()
		}
		return nil, fmt.Errorf("%w: swapchain is not flip-model", ErrCaptureUnsupported)
	}

	return s, nil
}

// Start begins capturing frames.
func (s *SwapchainSource) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("source already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.doneCh = make(chan struct{})
	s.running.Store(true)

	go s.captureLoop()

	return nil
}

// Stop stops capturing and waits for the goroutine to exit.
func (s *SwapchainSource) Stop() error {
	if !s.running.Load() {
		return nil
	}

	s.running.Store(false)
	if s.cancel != nil {
		s.cancel()
	}

	if s.doneCh != nil {
		<-s.doneCh
	}

	return nil
}

// Close closes the source, releasing any owned device and swapchain.
func (s *SwapchainSource) Close() error {
	s.Stop()
	s.mu.Lock()
	if s.frameCh != nil {
		close(s.frameCh)
		s.frameCh = nil
	}
	s.mu.Unlock()
	if s.owned {
		s.swapchain.Close()
		s.device.Close()
	}
	return nil
}

// ReadFrame reads the next captured frame (blocking).
func (s *SwapchainSource) ReadFrame(ctx context.Context) (*VideoFrame, error) {
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
func (s *SwapchainSource) SetCallback(cb VideoFrameCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callback = cb
}

// Config returns the source configuration.
func (s *SwapchainSource) Config() SourceConfig {
	format, _ := pixelFormatForDXGI(s.swapchain.Format())
	return SourceConfig{
		Width:      s.swapchain.width,
		Height:     s.swapchain.height,
		FPS:        s.fps,
		Format:     format,
		SourceType: SourceTypeSwapchain,
	}
}

// Swapchain returns the swapchain being captured.
func (s *SwapchainSource) Swapchain() *Swapchain {
	return s.swapchain
}

// Device returns the owned device, or nil when the swapchain was
// provided by the caller.
func (s *SwapchainSource) Device() *Device {
	return s.device
}

func (s *SwapchainSource) captureLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.frameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			frame, err := s.swapchain.CaptureFrame()
			if err != nil {
				if errors.Is(err, ErrCaptureUnsupported) {
					Logger().Warn("swapchain capture unsupported, stopping source", "error", err)
					return
				}
				Logger().Debug("swapchain capture failed", "error", err)
				continue
			}
			frame.Duration = s.frameDuration.Nanoseconds()

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

// Register swapchain source factory
func init() {
	RegisterVideoSource(SourceTypeSwapchain, func(config interface{}) (VideoSource, error) {
		cfg, ok := config.(*SwapchainSourceConfig)
		if !ok {
			return nil, fmt.Errorf("swapchain source: want *SwapchainSourceConfig, got %T", config)
		}
		return NewSwapchainSource(*cfg)
	})
}
