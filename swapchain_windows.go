//go:build windows

package hwvideo

import (
	"fmt"
	"unsafe"
)

// Swapchain wraps a negotiated IDXGISwapChain.
type Swapchain struct {
	handle      uintptr // IDXGISwapChain
	format      uint32
	presentMode PresentMode
	width       int
	height      int
	bufferCount int
}

// CreateSwapchain negotiates and creates a swapchain on dev's adapter
// for cfg.Window. Backbuffer formats are tried in preference order
// under the requested presentation model first; if every flip-model
// attempt fails the same formats are retried under the legacy bitblt
// model.
func CreateSwapchain(dev *Device, cfg SwapchainConfig) (*Swapchain, error) {
	if cfg.Window == 0 {
		return nil, fmt.Errorf("swapchain: window handle is required")
	}

	width, height := cfg.Width, cfg.Height
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	bufferCount := cfg.BufferCount
	if bufferCount == 0 {
		bufferCount = DefaultBufferCount
	}
	usage := cfg.Usage
	if usage == 0 {
		usage = dxgiUsageRenderTargetOutput | dxgiUsageShaderInput
	}

	dxgiDev, err := comQueryInterface(dev.Handle(), &iidIDXGIDevice1)
	if err != nil {
		return nil, fmt.Errorf("QueryInterface IDXGIDevice1: %w", err)
	}
	defer comRelease(dxgiDev)

	var adapter uintptr
	if _, err := comCall(dxgiDev, dxgiObjectGetParent,
		uintptr(unsafe.Pointer(&iidIDXGIAdapter1)),
		uintptr(unsafe.Pointer(&adapter)),
	); err != nil {
		return nil, fmt.Errorf("IDXGIDevice1::GetParent: %w", err)
	}
	defer comRelease(adapter)

	var factory uintptr
	if _, err := comCall(adapter, dxgiObjectGetParent,
		uintptr(unsafe.Pointer(&iidIDXGIFactory1)),
		uintptr(unsafe.Pointer(&factory)),
	); err != nil {
		return nil, fmt.Errorf("IDXGIAdapter1::GetParent: %w", err)
	}
	defer comRelease(factory)

	// DXGI 1.2+ is optional; without it only the legacy path exists.
	factory2, _ := comQueryInterface(factory, &iidIDXGIFactory2)
	if factory2 != 0 {
		defer comRelease(factory2)
		Logger().Debug("using DXGI 1.2+ (IDXGIFactory2)")
	} else {
		Logger().Debug("using DXGI 1.1 (IDXGIFactory1)")
	}

	attempts := swapchainAttempts(factory2 != 0, cfg.Flip)
	var handle uintptr
	var selected swapchainAttempt
	var lastErr error
	for _, attempt := range attempts {
		if factory2 != 0 {
			handle, lastErr = createSwapchainForHwnd(factory2, dev.Handle(), cfg.Window, attempt, width, height, bufferCount, usage)
		} else {
			handle, lastErr = createSwapchainLegacy(factory, dev.Handle(), cfg.Window, attempt.Format, width, height, usage)
		}
		if lastErr == nil {
			selected = attempt
			break
		}
		Logger().Debug("swapchain creation attempt failed",
			"format", dxgiFormatString(attempt.Format),
			"flip", attempt.Flip,
			"error", lastErr)
	}
	if handle == 0 {
		return nil, fmt.Errorf("%w after %d attempts: %w", ErrSwapchainCreation, len(attempts), lastErr)
	}

	// Keep DXGI away from the window: no automatic alt-enter fullscreen
	// transitions or print screen handling.
	comCall(factory, dxgiFactoryMakeWindowAssociation, cfg.Window,
		uintptr(dxgiMwaNoWindowChanges|dxgiMwaNoAltEnter|dxgiMwaNoPrintScreen))

	sc := &Swapchain{
		handle:      handle,
		format:      selected.Format,
		presentMode: PresentModeDiscard,
		width:       width,
		height:      height,
		bufferCount: 1,
	}
	if selected.Flip {
		sc.presentMode = PresentModeFlipSequential
		sc.bufferCount = bufferCount
	}

	Logger().Info("created swapchain",
		"format", dxgiFormatString(sc.format),
		"present_mode", sc.presentMode.String(),
		"width", sc.width,
		"height", sc.height,
		"buffers", sc.bufferCount)

	return sc, nil
}

// createSwapchainForHwnd creates a swapchain through the DXGI 1.2 API
// and downcasts it to the base IDXGISwapChain interface.
func createSwapchainForHwnd(factory2, device, window uintptr, attempt swapchainAttempt, width, height, bufferCount int, usage uint32) (uintptr, error) {
	desc := dxgiSwapChainDesc1{
		Width:       uint32(width),
		Height:      uint32(height),
		Format:      attempt.Format,
		SampleDesc:  dxgiSampleDesc{Count: 1},
		BufferUsage: usage,
		BufferCount: 1,
		SwapEffect:  dxgiSwapEffectDiscard,
	}
	if attempt.Flip {
		desc.BufferCount = uint32(bufferCount)
		desc.SwapEffect = dxgiSwapEffectFlipSequential
	}

	var sc1 uintptr
	if _, err := comCall(factory2, dxgiFactory2CreateSwapChainForHwnd,
		device,
		window,
		uintptr(unsafe.Pointer(&desc)),
		0, // pFullscreenDesc (windowed)
		0, // pRestrictToOutput
		uintptr(unsafe.Pointer(&sc1)),
	); err != nil {
		return 0, err
	}

	sc, err := comQueryInterface(sc1, &iidIDXGISwapChain)
	comRelease(sc1)
	if err != nil {
		return 0, err
	}
	return sc, nil
}

// createSwapchainLegacy creates a swapchain through the DXGI 1.1 API.
// Only the bitblt model exists here.
func createSwapchainLegacy(factory, device, window uintptr, format uint32, width, height int, usage uint32) (uintptr, error) {
	desc := dxgiSwapChainDesc{
		BufferDesc: dxgiModeDesc{
			Width:  uint32(width),
			Height: uint32(height),
			Format: format,
		},
		SampleDesc:   dxgiSampleDesc{Count: 1},
		BufferUsage:  usage,
		BufferCount:  1,
		OutputWindow: window,
		Windowed:     1,
		SwapEffect:   dxgiSwapEffectDiscard,
	}

	var sc uintptr
	if _, err := comCall(factory, dxgiFactoryCreateSwapChain,
		device,
		uintptr(unsafe.Pointer(&desc)),
		uintptr(unsafe.Pointer(&sc)),
	); err != nil {
		return 0, err
	}
	return sc, nil
}

// Handle returns the raw IDXGISwapChain pointer.
func (s *Swapchain) Handle() uintptr { return s.handle }

// Format returns the negotiated DXGI backbuffer format.
func (s *Swapchain) Format() uint32 { return s.format }

// PresentMode returns the negotiated presentation model.
func (s *Swapchain) PresentMode() PresentMode { return s.presentMode }

// BufferCount returns the swapchain length.
func (s *Swapchain) BufferCount() int { return s.bufferCount }

// Present presents the current backbuffer. syncInterval 0 presents
// immediately, 1 synchronizes to vblank.
func (s *Swapchain) Present(syncInterval int) error {
	if _, err := comCall(s.handle, dxgiSwapChainPresent, uintptr(syncInterval), 0); err != nil {
		return fmt.Errorf("IDXGISwapChain::Present: %w", err)
	}
	return nil
}

// BackBuffer returns the swapchain buffer at index as an
// ID3D11Texture2D. The caller owns the returned reference.
func (s *Swapchain) BackBuffer(index int) (uintptr, error) {
	var tex uintptr
	if _, err := comCall(s.handle, dxgiSwapChainGetBuffer,
		uintptr(index),
		uintptr(unsafe.Pointer(&iidID3D11Texture2D)),
		uintptr(unsafe.Pointer(&tex)),
	); err != nil {
		return 0, fmt.Errorf("IDXGISwapChain::GetBuffer: %w", err)
	}
	return tex, nil
}

// getDesc reads the live swapchain description.
func (s *Swapchain) getDesc() (dxgiSwapChainDesc, error) {
	var desc dxgiSwapChainDesc
	if _, err := comCall(s.handle, dxgiSwapChainGetDesc, uintptr(unsafe.Pointer(&desc))); err != nil {
		return desc, fmt.Errorf("IDXGISwapChain::GetDesc: %w", err)
	}
	return desc, nil
}

// Close releases the underlying swapchain. Safe to call more than once.
func (s *Swapchain) Close() error {
	if s.handle != 0 {
		comRelease(s.handle)
		s.handle = 0
	}
	return nil
}
