package hwvideo

import (
	"errors"
	"fmt"
)

// ErrSwapchainCreation is returned when swapchain creation failed for
// every planned format and presentation model combination.
var ErrSwapchainCreation = errors.New("swapchain creation failed")

// DXGI values used by the creation plan. Declared here, outside the
// Windows binding, so planning stays testable on every platform.
const (
	dxgiFormatR8G8B8A8Unorm uint32 = 28
	dxgiFormatB8G8R8A8Unorm uint32 = 87

	dxgiUsageShaderInput        uint32 = 0x10
	dxgiUsageRenderTargetOutput uint32 = 0x20

	dxgiSwapEffectDiscard        uint32 = 0
	dxgiSwapEffectFlipSequential uint32 = 3
)

// swapchainFormats is the backbuffer format preference order.
// B8G8R8A8 first: since at least Windows 8 it is the format of the
// desktop image.
var swapchainFormats = []uint32{
	dxgiFormatB8G8R8A8Unorm,
	dxgiFormatR8G8B8A8Unorm,
}

// DefaultBufferCount is the swapchain length used when
// SwapchainConfig.BufferCount is zero. Only flip-model chains honor
// it; bitblt-model chains always use a single buffer.
const DefaultBufferCount = 4

// SwapchainConfig configures swapchain negotiation.
type SwapchainConfig struct {
	// Window is the target window handle (HWND).
	Window uintptr

	// Width and Height of the backbuffers. Zero values are clamped
	// to 1; resize after the window dimensions are known.
	Width  int
	Height int

	// BufferCount is the swapchain length for flip-model chains.
	// Zero means DefaultBufferCount.
	BufferCount int

	// Usage is the DXGI buffer usage. Zero means render target
	// output plus shader input.
	Usage uint32

	// Flip requests flip-model presentation when the platform
	// subsystem supports it (DXGI 1.2+). Creation falls back to the
	// legacy bitblt model when flip-model creation fails.
	Flip bool
}

// PresentMode is the buffer-swapping strategy between rendering and
// display.
type PresentMode int

const (
	// PresentModeDiscard is the legacy bitblt model; backbuffer
	// contents are discarded on present.
	PresentModeDiscard PresentMode = iota

	// PresentModeFlipSequential is the modern flip model with
	// sequential buffer reuse.
	PresentModeFlipSequential
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeFlipSequential:
		return "flip-model"
	case PresentModeDiscard:
		return "bitblt-model"
	default:
		return "unknown"
	}
}

func presentModeForSwapEffect(effect uint32) PresentMode {
	if effect == dxgiSwapEffectFlipSequential {
		return PresentModeFlipSequential
	}
	return PresentModeDiscard
}

// dxgiFormatString names the DXGI formats the creation plan uses.
func dxgiFormatString(format uint32) string {
	switch format {
	case dxgiFormatB8G8R8A8Unorm:
		return "B8G8R8A8_UNORM"
	case dxgiFormatR8G8B8A8Unorm:
		return "R8G8B8A8_UNORM"
	default:
		return fmt.Sprintf("DXGI_FORMAT(%d)", format)
	}
}

// swapchainAttempt is one rung of the swapchain creation plan.
type swapchainAttempt struct {
	Format uint32
	Flip   bool
}

// swapchainAttempts plans creation: every format in preference order
// under the preferred presentation model, then, only if that pass was
// flip-model, the same formats again under the legacy bitblt model.
// modern reports whether a DXGI 1.2+ factory is available; without it
// flip-model is never planned.
func swapchainAttempts(modern, preferFlip bool) []swapchainAttempt {
	flip := modern && preferFlip
	attempts := make([]swapchainAttempt, 0, 2*len(swapchainFormats))
	for _, f := range swapchainFormats {
		attempts = append(attempts, swapchainAttempt{Format: f, Flip: flip})
	}
	if flip {
		for _, f := range swapchainFormats {
			attempts = append(attempts, swapchainAttempt{Format: f, Flip: false})
		}
	}
	return attempts
}
