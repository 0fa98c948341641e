//go:build windows

package hwvideo

import (
	"fmt"
	"time"
	"unsafe"
)

// CaptureFrame reads back the most recently presented backbuffer as a
// CPU frame. Only flip-model swapchains keep presented buffers
// addressable, so bitblt-model chains report ErrCaptureUnsupported.
func (s *Swapchain) CaptureFrame() (*VideoFrame, error) {
	desc, err := s.getDesc()
	if err != nil {
		return nil, err
	}
	if desc.SwapEffect != dxgiSwapEffectFlipSequential {
		return nil, fmt.Errorf("%w: swapchain is not flip-model", ErrCaptureUnsupported)
	}

	// With flip-model presentation the image most recently shown on
	// screen sits in the last buffer.
	backbuffer, err := s.BackBuffer(int(desc.BufferCount) - 1)
	if err != nil {
		return nil, err
	}
	defer comRelease(backbuffer)

	var texDesc d3d11Texture2DDesc
	comCallRaw(backbuffer, d3d11TextureGetDesc, uintptr(unsafe.Pointer(&texDesc)))

	if texDesc.SampleDesc.Count > 1 {
		return nil, fmt.Errorf("%w: multisampled backbuffer", ErrCaptureUnsupported)
	}
	format, ok := pixelFormatForDXGI(texDesc.Format)
	if !ok {
		return nil, fmt.Errorf("%w: backbuffer format %s", ErrCaptureUnsupported, dxgiFormatString(texDesc.Format))
	}

	var device uintptr
	comCallRaw(backbuffer, d3d11TextureGetDevice, uintptr(unsafe.Pointer(&device)))
	defer comRelease(device)

	var ctx uintptr
	comCallRaw(device, d3d11DeviceGetImmediateContext, uintptr(unsafe.Pointer(&ctx)))
	defer comRelease(ctx)

	stagingDesc := texDesc
	stagingDesc.BindFlags = 0
	stagingDesc.MiscFlags = 0
	stagingDesc.CPUAccessFlags = d3d11CPUAccessRead
	stagingDesc.Usage = d3d11UsageStaging

	var staging uintptr
	if _, err := comCall(device, d3d11DeviceCreateTexture2D,
		uintptr(unsafe.Pointer(&stagingDesc)),
		0, // pInitialData
		uintptr(unsafe.Pointer(&staging)),
	); err != nil {
		return nil, fmt.Errorf("CreateTexture2D staging: %w", err)
	}
	defer comRelease(staging)

	comCallRaw(ctx, d3d11CtxCopyResource, staging, backbuffer)

	var mapped d3d11MappedSubresource
	if _, err := comCall(ctx, d3d11CtxMap,
		staging,
		0, // Subresource
		d3d11MapRead,
		0, // MapFlags
		uintptr(unsafe.Pointer(&mapped)),
	); err != nil {
		return nil, fmt.Errorf("Map staging texture: %w", err)
	}

	frame := NewPackedFrame(format, int(texDesc.Width), int(texDesc.Height))
	frame.Timestamp = time.Now().UnixNano()
	src := unsafe.Slice((*byte)(unsafe.Pointer(mapped.PData)), int(mapped.RowPitch)*int(texDesc.Height))
	copyImageRows(frame.Data[0], frame.Stride[0], src, int(mapped.RowPitch), frame.Stride[0], int(texDesc.Height))

	comCallRaw(ctx, d3d11CtxUnmap, staging, 0)

	return frame, nil
}
