package hwvideo

import "errors"

// ErrCaptureUnsupported is returned by CaptureFrame when the swapchain
// or its buffers cannot be captured: a non-flip presentation model,
// multisampled buffers, or a backbuffer format outside the supported
// set.
var ErrCaptureUnsupported = errors.New("frame capture not supported")

// pixelFormatForDXGI maps a backbuffer format to its packed capture
// layout. Only the two negotiated swapchain formats are defined; any
// other format is not capturable.
func pixelFormatForDXGI(format uint32) (PixelFormat, bool) {
	switch format {
	case dxgiFormatB8G8R8A8Unorm:
		return PixelFormatBGR0, true
	case dxgiFormatR8G8B8A8Unorm:
		return PixelFormatRGB0, true
	default:
		return PixelFormatUnknown, false
	}
}

// copyImageRows copies rows rows of rowBytes bytes from src to dst,
// honoring the differing strides of a mapped GPU resource (srcPitch)
// and the destination image (dstStride). Extra bytes past rowBytes in
// either stride are padding and left untouched in dst.
func copyImageRows(dst []byte, dstStride int, src []byte, srcPitch, rowBytes, rows int) {
	for i := 0; i < rows; i++ {
		copy(dst[dstStride*i:dstStride*i+rowBytes], src[srcPitch*i:srcPitch*i+rowBytes])
	}
}
