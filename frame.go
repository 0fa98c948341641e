package hwvideo

// PixelFormat represents video pixel formats.
type PixelFormat int

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatI420                // YUV 4:2:0 planar (Y + U + V)
	PixelFormatNV12                // YUV 4:2:0 semi-planar (Y + interleaved UV)
	PixelFormatUYVY                // Packed YUV 4:2:2 (U0 Y0 V0 Y1)
	PixelFormatBGR0                // Packed BGRX, 4 bytes per pixel, X undefined
	PixelFormatRGB0                // Packed RGBX, 4 bytes per pixel, X undefined
)

func (p PixelFormat) String() string {
	switch p {
	case PixelFormatI420:
		return "I420"
	case PixelFormatNV12:
		return "NV12"
	case PixelFormatUYVY:
		return "UYVY"
	case PixelFormatBGR0:
		return "BGR0"
	case PixelFormatRGB0:
		return "RGB0"
	default:
		return "Unknown"
	}
}

// PlaneCount returns the number of planes for this pixel format.
func (p PixelFormat) PlaneCount() int {
	switch p {
	case PixelFormatI420:
		return 3 // Y, U, V
	case PixelFormatNV12:
		return 2 // Y, UV
	case PixelFormatUYVY, PixelFormatBGR0, PixelFormatRGB0:
		return 1 // Packed
	default:
		return 0
	}
}

// BytesPerPixel returns the bytes per pixel for packed formats, or 0
// for planar formats where a single figure does not apply.
func (p PixelFormat) BytesPerPixel() int {
	switch p {
	case PixelFormatUYVY:
		return 2
	case PixelFormatBGR0, PixelFormatRGB0:
		return 4
	default:
		return 0
	}
}

// VideoFrame represents a raw video frame.
// The Data slices may point to external memory (e.g., a mapped GPU
// staging resource). Callers must ensure the data remains valid for
// the lifetime of the frame, or Clone it.
type VideoFrame struct {
	Data      [][]byte    // Plane data (1-3 planes depending on format)
	Stride    []int       // Stride for each plane in bytes
	Width     int         // Frame width in pixels
	Height    int         // Frame height in pixels
	Format    PixelFormat // Pixel format
	Timestamp int64       // Capture timestamp in nanoseconds
	Duration  int64       // Frame duration in nanoseconds (optional)
}

// Clone creates a deep copy of the video frame.
// Use this when you need to keep the frame data beyond its original lifetime.
func (f *VideoFrame) Clone() *VideoFrame {
	clone := &VideoFrame{
		Data:      make([][]byte, len(f.Data)),
		Stride:    make([]int, len(f.Stride)),
		Width:     f.Width,
		Height:    f.Height,
		Format:    f.Format,
		Timestamp: f.Timestamp,
		Duration:  f.Duration,
	}
	copy(clone.Stride, f.Stride)
	for i, plane := range f.Data {
		if plane != nil {
			clone.Data[i] = make([]byte, len(plane))
			copy(clone.Data[i], plane)
		}
	}
	return clone
}

// FrameSize returns the total buffer size in bytes needed for a frame
// of the given format and dimensions, or 0 for unknown formats.
func FrameSize(format PixelFormat, width, height int) int {
	switch format {
	case PixelFormatI420:
		// Y plane plus two quarter-size chroma planes.
		return width*height + (width/2)*(height/2)*2
	case PixelFormatNV12:
		// Y plane plus half-size interleaved UV plane.
		return width*height + width*(height/2)
	case PixelFormatUYVY, PixelFormatBGR0, PixelFormatRGB0:
		return width * height * format.BytesPerPixel()
	default:
		return 0
	}
}

// NewPackedFrame allocates a single-plane frame for a packed format.
// Stride is width times bytes per pixel. Returns nil for planar or
// unknown formats.
func NewPackedFrame(format PixelFormat, width, height int) *VideoFrame {
	bpp := format.BytesPerPixel()
	if bpp == 0 || width <= 0 || height <= 0 {
		return nil
	}
	stride := width * bpp
	return &VideoFrame{
		Data:   [][]byte{make([]byte, stride*height)},
		Stride: []int{stride},
		Width:  width,
		Height: height,
		Format: format,
	}
}
