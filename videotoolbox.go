package hwvideo

import (
	"errors"
	"fmt"
)

// Errors reported by surface format resolution and mapping.
var (
	// ErrUnsupportedSurface is returned for a pixel buffer or
	// subformat with no entry in the surface format table.
	ErrUnsupportedSurface = errors.New("unsupported surface format")

	// ErrNoIOSurface is returned when a pixel buffer is not backed by
	// an IOSurface and cannot be mapped without copying.
	ErrNoIOSurface = errors.New("pixel buffer has no IOSurface")

	// ErrPlaneMismatch is returned when a pixel buffer's plane layout
	// contradicts its format table entry.
	ErrPlaneMismatch = errors.New("pixel buffer plane layout mismatch")
)

// PixelBufferRef is an opaque CVPixelBufferRef supplied by the host's
// decode pipeline.
type PixelBufferRef uintptr

// CoreVideo pixel format FourCC codes for the supported surfaces.
const (
	CVPixelFormat420BiPlanar uint32 = 0x34323076 // '420v', bi-planar 4:2:0 video range
	CVPixelFormat422YpCbCr8  uint32 = 0x32767579 // '2vuy', packed 4:2:2
	CVPixelFormat420Planar   uint32 = 0x79343230 // 'y420', planar 4:2:0
	CVPixelFormat32BGRA      uint32 = 0x42475241 // 'BGRA', packed 32-bit
)

// OpenGL enums used by the plane format table and the mapper.
const (
	glUnsignedByte         uint32 = 0x1401
	glVersion              uint32 = 0x1F02
	glRed                  uint32 = 0x1903
	glRGB                  uint32 = 0x1907
	glRGBA                 uint32 = 0x1908
	glRG                   uint32 = 0x8227
	glBGRA                 uint32 = 0x80E1
	glUnsignedInt8888Rev   uint32 = 0x8367
	glTextureRectangle     uint32 = 0x84F5
	glUnsignedShort88Apple uint32 = 0x85BA
	glRGB422Apple          uint32 = 0x8A1F
)

// maxSurfacePlanes bounds the per-surface plane count and the size of
// the mapper's persistent texture set.
const maxSurfacePlanes = 4

// surfacePlaneFormat describes how one plane of an IOSurface binds to
// a GL texture.
type surfacePlaneFormat struct {
	Format         uint32 // pixel data format (GL_RED, GL_RG, ...)
	Type           uint32 // pixel data type
	InternalFormat uint32 // texture internal format
}

// surfaceFormat associates one CoreVideo pixel format with its generic
// image format, plane count, per-plane GL parameters, and channel
// swizzle ("" = identity order).
type surfaceFormat struct {
	CVPixelFormat uint32
	Format        PixelFormat
	Planes        int
	GL            [maxSurfacePlanes]surfacePlaneFormat
	Swizzle       string
}

// surfaceFormats is the static capability table. Immutable,
// process-wide, looked up by either the CoreVideo format or the
// generic pixel format.
var surfaceFormats = []surfaceFormat{
	{
		CVPixelFormat: CVPixelFormat420BiPlanar,
		Format:        PixelFormatNV12,
		Planes:        2,
		GL: [maxSurfacePlanes]surfacePlaneFormat{
			{glRed, glUnsignedByte, glRed},
			{glRG, glUnsignedByte, glRG},
		},
	},
	{
		CVPixelFormat: CVPixelFormat422YpCbCr8,
		Format:        PixelFormatUYVY,
		Planes:        1,
		GL: [maxSurfacePlanes]surfacePlaneFormat{
			{glRGB422Apple, glUnsignedShort88Apple, glRGB},
		},
		Swizzle: "gbra",
	},
	{
		CVPixelFormat: CVPixelFormat420Planar,
		Format:        PixelFormatI420,
		Planes:        3,
		GL: [maxSurfacePlanes]surfacePlaneFormat{
			{glRed, glUnsignedByte, glRed},
			{glRed, glUnsignedByte, glRed},
			{glRed, glUnsignedByte, glRed},
		},
	},
	{
		CVPixelFormat: CVPixelFormat32BGRA,
		Format:        PixelFormatBGR0,
		Planes:        1,
		GL: [maxSurfacePlanes]surfacePlaneFormat{
			{glBGRA, glUnsignedInt8888Rev, glRGBA},
		},
	},
}

// surfaceFormatByCV looks up the table by CoreVideo pixel format.
// The returned entry is shared and read-only.
func surfaceFormatByCV(cvFormat uint32) (*surfaceFormat, bool) {
	for i := range surfaceFormats {
		if surfaceFormats[i].CVPixelFormat == cvFormat {
			return &surfaceFormats[i], true
		}
	}
	return nil, false
}

// surfaceFormatByPixelFormat looks up the table by generic pixel
// format. The returned entry is shared and read-only.
func surfaceFormatByPixelFormat(format PixelFormat) (*surfaceFormat, bool) {
	for i := range surfaceFormats {
		if surfaceFormats[i].Format == format {
			return &surfaceFormats[i], true
		}
	}
	return nil, false
}

// ResolveSurfaceFormat resolves a surface subformat tag to the
// concrete pixel format frames will map as. The host pipeline calls
// this when reconfiguring for a hardware-decoded stream; after a
// successful resolve the subformat tag is spent and the returned
// format fully describes the mapped output.
func ResolveSurfaceFormat(subFormat PixelFormat) (PixelFormat, error) {
	f, ok := surfaceFormatByPixelFormat(subFormat)
	if !ok {
		return PixelFormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedSurface, subFormat)
	}
	return f.Format, nil
}

// SurfaceFormatSupported reports whether pixel buffers of the given
// CoreVideo pixel format can be mapped.
func SurfaceFormatSupported(cvFormat uint32) bool {
	_, ok := surfaceFormatByCV(cvFormat)
	return ok
}

// SurfacePixelFormat returns the generic pixel format a CoreVideo
// pixel format maps to.
func SurfacePixelFormat(cvFormat uint32) (PixelFormat, bool) {
	f, ok := surfaceFormatByCV(cvFormat)
	if !ok {
		return PixelFormatUnknown, false
	}
	return f.Format, true
}

// validatePlaneLayout checks a pixel buffer's reported plane layout
// against its table entry: a single-plane entry requires a non-planar
// buffer, a multi-plane entry requires a planar buffer with exactly
// the entry's plane count.
func validatePlaneLayout(f *surfaceFormat, planar bool, planes int) error {
	if f.Planes == 1 && !planar {
		return nil
	}
	if planar && planes == f.Planes {
		return nil
	}
	return fmt.Errorf("%w: format %s wants %d planes, buffer has planar=%t planes=%d",
		ErrPlaneMismatch, f.Format, f.Planes, planar, planes)
}

// SurfacePlane is one plane of a mapped surface bound to a GL texture.
type SurfacePlane struct {
	Texture uint32 // GL texture name, stable across mapped frames
	Target  uint32 // texture target (GL_TEXTURE_RECTANGLE)
	Width   int    // plane width in pixels
	Height  int    // plane height in pixels
}

// MappedSurface describes a pixel buffer bound to the mapper's
// persistent texture set. Valid until the next MapBuffer or Close
// call.
type MappedSurface struct {
	Planes  []SurfacePlane
	Format  PixelFormat
	Swizzle string // channel order remap, "" = identity
}

// minMapperGLVersion is the lowest GL version whose rectangle
// textures support the red/rg internal formats the table binds.
const minMapperGLVersion = 300

// glVersionNumber parses a GL_VERSION string such as "4.1 Metal" into
// major*100 + minor*10, or 0 when the string is unparseable.
func glVersionNumber(s string) int {
	var major, minor int
	if n, _ := fmt.Sscanf(s, "%d.%d", &major, &minor); n < 2 {
		return 0
	}
	return major*100 + minor*10
}

// fourCCString renders a FourCC code for log and error messages.
func fourCCString(code uint32) string {
	b := []byte{byte(code >> 24), byte(code >> 16), byte(code >> 8), byte(code)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%08x", code)
		}
	}
	return string(b)
}
