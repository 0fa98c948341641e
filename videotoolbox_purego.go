//go:build darwin && !cgo

package hwvideo

import (
	"fmt"
	"unsafe"
)

// SurfaceMapper binds the IOSurface planes of hardware-decoded pixel
// buffers to a persistent set of GL rectangle textures. Texture names
// are generated once and keep their identity across frames; each
// MapBuffer call rebinds them to the new buffer's surface without
// copying pixel data.
//
// The mapper must be created and used on the thread that owns the GL
// context.
type SurfaceMapper struct {
	ctx      uintptr // CGLContextObj captured at construction
	textures [maxSurfacePlanes]uint32
	buf      PixelBufferRef // currently mapped buffer, retained
}

// NewSurfaceMapper creates a mapper for the current CGL context.
// Fails when no context is current or the context predates OpenGL 3.0,
// whose rectangle textures lack the sized red/rg formats the format
// table binds.
func NewSurfaceMapper() (*SurfaceMapper, error) {
	initSurfaceFrameworks()
	if !surfaceLoaded {
		return nil, fmt.Errorf("surface mapping not available: %v", surfaceInitErr)
	}

	ctx := cglGetCurrentContext()
	if ctx == 0 {
		return nil, fmt.Errorf("surface mapper requires a current CGL context")
	}
	version := goStringFromPtr(glGetString(glVersion))
	if glVersionNumber(version) < minMapperGLVersion {
		return nil, fmt.Errorf("surface mapper requires OpenGL 3.0, context reports %q", version)
	}

	m := &SurfaceMapper{ctx: ctx}
	glGenTextures(maxSurfacePlanes, uintptr(unsafe.Pointer(&m.textures[0])))
	return m, nil
}

// MapBuffer binds buf's IOSurface planes to the mapper's textures and
// returns their layout. The previous buffer is released first; buf
// stays retained until the next MapBuffer or Close call, keeping the
// surface alive for as long as the textures alias it.
func (m *SurfaceMapper) MapBuffer(buf PixelBufferRef) (*MappedSurface, error) {
	if buf == 0 {
		return nil, fmt.Errorf("nil pixel buffer")
	}
	if m.buf != 0 {
		cvPixelBufferRelease(uintptr(m.buf))
	}
	m.buf = buf
	cvPixelBufferRetain(uintptr(buf))

	surface := cvPixelBufferGetIOSurface(uintptr(buf))
	if surface == 0 {
		return nil, ErrNoIOSurface
	}

	cvFormat := cvPixelBufferGetPixelFormatType(uintptr(buf))
	f, ok := surfaceFormatByCV(cvFormat)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSurface, fourCCString(cvFormat))
	}
	planar := cvPixelBufferIsPlanar(uintptr(buf))
	planes := int(cvPixelBufferGetPlaneCount(uintptr(buf)))
	if err := validatePlaneLayout(f, planar, planes); err != nil {
		return nil, err
	}

	mapped := &MappedSurface{
		Planes:  make([]SurfacePlane, f.Planes),
		Format:  f.Format,
		Swizzle: f.Swizzle,
	}
	for i := 0; i < f.Planes; i++ {
		width := int(ioSurfaceGetWidthOfPlane(surface, uintptr(i)))
		height := int(ioSurfaceGetHeightOfPlane(surface, uintptr(i)))
		gl := f.GL[i]

		glBindTexture(glTextureRectangle, m.textures[i])
		code := cglTexImageIOSurface2D(m.ctx, glTextureRectangle, gl.InternalFormat,
			int32(width), int32(height), gl.Format, gl.Type, surface, uint32(i))
		if code != 0 {
			// The plane keeps its previous contents; the remaining
			// planes still bind.
			Logger().Warn("CGLTexImageIOSurface2D failed",
				"plane", i,
				"cgl_error", goStringFromPtr(cglErrorString(code)),
				"gl_error", glGetError())
		}
		glBindTexture(glTextureRectangle, 0)

		mapped.Planes[i] = SurfacePlane{
			Texture: m.textures[i],
			Target:  glTextureRectangle,
			Width:   width,
			Height:  height,
		}
	}
	return mapped, nil
}

// Close releases the retained pixel buffer and deletes the texture
// set. Safe to call more than once.
func (m *SurfaceMapper) Close() error {
	if m.buf != 0 {
		cvPixelBufferRelease(uintptr(m.buf))
		m.buf = 0
	}
	if m.textures[0] != 0 {
		glDeleteTextures(maxSurfacePlanes, uintptr(unsafe.Pointer(&m.textures[0])))
		m.textures = [maxSurfacePlanes]uint32{}
	}
	return nil
}
