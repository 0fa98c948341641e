//go:build darwin && cgo

package hwvideo

/*
#cgo CFLAGS: -DGL_SILENCE_DEPRECATION
#cgo LDFLAGS: -framework CoreVideo -framework IOSurface -framework OpenGL

#include <CoreVideo/CoreVideo.h>
#include <IOSurface/IOSurface.h>
#include <OpenGL/OpenGL.h>
#include <OpenGL/gl3.h>
#include <OpenGL/CGLIOSurface.h>
*/
import "C"

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
	ctx      C.CGLContextObj
	textures [maxSurfacePlanes]C.GLuint
	buf      PixelBufferRef // currently mapped buffer, retained
}

// NewSurfaceMapper creates a mapper for the current CGL context.
// Fails when no context is current or the context predates OpenGL 3.0,
// whose rectangle textures lack the sized red/rg formats the format
// table binds.
func NewSurfaceMapper() (*SurfaceMapper, error) {
	ctx := C.CGLGetCurrentContext()
	if ctx == nil {
		return nil, fmt.Errorf("surface mapper requires a current CGL context")
	}
	version := C.GoString((*C.char)(unsafe.Pointer(C.glGetString(C.GL_VERSION))))
	if glVersionNumber(version) < minMapperGLVersion {
		return nil, fmt.Errorf("surface mapper requires OpenGL 3.0, context reports %q", version)
	}

	m := &SurfaceMapper{ctx: ctx}
	C.glGenTextures(maxSurfacePlanes, &m.textures[0])
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
		C.CVPixelBufferRelease(pixelBufferRef(m.buf))
	}
	m.buf = buf
	C.CVPixelBufferRetain(pixelBufferRef(buf))

	surface := C.CVPixelBufferGetIOSurface(pixelBufferRef(buf))
	if surface == nil {
		return nil, ErrNoIOSurface
	}

	cvFormat := uint32(C.CVPixelBufferGetPixelFormatType(pixelBufferRef(buf)))
	f, ok := surfaceFormatByCV(cvFormat)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSurface, fourCCString(cvFormat))
	}
	planar := C.CVPixelBufferIsPlanar(pixelBufferRef(buf)) != 0
	planes := int(C.CVPixelBufferGetPlaneCount(pixelBufferRef(buf)))
	if err := validatePlaneLayout(f, planar, planes); err != nil {
		return nil, err
	}

	mapped := &MappedSurface{
		Planes:  make([]SurfacePlane, f.Planes),
		Format:  f.Format,
		Swizzle: f.Swizzle,
	}
	for i := 0; i < f.Planes; i++ {
		width := int(C.IOSurfaceGetWidthOfPlane(surface, C.size_t(i)))
		height := int(C.IOSurfaceGetHeightOfPlane(surface, C.size_t(i)))
		gl := f.GL[i]

		C.glBindTexture(C.GLenum(glTextureRectangle), m.textures[i])
		code := C.CGLTexImageIOSurface2D(m.ctx, C.GLenum(glTextureRectangle),
			C.GLenum(gl.InternalFormat), C.GLsizei(width), C.GLsizei(height),
			C.GLenum(gl.Format), C.GLenum(gl.Type), surface, C.GLuint(i))
		if code != C.kCGLNoError {
			// The plane keeps its previous contents; the remaining
			// planes still bind.
			Logger().Warn("CGLTexImageIOSurface2D failed",
				"plane", i,
				"cgl_error", C.GoString(C.CGLErrorString(code)),
				"gl_error", uint32(C.glGetError()))
		}
		C.glBindTexture(C.GLenum(glTextureRectangle), 0)

		mapped.Planes[i] = SurfacePlane{
			Texture: uint32(m.textures[i]),
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
		C.CVPixelBufferRelease(pixelBufferRef(m.buf))
		m.buf = 0
	}
	if m.textures[0] != 0 {
		C.glDeleteTextures(maxSurfacePlanes, &m.textures[0])
		m.textures = [maxSurfacePlanes]C.GLuint{}
	}
	return nil
}

func pixelBufferRef(buf PixelBufferRef) C.CVPixelBufferRef {
	return C.CVPixelBufferRef(unsafe.Pointer(buf))
}
