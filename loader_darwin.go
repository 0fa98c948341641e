//go:build darwin && !cgo

package hwvideo

import (
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
)

// System framework binaries loaded for surface mapping. These ship
// with macOS, so no search paths are needed.
const (
	coreVideoFramework = "/System/Library/Frameworks/CoreVideo.framework/CoreVideo"
	ioSurfaceFramework = "/System/Library/Frameworks/IOSurface.framework/IOSurface"
	openGLFramework    = "/System/Library/Frameworks/OpenGL.framework/OpenGL"
)

var (
	surfaceOnce    sync.Once
	surfaceInitErr error
	surfaceLoaded  bool
)

// CoreVideo function pointers
var (
	cvPixelBufferRetain             func(buf uintptr) uintptr
	cvPixelBufferRelease            func(buf uintptr)
	cvPixelBufferGetIOSurface       func(buf uintptr) uintptr
	cvPixelBufferGetPixelFormatType func(buf uintptr) uint32
	cvPixelBufferIsPlanar           func(buf uintptr) bool
	cvPixelBufferGetPlaneCount      func(buf uintptr) uintptr
)

// IOSurface function pointers
var (
	ioSurfaceGetWidthOfPlane  func(surface uintptr, plane uintptr) uintptr
	ioSurfaceGetHeightOfPlane func(surface uintptr, plane uintptr) uintptr
)

// OpenGL and CGL function pointers
var (
	cglGetCurrentContext   func() uintptr
	cglTexImageIOSurface2D func(ctx uintptr, target, internalFormat uint32, width, height int32, format, typ uint32, surface uintptr, plane uint32) int32
	cglErrorString         func(code int32) uintptr
	glGenTextures          func(n int32, textures uintptr)
	glDeleteTextures       func(n int32, textures uintptr)
	glBindTexture          func(target, texture uint32)
	glGetError             func() uint32
	glGetString            func(name uint32) uintptr
)

func initSurfaceFrameworks() {
	surfaceOnce.Do(func() {
		coreVideo, err := purego.Dlopen(coreVideoFramework, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			surfaceInitErr = fmt.Errorf("failed to load CoreVideo: %w", err)
			return
		}
		ioSurface, err := purego.Dlopen(ioSurfaceFramework, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			surfaceInitErr = fmt.Errorf("failed to load IOSurface: %w", err)
			return
		}
		openGL, err := purego.Dlopen(openGLFramework, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			surfaceInitErr = fmt.Errorf("failed to load OpenGL: %w", err)
			return
		}

		// Load function pointers
		purego.RegisterLibFunc(&cvPixelBufferRetain, coreVideo, "CVPixelBufferRetain")
		purego.RegisterLibFunc(&cvPixelBufferRelease, coreVideo, "CVPixelBufferRelease")
		purego.RegisterLibFunc(&cvPixelBufferGetIOSurface, coreVideo, "CVPixelBufferGetIOSurface")
		purego.RegisterLibFunc(&cvPixelBufferGetPixelFormatType, coreVideo, "CVPixelBufferGetPixelFormatType")
		purego.RegisterLibFunc(&cvPixelBufferIsPlanar, coreVideo, "CVPixelBufferIsPlanar")
		purego.RegisterLibFunc(&cvPixelBufferGetPlaneCount, coreVideo, "CVPixelBufferGetPlaneCount")

		purego.RegisterLibFunc(&ioSurfaceGetWidthOfPlane, ioSurface, "IOSurfaceGetWidthOfPlane")
		purego.RegisterLibFunc(&ioSurfaceGetHeightOfPlane, ioSurface, "IOSurfaceGetHeightOfPlane")

		purego.RegisterLibFunc(&cglGetCurrentContext, openGL, "CGLGetCurrentContext")
		purego.RegisterLibFunc(&cglTexImageIOSurface2D, openGL, "CGLTexImageIOSurface2D")
		purego.RegisterLibFunc(&cglErrorString, openGL, "CGLErrorString")
		purego.RegisterLibFunc(&glGenTextures, openGL, "glGenTextures")
		purego.RegisterLibFunc(&glDeleteTextures, openGL, "glDeleteTextures")
		purego.RegisterLibFunc(&glBindTexture, openGL, "glBindTexture")
		purego.RegisterLibFunc(&glGetError, openGL, "glGetError")
		purego.RegisterLibFunc(&glGetString, openGL, "glGetString")

		surfaceLoaded = true
	})
}

// IsSurfaceMappingAvailable returns true if the CoreVideo, IOSurface
// and OpenGL frameworks loaded.
func IsSurfaceMappingAvailable() bool {
	initSurfaceFrameworks()
	return surfaceLoaded
}
