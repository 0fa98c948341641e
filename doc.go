// Package hwvideo negotiates GPU video devices and swapchains, captures
// presented frames, and maps hardware-decoded surfaces, backed by
// native graphics APIs (Direct3D 11/DXGI on Windows, CoreVideo/IOSurface
// on macOS).
//
// Key pieces include:
//   - D3D11 device negotiation with a feature-level/driver fallback ladder
//   - DXGI swapchain creation (flip-model with bitblt and legacy fallbacks)
//   - Presented-frame capture into CPU-side VideoFrames
//   - CVPixelBuffer -> GL rectangle texture surface mapping via IOSurface
//   - RFC 4175 raw video RTP packetizer/depacketizer and a WebRTC preview
//     track for carrying captured frames to a peer
//
// # Architecture
//
//	Capture (windows): Device -> Swapchain -> CaptureFrame -> VideoFrame
//	Preview:           VideoSource -> RawVideoPacketizer -> RTPWriter/PreviewTrack
//	Mapping (darwin):  PixelBufferRef -> SurfaceMapper -> MappedSurface (GL textures)
//
// # Native Libraries
//
// On Windows the package calls d3d11.dll and the DXGI COM interfaces
// directly through syscall; no SDK is required at build time. On macOS
// the default build loads the CoreVideo, IOSurface and OpenGL system
// frameworks via purego (CGO_ENABLED=0). With CGO enabled it links the
// same frameworks directly for lower call overhead.
//
// The package is silent by default; pass a handler to SetLogger to see
// negotiation and capture diagnostics.
//
// # Build Tags
//
// Platform files select themselves: device, swapchain and capture code
// builds only on windows; the surface mapper only on darwin, where the
// cgo tag picks between the purego and cgo bindings.
package hwvideo
