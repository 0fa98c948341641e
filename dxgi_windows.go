//go:build windows

package hwvideo

import "syscall"

// DXGI/D3D11 DLL procs
var (
	d3d11DLL = syscall.NewLazyDLL("d3d11.dll")

	procD3D11CreateDevice = d3d11DLL.NewProc("D3D11CreateDevice")
)

// D3D11/DXGI constants
const (
	d3dDriverTypeHardware = 1
	d3dDriverTypeWarp     = 5
	d3d11SDKVersion       = 7

	// D3D11CreateDevice flags
	d3d11CreateDeviceDebug       = 0x2
	d3d11CreateDeviceBGRASupport = 0x20

	d3d11UsageStaging  = 3
	d3d11CPUAccessRead = 0x20000
	d3d11MapRead       = 1

	// DXGI_ADAPTER_DESC1.Flags
	dxgiAdapterFlagSoftware = 2

	// IDXGIFactory::MakeWindowAssociation flags
	dxgiMwaNoWindowChanges = 1
	dxgiMwaNoAltEnter      = 2
	dxgiMwaNoPrintScreen   = 4
)

// DXGI/D3D11 COM vtable indices. Fixed by the COM ABI and must be exact.
const (
	// IDXGIObject (after IUnknown)
	dxgiObjectGetParent = 6

	// IDXGIDevice / IDXGIDevice1
	dxgiDeviceGetAdapter          = 7
	dxgiDevice1SetMaxFrameLatency = 12
	dxgiDevice1GetMaxFrameLatency = 13

	// IDXGIAdapter1
	dxgiAdapter1GetDesc1 = 10

	// IDXGIFactory / IDXGIFactory1 / IDXGIFactory2
	dxgiFactoryMakeWindowAssociation   = 8
	dxgiFactoryCreateSwapChain         = 10
	dxgiFactory2CreateSwapChainForHwnd = 15

	// IDXGISwapChain
	dxgiSwapChainPresent   = 8
	dxgiSwapChainGetBuffer = 9
	dxgiSwapChainGetDesc   = 12

	// ID3D11Device
	d3d11DeviceCreateTexture2D     = 5
	d3d11DeviceGetFeatureLevel     = 37
	d3d11DeviceGetImmediateContext = 40

	// ID3D11DeviceContext
	d3d11CtxMap          = 14
	d3d11CtxUnmap        = 15
	d3d11CtxCopyResource = 47

	// ID3D11Texture2D (via ID3D11DeviceChild/ID3D11Resource)
	d3d11TextureGetDevice = 3
	d3d11TextureGetDesc   = 10
)

// COM GUIDs for DXGI/D3D11 interfaces
var (
	iidIDXGIDevice1    = comGUID{0x77db970f, 0x6276, 0x48ba, [8]byte{0xba, 0x28, 0x07, 0x01, 0x43, 0xb4, 0x39, 0x2c}}
	iidIDXGIAdapter1   = comGUID{0x29038f61, 0x3839, 0x4626, [8]byte{0x91, 0xfd, 0x08, 0x68, 0x79, 0x01, 0x1a, 0x05}}
	iidIDXGIFactory1   = comGUID{0x770aae78, 0xf26f, 0x4dba, [8]byte{0xa8, 0x29, 0x25, 0x3c, 0x83, 0xd1, 0xb3, 0x87}}
	iidIDXGIFactory2   = comGUID{0x50c83a1c, 0xe072, 0x4c48, [8]byte{0x87, 0xb0, 0x36, 0x30, 0xfa, 0x36, 0xa6, 0xd0}}
	iidIDXGISwapChain  = comGUID{0x310d36a0, 0xd2e7, 0x4c0a, [8]byte{0xaa, 0x04, 0x6a, 0x9d, 0x23, 0xb8, 0x88, 0x6a}}
	iidID3D11Texture2D = comGUID{0x6f15aaf2, 0xd208, 0x4e89, [8]byte{0x9a, 0xb4, 0x48, 0x95, 0x35, 0xd3, 0x4f, 0x9c}}
)

type dxgiRational struct {
	Numerator   uint32
	Denominator uint32
}

type dxgiSampleDesc struct {
	Count   uint32
	Quality uint32
}

// dxgiModeDesc matches DXGI_MODE_DESC.
type dxgiModeDesc struct {
	Width            uint32
	Height           uint32
	RefreshRate      dxgiRational
	Format           uint32
	ScanlineOrdering uint32
	Scaling          uint32
}

// dxgiSwapChainDesc matches DXGI_SWAP_CHAIN_DESC (DXGI 1.1).
type dxgiSwapChainDesc struct {
	BufferDesc   dxgiModeDesc
	SampleDesc   dxgiSampleDesc
	BufferUsage  uint32
	BufferCount  uint32
	OutputWindow uintptr // HWND
	Windowed     int32   // BOOL
	SwapEffect   uint32
	Flags        uint32
}

// dxgiSwapChainDesc1 matches DXGI_SWAP_CHAIN_DESC1 (DXGI 1.2).
type dxgiSwapChainDesc1 struct {
	Width       uint32
	Height      uint32
	Format      uint32
	Stereo      int32 // BOOL
	SampleDesc  dxgiSampleDesc
	BufferUsage uint32
	BufferCount uint32
	Scaling     uint32
	SwapEffect  uint32
	AlphaMode   uint32
	Flags       uint32
}

// dxgiLUID matches LUID.
type dxgiLUID struct {
	LowPart  uint32
	HighPart int32
}

// dxgiAdapterDesc1 matches DXGI_ADAPTER_DESC1.
type dxgiAdapterDesc1 struct {
	Description           [128]uint16
	VendorID              uint32
	DeviceID              uint32
	SubSysID              uint32
	Revision              uint32
	DedicatedVideoMemory  uintptr // SIZE_T
	DedicatedSystemMemory uintptr
	SharedSystemMemory    uintptr
	AdapterLuid           dxgiLUID
	Flags                 uint32
}

// d3d11Texture2DDesc matches D3D11_TEXTURE2D_DESC (44 bytes).
type d3d11Texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32
	SampleDesc     dxgiSampleDesc
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

// d3d11MappedSubresource matches D3D11_MAPPED_SUBRESOURCE.
type d3d11MappedSubresource struct {
	PData      uintptr
	RowPitch   uint32
	DepthPitch uint32
}
