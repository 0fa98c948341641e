//go:build windows

package hwvideo

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Device wraps a negotiated ID3D11Device together with the DXGI
// adapter it was created on.
type Device struct {
	handle  uintptr // ID3D11Device
	level   FeatureLevel
	adapter AdapterInfo
}

// CreateDevice negotiates and creates a D3D11 device per cfg. The
// feature level range is walked from the most capable configuration
// down, disabling extended format support and falling back to the WARP
// software rasterizer as attempts fail.
func CreateDevice(cfg DeviceConfig) (*Device, error) {
	create := func(attempt deviceAttempt) (FeatureLevel, uintptr, error) {
		return createD3D11Device(attempt, cfg.Debug)
	}
	res, err := runDeviceLadder(cfg, create)
	if err != nil {
		return nil, err
	}

	dev := &Device{handle: res.Handle, level: res.Level}
	if err := dev.describeAdapter(cfg.MaxFrameLatency); err != nil {
		dev.Close()
		return nil, err
	}

	Logger().Info("created D3D11 device",
		"feature_level", dev.level.String(),
		"adapter", dev.adapter.Description,
		"vendor_id", fmt.Sprintf("0x%04x", dev.adapter.VendorID),
		"device_id", fmt.Sprintf("0x%04x", dev.adapter.DeviceID),
		"luid", dev.adapter.LUID(),
		"attempts", res.Attempts)

	if dev.adapter.Software {
		if cfg.ForceSoftware {
			Logger().Debug("using WARP software adapter")
		} else {
			Logger().Warn("using a software adapter, performance will suffer",
				"adapter", dev.adapter.Description)
		}
	}

	return dev, nil
}

// createD3D11Device performs one D3D11CreateDevice call for a single
// rung of the negotiation ladder.
func createD3D11Device(attempt deviceAttempt, debug bool) (FeatureLevel, uintptr, error) {
	driverType := uintptr(d3dDriverTypeHardware)
	if attempt.Software {
		driverType = d3dDriverTypeWarp
	}
	var flags uintptr
	if attempt.ExtendedFormats {
		flags |= d3d11CreateDeviceBGRASupport
	}
	if debug {
		flags |= d3d11CreateDeviceDebug
	}

	// D3D_FEATURE_LEVEL is a 32-bit enum. Old runtimes reject the whole
	// array when it contains a level they do not recognize, which is
	// what makes capping the range on retry effective.
	levels := attempt.Levels()
	rawLevels := make([]uint32, len(levels))
	for i, l := range levels {
		rawLevels[i] = uint32(l)
	}

	var dev uintptr
	hr, _, _ := procD3D11CreateDevice.Call(
		0, // pAdapter (NULL = default)
		driverType,
		0, // Software
		flags,
		uintptr(unsafe.Pointer(&rawLevels[0])),
		uintptr(len(rawLevels)),
		uintptr(d3d11SDKVersion),
		uintptr(unsafe.Pointer(&dev)),
		0, // pFeatureLevel
		0, // ppImmediateContext
	)
	if int32(hr) < 0 {
		return 0, 0, fmt.Errorf("D3D11CreateDevice: %w", hresultError(uint32(hr)))
	}

	level := FeatureLevel(comCallRaw(dev, d3d11DeviceGetFeatureLevel))
	return level, dev, nil
}

// describeAdapter walks from the device to its DXGI adapter, applies
// the frame latency hint and records the adapter identity.
func (d *Device) describeAdapter(maxFrameLatency int) error {
	dxgiDev, err := comQueryInterface(d.handle, &iidIDXGIDevice1)
	if err != nil {
		return fmt.Errorf("QueryInterface IDXGIDevice1: %w", err)
	}
	defer comRelease(dxgiDev)

	// Latency is a hint; some drivers reject it. Zero keeps the
	// platform default.
	if maxFrameLatency > 0 {
		comCall(dxgiDev, dxgiDevice1SetMaxFrameLatency, uintptr(maxFrameLatency))
	}

	var adapter uintptr
	if _, err := comCall(dxgiDev, dxgiObjectGetParent,
		uintptr(unsafe.Pointer(&iidIDXGIAdapter1)),
		uintptr(unsafe.Pointer(&adapter)),
	); err != nil {
		return fmt.Errorf("IDXGIDevice1::GetParent: %w", err)
	}
	defer comRelease(adapter)

	var desc dxgiAdapterDesc1
	if _, err := comCall(adapter, dxgiAdapter1GetDesc1, uintptr(unsafe.Pointer(&desc))); err != nil {
		return fmt.Errorf("IDXGIAdapter1::GetDesc1: %w", err)
	}

	d.adapter = AdapterInfo{
		Description: windows.UTF16ToString(desc.Description[:]),
		VendorID:    desc.VendorID,
		DeviceID:    desc.DeviceID,
		SubsystemID: desc.SubSysID,
		Revision:    desc.Revision,
		LUIDHigh:    desc.AdapterLuid.HighPart,
		LUIDLow:     desc.AdapterLuid.LowPart,
		Software:    desc.Flags&dxgiAdapterFlagSoftware != 0 || isBasicRenderDriver(desc.VendorID, desc.DeviceID),
	}
	return nil
}

// Handle returns the raw ID3D11Device pointer.
func (d *Device) Handle() uintptr { return d.handle }

// FeatureLevel returns the negotiated feature level.
func (d *Device) FeatureLevel() FeatureLevel { return d.level }

// Adapter returns information about the adapter backing the device.
func (d *Device) Adapter() AdapterInfo { return d.adapter }

// Software reports whether the device runs on a software rasterizer.
func (d *Device) Software() bool { return d.adapter.Software }

// ImmediateContext returns the device's immediate context. The caller
// owns the returned reference and must release it with comRelease.
func (d *Device) ImmediateContext() uintptr {
	var ctx uintptr
	comCallRaw(d.handle, d3d11DeviceGetImmediateContext, uintptr(unsafe.Pointer(&ctx)))
	return ctx
}

// Close releases the underlying device. Safe to call more than once.
func (d *Device) Close() error {
	if d.handle != 0 {
		comRelease(d.handle)
		d.handle = 0
	}
	return nil
}
