package hwvideo

import (
	"errors"
	"fmt"
)

// ErrNoFeatureLevel is returned when the requested feature level window
// does not overlap any supported level. No creation is attempted.
var ErrNoFeatureLevel = errors.New("no supported feature level in requested range")

// ErrDeviceCreation is returned when every rung of the device fallback
// ladder failed. It always wraps the last underlying platform error.
var ErrDeviceCreation = errors.New("device creation failed")

// DeviceConfig configures device negotiation.
type DeviceConfig struct {
	// MaxFeatureLevel and MinFeatureLevel bound the requested feature
	// level window. Zero means the package default (11_0 and 9_1).
	MaxFeatureLevel FeatureLevel
	MinFeatureLevel FeatureLevel

	// AllowSoftware permits falling back to the WARP software
	// rasterizer after every hardware attempt has failed.
	AllowSoftware bool

	// ForceSoftware requests the WARP software rasterizer directly.
	ForceSoftware bool

	// Debug requests the D3D11 debug layer.
	Debug bool

	// MaxFrameLatency is the maximum number of queued present
	// operations. Zero leaves the platform default in place.
	MaxFrameLatency int
}

// deviceAttempt is one rung of the device fallback ladder: a complete
// parameter set for a single creation call.
type deviceAttempt struct {
	Software        bool
	ExtendedFormats bool
	MaxLevel        FeatureLevel
	MinLevel        FeatureLevel
}

// Levels returns the feature levels this attempt requests, highest
// first.
func (a deviceAttempt) Levels() []FeatureLevel {
	return featureLevelsInRange(a.MaxLevel, a.MinLevel)
}

// deviceAttempts expands a config into the full ordered fallback
// ladder. Each rung is tried at most once. The sequence for one pass:
//
//  1. extended formats on, then off, at the requested window
//  2. if the window admits 12_0+ with a min at or below 11_1, cap the
//     max to 11_1 and repeat the pair (creation with a 12_x level in
//     the request fails outright on runtimes that predate it)
//  3. likewise cap 11_1+ down to 11_0 for runtimes without 11_1
//
// A software pass restarting at the original window follows the
// hardware pass when AllowSoftware is set. Extended (BGRA) format
// support is recommended for presentation but absent on some
// feature-level-10 hardware, hence the on/off pair at every rung.
func deviceAttempts(cfg DeviceConfig) []deviceAttempt {
	max, min := cfg.MaxFeatureLevel, cfg.MinFeatureLevel
	if max == 0 {
		max = DefaultMaxFeatureLevel
	}
	if min == 0 {
		min = DefaultMinFeatureLevel
	}

	var attempts []deviceAttempt
	pass := func(software bool) {
		pmax, pmin := max, min
		pair := func() {
			attempts = append(attempts,
				deviceAttempt{Software: software, ExtendedFormats: true, MaxLevel: pmax, MinLevel: pmin},
				deviceAttempt{Software: software, ExtendedFormats: false, MaxLevel: pmax, MinLevel: pmin},
			)
		}
		pair()
		if pmax >= FeatureLevel12_0 && pmin <= FeatureLevel11_1 {
			pmax = FeatureLevel11_1
			pair()
		}
		if pmax >= FeatureLevel11_1 && pmin <= FeatureLevel11_0 {
			pmax = FeatureLevel11_0
			pair()
		}
	}

	pass(cfg.ForceSoftware)
	if !cfg.ForceSoftware && cfg.AllowSoftware {
		pass(true)
	}
	return attempts
}

// createDeviceFunc performs a single creation call for one ladder
// rung, returning the achieved feature level and an opaque device
// handle on success.
type createDeviceFunc func(attempt deviceAttempt) (FeatureLevel, uintptr, error)

// ladderResult reports a successful negotiation.
type ladderResult struct {
	Level    FeatureLevel // feature level the device was created with
	Handle   uintptr      // opaque handle returned by the creator
	Attempt  deviceAttempt
	Attempts int // creation calls made, including the successful one
}

// runDeviceLadder drives the fallback ladder against a creator. The
// requested window is validated before any creation call; an empty
// overlap with the supported level table fails immediately. Exhausting
// the ladder returns ErrDeviceCreation wrapping the last underlying
// error.
func runDeviceLadder(cfg DeviceConfig, create createDeviceFunc) (ladderResult, error) {
	max, min := cfg.MaxFeatureLevel, cfg.MinFeatureLevel
	if max == 0 {
		max = DefaultMaxFeatureLevel
	}
	if min == 0 {
		min = DefaultMinFeatureLevel
	}
	if len(featureLevelsInRange(max, min)) == 0 {
		return ladderResult{}, fmt.Errorf("%w: %s to %s", ErrNoFeatureLevel, min, max)
	}

	log := Logger()
	attempts := deviceAttempts(cfg)
	var lastErr error
	for i, at := range attempts {
		level, handle, err := create(at)
		if err == nil {
			return ladderResult{Level: level, Handle: handle, Attempt: at, Attempts: i + 1}, nil
		}
		lastErr = err
		log.Debug("device creation attempt failed",
			"software", at.Software,
			"extended_formats", at.ExtendedFormats,
			"max_level", at.MaxLevel.String(),
			"min_level", at.MinLevel.String(),
			"error", err)
	}
	return ladderResult{}, fmt.Errorf("%w after %d attempts: %w",
		ErrDeviceCreation, len(attempts), lastErr)
}

// AdapterInfo identifies the adapter a device was created on.
type AdapterInfo struct {
	Description string
	VendorID    uint32
	DeviceID    uint32
	SubsystemID uint32
	Revision    uint32
	LUIDHigh    int32
	LUIDLow     uint32

	// Software reports whether the adapter is a software rasterizer.
	Software bool
}

// LUID returns the locally unique adapter identifier as a hex string.
func (a AdapterInfo) LUID() string {
	return fmt.Sprintf("%08x%08x", uint32(a.LUIDHigh), a.LUIDLow)
}

// Microsoft Basic Render Driver IDs. When a software adapter is the
// primary display adapter its software flag is not set, but the device
// IDs still match.
const (
	basicRenderVendorID = 0x1414
	basicRenderDeviceID = 0x8c
)

// isBasicRenderDriver reports whether adapter IDs name the Microsoft
// Basic Render Driver.
func isBasicRenderDriver(vendorID, deviceID uint32) bool {
	return vendorID == basicRenderVendorID && deviceID == basicRenderDeviceID
}
