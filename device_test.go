package hwvideo

import (
	"errors"
	"fmt"
	"testing"
)

func TestDeviceAttempts_DefaultWindow(t *testing.T) {
	attempts := deviceAttempts(DeviceConfig{})
	if len(attempts) != 2 {
		t.Fatalf("got %d attempts, want 2", len(attempts))
	}
	if !attempts[0].ExtendedFormats || attempts[1].ExtendedFormats {
		t.Error("extended formats should be tried first, then disabled")
	}
	for i, at := range attempts {
		if at.Software {
			t.Errorf("attempt %d is software, config does not allow it", i)
		}
		if at.MaxLevel != DefaultMaxFeatureLevel || at.MinLevel != DefaultMinFeatureLevel {
			t.Errorf("attempt %d window = %s..%s, want defaults", i, at.MinLevel, at.MaxLevel)
		}
	}
}

func TestDeviceAttempts_CapsHighWindows(t *testing.T) {
	attempts := deviceAttempts(DeviceConfig{
		MaxFeatureLevel: FeatureLevel12_1,
		MinFeatureLevel: FeatureLevel9_1,
	})

	// Full window pair, then capped to 11_1, then capped to 11_0.
	wantMax := []FeatureLevel{
		FeatureLevel12_1, FeatureLevel12_1,
		FeatureLevel11_1, FeatureLevel11_1,
		FeatureLevel11_0, FeatureLevel11_0,
	}
	if len(attempts) != len(wantMax) {
		t.Fatalf("got %d attempts, want %d", len(attempts), len(wantMax))
	}
	for i, at := range attempts {
		if at.MaxLevel != wantMax[i] {
			t.Errorf("attempt %d max level = %s, want %s", i, at.MaxLevel, wantMax[i])
		}
		if at.MinLevel != FeatureLevel9_1 {
			t.Errorf("attempt %d min level = %s, want 9_1", i, at.MinLevel)
		}
		if at.ExtendedFormats != (i%2 == 0) {
			t.Errorf("attempt %d extended formats = %t", i, at.ExtendedFormats)
		}
	}
}

func TestDeviceAttempts_SoftwareRestartsAtFullWindow(t *testing.T) {
	attempts := deviceAttempts(DeviceConfig{
		MaxFeatureLevel: FeatureLevel12_1,
		AllowSoftware:   true,
	})
	if len(attempts) != 12 {
		t.Fatalf("got %d attempts, want 12", len(attempts))
	}
	for i, at := range attempts {
		if at.Software != (i >= 6) {
			t.Errorf("attempt %d software = %t", i, at.Software)
		}
	}
	// The software pass starts over at the requested window, not at
	// whatever cap the hardware pass ended on.
	if attempts[6].MaxLevel != FeatureLevel12_1 {
		t.Errorf("first software attempt max level = %s, want 12_1", attempts[6].MaxLevel)
	}
}

func TestDeviceAttempts_ForceSoftware(t *testing.T) {
	attempts := deviceAttempts(DeviceConfig{ForceSoftware: true, AllowSoftware: true})
	if len(attempts) != 2 {
		t.Fatalf("got %d attempts, want 2", len(attempts))
	}
	for i, at := range attempts {
		if !at.Software {
			t.Errorf("attempt %d is hardware, config forces software", i)
		}
	}
}

func TestDeviceAttempt_Levels(t *testing.T) {
	at := deviceAttempt{MaxLevel: FeatureLevel11_1, MinLevel: FeatureLevel11_0}
	levels := at.Levels()
	if len(levels) != 2 || levels[0] != FeatureLevel11_1 || levels[1] != FeatureLevel11_0 {
		t.Errorf("Levels() = %v, want [11_1 11_0]", levels)
	}
}

func TestRunDeviceLadder_FirstAttempt(t *testing.T) {
	var calls int
	result, err := runDeviceLadder(DeviceConfig{}, func(deviceAttempt) (FeatureLevel, uintptr, error) {
		calls++
		return FeatureLevel11_0, 42, nil
	})
	if err != nil {
		t.Fatalf("runDeviceLadder failed: %v", err)
	}
	if calls != 1 || result.Attempts != 1 {
		t.Errorf("calls = %d, Attempts = %d, want 1 and 1", calls, result.Attempts)
	}
	if result.Level != FeatureLevel11_0 || result.Handle != 42 {
		t.Errorf("result = %s/%d, want 11_0/42", result.Level, result.Handle)
	}
}

func TestRunDeviceLadder_FallsBackToCappedWindow(t *testing.T) {
	// An old runtime that rejects any request naming a 12_x level:
	// the first success is the capped 11_1 window without extended
	// formats, the fourth creation call overall.
	var calls int
	result, err := runDeviceLadder(DeviceConfig{MaxFeatureLevel: FeatureLevel12_1},
		func(at deviceAttempt) (FeatureLevel, uintptr, error) {
			calls++
			if calls < 4 {
				return 0, 0, fmt.Errorf("E_INVALIDARG")
			}
			return FeatureLevel11_1, 7, nil
		})
	if err != nil {
		t.Fatalf("runDeviceLadder failed: %v", err)
	}
	if result.Attempts != 4 {
		t.Errorf("Attempts = %d, want 4", result.Attempts)
	}
	if result.Attempt.MaxLevel != FeatureLevel11_1 || result.Attempt.ExtendedFormats {
		t.Errorf("winning attempt = %+v, want capped 11_1 window without extended formats", result.Attempt)
	}
}

func TestRunDeviceLadder_Exhausted(t *testing.T) {
	sentinel := errors.New("DXGI_ERROR_UNSUPPORTED")
	cfg := DeviceConfig{AllowSoftware: true}
	var calls int
	_, err := runDeviceLadder(cfg, func(deviceAttempt) (FeatureLevel, uintptr, error) {
		calls++
		return 0, 0, sentinel
	})
	if !errors.Is(err, ErrDeviceCreation) {
		t.Fatalf("error = %v, want ErrDeviceCreation", err)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("error should wrap the last underlying error: %v", err)
	}
	if want := len(deviceAttempts(cfg)); calls != want {
		t.Errorf("creator called %d times, want %d", calls, want)
	}
}

func TestRunDeviceLadder_EmptyWindow(t *testing.T) {
	var calls int
	_, err := runDeviceLadder(DeviceConfig{
		MaxFeatureLevel: FeatureLevel9_1,
		MinFeatureLevel: FeatureLevel11_0,
	}, func(deviceAttempt) (FeatureLevel, uintptr, error) {
		calls++
		return 0, 0, nil
	})
	if !errors.Is(err, ErrNoFeatureLevel) {
		t.Fatalf("error = %v, want ErrNoFeatureLevel", err)
	}
	if calls != 0 {
		t.Errorf("creator called %d times for an empty window, want 0", calls)
	}
}

func TestRunDeviceLadder_SoftwareFallback(t *testing.T) {
	result, err := runDeviceLadder(DeviceConfig{AllowSoftware: true},
		func(at deviceAttempt) (FeatureLevel, uintptr, error) {
			if !at.Software {
				return 0, 0, errors.New("no hardware adapter")
			}
			return FeatureLevel11_0, 1, nil
		})
	if err != nil {
		t.Fatalf("runDeviceLadder failed: %v", err)
	}
	if !result.Attempt.Software {
		t.Error("winning attempt should be software")
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
}

func TestIsBasicRenderDriver(t *testing.T) {
	if !isBasicRenderDriver(0x1414, 0x8c) {
		t.Error("Microsoft Basic Render Driver IDs not recognized")
	}
	if isBasicRenderDriver(0x10de, 0x2684) {
		t.Error("discrete adapter IDs misclassified as software")
	}
}

func TestAdapterInfo_LUID(t *testing.T) {
	info := AdapterInfo{LUIDHigh: 0, LUIDLow: 0xe6a2}
	if got, want := info.LUID(), "000000000000e6a2"; got != want {
		t.Errorf("LUID() = %q, want %q", got, want)
	}
	neg := AdapterInfo{LUIDHigh: -1, LUIDLow: 1}
	if got, want := neg.LUID(), "ffffffff00000001"; got != want {
		t.Errorf("LUID() = %q, want %q", got, want)
	}
}
