package hwvideo

import (
	"errors"
	"testing"
)

func TestSurfaceFormatByCV(t *testing.T) {
	tests := []struct {
		cv     uint32
		format PixelFormat
		planes int
	}{
		{CVPixelFormat420BiPlanar, PixelFormatNV12, 2},
		{CVPixelFormat422YpCbCr8, PixelFormatUYVY, 1},
		{CVPixelFormat420Planar, PixelFormatI420, 3},
		{CVPixelFormat32BGRA, PixelFormatBGR0, 1},
	}

	for _, tt := range tests {
		f, ok := surfaceFormatByCV(tt.cv)
		if !ok {
			t.Errorf("surfaceFormatByCV(%s): no entry", fourCCString(tt.cv))
			continue
		}
		if f.Format != tt.format || f.Planes != tt.planes {
			t.Errorf("surfaceFormatByCV(%s) = %s with %d planes, want %s with %d",
				fourCCString(tt.cv), f.Format, f.Planes, tt.format, tt.planes)
		}
	}
}

func TestSurfaceFormatByCV_Miss(t *testing.T) {
	const l10r = 0x6c313072
	if _, ok := surfaceFormatByCV(l10r); ok {
		t.Error("unexpected table entry for l10r")
	}
	if SurfaceFormatSupported(l10r) {
		t.Error("SurfaceFormatSupported(l10r) = true")
	}
	if _, ok := SurfacePixelFormat(l10r); ok {
		t.Error("SurfacePixelFormat(l10r) returned a format")
	}
}

func TestSurfaceFormatSwizzle(t *testing.T) {
	// Packed 4:2:2 is the only entry that needs channel reordering.
	f, ok := surfaceFormatByCV(CVPixelFormat422YpCbCr8)
	if !ok {
		t.Fatal("no entry for 2vuy")
	}
	if f.Swizzle != "gbra" {
		t.Errorf("2vuy swizzle = %q, want gbra", f.Swizzle)
	}

	for _, cv := range []uint32{CVPixelFormat420BiPlanar, CVPixelFormat420Planar, CVPixelFormat32BGRA} {
		f, ok := surfaceFormatByCV(cv)
		if !ok {
			t.Fatalf("no entry for %s", fourCCString(cv))
		}
		if f.Swizzle != "" {
			t.Errorf("%s swizzle = %q, want identity", fourCCString(cv), f.Swizzle)
		}
	}
}

func TestResolveSurfaceFormat(t *testing.T) {
	got, err := ResolveSurfaceFormat(PixelFormatNV12)
	if err != nil {
		t.Fatalf("ResolveSurfaceFormat failed: %v", err)
	}
	if got != PixelFormatNV12 {
		t.Errorf("resolved format = %s, want NV12", got)
	}

	if _, err := ResolveSurfaceFormat(PixelFormatRGB0); !errors.Is(err, ErrUnsupportedSurface) {
		t.Errorf("error = %v, want ErrUnsupportedSurface", err)
	}
}

func TestValidatePlaneLayout(t *testing.T) {
	nv12, _ := surfaceFormatByCV(CVPixelFormat420BiPlanar)
	bgra, _ := surfaceFormatByCV(CVPixelFormat32BGRA)

	tests := []struct {
		name   string
		format *surfaceFormat
		planar bool
		planes int
		ok     bool
	}{
		{"nv12 planar", nv12, true, 2, true},
		{"nv12 flattened", nv12, false, 0, false},
		{"nv12 extra plane", nv12, true, 3, false},
		{"bgra packed", bgra, false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePlaneLayout(tt.format, tt.planar, tt.planes)
			if tt.ok && err != nil {
				t.Errorf("validatePlaneLayout failed: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrPlaneMismatch) {
				t.Errorf("error = %v, want ErrPlaneMismatch", err)
			}
		})
	}
}

func TestGLVersionNumber(t *testing.T) {
	tests := []struct {
		version string
		want    int
	}{
		{"2.1 NVIDIA-14.0.32", 210},
		{"3.3", 330},
		{"4.1 Metal - 83.1", 410},
		{"OpenGL ES 2.0", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := glVersionNumber(tt.version); got != tt.want {
			t.Errorf("glVersionNumber(%q) = %d, want %d", tt.version, got, tt.want)
		}
	}
}

func TestFourCCString(t *testing.T) {
	if got := fourCCString(CVPixelFormat32BGRA); got != "BGRA" {
		t.Errorf("fourCCString(BGRA) = %q", got)
	}
	if got := fourCCString(CVPixelFormat420BiPlanar); got != "420v" {
		t.Errorf("fourCCString(420v) = %q", got)
	}
	if got := fourCCString(1); got != "0x00000001" {
		t.Errorf("fourCCString(1) = %q", got)
	}
}
