package hwvideo

import "fmt"

// FeatureLevel is a Direct3D feature level, the named tier of
// hardware/driver functionality a device was created with. The value
// uses the D3D encoding: major version in bits 12-15, minor version in
// bits 8-11.
type FeatureLevel uint16

const (
	FeatureLevel9_1  FeatureLevel = 0x9100
	FeatureLevel9_2  FeatureLevel = 0x9200
	FeatureLevel9_3  FeatureLevel = 0x9300
	FeatureLevel10_0 FeatureLevel = 0xa000
	FeatureLevel10_1 FeatureLevel = 0xa100
	FeatureLevel11_0 FeatureLevel = 0xb000
	FeatureLevel11_1 FeatureLevel = 0xb100
	FeatureLevel12_0 FeatureLevel = 0xc000
	FeatureLevel12_1 FeatureLevel = 0xc100
)

// Defaults used when a requested bound is zero.
const (
	DefaultMaxFeatureLevel = FeatureLevel11_0
	DefaultMinFeatureLevel = FeatureLevel9_1
)

// featureLevels lists the supported feature levels from richest to
// most basic. Range computations return contiguous sub-slices of this
// table; do not reorder.
var featureLevels = []FeatureLevel{
	FeatureLevel12_1,
	FeatureLevel12_0,
	FeatureLevel11_1,
	FeatureLevel11_0,
	FeatureLevel10_1,
	FeatureLevel10_0,
	FeatureLevel9_3,
	FeatureLevel9_2,
	FeatureLevel9_1,
}

// Major returns the major version encoded in the feature level.
func (fl FeatureLevel) Major() int { return int(fl >> 12) }

// Minor returns the minor version encoded in the feature level.
func (fl FeatureLevel) Minor() int { return int(fl>>8) & 0xf }

func (fl FeatureLevel) String() string {
	return fmt.Sprintf("%d_%d", fl.Major(), fl.Minor())
}

// featureLevelsInRange returns the sub-slice of the feature level
// table between max and min inclusive, highest first. The result is
// empty when the window does not overlap any supported level.
func featureLevelsInRange(max, min FeatureLevel) []FeatureLevel {
	start := 0
	for ; start < len(featureLevels); start++ {
		if featureLevels[start] <= max {
			break
		}
	}
	end := start
	for ; end < len(featureLevels); end++ {
		if featureLevels[end] < min {
			break
		}
	}
	return featureLevels[start:end]
}
