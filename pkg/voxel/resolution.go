package voxel

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Resolution is the physical size of a voxel in metres along each axis.
// Z may be NaN for data where depth spacing is unknown or irrelevant.
type Resolution struct {
	X, Y, Z float64
}

// ZRelative returns the Z spacing relative to the X spacing.
func (r Resolution) ZRelative() float64 {
	return r.Z / r.X
}

// ZScaleSquared is the multiplicative constant the distance transform uses
// along Z.
func (r Resolution) ZScaleSquared() float64 {
	rel := r.ZRelative()
	return rel * rel
}

func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Unit is the unit a Distance is expressed in.
type Unit int

const (
	Voxels Unit = iota
	Nanometers
	Micrometers
	Millimeters
	Meters
)

var unitMeters = map[Unit]float64{
	Nanometers:  1e-9,
	Micrometers: 1e-6,
	Millimeters: 1e-3,
	Meters:      1,
}

var unitSuffixes = []struct {
	suffix string
	unit   Unit
}{
	{"voxels", Voxels},
	{"voxel", Voxels},
	{"vx", Voxels},
	{"nm", Nanometers},
	{"um", Micrometers},
	{"µm", Micrometers},
	{"mm", Millimeters},
	{"m", Meters},
}

func (u Unit) String() string {
	switch u {
	case Voxels:
		return "vx"
	case Nanometers:
		return "nm"
	case Micrometers:
		return "um"
	case Millimeters:
		return "mm"
	case Meters:
		return "m"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// Distance is a length given either as a voxel count or in physical units.
type Distance struct {
	Value float64
	Unit  Unit
}

// ParseDistance reads strings such as "3", "3vx", "2.5um" or "0.4 mm".
// A bare number is a voxel count.
func ParseDistance(s string) (Distance, error) {
	s = strings.TrimSpace(s)
	unit := Voxels
	for _, u := range unitSuffixes {
		if strings.HasSuffix(s, u.suffix) {
			unit = u.unit
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			break
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Distance{}, fmt.Errorf("%w: invalid distance %q: %v", ErrConfiguration, s, err)
	}
	if math.IsNaN(v) || v <= 0 {
		return Distance{}, fmt.Errorf("%w: distance must be positive, got %v", ErrConfiguration, v)
	}
	return Distance{Value: v, Unit: unit}, nil
}

func (d Distance) String() string {
	return strconv.FormatFloat(d.Value, 'g', -1, 64) + d.Unit.String()
}

// IsPhysical reports whether converting d to voxels needs a resolution.
func (d Distance) IsPhysical() bool {
	return d.Unit != Voxels
}

// Meters returns the physical length of d. It is only meaningful for
// physical units.
func (d Distance) Meters() float64 {
	return d.Value * unitMeters[d.Unit]
}

// Voxels resolves d into a number of voxels along the direction from a to b.
// Anisotropic resolution makes the result depend on that direction; when a
// and b coincide the X axis is used.
func (d Distance) Voxels(res *Resolution, a, b Point3D) (float64, error) {
	if !d.IsPhysical() {
		return d.Value, nil
	}
	if err := d.checkResolution(res, false); err != nil {
		return 0, err
	}
	delta := b.Sub(a)
	length := delta.Norm()
	if length == 0 {
		return d.Meters() / res.X, nil
	}
	if delta.Z != 0 && !usable(res.Z) {
		return 0, fmt.Errorf("%w: points differ in z but z resolution is %v", ErrResolutionUnavailable, res.Z)
	}
	dx, dy, dz := delta.X*res.X, delta.Y*res.Y, 0.0
	if delta.Z != 0 {
		dz = delta.Z * res.Z
	}
	physical := math.Sqrt(dx*dx + dy*dy + dz*dz)
	return d.Meters() * length / physical, nil
}

// MaxVoxels is the largest value Voxels can return for any direction. useZ
// says whether directions with a Z component need to be considered.
func (d Distance) MaxVoxels(res *Resolution, useZ bool) (float64, error) {
	if !d.IsPhysical() {
		return d.Value, nil
	}
	if err := d.checkResolution(res, useZ); err != nil {
		return 0, err
	}
	finest := math.Min(res.X, res.Y)
	if useZ {
		finest = math.Min(finest, res.Z)
	}
	return d.Meters() / finest, nil
}

func (d Distance) checkResolution(res *Resolution, useZ bool) error {
	if res == nil {
		return fmt.Errorf("%w: distance %s is in physical units but no resolution was given", ErrResolutionUnavailable, d)
	}
	if !usable(res.X) || !usable(res.Y) {
		return fmt.Errorf("%w: xy resolution %v,%v is not usable", ErrResolutionUnavailable, res.X, res.Y)
	}
	if useZ && !usable(res.Z) {
		return fmt.Errorf("%w: z resolution %v is not usable", ErrResolutionUnavailable, res.Z)
	}
	return nil
}
