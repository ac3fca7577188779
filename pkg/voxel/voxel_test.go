package voxel

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtentIndex(t *testing.T) {
	e := Extent{X: 4, Y: 3, Z: 2}
	assert.Equal(t, 24, e.Volume())
	assert.Equal(t, 0, e.Index(0, 0, 0))
	assert.Equal(t, 1*4*3+2*4+3, e.Index(3, 2, 1))
	assert.True(t, e.Contains(Point{X: 3, Y: 2, Z: 1}))
	assert.False(t, e.Contains(Point{X: 4, Y: 0, Z: 0}))
	assert.False(t, e.Contains(Point{X: 0, Y: -1, Z: 0}))
}

func TestGridSliceRoundTrip(t *testing.T) {
	g := NewGrid[uint16](Extent{X: 2, Y: 2, Z: 3})
	for i := range g.Data {
		g.Data[i] = uint16(i)
	}

	s, err := g.Slice(1)
	require.NoError(t, err)
	assert.Equal(t, []uint16{4, 5, 6, 7}, s.Data)

	s.Set(0, 0, 0, 99)
	require.NoError(t, g.SetSlice(2, s))
	assert.Equal(t, uint16(99), g.Get(0, 0, 2))

	_, err = g.Slice(3)
	assert.Error(t, err)
	assert.Error(t, g.SetSlice(0, NewGrid[uint16](Extent{X: 3, Y: 2, Z: 1})))
}

func TestFiniteMax(t *testing.T) {
	f := NewField(Extent{X: 4, Y: 1, Z: 1})
	copy(f.Data, []float64{1, math.Inf(1), 3, math.NaN()})
	assert.Equal(t, 3.0, FiniteMax(f))
}

func TestMaskValidate(t *testing.T) {
	m := NewMask(Extent{X: 3, Y: 1, Z: 1}, BinaryValues{On: 1, Off: 0})
	m.SetOn(1, 0, 0)
	require.NoError(t, m.Validate())

	m.Grid.Data[2] = 7
	err := m.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))

	same := NewMask(Extent{X: 1, Y: 1, Z: 1}, BinaryValues{On: 5, Off: 5})
	assert.ErrorIs(t, same.Validate(), ErrConfiguration)

	inverted := NewMask(Extent{X: 2, Y: 1, Z: 1}, BinaryValues{On: 0, Off: 255})
	assert.Equal(t, []uint8{255, 255}, inverted.Grid.Data)
}

func TestParseDistance(t *testing.T) {
	tests := []struct {
		in   string
		want Distance
	}{
		{"3", Distance{Value: 3, Unit: Voxels}},
		{"3vx", Distance{Value: 3, Unit: Voxels}},
		{"4 voxels", Distance{Value: 4, Unit: Voxels}},
		{"2.5um", Distance{Value: 2.5, Unit: Micrometers}},
		{"2.5µm", Distance{Value: 2.5, Unit: Micrometers}},
		{"0.4 mm", Distance{Value: 0.4, Unit: Millimeters}},
		{"10nm", Distance{Value: 10, Unit: Nanometers}},
		{"1m", Distance{Value: 1, Unit: Meters}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDistance(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "abc", "-1", "0um"} {
		_, err := ParseDistance(bad)
		assert.ErrorIs(t, err, ErrConfiguration, bad)
	}
}

func TestDistanceVoxels(t *testing.T) {
	origin := Point3D{}

	t.Run("voxel units ignore resolution", func(t *testing.T) {
		d := Distance{Value: 2, Unit: Voxels}
		v, err := d.Voxels(nil, origin, Point3D{X: 5})
		require.NoError(t, err)
		assert.Equal(t, 2.0, v)
	})

	t.Run("physical isotropic", func(t *testing.T) {
		d := Distance{Value: 2, Unit: Micrometers}
		res := &Resolution{X: 1e-6, Y: 1e-6, Z: 1e-6}
		v, err := d.Voxels(res, origin, Point3D{X: 1, Y: 1})
		require.NoError(t, err)
		assert.InDelta(t, 2.0, v, 1e-9)
	})

	t.Run("physical anisotropic depends on direction", func(t *testing.T) {
		d := Distance{Value: 4, Unit: Micrometers}
		res := &Resolution{X: 1e-6, Y: 1e-6, Z: 2e-6}
		alongX, err := d.Voxels(res, origin, Point3D{X: 3})
		require.NoError(t, err)
		alongZ, err := d.Voxels(res, origin, Point3D{Z: 3})
		require.NoError(t, err)
		assert.InDelta(t, 4.0, alongX, 1e-9)
		assert.InDelta(t, 2.0, alongZ, 1e-9)

		bound, err := d.MaxVoxels(res, true)
		require.NoError(t, err)
		assert.InDelta(t, 4.0, bound, 1e-9)
	})

	t.Run("missing resolution", func(t *testing.T) {
		d := Distance{Value: 1, Unit: Millimeters}
		_, err := d.Voxels(nil, origin, Point3D{X: 1})
		assert.ErrorIs(t, err, ErrResolutionUnavailable)
		_, err = d.MaxVoxels(nil, false)
		assert.ErrorIs(t, err, ErrResolutionUnavailable)
	})

	t.Run("nan z only matters across slices", func(t *testing.T) {
		d := Distance{Value: 1, Unit: Micrometers}
		res := &Resolution{X: 1e-6, Y: 1e-6, Z: math.NaN()}
		_, err := d.Voxels(res, origin, Point3D{X: 1})
		assert.NoError(t, err)
		_, err = d.Voxels(res, origin, Point3D{Z: 1})
		assert.ErrorIs(t, err, ErrResolutionUnavailable)
		_, err = d.MaxVoxels(res, true)
		assert.ErrorIs(t, err, ErrResolutionUnavailable)
	})
}

func TestResolutionZScale(t *testing.T) {
	res := Resolution{X: 0.5, Y: 0.5, Z: 1.5}
	assert.InDelta(t, 3.0, res.ZRelative(), 1e-12)
	assert.InDelta(t, 9.0, res.ZScaleSquared(), 1e-12)
}
