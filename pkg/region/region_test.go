package region

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelseg/pkg/voxel"
)

// cube builds a filled region of the given size at origin.
func cube(origin voxel.Point, size int) *Region {
	r := New(Box{Min: origin, Extent: voxel.Extent{X: size, Y: size, Z: size}})
	for i := range r.Members {
		r.Members[i] = true
	}
	return r
}

func members(r *Region) []voxel.Point {
	var pts []voxel.Point
	r.Each(func(p voxel.Point) { pts = append(pts, p) })
	return pts
}

func TestBoxUnion(t *testing.T) {
	a := Box{Min: voxel.Point{X: 1, Y: 1, Z: 0}, Extent: voxel.Extent{X: 2, Y: 2, Z: 1}}
	b := Box{Min: voxel.Point{X: 5, Y: 0, Z: 2}, Extent: voxel.Extent{X: 1, Y: 1, Z: 1}}

	u := a.Union(b)
	assert.Equal(t, voxel.Point{X: 1, Y: 0, Z: 0}, u.Min)
	assert.Equal(t, voxel.Point{X: 5, Y: 2, Z: 2}, u.Max())
	assert.True(t, u.Contains(voxel.Point{X: 5, Y: 0, Z: 2}))
	assert.False(t, u.Contains(voxel.Point{X: 6, Y: 0, Z: 2}))
}

func TestRegionSetAndContains(t *testing.T) {
	r := New(Box{Min: voxel.Point{X: 10, Y: 10, Z: 0}, Extent: voxel.Extent{X: 3, Y: 3, Z: 1}})
	require.NoError(t, r.Set(voxel.Point{X: 11, Y: 12, Z: 0}))
	assert.Error(t, r.Set(voxel.Point{X: 9, Y: 10, Z: 0}))

	assert.True(t, r.Contains(voxel.Point{X: 11, Y: 12, Z: 0}))
	assert.False(t, r.Contains(voxel.Point{X: 10, Y: 10, Z: 0}))
	assert.False(t, r.Contains(voxel.Point{X: 0, Y: 0, Z: 0}))
	assert.Equal(t, 1, r.Count())
}

func TestUnion(t *testing.T) {
	a := cube(voxel.Point{}, 2)
	b := cube(voxel.Point{X: 1, Y: 1, Z: 1}, 2)
	c := New(Box{Min: voxel.Point{X: 4, Y: 0, Z: 0}, Extent: voxel.Extent{X: 1, Y: 1, Z: 1}})
	require.NoError(t, c.Set(voxel.Point{X: 4, Y: 0, Z: 0}))

	u, err := Union(a, b, c)
	require.NoError(t, err)

	assert.Equal(t, voxel.Point{}, u.Box.Min)
	assert.Equal(t, voxel.Point{X: 4, Y: 2, Z: 2}, u.Box.Max())
	// 8 + 8 - 1 shared voxel + 1
	assert.Equal(t, 16, u.Count())
	for _, r := range []*Region{a, b, c} {
		r.Each(func(p voxel.Point) {
			assert.True(t, u.Contains(p), "missing %v", p)
		})
	}

	_, err = Union()
	assert.Error(t, err)
}

func TestUnionOfOneIsACopy(t *testing.T) {
	a := cube(voxel.Point{X: 2}, 2)
	u, err := Union(a)
	require.NoError(t, err)
	assert.NotSame(t, a, u)
	assert.Empty(t, cmp.Diff(a, u))

	u.Members[0] = false
	assert.True(t, a.Members[0])
}

func TestFromLabelsAndPaint(t *testing.T) {
	e := voxel.Extent{X: 4, Y: 3, Z: 2}
	labels := voxel.NewGrid[uint16](e)
	labels.Set(0, 0, 0, 7)
	labels.Set(3, 2, 1, 7)
	labels.Set(1, 1, 0, 2)

	regions := FromLabels(labels)
	require.Len(t, regions, 2)

	assert.Equal(t, []voxel.Point{{X: 1, Y: 1, Z: 0}}, members(regions[0]))
	want := []voxel.Point{{X: 0, Y: 0, Z: 0}, {X: 3, Y: 2, Z: 1}}
	if diff := cmp.Diff(want, members(regions[1])); diff != "" {
		t.Errorf("label 7 members mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, e, regions[1].Box.Extent)

	painted := voxel.NewGrid[uint16](e)
	regions[0].Paint(painted, 1)
	regions[1].Paint(painted, 2)
	assert.Equal(t, uint16(1), painted.Get(1, 1, 0))
	assert.Equal(t, uint16(2), painted.Get(3, 2, 1))
	assert.Equal(t, uint16(0), painted.Get(2, 2, 1))
}

func TestClone(t *testing.T) {
	a := cube(voxel.Point{}, 1)
	b := a.Clone()
	b.Members[0] = false
	assert.Equal(t, 1, a.Count())
	assert.Equal(t, 0, b.Count())
}

func TestBoxCenter(t *testing.T) {
	b := Box{Min: voxel.Point{X: 2, Y: 0, Z: 1}, Extent: voxel.Extent{X: 3, Y: 2, Z: 1}}
	assert.Equal(t, voxel.Point3D{X: 3, Y: 0.5, Z: 1}, b.Center())
}

func TestValidate(t *testing.T) {
	require.NoError(t, cube(voxel.Point{}, 2).Validate())

	short := cube(voxel.Point{}, 2)
	short.Members = short.Members[:5]
	assert.ErrorIs(t, short.Validate(), voxel.ErrConfiguration)

	empty := &Region{Box: Box{Extent: voxel.Extent{X: 0, Y: 1, Z: 1}}}
	assert.ErrorIs(t, empty.Validate(), voxel.ErrConfiguration)
}
