// Package region represents candidate objects as a bounding box plus a
// local membership buffer, all within one shared voxel coordinate space.
package region

import (
	"fmt"
	"sort"

	"voxelseg/pkg/voxel"
)

// Box is an axis-aligned bounding box given by its minimum corner and extent.
type Box struct {
	Min    voxel.Point
	Extent voxel.Extent
}

// Max returns the inclusive maximum corner.
func (b Box) Max() voxel.Point {
	return voxel.Point{X: b.Min.X + b.Extent.X - 1, Y: b.Min.Y + b.Extent.Y - 1, Z: b.Min.Z + b.Extent.Z - 1}
}

// Contains reports whether p lies inside the box.
func (b Box) Contains(p voxel.Point) bool {
	return b.Extent.Contains(voxel.Point{X: p.X - b.Min.X, Y: p.Y - b.Min.Y, Z: p.Z - b.Min.Z})
}

// Union returns the smallest box containing both b and o.
func (b Box) Union(o Box) Box {
	bMax, oMax := b.Max(), o.Max()
	lo := voxel.Point{X: min(b.Min.X, o.Min.X), Y: min(b.Min.Y, o.Min.Y), Z: min(b.Min.Z, o.Min.Z)}
	hi := voxel.Point{X: max(bMax.X, oMax.X), Y: max(bMax.Y, oMax.Y), Z: max(bMax.Z, oMax.Z)}
	return BoxFromCorners(lo, hi)
}

// Center returns the centre of the box in voxel units.
func (b Box) Center() voxel.Point3D {
	return voxel.Point3D{
		X: float64(b.Min.X) + float64(b.Extent.X-1)/2,
		Y: float64(b.Min.Y) + float64(b.Extent.Y-1)/2,
		Z: float64(b.Min.Z) + float64(b.Extent.Z-1)/2,
	}
}

// BoxFromCorners builds a box from inclusive minimum and maximum corners.
func BoxFromCorners(lo, hi voxel.Point) Box {
	return Box{
		Min:    lo,
		Extent: voxel.Extent{X: hi.X - lo.X + 1, Y: hi.Y - lo.Y + 1, Z: hi.Z - lo.Z + 1},
	}
}

func (b Box) String() string {
	return fmt.Sprintf("%v+%s", b.Min, b.Extent)
}

// Region is a set of voxels stored relative to its bounding box. Regions in
// one collection may overlap.
type Region struct {
	Box     Box
	Members []bool
}

// New returns an empty region covering box.
func New(box Box) *Region {
	return &Region{Box: box, Members: make([]bool, box.Extent.Volume())}
}

func (r *Region) local(p voxel.Point) int {
	return r.Box.Extent.Index(p.X-r.Box.Min.X, p.Y-r.Box.Min.Y, p.Z-r.Box.Min.Z)
}

// Set adds the global voxel p to the region. p must lie inside the box.
func (r *Region) Set(p voxel.Point) error {
	if !r.Box.Contains(p) {
		return fmt.Errorf("voxel %v outside region box %s", p, r.Box)
	}
	r.Members[r.local(p)] = true
	return nil
}

// Contains reports whether the global voxel p belongs to the region.
func (r *Region) Contains(p voxel.Point) bool {
	return r.Box.Contains(p) && r.Members[r.local(p)]
}

// Validate checks that the box has a usable extent and that Members holds
// one entry per box voxel.
func (r *Region) Validate() error {
	if !r.Box.Extent.Valid() {
		return fmt.Errorf("%w: region box %s must be at least 1 on every axis", voxel.ErrConfiguration, r.Box)
	}
	if len(r.Members) != r.Box.Extent.Volume() {
		return fmt.Errorf("%w: region holds %d members, box %s needs %d",
			voxel.ErrConfiguration, len(r.Members), r.Box, r.Box.Extent.Volume())
	}
	return nil
}

// Count returns the number of member voxels.
func (r *Region) Count() int {
	n := 0
	for _, m := range r.Members {
		if m {
			n++
		}
	}
	return n
}

// Each calls fn with the global coordinate of every member voxel in
// row-major order.
func (r *Region) Each(fn func(p voxel.Point)) {
	e := r.Box.Extent
	i := 0
	for z := 0; z < e.Z; z++ {
		for y := 0; y < e.Y; y++ {
			for x := 0; x < e.X; x++ {
				if r.Members[i] {
					fn(voxel.Point{X: x, Y: y, Z: z}.Add(r.Box.Min))
				}
				i++
			}
		}
	}
}

// Clone returns a newly allocated copy of r.
func (r *Region) Clone() *Region {
	out := &Region{Box: r.Box, Members: make([]bool, len(r.Members))}
	copy(out.Members, r.Members)
	return out
}

// Union builds a new region holding every voxel of the given regions. Its
// box is the union of their boxes.
func Union(regions ...*Region) (*Region, error) {
	if len(regions) == 0 {
		return nil, fmt.Errorf("union of no regions")
	}
	box := regions[0].Box
	for _, r := range regions[1:] {
		box = box.Union(r.Box)
	}
	out := New(box)
	for _, r := range regions {
		r.Each(func(p voxel.Point) {
			out.Members[out.local(p)] = true
		})
	}
	return out, nil
}

// FromLabels groups the voxels of a label grid by value, giving one region
// per non-zero label in ascending label order. Voxels sharing a label need
// not be connected.
func FromLabels(labels *voxel.Grid[uint16]) []*Region {
	e := labels.Extent
	type bounds struct{ lo, hi voxel.Point }
	found := make(map[uint16]*bounds)
	for z := 0; z < e.Z; z++ {
		for y := 0; y < e.Y; y++ {
			for x := 0; x < e.X; x++ {
				l := labels.Get(x, y, z)
				if l == 0 {
					continue
				}
				p := voxel.Point{X: x, Y: y, Z: z}
				b, ok := found[l]
				if !ok {
					found[l] = &bounds{lo: p, hi: p}
					continue
				}
				b.lo = voxel.Point{X: min(b.lo.X, x), Y: min(b.lo.Y, y), Z: min(b.lo.Z, z)}
				b.hi = voxel.Point{X: max(b.hi.X, x), Y: max(b.hi.Y, y), Z: max(b.hi.Z, z)}
			}
		}
	}

	ids := make([]uint16, 0, len(found))
	for l := range found {
		ids = append(ids, l)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	byLabel := make(map[uint16]*Region, len(ids))
	out := make([]*Region, len(ids))
	for i, l := range ids {
		r := New(BoxFromCorners(found[l].lo, found[l].hi))
		byLabel[l] = r
		out[i] = r
	}
	for z := 0; z < e.Z; z++ {
		for y := 0; y < e.Y; y++ {
			for x := 0; x < e.X; x++ {
				if r, ok := byLabel[labels.Get(x, y, z)]; ok {
					p := voxel.Point{X: x, Y: y, Z: z}
					r.Members[r.local(p)] = true
				}
			}
		}
	}
	return out
}

// Paint writes label into every voxel of grid covered by r. Voxels outside
// the grid are skipped.
func (r *Region) Paint(grid *voxel.Grid[uint16], label uint16) {
	r.Each(func(p voxel.Point) {
		if grid.Extent.Contains(p) {
			grid.Set(p.X, p.Y, p.Z, label)
		}
	})
}
