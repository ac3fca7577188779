// Package voxel defines the dense 3D grids shared by the distance transform
// and the region merger: extents, points, masks, scalar fields and physical
// voxel resolution.
package voxel

import (
	"fmt"
	"math"
)

// Extent is the size of a grid along each axis in voxels.
type Extent struct {
	X, Y, Z int
}

// Volume returns the number of voxels covered by the extent.
func (e Extent) Volume() int {
	return e.X * e.Y * e.Z
}

// Valid reports whether every axis spans at least one voxel.
func (e Extent) Valid() bool {
	return e.X >= 1 && e.Y >= 1 && e.Z >= 1
}

// Index returns the row-major offset of (x, y, z).
func (e Extent) Index(x, y, z int) int {
	return z*e.X*e.Y + y*e.X + x
}

// Contains reports whether p lies inside the extent.
func (e Extent) Contains(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.Z >= 0 && p.X < e.X && p.Y < e.Y && p.Z < e.Z
}

func (e Extent) String() string {
	return fmt.Sprintf("%dx%dx%d", e.X, e.Y, e.Z)
}

// Point is an integer voxel coordinate.
type Point struct {
	X, Y, Z int
}

// Add returns p shifted by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y, Z: p.Z + q.Z}
}

// Point3D is a real-valued coordinate in voxel units.
type Point3D struct {
	X, Y, Z float64
}

// Sub returns the displacement p - q.
func (p Point3D) Sub(q Point3D) Point3D {
	return Point3D{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// Norm returns the Euclidean length of p.
func (p Point3D) Norm() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Number is the set of voxel value types a Grid can hold.
type Number interface {
	~uint8 | ~uint16 | ~uint32 | ~int32 | ~float32 | ~float64
}

// Grid is a fully materialised 3D array stored in row-major order.
type Grid[T Number] struct {
	Extent Extent
	Data   []T
}

// NewGrid allocates a zeroed grid of the given extent.
func NewGrid[T Number](e Extent) *Grid[T] {
	return &Grid[T]{Extent: e, Data: make([]T, e.Volume())}
}

// Get returns the value at (x, y, z).
func (g *Grid[T]) Get(x, y, z int) T {
	return g.Data[g.Extent.Index(x, y, z)]
}

// Set stores v at (x, y, z).
func (g *Grid[T]) Set(x, y, z int, v T) {
	g.Data[g.Extent.Index(x, y, z)] = v
}

// At returns the value at p.
func (g *Grid[T]) At(p Point) T {
	return g.Data[g.Extent.Index(p.X, p.Y, p.Z)]
}

// Slice copies the XY plane at depth z into a new one-slice grid.
func (g *Grid[T]) Slice(z int) (*Grid[T], error) {
	if z < 0 || z >= g.Extent.Z {
		return nil, fmt.Errorf("slice %d outside depth %d", z, g.Extent.Z)
	}
	plane := g.Extent.X * g.Extent.Y
	out := NewGrid[T](Extent{X: g.Extent.X, Y: g.Extent.Y, Z: 1})
	copy(out.Data, g.Data[z*plane:(z+1)*plane])
	return out, nil
}

// SetSlice overwrites the XY plane at depth z with a one-slice grid.
func (g *Grid[T]) SetSlice(z int, s *Grid[T]) error {
	if z < 0 || z >= g.Extent.Z {
		return fmt.Errorf("slice %d outside depth %d", z, g.Extent.Z)
	}
	if s.Extent.X != g.Extent.X || s.Extent.Y != g.Extent.Y || s.Extent.Z != 1 {
		return fmt.Errorf("slice extent %s does not match plane %dx%d", s.Extent, g.Extent.X, g.Extent.Y)
	}
	plane := g.Extent.X * g.Extent.Y
	copy(g.Data[z*plane:(z+1)*plane], s.Data)
	return nil
}

// Field is a real-valued grid, typically a distance map.
type Field = Grid[float64]

// NewField allocates a zeroed scalar field.
func NewField(e Extent) *Field {
	return NewGrid[float64](e)
}

// FiniteMax returns the largest finite value of a field, or 0 when it holds none.
func FiniteMax(f *Field) float64 {
	best := 0.0
	found := false
	for _, v := range f.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !found || v > best {
			best = v
			found = true
		}
	}
	return best
}
