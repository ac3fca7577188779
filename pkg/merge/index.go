package merge

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"voxelseg/pkg/voxel"
)

// cogPoint is a region's centre of gravity tagged with the region index.
type cogPoint struct {
	voxel.Point3D
	index int
}

// Compare implements the kdtree.Comparable interface
func (p cogPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(cogPoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p cogPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two points
func (p cogPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(cogPoint)
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return dx*dx + dy*dy + dz*dz
}

// cogPoints is a collection of cogPoint that satisfies kdtree.Interface
type cogPoints []cogPoint

func (p cogPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p cogPoints) Len() int                              { return len(p) }
func (p cogPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p cogPoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(cogPlane{cogPoints: p, Dim: d}, kdtree.MedianOfRandoms(cogPlane{cogPoints: p, Dim: d}, 100))
}

// cogPlane implements sort.Interface and kdtree.SortSlicer for cogPoints
type cogPlane struct {
	cogPoints
	kdtree.Dim
}

func (p cogPlane) Less(i, j int) bool {
	return p.cogPoints[i].Compare(p.cogPoints[j], p.Dim) < 0
}

func (p cogPlane) Slice(start, end int) kdtree.SortSlicer {
	return cogPlane{cogPoints: p.cogPoints[start:end], Dim: p.Dim}
}

func (p cogPlane) Swap(i, j int) {
	p.cogPoints[i], p.cogPoints[j] = p.cogPoints[j], p.cogPoints[i]
}

// neighborIndex answers eps-neighbourhood queries under the composite
// metric. The k-d tree narrows candidates to those within radius voxels,
// an upper bound on the centre distance any neighbour can have; the exact
// metric then decides.
type neighborIndex struct {
	tree     *kdtree.Tree
	radius2  float64
	features []Feature
	metric   metric
}

func newNeighborIndex(features []Feature, m metric, radius float64) *neighborIndex {
	points := make(cogPoints, len(features))
	for i, f := range features {
		points[i] = cogPoint{Point3D: f.COG, index: i}
	}
	// Pad the radius so rounding in the squared distance cannot drop a pair
	// that sits exactly on the limit.
	r := radius * (1 + 1e-9)
	return &neighborIndex{
		tree:     kdtree.New(points, false),
		radius2:  r * r,
		features: features,
		metric:   m,
	}
}

// query returns, in ascending order, the indices of regions within eps of
// region i.
func (ix *neighborIndex) query(i int) ([]int, error) {
	keeper := kdtree.NewDistKeeper(ix.radius2)
	ix.tree.NearestSet(keeper, cogPoint{Point3D: ix.features[i].COG, index: i})

	var neighbors []int
	for _, item := range keeper.Heap {
		// Skip the sentinel value
		if item.Comparable == nil {
			continue
		}
		j := item.Comparable.(cogPoint).index
		d, err := ix.metric.distance(ix.features[i], ix.features[j])
		if err != nil {
			return nil, err
		}
		if within(d) {
			neighbors = append(neighbors, j)
		}
	}
	sort.Ints(neighbors)
	return neighbors, nil
}
