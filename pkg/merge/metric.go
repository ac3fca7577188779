package merge

import (
	"math"

	"voxelseg/pkg/voxel"
)

// metric is the composite distance between two features: the larger of the
// centre-of-gravity distance and the contour difference, each normalised by
// its configured maximum. Two regions are neighbours when it is at most eps.
type metric struct {
	maxCOG          voxel.Distance
	resolution      *voxel.Resolution
	maxDeltaContour float64
}

func (m metric) distance(a, b Feature) (float64, error) {
	maxVoxels, err := m.maxCOG.Voxels(m.resolution, a.COG, b.COG)
	if err != nil {
		return math.NaN(), err
	}
	cog := b.COG.Sub(a.COG).Norm() / maxVoxels
	contour := math.Abs(a.Contour-b.Contour) / m.maxDeltaContour
	// max yields NaN when either side is NaN.
	return max(cog, contour), nil
}

// within reports whether d joins two regions. A NaN distance never does, so
// a region whose contour could not be sampled stays on its own.
func within(d float64) bool {
	return !math.IsNaN(d) && d <= eps
}
