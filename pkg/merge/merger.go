// Package merge consolidates an over-segmented set of candidate regions,
// such as watershed minima, into fewer regions.
//
// Each region is reduced to its centre of gravity and the mean of a scalar
// field over its voxels. Regions are clustered density-style: two regions are
// neighbours when both their normalised centre distance and their normalised
// contour difference are at most 1, and every cluster is replaced by the
// union of its members.
package merge

import (
	"fmt"
	"io"
	"math"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"voxelseg/pkg/region"
	"voxelseg/pkg/voxel"
)

// Params configures a Merger.
type Params struct {
	// MaxDistanceCOG is the centre-of-gravity distance that normalises to 1.
	// Physical units need Resolution.
	MaxDistanceCOG voxel.Distance

	// MaxDistanceDeltaContour is the contour difference that normalises to 1.
	// +Inf disables the contour criterion.
	MaxDistanceDeltaContour float64

	// Resolution is the physical voxel size. Optional for voxel units.
	Resolution *voxel.Resolution

	// Workers bounds feature extraction concurrency. Zero or less means
	// runtime.NumCPU().
	Workers int
}

// Validate checks the parameters without looking at any regions.
func (p Params) Validate() error {
	if math.IsNaN(p.MaxDistanceCOG.Value) || p.MaxDistanceCOG.Value <= 0 {
		return fmt.Errorf("%w: max COG distance must be positive, got %v", voxel.ErrConfiguration, p.MaxDistanceCOG.Value)
	}
	if math.IsNaN(p.MaxDistanceDeltaContour) || p.MaxDistanceDeltaContour <= 0 {
		return fmt.Errorf("%w: max contour difference must be positive, got %v", voxel.ErrConfiguration, p.MaxDistanceDeltaContour)
	}
	if p.MaxDistanceCOG.IsPhysical() && p.Resolution == nil {
		return fmt.Errorf("%w: max COG distance %s is physical but no resolution was given",
			voxel.ErrResolutionUnavailable, p.MaxDistanceCOG)
	}
	return nil
}

// Result is the outcome of one merge.
type Result struct {
	// Regions holds one newly allocated region per cluster.
	Regions []*region.Region

	// Clusters lists, for each output region, the input indices it was
	// built from. Every input index appears exactly once.
	Clusters [][]int

	// Failures lists regions whose contour value could not be sampled.
	Failures []FeatureError
}

// Merger clusters and unites regions. It keeps no state between calls.
type Merger struct {
	params  Params
	workers int
	logger  logrus.FieldLogger
}

// NewMerger creates a merger. A nil logger discards output.
func NewMerger(params Params, logger logrus.FieldLogger) *Merger {
	workers := params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	return &Merger{params: params, workers: workers, logger: logger}
}

// Merge is the functional form of Merger.Merge, returning only the merged
// regions.
func Merge(regions []*region.Region, field *voxel.Field, resolution *voxel.Resolution,
	maxDistanceCOG voxel.Distance, maxDistanceDeltaContour float64) ([]*region.Region, error) {
	m := NewMerger(Params{
		MaxDistanceCOG:          maxDistanceCOG,
		MaxDistanceDeltaContour: maxDistanceDeltaContour,
		Resolution:              resolution,
	}, nil)
	res, err := m.Merge(regions, field)
	if err != nil {
		return nil, err
	}
	return res.Regions, nil
}

// Merge clusters regions by the composite distance and returns one united
// region per cluster. field supplies the contour values and must share the
// regions' coordinate space.
//
// Configuration and resolution problems abort the call. A region whose
// contour cannot be sampled is logged, reported in Result.Failures and kept
// as a singleton cluster.
func (m *Merger) Merge(regions []*region.Region, field *voxel.Field) (*Result, error) {
	if err := m.params.Validate(); err != nil {
		return nil, err
	}
	if field == nil {
		return nil, fmt.Errorf("%w: distance field is nil", voxel.ErrConfiguration)
	}
	for i, r := range regions {
		if r == nil {
			return nil, fmt.Errorf("%w: region %d is nil", voxel.ErrConfiguration, i)
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("region %d: %w", i, err)
		}
	}
	if len(regions) == 0 {
		return &Result{}, nil
	}

	start := time.Now()
	features, failures := extractFeatures(regions, field, m.workers)
	for _, f := range failures {
		m.logger.WithFields(logrus.Fields{
			"region": f.Index,
			"error":  f.Err.Error(),
		}).Warn("contour sampling failed, region kept apart")
	}

	met := metric{
		maxCOG:          m.params.MaxDistanceCOG,
		resolution:      m.params.Resolution,
		maxDeltaContour: m.params.MaxDistanceDeltaContour,
	}
	radius, err := m.params.MaxDistanceCOG.MaxVoxels(m.params.Resolution, spansZ(features))
	if err != nil {
		return nil, err
	}
	index := newNeighborIndex(features, met, radius*eps)

	clusters, err := dbscan(len(features), index.query)
	if err != nil {
		return nil, err
	}

	merged := make([]*region.Region, len(clusters))
	for c, members := range clusters {
		group := make([]*region.Region, len(members))
		for k, i := range members {
			group[k] = regions[i]
		}
		if merged[c], err = region.Union(group...); err != nil {
			return nil, err
		}
	}

	m.logger.WithFields(logrus.Fields{
		"regions":  len(regions),
		"merged":   len(merged),
		"failures": len(failures),
		"radius":   radius,
		"elapsed":  time.Since(start).String(),
	}).Debug("region merge complete")

	return &Result{Regions: merged, Clusters: clusters, Failures: failures}, nil
}

// spansZ reports whether the centres of gravity lie in more than one plane,
// in which case a Z resolution is needed for physical distances.
func spansZ(features []Feature) bool {
	for _, f := range features[1:] {
		if f.COG.Z != features[0].COG.Z {
			return true
		}
	}
	return false
}
