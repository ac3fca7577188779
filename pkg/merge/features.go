package merge

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"voxelseg/pkg/region"
	"voxelseg/pkg/voxel"
)

// Feature is what clustering knows about one region: where it sits and the
// mean value of the distance field over it.
type Feature struct {
	COG     voxel.Point3D
	Contour float64
}

var (
	errEmptyRegion  = errors.New("region has no voxels")
	errOutsideField = errors.New("distance field is not defined at any region voxel")
	errNonFinite    = errors.New("contour value is not finite")
)

// FeatureError records a region whose contour value could not be sampled.
// The region still takes part in clustering with a NaN contour value.
type FeatureError struct {
	Index int
	Err   error
}

func (e FeatureError) Error() string {
	return fmt.Sprintf("region %d: %v", e.Index, e.Err)
}

func (e FeatureError) Unwrap() error {
	return e.Err
}

// extractFeatures computes one feature per region, spreading regions over
// workers goroutines. Failures come back sorted by region index.
func extractFeatures(regions []*region.Region, field *voxel.Field, workers int) ([]Feature, []FeatureError) {
	features := make([]Feature, len(regions))
	errs := make([]error, len(regions))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(workers, len(regions)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				features[i], errs[i] = featureOf(regions[i], field)
			}
		}()
	}
	for i := range regions {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var failures []FeatureError
	for i, err := range errs {
		if err != nil {
			failures = append(failures, FeatureError{Index: i, Err: err})
		}
	}
	return features, failures
}

// featureOf returns the centre of gravity of r and the mean field value over
// its voxels. Voxels outside the field are left out of the mean; only a
// region with no voxel inside the field fails. On error the feature is still
// usable, with a NaN contour.
func featureOf(r *region.Region, field *voxel.Field) (Feature, error) {
	var sumX, sumY, sumZ float64
	var count int
	var samples []float64
	r.Each(func(p voxel.Point) {
		sumX += float64(p.X)
		sumY += float64(p.Y)
		sumZ += float64(p.Z)
		count++
		if field.Extent.Contains(p) {
			samples = append(samples, field.At(p))
		}
	})

	if count == 0 {
		return Feature{COG: r.Box.Center(), Contour: math.NaN()}, errEmptyRegion
	}
	n := float64(count)
	f := Feature{COG: voxel.Point3D{X: sumX / n, Y: sumY / n, Z: sumZ / n}, Contour: math.NaN()}
	if len(samples) == 0 {
		return f, errOutsideField
	}
	mean := stat.Mean(samples, nil)
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return f, errNonFinite
	}
	f.Contour = mean
	return f, nil
}
