// Package edt computes exact Euclidean distance transforms of binary voxel
// masks.
//
// The transform is separable: one lower-envelope pass runs along each axis,
// the first seeded from the mask and each later one consuming the squared
// distances of the previous pass. The last pass takes the square root. Z may
// carry an anisotropy constant, and may be suppressed so that every XY slice
// is transformed on its own.
package edt

import (
	"fmt"
	"io"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"voxelseg/pkg/voxel"
)

// Options configures an Engine.
type Options struct {
	// Workers is the number of goroutines sharing the lines of one pass.
	// Zero or less means runtime.NumCPU().
	Workers int

	// Logger receives debug timings. Nil discards them.
	Logger logrus.FieldLogger
}

// Engine runs distance transforms. It holds no state between calls and may be
// shared by concurrent callers.
type Engine struct {
	workers int
	logger  logrus.FieldLogger
}

// NewEngine creates an engine from opts.
func NewEngine(opts Options) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	return &Engine{workers: workers, logger: logger}
}

// Compute transforms mask with a default engine.
func Compute(mask *voxel.Mask, suppressZ bool, zScaleSquared float64) (*voxel.Field, error) {
	return NewEngine(Options{}).Compute(mask, suppressZ, zScaleSquared)
}

// ComputeResolved transforms mask, taking the Z anisotropy from the mask's
// resolution. A mask without resolution is treated as isotropic.
func (e *Engine) ComputeResolved(mask *voxel.Mask, suppressZ bool) (*voxel.Field, error) {
	zScale := 1.0
	if mask != nil && mask.Resolution != nil {
		zScale = mask.Resolution.ZScaleSquared()
	}
	return e.Compute(mask, suppressZ, zScale)
}

// Compute returns, for every voxel of mask, the Euclidean distance in X voxel
// units to the nearest off voxel. Off voxels map to 0 and voxels with no
// reachable off voxel map to +Inf.
//
// zScaleSquared multiplies squared steps along Z. It must be finite and
// positive unless Z is suppressed or the mask is a single slice. With
// suppressZ set no distance crosses between slices.
func (e *Engine) Compute(mask *voxel.Mask, suppressZ bool, zScaleSquared float64) (*voxel.Field, error) {
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	ext := mask.Extent()
	useZ := ext.Z > 1 && !suppressZ
	if useZ && (math.IsNaN(zScaleSquared) || math.IsInf(zScaleSquared, 0) || zScaleSquared <= 0) {
		return nil, fmt.Errorf("%w: z scale %v must be finite and positive for a %d-slice mask",
			voxel.ErrConfiguration, zScaleSquared, ext.Z)
	}

	start := time.Now()
	axes := make([]axis, 0, 3)
	if useZ {
		axes = append(axes, zAxis(ext, zScaleSquared))
	}
	axes = append(axes, yAxis(ext), xAxis(ext))

	// Any true squared distance is below the sum of the scaled squared axis
	// lengths, so this stands in for +Inf without growing the arithmetic.
	inf := 1.0
	for _, a := range axes {
		n := float64(a.length)
		inf += a.scale * n * n
	}
	if math.IsInf(inf, 0) {
		return nil, fmt.Errorf("%w: z scale %v overflows the squared distances of a %s mask",
			voxel.ErrConfiguration, zScaleSquared, ext)
	}

	out := voxel.NewField(ext)
	for i := range out.Data {
		if mask.IsOn(i) {
			out.Data[i] = inf
		}
	}
	for i, a := range axes {
		e.pass(out.Data, a, i == len(axes)-1, inf)
	}

	e.logger.WithFields(logrus.Fields{
		"extent":     ext.String(),
		"suppress_z": suppressZ,
		"z_scale_sq": zScaleSquared,
		"workers":    e.workers,
		"elapsed":    time.Since(start).String(),
	}).Debug("distance transform complete")
	return out, nil
}

// axis describes the set of parallel lines one pass walks: count lines of
// length voxels each, stride apart, starting at first(line).
type axis struct {
	length int
	stride int
	count  int
	scale  float64
	first  func(line int) int
}

func xAxis(e voxel.Extent) axis {
	return axis{length: e.X, stride: 1, count: e.Y * e.Z, scale: 1,
		first: func(line int) int { return line * e.X }}
}

func yAxis(e voxel.Extent) axis {
	plane := e.X * e.Y
	return axis{length: e.Y, stride: e.X, count: e.X * e.Z, scale: 1,
		first: func(line int) int { return (line/e.X)*plane + line%e.X }}
}

func zAxis(e voxel.Extent, scale float64) axis {
	return axis{length: e.Z, stride: e.X * e.Y, count: e.X * e.Y, scale: scale,
		first: func(line int) int { return line }}
}

// pass runs the lower envelope over every line of a, in place. Lines are
// disjoint so workers share buf without locking. The final pass converts
// squared distances to distances.
func (e *Engine) pass(buf []float64, a axis, final bool, inf float64) {
	workers := min(e.workers, a.count)
	chunk := (a.count + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < a.count; lo += chunk {
		hi := min(lo+chunk, a.count)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			s := newScratch(a.length)
			for line := lo; line < hi; line++ {
				base := a.first(line)
				for i := 0; i < a.length; i++ {
					s.f[i] = buf[base+i*a.stride]
				}
				lowerEnvelope(s, a.scale)
				for i := 0; i < a.length; i++ {
					v := s.d[i]
					switch {
					case v >= inf && final:
						v = math.Inf(1)
					case v >= inf:
						v = inf
					case final:
						v = math.Sqrt(v)
					}
					buf[base+i*a.stride] = v
				}
			}
		}(lo, hi)
	}
	wg.Wait()
}
