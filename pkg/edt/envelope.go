package edt

import "math"

// scratch holds the per-goroutine buffers for one line of a pass. They are
// sized once for the axis length and reused for every line a worker visits.
type scratch struct {
	f []float64 // source values gathered from the line
	d []float64 // lower envelope evaluated at every position
	v []int     // apex positions of the parabolas on the stack
	z []float64 // left boundary of each stacked parabola, plus one
}

func newScratch(n int) *scratch {
	return &scratch{
		f: make([]float64, n),
		d: make([]float64, n),
		v: make([]int, n),
		z: make([]float64, n+1),
	}
}

// lowerEnvelope computes d(x) = min_y c*(x-y)^2 + f(y) for every x of the
// line in linear time, following the parabola stack construction of
// Felzenszwalb and Huttenlocher. f must be finite; unreachable positions use
// a large finite sentinel instead of +Inf.
func lowerEnvelope(s *scratch, c float64) {
	f, d, v, z := s.f, s.d, s.v, s.z
	n := len(f)

	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)
	for q := 1; q < n; q++ {
		sq := intersect(f, c, v[k], q)
		// v[k] < q always holds, so the denominator in intersect is non-zero.
		for sq <= z[k] {
			k--
			sq = intersect(f, c, v[k], q)
		}
		k++
		v[k] = q
		z[k] = sq
		z[k+1] = math.Inf(1)
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = c*dq*dq + f[v[k]]
	}
}

// intersect returns the position where the parabola rooted at q starts to
// lie below the one rooted at p.
func intersect(f []float64, c float64, p, q int) float64 {
	fp, fq := float64(p), float64(q)
	return ((f[q] + c*fq*fq) - (f[p] + c*fp*fp)) / (2 * c * (fq - fp))
}
