package mipnerf

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/mipnerf/internal/f64"
)

// Volumetric integration: alpha compositing of per-sample density and
// color along one ray into a single pixel estimate.

// activateDensity maps raw network density to a non-negative density.
// The bias keeps a freshly initialized scene mostly empty.
func activateDensity(raw, bias float64) float64 {
	return f64.Softplus(raw + bias)
}

// activateColor maps raw network color into the padded range [-p, 1+p].
// The padding lets exact 0/1 targets be reached at finite pre-activation
// values where plain sigmoid only saturates asymptotically.
func activateColor(raw, padding float64) float64 {
	return f64.Sigmoid(raw)*(1+2*padding) - padding
}

// compositeRay integrates activated colors and densities over one ray's
// samples. bounds are the sample interval boundaries (len(samples)+1)
// and weights receives the per-sample contribution alpha·transmittance.
// Interval widths are scaled by the direction norm since directions are
// not required to be unit length. Returns the composited color, the
// opacity-normalized expected distance clamped to the ray segment, and
// the accumulated opacity.
func compositeRay(colors []r3.Vec, density []float64, s SampleSet, bounds []float64, dir r3.Vec, whiteBkgd bool, weights []float64) (color r3.Vec, distance, acc float64) {
	n := len(s.Depths)
	dirNorm := r3.Norm(dir)

	// Transmittance is the exclusive cumulative product of (1-alpha):
	// unity before the first sample, then decayed front to back.
	trans := make([]float64, n)
	for i := 0; i < n; i++ {
		delta := (bounds[i+1] - bounds[i]) * dirNorm
		alpha := 1 - math.Exp(-density[i]*delta)
		weights[i] = alpha
		trans[i] = 1 - alpha
	}
	f64.CumProdExclusive(trans, trans)
	for i := 0; i < n; i++ {
		w := weights[i] * trans[i]
		weights[i] = w
		color = r3.Add(color, r3.Scale(w, colors[i]))
		distance += w * s.Depths[i]
		acc += w
	}

	// Fully transparent rays report the far bound, mirroring the
	// inf-then-clip convention of the reference renderer.
	if acc > 0 {
		distance /= acc
	} else {
		distance = s.Far
	}
	if math.IsNaN(distance) {
		distance = s.Far
	}
	distance = f64.Clamp(distance, s.Near, s.Far)

	if whiteBkgd {
		bg := 1 - acc
		color = r3.Add(color, r3.Vec{X: bg, Y: bg, Z: bg})
	}
	return color, distance, acc
}
