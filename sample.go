package mipnerf

import (
	"golang.org/x/exp/rand"

	"github.com/soypat/mipnerf/internal/f64"
)

// SampleSet is one ray's ordered sample depths together with the ray
// segment they partition. Depths are strictly increasing and bounded by
// [Near, Far]; both properties are established at construction by the
// samplers, never assumed from callers.
type SampleSet struct {
	Depths []float64
	Near   float64
	Far    float64
}

// Len returns the number of samples.
func (s SampleSet) Len() int { return len(s.Depths) }

// boundaries writes the interval boundaries enclosing each sample:
// near, the midpoints between consecutive depths, then far. N samples
// yield N intervals; the first and last interval are pinned to the ray
// segment so no probability mass between near and far is orphaned.
// dst must have length Len()+1.
func (s SampleSet) boundaries(dst []float64) []float64 {
	n := len(s.Depths)
	dst[0] = s.Near
	for i := 1; i < n; i++ {
		dst[i] = 0.5 * (s.Depths[i-1] + s.Depths[i])
	}
	dst[n] = s.Far
	return dst
}

// sampleAlongRay stratifies n samples over [near, far]: the segment is
// split into n equal bins and one depth is drawn per bin, at the bin
// midpoint when deterministic or uniformly within the bin when
// randomized. In disparity mode the stratification happens over
// [1/far, 1/near] and the draws are inverted back to depth, which
// concentrates samples near the camera.
func sampleAlongRay(near, far float64, n int, disparity, randomized bool, rng *rand.Rand) SampleSet {
	lo, hi := near, far
	if disparity {
		lo, hi = 1/far, 1/near
	}
	edges := f64.Linspace(make([]float64, n+1), lo, hi)
	depths := make([]float64, n)
	for i := range depths {
		u := 0.5
		if randomized {
			u = rng.Float64()
		}
		depths[i] = f64.Lerp(edges[i], edges[i+1], u)
	}
	if disparity {
		// Inverting flips the order; restore ascending depth.
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			depths[i], depths[j] = 1/depths[j], 1/depths[i]
		}
		if n%2 == 1 {
			depths[n/2] = 1 / depths[n/2]
		}
	}
	return SampleSet{Depths: depths, Near: near, Far: far}
}

// enforceIncreasing nudges any non-increasing depth up by one ulp so
// intervals never collapse to zero width. Depths must already be sorted.
func enforceIncreasing(depths []float64) {
	for i := 1; i < len(depths); i++ {
		if depths[i] <= depths[i-1] {
			depths[i] = f64.NudgeUp(depths[i-1])
		}
	}
}
