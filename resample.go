package mipnerf

import (
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"github.com/soypat/mipnerf/internal/f64"
)

// Hierarchical resampling: the previous level's weights form a
// piecewise-constant density over that level's intervals, and the next
// level draws its depths from it by stratified inverse-CDF sampling.

// resampleAlongRay draws len(prev.Depths) new depths concentrated where
// the previous weights put mass. Every bin receives the additive padding
// constant so a zero coarse weight can never permanently starve a region
// of fine samples. When stopGrad is set the weight histogram is
// value-copied first, severing any aliasing with the caller's buffers
// (the positions become plain constants with respect to the upstream
// weights; forward values are unaffected).
func resampleAlongRay(prev SampleSet, weights []float64, padding float64, stopGrad, randomized bool, rng *rand.Rand) SampleSet {
	n := len(prev.Depths)
	bins := prev.boundaries(make([]float64, n+1))

	w := weights
	if stopGrad {
		w = append([]float64(nil), weights...)
	}

	// Padded histogram mass and its normalized CDF. cdf has n+1 entries
	// with cdf[0]=0 and cdf[n]=1.
	mass := make([]float64, n)
	for i, wi := range w {
		mass[i] = wi + padding
	}
	total := floats.Sum(mass)
	if total <= 0 {
		// Zero weights with zero padding: degenerate histogram, fall
		// back to a uniform density over the segment.
		for i := range mass {
			mass[i] = 1
		}
		total = float64(n)
	}
	cdf := make([]float64, n+1)
	floats.CumSum(cdf[1:], mass)
	floats.Scale(1/total, cdf[1:])
	cdf[n] = 1

	// One draw per equal-probability slice.
	const uMax = 1 - 1e-10
	depths := make([]float64, n)
	for i := range depths {
		u := 0.5
		if randomized {
			u = rng.Float64()
		}
		p := f64.Clamp((float64(i)+u)/float64(n), 0, uMax)
		// Locate the bin holding p: cdf[k-1] <= p < cdf[k].
		k := f64.SearchSorted(cdf, p)
		if k < 1 {
			k = 1
		} else if k > n {
			k = n
		}
		span := cdf[k] - cdf[k-1]
		frac := 0.0
		if span > 0 {
			frac = (p - cdf[k-1]) / span
		}
		depths[i] = f64.Lerp(bins[k-1], bins[k], frac)
	}
	sort.Float64s(depths)
	enforceIncreasing(depths)
	return SampleSet{Depths: depths, Near: prev.Near, Far: prev.Far}
}
