package mipnerf

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestCylinderFrustumMoments(t *testing.T) {
	f := cylinderFrustum(2, 4, 0.5)
	if f.TMean != 3 {
		t.Errorf("cylinder TMean = %g, want 3", f.TMean)
	}
	if want := 4.0 / 12.0; math.Abs(f.TVar-want) > 1e-15 {
		t.Errorf("cylinder TVar = %g, want %g", f.TVar, want)
	}
	if want := 0.25 / 4.0; math.Abs(f.RVar-want) > 1e-15 {
		t.Errorf("cylinder RVar = %g, want %g", f.RVar, want)
	}
}

func TestConeFrustumMoments(t *testing.T) {
	f := coneFrustum(2, 4, 0.5)
	mid := 3.0
	if f.TMean <= mid {
		t.Errorf("cone TMean = %g, must exceed interval midpoint %g (mass grows with depth)", f.TMean, mid)
	}
	if f.TVar <= 0 || f.RVar <= 0 {
		t.Errorf("cone variances must be positive, got tVar=%g rVar=%g", f.TVar, f.RVar)
	}
	// Deeper frustum of the same width has a larger footprint.
	deep := coneFrustum(8, 10, 0.5)
	if deep.RVar <= f.RVar {
		t.Errorf("cone RVar must grow with depth: near=%g far=%g", f.RVar, deep.RVar)
	}
	// Cylinder footprint is depth-independent.
	c0, c1 := cylinderFrustum(2, 4, 0.5), cylinderFrustum(8, 10, 0.5)
	if c0.RVar != c1.RVar {
		t.Errorf("cylinder RVar must not depend on depth: %g vs %g", c0.RVar, c1.RVar)
	}
}

func TestConeFrustumNarrowIntervalStable(t *testing.T) {
	// The stable form must not cancel catastrophically for hw << mu.
	f := coneFrustum(100, 100.0001, 0.01)
	if math.IsNaN(f.TVar) || f.TVar < 0 {
		t.Errorf("narrow interval TVar = %g", f.TVar)
	}
	if f.TMean < 100 || f.TMean > 100.0001 {
		t.Errorf("narrow interval TMean = %g outside interval", f.TMean)
	}
}

func TestLiftGaussian(t *testing.T) {
	origin := r3.Vec{X: 1, Y: 2, Z: 3}
	dir := r3.Vec{X: 0, Y: 0, Z: 2} // deliberately non-unit
	f := frustum{TMean: 5, TVar: 0.1, RVar: 0.2}
	g := f.lift(origin, dir)

	want := r3.Add(origin, r3.Scale(5, dir))
	if g.Mean != want {
		t.Errorf("lifted mean = %v, want %v", g.Mean, want)
	}
	// Parallel axis (z) carries tVar scaled by dir component squared,
	// perpendicular axes carry rVar only.
	if got, want := g.Cov.Z, 0.1*4.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("parallel covariance = %g, want %g", got, want)
	}
	if math.Abs(g.Cov.X-0.2) > 1e-12 || math.Abs(g.Cov.Y-0.2) > 1e-12 {
		t.Errorf("perpendicular covariance = (%g,%g), want 0.2", g.Cov.X, g.Cov.Y)
	}
}

func TestCastGaussiansCount(t *testing.T) {
	bounds := []float64{2, 3, 4, 5, 6}
	dst := make([]gaussian, 4)
	castGaussians(dst, r3.Vec{}, r3.Vec{Z: 1}, 0.1, bounds, RayCone)
	for i, g := range dst {
		if g.Cov.X <= 0 || g.Cov.Y <= 0 || g.Cov.Z < 0 {
			t.Errorf("gaussian %d has non-positive covariance %v", i, g.Cov)
		}
		if g.Mean.Z <= bounds[i] || g.Mean.Z >= bounds[i+1] {
			t.Errorf("gaussian %d mean depth %g outside (%g,%g)", i, g.Mean.Z, bounds[i], bounds[i+1])
		}
	}
}
