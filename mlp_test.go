package mipnerf

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.NumSamples = 4
	cfg.MinDegPoint = 0
	cfg.MaxDegPoint = 2 // xyzDim 12
	cfg.DegView = 1     // viewDim 9 with identity
	cfg.NetDepth = 3
	cfg.NetWidth = 16
	cfg.NetDepthCondition = 1
	cfg.NetWidthCondition = 8
	cfg.SkipIndex = 4
	return cfg
}

func TestMLPShapes(t *testing.T) {
	cfg := smallConfig()
	src := rand.NewSource(1)
	net, err := newMLP(cfg, src)
	if err != nil {
		t.Fatal(err)
	}
	const nRays, nSamples = 2, 3
	x := mat.NewDense(nRays*nSamples, cfg.xyzDim(), nil)
	view := mat.NewDense(nRays, cfg.viewDim(), nil)
	rgb, density, err := net.forward(x, view, nSamples)
	if err != nil {
		t.Fatal(err)
	}
	if r, c := rgb.Dims(); r != nRays*nSamples || c != 3 {
		t.Errorf("rgb dims = %dx%d, want %dx3", r, c, nRays*nSamples)
	}
	if r, c := density.Dims(); r != nRays*nSamples || c != 1 {
		t.Errorf("density dims = %dx%d, want %dx1", r, c, nRays*nSamples)
	}
}

func TestMLPSkipReinjection(t *testing.T) {
	cfg := smallConfig()
	cfg.NetDepth = 6
	cfg.SkipIndex = 2 // reinjection after layers 2 and 4
	net, err := newMLP(cfg, rand.NewSource(2))
	if err != nil {
		t.Fatal(err)
	}
	// Layers following a reinjection must accept the widened input.
	for i, l := range net.trunk {
		wantIn := cfg.NetWidth
		if i == 0 {
			wantIn = cfg.xyzDim()
		} else if i > 1 && (i-1)%cfg.SkipIndex == 0 {
			wantIn = cfg.NetWidth + cfg.xyzDim()
		}
		if l.in != wantIn {
			t.Errorf("trunk layer %d input width = %d, want %d", i, l.in, wantIn)
		}
	}
	x := mat.NewDense(4, cfg.xyzDim(), nil)
	view := mat.NewDense(2, cfg.viewDim(), nil)
	if _, _, err := net.forward(x, view, 2); err != nil {
		t.Fatalf("forward through skip layers: %v", err)
	}
}

func TestMLPNoViewConditioning(t *testing.T) {
	cfg := smallConfig()
	cfg.UseViewDirs = false
	net, err := newMLP(cfg, rand.NewSource(3))
	if err != nil {
		t.Fatal(err)
	}
	if net.color.in != cfg.NetWidth {
		t.Errorf("unconditioned color head input = %d, want trunk width %d", net.color.in, cfg.NetWidth)
	}
	x := mat.NewDense(6, cfg.xyzDim(), nil)
	rgb, _, err := net.forward(x, nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	if r, c := rgb.Dims(); r != 6 || c != 3 {
		t.Errorf("rgb dims = %dx%d, want 6x3", r, c)
	}
}

func TestMLPContractErrors(t *testing.T) {
	cfg := smallConfig()
	net, err := newMLP(cfg, rand.NewSource(4))
	if err != nil {
		t.Fatal(err)
	}
	bad := mat.NewDense(4, cfg.xyzDim()+1, nil)
	if _, _, err := net.forward(bad, mat.NewDense(2, cfg.viewDim(), nil), 2); err == nil {
		t.Error("expected error for wrong position feature width")
	}
	x := mat.NewDense(4, cfg.xyzDim(), nil)
	if _, _, err := net.forward(x, nil, 2); err == nil {
		t.Error("expected error for missing view features")
	}
	if _, _, err := net.forward(x, mat.NewDense(3, cfg.viewDim(), nil), 2); err == nil {
		t.Error("expected error for ray/sample row mismatch")
	}
}

func TestXavierInitBounds(t *testing.T) {
	l := newLinear(100, 50, rand.NewSource(5))
	limit := math.Sqrt(6 / 150.0)
	r, c := l.w.Dims()
	if r != 100 || c != 50 {
		t.Fatalf("weight dims = %dx%d, want 100x50", r, c)
	}
	var nonzero bool
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := l.w.At(i, j)
			if math.Abs(v) > limit {
				t.Fatalf("weight (%d,%d) = %g exceeds xavier limit %g", i, j, v, limit)
			}
			if v != 0 {
				nonzero = true
			}
		}
	}
	if !nonzero {
		t.Error("all weights zero after init")
	}
	for _, b := range l.b {
		if b != 0 {
			t.Error("bias must initialize to zero")
		}
	}
}

func TestBroadcastRows(t *testing.T) {
	v := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	out := broadcastRows(v, 2)
	want := [][]float64{{1, 2, 3}, {1, 2, 3}, {4, 5, 6}, {4, 5, 6}}
	for i, row := range want {
		for j, x := range row {
			if out.At(i, j) != x {
				t.Errorf("broadcast (%d,%d) = %g, want %g", i, j, out.At(i, j), x)
			}
		}
	}
}

func TestForwardIsPure(t *testing.T) {
	cfg := smallConfig()
	net, err := newMLP(cfg, rand.NewSource(6))
	if err != nil {
		t.Fatal(err)
	}
	x := mat.NewDense(2, cfg.xyzDim(), nil)
	for i := 0; i < cfg.xyzDim(); i++ {
		x.Set(0, i, math.Sin(float64(i)))
		x.Set(1, i, math.Cos(float64(i)))
	}
	view := mat.NewDense(1, cfg.viewDim(), nil)
	enc := PosEnc(r3.Vec{X: 0, Y: 0, Z: 1}, 0, cfg.DegView, cfg.AppendIdentity)
	view.SetRow(0, enc)

	rgb1, den1, err := net.forward(x, view, 2)
	if err != nil {
		t.Fatal(err)
	}
	rgb2, den2, err := net.forward(x, view, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(rgb1, rgb2) || !mat.Equal(den1, den2) {
		t.Error("repeated forward over identical inputs must be identical")
	}
}
