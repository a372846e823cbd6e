package mipnerf

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// linear is one dense layer y = x·W + b operating on row-major batches.
type linear struct {
	w   *mat.Dense // in×out
	b   []float64  // out
	in  int
	out int
}

// newLinear initializes W with Xavier-uniform samples scaled to the
// layer fan-in/fan-out and a zero bias.
func newLinear(in, out int, src rand.Source) linear {
	limit := math.Sqrt(6 / float64(in+out))
	u := distuv.Uniform{Min: -limit, Max: limit, Src: src}
	data := make([]float64, in*out)
	for i := range data {
		data[i] = u.Rand()
	}
	return linear{
		w:   mat.NewDense(in, out, data),
		b:   make([]float64, out),
		in:  in,
		out: out,
	}
}

func (l linear) apply(x *mat.Dense) *mat.Dense {
	r, _ := x.Dims()
	y := mat.NewDense(r, l.out, nil)
	y.Mul(x, l.w)
	raw := y.RawMatrix()
	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		for j := range row {
			row[j] += l.b[j]
		}
	}
	return y
}

func reluInPlace(x *mat.Dense) {
	raw := x.RawMatrix()
	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		for j, v := range row {
			if v < 0 {
				row[j] = 0
			}
		}
	}
}

func hstack(a, b *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Augment(a, b)
	return &out
}

// mlp predicts raw color and raw density from encoded positions,
// optionally conditioned on an encoded view direction. It is a pure
// function of its parameters; forward never mutates them.
type mlp struct {
	trunk      []linear
	density    linear
	bottleneck linear
	viewBranch []linear
	color      linear

	skip    int
	xyzDim  int
	viewDim int
	useView bool
}

// newMLP builds the trunk with input reinjected after every skip-th
// layer: the layer following a reinjection point widens its input by the
// encoded position dimension.
func newMLP(cfg Config, src rand.Source) (*mlp, error) {
	if cfg.NetActivation != ActReLU {
		return nil, fmt.Errorf("mlp: activation %s not implemented", cfg.NetActivation)
	}
	xyz, view := cfg.xyzDim(), cfg.viewDim()
	m := &mlp{
		skip:    cfg.SkipIndex,
		xyzDim:  xyz,
		viewDim: view,
		useView: cfg.UseViewDirs,
	}
	for i := 0; i < cfg.NetDepth; i++ {
		in := cfg.NetWidth
		if i == 0 {
			in = xyz
		} else if i > 1 && (i-1)%cfg.SkipIndex == 0 {
			in = cfg.NetWidth + xyz
		}
		m.trunk = append(m.trunk, newLinear(in, cfg.NetWidth, src))
	}
	m.density = newLinear(cfg.NetWidth, cfg.NumDensityChannel, src)
	if cfg.UseViewDirs {
		m.bottleneck = newLinear(cfg.NetWidth, cfg.NetWidth, src)
		for i := 0; i < cfg.NetDepthCondition; i++ {
			in := cfg.NetWidthCondition
			if i == 0 {
				in = cfg.NetWidth + view
			}
			m.viewBranch = append(m.viewBranch, newLinear(in, cfg.NetWidthCondition, src))
		}
		m.color = newLinear(cfg.NetWidthCondition, cfg.NumRGBChannels, src)
	} else {
		m.color = newLinear(cfg.NetWidth, cfg.NumRGBChannels, src)
	}
	return m, nil
}

// forward evaluates the network over a batch of rays×samples rows of
// encoded positions. view holds one encoded row per ray (every sample
// along a ray shares its view direction) and may be nil when view
// conditioning is off. Returns raw (pre-activation) color and density.
func (m *mlp) forward(x *mat.Dense, view *mat.Dense, samplesPerRay int) (rgb, rawDensity *mat.Dense, err error) {
	rows, cols := x.Dims()
	if cols != m.xyzDim {
		return nil, nil, fmt.Errorf("mlp: got %d position features, configured for %d", cols, m.xyzDim)
	}
	if m.useView {
		if view == nil {
			return nil, nil, fmt.Errorf("mlp: view conditioning enabled but no view features given")
		}
		vr, vc := view.Dims()
		if vc != m.viewDim {
			return nil, nil, fmt.Errorf("mlp: got %d view features, configured for %d", vc, m.viewDim)
		}
		if vr*samplesPerRay != rows {
			return nil, nil, fmt.Errorf("mlp: %d rays x %d samples does not match %d position rows", vr, samplesPerRay, rows)
		}
	}

	inputs := x
	h := x
	for i, l := range m.trunk {
		h = l.apply(h)
		reluInPlace(h)
		if i > 0 && i%m.skip == 0 {
			h = hstack(h, inputs)
		}
	}
	rawDensity = m.density.apply(h)

	if m.useView {
		bn := m.bottleneck.apply(h)
		h = hstack(bn, broadcastRows(view, samplesPerRay))
		for _, l := range m.viewBranch {
			h = l.apply(h)
			reluInPlace(h)
		}
	}
	rgb = m.color.apply(h)
	return rgb, rawDensity, nil
}

// broadcastRows repeats each row of v n times, mapping per-ray features
// onto per-sample rows.
func broadcastRows(v *mat.Dense, n int) *mat.Dense {
	rows, cols := v.Dims()
	out := mat.NewDense(rows*n, cols, nil)
	for i := 0; i < rows; i++ {
		row := v.RawRowView(i)
		for j := 0; j < n; j++ {
			out.SetRow(i*n+j, row)
		}
	}
	return out
}
