// Package mipnerf implements the forward rendering pipeline of mip-NeRF:
// cone casting with Gaussian-approximated sample frusta, integrated
// positional encoding, a conditioned MLP and hierarchical volumetric
// compositing over two or more sampling levels.
package mipnerf

import (
	"errors"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// RenderOutput is the result of one sampling level over a ray batch.
// The orchestrator returns one per level, coarse first; callers wanting
// only the final image use the last entry. Weights feed the next level's
// resampler and are retained for multi-level supervision.
type RenderOutput struct {
	Color    []r3.Vec     // composited color per ray
	Distance []float64    // opacity-weighted expected depth per ray
	Acc      []float64    // accumulated opacity per ray, in [0,1]
	Weights  [][]float64  // per-sample contribution per ray
	Samples  []SampleSet  // the depths that produced this level
}

// Model owns the MLP parameters and the fixed pipeline configuration.
// Rendering only reads the parameters, so concurrent Render calls over
// disjoint inputs are safe as long as nothing mutates them mid-flight.
type Model struct {
	cfg Config
	net *mlp
}

// NewModel validates cfg and initializes the MLP parameters from src.
// All unsupported-configuration failures surface here, never per call.
func NewModel(cfg Config, src rand.Source) (*Model, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, errors.New("mipnerf: nil random source for parameter init")
	}
	net, err := newMLP(cfg, src)
	if err != nil {
		return nil, err
	}
	return &Model{cfg: cfg, net: net}, nil
}

// Config returns the configuration the model was built with.
func (m *Model) Config() Config { return m.cfg }

// Render casts the ray batch through every sampling level and returns
// one RenderOutput per level, coarse first. randomized enables the
// stratified jitter, resampling jitter and density noise, all drawn from
// rng; with randomized false the pass is fully deterministic and rng may
// be nil. whiteBkgd composites the uncovered fraction as white instead
// of black.
func (m *Model) Render(rays Rays, randomized, whiteBkgd bool, rng *rand.Rand) ([]RenderOutput, error) {
	if err := rays.validate(); err != nil {
		return nil, err
	}
	if randomized && rng == nil {
		return nil, errors.New("mipnerf: randomized render needs a random source")
	}
	cfg := m.cfg
	nRays := rays.Len()
	nSamples := cfg.NumSamples

	// The view encoding is shared by every level and every sample of a
	// ray, so it is computed once per call.
	var viewFeat *mat.Dense
	if cfg.UseViewDirs {
		viewFeat = mat.NewDense(nRays, cfg.viewDim(), nil)
		for i := 0; i < nRays; i++ {
			encodeVec(viewFeat.RawRowView(i), rays.ViewDirs[i], 0, cfg.DegView, cfg.AppendIdentity)
		}
	}

	var noise distuv.Normal
	addNoise := randomized && cfg.DensityNoise > 0
	if addNoise {
		noise = distuv.Normal{Mu: 0, Sigma: cfg.DensityNoise, Src: rng}
	}

	out := make([]RenderOutput, 0, cfg.NumLevels)
	var prev RenderOutput
	for level := 0; level < cfg.NumLevels; level++ {
		samples := make([]SampleSet, nRays)
		bounds := make([][]float64, nRays)
		posFeat := mat.NewDense(nRays*nSamples, cfg.xyzDim(), nil)
		frusta := make([]gaussian, nSamples)
		for i := 0; i < nRays; i++ {
			if level == 0 {
				samples[i] = sampleAlongRay(rays.Near[i], rays.Far[i], nSamples, cfg.Disparity, randomized, rng)
			} else {
				samples[i] = resampleAlongRay(prev.Samples[i], prev.Weights[i], cfg.ResamplePadding, cfg.StopResampleGrad, randomized, rng)
			}
			bounds[i] = samples[i].boundaries(make([]float64, nSamples+1))
			castGaussians(frusta, rays.Origins[i], rays.Directions[i], rays.Radii[i], bounds[i], cfg.RayShape)
			if cfg.DisableIntegration {
				for j := range frusta {
					frusta[j].Cov = r3.Vec{}
				}
			}
			for j, g := range frusta {
				encodeGaussian(posFeat.RawRowView(i*nSamples+j), g, cfg.MinDegPoint, cfg.MaxDegPoint)
			}
		}

		rawRGB, rawDensity, err := m.net.forward(posFeat, viewFeat, nSamples)
		if err != nil {
			return nil, err
		}

		lvl := RenderOutput{
			Color:    make([]r3.Vec, nRays),
			Distance: make([]float64, nRays),
			Acc:      make([]float64, nRays),
			Weights:  make([][]float64, nRays),
			Samples:  samples,
		}
		colors := make([]r3.Vec, nSamples)
		density := make([]float64, nSamples)
		for i := 0; i < nRays; i++ {
			for j := 0; j < nSamples; j++ {
				row := i*nSamples + j
				d := rawDensity.At(row, 0)
				if addNoise {
					d += noise.Rand()
				}
				density[j] = activateDensity(d, cfg.DensityBias)
				colors[j] = r3.Vec{
					X: activateColor(rawRGB.At(row, 0), cfg.RGBPadding),
					Y: activateColor(rawRGB.At(row, 1), cfg.RGBPadding),
					Z: activateColor(rawRGB.At(row, 2), cfg.RGBPadding),
				}
			}
			w := make([]float64, nSamples)
			c, dist, acc := compositeRay(colors, density, samples[i], bounds[i], rays.Directions[i], whiteBkgd, w)
			lvl.Color[i] = c
			lvl.Distance[i] = dist
			lvl.Acc[i] = acc
			lvl.Weights[i] = w
		}
		out = append(out, lvl)
		prev = lvl
	}
	return out, nil
}

// SampleAlongRay stratifies n depths over [near, far], one per equal
// bin: midpoints when deterministic, jittered within the bin otherwise.
// Disparity mode stratifies over inverse depth instead. Exposed for
// callers composing the pipeline stages themselves.
func SampleAlongRay(near, far float64, n int, disparity, randomized bool, rng *rand.Rand) (SampleSet, error) {
	if !(near < far) {
		return SampleSet{}, errors.New("mipnerf: need near < far")
	}
	if n < 2 {
		return SampleSet{}, errors.New("mipnerf: need at least 2 samples")
	}
	if randomized && rng == nil {
		return SampleSet{}, errors.New("mipnerf: randomized sampling needs a random source")
	}
	return sampleAlongRay(near, far, n, disparity, randomized, rng), nil
}

// ResampleAlongRay redraws prev's depths from the piecewise-constant
// density its weights define over prev's intervals, with an additive
// padding mass per bin. See Config.ResamplePadding and
// Config.StopResampleGrad for the semantics of the two constants.
func ResampleAlongRay(prev SampleSet, weights []float64, padding float64, randomized bool, rng *rand.Rand) (SampleSet, error) {
	if len(weights) != prev.Len() {
		return SampleSet{}, errors.New("mipnerf: weights length must match sample count")
	}
	if randomized && rng == nil {
		return SampleSet{}, errors.New("mipnerf: randomized resampling needs a random source")
	}
	return resampleAlongRay(prev, weights, padding, true, randomized, rng), nil
}
