package wavebank

import (
	"math"
	"math/cmplx"
	"math/rand/v2"

	"github.com/mjibson/go-dsp/fft"
)

const (
	// WaveLen is the number of samples in one single-cycle waveform.
	WaveLen = 256
	// HarmonicLen is the number of harmonic magnitudes stored per wave; bin 0
	// is the DC offset.
	HarmonicLen = WaveLen / 2
)

type (
	// Wave is one slot in a Bank: a single-cycle waveform, its harmonic
	// magnitudes, the effect settings applied to it and the post-processed
	// result of applying those effects. The Post buffers are derived data and
	// are never serialized; they are always recomputed from the raw buffers,
	// effects and flags by UpdatePost.
	Wave struct {
		Samples   [WaveLen]float32     `yaml:",flow"`
		Harmonics [HarmonicLen]float32 `yaml:",flow"`
		Effects   [NumEffects]float32  `yaml:",flow"`
		Cycle     bool                 `yaml:",omitempty"`
		Normalize bool                 `yaml:",omitempty"`

		PostSamples   [WaveLen]float32     `yaml:"-" json:"-"`
		PostHarmonics [HarmonicLen]float32 `yaml:"-" json:"-"`
	}
)

// NewWave returns a silent wave with default effects.
func NewWave() *Wave {
	w := new(Wave)
	w.UpdatePost()
	return w
}

// Copy returns a deep copy of the wave. All the buffers are arrays, so a
// value copy is enough.
func (w *Wave) Copy() Wave {
	return *w
}

// Clear resets the wave to silence with default effects and flags off.
func (w *Wave) Clear() {
	*w = Wave{}
	w.UpdatePost()
}

// ClearEffects resets all effects to their default (zero) values.
func (w *Wave) ClearEffects() {
	w.Effects = [NumEffects]float32{}
	w.UpdatePost()
}

// SetEffect sets the amount of an effect, clamped to [0,1].
func (w *Wave) SetEffect(e EffectType, value float32) {
	if e < 0 || e >= NumEffects {
		return
	}
	w.Effects[e] = clamp32(value, 0, 1)
	w.UpdatePost()
}

// RandomizeEffects sets roughly half of the effects to random amounts,
// biased towards small values, and the rest to zero.
func (w *Wave) RandomizeEffects(r *rand.Rand) {
	for i := range w.Effects {
		if r.Float32() < 0.5 {
			w.Effects[i] = 0
			continue
		}
		v := r.Float32()
		w.Effects[i] = v * v
	}
	w.UpdatePost()
}

// BakeEffects makes the post-processed waveform the new raw waveform and
// resets the effects. The audible result does not change.
func (w *Wave) BakeEffects() {
	w.Samples = w.PostSamples
	w.Effects = [NumEffects]float32{}
	w.Cycle = false
	w.Normalize = false
	w.CommitSamples()
}

// CommitSamples should be called after the raw samples have been edited. It
// recomputes the raw harmonics from the samples and then the post buffers.
func (w *Wave) CommitSamples() {
	w.Harmonics = harmonicsOf(&w.Samples)
	w.UpdatePost()
}

// CommitHarmonics should be called after the raw harmonics have been edited.
// It rebuilds the raw samples from the magnitudes, keeping the phases of the
// current samples, and then recomputes the post buffers.
func (w *Wave) CommitHarmonics() {
	spectrum := fft.FFTReal(toFloat64(w.Samples[:]))
	for k := 0; k < HarmonicLen; k++ {
		phase := -math.Pi / 2
		if cmplx.Abs(spectrum[k]) > 1e-9 {
			phase = cmplx.Phase(spectrum[k])
		}
		mag := float64(w.Harmonics[k]) * WaveLen / 2
		if k == 0 {
			mag = float64(w.Harmonics[k]) * WaveLen
			phase = 0
		}
		spectrum[k] = cmplx.Rect(mag, phase)
		if k > 0 {
			spectrum[WaveLen-k] = cmplx.Conj(spectrum[k])
		}
	}
	spectrum[HarmonicLen] = 0
	signal := fft.IFFT(spectrum)
	for i := range w.Samples {
		w.Samples[i] = clamp32(float32(real(signal[i])), -1, 1)
	}
	w.UpdatePost()
}

// UpdatePost recomputes the post-processed buffers from the raw samples, the
// effects and the flags. It only ever touches this wave.
func (w *Wave) UpdatePost() {
	w.PostSamples = w.Samples
	applyEffects(&w.PostSamples, &w.Effects)
	if w.Cycle {
		makeCyclic(w.PostSamples[:])
	}
	if w.Normalize {
		normalize(w.PostSamples[:])
	}
	for i, v := range w.PostSamples {
		w.PostSamples[i] = clamp32(v, -1, 1)
	}
	w.PostHarmonics = harmonicsOf(&w.PostSamples)
}

// Equal reports whether two waves have identical raw buffers, effects and
// flags. Post buffers are not compared, as they are derived from the rest.
func (w *Wave) Equal(o *Wave) bool {
	return w.Samples == o.Samples &&
		w.Harmonics == o.Harmonics &&
		w.Effects == o.Effects &&
		w.Cycle == o.Cycle &&
		w.Normalize == o.Normalize
}

func harmonicsOf(samples *[WaveLen]float32) (ret [HarmonicLen]float32) {
	spectrum := fft.FFTReal(toFloat64(samples[:]))
	ret[0] = float32(cmplx.Abs(spectrum[0]) / WaveLen)
	for k := 1; k < HarmonicLen; k++ {
		ret[k] = float32(cmplx.Abs(spectrum[k]) * 2 / WaveLen)
	}
	return
}

func toFloat64(s []float32) []float64 {
	ret := make([]float64, len(s))
	for i, v := range s {
		ret[i] = float64(v)
	}
	return ret
}

func clamp32(v, lo, hi float32) float32 {
	if v != v { // NaN
		return 0
	}
	return max(min(v, hi), lo)
}
