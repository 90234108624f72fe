package editor

import (
	"fmt"

	"github.com/vsariola/wavebank"
	"gopkg.in/yaml.v3"
)

type (
	// WaveModel groups the operations on the focused wave, i.e. the wave at
	// the focus of the selection.
	WaveModel Model

	waveCycle            WaveModel
	waveNormalize        WaveModel
	waveClearEffects     WaveModel
	waveRandomizeEffects WaveModel
	waveBakeEffects      WaveModel

	waveEffect struct {
		m *Model
		e wavebank.EffectType
	}
)

// Model methods

func (m *Model) Wave() *WaveModel { return (*WaveModel)(m) }

// WaveModel methods

// Index returns the index of the focused wave.
func (m *WaveModel) Index() int { return m.d.Selection.Focus }

// Value returns the focused wave. It must be treated as read-only.
func (m *WaveModel) Value() *wavebank.Wave {
	return m.d.Bank.Waves[m.d.Selection.Focus]
}

// SetSamples replaces the raw samples of the focused wave; the harmonics are
// recomputed from them. Missing samples are set to zero and extra samples are
// ignored.
func (m *WaveModel) SetSamples(samples []float32) {
	defer (*Model)(m).change("Wave.SetSamples")()
	w := (*Model)(m).editWave(m.d.Selection.Focus, samplesChange)
	if w == nil {
		return
	}
	w.Samples = [wavebank.WaveLen]float32{}
	for i, v := range samples[:min(len(samples), wavebank.WaveLen)] {
		w.Samples[i] = max(min(v, 1), -1)
	}
}

// SetSample sets one raw sample of the focused wave. Dragging over the
// waveform calls this repeatedly; wrap the drag in a Gesture to make it one
// undo step.
func (m *WaveModel) SetSample(i int, value float32) {
	if i < 0 || i >= wavebank.WaveLen {
		return
	}
	defer (*Model)(m).change("Wave.SetSample")()
	if w := (*Model)(m).editWave(m.d.Selection.Focus, samplesChange); w != nil {
		w.Samples[i] = max(min(value, 1), -1)
	}
}

// SetHarmonics replaces the raw harmonic magnitudes of the focused wave; the
// samples are rebuilt from them, keeping their phases.
func (m *WaveModel) SetHarmonics(harmonics []float32) {
	defer (*Model)(m).change("Wave.SetHarmonics")()
	w := (*Model)(m).editWave(m.d.Selection.Focus, harmonicsChange)
	if w == nil {
		return
	}
	w.Harmonics = [wavebank.HarmonicLen]float32{}
	for k, v := range harmonics[:min(len(harmonics), wavebank.HarmonicLen)] {
		w.Harmonics[k] = max(min(v, 1), 0)
	}
}

// SetHarmonic sets the magnitude of one harmonic of the focused wave.
func (m *WaveModel) SetHarmonic(k int, value float32) {
	if k < 0 || k >= wavebank.HarmonicLen {
		return
	}
	defer (*Model)(m).change("Wave.SetHarmonic")()
	if w := (*Model)(m).editWave(m.d.Selection.Focus, harmonicsChange); w != nil {
		w.Harmonics[k] = max(min(value, 1), 0)
	}
}

// Effect returns the amount of effect e on the focused wave as a Float.
func (m *WaveModel) Effect(e wavebank.EffectType) Float {
	return Float{&waveEffect{m: (*Model)(m), e: e}}
}

func (v *waveEffect) Value() float64 {
	if v.e < 0 || v.e >= wavebank.NumEffects {
		return 0
	}
	return float64(v.m.d.Bank.Waves[v.m.d.Selection.Focus].Effects[v.e])
}
func (v *waveEffect) Range() floatRange { return floatRange{0, 1} }
func (v *waveEffect) setValue(value float64) {
	if v.e < 0 || v.e >= wavebank.NumEffects {
		return
	}
	if w := v.m.editWave(v.m.d.Selection.Focus, postChange); w != nil {
		w.Effects[v.e] = float32(value)
	}
}
func (v *waveEffect) change(kind string) func() {
	return v.m.change("Wave.Effect." + v.e.String() + "." + kind)
}

// Cycle returns a Bool controlling whether the focused wave is made to loop
// seamlessly.
func (m *WaveModel) Cycle() Bool { return Bool{(*waveCycle)(m)} }

func (v *waveCycle) Value() bool   { return (*WaveModel)(v).Value().Cycle }
func (v *waveCycle) Enabled() bool { return true }
func (v *waveCycle) setValue(val bool) {
	defer (*Model)(v).change("Wave.Cycle")()
	if w := (*Model)(v).editWave(v.d.Selection.Focus, postChange); w != nil {
		w.Cycle = val
	}
}

// Normalize returns a Bool controlling whether the focused wave is
// normalized to full scale.
func (m *WaveModel) Normalize() Bool { return Bool{(*waveNormalize)(m)} }

func (v *waveNormalize) Value() bool   { return (*WaveModel)(v).Value().Normalize }
func (v *waveNormalize) Enabled() bool { return true }
func (v *waveNormalize) setValue(val bool) {
	defer (*Model)(v).change("Wave.Normalize")()
	if w := (*Model)(v).editWave(v.d.Selection.Focus, postChange); w != nil {
		w.Normalize = val
	}
}

// ClearEffects returns an Action to reset all effects of the focused wave.
func (m *WaveModel) ClearEffects() Action { return MakeAction((*waveClearEffects)(m)) }

func (m *waveClearEffects) Do() {
	defer (*Model)(m).change("Wave.ClearEffects")()
	if w := (*Model)(m).editWave(m.d.Selection.Focus, postChange); w != nil {
		w.Effects = [wavebank.NumEffects]float32{}
	}
}

// RandomizeEffects returns an Action to randomize the effects of the focused
// wave.
func (m *WaveModel) RandomizeEffects() Action { return MakeAction((*waveRandomizeEffects)(m)) }

func (m *waveRandomizeEffects) Do() {
	defer (*Model)(m).change("Wave.RandomizeEffects")()
	if w := (*Model)(m).editWave(m.d.Selection.Focus, postChange); w != nil {
		w.RandomizeEffects(m.rng)
	}
}

// BakeEffects returns an Action to make the effected waveform the new raw
// waveform of the focused wave.
func (m *WaveModel) BakeEffects() Action { return MakeAction((*waveBakeEffects)(m)) }

func (m *waveBakeEffects) Do() {
	defer (*Model)(m).change("Wave.BakeEffects")()
	if w := (*Model)(m).editWave(m.d.Selection.Focus, postChange); w != nil {
		w.BakeEffects()
	}
}

// Clear resets the focused wave to silence.
func (m *WaveModel) Clear() {
	defer (*Model)(m).change("Wave.Clear")()
	if w := (*Model)(m).editWave(m.d.Selection.Focus, postChange); w != nil {
		*w = wavebank.Wave{}
	}
}

// Copy marshals the focused wave, its raw buffers, effects and flags, for
// the clipboard.
func (m *WaveModel) Copy() ([]byte, error) {
	out, err := yaml.Marshal(m.Value())
	if err != nil {
		return nil, fmt.Errorf("could not marshal wave: %w", err)
	}
	return out, nil
}

// Cut copies the focused wave and then clears it.
func (m *WaveModel) Cut() ([]byte, error) {
	out, err := m.Copy()
	if err != nil {
		return nil, err
	}
	m.Clear()
	return out, nil
}

// Paste replaces the focused wave with a wave unmarshaled from the
// clipboard. If the data is not a wave, nothing changes.
func (m *WaveModel) Paste(data []byte) error {
	w, err := wavebank.ParseWave(data)
	if err != nil {
		return err
	}
	defer (*Model)(m).change("Wave.Paste")()
	if dst := (*Model)(m).editWave(m.d.Selection.Focus, postChange); dst != nil {
		*dst = w
	}
	return nil
}
