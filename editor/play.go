package editor

import "math"

type (
	// PlayParams control the preview oscillator that plays the wave under the
	// morph cursor.
	PlayParams struct {
		Enabled   bool
		Frequency float64 // Hz
		Volume    float64 // dB
	}

	// PlayModel groups the preview parameters.
	PlayModel Model

	playEnabled   PlayModel
	playFrequency PlayModel
	playVolume    PlayModel
)

const (
	MinFrequency = 1
	MaxFrequency = 10000
	MinVolume    = -60
	MaxVolume    = 0
)

var defaultPlayParams = PlayParams{Frequency: 220, Volume: -12}

func (p PlayParams) clamp() PlayParams {
	if math.IsNaN(p.Frequency) || p.Frequency == 0 {
		p.Frequency = defaultPlayParams.Frequency
	}
	if math.IsNaN(p.Volume) {
		p.Volume = defaultPlayParams.Volume
	}
	p.Frequency = floatRange{MinFrequency, MaxFrequency}.Clamp(p.Frequency)
	p.Volume = floatRange{MinVolume, MaxVolume}.Clamp(p.Volume)
	return p
}

// Gain returns the linear gain of the volume; a volume at the minimum is
// silent.
func (p PlayParams) Gain() float32 {
	if p.Volume <= MinVolume {
		return 0
	}
	return float32(math.Pow(10, p.Volume/20))
}

// Model methods

func (m *Model) Play() *PlayModel { return (*PlayModel)(m) }

// PlayModel methods

func (m *PlayModel) Value() PlayParams { return m.d.Play }
func (m *PlayModel) Enabled() Bool     { return Bool{(*playEnabled)(m)} }
func (m *PlayModel) Frequency() Float  { return Float{(*playFrequency)(m)} }
func (m *PlayModel) Volume() Float     { return Float{(*playVolume)(m)} }

// SetNote sets the frequency to the equal-tempered pitch of a MIDI note
// number, 69 being A4 = 440 Hz.
func (m *PlayModel) SetNote(note int) {
	m.Frequency().Set(440 * math.Pow(2, float64(note-69)/12))
}

func (v *playEnabled) Value() bool   { return v.d.Play.Enabled }
func (v *playEnabled) Enabled() bool { return true }
func (v *playEnabled) setValue(val bool) {
	defer (*Model)(v).change("PlayEnabled")()
	v.d.Play.Enabled = val
	v.needPublish = true
}

func (v *playFrequency) Value() float64    { return v.d.Play.Frequency }
func (v *playFrequency) Range() floatRange { return floatRange{MinFrequency, MaxFrequency} }
func (v *playFrequency) setValue(f float64) {
	v.d.Play.Frequency = f
	v.needPublish = true
}
func (v *playFrequency) change(kind string) func() {
	return (*Model)(v).change("PlayFrequency." + kind)
}

func (v *playVolume) Value() float64    { return v.d.Play.Volume }
func (v *playVolume) Range() floatRange { return floatRange{MinVolume, MaxVolume} }
func (v *playVolume) setValue(vol float64) {
	v.d.Play.Volume = vol
	v.needPublish = true
}
func (v *playVolume) change(kind string) func() {
	return (*Model)(v).change("PlayVolume." + kind)
}
