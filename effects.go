package wavebank

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/viterin/vek/vek32"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EffectType enumerates the effects in the order they are applied to a wave.
type EffectType int

const (
	PreGain EffectType = iota
	PhaseShift
	HarmonicShift
	Comb
	Ring
	Chebyshev
	SampleAndHold
	Quantization
	Slew
	Lowpass
	Highpass
	PostGain
	NumEffects
)

var effectNames = [NumEffects]string{
	"pre-gain",
	"phase shift",
	"harmonic shift",
	"comb filter",
	"ring modulation",
	"chebyshev wavefolding",
	"sample & hold",
	"quantization",
	"slew limiter",
	"lowpass filter",
	"highpass filter",
	"post-gain",
}

var titleCaser = cases.Title(language.English)

// String returns the short lowercase name of the effect.
func (e EffectType) String() string {
	if e < 0 || e >= NumEffects {
		return "unknown"
	}
	return effectNames[e]
}

// Label returns the name of the effect for displaying to the user.
func (e EffectType) Label() string {
	return titleCaser.String(e.String())
}

// applyEffects runs the effect chain in place. An effect with amount 0 is a
// no-op, so a wave with cleared effects passes through unchanged.
func applyEffects(s *[WaveLen]float32, effects *[NumEffects]float32) {
	buf := s[:]
	if a := effects[PreGain]; a > 0 {
		vek32.MulNumber_Inplace(buf, dbToGain(30*a))
	}
	if a := effects[PhaseShift]; a > 0 {
		rotate(s, float64(a)*WaveLen)
	}
	if effects[HarmonicShift] > 0 || effects[Lowpass] > 0 || effects[Highpass] > 0 || effects[Comb] > 0 {
		spectral(s, effects)
	}
	if a := effects[Ring]; a > 0 {
		k := 1 + math.Floor(float64(a)*15)
		for i, v := range buf {
			ring := float32(math.Sin(2 * math.Pi * k * float64(i) / WaveLen))
			buf[i] = v*(1-a) + v*ring*a
		}
	}
	if a := effects[Chebyshev]; a > 0 {
		order := 1 + float64(a)*15
		for i, v := range buf {
			x := math.Max(math.Min(float64(v), 1), -1)
			buf[i] = float32(math.Cos(order * math.Acos(x)))
		}
	}
	if a := effects[SampleAndHold]; a > 0 {
		hold := 1 + int(a*WaveLen/4)
		for i := range buf {
			buf[i] = buf[i-i%hold]
		}
	}
	if a := effects[Quantization]; a > 0 {
		levels := float32(math.Pow(2, 1+15*float64(1-a)))
		for i, v := range buf {
			buf[i] = float32(math.Round(float64(v*levels))) / levels
		}
	}
	if a := effects[Slew]; a > 0 {
		limit := 2 * (1 - a) * (1 - a)
		prev := buf[WaveLen-1]
		for i, v := range buf {
			prev += clamp32(v-prev, -limit, limit)
			buf[i] = prev
		}
	}
	if a := effects[PostGain]; a > 0 {
		vek32.MulNumber_Inplace(buf, dbToGain(30*a))
	}
}

// spectral applies the frequency domain effects: harmonic shift, comb,
// lowpass and highpass.
func spectral(s *[WaveLen]float32, effects *[NumEffects]float32) {
	in := fft.FFTReal(toFloat64(s[:]))
	out := make([]complex128, WaveLen)
	shift := int(math.Round(float64(effects[HarmonicShift]) * (HarmonicLen - 1)))
	lo := float64(effects[Highpass]) * HarmonicLen
	hi := float64(1-effects[Lowpass]) * HarmonicLen
	comb := float64(effects[Comb])
	out[0] = in[0]
	for k := 1; k < HarmonicLen; k++ {
		src := k - shift
		if src < 1 {
			src += HarmonicLen - 1
		}
		c := in[src]
		gain := 1.0
		if fk := float64(k); fk > hi {
			gain *= math.Max(0, 1-(fk-hi))
		} else if fk < lo {
			gain *= math.Max(0, 1-(lo-fk))
		}
		if comb > 0 {
			gain *= 1 - comb*0.5*(1-math.Cos(math.Pi*float64(k)*comb*8/HarmonicLen))
		}
		out[k] = c * complex(gain, 0)
		out[WaveLen-k] = cmplx.Conj(out[k])
	}
	signal := fft.IFFT(out)
	for i := range s {
		s[i] = float32(real(signal[i]))
	}
}

// rotate shifts the waveform circularly by a fractional number of samples.
func rotate(s *[WaveLen]float32, amount float64) {
	src := *s
	whole := int(math.Floor(amount))
	frac := float32(amount - float64(whole))
	for i := range s {
		a := src[(i+whole)%WaveLen]
		b := src[(i+whole+1)%WaveLen]
		s[i] = a + (b-a)*frac
	}
}

// makeCyclic removes the jump between the last and the first sample by
// subtracting a linear ramp.
func makeCyclic(buf []float32) {
	n := len(buf)
	if n < 2 {
		return
	}
	jump := buf[n-1] - buf[0]
	for i := range buf {
		buf[i] -= jump * float32(i) / float32(n-1)
	}
}

// normalize removes the DC offset and scales the peak to full scale.
func normalize(buf []float32) {
	vek32.SubNumber_Inplace(buf, vek32.Mean(buf))
	peak := max(vek32.Max(buf), -vek32.Min(buf))
	if peak < 1e-6 {
		return
	}
	vek32.MulNumber_Inplace(buf, 1/peak)
}

func dbToGain(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}
