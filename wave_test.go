package wavebank_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/vsariola/wavebank"
)

func sine(harmonic int, amplitude float64) wavebank.Wave {
	var w wavebank.Wave
	for i := range w.Samples {
		w.Samples[i] = float32(amplitude * math.Sin(2*math.Pi*float64(harmonic*i)/wavebank.WaveLen))
	}
	w.CommitSamples()
	return w
}

func TestCommitSamples(t *testing.T) {
	w := sine(3, 0.5)
	for k, v := range w.Harmonics {
		want := 0.0
		if k == 3 {
			want = 0.5
		}
		if math.Abs(float64(v)-want) > 1e-4 {
			t.Errorf("harmonic %d: got %v, want %v", k, v, want)
		}
	}
	if w.PostSamples != w.Samples {
		t.Fatalf("post samples differ from raw samples without effects")
	}
}

func TestCommitHarmonicsKeepsPhase(t *testing.T) {
	w := sine(2, 0.5)
	orig := w.Samples
	w.Harmonics[2] = 0.25
	w.CommitHarmonics()
	for i := range w.Samples {
		if math.Abs(float64(w.Samples[i]-orig[i]/2)) > 1e-4 {
			t.Fatalf("sample %d: got %v, want %v", i, w.Samples[i], orig[i]/2)
		}
	}
}

func TestCommitHarmonicsFromSilence(t *testing.T) {
	var w wavebank.Wave
	w.Harmonics[1] = 1
	w.CommitHarmonics()
	peak := float32(0)
	for _, v := range w.Samples {
		peak = max(peak, v)
	}
	if math.Abs(float64(peak)-1) > 1e-3 {
		t.Fatalf("got peak %v, want 1", peak)
	}
}

func TestEffectsOnlyTouchPost(t *testing.T) {
	w := sine(1, 0.5)
	raw := w.Samples
	for e := wavebank.EffectType(0); e < wavebank.NumEffects; e++ {
		w.SetEffect(e, 0.5)
		if w.Samples != raw {
			t.Fatalf("effect %v modified the raw samples", e)
		}
		for i, v := range w.PostSamples {
			if v < -1 || v > 1 || math.IsNaN(float64(v)) {
				t.Fatalf("effect %v: post sample %d out of range: %v", e, i, v)
			}
		}
	}
	w.ClearEffects()
	if w.PostSamples != w.Samples {
		t.Fatalf("clearing the effects did not restore the raw wave")
	}
}

func TestBakeEffects(t *testing.T) {
	w := sine(1, 0.5)
	w.RandomizeEffects(rand.New(rand.NewPCG(3, 4)))
	post := w.PostSamples
	w.BakeEffects()
	if w.Effects != ([wavebank.NumEffects]float32{}) {
		t.Fatalf("effects not reset")
	}
	if w.Samples != post || w.PostSamples != post {
		t.Fatalf("baking changed the audible result")
	}
}

func TestRandomizeEffectsInRange(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	var w wavebank.Wave
	for range 100 {
		w.RandomizeEffects(r)
		for e, v := range w.Effects {
			if v < 0 || v > 1 {
				t.Fatalf("effect %d out of range: %v", e, v)
			}
		}
	}
}

func TestCycleAndNormalize(t *testing.T) {
	var w wavebank.Wave
	for i := range w.Samples {
		x := float64(i) / wavebank.WaveLen
		w.Samples[i] = float32(0.25*math.Sin(2*math.Pi*x) + 0.25*x)
	}
	w.Cycle = true
	w.Normalize = true
	w.CommitSamples()
	if d := math.Abs(float64(w.PostSamples[0] - w.PostSamples[wavebank.WaveLen-1])); d > 1e-5 {
		t.Fatalf("cycled wave has a jump of %v", d)
	}
	peak := float32(0)
	for _, v := range w.PostSamples {
		peak = max(peak, v, -v)
	}
	if math.Abs(float64(peak)-1) > 1e-5 {
		t.Fatalf("normalized peak is %v, want 1", peak)
	}
}

func TestParseWave(t *testing.T) {
	w, err := wavebank.ParseWave([]byte(`{"Effects":[2,-1],"Cycle":true}`))
	if err != nil {
		t.Fatalf("ParseWave failed: %v", err)
	}
	if w.Effects[0] != 1 || w.Effects[1] != 0 {
		t.Fatalf("effects not clamped: %v", w.Effects[:2])
	}
	if _, err := wavebank.ParseWave([]byte("{{")); err == nil {
		t.Fatalf("ParseWave accepted garbage")
	}
}

func TestEffectLabel(t *testing.T) {
	if got := wavebank.Lowpass.Label(); got != "Lowpass Filter" {
		t.Errorf("got %q, want %q", got, "Lowpass Filter")
	}
	if got := wavebank.EffectType(99).String(); got != "unknown" {
		t.Errorf("got %q, want unknown", got)
	}
}

func TestAudioBufferFill(t *testing.T) {
	buf := make(wavebank.AudioBuffer, 8)
	buf.Fill(0.5)
	for i, f := range buf {
		if f != [2]float32{0.5, 0.5} {
			t.Fatalf("frame %d: got %v", i, f)
		}
	}
	var c wavebank.CloseFunc
	if err := c.Close(); err != nil {
		t.Fatalf("nil CloseFunc returned %v", err)
	}
}

func TestWavRoundTrip(t *testing.T) {
	b := wavebank.NewBank(4, 3)
	for i := range b.Waves {
		w := sine(i+1, 0.5)
		b.Replace(i, w)
	}
	for _, pcm16 := range []bool{false, true} {
		data, err := b.Wav(pcm16, false)
		if err != nil {
			t.Fatalf("Wav failed: %v", err)
		}
		got, err := wavebank.ParseBank(data)
		if err != nil {
			t.Fatalf("ParseBank failed: %v", err)
		}
		if got.Len() != 16 || got.Width != wavebank.DefaultWidth {
			t.Fatalf("got %dx%d, want %d waves wide", got.Width, got.Height, wavebank.DefaultWidth)
		}
		tolerance := 1e-7
		if pcm16 {
			tolerance = 1e-4
		}
		for i := range b.Waves {
			for j := range b.Waves[i].Samples {
				if d := math.Abs(float64(got.Waves[i].Samples[j] - b.Waves[i].Samples[j])); d > tolerance {
					t.Fatalf("pcm16 %v wave %d sample %d differs by %v", pcm16, i, j, d)
				}
			}
		}
		if got.Waves[12].Samples != ([wavebank.WaveLen]float32{}) {
			t.Fatalf("padding wave is not silent")
		}
	}
}

func TestParseWavErrors(t *testing.T) {
	if _, err := wavebank.ParseWav([]byte("RIFX0000WAVE")); !errors.Is(err, wavebank.ErrNotWav) {
		t.Errorf("got %v, want ErrNotWav", err)
	}
	short, _ := wavebank.NewBank(1, 1).Wav(false, false)
	if _, err := wavebank.ParseWav(short[:len(short)-4]); !errors.Is(err, wavebank.ErrShape) {
		t.Errorf("truncated wave: got %v, want ErrShape", err)
	}
}
