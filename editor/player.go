package editor

import (
	"math"

	"github.com/viterin/vek/vek32"
	"github.com/vsariola/wavebank"
)

type (
	// Player is the preview oscillator, run in the audio thread. It plays the
	// wave, or the blend of waves, under the morph cursor of the latest
	// Snapshot published to the Bridge. The player never locks and never
	// allocates after NewPlayer; it only reports the peak level of each
	// buffer back to the model, without blocking.
	//
	// When the morph position auto-advances, the player advances it locally
	// between publications, so the sweep stays smooth even if the control
	// loop updates the model rarely. The local offset is dropped whenever a
	// new Snapshot arrives.
	Player struct {
		bridge     *Bridge
		broker     *Broker
		sampleRate float64

		seq     uint64  // Seq of the snapshot the zOffset belongs to
		zOffset float64 // auto-advance since the snapshot was published, in waves
		phase   float64 // oscillator phase in [0, 1)
		gain    float32 // gain at the end of the previous buffer, for ramping

		mix  [wavebank.WaveLen + 1]float32 // blended wave; mix[WaveLen] == mix[0] for interpolation
		tmp  [wavebank.WaveLen]float32
		mono []float32
	}
)

// maxBlock is the longest stretch of audio rendered with a single blend.
const maxBlock = 256

func NewPlayer(bridge *Bridge, broker *Broker, sampleRate int) *Player {
	return &Player{
		bridge:     bridge,
		broker:     broker,
		sampleRate: float64(max(sampleRate, 1)),
		mono:       make([]float32, maxBlock),
	}
}

// Process fills the buffer with the preview oscillator.
func (p *Player) Process(buffer wavebank.AudioBuffer) {
	s := p.bridge.Load()
	if s == nil || s.Bank == nil || !s.Play.Enabled {
		buffer.Fill(0)
		p.gain = 0
		p.reportLevel(0)
		return
	}
	if s.Seq != p.seq {
		p.seq = s.Seq
		p.zOffset = 0
	}
	var peak float32
	gain := s.Play.Gain()
	step := s.Play.Frequency / p.sampleRate
	for len(buffer) > 0 {
		n := min(len(buffer), maxBlock)
		p.blend(s)
		mono := p.mono[:n]
		for i := range mono {
			pos := p.phase * wavebank.WaveLen
			j := int(pos)
			f := float32(pos - float64(j))
			mono[i] = p.mix[j] + (p.mix[j+1]-p.mix[j])*f
			p.phase += step
			p.phase -= math.Floor(p.phase)
		}
		p.applyGain(mono, gain)
		vek32.Abs_Into(p.tmp[:n], mono)
		peak = max(peak, vek32.Max(p.tmp[:n]))
		for i, v := range mono {
			buffer[i] = [2]float32{v, v}
		}
		buffer = buffer[n:]
		if s.Morph.ZSpeed > 0 {
			p.zOffset += s.Morph.ZSpeed * float64(n) / p.sampleRate
		}
	}
	p.reportLevel(peak)
}

// blend mixes the waves addressed by the morph position of the snapshot,
// advanced by the local offset, into p.mix.
func (p *Player) blend(s *Snapshot) {
	b := s.Blend
	if p.zOffset > 0 {
		w, n := s.Bank.Width, s.Bank.Len()
		z := wrap(s.Morph.Z(w)+p.zOffset, float64(n))
		if s.Morph.Mode() == GridMode {
			b = resolveGrid(math.Mod(z, float64(w)), math.Floor(z/float64(w)), w, n)
		} else {
			b = resolveLinear(z, n)
		}
	}
	mix := p.mix[:wavebank.WaveLen]
	if b.Exact() {
		copy(mix, s.Wave(b.A)[:])
	} else {
		t, u := float32(b.T), float32(b.U)
		vek32.MulNumber_Into(mix, s.Wave(b.A)[:], (1-t)*(1-u))
		p.accumulate(s.Wave(b.B)[:], t*(1-u))
		p.accumulate(s.Wave(b.C)[:], (1-t)*u)
		p.accumulate(s.Wave(b.D)[:], t*u)
	}
	p.mix[wavebank.WaveLen] = p.mix[0]
}

func (p *Player) accumulate(wave []float32, weight float32) {
	if weight == 0 {
		return
	}
	vek32.MulNumber_Into(p.tmp[:], wave, weight)
	vek32.Add_Inplace(p.mix[:wavebank.WaveLen], p.tmp[:])
}

// applyGain ramps linearly from the gain of the previous block to target, so
// that volume changes do not click.
func (p *Player) applyGain(mono []float32, target float32) {
	if p.gain == target {
		vek32.MulNumber_Inplace(mono, target)
		return
	}
	d := (target - p.gain) / float32(len(mono))
	g := p.gain
	for i := range mono {
		g += d
		mono[i] *= g
	}
	p.gain = target
}

func (p *Player) reportLevel(peak float32) {
	if p.broker == nil {
		return
	}
	TrySend(p.broker.ToModel, MsgToModel{HasLevel: true, Level: peak})
}
