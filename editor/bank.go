package editor

import (
	"github.com/vsariola/wavebank"
	"gonum.org/v1/gonum/floats"
)

type (
	// BankModel groups the operations on the whole bank or on the selected
	// range of waves. Each operation is a single undo step.
	BankModel Model

	bankNew              BankModel
	bankClearRange       BankModel
	bankRandomizeRange   BankModel
	bankClearEffects     BankModel
	bankRandomizeEffects BankModel
	bankBakeEffects      BankModel

	bankEffectAverage struct {
		m *Model
		e wavebank.EffectType
	}
)

// Model methods

func (m *Model) Bank() *BankModel { return (*BankModel)(m) }

// BankModel methods

// Value returns the live bank. It must be treated as read-only.
func (m *BankModel) Value() *wavebank.Bank { return m.d.Bank }

func (m *BankModel) Width() int  { return m.d.Bank.Width }
func (m *BankModel) Height() int { return m.d.Bank.Height }
func (m *BankModel) Len() int    { return m.d.Bank.Len() }

// New returns an Action to replace the bank with a new, silent one. The
// history is reset.
func (m *BankModel) New() Action { return MakeAction((*bankNew)(m)) }

func (m *bankNew) Do() {
	(*Model)(m).setBank(wavebank.NewBank(m.shapeW, m.shapeH))
	m.d.FilePath = ""
	m.d.ChangedSinceSave = false
	m.d.ChangedSinceRecovery = true
}

// Clear returns an Action to clear the selected waves.
func (m *BankModel) Clear() Action { return MakeAction((*bankClearRange)(m)) }

func (m *bankClearRange) Do() {
	defer (*Model)(m).change("Bank.Clear")()
	lo, hi := m.d.Selection.Range()
	for i := lo; i <= hi; i++ {
		if w := (*Model)(m).editWave(i, postChange); w != nil {
			*w = wavebank.Wave{}
		}
	}
}

// Randomize returns an Action to randomize the effects of the selected waves.
func (m *BankModel) Randomize() Action { return MakeAction((*bankRandomizeRange)(m)) }

func (m *bankRandomizeRange) Do() {
	defer (*Model)(m).change("Bank.Randomize")()
	lo, hi := m.d.Selection.Range()
	for i := lo; i <= hi; i++ {
		if w := (*Model)(m).editWave(i, postChange); w != nil {
			w.RandomizeEffects(m.rng)
		}
	}
}

// ClearEffects returns an Action to reset the effects of every wave.
func (m *BankModel) ClearEffects() Action { return MakeAction((*bankClearEffects)(m)) }

func (m *bankClearEffects) Do() {
	(*BankModel)(m).forEach("Bank.ClearEffects", func(w *wavebank.Wave) {
		w.Effects = [wavebank.NumEffects]float32{}
	})
}

// RandomizeEffects returns an Action to randomize the effects of every wave.
func (m *BankModel) RandomizeEffects() Action { return MakeAction((*bankRandomizeEffects)(m)) }

func (m *bankRandomizeEffects) Do() {
	(*BankModel)(m).forEach("Bank.RandomizeEffects", func(w *wavebank.Wave) {
		w.RandomizeEffects(m.rng)
	})
}

// BakeEffects returns an Action to bake the effects of every wave.
func (m *BankModel) BakeEffects() Action { return MakeAction((*bankBakeEffects)(m)) }

func (m *bankBakeEffects) Do() {
	(*BankModel)(m).forEach("Bank.BakeEffects", (*wavebank.Wave).BakeEffects)
}

// SetAllCycle sets the cycle flag of every wave.
func (m *BankModel) SetAllCycle(val bool) {
	m.forEach("Bank.SetAllCycle", func(w *wavebank.Wave) { w.Cycle = val })
}

// SetAllNormalize sets the normalize flag of every wave.
func (m *BankModel) SetAllNormalize(val bool) {
	m.forEach("Bank.SetAllNormalize", func(w *wavebank.Wave) { w.Normalize = val })
}

// ShiftEffect adds delta to the amount of effect e in every wave, clamped to
// [0,1].
func (m *BankModel) ShiftEffect(e wavebank.EffectType, delta float32) {
	if e < 0 || e >= wavebank.NumEffects || delta == 0 {
		return
	}
	m.forEach("Bank.ShiftEffect", func(w *wavebank.Wave) {
		w.Effects[e] = max(min(w.Effects[e]+delta, 1), 0)
	})
}

// FlattenEffect sets the amount of effect e in every wave to the average over
// the bank.
func (m *BankModel) FlattenEffect(e wavebank.EffectType) {
	if e < 0 || e >= wavebank.NumEffects {
		return
	}
	avg := float32(m.effectAverage(e))
	m.forEach("Bank.FlattenEffect", func(w *wavebank.Wave) { w.Effects[e] = avg })
}

// EffectAverage returns the average amount of effect e over the bank as a
// Float. Setting it shifts the effect in every wave by the same amount; when
// set to either end of the range, every wave gets exactly that value.
func (m *BankModel) EffectAverage(e wavebank.EffectType) Float {
	return Float{&bankEffectAverage{m: (*Model)(m), e: e}}
}

func (v *bankEffectAverage) Value() float64 {
	if v.e < 0 || v.e >= wavebank.NumEffects {
		return 0
	}
	return v.m.Bank().effectAverage(v.e)
}
func (v *bankEffectAverage) Range() floatRange { return floatRange{0, 1} }
func (v *bankEffectAverage) setValue(value float64) {
	if v.e < 0 || v.e >= wavebank.NumEffects {
		return
	}
	if value <= 0 || value >= 1 {
		for i := range v.m.d.Bank.Waves {
			if w := v.m.editWave(i, postChange); w != nil {
				w.Effects[v.e] = float32(value)
			}
		}
		return
	}
	delta := float32(value - v.Value())
	for i := range v.m.d.Bank.Waves {
		if w := v.m.editWave(i, postChange); w != nil {
			w.Effects[v.e] = max(min(w.Effects[v.e]+delta, 1), 0)
		}
	}
}
func (v *bankEffectAverage) change(kind string) func() {
	return v.m.change("Bank.EffectAverage." + v.e.String() + "." + kind)
}

func (m *BankModel) effectAverage(e wavebank.EffectType) float64 {
	vals := make([]float64, m.d.Bank.Len())
	for i, w := range m.d.Bank.Waves {
		vals[i] = float64(w.Effects[e])
	}
	return floats.Sum(vals) / float64(len(vals))
}

// forEach applies f to every wave of the bank as one change.
func (m *BankModel) forEach(kind string, f func(w *wavebank.Wave)) {
	defer (*Model)(m).change(kind)()
	for i := range m.d.Bank.Waves {
		if w := (*Model)(m).editWave(i, postChange); w != nil {
			f(w)
		}
	}
}
