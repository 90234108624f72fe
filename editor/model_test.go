package editor_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/vsariola/wavebank"
	"github.com/vsariola/wavebank/editor"
)

type modelFuzzState struct {
	model     *editor.Model
	clipboard []byte
	file      []byte
}

type myWriteCloser struct {
	*bytes.Buffer
}

func (mwc *myWriteCloser) Close() error {
	// Noop
	return nil
}

func (s *modelFuzzState) Iterate(yield func(string, func(p string, t *testing.T)) bool, seed int) {
	// Ints
	s.IterateInt("SelectedWave", s.model.Selection().Int(), yield, seed)
	// Floats
	s.IterateFloat("MorphX", s.model.Morph().X(), yield, seed)
	s.IterateFloat("MorphY", s.model.Morph().Y(), yield, seed)
	s.IterateFloat("MorphZ", s.model.Morph().Z(), yield, seed)
	s.IterateFloat("MorphZSpeed", s.model.Morph().ZSpeed(), yield, seed)
	s.IterateFloat("Frequency", s.model.Play().Frequency(), yield, seed)
	s.IterateFloat("Volume", s.model.Play().Volume(), yield, seed)
	s.IterateFloat("Effect", s.model.Wave().Effect(wavebank.EffectType(seed%int(wavebank.NumEffects))), yield, seed)
	s.IterateFloat("EffectAverage", s.model.Bank().EffectAverage(wavebank.EffectType(seed%int(wavebank.NumEffects))), yield, seed)
	// Bools
	s.IterateBool("Interpolate", s.model.Morph().Interpolate(), yield, seed)
	s.IterateBool("GridMode", s.model.Morph().GridMode(), yield, seed)
	s.IterateBool("PlayEnabled", s.model.Play().Enabled(), yield, seed)
	s.IterateBool("Cycle", s.model.Wave().Cycle(), yield, seed)
	s.IterateBool("Normalize", s.model.Wave().Normalize(), yield, seed)
	// Actions
	s.IterateAction("SelectAll", s.model.Selection().All(), yield, seed)
	s.IterateAction("Next", s.model.Selection().Next(), yield, seed)
	s.IterateAction("Prev", s.model.Selection().Prev(), yield, seed)
	s.IterateAction("Undo", s.model.History().Undo(), yield, seed)
	s.IterateAction("Redo", s.model.History().Redo(), yield, seed)
	s.IterateAction("ClearEffects", s.model.Wave().ClearEffects(), yield, seed)
	s.IterateAction("RandomizeEffects", s.model.Wave().RandomizeEffects(), yield, seed)
	s.IterateAction("BakeEffects", s.model.Wave().BakeEffects(), yield, seed)
	s.IterateAction("ClearRange", s.model.Bank().Clear(), yield, seed)
	s.IterateAction("RandomizeRange", s.model.Bank().Randomize(), yield, seed)
	s.IterateAction("BankBakeEffects", s.model.Bank().BakeEffects(), yield, seed)
	s.IterateAction("NewBank", s.model.Bank().New(), yield, seed)
	// Selection
	yield("Select", func(p string, t *testing.T) {
		s.model.Selection().Select(seed%80 - 8)
	})
	yield("Extend", func(p string, t *testing.T) {
		s.model.Selection().Extend(seed%80 - 8)
	})
	yield("Move", func(p string, t *testing.T) {
		s.model.Selection().Move(seed%2*2 - 1)
	})
	// Editing
	yield("SetSample", func(p string, t *testing.T) {
		s.model.Wave().SetSample(seed%(wavebank.WaveLen+4)-2, float32(seed%200-100)/50)
	})
	yield("SetHarmonic", func(p string, t *testing.T) {
		s.model.Wave().SetHarmonic(seed%(wavebank.HarmonicLen+4)-2, float32(seed%100)/100)
	})
	yield("Gesture", func(p string, t *testing.T) {
		end := s.model.Gesture("Draw")
		for i := 0; i < 8; i++ {
			s.model.Wave().SetSample((seed+i)%wavebank.WaveLen, float32(i)/8)
		}
		if seed%3 == 0 {
			s.model.Cancel()
		}
		end()
	})
	yield("ShiftEffect", func(p string, t *testing.T) {
		s.model.Bank().ShiftEffect(wavebank.EffectType(seed%int(wavebank.NumEffects)), float32(seed%21-10)/10)
	})
	yield("FlattenEffect", func(p string, t *testing.T) {
		s.model.Bank().FlattenEffect(wavebank.EffectType(seed % int(wavebank.NumEffects)))
	})
	yield("SetAllCycle", func(p string, t *testing.T) {
		s.model.Bank().SetAllCycle(seed%2 == 0)
	})
	yield("MorphUpdate", func(p string, t *testing.T) {
		s.model.Morph().Update(0)
	})
	// Clipboard
	yield("Copy", func(p string, t *testing.T) {
		s.clipboard, _ = s.model.Wave().Copy()
	})
	yield("Cut", func(p string, t *testing.T) {
		s.clipboard, _ = s.model.Wave().Cut()
	})
	yield("Paste", func(p string, t *testing.T) {
		s.model.Wave().Paste(s.clipboard)
	})
	// MIDI
	yield("MIDI", func(p string, t *testing.T) {
		kind := editor.MIDIMessageKind(seed % 3)
		s.model.ProcessMsg(editor.MsgToModel{HasMIDI: true, MIDI: editor.MIDIMessage{Kind: kind, Key: seed % 8, Value: seed % 128}})
	})
	// File reading
	if s.file != nil {
		yield("ReadBank", func(p string, t *testing.T) {
			reader := bytes.NewReader(s.file)
			readCloser := io.NopCloser(reader)
			s.model.ReadBank(readCloser)
		})
		yield("LoadWave", func(p string, t *testing.T) {
			reader := bytes.NewReader(s.file)
			readCloser := io.NopCloser(reader)
			s.model.LoadWave(readCloser)
		})
	}
	// File saving
	yield("WriteBank", func(p string, t *testing.T) {
		writer := bytes.NewBuffer(nil)
		writeCloser := &myWriteCloser{writer}
		s.model.WriteBank(writeCloser)
		s.file = writer.Bytes()
	})
	yield("SaveWave", func(p string, t *testing.T) {
		writer := bytes.NewBuffer(nil)
		writeCloser := &myWriteCloser{writer}
		s.model.SaveWave(writeCloser)
		s.file = writer.Bytes()
	})
}

func (s *modelFuzzState) IterateInt(name string, i editor.Int, yield func(string, func(p string, t *testing.T)) bool, seed int) {
	r := i.Range()
	yield(name+".Set", func(p string, t *testing.T) {
		i.Set(seed%(r.Max-r.Min+10) - 5 + r.Min)
	})
	yield(name+".Value", func(p string, t *testing.T) {
		if v := i.Value(); v < r.Min || v > r.Max {
			t.Errorf("Path: %s %s value out of range [%d,%d]: %d", p, name, r.Min, r.Max, v)
		}
	})
}

func (s *modelFuzzState) IterateFloat(name string, f editor.Float, yield func(string, func(p string, t *testing.T)) bool, seed int) {
	r := f.Range()
	yield(name+".Set", func(p string, t *testing.T) {
		f.Set(r.Min + (r.Max-r.Min)*float64(seed%23-3)/16)
	})
	yield(name+".Add", func(p string, t *testing.T) {
		f.Add(float64(seed%5-2) / 4)
	})
	yield(name+".Value", func(p string, t *testing.T) {
		r := f.Range()
		if v := f.Value(); v < r.Min || v > r.Max+1 || math.IsNaN(v) {
			t.Errorf("Path: %s %s value out of range [%v,%v]: %v", p, name, r.Min, r.Max, v)
		}
	})
}

func (s *modelFuzzState) IterateAction(name string, a editor.Action, yield func(string, func(p string, t *testing.T)) bool, seed int) {
	yield(name+".Do", func(p string, t *testing.T) {
		a.Do()
	})
}

func (s *modelFuzzState) IterateBool(name string, b editor.Bool, yield func(string, func(p string, t *testing.T)) bool, seed int) {
	yield(name+".Set", func(p string, t *testing.T) {
		b.Set(seed%2 == 0)
	})
	yield(name+".Toggle", func(p string, t *testing.T) {
		b.Toggle()
	})
}

// checkInvariants verifies the properties that must hold after any sequence
// of operations.
func checkInvariants(t *testing.T, p string, model *editor.Model) {
	t.Helper()
	n := model.Bank().Len()
	sel := model.Selection().Value()
	if sel.Anchor < 0 || sel.Anchor >= n || sel.Focus < 0 || sel.Focus >= n {
		t.Errorf("Path: %s selection out of range: %v", p, sel)
	}
	h := model.History().Stack()
	if h.Len() < 1 || h.Len() > h.MaxDepth() {
		t.Errorf("Path: %s history length out of range: %d", p, h.Len())
	}
	if c := h.Cursor(); c < 0 || c >= h.Len() {
		t.Errorf("Path: %s history cursor out of range: %d", p, c)
	}
	s := model.Morph().Value()
	if s.Quantized() {
		w := model.Bank().Width()
		if z := s.Z(w); z != math.Round(z) {
			t.Errorf("Path: %s snapped morph position is fractional: %v", p, z)
		}
	}
	snap := model.Bridge().Load()
	if snap == nil {
		t.Fatalf("Path: %s nothing published", p)
	}
	if !snap.Bank.Frozen() {
		t.Errorf("Path: %s published bank is not frozen", p)
	}
	b := snap.Blend
	for _, i := range []int{b.A, b.B, b.C, b.D} {
		if i < 0 || i >= snap.Bank.Len() {
			t.Errorf("Path: %s blend index out of range: %v", p, b)
		}
	}
}

func FuzzModel(f *testing.F) {
	seed := make([]byte, 1)
	for i := range seed {
		seed[i] = byte(i)
	}
	f.Add(seed)
	f.Add([]byte{2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 22, 24})
	f.Fuzz(func(t *testing.T, slice []byte) {
		reader := bytes.NewReader(slice)
		broker := editor.NewBroker()
		model := editor.NewModel(broker, editor.WithRand(rand.New(rand.NewPCG(1, 2))), editor.WithMaxUndo(8))
		player := editor.NewPlayer(model.Bridge(), broker, 44100)
		buf := make(wavebank.AudioBuffer, 2048)
		closeChan := make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				select {
				case <-closeChan:
					return
				default:
					player.Process(buf)
				}
			}
		}()
		state := modelFuzzState{model: model}
		count := 0
		state.Iterate(func(n string, f func(p string, t *testing.T)) bool {
			count++
			return true
		}, 0)
		totalPath := ""
		for m, err := binary.ReadVarint(reader); err == nil; m, err = binary.ReadVarint(reader) {
			seed := int(m)
			if seed < 0 {
				seed = -seed
			}
			index := seed % count
			state.Iterate(func(n string, f func(p string, t *testing.T)) bool {
				if index == 0 {
					totalPath += n + ". "
					f(totalPath, t)
				}
				index--
				return index >= 0
			}, seed)
		drain:
			for {
				select {
				case msg := <-broker.ToModel:
					model.ProcessMsg(msg)
				default:
					break drain
				}
			}
			checkInvariants(t, totalPath, model)
		}
		close(closeChan)
		<-done
	})
}
