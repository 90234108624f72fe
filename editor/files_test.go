package editor_test

import (
	"bytes"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/vsariola/wavebank"
	"github.com/vsariola/wavebank/editor"
)

func TestWriteReadBank(t *testing.T) {
	model := newTestModel(editor.WithBankSize(4, 2))
	model.Selection().Select(6)
	model.Wave().SetSample(10, 0.5)
	model.Wave().Effect(wavebank.PostGain).Set(0.25)
	buf := &myWriteCloser{new(bytes.Buffer)}
	if err := model.WriteBank(buf); err != nil {
		t.Fatalf("WriteBank failed: %v", err)
	}
	other := newTestModel()
	if err := other.ReadBank(&myReadCloser{bytes.NewReader(buf.Bytes())}); err != nil {
		t.Fatalf("ReadBank failed: %v", err)
	}
	b := other.BankData()
	if b.Width != 4 || b.Height != 2 {
		t.Fatalf("got shape %dx%d, want 4x2", b.Width, b.Height)
	}
	if !b.Equal(model.BankData()) {
		t.Fatalf("read bank differs from the written one")
	}
	if got, want := b.Waves[6].PostSamples, model.BankData().Waves[6].PostSamples; got != want {
		t.Fatalf("post buffers were not recomputed on read")
	}
	if other.History().Undo().Enabled() {
		t.Fatalf("undo enabled right after loading")
	}
}

func TestReadBankErrorKeepsModel(t *testing.T) {
	model := newTestModel()
	model.Wave().SetSample(0, 0.5)
	if err := model.ReadBank(&myReadCloser{bytes.NewReader([]byte("width: -3\nheight: 1\n"))}); err == nil {
		t.Fatalf("ReadBank accepted an invalid shape")
	}
	if got := model.BankData().Waves[0].Samples[0]; got != 0.5 {
		t.Fatalf("failed read changed the bank")
	}
	if !model.History().Undo().Enabled() {
		t.Fatalf("failed read reset the history")
	}
}

func TestSaveBankToJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	model := newTestModel(editor.WithBankSize(2, 2))
	model.Wave().SetSample(3, -0.25)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("could not create file: %v", err)
	}
	if err := model.WriteBank(f); err != nil {
		t.Fatalf("WriteBank failed: %v", err)
	}
	if model.FilePath() != path || model.ChangedSinceSave() {
		t.Fatalf("saving to a file did not update the file state")
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("could not read file: %v", err)
	}
	if len(contents) == 0 || contents[0] != '{' {
		t.Fatalf("bank.json is not json: %q", contents[:min(len(contents), 20)])
	}
	b, err := wavebank.ParseBank(contents)
	if err != nil {
		t.Fatalf("ParseBank failed: %v", err)
	}
	if b.Waves[0].Samples[3] != -0.25 {
		t.Fatalf("sample lost in the json round trip")
	}
}

func TestSaveWaves(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "waves")
	model := newTestModel(editor.WithBankSize(2, 2))
	model.Selection().Select(2)
	model.Wave().SetSamples(constant(0.1))
	model.Wave().Effect(wavebank.PostGain).Set(0.25)
	if err := model.SaveWaves(dir); err != nil {
		t.Fatalf("SaveWaves failed: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("could not list the wave folder: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("got %d files, want 4", len(entries))
	}
	contents, err := os.ReadFile(filepath.Join(dir, "002.wav"))
	if err != nil {
		t.Fatalf("could not read wave 2: %v", err)
	}
	b, err := wavebank.ParseBank(contents)
	if err != nil {
		t.Fatalf("ParseBank failed: %v", err)
	}
	if b.Len() != 1 {
		t.Fatalf("wave file holds %d waves, want 1", b.Len())
	}
	want := model.BankData().Waves[2].PostSamples
	for i, v := range b.Waves[0].Samples {
		if math.Abs(float64(v-want[i])) > 1e-4 {
			t.Fatalf("sample %d: got %v, want %v", i, v, want[i])
		}
	}
}

func TestCopyPaste(t *testing.T) {
	model := newTestModel()
	model.Wave().SetSample(5, 0.75)
	model.Wave().Cycle().Set(true)
	data, err := model.Wave().Copy()
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	model.Selection().Select(9)
	if err := model.Wave().Paste(data); err != nil {
		t.Fatalf("Paste failed: %v", err)
	}
	w := model.BankData().Waves[9]
	if w.Samples[5] != 0.75 || !w.Cycle {
		t.Fatalf("pasted wave differs from the copied one")
	}
	if model.BankData().Waves[9] == model.BankData().Waves[0] {
		t.Fatalf("paste aliased the source wave")
	}
	n := model.History().Stack().Len()
	if err := model.Wave().Paste([]byte("not a wave: [")); err == nil {
		t.Fatalf("Paste accepted garbage")
	}
	if model.History().Stack().Len() != n {
		t.Fatalf("failed paste pushed history")
	}
}

func TestCutClears(t *testing.T) {
	model := newTestModel()
	model.Wave().SetSample(5, 0.75)
	if _, err := model.Wave().Cut(); err != nil {
		t.Fatalf("Cut failed: %v", err)
	}
	if got := model.BankData().Waves[0].Samples[5]; got != 0 {
		t.Fatalf("cut did not clear the wave: %v", got)
	}
}

func TestEditOnlyTouchesFocusedWave(t *testing.T) {
	model := newTestModel(editor.WithBankSize(4, 4))
	before := model.Bridge().Load().Bank
	model.Selection().Select(7)
	model.Wave().SetSample(0, 1)
	after := model.Bridge().Load().Bank
	for i := range after.Waves {
		if i == 7 {
			if after.Waves[i] == before.Waves[i] {
				t.Fatalf("edited wave shared with the previous snapshot")
			}
			continue
		}
		if after.Waves[i] != before.Waves[i] {
			t.Errorf("wave %d was copied by an edit of wave 7", i)
		}
	}
	if before.Waves[7].Samples[0] != 0 {
		t.Fatalf("edit leaked into a published snapshot")
	}
}

func TestEffectAverage(t *testing.T) {
	model := newTestModel(editor.WithBankSize(2, 2))
	avg := model.Bank().EffectAverage(wavebank.Ring)
	model.Wave().Effect(wavebank.Ring).Set(0.4)
	if v := avg.Value(); math.Abs(v-0.1) > 1e-6 {
		t.Fatalf("got average %v, want 0.1", v)
	}
	avg.Set(0.3)
	if v := model.BankData().Waves[0].Effects[wavebank.Ring]; math.Abs(float64(v)-0.6) > 1e-6 {
		t.Fatalf("shift: got %v, want 0.6", v)
	}
	if v := model.BankData().Waves[1].Effects[wavebank.Ring]; math.Abs(float64(v)-0.2) > 1e-6 {
		t.Fatalf("shift: got %v, want 0.2", v)
	}
	avg.Set(1)
	for i, w := range model.BankData().Waves {
		if w.Effects[wavebank.Ring] != 1 {
			t.Fatalf("wave %d: got %v, want 1", i, w.Effects[wavebank.Ring])
		}
	}
	model.Bank().ShiftEffect(wavebank.Ring, -0.5)
	model.Bank().FlattenEffect(wavebank.Ring)
	if v := avg.Value(); math.Abs(v-0.5) > 1e-6 {
		t.Fatalf("got average %v, want 0.5", v)
	}
}

func TestClearAndRandomizeRange(t *testing.T) {
	model := newTestModel(editor.WithBankSize(4, 4), editor.WithRand(rand.New(rand.NewPCG(1, 2))))
	model.Selection().Select(2)
	model.Selection().Extend(5)
	model.Bank().Randomize().Do()
	noEffects := [wavebank.NumEffects]float32{}
	for i, w := range model.BankData().Waves {
		cleared := w.Effects == noEffects
		if inside := i >= 2 && i <= 5; inside == cleared {
			t.Errorf("wave %d: randomized %v, want %v", i, !cleared, inside)
		}
	}
	model.Bank().Clear().Do()
	for i, w := range model.BankData().Waves {
		if w.Effects != noEffects {
			t.Errorf("wave %d not cleared", i)
		}
	}
	if n := model.History().Stack().Len(); n != 3 {
		t.Fatalf("got history length %d, want 3", n)
	}
}

func TestMIDI(t *testing.T) {
	model := newTestModel(editor.WithBankSize(4, 4))
	note := func(kind editor.MIDIMessageKind, key, value int) {
		model.ProcessMsg(editor.MsgToModel{HasMIDI: true, MIDI: editor.MIDIMessage{Kind: kind, Key: key, Value: value}})
	}
	note(editor.MIDINoteOn, 69, 100)
	if p := model.Play().Value(); !p.Enabled || p.Frequency != 440 {
		t.Fatalf("note on: got %+v", p)
	}
	note(editor.MIDINoteOn, 81, 100)
	if p := model.Play().Value(); math.Abs(p.Frequency-880) > 1e-9 {
		t.Fatalf("second note: got %v Hz, want 880", p.Frequency)
	}
	note(editor.MIDINoteOff, 69, 0)
	if !model.Play().Value().Enabled {
		t.Fatalf("releasing an earlier note stopped the preview")
	}
	note(editor.MIDINoteOn, 81, 0)
	if model.Play().Value().Enabled {
		t.Fatalf("note on with zero velocity did not stop the preview")
	}
	note(editor.MIDIControlChange, editor.MIDIControlZ, 127)
	if z := model.Morph().Value().Z(4); z != 15 {
		t.Fatalf("CC Z at 127: got %v, want 15", z)
	}
	note(editor.MIDIControlChange, editor.MIDIControlX, 0)
	if model.Morph().Mode() != editor.GridMode {
		t.Fatalf("CC X did not switch to grid mode")
	}
	note(editor.MIDIControlChange, editor.MIDIControlZSpeed, 127)
	if s := model.Morph().Value().ZSpeed; s != editor.MaxZSpeed {
		t.Fatalf("CC speed at 127: got %v", s)
	}
	if n := model.History().Stack().Len(); n != 1 {
		t.Fatalf("MIDI pushed history: length %d", n)
	}
}

type fakeMIDIContext []fakeMIDIDevice

type fakeMIDIDevice string

func (c fakeMIDIContext) InputDevices(yield func(editor.MIDIDevice) bool) {
	for _, d := range c {
		if !yield(d) {
			return
		}
	}
}
func (c fakeMIDIContext) Close()                      {}
func (c fakeMIDIContext) Support() editor.MIDISupport { return editor.MIDISupported }

func (d fakeMIDIDevice) Open() error    { return nil }
func (d fakeMIDIDevice) String() string { return string(d) }

func TestFindMIDIDevice(t *testing.T) {
	c := fakeMIDIContext{"Midi Through", "nanoKONTROL2", "nanoKEY2"}
	d, err := editor.FindMIDIDevice(c, "nano")
	if err != nil || d.String() != "nanoKONTROL2" {
		t.Fatalf("got %v, %v", d, err)
	}
	if d, err = editor.FindMIDIDevice(c, ""); err != nil || d.String() != "Midi Through" {
		t.Fatalf("empty prefix: got %v, %v", d, err)
	}
	if _, err = editor.FindMIDIDevice(c, "Launchpad"); err == nil {
		t.Fatalf("found a device that does not exist")
	}
	if _, err = editor.FindMIDIDevice(editor.NullMIDIContext{}, ""); err == nil {
		t.Fatalf("found a device in the null context")
	}
}

type myReadCloser struct {
	*bytes.Reader
}

func (r *myReadCloser) Close() error { return nil }
