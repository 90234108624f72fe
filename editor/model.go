package editor

import (
	"math/rand/v2"

	"github.com/vsariola/wavebank"
	"go.uber.org/zap"
)

// Model implements the mutable state of the wavetable editor.
//
// The Model is owned by the control goroutine: all its methods must be
// called from that goroutine only. The audio goroutine never touches the
// Model; instead, the Model publishes immutable Snapshots through the Bridge
// and the Player reads them from there.
type (
	// modelData is the part of the model that gets saved to the recovery
	// file
	modelData struct {
		Bank                 *wavebank.Bank
		Selection            Selection
		Morph                MorphState
		Play                 PlayParams
		FilePath             string
		ChangedSinceSave     bool
		RecoveryFilePath     string `yaml:"-"`
		ChangedSinceRecovery bool   `yaml:"-"`
	}

	Model struct {
		d modelData

		history *History
		bridge  *Bridge
		broker  *Broker
		logger  *zap.Logger
		rng     *rand.Rand

		// changeLevel counts the nesting of the change brackets; history is
		// checkpointed only when the outermost bracket closes.
		changeLevel  int
		changeKind   string
		changeCancel bool
		bankChanged  bool               // bank was modified in the current outermost bracket
		dirty        map[int]waveChange // waves with raw edits that are not yet committed
		stale        bool               // bank was modified after the latest freeze
		needPublish  bool               // something audible changed since the last publish
		frozen       *wavebank.Bank     // bank of the latest publication
		seq          uint64             // sequence number of the latest publication
		heldNote     int                // MIDI note currently holding the preview on, -1 if none
		level        float32            // peak level of the last rendered buffer
		maxUndo      int
		shapeW       int
		shapeH       int
	}

	// Option configures a Model in NewModel.
	Option func(*Model)

	// waveChange tells which raw buffer of a wave was edited, so that the
	// right commit method is called when the change is closed.
	waveChange uint8
)

const (
	postChange waveChange = 1 << iota
	samplesChange
	harmonicsChange
)

const defaultMaxUndo = 64

// WithLogger sets the logger of the model. By default, nothing is logged.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Model) { m.logger = logger }
}

// WithMaxUndo sets the maximum number of entries kept in the undo history.
func WithMaxUndo(n int) Option {
	return func(m *Model) { m.maxUndo = n }
}

// WithBankSize sets the shape of new banks.
func WithBankSize(width, height int) Option {
	return func(m *Model) { m.shapeW, m.shapeH = width, height }
}

// WithRecoveryFile sets the path where SaveRecovery writes the session.
func WithRecoveryFile(path string) Option {
	return func(m *Model) { m.d.RecoveryFilePath = path }
}

// WithRand sets the random number generator used by the randomizing
// actions; mainly useful for tests.
func WithRand(r *rand.Rand) Option {
	return func(m *Model) { m.rng = r }
}

// NewModel creates a model with a new, silent bank, a history seeded with
// that bank and a first publication in its Bridge.
func NewModel(broker *Broker, options ...Option) *Model {
	m := &Model{
		broker:   broker,
		bridge:   new(Bridge),
		logger:   zap.NewNop(),
		maxUndo:  defaultMaxUndo,
		shapeW:   wavebank.DefaultWidth,
		shapeH:   wavebank.DefaultHeight,
		heldNote: -1,
		dirty:    map[int]waveChange{},
	}
	for _, o := range options {
		o(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	m.history = NewHistory(m.maxUndo)
	m.d.Play = defaultPlayParams
	m.setBank(wavebank.NewBank(m.shapeW, m.shapeH))
	return m
}

// Bridge returns the bridge through which the model publishes its state to
// the audio thread.
func (m *Model) Bridge() *Bridge { return m.bridge }

// Broker returns the broker the model was created with.
func (m *Model) Broker() *Broker { return m.broker }

// BankData returns the current live bank. It must be treated as read-only;
// all modifications should be done through the model.
func (m *Model) BankData() *wavebank.Bank { return m.d.Bank }

func (m *Model) FilePath() string        { return m.d.FilePath }
func (m *Model) ChangedSinceSave() bool  { return m.d.ChangedSinceSave }
func (m *Model) SetFilePath(path string) { m.d.FilePath = path }

// Level returns the latest peak level reported by the player.
func (m *Model) Level() float32 { return m.level }

// Gesture opens a change bracket that lasts until the returned function is
// called. All the edits made during a gesture, e.g. dragging the mouse over
// a waveform, become a single entry in the undo history, while each of them
// is still published to the player immediately.
func (m *Model) Gesture(kind string) (end func()) {
	return m.change("Gesture." + kind)
}

// change opens a change bracket; it is meant to be used as
//
//	defer m.change("Kind")()
//
// When any bracket closes, all the waves edited so far are committed (their
// post buffers recomputed) and, if anything audible changed, a new Snapshot
// is published. When the outermost bracket closes and the bank was modified,
// exactly one entry is pushed to the history. If the change was cancelled,
// the bank is restored from the current history entry instead.
func (m *Model) change(kind string) func() {
	if m.changeLevel == 0 {
		m.changeKind = kind
		m.changeCancel = false
		m.bankChanged = false
	}
	m.changeLevel++
	return func() {
		m.changeLevel--
		if m.changeCancel {
			if m.changeLevel == 0 {
				m.restoreCurrent()
			}
			return
		}
		m.commit()
		if m.changeLevel == 0 && m.bankChanged {
			m.history.Push(m.freeze())
			m.d.ChangedSinceSave = true
			m.d.ChangedSinceRecovery = true
			m.bankChanged = false
			m.logger.Debug("history push", zap.String("kind", m.changeKind), zap.Int("depth", m.history.Len()))
		}
		m.publish()
	}
}

// Cancel marks the open gesture to be rolled back: when its outermost bracket
// closes, the bank is restored from the current history entry and nothing is
// pushed. Outside a change bracket it does nothing.
func (m *Model) Cancel() {
	if m.changeLevel > 0 {
		m.changeCancel = true
	}
}

// editWave returns a writable wave and marks it to be committed with the
// given kind of change when the current bracket closes. Must be called
// inside a change bracket.
func (m *Model) editWave(i int, c waveChange) *wavebank.Wave {
	w, err := m.d.Bank.Edit(i)
	if err != nil {
		m.logger.Warn("edit wave", zap.Int("index", i), zap.Error(err))
		return nil
	}
	m.dirty[i] |= c
	m.bankChanged = true
	m.stale = true
	m.needPublish = true
	return w
}

// commit recomputes the derived buffers of all the waves edited since the
// last commit.
func (m *Model) commit() {
	for i, c := range m.dirty {
		w, err := m.d.Bank.Edit(i)
		if err != nil {
			continue
		}
		switch {
		case c&harmonicsChange != 0:
			w.CommitHarmonics()
		case c&samplesChange != 0:
			w.CommitSamples()
		default:
			w.UpdatePost()
		}
	}
	clear(m.dirty)
}

// freeze returns a read-only view of the live bank for the history and the
// player. The post buffers must have been committed before.
func (m *Model) freeze() *wavebank.Bank {
	m.frozen = m.d.Bank.Freeze()
	m.stale = false
	m.needPublish = true
	return m.frozen
}

// publish sends a new Snapshot to the player, if something audible changed
// since the last one.
func (m *Model) publish() {
	if !m.needPublish {
		return
	}
	if m.stale || m.frozen == nil {
		m.commit()
		m.freeze()
	}
	m.seq++
	morph := m.d.Morph
	m.bridge.Publish(&Snapshot{
		Seq:   m.seq,
		Bank:  m.frozen,
		Morph: morph,
		Blend: morph.Resolve(m.frozen.Width, m.frozen.Height),
		Play:  m.d.Play,
	})
	m.needPublish = false
}

// setBank replaces the whole bank (new bank, load), resets the selection and
// morph state, seeds the history with the new bank and publishes once.
func (m *Model) setBank(b *wavebank.Bank) {
	m.d.Bank = b
	clear(m.dirty)
	m.d.Selection = Selection{}
	m.d.Morph = defaultMorphState
	m.history.Reset(m.freeze())
	m.publish()
}

// setData installs recovered model data: the bank becomes the only history
// entry and the selection, morph and play parameters are kept as recovered,
// clamped to the bank.
func (m *Model) setData(data modelData) {
	m.d.Bank = data.Bank
	clear(m.dirty)
	m.bankChanged = false
	m.d.Selection = data.Selection.clamp(data.Bank.Len())
	m.d.Morph = data.Morph.Clamp(data.Bank.Width, data.Bank.Height).Snap(data.Bank.Width, data.Bank.Height)
	m.d.Play = data.Play.clamp()
	m.d.FilePath = data.FilePath
	m.d.ChangedSinceSave = data.ChangedSinceSave
	m.d.ChangedSinceRecovery = false
	m.history.Reset(m.freeze())
	m.publish()
}

// restoreCurrent makes the live bank equal to the current history entry and
// publishes it.
func (m *Model) restoreCurrent() {
	entry, ok := m.history.Current()
	if !ok {
		return
	}
	m.restore(entry)
}

// restore installs a history entry as the live bank. The entry itself stays
// frozen; the live bank shares its waves until they are edited. The player
// sees exactly one publication, of the fully restored bank.
func (m *Model) restore(entry *wavebank.Bank) {
	clear(m.dirty)
	m.bankChanged = false
	m.stale = false
	m.d.Bank = entry.Thaw()
	m.d.Selection = m.d.Selection.clamp(m.d.Bank.Len())
	m.d.Morph = m.d.Morph.Clamp(m.d.Bank.Width, m.d.Bank.Height)
	m.frozen = entry
	m.needPublish = true
	m.publish()
}

// ProcessMsg handles a message sent to the model through the broker. It
// should be called from the control goroutine whenever a message is
// received from Broker.ToModel.
func (m *Model) ProcessMsg(msg MsgToModel) {
	if msg.HasLevel {
		m.level = msg.Level
	}
	if msg.HasMIDI {
		m.handleMIDI(msg.MIDI)
	}
	switch e := msg.Data.(type) {
	case nil:
	case error:
		m.logger.Error("message from player", zap.Error(e))
	default:
		m.logger.Debug("unhandled message", zap.Any("data", e))
	}
}
