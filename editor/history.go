package editor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vsariola/wavebank"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

type (
	// History is a bounded, linear undo/redo history of whole-bank snapshots.
	// The cursor points at the entry equal to the current bank; entries before
	// it can be undone to and entries after it redone to. Pushing a new entry
	// discards everything after the cursor. When the history is full, the
	// oldest entry is evicted.
	//
	// The entries are frozen banks, so they share the waves that did not
	// change between them.
	History struct {
		entries  []*wavebank.Bank
		cursor   int
		maxDepth int
		oldest   int // number of entries evicted so far
	}

	// HistoryModel groups the undo/redo actions and the recovery files.
	HistoryModel Model

	historyUndo HistoryModel
	historyRedo HistoryModel
)

// NewHistory returns an empty history holding at most maxDepth entries.
// maxDepth is at least 1.
func NewHistory(maxDepth int) *History {
	return &History{cursor: -1, maxDepth: max(maxDepth, 1)}
}

// Reset clears the history and seeds it with a single entry.
func (h *History) Reset(b *wavebank.Bank) {
	h.Clear()
	h.Push(b)
}

// Clear removes all entries.
func (h *History) Clear() {
	clear(h.entries)
	h.entries = h.entries[:0]
	h.cursor = -1
	h.oldest = 0
}

// Push appends a snapshot of b after the cursor, discarding the redo branch,
// and moves the cursor to it. The bank is frozen first if it is not already.
func (h *History) Push(b *wavebank.Bank) {
	if h.cursor+1 < len(h.entries) {
		clear(h.entries[h.cursor+1:])
		h.entries = h.entries[:h.cursor+1]
	}
	h.entries = append(h.entries, b.Freeze())
	if len(h.entries) > h.maxDepth {
		n := len(h.entries) - h.maxDepth
		h.entries = slices.Delete(h.entries, 0, n)
		h.oldest += n
	}
	h.cursor = len(h.entries) - 1
}

// Undo moves the cursor one entry back and returns that entry. It returns
// false when there is nothing to undo, leaving the history untouched.
func (h *History) Undo() (*wavebank.Bank, bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Redo moves the cursor one entry forward and returns that entry. It returns
// false when there is nothing to redo.
func (h *History) Redo() (*wavebank.Bank, bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// Current returns the entry at the cursor.
func (h *History) Current() (*wavebank.Bank, bool) {
	if h.cursor < 0 || h.cursor >= len(h.entries) {
		return nil, false
	}
	return h.entries[h.cursor], true
}

func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor+1 < len(h.entries) }

// Len returns the number of entries currently stored.
func (h *History) Len() int { return len(h.entries) }

// Cursor returns the index of the current entry, or -1 if the history is
// empty.
func (h *History) Cursor() int { return h.cursor }

// MaxDepth returns the maximum number of entries.
func (h *History) MaxDepth() int { return h.maxDepth }

// Oldest returns the number of entries evicted from the front of the history
// since it was last cleared; it is the absolute index of the oldest entry
// still available.
func (h *History) Oldest() int { return h.oldest }

// Model methods

// History returns the History view of the model, containing methods to
// manipulate the undo/redo history and saving recovery files.
func (m *Model) History() *HistoryModel { return (*HistoryModel)(m) }

// HistoryModel methods

// Stack returns the underlying history.
func (m *HistoryModel) Stack() *History { return m.history }

// Undo returns an Action to undo the last change.
func (m *HistoryModel) Undo() Action { return MakeAction((*historyUndo)(m)) }

func (m *historyUndo) Enabled() bool { return m.changeLevel == 0 && m.history.CanUndo() }
func (m *historyUndo) Do() {
	entry, ok := m.history.Undo()
	if !ok {
		return
	}
	(*Model)(m).restore(entry)
	m.d.ChangedSinceSave = true
	m.d.ChangedSinceRecovery = true
	m.logger.Debug("undo", zap.Int("cursor", m.history.Cursor()), zap.Int("depth", m.history.Len()))
}

// Redo returns an Action to redo the last undone change.
func (m *HistoryModel) Redo() Action { return MakeAction((*historyRedo)(m)) }

func (m *historyRedo) Enabled() bool { return m.changeLevel == 0 && m.history.CanRedo() }
func (m *historyRedo) Do() {
	entry, ok := m.history.Redo()
	if !ok {
		return
	}
	(*Model)(m).restore(entry)
	m.d.ChangedSinceSave = true
	m.d.ChangedSinceRecovery = true
	m.logger.Debug("redo", zap.Int("cursor", m.history.Cursor()), zap.Int("depth", m.history.Len()))
}

// Push checkpoints the current bank as a new history entry. Every change
// made through the model already pushes an entry when it is done, so Push
// only adds one if the live bank differs from the current entry; calling it
// after each edit is harmless. It does nothing inside a change bracket.
func (m *HistoryModel) Push() {
	if m.changeLevel > 0 {
		return
	}
	(*Model)(m).commit()
	if cur, ok := m.history.Current(); ok && cur.Equal(m.d.Bank) {
		return
	}
	m.history.Push((*Model)(m).freeze())
	m.d.ChangedSinceSave = true
	m.d.ChangedSinceRecovery = true
	(*Model)(m).publish()
}

// SaveRecovery saves the current model data to the recovery file on disk if
// there are unsaved changes.
func (m *HistoryModel) SaveRecovery() error {
	if !m.d.ChangedSinceRecovery {
		return nil
	}
	if m.d.RecoveryFilePath == "" {
		return errors.New("no recovery file path")
	}
	out, err := yaml.Marshal(m.d)
	if err != nil {
		return fmt.Errorf("could not marshal recovery data: %w", err)
	}
	dir := filepath.Dir(m.d.RecoveryFilePath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		os.MkdirAll(dir, os.ModePerm)
	}
	if err := os.WriteFile(m.d.RecoveryFilePath, out, 0o644); err != nil {
		return fmt.Errorf("could not write recovery file: %w", err)
	}
	m.d.ChangedSinceRecovery = false
	return nil
}

// LoadRecovery loads the model data from the recovery file on disk.
func (m *HistoryModel) LoadRecovery() error {
	if m.d.RecoveryFilePath == "" {
		return errors.New("no recovery file path")
	}
	bytes, err := os.ReadFile(m.d.RecoveryFilePath)
	if err != nil {
		return fmt.Errorf("could not read recovery file: %w", err)
	}
	data, err := unmarshalModelData(bytes)
	if err != nil {
		return err
	}
	data.RecoveryFilePath = m.d.RecoveryFilePath
	(*Model)(m).setData(data)
	return nil
}

func unmarshalModelData(bytes []byte) (modelData, error) {
	var data modelData
	if err := yaml.Unmarshal(bytes, &data); err != nil {
		return modelData{}, fmt.Errorf("could not unmarshal recovery data: %w", err)
	}
	if data.Bank == nil {
		return modelData{}, errors.New("recovery data has no bank")
	}
	if err := data.Bank.Validate(); err != nil {
		return modelData{}, fmt.Errorf("could not validate recovered bank: %w", err)
	}
	return data, nil
}
