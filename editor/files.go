package editor

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vsariola/wavebank"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ReadBank loads a bank from json, yaml or .wav and makes it the live bank. The
// history is reset to contain only the loaded bank. On error, the model is
// left untouched.
func (m *Model) ReadBank(r io.ReadCloser) error {
	b, err := io.ReadAll(r)
	if err != nil {
		r.Close()
		return fmt.Errorf("could not read bank: %w", err)
	}
	if err := r.Close(); err != nil {
		return fmt.Errorf("could not close bank file: %w", err)
	}
	bank, err := wavebank.ParseBank(b)
	if err != nil {
		return err
	}
	m.setBank(bank)
	m.d.FilePath = ""
	if f, ok := r.(*os.File); ok {
		m.d.FilePath = f.Name()
	}
	m.d.ChangedSinceSave = false
	m.d.ChangedSinceRecovery = true
	m.logger.Info("bank loaded", zap.String("path", m.d.FilePath), zap.Int("width", bank.Width), zap.Int("height", bank.Height))
	return nil
}

// WriteBank saves the live bank as yaml, or as json or 16-bit .wav if the
// writer is a file with the .json or .wav extension. A .wav file only holds
// the post-processed samples; the effect settings are lost.
func (m *Model) WriteBank(w io.WriteCloser) error {
	path := ""
	if f, ok := w.(*os.File); ok {
		path = f.Name()
	}
	var contents []byte
	var err error
	if filepath.Ext(path) == ".wav" {
		contents, err = m.d.Bank.Wav(true, false)
	} else {
		contents, err = marshalByExt(path, m.d.Bank)
	}
	if err != nil {
		w.Close()
		return fmt.Errorf("could not marshal bank: %w", err)
	}
	if _, err := w.Write(contents); err != nil {
		w.Close()
		return fmt.Errorf("could not write bank: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("could not close bank file: %w", err)
	}
	if path != "" {
		// when the bank is saved to a file, we are quite confident that the
		// file is persisted
		m.d.FilePath = path
		m.d.ChangedSinceSave = false
	}
	m.logger.Info("bank saved", zap.String("path", path))
	return nil
}

// LoadWave replaces the focused wave with a wave read from json or yaml. It
// is a single undo step.
func (m *Model) LoadWave(r io.ReadCloser) error {
	b, err := io.ReadAll(r)
	if err != nil {
		r.Close()
		return fmt.Errorf("could not read wave: %w", err)
	}
	if err := r.Close(); err != nil {
		return fmt.Errorf("could not close wave file: %w", err)
	}
	return m.Wave().Paste(b)
}

// SaveWave saves the focused wave.
func (m *Model) SaveWave(w io.WriteCloser) error {
	path := ""
	if f, ok := w.(*os.File); ok {
		path = f.Name()
	}
	contents, err := marshalByExt(path, m.Wave().Value())
	if err != nil {
		w.Close()
		return fmt.Errorf("could not marshal wave: %w", err)
	}
	if _, err := w.Write(contents); err != nil {
		w.Close()
		return fmt.Errorf("could not write wave: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("could not close wave file: %w", err)
	}
	return nil
}

// SaveWaves writes every wave of the bank into dir as its own 16-bit .wav
// file, named by its index (000.wav, 001.wav, ...). The files hold the
// post-processed samples, ready to be loaded into a sampler. dir is created
// if it does not exist.
func (m *Model) SaveWaves(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create wave folder: %w", err)
	}
	for i, w := range m.d.Bank.Waves {
		single := wavebank.Bank{Width: 1, Height: 1, Waves: []*wavebank.Wave{w}}
		contents, err := single.Wav(true, false)
		if err != nil {
			return fmt.Errorf("could not encode wave %d: %w", i, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("%03d.wav", i))
		if err := os.WriteFile(path, contents, 0o644); err != nil {
			return fmt.Errorf("could not write wave %d: %w", i, err)
		}
	}
	m.logger.Info("waves saved", zap.String("dir", dir), zap.Int("count", m.d.Bank.Len()))
	return nil
}

func marshalByExt(path string, v any) ([]byte, error) {
	if filepath.Ext(path) == ".json" {
		return json.Marshal(v)
	}
	return yaml.Marshal(v)
}
