package editor

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type (
	// MIDIMessage is a channel voice message received from a MIDI input,
	// already decoded by the MIDI driver.
	MIDIMessage struct {
		Kind    MIDIMessageKind
		Channel int
		Key     int // note number or controller number
		Value   int // velocity or controller value, 0..127
	}

	MIDIMessageKind int

	// MIDIContext lists the MIDI input devices of a driver.
	MIDIContext interface {
		InputDevices(yield func(MIDIDevice) bool)
		Close()
		Support() MIDISupport
	}

	// MIDIDevice is a MIDI input device. An open device sends its messages to
	// the broker.
	MIDIDevice interface {
		Open() error
		String() string
	}

	MIDISupport int

	// NullMIDIContext is a mockup MIDIContext if you don't want to create a real
	// one.
	NullMIDIContext struct{}
)

const (
	MIDINoteOn MIDIMessageKind = iota
	MIDINoteOff
	MIDIControlChange
)

const (
	MIDISupportNotCompiled MIDISupport = iota
	MIDISupportNoDriver
	MIDISupported
)

// Controller numbers mapped to the morph state.
const (
	MIDIControlZ      = 1
	MIDIControlX      = 2
	MIDIControlY      = 3
	MIDIControlZSpeed = 4
)

func (m NullMIDIContext) InputDevices(yield func(MIDIDevice) bool) {}
func (m NullMIDIContext) Close()                                   {}
func (m NullMIDIContext) Support() MIDISupport                     { return MIDISupportNotCompiled }

// FindMIDIDevice returns the first device of the context whose name starts
// with prefix. An empty prefix matches the first device.
func FindMIDIDevice(c MIDIContext, prefix string) (MIDIDevice, error) {
	for d := range c.InputDevices {
		if strings.HasPrefix(d.String(), prefix) {
			return d, nil
		}
	}
	if prefix == "" {
		return nil, fmt.Errorf("could not find any MIDI input")
	}
	return nil, fmt.Errorf("could not find any MIDI input starting with %q", prefix)
}

// handleMIDI maps MIDI input to the preview and the morph cursor. A note-on
// starts the preview at the pitch of the note; the matching note-off stops it.
// The controllers listed above set the morph coordinates and the auto-advance
// speed, scaled over their whole ranges.
func (m *Model) handleMIDI(msg MIDIMessage) {
	m.logger.Debug("midi", zap.Int("kind", int(msg.Kind)), zap.Int("channel", msg.Channel), zap.Int("key", msg.Key), zap.Int("value", msg.Value))
	switch msg.Kind {
	case MIDINoteOn:
		if msg.Value == 0 {
			m.noteOff(msg.Key)
			return
		}
		defer m.change("MIDINoteOn")()
		m.heldNote = msg.Key
		m.Play().SetNote(msg.Key)
		m.Play().Enabled().Set(true)
	case MIDINoteOff:
		m.noteOff(msg.Key)
	case MIDIControlChange:
		var f Float
		switch msg.Key {
		case MIDIControlZ:
			f = m.Morph().Z()
		case MIDIControlX:
			f = m.Morph().X()
		case MIDIControlY:
			f = m.Morph().Y()
		case MIDIControlZSpeed:
			f = m.Morph().ZSpeed()
		default:
			return
		}
		r := f.Range()
		f.Set(r.Min + (r.Max-r.Min)*float64(clampInt(msg.Value, 0, 127))/127)
	}
}

func (m *Model) noteOff(key int) {
	if key != m.heldNote {
		return
	}
	m.heldNote = -1
	m.Play().Enabled().Set(false)
}
