// Package gomidi provides MIDI input for the editor through the RtMidi
// driver of gitlab.com/gomidi/midi. It requires cgo.
package gomidi

import (
	"errors"
	"fmt"

	"github.com/vsariola/wavebank/editor"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	// RTMIDIContext lists the RtMidi input devices. An opened device decodes
	// its messages and sends them to the model through the broker.
	RTMIDIContext struct {
		driver             *rtmididrv.Driver
		broker             *editor.Broker
		currentIn          drivers.In
		stop               func()
		inputDevices       []RTMIDIDevice
		devicesInitialized bool
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		in      drivers.In
	}
)

// NewContext opens the driver.
func NewContext(broker *editor.Broker) *RTMIDIContext {
	m := RTMIDIContext{broker: broker}
	// there's not much we can do if this fails, so just use m.driver = nil to
	// indicate no driver available
	m.driver, _ = rtmididrv.New()
	return &m
}

func (m *RTMIDIContext) InputDevices(yield func(editor.MIDIDevice) bool) {
	if !m.devicesInitialized {
		m.initInputDevices()
	}
	for _, device := range m.inputDevices {
		if !yield(device) {
			break
		}
	}
}

func (m *RTMIDIContext) initInputDevices() {
	if m.driver == nil {
		return
	}
	ins, err := m.driver.Ins()
	if err != nil {
		return
	}
	for _, in := range ins {
		m.inputDevices = append(m.inputDevices, RTMIDIDevice{context: m, in: in})
	}
	m.devicesInitialized = true
}

func (m *RTMIDIContext) Support() editor.MIDISupport {
	if m.driver == nil {
		return editor.MIDISupportNoDriver
	}
	return editor.MIDISupported
}

// Open an input device while closing the currently open if necessary.
func (d RTMIDIDevice) Open() error {
	c := d.context
	if c.currentIn == d.in {
		return nil
	}
	if c.driver == nil {
		return errors.New("no driver available")
	}
	c.closeCurrent()
	if err := d.in.Open(); err != nil {
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	stop, err := midi.ListenTo(d.in, c.HandleMessage)
	if err != nil {
		d.in.Close()
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	c.currentIn, c.stop = d.in, stop
	return nil
}

func (d RTMIDIDevice) String() string {
	return d.in.String()
}

func (c *RTMIDIContext) closeCurrent() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.currentIn = nil
}

func (c *RTMIDIContext) Close() {
	if c.driver == nil {
		return
	}
	c.closeCurrent()
	c.driver.Close()
}

// HandleMessage is called by the driver goroutine for every received message.
// Channel voice messages the editor understands are forwarded to the model;
// if the broker is full, the message is dropped.
func (c *RTMIDIContext) HandleMessage(msg midi.Message, timestampms int32) {
	var channel, key, value uint8
	var m editor.MIDIMessage
	switch {
	case msg.GetNoteOn(&channel, &key, &value):
		m = editor.MIDIMessage{Kind: editor.MIDINoteOn, Channel: int(channel), Key: int(key), Value: int(value)}
	case msg.GetNoteOff(&channel, &key, &value):
		m = editor.MIDIMessage{Kind: editor.MIDINoteOff, Channel: int(channel), Key: int(key), Value: int(value)}
	case msg.GetControlChange(&channel, &key, &value):
		m = editor.MIDIMessage{Kind: editor.MIDIControlChange, Channel: int(channel), Key: int(key), Value: int(value)}
	default:
		return
	}
	editor.TrySend(c.broker.ToModel, editor.MsgToModel{HasMIDI: true, MIDI: m})
}
