//go:build cgo

package cmd

import (
	"github.com/vsariola/wavebank/editor"
	"github.com/vsariola/wavebank/editor/gomidi"
)

func NewMidiContext(broker *editor.Broker) editor.MIDIContext {
	return gomidi.NewContext(broker)
}
