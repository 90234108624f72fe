package editor

import (
	"time"
)

type (
	// Broker is the centralized message broker of the editor. It carries the
	// infrequent messages flowing towards the model: peak levels from the
	// player and MIDI messages from the MIDI input. The frequent direction,
	// model to player, does not go through the broker but through the Bridge,
	// so the audio thread never blocks on a channel.
	Broker struct {
		ToModel chan MsgToModel
	}

	// MsgToModel is a message sent to the model. The level and MIDI messages
	// are not boxed to avoid allocations in the audio thread; infrequent data,
	// e.g. errors, are passed boxed in Data.
	MsgToModel struct {
		HasLevel bool
		Level    float32

		HasMIDI bool
		MIDI    MIDIMessage

		Data any
	}
)

func NewBroker() *Broker {
	return &Broker{
		ToModel: make(chan MsgToModel, 1024),
	}
}

// TrySend sends v to c unless c is full, and reports whether it did. It never
// blocks, so the audio thread can use it.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive waits at most t for a value from c. ok is false on timeout
// or when c is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
