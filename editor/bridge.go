package editor

import (
	"sync/atomic"

	"github.com/vsariola/wavebank"
)

type (
	// Bridge hands the latest state of the model to the audio thread. The
	// model publishes a complete, immutable Snapshot at once and the player
	// loads it; neither side ever blocks or waits for the other. A reader
	// sees either the old or the new snapshot, never a mix of the two.
	Bridge struct {
		current atomic.Pointer[Snapshot]
	}

	// Snapshot is everything the player needs to render: the frozen bank,
	// the morph state with its resolved blend and the preview parameters. A
	// published Snapshot is never modified.
	Snapshot struct {
		Seq   uint64 // increases by one on every publication
		Bank  *wavebank.Bank
		Morph MorphState
		Blend Blend
		Play  PlayParams
	}
)

// Publish makes s the current snapshot. s must not be modified afterwards.
func (b *Bridge) Publish(s *Snapshot) { b.current.Store(s) }

// Load returns the current snapshot, or nil if nothing has been published.
// It is wait-free and does not allocate, so it is safe to call from the
// audio thread.
func (b *Bridge) Load() *Snapshot { return b.current.Load() }

// Wave returns the post-processed samples of wave i of the snapshot.
func (s *Snapshot) Wave(i int) *[wavebank.WaveLen]float32 {
	return &s.Bank.Waves[i].PostSamples
}
