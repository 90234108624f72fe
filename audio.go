package wavebank

type (
	// AudioBuffer is a buffer of stereo audio samples of variable length, each
	// sample represented by [2]float32. [0] is left channel, [1] is right.
	AudioBuffer [][2]float32

	// AudioContext represents the low-level audio drivers. There should be at
	// most one AudioContext at a time. The interface is implemented at least by
	// oto.OtoContext, but in future we could also mock it.
	AudioContext interface {
		// Play starts calling the given function in the audio thread whenever
		// the driver needs more audio. The function fills the buffer given to
		// it. The returned CloseFunc stops the playback.
		Play(f func(buf AudioBuffer) error) CloseFunc
	}

	// CloseFunc stops an audio stream started with AudioContext.Play.
	CloseFunc func() error
)

// Close is a convenience method so that a CloseFunc satisfies io.Closer.
func (f CloseFunc) Close() error {
	if f == nil {
		return nil
	}
	return f()
}

// Fill sets every sample of both channels to value.
func (buffer AudioBuffer) Fill(value float32) {
	for i := range buffer {
		buffer[i] = [2]float32{value, value}
	}
}
