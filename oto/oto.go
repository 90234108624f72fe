// Package oto implements wavebank.AudioContext on top of the oto audio
// library.
package oto

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/vsariola/wavebank"
)

type (
	// OtoContext is an audio output device. oto allows only one context per
	// process, so NewContext should be called only once.
	OtoContext struct {
		context *oto.Context
	}

	// otoSource adapts a rendering function to the io.Reader that oto pulls
	// the audio from. Read is called from the oto goroutine.
	otoSource struct {
		render func(buf wavebank.AudioBuffer) error
		buffer wavebank.AudioBuffer
		mu     sync.Mutex
		err    error
	}
)

const otoBufferFrames = 1024

// NewContext opens the default audio device for stereo float32 output and
// waits until it is ready.
func NewContext(sampleRate int) (*OtoContext, error) {
	context, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{context: context}, nil
}

// Play starts pulling audio from f. f is called from the audio goroutine of
// oto. Closing the returned function stops the playback; after that, an
// error returned by f, if any, is reported.
func (c *OtoContext) Play(f func(buf wavebank.AudioBuffer) error) wavebank.CloseFunc {
	s := &otoSource{render: f, buffer: make(wavebank.AudioBuffer, otoBufferFrames)}
	player := c.context.NewPlayer(s)
	player.Play()
	return func() error {
		if err := player.Close(); err != nil {
			return fmt.Errorf("cannot close oto player: %w", err)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.err
	}
}

// Suspend pauses all audio output of the device.
func (c *OtoContext) Suspend() error {
	if err := c.context.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// Resume resumes audio output after Suspend.
func (c *OtoContext) Resume() error {
	if err := c.context.Resume(); err != nil {
		return fmt.Errorf("cannot resume oto context: %w", err)
	}
	return nil
}

func (s *otoSource) Read(p []byte) (int, error) {
	frames := min(len(p)/frameSize, len(s.buffer))
	if frames == 0 {
		return 0, nil
	}
	buf := s.buffer[:frames]
	if err := s.render(buf); err != nil {
		s.mu.Lock()
		if s.err == nil {
			s.err = err
		}
		s.mu.Unlock()
		buf.Fill(0)
	}
	putFloat32LE(p, buf)
	return frames * frameSize, nil
}
