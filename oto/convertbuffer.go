package oto

import (
	"encoding/binary"
	"math"

	"github.com/vsariola/wavebank"
)

// frameSize is the size of one stereo float32 frame in bytes.
const frameSize = 8

// putFloat32LE writes the frames of buffer as interleaved little-endian
// float32 into dst, which must hold at least len(buffer)*frameSize bytes.
// Values outside [-1,1] are clipped.
func putFloat32LE(dst []byte, buffer wavebank.AudioBuffer) {
	for i, frame := range buffer {
		for c, v := range frame {
			v = max(min(v, 1), -1)
			binary.LittleEndian.PutUint32(dst[i*frameSize+c*4:], math.Float32bits(v))
		}
	}
}
