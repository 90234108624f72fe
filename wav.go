package wavebank

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/wav"
)

// WavSampleRate is the sample rate written to the header of exported .wav
// files. It does not matter for single-cycle waves, but many samplers expect
// it.
const WavSampleRate = 44100

var ErrNotWav = errors.New("not a wav file")

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

type wavFormat struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// Wav encodes the bank as a mono .wav file: all the waves one after another,
// WaveLen samples each. If pcm16 is true, the samples are 16-bit integers,
// otherwise 32-bit floats. If raw is true, the raw samples are written
// instead of the post-processed ones.
func (b *Bank) Wav(pcm16, raw bool) ([]byte, error) {
	data := make([]float32, 0, len(b.Waves)*WaveLen)
	for _, w := range b.Waves {
		if raw {
			data = append(data, w.Samples[:]...)
		} else {
			data = append(data, w.PostSamples[:]...)
		}
	}
	buf := new(bytes.Buffer)
	wavHeader(len(data), pcm16, buf)
	if err := rawToBuffer(data, pcm16, buf); err != nil {
		return nil, fmt.Errorf("Wav failed: %v", err)
	}
	return buf.Bytes(), nil
}

// ParseWav decodes a bank from a .wav file of concatenated waves, WaveLen
// samples each, as written by Bank.Wav. Integer PCM of 16 bits or more and
// 32-bit float files are supported; of multichannel files, only the first
// channel is read. The bank is DefaultWidth waves wide, or narrower if the
// file has fewer waves; a partial last row is filled with silent waves.
func ParseWav(data []byte) (*Bank, error) {
	format, pcm, err := wavChunks(data)
	if err != nil {
		return nil, err
	}
	channels := int(max(format.NumChannels, 1))
	var samples []float32
	switch {
	case format.AudioFormat == wavFormatFloat && format.BitsPerSample == 32:
		samples = make([]float32, len(pcm)/(4*channels))
		for i := range samples {
			samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(pcm[i*4*channels:]))
		}
	case format.AudioFormat == wavFormatPCM && format.BitsPerSample >= 16:
		d := wav.NewDecoder(bytes.NewReader(data))
		buf, err := d.FullPCMBuffer()
		if err != nil {
			return nil, fmt.Errorf("could not decode wav data: %w", err)
		}
		scale := math.Exp2(float64(format.BitsPerSample - 1))
		samples = make([]float32, len(buf.Data)/channels)
		for i := range samples {
			samples[i] = float32(float64(buf.Data[i*channels]) / scale)
		}
	default:
		return nil, fmt.Errorf("unsupported wav format %d with %d bits per sample", format.AudioFormat, format.BitsPerSample)
	}
	return bankFromSamples(samples)
}

// wavChunks walks the chunks of a RIFF/WAVE file and returns its format and
// the bytes of its data chunk.
func wavChunks(data []byte) (*wavFormat, []byte, error) {
	r := bytes.NewReader(data)
	var riff struct {
		ID   [4]byte
		Size uint32
		Wave [4]byte
	}
	if err := binary.Read(r, binary.LittleEndian, &riff); err != nil || string(riff.ID[:]) != "RIFF" || string(riff.Wave[:]) != "WAVE" {
		return nil, nil, ErrNotWav
	}
	var format *wavFormat
	for {
		var chunk struct {
			ID   [4]byte
			Size uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			return nil, nil, fmt.Errorf("wav file has no data chunk: %w", err)
		}
		switch string(chunk.ID[:]) {
		case "fmt ":
			format = new(wavFormat)
			if err := binary.Read(r, binary.LittleEndian, format); err != nil {
				return nil, nil, fmt.Errorf("could not read wav format: %w", err)
			}
			if _, err := r.Seek(int64(chunk.Size)-16+int64(chunk.Size&1), io.SeekCurrent); err != nil {
				return nil, nil, err
			}
		case "data":
			if format == nil {
				return nil, nil, errors.New("wav data chunk before format chunk")
			}
			size := min(int(chunk.Size), r.Len())
			return format, data[len(data)-r.Len():][:size], nil
		default:
			if _, err := r.Seek(int64(chunk.Size)+int64(chunk.Size&1), io.SeekCurrent); err != nil {
				return nil, nil, err
			}
		}
	}
}

func bankFromSamples(samples []float32) (*Bank, error) {
	n := len(samples) / WaveLen
	if n == 0 {
		return nil, fmt.Errorf("wav file has %d samples, less than one wave: %w", len(samples), ErrShape)
	}
	width := min(n, DefaultWidth)
	b := &Bank{Width: width, Height: (n + width - 1) / width, Waves: make([]*Wave, n)}
	for i := range b.Waves {
		w := new(Wave)
		for j, v := range samples[i*WaveLen : (i+1)*WaveLen] {
			w.Samples[j] = clamp32(v, -1, 1)
		}
		w.Harmonics = harmonicsOf(&w.Samples)
		b.Waves[i] = w
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func rawToBuffer(data []float32, pcm16 bool, buf *bytes.Buffer) error {
	var err error
	if pcm16 {
		int16data := make([]int16, len(data))
		for i, v := range data {
			int16data[i] = int16(max(min(int(v*math.MaxInt16), math.MaxInt16), math.MinInt16))
		}
		err = binary.Write(buf, binary.LittleEndian, int16data)
	} else {
		err = binary.Write(buf, binary.LittleEndian, data)
	}
	if err != nil {
		return fmt.Errorf("could not binary write data to binary buffer: %v", err)
	}
	return nil
}

// wavHeader writes a mono .wav header for either int16 (pcm16 = true) or
// float32 (pcm16 = false) samples into buf. The length is in samples.
func wavHeader(length int, pcm16 bool, buf *bytes.Buffer) {
	// Refer to: http://www-mmsp.ece.mcgill.ca/Documents/AudioFormats/WAVE/WAVE.html
	const numChannels = 1
	var bytesPerSample, chunkSize, fmtChunkSize, waveFormat int
	var factChunk bool
	if pcm16 {
		bytesPerSample = 2
		chunkSize = 36 + bytesPerSample*length
		fmtChunkSize = 16
		waveFormat = wavFormatPCM
	} else {
		bytesPerSample = 4
		chunkSize = 50 + bytesPerSample*length
		fmtChunkSize = 18
		waveFormat = wavFormatFloat
		factChunk = true
	}
	buf.Write([]byte("RIFF"))
	binary.Write(buf, binary.LittleEndian, uint32(chunkSize))
	buf.Write([]byte("WAVE"))
	buf.Write([]byte("fmt "))
	binary.Write(buf, binary.LittleEndian, uint32(fmtChunkSize))
	binary.Write(buf, binary.LittleEndian, wavFormat{
		AudioFormat:   uint16(waveFormat),
		NumChannels:   numChannels,
		SampleRate:    WavSampleRate,
		ByteRate:      uint32(WavSampleRate * numChannels * bytesPerSample),
		BlockAlign:    uint16(numChannels * bytesPerSample),
		BitsPerSample: uint16(8 * bytesPerSample),
	})
	if fmtChunkSize > 16 {
		binary.Write(buf, binary.LittleEndian, uint16(0)) // size of extension
	}
	if factChunk {
		buf.Write([]byte("fact"))
		binary.Write(buf, binary.LittleEndian, uint32(4))      // fact chunk size
		binary.Write(buf, binary.LittleEndian, uint32(length)) // sample length
	}
	buf.Write([]byte("data"))
	binary.Write(buf, binary.LittleEndian, uint32(bytesPerSample*length))
}
