package audio

import (
	"encoding/binary"
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Dump writes captured PCM to a WAV file, for inspecting what the
// recognizer actually received.
type Dump struct {
	file *os.File
	enc  *wav.Encoder
}

func NewDump(path string, sampleRate int) (*Dump, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav dump: %w", err)
	}
	enc := wav.NewEncoder(file, sampleRate, 16, 1, 1)
	return &Dump{file: file, enc: enc}, nil
}

func (d *Dump) Write(pcm []byte) error {
	if len(pcm)%2 != 0 {
		return fmt.Errorf("pcm payload not aligned")
	}
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	buffer := &gaudio.IntBuffer{
		Format: &gaudio.Format{NumChannels: 1, SampleRate: d.enc.SampleRate},
		Data:   samples,
	}
	if err := d.enc.Write(buffer); err != nil {
		return fmt.Errorf("write wav dump: %w", err)
	}
	return nil
}

func (d *Dump) Close() error {
	if err := d.enc.Close(); err != nil {
		d.file.Close()
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return d.file.Close()
}
