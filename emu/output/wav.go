// Package output writes the decoded audio stream to WAV files.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"paula/emu/log"
)

const (
	numChans    = 2
	bitDepth    = 16
	pcmFormat   = 1
	flushFrames = 4096
)

// WAV is a 16-bit stereo WAV file writer. It accepts samples one frame at a
// time, as a paula.Sink, or as interleaved buffers.
type WAV struct {
	c      io.Closer
	enc    *wav.Encoder
	buf    *audio.IntBuffer
	frames int64
	err    error
	closed bool
}

// CreateWAV creates the WAV file at path.
func CreateWAV(path string, rate int) (*WAV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := NewWAV(f, rate)
	w.c = f
	log.ModEmu.InfoZ("writing audio").String("path", path).Int("rate", rate).End()
	return w, nil
}

// NewWAV returns a WAV writer encoding to ws. The header is completed on
// Close, ws is left open.
func NewWAV(ws io.WriteSeeker, rate int) *WAV {
	return &WAV{
		enc: wav.NewEncoder(ws, rate, bitDepth, numChans, pcmFormat),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: numChans, SampleRate: rate},
			Data:           make([]int, 0, flushFrames*numChans),
			SourceBitDepth: bitDepth,
		},
	}
}

// PutSample implements paula.Sink. Errors are reported by Close.
func (w *WAV) PutSample(left, right int16) {
	w.buf.Data = append(w.buf.Data, int(left), int(right))
	w.frames++
	if len(w.buf.Data) >= flushFrames*numChans {
		w.flush()
	}
}

// WriteFrames writes interleaved stereo frames.
func (w *WAV) WriteFrames(frames []int16) error {
	for i := 0; i+1 < len(frames); i += 2 {
		w.PutSample(frames[i], frames[i+1])
	}
	return w.err
}

// Frames returns the number of frames written so far.
func (w *WAV) Frames() int64 { return w.frames }

func (w *WAV) flush() {
	if w.err == nil && len(w.buf.Data) > 0 {
		if err := w.enc.Write(w.buf); err != nil {
			w.err = fmt.Errorf("wav: %w", err)
		}
	}
	w.buf.Data = w.buf.Data[:0]
}

// Close flushes pending samples and finalizes the WAV header. Later calls
// only return the first error.
func (w *WAV) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	w.flush()
	if err := w.enc.Close(); err != nil && w.err == nil {
		w.err = fmt.Errorf("wav: %w", err)
	}
	if w.c != nil {
		if err := w.c.Close(); err != nil && w.err == nil {
			w.err = err
		}
	}
	return w.err
}
