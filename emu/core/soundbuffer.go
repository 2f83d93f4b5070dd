package core

import "encoding/binary"

// Largest amount of audio sent in a single DATA reply.
const chunkSize = 2048

// SoundBuffer collects Paula output as big-endian 16-bit stereo frames. It
// is flushed to the controller when it holds a full chunk, or all the
// requested bytes, whichever comes first.
type SoundBuffer struct {
	s     *Server
	buf   [chunkSize]byte
	n     int
	chunk int
}

func (sb *SoundBuffer) reset() {
	sb.n = 0
	sb.chunk = chunkSize
}

func (sb *SoundBuffer) setChunk(readSize int) {
	sb.chunk = min(readSize, chunkSize)
}

// Len returns the number of buffered bytes.
func (sb *SoundBuffer) Len() int { return sb.n }

// PutSample implements paula.Sink.
func (sb *SoundBuffer) PutSample(left, right int16) {
	if sb.s.reboot || sb.s.err != nil {
		return
	}
	binary.BigEndian.PutUint16(sb.buf[sb.n:], uint16(left))
	binary.BigEndian.PutUint16(sb.buf[sb.n+2:], uint16(right))
	sb.n += 4

	if sb.n >= sb.chunk {
		data := sb.buf[:sb.n]
		sb.n = 0
		sb.s.flush(data)
		sb.chunk = min(sb.s.readSize, chunkSize)
	}
}
