package paula

import (
	"github.com/arl/blip"

	"paula/hw/hwdefs"
)

// sinc is a band-limited interpolator: the step function output by each
// side is synthesized with blip, which low-pass filters it before
// resampling.
type sinc struct {
	bufs  [2]*blip.Buffer
	time  int // cycles since the last output sample
	level [2]int
	out   [2]int16
	tmp   [16]int16
}

func newSinc(clockRate float64, sampleRate int) *sinc {
	s := &sinc{}
	for i := range s.bufs {
		s.bufs[i] = blip.NewBuffer(len(s.tmp))
		s.bufs[i].SetRates(clockRate, float64(sampleRate))
	}
	return s
}

func (s *sinc) advance(cycles int) {
	s.time += cycles
}

// update feeds the level changes of both sides to the blip buffers.
func (s *sinc) update(chans *[hwdefs.NumAudioChannels]Channel) {
	left, right := mix(chans, level)
	for i, lvl := range [2]int{left, right} {
		if delta := lvl - s.level[i]; delta != 0 {
			s.bufs[i].AddDelta(uint64(s.time), int32(delta))
			s.level[i] = lvl
		}
	}
}

func (s *sinc) Mix(_ *[hwdefs.NumAudioChannels]Channel, _ float64) (int, int) {
	for i, buf := range s.bufs {
		buf.EndFrame(s.time)
		// Output sample events are rounded to whole cycles, so a frame
		// may hold 0 or 2 samples. Keep the last one, or repeat it.
		for buf.SamplesAvailable() > 0 {
			n := buf.ReadSamples(s.tmp[:], len(s.tmp), blip.Mono)
			s.out[i] = s.tmp[n-1]
		}
	}
	s.time = 0
	return int(s.out[0]), int(s.out[1])
}
