// Package effects implements the postprocessing applied to the decoded audio
// stream before output: gain, panning and headphones crossfeed.
package effects

import (
	"fmt"

	"paula/emu/log"
)

const (
	hpDelayLength = 22
	hpDelayDirect = 0.3
	hpCrossmixVol = 0.80
)

type Config struct {
	Gain       float64 // multiplier, 1 leaves the signal untouched
	UsePanning bool
	Panning    float64 // 0: full stereo, 1: mono, 2: swapped channels
	Headphones bool
}

// Chain processes interleaved stereo frames, in place. Gain is applied
// first, then panning, then headphones.
type Chain struct {
	cfg    Config
	gain   int // 8.8 fixed point
	panAmt int // 0..256

	ap [2][hpDelayLength]float32
	bq [2][4]float32
}

func New(cfg Config) (*Chain, error) {
	if cfg.Gain < 0 {
		return nil, fmt.Errorf("invalid gain %v", cfg.Gain)
	}
	if cfg.Panning < 0 || cfg.Panning > 2 {
		return nil, fmt.Errorf("invalid panning amount %v, must be in [0, 2]", cfg.Panning)
	}
	c := &Chain{
		cfg:    cfg,
		gain:   int(cfg.Gain * 256),
		panAmt: int(cfg.Panning * 256 / 2),
	}
	log.ModEffects.InfoZ("effects").
		Float("gain", cfg.Gain).
		Bool("pan", cfg.UsePanning).
		Float("pan_amount", cfg.Panning).
		Bool("headphones", cfg.Headphones).
		End()
	return c, nil
}

// Reset clears the state of the filters. Call it before each song.
func (c *Chain) Reset() {
	c.ap = [2][hpDelayLength]float32{}
	c.bq = [2][4]float32{}
}

// Run processes interleaved stereo frames.
func (c *Chain) Run(frames []int16) {
	if c.gain != 256 {
		c.applyGain(frames)
	}
	if c.cfg.UsePanning {
		c.pan(frames)
	}
	if c.cfg.Headphones {
		c.headphones(frames)
	}
}

func (c *Chain) applyGain(sm []int16) {
	for i, s := range sm {
		sm[i] = clamp16((int(s) * c.gain) >> 8)
	}
}

// pan turns stereo into mono, to a degree.
func (c *Chain) pan(sm []int16) {
	for i := 0; i+1 < len(sm); i += 2 {
		l, r := int(sm[i]), int(sm[i+1])
		m := (r - l) * c.panAmt
		sm[i] = int16(((l << 8) + m) >> 8)
		sm[i+1] = int16(((r << 8) - m) >> 8)
	}
}

func (c *Chain) headphones(sm []int16) {
	for i := 0; i+1 < len(sm); i += 2 {
		l := float32(sm[i])
		r := float32(sm[i+1])

		l = allpassDelay(l, &c.ap[0])
		r = allpassDelay(r, &c.ap[1])

		l = headphonesLPF(l, &c.bq[0])
		r = headphonesLPF(r, &c.bq[1])

		sm[i] = clampf((float32(sm[i]) + r*hpCrossmixVol) / (1 + hpCrossmixVol))
		sm[i+1] = clampf((float32(sm[i+1]) + l*hpCrossmixVol) / (1 + hpCrossmixVol))
	}
}

func allpassDelay(in float32, state *[hpDelayLength]float32) float32 {
	tmp := in - hpDelayDirect*state[0]
	out := state[0] + hpDelayDirect*tmp
	copy(state[:], state[1:])
	state[hpDelayLength-1] = tmp
	return out
}

// headphonesLPF is a 2.5 kHz lowpass, 12 dB/oct.
func headphonesLPF(in float32, state *[4]float32) float32 {
	out := in*0.0247498 + state[0]*0.0494997 + state[1]*0.0247498
	out -= -1.4782345*state[2] + 0.5772338*state[3]

	state[1] = state[0]
	state[0] = in
	state[3] = state[2]
	state[2] = out
	return out * 0.99
}

func clamp16(v int) int16 {
	return int16(min(max(v, -32768), 32767))
}

func clampf(v float32) int16 {
	return clamp16(int(v))
}
