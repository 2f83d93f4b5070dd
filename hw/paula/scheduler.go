package paula

import (
	"math"
)

// Update runs the audio state machine up to the current clock cycle. It
// must be called before any change to the audio state.
func (p *Paula) Update() {
	if p.clock == nil {
		return
	}
	now := p.clock.Cycles()
	if now < p.lastSync {
		// clock was reset
		p.lastSync = now
		return
	}
	elapsed := now - p.lastSync
	p.lastSync = now
	p.AdvanceTime(elapsed)
}

// AdvanceTime runs the audio state machine for n more cycles. Time advances
// from event to event: channel state transitions and output samples. Cycles
// left after the last event are carried over to the next call.
func (p *Paula) AdvanceTime(n int64) {
	p.pending += n

	for {
		best := p.pending + 1
		for i := range p.chans {
			c := &p.chans[i]
			if c.state != StateIdle && int64(c.evtime) < best {
				best = int64(c.evtime)
			}
		}

		rounded := int64(math.Floor(p.nextSampleEvtime))
		if p.nextSampleEvtime-float64(rounded) >= 0.5 {
			rounded++
		}
		if rounded < best {
			best = rounded
		}

		// No event before the end of the budget.
		if best > p.pending {
			break
		}

		p.nextSampleEvtime -= float64(best)
		for i := range p.chans {
			if p.chans[i].state != StateIdle {
				p.chans[i].evtime -= int(best)
			}
		}
		p.pending -= best
		p.cycles += best
		if p.tracker != nil {
			p.tracker.advance(int(best))
		}

		// The output sample sees the channels as they were before the
		// transitions happening at the same cycle.
		if rounded == best {
			// nextSampleEvtime is in [-0.5, 0.5) here.
			p.nextSampleEvtime += p.sampleEvtime
			p.output()
		}

		for i := range p.chans {
			c := &p.chans[i]
			if c.evtime == 0 && c.state != StateIdle {
				c.step()
			}
		}
		p.serviceDMA()
		if p.tracker != nil {
			p.tracker.update(&p.chans)
		}
	}
}

// serviceDMA performs the data fetches requested by the state transitions.
func (p *Paula) serviceDMA() {
	for i := range p.chans {
		c := &p.chans[i]
		if c.dataWritten && c.dmaen {
			c.fetch()
		}
		c.dataWritten = false
	}
}

// output produces one stereo sample and sends it to the sink.
func (p *Paula) output() {
	left, right := p.interp.Mix(&p.chans, p.sampleEvtime)

	// channel samples are in [-8192, 8128], their sums in [-16384, 16256]
	left <<= 1
	right <<= 1

	if p.cfg.Filter != FilterNone {
		left = p.filters[0].Process(left, p.cfg.Filter, p.cfg.LED)
		right = p.filters[1].Process(right, p.cfg.Filter, p.cfg.LED)
	}

	if !p.cfg.Stereo {
		left = (left + right) / 2
		right = left
	}
	if p.produceSound < 2 {
		left, right = 0, 0
	}

	if p.sink != nil {
		p.sink.PutSample(int16(left), int16(right))
	}
}
