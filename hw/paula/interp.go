package paula

import (
	"strings"

	"paula/hw/hwdefs"
)

// An Interpolator reconstructs one output sample from the state of the 4
// channels. interval is the number of cycles between output samples.
// Channels 0 and 3 are summed on the left side, 1 and 2 on the right side.
type Interpolator interface {
	Mix(chans *[hwdefs.NumAudioChannels]Channel, interval float64) (left, right int)
}

// An edgeTracker is an Interpolator that also needs to see every change of
// the channel outputs, not only their state at output sample time.
type edgeTracker interface {
	Interpolator
	advance(cycles int)
	update(chans *[hwdefs.NumAudioChannels]Channel)
}

// InterpolatorNames lists the accepted interpolator names.
var InterpolatorNames = []string{"default", "rh", "linear", "crux", "cspline", "anti", "sinc"}

// ValidInterpolator checks an interpolator name.
func ValidInterpolator(name string) error {
	if name == "" {
		return nil
	}
	for _, s := range InterpolatorNames {
		if strings.EqualFold(s, name) {
			return nil
		}
	}
	return &ConfigError{What: "interpolator", Value: name}
}

func newInterpolator(name string, clockRate float64, sampleRate int) (Interpolator, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return nearest{}, nil
	case "rh", "linear":
		return linear{}, nil
	case "crux":
		return crux{}, nil
	case "cspline":
		return &cspline{}, nil
	case "anti":
		return anti{}, nil
	case "sinc":
		return newSinc(clockRate, sampleRate), nil
	}
	return nil, &ConfigError{What: "interpolator", Value: name}
}

func mix(chans *[hwdefs.NumAudioChannels]Channel, sample func(c *Channel) int) (left, right int) {
	var datas [hwdefs.NumAudioChannels]int
	for i := range chans {
		datas[i] = sample(&chans[i]) & chans[i].adkMask
	}
	return datas[0] + datas[3], datas[1] + datas[2]
}

// nearest outputs the current sample, as the hardware does.
type nearest struct{}

func (nearest) Mix(chans *[hwdefs.NumAudioChannels]Channel, _ float64) (int, int) {
	return mix(chans, level)
}

func level(c *Channel) int {
	return int(c.current) * c.vol
}

// linear blends the previous and the current sample, by the position
// within the current period.
type linear struct{}

func (linear) Mix(chans *[hwdefs.NumAudioChannels]Channel, _ float64) (int, int) {
	return mix(chans, func(c *Channel) int {
		pos := ((c.evtime % c.per) << 8) / c.per
		d := (pos*int(c.last[0]) + (256-pos)*int(c.current)) >> 8
		return d * c.vol
	})
}

// crux blends the previous and the current sample during the first 3 output
// sample intervals of a period, then outputs the current sample.
type crux struct{}

func (crux) Mix(chans *[hwdefs.NumAudioChannels]Channel, interval float64) (int, int) {
	window := interval * 3
	return mix(chans, func(c *Channel) int {
		elapsed := c.per - c.evtime
		ratio := int(float64(elapsed<<12) / window)
		if float64(c.evtime) < interval || float64(elapsed) >= window {
			ratio = 4096
		}
		d := (ratio*int(c.current) + (4096-ratio)*int(c.last[0])) >> 12
		return d * c.vol
	})
}

// cspline is a 4-point cubic spline through the history and the current
// sample.
type cspline struct {
	// smoothed is a lowpass of each channel output. It is computed but
	// not part of the output.
	smoothed [hwdefs.NumAudioChannels]int
	old      [hwdefs.NumAudioChannels]int
}

// Interpolation matrix
//
//	part       x**3    x**2    x**1    x**0
//	Y[IP-1]    -0.5     1      -0.5    0
//	Y[IP]       1.5    -2.5     0      1
//	Y[IP+1]    -1.5     2       0.5    0
//	Y[IP+2]     0.5    -0.5     0      0
func csplineOne(last *History, current int8, x float32) int {
	x2 := x * x
	x3 := x * x * x
	l0, l1, l2 := float64(last[0]), float64(last[1]), float64(last[2])
	cur := float64(current)

	return int(l0 +
		float64(x)*(-0.5*cur+0.5*l1) +
		float64(x2)*(cur-2.5*l0+2.0*l1-0.5*l2) +
		float64(x3)*(-0.5*cur+1.5*l0-1.5*l1+0.5*l2))
}

func (cs *cspline) Mix(chans *[hwdefs.NumAudioChannels]Channel, _ float64) (int, int) {
	left, right := mix(chans, func(c *Channel) int {
		x := float32(float64(c.evtime%c.per) / float64(c.per))
		d := csplineOne(&c.last, c.current, x) * c.vol
		cs.smoothed[c.nr] = (cs.old[c.nr] + d) / 2
		cs.old[c.nr] = d
		return d
	})
	return left, right
}

// anti averages the output level over the last output sample interval,
// taking into account the time during which the previous sample was played.
type anti struct{}

func (anti) Mix(chans *[hwdefs.NumAudioChannels]Channel, interval float64) (int, int) {
	ival := float32(interval)
	return mix(chans, func(c *Channel) int {
		oldval := int(c.last[0]) * c.vol
		curval := int(c.current) * c.vol

		interpoint := int(float32(c.evtime) + ival)
		if interpoint <= c.per {
			return curval
		}
		// cycles during which the output was still the previous sample
		interpoint -= c.per
		frac := float32(interpoint) / ival
		return int(frac*float32(oldval) + (1-frac)*float32(curval))
	})
}
