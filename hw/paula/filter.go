package paula

import (
	"fmt"
	"strings"
)

// FilterModel selects the analog output circuitry to emulate. The numeric
// values are the ones used on the wire by the FILTER message.
type FilterModel int

const (
	FilterNone FilterModel = iota
	FilterA500
	FilterA1200
	FilterA500E
	FilterA1200E
)

var filterNames = [...]string{"none", "a500", "a1200", "a500e", "a1200e"}

func (m FilterModel) String() string {
	if m >= 0 && int(m) < len(filterNames) {
		return filterNames[m]
	}
	return fmt.Sprintf("FilterModel(%d)", int(m))
}

// ParseFilterModel returns the filter model with the given name.
func ParseFilterModel(name string) (FilterModel, error) {
	for i, s := range filterNames {
		if strings.EqualFold(s, name) {
			return FilterModel(i), nil
		}
	}
	return FilterNone, &ConfigError{What: "filter model", Value: name}
}

// FilterModelFromID validates a filter model number.
func FilterModelFromID(id uint32) (FilterModel, error) {
	if id >= uint32(len(filterNames)) {
		return FilterNone, &ConfigError{What: "filter model", Value: fmt.Sprint(id)}
	}
	return FilterModel(id), nil
}

// Pre-stage RC lowpass of the enhanced A500 model. The A1200 has none.
const rcA500E = 0.48

// LED filter of the enhanced models: 4th order Butterworth lowpass at
// 3275Hz for a 44100Hz output rate, bilinear transform with prewarping,
// as two cascaded biquad sections (Q = 0.541196 and 1.306563).
var ledSections = [2]biquadCoefs{
	{b0: 0.037758, b1: 0.075515, b2: 0.037758, a1: -1.261781, a2: 0.412812},
	{b0: 0.045600, b1: 0.091200, b2: 0.045600, a1: -1.523860, a2: 0.706261},
}

type biquadCoefs struct {
	b0, b1, b2 float64
	a1, a2     float64
}

type biquad struct {
	x [2]float64
	y [2]float64
}

func (bq *biquad) process(c *biquadCoefs, in float64) float64 {
	out := c.b0*in + c.b1*bq.x[0] + c.b2*bq.x[1] - c.a1*bq.y[0] - c.a2*bq.y[1]
	bq.x[1], bq.x[0] = bq.x[0], in
	bq.y[1], bq.y[0] = bq.y[0], out
	return out
}

// FilterState is the memory of the filter circuitry of one stereo side.
type FilterState struct {
	rc1, rc2, rc3 float32
	led           [2]biquad
}

func (fs *FilterState) Reset() {
	*fs = FilterState{}
}

// Process runs one sample through the circuitry of the given model. With
// led set, the output is taken after the LED filter stage.
func (fs *FilterState) Process(input int, model FilterModel, led bool) int {
	var normal, ledout float64

	switch model {
	case FilterA500:
		fs.rc1 = float32(float64(float32(0.36*float64(input))) + 0.64*float64(fs.rc1))
		normal = float64(fs.rc1)
		ledout = fs.highboost(normal)
	case FilterA1200:
		normal = float64(input)
		ledout = fs.highboost(normal)
	case FilterA500E:
		fs.rc1 = float32(rcA500E*float64(input) + (1-rcA500E)*float64(fs.rc1))
		normal = float64(fs.rc1)
		ledout = fs.led[1].process(&ledSections[1], fs.led[0].process(&ledSections[0], normal))
	case FilterA1200E:
		normal = float64(input)
		ledout = fs.led[1].process(&ledSections[1], fs.led[0].process(&ledSections[0], normal))
	case FilterNone:
		normal = float64(input)
		ledout = normal
	default:
		panic(fmt.Sprintf("invalid filter model %d", model))
	}

	o := normal
	if led {
		o = ledout
	}
	return clamp16(int(o))
}

// highboost is the lowpass followed by the highboost stage modelling the
// LED filter of the simple models.
func (fs *FilterState) highboost(in float64) float64 {
	fs.rc2 = float32(float64(float32(0.33*in)) + 0.67*float64(fs.rc2))
	fs.rc3 = float32(float64(float32(1.35*float64(fs.rc2))) - 0.35*float64(fs.rc3))
	return float64(float32(float64(fs.rc3) * 0.98))
}

func clamp16(v int) int {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	}
	return v
}
