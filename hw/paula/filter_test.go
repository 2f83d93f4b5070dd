package paula

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var allModels = []FilterModel{FilterNone, FilterA500, FilterA1200, FilterA500E, FilterA1200E}

func TestFilterSaturation(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for _, model := range allModels {
		for _, led := range []bool{false, true} {
			var fs FilterState
			for i := range 20000 {
				var in int
				switch {
				case i < 5000:
					in = 65535 // way above the 16-bit range
				case i < 10000:
					in = -65536
				default:
					in = rng.IntN(1<<18) - 1<<17
				}
				out := fs.Process(in, model, led)
				if out < -32768 || out > 32767 {
					t.Fatalf("%v led=%t: Process(%d) = %d, out of range", model, led, in, out)
				}
			}
		}
	}
}

func TestFilterDCGain(t *testing.T) {
	for _, model := range allModels {
		for _, led := range []bool{false, true} {
			var fs FilterState
			var out int
			for range 1000 {
				out = fs.Process(1000, model, led)
			}
			// the highboost stage of the simple models has a gain of 0.98
			if out < 975 || out > 1000 {
				t.Errorf("%v led=%t: steady state = %d, want ~1000", model, led, out)
			}
		}
	}
}

func TestFilterA500(t *testing.T) {
	var fs FilterState
	for range 1000 {
		fs.Process(1000, FilterA500, false)
	}
	if d := fs.rc1 - 1000; d < -0.01 || d > 0.01 {
		t.Errorf("rc1 = %v, want 1000", fs.rc1)
	}
}

func TestFilterEnhancedStep(t *testing.T) {
	tests := []struct {
		model       FilterModel
		normal, led []int
	}{
		{
			model:  FilterA500E,
			normal: []int{4800, 7296, 8593, 9268, 9619, 9802},
			led:    []int{8, 68, 280, 769, 1618, 2826},
		},
		{
			model:  FilterA1200E,
			normal: []int{10000, 10000, 10000, 10000, 10000, 10000},
			led:    []int{17, 134, 510, 1298, 2538, 4134},
		},
	}
	for _, tt := range tests {
		t.Run(tt.model.String(), func(t *testing.T) {
			for _, led := range []bool{false, true} {
				want := tt.normal
				if led {
					want = tt.led
				}
				var fs FilterState
				got := make([]int, len(want))
				for i := range got {
					got[i] = fs.Process(10000, tt.model, led)
				}
				if diff := cmp.Diff(want, got); diff != "" {
					t.Errorf("led=%t: step response mismatch (-want +got):\n%s", led, diff)
				}
			}
		})
	}
}

func TestFilterLowpass(t *testing.T) {
	// Nyquist frequency must be attenuated by the LED filter.
	for _, model := range []FilterModel{FilterA500, FilterA1200, FilterA500E, FilterA1200E} {
		var fs FilterState
		peak := 0
		for i := range 2000 {
			in := 10000
			if i%2 == 1 {
				in = -10000
			}
			out := fs.Process(in, model, true)
			if i > 1000 {
				peak = max(peak, out, -out)
			}
		}
		if peak > 5000 {
			t.Errorf("%v: nyquist amplitude %d, want attenuated", model, peak)
		}
	}
}

func TestParseFilterModel(t *testing.T) {
	for _, model := range allModels {
		got, err := ParseFilterModel(model.String())
		if err != nil || got != model {
			t.Errorf("ParseFilterModel(%s) = %v, %v", model, got, err)
		}
	}
	if _, err := ParseFilterModel("a600"); err == nil {
		t.Errorf("ParseFilterModel(a600) should fail")
	}
	if _, err := FilterModelFromID(5); err == nil {
		t.Errorf("FilterModelFromID(5) should fail")
	}
}
