package paula

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSampleClock(t *testing.T) {
	p, sink := newTestPaula(t, DefaultConfig())

	const n = 1_000_000
	p.AdvanceTime(n)

	if got := p.Cycles() + p.pending; got != n {
		t.Errorf("cycles run + pending = %d, want %d", got, n)
	}
	want := int(math.Round(n / p.SampleEvtime()))
	if got := len(sink.samples); got < want-1 || got > want+1 {
		t.Errorf("produced %d samples, want %d±1", got, want)
	}
}

func TestAdvanceTimeChunks(t *testing.T) {
	words := []uint16{0x7f00, 0x80ff, 0x1234, 0xedcb}

	run := func(chunks []int64) ([][2]int16, *Paula) {
		p, sink := newTestPaula(t, DefaultConfig(), words...)
		startDMA(p, 0, 4, 124)
		startDMA(p, 1, 3, 311)
		for _, n := range chunks {
			p.AdvanceTime(n)
		}
		return sink.samples, p
	}

	var chunks []int64
	total := int64(0)
	for i := int64(1); total < 200_000; i = i*7%1013 + 1 {
		chunks = append(chunks, i)
		total += i
	}

	want, pwant := run([]int64{total})
	got, pgot := run(chunks)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
	if pgot.Cycles()+pgot.pending != total {
		t.Errorf("cycles lost: %d+%d != %d", pgot.Cycles(), pgot.pending, total)
	}
	if pwant.nextSampleEvtime != pgot.nextSampleEvtime {
		t.Errorf("sample countdown = %v, want %v", pgot.nextSampleEvtime, pwant.nextSampleEvtime)
	}
}

// An output sample happening at the same cycle as a channel transition sees
// the channel state before the transition.
func TestSampleBeforeTransition(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Filter = FilterNone
	p, sink := newTestPaula(t, cfg)

	c := p.Channel(0)
	c.state = StateHighByte
	c.per = 200
	c.vol = 64
	c.dat = 0x1040
	c.current = 0x10
	c.evtime = 10
	p.nextSampleEvtime = 10

	p.AdvanceTime(10)

	if len(sink.samples) != 1 {
		t.Fatalf("got %d samples, want 1", len(sink.samples))
	}
	if got, want := sink.samples[0][0], int16(0x10*64*2); got != want {
		t.Errorf("left = %d, want %d", got, want)
	}
	if c.Current() != 0x40 {
		t.Errorf("current after transition = %d, want %d", c.Current(), 0x40)
	}
}

type fakeClock int64

func (c *fakeClock) Cycles() int64 { return int64(*c) }

func TestUpdateFollowsClock(t *testing.T) {
	var clock fakeClock
	p, err := New(newChipMem(), nil, &clock, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	clock = 1000
	p.WritePER(0, 300) // catches up first
	if got := p.Cycles() + p.pending; got != 1000 {
		t.Errorf("cycles = %d, want 1000", got)
	}

	clock = 1500
	p.Update()
	if got := p.Cycles() + p.pending; got != 1500 {
		t.Errorf("cycles = %d, want 1500", got)
	}
}

func TestMono(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Filter = FilterNone
	cfg.Stereo = false
	p, sink := newTestPaula(t, cfg, 0x4040)
	startDMA(p, 0, 1, 200)
	p.AdvanceTime(5000)

	// channel 0 alone on the left side, averaged with a silent right side
	left := 0x40 * volume(64) << 1
	want := int16((left + 0) / 2)

	last := sink.samples[len(sink.samples)-1]
	if last[0] != want || last[1] != want {
		t.Errorf("mono sample = %v, want [%d %d]", last, want, want)
	}
}

func TestSoundOff(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProduceSound = 0
	p, sink := newTestPaula(t, cfg, 0x4040)
	startDMA(p, 0, 1, 200)
	p.AdvanceTime(5000)

	if got := p.Channel(0).Period(); got != 65535 {
		t.Errorf("period = %d, want 65535", got)
	}
	for _, s := range sink.samples {
		if s != [2]int16{} {
			t.Fatalf("sample %v, want silence", s)
		}
	}
}
