package paula

import (
	"strconv"

	"paula/emu/log"
	"paula/hw/hwdefs"
	"paula/hw/hwio"
)

// Memory is the chip RAM audio DMA reads from.
type Memory interface {
	Read16(addr uint32) uint16
}

// Sink receives the output, one stereo sample pair at a time.
type Sink interface {
	PutSample(left, right int16)
}

// Clock gives the current cycle count of the emulated machine. It is used to
// catch up with the CPU before every register write.
type Clock interface {
	Cycles() int64
}

// Output sample rate limits, in Hz.
const (
	MinFrequency = 1000
	MaxFrequency = 192000
)

// Config holds the audio settings consumed by Paula.
type Config struct {
	Filter       FilterModel
	LED          bool
	Interpolator string
	Frequency    int
	Stereo       bool
	ProduceSound int // 0: off, 1: timing only, 2: full, 3: full without period clamp
	NTSC         bool
}

func DefaultConfig() Config {
	return Config{
		Filter:       FilterA500E,
		Interpolator: "default",
		Frequency:    44100,
		Stereo:       true,
		ProduceSound: 2,
	}
}

// Paula emulates the audio part of the Paula chip: 4 DMA channels, the
// output sample clock, interpolation and the analog output filter.
type Paula struct {
	DMACONR hwio.Reg16 `hwio:"offset=0x002,readonly,rcb"`
	ADKCONR hwio.Reg16 `hwio:"offset=0x010,readonly,rcb"`
	INTREQR hwio.Reg16 `hwio:"offset=0x01E,readonly,rcb"`
	DMACON  hwio.Reg16 `hwio:"offset=0x096,writeonly,wcb"`
	INTREQ  hwio.Reg16 `hwio:"offset=0x09C,writeonly,wcb"`
	ADKCON  hwio.Reg16 `hwio:"offset=0x09E,writeonly,wcb"`

	chans [hwdefs.NumAudioChannels]Channel

	mem   Memory
	sink  Sink
	clock Clock

	cfg    Config
	timing hwdefs.Timing

	produceSound int
	interp       Interpolator
	tracker      edgeTracker
	filters      [2]FilterState

	sampleEvtime     float64 // cycles between output samples
	nextSampleEvtime float64 // countdown to the next output sample

	cycles   int64 // cycles the state machine ran for
	pending  int64 // cycles elapsed but not run yet
	lastSync int64 // clock cycles at last Update

	perHack bool // period < 16 has been reported
}

// New creates a Paula reading sample data from mem and sending its output
// to sink. clock may be nil, in which case the caller drives time with
// AdvanceTime.
func New(mem Memory, sink Sink, clock Clock, cfg Config) (*Paula, error) {
	p := &Paula{
		mem:   mem,
		sink:  sink,
		clock: clock,
	}
	for i := range p.chans {
		p.chans[i].nr = i
		p.chans[i].p = p
		hwio.MustInitRegs(&p.chans[i])
	}
	hwio.MustInitRegs(p)

	if err := p.Configure(cfg); err != nil {
		return nil, err
	}
	p.Reset()
	return p, nil
}

// Validate returns a *ConfigError for the first invalid setting.
func (cfg Config) Validate() error {
	if _, err := FilterModelFromID(uint32(cfg.Filter)); err != nil {
		return err
	}
	if err := ValidInterpolator(cfg.Interpolator); err != nil {
		return err
	}
	if cfg.Frequency < MinFrequency || cfg.Frequency > MaxFrequency {
		return &ConfigError{What: "frequency", Value: strconv.Itoa(cfg.Frequency)}
	}
	if cfg.ProduceSound < 0 || cfg.ProduceSound > 3 {
		return &ConfigError{What: "produce_sound level", Value: strconv.Itoa(cfg.ProduceSound)}
	}
	return nil
}

// Configure validates and stores a new configuration. It takes effect at
// the next Reset, except the filter which applies immediately.
func (p *Paula) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	p.SetFilter(cfg.Filter, cfg.LED)
	p.cfg = cfg
	return nil
}

func (p *Paula) Config() Config { return p.cfg }

// SetFilter changes the output filter. The LED state can be changed at any
// time, the model is usually fixed for a song.
func (p *Paula) SetFilter(model FilterModel, led bool) {
	if model != p.cfg.Filter {
		p.filters[0].Reset()
		p.filters[1].Reset()
	}
	p.cfg.Filter = model
	p.cfg.LED = led
}

// MapRegs maps the audio registers onto the custom chip bus.
func (p *Paula) MapRegs(bus *hwio.Table) {
	bus.MapBank(0, p, 0)
	for i := range p.chans {
		bus.MapBank(hwdefs.AUD0+uint32(i)*hwdefs.AudBankSize, &p.chans[i], 0)
	}
}

// Reset puts the audio hardware in its power-on state and applies the
// pending configuration.
func (p *Paula) Reset() {
	p.timing = hwdefs.PAL
	if p.cfg.NTSC {
		p.timing = hwdefs.NTSC
	}
	p.produceSound = p.cfg.ProduceSound

	interp, err := newInterpolator(p.cfg.Interpolator, float64(p.timing.ClockRate()), p.cfg.Frequency)
	if err != nil {
		// Configure already validated the name.
		panic(err)
	}
	p.interp = interp
	p.tracker, _ = interp.(edgeTracker)

	for i := range p.chans {
		p.chans[i].reset()
	}
	p.DMACON.Value = 0
	p.INTREQ.Value = 0
	p.ADKCON.Value = 0
	p.filters[0].Reset()
	p.filters[1].Reset()

	p.sampleEvtime = float64(p.timing.ClockRate()) / float64(p.cfg.Frequency)
	p.nextSampleEvtime = p.sampleEvtime
	p.cycles = 0
	p.pending = 0
	p.lastSync = 0
	if p.clock != nil {
		p.lastSync = p.clock.Cycles()
	}
	p.perHack = false

	log.ModSound.InfoZ("reset").
		Stringer("timing", p.timing).
		Stringer("filter", p.cfg.Filter).
		String("interpolator", p.cfg.Interpolator).
		Int("freq", p.cfg.Frequency).
		Float("sample_evtime", p.sampleEvtime).
		End()
}

func (p *Paula) Channel(nr int) *Channel { return &p.chans[nr] }

// Timing returns the video timing the audio clock currently derives from.
func (p *Paula) Timing() hwdefs.Timing { return p.timing }

// SampleEvtime returns the number of cycles between 2 output samples.
func (p *Paula) SampleEvtime() float64 { return p.sampleEvtime }

// Cycles returns the number of cycles the audio state machine ran for since
// the last reset.
func (p *Paula) Cycles() int64 { return p.cycles }

// The 6 register writes of each channel.

func (p *Paula) WritePER(nr int, val uint16) { p.chans[nr].PER.Write16(0, val) }
func (p *Paula) WriteVOL(nr int, val uint16) { p.chans[nr].VOL.Write16(0, val) }
func (p *Paula) WriteLEN(nr int, val uint16) { p.chans[nr].LEN.Write16(0, val) }
func (p *Paula) WriteLCH(nr int, val uint16) { p.chans[nr].LCH.Write16(0, val) }
func (p *Paula) WriteLCL(nr int, val uint16) { p.chans[nr].LCL.Write16(0, val) }
func (p *Paula) WriteDAT(nr int, val uint16) { p.chans[nr].DAT.Write16(0, val) }

// clampPeriod applies the AUDxPER write rules.
func (p *Paula) clampPeriod(nr int, v uint16) int {
	if v == 0 {
		return 65535
	}
	if v < 16 {
		if !p.perHack {
			p.perHack = true
			log.ModSound.WarnZ("period too low, clamped to 16").
				Int("ch", nr).
				Uint16("per", v).
				End()
		}
		v = 16
	}
	per := int(v)
	if p.produceSound < 3 && per < p.timing.MaxHPos/2 {
		per = p.timing.MaxHPos / 2
	}
	return per
}

func (p *Paula) raiseIRQ(nr int) {
	p.INTREQ.Value |= uint16(hwdefs.AudIRQ(nr))
	log.ModSound.DebugZ("irq").Int("ch", nr).Int64("cycle", p.cycles).End()
}

func (p *Paula) irqPending(nr int) bool {
	return p.INTREQ.Value&uint16(hwdefs.AudIRQ(nr)) != 0
}

// cyclesToHsync returns the number of cycles until the next horizontal sync.
func (p *Paula) cyclesToHsync() int {
	return p.timing.MaxHPos - int(p.cycles%int64(p.timing.MaxHPos))
}

func (p *Paula) ReadDMACONR(_ uint16) uint16 { return p.DMACON.Value }
func (p *Paula) ReadADKCONR(_ uint16) uint16 { return p.ADKCON.Value }
func (p *Paula) ReadINTREQR(_ uint16) uint16 { return p.INTREQ.Value }

func (p *Paula) WriteDMACON(old, val uint16) {
	p.Update()
	p.DMACON.Value = old
	hwio.SetClr16(&p.DMACON.Value, val)

	for i := range p.chans {
		c := &p.chans[i]
		enabled := p.DMACON.Value&hwdefs.DMAEn != 0 && p.DMACON.Value&(hwdefs.DMAAud0<<i) != 0
		switch {
		case enabled && !c.dmaen:
			c.dmaen = true
			if c.state == StateIdle {
				c.state = StateFirstHsync
				c.pt = c.lc
				c.wlen = c.length
				c.evtime = p.cyclesToHsync()
			}
			log.ModSound.DebugZ("dma on").
				Int("ch", i).
				Hex32("lc", c.lc).
				Uint16("len", c.length).
				Int("per", c.per).
				End()
		case !enabled && c.dmaen:
			c.dmaen = false
			if c.state == StateFirstHsync || c.state == StateSecondHsync {
				c.state = StateIdle
				c.silence()
			}
			log.ModSound.DebugZ("dma off").Int("ch", i).End()
		}
	}
}

func (p *Paula) WriteINTREQ(old, val uint16) {
	p.Update()
	p.INTREQ.Value = old
	hwio.SetClr16(&p.INTREQ.Value, val)
}

func (p *Paula) WriteADKCON(old, val uint16) {
	p.Update()
	p.ADKCON.Value = old
	hwio.SetClr16(&p.ADKCON.Value, val)

	// A channel modulating another one is not output.
	t := p.ADKCON.Value | p.ADKCON.Value>>4
	for i := range p.chans {
		p.chans[i].adkMask = int((t>>i)&1) - 1
	}
}
