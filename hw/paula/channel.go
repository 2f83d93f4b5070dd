package paula

import (
	"fmt"

	"paula/emu/log"
	"paula/hw/hwdefs"
	"paula/hw/hwio"
)

//go:generate go tool stringer -type=State -trimprefix=State

// State is the DMA state of an audio channel.
type State uint8

const (
	StateIdle        State = 0
	StateFirstHsync  State = 1 // waiting for the first hsync after DMA was enabled
	StateHighByte    State = 2 // playing the high byte of the data word
	StateLowByte     State = 3 // playing the low byte of the data word
	StateSecondHsync State = 5 // waiting for the second hsync after DMA was enabled
)

// History holds the last 3 samples a channel played, most recent first.
type History [3]int8

// Push adds a sample, evicting the oldest one.
func (h *History) Push(s int8) {
	h[2] = h[1]
	h[1] = h[0]
	h[0] = s
}

// Channel is one of the 4 audio DMA channels. Its registers are mapped on
// the custom chip bus at hwdefs.AUD0 + nr*hwdefs.AudBankSize.
type Channel struct {
	LCH hwio.Reg16 `hwio:"offset=0x0,writeonly,wcb"`
	LCL hwio.Reg16 `hwio:"offset=0x2,writeonly,wcb"`
	LEN hwio.Reg16 `hwio:"offset=0x4,writeonly,wcb"`
	PER hwio.Reg16 `hwio:"offset=0x6,writeonly,wcb"`
	VOL hwio.Reg16 `hwio:"offset=0x8,writeonly,wcb"`
	DAT hwio.Reg16 `hwio:"offset=0xA,writeonly,wcb"`

	nr int
	p  *Paula

	state  State
	per    int
	vol    int
	length uint16
	wlen   uint16
	lc     uint32
	pt     uint32

	dat     uint16
	nextdat uint16

	evtime int

	current int8
	last    History
	adkMask int

	dmaen       bool
	intreq2     bool
	dataWritten bool
}

func (c *Channel) BankName() string {
	return fmt.Sprintf("AUD%d", c.nr)
}

func (c *Channel) reset() {
	*c = Channel{
		LCH: c.LCH, LCL: c.LCL, LEN: c.LEN, PER: c.PER, VOL: c.VOL, DAT: c.DAT,
		nr:      c.nr,
		p:       c.p,
		per:     65535,
		adkMask: -1,
	}
}

func (c *Channel) State() State     { return c.state }
func (c *Channel) Period() int      { return c.per }
func (c *Channel) Volume() int      { return c.vol }
func (c *Channel) Evtime() int      { return c.evtime }
func (c *Channel) Current() int8    { return c.current }
func (c *Channel) Last() History    { return c.last }
func (c *Channel) DMAEnabled() bool { return c.dmaen }

// push makes s the current sample, shifting the previous one into history.
func (c *Channel) push(s int8) {
	c.last.Push(c.current)
	c.current = s
}

// silence clears the sample history and the current sample.
func (c *Channel) silence() {
	c.last = History{}
	c.current = 0
}

func (c *Channel) checkSoundOff() {
	if c.p.produceSound == 0 {
		c.per = 65535
	}
}

// napnav reports whether the channel is not period-attached, or is
// volume-attached.
func (c *Channel) napnav() bool {
	audav := c.p.ADKCON.Value&hwdefs.ADKVol(c.nr) != 0
	audap := c.p.ADKCON.Value&hwdefs.ADKPer(c.nr) != 0
	return (!audav && !audap) || audav
}

// fetch performs a DMA fetch of the next data word, reloading the pointer
// and length when the last word of the sample has been read.
func (c *Channel) fetch() {
	c.dataWritten = false
	c.nextdat = c.p.mem.Read16(c.pt)
	c.pt += 2
	if c.wlen == 1 {
		c.pt = c.lc
		c.wlen = c.length
		c.intreq2 = true
	} else {
		c.wlen--
	}
}

// next returns the channel this channel modulates, if any.
func (c *Channel) next() *Channel {
	if c.nr < hwdefs.NumAudioChannels-1 {
		return &c.p.chans[c.nr+1]
	}
	return nil
}

// step runs the state transition that happens when evtime reaches 0.
func (c *Channel) step() {
	p := c.p

	switch c.state {
	case StateFirstHsync:
		c.evtime = p.timing.MaxHPos
		c.state = StateSecondHsync
		p.raiseIRQ(c.nr)
		c.fetch()

	case StateSecondHsync:
		c.checkSoundOff()
		c.evtime = c.per
		c.dat = c.nextdat
		c.push(int8(c.dat >> 8))
		c.state = StateHighByte
		if c.napnav() {
			c.dataWritten = true
		}

	case StateHighByte:
		c.checkSoundOff()
		c.push(int8(c.dat))
		c.evtime = c.per
		c.state = StateLowByte

		if p.ADKCON.Value&hwdefs.ADKPer(c.nr) != 0 {
			if c.intreq2 && c.dmaen {
				p.raiseIRQ(c.nr)
			}
			c.intreq2 = false
			c.dat = c.nextdat
			if c.dmaen {
				c.dataWritten = true
			}
			if next := c.next(); next != nil {
				next.per = p.clampPeriod(next.nr, c.dat)
			}
		}

	case StateLowByte:
		c.checkSoundOff()
		c.evtime = c.per

		if p.irqPending(c.nr) && !c.dmaen {
			c.state = StateIdle
			c.silence()
			log.ModSound.DebugZ("channel stopped").Int("ch", c.nr).End()
			return
		}

		napnav := c.napnav()
		c.state = StateHighByte
		if (c.intreq2 && c.dmaen && napnav) || (napnav && !c.dmaen) {
			p.raiseIRQ(c.nr)
		}
		c.intreq2 = false
		c.dat = c.nextdat
		c.push(int8(c.dat >> 8))
		if c.dmaen && napnav {
			c.dataWritten = true
		}

		if p.ADKCON.Value&hwdefs.ADKVol(c.nr) != 0 {
			if next := c.next(); next != nil {
				next.vol = volume(c.dat)
			}
		}

	default:
		log.ModSound.ErrorZ("bug in channel state machine").
			Int("ch", c.nr).
			Stringer("state", c.state).
			End()
		c.state = StateIdle
	}
}

func volume(v uint16) int {
	if v&64 != 0 {
		return 63
	}
	return int(v & 63)
}

// AUDxLCH
func (c *Channel) WriteLCH(_, val uint16) {
	c.p.Update()
	c.lc = c.lc&0xFFFF | uint32(val)<<16
}

// AUDxLCL
func (c *Channel) WriteLCL(_, val uint16) {
	c.p.Update()
	c.lc = c.lc&^0xFFFF | uint32(val&0xFFFE)
}

// AUDxLEN
func (c *Channel) WriteLEN(_, val uint16) {
	c.p.Update()
	c.length = val
}

// AUDxPER
func (c *Channel) WritePER(_, val uint16) {
	c.p.Update()
	c.per = c.p.clampPeriod(c.nr, val)
}

// AUDxVOL
func (c *Channel) WriteVOL(_, val uint16) {
	c.p.Update()
	c.vol = volume(val)
}

// AUDxDAT
func (c *Channel) WriteDAT(_, val uint16) {
	c.p.Update()

	c.dat = val
	if !c.dmaen {
		c.nextdat = val
	}
	if c.state == StateIdle && !c.p.irqPending(c.nr) {
		c.state = StateHighByte
		c.p.raiseIRQ(c.nr)
	}
	c.evtime = c.per
}
