package hwdefs

import "strings"

const NumAudioChannels = 4

// Video timings. The audio state machine counts in color clocks, the same
// unit as the horizontal beam position.
const (
	MaxHPos     = 227 // color clocks per scanline
	MaxVPosPAL  = 312
	MaxVPosNTSC = 262
	VBlankPAL   = 50
	VBlankNTSC  = 60
)

// Timing describes the video mode the audio clock derives from.
type Timing struct {
	MaxHPos int
	MaxVPos int
	VBlank  int // frames per second
}

var (
	PAL  = Timing{MaxHPos: MaxHPos, MaxVPos: MaxVPosPAL, VBlank: VBlankPAL}
	NTSC = Timing{MaxHPos: MaxHPos, MaxVPos: MaxVPosNTSC, VBlank: VBlankNTSC}
)

// ClockRate is the number of color clocks per emulated second.
func (t Timing) ClockRate() int {
	return t.MaxHPos * t.MaxVPos * t.VBlank
}

// FrameCycles is the number of color clocks in a video frame.
func (t Timing) FrameCycles() int {
	return t.MaxHPos * t.MaxVPos
}

func (t Timing) String() string {
	if t.MaxVPos == MaxVPosNTSC {
		return "NTSC"
	}
	return "PAL"
}

// Custom chip register offsets (relative to $DFF000).
const (
	DMACON = 0x096
	INTREQ = 0x09C
	ADKCON = 0x09E
	AUD0   = 0x0A0 // first audio channel bank, each bank is AudBankSize bytes
)

const AudBankSize = 0x10

// Set/clear convention of DMACON, INTREQ and ADKCON: bit 15 selects whether
// the other written bits are set or cleared.
const SetClr = 1 << 15

// DMACON bits.
const (
	DMAAud0 = 1 << iota
	DMAAud1
	DMAAud2
	DMAAud3
)

const DMAEn = 1 << 9 // master DMA enable

// IRQSource are the INTREQ bits raised by audio channels.
type IRQSource uint16

const (
	IRQAud0 IRQSource = 0x80 << iota
	IRQAud1
	IRQAud2
	IRQAud3
)

// AudIRQ returns the interrupt bit of audio channel n.
func AudIRQ(n int) IRQSource {
	return IRQAud0 << n
}

var irqSrcNames = [NumAudioChannels]string{"aud0", "aud1", "aud2", "aud3"}

func (irq IRQSource) String() string {
	var names []string
	for i := range NumAudioChannels {
		if irq&AudIRQ(i) != 0 {
			names = append(names, irqSrcNames[i])
		}
	}
	return strings.Join(names, "|")
}

// ADKCON bits. USEnVm: channel n modulates the volume of channel n+1.
// USEnPm: channel n modulates the period of channel n+1.
const (
	ADKUse0V1 = 1 << 0
	ADKUse0P1 = 1 << 4
)

// ADKVol and ADKPer return the volume/period attachment bits of channel n.
func ADKVol(n int) uint16 { return ADKUse0V1 << n }
func ADKPer(n int) uint16 { return ADKUse0P1 << n }
