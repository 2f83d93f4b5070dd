package emu

import (
	"fmt"

	"paula/emu/log"
	"paula/hw/hwio"
	"paula/hw/paula"
	"paula/trace"
)

const ChipMemSize = 512 << 10

// Amiga is the part of the machine a trace plays on: chip memory, the custom
// chip bus and Paula. Register writes are replayed from the trace, the CPU
// itself is not emulated.
type Amiga struct {
	Paula *paula.Paula
	Mem   *hwio.Mem
	Bus   *hwio.Table
	Trace *trace.Trace

	now   int64      // color clocks since power up
	addrs [][]uint32 // resolved register addresses, per subsong

	sub   int   // current subsong
	start int64 // cycle the current subsong started at
	next  int   // index of the next write to replay
	ended bool  // end of the current subsong has been reported

	// Loop restarts the subsong when it ends instead of reporting the end.
	Loop bool
}

// PowerUp builds the machine, loads the trace memory and starts the first
// subsong.
func PowerUp(tr *trace.Trace, sink paula.Sink, cfg paula.Config) (*Amiga, error) {
	a := &Amiga{
		Mem:   hwio.NewMem("chip", ChipMemSize),
		Bus:   hwio.NewTable("custom"),
		Trace: tr,
	}

	cfg.NTSC = cfg.NTSC || tr.NTSC
	p, err := paula.New(a.Mem, sink, a, cfg)
	if err != nil {
		return nil, err
	}
	p.MapRegs(a.Bus)
	a.Paula = p

	for _, blk := range tr.Memory {
		if err := a.Mem.Load(blk.Addr, blk.Data); err != nil {
			return nil, err
		}
	}
	if err := a.resolve(); err != nil {
		return nil, err
	}

	log.ModEmu.InfoZ("power up").
		String("player", tr.Player).
		String("module", tr.Module).
		Int("subsongs", len(tr.Subsongs)).
		End()
	return a, nil
}

func (a *Amiga) resolve() error {
	a.addrs = make([][]uint32, len(a.Trace.Subsongs))
	for i, sub := range a.Trace.Subsongs {
		addrs := make([]uint32, len(sub.Writes))
		for j, w := range sub.Writes {
			addr := w.Addr
			if w.Reg != "" {
				var ok bool
				if addr, ok = a.Bus.Lookup(w.Reg); !ok {
					return fmt.Errorf("subsong %d: write %d: unknown register %q", i, j, w.Reg)
				}
			}
			if addr&1 != 0 || addr >= hwio.CustomSize {
				return fmt.Errorf("subsong %d: write %d: invalid register address %03x", i, j, addr)
			}
			addrs[j] = addr
		}
		a.addrs[i] = addrs
	}
	return nil
}

// Cycles implements paula.Clock.
func (a *Amiga) Cycles() int64 { return a.now }

func (a *Amiga) NumSubsongs() int { return len(a.Trace.Subsongs) }

func (a *Amiga) Subsong() int { return a.sub }

// SetSubsong restarts playback at the beginning of subsong n.
func (a *Amiga) SetSubsong(n int) error {
	if n < 0 || n >= len(a.Trace.Subsongs) {
		return fmt.Errorf("invalid subsong %d: trace has %d", n, len(a.Trace.Subsongs))
	}
	a.sub = n
	a.restart()
	log.ModEmu.InfoZ("subsong").Int("cur", n).Int("max", len(a.Trace.Subsongs)-1).End()
	return nil
}

// Reset resets Paula, applying its pending configuration, and restarts the
// current subsong.
func (a *Amiga) Reset() {
	a.restart()
}

func (a *Amiga) restart() {
	a.Paula.Reset()
	a.start = a.now
	a.next = 0
	a.ended = false
}

// RunOneFrame replays one video frame worth of register writes, and runs
// Paula up to the end of the frame. It reports whether the current subsong
// reached its end during the frame, once per subsong.
func (a *Amiga) RunOneFrame() bool {
	sub := &a.Trace.Subsongs[a.sub]
	target := a.now + int64(a.Paula.Timing().FrameCycles())
	end := a.start + sub.End
	atEnd := !a.ended && target >= end
	if atEnd {
		target = end
	}

	addrs := a.addrs[a.sub]
	for a.next < len(sub.Writes) {
		at := a.start + sub.Writes[a.next].Cycle
		if at > target {
			break
		}
		a.now = at
		a.Bus.Write16(addrs[a.next], sub.Writes[a.next].Value)
		a.next++
	}
	a.now = target
	a.Paula.Update()

	if !atEnd {
		return false
	}
	if a.Loop {
		log.ModEmu.DebugZ("subsong loop").Int("sub", a.sub).Int64("cycle", a.now).End()
		a.start = a.now
		a.next = 0
		return false
	}
	a.ended = true
	return true
}
