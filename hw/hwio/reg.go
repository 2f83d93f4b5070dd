package hwio

import (
	"fmt"

	"paula/emu/log"
)

type RWFlags uint8

const (
	ReadWriteFlag RWFlags = 0
	ReadOnlyFlag  RWFlags = (1 << iota)
	WriteOnlyFlag
)

// Reg16 is a 16-bit custom chip register. Custom chip registers are
// word-sized, byte accesses are not supported.
type Reg16 struct {
	Name   string
	Value  uint16
	RoMask uint16

	Flags   RWFlags
	ReadCb  func(val uint16) uint16
	WriteCb func(old uint16, val uint16)
}

func (reg Reg16) String() string {
	s := fmt.Sprintf("%s{%04x", reg.Name, reg.Value)
	if reg.ReadCb != nil {
		s += ",r!"
	}
	if reg.WriteCb != nil {
		s += ",w!"
	}
	return s + "}"
}

func (reg *Reg16) write(val uint16) {
	old := reg.Value
	reg.Value = (reg.Value & reg.RoMask) | (val &^ reg.RoMask)
	if reg.WriteCb != nil {
		reg.WriteCb(old, reg.Value)
	}
}

func (reg *Reg16) Write16(addr uint32, val uint16) {
	if reg.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid Write16 to readonly reg").
			String("name", reg.Name).
			Hex32("addr", addr).
			End()
		return
	}
	reg.write(val)
}

func (reg *Reg16) Read16(addr uint32) uint16 {
	if reg.Flags&WriteOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid Read16 from writeonly reg").
			String("name", reg.Name).
			Hex32("addr", addr).
			End()
		return 0
	}
	if reg.ReadCb != nil {
		return reg.ReadCb(reg.Value)
	}
	return reg.Value
}
