package hwio

import (
	"fmt"

	"paula/emu/log"
)

// Size of the custom chip register space, in bytes.
const CustomSize = 0x200

type BankIO16 interface {
	Read16(addr uint32) uint16
	Write16(addr uint32, val uint16)
}

// Table dispatches word accesses to the custom chip registers. Addresses are
// offsets relative to the custom chip base ($DFF000).
type Table struct {
	Name string

	table [CustomSize / 2]BankIO16
	names map[string]uint32
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

func (t *Table) Reset() {
	t.table = [CustomSize / 2]BankIO16{}
	t.names = make(map[string]uint32)
}

// Map a register bank (that is, a structure containing multiple Reg16 fields).
// Registers must have a struct tag "hwio" containing:
//
//	offset=0x12     Byte-offset within the register bank at which this
//	                register is mapped. Registers without offset are not
//	                part of any bank and are ignored by this call.
//
//	bank=NN         Ordinal bank number (default zero). This allows for a
//	                structure to expose multiple banks.
func (t *Table) MapBank(addr uint32, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Reg16:
			t.MapReg16(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) MapReg16(addr uint32, reg *Reg16) {
	if addr&1 != 0 || addr >= CustomSize {
		panic(fmt.Errorf("%s: invalid register address %03x for %s", t.Name, addr, reg.Name))
	}
	if prev := t.table[addr>>1]; prev != nil {
		panic(fmt.Errorf("%s: register %s overlaps %v at %03x", t.Name, reg.Name, prev, addr))
	}

	log.ModHwIo.DebugZ("mapping reg").
		String("name", reg.Name).
		Hex32("addr", addr).
		String("bus", t.Name).
		End()

	t.table[addr>>1] = reg
	if reg.Name != "" {
		t.names[reg.Name] = addr
	}
}

// Lookup returns the address of the register with the given name.
func (t *Table) Lookup(name string) (uint32, bool) {
	addr, ok := t.names[name]
	return addr, ok
}

func (t *Table) fetch(addr uint32) BankIO16 {
	return t.table[(addr&(CustomSize-1))>>1]
}

func (t *Table) Read16(addr uint32) uint16 {
	io := t.fetch(addr)
	if io == nil {
		log.ModHwIo.WarnZ("unmapped Read16").
			String("bus", t.Name).
			Hex32("addr", addr).
			End()
		return 0
	}
	return io.Read16(addr)
}

func (t *Table) Write16(addr uint32, val uint16) {
	io := t.fetch(addr)
	if io == nil {
		log.ModHwIo.WarnZ("unmapped Write16").
			String("bus", t.Name).
			Hex32("addr", addr).
			Hex16("val", val).
			End()
		return
	}
	io.Write16(addr, val)
}
