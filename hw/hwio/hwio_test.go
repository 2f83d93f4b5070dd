package hwio_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"paula/hw/hwio"
)

type testBank struct {
	prefix string

	// bank 0
	Reg0 hwio.Reg16 `hwio:"offset=0x0,reset=0x7777"`
	Reg1 hwio.Reg16 `hwio:"offset=0x2,rwmask=0x00FF,rcb,wcb"`
	Reg2 hwio.Reg16 `hwio:"offset=0x4,readonly,reset=0x1234"`
	Reg3 hwio.Reg16 `hwio:"offset=0x6,writeonly,wcb=SetReg3"`

	// bank 1
	Ctrl hwio.Reg16 `hwio:"bank=1,offset=0x0"`

	writes []uint16
}

func (b *testBank) BankName() string { return b.prefix }

func (b *testBank) ReadREG1(val uint16) uint16 { return val + 1 }

func (b *testBank) WriteREG1(old, val uint16) { b.writes = append(b.writes, old, val) }

func (b *testBank) SetReg3(old, val uint16) { b.writes = append(b.writes, val) }

func newTestBus(t *testing.T) (*hwio.Table, *testBank) {
	t.Helper()

	bank := &testBank{prefix: "T"}
	hwio.MustInitRegs(bank)

	bus := hwio.NewTable("test")
	bus.MapBank(0x0A0, bank, 0)
	bus.MapBank(0x096, bank, 1)
	return bus, bank
}

func TestInitRegs(t *testing.T) {
	_, bank := newTestBus(t)

	if bank.Reg0.Value != 0x7777 {
		t.Errorf("Reg0 reset value = %04x, want 7777", bank.Reg0.Value)
	}
	if bank.Reg1.Name != "TReg1" {
		t.Errorf("Reg1 name = %q, want TReg1", bank.Reg1.Name)
	}
	if bank.Reg1.ReadCb == nil || bank.Reg1.WriteCb == nil {
		t.Errorf("Reg1 callbacks not bound: %v", bank.Reg1)
	}
	if bank.Reg3.WriteCb == nil {
		t.Errorf("Reg3 named write callback not bound")
	}
}

func TestInitRegsErrors(t *testing.T) {
	tests := []struct {
		name string
		bank any
	}{
		{"not a pointer", struct{}{}},
		{"missing callback", &struct {
			R hwio.Reg16 `hwio:"offset=0,wcb"`
		}{}},
		{"bad option", &struct {
			R hwio.Reg16 `hwio:"offset=0,foo"`
		}{}},
		{"bad offset", &struct {
			R hwio.Reg16 `hwio:"offset=zz"`
		}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := hwio.InitRegs(tt.bank); err == nil {
				t.Errorf("InitRegs should fail")
			}
		})
	}
}

func TestTable(t *testing.T) {
	bus, bank := newTestBus(t)

	bus.Write16(0x0A2, 0xABCD)
	if bank.Reg1.Value != 0x00CD {
		t.Errorf("rwmask not respected: %04x", bank.Reg1.Value)
	}
	if got := bus.Read16(0x0A2); got != 0x00CE {
		t.Errorf("Read16(0A2) = %04x, want 00ce", got)
	}

	bus.Write16(0x0A4, 0xFFFF)
	if bank.Reg2.Value != 0x1234 {
		t.Errorf("write to readonly register modified it: %04x", bank.Reg2.Value)
	}

	bus.Write16(0x0A6, 0x4242)
	if got := bus.Read16(0x0A6); got != 0 {
		t.Errorf("read from writeonly register = %04x, want 0", got)
	}

	bus.Write16(0x096, 0x8001)
	if bank.Ctrl.Value != 0x8001 {
		t.Errorf("Ctrl = %04x, want 8001", bank.Ctrl.Value)
	}

	// unmapped accesses are ignored
	bus.Write16(0x1F0, 0x1111)
	if got := bus.Read16(0x1F0); got != 0 {
		t.Errorf("unmapped read = %04x, want 0", got)
	}

	want := []uint16{0x0000, 0x00CD, 0x4242}
	if diff := cmp.Diff(want, bank.writes); diff != "" {
		t.Errorf("write callbacks mismatch (-want +got):\n%s", diff)
	}
}

func TestLookup(t *testing.T) {
	bus, _ := newTestBus(t)

	tests := []struct {
		name string
		addr uint32
		ok   bool
	}{
		{"TReg0", 0x0A0, true},
		{"TReg3", 0x0A6, true},
		{"TCtrl", 0x096, true},
		{"Reg0", 0, false},
	}
	for _, tt := range tests {
		addr, ok := bus.Lookup(tt.name)
		if ok != tt.ok || addr != tt.addr {
			t.Errorf("Lookup(%s) = %03x, %t, want %03x, %t", tt.name, addr, ok, tt.addr, tt.ok)
		}
	}
}

func TestMem(t *testing.T) {
	mem := hwio.NewMem("chip", 0x100)
	if err := mem.Load(0x10, []byte{0x7f, 0x80, 0x01, 0xff}); err != nil {
		t.Fatal(err)
	}
	if got := mem.Read16(0x10); got != 0x7f80 {
		t.Errorf("Read16(10) = %04x, want 7f80", got)
	}
	// bit 0 ignored
	if got := mem.Read16(0x13); got != 0x01ff {
		t.Errorf("Read16(13) = %04x, want 01ff", got)
	}
	// addresses wrap
	if got := mem.Read16(0x110); got != 0x7f80 {
		t.Errorf("Read16(110) = %04x, want 7f80", got)
	}
	if err := mem.Load(0xFE, []byte{1, 2, 3}); err == nil {
		t.Errorf("Load past the end should fail")
	}
}

func TestSetClr16(t *testing.T) {
	var v uint16
	hwio.SetClr16(&v, 0x8203)
	if v != 0x0203 {
		t.Errorf("set: %04x, want 0203", v)
	}
	hwio.SetClr16(&v, 0x0001)
	if v != 0x0202 {
		t.Errorf("clear: %04x, want 0202", v)
	}
}
