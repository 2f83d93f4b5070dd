package hwio

import (
	"encoding/binary"
	"fmt"
)

// Mem is the emulated chip RAM. Words are big-endian, as seen by the 68000
// and the DMA controller. The size must be a power of two, addresses wrap.
type Mem struct {
	Name string
	Data []byte

	mask uint32
}

func NewMem(name string, size int) *Mem {
	if size <= 0 || size&(size-1) != 0 {
		panic("memory buffer size is not pow2")
	}
	return &Mem{
		Name: name,
		Data: make([]byte, size),
		mask: uint32(size - 1),
	}
}

// Read16 reads the word at addr. Bit 0 of the address is ignored.
func (m *Mem) Read16(addr uint32) uint16 {
	off := addr & m.mask &^ 1
	return binary.BigEndian.Uint16(m.Data[off:])
}

func (m *Mem) Write16(addr uint32, val uint16) {
	off := addr & m.mask &^ 1
	binary.BigEndian.PutUint16(m.Data[off:], val)
}

// Load copies buf into memory at addr.
func (m *Mem) Load(addr uint32, buf []byte) error {
	if uint64(addr)+uint64(len(buf)) > uint64(len(m.Data)) {
		return fmt.Errorf("%s: %d bytes at %06x overflow %d bytes of memory", m.Name, len(buf), addr, len(m.Data))
	}
	copy(m.Data[addr:], buf)
	return nil
}

func (m *Mem) Clear() {
	clear(m.Data)
}
