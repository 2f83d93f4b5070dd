package hwio

func GetBit16(v uint16, n uint) bool {
	return v>>n&0x01 != 0
}

// SetClr16 applies a write to a set/clear register (DMACON, INTREQ, ADKCON):
// if bit 15 of val is set, the other bits of val are set in *v, otherwise
// they are cleared. Bit 15 of *v is never stored.
func SetClr16(v *uint16, val uint16) {
	if GetBit16(val, 15) {
		*v |= val &^ 0x8000
	} else {
		*v &^= val
	}
}
