package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// A bank implementing Namer gets its register names prefixed, which keeps
// names unique across several instances of the same bank type.
type Namer interface {
	BankName() string
}

type regTag struct {
	offset    uint32
	hasOffset bool
	bank      int
	reset     uint16
	rwmask    uint16
	hasMask   bool
	flags     RWFlags
	rcb, wcb  string
}

func parseUint(s string, bits int) (uint64, error) {
	return strconv.ParseUint(s, 0, bits)
}

func parseRegTag(field, tag string) (regTag, error) {
	var rt regTag
	for _, opt := range strings.Split(tag, ",") {
		key, val, hasVal := strings.Cut(strings.TrimSpace(opt), "=")
		var err error
		var n uint64
		switch key {
		case "offset":
			n, err = parseUint(val, 32)
			rt.offset, rt.hasOffset = uint32(n), true
		case "bank":
			n, err = parseUint(val, 8)
			rt.bank = int(n)
		case "reset":
			n, err = parseUint(val, 16)
			rt.reset = uint16(n)
		case "rwmask":
			n, err = parseUint(val, 16)
			rt.rwmask, rt.hasMask = uint16(n), true
		case "readonly":
			rt.flags |= ReadOnlyFlag
		case "writeonly":
			rt.flags |= WriteOnlyFlag
		case "rcb":
			rt.rcb = "Read" + strings.ToUpper(field)
			if hasVal {
				rt.rcb = val
			}
		case "wcb":
			rt.wcb = "Write" + strings.ToUpper(field)
			if hasVal {
				rt.wcb = val
			}
		case "":
		default:
			return rt, fmt.Errorf("field %s: unknown hwio option %q", field, key)
		}
		if err != nil {
			return rt, fmt.Errorf("field %s: invalid %s: %w", field, key, err)
		}
	}
	return rt, nil
}

type bankField struct {
	name   string
	tag    regTag
	regPtr any
}

func bankFields(bank any) ([]bankField, error) {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("hwio: bank must be a pointer to struct, got %T", bank)
	}
	sv := v.Elem()
	st := sv.Type()

	var fields []bankField
	for i := range st.NumField() {
		f := st.Field(i)
		tag, ok := f.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		if !f.IsExported() {
			return nil, fmt.Errorf("hwio: field %s.%s must be exported", st.Name(), f.Name)
		}
		rt, err := parseRegTag(f.Name, tag)
		if err != nil {
			return nil, fmt.Errorf("hwio: %s: %w", st.Name(), err)
		}
		fields = append(fields, bankField{
			name:   f.Name,
			tag:    rt,
			regPtr: sv.Field(i).Addr().Interface(),
		})
	}
	return fields, nil
}

type bankReg struct {
	offset uint32
	regPtr any
}

// bankGetRegs returns the registers of bank having an offset and belonging
// to bank number bankNum.
func bankGetRegs(bank any, bankNum int) ([]bankReg, error) {
	fields, err := bankFields(bank)
	if err != nil {
		return nil, err
	}
	var regs []bankReg
	for _, f := range fields {
		if !f.tag.hasOffset || f.tag.bank != bankNum {
			continue
		}
		regs = append(regs, bankReg{offset: f.tag.offset, regPtr: f.regPtr})
	}
	return regs, nil
}

// InitRegs initializes all registers of a bank (a struct containing Reg16
// fields tagged with "hwio"), setting their name, reset value, flags and
// binding their callbacks to methods of bank.
//
//	reset=0x12      Initial value.
//	rwmask=0xFF00   Writable bits, others are readonly (default all).
//	readonly        Writes are ignored (and logged).
//	writeonly       Reads return 0 (and are logged).
//	rcb[=Name]      Read callback, defaults to Read+FIELDNAME.
//	wcb[=Name]      Write callback, defaults to Write+FIELDNAME.
func InitRegs(bank any) error {
	fields, err := bankFields(bank)
	if err != nil {
		return err
	}

	prefix := ""
	if n, ok := bank.(Namer); ok {
		prefix = n.BankName()
	}

	v := reflect.ValueOf(bank)
	for _, f := range fields {
		switch reg := f.regPtr.(type) {
		case *Reg16:
			reg.Name = prefix + f.name
			reg.Value = f.tag.reset
			reg.Flags = f.tag.flags
			reg.RoMask = 0
			if f.tag.hasMask {
				reg.RoMask = ^f.tag.rwmask
			}
			if f.tag.rcb != "" {
				m := v.MethodByName(f.tag.rcb)
				if !m.IsValid() {
					return fmt.Errorf("hwio: %s: missing read callback %s", reg.Name, f.tag.rcb)
				}
				cb, ok := m.Interface().(func(uint16) uint16)
				if !ok {
					return fmt.Errorf("hwio: %s: invalid read callback signature %s", reg.Name, m.Type())
				}
				reg.ReadCb = cb
			}
			if f.tag.wcb != "" {
				m := v.MethodByName(f.tag.wcb)
				if !m.IsValid() {
					return fmt.Errorf("hwio: %s: missing write callback %s", reg.Name, f.tag.wcb)
				}
				cb, ok := m.Interface().(func(uint16, uint16))
				if !ok {
					return fmt.Errorf("hwio: %s: invalid write callback signature %s", reg.Name, m.Type())
				}
				reg.WriteCb = cb
			}
		default:
			return fmt.Errorf("hwio: field %s: unsupported register type %T", f.name, reg)
		}
	}
	return nil
}

func MustInitRegs(bank any) {
	if err := InitRegs(bank); err != nil {
		panic(err)
	}
}
