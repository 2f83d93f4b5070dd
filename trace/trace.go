// Package trace reads register-write traces: the custom chip writes of a
// music player, timestamped in color clocks, along with the chip memory they
// play from.
//
// A trace is a JSON document:
//
//	{"player": "...", "module": "...", "format": "...", "ntsc": false,
//	 "memory": [{"addr": 4096, "data": "<base64>"}],
//	 "subsongs": [{"end": 3541200, "writes": [
//	     {"cycle": 0, "reg": "AUD0PER", "value": 428},
//	     {"cycle": 10, "addr": 160, "value": 0}]}]}
package trace

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-faster/jx"
)

// Write is a single register write. The register is given by name, or by its
// custom chip offset when Reg is empty.
type Write struct {
	Cycle int64
	Reg   string
	Addr  uint32
	Value uint16
}

// Subsong is a sequence of writes, sorted by cycle. The subsong ends at cycle
// End, relative to its start.
type Subsong struct {
	End    int64
	Writes []Write
}

// Block is a chunk of chip memory.
type Block struct {
	Addr uint32
	Data []byte
}

type Trace struct {
	Player   string
	Module   string
	Format   string
	NTSC     bool
	Memory   []Block
	Subsongs []Subsong
}

// Open loads a trace from file.
func Open(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tr := new(Trace)
	if _, err := tr.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("trace %s: %w", path, err)
	}
	return tr, nil
}

// ReadFrom implements io.ReaderFrom interface
func (tr *Trace) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if err := tr.Decode(buf); err != nil {
		return 0, err
	}
	return int64(len(buf)), nil
}

// Decode parses and validates a JSON trace.
func (tr *Trace) Decode(buf []byte) error {
	*tr = Trace{}
	d := jx.DecodeBytes(buf)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "player":
			tr.Player, err = d.Str()
		case "module":
			tr.Module, err = d.Str()
		case "format":
			tr.Format, err = d.Str()
		case "ntsc":
			tr.NTSC, err = d.Bool()
		case "memory":
			err = d.Arr(func(d *jx.Decoder) error {
				blk, err := decodeBlock(d)
				tr.Memory = append(tr.Memory, blk)
				return err
			})
		case "subsongs":
			err = d.Arr(func(d *jx.Decoder) error {
				sub, err := decodeSubsong(d)
				tr.Subsongs = append(tr.Subsongs, sub)
				return err
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return tr.validate()
}

func decodeBlock(d *jx.Decoder) (Block, error) {
	var blk Block
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "addr":
			var v uint64
			v, err = decodeUint(d, key, math.MaxUint32)
			blk.Addr = uint32(v)
		case "data":
			blk.Data, err = d.Base64()
		default:
			err = d.Skip()
		}
		return err
	})
	return blk, err
}

func decodeSubsong(d *jx.Decoder) (Subsong, error) {
	var sub Subsong
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "end":
			end, err := d.Int64()
			sub.End = end
			return err
		case "writes":
			return d.Arr(func(d *jx.Decoder) error {
				w, err := decodeWrite(d)
				sub.Writes = append(sub.Writes, w)
				return err
			})
		}
		return d.Skip()
	})
	return sub, err
}

func decodeWrite(d *jx.Decoder) (Write, error) {
	var w Write
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "cycle":
			var v uint64
			v, err = decodeUint(d, key, math.MaxInt64)
			w.Cycle = int64(v)
		case "reg":
			w.Reg, err = d.Str()
		case "addr":
			var v uint64
			v, err = decodeUint(d, key, math.MaxUint32)
			w.Addr = uint32(v)
		case "value":
			var v uint64
			v, err = decodeUint(d, key, math.MaxUint16)
			w.Value = uint16(v)
		default:
			err = d.Skip()
		}
		return err
	})
	return w, err
}

// decodeUint decodes a number in [0, max]. Out of range values are errors,
// never truncated.
func decodeUint(d *jx.Decoder, key string, max uint64) (uint64, error) {
	v, err := d.Int64()
	if err != nil {
		return 0, err
	}
	if v < 0 || uint64(v) > max {
		return 0, fmt.Errorf("%s %d out of range [0, %d]", key, v, max)
	}
	return uint64(v), nil
}

func (tr *Trace) validate() error {
	if len(tr.Subsongs) == 0 {
		return fmt.Errorf("no subsongs")
	}
	for i, sub := range tr.Subsongs {
		if sub.End <= 0 {
			return fmt.Errorf("subsong %d: invalid end cycle %d", i, sub.End)
		}
		last := int64(0)
		for j, w := range sub.Writes {
			if w.Cycle < last {
				return fmt.Errorf("subsong %d: write %d at cycle %d goes back in time", i, j, w.Cycle)
			}
			if w.Cycle > sub.End {
				return fmt.Errorf("subsong %d: write %d at cycle %d after the end", i, j, w.Cycle)
			}
			last = w.Cycle
		}
	}
	return nil
}

// Encode serializes the trace to JSON.
func (tr *Trace) Encode() []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("player", func(e *jx.Encoder) { e.Str(tr.Player) })
		e.Field("module", func(e *jx.Encoder) { e.Str(tr.Module) })
		e.Field("format", func(e *jx.Encoder) { e.Str(tr.Format) })
		e.Field("ntsc", func(e *jx.Encoder) { e.Bool(tr.NTSC) })
		e.Field("memory", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, blk := range tr.Memory {
					e.Obj(func(e *jx.Encoder) {
						e.Field("addr", func(e *jx.Encoder) { e.UInt32(blk.Addr) })
						e.Field("data", func(e *jx.Encoder) { e.Base64(blk.Data) })
					})
				}
			})
		})
		e.Field("subsongs", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, sub := range tr.Subsongs {
					encodeSubsong(e, sub)
				}
			})
		})
	})
	return e.Bytes()
}

func encodeSubsong(e *jx.Encoder, sub Subsong) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("end", func(e *jx.Encoder) { e.Int64(sub.End) })
		e.Field("writes", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, w := range sub.Writes {
					e.Obj(func(e *jx.Encoder) {
						e.Field("cycle", func(e *jx.Encoder) { e.Int64(w.Cycle) })
						if w.Reg != "" {
							e.Field("reg", func(e *jx.Encoder) { e.Str(w.Reg) })
						} else {
							e.Field("addr", func(e *jx.Encoder) { e.UInt32(w.Addr) })
						}
						e.Field("value", func(e *jx.Encoder) { e.UInt16(w.Value) })
					})
				}
			})
		})
	})
}
