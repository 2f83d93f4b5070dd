package log

import (
	"fmt"
	"io"
	"sync"
	"time"

	"gopkg.in/Sirupsen/logrus.v0"
)

type Level = logrus.Level

const (
	PanicLevel = logrus.PanicLevel
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
)

// SetOutput redirects all log output.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

func init() {
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
}

// A Context adds fields to every Z entry logged while it is registered. The
// emulator uses it to tag entries with the current cycle.
type Context interface {
	AddLogContext(e *EntryZ)
}

var contexts []Context

func AddContext(c Context) {
	contexts = append(contexts, c)
}

func RemoveContext(c Context) {
	for i := range contexts {
		if contexts[i] == c {
			contexts = append(contexts[:i], contexts[i+1:]...)
			return
		}
	}
}

const maxZFields = 16

// EntryZ is a structured log entry. A nil *EntryZ is valid and discards
// everything, so disabled log statements cost a nil check per field.
type EntryZ struct {
	mod   Module
	lvl   Level
	msg   string
	zfbuf [maxZFields]ZField
	zfidx int
}

var entryPool = sync.Pool{New: func() any { return new(EntryZ) }}

func newEntryZ() *EntryZ {
	e := entryPool.Get().(*EntryZ)
	e.zfidx = 0
	return e
}

func (z *EntryZ) add() *ZField {
	if z.zfidx == maxZFields {
		return nil
	}
	f := &z.zfbuf[z.zfidx]
	*f = ZField{}
	z.zfidx++
	return f
}

func (z *EntryZ) field(typ FieldType, key string) *ZField {
	f := z.add()
	if f != nil {
		f.Type = typ
		f.Key = key
	}
	return f
}

func (z *EntryZ) Bool(key string, b bool) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeBool, key); f != nil {
			f.Boolean = b
		}
	}
	return z
}

func (z *EntryZ) String(key, s string) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeString, key); f != nil {
			f.String = s
		}
	}
	return z
}

func (z *EntryZ) Int(key string, v int) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeInt, key); f != nil {
			f.Integer = uint64(v)
		}
	}
	return z
}

func (z *EntryZ) Int64(key string, v int64) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeInt, key); f != nil {
			f.Integer = uint64(v)
		}
	}
	return z
}

func (z *EntryZ) Uint(key string, v uint64) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeUint, key); f != nil {
			f.Integer = v
		}
	}
	return z
}

func (z *EntryZ) Uint8(key string, v uint8) *EntryZ   { return z.Uint(key, uint64(v)) }
func (z *EntryZ) Uint16(key string, v uint16) *EntryZ { return z.Uint(key, uint64(v)) }
func (z *EntryZ) Uint32(key string, v uint32) *EntryZ { return z.Uint(key, uint64(v)) }

func (z *EntryZ) Float(key string, v float64) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeFloat, key); f != nil {
			f.Float = v
		}
	}
	return z
}

func (z *EntryZ) hex(typ FieldType, key string, v uint64) *EntryZ {
	if z != nil {
		if f := z.field(typ, key); f != nil {
			f.Integer = v
		}
	}
	return z
}

func (z *EntryZ) Hex8(key string, v uint8) *EntryZ   { return z.hex(FieldTypeHex8, key, uint64(v)) }
func (z *EntryZ) Hex16(key string, v uint16) *EntryZ { return z.hex(FieldTypeHex16, key, uint64(v)) }
func (z *EntryZ) Hex32(key string, v uint32) *EntryZ { return z.hex(FieldTypeHex32, key, uint64(v)) }

func (z *EntryZ) Error(key string, err error) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeError, key); f != nil {
			f.Error = err
		}
	}
	return z
}

func (z *EntryZ) Duration(key string, d time.Duration) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeDuration, key); f != nil {
			f.Duration = d
		}
	}
	return z
}

func (z *EntryZ) Stringer(key string, s fmt.Stringer) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeStringer, key); f != nil {
			f.Interface = s
		}
	}
	return z
}

func (z *EntryZ) Blob(key string, b []byte) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeBlob, key); f != nil {
			f.Blob = b
		}
	}
	return z
}

// End emits the entry. The entry must not be used afterwards.
func (z *EntryZ) End() {
	if z == nil {
		return
	}
	for _, c := range contexts {
		c.AddLogContext(z)
	}

	fields := make(logrus.Fields, z.zfidx+1)
	fields["_mod"] = z.mod.String()
	for i := range z.zfbuf[:z.zfidx] {
		fields[z.zfbuf[i].Key] = z.zfbuf[i].Value()
	}
	entry := logrus.StandardLogger().WithFields(fields)
	lvl, msg := z.lvl, z.msg
	entryPool.Put(z)

	switch lvl {
	case DebugLevel:
		entry.Debug(msg)
	case InfoLevel:
		entry.Info(msg)
	case WarnLevel:
		entry.Warn(msg)
	case ErrorLevel:
		entry.Error(msg)
	case FatalLevel:
		entry.Fatal(msg)
	default:
		entry.Panic(msg)
	}
}
