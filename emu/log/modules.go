package log

import (
	"sort"

	"gopkg.in/Sirupsen/logrus.v0"
)

type ModuleMask uint64
type Module uint

const (
	ModuleMaskAll ModuleMask = 0xFFFFFFFFFFFFFFFF
)

// A few standard modules. Packages needing their own module can register one
// with NewModule.
const (
	ModEmu Module = iota + 1
	ModHwIo
	ModSound
	ModIPC
	ModEffects

	endStandardMods
)

var modCount = endStandardMods

var modDebugMask ModuleMask = 0

var modNames = []string{
	"<error>", "emu", "hwio", "sound", "ipc", "effects",
}

func NewModule(name string) Module {
	mod := modCount
	modCount++
	modNames = append(modNames, name)
	return mod
}

func ModuleByName(name string) (Module, bool) {
	for idx, s := range modNames {
		if idx != 0 && s == name {
			return Module(idx), true
		}
	}
	return Module(0xFFFFFFFF), false
}

// ModuleNames returns the sorted names of all registered modules.
func ModuleNames() []string {
	names := make([]string, 0, len(modNames)-1)
	names = append(names, modNames[1:]...)
	sort.Strings(names)
	return names
}

func EnableDebugModules(mask ModuleMask) {
	modDebugMask |= mask
}

func DisableDebugModules(mask ModuleMask) {
	modDebugMask &^= mask
}

// Disable silences everything, warnings and errors included.
func Disable() {
	modDebugMask = 0
	logrus.SetLevel(logrus.PanicLevel)
}

func (mod Module) String() string {
	if int(mod) < len(modNames) {
		return modNames[mod]
	}
	return "<unknown>"
}

func (mod Module) Mask() ModuleMask {
	return 1 << ModuleMask(mod)
}

func (mod Module) Enabled(level Level) bool {
	return level <= WarnLevel || modDebugMask&mod.Mask() != 0
}

// printf-like family

func (mod Module) Debugf(format string, args ...any) {
	if mod.Enabled(DebugLevel) {
		mod.entry().Debugf(format, args...)
	}
}

func (mod Module) Infof(format string, args ...any) {
	if mod.Enabled(InfoLevel) {
		mod.entry().Infof(format, args...)
	}
}

func (mod Module) Warnf(format string, args ...any) {
	if mod.Enabled(WarnLevel) {
		mod.entry().Warnf(format, args...)
	}
}

func (mod Module) Errorf(format string, args ...any) {
	if mod.Enabled(ErrorLevel) {
		mod.entry().Errorf(format, args...)
	}
}

func (mod Module) Fatalf(format string, args ...any) {
	mod.entry().Fatalf(format, args...)
}

func (mod Module) entry() *logrus.Entry {
	return logrus.StandardLogger().WithField("_mod", mod.String())
}

// New-style fast functions

func (mod Module) logz(lvl Level, msg string) *EntryZ {
	if mod.Enabled(lvl) {
		e := newEntryZ()
		e.lvl = lvl
		e.msg = msg
		e.mod = mod
		return e
	}
	return nil
}

func (mod Module) DebugZ(msg string) *EntryZ { return mod.logz(DebugLevel, msg) }
func (mod Module) InfoZ(msg string) *EntryZ  { return mod.logz(InfoLevel, msg) }
func (mod Module) WarnZ(msg string) *EntryZ  { return mod.logz(WarnLevel, msg) }
func (mod Module) ErrorZ(msg string) *EntryZ { return mod.logz(ErrorLevel, msg) }
func (mod Module) FatalZ(msg string) *EntryZ { return mod.logz(FatalLevel, msg) }
