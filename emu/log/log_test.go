package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestModuleByName(t *testing.T) {
	mod, ok := ModuleByName("sound")
	if !ok || mod != ModSound {
		t.Fatalf("ModuleByName(sound) = %v, %t, want %v, true", mod, ok, ModSound)
	}
	if _, ok := ModuleByName("<error>"); ok {
		t.Errorf("ModuleByName(<error>) should not be found")
	}
	if _, ok := ModuleByName("foobar"); ok {
		t.Errorf("ModuleByName(foobar) should not be found")
	}
}

func TestEnabled(t *testing.T) {
	defer DisableDebugModules(ModuleMaskAll)

	if !ModIPC.Enabled(WarnLevel) {
		t.Errorf("warnings must always be enabled")
	}
	if ModIPC.Enabled(DebugLevel) {
		t.Errorf("debug level enabled without mask")
	}
	EnableDebugModules(ModIPC.Mask())
	if !ModIPC.Enabled(DebugLevel) {
		t.Errorf("debug level disabled with mask")
	}
	if ModSound.Enabled(InfoLevel) {
		t.Errorf("info level enabled for a module not in mask")
	}
}

func TestEntryZ(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	// Disabled entries are nil and must swallow everything.
	ModSound.DebugZ("hidden").Int("a", 1).Error("err", errors.New("x")).End()
	if buf.Len() != 0 {
		t.Fatalf("disabled entry produced output: %q", buf.String())
	}

	ModSound.WarnZ("period clamped").Uint16("per", 16).Hex16("addr", 0xa6).Bool("once", true).End()
	out := buf.String()
	for _, want := range []string{"period clamped", "per=16", "addr=00a6", "once=true", "_mod=sound"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestModuleNamesSorted(t *testing.T) {
	names := ModuleNames()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}
