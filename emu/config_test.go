package emu

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"paula/hw/paula"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[audio]
filter = "a1200"
led = true
interpolator = "cspline"
frequency = 48000

[effects]
use_panning = true
panning = 1.0

[playback]
timeout = 120
`)
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	want := DefaultConfig()
	want.Audio.Filter = "a1200"
	want.Audio.LED = true
	want.Audio.Interpolator = "cspline"
	want.Audio.Frequency = 48000
	want.Effects.UsePanning = true
	want.Effects.Panning = 1.0
	want.Playback.Timeout = 120

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	pcfg, err := got.Paula()
	if err != nil {
		t.Fatal(err)
	}
	if pcfg.Filter != paula.FilterA1200 || !pcfg.LED || pcfg.Frequency != 48000 {
		t.Errorf("Paula() = %+v", pcfg)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	got, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(DefaultConfig(), got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		cfgErr  bool
	}{
		{"filter", "[audio]\nfilter = \"a4000\"\n", true},
		{"interpolator", "[audio]\ninterpolator = \"fft\"\n", true},
		{"frequency", "[audio]\nfrequency = 10\n", false},
		{"panning", "[effects]\npanning = 3.0\n", false},
		{"syntax", "[audio\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("LoadConfig should fail")
			}
			var cerr *paula.ConfigError
			if errors.As(err, &cerr) != tt.cfgErr {
				t.Errorf("errors.As(ConfigError) = %t, want %t (err: %v)", !tt.cfgErr, tt.cfgErr, err)
			}
		})
	}
}

func TestSaveConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audio.Filter = "a1200e"
	cfg.Audio.Interpolator = "anti"
	cfg.Effects.Headphones = true
	cfg.Playback.SilenceTimeout = 5

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	cfg.Audio.Filter = "a4000"
	if err := SaveConfig(path, cfg); err == nil {
		t.Errorf("SaveConfig should refuse an invalid config")
	}
}
