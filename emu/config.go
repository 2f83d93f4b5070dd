package emu

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"

	"paula/emu/log"
	"paula/hw/paula"
)

type Config struct {
	Audio    AudioConfig    `toml:"audio"`
	Effects  EffectsConfig  `toml:"effects"`
	Playback PlaybackConfig `toml:"playback"`
}

type AudioConfig struct {
	Filter       string `toml:"filter"`
	LED          bool   `toml:"led"`
	Interpolator string `toml:"interpolator"`
	Frequency    int    `toml:"frequency"`
	Stereo       bool   `toml:"stereo"`
	ProduceSound int    `toml:"produce_sound"`
	NTSC         bool   `toml:"ntsc"`
}

type EffectsConfig struct {
	Gain       float64 `toml:"gain"`
	Panning    float64 `toml:"panning"`
	UsePanning bool    `toml:"use_panning"`
	Headphones bool    `toml:"headphones"`
}

type PlaybackConfig struct {
	Timeout        int  `toml:"timeout"` // seconds, -1 for no timeout
	SubsongTimeout int  `toml:"subsong_timeout"`
	SilenceTimeout int  `toml:"silence_timeout"`
	OneSubsong     bool `toml:"one_subsong"`
	IgnoreCheck    bool `toml:"ignore_check"`
}

func DefaultConfig() Config {
	return Config{
		Audio: AudioConfig{
			Filter:       paula.FilterA500E.String(),
			Interpolator: "default",
			Frequency:    44100,
			Stereo:       true,
			ProduceSound: 2,
		},
		Effects: EffectsConfig{
			Gain:    1.0,
			Panning: 0.7,
		},
		Playback: PlaybackConfig{
			Timeout:        -1,
			SubsongTimeout: 512,
			SilenceTimeout: 20,
		},
	}
}

// Validate checks all values, returning a *paula.ConfigError for unknown
// names.
func (cfg Config) Validate() error {
	if _, err := cfg.Paula(); err != nil {
		return err
	}
	if cfg.Effects.Gain < 0 {
		return fmt.Errorf("invalid gain %v: must be positive", cfg.Effects.Gain)
	}
	if cfg.Effects.Panning < 0 || cfg.Effects.Panning > 2 {
		return fmt.Errorf("invalid panning %v: must be in [0, 2]", cfg.Effects.Panning)
	}
	return nil
}

// Paula resolves the audio section into the settings of the audio
// emulation.
func (cfg Config) Paula() (paula.Config, error) {
	model, err := paula.ParseFilterModel(cfg.Audio.Filter)
	if err != nil {
		return paula.Config{}, err
	}
	if err := paula.ValidInterpolator(cfg.Audio.Interpolator); err != nil {
		return paula.Config{}, err
	}
	pcfg := paula.Config{
		Filter:       model,
		LED:          cfg.Audio.LED,
		Interpolator: cfg.Audio.Interpolator,
		Frequency:    cfg.Audio.Frequency,
		Stereo:       cfg.Audio.Stereo,
		ProduceSound: cfg.Audio.ProduceSound,
		NTSC:         cfg.Audio.NTSC,
	}
	if pcfg.Frequency < paula.MinFrequency || pcfg.Frequency > paula.MaxFrequency {
		return paula.Config{}, fmt.Errorf("invalid frequency %d: must be in [%d, %d]",
			pcfg.Frequency, paula.MinFrequency, paula.MaxFrequency)
	}
	return pcfg, nil
}

var ConfigDir = sync.OnceValue(func() string {
	dir := configdir.LocalConfig("paula")
	if err := configdir.MakePath(dir); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

// LoadConfig loads the configuration at path. Missing values keep their
// default, a missing file gives the default configuration.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		log.ModEmu.InfoZ("no config file, using defaults").String("path", path).End()
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		log.ModEmu.WarnZ("unknown config key").String("path", path).String("key", key.String()).End()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration from the paula config directory,
// or provide a default one.
func LoadConfigOrDefault() Config {
	cfg, err := LoadConfig(DefaultConfigPath())
	if err != nil {
		log.ModEmu.WarnZ("invalid config, using defaults").Error("err", err).End()
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfigPath returns the path of the configuration file in the paula
// config directory.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), cfgFilename)
}

// SaveConfig writes cfg to path, in the format LoadConfig reads.
func SaveConfig(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, buf, 0644)
}
