package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sync/errgroup"

	"paula/emu"
	"paula/emu/core"
	"paula/emu/effects"
	"paula/emu/frontend"
	"paula/emu/ipc"
	"paula/emu/log"
	"paula/emu/output"
	"paula/hw/paula"
	"paula/trace"
)

// coreMain serves the IPC protocol until the controller closes its stream.
func coreMain(args Core) error {
	in, err := ipc.OpenInput(args.Input)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := ipc.OpenOutput(args.Output)
	if err != nil {
		return err
	}
	defer out.Close()

	return core.NewServer(ipc.NewPeer("core", in, out)).Run()
}

// playMain starts an engine process and plays all traces through it.
func playMain(args Play, cfg emu.Config, cfgPath string) error {
	if args.Timeout != nil {
		cfg.Playback.Timeout = *args.Timeout
	}
	if args.Panning != nil {
		cfg.Effects.UsePanning = true
		cfg.Effects.Panning = *args.Panning
	}
	if args.Filter != "" {
		cfg.Audio.Filter = args.Filter
	}
	if args.Interpolator != "" {
		cfg.Audio.Interpolator = args.Interpolator
	}
	cfg.Effects.Headphones = cfg.Effects.Headphones || args.Headphones
	cfg.Playback.OneSubsong = cfg.Playback.OneSubsong || args.OneSubsong
	if err := cfg.Validate(); err != nil {
		return err
	}

	var out frontend.Writer = discard{}
	if args.Out != "" {
		wav, err := output.CreateWAV(args.Out, cfg.Audio.Frequency)
		if err != nil {
			return err
		}
		defer wav.Close()
		out = wav
	}

	engine := args.Engine
	if engine == "" {
		exe, err := os.Executable()
		if err != nil {
			return err
		}
		engine = exe
	}

	// The engine reads commands from fd 3 and writes replies to fd 4.
	engineIn, toEngine, err := os.Pipe()
	if err != nil {
		return err
	}
	fromEngine, engineOut, err := os.Pipe()
	if err != nil {
		return err
	}
	cmd := exec.Command(engine, "core", "-i", "fd://3", "-o", "fd://4")
	cmd.ExtraFiles = []*os.File{engineIn, engineOut}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("can't start engine %s: %w", engine, err)
	}
	engineIn.Close()
	engineOut.Close()

	var g errgroup.Group
	g.Go(func() error {
		defer fromEngine.Close()
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("engine: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer toEngine.Close()

		peer := ipc.NewPeer("frontend", fromEngine, toEngine)
		f, err := frontend.New(peer, cfg, out)
		if err != nil {
			return err
		}
		f.Subsong = args.Subsong
		f.NoSongEnd = args.NoSongEnd
		f.Debug = args.Debugger
		if err := f.Configure(cfgPath); err != nil {
			return err
		}

		for _, path := range args.Traces {
			info, err := f.Play(frontend.Song{Module: path})
			if errors.Is(err, frontend.ErrCantPlay) {
				fmt.Fprintf(os.Stderr, "%s: can't play\n", path)
				continue
			}
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			seconds := float64(info.Bytes) / float64(cfg.Audio.Frequency*4)
			fmt.Printf("%s: %s by %s, subsongs %d-%d, %.1fs\n",
				path, info.ModuleName, info.PlayerName, info.Subsongs.Min, info.Subsongs.Max, seconds)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if wav, ok := out.(*output.WAV); ok {
		return wav.Close()
	}
	return nil
}

type discard struct{}

func (discard) WriteFrames([]int16) error { return nil }

// renderMain runs the engine in-process, rendering one subsong.
func renderMain(args Render, cfg emu.Config) error {
	tr, err := trace.Open(args.Trace)
	if err != nil {
		return err
	}
	pcfg, err := cfg.Paula()
	if err != nil {
		return err
	}
	wav, err := output.CreateWAV(args.Out, pcfg.Frequency)
	if err != nil {
		return err
	}
	defer wav.Close()

	var (
		sink paula.Sink = wav
		fxs  *fxSink
	)
	if cfg.Effects.Gain != 1 || cfg.Effects.UsePanning || cfg.Effects.Headphones {
		fx, err := effects.New(effects.Config{
			Gain:       cfg.Effects.Gain,
			UsePanning: cfg.Effects.UsePanning,
			Panning:    cfg.Effects.Panning,
			Headphones: cfg.Effects.Headphones,
		})
		if err != nil {
			return err
		}
		fxs = &fxSink{fx: fx, w: wav}
		sink = fxs
	}

	amiga, err := emu.PowerUp(tr, sink, pcfg)
	if err != nil {
		return err
	}
	if err := amiga.SetSubsong(args.Subsong); err != nil {
		return err
	}

	limit := int64(args.Seconds * float64(pcfg.Frequency))
	for {
		end := amiga.RunOneFrame()
		if fxs != nil {
			if err := fxs.flush(); err != nil {
				return err
			}
		}
		if end || (limit > 0 && wav.Frames() >= limit) {
			break
		}
	}
	log.ModEmu.InfoZ("render done").
		String("path", args.Out).
		Int("subsong", args.Subsong).
		Int64("frames", wav.Frames()).
		End()
	return wav.Close()
}

// fxSink collects a video frame of audio and passes it through the effects.
type fxSink struct {
	fx  *effects.Chain
	w   *output.WAV
	buf []int16
}

func (s *fxSink) PutSample(left, right int16) {
	s.buf = append(s.buf, left, right)
}

func (s *fxSink) flush() error {
	s.fx.Run(s.buf)
	err := s.w.WriteFrames(s.buf)
	s.buf = s.buf[:0]
	return err
}

// initConfigMain writes the default configuration to path, or to the paula
// config directory.
func initConfigMain(args InitConfig, path string) error {
	if path == "" {
		path = emu.DefaultConfigPath()
	}
	if !args.Force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	if err := emu.SaveConfig(path, emu.DefaultConfig()); err != nil {
		return err
	}
	fmt.Println("configuration written to", path)
	return nil
}
