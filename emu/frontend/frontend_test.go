package frontend

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sync/errgroup"

	"paula/emu"
	"paula/emu/core"
	"paula/emu/ipc"
	"paula/hw/hwdefs"
	"paula/trace"
)

type frameRecorder struct {
	frames []int16
}

func (r *frameRecorder) WriteFrames(frames []int16) error {
	r.frames = append(r.frames, frames...)
	return nil
}

// writeTrace writes a trace playing a square wave in each subsong. A zero
// volume gives a silent trace.
func writeTrace(t *testing.T, vol uint16, ends ...int64) string {
	t.Helper()
	tr := trace.Trace{
		Player: "test player",
		Module: "square",
		Memory: []trace.Block{{Addr: 0x1000, Data: []byte{0x7f, 0x7f, 0x80, 0x80}}},
	}
	for _, end := range ends {
		tr.Subsongs = append(tr.Subsongs, trace.Subsong{
			End: end,
			Writes: []trace.Write{
				{Reg: "AUD0LCL", Value: 0x1000},
				{Reg: "AUD0LEN", Value: 2},
				{Reg: "AUD0PER", Value: 300},
				{Reg: "AUD0VOL", Value: vol},
				{Reg: "AUD1LCL", Value: 0x1000},
				{Reg: "AUD1LEN", Value: 2},
				{Reg: "AUD1PER", Value: 500},
				{Reg: "AUD1VOL", Value: vol / 2},
				{Cycle: 10, Reg: "DMACON", Value: hwdefs.SetClr | hwdefs.DMAEn | hwdefs.DMAAud0 | hwdefs.DMAAud1},
			},
		})
	}
	path := filepath.Join(t.TempDir(), "square.json")
	if err := os.WriteFile(path, tr.Encode(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// connect starts an engine and returns a configured frontend talking to it.
// The returned function closes the connection and returns the engine error.
func connect(t *testing.T, cfg emu.Config) (*Frontend, *frameRecorder, func() error) {
	t.Helper()
	sr, cw := io.Pipe()
	cr, sw := io.Pipe()

	var g errgroup.Group
	g.Go(func() error {
		defer sw.Close()
		return core.NewServer(ipc.NewPeer("engine", sr, sw)).Run()
	})

	var rec frameRecorder
	f, err := New(ipc.NewPeer("frontend", cr, cw), cfg, &rec)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Configure(""); err != nil {
		t.Fatal(err)
	}
	return f, &rec, func() error {
		cw.Close()
		return g.Wait()
	}
}

func TestPlaySubsongs(t *testing.T) {
	f, rec, stop := connect(t, emu.DefaultConfig())

	info, err := f.Play(Song{Module: writeTrace(t, 64, 100_000, 150_000)})
	if err != nil {
		t.Fatal(err)
	}
	if info.PlayerName != "test player" || info.ModuleName != "square" {
		t.Errorf("names = %q, %q", info.PlayerName, info.ModuleName)
	}
	if info.Subsongs != (ipc.SubsongInfo{Min: 0, Max: 1, Cur: 1}) {
		t.Errorf("subsongs = %+v, want all played", info.Subsongs)
	}

	// 250000 cycles of audio, plus at most a video frame per subsong change.
	if info.Bytes < 12000 || info.Bytes > 17000 {
		t.Errorf("played %d bytes, want ~12450", info.Bytes)
	}
	if int64(len(rec.frames)*2) != info.Bytes {
		t.Errorf("%d bytes written, %d played", len(rec.frames)*2, info.Bytes)
	}

	if err := stop(); err != nil {
		t.Errorf("engine error: %v", err)
	}
}

func TestPlayOneSubsong(t *testing.T) {
	cfg := emu.DefaultConfig()
	cfg.Playback.OneSubsong = true
	f, _, stop := connect(t, cfg)
	f.Subsong = 1

	info, err := f.Play(Song{Module: writeTrace(t, 64, 100_000, 150_000, 200_000)})
	if err != nil {
		t.Fatal(err)
	}
	if info.Subsongs.Cur != 1 {
		t.Errorf("subsong = %d, want 1", info.Subsongs.Cur)
	}
	if info.Bytes < 7400 || info.Bytes > 7600 {
		t.Errorf("played %d bytes, want ~7470", info.Bytes)
	}
	if err := stop(); err != nil {
		t.Errorf("engine error: %v", err)
	}
}

func TestPlayTimeout(t *testing.T) {
	cfg := emu.DefaultConfig()
	cfg.Playback.Timeout = 1
	f, _, stop := connect(t, cfg)

	info, err := f.Play(Song{Module: writeTrace(t, 64, 1<<40)})
	if err != nil {
		t.Fatal(err)
	}
	const second = 44100 * 4
	if info.Bytes < second || info.Bytes >= second+ipc.MaxPayloadSize {
		t.Errorf("played %d bytes, want one second", info.Bytes)
	}
	if err := stop(); err != nil {
		t.Errorf("engine error: %v", err)
	}
}

func TestPlaySilence(t *testing.T) {
	cfg := emu.DefaultConfig()
	cfg.Playback.SilenceTimeout = 1
	f, _, stop := connect(t, cfg)

	info, err := f.Play(Song{Module: writeTrace(t, 0, 1<<40)})
	if err != nil {
		t.Fatal(err)
	}
	const second = 44100 * 4
	if info.Bytes < second || info.Bytes >= second+ipc.MaxPayloadSize {
		t.Errorf("played %d bytes, want one second", info.Bytes)
	}
	if err := stop(); err != nil {
		t.Errorf("engine error: %v", err)
	}
}

func TestPlayCantPlay(t *testing.T) {
	f, _, stop := connect(t, emu.DefaultConfig())

	_, err := f.Play(Song{Module: filepath.Join(t.TempDir(), "missing.json")})
	if !errors.Is(err, ErrCantPlay) {
		t.Fatalf("err = %v, want ErrCantPlay", err)
	}
	if _, err := f.Play(Song{Module: writeTrace(t, 64, 50_000)}); err != nil {
		t.Fatal(err)
	}
	if err := stop(); err != nil {
		t.Errorf("engine error: %v", err)
	}
}

func TestPlayMono(t *testing.T) {
	cfg := emu.DefaultConfig()
	cfg.Effects.UsePanning = true
	cfg.Effects.Panning = 1
	f, rec, stop := connect(t, cfg)

	if _, err := f.Play(Song{Module: writeTrace(t, 64, 100_000)}); err != nil {
		t.Fatal(err)
	}
	audible := false
	for i := 0; i+1 < len(rec.frames); i += 2 {
		if rec.frames[i] != rec.frames[i+1] {
			t.Fatalf("frame %d: %d != %d, want mono", i/2, rec.frames[i], rec.frames[i+1])
		}
		audible = audible || rec.frames[i] != 0
	}
	if !audible {
		t.Errorf("output is silent")
	}
	if err := stop(); err != nil {
		t.Errorf("engine error: %v", err)
	}
}

func TestSilent(t *testing.T) {
	cfg := emu.DefaultConfig()
	cfg.Audio.Frequency = 1000
	cfg.Playback.SilenceTimeout = 1
	f, err := New(nil, cfg, &frameRecorder{})
	if err != nil {
		t.Fatal(err)
	}

	quiet := make([]int16, 1000)
	for i := range quiet {
		quiet[i] = 300
	}
	loud := make([]int16, 1000)
	for i := 0; i < len(loud); i += 10 {
		loud[i] = -20000
	}

	if f.silent(quiet) {
		t.Errorf("silence detected after 0.5s")
	}
	if f.silent(loud) {
		t.Errorf("silence detected on loud samples")
	}
	if f.silent(quiet) {
		t.Errorf("loud samples did not reset the silence counter")
	}
	if !f.silent(quiet) {
		t.Errorf("silence not detected after 1s")
	}
}
