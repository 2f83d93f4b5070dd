package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/google/go-cmp/cmp"
)

func TestWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := CreateWAV(path, 22050)
	if err != nil {
		t.Fatal(err)
	}

	var want []int
	for i := range 5000 {
		l, r := int16(i), int16(-i)
		w.PutSample(l, r)
		want = append(want, int(l), int(r))
	}
	if err := w.WriteFrames([]int16{100, -100, 32767, -32768}); err != nil {
		t.Fatal(err)
	}
	want = append(want, 100, -100, 32767, -32768)

	if w.Frames() != 5002 {
		t.Errorf("frames = %d, want 5002", w.Frames())
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatalf("invalid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if dec.SampleRate != 22050 || dec.NumChans != 2 || dec.BitDepth != 16 {
		t.Errorf("format = %d Hz, %d chans, %d bits", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	if diff := cmp.Diff(want, buf.Data); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}
