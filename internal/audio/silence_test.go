package audio

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestSilenceDurationStaysInBounds(t *testing.T) {
	p := newTestProcessor(t)
	var seconds []float64
	p.libSilence = func(_ context.Context, s float64, output string, sampleRate int) error {
		if sampleRate != 44100 {
			t.Fatalf("unexpected sample rate %d", sampleRate)
		}
		seconds = append(seconds, s)
		return os.WriteFile(output, []byte("silence"), 0o644)
	}

	for i := 0; i < 200; i++ {
		path, durationMS, err := p.GenerateSilence(context.Background(), "ep")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if durationMS < 500 || durationMS > 1500 {
			t.Fatalf("silence duration %dms outside [500,1500]", durationMS)
		}
		if !strings.Contains(path, "ep_silence_") {
			t.Fatalf("unexpected silence file name %q", path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("silence file not written: %v", err)
		}
	}
	if len(seconds) != 200 {
		t.Fatalf("expected 200 generator calls, got %d", len(seconds))
	}
}

func TestSilenceFileNamesAreUnique(t *testing.T) {
	p := newTestProcessor(t)
	p.libSilence = func(_ context.Context, _ float64, output string, _ int) error {
		return os.WriteFile(output, []byte("silence"), 0o644)
	}
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		path, _, err := p.GenerateSilence(context.Background(), "ep")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[path] {
			t.Fatalf("duplicate silence path %q", path)
		}
		seen[path] = true
	}
}
