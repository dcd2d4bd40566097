package audio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pedantalk/pedantalk/internal/config"
	"github.com/pedantalk/pedantalk/internal/tts"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testAudioConfig() config.AudioConfig {
	return config.AudioConfig{
		SilenceMinMS: 500,
		SilenceMaxMS: 1500,
		SampleRate:   44100,
		FFmpegPath:   "ffmpeg",
		FFprobePath:  "ffprobe",
	}
}

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	work := t.TempDir()
	out := t.TempDir()
	p, err := NewProcessor(testAudioConfig(), work, out, tts.NewMockSynth(), newLogger())
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}
	return p
}

func writeClips(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("clip"), 0o644); err != nil {
			t.Fatalf("write clip: %v", err)
		}
		paths = append(paths, path)
	}
	return paths
}

func TestConcatenateFirstStrategyWins(t *testing.T) {
	p := newTestProcessor(t)
	clips := writeClips(t, p.workDir, "a.flac", "b.flac", "c.flac")
	output := filepath.Join(p.outDir, "ep_final.flac")

	var manifestSeen string
	p.libConcat = func(_ context.Context, manifest, out string, sampleRate int) error {
		data, err := os.ReadFile(manifest)
		if err != nil {
			t.Fatalf("manifest unreadable during strategy: %v", err)
		}
		manifestSeen = string(data)
		if sampleRate != 44100 {
			t.Fatalf("unexpected sample rate %d", sampleRate)
		}
		return os.WriteFile(out, []byte("joined"), 0o644)
	}
	p.run = func(context.Context, string, []string) ([]byte, error) {
		t.Fatal("direct ffmpeg invocation should not run when the library succeeds")
		return nil, nil
	}

	if err := p.Concatenate(context.Background(), "ep", clips, output); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, clip := range clips {
		if !strings.Contains(manifestSeen, "file '"+clip+"'") {
			t.Fatalf("manifest missing clip %s:\n%s", clip, manifestSeen)
		}
	}
	if _, err := os.Stat(filepath.Join(p.workDir, "concat_ep.txt")); !os.IsNotExist(err) {
		t.Fatalf("manifest should be removed after the run")
	}
}

func TestConcatenateFallsBackToDemuxer(t *testing.T) {
	p := newTestProcessor(t)
	clips := writeClips(t, p.workDir, "a.flac", "b.flac")
	output := filepath.Join(p.outDir, "ep_final.flac")

	p.libConcat = func(context.Context, string, string, int) error {
		return errors.New("library broken")
	}
	var gotArgs []string
	p.run = func(_ context.Context, bin string, args []string) ([]byte, error) {
		if bin != "ffmpeg" {
			t.Fatalf("unexpected binary %q", bin)
		}
		gotArgs = args
		return nil, nil
	}

	if err := p.Concatenate(context.Background(), "ep", clips, output); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	joined := strings.Join(gotArgs, " ")
	manifest := filepath.Join(p.workDir, "concat_ep.txt")
	for _, want := range []string{"-f concat", "-safe 0", "-i " + manifest, "-c:a flac", "-ar 44100", "-y " + output} {
		if !strings.Contains(joined, want) {
			t.Fatalf("demuxer args missing %q: %s", want, joined)
		}
	}
}

func TestConcatenateFilterGraphLastResort(t *testing.T) {
	p := newTestProcessor(t)
	clips := writeClips(t, p.workDir, "a.flac", "b.flac")
	output := filepath.Join(p.outDir, "ep_final.flac")

	p.libConcat = func(context.Context, string, string, int) error {
		return errors.New("library broken")
	}
	var calls [][]string
	p.run = func(_ context.Context, _ string, args []string) ([]byte, error) {
		calls = append(calls, args)
		if len(calls) == 1 {
			return nil, errors.New("demuxer broken")
		}
		return nil, nil
	}

	if err := p.Concatenate(context.Background(), "ep", clips, output); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected demuxer then filter graph, got %d calls", len(calls))
	}
	joined := strings.Join(calls[1], " ")
	if !strings.Contains(joined, "[0:0][1:0]concat=n=2:v=0:a=1[out]") {
		t.Fatalf("filter graph not built per clip: %s", joined)
	}
	if !strings.Contains(joined, "-map [out]") {
		t.Fatalf("filter graph output not mapped: %s", joined)
	}
	if strings.Contains(joined, "concat_ep.txt") {
		t.Fatalf("filter graph should not reference the manifest: %s", joined)
	}
}

func TestConcatenateAggregatesAllFailures(t *testing.T) {
	p := newTestProcessor(t)
	clips := writeClips(t, p.workDir, "a.flac")
	output := filepath.Join(p.outDir, "ep_final.flac")

	p.libConcat = func(context.Context, string, string, int) error {
		return errors.New("library broken")
	}
	p.run = func(_ context.Context, _ string, args []string) ([]byte, error) {
		return nil, errors.New("process broken")
	}

	err := p.Concatenate(context.Background(), "ep", clips, output)
	if err == nil {
		t.Fatal("expected error when every strategy fails")
	}
	for _, fragment := range []string{"library concat demuxer", "ffmpeg concat demuxer", "ffmpeg filter_complex", "library broken", "process broken"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("aggregated error missing %q: %v", fragment, err)
		}
	}
	if _, statErr := os.Stat(filepath.Join(p.workDir, "concat_ep.txt")); !os.IsNotExist(statErr) {
		t.Fatalf("manifest should be removed even on failure")
	}
}

func TestConcatenateDropsMissingClips(t *testing.T) {
	p := newTestProcessor(t)
	clips := writeClips(t, p.workDir, "a.flac", "b.flac", "c.flac")
	if err := os.Remove(clips[1]); err != nil {
		t.Fatalf("remove clip: %v", err)
	}
	output := filepath.Join(p.outDir, "ep_final.flac")

	p.libConcat = func(_ context.Context, manifest, out string, _ int) error {
		data, _ := os.ReadFile(manifest)
		if strings.Contains(string(data), clips[1]) {
			t.Fatalf("missing clip still listed in manifest:\n%s", data)
		}
		if !strings.Contains(string(data), clips[0]) || !strings.Contains(string(data), clips[2]) {
			t.Fatalf("surviving clips not listed:\n%s", data)
		}
		return os.WriteFile(out, []byte("joined"), 0o644)
	}

	if err := p.Concatenate(context.Background(), "ep", clips, output); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConcatenateFailsWithNoValidClips(t *testing.T) {
	p := newTestProcessor(t)
	missing := []string{filepath.Join(p.workDir, "gone1.flac"), filepath.Join(p.workDir, "gone2.flac")}
	output := filepath.Join(p.outDir, "ep_final.flac")

	p.libConcat = func(context.Context, string, string, int) error {
		t.Fatal("no strategy should run with an empty clip set")
		return nil
	}

	if err := p.Concatenate(context.Background(), "ep", missing, output); err == nil {
		t.Fatal("expected error when no clip files exist")
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("no output should be produced")
	}
}
