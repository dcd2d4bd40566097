package audio

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mattn/go-shellwords"

	"github.com/pedantalk/pedantalk/internal/config"
	"github.com/pedantalk/pedantalk/internal/tts"
)

// runFunc executes one external command and returns its stdout. Stderr is
// folded into the returned error.
type runFunc func(ctx context.Context, bin string, args []string) ([]byte, error)

// Processor owns every ffmpeg interaction for an episode: per-turn speech
// files, silence gaps, duration probing, and final concatenation.
type Processor struct {
	cfg        config.AudioConfig
	workDir    string
	outDir     string
	synth      tts.Synthesizer
	logger     *slog.Logger
	ffmpegCmd  []string
	ffprobeCmd []string

	// Seams replaced in tests; defaults shell out.
	run        runFunc
	libConcat  func(ctx context.Context, manifest, output string, sampleRate int) error
	libSilence func(ctx context.Context, seconds float64, output string, sampleRate int) error
}

// NewProcessor builds a Processor writing clips under workDir and the final
// file under outDir. Command paths may carry wrapper arguments, e.g.
// "nice -n 10 ffmpeg".
func NewProcessor(cfg config.AudioConfig, workDir, outDir string, synth tts.Synthesizer, logger *slog.Logger) (*Processor, error) {
	parser := shellwords.NewParser()
	ffmpegCmd, err := parser.Parse(cfg.FFmpegPath)
	if err != nil || len(ffmpegCmd) == 0 {
		return nil, fmt.Errorf("parse ffmpeg command %q: %w", cfg.FFmpegPath, err)
	}
	ffprobeCmd, err := parser.Parse(cfg.FFprobePath)
	if err != nil || len(ffprobeCmd) == 0 {
		return nil, fmt.Errorf("parse ffprobe command %q: %w", cfg.FFprobePath, err)
	}

	return &Processor{
		cfg:        cfg,
		workDir:    workDir,
		outDir:     outDir,
		synth:      synth,
		logger:     logger.With(slog.String("component", "audio")),
		ffmpegCmd:  ffmpegCmd,
		ffprobeCmd: ffprobeCmd,
		run:        runCommand,
		libConcat:  libraryConcat,
		libSilence: librarySilence,
	}, nil
}

func runCommand(ctx context.Context, bin string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("%s failed: %w: %s", bin, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// clipPath builds a collision-safe file name for one clip.
func (p *Processor) clipPath(episodeID, owner string) string {
	suffix := uuid.NewString()[:8]
	return filepath.Join(p.workDir, fmt.Sprintf("%s_%s_%s.flac", episodeID, owner, suffix))
}

// CleanupWorkDir removes leftover clip files and concat manifests from
// previous runs. Called once before any generation starts; failures to
// remove individual files are logged and skipped.
func (p *Processor) CleanupWorkDir() {
	var stale []string
	for _, pattern := range []string{"*.flac", "concat*.txt"} {
		matches, err := filepath.Glob(filepath.Join(p.workDir, pattern))
		if err != nil {
			continue
		}
		stale = append(stale, matches...)
	}

	removed := 0
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			p.logger.Warn("failed to remove stale file",
				slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		removed++
	}
	p.logger.Info("cleaned audio work dir",
		slog.String("dir", p.workDir), slog.Int("removed", removed))
}
