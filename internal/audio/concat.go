package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// concatStrategy is one way of invoking ffmpeg to join clips. Strategies
// share a contract: join files into output, or report why they could not.
type concatStrategy struct {
	name string
	run  func(ctx context.Context, files []string, manifest, output string) error
}

// Concatenate joins the clip files, in order, into output. Files that no
// longer exist are dropped with a warning; the run fails only if nothing is
// left. The same underlying tool is invoked through up to three calling
// conventions, because each one breaks differently across platform and
// ffmpeg-version combinations. Strategies run strictly in sequence and the
// final error aggregates every attempt.
func (p *Processor) Concatenate(ctx context.Context, episodeID string, files []string, output string) error {
	valid := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			p.logger.Warn("clip file missing, dropping from concat", slog.String("path", file))
			continue
		}
		valid = append(valid, file)
	}
	if len(valid) == 0 {
		return errors.New("no valid clip files to concatenate")
	}

	manifest := filepath.Join(p.workDir, fmt.Sprintf("concat_%s.txt", episodeID))
	if err := writeManifest(manifest, valid); err != nil {
		return err
	}
	defer os.Remove(manifest)

	strategies := []concatStrategy{
		{name: "library concat demuxer", run: p.concatLibrary},
		{name: "ffmpeg concat demuxer", run: p.concatDemuxer},
		{name: "ffmpeg filter_complex", run: p.concatFilterGraph},
	}

	var attempts []error
	for _, strategy := range strategies {
		err := strategy.run(ctx, valid, manifest, output)
		if err == nil {
			p.logger.Info("combined clips",
				slog.String("strategy", strategy.name),
				slog.Int("clips", len(valid)),
				slog.String("output", output))
			return nil
		}
		p.logger.Warn("concat strategy failed",
			slog.String("strategy", strategy.name), slog.String("error", err.Error()))
		attempts = append(attempts, fmt.Errorf("%s: %w", strategy.name, err))
	}
	return fmt.Errorf("all concat strategies failed: %w", errors.Join(attempts...))
}

// writeManifest writes the concat demuxer file list, one clip per line.
func writeManifest(path string, files []string) error {
	var b strings.Builder
	for _, file := range files {
		fmt.Fprintf(&b, "file '%s'\n", file)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write concat manifest: %w", err)
	}
	return nil
}

// concatLibrary drives the concat demuxer through the ffmpeg-go wrapper.
func (p *Processor) concatLibrary(ctx context.Context, _ []string, manifest, output string) error {
	return p.libConcat(ctx, manifest, output, p.cfg.SampleRate)
}

func libraryConcat(_ context.Context, manifest, output string, sampleRate int) error {
	stream := ffmpeg.Input(manifest, ffmpeg.KwArgs{"f": "concat", "safe": 0}).
		Output(output, ffmpeg.KwArgs{"acodec": "flac", "ar": sampleRate})
	return stream.OverwriteOutput(stream).
		Silent(true).
		Run()
}

// concatDemuxer issues the same concat demuxer invocation as a direct
// process call, in case the library layer itself is what is failing.
func (p *Processor) concatDemuxer(ctx context.Context, _ []string, manifest, output string) error {
	args := append([]string{}, p.ffmpegCmd[1:]...)
	args = append(args,
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-c:a", "flac",
		"-ar", fmt.Sprint(p.cfg.SampleRate),
		"-y",
		output,
	)
	_, err := p.run(ctx, p.ffmpegCmd[0], args)
	return err
}

// concatFilterGraph avoids the manifest entirely: every clip becomes its own
// input and an explicit concat filter maps them to a single stream.
func (p *Processor) concatFilterGraph(ctx context.Context, files []string, _, output string) error {
	args := append([]string{}, p.ffmpegCmd[1:]...)
	var labels strings.Builder
	for i, file := range files {
		args = append(args, "-i", file)
		fmt.Fprintf(&labels, "[%d:0]", i)
	}
	filter := fmt.Sprintf("%sconcat=n=%d:v=0:a=1[out]", labels.String(), len(files))
	args = append(args,
		"-filter_complex", filter,
		"-map", "[out]",
		"-y",
		output,
	)
	_, err := p.run(ctx, p.ffmpegCmd[0], args)
	return err
}
