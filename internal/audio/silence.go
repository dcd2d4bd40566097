package audio

import (
	"context"
	"fmt"
	"math/rand"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// GenerateSilence writes a silent FLAC clip whose duration is drawn
// uniformly from the configured [min,max] range, inclusive. Returns the
// file path and the drawn duration.
func (p *Processor) GenerateSilence(ctx context.Context, episodeID string) (string, int, error) {
	durationMS := p.cfg.SilenceMinMS + rand.Intn(p.cfg.SilenceMaxMS-p.cfg.SilenceMinMS+1)
	path := p.clipPath(episodeID, "silence")

	seconds := float64(durationMS) / 1000.0
	if err := p.libSilence(ctx, seconds, path, p.cfg.SampleRate); err != nil {
		return "", 0, fmt.Errorf("generate silence: %w", err)
	}
	return path, durationMS, nil
}

// librarySilence renders silence from ffmpeg's synthetic null source. The
// library invocation blocks until ffmpeg exits; the context is not consulted.
func librarySilence(_ context.Context, seconds float64, output string, sampleRate int) error {
	source := fmt.Sprintf("anullsrc=r=%d:cl=stereo", sampleRate)
	stream := ffmpeg.Input(source, ffmpeg.KwArgs{"t": seconds, "f": "lavfi"}).
		Output(output, ffmpeg.KwArgs{"acodec": "flac", "ar": sampleRate})
	return stream.OverwriteOutput(stream).
		Silent(true).
		Run()
}
