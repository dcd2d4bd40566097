package audio

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"
)

// DefaultDurationMS is assumed when no probe strategy can determine a
// clip's real length.
const DefaultDurationMS = 3000

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		Duration string `json:"duration"`
	} `json:"streams"`
}

// DurationMS determines a clip's duration in milliseconds. It tries ffprobe
// container metadata first (format, then the first stream — FLAC sometimes
// reports duration only there), then a WAV header decode, and finally falls
// back to DefaultDurationMS. Never fails.
func (p *Processor) DurationMS(ctx context.Context, path string) int {
	args := append([]string{}, p.ffprobeCmd[1:]...)
	args = append(args, "-v", "error", "-print_format", "json", "-show_format", "-show_streams", path)

	out, err := p.run(ctx, p.ffprobeCmd[0], args)
	if err == nil {
		var probe probeResult
		if jsonErr := json.Unmarshal(out, &probe); jsonErr == nil {
			if ms, ok := parseDurationMS(probe.Format.Duration); ok {
				return ms
			}
			if len(probe.Streams) > 0 {
				if ms, ok := parseDurationMS(probe.Streams[0].Duration); ok {
					return ms
				}
			}
		}
	} else {
		p.logger.Warn("ffprobe failed", slog.String("path", path), slog.String("error", err.Error()))
	}

	if ms, ok := wavDurationMS(path); ok {
		return ms
	}

	p.logger.Warn("could not determine clip duration, using default",
		slog.String("path", path), slog.Int("default_ms", DefaultDurationMS))
	return DefaultDurationMS
}

func parseDurationMS(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return int(seconds * 1000), true
}

// wavDurationMS decodes the RIFF header directly when the clip is a WAV
// file, covering setups where ffprobe is unavailable.
func wavDurationMS(path string) (int, bool) {
	if !strings.EqualFold(filepath.Ext(path), ".wav") {
		return 0, false
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	dur, err := wav.NewDecoder(f).Duration()
	if err != nil || dur <= 0 {
		return 0, false
	}
	return int(dur / time.Millisecond), true
}
