package episode

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pedantalk/pedantalk/internal/podcast"
)

// NewID derives the episode identifier from the wall clock.
func NewID(now time.Time) string {
	return "episode_" + now.Format("20060102_150405")
}

// Build packages a finished run into one Episode record with its aggregate
// metadata. Duration is the sum of every clip in seconds, rendered as text.
func Build(conv podcast.Conversation, clips []podcast.Clip, finalAudioPath, episodeID string) podcast.Episode {
	totalMS := 0
	for _, clip := range clips {
		totalMS += clip.DurationMS
	}

	return podcast.Episode{
		ID:             episodeID,
		Topic:          conv.Topic,
		Host:           conv.Host,
		Guest:          conv.Guest,
		Turns:          conv.Turns,
		Clips:          clips,
		FinalAudioPath: finalAudioPath,
		Metadata: map[string]string{
			"episode_id": episodeID,
			"topic":      conv.Topic.Title,
			"host":       conv.Host.Name,
			"guest":      conv.Guest.Name,
			"duration":   strconv.FormatFloat(float64(totalMS)/1000.0, 'f', -1, 64),
		},
	}
}

// WriteTranscript renders the episode transcript under dir and returns its
// path. Format: a Title/Host/Guest header, then one blank-line-separated
// "Name: text" block per turn.
func WriteTranscript(dir string, ep podcast.Episode) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", ep.Topic.Title)
	fmt.Fprintf(&b, "Host: %s\n", ep.Host.Name)
	fmt.Fprintf(&b, "Guest: %s\n\n", ep.Guest.Name)

	for _, turn := range ep.Turns {
		name := ep.Guest.Name
		if turn.Speaker == podcast.RoleHost {
			name = ep.Host.Name
		}
		fmt.Fprintf(&b, "%s: %s\n\n", name, turn.Text)
	}

	path := filepath.Join(dir, ep.ID+"_transcript.txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}
