package episode

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pedantalk/pedantalk/internal/podcast"
)

func sampleConversation() podcast.Conversation {
	return podcast.Conversation{
		Topic: podcast.Topic{Title: "Quantum Computing"},
		Host:  podcast.Speaker{Role: podcast.RoleHost, Name: "Alex Morgan"},
		Guest: podcast.Speaker{Role: podcast.RoleGuest, Name: "Dr. Eve Chen"},
		Turns: []podcast.DialogueTurn{
			{Speaker: podcast.RoleHost, Text: "Welcome to the show."},
			{Speaker: podcast.RoleGuest, Text: "Glad to be here."},
		},
	}
}

func TestNewID(t *testing.T) {
	ts := time.Date(2026, 8, 23, 14, 5, 9, 0, time.UTC)
	if got := NewID(ts); got != "episode_20260823_140509" {
		t.Fatalf("unexpected id %q", got)
	}
}

func TestBuildSumsClipDurations(t *testing.T) {
	clips := []podcast.Clip{
		{Speaker: podcast.RoleHost, DurationMS: 2000},
		{Speaker: podcast.RoleSilence, DurationMS: 750},
		{Speaker: podcast.RoleGuest, DurationMS: 1500},
	}
	ep := Build(sampleConversation(), clips, "/out/ep_final.flac", "ep")
	if ep.Metadata["duration"] != "4.25" {
		t.Fatalf("expected duration 4.25, got %q", ep.Metadata["duration"])
	}
	if ep.Metadata["topic"] != "Quantum Computing" || ep.Metadata["guest"] != "Dr. Eve Chen" {
		t.Fatalf("unexpected metadata: %v", ep.Metadata)
	}
	if ep.FinalAudioPath != "/out/ep_final.flac" {
		t.Fatalf("unexpected final path %q", ep.FinalAudioPath)
	}
}

func TestWriteTranscriptFormat(t *testing.T) {
	dir := t.TempDir()
	ep := Build(sampleConversation(), nil, "", "ep")

	path, err := WriteTranscript(dir, ep)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	text := string(data)

	want := "Title: Quantum Computing\n" +
		"Host: Alex Morgan\n" +
		"Guest: Dr. Eve Chen\n\n" +
		"Alex Morgan: Welcome to the show.\n\n" +
		"Dr. Eve Chen: Glad to be here.\n\n"
	if text != want {
		t.Fatalf("transcript mismatch:\n%q\nwant:\n%q", text, want)
	}
	if !strings.HasSuffix(path, "ep_transcript.txt") {
		t.Fatalf("unexpected transcript path %q", path)
	}
}
