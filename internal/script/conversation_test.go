package script

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/pedantalk/pedantalk/internal/config"
	"github.com/pedantalk/pedantalk/internal/llm"
	"github.com/pedantalk/pedantalk/internal/podcast"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testVoices() config.VoicesConfig {
	return config.VoicesConfig{Host: "nova", Guest: "echo"}
}

func quantumTopic() podcast.Topic {
	return podcast.Topic{Title: "Quantum Computing", Description: "qubits", Keywords: []string{"quantum"}}
}

func TestExtractTurnsTopLevelArray(t *testing.T) {
	content := `[{"speaker":"host","text":"hi"},{"speaker":"guest","text":"hello"}]`
	turns, err := extractTurns(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 2 || turns[0].Speaker != podcast.RoleHost || turns[1].Speaker != podcast.RoleGuest {
		t.Fatalf("unexpected turns: %+v", turns)
	}
}

func TestExtractTurnsKnownAliases(t *testing.T) {
	for _, alias := range []string{"conversation", "turns", "messages", "dialogues"} {
		content := `{"` + alias + `":[{"speaker":"host","text":"a"},{"speaker":"guest","text":"b"}]}`
		turns, err := extractTurns(content)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", alias, err)
		}
		if len(turns) != 2 {
			t.Fatalf("%s: expected 2 turns, got %d", alias, len(turns))
		}
	}
}

func TestExtractTurnsFirstListField(t *testing.T) {
	content := `{"note":"x","whatever":[{"Speaker":"HOST","Text":"case insensitive"}]}`
	turns, err := extractTurns(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 1 || turns[0].Speaker != podcast.RoleHost {
		t.Fatalf("unexpected turns: %+v", turns)
	}
}

func TestExtractTurnsUnknownSpeakerBecomesGuest(t *testing.T) {
	turns, err := extractTurns(`[{"speaker":"narrator","text":"aside"}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if turns[0].Speaker != podcast.RoleGuest {
		t.Fatalf("expected unknown speaker to map to guest, got %s", turns[0].Speaker)
	}
}

func TestExtractTurnsRejectsGarbage(t *testing.T) {
	for _, content := range []string{"not json", `{"a":1}`, `[]`, `[{"speaker":"host"}]`} {
		if _, err := extractTurns(content); err == nil {
			t.Fatalf("expected error for %q", content)
		}
	}
}

func TestGenerateTurnsShortResponseUsesFallback(t *testing.T) {
	// Persona, voice instruction, then a two-turn conversation that must be
	// discarded for the fixed fallback.
	gen := llm.NewMockGenerator(
		`{"name":"Dr. Eve Chen","personality":"precise","background":"quantum physicist"}`,
		"Calm and measured.",
		`[{"speaker":"host","text":"hi"},{"speaker":"guest","text":"hello"}]`,
	)
	svc := NewService(gen, testVoices(), newLogger())

	conv := svc.GenerateConversation(context.Background(), quantumTopic(), 5)

	// Fixed fallback pair plus the three-turn outro, no padding.
	if len(conv.Turns) != 5 {
		t.Fatalf("expected 5 turns, got %d", len(conv.Turns))
	}
	if !strings.Contains(conv.Turns[0].Text, "Welcome to Pedantalk") {
		t.Fatalf("expected fallback greeting, got %q", conv.Turns[0].Text)
	}
	if !strings.Contains(conv.Turns[0].Text, "Dr. Eve Chen") {
		t.Fatalf("fallback greeting should name the guest: %q", conv.Turns[0].Text)
	}
}

func TestGenerateTurnsPadsToMinimum(t *testing.T) {
	turns := `[
		{"speaker":"host","text":"t1"},
		{"speaker":"guest","text":"t2"},
		{"speaker":"host","text":"t3"}
	]`
	gen := llm.NewMockGenerator(
		`{"name":"Dr. Eve Chen","personality":"precise","background":"quantum physicist"}`,
		"Calm and measured.",
		turns,
	)
	svc := NewService(gen, testVoices(), newLogger())

	conv := svc.GenerateConversation(context.Background(), quantumTopic(), 20)

	// 17 main turns requested, minimum 15, plus 3 outro.
	if len(conv.Turns) != 18 {
		t.Fatalf("expected 18 turns, got %d", len(conv.Turns))
	}
	for i := 0; i < 3; i++ {
		if conv.Turns[i].Text != []string{"t1", "t2", "t3"}[i] {
			t.Fatalf("existing turn %d rewritten: %q", i, conv.Turns[i].Text)
		}
	}
	// Padding alternates starting opposite the last scripted speaker.
	if conv.Turns[3].Speaker != podcast.RoleGuest {
		t.Fatalf("expected guest filler after host turn, got %s", conv.Turns[3].Speaker)
	}
	for i := 4; i < 15; i++ {
		if conv.Turns[i].Speaker == conv.Turns[i-1].Speaker {
			t.Fatalf("filler turns %d and %d share speaker %s", i-1, i, conv.Turns[i].Speaker)
		}
	}
}

func TestGenerateTurnsAppendsOutro(t *testing.T) {
	gen := llm.NewMockGenerator(
		`{"name":"Dr. Eve Chen","personality":"precise","background":"quantum physicist"}`,
		"Calm and measured.",
		`[{"speaker":"host","text":"hi"},{"speaker":"guest","text":"hello"}]`,
	)
	svc := NewService(gen, testVoices(), newLogger())

	conv := svc.GenerateConversation(context.Background(), quantumTopic(), 5)

	outro := conv.Turns[len(conv.Turns)-3:]
	if outro[0].Speaker != podcast.RoleHost || outro[1].Speaker != podcast.RoleGuest || outro[2].Speaker != podcast.RoleHost {
		t.Fatalf("unexpected outro speaker order: %+v", outro)
	}
	if !strings.Contains(outro[0].Text, "Dr. Eve Chen") || !strings.Contains(outro[0].Text, "Quantum Computing") {
		t.Fatalf("host wrap-up should reference guest and topic: %q", outro[0].Text)
	}
	if !strings.Contains(outro[1].Text, "Alex Morgan") {
		t.Fatalf("guest final thoughts should reference the host: %q", outro[1].Text)
	}
	if !strings.Contains(outro[2].Text, "stay curious") {
		t.Fatalf("unexpected sign-off: %q", outro[2].Text)
	}
}

func TestGenerateTurnsGeneratorErrorFallsBack(t *testing.T) {
	gen := llm.NewMockGenerator()
	gen.Err = errors.New("service down")
	svc := NewService(gen, testVoices(), newLogger())

	conv := svc.GenerateConversation(context.Background(), quantumTopic(), 5)
	if len(conv.Turns) != 5 {
		t.Fatalf("expected fallback+outro = 5 turns, got %d", len(conv.Turns))
	}
	if conv.Guest.Name != "Dr. Jamie Reynolds" {
		t.Fatalf("expected fallback guest, got %q", conv.Guest.Name)
	}
	if conv.Guest.VoiceInstruction != "Speak with authority and academic precision." {
		t.Fatalf("unexpected fallback instruction: %q", conv.Guest.VoiceInstruction)
	}
}

func TestGenerateTopicFallback(t *testing.T) {
	gen := llm.NewMockGenerator("not json at all")
	svc := NewService(gen, testVoices(), newLogger())
	topic := svc.GenerateTopic(context.Background())
	if topic.Title != FallbackTopic.Title {
		t.Fatalf("expected fallback topic, got %q", topic.Title)
	}
}

func TestTopicFromTitle(t *testing.T) {
	topic := TopicFromTitle("Quantum Computing")
	if topic.Title != "Quantum Computing" {
		t.Fatalf("unexpected title %q", topic.Title)
	}
	if topic.Keywords[0] != "quantum computing" {
		t.Fatalf("unexpected keyword %q", topic.Keywords[0])
	}
}
