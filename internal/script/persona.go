package script

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pedantalk/pedantalk/internal/llm"
	"github.com/pedantalk/pedantalk/internal/podcast"
)

// hostSpeaker returns the fixed host persona with the configured voice.
func (s *Service) hostSpeaker() podcast.Speaker {
	return podcast.Speaker{
		Role:             podcast.RoleHost,
		Voice:            s.voices.Host,
		Name:             "Alex Morgan",
		Personality:      "Curious, intellectually engaged, and thoughtful. Asks probing questions but admits knowledge limitations.",
		Background:       "Liberal arts background with broad general knowledge but limited specialized expertise.",
		VoiceInstruction: s.voices.HostInstruction,
	}
}

type guestPersona struct {
	Name        string `json:"name"`
	Personality string `json:"personality"`
	Background  string `json:"background"`
}

// generateGuest invents an expert guest matching the topic. Any failure
// degrades to the fixed fallback persona.
func (s *Service) generateGuest(ctx context.Context, topic podcast.Topic) podcast.Speaker {
	prompt := fmt.Sprintf("Create an expert guest for a podcast on the topic: '%s'\n\n"+
		"The topic is about: %s\n\n"+
		"Generate a JSON response with the following structure:\n"+
		"{\n"+
		"  \"name\": \"Full Name\",\n"+
		"  \"personality\": \"Brief personality description\",\n"+
		"  \"background\": \"Professional background and expertise relevant to the topic\"\n"+
		"}", topic.Title, topic.Description)

	content, err := s.gen.Complete(ctx, llm.Request{
		JSONMode: true,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You are an expert at creating realistic podcast guest personas."},
			{Role: llm.RoleUser, Content: prompt},
		},
	})
	if err == nil {
		var persona guestPersona
		if jsonErr := json.Unmarshal([]byte(content), &persona); jsonErr == nil &&
			persona.Name != "" && persona.Personality != "" && persona.Background != "" {
			return podcast.Speaker{
				Role:             podcast.RoleGuest,
				Voice:            s.voices.Guest,
				Name:             persona.Name,
				Personality:      persona.Personality,
				Background:       persona.Background,
				VoiceInstruction: s.guestVoiceInstruction(ctx, persona.Personality, persona.Background),
			}
		}
		s.logger.Warn("guest persona response not parseable, using fallback")
	} else {
		s.logger.Warn("guest persona generation failed, using fallback", slog.String("error", err.Error()))
	}

	field := topic.Title
	if len(topic.Keywords) > 0 {
		field = topic.Keywords[0]
	}
	return podcast.Speaker{
		Role:             podcast.RoleGuest,
		Voice:            s.voices.Guest,
		Name:             "Dr. Jamie Reynolds",
		Personality:      "Articulate, thoughtful, and passionate about their field of expertise.",
		Background:       "Leading researcher and author in the field of " + field,
		VoiceInstruction: "Speak with authority and academic precision.",
	}
}

// guestVoiceInstruction derives a short speech-direction string from the
// persona. Kept under 100 tokens on the model side.
func (s *Service) guestVoiceInstruction(ctx context.Context, personality, background string) string {
	prompt := fmt.Sprintf("Based on the following personality and background, create a voice instruction for a text-to-speech "+
		"system that would best convey this person's speaking style:\n\n"+
		"Personality: %s\n"+
		"Background: %s\n\n"+
		"This should be a concise instruction describing how the voice should sound, such as tone, pace, "+
		"emotion, accent, etc. Keep it under 100 characters.", personality, background)

	content, err := s.gen.Complete(ctx, llm.Request{
		MaxTokens: 100,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You are a voice direction expert for audiobooks and podcasts."},
			{Role: llm.RoleUser, Content: prompt},
		},
	})
	if err != nil || strings.TrimSpace(content) == "" {
		return "Speak with authority and clarity."
	}
	return strings.TrimSpace(content)
}
