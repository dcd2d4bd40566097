package script

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pedantalk/pedantalk/internal/config"
	"github.com/pedantalk/pedantalk/internal/llm"
	"github.com/pedantalk/pedantalk/internal/podcast"
)

// outroTurnCount is appended to every conversation after the main exchange.
const outroTurnCount = 3

// Service scripts episodes: topic, personas, and the dialogue itself.
type Service struct {
	gen    llm.Generator
	voices config.VoicesConfig
	logger *slog.Logger
}

func NewService(gen llm.Generator, voices config.VoicesConfig, logger *slog.Logger) *Service {
	return &Service{
		gen:    gen,
		voices: voices,
		logger: logger.With(slog.String("component", "script")),
	}
}

// GenerateConversation produces the complete dialogue for a topic. numTurns
// includes the fixed three-turn outro.
func (s *Service) GenerateConversation(ctx context.Context, topic podcast.Topic, numTurns int) podcast.Conversation {
	host := s.hostSpeaker()
	guest := s.generateGuest(ctx, topic)
	turns := s.generateTurns(ctx, topic, host, guest, numTurns)

	return podcast.Conversation{
		Topic: topic,
		Host:  host,
		Guest: guest,
		Turns: turns,
	}
}

func (s *Service) generateTurns(ctx context.Context, topic podcast.Topic, host, guest podcast.Speaker, numTurns int) []podcast.DialogueTurn {
	mainTurns := numTurns - outroTurnCount
	if mainTurns < 3 {
		mainTurns = 3
	}

	content, err := s.gen.Complete(ctx, llm.Request{
		JSONMode: true,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt(topic, host, guest)},
			{Role: llm.RoleUser, Content: userPrompt(topic, mainTurns)},
		},
	})

	var turns []podcast.DialogueTurn
	if err != nil {
		s.logger.Warn("conversation generation failed, using fallback", slog.String("error", err.Error()))
	} else {
		turns, err = extractTurns(content)
		if err != nil {
			s.logger.Warn("conversation response not parseable, using fallback", slog.String("error", err.Error()))
			turns = nil
		}
	}

	// Two turns or fewer means the model only produced an intro, which is
	// not worth keeping. The fixed exchange replaces it as-is; padding only
	// applies to real scripted conversations that came up short.
	if len(turns) <= 2 {
		turns = fallbackTurns(topic, host, guest)
	} else {
		expectedMin := mainTurns - 2
		if expectedMin < 5 {
			expectedMin = 5
		}
		if len(turns) < expectedMin {
			s.logger.Warn("conversation shorter than expected, padding",
				slog.Int("got", len(turns)), slog.Int("want", expectedMin))
			turns = padTurns(turns, topic, expectedMin)
		}
	}

	turns = append(turns, outroTurns(topic, host, guest)...)
	s.logger.Info("conversation scripted", slog.Int("turns", len(turns)))
	return turns
}

func systemPrompt(topic podcast.Topic, host, guest podcast.Speaker) string {
	return fmt.Sprintf("You are generating a podcast conversation between a host (%s) and "+
		"a guest expert (%s) on the topic: '%s'.\n\n"+
		"Host personality: %s\n"+
		"Host background: %s\n\n"+
		"Guest personality: %s\n"+
		"Guest background: %s\n\n"+
		"Generate a natural, engaging, and SUBSTANTIVE conversation with real content, not just an introduction and conclusion. "+
		"The host should ask thoughtful questions, and the guest should provide detailed expert insights. "+
		"The conversation must be intellectually stimulating and have significant depth and substance. "+
		"DO NOT generate generic or superficial content. Include specific details, examples, and nuanced perspectives."+
		"DO NOT include any wrap-up or conclusion - I will add those separately.",
		host.Name, guest.Name, topic.Title,
		host.Personality, host.Background,
		guest.Personality, guest.Background)
}

func userPrompt(topic podcast.Topic, mainTurns int) string {
	return fmt.Sprintf("Create a substantive intellectual podcast conversation on '%s' with EXACTLY %d turns. "+
		"The conversation MUST alternate between host and guest, starting with the host.\n\n"+
		"Essential requirements:\n"+
		"1. A brief welcoming introduction from the host (first turn only)\n"+
		"2. At least %d substantive exchanges with real intellectual content\n"+
		"3. Specific questions that explore different aspects of the topic in depth\n"+
		"4. Detailed, informative responses from the guest with examples and nuance\n"+
		"5. The conversation must progress logically with follow-up questions\n\n"+
		"Format your response as a JSON array with each element having exactly two fields: 'speaker' (either 'host' or 'guest') and 'text'.\n"+
		"DO NOT include any conclusion or wrap-up turns - those will be added separately.\n"+
		"ENSURE exactly %d turns total.",
		topic.Title, mainTurns, mainTurns-1, mainTurns)
}

// fallbackTurns is the fixed greeting exchange used when generation fails.
func fallbackTurns(topic podcast.Topic, host, guest podcast.Speaker) []podcast.DialogueTurn {
	return []podcast.DialogueTurn{
		{Speaker: podcast.RoleHost, Text: fmt.Sprintf(
			"Welcome to Pedantalk. Today we're discussing %s. I'm joined by %s, an expert in this field.",
			topic.Title, guest.Name)},
		{Speaker: podcast.RoleGuest, Text: fmt.Sprintf(
			"Thanks for having me, %s. It's a pleasure to be here to talk about this fascinating topic.",
			host.Name)},
	}
}

// padTurns appends alternating filler until the minimum is met, keeping the
// existing turns untouched and in order.
func padTurns(turns []podcast.DialogueTurn, topic podcast.Topic, minimum int) []podcast.DialogueTurn {
	next := podcast.RoleHost
	if len(turns) > 0 && turns[len(turns)-1].Speaker == podcast.RoleHost {
		next = podcast.RoleGuest
	}
	for len(turns) < minimum {
		if next == podcast.RoleHost {
			turns = append(turns, podcast.DialogueTurn{
				Speaker: podcast.RoleHost,
				Text: fmt.Sprintf("One important aspect of %s that we haven't discussed yet is the broader implications. "+
					"Could you elaborate on how this affects society at large?", topic.Title),
			})
			next = podcast.RoleGuest
		} else {
			turns = append(turns, podcast.DialogueTurn{
				Speaker: podcast.RoleGuest,
				Text: fmt.Sprintf("That's an excellent question. When we consider %s, we have to recognize that it impacts "+
					"multiple domains of human experience. Research has shown several key patterns. First, there's the "+
					"immediate effect on individuals and communities. Second, we see longer-term structural changes that "+
					"reshape institutions. Finally, there are ethical considerations that we must address carefully.", topic.Title),
			})
			next = podcast.RoleHost
		}
	}
	return turns
}

// outroTurns closes every episode: host wrap-up, guest final thoughts, host
// sign-off.
func outroTurns(topic podcast.Topic, host, guest podcast.Speaker) []podcast.DialogueTurn {
	return []podcast.DialogueTurn{
		{Speaker: podcast.RoleHost, Text: fmt.Sprintf(
			"We're approaching the end of our time. %s, I'd like to thank you for this fascinating discussion on %s. "+
				"Before we wrap up, what are your final thoughts on this topic?", guest.Name, topic.Title)},
		{Speaker: podcast.RoleGuest, Text: fmt.Sprintf(
			"Thank you for having me, %s. To summarize my thoughts on %s, I believe it's a critically important area "+
				"that will continue to evolve. I've enjoyed our conversation and hope your listeners found it insightful.",
			host.Name, topic.Title)},
		{Speaker: podcast.RoleHost, Text: fmt.Sprintf(
			"Thank you, %s, for sharing your expertise with us today. To our listeners, thank you for joining us for "+
				"another episode of Pedantalk. Please join us next time for more thought-provoking discussions. "+
				"Until then, keep questioning and stay curious.", guest.Name)},
	}
}
