package script

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/pedantalk/pedantalk/internal/llm"
	"github.com/pedantalk/pedantalk/internal/podcast"
)

// FallbackTopic is used whenever topic generation fails or parses badly.
var FallbackTopic = podcast.Topic{
	Title:       "The Future of Artificial Intelligence",
	Description: "Exploring the ethical implications and potential developments of AI in the next decade.",
	Keywords:    []string{"AI ethics", "future technology", "machine learning"},
}

// GenerateTopic asks the model for a fresh episode topic.
func (s *Service) GenerateTopic(ctx context.Context) podcast.Topic {
	req := llm.Request{
		JSONMode: true,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You are a podcast topic generator. Generate an interesting topic for " +
				"an intellectual discussion podcast. The topic should be thought-provoking " +
				"and suitable for a 20-30 minute conversation between a curious host and " +
				"an expert guest."},
			{Role: llm.RoleUser, Content: "Generate a podcast topic with the following JSON structure:\n" +
				"{\n" +
				"  \"title\": \"Topic title\",\n" +
				"  \"description\": \"A paragraph describing the topic\",\n" +
				"  \"keywords\": [\"keyword1\", \"keyword2\", \"keyword3\"]\n" +
				"}"},
		},
	}

	content, err := s.gen.Complete(ctx, req)
	if err != nil {
		s.logger.Warn("topic generation failed, using fallback", slog.String("error", err.Error()))
		return FallbackTopic
	}

	var topic podcast.Topic
	if err := json.Unmarshal([]byte(content), &topic); err != nil || topic.Title == "" {
		s.logger.Warn("topic response not parseable, using fallback")
		return FallbackTopic
	}
	return topic
}

// TopicFromTitle builds a Topic for a user-supplied title, skipping generation.
func TopicFromTitle(title string) podcast.Topic {
	return podcast.Topic{
		Title:       title,
		Description: "Exploring " + title + " in depth.",
		Keywords:    []string{strings.ToLower(title)},
	}
}
