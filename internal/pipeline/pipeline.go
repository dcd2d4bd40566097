package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/pedantalk/pedantalk/internal/audio"
	"github.com/pedantalk/pedantalk/internal/bus"
	"github.com/pedantalk/pedantalk/internal/config"
	"github.com/pedantalk/pedantalk/internal/episode"
	"github.com/pedantalk/pedantalk/internal/podcast"
	"github.com/pedantalk/pedantalk/internal/protocol"
	"github.com/pedantalk/pedantalk/internal/script"
	"github.com/pedantalk/pedantalk/internal/store"
)

// AudioAssembler is the audio stage of the pipeline. *audio.Processor is
// the production implementation.
type AudioAssembler interface {
	CleanupWorkDir()
	Assemble(ctx context.Context, conv podcast.Conversation, episodeID string) ([]podcast.Clip, string, error)
}

// EpisodeStore persists finished episodes. *store.Store is the production
// implementation.
type EpisodeStore interface {
	SaveEpisode(ctx context.Context, ep podcast.Episode) error
}

var (
	_ AudioAssembler = (*audio.Processor)(nil)
	_ EpisodeStore   = (*store.Store)(nil)
)

// Pipeline drives one episode from topic to final audio and transcript.
type Pipeline struct {
	cfg    config.Config
	script *script.Service
	audio  AudioAssembler
	store  EpisodeStore
	bus    *bus.Client
	log    *slog.Logger
	tracer trace.Tracer
	clock  func() time.Time

	clipCounter    metric.Int64Counter
	silenceCounter metric.Int64Counter
}

// New assembles the pipeline from its already-constructed stages. The store
// and bus may be disabled; both degrade to warnings.
func New(cfg config.Config, scriptSvc *script.Service, proc AudioAssembler, st EpisodeStore, busClient *bus.Client, logger *slog.Logger) (*Pipeline, error) {
	meter := otel.Meter("pedantalk/pipeline")
	clipCounter, err := meter.Int64Counter("pedantalk.clips.synthesized",
		metric.WithDescription("Speech clips synthesized"))
	if err != nil {
		return nil, fmt.Errorf("create clip counter: %w", err)
	}
	silenceCounter, err := meter.Int64Counter("pedantalk.silence.generated",
		metric.WithDescription("Silence clips generated"))
	if err != nil {
		return nil, fmt.Errorf("create silence counter: %w", err)
	}

	return &Pipeline{
		cfg:            cfg,
		script:         scriptSvc,
		audio:          proc,
		store:          st,
		bus:            busClient,
		log:            logger.With(slog.String("component", "pipeline")),
		tracer:         otel.Tracer("pedantalk/pipeline"),
		clock:          time.Now,
		clipCounter:    clipCounter,
		silenceCounter: silenceCounter,
	}, nil
}

// Run generates one full episode. When topicTitle is non-empty it is used
// verbatim instead of asking the model to invent one.
func (p *Pipeline) Run(ctx context.Context, topicTitle string) (podcast.Episode, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	p.audio.CleanupWorkDir()

	episodeID := episode.NewID(p.clock())
	p.log.Info("starting episode generation", slog.String("episode_id", episodeID))

	topic := p.resolveTopic(ctx, topicTitle)
	span.SetAttributes(attribute.String("podcast.topic", topic.Title))

	conv := p.generateConversation(ctx, topic)
	p.publish(protocol.SubjectEpisodeStarted, protocol.EpisodeStarted{
		EpisodeID: episodeID,
		Topic:     topic.Title,
		Host:      conv.Host.Name,
		Guest:     conv.Guest.Name,
		Turns:     len(conv.Turns),
		Timestamp: p.clock().UTC(),
	})

	clips, finalPath, err := p.assembleAudio(ctx, conv, episodeID)
	if err != nil {
		return podcast.Episode{}, fmt.Errorf("assemble audio: %w", err)
	}
	p.reportClips(ctx, episodeID, clips)

	ep := episode.Build(conv, clips, finalPath, episodeID)

	transcriptPath, err := episode.WriteTranscript(p.cfg.TranscriptDir(), ep)
	if err != nil {
		return podcast.Episode{}, err
	}
	ep.TranscriptPath = transcriptPath

	if err := p.store.SaveEpisode(ctx, ep); err != nil {
		p.log.Warn("failed to persist episode", slog.String("error", err.Error()))
	}

	p.publish(protocol.SubjectEpisodeCompleted, protocol.EpisodeCompleted{
		EpisodeID:       episodeID,
		AudioPath:       ep.FinalAudioPath,
		TranscriptPath:  ep.TranscriptPath,
		DurationSeconds: ep.Metadata["duration"],
		Timestamp:       p.clock().UTC(),
	})

	p.log.Info("episode complete",
		slog.String("episode_id", episodeID),
		slog.String("audio", ep.FinalAudioPath),
		slog.String("transcript", ep.TranscriptPath),
		slog.String("duration_seconds", ep.Metadata["duration"]))
	return ep, nil
}

func (p *Pipeline) resolveTopic(ctx context.Context, topicTitle string) podcast.Topic {
	ctx, span := p.tracer.Start(ctx, "topic.generate")
	defer span.End()

	if topicTitle != "" {
		p.log.Info("using requested topic", slog.String("topic", topicTitle))
		return script.TopicFromTitle(topicTitle)
	}
	topic := p.script.GenerateTopic(ctx)
	p.log.Info("generated topic", slog.String("topic", topic.Title))
	return topic
}

func (p *Pipeline) generateConversation(ctx context.Context, topic podcast.Topic) podcast.Conversation {
	ctx, span := p.tracer.Start(ctx, "conversation.generate")
	defer span.End()

	conv := p.script.GenerateConversation(ctx, topic, p.cfg.Turns)
	p.log.Info("conversation ready",
		slog.String("guest", conv.Guest.Name),
		slog.Int("turns", len(conv.Turns)))
	return conv
}

func (p *Pipeline) assembleAudio(ctx context.Context, conv podcast.Conversation, episodeID string) ([]podcast.Clip, string, error) {
	ctx, span := p.tracer.Start(ctx, "audio.assemble")
	defer span.End()

	return p.audio.Assemble(ctx, conv, episodeID)
}

// reportClips updates counters and publishes one turn event per speech clip.
func (p *Pipeline) reportClips(ctx context.Context, episodeID string, clips []podcast.Clip) {
	position := 0
	for _, clip := range clips {
		if clip.Speaker == podcast.RoleSilence {
			p.silenceCounter.Add(ctx, 1)
			continue
		}
		p.clipCounter.Add(ctx, 1)
		p.publish(protocol.SubjectEpisodeTurn, protocol.EpisodeTurn{
			EpisodeID:  episodeID,
			Position:   position,
			Speaker:    string(clip.Speaker),
			DurationMS: clip.DurationMS,
			Timestamp:  p.clock().UTC(),
		})
		position++
	}
}

func (p *Pipeline) publish(subject string, payload any) {
	p.bus.Publish(subject, payload)
}
