package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/pedantalk/pedantalk/internal/audio"
	"github.com/pedantalk/pedantalk/internal/bus"
	"github.com/pedantalk/pedantalk/internal/config"
	"github.com/pedantalk/pedantalk/internal/llm"
	"github.com/pedantalk/pedantalk/internal/pipeline"
	"github.com/pedantalk/pedantalk/internal/script"
	"github.com/pedantalk/pedantalk/internal/store"
	"github.com/pedantalk/pedantalk/internal/tts"
)

// Options carries the per-invocation requests from the CLI.
type Options struct {
	// TopicTitle, when set, skips topic generation and uses the title as-is.
	TopicTitle string
}

// Runtime wires configuration into the generation pipeline and runs one
// episode end to end.
type Runtime struct {
	cfg    config.Config
	logger *slog.Logger
	opts   Options
}

func New(cfg config.Config, logger *slog.Logger, opts Options) *Runtime {
	return &Runtime{cfg: cfg, logger: logger, opts: opts}
}

// Start runs one full episode generation and tears everything down.
func (r *Runtime) Start(ctx context.Context) error {
	shutdownTelemetry, err := SetupTelemetry(r.cfg, r.logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			r.logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if err := config.EnsureDirectories(r.cfg); err != nil {
		return err
	}

	generator, synth := r.backends()
	scriptSvc := script.NewService(generator, r.cfg.Voices, r.logger)

	processor, err := audio.NewProcessor(r.cfg.Audio, r.cfg.AudioDir(), r.cfg.Output.Dir, synth, r.logger)
	if err != nil {
		return err
	}

	episodeStore, err := store.Open(ctx, r.cfg.Store, r.logger)
	if err != nil {
		return err
	}
	defer episodeStore.Close()

	busClient, err := bus.Connect(r.cfg.Bus, r.logger)
	if err != nil {
		return err
	}
	defer busClient.Close()

	p, err := pipeline.New(r.cfg, scriptSvc, processor, episodeStore, busClient, r.logger)
	if err != nil {
		return err
	}

	_, err = p.Run(ctx, r.opts.TopicTitle)
	return err
}

// backends picks the model and speech implementations. Mock mode runs the
// whole pipeline without network calls, exercising every fallback path.
func (r *Runtime) backends() (llm.Generator, tts.Synthesizer) {
	if r.cfg.OpenAI.Mock {
		r.logger.Warn("mock mode enabled, no OpenAI calls will be made")
		return llm.NewMockGenerator(), tts.NewMockSynth()
	}
	generator := llm.NewOpenAIGenerator(r.cfg.OpenAI.APIKey, r.cfg.OpenAI.Model, r.cfg.OpenAI.BaseURL)
	synth := tts.NewOpenAISynth(r.cfg.OpenAI.APIKey, r.cfg.OpenAI.TTSModel, r.cfg.OpenAI.BaseURL)
	return generator, synth
}
