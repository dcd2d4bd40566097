package audio

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pedantalk/pedantalk/internal/podcast"
	"github.com/pedantalk/pedantalk/internal/tts"
)

// Assemble synthesizes every turn of the conversation in order, inserts a
// silence gap before each non-first clip, and concatenates the result into
// <outDir>/<episodeID>_final.flac. The returned clips alternate
// [turn, silence, turn, ...]: 2N-1 clips for N turns, never a leading
// silence.
func (p *Processor) Assemble(ctx context.Context, conv podcast.Conversation, episodeID string) ([]podcast.Clip, string, error) {
	clips := make([]podcast.Clip, 0, 2*len(conv.Turns))
	for _, turn := range conv.Turns {
		if len(clips) > 0 {
			silencePath, silenceMS, err := p.GenerateSilence(ctx, episodeID)
			if err != nil {
				return clips, "", err
			}
			clips = append(clips, podcast.Clip{
				Speaker:    podcast.RoleSilence,
				Path:       silencePath,
				DurationMS: silenceMS,
			})
		}

		clip, err := p.synthesizeTurn(ctx, conv, turn, episodeID)
		if err != nil {
			return clips, "", err
		}
		clips = append(clips, clip)
	}

	finalPath := filepath.Join(p.outDir, episodeID+"_final.flac")
	paths := make([]string, len(clips))
	for i, clip := range clips {
		paths[i] = clip.Path
	}
	if err := p.Concatenate(ctx, episodeID, paths, finalPath); err != nil {
		return clips, "", err
	}
	return clips, finalPath, nil
}

// synthesizeTurn renders one utterance with the voice and optional style
// instruction of its speaker and probes the written file for its duration.
func (p *Processor) synthesizeTurn(ctx context.Context, conv podcast.Conversation, turn podcast.DialogueTurn, episodeID string) (podcast.Clip, error) {
	speaker := conv.SpeakerFor(turn.Speaker)
	path := p.clipPath(episodeID, string(turn.Speaker))

	if speaker.VoiceInstruction != "" {
		p.logger.Debug("using voice instruction",
			slog.String("voice", speaker.Voice),
			slog.String("instruction", speaker.VoiceInstruction))
	}

	err := p.synth.Synthesize(ctx, tts.SynthRequest{
		Text:        turn.Text,
		Voice:       speaker.Voice,
		Instruction: speaker.VoiceInstruction,
		OutputPath:  path,
	})
	if err != nil {
		return podcast.Clip{}, fmt.Errorf("synthesize %s turn: %w", turn.Speaker, err)
	}

	return podcast.Clip{
		Speaker:    turn.Speaker,
		Text:       turn.Text,
		Path:       path,
		DurationMS: p.DurationMS(ctx, path),
	}, nil
}
