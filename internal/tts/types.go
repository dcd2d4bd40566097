package tts

import "context"

// SynthRequest describes one utterance to render to disk.
type SynthRequest struct {
	Text        string
	Voice       string
	Instruction string
	OutputPath  string
}

// Synthesizer writes spoken audio for a request to req.OutputPath.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthRequest) error
}
