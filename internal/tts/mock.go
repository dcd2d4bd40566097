package tts

import (
	"context"
	"errors"
	"os"
)

// MockSynth writes a small placeholder file per request and records every
// request it sees.
type MockSynth struct {
	Err      error
	Requests []SynthRequest
}

func NewMockSynth() *MockSynth { return &MockSynth{} }

func (m *MockSynth) Synthesize(ctx context.Context, req SynthRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Text == "" {
		return errors.New("synthesis text must not be empty")
	}
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return m.Err
	}
	return os.WriteFile(req.OutputPath, []byte("mock audio: "+req.Text), 0o644)
}
