package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
)

const defaultEndpoint = "https://api.openai.com/v1"

// openaiSynth calls the speech endpoint directly. The client library's
// speech request has no voice-instructions field, so the payload is built by
// hand against the documented API.
type openaiSynth struct {
	apiKey     string
	model      string
	baseURL    string
	format     string
	httpClient *http.Client
}

type speechPayload struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
	Instructions   string `json:"instructions,omitempty"`
}

// NewOpenAISynth builds a Synthesizer producing FLAC files via the speech
// API. baseURL overrides the API host when non-empty.
func NewOpenAISynth(apiKey, model, baseURL string) Synthesizer {
	if baseURL == "" {
		baseURL = defaultEndpoint
	}
	return &openaiSynth{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		format:     "flac",
		httpClient: &http.Client{},
	}
}

func (s *openaiSynth) Synthesize(ctx context.Context, req SynthRequest) error {
	if req.Text == "" {
		return errors.New("synthesis text must not be empty")
	}
	if req.OutputPath == "" {
		return errors.New("synthesis output path must not be empty")
	}

	payload := speechPayload{
		Model:          s.model,
		Input:          req.Text,
		Voice:          req.Voice,
		ResponseFormat: s.format,
		Instructions:   req.Instruction,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("speech service returned %s: %s", resp.Status, detail)
	}

	out, err := os.Create(req.OutputPath)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(req.OutputPath)
		return fmt.Errorf("write audio file: %w", err)
	}
	return out.Close()
}
