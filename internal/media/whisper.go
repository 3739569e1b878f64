package media

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultWhisperModel = "whisper-large-v3"

// Whisper transcribes through an OpenAI-compatible audio endpoint.
type Whisper struct {
	client *openai.Client
	model  string
}

func NewWhisper(apiKey, baseURL, model string) (*Whisper, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("transcription api key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultWhisperModel
	}
	return &Whisper{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, err
	}

	t := &Transcript{
		Text:     strings.TrimSpace(resp.Text),
		Language: resp.Language,
		Duration: resp.Duration,
		Segments: make([]Segment, 0, len(resp.Segments)),
	}
	for _, s := range resp.Segments {
		t.Segments = append(t.Segments, Segment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)})
	}
	return t, nil
}
