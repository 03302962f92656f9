// Package transcribe turns a short audio recording into text for the
// speech-to-text answer input. It has nothing to do with scoring.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
)

// ErrUnavailable is returned when no engine is configured or the engine
// produced no text.
var ErrUnavailable = fmt.Errorf("transcription engine unavailable: %w", apperr.ErrUnavailable)

type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, language string) (string, error)
}

// Whisper calls an OpenAI-compatible audio transcription endpoint.
type Whisper struct {
	api   *openai.Client
	model string
	log   *slog.Logger
}

// NewWhisper creates a client. An empty baseURL means api.openai.com.
func NewWhisper(baseURL, apiKey, model string, logger *slog.Logger) *Whisper {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Whisper{api: openai.NewClientWithConfig(config), model: model, log: logger}
}

func (w *Whisper) Transcribe(ctx context.Context, audio io.Reader, language string) (string, error) {
	if audio == nil {
		return "", fmt.Errorf("audio required: %w", apperr.ErrValidation)
	}
	if language == "" {
		language = "en"
	}
	resp, err := w.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		Reader:   audio,
		FilePath: uuid.NewString() + ".webm",
		Language: language,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		w.log.Warn("transcription failed", "language", language, "error", err)
		return "", ErrUnavailable
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrUnavailable
	}
	return text, nil
}

// Disabled always reports the engine as unavailable.
type Disabled struct{}

func (Disabled) Transcribe(context.Context, io.Reader, string) (string, error) {
	return "", ErrUnavailable
}
