package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strings"
	"time"

	"seniorguard/internal/config"
	"seniorguard/internal/domain/models"
	"seniorguard/pkg/logger"
)

const (
	TranscriberSourceID = "transcriber"

	whisperURL   = "https://api.openai.com/v1/audio/transcriptions"
	whisperModel = "whisper-1"
)

var audioFormats = []string{"wav", "mp3", "m4a", "ogg"}

// AudioFormats lists the accepted audio container formats
func AudioFormats() []string {
	return slices.Clone(audioFormats)
}

// ValidateAudio rejects empty, oversized or unsupported audio before any remote call
func ValidateAudio(data []byte, format string, maxBytes int64) (string, error) {
	format = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
	if !slices.Contains(audioFormats, format) {
		return "", models.NewInputValidationError("format", models.ErrUnsupportedAudioFormat,
			fmt.Sprintf("%q is not one of %s", format, strings.Join(audioFormats, ", ")))
	}
	if len(data) == 0 {
		return "", models.NewInputValidationError("audio", models.ErrEmptyInput, "")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", models.NewInputValidationError("audio", models.ErrInputTooLarge,
			fmt.Sprintf("%d bytes exceeds the %d byte limit", len(data), maxBytes))
	}
	return format, nil
}

// Transcription is the recognized text of an audio clip
type Transcription struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// Transcriber turns captured audio into text through the Whisper transcription API
type Transcriber struct {
	apiURL     string
	apiKey     string
	enabled    bool
	timeout    time.Duration
	httpClient *http.Client
	logger     *logger.Logger
}

// NewTranscriber creates a Whisper transcriber
func NewTranscriber(cfg config.ProviderConfig, log *logger.Logger) *Transcriber {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = whisperURL
	}

	return &Transcriber{
		apiURL:     apiURL,
		apiKey:     cfg.APIKey,
		enabled:    cfg.Enabled,
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     log.WithComponent("transcriber"),
	}
}

// Configured reports whether an API key is present
func (t *Transcriber) Configured() bool {
	return t.enabled && t.apiKey != ""
}

// Transcribe uploads the clip and returns its text. format must already be validated.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, format string) (*Transcription, error) {
	if !t.Configured() {
		return nil, models.ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "audio."+format)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to write audio: %w", err)
	}
	_ = w.WriteField("model", whisperModel)
	_ = w.WriteField("response_format", "verbose_json")
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, models.NewTransientError(TranscriberSourceID, 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, models.NewTransientError(TranscriberSourceID, resp.StatusCode, strings.TrimSpace(string(body)), nil)
	}

	var result Transcription
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &models.ProviderError{
			Kind:       models.ErrorKindMalformedResponse,
			Source:     TranscriberSourceID,
			Message:    "failed to decode transcription",
			Underlying: err,
		}
	}

	t.logger.Debug().
		Int("audio_bytes", len(audio)).
		Str("language", result.Language).
		Int("transcript_chars", len(result.Text)).
		Msg("audio transcribed")

	return &result, nil
}
