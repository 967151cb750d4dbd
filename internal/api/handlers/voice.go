package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"seniorguard/internal/domain/services"
	"seniorguard/pkg/logger"
)

// multipartOverhead is allowed on top of the audio size limit for form boundaries and headers
const multipartOverhead = 64 * 1024

// VoiceHandler serves the call analysis endpoints
type VoiceHandler struct {
	engine        *services.Engine
	maxAudioBytes int64
	logger        *logger.Logger
}

func NewVoiceHandler(engine *services.Engine, maxAudioBytes int, log *logger.Logger) *VoiceHandler {
	return &VoiceHandler{
		engine:        engine,
		maxAudioBytes: int64(maxAudioBytes),
		logger:        log.WithComponent("voice-handler"),
	}
}

type TranscriptRequest struct {
	Transcript string `json:"transcript"`
}

type StreamRequest struct {
	Chunks []string `json:"chunks"`
}

// AnalyzeAudio handles POST /api/v1/voice/audio with a multipart "audio" file.
// The format is taken from the file extension.
func (h *VoiceHandler) AnalyzeAudio(w http.ResponseWriter, r *http.Request) {
	if h.maxAudioBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxAudioBytes+multipartOverhead)
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusBadRequest, "audio exceeds maximum size")
			return
		}
		respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read audio file")
		return
	}

	format := strings.TrimPrefix(filepath.Ext(header.Filename), ".")
	v, err := h.engine.ScanVoiceAudio(r.Context(), data, format)
	if err != nil {
		respondScanError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// AnalyzeText handles POST /api/v1/voice/text
func (h *VoiceHandler) AnalyzeText(w http.ResponseWriter, r *http.Request) {
	var req TranscriptRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := h.engine.ScanVoiceText(r.Context(), req.Transcript)
	if err != nil {
		respondScanError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// AnalyzeStream handles POST /api/v1/voice/stream
func (h *VoiceHandler) AnalyzeStream(w http.ResponseWriter, r *http.Request) {
	var req StreamRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := h.engine.ScanVoiceStream(r.Context(), req.Chunks)
	if err != nil {
		respondScanError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}
