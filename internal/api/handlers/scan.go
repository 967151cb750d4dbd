package handlers

import (
	"net/http"

	"seniorguard/internal/domain/services"
	"seniorguard/pkg/logger"
)

// ScanHandler serves the link, message and email scans
type ScanHandler struct {
	engine *services.Engine
	logger *logger.Logger
}

func NewScanHandler(engine *services.Engine, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		engine: engine,
		logger: log.WithComponent("scan-handler"),
	}
}

type URLScanRequest struct {
	URL string `json:"url"`
}

type TextScanRequest struct {
	Text string `json:"text"`
}

type EmailScanRequest struct {
	Content string `json:"content"`
}

// ScanURL handles POST /api/v1/scan/url
func (h *ScanHandler) ScanURL(w http.ResponseWriter, r *http.Request) {
	var req URLScanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := h.engine.ScanURL(r.Context(), req.URL)
	if err != nil {
		respondScanError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// ScanText handles POST /api/v1/scan/text
func (h *ScanHandler) ScanText(w http.ResponseWriter, r *http.Request) {
	var req TextScanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := h.engine.ScanText(r.Context(), req.Text)
	if err != nil {
		respondScanError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// ScanEmail handles POST /api/v1/scan/email
func (h *ScanHandler) ScanEmail(w http.ResponseWriter, r *http.Request) {
	var req EmailScanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := h.engine.ScanEmail(r.Context(), req.Content)
	if err != nil {
		respondScanError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}
