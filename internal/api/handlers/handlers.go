package handlers

import (
	"seniorguard/internal/domain/services"
	"seniorguard/internal/streaming"
	"seniorguard/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health    *HealthHandler
	Scan      *ScanHandler
	Voice     *VoiceHandler
	Streaming *StreamingHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Engine        *services.Engine
	Checks        map[string]Checker
	EventBus      *streaming.EventBus
	WSHub         *streaming.WebSocketHub
	MaxAudioBytes int
	Version       string
	Logger        *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Engine, deps.Checks, deps.Version, deps.Logger),
		Scan:      NewScanHandler(deps.Engine, deps.Logger),
		Voice:     NewVoiceHandler(deps.Engine, deps.MaxAudioBytes, deps.Logger),
		Streaming: NewStreamingHandler(deps.WSHub, deps.EventBus, deps.Logger),
	}
}
