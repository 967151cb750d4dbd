// Package catalog wires the signal sources the engine ships with, in their fixed evaluation order.
package catalog

import (
	"seniorguard/internal/config"
	"seniorguard/internal/sources"
	"seniorguard/internal/sources/ai"
	"seniorguard/internal/sources/heuristic"
	"seniorguard/internal/sources/reputation"
	"seniorguard/pkg/logger"
)

// Register adds every source to the registry. Order matters: it is the evaluation
// and tie-breaking order used when verdicts are merged.
func Register(registry *sources.Registry, cfg config.ProvidersConfig, log *logger.Logger) error {
	srcs := []sources.Source{
		heuristic.NewPatternHeuristic(),
		reputation.NewSafeBrowsing(cfg.SafeBrowsing, log),
		reputation.NewVirusTotal(cfg.VirusTotal, log),
		ai.NewContentAnalyzer(ai.NewLLMClient(cfg.LLM, log), log),
		heuristic.NewPhraseSpotter(),
	}
	for _, src := range srcs {
		if err := registry.Register(src); err != nil {
			return err
		}
	}

	log.Info().
		Int("sources", registry.Count()).
		Int("configured", registry.CountConfigured()).
		Msg("signal sources registered")
	return nil
}

// NewTranscriber builds the speech-to-text client for the audio path
func NewTranscriber(cfg config.ProvidersConfig, log *logger.Logger) *ai.Transcriber {
	return ai.NewTranscriber(cfg.Transcriber, log)
}
