package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seniorguard/internal/config"
	"seniorguard/internal/sources"
	"seniorguard/internal/sources/ai"
	"seniorguard/internal/sources/heuristic"
	"seniorguard/internal/sources/reputation"
	"seniorguard/pkg/logger"
)

func TestRegisterOrder(t *testing.T) {
	registry := sources.NewRegistry(logger.NewNop())
	cfg := config.ProvidersConfig{
		VirusTotal: config.ProviderConfig{Enabled: true, APIKey: "vt-key"},
	}
	require.NoError(t, Register(registry, cfg, logger.NewNop()))

	var ids []string
	for _, s := range registry.List() {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{
		heuristic.PatternSourceID,
		reputation.SafeBrowsingSourceID,
		reputation.VirusTotalSourceID,
		ai.ContentAnalyzerSourceID,
		heuristic.PhraseSourceID,
	}, ids)

	// the two heuristics plus the one credentialed provider
	assert.Equal(t, 3, registry.CountConfigured())

	assert.Error(t, Register(registry, cfg, logger.NewNop()), "ids are unique")
}

func TestNewTranscriber(t *testing.T) {
	tr := NewTranscriber(config.ProvidersConfig{}, logger.NewNop())
	assert.False(t, tr.Configured())
}
