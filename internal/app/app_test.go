package app

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/citation-service/internal/config"
	"github.com/helixir/citation-service/internal/domain"
	"github.com/helixir/citation-service/internal/observability"
	"github.com/helixir/citation-service/internal/papersources"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.PaperSources.PubMed.Enabled = true
	cfg.PaperSources.PubMed.MaxResults = 3
	cfg.PaperSources.Scholar.Enabled = true
	cfg.PaperSources.Scholar.MaxResults = 2
	return cfg
}

func TestRegisterPaperSources(t *testing.T) {
	t.Run("scholar skipped without key", func(t *testing.T) {
		registry := papersources.NewRegistry()
		RegisterPaperSources(registry, testConfig(), nil, zerolog.Nop())

		sources := registry.AllSources()
		require.Len(t, sources, 1)
		assert.Equal(t, domain.SourceTypePubMed, sources[0].SourceType())
	})

	t.Run("both sources with key", func(t *testing.T) {
		cfg := testConfig()
		cfg.PaperSources.Scholar.APIKey = "serp-key"

		registry := papersources.NewRegistry()
		RegisterPaperSources(registry, cfg, nil, zerolog.Nop())

		assert.NotNil(t, registry.Get(domain.SourceTypePubMed))
		assert.NotNil(t, registry.Get(domain.SourceTypeScholar))
	})

	t.Run("disabled sources", func(t *testing.T) {
		cfg := testConfig()
		cfg.PaperSources.PubMed.Enabled = false
		cfg.PaperSources.Scholar.Enabled = false

		registry := papersources.NewRegistry()
		RegisterPaperSources(registry, cfg, nil, zerolog.Nop())
		assert.Empty(t, registry.AllSources())
	})
}

func TestNewService(t *testing.T) {
	t.Run("embedded lexicon", func(t *testing.T) {
		metrics := observability.NewMetrics("test_app_service")
		svc, err := NewService(testConfig(), metrics, zerolog.Nop())
		require.NoError(t, err)

		topic, doc := svc.Limits()
		assert.Equal(t, 200, topic)
		assert.Equal(t, 5000, doc)
	})

	t.Run("missing lexicon file", func(t *testing.T) {
		cfg := testConfig()
		cfg.Pipeline.LexiconPath = filepath.Join(t.TempDir(), "missing.yaml")

		_, err := NewService(cfg, nil, zerolog.Nop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing.yaml")
	})

	t.Run("logs enabled sources", func(t *testing.T) {
		cfg := testConfig()
		cfg.PaperSources.Scholar.APIKey = "serp-key"

		var logs bytes.Buffer
		_, err := NewService(cfg, nil, zerolog.New(&logs))
		require.NoError(t, err)
		assert.Contains(t, logs.String(), `"sources":["pubmed","scholar"]`)
		assert.Contains(t, logs.String(), `"message":"paper sources enabled"`)
	})

	t.Run("warns without sources", func(t *testing.T) {
		cfg := testConfig()
		cfg.PaperSources.PubMed.Enabled = false
		cfg.PaperSources.Scholar.Enabled = false

		var logs bytes.Buffer
		_, err := NewService(cfg, nil, zerolog.New(&logs))
		require.NoError(t, err)
		assert.Contains(t, logs.String(), `"level":"warn"`)
		assert.Contains(t, logs.String(), "no paper sources enabled")
	})

	t.Run("unknown tokenizer", func(t *testing.T) {
		cfg := testConfig()
		cfg.Pipeline.Tokenizer = "nltk"

		_, err := NewService(cfg, nil, zerolog.Nop())
		assert.Error(t, err)
	})
}
