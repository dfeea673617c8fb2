// Package app assembles the citation pipeline from configuration. Both the
// HTTP server and the command-line client build their service through it.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/helixir/citation-service/internal/citation"
	"github.com/helixir/citation-service/internal/config"
	"github.com/helixir/citation-service/internal/lexicon"
	"github.com/helixir/citation-service/internal/observability"
	"github.com/helixir/citation-service/internal/papersources"
	"github.com/helixir/citation-service/internal/papersources/pubmed"
	"github.com/helixir/citation-service/internal/papersources/scholar"
)

// NewService loads the lexicon, registers the enabled sources and returns
// the pipeline. metrics may be nil.
func NewService(cfg *config.Config, metrics *observability.Metrics, logger zerolog.Logger) (*citation.Service, error) {
	lex, err := loadLexicon(cfg.Pipeline.LexiconPath)
	if err != nil {
		return nil, err
	}

	registry := papersources.NewRegistry()
	RegisterPaperSources(registry, cfg, metrics, logger)
	logEnabledSources(registry, logger)

	var opts []citation.Option
	if metrics != nil {
		opts = append(opts, citation.WithRecorder(metrics))
	}

	svc, err := citation.New(lex, registry, cfg.Citation(), logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("create citation service: %w", err)
	}
	return svc, nil
}

// logEnabledSources reports which sources will be queried. With none the
// pipeline still answers, but every reference list comes back empty.
func logEnabledSources(registry *papersources.Registry, logger zerolog.Logger) {
	enabled := registry.EnabledSources()
	if len(enabled) == 0 {
		logger.Warn().Msg("no paper sources enabled, citations will be empty")
		return
	}
	names := make([]string, 0, len(enabled))
	for _, s := range enabled {
		names = append(names, string(s.SourceType()))
	}
	logger.Info().Strs("sources", names).Msg("paper sources enabled")
}

func loadLexicon(path string) (*lexicon.Lexicon, error) {
	if path == "" {
		lex, err := lexicon.Default()
		if err != nil {
			return nil, fmt.Errorf("load embedded lexicon: %w", err)
		}
		return lex, nil
	}
	lex, err := lexicon.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load lexicon %s: %w", path, err)
	}
	return lex, nil
}

// RegisterPaperSources registers all enabled paper sources with the registry.
func RegisterPaperSources(registry *papersources.Registry, cfg *config.Config, metrics *observability.Metrics, logger zerolog.Logger) {
	// PubMed.
	if cfg.PaperSources.PubMed.Enabled {
		pmCfg := cfg.PaperSources.PubMed
		pmClient := pubmed.New(pubmed.Config{
			BaseURL:        pmCfg.BaseURL,
			APIKey:         pmCfg.APIKey,
			Timeout:        pmCfg.Timeout,
			FetchTimeout:   pmCfg.FetchTimeout,
			FetchInterval:  pmCfg.FetchInterval,
			MaxResults:     pmCfg.MaxResults,
			FetchAbstracts: pmCfg.FetchAbstracts,
			Enabled:        true,
		}, logger)
		if metrics != nil {
			pmClient.SetRecorder(metrics)
		}
		registry.Register(pmClient)
		logger.Info().Msg("registered paper source: PubMed")
	}

	// Google Scholar (only if API key is provided).
	if cfg.PaperSources.Scholar.Enabled {
		scCfg := cfg.PaperSources.Scholar
		if scCfg.APIKey == "" {
			logger.Warn().Msg("SerpAPI key not set, Google Scholar disabled")
			return
		}
		scClient := scholar.NewClient(scholar.Config{
			BaseURL:    scCfg.BaseURL,
			APIKey:     scCfg.APIKey,
			Timeout:    scCfg.Timeout,
			MaxResults: scCfg.MaxResults,
			RateLimit:  scCfg.RateLimit,
			Enabled:    true,
		}, nil, logger)
		if metrics != nil {
			scClient.SetRecorder(metrics)
		}
		registry.Register(scClient)
		logger.Info().Msg("registered paper source: Google Scholar")
	}
}
