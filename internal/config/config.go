// Package config provides configuration management for the citation service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/helixir/citation-service/internal/citation"
	"github.com/helixir/citation-service/internal/domain"
	"github.com/helixir/citation-service/internal/relevance"
	"github.com/helixir/citation-service/internal/text"
)

// Config holds all configuration for the citation service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains metrics settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Limits bounds request payloads.
	Limits LimitsConfig `mapstructure:"limits"`
	// PaperSources contains settings for the bibliographic sources.
	PaperSources PaperSourcesConfig `mapstructure:"paper_sources"`
	// Pipeline contains the tunable citation pipeline settings.
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the address to bind to.
	Host string `mapstructure:"host"`
	// HTTPPort is the port for the HTTP API.
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the port for Prometheus metrics.
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the maximum time to wait for the next request on a keep-alive connection.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output (stdout, stderr, or file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log entries.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the time format for log entries.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// LimitsConfig bounds the accepted input sizes, in characters.
type LimitsConfig struct {
	MaxTopicLength int `mapstructure:"max_topic_length"`
	MaxTextLength  int `mapstructure:"max_text_length"`
}

// PaperSourcesConfig holds configuration for the bibliographic sources.
type PaperSourcesConfig struct {
	// PubMed contains NCBI E-utilities settings.
	PubMed PubMedConfig `mapstructure:"pubmed"`
	// Scholar contains SerpAPI Google Scholar settings.
	Scholar ScholarConfig `mapstructure:"scholar"`
}

// PubMedConfig holds configuration for the PubMed source.
type PubMedConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the NCBI API key (loaded from CITAS_PAPER_SOURCES_PUBMED_API_KEY).
	APIKey string `mapstructure:"-"`
	// BaseURL is the E-utilities base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout of the esearch call.
	Timeout time.Duration `mapstructure:"timeout"`
	// FetchTimeout is the timeout of each esummary and efetch call.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	// FetchInterval is the minimum spacing between calls.
	FetchInterval time.Duration `mapstructure:"fetch_interval"`
	// MaxResults is the number of articles kept per request.
	MaxResults int `mapstructure:"max_results"`
	// FetchAbstracts enables efetch enrichment.
	FetchAbstracts bool `mapstructure:"fetch_abstracts"`
}

// ScholarConfig holds configuration for the Google Scholar source.
type ScholarConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the SerpAPI key (loaded from CITAS_PAPER_SOURCES_SCHOLAR_API_KEY).
	APIKey string `mapstructure:"-"`
	// BaseURL is the SerpAPI base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxResults is the number of articles kept per request.
	MaxResults int `mapstructure:"max_results"`
	// RateLimit is the maximum requests per second sent to SerpAPI.
	RateLimit float64 `mapstructure:"rate_limit"`
	// YearFrom is the lower publication year bound; 0 derives it from the current year.
	YearFrom int `mapstructure:"year_from"`
}

// PipelineConfig holds the citation pipeline settings.
type PipelineConfig struct {
	// LexiconPath points to a YAML lexicon replacing the embedded one.
	LexiconPath string `mapstructure:"lexicon_path"`
	// Tokenizer selects the sentence and word splitter (linguistic, basic).
	Tokenizer string `mapstructure:"tokenizer"`
	// QueryVariant selects the query builder variant (basic, advanced).
	QueryVariant string `mapstructure:"query_variant"`
	// RecencyYears is the PubMed publication-date window.
	RecencyYears int `mapstructure:"recency_years"`
	// MaxTerms caps the extracted search terms.
	MaxTerms int `mapstructure:"max_terms"`
	// MaxSelected caps the selected articles across sources.
	MaxSelected int `mapstructure:"max_selected"`
	// Thresholds are the admission scores per source.
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	// Weights are the relevance rule weights.
	Weights WeightsConfig `mapstructure:"weights"`
	// TitlePrefixLength is the folded title prefix used as dedup key.
	TitlePrefixLength int `mapstructure:"title_prefix_length"`
	// CadenceEvery marks every n-th sentence when no trigger phrase matches.
	CadenceEvery int `mapstructure:"cadence_every"`
	// CadenceMinSentences is the shortest document where cadence applies.
	CadenceMinSentences int `mapstructure:"cadence_min_sentences"`
}

// ThresholdsConfig holds the relevance admission threshold per source.
type ThresholdsConfig struct {
	PubMed  float64 `mapstructure:"pubmed"`
	Scholar float64 `mapstructure:"scholar"`
}

// WeightsConfig mirrors relevance.Weights.
type WeightsConfig struct {
	Title            float64 `mapstructure:"title"`
	Body             float64 `mapstructure:"body"`
	PartialTitle     float64 `mapstructure:"partial_title"`
	Occurrence       float64 `mapstructure:"occurrence"`
	MeSHExact        float64 `mapstructure:"mesh_exact"`
	MeSHPartial      float64 `mapstructure:"mesh_partial"`
	Concept          float64 `mapstructure:"concept"`
	Quality          float64 `mapstructure:"quality"`
	DensityScale     float64 `mapstructure:"density_scale"`
	DensityCap       float64 `mapstructure:"density_cap"`
	UntrustedPenalty float64 `mapstructure:"untrusted_penalty"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Relevance converts the configured weights into relevance.Weights.
func (w WeightsConfig) Relevance() relevance.Weights {
	return relevance.Weights{
		Title:            w.Title,
		Body:             w.Body,
		PartialTitle:     w.PartialTitle,
		Occurrence:       w.Occurrence,
		MeSHExact:        w.MeSHExact,
		MeSHPartial:      w.MeSHPartial,
		Concept:          w.Concept,
		Quality:          w.Quality,
		DensityScale:     w.DensityScale,
		DensityCap:       w.DensityCap,
		UntrustedPenalty: w.UntrustedPenalty,
	}
}

// Citation returns the citation service settings derived from the configuration.
func (c *Config) Citation() citation.Config {
	return citation.Config{
		Tokenizer:       c.Pipeline.Tokenizer,
		QueryVariant:    domain.QueryVariant(c.Pipeline.QueryVariant),
		RecencyYears:    c.Pipeline.RecencyYears,
		ScholarYearFrom: c.PaperSources.Scholar.YearFrom,
		MaxTerms:        c.Pipeline.MaxTerms,
		Weights:         c.Pipeline.Weights.Relevance(),
		Thresholds: map[domain.SourceType]float64{
			domain.SourceTypePubMed:  c.Pipeline.Thresholds.PubMed,
			domain.SourceTypeScholar: c.Pipeline.Thresholds.Scholar,
		},
		PerSource: map[domain.SourceType]int{
			domain.SourceTypePubMed:  c.PaperSources.PubMed.MaxResults,
			domain.SourceTypeScholar: c.PaperSources.Scholar.MaxResults,
		},
		MaxSelected:         c.Pipeline.MaxSelected,
		TitlePrefixLength:   c.Pipeline.TitlePrefixLength,
		CadenceEvery:        c.Pipeline.CadenceEvery,
		CadenceMinSentences: c.Pipeline.CadenceMinSentences,
		MaxTopicLength:      c.Limits.MaxTopicLength,
		MaxTextLength:       c.Limits.MaxTextLength,
	}
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("CITAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/citation-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets come only from the environment.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// These fields are tagged with mapstructure:"-" to prevent loading from config files.
func loadSecrets(cfg *Config) {
	cfg.PaperSources.PubMed.APIKey = os.Getenv("CITAS_PAPER_SOURCES_PUBMED_API_KEY")
	cfg.PaperSources.Scholar.APIKey = os.Getenv("CITAS_PAPER_SOURCES_SCHOLAR_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 5000)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "2m")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Limits defaults
	v.SetDefault("limits.max_topic_length", citation.DefaultMaxTopicLength)
	v.SetDefault("limits.max_text_length", citation.DefaultMaxTextLength)

	// Paper sources defaults - PubMed
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("paper_sources.pubmed.enabled", true)
	v.SetDefault("paper_sources.pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("paper_sources.pubmed.timeout", "15s")
	v.SetDefault("paper_sources.pubmed.fetch_timeout", "10s")
	v.SetDefault("paper_sources.pubmed.fetch_interval", "300ms") // NCBI allows ~3 req/sec without a key
	v.SetDefault("paper_sources.pubmed.max_results", 3)
	v.SetDefault("paper_sources.pubmed.fetch_abstracts", true)

	// Paper sources defaults - Google Scholar via SerpAPI
	v.SetDefault("paper_sources.scholar.enabled", true)
	v.SetDefault("paper_sources.scholar.base_url", "https://serpapi.com")
	v.SetDefault("paper_sources.scholar.timeout", "20s")
	v.SetDefault("paper_sources.scholar.max_results", 2)
	v.SetDefault("paper_sources.scholar.rate_limit", 1.0)
	v.SetDefault("paper_sources.scholar.year_from", 0)

	// Pipeline defaults
	weights := relevance.DefaultWeights()
	thresholds := relevance.DefaultThresholds()
	v.SetDefault("pipeline.lexicon_path", "")
	v.SetDefault("pipeline.tokenizer", text.Linguistic)
	v.SetDefault("pipeline.query_variant", string(domain.QueryVariantBasic))
	v.SetDefault("pipeline.recency_years", 10)
	v.SetDefault("pipeline.max_terms", 4)
	v.SetDefault("pipeline.max_selected", 5)
	v.SetDefault("pipeline.thresholds.pubmed", thresholds[domain.SourceTypePubMed])
	v.SetDefault("pipeline.thresholds.scholar", thresholds[domain.SourceTypeScholar])
	v.SetDefault("pipeline.weights.title", weights.Title)
	v.SetDefault("pipeline.weights.body", weights.Body)
	v.SetDefault("pipeline.weights.partial_title", weights.PartialTitle)
	v.SetDefault("pipeline.weights.occurrence", weights.Occurrence)
	v.SetDefault("pipeline.weights.mesh_exact", weights.MeSHExact)
	v.SetDefault("pipeline.weights.mesh_partial", weights.MeSHPartial)
	v.SetDefault("pipeline.weights.concept", weights.Concept)
	v.SetDefault("pipeline.weights.quality", weights.Quality)
	v.SetDefault("pipeline.weights.density_scale", weights.DensityScale)
	v.SetDefault("pipeline.weights.density_cap", weights.DensityCap)
	v.SetDefault("pipeline.weights.untrusted_penalty", weights.UntrustedPenalty)
	v.SetDefault("pipeline.title_prefix_length", 50)
	v.SetDefault("pipeline.cadence_every", 3)
	v.SetDefault("pipeline.cadence_min_sentences", 3)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}
	if c.Metrics.Enabled && c.Server.MetricsPort == c.Server.HTTPPort {
		return fmt.Errorf("metrics port must differ from HTTP port: %d", c.Server.MetricsPort)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate limits
	if c.Limits.MaxTopicLength <= 0 {
		return fmt.Errorf("limits max_topic_length must be positive")
	}
	if c.Limits.MaxTextLength <= 0 {
		return fmt.Errorf("limits max_text_length must be positive")
	}

	// Validate sources
	if c.PaperSources.PubMed.MaxResults <= 0 {
		return fmt.Errorf("pubmed max_results must be positive")
	}
	if c.PaperSources.Scholar.MaxResults <= 0 {
		return fmt.Errorf("scholar max_results must be positive")
	}
	if c.PaperSources.Scholar.RateLimit <= 0 {
		return fmt.Errorf("scholar rate_limit must be positive")
	}
	if c.PaperSources.Scholar.YearFrom < 0 {
		return fmt.Errorf("scholar year_from must not be negative")
	}

	// Validate pipeline
	switch c.Pipeline.Tokenizer {
	case text.Linguistic, text.Basic:
	default:
		return fmt.Errorf("invalid tokenizer: %q", c.Pipeline.Tokenizer)
	}
	switch domain.QueryVariant(c.Pipeline.QueryVariant) {
	case domain.QueryVariantBasic, domain.QueryVariantAdvanced:
	default:
		return fmt.Errorf("invalid query variant: %q", c.Pipeline.QueryVariant)
	}
	if c.Pipeline.RecencyYears <= 0 {
		return fmt.Errorf("pipeline recency_years must be positive")
	}
	if c.Pipeline.MaxTerms <= 0 {
		return fmt.Errorf("pipeline max_terms must be positive")
	}
	if c.Pipeline.MaxSelected <= 0 {
		return fmt.Errorf("pipeline max_selected must be positive")
	}
	if c.Pipeline.TitlePrefixLength <= 0 {
		return fmt.Errorf("pipeline title_prefix_length must be positive")
	}
	if c.Pipeline.CadenceEvery <= 0 {
		return fmt.Errorf("pipeline cadence_every must be positive")
	}
	if c.Pipeline.CadenceMinSentences <= 0 {
		return fmt.Errorf("pipeline cadence_min_sentences must be positive")
	}
	if c.Pipeline.Thresholds.PubMed < 0 || c.Pipeline.Thresholds.Scholar < 0 {
		return fmt.Errorf("pipeline thresholds must not be negative")
	}

	return nil
}
