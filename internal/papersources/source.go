// Package papersources provides the interface and shared plumbing for the
// external literature sources the citation pipeline queries.
//
// Each bibliographic backend (PubMed, Google Scholar) implements
// ArticleSource and normalizes its responses into domain.Article records.
// The Registry runs every enabled source concurrently and turns a failed
// source into an empty contribution.
//
// Example usage:
//
//	source := pubmed.New(cfg, logger)
//	params := papersources.SearchParams{
//		Query:      builder.PubMed("fisioterapia", terms),
//		MaxResults: 3,
//	}
//	result, err := source.Search(ctx, params)
package papersources

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/helixir/citation-service/internal/domain"
)

// SearchParams defines the parameters for one source search.
type SearchParams struct {
	// Query is the source-specific boolean query. Query.Source should match
	// the source receiving it.
	Query domain.Query

	// MaxResults is the number of articles the caller intends to keep after
	// scoring. Sources over-fetch relative to it so the scorer has room to
	// filter. A value of 0 uses the source's default.
	MaxResults int
}

// SearchResult contains the articles returned by one source search.
type SearchResult struct {
	// Articles contains the normalized records, in source relevance order.
	Articles []*domain.Article

	// TotalResults is the number of identifiers or records the search call
	// returned before per-record fetching and filtering.
	TotalResults int

	// Skipped counts records dropped because their fetch or parse failed.
	Skipped int

	// Source identifies which source provided these results.
	Source domain.SourceType

	// SearchDuration is the wall time of the whole search, including
	// per-record fetches and scheduler waits.
	SearchDuration time.Duration
}

// ArticleSource is implemented by every literature source client.
type ArticleSource interface {
	// Search runs the query against the source. Failures of individual
	// records are skipped and counted in SearchResult.Skipped; a failure of
	// the search call itself is returned as a *domain.ExternalAPIError.
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// SourceType returns the type identifier for this source.
	SourceType() domain.SourceType

	// Name returns a human-readable name used in logs and metrics.
	Name() string

	// IsEnabled reports whether the source is configured for use.
	IsEnabled() bool
}

// RequestRecorder receives per-request telemetry from source clients.
// observability.Metrics implements it.
type RequestRecorder interface {
	RecordSourceRequest(source, endpoint string, durationSeconds float64)
	RecordSourceRequestFailed(source, endpoint, errorType string)
}

// NopRecorder is a RequestRecorder that discards everything.
type NopRecorder struct{}

// RecordSourceRequest implements RequestRecorder.
func (NopRecorder) RecordSourceRequest(string, string, float64) {}

// RecordSourceRequestFailed implements RequestRecorder.
func (NopRecorder) RecordSourceRequestFailed(string, string, string) {}

// ErrorType returns a short label for a failed request, for metrics.
func ErrorType(statusCode int, err error) string {
	switch {
	case statusCode == 429:
		return "rate_limited"
	case statusCode >= 500:
		return "server_error"
	case statusCode >= 400:
		return "client_error"
	case err != nil && isTimeout(err):
		return "timeout"
	case err != nil:
		return "network"
	default:
		return "malformed"
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
