package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/helixir/citation-service/internal/domain"
	"github.com/helixir/citation-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default base URL for SerpAPI.
	DefaultBaseURL = "https://serpapi.com"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 20 * time.Second

	// DefaultMaxResults is the number of articles a caller usually keeps.
	DefaultMaxResults = 2

	// DefaultRateLimit is the default SerpAPI request rate per second.
	DefaultRateLimit = 1.0

	// DefaultYearSpan is how far back the year lower bound reaches when a
	// query carries none.
	DefaultYearSpan = 8

	// MinTitleLength is the rune count under which a result title is noise.
	MinTitleLength = 15

	// searchFactor over-fetches relative to the kept count.
	searchFactor = 3

	// engine selects the Google Scholar engine on SerpAPI.
	engine = "google_scholar"

	// sourceName is the human-readable name for this source.
	sourceName = "Google Scholar"
)

// Config contains configuration options for the Scholar client.
type Config struct {
	// BaseURL is the base URL for the API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is the SerpAPI key. The source is disabled without one.
	APIKey string

	// Timeout is the HTTP request timeout.
	// Defaults to DefaultTimeout if zero.
	Timeout time.Duration

	// MaxResults is the default number of articles to keep.
	// Defaults to DefaultMaxResults if zero.
	MaxResults int

	// RateLimit is the maximum requests per second sent to SerpAPI.
	// Defaults to DefaultRateLimit if zero.
	RateLimit float64

	// Enabled indicates whether this source is enabled.
	Enabled bool
}

// Client implements the papersources.ArticleSource interface for Google Scholar.
type Client struct {
	httpClient *papersources.HTTPClient
	config     Config
	recorder   papersources.RequestRecorder
	logger     zerolog.Logger
	now        func() time.Time
}

// Compile-time check that Client implements papersources.ArticleSource.
var _ papersources.ArticleSource = (*Client)(nil)

// NewClient creates a new Scholar client with the given configuration.
// If httpClient is nil, a new one will be created with the configuration settings.
func NewClient(cfg Config, httpClient *papersources.HTTPClient, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}

	if httpClient == nil {
		httpClient = papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Timeout:   cfg.Timeout,
			Scheduler: papersources.NewRateLimiter(cfg.RateLimit, 1),
		})
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		recorder:   papersources.NopRecorder{},
		logger:     logger.With().Str("source", string(domain.SourceTypeScholar)).Logger(),
		now:        time.Now,
	}
}

// SetRecorder installs a request recorder for metrics.
func (c *Client) SetRecorder(r papersources.RequestRecorder) {
	if r != nil {
		c.recorder = r
	}
}

// Search queries Google Scholar for articles matching the given parameters.
// Results with titles shorter than MinTitleLength are skipped.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	if !c.IsEnabled() {
		return nil, fmt.Errorf("scholar: %w", domain.ErrSourceDisabled)
	}

	start := time.Now()

	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recorder.RecordSourceRequestFailed(sourceName, "search", papersources.ErrorType(0, err))
		return nil, domain.NewExternalAPIError(sourceName, 0, "search request failed", err)
	}
	defer resp.Body.Close()
	c.recorder.RecordSourceRequest(sourceName, "search", time.Since(start).Seconds())

	if err := c.handleErrorResponse(resp); err != nil {
		c.recorder.RecordSourceRequestFailed(sourceName, "search", papersources.ErrorType(resp.StatusCode, nil))
		return nil, err
	}

	// Limit body to 10MB to prevent resource exhaustion.
	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		c.recorder.RecordSourceRequestFailed(sourceName, "search", "malformed")
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, "decoding response", err)
	}
	if searchResp.Error != "" && len(searchResp.OrganicResults) == 0 {
		// SerpAPI reports "no results" as an error string with a 200 status.
		c.logger.Debug().Str("error", searchResp.Error).Msg("search returned no results")
	}

	result := &papersources.SearchResult{
		TotalResults: len(searchResp.OrganicResults),
		Source:       domain.SourceTypeScholar,
	}
	result.Articles = make([]*domain.Article, 0, len(searchResp.OrganicResults))
	for _, r := range searchResp.OrganicResults {
		article, ok := convertToArticle(r)
		if !ok {
			result.Skipped++
			c.logger.Debug().Str("result_id", r.ResultID).Msg("skipping result with short title")
			continue
		}
		result.Articles = append(result.Articles, article)
	}

	result.SearchDuration = time.Since(start)
	return result, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeScholar
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled and has an API key.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled && c.config.APIKey != ""
}

// buildSearchURL constructs the search API URL with query parameters.
func (c *Client) buildSearchURL(params papersources.SearchParams) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	searchURL := baseURL.JoinPath("search")

	keep := params.MaxResults
	if keep <= 0 {
		keep = c.config.MaxResults
	}

	yearFrom := params.Query.YearFrom
	if yearFrom <= 0 {
		yearFrom = c.now().Year() - DefaultYearSpan
	}

	q := searchURL.Query()
	q.Set("engine", engine)
	q.Set("q", params.Query.Expression)
	q.Set("api_key", c.config.APIKey)
	q.Set("num", strconv.Itoa(keep*searchFactor))
	q.Set("as_ylo", strconv.Itoa(yearFrom))

	searchURL.RawQuery = q.Encode()
	return searchURL.String(), nil
}

// handleErrorResponse checks for API errors and returns appropriate error types.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Read the error body (limit to 1MB to prevent resource exhaustion)
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, "failed to read error response", err)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, errResp.Error, nil)
	}

	return domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
}

// convertToArticle converts one organic result. It reports false for
// results whose title is too short to be a real article.
func convertToArticle(r OrganicResult) (*domain.Article, bool) {
	title := papersources.CleanText(r.Title)
	if utf8.RuneCountInString(title) < MinTitleLength {
		return nil, false
	}

	summary := papersources.CleanText(r.PublicationInfo.Summary)

	authors := convertAuthors(r.PublicationInfo.Authors)
	if len(authors) == 0 {
		authors = summaryAuthors(summary)
	}

	link := strings.TrimSpace(r.Link)
	return &domain.Article{
		ID:      r.ResultID,
		Title:   title,
		Snippet: papersources.CleanText(r.Snippet),
		Authors: authors,
		Year:    summaryYear(summary),
		Venue:   summaryVenue(summary),
		DOI:     linkDOI(link),
		URL:     link,
		Source:  domain.SourceTypeScholar,
	}, true
}

// convertAuthors converts linked API authors to domain authors.
func convertAuthors(apiAuthors []Author) []domain.Author {
	authors := make([]domain.Author, 0, len(apiAuthors))
	for _, a := range apiAuthors {
		if name := strings.TrimSpace(a.Name); name != "" && name != "…" {
			authors = append(authors, splitName(name))
		}
	}
	return authors
}

// summaryAuthors reads the author segment of a summary line
// ("J Smith, A Doe - Venue, 2021 - host"), dropping elisions.
func summaryAuthors(summary string) []domain.Author {
	segments := strings.Split(summary, " - ")
	if len(segments) < 2 {
		return nil
	}
	var authors []domain.Author
	for _, part := range strings.Split(segments[0], ",") {
		name := strings.Trim(strings.TrimSpace(part), "…")
		if name = strings.TrimSpace(name); name != "" {
			authors = append(authors, splitName(name))
		}
	}
	return authors
}

// splitName splits a Scholar display name such as "JA Smith" or
// "M de la Cruz" into leading initials and family name.
func splitName(name string) domain.Author {
	fields := strings.Fields(name)
	i := 0
	for i < len(fields)-1 && isInitials(fields[i]) {
		i++
	}
	if i == 0 {
		return domain.Author{Name: name, Family: fields[len(fields)-1]}
	}
	return domain.Author{
		Name:     name,
		Family:   strings.Join(fields[i:], " "),
		Initials: strings.Join(fields[:i], ""),
	}
}

func isInitials(s string) bool {
	if utf8.RuneCountInString(s) > 3 {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) && r != '.' {
			return false
		}
	}
	return true
}

var (
	yearRe = regexp.MustCompile(`\b(1[89]|20)\d{2}\b`)
	doiRe  = regexp.MustCompile(`10\.\d{4,9}/[^\s?#&]+`)
)

// summaryYear returns the last four-digit year of the summary line, or 0.
func summaryYear(summary string) int {
	m := yearRe.FindAllString(summary, -1)
	if len(m) == 0 {
		return 0
	}
	y, _ := strconv.Atoi(m[len(m)-1])
	return y
}

// summaryVenue returns the middle segment of the summary line without its
// trailing year.
func summaryVenue(summary string) string {
	segments := strings.Split(summary, " - ")
	if len(segments) < 3 {
		return ""
	}
	venue := strings.TrimSpace(segments[1])
	venue = strings.TrimSpace(yearRe.ReplaceAllString(venue, ""))
	venue = strings.Trim(venue, " ,…")
	return venue
}

// linkDOI extracts a DOI from a link that embeds one.
func linkDOI(link string) string {
	if !strings.Contains(strings.ToLower(link), "doi") {
		return ""
	}
	doi := doiRe.FindString(link)
	return strings.TrimSuffix(doi, ".pdf")
}
