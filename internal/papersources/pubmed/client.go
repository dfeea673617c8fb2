package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/helixir/citation-service/internal/domain"
	"github.com/helixir/citation-service/internal/papersources"
)

const (
	// DefaultBaseURL is the base URL for NCBI E-utilities API.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultTimeout is the timeout of the esearch call.
	DefaultTimeout = 15 * time.Second

	// DefaultFetchTimeout is the timeout of each esummary and efetch call.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultFetchInterval spaces consecutive E-utilities calls. NCBI allows
	// three requests per second without an API key.
	DefaultFetchInterval = 300 * time.Millisecond

	// DefaultMaxResults is the number of articles a caller usually keeps.
	DefaultMaxResults = 3

	// searchFactor and summaryFactor control over-fetching: esearch asks for
	// three times the kept count and summaries are fetched for twice it.
	searchFactor  = 3
	summaryFactor = 2

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 10 << 20

	// ArticleURLPrefix is the canonical PubMed article URL prefix.
	ArticleURLPrefix = "https://pubmed.ncbi.nlm.nih.gov/"

	// sourceName is the human-readable name for this source.
	sourceName = "PubMed"
)

// Config holds the configuration for the PubMed client.
type Config struct {
	// BaseURL is the base URL for the E-utilities API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is the NCBI API key for higher rate limits. Optional.
	APIKey string

	// Timeout is the esearch timeout.
	Timeout time.Duration

	// FetchTimeout is the timeout of each per-record call.
	FetchTimeout time.Duration

	// FetchInterval is the minimum spacing between calls.
	FetchInterval time.Duration

	// MaxResults is the default number of articles to keep.
	MaxResults int

	// FetchAbstracts enables the efetch enrichment call.
	FetchAbstracts bool

	// Enabled indicates whether this source is enabled.
	Enabled bool
}

// applyDefaults applies default values to the config.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.FetchInterval == 0 {
		c.FetchInterval = DefaultFetchInterval
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client implements the papersources.ArticleSource interface for PubMed.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
	recorder   papersources.RequestRecorder
	logger     zerolog.Logger
}

// Compile-time check that Client implements ArticleSource.
var _ papersources.ArticleSource = (*Client)(nil)

// New creates a new PubMed client. All calls share one fixed-interval
// scheduler so the per-record fetches stay within NCBI's rate limit.
func New(cfg Config, logger zerolog.Logger) *Client {
	cfg.applyDefaults()

	httpCfg := papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		UserAgent: "Helixir-CitationService/1.0 (mailto:support@helixir.io)",
		Scheduler: papersources.NewIntervalScheduler(cfg.FetchInterval),
	}

	return NewWithHTTPClient(cfg, papersources.NewHTTPClient(httpCfg), logger)
}

// NewWithHTTPClient creates a new PubMed client with a custom HTTP client.
// This is useful for testing with mock servers and an immediate scheduler.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		recorder:   papersources.NopRecorder{},
		logger:     logger.With().Str("source", string(domain.SourceTypePubMed)).Logger(),
	}
}

// SetRecorder installs a request recorder for metrics.
func (c *Client) SetRecorder(r papersources.RequestRecorder) {
	if r != nil {
		c.recorder = r
	}
}

// Search runs esearch, then esummary for each PMID in order, then, when
// enabled, a single efetch to enrich the summaries. PMIDs whose summary
// cannot be fetched or parsed are skipped.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	if !c.config.Enabled {
		return nil, fmt.Errorf("pubmed: %w", domain.ErrSourceDisabled)
	}

	startTime := time.Now()
	result := &papersources.SearchResult{Source: domain.SourceTypePubMed}

	keep := params.MaxResults
	if keep <= 0 {
		keep = c.config.MaxResults
	}

	searchResult, err := c.esearch(ctx, params.Query.Expression, keep*searchFactor)
	if err != nil {
		return nil, err
	}

	if searchResult.ErrorList != nil && len(searchResult.ErrorList.PhraseNotFound) > 0 {
		c.logger.Debug().Strs("phrases", searchResult.ErrorList.PhraseNotFound).Msg("phrase not found")
	}

	ids := searchResult.IDList.IDs
	result.TotalResults = len(ids)
	if len(ids) > keep*summaryFactor {
		ids = ids[:keep*summaryFactor]
	}

	articles := make([]*domain.Article, 0, len(ids))
	for _, pmid := range ids {
		if err := ctx.Err(); err != nil {
			break
		}
		article, err := c.esummary(ctx, pmid)
		if err != nil {
			result.Skipped++
			c.logger.Warn().Err(err).Str("endpoint", "esummary").Str("pmid", pmid).Msg("skipping record")
			continue
		}
		articles = append(articles, article)
	}

	if c.config.FetchAbstracts && len(articles) > 0 {
		if err := c.enrich(ctx, articles); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", "efetch").Msg("enrichment failed; keeping summaries")
		}
	}

	result.Articles = articles
	result.SearchDuration = time.Since(startTime)
	return result, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypePubMed
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether the source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// esearch performs a search query and returns matching PMIDs.
func (c *Client) esearch(ctx context.Context, term string, retmax int) (*ESearchResult, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", term)
	q.Set("retmode", "xml")
	q.Set("retmax", strconv.Itoa(retmax))
	q.Set("sort", "relevance")

	body, err := c.get(ctx, "esearch", q, c.config.Timeout)
	if err != nil {
		return nil, err
	}

	var result ESearchResult
	if err := xml.Unmarshal(body, &result); err != nil {
		c.recorder.RecordSourceRequestFailed(sourceName, "esearch", "malformed")
		return nil, domain.NewExternalAPIError(sourceName, http.StatusOK, "malformed esearch response", err)
	}
	return &result, nil
}

// esummary fetches the document summary of one PMID.
func (c *Client) esummary(ctx context.Context, pmid string) (*domain.Article, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", pmid)
	q.Set("retmode", "json")

	body, err := c.get(ctx, "esummary", q, c.config.FetchTimeout)
	if err != nil {
		return nil, err
	}

	var resp ESummaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.recorder.RecordSourceRequestFailed(sourceName, "esummary", "malformed")
		return nil, domain.NewExternalAPIError(sourceName, http.StatusOK, "malformed esummary response", err)
	}

	raw, ok := resp.Result[pmid]
	if !ok {
		return nil, domain.NewExternalAPIError(sourceName, http.StatusOK, "summary missing for "+pmid, nil)
	}

	var doc DocSummary
	if err := json.Unmarshal(raw, &doc); err != nil {
		c.recorder.RecordSourceRequestFailed(sourceName, "esummary", "malformed")
		return nil, domain.NewExternalAPIError(sourceName, http.StatusOK, "malformed summary for "+pmid, err)
	}
	if doc.Error != "" {
		return nil, domain.NewExternalAPIError(sourceName, http.StatusOK, doc.Error, nil)
	}

	article := summaryToArticle(pmid, doc)
	if article.Title == "" {
		return nil, domain.NewExternalAPIError(sourceName, http.StatusOK, "summary without title for "+pmid, nil)
	}
	return article, nil
}

// enrich fetches full records for articles and fills in abstracts, DOIs,
// MeSH headings, publication types, and any missing authors or year.
func (c *Client) enrich(ctx context.Context, articles []*domain.Article) error {
	ids := make([]string, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
	}

	set, err := c.efetch(ctx, ids)
	if err != nil {
		return err
	}

	byID := make(map[string]PubmedArticle, len(set.Articles))
	for _, pa := range set.Articles {
		byID[strings.TrimSpace(pa.MedlineCitation.PMID.Value)] = pa
	}

	for _, a := range articles {
		pa, ok := byID[a.ID]
		if !ok {
			continue
		}
		art := pa.MedlineCitation.Article

		a.Abstract = papersources.CleanText(extractAbstract(art.Abstract))
		if a.DOI == "" {
			a.DOI = extractDOI(art, pa.PubmedData)
		}
		if len(a.Authors) == 0 {
			a.Authors = extractAuthors(art.AuthorList)
		}
		if a.Year == 0 {
			a.Year = extractPublicationYear(art)
		}
		if a.Venue == "" {
			a.Venue = art.Journal.Title
			if a.Venue == "" {
				a.Venue = art.Journal.ISOAbbreviation
			}
		}
		if pa.MedlineCitation.MeshHeadingList != nil {
			for _, mh := range pa.MedlineCitation.MeshHeadingList.MeshHeadings {
				if v := strings.TrimSpace(mh.DescriptorName.Value); v != "" {
					a.MeSH = append(a.MeSH, v)
				}
			}
		}
		if art.PublicationTypeList != nil && len(a.PublicationTypes) == 0 {
			for _, pt := range art.PublicationTypeList.PublicationTypes {
				if v := strings.TrimSpace(pt.Value); v != "" {
					a.PublicationTypes = append(a.PublicationTypes, v)
				}
			}
		}
	}
	return nil
}

// efetch retrieves full article metadata for the given PMIDs.
func (c *Client) efetch(ctx context.Context, pmids []string) (*PubmedArticleSet, error) {
	if len(pmids) == 0 {
		return &PubmedArticleSet{}, nil
	}

	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(pmids, ","))
	q.Set("retmode", "xml")
	q.Set("rettype", "abstract")

	body, err := c.get(ctx, "efetch", q, c.config.FetchTimeout)
	if err != nil {
		return nil, err
	}

	var result PubmedArticleSet
	if err := xml.Unmarshal(body, &result); err != nil {
		c.recorder.RecordSourceRequestFailed(sourceName, "efetch", "malformed")
		return nil, domain.NewExternalAPIError(sourceName, http.StatusOK, "malformed efetch response", err)
	}
	return &result, nil
}

// get issues one GET to endpoint with its own timeout and returns the body
// of a 200 response.
func (c *Client) get(ctx context.Context, endpoint string, q url.Values, timeout time.Duration) ([]byte, error) {
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}

	u, err := url.Parse(c.config.BaseURL + "/" + endpoint + ".fcgi")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recorder.RecordSourceRequestFailed(sourceName, endpoint, papersources.ErrorType(0, err))
		return nil, domain.NewExternalAPIError(sourceName, 0, endpoint+" request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	c.recorder.RecordSourceRequest(sourceName, endpoint, time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.recorder.RecordSourceRequestFailed(sourceName, endpoint, papersources.ErrorType(resp.StatusCode, nil))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, truncate(string(body), 200), nil)
	}
	if err != nil {
		c.recorder.RecordSourceRequestFailed(sourceName, endpoint, papersources.ErrorType(0, err))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, "failed to read response", err)
	}
	return body, nil
}

// summaryToArticle converts an esummary record to a domain.Article.
func summaryToArticle(pmid string, doc DocSummary) *domain.Article {
	venue := strings.TrimSpace(doc.FullJournalName)
	if venue == "" {
		venue = strings.TrimSpace(doc.Source)
	}

	year := extractYear(doc.PubDate)
	if year == 0 {
		year = extractYear(doc.EPubDate)
	}

	authors := make([]domain.Author, 0, len(doc.Authors))
	for _, a := range doc.Authors {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		if a.AuthType != "" && a.AuthType != "Author" {
			if a.AuthType == "CollectiveName" {
				authors = append(authors, domain.Author{Name: name, Family: name})
			}
			continue
		}
		authors = append(authors, splitSummaryName(name))
	}

	return &domain.Article{
		ID:               pmid,
		Title:            papersources.CleanText(doc.Title),
		Authors:          authors,
		Year:             year,
		Venue:            venue,
		DOI:              summaryDOI(doc),
		URL:              ArticleURLPrefix + pmid + "/",
		PublicationTypes: doc.PubType,
		Source:           domain.SourceTypePubMed,
	}
}

// splitSummaryName splits an esummary name like "Smith JA" or
// "van der Berg J" into family name and initials.
func splitSummaryName(name string) domain.Author {
	i := strings.LastIndex(name, " ")
	if i <= 0 {
		return domain.Author{Name: name, Family: name}
	}
	family, initials := name[:i], name[i+1:]
	if !isInitials(initials) {
		return domain.Author{Name: name, Family: name}
	}
	return domain.Author{Name: name, Family: family, Initials: initials}
}

func isInitials(s string) bool {
	if s == "" || len([]rune(s)) > 4 {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// summaryDOI returns the DOI from the id list, else from elocationid
// ("doi: 10.1000/xyz").
func summaryDOI(doc DocSummary) string {
	for _, id := range doc.ArticleIDs {
		if id.IDType == "doi" && strings.TrimSpace(id.Value) != "" {
			return strings.TrimSpace(id.Value)
		}
	}
	eloc := strings.TrimSpace(doc.ELocationID)
	if idx := strings.Index(eloc, "doi:"); idx >= 0 {
		rest := strings.TrimSpace(eloc[idx+len("doi:"):])
		if f := strings.Fields(rest); len(f) > 0 {
			return f[0]
		}
	}
	return ""
}

var yearRe = regexp.MustCompile(`\b(1[89]|20)\d{2}\b`)

// extractYear returns the first four-digit year in s, or 0.
func extractYear(s string) int {
	m := yearRe.FindString(s)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}

// extractDOI extracts the DOI from article metadata.
// It checks ELocationID first (more reliable), then ArticleIdList.
func extractDOI(article Article, pubmedData PubmedData) string {
	for _, eloc := range article.ELocationID {
		if eloc.EIdType == "doi" && (eloc.Valid == "" || eloc.Valid == "Y") {
			return strings.TrimSpace(eloc.Value)
		}
	}

	for _, aid := range pubmedData.ArticleIdList.ArticleIds {
		if aid.IdType == "doi" {
			return strings.TrimSpace(aid.Value)
		}
	}

	return ""
}

// extractPublicationYear uses ArticleDate if available, otherwise PubDate.
func extractPublicationYear(article Article) int {
	for _, ad := range article.ArticleDate {
		if ad.DateType == "epublish" || ad.DateType == "Electronic" || ad.DateType == "" {
			if y := extractYear(ad.Year); y > 0 {
				return y
			}
		}
	}

	pubDate := article.Journal.JournalIssue.PubDate
	if y := extractYear(pubDate.Year); y > 0 {
		return y
	}
	// MedlineDate can be "2020 Jan-Feb", "2020 Spring", "2020-2021", etc.
	return extractYear(pubDate.MedlineDate)
}

// extractAbstract concatenates multiple abstract sections into a single string.
func extractAbstract(abstract *Abstract) string {
	if abstract == nil || len(abstract.AbstractTexts) == 0 {
		return ""
	}

	if len(abstract.AbstractTexts) == 1 && abstract.AbstractTexts[0].Label == "" {
		return strings.TrimSpace(abstract.AbstractTexts[0].Value)
	}

	var parts []string
	for _, at := range abstract.AbstractTexts {
		text := strings.TrimSpace(at.Value)
		if text == "" {
			continue
		}
		if at.Label != "" {
			parts = append(parts, at.Label+": "+text)
		} else {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " ")
}

// extractAuthors converts PubMed authors to domain authors.
func extractAuthors(authorList *AuthorList) []domain.Author {
	if authorList == nil || len(authorList.Authors) == 0 {
		return nil
	}

	authors := make([]domain.Author, 0, len(authorList.Authors))
	for _, a := range authorList.Authors {
		if a.ValidYN == "N" {
			continue
		}

		if a.CollectiveName != "" {
			authors = append(authors, domain.Author{Name: a.CollectiveName, Family: a.CollectiveName})
			continue
		}
		if a.LastName == "" {
			continue
		}

		initials := a.Initials
		if initials == "" {
			for _, part := range strings.Fields(a.ForeName) {
				initials += string([]rune(part)[0])
			}
		}
		authors = append(authors, domain.Author{
			Name:     strings.TrimSpace(a.LastName + " " + initials),
			Family:   a.LastName,
			Initials: initials,
		})
	}

	return authors
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
