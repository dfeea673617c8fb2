package scholar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/citation-service/internal/domain"
	"github.com/helixir/citation-service/internal/papersources"
)

const searchResponseJSON = `{
	"search_metadata": {"id": "abc", "status": "Success"},
	"search_information": {"total_results": 1200},
	"organic_results": [
		{
			"position": 0,
			"title": "Respiratory <b>physiotherapy</b> in chronic obstructive pulmonary disease",
			"result_id": "r1",
			"link": "https://www.sciencedirect.com/science/article/pii/S0031940621000001",
			"snippet": "Pulmonary rehabilitation improves dyspnoea &amp; exercise capacity.",
			"publication_info": {
				"summary": "JA Smith, M de la Cruz - Physiotherapy, 2021 - Elsevier",
				"authors": [
					{"name": "JA Smith", "author_id": "a1"},
					{"name": "M de la Cruz", "author_id": "a2"}
				]
			}
		},
		{
			"position": 1,
			"title": "Short",
			"result_id": "r2",
			"link": "https://example.com/short"
		},
		{
			"position": 2,
			"title": "Breathing exercises after cardiac surgery: a review",
			"result_id": "r3",
			"link": "https://doi.org/10.1016/j.physio.2020.01.002",
			"snippet": "",
			"publication_info": {
				"summary": "P García, L Chen… - Journal of Rehabilitation, 2019 - tandfonline.com"
			}
		}
	]
}`

// createTestClient creates a client against the given server URL.
func createTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   5 * time.Second,
		Scheduler: papersources.Immediate(),
	})
	c := NewClient(Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Enabled: true,
		Timeout: 5 * time.Second,
	}, httpClient, zerolog.Nop())
	c.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return c
}

func searchParams(expr string, yearFrom int) papersources.SearchParams {
	return papersources.SearchParams{
		Query:      domain.Query{Source: domain.SourceTypeScholar, Expression: expr, YearFrom: yearFrom},
		MaxResults: 2,
	}
}

func TestNewClient(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		client := NewClient(Config{Enabled: true, APIKey: "k"}, nil, zerolog.Nop())

		assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
		assert.Equal(t, DefaultTimeout, client.config.Timeout)
		assert.Equal(t, DefaultMaxResults, client.config.MaxResults)
		assert.Equal(t, DefaultRateLimit, client.config.RateLimit)
		assert.NotNil(t, client.httpClient)
	})

	t.Run("requests are rate limited", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"organic_results": []}`))
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL, APIKey: "k", Enabled: true, RateLimit: 0.5}, nil, zerolog.Nop())

		_, err := client.Search(context.Background(), searchParams("asma", 2020))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = client.Search(ctx, searchParams("asma", 2020))
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("disabled without API key", func(t *testing.T) {
		client := NewClient(Config{Enabled: true}, nil, zerolog.Nop())
		assert.False(t, client.IsEnabled())

		_, err := client.Search(context.Background(), searchParams("x", 0))
		assert.ErrorIs(t, err, domain.ErrSourceDisabled)
	})
}

func TestClient_SourceInfo(t *testing.T) {
	client := NewClient(Config{Enabled: true, APIKey: "k"}, nil, zerolog.Nop())

	assert.Equal(t, domain.SourceTypeScholar, client.SourceType())
	assert.Equal(t, "Google Scholar", client.Name())
	assert.True(t, client.IsEnabled())
}

func TestClient_Search(t *testing.T) {
	t.Run("successful search", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search", r.URL.Path)
			assert.Equal(t, "google_scholar", r.URL.Query().Get("engine"))
			assert.Equal(t, `"fisioterapia respiratoria"`, r.URL.Query().Get("q"))
			assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
			assert.Equal(t, "6", r.URL.Query().Get("num"))
			assert.Equal(t, "2018", r.URL.Query().Get("as_ylo"))

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, searchResponseJSON)
		}))
		defer server.Close()

		client := createTestClient(t, server.URL)
		result, err := client.Search(context.Background(), searchParams(`"fisioterapia respiratoria"`, 0))
		require.NoError(t, err)

		assert.Equal(t, domain.SourceTypeScholar, result.Source)
		assert.Equal(t, 3, result.TotalResults)
		assert.Equal(t, 1, result.Skipped)
		require.Len(t, result.Articles, 2)

		first := result.Articles[0]
		assert.Equal(t, "r1", first.ID)
		assert.Equal(t, "Respiratory physiotherapy in chronic obstructive pulmonary disease", first.Title)
		assert.Equal(t, "Pulmonary rehabilitation improves dyspnoea & exercise capacity.", first.Snippet)
		assert.Equal(t, 2021, first.Year)
		assert.Equal(t, "Physiotherapy", first.Venue)
		assert.Equal(t, []domain.Author{
			{Name: "JA Smith", Family: "Smith", Initials: "JA"},
			{Name: "M de la Cruz", Family: "de la Cruz", Initials: "M"},
		}, first.Authors)
		assert.Empty(t, first.DOI)

		second := result.Articles[1]
		assert.Equal(t, 2019, second.Year)
		assert.Equal(t, "Journal of Rehabilitation", second.Venue)
		assert.Equal(t, "10.1016/j.physio.2020.01.002", second.DOI)
		assert.Equal(t, []domain.Author{
			{Name: "P García", Family: "García", Initials: "P"},
			{Name: "L Chen", Family: "Chen", Initials: "L"},
		}, second.Authors)
	})

	t.Run("query year bound wins over default", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "2020", r.URL.Query().Get("as_ylo"))
			fmt.Fprint(w, `{"organic_results": []}`)
		}))
		defer server.Close()

		client := createTestClient(t, server.URL)
		result, err := client.Search(context.Background(), searchParams("x", 2020))
		require.NoError(t, err)
		assert.Empty(t, result.Articles)
	})

	t.Run("no results error string", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error": "Google hasn't returned any results for this query."}`)
		}))
		defer server.Close()

		client := createTestClient(t, server.URL)
		result, err := client.Search(context.Background(), searchParams("x", 0))
		require.NoError(t, err)
		assert.Empty(t, result.Articles)
	})

	t.Run("API error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error": "Invalid API key."}`)
		}))
		defer server.Close()

		client := createTestClient(t, server.URL)
		_, err := client.Search(context.Background(), searchParams("x", 0))
		require.Error(t, err)

		var apiErr *domain.ExternalAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "Invalid API key.", apiErr.Message)
	})

	t.Run("non-JSON error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, "bad gateway")
		}))
		defer server.Close()

		client := createTestClient(t, server.URL)
		_, err := client.Search(context.Background(), searchParams("x", 0))

		var apiErr *domain.ExternalAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "bad gateway", apiErr.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"organic_results": [`)
		}))
		defer server.Close()

		client := createTestClient(t, server.URL)
		_, err := client.Search(context.Background(), searchParams("x", 0))
		assert.Equal(t, domain.KindExternal, domain.KindOf(err))
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		client := createTestClient(t, server.URL)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := client.Search(ctx, searchParams("x", 0))
		assert.Equal(t, domain.KindExternal, domain.KindOf(err))
	})
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		name     string
		expected domain.Author
	}{
		{name: "JA Smith", expected: domain.Author{Name: "JA Smith", Family: "Smith", Initials: "JA"}},
		{name: "J A Smith", expected: domain.Author{Name: "J A Smith", Family: "Smith", Initials: "JA"}},
		{name: "Smith", expected: domain.Author{Name: "Smith", Family: "Smith"}},
		{name: "Maria Lopez", expected: domain.Author{Name: "Maria Lopez", Family: "Lopez"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitName(tt.name))
		})
	}
}

func TestSummaryParsing(t *testing.T) {
	tests := []struct {
		summary string
		year    int
		venue   string
	}{
		{summary: "JA Smith - Physiotherapy, 2021 - Elsevier", year: 2021, venue: "Physiotherapy"},
		{summary: "A Doe - … of Physical Therapy, 2018 - academic.oup.com", year: 2018, venue: "of Physical Therapy"},
		{summary: "A Doe - 2017 - books.google.com", year: 2017, venue: ""},
		{summary: "A Doe - pubmed.ncbi.nlm.nih.gov", year: 0, venue: ""},
		{summary: "", year: 0, venue: ""},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			assert.Equal(t, tt.year, summaryYear(tt.summary))
			assert.Equal(t, tt.venue, summaryVenue(tt.summary))
		})
	}
}

func TestLinkDOI(t *testing.T) {
	assert.Equal(t, "10.1016/j.physio.2020.01.002", linkDOI("https://doi.org/10.1016/j.physio.2020.01.002"))
	assert.Equal(t, "10.1093/ptj/pzab001", linkDOI("https://academic.oup.com/ptj/doi/10.1093/ptj/pzab001.pdf"))
	assert.Empty(t, linkDOI("https://www.sciencedirect.com/science/article/pii/S0031940621000001"))
}
