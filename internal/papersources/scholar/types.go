// Package scholar provides a client for Google Scholar through SerpAPI.
//
// SerpAPI exposes Google Scholar result pages as JSON. A search is a single
// GET request; every organic result already carries the title, link,
// snippet and a publication summary line, so no per-record fetch is needed.
//
// API Documentation: https://serpapi.com/google-scholar-api
package scholar

// SearchResponse represents the response from the SerpAPI search endpoint
// with engine=google_scholar.
type SearchResponse struct {
	// SearchMetadata describes the SerpAPI job.
	SearchMetadata SearchMetadata `json:"search_metadata"`

	// SearchInformation carries the total result estimate.
	SearchInformation SearchInformation `json:"search_information"`

	// OrganicResults contains the result entries in page order.
	OrganicResults []OrganicResult `json:"organic_results"`

	// Error is set by SerpAPI when the search could not run.
	Error string `json:"error,omitempty"`
}

// SearchMetadata describes a SerpAPI search job.
type SearchMetadata struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SearchInformation carries aggregate information about the search.
type SearchInformation struct {
	TotalResults int `json:"total_results"`
}

// OrganicResult represents a single Google Scholar result.
type OrganicResult struct {
	// Position is the 0-based rank on the page.
	Position int `json:"position"`

	// Title is the result title. It may contain HTML emphasis.
	Title string `json:"title"`

	// ResultID is Google Scholar's opaque identifier.
	ResultID string `json:"result_id"`

	// Link is the landing page or PDF of the result.
	Link string `json:"link"`

	// Snippet is the excerpt shown under the title.
	Snippet string `json:"snippet"`

	// PublicationInfo holds the authors/venue/year line.
	PublicationInfo PublicationInfo `json:"publication_info"`
}

// PublicationInfo is the "authors - venue, year - host" line of a result.
type PublicationInfo struct {
	// Summary is the raw line, e.g. "J Smith, A Doe - Physiotherapy, 2021 - Elsevier".
	Summary string `json:"summary"`

	// Authors lists the linked authors. Unlinked authors appear only in Summary.
	Authors []Author `json:"authors,omitempty"`
}

// Author represents a linked author of a result.
type Author struct {
	Name     string `json:"name"`
	AuthorID string `json:"author_id,omitempty"`
	Link     string `json:"link,omitempty"`
}

// ErrorResponse represents an error body returned by SerpAPI.
type ErrorResponse struct {
	Error string `json:"error"`
}
