package domain

import (
	"strings"
)

// Author is one entry of an article's ordered author list.
type Author struct {
	// Name is the author's display name as delivered by the source.
	Name string `json:"name"`

	// Family is the surname, when the source separates it.
	Family string `json:"family,omitempty"`

	// Initials are the given-name initials without punctuation (e.g. "JA").
	Initials string `json:"initials,omitempty"`
}

// Surname returns the family name, falling back to the last token of Name.
func (a Author) Surname() string {
	if f := strings.TrimSpace(a.Family); f != "" {
		return f
	}
	fields := strings.Fields(a.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Article is an external search record normalized to a common shape.
// Adapters produce it; every later stage treats it as read-only.
type Article struct {
	// ID is the source-specific identifier (PMID, Scholar result id).
	ID string

	Title    string
	Abstract string

	// Snippet is the search-result excerpt (general academic source only).
	Snippet string

	Authors []Author

	// Year is the publication year, or 0 when unknown.
	Year int

	Venue string
	DOI   string
	URL   string

	// MeSH lists controlled-vocabulary headings indexed for the article.
	MeSH []string

	// PublicationTypes lists source-declared types (e.g. "Randomized Controlled Trial").
	PublicationTypes []string

	Source SourceType
}

// CombinedText returns title, abstract and snippet joined for lexical scoring.
func (a *Article) CombinedText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Title, a.Abstract, a.Snippet} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Body returns the non-title text of the article.
func (a *Article) Body() string {
	return strings.TrimSpace(a.Abstract + " " + a.Snippet)
}

// Locator returns the DOI resolver URL when a DOI is known, else the source URL.
func (a *Article) Locator() string {
	if doi := strings.TrimSpace(a.DOI); doi != "" {
		return "https://doi.org/" + strings.TrimPrefix(doi, "doi:")
	}
	return a.URL
}

// ScoredArticle is an Article with its relevance score and admission decision.
type ScoredArticle struct {
	Article

	Score    float64
	Admitted bool
}
