// Package domain provides the shared records and error taxonomy of the citation service.
package domain

// SourceType identifies the external literature source that produced an article.
type SourceType string

const (
	// SourceTypePubMed is the NCBI PubMed biomedical index.
	SourceTypePubMed SourceType = "pubmed"
	// SourceTypeScholar is the Google Scholar aggregator, reached through SerpAPI.
	SourceTypeScholar SourceType = "scholar"
)

// SourcePriority is the fixed merge order used when combining per-source results.
// Biomedical results always precede general academic ones.
var SourcePriority = []SourceType{SourceTypePubMed, SourceTypeScholar}

// IsValidSourceType returns true if st is a known source type.
func IsValidSourceType(st SourceType) bool {
	switch st {
	case SourceTypePubMed, SourceTypeScholar:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (st SourceType) String() string {
	return string(st)
}

// DomainGeneral is the sentinel domain returned when no taxonomy keyword matches.
const DomainGeneral = "general"

// QueryVariant selects how much filtering the query builder adds.
type QueryVariant string

const (
	// QueryVariantBasic adds recency (and physiotherapy vocabulary when relevant).
	QueryVariantBasic QueryVariant = "basic"
	// QueryVariantAdvanced also adds study-type, language and age-group filters.
	QueryVariantAdvanced QueryVariant = "advanced"
)

// Query is a source-specific boolean search expression built for one request.
type Query struct {
	// Source is the source whose grammar Expression follows.
	Source SourceType

	// Expression is the boolean query string sent to the source.
	Expression string

	// ControlledVocabulary lists the MeSH-style headings the query targets:
	// filters ANDed into Expression plus the detected domain's headings.
	// The relevance scorer rewards candidates indexed under them.
	ControlledVocabulary []string

	// YearFrom is the lower publication-year bound, or 0 for none.
	YearFrom int
}

// Analysis is the lexical reading of a document or topic.
type Analysis struct {
	// Domain is the best-matching taxonomy label, or DomainGeneral.
	Domain string

	// Terms are the ranked search terms, at most four.
	Terms []string

	// Concepts are the taxonomy keywords found in the text, in taxonomy order.
	Concepts []string
}
