package domain

// CitationMarker records that the sentence at SentenceIndex received the inline
// marker for reference number ReferenceNumber (1-based, selection order).
type CitationMarker struct {
	SentenceIndex   int
	ReferenceNumber int
}

// ReferenceEntry is one rendered APA reference keyed by its number.
type ReferenceEntry struct {
	Number   int
	Citation string
	Article  *Article
}

// WovenText is the output of the citation weaver.
type WovenText struct {
	// Text is the original text with inline markers inserted.
	Text string

	// Markers lists the inserted markers in sentence order.
	Markers []CitationMarker

	// Cited are the articles actually cited, in consumption order.
	Cited []*Article
}

// TopicResult is the outcome of a topic search.
type TopicResult struct {
	Topic      string
	Analysis   Analysis
	Selected   []*ScoredArticle
	References []ReferenceEntry
}

// TextCitationResult is the outcome of citing a free-form document.
type TextCitationResult struct {
	OriginalText string
	CitedText    string
	Analysis     Analysis
	Markers      []CitationMarker
	References   []ReferenceEntry

	// ReferenceBlock is the numbered, newline-separated reference list with header.
	ReferenceBlock string

	// Message explains an empty result; empty when citations were produced.
	Message string
}
