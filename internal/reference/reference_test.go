package reference

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helixir/citation-service/internal/domain"
)

func authors(n int) []domain.Author {
	out := make([]domain.Author, n)
	for i := range out {
		family := fmt.Sprintf("Author%d", i+1)
		out[i] = domain.Author{Name: family + " AB", Family: family, Initials: "AB"}
	}
	return out
}

func TestAuthors(t *testing.T) {
	tests := []struct {
		name     string
		authors  []domain.Author
		expected string
	}{
		{name: "none", authors: nil, expected: "Autor desconocido"},
		{name: "one", authors: authors(1), expected: "Author1, A. B."},
		{name: "two", authors: authors(2), expected: "Author1, A. B., & Author2, A. B."},
		{name: "three", authors: authors(3), expected: "Author1, A. B., Author2, A. B., & Author3, A. B."},
		{name: "six", authors: authors(6), expected: "Author1, A. B., Author2, A. B., Author3, A. B., Author4, A. B., Author5, A. B., & Author6, A. B."},
		{name: "eight", authors: authors(8), expected: "Author1, A. B., et al."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Authors(tt.authors))
		})
	}
}

func TestAuthor(t *testing.T) {
	tests := []struct {
		name     string
		author   domain.Author
		expected string
	}{
		{name: "family and initials", author: domain.Author{Name: "Smith JA", Family: "Smith", Initials: "JA"}, expected: "Smith, J. A."},
		{name: "initials from given names", author: domain.Author{Name: "Maria Lopez", Family: "Lopez"}, expected: "Lopez, M."},
		{name: "collective", author: domain.Author{Name: "WHO Group", Family: "WHO Group"}, expected: "WHO Group"},
		{name: "name only", author: domain.Author{Name: "J García"}, expected: "García, J."},
		{name: "empty", author: domain.Author{}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Author(tt.author))
		})
	}
}

func TestFormatter_Format(t *testing.T) {
	f := New()

	t.Run("full PubMed record", func(t *testing.T) {
		a := &domain.Article{
			Title:   "Respiratory physiotherapy improves pulmonary function.",
			Authors: []domain.Author{{Name: "Smith JA", Family: "Smith", Initials: "JA"}},
			Year:    2023,
			Venue:   "Respiratory care",
			DOI:     "10.4187/respcare.0001",
			URL:     "https://pubmed.ncbi.nlm.nih.gov/12345678/",
			Source:  domain.SourceTypePubMed,
		}
		assert.Equal(t,
			"Smith, J. A. (2023). Respiratory physiotherapy improves pulmonary function. *Respiratory care*. https://doi.org/10.4187/respcare.0001",
			f.Format(a))
	})

	t.Run("fallbacks", func(t *testing.T) {
		a := &domain.Article{
			Title:  "Untitled work",
			URL:    "https://example.org/paper.pdf",
			Source: domain.SourceTypeScholar,
		}
		assert.Equal(t, "Autor desconocido (s.f.). Untitled work. https://example.org/paper.pdf", f.Format(a))
	})

	t.Run("long scholar title is truncated", func(t *testing.T) {
		long := strings.Repeat("abcdefghij ", 15)
		a := &domain.Article{Title: long, Year: 2020, Source: domain.SourceTypeScholar}
		got := f.Format(a)
		assert.Contains(t, got, "...")
		assert.NotContains(t, got, long)
	})

	t.Run("long PubMed title is kept", func(t *testing.T) {
		long := strings.TrimSpace(strings.Repeat("abcdefghij ", 15))
		a := &domain.Article{Title: long, Year: 2020, Source: domain.SourceTypePubMed}
		assert.Contains(t, f.Format(a), long+".")
	})
}

func TestFormatter_EntriesAndBlock(t *testing.T) {
	f := New()
	articles := []*domain.Article{
		{Title: "First", Year: 2020, URL: "https://a"},
		{Title: "Second", Year: 2021, URL: "https://b"},
	}

	entries := f.Entries(articles)
	assert.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Number)
	assert.Equal(t, 2, entries[1].Number)
	assert.Same(t, articles[1], entries[1].Article)

	assert.Equal(t,
		"Referencias\n1. Autor desconocido (2020). First. https://a\n2. Autor desconocido (2021). Second. https://b",
		Block(entries))
	assert.Empty(t, Block(nil))
}
