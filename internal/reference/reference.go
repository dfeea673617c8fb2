// Package reference renders APA-style reference entries and the numbered
// reference block.
package reference

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/helixir/citation-service/internal/domain"
	"github.com/helixir/citation-service/internal/text"
)

const (
	// Header is the first line of a reference block.
	Header = "Referencias"

	// UnknownAuthor stands in for a missing author list.
	UnknownAuthor = "Autor desconocido"

	// NoDate stands in for a missing year.
	NoDate = "s.f."

	// MaxAuthors is the longest author list rendered in full.
	MaxAuthors = 6

	// DefaultMaxTitleLength truncates long general academic titles.
	DefaultMaxTitleLength = 120
)

// Formatter renders references. It is safe for concurrent use.
type Formatter struct {
	maxTitle int
}

// New creates a Formatter.
func New() *Formatter {
	return &Formatter{maxTitle: DefaultMaxTitleLength}
}

// Format renders a as "Authors (Year). Title. *Venue*. Locator".
func (f *Formatter) Format(a *domain.Article) string {
	year := NoDate
	if a.Year > 0 {
		year = strconv.Itoa(a.Year)
	}

	title := strings.TrimSpace(a.Title)
	if a.Source == domain.SourceTypeScholar && text.Len(title) > f.maxTitle {
		title = strings.TrimSpace(text.Prefix(title, f.maxTitle)) + "..."
	}
	title = strings.TrimSuffix(title, ".")

	var b strings.Builder
	b.WriteString(Authors(a.Authors))
	b.WriteString(" (" + year + ").")
	if title != "" {
		b.WriteString(" " + title + ".")
	}
	if venue := strings.TrimSpace(a.Venue); venue != "" {
		b.WriteString(" *" + strings.TrimSuffix(venue, ".") + "*.")
	}
	if loc := a.Locator(); loc != "" {
		b.WriteString(" " + loc)
	}
	return b.String()
}

// Entries renders articles as numbered entries, in order, starting at 1.
func (f *Formatter) Entries(articles []*domain.Article) []domain.ReferenceEntry {
	entries := make([]domain.ReferenceEntry, 0, len(articles))
	for i, a := range articles {
		entries = append(entries, domain.ReferenceEntry{
			Number:   i + 1,
			Citation: f.Format(a),
			Article:  a,
		})
	}
	return entries
}

// Block assembles the header and numbered entries, one per line. It
// returns "" when there are no entries.
func Block(entries []domain.ReferenceEntry) string {
	if len(entries) == 0 {
		return ""
	}
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, Header)
	for _, e := range entries {
		lines = append(lines, strconv.Itoa(e.Number)+". "+e.Citation)
	}
	return strings.Join(lines, "\n")
}

// Authors renders an author list: one author as is, two to six joined with
// commas and an ampersand before the last, more than six as the first
// author followed by "et al.".
func Authors(authors []domain.Author) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if n := Author(a); n != "" {
			names = append(names, n)
		}
	}

	switch {
	case len(names) == 0:
		return UnknownAuthor
	case len(names) == 1:
		return names[0]
	case len(names) > MaxAuthors:
		return names[0] + ", et al."
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", & " + names[len(names)-1]
	}
}

// Author renders one author as "Surname, I. I.".
func Author(a domain.Author) string {
	family := a.Surname()
	if family == "" {
		return ""
	}
	initials := a.Initials
	if initials == "" {
		rest := strings.TrimSpace(strings.Replace(a.Name, family, "", 1))
		for _, w := range strings.Fields(rest) {
			initials += string([]rune(w)[0])
		}
	}

	var parts []string
	for _, r := range initials {
		if unicode.IsLetter(r) {
			parts = append(parts, string(unicode.ToUpper(r))+".")
		}
	}
	if len(parts) == 0 {
		return family
	}
	return family + ", " + strings.Join(parts, " ")
}
