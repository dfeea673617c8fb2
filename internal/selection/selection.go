// Package selection merges admitted candidates from every source into the
// bounded, deduplicated list of articles a response cites.
package selection

import (
	"sort"
	"strings"

	"github.com/helixir/citation-service/internal/domain"
	"github.com/helixir/citation-service/internal/text"
)

const (
	// DefaultMaxSelected caps the merged selection.
	DefaultMaxSelected = 5

	// DefaultTitlePrefixLength is the number of title characters compared
	// when detecting duplicates.
	DefaultTitlePrefixLength = 50
)

// DefaultPerSource returns the per-source caps.
func DefaultPerSource() map[domain.SourceType]int {
	return map[domain.SourceType]int{
		domain.SourceTypePubMed:  3,
		domain.SourceTypeScholar: 2,
	}
}

// Config holds selector settings.
type Config struct {
	// PerSource caps how many articles each source may contribute.
	// Sources missing from the map fall back to DefaultPerSource.
	PerSource map[domain.SourceType]int

	// MaxSelected caps the merged list.
	MaxSelected int

	// TitlePrefixLength is the duplicate-detection prefix length.
	TitlePrefixLength int
}

// Selector picks the final articles. It is safe for concurrent use.
type Selector struct {
	perSource map[domain.SourceType]int
	max       int
	prefixLen int
}

// New creates a Selector.
func New(cfg Config) *Selector {
	perSource := DefaultPerSource()
	for k, v := range cfg.PerSource {
		perSource[k] = v
	}
	if cfg.MaxSelected <= 0 {
		cfg.MaxSelected = DefaultMaxSelected
	}
	if cfg.TitlePrefixLength <= 0 {
		cfg.TitlePrefixLength = DefaultTitlePrefixLength
	}
	return &Selector{perSource: perSource, max: cfg.MaxSelected, prefixLen: cfg.TitlePrefixLength}
}

// Select walks the sources in domain.SourcePriority order, each sorted by
// score descending (stable, so fetch order breaks ties), and keeps admitted
// articles whose title key is new until the source cap or the overall cap
// is reached. Duplicates do not consume a source's slots.
func (s *Selector) Select(bySource map[domain.SourceType][]*domain.ScoredArticle) []*domain.ScoredArticle {
	seen := make(map[string]struct{})
	var out []*domain.ScoredArticle

	for _, src := range domain.SourcePriority {
		candidates := admitted(bySource[src])
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Score > candidates[j].Score
		})

		taken := 0
		for _, c := range candidates {
			if len(out) >= s.max {
				return out
			}
			if taken >= s.perSource[src] {
				break
			}
			key := s.Key(c.Title)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, c)
			taken++
		}
	}
	return out
}

// Key returns the duplicate-detection key of a title: the first
// TitlePrefixLength characters of its folded form, with surrounding
// whitespace trimmed so that a blank title has an empty key.
func (s *Selector) Key(title string) string {
	return strings.TrimSpace(text.Prefix(text.Fold(title), s.prefixLen))
}

// admitted copies the non-nil admitted candidates of one source.
func admitted(candidates []*domain.ScoredArticle) []*domain.ScoredArticle {
	out := make([]*domain.ScoredArticle, 0, len(candidates))
	for _, c := range candidates {
		if c != nil && c.Admitted {
			out = append(out, c)
		}
	}
	return out
}
