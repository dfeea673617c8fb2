// Package classify maps relevant tokens onto the scientific-domain taxonomy.
package classify

import (
	"strings"

	"github.com/helixir/citation-service/internal/domain"
	"github.com/helixir/citation-service/internal/lexicon"
	"github.com/helixir/citation-service/internal/text"
)

// DomainScore is the number of tokens matching one domain's keywords.
type DomainScore struct {
	Domain string
	Score  int
}

// Classifier assigns a domain label to a token sequence.
type Classifier struct {
	domains []lexicon.Domain
}

// New creates a Classifier over the lexicon's taxonomy.
func New(lex *lexicon.Lexicon) *Classifier {
	return &Classifier{domains: lex.Domains()}
}

// Scores returns one score per domain in taxonomy order. A token counts for a
// domain when it contains, or is contained in, any of the domain's keywords.
func (c *Classifier) Scores(tokens []string) []DomainScore {
	folded := make([]string, len(tokens))
	for i, tok := range tokens {
		folded[i] = text.Fold(tok)
	}

	scores := make([]DomainScore, len(c.domains))
	for i, d := range c.domains {
		scores[i].Domain = d.Name
		for _, tok := range folded {
			if tok == "" {
				continue
			}
			for _, kw := range d.Keywords {
				if strings.Contains(tok, kw) || strings.Contains(kw, tok) {
					scores[i].Score++
					break
				}
			}
		}
	}
	return scores
}

// Classify returns the domain with the strictly highest score. Ties go to the
// domain declared first; when nothing matches the result is domain.DomainGeneral.
func (c *Classifier) Classify(tokens []string) string {
	best := domain.DomainGeneral
	bestScore := 0
	for _, s := range c.Scores(tokens) {
		if s.Score > bestScore {
			best = s.Domain
			bestScore = s.Score
		}
	}
	return best
}

// Concepts returns the taxonomy keywords that start a word of s, deduplicated,
// in taxonomy order.
func (c *Classifier) Concepts(s string) []string {
	folded := text.Fold(s)
	seen := make(map[string]struct{})
	var out []string
	for _, d := range c.domains {
		for _, kw := range d.Keywords {
			if _, ok := seen[kw]; ok {
				continue
			}
			if text.ContainsWordPrefix(folded, kw) {
				seen[kw] = struct{}{}
				out = append(out, kw)
			}
		}
	}
	return out
}

// MeSH returns the controlled-vocabulary headings of the named domain.
func (c *Classifier) MeSH(name string) []string {
	for _, d := range c.domains {
		if d.Name == name {
			return append([]string(nil), d.MeSH...)
		}
	}
	return nil
}
