// Package lexicon holds the static word lists and domain taxonomy the citation
// pipeline reads: stopwords, technical affixes, controlled-vocabulary filters,
// trusted hosts and citation triggers.
//
// A Lexicon is built once at startup and never mutated afterwards, so a single
// instance can be shared by every request.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/helixir/citation-service/internal/text"
)

//go:embed lexicon.yaml
var defaultData []byte

// Domain is one entry of the scientific-domain taxonomy.
type Domain struct {
	Name     string
	Keywords []string
	MeSH     []string
}

// file mirrors lexicon.yaml.
type file struct {
	Language          string       `yaml:"language"`
	Stopwords         []string     `yaml:"stopwords"`
	NoiseWords        []string     `yaml:"noise_words"`
	TechnicalSuffixes []string     `yaml:"technical_suffixes"`
	TechnicalPrefixes []string     `yaml:"technical_prefixes"`
	Domains           []domainFile `yaml:"domains"`
	PhysioLexicon     []string     `yaml:"physio_lexicon"`
	PhysioMeSH        []string     `yaml:"physio_mesh"`
	PhysioKeywords    []string     `yaml:"physio_keywords"`
	TrustedHosts      []string     `yaml:"trusted_hosts"`
	ScholarSites      []string     `yaml:"scholar_sites"`
	QualityTerms      []string     `yaml:"quality_terms"`
	StudyTypes        []string     `yaml:"study_types"`
	Languages         []string     `yaml:"languages"`
	AgeGroups         []string     `yaml:"age_groups"`
	CitationTriggers  []string     `yaml:"citation_triggers"`
	Abbreviations     []string     `yaml:"abbreviations"`
}

type domainFile struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	MeSH     []string `yaml:"mesh"`
}

// Lexicon is the immutable set of lexical resources. All lookups compare
// accent-folded lowercase forms, so "función" and "funcion" are equivalent.
type Lexicon struct {
	language string

	stopwords map[string]struct{}
	noise     map[string]struct{}

	suffixes []string
	prefixes []string

	domains []Domain

	physioLexicon  []string
	physioMeSH     []string
	physioKeywords []string
	trustedHosts   []string
	scholarSites   []string
	qualityTerms   []string
	studyTypes     []string
	languages      []string
	ageGroups      []string
	triggers       []string
	abbreviations  []string
}

// Default returns the lexicon embedded in the binary.
func Default() (*Lexicon, error) {
	return Parse(defaultData)
}

// Load reads a lexicon from a YAML file on disk.
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lexicon file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Lexicon from YAML data.
func Parse(data []byte) (*Lexicon, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing lexicon: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}

	l := &Lexicon{
		language:       f.Language,
		stopwords:      foldSet(f.Stopwords),
		noise:          foldSet(f.NoiseWords),
		suffixes:       foldAll(f.TechnicalSuffixes),
		prefixes:       foldAll(f.TechnicalPrefixes),
		physioLexicon:  foldAll(f.PhysioLexicon),
		physioMeSH:     slices.Clone(f.PhysioMeSH),
		physioKeywords: slices.Clone(f.PhysioKeywords),
		trustedHosts:   lowerAll(f.TrustedHosts),
		scholarSites:   lowerAll(f.ScholarSites),
		qualityTerms:   foldAll(f.QualityTerms),
		studyTypes:     slices.Clone(f.StudyTypes),
		languages:      slices.Clone(f.Languages),
		ageGroups:      slices.Clone(f.AgeGroups),
		triggers:       foldAll(f.CitationTriggers),
		abbreviations:  foldAll(f.Abbreviations),
	}

	l.domains = make([]Domain, 0, len(f.Domains))
	for _, d := range f.Domains {
		l.domains = append(l.domains, Domain{
			Name:     d.Name,
			Keywords: foldAll(d.Keywords),
			MeSH:     slices.Clone(d.MeSH),
		})
	}

	return l, nil
}

func (f *file) validate() error {
	if len(f.Stopwords) == 0 {
		return fmt.Errorf("lexicon: stopwords must not be empty")
	}
	if len(f.Domains) == 0 {
		return fmt.Errorf("lexicon: at least one domain is required")
	}
	seen := make(map[string]struct{}, len(f.Domains))
	for i, d := range f.Domains {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return fmt.Errorf("lexicon: domain %d has no name", i)
		}
		if name == "general" {
			return fmt.Errorf("lexicon: domain name %q is reserved", name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("lexicon: duplicate domain %q", name)
		}
		seen[name] = struct{}{}
		if len(d.Keywords) == 0 {
			return fmt.Errorf("lexicon: domain %q has no keywords", name)
		}
	}
	return nil
}

// Language returns the lexicon's declared language.
func (l *Lexicon) Language() string { return l.language }

// IsStopword reports whether word is a function word.
func (l *Lexicon) IsStopword(word string) bool {
	_, ok := l.stopwords[text.Fold(word)]
	return ok
}

// IsNoise reports whether word is a stopword or a domain-generic noise word.
// Term extraction filters with this wider set.
func (l *Lexicon) IsNoise(word string) bool {
	w := text.Fold(word)
	if _, ok := l.stopwords[w]; ok {
		return true
	}
	_, ok := l.noise[w]
	return ok
}

// HasTechnicalAffix reports whether word contains one of the scientific
// suffixes or prefixes.
func (l *Lexicon) HasTechnicalAffix(word string) bool {
	w := text.Fold(word)
	for _, s := range l.suffixes {
		if strings.Contains(w, s) {
			return true
		}
	}
	for _, p := range l.prefixes {
		if strings.Contains(w, p) {
			return true
		}
	}
	return false
}

// Domains returns the taxonomy in declaration order.
func (l *Lexicon) Domains() []Domain {
	out := make([]Domain, len(l.domains))
	for i, d := range l.domains {
		out[i] = Domain{Name: d.Name, Keywords: slices.Clone(d.Keywords), MeSH: slices.Clone(d.MeSH)}
	}
	return out
}

// Domain returns the taxonomy entry called name.
func (l *Lexicon) Domain(name string) (Domain, bool) {
	for _, d := range l.domains {
		if d.Name == name {
			return Domain{Name: d.Name, Keywords: slices.Clone(d.Keywords), MeSH: slices.Clone(d.MeSH)}, true
		}
	}
	return Domain{}, false
}

// IsPhysio reports whether s mentions physiotherapy or rehabilitation.
func (l *Lexicon) IsPhysio(s string) bool {
	folded := text.Fold(s)
	for _, w := range l.physioLexicon {
		if strings.Contains(folded, w) {
			return true
		}
	}
	return false
}

// PhysioMeSH returns the controlled-vocabulary filters for physio topics.
func (l *Lexicon) PhysioMeSH() []string { return slices.Clone(l.physioMeSH) }

// PhysioKeywords returns the keyword disjunction for physio topics.
func (l *Lexicon) PhysioKeywords() []string { return slices.Clone(l.physioKeywords) }

// IsTrustedHost reports whether host (or a full link) belongs to a trusted
// academic publisher.
func (l *Lexicon) IsTrustedHost(host string) bool {
	h := strings.ToLower(host)
	for _, t := range l.trustedHosts {
		if strings.Contains(h, t) {
			return true
		}
	}
	return false
}

// ScholarSites returns the host allow-list for general academic queries.
func (l *Lexicon) ScholarSites() []string { return slices.Clone(l.scholarSites) }

// QualityTerms returns the folded quality markers.
func (l *Lexicon) QualityTerms() []string { return slices.Clone(l.qualityTerms) }

// StudyTypes returns the publication types used by the advanced query variant.
func (l *Lexicon) StudyTypes() []string { return slices.Clone(l.studyTypes) }

// Languages returns the language filters used by the advanced query variant.
func (l *Lexicon) Languages() []string { return slices.Clone(l.languages) }

// AgeGroups returns the age-group filters used by the advanced query variant.
func (l *Lexicon) AgeGroups() []string { return slices.Clone(l.ageGroups) }

// CitationTriggers returns the folded claim and evidence phrases.
func (l *Lexicon) CitationTriggers() []string { return slices.Clone(l.triggers) }

// Abbreviations returns the folded abbreviations that do not end a sentence.
func (l *Lexicon) Abbreviations() []string { return slices.Clone(l.abbreviations) }

func foldAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if f := text.Fold(strings.TrimSpace(w)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func foldSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range foldAll(words) {
		set[w] = struct{}{}
	}
	return set
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
