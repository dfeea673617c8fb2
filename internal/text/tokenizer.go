package text

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenizer names accepted by New.
const (
	Linguistic = "linguistic"
	Basic      = "basic"
)

// Tokenizer splits a document into word tokens and sentences.
//
// Tokens are lowercased and NFC-normalized with punctuation removed. The
// sentence segments returned by Sentences keep their trailing whitespace, so
// joining them reproduces the input exactly.
//
// Both implementations return the same tokens for input made of ASCII
// letters, digits, whitespace and sentence punctuation.
type Tokenizer interface {
	Name() string
	Tokens(s string) []string
	Sentences(s string) []string
}

// New returns the tokenizer called name. The linguistic tokenizer needs an
// abbreviation list; without one it falls back to the basic tokenizer.
func New(name string, abbreviations []string) (Tokenizer, error) {
	switch name {
	case Linguistic:
		if len(abbreviations) == 0 {
			return NewBasic(), nil
		}
		return NewLinguistic(abbreviations), nil
	case Basic:
		return NewBasic(), nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", name)
	}
}

var (
	basicWordRe     = regexp.MustCompile(`[\p{L}\p{N}]+`)
	basicSentenceRe = regexp.MustCompile(`(?s).*?[.!?]+["'”’)\]]*(?:\s+|$)`)
)

// BasicTokenizer splits with regular expressions only.
type BasicTokenizer struct{}

// NewBasic creates a BasicTokenizer.
func NewBasic() *BasicTokenizer {
	return &BasicTokenizer{}
}

// Name returns the tokenizer name.
func (t *BasicTokenizer) Name() string { return Basic }

// Tokens returns the letter/digit runs of s.
func (t *BasicTokenizer) Tokens(s string) []string {
	return basicWordRe.FindAllString(Normalize(s), -1)
}

// Sentences splits s after runs of terminal punctuation followed by whitespace.
func (t *BasicTokenizer) Sentences(s string) []string {
	var out []string
	last := 0
	for _, loc := range basicSentenceRe.FindAllStringIndex(s, -1) {
		out = append(out, s[loc[0]:loc[1]])
		last = loc[1]
	}
	return appendRemainder(out, s[last:])
}

// LinguisticTokenizer keeps hyphenated and apostrophized words together and
// does not end sentences at abbreviations, initials or before lowercase
// continuations.
type LinguisticTokenizer struct {
	abbreviations map[string]struct{}
}

// NewLinguistic creates a LinguisticTokenizer with the given abbreviations,
// written without their final period.
func NewLinguistic(abbreviations []string) *LinguisticTokenizer {
	set := make(map[string]struct{}, len(abbreviations))
	for _, a := range abbreviations {
		set[Fold(strings.TrimSuffix(a, "."))] = struct{}{}
	}
	return &LinguisticTokenizer{abbreviations: set}
}

// Name returns the tokenizer name.
func (t *LinguisticTokenizer) Name() string { return Linguistic }

// Tokens returns the words of s. A hyphen or apostrophe between two letters
// stays inside the word.
func (t *LinguisticTokenizer) Tokens(s string) []string {
	rs := []rune(Normalize(s))
	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	for i, r := range rs {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		case isJoiner(r) && b.Len() > 0 && i+1 < len(rs) && unicode.IsLetter(rs[i-1]) && unicode.IsLetter(rs[i+1]):
			b.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// Sentences splits s into sentences.
func (t *LinguisticTokenizer) Sentences(s string) []string {
	var out []string
	start := 0
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isTerminal(r) {
			i += size
			continue
		}

		punctStart := i
		onlyPeriods := true
		for i < len(s) {
			r, size = utf8.DecodeRuneInString(s[i:])
			if !isTerminal(r) {
				break
			}
			if r != '.' {
				onlyPeriods = false
			}
			i += size
		}
		for i < len(s) {
			r, size = utf8.DecodeRuneInString(s[i:])
			if !isCloser(r) {
				break
			}
			i += size
		}

		wsStart := i
		for i < len(s) {
			r, size = utf8.DecodeRuneInString(s[i:])
			if !unicode.IsSpace(r) {
				break
			}
			i += size
		}
		if i == wsStart && i < len(s) {
			// punctuation inside a token, e.g. "3.5" or "e.g"
			continue
		}

		if onlyPeriods && i < len(s) {
			if t.isAbbreviation(lastWord(s[start:punctStart])) {
				continue
			}
			if next, _ := utf8.DecodeRuneInString(s[i:]); unicode.IsLower(next) {
				continue
			}
		}

		out = append(out, s[start:i])
		start = i
	}
	return appendRemainder(out, s[start:])
}

func (t *LinguisticTokenizer) isAbbreviation(word string) bool {
	if word == "" {
		return false
	}
	if utf8.RuneCountInString(word) == 1 {
		r, _ := utf8.DecodeRuneInString(word)
		if unicode.IsUpper(r) {
			return true
		}
	}
	_, ok := t.abbreviations[Fold(word)]
	return ok
}

// lastWord returns the trailing word of s, including inner periods ("e.g").
func lastWord(s string) string {
	end := len(s)
	i := end
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:i])
		if !unicode.IsLetter(r) && r != '.' {
			break
		}
		i -= size
	}
	return strings.Trim(s[i:end], ".")
}

func appendRemainder(out []string, rest string) []string {
	if rest == "" {
		return out
	}
	if strings.TrimSpace(rest) == "" && len(out) > 0 {
		out[len(out)-1] += rest
		return out
	}
	return append(out, rest)
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', '”', '’', ')', ']', '»':
		return true
	}
	return false
}

func isJoiner(r rune) bool {
	return r == '-' || r == '\'' || r == '’'
}

// SplitTerminal splits a sentence segment into its body, its trailing run of
// terminal punctuation and closers, and its trailing whitespace.
func SplitTerminal(sentence string) (body, punct, space string) {
	trimmed := strings.TrimRightFunc(sentence, unicode.IsSpace)
	space = sentence[len(trimmed):]
	i := len(trimmed)
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(trimmed[:i])
		if !isTerminal(r) && !isCloser(r) {
			break
		}
		i -= size
	}
	return trimmed[:i], trimmed[i:], space
}
