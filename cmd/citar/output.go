package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/helixir/citation-service/internal/domain"
)

type topicOutput struct {
	Topic      string   `json:"tema"`
	Domain     string   `json:"area"`
	Terms      []string `json:"terminos"`
	References []string `json:"citas"`
}

type citationOutput struct {
	CitedText  string   `json:"texto_citado"`
	Domain     string   `json:"area"`
	Terms      []string `json:"terminos"`
	Concepts   []string `json:"conceptos_detectados"`
	References []string `json:"referencias"`
	Message    string   `json:"mensaje,omitempty"`
}

func writeTopic(w io.Writer, res *domain.TopicResult) error {
	fmt.Fprintf(w, "Tema: %s\nÁrea: %s\n", res.Topic, res.Analysis.Domain)
	if len(res.References) == 0 {
		_, err := fmt.Fprintln(w, "\nNo se encontraron artículos relevantes.")
		return err
	}
	fmt.Fprintln(w)
	for _, e := range res.References {
		if _, err := fmt.Fprintf(w, "%d. %s\n", e.Number, e.Citation); err != nil {
			return err
		}
	}
	return nil
}

func writeTopicJSON(w io.Writer, res *domain.TopicResult) error {
	out := topicOutput{
		Topic:      res.Topic,
		Domain:     res.Analysis.Domain,
		Terms:      nonNil(res.Analysis.Terms),
		References: citations(res.References),
	}
	return encode(w, out)
}

func writeCitation(w io.Writer, res *domain.TextCitationResult) error {
	fmt.Fprintln(w, res.CitedText)
	if res.Message != "" {
		_, err := fmt.Fprintf(w, "\n%s\n", res.Message)
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s\n", res.ReferenceBlock)
	return err
}

func writeCitationJSON(w io.Writer, res *domain.TextCitationResult) error {
	out := citationOutput{
		CitedText:  res.CitedText,
		Domain:     res.Analysis.Domain,
		Terms:      nonNil(res.Analysis.Terms),
		Concepts:   nonNil(res.Analysis.Concepts),
		References: citations(res.References),
		Message:    res.Message,
	}
	return encode(w, out)
}

func encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func citations(entries []domain.ReferenceEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Citation
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
