package httpserver

import (
	"github.com/helixir/citation-service/internal/domain"
)

// Response types for JSON serialization. Field names follow the public
// Spanish-language API.

type searchResponse struct {
	Tema     string   `json:"tema"`
	Area     string   `json:"area"`
	Terminos []string `json:"terminos"`
	Citas    []string `json:"citas"`
}

type searchErrorResponse struct {
	Error string   `json:"error"`
	Tema  string   `json:"tema"`
	Citas []string `json:"citas"`
}

type citeTextResponse struct {
	TextoOriginal       string            `json:"texto_original"`
	TextoCitado         string            `json:"texto_citado"`
	ConceptosDetectados []string          `json:"conceptos_detectados"`
	NumeroArticulos     int               `json:"numero_articulos"`
	Referencias         string            `json:"referencias"`
	ArticulosUtilizados []articleResponse `json:"articulos_utilizados"`
	Area                string            `json:"area"`
	Terminos            []string          `json:"terminos"`
	Mensaje             string            `json:"mensaje,omitempty"`
}

type citeTextErrorResponse struct {
	Error           string `json:"error"`
	NumeroArticulos int    `json:"numero_articulos"`
}

type articleResponse struct {
	Numero  int      `json:"numero"`
	Cita    string   `json:"cita"`
	Titulo  string   `json:"titulo"`
	Autores []string `json:"autores"`
	Anio    int      `json:"anio,omitempty"`
	Revista string   `json:"revista,omitempty"`
	DOI     string   `json:"doi,omitempty"`
	URL     string   `json:"url,omitempty"`
	Fuente  string   `json:"fuente"`
}

type infoResponse struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Version     string                  `json:"version"`
	Endpoints   map[string]endpointInfo `json:"endpoints"`
	Ejemplo     string                  `json:"ejemplo"`
}

type endpointInfo struct {
	Method      string `json:"method"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Converter functions

func topicToResponse(r *domain.TopicResult) searchResponse {
	citas := make([]string, len(r.References))
	for i, e := range r.References {
		citas[i] = e.Citation
	}
	return searchResponse{
		Tema:     r.Topic,
		Area:     r.Analysis.Domain,
		Terminos: nonNil(r.Analysis.Terms),
		Citas:    citas,
	}
}

func citationToResponse(r *domain.TextCitationResult) citeTextResponse {
	articles := make([]articleResponse, len(r.References))
	for i, e := range r.References {
		articles[i] = referenceToArticle(e)
	}
	return citeTextResponse{
		TextoOriginal:       r.OriginalText,
		TextoCitado:         r.CitedText,
		ConceptosDetectados: nonNil(r.Analysis.Concepts),
		NumeroArticulos:     len(r.References),
		Referencias:         r.ReferenceBlock,
		ArticulosUtilizados: articles,
		Area:                r.Analysis.Domain,
		Terminos:            nonNil(r.Analysis.Terms),
		Mensaje:             r.Message,
	}
}

func referenceToArticle(e domain.ReferenceEntry) articleResponse {
	resp := articleResponse{
		Numero:  e.Number,
		Cita:    e.Citation,
		Autores: []string{},
	}
	a := e.Article
	if a == nil {
		return resp
	}
	for _, au := range a.Authors {
		resp.Autores = append(resp.Autores, au.Name)
	}
	resp.Titulo = a.Title
	resp.Anio = a.Year
	resp.Revista = a.Venue
	resp.DOI = a.DOI
	resp.URL = a.URL
	resp.Fuente = string(a.Source)
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
