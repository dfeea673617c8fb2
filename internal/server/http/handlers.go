package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/helixir/citation-service/internal/domain"
	"github.com/helixir/citation-service/internal/observability"
)

const maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies

// Client-facing messages. Internal error details are never echoed.
const (
	msgInternal      = "Error interno del servidor"
	msgInvalidJSON   = "Cuerpo JSON inválido"
	msgReadBody      = "No se pudo leer el cuerpo de la petición"
	msgHealthy       = "API funcionando correctamente"
	msgTopicRequired = "Parámetro 'q' requerido"
	msgTextRequired  = "Parámetro 'texto' requerido"
)

// searchQuery holds the /buscar query parameters.
type searchQuery struct {
	Q string `validate:"required"`
}

// citeTextRequest is the JSON request body for /citar_texto.
type citeTextRequest struct {
	Texto string `json:"texto" validate:"required"`
}

// searchTopic handles GET /buscar?q=<topic>.
func (s *Server) searchTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := searchQuery{Q: strings.TrimSpace(r.URL.Query().Get("q"))}

	if err := s.validate.Struct(q); err != nil {
		writeJSON(w, http.StatusBadRequest, searchErrorResponse{Error: msgTopicRequired, Citas: []string{}})
		return
	}

	result, err := s.citer.SearchTopic(ctx, q.Q)
	if err != nil {
		status, msg := s.errorStatus(r, err, "q")
		writeJSON(w, status, searchErrorResponse{Error: msg, Tema: q.Q, Citas: []string{}})
		return
	}

	writeJSON(w, http.StatusOK, topicToResponse(result))
}

// citeText handles POST /citar_texto with body {"texto": "..."}.
func (s *Server) citeText(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, citeTextErrorResponse{Error: msgReadBody})
		return
	}

	var req citeTextRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, citeTextErrorResponse{Error: msgInvalidJSON})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, citeTextErrorResponse{Error: msgTextRequired})
		return
	}

	result, err := s.citer.CiteText(ctx, req.Texto)
	if err != nil {
		status, msg := s.errorStatus(r, err, "texto")
		writeJSON(w, status, citeTextErrorResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, citationToResponse(result))
}

// errorStatus maps a pipeline error to an HTTP status and a client message.
// Validation errors are the only kind whose meaning is reported back.
func (s *Server) errorStatus(r *http.Request, err error, field string) (int, string) {
	logger := observability.LoggerFromContext(r.Context(), s.logger)

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		logger.Debug().Err(err).Msg("request rejected")
		return http.StatusBadRequest, s.validationMessage(ve, field)
	}

	logger.Error().Err(err).Str("kind", domain.KindOf(err).String()).Msg("request failed")
	return http.StatusInternalServerError, msgInternal
}

func (s *Server) validationMessage(ve *domain.ValidationError, field string) string {
	topicMax, textMax := s.citer.Limits()
	switch {
	case ve.Field == "q" && strings.HasPrefix(ve.Message, "exceeds"):
		return fmt.Sprintf("Query demasiado largo (máximo %d caracteres)", topicMax)
	case ve.Field == "texto" && strings.HasPrefix(ve.Message, "exceeds"):
		return fmt.Sprintf("Texto demasiado largo (máximo %d caracteres)", textMax)
	case field == "q":
		return msgTopicRequired
	default:
		return msgTextRequired
	}
}

// infoHandler returns the API description.
func (s *Server) infoHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Title:       "API de Citas APA",
		Description: "API para buscar artículos en PubMed y Google Scholar, devolver citas en formato APA e insertar citas en un texto.",
		Version:     s.version,
		Endpoints: map[string]endpointInfo{
			"buscar": {
				Method:      http.MethodGet,
				URL:         "/buscar?q=tema_de_busqueda",
				Description: "Buscar artículos científicos y devolver citas en formato APA",
			},
			"citar_texto": {
				Method:      http.MethodPost,
				URL:         "/citar_texto",
				Description: "Insertar citas (Autor, Año) en un texto y devolver la lista de referencias",
			},
			"health": {
				Method:      http.MethodGet,
				URL:         "/health",
				Description: "Verificar que la API está funcionando",
			},
		},
		Ejemplo: "/buscar?q=diabetes%20tipo%202%20tratamiento",
	})
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Message: msgHealthy})
}
