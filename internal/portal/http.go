package portal

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/mitomaniaco/escola-tia-sol/internal/http/middleware"
)

// Handler orquestra as rotas do portal do responsável.
type Handler struct {
	service *PortalService
}

func NewHandler(service *PortalService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portal", func(r chi.Router) {
		r.Get("/students", h.handleMyStudents)
		r.Get("/diary", h.handleDiary)
		r.Get("/financial", h.handleCharges)
		r.Get("/notices", h.handleNotices)
	})
}

func sessionEmail(r *http.Request) (string, bool) {
	email := httpmiddleware.GetEmail(r.Context())
	return email, email != ""
}

func (h *Handler) handleMyStudents(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	students, err := h.service.MyStudents(r.Context(), email)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"students": students})
}

func (h *Handler) handleDiary(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	q := r.URL.Query()
	day := time.Now().UTC().Truncate(24 * time.Hour)
	if dateStr := q.Get("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "data inválida", nil)
			return
		}
		day = parsed
	}

	var studentPtr *uuid.UUID
	if studentStr := q.Get("student"); studentStr != "" {
		sid, err := uuid.Parse(studentStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "aluno inválido", nil)
			return
		}
		studentPtr = &sid
	}

	entries, err := h.service.Diary(r.Context(), email, day, studentPtr)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) handleCharges(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	status := r.URL.Query().Get("status")
	switch status {
	case "", "pending", "paid", "overdue":
	default:
		writeError(w, http.StatusBadRequest, "VALIDATION", "status inválido", nil)
		return
	}

	charges, err := h.service.Charges(r.Context(), email, status)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"charges": charges})
}

func (h *Handler) handleNotices(w http.ResponseWriter, r *http.Request) {
	notices, err := h.service.Notices(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notices": notices})
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrGuardianNotFound):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "responsável não encontrado", nil)
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "registro não encontrado", nil)
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("portal handler error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
}

// Helpers de resposta JSON compatíveis com o resto do projeto.
type successEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

type errorEnvelope struct {
	Data  any            `json:"data"`
	Error *errorResponse `json:"error"`
}

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: payload, Error: nil})
}

func writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Data: nil, Error: &errorResponse{Code: code, Message: message, Details: details}})
}
