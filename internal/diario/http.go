package diario

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxPhotoSize = 5 << 20 // 5 MiB

// Handler orquestra as rotas do diário e dos avisos.
type Handler struct {
	service *DiarioService
}

func NewHandler(service *DiarioService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/diary", func(r chi.Router) {
		r.Get("/", h.handleListEntries)
		r.Post("/", h.handleCreateEntry)
		r.Delete("/{id}", h.handleDeleteEntry)
		r.Post("/photo", h.handleUploadPhoto)
	})

	r.Route("/notices", func(r chi.Router) {
		r.Get("/", h.handleListNotices)
		r.Post("/", h.handleCreateNotice)
		r.Delete("/{id}", h.handleDeleteNotice)
	})
}

func (h *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
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

	var studentPtr, classPtr *uuid.UUID
	if studentStr := q.Get("student"); studentStr != "" {
		sid, err := uuid.Parse(studentStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "aluno inválido", nil)
			return
		}
		studentPtr = &sid
	}
	if classStr := q.Get("class"); classStr != "" {
		cid, err := uuid.Parse(classStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "turma inválida", nil)
			return
		}
		classPtr = &cid
	}

	entries, err := h.service.ListEntries(r.Context(), day, studentPtr, classPtr)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		StudentID   uuid.UUID `json:"student_id"`
		Date        string    `json:"date"`
		Type        string    `json:"type"`
		Description string    `json:"description"`
		PhotoURL    *string   `json:"photo_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	entry := Entry{
		StudentID:   payload.StudentID,
		Type:        payload.Type,
		Description: payload.Description,
		PhotoURL:    payload.PhotoURL,
	}
	if payload.Date != "" {
		day, err := time.Parse("2006-01-02", payload.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "data inválida", nil)
			return
		}
		entry.Date = day
	}

	created, err := h.service.CreateEntry(r.Context(), entry)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "registro inválido", nil)
		return
	}

	if err := h.service.DeleteEntry(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "arquivo muito grande ou formato inválido", nil)
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "campo photo obrigatório", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	url, err := h.service.UploadPhoto(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"photo_url": url})
}

func (h *Handler) handleListNotices(w http.ResponseWriter, r *http.Request) {
	notices, err := h.service.ListNotices(r.Context(), r.URL.Query().Get("audience"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notices": notices})
}

func (h *Handler) handleCreateNotice(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title    string `json:"title"`
		Body     string `json:"body"`
		Audience string `json:"audience"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	created, err := h.service.CreateNotice(r.Context(), Notice{
		Title:    payload.Title,
		Body:     payload.Body,
		Audience: payload.Audience,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleDeleteNotice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "aviso inválido", nil)
		return
	}

	if err := h.service.DeleteNotice(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "registro não encontrado", nil)
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("diario handler error")
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
