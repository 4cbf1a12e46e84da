package financeiro

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handler orquestra as rotas do módulo financeiro.
type Handler struct {
	service *FinanceService
}

func NewHandler(service *FinanceService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/financial", func(r chi.Router) {
		r.Get("/records", h.handleListRecords)
		r.Get("/records/{id}", h.handleGetRecord)
		r.Post("/records/{id}/pay", h.handleMarkPaid)
		r.Post("/records/{id}/cancel", h.handleCancel)
		r.Post("/charges", h.handleCreateCharge)
		r.Post("/expenses", h.handleCreateExpense)
		r.Get("/summary", h.handleSummary)
	})
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records, err := h.service.ListRecords(r.Context(), q.Get("type"), q.Get("status"), q.Get("month"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "lançamento inválido", nil)
		return
	}

	rec, err := h.service.GetRecord(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleCreateCharge(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		StudentID   uuid.UUID `json:"student_id"`
		Title       string    `json:"title"`
		Amount      float64   `json:"amount"`
		DueDate     string    `json:"due_date"`
		PixCode     *string   `json:"pix_code"`
		PaymentLink *string   `json:"payment_link"`
		Notes       *string   `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	dueDate, err := time.Parse("2006-01-02", payload.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "vencimento inválido, use YYYY-MM-DD", nil)
		return
	}

	rec, err := h.service.CreateCharge(r.Context(), ChargeInput{
		StudentID:   payload.StudentID,
		Title:       payload.Title,
		Amount:      payload.Amount,
		DueDate:     dueDate,
		PixCode:     payload.PixCode,
		PaymentLink: payload.PaymentLink,
		Notes:       payload.Notes,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title   string  `json:"title"`
		Amount  float64 `json:"amount"`
		DueDate string  `json:"due_date"`
		Notes   *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	dueDate, err := time.Parse("2006-01-02", payload.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "vencimento inválido, use YYYY-MM-DD", nil)
		return
	}

	rec, err := h.service.CreateExpense(r.Context(), ExpenseInput{
		Title:   payload.Title,
		Amount:  payload.Amount,
		DueDate: dueDate,
		Notes:   payload.Notes,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "lançamento inválido", nil)
		return
	}

	if err := h.service.MarkPaid(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "lançamento inválido", nil)
		return
	}

	if err := h.service.Cancel(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}

	summary, err := h.service.MonthSummary(r.Context(), month)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, ErrSemResponsavel):
		writeError(w, http.StatusUnprocessableEntity, "NO_GUARDIAN", "aluno sem responsável vinculado", nil)
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "lançamento não encontrado", nil)
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("financeiro handler error")
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
