package escola

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handler orquestra as rotas de cadastro da escola.
type Handler struct {
	service *SecretariaService
}

func NewHandler(service *SecretariaService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registra rotas acessíveis por toda a equipe (admin e professor).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)

	r.Route("/students", func(r chi.Router) {
		r.Get("/", h.handleListStudents)
		r.Post("/", h.handleCreateStudent)
		r.Get("/{id}", h.handleGetStudent)
		r.Put("/{id}", h.handleUpdateStudent)
		r.Delete("/{id}", h.handleDeleteStudent)
		r.Get("/{id}/guardians", h.handleListGuardianLinks)
		r.Post("/{id}/guardians", h.handleAttachGuardian)
		r.Delete("/{id}/guardians/{guardianID}", h.handleDetachGuardian)
	})

	r.Route("/guardians", func(r chi.Router) {
		r.Get("/", h.handleListGuardians)
		r.Post("/", h.handleCreateGuardian)
		r.Get("/{id}", h.handleGetGuardian)
		r.Put("/{id}", h.handleUpdateGuardian)
		r.Delete("/{id}", h.handleDeleteGuardian)
	})

	r.Route("/classes", func(r chi.Router) {
		r.Get("/", h.handleListClasses)
		r.Post("/", h.handleCreateClass)
		r.Put("/{id}", h.handleUpdateClass)
		r.Delete("/{id}", h.handleDeleteClass)
	})
}

// RegisterAdminRoutes registra rotas restritas à direção (gestão de equipe).
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/staff", func(r chi.Router) {
		r.Get("/", h.handleListStaff)
		r.Post("/", h.handleCreateStaff)
		r.Get("/{id}", h.handleGetStaff)
		r.Put("/{id}", h.handleUpdateStaff)
		r.Delete("/{id}", h.handleDeleteStaff)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Dashboard(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// ---- Alunos ----

type studentPayload struct {
	Name             string     `json:"name"`
	BirthDate        *time.Time `json:"birth_date"`
	EnrollmentStatus string     `json:"enrollment_status"`
	ClassID          *uuid.UUID `json:"class_id"`
	PhotoURL         *string    `json:"photo_url"`
}

func (p studentPayload) toStudent() Student {
	return Student{
		Name:             p.Name,
		BirthDate:        p.BirthDate,
		EnrollmentStatus: p.EnrollmentStatus,
		ClassID:          p.ClassID,
		PhotoURL:         p.PhotoURL,
	}
}

func (h *Handler) handleListStudents(w http.ResponseWriter, r *http.Request) {
	var classPtr *uuid.UUID
	if classStr := r.URL.Query().Get("class"); classStr != "" {
		cid, err := uuid.Parse(classStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "turma inválida", nil)
			return
		}
		classPtr = &cid
	}

	students, err := h.service.ListStudents(r.Context(), classPtr, r.URL.Query().Get("status"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"students": students})
}

func (h *Handler) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "aluno inválido", nil)
		return
	}

	student, err := h.service.GetStudent(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (h *Handler) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var payload studentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	created, err := h.service.CreateStudent(r.Context(), payload.toStudent())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "aluno inválido", nil)
		return
	}

	var payload studentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	student := payload.toStudent()
	student.ID = id
	if err := h.service.UpdateStudent(r.Context(), student); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "aluno inválido", nil)
		return
	}

	if err := h.service.DeleteStudent(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- Vínculos ----

func (h *Handler) handleListGuardianLinks(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "aluno inválido", nil)
		return
	}

	links, err := h.service.ListGuardianLinks(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"guardians": links})
}

func (h *Handler) handleAttachGuardian(w http.ResponseWriter, r *http.Request) {
	studentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "aluno inválido", nil)
		return
	}

	var payload struct {
		GuardianID             uuid.UUID `json:"guardian_id"`
		Relationship           *string   `json:"relationship"`
		IsFinancialResponsible bool      `json:"is_financial_responsible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	linkID, err := h.service.AttachGuardian(r.Context(), GuardianLink{
		StudentID:              studentID,
		GuardianID:             payload.GuardianID,
		Relationship:           payload.Relationship,
		IsFinancialResponsible: payload.IsFinancialResponsible,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": linkID})
}

func (h *Handler) handleDetachGuardian(w http.ResponseWriter, r *http.Request) {
	studentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "aluno inválido", nil)
		return
	}
	guardianID, err := uuid.Parse(chi.URLParam(r, "guardianID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "responsável inválido", nil)
		return
	}

	if err := h.service.DetachGuardian(r.Context(), studentID, guardianID); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- Responsáveis ----

type guardianPayload struct {
	Name    string  `json:"name"`
	CPF     string  `json:"cpf"`
	RG      *string `json:"rg"`
	Phone   *string `json:"phone"`
	Email   string  `json:"email"`
	Address *string `json:"address"`
}

func (p guardianPayload) toGuardian() Guardian {
	return Guardian{
		Name:    p.Name,
		CPF:     p.CPF,
		RG:      p.RG,
		Phone:   p.Phone,
		Email:   p.Email,
		Address: p.Address,
	}
}

func (h *Handler) handleListGuardians(w http.ResponseWriter, r *http.Request) {
	guardians, err := h.service.ListGuardians(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"guardians": guardians})
}

func (h *Handler) handleGetGuardian(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "responsável inválido", nil)
		return
	}

	guardian, err := h.service.GetGuardian(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, guardian)
}

func (h *Handler) handleCreateGuardian(w http.ResponseWriter, r *http.Request) {
	var payload guardianPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	created, err := h.service.CreateGuardian(r.Context(), payload.toGuardian())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateGuardian(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "responsável inválido", nil)
		return
	}

	var payload guardianPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	guardian := payload.toGuardian()
	guardian.ID = id
	if err := h.service.UpdateGuardian(r.Context(), guardian); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleDeleteGuardian(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "responsável inválido", nil)
		return
	}

	if err := h.service.DeleteGuardian(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- Turmas ----

func (h *Handler) handleListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.service.ListClasses(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"classes": classes})
}

func (h *Handler) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name  string `json:"name"`
		Shift string `json:"shift"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	created, err := h.service.CreateClass(r.Context(), Class{Name: payload.Name, Shift: payload.Shift})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateClass(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "turma inválida", nil)
		return
	}

	var payload struct {
		Name  string `json:"name"`
		Shift string `json:"shift"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if err := h.service.UpdateClass(r.Context(), Class{ID: id, Name: payload.Name, Shift: payload.Shift}); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleDeleteClass(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "turma inválida", nil)
		return
	}

	if err := h.service.DeleteClass(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- Equipe ----

type staffPayload struct {
	Name      string     `json:"name"`
	CPF       string     `json:"cpf"`
	BirthDate *time.Time `json:"birth_date"`
	Role      string     `json:"role"`
	Phone     *string    `json:"phone"`
	Email     string     `json:"email"`
	Status    string     `json:"status"`
}

func (p staffPayload) toStaffMember() StaffMember {
	return StaffMember{
		Name:      p.Name,
		CPF:       p.CPF,
		BirthDate: p.BirthDate,
		Role:      p.Role,
		Phone:     p.Phone,
		Email:     p.Email,
		Status:    p.Status,
	}
}

func (h *Handler) handleListStaff(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListStaff(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"staff": members})
}

func (h *Handler) handleGetStaff(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "funcionário inválido", nil)
		return
	}

	member, err := h.service.GetStaffMember(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *Handler) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	var payload staffPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	created, err := h.service.CreateStaffMember(r.Context(), payload.toStaffMember())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateStaff(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "funcionário inválido", nil)
		return
	}

	var payload staffPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	member := payload.toStaffMember()
	member.ID = id
	if err := h.service.UpdateStaffMember(r.Context(), member); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleDeleteStaff(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "funcionário inválido", nil)
		return
	}

	if err := h.service.DeleteStaffMember(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- Helpers ----

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
	log.Error().Err(err).Msg("escola handler error")
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
