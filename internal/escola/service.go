package escola

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mitomaniaco/escola-tia-sol/internal/util"
)

var ErrValidation = errors.New("validation")

const dashboardCacheKey = "escola:dashboard"

// SecretariaRepository descreve o acesso a dados usado pelo serviço.
type SecretariaRepository interface {
	ListStudents(context.Context, *uuid.UUID, string) ([]Student, error)
	GetStudent(context.Context, uuid.UUID) (Student, error)
	InsertStudent(context.Context, Student) (Student, error)
	UpdateStudent(context.Context, Student) error
	DeleteStudent(context.Context, uuid.UUID) error
	ListGuardians(context.Context, string) ([]Guardian, error)
	GetGuardian(context.Context, uuid.UUID) (Guardian, error)
	InsertGuardian(context.Context, Guardian) (Guardian, error)
	UpdateGuardian(context.Context, Guardian) error
	DeleteGuardian(context.Context, uuid.UUID) error
	ListGuardianLinks(context.Context, uuid.UUID) ([]GuardianLink, error)
	AttachGuardian(context.Context, GuardianLink) (uuid.UUID, error)
	DetachGuardian(context.Context, uuid.UUID, uuid.UUID) error
	ListClasses(context.Context) ([]Class, error)
	InsertClass(context.Context, Class) (Class, error)
	UpdateClass(context.Context, Class) error
	DeleteClass(context.Context, uuid.UUID) error
	ListStaff(context.Context, string) ([]StaffMember, error)
	GetStaffMember(context.Context, uuid.UUID) (StaffMember, error)
	InsertStaffMember(context.Context, StaffMember) (StaffMember, error)
	UpdateStaffMember(context.Context, StaffMember) error
	DeleteStaffMember(context.Context, uuid.UUID) error
	CountDashboard(context.Context) (DashboardCounts, error)
}

// SecretariaService concentra as regras de cadastro da escola.
type SecretariaService struct {
	repo  SecretariaRepository
	cache *redis.Client
}

func NewSecretariaService(repo SecretariaRepository, cache *redis.Client) *SecretariaService {
	return &SecretariaService{repo: repo, cache: cache}
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func validEnrollmentStatus(status string) bool {
	switch status {
	case "active", "inactive":
		return true
	}
	return false
}

func validShift(shift string) bool {
	switch shift {
	case "morning", "afternoon", "full":
		return true
	}
	return false
}

// ---- Alunos ----

func (s *SecretariaService) ListStudents(ctx context.Context, classID *uuid.UUID, status string) ([]Student, error) {
	if status != "" && !validEnrollmentStatus(status) {
		return nil, validationError("status de matrícula inválido")
	}
	return s.repo.ListStudents(ctx, classID, status)
}

func (s *SecretariaService) GetStudent(ctx context.Context, id uuid.UUID) (Student, error) {
	return s.repo.GetStudent(ctx, id)
}

func (s *SecretariaService) CreateStudent(ctx context.Context, student Student) (Student, error) {
	student.Name = strings.TrimSpace(student.Name)
	if student.Name == "" {
		return Student{}, validationError("nome do aluno obrigatório")
	}
	if student.EnrollmentStatus == "" {
		student.EnrollmentStatus = "active"
	}
	if !validEnrollmentStatus(student.EnrollmentStatus) {
		return Student{}, validationError("status de matrícula inválido")
	}

	created, err := s.repo.InsertStudent(ctx, student)
	if err != nil {
		return Student{}, err
	}
	s.invalidateDashboard(ctx)
	return created, nil
}

func (s *SecretariaService) UpdateStudent(ctx context.Context, student Student) error {
	student.Name = strings.TrimSpace(student.Name)
	if student.Name == "" {
		return validationError("nome do aluno obrigatório")
	}
	if !validEnrollmentStatus(student.EnrollmentStatus) {
		return validationError("status de matrícula inválido")
	}
	if err := s.repo.UpdateStudent(ctx, student); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	return nil
}

func (s *SecretariaService) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteStudent(ctx, id); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	return nil
}

// ---- Responsáveis ----

func (s *SecretariaService) ListGuardians(ctx context.Context, search string) ([]Guardian, error) {
	return s.repo.ListGuardians(ctx, strings.TrimSpace(search))
}

func (s *SecretariaService) GetGuardian(ctx context.Context, id uuid.UUID) (Guardian, error) {
	return s.repo.GetGuardian(ctx, id)
}

func (s *SecretariaService) validateGuardian(g Guardian) error {
	if err := util.RequireString(g.Name, "nome do responsável"); err != nil {
		return validationError(err.Error())
	}
	if err := util.ValidateCPF(g.CPF); err != nil {
		return validationError(err.Error())
	}
	if err := util.ValidateEmail(g.Email); err != nil {
		return validationError(err.Error())
	}
	return nil
}

func (s *SecretariaService) CreateGuardian(ctx context.Context, g Guardian) (Guardian, error) {
	g.Name = strings.TrimSpace(g.Name)
	g.Email = strings.ToLower(strings.TrimSpace(g.Email))
	if err := s.validateGuardian(g); err != nil {
		return Guardian{}, err
	}

	created, err := s.repo.InsertGuardian(ctx, g)
	if err != nil {
		return Guardian{}, err
	}
	s.invalidateDashboard(ctx)
	return created, nil
}

func (s *SecretariaService) UpdateGuardian(ctx context.Context, g Guardian) error {
	g.Name = strings.TrimSpace(g.Name)
	g.Email = strings.ToLower(strings.TrimSpace(g.Email))
	if err := s.validateGuardian(g); err != nil {
		return err
	}
	return s.repo.UpdateGuardian(ctx, g)
}

func (s *SecretariaService) DeleteGuardian(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteGuardian(ctx, id); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	return nil
}

// ---- Vínculos ----

func (s *SecretariaService) ListGuardianLinks(ctx context.Context, studentID uuid.UUID) ([]GuardianLink, error) {
	return s.repo.ListGuardianLinks(ctx, studentID)
}

func (s *SecretariaService) AttachGuardian(ctx context.Context, link GuardianLink) (uuid.UUID, error) {
	if link.StudentID == uuid.Nil || link.GuardianID == uuid.Nil {
		return uuid.Nil, validationError("aluno e responsável são obrigatórios")
	}

	// Valida existência antes de criar o vínculo.
	if _, err := s.repo.GetStudent(ctx, link.StudentID); err != nil {
		return uuid.Nil, err
	}
	if _, err := s.repo.GetGuardian(ctx, link.GuardianID); err != nil {
		return uuid.Nil, err
	}

	return s.repo.AttachGuardian(ctx, link)
}

func (s *SecretariaService) DetachGuardian(ctx context.Context, studentID, guardianID uuid.UUID) error {
	return s.repo.DetachGuardian(ctx, studentID, guardianID)
}

// ---- Turmas ----

func (s *SecretariaService) ListClasses(ctx context.Context) ([]Class, error) {
	return s.repo.ListClasses(ctx)
}

func (s *SecretariaService) CreateClass(ctx context.Context, c Class) (Class, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return Class{}, validationError("nome da turma obrigatório")
	}
	if !validShift(c.Shift) {
		return Class{}, validationError("turno inválido")
	}

	created, err := s.repo.InsertClass(ctx, c)
	if err != nil {
		return Class{}, err
	}
	s.invalidateDashboard(ctx)
	return created, nil
}

func (s *SecretariaService) UpdateClass(ctx context.Context, c Class) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return validationError("nome da turma obrigatório")
	}
	if !validShift(c.Shift) {
		return validationError("turno inválido")
	}
	return s.repo.UpdateClass(ctx, c)
}

func (s *SecretariaService) DeleteClass(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteClass(ctx, id); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	return nil
}

// ---- Equipe ----

func (s *SecretariaService) ListStaff(ctx context.Context, status string) ([]StaffMember, error) {
	return s.repo.ListStaff(ctx, status)
}

func (s *SecretariaService) GetStaffMember(ctx context.Context, id uuid.UUID) (StaffMember, error) {
	return s.repo.GetStaffMember(ctx, id)
}

func (s *SecretariaService) validateStaff(m StaffMember) error {
	if err := util.RequireString(m.Name, "nome"); err != nil {
		return validationError(err.Error())
	}
	if err := util.RequireString(m.Role, "cargo"); err != nil {
		return validationError(err.Error())
	}
	if err := util.ValidateCPF(m.CPF); err != nil {
		return validationError(err.Error())
	}
	if err := util.ValidateEmail(m.Email); err != nil {
		return validationError(err.Error())
	}
	switch m.Status {
	case "active", "inactive":
	default:
		return validationError("status inválido")
	}
	return nil
}

func (s *SecretariaService) CreateStaffMember(ctx context.Context, m StaffMember) (StaffMember, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.Role = strings.TrimSpace(m.Role)
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	if m.Status == "" {
		m.Status = "active"
	}
	if err := s.validateStaff(m); err != nil {
		return StaffMember{}, err
	}

	created, err := s.repo.InsertStaffMember(ctx, m)
	if err != nil {
		return StaffMember{}, err
	}
	s.invalidateDashboard(ctx)
	return created, nil
}

func (s *SecretariaService) UpdateStaffMember(ctx context.Context, m StaffMember) error {
	m.Name = strings.TrimSpace(m.Name)
	m.Role = strings.TrimSpace(m.Role)
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	if err := s.validateStaff(m); err != nil {
		return err
	}
	if err := s.repo.UpdateStaffMember(ctx, m); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	return nil
}

func (s *SecretariaService) DeleteStaffMember(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteStaffMember(ctx, id); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	return nil
}

// ---- Painel ----

func (s *SecretariaService) Dashboard(ctx context.Context) (DashboardCounts, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, dashboardCacheKey).Bytes(); err == nil {
			var counts DashboardCounts
			if json.Unmarshal(data, &counts) == nil {
				return counts, nil
			}
		}
	}

	counts, err := s.repo.CountDashboard(ctx)
	if err != nil {
		return DashboardCounts{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(counts); err == nil {
			_ = s.cache.Set(ctx, dashboardCacheKey, payload, 60*time.Second).Err()
		}
	}

	return counts, nil
}

func (s *SecretariaService) invalidateDashboard(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, dashboardCacheKey).Err()
	}
}
