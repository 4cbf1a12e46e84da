package portal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrGuardianNotFound indica sessão de portal sem responsável cadastrado.
var ErrGuardianNotFound = errors.New("responsável não encontrado")

// PortalRepository descreve o acesso a dados usado pelo serviço.
type PortalRepository interface {
	GuardianIDByEmail(context.Context, string) (uuid.UUID, error)
	ListMyStudents(context.Context, uuid.UUID) ([]Student, error)
	ListDiary(context.Context, uuid.UUID, time.Time, *uuid.UUID) ([]DiaryEntry, error)
	ListCharges(context.Context, uuid.UUID, string) ([]Charge, error)
	ListNotices(context.Context) ([]Notice, error)
}

// PortalService resolve o responsável pela sessão e delega as listagens.
type PortalService struct {
	repo PortalRepository
}

func NewPortalService(repo PortalRepository) *PortalService {
	return &PortalService{repo: repo}
}

func (s *PortalService) guardianID(ctx context.Context, email string) (uuid.UUID, error) {
	id, err := s.repo.GuardianIDByEmail(ctx, email)
	if errors.Is(err, errNotFound) {
		return uuid.Nil, ErrGuardianNotFound
	}
	return id, err
}

func (s *PortalService) MyStudents(ctx context.Context, email string) ([]Student, error) {
	guardianID, err := s.guardianID(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.repo.ListMyStudents(ctx, guardianID)
}

func (s *PortalService) Diary(ctx context.Context, email string, day time.Time, studentID *uuid.UUID) ([]DiaryEntry, error) {
	guardianID, err := s.guardianID(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.repo.ListDiary(ctx, guardianID, day, studentID)
}

func (s *PortalService) Charges(ctx context.Context, email, status string) ([]Charge, error) {
	guardianID, err := s.guardianID(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.repo.ListCharges(ctx, guardianID, status)
}

func (s *PortalService) Notices(ctx context.Context) ([]Notice, error) {
	return s.repo.ListNotices(ctx)
}
