package financeiro

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrValidation = errors.New("validation")

	// ErrSemResponsavel indica aluno sem nenhum responsável vinculado.
	// Nesse caso a cobrança não é criada.
	ErrSemResponsavel = errors.New("aluno sem responsável vinculado")
)

// FinanceRepository descreve o acesso a dados usado pelo serviço.
type FinanceRepository interface {
	FindFinancialResponsible(context.Context, uuid.UUID) (uuid.UUID, error)
	FindAnyGuardian(context.Context, uuid.UUID) (uuid.UUID, error)
	InsertRecord(context.Context, Record) (Record, error)
	GetRecord(context.Context, uuid.UUID) (Record, error)
	ListRecords(context.Context, string, string, string) ([]Record, error)
	MarkPaid(context.Context, uuid.UUID, time.Time) error
	CancelRecord(context.Context, uuid.UUID) error
	MonthSummary(context.Context, string) (Summary, error)
}

// FinanceService concentra as regras de cobrança e despesas.
type FinanceService struct {
	repo  FinanceRepository
	cache *redis.Client
}

func NewFinanceService(repo FinanceRepository, cache *redis.Client) *FinanceService {
	return &FinanceService{repo: repo, cache: cache}
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// ResolvePayer determina quem paga as cobranças de um aluno: o vínculo
// marcado como responsável financeiro tem prioridade; sem marcação, vale
// qualquer responsável vinculado. Sem vínculo algum, a operação falha.
func (s *FinanceService) ResolvePayer(ctx context.Context, studentID uuid.UUID) (uuid.UUID, error) {
	guardianID, err := s.repo.FindFinancialResponsible(ctx, studentID)
	if err == nil {
		return guardianID, nil
	}
	if !errors.Is(err, errNotFound) {
		return uuid.Nil, err
	}

	guardianID, err = s.repo.FindAnyGuardian(ctx, studentID)
	if err == nil {
		return guardianID, nil
	}
	if !errors.Is(err, errNotFound) {
		return uuid.Nil, err
	}

	return uuid.Nil, ErrSemResponsavel
}

type ChargeInput struct {
	StudentID   uuid.UUID
	Title       string
	Amount      float64
	DueDate     time.Time
	PixCode     *string
	PaymentLink *string
	Notes       *string
}

// CreateCharge cria uma cobrança pendente já atribuída ao pagador do aluno.
// A resolução do pagador acontece antes de qualquer gravação.
func (s *FinanceService) CreateCharge(ctx context.Context, input ChargeInput) (Record, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.StudentID == uuid.Nil {
		return Record{}, validationError("aluno obrigatório")
	}
	if input.Title == "" {
		return Record{}, validationError("título obrigatório")
	}
	if input.Amount <= 0 {
		return Record{}, validationError("valor deve ser maior que zero")
	}
	if input.DueDate.IsZero() {
		return Record{}, validationError("vencimento obrigatório")
	}

	guardianID, err := s.ResolvePayer(ctx, input.StudentID)
	if err != nil {
		return Record{}, err
	}

	rec, err := s.repo.InsertRecord(ctx, Record{
		Type:        "income",
		StudentID:   &input.StudentID,
		GuardianID:  &guardianID,
		Title:       input.Title,
		Amount:      input.Amount,
		DueDate:     input.DueDate,
		Status:      "pending",
		PixCode:     input.PixCode,
		PaymentLink: input.PaymentLink,
		Notes:       input.Notes,
	})
	if err != nil {
		return Record{}, err
	}
	s.invalidateSummary(ctx, rec.DueDate)
	return rec, nil
}

type ExpenseInput struct {
	Title   string
	Amount  float64
	DueDate time.Time
	Notes   *string
}

// CreateExpense registra uma despesa da escola, sem aluno nem pagador.
func (s *FinanceService) CreateExpense(ctx context.Context, input ExpenseInput) (Record, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return Record{}, validationError("título obrigatório")
	}
	if input.Amount <= 0 {
		return Record{}, validationError("valor deve ser maior que zero")
	}
	if input.DueDate.IsZero() {
		return Record{}, validationError("vencimento obrigatório")
	}

	rec, err := s.repo.InsertRecord(ctx, Record{
		Type:    "expense",
		Title:   input.Title,
		Amount:  input.Amount,
		DueDate: input.DueDate,
		Status:  "pending",
		Notes:   input.Notes,
	})
	if err != nil {
		return Record{}, err
	}
	s.invalidateSummary(ctx, rec.DueDate)
	return rec, nil
}

func (s *FinanceService) ListRecords(ctx context.Context, recordType, status, month string) ([]Record, error) {
	switch recordType {
	case "", "income", "expense":
	default:
		return nil, validationError("tipo inválido")
	}
	switch status {
	case "", "pending", "paid", "overdue", "cancelled":
	default:
		return nil, validationError("status inválido")
	}
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			return nil, validationError("mês inválido, use YYYY-MM")
		}
	}
	return s.repo.ListRecords(ctx, recordType, status, month)
}

func (s *FinanceService) GetRecord(ctx context.Context, id uuid.UUID) (Record, error) {
	return s.repo.GetRecord(ctx, id)
}

// MarkPaid registra o pagamento de uma cobrança pendente (ou atrasada,
// já que atraso é apenas pendência vencida).
func (s *FinanceService) MarkPaid(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.MarkPaid(ctx, id, time.Now().UTC()); err != nil {
		return err
	}
	if rec, err := s.repo.GetRecord(ctx, id); err == nil {
		s.invalidateSummary(ctx, rec.DueDate)
	}
	return nil
}

func (s *FinanceService) Cancel(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.CancelRecord(ctx, id); err != nil {
		return err
	}
	if rec, err := s.repo.GetRecord(ctx, id); err == nil {
		s.invalidateSummary(ctx, rec.DueDate)
	}
	return nil
}

// MonthSummary retorna o consolidado do mês, com cache curto.
func (s *FinanceService) MonthSummary(ctx context.Context, month string) (Summary, error) {
	if _, err := time.Parse("2006-01", month); err != nil {
		return Summary{}, validationError("mês inválido, use YYYY-MM")
	}

	key := summaryCacheKey(month)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var summary Summary
			if json.Unmarshal(data, &summary) == nil {
				return summary, nil
			}
		}
	}

	summary, err := s.repo.MonthSummary(ctx, month)
	if err != nil {
		return Summary{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(summary); err == nil {
			_ = s.cache.Set(ctx, key, payload, 60*time.Second).Err()
		}
	}

	return summary, nil
}

func summaryCacheKey(month string) string {
	return "financeiro:summary:" + month
}

func (s *FinanceService) invalidateSummary(ctx context.Context, dueDate time.Time) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, summaryCacheKey(dueDate.Format("2006-01"))).Err()
	}
}
