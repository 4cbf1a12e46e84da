package financeiro

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type stubFinanceRepo struct {
	financialResponsible map[uuid.UUID]uuid.UUID
	anyGuardian          map[uuid.UUID]uuid.UUID
	probeErr             error
	inserted             []Record
}

func (s *stubFinanceRepo) FindFinancialResponsible(ctx context.Context, studentID uuid.UUID) (uuid.UUID, error) {
	if s.probeErr != nil {
		return uuid.Nil, s.probeErr
	}
	if id, ok := s.financialResponsible[studentID]; ok {
		return id, nil
	}
	return uuid.Nil, errNotFound
}

func (s *stubFinanceRepo) FindAnyGuardian(ctx context.Context, studentID uuid.UUID) (uuid.UUID, error) {
	if s.probeErr != nil {
		return uuid.Nil, s.probeErr
	}
	if id, ok := s.anyGuardian[studentID]; ok {
		return id, nil
	}
	return uuid.Nil, errNotFound
}

func (s *stubFinanceRepo) InsertRecord(ctx context.Context, rec Record) (Record, error) {
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	s.inserted = append(s.inserted, rec)
	return rec, nil
}

func (s *stubFinanceRepo) GetRecord(ctx context.Context, id uuid.UUID) (Record, error) {
	for _, rec := range s.inserted {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, errNotFound
}

func (s *stubFinanceRepo) ListRecords(ctx context.Context, recordType, status, month string) ([]Record, error) {
	return s.inserted, nil
}

func (s *stubFinanceRepo) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	for i, rec := range s.inserted {
		if rec.ID == id && rec.Status == "pending" {
			s.inserted[i].Status = "paid"
			s.inserted[i].PaidAt = &paidAt
			return nil
		}
	}
	return errNotFound
}

func (s *stubFinanceRepo) CancelRecord(ctx context.Context, id uuid.UUID) error {
	for i, rec := range s.inserted {
		if rec.ID == id && rec.Status == "pending" {
			s.inserted[i].Status = "cancelled"
			return nil
		}
	}
	return errNotFound
}

func (s *stubFinanceRepo) MonthSummary(ctx context.Context, month string) (Summary, error) {
	return Summary{}, nil
}

func chargeInput(studentID uuid.UUID) ChargeInput {
	return ChargeInput{
		StudentID: studentID,
		Title:     "Mensalidade Março",
		Amount:    850,
		DueDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestResolvePayerPrefersFinancialResponsible(t *testing.T) {
	studentID := uuid.New()
	flagged := uuid.New()
	other := uuid.New()

	repo := &stubFinanceRepo{
		financialResponsible: map[uuid.UUID]uuid.UUID{studentID: flagged},
		anyGuardian:          map[uuid.UUID]uuid.UUID{studentID: other},
	}
	svc := NewFinanceService(repo, nil)

	payer, err := svc.ResolvePayer(context.Background(), studentID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payer != flagged {
		t.Fatalf("expected flagged guardian %s got %s", flagged, payer)
	}
}

func TestResolvePayerFallsBackToAnyGuardian(t *testing.T) {
	studentID := uuid.New()
	anyone := uuid.New()

	repo := &stubFinanceRepo{
		anyGuardian: map[uuid.UUID]uuid.UUID{studentID: anyone},
	}
	svc := NewFinanceService(repo, nil)

	payer, err := svc.ResolvePayer(context.Background(), studentID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payer != anyone {
		t.Fatalf("expected fallback guardian %s got %s", anyone, payer)
	}
}

func TestResolvePayerFailsWithoutLinks(t *testing.T) {
	repo := &stubFinanceRepo{}
	svc := NewFinanceService(repo, nil)

	if _, err := svc.ResolvePayer(context.Background(), uuid.New()); !errors.Is(err, ErrSemResponsavel) {
		t.Fatalf("expected ErrSemResponsavel got %v", err)
	}
}

func TestCreateChargeAssignsPayer(t *testing.T) {
	studentID := uuid.New()
	guardianID := uuid.New()

	repo := &stubFinanceRepo{
		financialResponsible: map[uuid.UUID]uuid.UUID{studentID: guardianID},
	}
	svc := NewFinanceService(repo, nil)

	rec, err := svc.CreateCharge(context.Background(), chargeInput(studentID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.GuardianID == nil || *rec.GuardianID != guardianID {
		t.Fatalf("expected guardian %s got %v", guardianID, rec.GuardianID)
	}
	if rec.Status != "pending" {
		t.Fatalf("expected pending got %q", rec.Status)
	}
	if rec.Type != "income" {
		t.Fatalf("expected income got %q", rec.Type)
	}
}

func TestCreateChargeWithoutGuardianWritesNothing(t *testing.T) {
	repo := &stubFinanceRepo{}
	svc := NewFinanceService(repo, nil)

	_, err := svc.CreateCharge(context.Background(), chargeInput(uuid.New()))
	if !errors.Is(err, ErrSemResponsavel) {
		t.Fatalf("expected ErrSemResponsavel got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("expected no record written, got %d", len(repo.inserted))
	}
}

func TestCreateChargeProbeErrorWritesNothing(t *testing.T) {
	boom := errors.New("conexão recusada")
	repo := &stubFinanceRepo{probeErr: boom}
	svc := NewFinanceService(repo, nil)

	if _, err := svc.CreateCharge(context.Background(), chargeInput(uuid.New())); !errors.Is(err, boom) {
		t.Fatalf("expected propagated error got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("expected no record written, got %d", len(repo.inserted))
	}
}

func TestCreateChargeValidation(t *testing.T) {
	repo := &stubFinanceRepo{}
	svc := NewFinanceService(repo, nil)

	input := chargeInput(uuid.New())
	input.Amount = 0
	if _, err := svc.CreateCharge(context.Background(), input); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}

	input = chargeInput(uuid.New())
	input.Title = "   "
	if _, err := svc.CreateCharge(context.Background(), input); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}
}

func TestCreateExpenseHasNoPayer(t *testing.T) {
	repo := &stubFinanceRepo{}
	svc := NewFinanceService(repo, nil)

	rec, err := svc.CreateExpense(context.Background(), ExpenseInput{
		Title:   "Material de limpeza",
		Amount:  120.5,
		DueDate: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Type != "expense" {
		t.Fatalf("expected expense got %q", rec.Type)
	}
	if rec.GuardianID != nil || rec.StudentID != nil {
		t.Fatal("expense must not carry student or guardian")
	}
}

func TestListRecordsStatusFilter(t *testing.T) {
	svc := NewFinanceService(&stubFinanceRepo{}, nil)

	for _, status := range []string{"", "pending", "paid", "overdue", "cancelled"} {
		if _, err := svc.ListRecords(context.Background(), "", status, ""); err != nil {
			t.Fatalf("%q: unexpected error %v", status, err)
		}
	}

	if _, err := svc.ListRecords(context.Background(), "", "canceled", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for single-l spelling, got %v", err)
	}
}

func TestMarkPaidOnlyOnce(t *testing.T) {
	studentID := uuid.New()
	repo := &stubFinanceRepo{
		financialResponsible: map[uuid.UUID]uuid.UUID{studentID: uuid.New()},
	}
	svc := NewFinanceService(repo, nil)

	rec, err := svc.CreateCharge(context.Background(), chargeInput(studentID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.MarkPaid(context.Background(), rec.ID); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if err := svc.MarkPaid(context.Background(), rec.ID); !errors.Is(err, errNotFound) {
		t.Fatalf("expected errNotFound on second payment got %v", err)
	}
}
