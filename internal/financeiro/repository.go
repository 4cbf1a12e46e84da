package financeiro

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errNotFound = errors.New("not found")

const dbTimeout = 3 * time.Second

// Repository fornece acesso aos lançamentos financeiros.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Record representa um lançamento (cobrança ou despesa).
// O status "overdue" nunca é gravado: é derivado na leitura a partir
// de pending + vencimento no passado.
type Record struct {
	ID           uuid.UUID  `json:"id"`
	Type         string     `json:"type"`
	StudentID    *uuid.UUID `json:"student_id,omitempty"`
	StudentName  *string    `json:"student_name,omitempty"`
	GuardianID   *uuid.UUID `json:"guardian_id,omitempty"`
	GuardianName *string    `json:"guardian_name,omitempty"`
	Title        string     `json:"title"`
	Amount       float64    `json:"amount"`
	DueDate      time.Time  `json:"due_date"`
	Status       string     `json:"status"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
	PixCode      *string    `json:"pix_code,omitempty"`
	PaymentLink  *string    `json:"payment_link,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Summary consolida o mês para os cartões do painel financeiro.
type Summary struct {
	Received     float64 `json:"received"`
	Pending      float64 `json:"pending"`
	Overdue      float64 `json:"overdue"`
	OverdueCount int     `json:"overdue_count"`
	Expenses     float64 `json:"expenses"`
}

const recordColumns = `
	f.id, f.type, f.student_id, s.name, f.guardian_id, g.name,
	f.title, f.amount, f.due_date,
	CASE WHEN f.status = 'pending' AND f.due_date < CURRENT_DATE THEN 'overdue' ELSE f.status END,
	f.paid_at, f.pix_code, f.payment_link, f.notes, f.created_at
`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.Type, &rec.StudentID, &rec.StudentName, &rec.GuardianID, &rec.GuardianName,
		&rec.Title, &rec.Amount, &rec.DueDate, &rec.Status,
		&rec.PaidAt, &rec.PixCode, &rec.PaymentLink, &rec.Notes, &rec.CreatedAt,
	)
	return rec, err
}

// FindFinancialResponsible retorna o responsável marcado como financeiro do aluno.
func (r *Repository) FindFinancialResponsible(ctx context.Context, studentID uuid.UUID) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var guardianID uuid.UUID
	err := r.db.QueryRow(ctx, `
		SELECT guardian_id
		FROM student_guardians
		WHERE student_id = $1 AND is_financial_responsible = TRUE
		LIMIT 1
	`, studentID).Scan(&guardianID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, errNotFound
	}
	return guardianID, err
}

// FindAnyGuardian retorna qualquer responsável vinculado ao aluno.
func (r *Repository) FindAnyGuardian(ctx context.Context, studentID uuid.UUID) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var guardianID uuid.UUID
	err := r.db.QueryRow(ctx, `
		SELECT guardian_id
		FROM student_guardians
		WHERE student_id = $1
		ORDER BY id
		LIMIT 1
	`, studentID).Scan(&guardianID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, errNotFound
	}
	return guardianID, err
}

func (r *Repository) InsertRecord(ctx context.Context, rec Record) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO financial_records (type, student_id, guardian_id, title, amount, due_date, status, pix_code, payment_link, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, created_at
	`, rec.Type, rec.StudentID, rec.GuardianID, rec.Title, rec.Amount, rec.DueDate, rec.Status,
		rec.PixCode, rec.PaymentLink, rec.Notes).Scan(&rec.ID, &rec.CreatedAt)
	return rec, err
}

func (r *Repository) GetRecord(ctx context.Context, id uuid.UUID) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rec, err := scanRecord(r.db.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM financial_records f
		LEFT JOIN students s ON s.id = f.student_id
		LEFT JOIN guardians g ON g.id = f.guardian_id
		WHERE f.id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, errNotFound
	}
	return rec, err
}

// ListRecords filtra por tipo, status derivado e mês de vencimento (YYYY-MM).
func (r *Repository) ListRecords(ctx context.Context, recordType, status, month string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+recordColumns+`
		FROM financial_records f
		LEFT JOIN students s ON s.id = f.student_id
		LEFT JOIN guardians g ON g.id = f.guardian_id
		WHERE ($1 = '' OR f.type = $1)
		  AND ($2 = '' OR (CASE WHEN f.status = 'pending' AND f.due_date < CURRENT_DATE THEN 'overdue' ELSE f.status END) = $2)
		  AND ($3 = '' OR to_char(f.due_date, 'YYYY-MM') = $3)
		ORDER BY f.due_date DESC, f.created_at DESC
	`, recordType, status, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// MarkPaid efetiva o pagamento de uma cobrança pendente.
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE financial_records
		SET status = 'paid', paid_at = $2
		WHERE id = $1 AND status = 'pending'
	`, id, paidAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

// CancelRecord cancela uma cobrança ainda não paga.
func (r *Repository) CancelRecord(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE financial_records
		SET status = 'cancelled'
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

// MonthSummary consolida o mês informado (YYYY-MM).
func (r *Repository) MonthSummary(ctx context.Context, month string) (Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var s Summary
	err := r.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'income' AND status = 'paid'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'income' AND status = 'pending' AND due_date >= CURRENT_DATE), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'income' AND status = 'pending' AND due_date < CURRENT_DATE), 0),
			COUNT(*) FILTER (WHERE type = 'income' AND status = 'pending' AND due_date < CURRENT_DATE),
			COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0)
		FROM financial_records
		WHERE to_char(due_date, 'YYYY-MM') = $1
	`, month).Scan(&s.Received, &s.Pending, &s.Overdue, &s.OverdueCount, &s.Expenses)
	return s, err
}
