package portal

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

// Repository fornece acesso aos dados visíveis ao responsável.
// Todas as consultas são filtradas pelo e-mail do responsável autenticado,
// nunca por parâmetros vindos do cliente.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type Student struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	BirthDate        *time.Time `json:"birth_date,omitempty"`
	EnrollmentStatus string     `json:"enrollment_status"`
	ClassName        *string    `json:"class_name,omitempty"`
	PhotoURL         *string    `json:"photo_url,omitempty"`
	Relationship     *string    `json:"relationship,omitempty"`
}

type DiaryEntry struct {
	ID          uuid.UUID `json:"id"`
	StudentID   uuid.UUID `json:"student_id"`
	StudentName string    `json:"student_name"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	PhotoURL    *string   `json:"photo_url,omitempty"`
}

type Charge struct {
	ID          uuid.UUID  `json:"id"`
	StudentName *string    `json:"student_name,omitempty"`
	Title       string     `json:"title"`
	Amount      float64    `json:"amount"`
	DueDate     time.Time  `json:"due_date"`
	Status      string     `json:"status"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	PixCode     *string    `json:"pix_code,omitempty"`
	PaymentLink *string    `json:"payment_link,omitempty"`
}

type Notice struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// GuardianIDByEmail localiza o responsável dono da sessão.
func (r *Repository) GuardianIDByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT id FROM guardians WHERE email = $1 LIMIT 1`, email).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, errNotFound
	}
	return id, err
}

func (r *Repository) ListMyStudents(ctx context.Context, guardianID uuid.UUID) ([]Student, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.name, s.birth_date, s.enrollment_status, c.name, s.photo_url, sg.relationship
		FROM student_guardians sg
		JOIN students s ON s.id = sg.student_id
		LEFT JOIN classes c ON c.id = s.class_id
		WHERE sg.guardian_id = $1
		ORDER BY s.name
	`, guardianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Name, &s.BirthDate, &s.EnrollmentStatus, &s.ClassName, &s.PhotoURL, &s.Relationship); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// ListDiary retorna registros do dia apenas para alunos vinculados ao responsável.
func (r *Repository) ListDiary(ctx context.Context, guardianID uuid.UUID, day time.Time, studentID *uuid.UUID) ([]DiaryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT d.id, d.student_id, s.name, d.date, d.type, d.description, d.photo_url
		FROM daily_logs d
		JOIN students s ON s.id = d.student_id
		JOIN student_guardians sg ON sg.student_id = d.student_id AND sg.guardian_id = $1
		WHERE d.date = $2
		  AND ($3::uuid IS NULL OR d.student_id = $3)
		ORDER BY s.name, d.created_at
	`, guardianID, day, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []DiaryEntry
	for rows.Next() {
		var e DiaryEntry
		if err := rows.Scan(&e.ID, &e.StudentID, &e.StudentName, &e.Date, &e.Type, &e.Description, &e.PhotoURL); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListCharges retorna as cobranças atribuídas ao responsável, com o status
// "overdue" derivado na leitura.
func (r *Repository) ListCharges(ctx context.Context, guardianID uuid.UUID, status string) ([]Charge, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT f.id, s.name, f.title, f.amount, f.due_date,
			CASE WHEN f.status = 'pending' AND f.due_date < CURRENT_DATE THEN 'overdue' ELSE f.status END,
			f.paid_at, f.pix_code, f.payment_link
		FROM financial_records f
		LEFT JOIN students s ON s.id = f.student_id
		WHERE f.type = 'income'
		  AND f.guardian_id = $1
		  AND f.status <> 'cancelled'
		  AND ($2 = '' OR (CASE WHEN f.status = 'pending' AND f.due_date < CURRENT_DATE THEN 'overdue' ELSE f.status END) = $2)
		ORDER BY f.due_date DESC
	`, guardianID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charges []Charge
	for rows.Next() {
		var c Charge
		if err := rows.Scan(&c.ID, &c.StudentName, &c.Title, &c.Amount, &c.DueDate, &c.Status, &c.PaidAt, &c.PixCode, &c.PaymentLink); err != nil {
			return nil, err
		}
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

func (r *Repository) ListNotices(ctx context.Context) ([]Notice, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, title, body, created_at
		FROM notices
		WHERE audience IN ('all', 'guardians')
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notices []Notice
	for rows.Next() {
		var n Notice
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.CreatedAt); err != nil {
			return nil, err
		}
		notices = append(notices, n)
	}
	return notices, rows.Err()
}
