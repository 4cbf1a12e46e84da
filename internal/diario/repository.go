package diario

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

// Repository fornece acesso aos registros do diário e aos avisos.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type Entry struct {
	ID          uuid.UUID `json:"id"`
	StudentID   uuid.UUID `json:"student_id"`
	StudentName string    `json:"student_name"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	PhotoURL    *string   `json:"photo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Notice struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Audience  string    `json:"audience"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *Repository) ListEntries(ctx context.Context, day time.Time, studentID, classID *uuid.UUID) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT d.id, d.student_id, s.name, d.date, d.type, d.description, d.photo_url, d.created_at
		FROM daily_logs d
		JOIN students s ON s.id = d.student_id
		WHERE d.date = $1
		  AND ($2::uuid IS NULL OR d.student_id = $2)
		  AND ($3::uuid IS NULL OR s.class_id = $3)
		ORDER BY s.name, d.created_at
	`, day, studentID, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.StudentID, &e.StudentName, &e.Date, &e.Type, &e.Description, &e.PhotoURL, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *Repository) InsertEntry(ctx context.Context, e Entry) (Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO daily_logs (student_id, date, type, description, photo_url)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at
	`, e.StudentID, e.Date, e.Type, e.Description, e.PhotoURL).Scan(&e.ID, &e.CreatedAt)
	return e, err
}

func (r *Repository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM daily_logs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

func (r *Repository) ListNotices(ctx context.Context, audience string) ([]Notice, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, title, body, audience, created_at
		FROM notices
		WHERE ($1 = '' OR audience = $1 OR audience = 'all')
		ORDER BY created_at DESC
	`, audience)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notices []Notice
	for rows.Next() {
		var n Notice
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.Audience, &n.CreatedAt); err != nil {
			return nil, err
		}
		notices = append(notices, n)
	}
	return notices, rows.Err()
}

func (r *Repository) InsertNotice(ctx context.Context, n Notice) (Notice, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO notices (title, body, audience)
		VALUES ($1,$2,$3)
		RETURNING id, created_at
	`, n.Title, n.Body, n.Audience).Scan(&n.ID, &n.CreatedAt)
	return n, err
}

func (r *Repository) DeleteNotice(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

// StudentExists confirma a existência do aluno antes de registrar no diário.
func (r *Repository) StudentExists(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, `SELECT TRUE FROM students WHERE id = $1`, id).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return errNotFound
	}
	return err
}
