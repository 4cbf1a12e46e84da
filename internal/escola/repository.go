package escola

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mitomaniaco/escola-tia-sol/internal/db"
)

var errNotFound = errors.New("not found")

const dbTimeout = 3 * time.Second

// Repository fornece acesso aos dados da secretaria.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type Class struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Shift        string    `json:"shift"`
	StudentCount int       `json:"student_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type Student struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	BirthDate        *time.Time `json:"birth_date,omitempty"`
	EnrollmentStatus string     `json:"enrollment_status"`
	ClassID          *uuid.UUID `json:"class_id,omitempty"`
	ClassName        *string    `json:"class_name,omitempty"`
	PhotoURL         *string    `json:"photo_url,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type Guardian struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CPF       string    `json:"cpf"`
	RG        *string   `json:"rg,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Email     string    `json:"email"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type StaffMember struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	CPF       string     `json:"cpf"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Role      string     `json:"role"`
	Phone     *string    `json:"phone,omitempty"`
	Email     string     `json:"email"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

type GuardianLink struct {
	ID                     uuid.UUID `json:"id"`
	StudentID              uuid.UUID `json:"student_id"`
	GuardianID             uuid.UUID `json:"guardian_id"`
	GuardianName           string    `json:"guardian_name"`
	Relationship           *string   `json:"relationship,omitempty"`
	IsFinancialResponsible bool      `json:"is_financial_responsible"`
}

type DashboardCounts struct {
	ActiveStudents int `json:"active_students"`
	Classes        int `json:"classes"`
	ActiveStaff    int `json:"active_staff"`
	Guardians      int `json:"guardians"`
	PendingCharges int `json:"pending_charges"`
}

// ---- Alunos ----

func (r *Repository) ListStudents(ctx context.Context, classID *uuid.UUID, status string) ([]Student, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.name, s.birth_date, s.enrollment_status, s.class_id, c.name, s.photo_url, s.created_at
		FROM students s
		LEFT JOIN classes c ON c.id = s.class_id
		WHERE ($1::uuid IS NULL OR s.class_id = $1)
		  AND ($2 = '' OR s.enrollment_status = $2)
		ORDER BY s.name
	`, classID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Name, &s.BirthDate, &s.EnrollmentStatus, &s.ClassID, &s.ClassName, &s.PhotoURL, &s.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

func (r *Repository) GetStudent(ctx context.Context, id uuid.UUID) (Student, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var s Student
	err := r.db.QueryRow(ctx, `
		SELECT s.id, s.name, s.birth_date, s.enrollment_status, s.class_id, c.name, s.photo_url, s.created_at
		FROM students s
		LEFT JOIN classes c ON c.id = s.class_id
		WHERE s.id = $1
	`, id).Scan(&s.ID, &s.Name, &s.BirthDate, &s.EnrollmentStatus, &s.ClassID, &s.ClassName, &s.PhotoURL, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, errNotFound
	}
	return s, err
}

func (r *Repository) InsertStudent(ctx context.Context, s Student) (Student, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO students (name, birth_date, enrollment_status, class_id, photo_url)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at
	`, s.Name, s.BirthDate, s.EnrollmentStatus, s.ClassID, s.PhotoURL).Scan(&s.ID, &s.CreatedAt)
	return s, err
}

func (r *Repository) UpdateStudent(ctx context.Context, s Student) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE students
		SET name=$1, birth_date=$2, enrollment_status=$3, class_id=$4, photo_url=$5
		WHERE id=$6
	`, s.Name, s.BirthDate, s.EnrollmentStatus, s.ClassID, s.PhotoURL, s.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

func (r *Repository) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

// ---- Responsáveis ----

func (r *Repository) ListGuardians(ctx context.Context, search string) ([]Guardian, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, name, cpf, rg, phone, email, address, created_at
		FROM guardians
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR cpf = $1)
		ORDER BY name
	`, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guardians []Guardian
	for rows.Next() {
		var g Guardian
		if err := rows.Scan(&g.ID, &g.Name, &g.CPF, &g.RG, &g.Phone, &g.Email, &g.Address, &g.CreatedAt); err != nil {
			return nil, err
		}
		guardians = append(guardians, g)
	}
	return guardians, rows.Err()
}

func (r *Repository) GetGuardian(ctx context.Context, id uuid.UUID) (Guardian, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var g Guardian
	err := r.db.QueryRow(ctx, `
		SELECT id, name, cpf, rg, phone, email, address, created_at
		FROM guardians
		WHERE id = $1
	`, id).Scan(&g.ID, &g.Name, &g.CPF, &g.RG, &g.Phone, &g.Email, &g.Address, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return g, errNotFound
	}
	return g, err
}

func (r *Repository) InsertGuardian(ctx context.Context, g Guardian) (Guardian, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO guardians (name, cpf, rg, phone, email, address)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at
	`, g.Name, g.CPF, g.RG, g.Phone, g.Email, g.Address).Scan(&g.ID, &g.CreatedAt)
	return g, err
}

func (r *Repository) UpdateGuardian(ctx context.Context, g Guardian) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE guardians
		SET name=$1, cpf=$2, rg=$3, phone=$4, email=$5, address=$6
		WHERE id=$7
	`, g.Name, g.CPF, g.RG, g.Phone, g.Email, g.Address, g.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

func (r *Repository) DeleteGuardian(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM guardians WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

// ---- Vínculos aluno/responsável ----

func (r *Repository) ListGuardianLinks(ctx context.Context, studentID uuid.UUID) ([]GuardianLink, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT sg.id, sg.student_id, sg.guardian_id, g.name, sg.relationship, sg.is_financial_responsible
		FROM student_guardians sg
		JOIN guardians g ON g.id = sg.guardian_id
		WHERE sg.student_id = $1
		ORDER BY g.name
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []GuardianLink
	for rows.Next() {
		var l GuardianLink
		if err := rows.Scan(&l.ID, &l.StudentID, &l.GuardianID, &l.GuardianName, &l.Relationship, &l.IsFinancialResponsible); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (r *Repository) AttachGuardian(ctx context.Context, link GuardianLink) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id uuid.UUID
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		// Garante no máximo um responsável financeiro por aluno.
		if link.IsFinancialResponsible {
			if _, err := tx.Exec(ctx, `
				UPDATE student_guardians
				SET is_financial_responsible = FALSE
				WHERE student_id = $1
			`, link.StudentID); err != nil {
				return err
			}
		}

		return tx.QueryRow(ctx, `
			INSERT INTO student_guardians (student_id, guardian_id, relationship, is_financial_responsible)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (student_id, guardian_id)
			DO UPDATE SET relationship = EXCLUDED.relationship, is_financial_responsible = EXCLUDED.is_financial_responsible
			RETURNING id
		`, link.StudentID, link.GuardianID, link.Relationship, link.IsFinancialResponsible).Scan(&id)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *Repository) DetachGuardian(ctx context.Context, studentID, guardianID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		DELETE FROM student_guardians
		WHERE student_id = $1 AND guardian_id = $2
	`, studentID, guardianID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

// ---- Turmas ----

func (r *Repository) ListClasses(ctx context.Context) ([]Class, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.name, c.shift, COUNT(s.id), c.created_at
		FROM classes c
		LEFT JOIN students s ON s.class_id = c.id AND s.enrollment_status = 'active'
		GROUP BY c.id
		ORDER BY c.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []Class
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.Name, &c.Shift, &c.StudentCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (r *Repository) InsertClass(ctx context.Context, c Class) (Class, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO classes (name, shift)
		VALUES ($1,$2)
		RETURNING id, created_at
	`, c.Name, c.Shift).Scan(&c.ID, &c.CreatedAt)
	return c, err
}

func (r *Repository) UpdateClass(ctx context.Context, c Class) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE classes SET name=$1, shift=$2 WHERE id=$3`, c.Name, c.Shift, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

func (r *Repository) DeleteClass(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		// Alunos da turma voltam a ficar sem turma, não são excluídos junto.
		if _, err := tx.Exec(ctx, `UPDATE students SET class_id = NULL WHERE class_id = $1`, id); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM classes WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errNotFound
		}
		return nil
	})
}

// ---- Equipe ----

func (r *Repository) ListStaff(ctx context.Context, status string) ([]StaffMember, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, name, cpf, birth_date, role, phone, email, status, created_at
		FROM staff
		WHERE ($1 = '' OR status = $1)
		ORDER BY name
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []StaffMember
	for rows.Next() {
		var m StaffMember
		if err := rows.Scan(&m.ID, &m.Name, &m.CPF, &m.BirthDate, &m.Role, &m.Phone, &m.Email, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *Repository) GetStaffMember(ctx context.Context, id uuid.UUID) (StaffMember, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var m StaffMember
	err := r.db.QueryRow(ctx, `
		SELECT id, name, cpf, birth_date, role, phone, email, status, created_at
		FROM staff
		WHERE id = $1
	`, id).Scan(&m.ID, &m.Name, &m.CPF, &m.BirthDate, &m.Role, &m.Phone, &m.Email, &m.Status, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return m, errNotFound
	}
	return m, err
}

func (r *Repository) InsertStaffMember(ctx context.Context, m StaffMember) (StaffMember, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO staff (name, cpf, birth_date, role, phone, email, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at
	`, m.Name, m.CPF, m.BirthDate, m.Role, m.Phone, m.Email, m.Status).Scan(&m.ID, &m.CreatedAt)
	return m, err
}

func (r *Repository) UpdateStaffMember(ctx context.Context, m StaffMember) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE staff
		SET name=$1, cpf=$2, birth_date=$3, role=$4, phone=$5, email=$6, status=$7
		WHERE id=$8
	`, m.Name, m.CPF, m.BirthDate, m.Role, m.Phone, m.Email, m.Status, m.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

func (r *Repository) DeleteStaffMember(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

// ---- Painel ----

func (r *Repository) CountDashboard(ctx context.Context) (DashboardCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var counts DashboardCounts
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM students WHERE enrollment_status = 'active'),
			(SELECT COUNT(*) FROM classes),
			(SELECT COUNT(*) FROM staff WHERE status = 'active'),
			(SELECT COUNT(*) FROM guardians),
			(SELECT COUNT(*) FROM financial_records WHERE type = 'income' AND status = 'pending')
	`).Scan(&counts.ActiveStudents, &counts.Classes, &counts.ActiveStaff, &counts.Guardians, &counts.PendingCharges)
	return counts, err
}
