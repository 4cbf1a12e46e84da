package repo

import (
	"time"

	"github.com/google/uuid"
)

// Account representa credencial de acesso ao sistema. O papel (admin,
// teacher, guardian) nunca é gravado aqui; é derivado pelo e-mail a cada
// sessão.
type Account struct {
	ID        uuid.UUID
	Email     string
	SenhaHash string
	Ativo     bool
	CriadoEm  time.Time
}

// StaffMember representa funcionário(a) da escola. Cargo é texto livre e
// alimenta a derivação de papel no login.
type StaffMember struct {
	ID        uuid.UUID
	Name      string
	CPF       *string
	BirthDate *time.Time
	Role      string
	Phone     *string
	Email     string
	Status    string
	CriadoEm  time.Time
}

// Guardian representa responsável por um ou mais alunos.
type Guardian struct {
	ID       uuid.UUID
	Name     string
	CPF      *string
	RG       *string
	Phone    *string
	Email    *string
	Address  *string
	CriadoEm time.Time
}

// Student representa aluno matriculado.
type Student struct {
	ID               uuid.UUID
	Name             string
	BirthDate        *time.Time
	EnrollmentStatus string
	ClassID          *uuid.UUID
	PhotoURL         *string
	CriadoEm         time.Time
}

// StudentGuardian vincula aluno a responsável. O flag financeiro é
// consultivo: mais de um vínculo pode estar marcado para o mesmo aluno.
type StudentGuardian struct {
	ID                     uuid.UUID
	StudentID              uuid.UUID
	GuardianID             uuid.UUID
	Relationship           string
	IsFinancialResponsible bool
}

// Class representa turma.
type Class struct {
	ID       uuid.UUID
	Name     string
	Shift    string
	CriadoEm time.Time
}

// FinancialRecord representa lançamento financeiro (cobrança ou despesa).
// Cobranças (type=income) sempre carregam o responsável pagador.
type FinancialRecord struct {
	ID          uuid.UUID
	StudentID   *uuid.UUID
	GuardianID  *uuid.UUID
	Title       string
	Amount      float64
	DueDate     *time.Time
	Status      string
	Type        string
	PaidAt      *time.Time
	PixCode     *string
	PaymentLink *string
	Notes       *string
	CriadoEm    time.Time
}

// DailyLog registra item da rotina do aluno no diário.
type DailyLog struct {
	ID          uuid.UUID
	StudentID   uuid.UUID
	Date        time.Time
	Type        string
	Description string
	PhotoURL    *string
	CriadoEm    time.Time
}

// Notice representa aviso publicado no mural.
type Notice struct {
	ID       uuid.UUID
	Title    string
	Body     string
	Audience string
	CriadoEm time.Time
}

// RefreshToken modela tabela de refresh tokens.
type RefreshToken struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	Audience  string
	TokenHash string
	Expiracao time.Time
	CriadoEm  time.Time
	Revogado  bool
}

// InsertRefreshTokenParams agrupa os campos persistidos no insert.
type InsertRefreshTokenParams struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	Audience  string
	TokenHash string
	Expiracao time.Time
	CriadoEm  time.Time
}
