package service

import (
	"context"
	"errors"

	"github.com/mitomaniaco/escola-tia-sol/internal/repo"
)

// Role é o papel efetivo de uma conta na sessão corrente. Ele nunca é
// gravado: a cada login, refresh ou /me o e-mail é reconsultado nas tabelas
// staff e guardians.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleTeacher  Role = "teacher"
	RoleGuardian Role = "guardian"
	// RoleUnknown indica resolução pendente ou falhada; nunca autoriza nada.
	RoleUnknown Role = ""
)

var (
	// ErrNoEligibleRole indica e-mail sem cadastro em staff nem guardians
	// com o bootstrap de admin desligado.
	ErrNoEligibleRole = errors.New("conta sem papel elegível")
)

// cargos de gestão que resolvem para admin; qualquer outro cargo de
// funcionário resolve para teacher. Comparação exata, sensível a caixa.
var adminTitles = map[string]struct{}{
	"Gerente":      {},
	"Diretora":     {},
	"Coordenadora": {},
}

// Directory expõe as duas consultas usadas na derivação de papel.
type Directory interface {
	FindStaffByEmail(ctx context.Context, email string) (repo.StaffMember, error)
	FindGuardianByEmail(ctx context.Context, email string) (repo.Guardian, error)
}

// RoleResolver deriva o papel de uma conta a partir do e-mail.
type RoleResolver struct {
	dir Directory
	// bootstrapAdmin concede admin a e-mails sem cadastro. Só deve ficar
	// ligado na primeira configuração da escola.
	bootstrapAdmin bool
}

// NewRoleResolver cria o resolvedor de papéis.
func NewRoleResolver(dir Directory, bootstrapAdmin bool) *RoleResolver {
	return &RoleResolver{dir: dir, bootstrapAdmin: bootstrapAdmin}
}

// Resolve aplica a ordem fixa: staff primeiro, depois guardians. Um e-mail
// presente nas duas tabelas resolve pelo cadastro de staff. Erro de consulta
// deixa o papel indefinido; o chamador bloqueia em vez de conceder acesso.
func (r *RoleResolver) Resolve(ctx context.Context, email string) (Role, error) {
	staff, err := r.dir.FindStaffByEmail(ctx, email)
	if err == nil {
		if _, ok := adminTitles[staff.Role]; ok {
			return RoleAdmin, nil
		}
		return RoleTeacher, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return RoleUnknown, err
	}

	if _, err := r.dir.FindGuardianByEmail(ctx, email); err == nil {
		return RoleGuardian, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return RoleUnknown, err
	}

	if r.bootstrapAdmin {
		return RoleAdmin, nil
	}
	return RoleUnknown, ErrNoEligibleRole
}

// AudienceFor mapeia o papel para a família de rotas emitida no token.
func AudienceFor(role Role) string {
	if role == RoleGuardian {
		return "portal"
	}
	return "backoffice"
}
