package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mitomaniaco/escola-tia-sol/internal/repo"
)

type stubDirectory struct {
	staff       map[string]repo.StaffMember
	guardians   map[string]repo.Guardian
	staffErr    error
	guardianErr error
}

func (s *stubDirectory) FindStaffByEmail(ctx context.Context, email string) (repo.StaffMember, error) {
	if s.staffErr != nil {
		return repo.StaffMember{}, s.staffErr
	}
	if member, ok := s.staff[email]; ok {
		return member, nil
	}
	return repo.StaffMember{}, repo.ErrNotFound
}

func (s *stubDirectory) FindGuardianByEmail(ctx context.Context, email string) (repo.Guardian, error) {
	if s.guardianErr != nil {
		return repo.Guardian{}, s.guardianErr
	}
	if guardian, ok := s.guardians[email]; ok {
		return guardian, nil
	}
	return repo.Guardian{}, repo.ErrNotFound
}

func TestResolveStaffTitles(t *testing.T) {
	dir := &stubDirectory{staff: map[string]repo.StaffMember{
		"gerente@escola.com":   {Role: "Gerente"},
		"diretora@escola.com":  {Role: "Diretora"},
		"coord@escola.com":     {Role: "Coordenadora"},
		"prof@escola.com":      {Role: "Professora"},
		"aux@escola.com":       {Role: "Auxiliar de Limpeza"},
		"semcargo@escola.com":  {Role: ""},
		"minuscula@escola.com": {Role: "diretora"},
	}}
	resolver := NewRoleResolver(dir, false)

	tests := []struct {
		email string
		want  Role
	}{
		{"gerente@escola.com", RoleAdmin},
		{"diretora@escola.com", RoleAdmin},
		{"coord@escola.com", RoleAdmin},
		{"prof@escola.com", RoleTeacher},
		{"aux@escola.com", RoleTeacher},
		{"semcargo@escola.com", RoleTeacher},
		// comparação é sensível a caixa: "diretora" não é cargo de gestão
		{"minuscula@escola.com", RoleTeacher},
	}

	for _, tc := range tests {
		role, err := resolver.Resolve(context.Background(), tc.email)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.email, err)
		}
		if role != tc.want {
			t.Fatalf("%s: expected %q got %q", tc.email, tc.want, role)
		}
	}
}

func TestResolveGuardian(t *testing.T) {
	email := "mae@example.com"
	dir := &stubDirectory{guardians: map[string]repo.Guardian{
		"mae@example.com": {Email: &email},
	}}
	resolver := NewRoleResolver(dir, false)

	role, err := resolver.Resolve(context.Background(), "mae@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != RoleGuardian {
		t.Fatalf("expected guardian got %q", role)
	}
}

func TestResolveStaffWinsOverGuardian(t *testing.T) {
	// Mesmo e-mail nas duas tabelas: staff tem precedência.
	email := "ambos@escola.com"
	dir := &stubDirectory{
		staff:     map[string]repo.StaffMember{"ambos@escola.com": {Role: "Professora"}},
		guardians: map[string]repo.Guardian{"ambos@escola.com": {Email: &email}},
	}
	resolver := NewRoleResolver(dir, false)

	role, err := resolver.Resolve(context.Background(), "ambos@escola.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != RoleTeacher {
		t.Fatalf("expected teacher got %q", role)
	}
}

func TestResolveBootstrapAdmin(t *testing.T) {
	dir := &stubDirectory{}

	withBootstrap := NewRoleResolver(dir, true)
	role, err := withBootstrap.Resolve(context.Background(), "ninguem@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != RoleAdmin {
		t.Fatalf("expected admin got %q", role)
	}

	withoutBootstrap := NewRoleResolver(dir, false)
	role, err = withoutBootstrap.Resolve(context.Background(), "ninguem@example.com")
	if !errors.Is(err, ErrNoEligibleRole) {
		t.Fatalf("expected ErrNoEligibleRole, got role=%q err=%v", role, err)
	}
	if role != RoleUnknown {
		t.Fatalf("expected unknown role got %q", role)
	}
}

func TestResolveLookupErrorLeavesRoleUnknown(t *testing.T) {
	boom := errors.New("conexão recusada")

	resolver := NewRoleResolver(&stubDirectory{staffErr: boom}, true)
	role, err := resolver.Resolve(context.Background(), "qualquer@example.com")
	if !errors.Is(err, boom) {
		t.Fatalf("expected propagated error, got %v", err)
	}
	if role != RoleUnknown {
		t.Fatalf("expected unknown role got %q", role)
	}

	// Erro na consulta de guardians também não pode conceder bootstrap.
	resolver = NewRoleResolver(&stubDirectory{guardianErr: boom}, true)
	role, err = resolver.Resolve(context.Background(), "qualquer@example.com")
	if !errors.Is(err, boom) {
		t.Fatalf("expected propagated error, got %v", err)
	}
	if role != RoleUnknown {
		t.Fatalf("expected unknown role got %q", role)
	}
}

func TestAudienceFor(t *testing.T) {
	if got := AudienceFor(RoleGuardian); got != "portal" {
		t.Fatalf("expected portal got %q", got)
	}
	if got := AudienceFor(RoleAdmin); got != "backoffice" {
		t.Fatalf("expected backoffice got %q", got)
	}
	if got := AudienceFor(RoleTeacher); got != "backoffice" {
		t.Fatalf("expected backoffice got %q", got)
	}
}
