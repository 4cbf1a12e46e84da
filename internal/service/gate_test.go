package service

import "testing"

func TestDecideRoute(t *testing.T) {
	tests := []struct {
		name          string
		authenticated bool
		role          Role
		resolving     bool
		path          string
		want          Decision
		target        string
	}{
		{"nao-autenticado", false, RoleUnknown, false, "/", DecisionRedirect, "/login"},
		{"nao-autenticado-portal", false, RoleUnknown, false, "/portal", DecisionRedirect, "/login"},
		{"papel-resolvendo-espera", true, RoleUnknown, true, "/students", DecisionWait, ""},
		{"papel-irresoluto-volta-login", true, RoleUnknown, false, "/students", DecisionRedirect, "/login"},

		{"guardian-portal-liberado", true, RoleGuardian, false, "/portal", DecisionAllow, ""},
		{"guardian-subrota-portal", true, RoleGuardian, false, "/portal/diary", DecisionAllow, ""},
		{"guardian-raiz-devolvido", true, RoleGuardian, false, "/", DecisionRedirect, "/portal"},
		{"guardian-staff-devolvido", true, RoleGuardian, false, "/staff", DecisionRedirect, "/portal"},
		{"guardian-prefixo-falso", true, RoleGuardian, false, "/portalegre", DecisionRedirect, "/portal"},

		{"teacher-raiz", true, RoleTeacher, false, "/", DecisionAllow, ""},
		{"teacher-alunos", true, RoleTeacher, false, "/students", DecisionAllow, ""},
		{"teacher-staff-bloqueado", true, RoleTeacher, false, "/staff", DecisionRedirect, "/"},
		{"teacher-staff-new-bloqueado", true, RoleTeacher, false, "/staff/new", DecisionRedirect, "/"},
		{"teacher-financeiro-bloqueado", true, RoleTeacher, false, "/financial", DecisionRedirect, "/"},
		{"teacher-cobranca-bloqueado", true, RoleTeacher, false, "/financial/new-charge", DecisionRedirect, "/"},

		{"admin-staff", true, RoleAdmin, false, "/staff", DecisionAllow, ""},
		{"admin-financeiro", true, RoleAdmin, false, "/financial", DecisionAllow, ""},
		// equipe não é barrada no portal
		{"admin-portal-liberado", true, RoleAdmin, false, "/portal", DecisionAllow, ""},
		{"teacher-portal-liberado", true, RoleTeacher, false, "/portal/financial", DecisionAllow, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DecideRoute(tc.authenticated, tc.role, tc.resolving, tc.path)
			if got.Decision != tc.want {
				t.Fatalf("expected decision %q got %q", tc.want, got.Decision)
			}
			if got.Target != tc.target {
				t.Fatalf("expected target %q got %q", tc.target, got.Target)
			}
		})
	}
}

func TestDecideRouteIsRecomputedPerCall(t *testing.T) {
	// O mesmo caminho muda de decisão quando o papel muda: nada é memorizado.
	if got := DecideRoute(true, RoleTeacher, false, "/financial"); got.Decision != DecisionRedirect {
		t.Fatalf("expected redirect got %q", got.Decision)
	}
	if got := DecideRoute(true, RoleAdmin, false, "/financial"); got.Decision != DecisionAllow {
		t.Fatalf("expected allow got %q", got.Decision)
	}
}
