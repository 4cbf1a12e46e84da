package service

import "strings"

// Decision é o resultado da checagem de navegação para um caminho do app.
type Decision string

const (
	// DecisionAllow libera a renderização do caminho pedido.
	DecisionAllow Decision = "allow"
	// DecisionWait segura a navegação enquanto o papel ainda resolve;
	// nenhum redirect é emitido com papel indefinido.
	DecisionWait Decision = "wait"
	// DecisionRedirect manda o cliente para Target.
	DecisionRedirect Decision = "redirect"
)

// RouteDecision carrega a decisão e, quando redirect, o destino.
type RouteDecision struct {
	Decision Decision `json:"decision"`
	Target   string   `json:"target,omitempty"`
}

const (
	loginPath  = "/login"
	portalRoot = "/portal"
	adminRoot  = "/"
)

// adminOnlyPaths exige papel admin exato; teacher é devolvido à raiz.
var adminOnlyPaths = map[string]struct{}{
	"/staff":                {},
	"/staff/new":            {},
	"/financial":            {},
	"/financial/new-charge": {},
}

// DecideRoute avalia (conta, papel, caminho) a cada navegação. É pura e
// síncrona: nada é cacheado, a decisão é refeita em todo render.
//
// Responsáveis são devolvidos ao portal quando tentam a área administrativa.
// O caminho inverso não é bloqueado: admin e teacher podem abrir o portal.
// TODO: confirmar com a direção se o portal deve barrar admin/teacher.
func DecideRoute(authenticated bool, role Role, resolving bool, path string) RouteDecision {
	if !authenticated {
		return RouteDecision{Decision: DecisionRedirect, Target: loginPath}
	}

	if role == RoleUnknown {
		if resolving {
			return RouteDecision{Decision: DecisionWait}
		}
		// Papel definitivamente irresoluto: trata como não autorizado.
		return RouteDecision{Decision: DecisionRedirect, Target: loginPath}
	}

	inPortal := path == portalRoot || strings.HasPrefix(path, portalRoot+"/")

	if role == RoleGuardian && !inPortal {
		return RouteDecision{Decision: DecisionRedirect, Target: portalRoot}
	}

	if _, restricted := adminOnlyPaths[path]; restricted && role != RoleAdmin {
		return RouteDecision{Decision: DecisionRedirect, Target: adminRoot}
	}

	return RouteDecision{Decision: DecisionAllow}
}
