package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mitomaniaco/escola-tia-sol/internal/config"
	"github.com/mitomaniaco/escola-tia-sol/internal/diario"
	"github.com/mitomaniaco/escola-tia-sol/internal/escola"
	"github.com/mitomaniaco/escola-tia-sol/internal/financeiro"
	"github.com/mitomaniaco/escola-tia-sol/internal/http/middleware"
	"github.com/mitomaniaco/escola-tia-sol/internal/portal"
	"github.com/mitomaniaco/escola-tia-sol/internal/service"
)

// Deps agrupa as dependências do router.
type Deps struct {
	Config     *config.Config
	Auth       *service.AuthService
	Escola     *escola.Handler
	Financeiro *financeiro.Handler
	Diario     *diario.Handler
	Portal     *portal.Handler
	Pool       *pgxpool.Pool
	Redis      *redis.Client
}

type router struct {
	deps Deps
}

// NewRouter monta o router HTTP completo da API.
func NewRouter(deps Deps) http.Handler {
	rt := &router{deps: deps}

	publicLimiter := middleware.NewRateLimiter(deps.Config.RateLimitPublic.RequestsPerSecond, deps.Config.RateLimitPublic.Burst)
	authLimiter := middleware.NewRateLimiter(deps.Config.RateLimitAuth.RequestsPerSecond, deps.Config.RateLimitAuth.Burst)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Recover)
	r.Use(middleware.CORS(deps.Config.AllowOrigins))

	// Rotas públicas
	r.Group(func(r chi.Router) {
		r.Use(middleware.IPRateLimit(publicLimiter))

		r.Get("/health", rt.handleHealth)
		r.Get("/ready", rt.handleReady)

		r.Post("/auth/login", rt.handleLogin)
		r.Post("/auth/refresh", rt.handleRefresh)
		r.Post("/auth/logout", rt.handleLogout)
	})

	// Rotas autenticadas
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.Auth.JWT()))
		r.Use(middleware.UserRateLimit(authLimiter))

		r.Get("/me", rt.handleMe)
		r.Get("/authz/route", rt.handleRouteCheck)

		// Secretaria e diário: toda a equipe
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff)
			deps.Escola.RegisterRoutes(r)
			deps.Diario.RegisterRoutes(r)
		})

		// Equipe e financeiro: somente direção
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			deps.Escola.RegisterAdminRoutes(r)
			deps.Financeiro.RegisterRoutes(r)
		})

		// Portal do responsável
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireGuardian)
			deps.Portal.RegisterRoutes(r)
		})
	})

	return r
}

func (rt *router) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *router) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if rt.deps.Pool != nil {
		if err := rt.deps.Pool.Ping(ctx); err != nil {
			WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "banco indisponível", nil)
			return
		}
	}
	if rt.deps.Redis != nil {
		if err := rt.deps.Redis.Ping(ctx).Err(); err != nil {
			WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "redis indisponível", nil)
			return
		}
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func refreshCookieName(audience string) string {
	return "refresh_" + audience
}

func setRefreshCookie(w http.ResponseWriter, audience, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName(audience),
		Value:    token,
		Path:     "/auth",
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter, audience string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName(audience),
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func validAudience(audience string) bool {
	return audience == "backoffice" || audience == "portal"
}

func (rt *router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if payload.Email == "" || payload.Password == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "email e senha são obrigatórios", nil)
		return
	}

	result, err := rt.deps.Auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		rt.handleAuthError(w, err)
		return
	}

	setRefreshCookie(w, result.Audience, result.RefreshToken, result.RefreshExpiry)
	WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": result.AccessToken,
		"audience":     result.Audience,
		"user":         result.Profile,
	})
}

func (rt *router) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Audience     string `json:"audience"`
		RefreshToken string `json:"refresh_token"`
	}
	// Corpo vazio é aceito: o token pode vir só no cookie.
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	audience := payload.Audience
	if audience == "" {
		audience = "backoffice"
	}
	if !validAudience(audience) {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "audience inválida", nil)
		return
	}

	raw := payload.RefreshToken
	if raw == "" {
		if cookie, err := r.Cookie(refreshCookieName(audience)); err == nil {
			raw = cookie.Value
		}
	}

	result, err := rt.deps.Auth.Refresh(r.Context(), audience, raw)
	if err != nil {
		rt.handleAuthError(w, err)
		return
	}

	setRefreshCookie(w, result.Audience, result.RefreshToken, result.RefreshExpiry)
	WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": result.AccessToken,
		"audience":     result.Audience,
		"user":         result.Profile,
	})
}

func (rt *router) handleLogout(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Audience     string `json:"audience"`
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	audience := payload.Audience
	if audience == "" {
		audience = "backoffice"
	}
	if !validAudience(audience) {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "audience inválida", nil)
		return
	}

	raw := payload.RefreshToken
	if raw == "" {
		if cookie, err := r.Cookie(refreshCookieName(audience)); err == nil {
			raw = cookie.Value
		}
	}

	if err := rt.deps.Auth.Logout(r.Context(), audience, raw); err != nil {
		log.Error().Err(err).Msg("logout")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
		return
	}

	clearRefreshCookie(w, audience)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *router) handleMe(w http.ResponseWriter, r *http.Request) {
	subject, err := uuid.Parse(middleware.GetSubject(r.Context()))
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	profile, err := rt.deps.Auth.Me(r.Context(), subject)
	if err != nil {
		rt.handleAuthError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"user":     profile,
		"audience": middleware.GetAudience(r.Context()),
	})
}

// handleRouteCheck expõe a decisão de navegação para o front: dado um
// caminho, responde se a sessão atual pode renderizá-lo ou para onde deve
// ser redirecionada.
func (rt *router) handleRouteCheck(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" || path[0] != '/' {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "path obrigatório e absoluto", nil)
		return
	}

	role := service.Role(middleware.GetRole(r.Context()))
	decision := service.DecideRoute(true, role, false, path)
	WriteJSON(w, http.StatusOK, decision)
}

func (rt *router) handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "AUTH", "credenciais inválidas", nil)
	case errors.Is(err, service.ErrAccountDisabled):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "conta desativada", nil)
	case errors.Is(err, service.ErrNoEligibleRole):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "nenhum papel elegível para esta conta", nil)
	case errors.Is(err, service.ErrRefreshInvalid):
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão expirada", nil)
	default:
		log.Error().Err(err).Msg("auth handler error")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}
