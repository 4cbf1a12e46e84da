package portal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/mitomaniaco/escola-tia-sol/internal/http/middleware"
)

type stubPortalRepo struct {
	guardianEmail string
	guardianID    uuid.UUID
	students      []Student
	entries       []DiaryEntry
	charges       []Charge
	notices       []Notice
}

func (s *stubPortalRepo) GuardianIDByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	if email == s.guardianEmail {
		return s.guardianID, nil
	}
	return uuid.Nil, errNotFound
}

func (s *stubPortalRepo) ListMyStudents(ctx context.Context, guardianID uuid.UUID) ([]Student, error) {
	return s.students, nil
}

func (s *stubPortalRepo) ListDiary(ctx context.Context, guardianID uuid.UUID, day time.Time, studentID *uuid.UUID) ([]DiaryEntry, error) {
	return s.entries, nil
}

func (s *stubPortalRepo) ListCharges(ctx context.Context, guardianID uuid.UUID, status string) ([]Charge, error) {
	return s.charges, nil
}

func (s *stubPortalRepo) ListNotices(ctx context.Context) ([]Notice, error) {
	return s.notices, nil
}

func TestPortalHandlers(t *testing.T) {
	repo := &stubPortalRepo{
		guardianEmail: "mae@example.com",
		guardianID:    uuid.New(),
		students:      []Student{{ID: uuid.New(), Name: "Ana Clara", EnrollmentStatus: "active"}},
		entries:       []DiaryEntry{{ID: uuid.New(), StudentName: "Ana Clara", Type: "lunch", Description: "Comeu tudo"}},
		charges:       []Charge{{ID: uuid.New(), Title: "Mensalidade Março", Amount: 850, Status: "pending"}},
		notices:       []Notice{{ID: uuid.New(), Title: "Reunião de pais", Body: "Sexta às 18h"}},
	}

	handler := NewHandler(NewPortalService(repo))

	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	tests := []struct {
		name   string
		path   string
		email  string
		status int
	}{
		{"meus-alunos", "/portal/students", "mae@example.com", http.StatusOK},
		{"diario", "/portal/diary?date=2026-03-10", "mae@example.com", http.StatusOK},
		{"cobrancas", "/portal/financial", "mae@example.com", http.StatusOK},
		{"cobrancas-status-invalido", "/portal/financial?status=vencido", "mae@example.com", http.StatusBadRequest},
		{"avisos", "/portal/notices", "mae@example.com", http.StatusOK},
		{"sem-cadastro", "/portal/students", "desconhecida@example.com", http.StatusForbidden},
		{"sem-email", "/portal/students", "", http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.email != "" {
				ctx := context.WithValue(req.Context(), httpmiddleware.ContextKeyEmail, tc.email)
				req = req.WithContext(ctx)
			}
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}
