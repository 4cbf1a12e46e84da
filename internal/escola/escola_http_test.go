package escola

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type stubSecretariaRepo struct {
	students []Student
	guardian Guardian
	classes  []Class
	staff    []StaffMember
	links    []GuardianLink
}

func (s *stubSecretariaRepo) ListStudents(ctx context.Context, classID *uuid.UUID, status string) ([]Student, error) {
	return s.students, nil
}

func (s *stubSecretariaRepo) GetStudent(ctx context.Context, id uuid.UUID) (Student, error) {
	for _, st := range s.students {
		if st.ID == id {
			return st, nil
		}
	}
	return Student{}, errNotFound
}

func (s *stubSecretariaRepo) InsertStudent(ctx context.Context, st Student) (Student, error) {
	st.ID = uuid.New()
	st.CreatedAt = time.Now()
	s.students = append(s.students, st)
	return st, nil
}

func (s *stubSecretariaRepo) UpdateStudent(ctx context.Context, st Student) error {
	for i, cur := range s.students {
		if cur.ID == st.ID {
			s.students[i] = st
			return nil
		}
	}
	return errNotFound
}

func (s *stubSecretariaRepo) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	for i, cur := range s.students {
		if cur.ID == id {
			s.students = append(s.students[:i], s.students[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

func (s *stubSecretariaRepo) ListGuardians(ctx context.Context, search string) ([]Guardian, error) {
	return []Guardian{s.guardian}, nil
}

func (s *stubSecretariaRepo) GetGuardian(ctx context.Context, id uuid.UUID) (Guardian, error) {
	if id == s.guardian.ID {
		return s.guardian, nil
	}
	return Guardian{}, errNotFound
}

func (s *stubSecretariaRepo) InsertGuardian(ctx context.Context, g Guardian) (Guardian, error) {
	g.ID = uuid.New()
	g.CreatedAt = time.Now()
	s.guardian = g
	return g, nil
}

func (s *stubSecretariaRepo) UpdateGuardian(ctx context.Context, g Guardian) error {
	if g.ID != s.guardian.ID {
		return errNotFound
	}
	s.guardian = g
	return nil
}

func (s *stubSecretariaRepo) DeleteGuardian(ctx context.Context, id uuid.UUID) error {
	if id != s.guardian.ID {
		return errNotFound
	}
	return nil
}

func (s *stubSecretariaRepo) ListGuardianLinks(ctx context.Context, studentID uuid.UUID) ([]GuardianLink, error) {
	return s.links, nil
}

func (s *stubSecretariaRepo) AttachGuardian(ctx context.Context, link GuardianLink) (uuid.UUID, error) {
	link.ID = uuid.New()
	s.links = append(s.links, link)
	return link.ID, nil
}

func (s *stubSecretariaRepo) DetachGuardian(ctx context.Context, studentID, guardianID uuid.UUID) error {
	for i, link := range s.links {
		if link.StudentID == studentID && link.GuardianID == guardianID {
			s.links = append(s.links[:i], s.links[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

func (s *stubSecretariaRepo) ListClasses(ctx context.Context) ([]Class, error) {
	return s.classes, nil
}

func (s *stubSecretariaRepo) InsertClass(ctx context.Context, c Class) (Class, error) {
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	s.classes = append(s.classes, c)
	return c, nil
}

func (s *stubSecretariaRepo) UpdateClass(ctx context.Context, c Class) error {
	for i, cur := range s.classes {
		if cur.ID == c.ID {
			s.classes[i] = c
			return nil
		}
	}
	return errNotFound
}

func (s *stubSecretariaRepo) DeleteClass(ctx context.Context, id uuid.UUID) error {
	for i, cur := range s.classes {
		if cur.ID == id {
			s.classes = append(s.classes[:i], s.classes[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

func (s *stubSecretariaRepo) ListStaff(ctx context.Context, status string) ([]StaffMember, error) {
	return s.staff, nil
}

func (s *stubSecretariaRepo) GetStaffMember(ctx context.Context, id uuid.UUID) (StaffMember, error) {
	for _, m := range s.staff {
		if m.ID == id {
			return m, nil
		}
	}
	return StaffMember{}, errNotFound
}

func (s *stubSecretariaRepo) InsertStaffMember(ctx context.Context, m StaffMember) (StaffMember, error) {
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	s.staff = append(s.staff, m)
	return m, nil
}

func (s *stubSecretariaRepo) UpdateStaffMember(ctx context.Context, m StaffMember) error {
	for i, cur := range s.staff {
		if cur.ID == m.ID {
			s.staff[i] = m
			return nil
		}
	}
	return errNotFound
}

func (s *stubSecretariaRepo) DeleteStaffMember(ctx context.Context, id uuid.UUID) error {
	for i, cur := range s.staff {
		if cur.ID == id {
			s.staff = append(s.staff[:i], s.staff[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

func (s *stubSecretariaRepo) CountDashboard(ctx context.Context) (DashboardCounts, error) {
	return DashboardCounts{ActiveStudents: len(s.students), Classes: len(s.classes)}, nil
}

func TestEscolaHandlers(t *testing.T) {
	classID := uuid.New()
	studentID := uuid.New()
	guardianID := uuid.New()
	staffID := uuid.New()

	repo := &stubSecretariaRepo{
		students: []Student{{ID: studentID, Name: "Ana Clara", EnrollmentStatus: "active"}},
		guardian: Guardian{ID: guardianID, Name: "Maria Silva", CPF: "52998224725", Email: "maria@example.com"},
		classes:  []Class{{ID: classID, Name: "Maternal II", Shift: "morning"}},
		staff:    []StaffMember{{ID: staffID, Name: "Joana Souza", CPF: "52998224725", Role: "Professora", Email: "joana@escola.com", Status: "active"}},
	}

	svc := NewSecretariaService(repo, nil)
	handler := NewHandler(svc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	handler.RegisterAdminRoutes(r)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"dashboard", http.MethodGet, "/dashboard", nil, http.StatusOK},
		{"students-list", http.MethodGet, "/students/", nil, http.StatusOK},
		{"students-filter-invalido", http.MethodGet, "/students/?status=banido", nil, http.StatusBadRequest},
		{"students-get", http.MethodGet, "/students/" + studentID.String(), nil, http.StatusOK},
		{"students-create", http.MethodPost, "/students/", map[string]any{"name": "Pedro Lima"}, http.StatusCreated},
		{"students-create-sem-nome", http.MethodPost, "/students/", map[string]any{"name": "  "}, http.StatusBadRequest},
		{"students-update", http.MethodPut, "/students/" + studentID.String(), map[string]any{"name": "Ana C. Souza", "enrollment_status": "active"}, http.StatusOK},
		{"link-attach", http.MethodPost, "/students/" + studentID.String() + "/guardians", map[string]any{"guardian_id": guardianID, "relationship": "Mãe", "is_financial_responsible": true}, http.StatusCreated},
		{"link-list", http.MethodGet, "/students/" + studentID.String() + "/guardians", nil, http.StatusOK},
		{"link-detach", http.MethodDelete, "/students/" + studentID.String() + "/guardians/" + guardianID.String(), nil, http.StatusOK},
		{"guardians-list", http.MethodGet, "/guardians/", nil, http.StatusOK},
		{"guardians-create", http.MethodPost, "/guardians/", map[string]any{"name": "José Santos", "cpf": "52998224725", "email": "jose@example.com"}, http.StatusCreated},
		{"guardians-create-cpf-invalido", http.MethodPost, "/guardians/", map[string]any{"name": "José Santos", "cpf": "11111111111", "email": "jose@example.com"}, http.StatusBadRequest},
		{"guardians-create-sem-nome", http.MethodPost, "/guardians/", map[string]any{"name": "   ", "cpf": "52998224725", "email": "jose@example.com"}, http.StatusBadRequest},
		{"staff-create-sem-cargo", http.MethodPost, "/staff/", map[string]any{"name": "Carla Dias", "cpf": "52998224725", "role": "  ", "email": "carla@escola.com"}, http.StatusBadRequest},
		{"classes-list", http.MethodGet, "/classes/", nil, http.StatusOK},
		{"classes-create", http.MethodPost, "/classes/", map[string]any{"name": "Jardim I", "shift": "afternoon"}, http.StatusCreated},
		{"classes-create-turno-invalido", http.MethodPost, "/classes/", map[string]any{"name": "Jardim I", "shift": "noite"}, http.StatusBadRequest},
		{"staff-list", http.MethodGet, "/staff/", nil, http.StatusOK},
		{"staff-get", http.MethodGet, "/staff/" + staffID.String(), nil, http.StatusOK},
		{"staff-create", http.MethodPost, "/staff/", map[string]any{"name": "Carla Dias", "cpf": "52998224725", "role": "Coordenadora", "email": "carla@escola.com"}, http.StatusCreated},
		{"staff-nao-encontrado", http.MethodGet, "/staff/" + uuid.NewString(), nil, http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, requestBody(tc.body))
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func requestBody(body any) *bytes.Buffer {
	if body == nil {
		return bytes.NewBuffer(nil)
	}
	b, _ := json.Marshal(body)
	return bytes.NewBuffer(b)
}
