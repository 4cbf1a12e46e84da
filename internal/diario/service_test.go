package diario

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mitomaniaco/escola-tia-sol/internal/storage"
)

type stubDiarioRepo struct {
	entries  []Entry
	notices  []Notice
	students map[uuid.UUID]struct{}
}

func (s *stubDiarioRepo) ListEntries(ctx context.Context, day time.Time, studentID, classID *uuid.UUID) ([]Entry, error) {
	return s.entries, nil
}

func (s *stubDiarioRepo) InsertEntry(ctx context.Context, e Entry) (Entry, error) {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	s.entries = append(s.entries, e)
	return e, nil
}

func (s *stubDiarioRepo) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

func (s *stubDiarioRepo) ListNotices(ctx context.Context, audience string) ([]Notice, error) {
	return s.notices, nil
}

func (s *stubDiarioRepo) InsertNotice(ctx context.Context, n Notice) (Notice, error) {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	s.notices = append(s.notices, n)
	return n, nil
}

func (s *stubDiarioRepo) DeleteNotice(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *stubDiarioRepo) StudentExists(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.students[id]; ok {
		return nil
	}
	return errNotFound
}

type stubUploader struct {
	lastKey string
}

func (s *stubUploader) Upload(ctx context.Context, input storage.UploadInput) (*storage.UploadResult, error) {
	s.lastKey = input.Key
	return &storage.UploadResult{URL: "https://cdn.example.com/" + input.Key}, nil
}

func TestCreateEntryValidatesType(t *testing.T) {
	studentID := uuid.New()
	repo := &stubDiarioRepo{students: map[uuid.UUID]struct{}{studentID: {}}}
	svc := NewDiarioService(repo, &stubUploader{})

	entry := Entry{StudentID: studentID, Type: "homework", Description: "Tarefa de casa"}
	if _, err := svc.CreateEntry(context.Background(), entry); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}

	for _, tipo := range []string{"lunch", "snack", "nap", "mood", "note"} {
		entry := Entry{StudentID: studentID, Type: tipo, Description: "Comeu bem"}
		created, err := svc.CreateEntry(context.Background(), entry)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tipo, err)
		}
		if created.Date.IsZero() {
			t.Fatalf("%s: expected date defaulted", tipo)
		}
	}
}

func TestCreateEntryRejectsUnknownStudent(t *testing.T) {
	repo := &stubDiarioRepo{students: map[uuid.UUID]struct{}{}}
	svc := NewDiarioService(repo, &stubUploader{})

	entry := Entry{StudentID: uuid.New(), Type: "lunch", Description: "Comeu tudo"}
	if _, err := svc.CreateEntry(context.Background(), entry); !errors.Is(err, errNotFound) {
		t.Fatalf("expected errNotFound got %v", err)
	}
	if len(repo.entries) != 0 {
		t.Fatalf("expected no entry written, got %d", len(repo.entries))
	}
}

func TestUploadPhoto(t *testing.T) {
	uploader := &stubUploader{}
	svc := NewDiarioService(&stubDiarioRepo{}, uploader)

	url, err := svc.UploadPhoto(context.Background(), "foto.PNG", "image/png", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(uploader.lastKey, "diario/") || !strings.HasSuffix(uploader.lastKey, ".png") {
		t.Fatalf("unexpected key %q", uploader.lastKey)
	}
	if !strings.HasPrefix(url, "https://cdn.example.com/diario/") {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestUploadPhotoRejectsNonImage(t *testing.T) {
	svc := NewDiarioService(&stubDiarioRepo{}, &stubUploader{})

	if _, err := svc.UploadPhoto(context.Background(), "nota.pdf", "application/pdf", []byte{1}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}
	if _, err := svc.UploadPhoto(context.Background(), "foto.jpg", "image/jpeg", nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}
}

func TestCreateNoticeDefaultsAudience(t *testing.T) {
	repo := &stubDiarioRepo{}
	svc := NewDiarioService(repo, &stubUploader{})

	notice, err := svc.CreateNotice(context.Background(), Notice{Title: "Reunião de pais", Body: "Sexta às 18h"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notice.Audience != "all" {
		t.Fatalf("expected all got %q", notice.Audience)
	}

	if _, err := svc.CreateNotice(context.Background(), Notice{Title: "X", Body: "Y", Audience: "alunos"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}
}
