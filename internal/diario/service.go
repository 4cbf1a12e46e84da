package diario

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mitomaniaco/escola-tia-sol/internal/storage"
	"github.com/mitomaniaco/escola-tia-sol/internal/util"
)

var ErrValidation = errors.New("validation")

// Tipos de registro aceitos no diário.
var entryTypes = map[string]struct{}{
	"lunch": {},
	"snack": {},
	"nap":   {},
	"mood":  {},
	"note":  {},
}

var noticeAudiences = map[string]struct{}{
	"all":       {},
	"guardians": {},
	"staff":     {},
}

// DiarioRepository descreve o acesso a dados usado pelo serviço.
type DiarioRepository interface {
	ListEntries(context.Context, time.Time, *uuid.UUID, *uuid.UUID) ([]Entry, error)
	InsertEntry(context.Context, Entry) (Entry, error)
	DeleteEntry(context.Context, uuid.UUID) error
	ListNotices(context.Context, string) ([]Notice, error)
	InsertNotice(context.Context, Notice) (Notice, error)
	DeleteNotice(context.Context, uuid.UUID) error
	StudentExists(context.Context, uuid.UUID) error
}

// DiarioService concentra as regras do diário pedagógico e dos avisos.
type DiarioService struct {
	repo     DiarioRepository
	uploader storage.Uploader
}

func NewDiarioService(repo DiarioRepository, uploader storage.Uploader) *DiarioService {
	return &DiarioService{repo: repo, uploader: uploader}
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func (s *DiarioService) ListEntries(ctx context.Context, day time.Time, studentID, classID *uuid.UUID) ([]Entry, error) {
	return s.repo.ListEntries(ctx, day, studentID, classID)
}

func (s *DiarioService) CreateEntry(ctx context.Context, entry Entry) (Entry, error) {
	entry.Description = strings.TrimSpace(entry.Description)
	if entry.StudentID == uuid.Nil {
		return Entry{}, validationError("aluno obrigatório")
	}
	if _, ok := entryTypes[entry.Type]; !ok {
		return Entry{}, validationError("tipo de registro inválido")
	}
	if entry.Description == "" {
		return Entry{}, validationError("descrição obrigatória")
	}
	if entry.Date.IsZero() {
		entry.Date = util.Now().Truncate(24 * time.Hour)
	}

	if err := s.repo.StudentExists(ctx, entry.StudentID); err != nil {
		return Entry{}, err
	}

	return s.repo.InsertEntry(ctx, entry)
}

func (s *DiarioService) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteEntry(ctx, id)
}

// UploadPhoto envia a foto do diário e devolve a URL pública. A URL é
// gravada depois junto ao registro, sem transformação.
func (s *DiarioService) UploadPhoto(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", validationError("arquivo vazio")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", validationError("apenas imagens são aceitas")
	}

	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}

	result, err := s.uploader.Upload(ctx, storage.UploadInput{
		Key:         "diario/" + util.NewID() + ext,
		Body:        data,
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return result.URL, nil
}

func (s *DiarioService) ListNotices(ctx context.Context, audience string) ([]Notice, error) {
	if audience != "" {
		if _, ok := noticeAudiences[audience]; !ok {
			return nil, validationError("público inválido")
		}
	}
	return s.repo.ListNotices(ctx, audience)
}

func (s *DiarioService) CreateNotice(ctx context.Context, notice Notice) (Notice, error) {
	notice.Title = strings.TrimSpace(notice.Title)
	notice.Body = strings.TrimSpace(notice.Body)
	if notice.Title == "" {
		return Notice{}, validationError("título obrigatório")
	}
	if notice.Body == "" {
		return Notice{}, validationError("conteúdo obrigatório")
	}
	if notice.Audience == "" {
		notice.Audience = "all"
	}
	if _, ok := noticeAudiences[notice.Audience]; !ok {
		return Notice{}, validationError("público inválido")
	}

	return s.repo.InsertNotice(ctx, notice)
}

func (s *DiarioService) DeleteNotice(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteNotice(ctx, id)
}
