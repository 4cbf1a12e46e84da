package storage

import "context"

// UploadInput representa uma operação de upload simples. A chave é gerada
// pelo chamador e deve ser única por upload.
type UploadInput struct {
	Key         string
	Body        []byte
	ContentType string
}

// UploadResult descreve o artefato persistido. A URL é gravada no banco
// exatamente como retornada, sem revalidação posterior.
type UploadResult struct {
	URL  string
	ETag string
}

// Uploader define comportamento básico para armazenar blobs (fotos do diário).
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
}
