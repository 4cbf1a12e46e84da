package storage

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// S3Config contém as credenciais e o destino dos uploads. Funciona com
// qualquer serviço compatível com a API do S3 (MinIO, R2, Spaces).
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicURL opcional; quando vazio, a URL pública é derivada do endpoint.
	PublicURL string
}

// S3Uploader envia objetos via PUT assinado com SigV4.
type S3Uploader struct {
	cfg    S3Config
	client *http.Client
}

// NewS3Uploader valida a configuração e cria o uploader.
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	switch {
	case cfg.Endpoint == "":
		return nil, errors.New("storage: endpoint s3 não informado")
	case cfg.Region == "":
		return nil, errors.New("storage: região s3 não informada")
	case cfg.Bucket == "":
		return nil, errors.New("storage: bucket s3 não informado")
	case cfg.AccessKey == "" || cfg.SecretKey == "":
		return nil, errors.New("storage: credenciais s3 não informadas")
	}

	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	return &S3Uploader{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Upload grava o objeto e retorna a URL pública resultante.
func (s *S3Uploader) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	if input.Key == "" {
		return nil, errors.New("storage: chave do objeto vazia")
	}
	if len(input.Body) == 0 {
		return nil, errors.New("storage: corpo do objeto vazio")
	}

	objectPath := "/" + s.cfg.Bucket + "/" + strings.TrimLeft(input.Key, "/")
	target := s.cfg.Endpoint + encodePath(objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(input.Body))
	if err != nil {
		return nil, fmt.Errorf("storage: montar requisição: %w", err)
	}

	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	payloadHash := sha256.Sum256(input.Body)
	if err := s.sign(req, objectPath, hex.EncodeToString(payloadHash[:])); err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: enviar objeto: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("storage: upload falhou (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return &UploadResult{
		URL:  s.publicURL(input.Key),
		ETag: strings.Trim(resp.Header.Get("ETag"), `"`),
	}, nil
}

func (s *S3Uploader) publicURL(key string) string {
	key = strings.TrimLeft(key, "/")
	if s.cfg.PublicURL != "" {
		return s.cfg.PublicURL + "/" + key
	}
	return s.cfg.Endpoint + "/" + s.cfg.Bucket + "/" + key
}

// sign aplica AWS Signature V4 no request. Uploads não usam query string,
// então o canonical request é simplificado para esse caso.
func (s *S3Uploader) sign(req *http.Request, objectPath, payloadHash string) error {
	now := time.Now().UTC()
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")

	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)
	req.Header.Set("Host", req.URL.Host)

	signedHeaders := []string{"content-type", "host", "x-amz-content-sha256", "x-amz-date"}
	var canonicalHeaders strings.Builder
	for _, h := range signedHeaders {
		value := req.Header.Get(h)
		if h == "host" {
			value = req.URL.Host
		}
		canonicalHeaders.WriteString(h)
		canonicalHeaders.WriteString(":")
		canonicalHeaders.WriteString(strings.TrimSpace(value))
		canonicalHeaders.WriteString("\n")
	}

	canonicalRequest := strings.Join([]string{
		http.MethodPut,
		encodePath(objectPath),
		"",
		canonicalHeaders.String(),
		strings.Join(signedHeaders, ";"),
		payloadHash,
	}, "\n")

	scope := dateStamp + "/" + s.cfg.Region + "/s3/aws4_request"
	hashedRequest := sha256.Sum256([]byte(canonicalRequest))
	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256",
		amzDate,
		scope,
		hex.EncodeToString(hashedRequest[:]),
	}, "\n")

	key := hmacSHA256([]byte("AWS4"+s.cfg.SecretKey), dateStamp)
	key = hmacSHA256(key, s.cfg.Region)
	key = hmacSHA256(key, "s3")
	key = hmacSHA256(key, "aws4_request")
	signature := hex.EncodeToString(hmacSHA256(key, stringToSign))

	req.Header.Set("Authorization", fmt.Sprintf(
		"AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		s.cfg.AccessKey, scope, strings.Join(signedHeaders, ";"), signature,
	))

	return nil
}

// encodePath aplica URI encoding por segmento, preservando as barras.
func encodePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}
