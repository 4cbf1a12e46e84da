package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 3 * time.Second

// Queries concentra consultas compartilhadas entre os serviços de sessão.
type Queries struct {
	pool *pgxpool.Pool
}

// New cria acesso de leitura/escrita sobre o pool.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// GetAccountByEmail busca credencial pelo e-mail normalizado.
func (q *Queries) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var acc Account
	err := q.pool.QueryRow(ctx, `
		SELECT id, email, senha_hash, ativo, criado_em
		FROM accounts
		WHERE email = $1
	`, email).Scan(&acc.ID, &acc.Email, &acc.SenhaHash, &acc.Ativo, &acc.CriadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return acc, err
}

// GetAccountByID busca credencial pelo id.
func (q *Queries) GetAccountByID(ctx context.Context, id uuid.UUID) (Account, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var acc Account
	err := q.pool.QueryRow(ctx, `
		SELECT id, email, senha_hash, ativo, criado_em
		FROM accounts
		WHERE id = $1
	`, id).Scan(&acc.ID, &acc.Email, &acc.SenhaHash, &acc.Ativo, &acc.CriadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return acc, err
}

// FindStaffByEmail procura funcionário pelo e-mail exato (sensível a caixa,
// espelhando a consulta da tabela staff usada na derivação de papel).
func (q *Queries) FindStaffByEmail(ctx context.Context, email string) (StaffMember, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var s StaffMember
	err := q.pool.QueryRow(ctx, `
		SELECT id, name, cpf, birth_date, role, phone, email, status, created_at
		FROM staff
		WHERE email = $1
		LIMIT 1
	`, email).Scan(&s.ID, &s.Name, &s.CPF, &s.BirthDate, &s.Role, &s.Phone, &s.Email, &s.Status, &s.CriadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return StaffMember{}, ErrNotFound
	}
	return s, err
}

// FindGuardianByEmail procura responsável pelo e-mail exato.
func (q *Queries) FindGuardianByEmail(ctx context.Context, email string) (Guardian, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var g Guardian
	err := q.pool.QueryRow(ctx, `
		SELECT id, name, cpf, rg, phone, email, address, created_at
		FROM guardians
		WHERE email = $1
		LIMIT 1
	`, email).Scan(&g.ID, &g.Name, &g.CPF, &g.RG, &g.Phone, &g.Email, &g.Address, &g.CriadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return Guardian{}, ErrNotFound
	}
	return g, err
}

// GetRefreshTokenByHash localiza refresh token pelo hash.
func (q *Queries) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var t RefreshToken
	err := q.pool.QueryRow(ctx, `
		SELECT id, subject, audience, token_hash, expiracao, criado_em, revogado
		FROM refresh_tokens
		WHERE token_hash = $1
	`, tokenHash).Scan(&t.ID, &t.Subject, &t.Audience, &t.TokenHash, &t.Expiracao, &t.CriadoEm, &t.Revogado)
	if errors.Is(err, pgx.ErrNoRows) {
		return RefreshToken{}, ErrNotFound
	}
	return t, err
}

// InsertRefreshToken persiste novo refresh token.
func (q *Queries) InsertRefreshToken(ctx context.Context, arg InsertRefreshTokenParams) (RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (id, subject, audience, token_hash, expiracao, criado_em, revogado)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
	`, arg.ID, arg.Subject, arg.Audience, arg.TokenHash, arg.Expiracao, arg.CriadoEm)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		ID:        arg.ID,
		Subject:   arg.Subject,
		Audience:  arg.Audience,
		TokenHash: arg.TokenHash,
		Expiracao: arg.Expiracao,
		CriadoEm:  arg.CriadoEm,
	}, nil
}

// InvalidateOtherRefreshTokens revoga tokens anteriores do mesmo subject,
// preservando o hash recém-criado.
func (q *Queries) InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, audience, keepHash string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET revogado = TRUE
		WHERE subject = $1 AND audience = $2 AND token_hash <> $3 AND revogado = FALSE
	`, subject, audience, keepHash)
	return err
}

// RevokeRefreshToken revoga token pelo hash.
func (q *Queries) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := q.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET revogado = TRUE
		WHERE token_hash = $1
	`, tokenHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
