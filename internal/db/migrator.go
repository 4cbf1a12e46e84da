package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrator aplica migrações SQL via goose usando o pool existente.
type Migrator struct {
	db  *sql.DB
	dir string
}

// NewMigrator prepara o goose sobre o adaptador database/sql do pgx.
func NewMigrator(pool *pgxpool.Pool, dir string) (*Migrator, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("goose dialect: %w", err)
	}

	return &Migrator{db: stdlib.OpenDBFromPool(pool), dir: dir}, nil
}

// Up aplica todas as migrações pendentes.
func (m *Migrator) Up(ctx context.Context) error {
	if err := goose.UpContext(ctx, m.db, m.dir); err != nil {
		return fmt.Errorf("aplicar migrações: %w", err)
	}
	return nil
}

// Close libera o *sql.DB do adaptador; o pool continua sob controle do main.
func (m *Migrator) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
