package db

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Beginner abre transações. *pgxpool.Pool satisfaz a interface; ela existe
// separada para permitir stubs em teste.
type Beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// WithTx executa fn dentro de uma transação explícita: commit quando fn
// retorna nil, rollback em erro ou panic.
func WithTx(ctx context.Context, pool Beginner, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
