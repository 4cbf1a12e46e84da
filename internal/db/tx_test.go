package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

type stubTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *stubTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *stubTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type stubBeginner struct {
	tx  *stubTx
	err error
}

func (b *stubBeginner) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	tx := &stubTx{}
	beginner := &stubBeginner{tx: tx}

	err := WithTx(context.Background(), beginner, func(ctx context.Context, _ pgx.Tx) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tx.committed {
		t.Fatal("expected commit")
	}
	if tx.rolledBack {
		t.Fatal("unexpected rollback after commit")
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	tx := &stubTx{}
	beginner := &stubBeginner{tx: tx}
	boom := errors.New("restrição violada")

	err := WithTx(context.Background(), beginner, func(ctx context.Context, _ pgx.Tx) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected propagated error, got %v", err)
	}
	if tx.committed {
		t.Fatal("unexpected commit")
	}
	if !tx.rolledBack {
		t.Fatal("expected rollback")
	}
}

func TestWithTxPropagatesBeginError(t *testing.T) {
	boom := errors.New("conexão recusada")
	beginner := &stubBeginner{err: boom}

	called := false
	err := WithTx(context.Background(), beginner, func(ctx context.Context, _ pgx.Tx) error {
		called = true
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected begin error, got %v", err)
	}
	if called {
		t.Fatal("fn must not run without transaction")
	}
}
