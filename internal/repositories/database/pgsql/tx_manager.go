package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
)

type pgxTxManager struct {
	pool *pgxpool.Pool
}

func newPgxTxManager(pool *pgxpool.Pool) portsrepo.TxManager {
	return &pgxTxManager{pool: pool}
}

var _ portsrepo.TxManager = (*pgxTxManager)(nil)

// WithTx runs fn inside a database transaction carried on the context. A
// nested call joins the ambient transaction instead of opening a new one,
// so the outermost caller decides the commit boundary.
func (m *pgxTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txCtxKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewInternal("failed to begin transaction", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			_ = rbErr
		}
	}()

	if err := fn(context.WithValue(ctx, txCtxKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewInternal("failed to commit transaction", err)
	}
	return nil
}
