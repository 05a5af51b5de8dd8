package application

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

type txScopeKey struct{}

// withinTx runs fn against a fresh transaction handle. The handle is rolled back when fn
// returns an error or panics and committed otherwise. Opening a second scope from inside fn
// is a programming error and panics.
func withinTx(ctx context.Context, manager ports.TxManager, fn func(ctx context.Context, tx ports.Tx) error) (err error) {
	if ctx.Value(txScopeKey{}) != nil {
		panic("sales: transaction scope already open for this operation")
	}
	ctx = context.WithValue(ctx, txScopeKey{}, struct{}{})

	tx, err := manager.Begin(ctx)
	if err != nil {
		return ports.NewPersistenceError("begin", err)
	}
	committing := false
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil && !committing {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, ports.ErrTxDone) {
				err = errors.Join(err, ports.NewPersistenceError("rollback", rbErr))
			}
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	committing = true
	if err = tx.Commit(ctx); err != nil {
		return ports.NewPersistenceError("commit", err)
	}
	return nil
}
