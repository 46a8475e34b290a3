package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ghivert/brioche/pkg/logger"
)

// Tx represents an open transaction. It satisfies Handle, so the query
// functions work against it exactly as they do against the pool.
type Tx struct {
	tx      *sqlx.Tx
	verbose bool
}

func (t *Tx) ext() sqlx.ExtContext { return t.tx }
func (t *Tx) isVerbose() bool      { return t.verbose }

// Transact runs fn inside a transaction. If fn returns a nil error the
// transaction commits and fn's value is returned. If fn returns an error the
// transaction rolls back and that same error is returned to the caller. If
// fn panics the transaction rolls back and the recovered value is surfaced
// as a *RollbackError. Exactly one commit or rollback happens per call, so
// partial state is never observable afterwards.
func Transact[T any](ctx context.Context, d *DB, fn func(tx *Tx) (T, error)) (T, error) {
	log := logger.FromContext(ctx)

	var zero T

	start := time.Now()

	tx, err := d.DB.BeginTxx(ctx, nil)
	if err != nil {
		terr := translate(err)
		observe("transact", terr, start)
		return zero, terr
	}

	out, err := run(&Tx{tx: tx, verbose: d.verbose}, fn)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Log("msg", "failed to roll back transaction", "err", rbErr)
		}
		observe("transact", err, start)
		return zero, err
	}

	if err = tx.Commit(); err != nil {
		terr := translate(err)
		observe("transact", terr, start)
		return zero, terr
	}

	observe("transact", nil, start)

	return out, nil
}

// run invokes fn, converting a panic into a *RollbackError so the caller of
// Transact performs its single rollback and no driver state escapes.
func run[T any](tx *Tx, fn func(tx *Tx) (T, error)) (out T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &RollbackError{Reason: fmt.Sprint(p)}
		}
	}()

	return fn(tx)
}
