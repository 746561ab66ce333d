package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"excentrica/internal/database"
	apperrors "excentrica/internal/errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Executor is satisfied by both *sqlx.DB and *sqlx.Tx
type Executor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

var _ Executor = &sqlx.DB{}
var _ Executor = &sqlx.Tx{}

type ctxTxKeyType struct{}

var ctxTxKey = ctxTxKeyType{}

// TxProvider keeps the open *sqlx.Tx in the context
type TxProvider struct {
	db *database.DB
}

func NewTxProvider(db *database.DB) *TxProvider {
	return &TxProvider{db: db}
}

func (p *TxProvider) Transact(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(ctxTxKey).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		} else if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(context.WithValue(ctx, ctxTxKey, tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func executor(ctx context.Context, db *database.DB) Executor {
	if tx, ok := ctx.Value(ctxTxKey).(*sqlx.Tx); ok {
		return tx
	}
	return db.DB
}

// get runs a single-row query and returns (nil, nil) when nothing matches
func get[T any](ctx context.Context, db *database.DB, query string, args ...interface{}) (*T, error) {
	var dest T
	err := executor(ctx, db).GetContext(ctx, &dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dest, nil
}

const uniqueViolation = "23505"

// mapUniqueViolation translates duplicate-key errors on the active membership indexes
func mapUniqueViolation(err error, constraints ...string) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return err
	}
	for _, c := range constraints {
		if pqErr.Constraint == c {
			return apperrors.ErrAlreadyRegistered
		}
	}
	return fmt.Errorf("%w: %s", apperrors.ErrConflict, pqErr.Message)
}
