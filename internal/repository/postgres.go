package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/pkg/models"
)

// PostgreSQL error codes the repositories translate
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgInvalidText         = "22P02"
)

// withTransaction executes fn within a database transaction
func withTransaction(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return mapDBError(err, "begin_transaction", models.ErrNotFound)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapDBError(err, "commit_transaction", models.ErrNotFound)
	}
	return nil
}

// mapDBError maps database errors to the model sentinels. notFound is what
// pgx.ErrNoRows means for the calling repository.
func mapDBError(err error, operation string, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, notFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w", operation, models.ErrConflict)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w: invalid reference (%s)", operation, models.ErrInvalidInput, pgErr.ConstraintName)
		case pgCheckViolation:
			return fmt.Errorf("%s: %w: constraint %s", operation, models.ErrInvalidInput, pgErr.ConstraintName)
		case pgInvalidText:
			return fmt.Errorf("%s: %w: invalid input format", operation, models.ErrInvalidInput)
		}
	}

	return fmt.Errorf("database error during %s: %w", operation, err)
}
