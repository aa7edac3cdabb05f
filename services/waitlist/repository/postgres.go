// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arindamdawn/nextgen-cto/services/waitlist/datatypes"
)

// pgUniqueViolation is the Postgres error code for a unique constraint hit.
const pgUniqueViolation = "23505"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS waitlist_signup (
    id         UUID PRIMARY KEY,
    email      TEXT NOT NULL,
    name       TEXT NOT NULL DEFAULT '',
    source     TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS waitlist_signup_email_idx
    ON waitlist_signup (LOWER(email));
`

// PostgresRepository stores submissions in a waitlist_signup table. Unlike
// the sheets backend it is the system of record, so it is fail-closed and
// enforces one signup per email (case-insensitive).
type PostgresRepository struct {
	pool      *pgxpool.Pool
	sourceTag string
}

// NewPostgresRepository connects a pool and ensures the schema exists.
func NewPostgresRepository(ctx context.Context, databaseURL, sourceTag string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	repo := &PostgresRepository{pool: pool, sourceTag: sourceTag}
	if err := repo.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

func (r *PostgresRepository) ensureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensuring waitlist schema: %w", err)
	}
	return nil
}

// Add inserts the submission, translating a unique-index violation into
// ErrDuplicateEmail.
func (r *PostgresRepository) Add(ctx context.Context, sub datatypes.Submission) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO waitlist_signup (id, email, name, source, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), sub.Email, sub.Name, r.sourceTag, sub.ReceivedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting waitlist signup: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Close releases the pool.
func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func (r *PostgresRepository) FailOpen() bool { return false }

func (r *PostgresRepository) Backend() string { return BackendPostgres }
