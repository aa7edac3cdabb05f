// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// Tests for the postgres repository

package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arindamdawn/nextgen-cto/services/waitlist/datatypes"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: pgUniqueViolation}))
	assert.True(t, isUniqueViolation(fmt.Errorf("exec: %w", &pgconn.PgError{Code: pgUniqueViolation})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("connection reset")))
	assert.False(t, isUniqueViolation(nil))
}

func TestPostgresRepository_Policy(t *testing.T) {
	repo := &PostgresRepository{}
	assert.False(t, repo.FailOpen())
	assert.Equal(t, BackendPostgres, repo.Backend())
	assert.Equal(t, "postgres", BackendPostgres, "metric labels depend on this value")
}

// TestPostgresRepository_Integration needs a live database; set
// WAITLIST_TEST_DATABASE_URL to run it.
func TestPostgresRepository_Integration(t *testing.T) {
	databaseURL := os.Getenv("WAITLIST_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("WAITLIST_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	repo, err := NewPostgresRepository(ctx, databaseURL, datatypes.SourceTag)
	require.NoError(t, err)
	defer repo.Close()

	email := fmt.Sprintf("it-%d@nextgen-cto.test", time.Now().UnixNano())
	sub := datatypes.Submission{Email: email, Name: "Integration", ReceivedAt: time.Now()}

	require.NoError(t, repo.Add(ctx, sub))

	// Same email again, different case: the LOWER(email) index must trip.
	dup := sub
	dup.Email = "IT-" + email[3:]
	err = repo.Add(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}
