package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

// TestIsUniqueViolation - só o código 23505 conta, mesmo embrulhado
func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

// TestNotFound - sql.ErrNoRows vira o erro da entidade
func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(sql.ErrNoRows, entity.ErrOrderNotFound), entity.ErrOrderNotFound)
	other := errors.New("conn reset")
	assert.Equal(t, other, notFound(other, entity.ErrOrderNotFound))
}

// TestCasResult - linha atualizada, status obsoleto ou registro inexistente
func TestCasResult(t *testing.T) {
	exists := func(v bool) func() (bool, error) {
		return func() (bool, error) { return v, nil }
	}
	neverCalled := func() (bool, error) {
		t.Fatal("exists should not run when the row was updated")
		return false, nil
	}

	assert.NoError(t, casResult(fakeResult{rows: 1}, neverCalled, entity.ErrStaleStatus, entity.ErrNotFound))
	assert.ErrorIs(t, casResult(fakeResult{rows: 0}, exists(true), entity.ErrStaleStatus, entity.ErrNotFound), entity.ErrStaleStatus)
	assert.ErrorIs(t, casResult(fakeResult{rows: 0}, exists(false), entity.ErrStaleStatus, entity.ErrNotFound), entity.ErrNotFound)

	boom := errors.New("boom")
	assert.ErrorIs(t, casResult(fakeResult{err: boom}, neverCalled, entity.ErrStaleStatus, entity.ErrNotFound), boom)
}

// TestNullHelpers - string vazia vira NULL e volta vazia
func TestNullHelpers(t *testing.T) {
	assert.Nil(t, nullString(""))
	require.NotNil(t, nullString("x"))
	assert.Equal(t, "x", *nullString("x"))
	assert.Equal(t, "", fromNull(sql.NullString{}))
	assert.Equal(t, "y", fromNull(sql.NullString{String: "y", Valid: true}))
	assert.Nil(t, fromNullFloat(sql.NullFloat64{}))
	assert.Equal(t, 50.0, *fromNullFloat(sql.NullFloat64{Float64: 50, Valid: true}))
}

// TestMigrationsEmbedded - toda migration tem Up e Down do goose
func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.Len(t, names, 2)

	for _, name := range names {
		raw, err := fs.ReadFile(migrationsFS, name)
		require.NoError(t, err)
		body := string(raw)
		assert.True(t, strings.HasPrefix(body, "-- +goose Up"), name)
		assert.Contains(t, body, "-- +goose Down", name)
	}
}

// TestFindByTokenMalformed - token fora do formato UUID não chega ao banco
func TestFindByTokenMalformed(t *testing.T) {
	repo := NewOrderRepository(nil)
	for _, token := range []string{"", "tok-1", "not-a-uuid"} {
		_, err := repo.FindByToken(context.Background(), token)
		assert.ErrorIs(t, err, entity.ErrOrderNotFound, token)
	}
}
