package postgres

import (
	"errors"
	"fmt"
	"testing"

	"depo-backend/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

var _ store.Backend = (*Backend)(nil)

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil))
	assert.ErrorIs(t, mapErr(pgx.ErrNoRows), store.ErrNotFound)
	assert.ErrorIs(t, mapErr(fmt.Errorf("scan: %w", pgx.ErrNoRows)), store.ErrNotFound)
	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: "23505", ConstraintName: "boxes_code_key"}), store.ErrConflict)
	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: "23503"}), store.ErrInvalid)

	other := errors.New("connection refused")
	assert.Equal(t, other, mapErr(other))
	assert.False(t, store.IsAuthoritative(mapErr(other)))
}

func TestWhereBuilder(t *testing.T) {
	var w where
	assert.Equal(t, "", w.String())

	w.add("created_by = $%d", "ayse")
	w.raw("pallet_id IS NULL")
	w.add("(code ILIKE '%%' || $%[1]d || '%%' OR name ILIKE '%%' || $%[1]d || '%%')", "koli")

	assert.Equal(t,
		" WHERE created_by = $1 AND pallet_id IS NULL AND (code ILIKE '%' || $2 || '%' OR name ILIKE '%' || $2 || '%')",
		w.String())
	assert.Equal(t, []any{"ayse", "koli"}, w.args)
}
