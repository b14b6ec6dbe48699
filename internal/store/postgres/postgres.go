// Package postgres is the remote backend on top of a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"depo-backend/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Backend struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Backend {
	return &Backend{DB: db}
}

func (b *Backend) Name() string {
	return "postgres"
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.DB.Ping(ctx)
}

var sequences = map[string]string{
	"box":      "box_code_seq",
	"pallet":   "pallet_code_seq",
	"shipment": "shipment_code_seq",
}

func (b *Backend) NextSequence(ctx context.Context, kind string) (int64, error) {
	seq, ok := sequences[kind]
	if !ok {
		return 0, fmt.Errorf("sequence for %q: %w", kind, store.ErrInvalid)
	}
	var n int64
	err := b.DB.QueryRow(ctx, "SELECT nextval('"+seq+"')").Scan(&n)
	return n, mapErr(err)
}

// mapErr translates driver errors into the store sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", store.ErrConflict, pgErr.ConstraintName)
		case "23503", "23514", "22001":
			return fmt.Errorf("%w: %s", store.ErrInvalid, pgErr.Message)
		}
	}
	return err
}

// expectRow turns an update or delete that touched nothing into ErrNotFound.
func expectRow(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// where accumulates positional filter clauses.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

func (w *where) raw(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	out := " WHERE " + w.clauses[0]
	for _, c := range w.clauses[1:] {
		out += " AND " + c
	}
	return out
}
