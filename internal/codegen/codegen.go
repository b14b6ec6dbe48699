// Package codegen issues the human readable codes printed on box, pallet and
// shipment labels, e.g. BOX-000042.
package codegen

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"depo-backend/internal/metrics"
	"depo-backend/internal/store"
)

type Kind string

const (
	KindBox      Kind = "box"
	KindPallet   Kind = "pallet"
	KindShipment Kind = "shipment"
)

const maxAttempts = 10

var (
	ErrCodeExhausted = errors.New("no free code after retries")
	ErrUnknownKind   = errors.New("unknown entity kind")
)

var prefixes = map[Kind]string{
	KindBox:      "BOX",
	KindPallet:   "PLT",
	KindShipment: "SHP",
}

func (k Kind) Prefix() (string, error) {
	p, ok := prefixes[k]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
	}
	return p, nil
}

// ParseKind accepts the lowercase names used in URLs.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(s))
	if _, ok := prefixes[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// LocalMarker precedes the number in codes issued by the local store while
// the remote database was unreachable, e.g. BOX-L000003.
const LocalMarker = "L"

// Format renders n with the kind prefix, zero padded to six digits.
func Format(k Kind, n int64) (string, error) {
	p, err := k.Prefix()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", p, n), nil
}

// FormatLocal renders n as a locally issued code.
func FormatLocal(k Kind, n int64) (string, error) {
	p, err := k.Prefix()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s%06d", p, LocalMarker, n), nil
}

// KindOf recovers the entity kind from a code's prefix.
func KindOf(code string) (Kind, error) {
	prefix, num, ok := strings.Cut(code, "-")
	num = strings.TrimPrefix(num, LocalMarker)
	if !ok || num == "" {
		return "", fmt.Errorf("%w: malformed code %q", ErrUnknownKind, code)
	}
	if _, err := strconv.ParseUint(num, 10, 64); err != nil {
		return "", fmt.Errorf("%w: malformed code %q", ErrUnknownKind, code)
	}
	for k, p := range prefixes {
		if p == prefix {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: prefix %q", ErrUnknownKind, prefix)
}

// ExistsFunc reports whether a code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

type Generator struct {
	seq store.Sequencer
}

func New(seq store.Sequencer) *Generator {
	return &Generator{seq: seq}
}

func (g *Generator) next(ctx context.Context, kind Kind) (string, error) {
	if ds, ok := g.seq.(store.DegradableSequencer); ok {
		n, degraded, err := ds.NextSequenceDegraded(ctx, string(kind))
		if err != nil {
			return "", err
		}
		if degraded {
			return FormatLocal(kind, n)
		}
		return Format(kind, n)
	}
	n, err := g.seq.NextSequence(ctx, string(kind))
	if err != nil {
		return "", err
	}
	return Format(kind, n)
}

// Next draws sequence numbers until exists reports a free code. Collisions
// happen when rows were imported or restored behind the sequence. Numbers the
// local store issues during a remote outage get the local marker, because the
// remote sequence will hand out the same numbers once it is back.
func (g *Generator) Next(ctx context.Context, kind Kind, exists ExistsFunc) (string, error) {
	if _, err := kind.Prefix(); err != nil {
		return "", err
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := g.next(ctx, kind)
		if err != nil {
			return "", fmt.Errorf("next %s sequence: %w", kind, err)
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check %s: %w", code, err)
		}
		if !taken {
			metrics.CodesGenerated.WithLabelValues(string(kind)).Inc()
			return code, nil
		}
	}
	return "", fmt.Errorf("%s: %w", kind, ErrCodeExhausted)
}

// ExistsVia adapts a getter returning store.ErrNotFound into an ExistsFunc.
func ExistsVia[T any](get func(ctx context.Context, code string) (T, error)) ExistsFunc {
	return func(ctx context.Context, code string) (bool, error) {
		_, err := get(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	}
}
