package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"depo-backend/internal/models"
	"depo-backend/internal/store"
	"depo-backend/internal/timeutil"
)

// clearReferences unlinks every child from the parent being deleted. Children
// are never deleted with their parent. A child that vanished in the meantime
// is skipped.
func clearReferences(ctx context.Context, children []string, unlink func(ctx context.Context, code string) error) error {
	for _, code := range children {
		if err := unlink(ctx, code); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("clear reference of %s: %w", code, err)
		}
	}
	return nil
}

func boxCodes(boxes []*models.Box) []string {
	codes := make([]string, len(boxes))
	for i, b := range boxes {
		codes[i] = b.Code
	}
	return codes
}

func palletCodes(pallets []*models.Pallet) []string {
	codes := make([]string, len(pallets))
	for i, p := range pallets {
		codes[i] = p.Code
	}
	return codes
}

// authorize rejects mutations of an entity the actor did not create.
func authorize(actor models.Actor, owner string) error {
	if !actor.CanModify(owner) {
		return store.ErrForbidden
	}
	return nil
}

// Clock is the time source shared by the repositories.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return timeutil.Now()
	}
	return c()
}

// PhotoSlot selects which of an entity's photo URLs is written.
type PhotoSlot int

const (
	PhotoPrimary PhotoSlot = 1
	PhotoSecond  PhotoSlot = 2
)

func setPhoto(primary, second *string, slot PhotoSlot, url string) error {
	switch slot {
	case PhotoPrimary:
		*primary = url
	case PhotoSecond:
		if second == nil {
			return fmt.Errorf("photo slot %d: %w", slot, store.ErrInvalid)
		}
		*second = url
	default:
		return fmt.Errorf("photo slot %d: %w", slot, store.ErrInvalid)
	}
	return nil
}
