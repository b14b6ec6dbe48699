package services

import (
	"bytes"
	"context"
	"fmt"

	"depo-backend/internal/codegen"
	"depo-backend/internal/logger"
	"depo-backend/internal/models"
	"depo-backend/internal/objectstore"
	"depo-backend/internal/repositories"
	"depo-backend/internal/store"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var photoLog = logger.WithComponent("Photos")

const (
	MaxPhotoBytes    = 15 << 20
	maxPhotoEdge     = 1600
	photoJPEGQuality = 85
)

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type PhotoService struct {
	Uploader  Uploader
	Boxes     *repositories.BoxRepository
	Pallets   *repositories.PalletRepository
	Shipments *repositories.ShipmentRepository
}

func NewPhotoService(up Uploader, boxes *repositories.BoxRepository, pallets *repositories.PalletRepository, shipments *repositories.ShipmentRepository) *PhotoService {
	return &PhotoService{Uploader: up, Boxes: boxes, Pallets: pallets, Shipments: shipments}
}

var photoFolders = map[codegen.Kind]string{
	codegen.KindBox:      "boxes",
	codegen.KindPallet:   "pallets",
	codegen.KindShipment: "shipments",
}

// Upload normalises the image, stores it and records the URL in the given
// slot of the entity. Nothing is uploaded for a caller who may not edit it.
func (s *PhotoService) Upload(ctx context.Context, actor models.Actor, kind codegen.Kind, code string, slot repositories.PhotoSlot, data []byte) (string, error) {
	if s.Uploader == nil {
		return "", objectstore.ErrNotConfigured
	}
	folder, ok := photoFolders[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", codegen.ErrUnknownKind, kind)
	}
	if err := s.checkOwner(ctx, actor, kind, code); err != nil {
		return "", err
	}

	jpeg, err := NormalizePhoto(data)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s/%s.jpg", folder, code, uuid.NewString())
	url, err := s.Uploader.Put(ctx, key, jpeg, "image/jpeg")
	if err != nil {
		return "", err
	}

	switch kind {
	case codegen.KindBox:
		_, err = s.Boxes.SetPhoto(ctx, actor, code, slot, url)
	case codegen.KindPallet:
		_, err = s.Pallets.SetPhoto(ctx, actor, code, slot, url)
	case codegen.KindShipment:
		_, err = s.Shipments.SetPhoto(ctx, actor, code, slot, url)
	}
	if err != nil {
		// The entity never points at the object; drop it.
		if derr := s.Uploader.Delete(context.WithoutCancel(ctx), key); derr != nil {
			logger.LogError(photoLog, "PhotoService.Upload", "remove orphaned photo", key, derr)
		}
		return "", err
	}
	return url, nil
}

func (s *PhotoService) checkOwner(ctx context.Context, actor models.Actor, kind codegen.Kind, code string) error {
	var owner string
	switch kind {
	case codegen.KindBox:
		b, err := s.Boxes.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		owner = b.CreatedBy
	case codegen.KindPallet:
		p, err := s.Pallets.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		owner = p.CreatedBy
	case codegen.KindShipment:
		sh, err := s.Shipments.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		owner = sh.CreatedBy
	}
	if !actor.CanModify(owner) {
		return store.ErrForbidden
	}
	return nil
}

// NormalizePhoto decodes any supported image, applies EXIF orientation,
// bounds it to maxPhotoEdge on the longer side and re-encodes it as JPEG.
func NormalizePhoto(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data) > MaxPhotoBytes {
		return nil, fmt.Errorf("photo must be between 1 byte and %d MB: %w", MaxPhotoBytes>>20, store.ErrInvalid)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("unreadable image: %w", store.ErrInvalid)
	}
	b := img.Bounds()
	if b.Dx() > maxPhotoEdge || b.Dy() > maxPhotoEdge {
		img = imaging.Fit(img, maxPhotoEdge, maxPhotoEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(photoJPEGQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
