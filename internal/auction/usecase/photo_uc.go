package usecase

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/auction-service/internal/auction/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Storage stores raw picture bytes and returns a public URL.
type Storage interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
}

// PhotoUsecase handles item picture uploads.
type PhotoUsecase struct {
	storage Storage
	items   domain.ItemRepository
}

func NewPhotoUsecase(storage Storage, items domain.ItemRepository) *PhotoUsecase {
	return &PhotoUsecase{storage: storage, items: items}
}

// UploadPicture stores the picture and points the item at it. Owner only.
func (uc *PhotoUsecase) UploadPicture(ctx context.Context, itemID primitive.ObjectID, editor domain.Actor, fileName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", domain.NewValidationError(map[string]string{
			"picture": "picture data is required",
		})
	}

	item, err := uc.items.FindByID(ctx, itemID)
	if err != nil {
		return "", err
	}
	if !item.IsOwnedBy(editor.UserID) {
		return "", domain.ErrForbidden
	}

	url, err := uc.storage.Upload(ctx, fileName, data)
	if err != nil {
		return "", err
	}

	expected := item.Version
	item.PictureURL = url
	item.UpdatedAt = time.Now().UTC()
	item.Version++
	if err := uc.items.UpdateVersioned(ctx, item, expected); err != nil {
		return "", err
	}
	return url, nil
}
