package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"autoparts/internal/domain/model"
	repo "autoparts/internal/repository"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

const MaxImageBytes = 5 << 20

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type UploadImageInput struct {
	ProductID   int64
	ContentType string
	Size        int64
	Body        io.Reader
	AltText     string
	IsPrimary   bool
}

type UpdateImageInput struct {
	AltText   *string `json:"alt_text"`
	SortOrder *int    `json:"sort_order"`
	IsPrimary *bool   `json:"is_primary"`
}

type ProductImageUsecase struct {
	tx       repo.TransactionManager
	products repo.ProductRepository
	images   repo.ProductImageRepository
	store    ObjectStore
	now      func() time.Time
}

func NewProductImageUsecase(tx repo.TransactionManager, products repo.ProductRepository, images repo.ProductImageRepository, store ObjectStore) *ProductImageUsecase {
	return &ProductImageUsecase{tx: tx, products: products, images: images, store: store, now: time.Now}
}

func (u *ProductImageUsecase) List(ctx context.Context, productID int64) ([]model.ProductImage, error) {
	if productID <= 0 {
		return nil, NewValidationError("invalid product id", nil)
	}
	list, err := u.images.ListByProductID(ctx, productID)
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}

// オブジェクトを置いてからDBに行を作る。最初の1枚はメイン画像
func (u *ProductImageUsecase) Upload(ctx context.Context, in UploadImageInput) (model.ProductImage, error) {
	if u.store == nil {
		return model.ProductImage{}, NewProviderError("object storage not configured", nil)
	}
	if in.ProductID <= 0 {
		return model.ProductImage{}, NewValidationError("invalid product id", nil)
	}
	ct := strings.ToLower(strings.TrimSpace(in.ContentType))
	ext, ok := imageExt[ct]
	if !ok {
		return model.ProductImage{}, NewValidationError("unsupported image type", map[string]string{"file": "must be jpeg, png or webp"})
	}
	if in.Size <= 0 || in.Size > MaxImageBytes {
		return model.ProductImage{}, NewValidationError("invalid image size", map[string]string{"file": "must be at most 5MB"})
	}

	if _, err := u.products.FindByID(ctx, in.ProductID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.ProductImage{}, NewNotFoundError("product not found")
		}
		return model.ProductImage{}, dbError(err)
	}

	key := u.objectKey(in.ProductID, ext)
	url, err := u.store.Put(ctx, key, ct, io.LimitReader(in.Body, MaxImageBytes))
	if err != nil {
		return model.ProductImage{}, NewProviderError("failed to store image", err)
	}

	var created model.ProductImage
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		existing, err := r.Images().ListByProductID(ctx, in.ProductID)
		if err != nil {
			return dbError(err)
		}
		img, err := r.Images().Create(ctx, model.ProductImage{
			ProductID: in.ProductID,
			URL:       url,
			ObjectKey: key,
			AltText:   strings.TrimSpace(in.AltText),
			IsPrimary: in.IsPrimary || len(existing) == 0,
			SortOrder: len(existing),
		})
		if err != nil {
			return dbError(err)
		}
		if img.IsPrimary {
			if err := r.Images().ClearPrimary(ctx, in.ProductID, img.ID); err != nil {
				return dbError(err)
			}
		}
		created = img
		return nil
	})
	if err != nil {
		//行が作れなかったオブジェクトは消す
		if derr := u.store.Delete(ctx, key); derr != nil {
			zerolog.Ctx(ctx).Warn().Err(derr).Str("key", key).Msg("orphan image object")
		}
		return model.ProductImage{}, err
	}
	return created, nil
}

func (u *ProductImageUsecase) Update(ctx context.Context, productID, imageID int64, in UpdateImageInput) (model.ProductImage, error) {
	var updated model.ProductImage
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		img, err := findImage(ctx, r.Images(), productID, imageID)
		if err != nil {
			return err
		}
		if in.AltText != nil {
			img.AltText = strings.TrimSpace(*in.AltText)
		}
		if in.SortOrder != nil {
			if *in.SortOrder < 0 {
				return NewValidationError("validation failed", map[string]string{"sort_order": "sort_order must be >= 0"})
			}
			img.SortOrder = *in.SortOrder
		}
		if in.IsPrimary != nil {
			img.IsPrimary = *in.IsPrimary
		}

		if err := r.Images().Update(ctx, img); err != nil {
			return dbError(err)
		}
		if img.IsPrimary {
			if err := r.Images().ClearPrimary(ctx, productID, img.ID); err != nil {
				return dbError(err)
			}
		}
		updated = img
		return nil
	})
	if err != nil {
		return model.ProductImage{}, err
	}
	return updated, nil
}

// 行を消してからオブジェクトを消す。オブジェクト削除の失敗はログだけ
func (u *ProductImageUsecase) Delete(ctx context.Context, productID, imageID int64) error {
	img, err := findImage(ctx, u.images, productID, imageID)
	if err != nil {
		return err
	}
	if err := u.images.Delete(ctx, imageID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("image not found")
		}
		return dbError(err)
	}

	if u.store != nil && img.ObjectKey != "" {
		if err := u.store.Delete(ctx, img.ObjectKey); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("key", img.ObjectKey).Msg("failed to delete image object")
		}
	}
	return nil
}

func (u *ProductImageUsecase) objectKey(productID int64, ext string) string {
	id := ulid.MustNew(ulid.Timestamp(u.now()), rand.Reader)
	return fmt.Sprintf("products/%d/%s%s", productID, strings.ToLower(id.String()), ext)
}

// 別商品の画像は404
func findImage(ctx context.Context, images repo.ProductImageRepository, productID, imageID int64) (model.ProductImage, error) {
	if productID <= 0 || imageID <= 0 {
		return model.ProductImage{}, NewValidationError("invalid id", nil)
	}
	img, err := images.FindByID(ctx, imageID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.ProductImage{}, NewNotFoundError("image not found")
	}
	if err != nil {
		return model.ProductImage{}, dbError(err)
	}
	if img.ProductID != productID {
		return model.ProductImage{}, NewNotFoundError("image not found")
	}
	return img, nil
}
