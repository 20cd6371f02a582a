package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"autoparts/internal/domain/model"
	repo "autoparts/internal/repository"
)

type CategoryInput struct {
	Name        string `json:"name" validate:"notblank,max=255"`
	Slug        string `json:"slug" validate:"max=255"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parent_id" validate:"omitempty,gt=0"`
}

type CategoryUsecase struct {
	categories repo.CategoryRepository
	validator  FieldValidator
}

func NewCategoryUsecase(categories repo.CategoryRepository, validator FieldValidator) *CategoryUsecase {
	return &CategoryUsecase{categories: categories, validator: validator}
}

func (u *CategoryUsecase) List(ctx context.Context) ([]model.Category, error) {
	list, err := u.categories.List(ctx)
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}

func (u *CategoryUsecase) Create(ctx context.Context, in CategoryInput) (model.Category, error) {
	if errs := u.validator.Fields(in); len(errs) > 0 {
		return model.Category{}, NewValidationError("validation failed", errs)
	}

	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(in.Name)
	}
	if slug == "" {
		return model.Category{}, NewValidationError("validation failed", map[string]string{"slug": "slug is invalid"})
	}

	if in.ParentID != nil {
		if _, err := u.categories.FindByID(ctx, *in.ParentID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return model.Category{}, NewNotFoundError("parent category not found")
			}
			return model.Category{}, dbError(err)
		}
	}

	c, err := u.categories.Create(ctx, model.Category{
		Name:        strings.TrimSpace(in.Name),
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
		ParentID:    in.ParentID,
	})
	if errors.Is(err, repo.ErrConflict) {
		return model.Category{}, NewBusinessRuleError("slug already exists", map[string]string{"slug": slug})
	}
	if err != nil {
		return model.Category{}, dbError(err)
	}
	return c, nil
}

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// "Brake Pads & Rotors" -> "brake-pads-rotors"
func Slugify(s string) string {
	s = nonSlugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(s, "-")
}
