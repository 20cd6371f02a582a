package usecase

import (
	"context"
	"errors"
	"strings"

	"autoparts/internal/domain/model"
	"autoparts/internal/repository"

	"github.com/google/uuid"
)

type AddressRequest struct {
	Type         model.AddressType `json:"type" validate:"required,oneof=billing shipping"`
	FirstName    string            `json:"first_name" validate:"notblank,max=100"`
	LastName     string            `json:"last_name" validate:"notblank,max=100"`
	Company      string            `json:"company" validate:"max=255"`
	AddressLine1 string            `json:"address_line1" validate:"notblank,max=255"`
	AddressLine2 string            `json:"address_line2" validate:"max=255"`
	City         string            `json:"city" validate:"notblank,max=100"`
	State        string            `json:"state" validate:"notblank,max=100"`
	PostalCode   string            `json:"postal_code" validate:"notblank,max=20"`
	Country      string            `json:"country" validate:"omitempty,len=2"`
	Phone        string            `json:"phone" validate:"max=30"`
	IsDefault    bool              `json:"is_default"`
}

type AddressUsecase struct {
	tx        repository.TransactionManager
	addresses repository.AddressRepository
	validator FieldValidator
}

func NewAddressUsecase(tx repository.TransactionManager, addresses repository.AddressRepository, validator FieldValidator) *AddressUsecase {
	return &AddressUsecase{tx: tx, addresses: addresses, validator: validator}
}

func (u *AddressUsecase) List(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	if userID == uuid.Nil {
		return nil, NewUnauthorizedError()
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}

// 最初の住所、またはis_default指定ならデフォルトにする
func (u *AddressUsecase) Create(ctx context.Context, userID uuid.UUID, req AddressRequest) (model.Address, error) {
	if userID == uuid.Nil {
		return model.Address{}, NewUnauthorizedError()
	}
	if errs := u.validator.Fields(req); len(errs) > 0 {
		return model.Address{}, NewValidationError("validation failed", errs)
	}

	a := addressFromRequest(req)
	a.UserID = userID

	var created model.Address
	err := u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		existing, err := r.Addresses().ListByUserID(ctx, userID)
		if err != nil {
			return dbError(err)
		}
		makeDefault := req.IsDefault || len(existing) == 0
		a.IsDefault = false

		c, err := r.Addresses().Create(ctx, a)
		if err != nil {
			return dbError(err)
		}
		if makeDefault {
			if err := r.Addresses().SetDefault(ctx, userID, c.ID); err != nil {
				return dbError(err)
			}
			c.IsDefault = true
		}
		created = c
		return nil
	})
	if err != nil {
		return model.Address{}, err
	}
	return created, nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID uuid.UUID, addressID int64, req AddressRequest) (model.Address, error) {
	current, err := u.owned(ctx, userID, addressID)
	if err != nil {
		return model.Address{}, err
	}
	if errs := u.validator.Fields(req); len(errs) > 0 {
		return model.Address{}, NewValidationError("validation failed", errs)
	}

	a := addressFromRequest(req)
	a.ID = current.ID
	a.UserID = current.UserID
	a.IsDefault = current.IsDefault
	a.CreatedAt = current.CreatedAt

	err = u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		if err := r.Addresses().Update(ctx, a); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NewNotFoundError("address not found")
			}
			return dbError(err)
		}
		if req.IsDefault && !current.IsDefault {
			if err := r.Addresses().SetDefault(ctx, userID, a.ID); err != nil {
				return dbError(err)
			}
			a.IsDefault = true
		}
		return nil
	})
	if err != nil {
		return model.Address{}, err
	}
	return a, nil
}

func (u *AddressUsecase) Delete(ctx context.Context, userID uuid.UUID, addressID int64) error {
	if _, err := u.owned(ctx, userID, addressID); err != nil {
		return err
	}

	if err := u.addresses.Delete(ctx, addressID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFoundError("address not found")
		}
		//注文が参照中などで削除できない
		if errors.Is(err, repository.ErrConflict) {
			return NewBusinessRuleError("address is in use", nil)
		}
		return dbError(err)
	}
	return nil
}

func (u *AddressUsecase) SetDefault(ctx context.Context, userID uuid.UUID, addressID int64) error {
	if _, err := u.owned(ctx, userID, addressID); err != nil {
		return err
	}

	//user内でdefaultは1つ
	if err := u.addresses.SetDefault(ctx, userID, addressID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFoundError("address not found")
		}
		return dbError(err)
	}
	return nil
}

// 他人の住所は存在しない扱い（404）
func (u *AddressUsecase) owned(ctx context.Context, userID uuid.UUID, addressID int64) (model.Address, error) {
	if userID == uuid.Nil {
		return model.Address{}, NewUnauthorizedError()
	}
	if addressID <= 0 {
		return model.Address{}, NewValidationError("invalid address id", nil)
	}

	a, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Address{}, NewNotFoundError("address not found")
	}
	if err != nil {
		return model.Address{}, dbError(err)
	}
	if a.UserID != userID {
		return model.Address{}, NewNotFoundError("address not found")
	}
	return a, nil
}

func addressFromRequest(req AddressRequest) model.Address {
	return model.Address{
		Type:         req.Type,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Company:      strings.TrimSpace(req.Company),
		AddressLine1: strings.TrimSpace(req.AddressLine1),
		AddressLine2: strings.TrimSpace(req.AddressLine2),
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		PostalCode:   strings.TrimSpace(req.PostalCode),
		Country:      countryOrDefault(req.Country),
		Phone:        strings.TrimSpace(req.Phone),
	}
}
