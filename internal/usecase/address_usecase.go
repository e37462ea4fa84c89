package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"grocery/internal/domain/model"
	"grocery/internal/repository"
)

// usecaseがValidatorInterfaceに依存する約束
type AddressValidator interface {
	ValidateAddress(ctx context.Context, req AddressRequest) error
}

type AddressDTO struct {
	ID         int64    `json:"id"`
	UserID     int64    `json:"user_id"`
	Name       string   `json:"name"`
	Phone      string   `json:"phone"`
	Line1      string   `json:"line1"`
	Line2      string   `json:"line2"`
	City       string   `json:"city"`
	PostalCode string   `json:"postal_code"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`
	IsDefault  bool     `json:"is_default"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  *string  `json:"updated_at,omitempty"`
}

// 作成・更新共通。lat/lng は両方あるか両方無いか。
type AddressRequest struct {
	Name       string   `json:"name"`
	Phone      string   `json:"phone"`
	Line1      string   `json:"line1"`
	Line2      string   `json:"line2"`
	City       string   `json:"city"`
	PostalCode string   `json:"postal_code"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
}

type AddressUsecase struct {
	addresses repository.AddressRepository
	validator AddressValidator
}

func NewAddressUsecase(addresses repository.AddressRepository, validator AddressValidator) *AddressUsecase {
	return &AddressUsecase{addresses: addresses, validator: validator}
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]AddressDTO, error) {
	if userID <= 0 {
		return nil, unauthorized()
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, toHTTPError(err)
	}

	out := make([]AddressDTO, 0, len(list))
	for i := range list {
		out = append(out, toAddressDTO(&list[i]))
	}
	return out, nil
}

// 最初の住所は自動でデフォルト
func (u *AddressUsecase) Create(ctx context.Context, userID int64, req AddressRequest) (AddressDTO, error) {
	if userID <= 0 {
		return AddressDTO{}, unauthorized()
	}

	//入力チェック
	if err := u.validator.ValidateAddress(ctx, req); err != nil {
		return AddressDTO{}, toHTTPError(err)
	}

	existing, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return AddressDTO{}, toHTTPError(err)
	}

	a := fromAddressRequest(req)
	a.UserID = userID
	a.IsDefault = len(existing) == 0
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	created, err := u.addresses.Create(ctx, a)
	if err != nil {
		return AddressDTO{}, toHTTPError(err)
	}
	return toAddressDTO(&created), nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, req AddressRequest) error {
	if err := u.checkOwner(ctx, userID, addressID); err != nil {
		return err
	}
	if err := u.validator.ValidateAddress(ctx, req); err != nil {
		return toHTTPError(err)
	}

	a := fromAddressRequest(req)
	a.ID = addressID
	a.UpdatedAt = time.Now()
	return toHTTPError(u.addresses.Update(ctx, a))
}

func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	if err := u.checkOwner(ctx, userID, addressID); err != nil {
		return err
	}
	return toHTTPError(u.addresses.Delete(ctx, addressID))
}

func (u *AddressUsecase) SetDefault(ctx context.Context, userID int64, addressID int64) error {
	if err := u.checkOwner(ctx, userID, addressID); err != nil {
		return err
	}
	//user内でdefaultは1つ
	return toHTTPError(u.addresses.SetDefault(ctx, userID, addressID))
}

// 所有チェック（本人のみ。他人のものは 403）
func (u *AddressUsecase) checkOwner(ctx context.Context, userID int64, addressID int64) error {
	if userID <= 0 {
		return unauthorized()
	}
	if addressID <= 0 {
		return badRequest("invalid id")
	}

	if _, err := u.addresses.FindByID(ctx, addressID); err != nil {
		return toHTTPError(err)
	}
	owned, err := u.addresses.IsOwnedByUser(ctx, addressID, userID)
	if err != nil {
		return toHTTPError(err)
	}
	if !owned {
		return NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return nil
}

func fromAddressRequest(req AddressRequest) model.Address {
	return model.Address{
		Name:       strings.TrimSpace(req.Name),
		Phone:      strings.TrimSpace(req.Phone),
		Line1:      strings.TrimSpace(req.Line1),
		Line2:      strings.TrimSpace(req.Line2),
		City:       strings.TrimSpace(req.City),
		PostalCode: strings.TrimSpace(req.PostalCode),
		Lat:        req.Lat,
		Lng:        req.Lng,
	}
}

func toAddressDTO(a *model.Address) AddressDTO {
	dto := AddressDTO{
		ID:         a.ID,
		UserID:     a.UserID,
		Name:       a.Name,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		PostalCode: a.PostalCode,
		Lat:        a.Lat,
		Lng:        a.Lng,
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
	t := a.UpdatedAt.Format(time.RFC3339)
	dto.UpdatedAt = &t
	return dto
}
