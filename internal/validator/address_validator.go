package validator

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"grocery/internal/domain/domainerr"
	"grocery/internal/usecase"
)

type addressValidator struct{}

func NewAddressValidator() usecase.AddressValidator {
	return &addressValidator{}
}

// 住所の作成・更新の入力を検証
func (v *addressValidator) ValidateAddress(ctx context.Context, req usecase.AddressRequest) error {
	required := []struct {
		field string
		value string
		max   int
	}{
		{"name", req.Name, 255},
		{"line1", req.Line1, 255},
		{"city", req.City, 255},
		{"postal_code", req.PostalCode, 20},
	}
	for _, r := range required {
		v := strings.TrimSpace(r.value)
		if v == "" {
			return fmt.Errorf("%w: %s is required", domainerr.ErrValidation, r.field)
		}
		if utf8.RuneCountInString(v) > r.max {
			return fmt.Errorf("%w: %s too long", domainerr.ErrValidation, r.field)
		}
	}
	if utf8.RuneCountInString(req.Line2) > 255 {
		return fmt.Errorf("%w: line2 too long", domainerr.ErrValidation)
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Phone)) > 30 {
		return fmt.Errorf("%w: phone too long", domainerr.ErrValidation)
	}

	// 座標は両方そろって初めて意味がある
	if (req.Lat == nil) != (req.Lng == nil) {
		return fmt.Errorf("%w: lat and lng must be set together", domainerr.ErrValidation)
	}
	if req.Lat != nil {
		if *req.Lat < -90 || *req.Lat > 90 {
			return fmt.Errorf("%w: lat out of range", domainerr.ErrValidation)
		}
		if *req.Lng < -180 || *req.Lng > 180 {
			return fmt.Errorf("%w: lng out of range", domainerr.ErrValidation)
		}
	}
	return nil
}
