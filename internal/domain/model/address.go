package model

import (
	"time"

	"grocery/internal/domain/pricing"
)

// 配送先住所
type Address struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//宛名
	Name string `gorm:"type:varchar(255);not null" json:"name"`

	//電話番号
	Phone string `gorm:"type:varchar(30)" json:"phone"`

	//番地・建物名など（自由記述）
	Line1 string `gorm:"type:varchar(255);not null" json:"line1"`
	Line2 string `gorm:"type:varchar(255)" json:"line2"`

	//市区町村
	City string `gorm:"type:varchar(255);not null" json:"city"`

	//郵便番号
	PostalCode string `gorm:"type:varchar(20);not null" json:"postal_code"`

	//地図で選んだ位置（無ければ配送料は一律）
	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`

	//このユーザーのデフォルト住所か
	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (a Address) Coordinate() *pricing.Coordinate {
	if a.Lat == nil || a.Lng == nil {
		return nil
	}
	return &pricing.Coordinate{Lat: *a.Lat, Lng: *a.Lng}
}

// 注文に写す住所
func (a Address) Shipping() ShippingAddress {
	addr := a.Line1
	if a.Line2 != "" {
		addr += ", " + a.Line2
	}
	return ShippingAddress{
		Name:       a.Name,
		Phone:      a.Phone,
		Address:    addr,
		City:       a.City,
		PostalCode: a.PostalCode,
	}
}
