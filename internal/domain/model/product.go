package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID  *int64 `gorm:"index" json:"category_id,omitempty"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	//販売価格（割引後）
	Price decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	//定価（無ければ割引表示なし）
	ListPrice *decimal.Decimal `gorm:"type:numeric(12,2)" json:"list_price,omitempty"`
	//単位表示（1kg, 500ml など）
	Unit      string         `gorm:"type:varchar(50);not null;default:''" json:"unit"`
	ImageURL  string         `gorm:"type:text;not null;default:''" json:"image_url"`
	Stock     int64          `gorm:"not null" json:"stock"`
	IsActive  bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
