package pricing

import (
	"fmt"
	"math"

	"grocery/internal/domain/domainerr"

	"github.com/shopspring/decimal"
)

// 地球の平均半径（km）
const EarthRadiusKm = 6371.0

// 店舗からの無料配送半径と一律配送料のデフォルト
const (
	DefaultFreeDeliveryRadiusKm = 5.0
	DefaultFlatFee              = 40
)

// 金額は小数2桁まで（numeric(12,2) に丸めずに入る値）
const MinorUnitPlaces = 2

func IsMinorUnitSafe(d decimal.Decimal) bool {
	return d.Equal(d.Round(MinorUnitPlaces))
}

// 緯度経度
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return fmt.Errorf("%w: coordinate is NaN", domainerr.ErrValidation)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: lat out of range", domainerr.ErrValidation)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: lng out of range", domainerr.ErrValidation)
	}
	return nil
}

// LineItem はカート・注文の1明細。NewLineItem を通して作る。
type LineItem struct {
	ProductID int64
	UnitPrice decimal.Decimal
	ListPrice *decimal.Decimal
	Quantity  int64
}

// 価格・数量がマイナスの明細はここで弾く（計算側では再チェックしない）
func NewLineItem(productID int64, unitPrice decimal.Decimal, listPrice *decimal.Decimal, quantity int64) (LineItem, error) {
	if productID <= 0 {
		return LineItem{}, fmt.Errorf("%w: invalid product_id", domainerr.ErrValidation)
	}
	if unitPrice.IsNegative() {
		return LineItem{}, fmt.Errorf("%w: unit price must be >= 0", domainerr.ErrValidation)
	}
	if listPrice != nil && listPrice.IsNegative() {
		return LineItem{}, fmt.Errorf("%w: list price must be >= 0", domainerr.ErrValidation)
	}
	if quantity < 1 {
		return LineItem{}, fmt.Errorf("%w: quantity must be >= 1", domainerr.ErrValidation)
	}

	item := LineItem{
		ProductID: productID,
		UnitPrice: unitPrice,
		Quantity:  quantity,
	}
	if listPrice != nil {
		lp := *listPrice
		item.ListPrice = &lp
	}
	return item, nil
}

func (li LineItem) Amount() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(li.Quantity))
}

// 配送料ポリシー。距離で2段階（無料 / 一律）。
type Config struct {
	Origin               Coordinate
	FreeDeliveryRadiusKm float64
	FlatFee              decimal.Decimal
}

func (c Config) Validate() error {
	if err := c.Origin.Validate(); err != nil {
		return fmt.Errorf("origin: %w", err)
	}
	if c.FreeDeliveryRadiusKm < 0 || math.IsNaN(c.FreeDeliveryRadiusKm) {
		return fmt.Errorf("%w: free delivery radius must be >= 0", domainerr.ErrValidation)
	}
	if c.FlatFee.IsNegative() {
		return fmt.Errorf("%w: flat fee must be >= 0", domainerr.ErrValidation)
	}
	if !IsMinorUnitSafe(c.FlatFee) {
		return fmt.Errorf("%w: flat fee has more than %d decimal places", domainerr.ErrValidation, MinorUnitPlaces)
	}
	return nil
}

type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{cfg: cfg}, nil
}

// Σ unitPrice * quantity。空なら 0。
func (c *Calculator) Subtotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount())
	}
	return total
}

// 定価がある明細だけ (listPrice - unitPrice) * quantity を合計（表示用）
func (c *Calculator) Savings(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.ListPrice == nil || it.ListPrice.LessThanOrEqual(it.UnitPrice) {
			continue
		}
		diff := it.ListPrice.Sub(it.UnitPrice)
		total = total.Add(diff.Mul(decimal.NewFromInt(it.Quantity)))
	}
	return total
}

// 設定された店舗位置を起点に配送料を返す
func (c *Calculator) DeliveryFee(destination *Coordinate) decimal.Decimal {
	return c.DeliveryFeeFrom(c.cfg.Origin, destination)
}

// 配送先なし → 一律料金。距離が半径以内 → 0。
func (c *Calculator) DeliveryFeeFrom(origin Coordinate, destination *Coordinate) decimal.Decimal {
	if destination == nil {
		return c.cfg.FlatFee
	}
	if HaversineKm(origin, *destination) <= c.cfg.FreeDeliveryRadiusKm {
		return decimal.Zero
	}
	return c.cfg.FlatFee
}

// subtotal + deliveryFee - discount
func Total(subtotal, deliveryFee, discount decimal.Decimal) decimal.Decimal {
	return subtotal.Add(deliveryFee).Sub(discount)
}

// 大円距離（km）
func HaversineKm(a, b Coordinate) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// 見積もり結果
type Quote struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	Savings     decimal.Decimal `json:"savings"`
	DistanceKm  *float64        `json:"distance_km,omitempty"`
}

// 明細と配送先から見積もりを作る。割引は今のところ常に 0 が渡される。
func (c *Calculator) Quote(items []LineItem, destination *Coordinate, discount decimal.Decimal) (Quote, error) {
	if discount.IsNegative() {
		return Quote{}, fmt.Errorf("%w: discount must be >= 0", domainerr.ErrValidation)
	}
	if destination != nil {
		if err := destination.Validate(); err != nil {
			return Quote{}, err
		}
	}

	subtotal := c.Subtotal(items)
	fee := c.DeliveryFee(destination)

	q := Quote{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Discount:    discount,
		Total:       Total(subtotal, fee, discount),
		Savings:     c.Savings(items),
	}
	if destination != nil {
		d := HaversineKm(c.cfg.Origin, *destination)
		q.DistanceKm = &d
	}
	return q, nil
}
