package model

import "grocery/internal/domain/pricing"

// 1ユーザーにカートは1つ（cart_items を user_id でまとめたもの）
type Cart struct {
	UserID int64
	Items  []CartItem
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// 価格計算用の明細に変換（不正な行があればエラー）
func (c Cart) LineItems() ([]pricing.LineItem, error) {
	out := make([]pricing.LineItem, 0, len(c.Items))
	for _, it := range c.Items {
		li, err := it.LineItem()
		if err != nil {
			return nil, err
		}
		out = append(out, li)
	}
	return out, nil
}
