package repository

import (
	"context"
	"errors"

	"grocery/internal/infra/retry"
	repo "grocery/internal/repository"

	"gorm.io/gorm"
)

// 各リポジトリ共通のDB呼び出し。
// Tx の外ではタイムアウト＋一時エラー時に1回やり直す。Tx の中は Tx ごとやり直すのでそのまま。
type store struct {
	db     *gorm.DB
	policy retry.Policy
	inTx   bool
}

func newStore(db *gorm.DB, policy retry.Policy) store {
	return store{db: db, policy: policy}
}

func (s store) run(ctx context.Context, fn func(db *gorm.DB) error) error {
	if s.inTx {
		return fn(s.db.WithContext(ctx))
	}
	return retry.Do(ctx, s.policy, func(ctx context.Context) error {
		return fn(s.db.WithContext(ctx))
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	return err
}

func duplicated(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repo.ErrConflict
	}
	return err
}

// 1ページ目から、上限つき
func pageOf(page, limit, def, max int) (offset int, size int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > max {
		limit = def
	}
	return (page - 1) * limit, limit
}
