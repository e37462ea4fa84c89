package repository

import (
	"context"
	"fmt"

	"grocery/internal/domain/domainerr"
	"grocery/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = fmt.Errorf("%w: user", domainerr.ErrNotFound)

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//メールからユーザーを一件取得する。見つからなければ nil, nil
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// ユーザー情報の更新=>アクティブかどうか・最後のログイン更新など
	Update(ctx context.Context, user *model.User) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID int64) error
	//ロールで一覧（配達員一覧など）
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)
}
