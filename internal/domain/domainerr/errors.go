package domainerr

import "errors"

// 業務エラーの分類。詳細は fmt.Errorf("%w: ...") で付ける。
var (
	//400 入力不正（数量・価格がマイナス、空カートなど）
	ErrValidation = errors.New("validation error")

	//409 状態遷移として許されない
	ErrInvalidTransition = errors.New("invalid transition")

	//409 他の配達員がすでに担当している
	ErrAlreadyAssigned = errors.New("already assigned")

	//404
	ErrNotFound = errors.New("not found")

	//503 DB・キャッシュ・ブローカーに一時的に届かない
	ErrTransient = errors.New("transient io error")
)
