package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"
	auth "grocery/internal/usecase/auth_usecase"
)

// 配達スタッフ管理（管理者）
type CourierUsecase struct {
	users     repo.UserRepository
	auditRepo repo.AuditLogRepository
	register  *auth.RegisterUserUsecase
}

func NewCourierUsecase(users repo.UserRepository, auditRepo repo.AuditLogRepository, register *auth.RegisterUserUsecase) *CourierUsecase {
	return &CourierUsecase{users: users, auditRepo: auditRepo, register: register}
}

type CreateCourierRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

func (u *CourierUsecase) Create(ctx context.Context, adminUserID int64, req CreateCourierRequest) (UserDTO, error) {
	if adminUserID <= 0 {
		return UserDTO{}, unauthorized()
	}

	out, err := u.register.Execute(ctx, auth.RegisterUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     model.RoleCourier,
	})
	if err != nil {
		return UserDTO{}, registerError(err)
	}

	after, _ := json.Marshal(toUserDTO(&out.User))
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionCreateCourier,
		ResourceType: model.AuditResourceUser,
		ResourceID:   out.User.ID,
		BeforeJSON:   "{}",
		AfterJSON:    string(after),
		CreatedAt:    time.Now(),
	}); err != nil {
		return UserDTO{}, toHTTPError(err)
	}
	return toUserDTO(&out.User), nil
}

func (u *CourierUsecase) List(ctx context.Context) ([]UserDTO, error) {
	list, err := u.users.ListByRole(ctx, model.RoleCourier)
	if err != nil {
		return nil, toHTTPError(err)
	}
	out := make([]UserDTO, 0, len(list))
	for i := range list {
		out = append(out, toUserDTO(&list[i]))
	}
	return out, nil
}

// 停止するとトークンも無効にする
func (u *CourierUsecase) SetActive(ctx context.Context, adminUserID int64, courierID int64, active bool) (UserDTO, error) {
	if adminUserID <= 0 {
		return UserDTO{}, unauthorized()
	}
	if courierID <= 0 {
		return UserDTO{}, badRequest("invalid id")
	}

	user, err := u.users.FindByID(ctx, courierID)
	if err != nil {
		return UserDTO{}, toHTTPError(err)
	}
	if user.Role != model.RoleCourier {
		return UserDTO{}, notFound()
	}

	before := user.IsActive
	if before != active {
		user.IsActive = active
		if err := u.users.Update(ctx, user); err != nil {
			return UserDTO{}, toHTTPError(err)
		}
	}
	if !active {
		if err := u.users.IncrementTokenVersion(ctx, courierID); err != nil {
			return UserDTO{}, toHTTPError(err)
		}
		user.TokenVersion++
	}

	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionSetUserActive,
		ResourceType: model.AuditResourceUser,
		ResourceID:   courierID,
		BeforeJSON:   activeJSON(before),
		AfterJSON:    activeJSON(active),
		CreatedAt:    time.Now(),
	}); err != nil {
		return UserDTO{}, toHTTPError(err)
	}
	return toUserDTO(user), nil
}

func activeJSON(v bool) string {
	if v {
		return `{"is_active":true}`
	}
	return `{"is_active":false}`
}

// 会員登録系のエラーをステータスに
func registerError(err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidEmailFormat),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidRole):
		return badRequest(err.Error())
	case errors.Is(err, auth.ErrEmailAlreadyExists), errors.Is(err, repo.ErrConflict):
		return NewHTTPError(http.StatusConflict, "email already exists")
	}
	return toHTTPError(err)
}
