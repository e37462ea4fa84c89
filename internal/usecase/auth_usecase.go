package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"grocery/internal/domain/model"
	"grocery/internal/repository"
	auth "grocery/internal/usecase/auth_usecase"
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, email string, password string) error
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateForceLogout(ctx context.Context, targetUserID int64) error
}

type UserDTO struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
	IsActive     bool   `json:"is_active"`
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type AuthRegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type AuthRegisterResponse struct {
	User UserDTO `json:"user"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginResponse struct {
	User  UserDTO           `json:"user"`
	Token JwtAccessTokenDTO `json:"token"`
}

type ForceLogoutResponse struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

type AuthUsecase struct {
	users     repository.UserRepository
	auditRepo repository.AuditLogRepository
	register  *auth.RegisterUserUsecase
	login     *auth.LoginUsecase
	validator AuthValidator
}

func NewAuthUsecase(
	users repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	register *auth.RegisterUserUsecase,
	login *auth.LoginUsecase,
	validator AuthValidator,
) *AuthUsecase {
	return &AuthUsecase{
		users:     users,
		auditRepo: auditRepo,
		register:  register,
		login:     login,
		validator: validator,
	}
}

// 一般会員の登録（ロールは常に USER）
func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (*AuthRegisterResponse, error) {
	if err := u.validator.ValidateRegister(ctx, req.Email, req.Password); err != nil {
		return nil, toHTTPError(err)
	}

	out, err := u.register.Execute(ctx, auth.RegisterUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     model.RoleUser,
	})
	if err != nil {
		return nil, registerError(err)
	}

	return &AuthRegisterResponse{User: toUserDTO(&out.User)}, nil
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest) (*AuthLoginResponse, error) {
	if err := u.validator.ValidateLogin(ctx, req.Email, req.Password); err != nil {
		return nil, toHTTPError(err)
	}

	out, err := u.login.Execute(ctx, auth.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return nil, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, auth.ErrUserInactive):
			return nil, NewHTTPError(http.StatusForbidden, "user is inactive")
		}
		return nil, toHTTPError(err)
	}

	return &AuthLoginResponse{
		User: toUserDTO(&out.User),
		Token: JwtAccessTokenDTO{
			AccessToken:  out.Token.AccessToken,
			ExpiresIn:    out.Token.ExpiresIn,
			TokenVersion: out.Token.TokenVersion,
		},
	}, nil
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Phone:        u.Phone,
		Role:         string(u.Role),
		TokenVersion: u.TokenVersion,
		IsActive:     u.IsActive,
	}
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	if userID <= 0 {
		return nil, unauthorized()
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, unauthorized()
	}
	if err != nil {
		return nil, toHTTPError(err)
	}

	if !user.IsActive {
		return nil, NewHTTPError(http.StatusForbidden, "user is inactive")
	}

	dto := toUserDTO(user)
	return &dto, nil
}

// token_version を上げて発行済みの JWT を全部無効にする
func (u *AuthUsecase) ForceLogout(ctx context.Context, adminUserID int64, targetUserID int64) (*ForceLogoutResponse, error) {
	if adminUserID <= 0 {
		return nil, unauthorized()
	}
	if err := u.validator.ValidateForceLogout(ctx, targetUserID); err != nil {
		return nil, toHTTPError(err)
	}

	before, err := u.users.FindByID(ctx, targetUserID)
	if err != nil {
		return nil, toHTTPError(err)
	}

	if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		return nil, toHTTPError(err)
	}

	//更新後を取得してnew_token_versionを返す
	user, err := u.users.FindByID(ctx, targetUserID)
	if err != nil {
		return nil, toHTTPError(err)
	}

	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionForceLogout,
		ResourceType: model.AuditResourceUser,
		ResourceID:   targetUserID,
		BeforeJSON:   fmt.Sprintf(`{"token_version":%d}`, before.TokenVersion),
		AfterJSON:    fmt.Sprintf(`{"token_version":%d}`, user.TokenVersion),
		CreatedAt:    time.Now(),
	}); err != nil {
		return nil, toHTTPError(err)
	}

	return &ForceLogoutResponse{
		UserID:          user.ID,
		NewTokenVersion: user.TokenVersion,
	}, nil
}
