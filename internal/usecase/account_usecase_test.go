package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"grocery/internal/domain/model"
	"grocery/internal/usecase"
	auth "grocery/internal/usecase/auth_usecase"
	"grocery/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func addressReq(name string) usecase.AddressRequest {
	return usecase.AddressRequest{Name: name, Line1: "1 MG Road", City: "Bengaluru", PostalCode: "560001"}
}

func TestAddresses(t *testing.T) {
	s := newMemStore()
	uc := usecase.NewAddressUsecase(memAddresses{s}, validator.NewAddressValidator())
	ctx := context.Background()

	home, err := uc.Create(ctx, customerID, addressReq("Home"))
	require.NoError(t, err)
	assert.True(t, home.IsDefault)

	work, err := uc.Create(ctx, customerID, addressReq("Work"))
	require.NoError(t, err)
	assert.False(t, work.IsDefault)

	require.NoError(t, uc.SetDefault(ctx, customerID, work.ID))
	list, err := uc.List(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].IsDefault)
	assert.True(t, list[1].IsDefault)

	req := addressReq("Office")
	require.NoError(t, uc.Update(ctx, customerID, work.ID, req))

	// 片方だけの座標は不可
	lat := 12.9
	bad := addressReq("Half")
	bad.Lat = &lat
	_, err = uc.Create(ctx, customerID, bad)
	requireStatus(t, err, http.StatusBadRequest)

	err = uc.Update(ctx, customerID+1, work.ID, req)
	requireStatus(t, err, http.StatusForbidden)
	err = uc.Delete(ctx, customerID, 424242)
	requireStatus(t, err, http.StatusNotFound)
	err = uc.SetDefault(ctx, customerID, 0)
	requireStatus(t, err, http.StatusBadRequest)

	require.NoError(t, uc.Delete(ctx, customerID, home.ID))
	list, err = uc.List(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Office", list[0].Name)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type accountFixture struct {
	store    *memStore
	auth     *usecase.AuthUsecase
	couriers *usecase.CourierUsecase
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	s := newMemStore()
	clock := fixedClock{now: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	register := auth.NewRegisterUserUsecase(memUsers{s}, auth.NewBcryptPasswordHasher(bcrypt.MinCost), clock)
	login := auth.NewLoginUsecase(memUsers{s}, auth.NewBcryptPasswordVerifier(), auth.NewJWTIssuer("secret", 15*time.Minute), clock)
	return &accountFixture{
		store:    s,
		auth:     usecase.NewAuthUsecase(memUsers{s}, memAudits{s}, register, login, validator.NewAuthValidator()),
		couriers: usecase.NewCourierUsecase(memUsers{s}, memAudits{s}, register),
	}
}

func TestAuth_RegisterLoginMe(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, usecase.AuthRegisterRequest{Email: "Asha@Example.com", Password: "s3cret-pass", Name: "Asha"})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", reg.User.Email)
	assert.Equal(t, string(model.RoleUser), reg.User.Role)

	_, err = f.auth.Register(ctx, usecase.AuthRegisterRequest{Email: "asha@example.com", Password: "another-pass"})
	requireStatus(t, err, http.StatusConflict)
	_, err = f.auth.Register(ctx, usecase.AuthRegisterRequest{Email: "x@example.com", Password: "password123"})
	requireStatus(t, err, http.StatusBadRequest)
	_, err = f.auth.Register(ctx, usecase.AuthRegisterRequest{Email: "x@example.com", Password: "short"})
	requireStatus(t, err, http.StatusBadRequest)

	out, err := f.auth.Login(ctx, usecase.AuthLoginRequest{Email: "asha@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Token.AccessToken)
	assert.Equal(t, 900, out.Token.ExpiresIn)

	_, err = f.auth.Login(ctx, usecase.AuthLoginRequest{Email: "asha@example.com", Password: "wrong-pass"})
	requireStatus(t, err, http.StatusUnauthorized)

	me, err := f.auth.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, me.ID)

	_, err = f.auth.Me(ctx, 424242)
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestAuth_ForceLogout(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	reg, err := f.auth.Register(ctx, usecase.AuthRegisterRequest{Email: "asha@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	res, err := f.auth.ForceLogout(ctx, adminID, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.NewTokenVersion)

	logs := f.store.auditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionForceLogout, logs[0].Action)
	assert.Equal(t, `{"token_version":0}`, logs[0].BeforeJSON)
	assert.Equal(t, `{"token_version":1}`, logs[0].AfterJSON)

	_, err = f.auth.ForceLogout(ctx, adminID, 0)
	requireStatus(t, err, http.StatusBadRequest)
	_, err = f.auth.ForceLogout(ctx, adminID, 424242)
	requireStatus(t, err, http.StatusNotFound)
}

func TestCouriers(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	c, err := f.couriers.Create(ctx, adminID, usecase.CreateCourierRequest{Email: "ravi@example.com", Password: "bike-rider-1", Name: "Ravi"})
	require.NoError(t, err)
	assert.Equal(t, string(model.RoleCourier), c.Role)
	assert.True(t, c.IsActive)

	_, err = f.couriers.Create(ctx, adminID, usecase.CreateCourierRequest{Email: "ravi@example.com", Password: "bike-rider-2"})
	requireStatus(t, err, http.StatusConflict)

	// 一般会員は配達員一覧に出ない
	customer, err := f.auth.Register(ctx, usecase.AuthRegisterRequest{Email: "asha@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	list, err := f.couriers.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	off, err := f.couriers.SetActive(ctx, adminID, c.ID, false)
	require.NoError(t, err)
	assert.False(t, off.IsActive)
	assert.Equal(t, 1, off.TokenVersion)

	// 停止中はログインできない
	_, err = f.auth.Login(ctx, usecase.AuthLoginRequest{Email: "ravi@example.com", Password: "bike-rider-1"})
	requireStatus(t, err, http.StatusForbidden)

	on, err := f.couriers.SetActive(ctx, adminID, c.ID, true)
	require.NoError(t, err)
	assert.True(t, on.IsActive)
	assert.Equal(t, 1, on.TokenVersion)

	var actions []model.AuditAction
	for _, l := range f.store.auditLogs() {
		actions = append(actions, l.Action)
	}
	assert.Equal(t, []model.AuditAction{
		model.AuditActionCreateCourier,
		model.AuditActionSetUserActive,
		model.AuditActionSetUserActive,
	}, actions)

	_, err = f.couriers.SetActive(ctx, adminID, customer.User.ID, false)
	requireStatus(t, err, http.StatusNotFound)
}

func TestNotifications(t *testing.T) {
	s := newMemStore()
	uc := usecase.NewNotificationUsecase(memNotifications{s})
	ctx := context.Background()

	n, err := memNotifications{s}.Create(ctx, model.Notification{UserID: customerID, Kind: model.NotificationOrderAccepted, Message: "accepted"})
	require.NoError(t, err)
	_, err = memNotifications{s}.Create(ctx, model.Notification{UserID: customerID + 1, Kind: model.NotificationOrderAccepted, Message: "other"})
	require.NoError(t, err)

	list, err := uc.List(ctx, customerID, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].ReadAt)

	require.NoError(t, uc.MarkRead(ctx, customerID, n.ID))
	list, err = uc.List(ctx, customerID, 20)
	require.NoError(t, err)
	assert.NotNil(t, list[0].ReadAt)

	err = uc.MarkRead(ctx, customerID+1, n.ID)
	requireStatus(t, err, http.StatusNotFound)
	err = uc.MarkRead(ctx, customerID, 0)
	requireStatus(t, err, http.StatusBadRequest)
}
