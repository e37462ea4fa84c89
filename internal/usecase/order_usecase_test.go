package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"grocery/internal/domain/domainerr"
	"grocery/internal/domain/lifecycle"
	"grocery/internal/domain/model"
	"grocery/internal/domain/pricing"
	"grocery/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const customerID = int64(1000)

var (
	storeOrigin = pricing.Coordinate{Lat: 12.9716, Lng: 77.5946}
	nearLat     = 12.975
	nearLng     = 77.600
	farLat      = 13.200
	farLng      = 77.700
)

type fixture struct {
	store     *memStore
	publisher *recordingPublisher
	logs      *observer.ObservedLogs
	cache     *mapCache

	orders   *usecase.OrderUsecase
	admin    *usecase.AdminOrderUsecase
	delivery *usecase.DeliveryUsecase
	carts    *usecase.CartUsecase

	apple  model.Product
	banana model.Product
	near   model.Address
	far    model.Address
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func newCalculator(t *testing.T) *pricing.Calculator {
	t.Helper()
	calc, err := pricing.NewCalculator(pricing.Config{
		Origin:               storeOrigin,
		FreeDeliveryRadiusKm: 5,
		FlatFee:              dec("40"),
	})
	require.NoError(t, err)
	return calc
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newMemStore()
	pub := &recordingPublisher{}
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)
	calc := newCalculator(t)
	cache := newMapCache()

	f := &fixture{
		store:     s,
		publisher: pub,
		logs:      logs,
		cache:     cache,
		orders:    usecase.NewOrderUsecase(memTx{s}, memOrders{s}, memOrderItems{s}, memCarts{s}, memAddresses{s}, calc, cache, log),
		admin:     usecase.NewAdminOrderUsecase(memTx{s}, memOrders{s}, memOrderItems{s}, memAudits{s}, memNotifications{s}, pub, cache, log),
		delivery:  usecase.NewDeliveryUsecase(memTx{s}, memOrders{s}, memOrderItems{s}, memNotifications{s}, pub, cache, log),
		carts:     usecase.NewCartUsecase(memCarts{s}, memProducts{s}, calc),
	}

	f.apple = s.addProduct(model.Product{Name: "Apple", Price: dec("50"), ListPrice: decp("60"), Unit: "kg", Stock: 10, IsActive: true})
	f.banana = s.addProduct(model.Product{Name: "Banana", Price: dec("30"), Unit: "dozen", Stock: 5, IsActive: true})
	f.near = s.addAddress(model.Address{UserID: customerID, Name: "Asha", Line1: "1 MG Road", City: "Bengaluru", PostalCode: "560001", Lat: &nearLat, Lng: &nearLng})
	f.far = s.addAddress(model.Address{UserID: customerID, Name: "Asha", Line1: "Airport Rd", City: "Bengaluru", PostalCode: "562300", Lat: &farLat, Lng: &farLng})
	return f
}

func (f *fixture) fillCart(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.carts.AddToCart(ctx, customerID, usecase.AddCartInput{ProductID: f.apple.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.carts.AddToCart(ctx, customerID, usecase.AddCartInput{ProductID: f.banana.ID, Quantity: 1})
	require.NoError(t, err)
}

func (f *fixture) place(t *testing.T, key string) usecase.OrderOutput {
	t.Helper()
	f.fillCart(t)
	out, err := f.orders.PlaceOrder(context.Background(), customerID, usecase.PlaceOrderInput{AddressID: f.near.ID, IdempotencyKey: key})
	require.NoError(t, err)
	return out
}

func requireStatus(t *testing.T, err error, status int) *usecase.HTTPError {
	t.Helper()
	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "want HTTPError, got %v", err)
	assert.Equal(t, status, he.Status, he.Message)
	return he
}

func TestQuote_DeliveryFeeByDistance(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	q, err := f.orders.Quote(ctx, customerID, usecase.QuoteInput{AddressID: f.near.ID})
	require.NoError(t, err)
	assert.True(t, q.Subtotal.Equal(dec("130")), q.Subtotal.String())
	assert.True(t, q.DeliveryFee.IsZero())
	assert.True(t, q.Total.Equal(dec("130")))
	assert.True(t, q.Savings.Equal(dec("20")))
	require.NotNil(t, q.DistanceKm)
	assert.Less(t, *q.DistanceKm, 5.0)

	q, err = f.orders.Quote(ctx, customerID, usecase.QuoteInput{AddressID: f.far.ID})
	require.NoError(t, err)
	assert.True(t, q.DeliveryFee.Equal(dec("40")))
	assert.True(t, q.Total.Equal(dec("170")))
}

func TestQuote_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orders.Quote(ctx, customerID, usecase.QuoteInput{AddressID: f.near.ID})
	requireStatus(t, err, http.StatusBadRequest)

	other := f.store.addAddress(model.Address{UserID: 77, Name: "x", Line1: "x", City: "x", PostalCode: "1"})
	_, err = f.orders.Quote(ctx, customerID, usecase.QuoteInput{AddressID: other.ID})
	requireStatus(t, err, http.StatusNotFound)

	_, err = f.orders.Quote(ctx, 0, usecase.QuoteInput{AddressID: f.near.ID})
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture(t)
	out := f.place(t, "key-1")

	assert.Equal(t, string(lifecycle.StatusPending), out.Status)
	assert.Equal(t, "", out.DeliveryStatus)
	assert.Equal(t, string(model.PaymentCOD), out.PaymentMethod)
	assert.True(t, out.Subtotal.Equal(dec("130")))
	assert.True(t, out.DeliveryFee.IsZero())
	assert.True(t, out.Total.Equal(dec("130")))
	assert.Equal(t, "1 MG Road", out.ShippingAddress.Address)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "Apple", out.Items[0].Name)
	assert.True(t, out.Items[0].LineTotal.Equal(dec("100")))

	assert.Equal(t, int64(8), f.store.stock(f.apple.ID))
	assert.Equal(t, int64(4), f.store.stock(f.banana.ID))
	assert.Equal(t, 0, f.store.cartSize(customerID))
	// 在庫が減った商品の詳細キャッシュは消える
	assert.ElementsMatch(t, []int64{f.apple.ID, f.banana.ID}, f.cache.invalidated)

	saved := f.store.order(out.ID)
	assert.Equal(t, "key-1", saved.IdempotencyKey)
	require.NotNil(t, saved.DestLat)
}

func TestPlaceOrder_SameKeyReturnsSameOrder(t *testing.T) {
	f := newFixture(t)
	first := f.place(t, "key-1")

	// カートが空でも同じキーなら前回の注文が返る
	again, err := f.orders.PlaceOrder(context.Background(), customerID, usecase.PlaceOrderInput{AddressID: f.near.ID, IdempotencyKey: "key-1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, again.Items, 2)
	assert.Equal(t, int64(8), f.store.stock(f.apple.ID))
}

func TestPlaceOrder_IdempotencyRace(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	f.store.raceOrder = &model.Order{ID: 9999, UserID: customerID, IdempotencyKey: "key-1", Status: lifecycle.StatusPending, Total: dec("130")}

	out, err := f.orders.PlaceOrder(context.Background(), customerID, usecase.PlaceOrderInput{AddressID: f.near.ID, IdempotencyKey: "key-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(9999), out.ID)

	// 負けた側の引当は戻っている
	assert.Equal(t, int64(10), f.store.stock(f.apple.ID))
	assert.Equal(t, 2, f.store.cartSize(customerID))
}

func TestPlaceOrder_OutOfStockRollsBack(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	require.NoError(t, memInventory{f.store}.SetStock(context.Background(), f.banana.ID, 0))

	_, err := f.orders.PlaceOrder(context.Background(), customerID, usecase.PlaceOrderInput{AddressID: f.near.ID, IdempotencyKey: "key-1"})
	he := requireStatus(t, err, http.StatusBadRequest)
	assert.Contains(t, he.Message, "out of stock")

	assert.Equal(t, int64(10), f.store.stock(f.apple.ID))
	assert.Equal(t, 2, f.store.cartSize(customerID))
	assert.Empty(t, f.store.orders)
}

func TestPlaceOrder_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.store.addAddress(model.Address{UserID: 77, Name: "x", Line1: "x", City: "x", PostalCode: "1"})

	cases := []struct {
		name   string
		in     usecase.PlaceOrderInput
		status int
	}{
		{"empty cart", usecase.PlaceOrderInput{AddressID: f.near.ID, IdempotencyKey: "k"}, http.StatusBadRequest},
		{"missing key", usecase.PlaceOrderInput{AddressID: f.near.ID}, http.StatusBadRequest},
		{"bad payment", usecase.PlaceOrderInput{AddressID: f.near.ID, IdempotencyKey: "k", PaymentMethod: "barter"}, http.StatusBadRequest},
		{"no address", usecase.PlaceOrderInput{IdempotencyKey: "k"}, http.StatusBadRequest},
		{"unknown address", usecase.PlaceOrderInput{AddressID: 424242, IdempotencyKey: "k"}, http.StatusNotFound},
		{"someone else's address", usecase.PlaceOrderInput{AddressID: other.ID, IdempotencyKey: "k"}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.orders.PlaceOrder(ctx, customerID, tc.in)
			requireStatus(t, err, tc.status)
		})
	}
}

func TestPlaceOrder_InactiveProduct(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	p := f.banana
	p.IsActive = false
	require.NoError(t, memProducts{f.store}.Update(context.Background(), p))

	_, err := f.orders.PlaceOrder(context.Background(), customerID, usecase.PlaceOrderInput{AddressID: f.near.ID, IdempotencyKey: "k"})
	he := requireStatus(t, err, http.StatusBadRequest)
	assert.Contains(t, he.Message, "no longer available")
}

func TestMyOrders(t *testing.T) {
	f := newFixture(t)
	placed := f.place(t, "key-1")
	ctx := context.Background()

	list, err := f.orders.ListMyOrders(ctx, customerID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Items, 1)
	assert.Len(t, list.Items[0].Items, 2)

	got, err := f.orders.GetMyOrderDetail(ctx, customerID, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.ID, got.ID)

	_, err = f.orders.GetMyOrderDetail(ctx, customerID+1, placed.ID)
	requireStatus(t, err, http.StatusNotFound)

	_, err = f.orders.ListMyOrders(ctx, customerID, 0, 20)
	requireStatus(t, err, http.StatusBadRequest)
}

func TestPlaceOrder_TransientFailure(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	f.store.setFail(errors.Join(domainerr.ErrTransient, errors.New("connection reset")))

	_, err := f.orders.PlaceOrder(context.Background(), customerID, usecase.PlaceOrderInput{AddressID: f.near.ID, IdempotencyKey: "k"})
	requireStatus(t, err, http.StatusServiceUnavailable)
}
