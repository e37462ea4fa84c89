package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"grocery/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddMergesAndSnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.carts.AddToCart(ctx, customerID, usecase.AddCartInput{ProductID: f.apple.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)

	res, err = f.carts.AddToCart(ctx, customerID, usecase.AddCartInput{ProductID: f.apple.ID, Quantity: 3})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(5), res.Items[0].Quantity)
	assert.Equal(t, "Apple", res.Items[0].Name)
	assert.True(t, res.Items[0].LineTotal.Equal(dec("250")))
	assert.True(t, res.Subtotal.Equal(dec("250")))
	assert.True(t, res.Savings.Equal(dec("50")))
	assert.Equal(t, int64(5), res.Count)
}

func TestCart_StockAndQuantityLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.carts.AddToCart(ctx, customerID, usecase.AddCartInput{ProductID: f.banana.ID, Quantity: 6})
	he := requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "stock exceeded", he.Message)

	_, err = f.carts.AddToCart(ctx, customerID, usecase.AddCartInput{ProductID: f.banana.ID, Quantity: 4})
	require.NoError(t, err)
	// 合算すると在庫を超える
	_, err = f.carts.AddToCart(ctx, customerID, usecase.AddCartInput{ProductID: f.banana.ID, Quantity: 2})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = f.carts.AddToCart(ctx, customerID, usecase.AddCartInput{ProductID: f.banana.ID, Quantity: 0})
	requireStatus(t, err, http.StatusBadRequest)
	_, err = f.carts.AddToCart(ctx, customerID, usecase.AddCartInput{ProductID: 424242, Quantity: 1})
	requireStatus(t, err, http.StatusNotFound)
}

func TestCart_UpdateRemoveClear(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	res, err := f.carts.UpdateCartItem(ctx, customerID, f.apple.ID, usecase.UpdateCartItemInput{Quantity: 1})
	require.NoError(t, err)
	assert.True(t, res.Subtotal.Equal(dec("80")))

	_, err = f.carts.UpdateCartItem(ctx, customerID, f.apple.ID, usecase.UpdateCartItemInput{Quantity: 11})
	requireStatus(t, err, http.StatusBadRequest)

	res, err = f.carts.RemoveCartItem(ctx, customerID, f.banana.ID)
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)

	// カートに無い商品
	_, err = f.carts.UpdateCartItem(ctx, customerID, f.banana.ID, usecase.UpdateCartItemInput{Quantity: 1})
	requireStatus(t, err, http.StatusNotFound)
	_, err = f.carts.RemoveCartItem(ctx, customerID, f.banana.ID)
	requireStatus(t, err, http.StatusNotFound)

	require.NoError(t, f.carts.ClearCart(ctx, customerID))
	res, err = f.carts.GetCart(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.True(t, res.Subtotal.IsZero())

	_, err = f.carts.GetCart(ctx, 0)
	requireStatus(t, err, http.StatusUnauthorized)
}
