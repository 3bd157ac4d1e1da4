package domain_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChaoticGoodAdmi/beans-order/internal/domain"
)

func latte(qty int) domain.OrderItem {
	return domain.OrderItem{ProductID: "latte", Quantity: qty, Price: decimal.RequireFromString("3.40")}
}

func TestNewOrder(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("creates order in CREATED status with computed total", func(t *testing.T) {
		items := []domain.OrderItem{
			latte(2),
			{ProductID: "croissant", Quantity: 1, Price: decimal.RequireFromString("2.15")},
		}

		o, err := domain.NewOrder("user-1", "shop-1", items, 3, now)
		require.NoError(t, err)

		assert.Equal(t, domain.OrderStatusCreated, o.Status)
		assert.Equal(t, now, o.CreatedAt)
		assert.Nil(t, o.FinishedAt)
		assert.Equal(t, 3, o.BonusPointsUsed)
		assert.True(t, decimal.RequireFromString("5.95").Equal(o.TotalCost), "got %s", o.TotalCost)
	})

	t.Run("does not share the caller's item slice", func(t *testing.T) {
		items := []domain.OrderItem{latte(1)}

		o, err := domain.NewOrder("user-1", "shop-1", items, 0, now)
		require.NoError(t, err)

		items[0].ProductID = "espresso"
		assert.Equal(t, "latte", o.Items[0].ProductID)
	})

	t.Run("accepts zero quantity", func(t *testing.T) {
		_, err := domain.NewOrder("user-1", "shop-1", []domain.OrderItem{latte(0)}, 0, now)
		require.NoError(t, err)
	})

	invalid := []struct {
		name  string
		user  string
		shop  string
		items []domain.OrderItem
		bonus int
		field string
	}{
		{"blank user", "  ", "shop-1", []domain.OrderItem{latte(1)}, 0, "userId"},
		{"blank shop", "user-1", "", []domain.OrderItem{latte(1)}, 0, "coffeeShopId"},
		{"empty items", "user-1", "shop-1", nil, 0, "items"},
		{"blank product", "user-1", "shop-1", []domain.OrderItem{{ProductID: " ", Quantity: 1}}, 0, "items[0].productId"},
		{"negative quantity", "user-1", "shop-1", []domain.OrderItem{latte(1), latte(-1)}, 0, "items[1].quantity"},
		{"negative bonus", "user-1", "shop-1", []domain.OrderItem{latte(1)}, -5, "bonusPointsForPayment"},
		{"quantity beyond int32", "user-1", "shop-1", []domain.OrderItem{latte(math.MaxInt32 + 1)}, 0, "items[0].quantity"},
		{"bonus beyond int32", "user-1", "shop-1", []domain.OrderItem{latte(1)}, math.MaxInt32 + 1, "bonusPointsForPayment"},
	}

	for _, tc := range invalid {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			o, err := domain.NewOrder(tc.user, tc.shop, tc.items, tc.bonus, now)
			require.Error(t, err)
			assert.Nil(t, o)
			assert.ErrorIs(t, err, domain.ErrValidation)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestOrder_SetStatus(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("non-terminal statuses never stamp completion", func(t *testing.T) {
		for _, s := range []domain.OrderStatus{domain.OrderStatusInProgress, domain.OrderStatusReady, domain.OrderStatusCreated} {
			o := &domain.Order{Status: domain.OrderStatusCreated, CreatedAt: created}
			finished := o.SetStatus(s, created.Add(time.Minute))
			assert.False(t, finished)
			assert.Nil(t, o.FinishedAt)
			assert.Equal(t, s, o.Status)
		}
	})

	t.Run("DELIVERED stamps completion time", func(t *testing.T) {
		o := &domain.Order{Status: domain.OrderStatusReady, CreatedAt: created}
		finished := o.SetStatus(domain.OrderStatusDelivered, created.Add(7*time.Minute))

		require.True(t, finished)
		require.NotNil(t, o.FinishedAt)
		assert.Equal(t, 7*time.Minute, o.FulfillmentTime())
	})

	t.Run("completion is never before creation", func(t *testing.T) {
		o := &domain.Order{Status: domain.OrderStatusReady, CreatedAt: created}
		o.SetStatus(domain.OrderStatusDelivered, created.Add(-time.Second))

		require.NotNil(t, o.FinishedAt)
		assert.False(t, o.FinishedAt.Before(o.CreatedAt))
	})

	t.Run("overwrites without a transition check", func(t *testing.T) {
		o := &domain.Order{Status: domain.OrderStatusDelivered, CreatedAt: created}
		o.SetStatus(domain.OrderStatusCreated, created)
		assert.Equal(t, domain.OrderStatusCreated, o.Status)
	})
}

func TestParseOrderStatus(t *testing.T) {
	s, err := domain.ParseOrderStatus("IN_PROGRESS")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusInProgress, s)

	_, err = domain.ParseOrderStatus("in_progress")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = domain.ParseOrderStatus("")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
