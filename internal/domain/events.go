package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicOrderCreated = "OrderCreated"
	TopicOrderUpdated = "OrderUpdated"
)

// OrderCreatedEvent is a full snapshot of the order as persisted.
type OrderCreatedEvent struct {
	OrderID         int64           `json:"orderId"`
	UserID          string          `json:"userId"`
	CoffeeShopID    string          `json:"coffeeShopId"`
	Items           []OrderItem     `json:"items"`
	TotalCost       decimal.Decimal `json:"totalCost"`
	BonusPointsUsed int             `json:"bonusPointsUsed"`
	CreatedAt       time.Time       `json:"createdAt"`
	Status          OrderStatus     `json:"status"`
}

type OrderUpdatedEvent struct {
	OrderID   int64       `json:"orderId"`
	UserID    string      `json:"userId"`
	NewStatus OrderStatus `json:"newStatus"`
}

func NewOrderCreatedEvent(o Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:         o.ID,
		UserID:          o.UserID,
		CoffeeShopID:    o.CoffeeShopID,
		Items:           o.Items,
		TotalCost:       o.TotalCost,
		BonusPointsUsed: o.BonusPointsUsed,
		CreatedAt:       o.CreatedAt,
		Status:          o.Status,
	}
}

func NewOrderUpdatedEvent(o Order) OrderUpdatedEvent {
	return OrderUpdatedEvent{
		OrderID:   o.ID,
		UserID:    o.UserID,
		NewStatus: o.Status,
	}
}
