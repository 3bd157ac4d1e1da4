package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "CREATED"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusReady      OrderStatus = "READY"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
)

// ParseOrderStatus accepts only the four known statuses, case-sensitively.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.Valid() {
		return "", NewValidationError("status", fmt.Sprintf("unknown status %q", s))
	}
	return status, nil
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusInProgress, OrderStatusReady, OrderStatusDelivered:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered
}

// priority ranks statuses by how soon the customer needs to act on them.
func (s OrderStatus) priority() int {
	switch s {
	case OrderStatusReady:
		return 0
	case OrderStatusInProgress:
		return 1
	case OrderStatusCreated:
		return 2
	case OrderStatusDelivered:
		return 3
	}
	return 4
}

type OrderItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Order owns its items. Items are fixed at creation; only Status and
// FinishedAt change afterwards.
type Order struct {
	ID              int64           `json:"orderId"`
	UserID          string          `json:"userId"`
	CoffeeShopID    string          `json:"coffeeShopId"`
	Items           []OrderItem     `json:"items"`
	TotalCost       decimal.Decimal `json:"totalCost"`
	BonusPointsUsed int             `json:"bonusPointsUsed"`
	CreatedAt       time.Time       `json:"createdAt"`
	FinishedAt      *time.Time      `json:"finishedAt,omitempty"`
	Status          OrderStatus     `json:"status"`
}

// NewOrder validates the identifying attributes and line items and returns
// an order in CREATED status with its total already computed.
func NewOrder(userID, coffeeShopID string, items []OrderItem, bonusPoints int, now time.Time) (*Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewValidationError("userId", "must not be blank")
	}
	if strings.TrimSpace(coffeeShopID) == "" {
		return nil, NewValidationError("coffeeShopId", "must not be blank")
	}
	if len(items) == 0 {
		return nil, NewValidationError("items", "must not be empty")
	}
	for i, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, NewValidationError(fmt.Sprintf("items[%d].productId", i), "must not be blank")
		}
		if item.Quantity < 0 {
			return nil, NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must not be negative")
		}
		if int64(item.Quantity) > math.MaxInt32 {
			return nil, NewValidationError(fmt.Sprintf("items[%d].quantity", i), "is too large")
		}
	}
	if bonusPoints < 0 {
		return nil, NewValidationError("bonusPointsForPayment", "must not be negative")
	}
	if int64(bonusPoints) > math.MaxInt32 {
		return nil, NewValidationError("bonusPointsForPayment", "is too large")
	}

	owned := make([]OrderItem, len(items))
	copy(owned, items)

	return &Order{
		UserID:          userID,
		CoffeeShopID:    coffeeShopID,
		Items:           owned,
		TotalCost:       ComputeTotal(owned, bonusPoints),
		BonusPointsUsed: bonusPoints,
		CreatedAt:       now,
		Status:          OrderStatusCreated,
	}, nil
}

// SetStatus overwrites the status without checking that it is a legal
// successor of the current one. Reaching DELIVERED stamps FinishedAt and
// reports true; FinishedAt is never set for any other status.
func (o *Order) SetStatus(status OrderStatus, now time.Time) bool {
	o.Status = status
	if !status.IsTerminal() {
		return false
	}
	if now.Before(o.CreatedAt) {
		now = o.CreatedAt
	}
	o.FinishedAt = &now
	return true
}

// FulfillmentTime is zero until the order has been delivered.
func (o *Order) FulfillmentTime() time.Duration {
	if o.FinishedAt == nil {
		return 0
	}
	return o.FinishedAt.Sub(o.CreatedAt)
}
