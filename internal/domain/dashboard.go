package domain

import (
	"cmp"
	"slices"
)

// CompareForUser orders a customer's orders by urgency: READY, IN_PROGRESS,
// CREATED, DELIVERED, and newest first within the same status.
func CompareForUser(a, b Order) int {
	if c := cmp.Compare(a.Status.priority(), b.Status.priority()); c != 0 {
		return c
	}
	return b.CreatedAt.Compare(a.CreatedAt)
}

func SortForUser(orders []Order) {
	slices.SortStableFunc(orders, CompareForUser)
}

// Dashboard is a shop's active orders split by the next step staff must take.
type Dashboard struct {
	NeedToDeliver []Order `json:"needToDeliver"`
	NeedToFinish  []Order `json:"needToFinish"`
	NeedToPrepare []Order `json:"needToPrepare"`
}

// GroupForDashboard buckets orders by status, oldest first in each bucket.
// Delivered orders are dropped. Buckets are never nil.
func GroupForDashboard(orders []Order) Dashboard {
	d := Dashboard{
		NeedToDeliver: []Order{},
		NeedToFinish:  []Order{},
		NeedToPrepare: []Order{},
	}

	for _, o := range orders {
		switch o.Status {
		case OrderStatusReady:
			d.NeedToDeliver = append(d.NeedToDeliver, o)
		case OrderStatusInProgress:
			d.NeedToFinish = append(d.NeedToFinish, o)
		case OrderStatusCreated:
			d.NeedToPrepare = append(d.NeedToPrepare, o)
		}
	}

	oldestFirst := func(a, b Order) int { return a.CreatedAt.Compare(b.CreatedAt) }
	slices.SortStableFunc(d.NeedToDeliver, oldestFirst)
	slices.SortStableFunc(d.NeedToFinish, oldestFirst)
	slices.SortStableFunc(d.NeedToPrepare, oldestFirst)

	return d
}
