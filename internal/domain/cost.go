package domain

import "github.com/shopspring/decimal"

// ComputeTotal sums price × quantity over the items and subtracts the
// redeemed bonus points one-for-one. The result may be negative.
func ComputeTotal(items []OrderItem, bonusPoints int) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Sub(decimal.NewFromInt(int64(bonusPoints)))
}
