package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const coffeeShopKey = attribute.Key("coffee_shop_id")

// OrderMetrics records per-shop order values and fulfillment durations.
type OrderMetrics struct {
	averageCheck  metric.Float64Histogram
	executionTime metric.Float64Histogram
}

func NewOrderMetrics(meter metric.Meter) (*OrderMetrics, error) {
	averageCheck, err := meter.Float64Histogram(
		"order.average.check",
		metric.WithDescription("Total cost of created orders"),
	)
	if err != nil {
		return nil, err
	}

	executionTime, err := meter.Float64Histogram(
		"order.execution.time",
		metric.WithDescription("Time from order creation to delivery"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &OrderMetrics{
		averageCheck:  averageCheck,
		executionTime: executionTime,
	}, nil
}

func (m *OrderMetrics) RecordOrderTotal(ctx context.Context, coffeeShopID string, total decimal.Decimal) {
	m.averageCheck.Record(ctx, total.InexactFloat64(),
		metric.WithAttributes(coffeeShopKey.String(coffeeShopID)))
}

func (m *OrderMetrics) RecordFulfillmentDuration(ctx context.Context, coffeeShopID string, d time.Duration) {
	m.executionTime.Record(ctx, d.Seconds(),
		metric.WithAttributes(coffeeShopKey.String(coffeeShopID)))
}
