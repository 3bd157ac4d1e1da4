package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ChaoticGoodAdmi/beans-order/internal/domain"
)

var tracer = otel.Tracer("orders/service")

// Repository is the persistence collaborator. Save inserts an order with
// its items in one transaction when ID is zero and assigns the ID;
// otherwise it writes the mutable fields and fails with
// domain.ErrOrderNotFound when the row is gone. FindByID returns nil, nil
// for an unknown id.
type Repository interface {
	Save(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	FindByUserID(ctx context.Context, userID string) ([]domain.Order, error)
	FindByShopExcludingStatus(ctx context.Context, shopID string, status domain.OrderStatus) ([]domain.Order, error)
}

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order domain.Order) error
	PublishOrderUpdated(ctx context.Context, order domain.Order) error
}

type Metrics interface {
	RecordOrderTotal(ctx context.Context, shopID string, total decimal.Decimal)
	RecordFulfillmentDuration(ctx context.Context, shopID string, d time.Duration)
}

type Option func(*Service)

// WithPublisher enables lifecycle events. Without it nothing is published.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	repo      Repository
	publisher EventPublisher
	metrics   Metrics
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateOrderInput struct {
	UserID       string
	CoffeeShopID string
	Items        []domain.OrderItem
	BonusPoints  int
}

type CreateOrderResult struct {
	OrderID   int64              `json:"orderId"`
	Status    domain.OrderStatus `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
}

type UpdateStatusResult struct {
	OrderID int64              `json:"orderId"`
	Status  domain.OrderStatus `json:"status"`
}

func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (CreateOrderResult, error) {
	ctx, span := tracer.Start(ctx, "CreateOrder", trace.WithAttributes(
		attribute.String("user.id", in.UserID),
		attribute.String("coffee_shop.id", in.CoffeeShopID),
	))
	defer span.End()

	order, err := domain.NewOrder(in.UserID, in.CoffeeShopID, in.Items, in.BonusPoints, s.timestamp())
	if err != nil {
		return CreateOrderResult{}, fail(span, err)
	}

	if err := s.repo.Save(ctx, order); err != nil {
		return CreateOrderResult{}, fail(span, fmt.Errorf("save order: %w", err))
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))

	if s.publisher != nil {
		if err := s.publisher.PublishOrderCreated(ctx, *order); err != nil {
			s.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordOrderTotal(ctx, order.CoffeeShopID, order.TotalCost)
	}

	s.logger.Info("order created",
		"order_id", order.ID,
		"user_id", order.UserID,
		"coffee_shop_id", order.CoffeeShopID,
		"total_cost", order.TotalCost.String(),
	)

	return CreateOrderResult{
		OrderID:   order.ID,
		Status:    order.Status,
		CreatedAt: order.CreatedAt,
	}, nil
}

func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (UpdateStatusResult, error) {
	ctx, span := tracer.Start(ctx, "UpdateOrderStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	if !status.Valid() {
		return UpdateStatusResult{}, fail(span, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", status)))
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return UpdateStatusResult{}, fail(span, fmt.Errorf("find order %d: %w", id, err))
	}
	if order == nil {
		return UpdateStatusResult{}, fail(span, fmt.Errorf("order %d: %w", id, domain.ErrOrderNotFound))
	}

	previous := order.Status
	finished := order.SetStatus(status, s.timestamp())

	if err := s.repo.Save(ctx, order); err != nil {
		return UpdateStatusResult{}, fail(span, fmt.Errorf("save order %d: %w", id, err))
	}

	if finished && s.metrics != nil {
		s.metrics.RecordFulfillmentDuration(ctx, order.CoffeeShopID, order.FulfillmentTime())
	}

	if s.publisher != nil {
		if err := s.publisher.PublishOrderUpdated(ctx, *order); err != nil {
			s.logger.Error("failed to publish order updated event", "error", err, "order_id", order.ID)
		}
	}

	s.logger.Info("order status updated",
		"order_id", order.ID,
		"coffee_shop_id", order.CoffeeShopID,
		"from", previous,
		"to", order.Status,
	)

	return UpdateStatusResult{OrderID: order.ID, Status: order.Status}, nil
}

func (s *Service) GetOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	ctx, span := tracer.Start(ctx, "GetOrdersByUser", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, fail(span, domain.NewValidationError("userId", "must not be blank"))
	}

	orders, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fail(span, fmt.Errorf("find orders for user: %w", err))
	}

	domain.SortForUser(orders)
	return orders, nil
}

func (s *Service) GetOrdersByCoffeeShop(ctx context.Context, shopID string) (domain.Dashboard, error) {
	ctx, span := tracer.Start(ctx, "GetOrdersByCoffeeShop", trace.WithAttributes(attribute.String("coffee_shop.id", shopID)))
	defer span.End()

	if strings.TrimSpace(shopID) == "" {
		return domain.Dashboard{}, fail(span, domain.NewValidationError("coffeeShopId", "must not be blank"))
	}

	orders, err := s.repo.FindByShopExcludingStatus(ctx, shopID, domain.OrderStatusDelivered)
	if err != nil {
		return domain.Dashboard{}, fail(span, fmt.Errorf("find active orders for shop: %w", err))
	}

	return domain.GroupForDashboard(orders), nil
}

// GetOrderByID distinguishes a missing order from someone else's order, so
// a caller can learn that an id exists without seeing its contents.
func (s *Service) GetOrderByID(ctx context.Context, id int64, callerUserID string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "GetOrderByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, fmt.Errorf("find order %d: %w", id, err))
	}
	if order == nil {
		return nil, fail(span, fmt.Errorf("order %d: %w", id, domain.ErrOrderNotFound))
	}
	if order.UserID != callerUserID {
		return nil, fail(span, fmt.Errorf("order %d does not belong to user %q: %w", id, callerUserID, domain.ErrAccessDenied))
	}

	return order, nil
}

// timestamp is truncated to the precision postgres stores so the value
// returned to callers matches what a later read gives back.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
