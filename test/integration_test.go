//go:build integration

package test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/ChaoticGoodAdmi/beans-order/internal/domain"
	"github.com/ChaoticGoodAdmi/beans-order/internal/messaging"
	"github.com/ChaoticGoodAdmi/beans-order/internal/orders"
	"github.com/ChaoticGoodAdmi/beans-order/internal/worker"
)

func TestOrderRepository(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := DBWithSchema(pg.ConnStr, "orders")
	if err != nil {
		t.Fatalf("failed to create orders DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := orders.NewOrderRepository(db)
	createdAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	order, err := domain.NewOrder("quinn", "shop-1", []domain.OrderItem{
		{ProductID: "espresso", Quantity: 2, Price: decimal.RequireFromString("2.20")},
		{ProductID: "croissant", Quantity: 1, Price: decimal.RequireFromString("3.15")},
	}, 1, createdAt)
	if err != nil {
		t.Fatalf("failed to build order: %v", err)
	}

	if err := repo.Save(ctx, order); err != nil {
		t.Fatalf("failed to save order: %v", err)
	}
	if order.ID == 0 {
		t.Fatal("expected order ID to be assigned")
	}

	fetched, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if fetched == nil {
		t.Fatal("order not found in database")
	}
	if !fetched.TotalCost.Equal(decimal.RequireFromString("6.55")) {
		t.Fatalf("expected total 6.55, got %s", fetched.TotalCost)
	}
	if len(fetched.Items) != 2 || fetched.Items[0].ProductID != "espresso" {
		t.Fatalf("unexpected items: %+v", fetched.Items)
	}
	if !fetched.CreatedAt.Equal(createdAt) {
		t.Fatalf("expected createdAt %v, got %v", createdAt, fetched.CreatedAt)
	}
	if fetched.FinishedAt != nil {
		t.Fatalf("expected no finishedAt, got %v", fetched.FinishedAt)
	}

	fetched.SetStatus(domain.OrderStatusDelivered, createdAt.Add(5*time.Minute))
	if err := repo.Save(ctx, fetched); err != nil {
		t.Fatalf("failed to update order: %v", err)
	}

	delivered, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to fetch delivered order: %v", err)
	}
	if delivered.Status != domain.OrderStatusDelivered {
		t.Fatalf("expected DELIVERED, got %s", delivered.Status)
	}
	if delivered.FinishedAt == nil || delivered.FulfillmentTime() != 5*time.Minute {
		t.Fatalf("unexpected finishedAt: %v", delivered.FinishedAt)
	}

	byUser, err := repo.FindByUserID(ctx, "quinn")
	if err != nil {
		t.Fatalf("failed to list by user: %v", err)
	}
	if len(byUser) != 1 {
		t.Fatalf("expected 1 order for user, got %d", len(byUser))
	}

	active, err := repo.FindByShopExcludingStatus(ctx, "shop-1", domain.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("failed to list by shop: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected delivered order to be excluded, got %d", len(active))
	}

	missing, err := repo.FindByID(ctx, 9999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for missing order, got %v, %v", missing, err)
	}

	t.Run("rejected item rolls back the whole order", func(t *testing.T) {
		broken := &domain.Order{
			UserID:       "sam",
			CoffeeShopID: "shop-1",
			Items: []domain.OrderItem{
				{ProductID: "espresso", Quantity: 1, Price: decimal.RequireFromString("2.20")},
				{ProductID: "mocha", Quantity: -1, Price: decimal.RequireFromString("4.00")},
			},
			TotalCost: decimal.RequireFromString("-1.80"),
			Status:    domain.OrderStatusCreated,
			CreatedAt: createdAt,
		}

		if err := repo.Save(ctx, broken); err == nil {
			t.Fatal("expected save to fail on the quantity check")
		}
		if broken.ID != 0 {
			t.Fatalf("expected ID to stay 0, got %d", broken.ID)
		}

		stored, err := repo.FindByUserID(ctx, "sam")
		if err != nil {
			t.Fatalf("failed to list by user: %v", err)
		}
		if len(stored) != 0 {
			t.Fatalf("expected no persisted orders, got %d", len(stored))
		}
	})
}

type emailCapture struct {
	mu     sync.Mutex
	emails []map[string]string
}

func (e *emailCapture) handler(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	e.mu.Lock()
	e.emails = append(e.emails, req)
	e.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, `{"status":"sent"}`)
}

func (e *emailCapture) getEmails() []map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := make([]map[string]string, len(e.emails))
	copy(result, e.emails)
	return result
}

func TestOrderLifecycleFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	brokers, cleanupKafka := SetupKafka(ctx, t)
	defer cleanupKafka()

	topics := orders.DefaultTopics()
	if err := CreateTopics(brokers, topics.Created, topics.Updated); err != nil {
		t.Fatalf("failed to create topics: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := DBWithSchema(pg.ConnStr, "orders")
	if err != nil {
		t.Fatalf("failed to create orders DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	producer := messaging.NewProducer(brokers)
	defer func() { _ = producer.Close() }()

	service := orders.NewService(orders.NewOrderRepository(db), logger,
		orders.WithPublisher(orders.NewKafkaEventPublisher(producer, topics)))

	mux := http.NewServeMux()
	orders.NewHandler(service, logger).Register(mux, nil)
	ordersServer := httptest.NewServer(mux)
	defer ordersServer.Close()

	emailCap := &emailCapture{}
	emailMux := http.NewServeMux()
	emailMux.HandleFunc("POST /send", emailCap.handler)
	emailServer := httptest.NewServer(emailMux)
	defer emailServer.Close()

	notificationHandler := worker.NewNotificationHandler(emailServer.URL, topics.Created, topics.Updated,
		&http.Client{Timeout: 10 * time.Second}, logger)

	consumer := messaging.NewConsumer(brokers, "lifecycle-test", []string{topics.Created, topics.Updated},
		messaging.WithStartOffset(kafka.FirstOffset))
	defer func() { _ = consumer.Close() }()

	consumeCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	go func() { _ = consumer.Consume(consumeCtx, notificationHandler.Handle) }()

	body := `{"coffeeShopId":"shop-7","items":[{"productId":"latte","quantity":2,"price":"4.25"}],"bonusPointsForPayment":0}`
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, ordersServer.URL+"/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(orders.UserIDHeader, "rita")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	var created orders.CreateOrderResult
	_ = json.NewDecoder(resp.Body).Decode(&created)
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	if created.OrderID == 0 || created.Status != domain.OrderStatusCreated {
		t.Fatalf("unexpected create result: %+v", created)
	}

	for _, status := range []domain.OrderStatus{domain.OrderStatusInProgress, domain.OrderStatusReady} {
		if _, err := service.UpdateOrderStatus(ctx, created.OrderID, status); err != nil {
			t.Fatalf("failed to move order to %s: %v", status, err)
		}
	}

	deadline := time.Now().Add(60 * time.Second)
	var emails []map[string]string
	for time.Now().Before(deadline) {
		emails = emailCap.getEmails()
		if len(emails) >= 2 {
			break
		}
		time.Sleep(250 * time.Millisecond)
	}

	if len(emails) != 2 {
		t.Fatalf("expected 2 emails, got %d: %v", len(emails), emails)
	}

	subjects := emails[0]["subject"] + " | " + emails[1]["subject"]
	if !strings.Contains(subjects, "received") || !strings.Contains(subjects, "is ready") {
		t.Fatalf("unexpected email subjects: %s", subjects)
	}
	for _, email := range emails {
		if email["to"] != "rita@example.com" {
			t.Fatalf("unexpected recipient: %s", email["to"])
		}
	}

	dashboard, err := service.GetOrdersByCoffeeShop(ctx, "shop-7")
	if err != nil {
		t.Fatalf("failed to load dashboard: %v", err)
	}
	if len(dashboard.NeedToDeliver) != 1 || dashboard.NeedToDeliver[0].ID != created.OrderID {
		t.Fatalf("expected order in needToDeliver, got %+v", dashboard)
	}
}
