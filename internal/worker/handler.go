package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ChaoticGoodAdmi/beans-order/internal/domain"
)

// NotificationHandler turns order events into customer emails. Events may
// arrive more than once or not at all. A duplicate only repeats an email.
type NotificationHandler struct {
	emailServiceURL string
	createdTopic    string
	updatedTopic    string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewNotificationHandler(emailServiceURL, createdTopic, updatedTopic string, client *http.Client, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		emailServiceURL: emailServiceURL,
		createdTopic:    createdTopic,
		updatedTopic:    updatedTopic,
		httpClient:      client,
		logger:          logger,
	}
}

// Handle dispatches on topic. Payloads that cannot be decoded are logged and
// skipped so one bad message does not stall the partition.
func (h *NotificationHandler) Handle(ctx context.Context, topic string, payload []byte) error {
	switch topic {
	case h.createdTopic:
		var event domain.OrderCreatedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			h.logger.Error("skipping malformed order created event", "error", err)
			return nil
		}
		return h.orderCreated(ctx, event)

	case h.updatedTopic:
		var event domain.OrderUpdatedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			h.logger.Error("skipping malformed order updated event", "error", err)
			return nil
		}
		return h.orderUpdated(ctx, event)

	default:
		h.logger.Warn("ignoring message from unexpected topic", "topic", topic)
		return nil
	}
}

func (h *NotificationHandler) orderCreated(ctx context.Context, event domain.OrderCreatedEvent) error {
	h.logger.Info("processing order created event", "order_id", event.OrderID, "coffee_shop_id", event.CoffeeShopID)

	err := h.sendEmail(ctx, emailRequest{
		To:      recipient(event.UserID),
		Subject: fmt.Sprintf("Order %d received", event.OrderID),
		Body: fmt.Sprintf("We got your order %d with %d item(s). Total: %s.",
			event.OrderID, len(event.Items), event.TotalCost.StringFixed(2)),
	})
	if err != nil {
		return fmt.Errorf("send order received email: %w", err)
	}
	return nil
}

func (h *NotificationHandler) orderUpdated(ctx context.Context, event domain.OrderUpdatedEvent) error {
	if event.NewStatus != domain.OrderStatusReady {
		h.logger.Debug("no notification for status", "order_id", event.OrderID, "status", event.NewStatus)
		return nil
	}

	err := h.sendEmail(ctx, emailRequest{
		To:      recipient(event.UserID),
		Subject: fmt.Sprintf("Order %d is ready", event.OrderID),
		Body:    fmt.Sprintf("Your order %d is ready for pickup.", event.OrderID),
	})
	if err != nil {
		return fmt.Errorf("send order ready email: %w", err)
	}

	h.logger.Info("order ready notification sent", "order_id", event.OrderID)
	return nil
}

func recipient(userID string) string {
	return userID + "@example.com"
}

type emailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (h *NotificationHandler) sendEmail(ctx context.Context, body emailRequest) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
