package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ChaoticGoodAdmi/beans-order/internal/domain"
)

// Broker transmits an already-serialized payload. messaging.Producer
// satisfies it.
type Broker interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

type Topics struct {
	Created string
	Updated string
}

func DefaultTopics() Topics {
	return Topics{Created: domain.TopicOrderCreated, Updated: domain.TopicOrderUpdated}
}

// KafkaEventPublisher encodes lifecycle events as JSON and keys them by
// order id so all events of one order land on the same partition.
type KafkaEventPublisher struct {
	broker Broker
	topics Topics
}

func NewKafkaEventPublisher(broker Broker, topics Topics) *KafkaEventPublisher {
	return &KafkaEventPublisher{broker: broker, topics: topics}
}

func (p *KafkaEventPublisher) PublishOrderCreated(ctx context.Context, order domain.Order) error {
	return p.publish(ctx, p.topics.Created, order.ID, domain.NewOrderCreatedEvent(order))
}

func (p *KafkaEventPublisher) PublishOrderUpdated(ctx context.Context, order domain.Order) error {
	return p.publish(ctx, p.topics.Updated, order.ID, domain.NewOrderUpdatedEvent(order))
}

func (p *KafkaEventPublisher) publish(ctx context.Context, topic string, orderID int64, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	if err := p.broker.Publish(ctx, topic, strconv.FormatInt(orderID, 10), data); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	return nil
}
