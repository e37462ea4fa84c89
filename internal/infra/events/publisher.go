package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"grocery/internal/domain/lifecycle"
	"grocery/internal/domain/model"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange = "grocery.events"

	OrderAcceptedRoutingKey  = "order.accepted.v1"
	OrderRejectedRoutingKey  = "order.rejected.v1"
	OrderClaimedRoutingKey   = "order.claimed.v1"
	OrderDeliveredRoutingKey = "order.delivered.v1"
	OrderCancelledRoutingKey = "order.cancelled.v1"
)

// 状態遷移ごとのルーティングキー（DEPART は流さない）
func RoutingKeyFor(ev lifecycle.Event) (string, bool) {
	switch ev {
	case lifecycle.EventAccept:
		return OrderAcceptedRoutingKey, true
	case lifecycle.EventReject:
		return OrderRejectedRoutingKey, true
	case lifecycle.EventClaim:
		return OrderClaimedRoutingKey, true
	case lifecycle.EventDeliver:
		return OrderDeliveredRoutingKey, true
	case lifecycle.EventCancel:
		return OrderCancelledRoutingKey, true
	}
	return "", false
}

// 注文イベントの本文
type OrderEvent struct {
	EventID        string                   `json:"event_id"`
	EventType      string                   `json:"event_type"`
	OrderID        int64                    `json:"order_id"`
	UserID         int64                    `json:"user_id"`
	Status         lifecycle.OrderStatus    `json:"status"`
	DeliveryStatus lifecycle.DeliveryStatus `json:"delivery_status"`
	CourierID      *int64                   `json:"courier_id,omitempty"`
	CancelReason   string                   `json:"cancel_reason,omitempty"`
	Total          string                   `json:"total"`
	Timestamp      time.Time                `json:"timestamp"`
}

func NewOrderEvent(routingKey string, o model.Order, now time.Time) OrderEvent {
	return OrderEvent{
		EventID:        uuid.NewString(),
		EventType:      routingKey,
		OrderID:        o.ID,
		UserID:         o.UserID,
		Status:         o.Status,
		DeliveryStatus: o.DeliveryStatus,
		CourierID:      o.CourierID,
		CancelReason:   o.CancelReason,
		Total:          o.Total.StringFixed(2),
		Timestamp:      now.UTC(),
	}
}

type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(EventsExchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare %s: %w", EventsExchange, err)
	}

	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// ev に対応するキーが無ければ何もしない
func (p *Publisher) PublishOrderEvent(ctx context.Context, ev lifecycle.Event, o model.Order) error {
	key, ok := RoutingKeyFor(ev)
	if !ok {
		return nil
	}

	body, err := json.Marshal(NewOrderEvent(key, o, time.Now()))
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

// AMQP_URL が無いとき用
type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(context.Context, lifecycle.Event, model.Order) error { return nil }
