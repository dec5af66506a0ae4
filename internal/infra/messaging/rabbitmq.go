package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"qrmenu/internal/domain/model"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	OrdersExchange = "orders_topic"
	publishTimeout = 5 * time.Second
)

// RoutingKey は order.<種別>.<テーブル番号>
func RoutingKey(ev model.OrderEvent) string {
	return fmt.Sprintf("order.%s.%d", ev.Type, ev.TableNumber)
}

// Publisher は注文イベントを orders_topic に流す
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *slog.Logger

	//Channelはgoroutine安全ではない
	mu sync.Mutex
}

func Dial(url string, log *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(OrdersExchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare %s: %w", OrdersExchange, err)
	}

	log.Info("rabbitmq connected", "action", "rabbitmq_connected", "exchange", OrdersExchange)
	return &Publisher{conn: conn, ch: ch, log: log}, nil
}

func (p *Publisher) PublishOrderEvent(ctx context.Context, ev model.OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(ctx, OrdersExchange, RoutingKey(ev), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.OrderID,
		Timestamp:    ev.OccurredAt.UTC(),
		Type:         string(ev.Type),
		Body:         body,
	})
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NopPublisher はRABBITMQ_URLが空のとき使う
type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(ctx context.Context, ev model.OrderEvent) error { return nil }
