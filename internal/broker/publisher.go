// Package broker は注文イベントをメッセージブローカーへ配信する。
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Sohelrana2815/coffee-store-jwt/pkg/event"
)

// Publisher はイベントを配信する。
type Publisher interface {
	Publish(ctx context.Context, e *event.Event) error
}

// Discard はイベントを捨てるPublisher。ブローカー未設定時に使う。
type Discard struct{}

// Publish は何もしない。
func (Discard) Publish(context.Context, *event.Event) error { return nil }

// Rabbit はRabbitMQのtopic exchangeへイベントを配信する。
type Rabbit struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	// amqp.Channel はゴルーチン安全ではない
	mu sync.Mutex
}

// DialRabbit はRabbitMQへ接続し、durableなtopic exchangeを宣言する。
func DialRabbit(url, exchange string) (*Rabbit, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQへの接続に失敗: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("チャネルの作成に失敗: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange %s の宣言に失敗: %w", exchange, err)
	}
	return &Rabbit{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish はイベントをJSONにしてルーティングキー付きで配信する。
func (r *Rabbit) Publish(ctx context.Context, e *event.Event) error {
	msg, err := toPublishing(e)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ch.PublishWithContext(ctx, r.exchange, e.EventType.RoutingKey(), false, false, msg); err != nil {
		return fmt.Errorf("イベント %s の配信に失敗: %w", e.ID, err)
	}
	return nil
}

// Close はチャネルと接続を閉じる。
func (r *Rabbit) Close() error {
	_ = r.ch.Close()
	return r.conn.Close()
}

// toPublishing はイベントをAMQPメッセージに変換する。
func toPublishing(e *event.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("イベントのシリアライズに失敗: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    e.ID,
		Type:         string(e.EventType),
		Timestamp:    e.CreatedAt,
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}, nil
}
