// Package event は注文の状態変化を外部へ通知するためのイベント型を定義する。
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AggregateType はイベントの対象となるエンティティの種類を表す。
type AggregateType string

// AggregateTypeOrder は注文エンティティを表す。
const AggregateTypeOrder AggregateType = "Order"

// Type はイベントの種類を表す。
type Type string

const (
	// TypeOrderPlaced は注文が作成されたことを表す。
	TypeOrderPlaced Type = "OrderPlaced"
	// TypeOrderStatusChanged は注文のステータスが変更されたことを表す。
	TypeOrderStatusChanged Type = "OrderStatusChanged"
	// TypeOrderDeleted は注文が削除されたことを表す。
	TypeOrderDeleted Type = "OrderDeleted"
)

// RoutingKey はメッセージブローカーで使うルーティングキーを返す。
func (t Type) RoutingKey() string {
	switch t {
	case TypeOrderPlaced:
		return "order.placed"
	case TypeOrderStatusChanged:
		return "order.status_changed"
	case TypeOrderDeleted:
		return "order.deleted"
	default:
		return "order.unknown"
	}
}

// Event は外部に通知する不変のイベントレコードを表す。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// AggregateID は対象エンティティの識別子。
	AggregateID string `json:"aggregate_id"`
	// AggregateType は対象エンティティの種類。
	AggregateType AggregateType `json:"aggregate_type"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// OrderPlacedData はOrderPlacedイベントのデータ。
type OrderPlacedData struct {
	// Email は注文者のメールアドレス。
	Email string `json:"email"`
	// CoffeeID は注文された商品のID。
	CoffeeID string `json:"coffee_id"`
	// Quantity は注文数。
	Quantity int `json:"quantity"`
	// Status は作成時のステータス。
	Status string `json:"status"`
}

// OrderStatusChangedData はOrderStatusChangedイベントのデータ。
type OrderStatusChangedData struct {
	// Status は変更後のステータス。
	Status string `json:"status"`
}

// OrderDeletedData はOrderDeletedイベントのデータ。
type OrderDeletedData struct {
	// DeletedCount は削除された件数。
	DeletedCount int64 `json:"deleted_count"`
}

// NewOrderEvent は注文に関するイベントを生成する。dataはJSONとしてDataに格納する。
func NewOrderEvent(orderID string, typ Type, data any) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s のデータをJSONにできません: %w", typ, err)
	}
	return &Event{
		ID:            uuid.NewString(),
		AggregateID:   orderID,
		AggregateType: AggregateTypeOrder,
		EventType:     typ,
		Data:          raw,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// DecodeData はDataをTとして読み出す。
func DecodeData[T any](e *Event) (*T, error) {
	data := new(T)
	if err := json.Unmarshal(e.Data, data); err != nil {
		return nil, fmt.Errorf("%s のデータを読み出せません: %w", e.EventType, err)
	}
	return data, nil
}
