package store

import (
	"context"
	"errors"
	"time"

	"trading-board-go/order"
)

var (
	// ErrDuplicateOrder signals at-least-once redelivery: the order_id is
	// already in the store and must not be reprocessed.
	ErrDuplicateOrder = errors.New("order already exists")
	// ErrOrderNotFound means a transition referenced an unknown order_id.
	ErrOrderNotFound = errors.New("order not found")
)

// Audit event types, one per lifecycle transition.
const (
	EventOrderCreated   = "order_created"
	EventOrderExecuting = "order_executing"
	EventOrderFilled    = "order_filled"
	EventOrderRejected  = "order_rejected"
)

// OrderStore 订单及审计事件的持久化契约。
// 四个操作各自原子：行变更与对应事件一起提交或一起失败。
type OrderStore interface {
	CreateOrder(ctx context.Context, o order.Order) error
	MarkExecuting(ctx context.Context, orderID string) error
	MarkFilled(ctx context.Context, orderID string, dealReference *string) error
	MarkRejected(ctx context.Context, orderID string, errorMessage string) error
}

// OrderRow is the current snapshot of one order.
type OrderRow struct {
	OrderID       string
	Payload       order.Wire
	Status        order.Status
	DealReference *string
	ErrorMessage  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ExecutedAt    *time.Time
}

// OrderEvent is one immutable audit record; events are append-only.
type OrderEvent struct {
	OrderID   string
	EventType string
	EventData order.Wire
	CreatedAt time.Time
}

func utcNow() time.Time {
	return time.Now().UTC()
}
