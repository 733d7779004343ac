package store

import (
	"context"
	"sync"

	"trading-board-go/order"
)

// MemoryStore 内存实现，供测试与 dry-run 使用，不落盘。
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]*OrderRow
	events []OrderEvent
	sm     *order.StateMachine
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]*OrderRow),
		sm:     order.NewStateMachine(),
	}
}

func (s *MemoryStore) CreateOrder(_ context.Context, o order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.OrderID]; ok {
		return ErrDuplicateOrder
	}
	now := utcNow()
	payload := o.ToWire()
	s.orders[o.OrderID] = &OrderRow{
		OrderID:   o.OrderID,
		Payload:   payload,
		Status:    order.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.events = append(s.events, OrderEvent{
		OrderID:   o.OrderID,
		EventType: EventOrderCreated,
		EventData: payload,
		CreatedAt: now,
	})
	return nil
}

func (s *MemoryStore) MarkExecuting(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if err := s.sm.ValidateTransition(row.Status, order.StatusExecuting); err != nil {
		return err
	}
	row.Status = order.StatusExecuting
	row.UpdatedAt = utcNow()
	s.events = append(s.events, OrderEvent{
		OrderID:   orderID,
		EventType: EventOrderExecuting,
		EventData: order.Wire{},
		CreatedAt: row.UpdatedAt,
	})
	return nil
}

func (s *MemoryStore) MarkFilled(_ context.Context, orderID string, dealReference *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if err := s.sm.ValidateTransition(row.Status, order.StatusFilled); err != nil {
		return err
	}
	now := utcNow()
	row.Status = order.StatusFilled
	row.DealReference = dealReference
	row.UpdatedAt = now
	row.ExecutedAt = &now
	s.events = append(s.events, OrderEvent{
		OrderID:   orderID,
		EventType: EventOrderFilled,
		EventData: order.Wire{"deal_reference": strPtrValue(dealReference)},
		CreatedAt: now,
	})
	return nil
}

func (s *MemoryStore) MarkRejected(_ context.Context, orderID string, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if err := s.sm.ValidateTransition(row.Status, order.StatusRejected); err != nil {
		return err
	}
	now := utcNow()
	row.Status = order.StatusRejected
	row.ErrorMessage = &errorMessage
	row.UpdatedAt = now
	s.events = append(s.events, OrderEvent{
		OrderID:   orderID,
		EventType: EventOrderRejected,
		EventData: order.Wire{"error_message": errorMessage},
		CreatedAt: now,
	})
	return nil
}

// Order 返回订单当前快照，如不存在则第二个返回值为 false。
func (s *MemoryStore) Order(orderID string) (OrderRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.orders[orderID]
	if !ok {
		return OrderRow{}, false
	}
	return *row, true
}

// Events 返回某订单的全部审计事件，按追加顺序。
func (s *MemoryStore) Events(orderID string) []OrderEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []OrderEvent
	for _, ev := range s.events {
		if ev.OrderID == orderID {
			out = append(out, ev)
		}
	}
	return out
}

func strPtrValue(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
