package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-board-go/order"
)

func testOrder() order.Order {
	o := order.New()
	o.SourceAgent = "agent-alpha"
	o.Epic = "IX.D.ASX.IFM.IP"
	o.Direction = order.DirectionBuy
	o.Size = decimal.NewFromFloat(1.0)
	o.CurrencyCode = "AUD"
	return o
}

func TestMemoryLifecycleFilled(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	o := testOrder()

	require.NoError(t, s.CreateOrder(ctx, o))
	row, ok := s.Order(o.OrderID)
	require.True(t, ok)
	assert.Equal(t, order.StatusPending, row.Status)

	require.NoError(t, s.MarkExecuting(ctx, o.OrderID))
	ref := "DIAAA111"
	require.NoError(t, s.MarkFilled(ctx, o.OrderID, &ref))

	row, _ = s.Order(o.OrderID)
	assert.Equal(t, order.StatusFilled, row.Status)
	require.NotNil(t, row.DealReference)
	assert.Equal(t, "DIAAA111", *row.DealReference)
	assert.NotNil(t, row.ExecutedAt)
	assert.Nil(t, row.ErrorMessage)

	events := s.Events(o.OrderID)
	require.Len(t, events, 3)
	assert.Equal(t, EventOrderCreated, events[0].EventType)
	assert.Equal(t, EventOrderExecuting, events[1].EventType)
	assert.Equal(t, EventOrderFilled, events[2].EventType)
	assert.Equal(t, o.OrderID, events[0].EventData["order_id"])
	assert.Equal(t, "DIAAA111", events[2].EventData["deal_reference"])
}

func TestMemoryLifecycleRejected(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	o := testOrder()

	require.NoError(t, s.CreateOrder(ctx, o))
	require.NoError(t, s.MarkExecuting(ctx, o.OrderID))
	require.NoError(t, s.MarkRejected(ctx, o.OrderID, "order rejected by risk controls"))

	row, _ := s.Order(o.OrderID)
	assert.Equal(t, order.StatusRejected, row.Status)
	require.NotNil(t, row.ErrorMessage)
	assert.Contains(t, *row.ErrorMessage, "risk controls")
	assert.Nil(t, row.ExecutedAt)

	events := s.Events(o.OrderID)
	require.Len(t, events, 3)
	assert.Equal(t, EventOrderRejected, events[2].EventType)
	assert.Equal(t, "order rejected by risk controls", events[2].EventData["error_message"])
}

func TestMemoryDuplicateCreate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	o := testOrder()

	require.NoError(t, s.CreateOrder(ctx, o))
	err := s.CreateOrder(ctx, o)
	require.ErrorIs(t, err, ErrDuplicateOrder)

	// 第一行数据保持完好，事件不会重复追加。
	row, ok := s.Order(o.OrderID)
	require.True(t, ok)
	assert.Equal(t, order.StatusPending, row.Status)
	assert.Len(t, s.Events(o.OrderID), 1)
}

func TestMemoryNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.ErrorIs(t, s.MarkExecuting(ctx, "nope"), ErrOrderNotFound)
	require.ErrorIs(t, s.MarkFilled(ctx, "nope", nil), ErrOrderNotFound)
	require.ErrorIs(t, s.MarkRejected(ctx, "nope", "x"), ErrOrderNotFound)
}

func TestMemoryTransitionOrderEnforced(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	o := testOrder()
	require.NoError(t, s.CreateOrder(ctx, o))

	// pending 不能直接到终态
	require.Error(t, s.MarkFilled(ctx, o.OrderID, nil))
	require.Error(t, s.MarkRejected(ctx, o.OrderID, "x"))

	require.NoError(t, s.MarkExecuting(ctx, o.OrderID))
	require.Error(t, s.MarkExecuting(ctx, o.OrderID))

	require.NoError(t, s.MarkFilled(ctx, o.OrderID, nil))
	// 终态之后不再接受任何转换
	require.Error(t, s.MarkExecuting(ctx, o.OrderID))
	require.Error(t, s.MarkRejected(ctx, o.OrderID, "x"))

	events := s.Events(o.OrderID)
	require.Len(t, events, 3)
}
