package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trading-board-go/order"
)

// GormStore 持久化实现：orders 当前快照 + order_events 追加审计日志。
// 每个操作在单个事务内同时提交行变更和事件。
type GormStore struct {
	db *gorm.DB
	sm *order.StateMachine
}

type orderRow struct {
	OrderID       string          `gorm:"column:order_id;primaryKey"`
	SourceAgent   string          `gorm:"column:source_agent;not null"`
	Epic          string          `gorm:"column:epic;not null"`
	Direction     string          `gorm:"column:direction;not null"`
	Size          decimal.Decimal `gorm:"column:size;type:numeric;not null"`
	CurrencyCode  string          `gorm:"column:currency_code;not null"`
	Status        string          `gorm:"column:status;not null"`
	Payload       string          `gorm:"column:payload;not null"`
	DealReference *string         `gorm:"column:deal_reference"`
	ErrorMessage  *string         `gorm:"column:error_message"`
	// 时间戳由事务自己写入，关闭 gorm 的自动维护，
	// 否则 Save 会把 updated_at 覆盖成晚于 executed_at 的时刻。
	CreatedAt  time.Time  `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;not null;autoUpdateTime:false"`
	ExecutedAt *time.Time `gorm:"column:executed_at"`
}

func (orderRow) TableName() string { return "orders" }

type orderEventRow struct {
	EventID   int64     `gorm:"column:event_id;primaryKey;autoIncrement"`
	OrderID   string    `gorm:"column:order_id;index;not null"`
	Order     orderRow  `gorm:"foreignKey:OrderID;references:OrderID"`
	EventType string    `gorm:"column:event_type;not null"`
	EventData string    `gorm:"column:event_data;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime:false"`
}

func (orderEventRow) TableName() string { return "order_events" }

// OpenPostgres 建立数据库连接；时间统一 UTC。
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		NowFunc:        utcNow,
	})
}

// NewGormStore wraps an open connection; when createTables is set the store
// owns its schema and migrates it on boot.
func NewGormStore(db *gorm.DB, createTables bool) (*GormStore, error) {
	if createTables {
		if err := db.AutoMigrate(&orderRow{}, &orderEventRow{}); err != nil {
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}
	return &GormStore{db: db, sm: order.NewStateMachine()}, nil
}

func (s *GormStore) CreateOrder(ctx context.Context, o order.Order) error {
	payload, err := marshalWire(o.ToWire())
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing orderRow
		err := tx.Where("order_id = ?", o.OrderID).Take(&existing).Error
		if err == nil {
			return ErrDuplicateOrder
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		now := utcNow()
		row := orderRow{
			OrderID:      o.OrderID,
			SourceAgent:  o.SourceAgent,
			Epic:         o.Epic,
			Direction:    o.Direction,
			Size:         o.Size,
			CurrencyCode: o.CurrencyCode,
			Status:       string(order.StatusPending),
			Payload:      payload,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateOrder
			}
			return err
		}
		return appendEvent(tx, o.OrderID, EventOrderCreated, payload, now)
	})
}

func (s *GormStore) MarkExecuting(ctx context.Context, orderID string) error {
	return s.transition(ctx, orderID, order.StatusExecuting, EventOrderExecuting,
		order.Wire{},
		func(row *orderRow, now time.Time) {},
	)
}

func (s *GormStore) MarkFilled(ctx context.Context, orderID string, dealReference *string) error {
	return s.transition(ctx, orderID, order.StatusFilled, EventOrderFilled,
		order.Wire{"deal_reference": strPtrValue(dealReference)},
		func(row *orderRow, now time.Time) {
			row.DealReference = dealReference
			row.ExecutedAt = &now
		},
	)
}

func (s *GormStore) MarkRejected(ctx context.Context, orderID string, errorMessage string) error {
	return s.transition(ctx, orderID, order.StatusRejected, EventOrderRejected,
		order.Wire{"error_message": errorMessage},
		func(row *orderRow, now time.Time) {
			row.ErrorMessage = &errorMessage
		},
	)
}

func (s *GormStore) transition(ctx context.Context, orderID string, to order.Status, eventType string, eventData order.Wire, mutate func(*orderRow, time.Time)) error {
	data, err := marshalWire(eventData)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row orderRow
		if err := tx.Where("order_id = ?", orderID).Take(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if err := s.sm.ValidateTransition(order.Status(row.Status), to); err != nil {
			return err
		}
		now := utcNow()
		row.Status = string(to)
		row.UpdatedAt = now
		mutate(&row, now)
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		return appendEvent(tx, orderID, eventType, data, now)
	})
}

func appendEvent(tx *gorm.DB, orderID, eventType, eventData string, now time.Time) error {
	return tx.Omit(clause.Associations).Create(&orderEventRow{
		OrderID:   orderID,
		EventType: eventType,
		EventData: eventData,
		CreatedAt: now,
	}).Error
}

func marshalWire(w order.Wire) (string, error) {
	raw, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("encode event payload: %w", err)
	}
	return string(raw), nil
}

// Order 读取当前快照，供对账和测试使用。
func (s *GormStore) Order(ctx context.Context, orderID string) (OrderRow, error) {
	var row orderRow
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderRow{}, ErrOrderNotFound
		}
		return OrderRow{}, err
	}
	payload, err := unmarshalWire(row.Payload)
	if err != nil {
		return OrderRow{}, err
	}
	return OrderRow{
		OrderID:       row.OrderID,
		Payload:       payload,
		Status:        order.Status(row.Status),
		DealReference: row.DealReference,
		ErrorMessage:  row.ErrorMessage,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		ExecutedAt:    row.ExecutedAt,
	}, nil
}

// Events 按事件 id 升序返回某订单的审计记录。
func (s *GormStore) Events(ctx context.Context, orderID string) ([]OrderEvent, error) {
	var rows []orderEventRow
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("event_id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]OrderEvent, 0, len(rows))
	for _, r := range rows {
		data, err := unmarshalWire(r.EventData)
		if err != nil {
			return nil, err
		}
		out = append(out, OrderEvent{
			OrderID:   r.OrderID,
			EventType: r.EventType,
			EventData: data,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

func unmarshalWire(raw string) (order.Wire, error) {
	var w order.Wire
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, fmt.Errorf("decode event payload: %w", err)
	}
	return w, nil
}
