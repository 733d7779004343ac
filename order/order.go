package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents order lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusExecuting Status = "executing"
	StatusFilled    Status = "filled"
	StatusRejected  Status = "rejected"
)

// Direction 买卖方向，只允许 BUY/SELL。
const (
	DirectionBuy  = "BUY"
	DirectionSell = "SELL"
)

// Order 一笔交易意图及其当前生命周期状态。
// 由上游分析进程产生，经 relay 提交到执行端点。
type Order struct {
	OrderID      string
	SourceAgent  string
	Epic         string
	Direction    string // BUY/SELL
	Size         decimal.Decimal
	CurrencyCode string

	OrderType      string // 默认 MARKET
	Expiry         string // 默认 "-"
	ForceOpen      bool
	GuaranteedStop bool
	TrailingStop   bool

	QuoteID               *string
	Level                 *float64
	LimitDistance         *float64
	LimitLevel            *float64
	StopDistance          *float64
	StopLevel             *float64
	TrailingStopIncrement *float64
	TimeInForce           *string

	Metadata  map[string]interface{}
	Status    Status
	CreatedAt time.Time
}

// ValidationError names the first field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// New returns an order with generated id and defaults applied.
func New() Order {
	return Order{
		OrderID:   uuid.NewString(),
		OrderType: "MARKET",
		Expiry:    "-",
		Metadata:  map[string]interface{}{},
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks the order invariants; the first violated field wins.
func (o Order) Validate() error {
	if o.SourceAgent == "" {
		return &ValidationError{Field: "source_agent", Reason: "source_agent is required"}
	}
	if o.Epic == "" {
		return &ValidationError{Field: "epic", Reason: "epic is required"}
	}
	if o.Direction != DirectionBuy && o.Direction != DirectionSell {
		return &ValidationError{Field: "direction", Reason: "direction must be BUY or SELL"}
	}
	if !o.Size.IsPositive() {
		return &ValidationError{Field: "size", Reason: "size must be greater than zero"}
	}
	if o.CurrencyCode == "" {
		return &ValidationError{Field: "currency_code", Reason: "currency_code is required"}
	}
	return nil
}

func (o Order) String() string {
	return fmt.Sprintf("%s %s %s x %s (%s)", o.OrderID, o.Direction, o.Epic, o.Size, o.Status)
}
