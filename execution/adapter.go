package execution

import (
	"context"

	"github.com/shopspring/decimal"

	"trading-board-go/order"
)

// PositionParams 执行端点的开仓参数，与 Order 的执行字段一一对应。
type PositionParams struct {
	CurrencyCode          string          `json:"currencyCode"`
	Direction             string          `json:"direction"`
	Epic                  string          `json:"epic"`
	Expiry                string          `json:"expiry"`
	ForceOpen             bool            `json:"forceOpen"`
	GuaranteedStop        bool            `json:"guaranteedStop"`
	Level                 *float64        `json:"level,omitempty"`
	LimitDistance         *float64        `json:"limitDistance,omitempty"`
	LimitLevel            *float64        `json:"limitLevel,omitempty"`
	OrderType             string          `json:"orderType"`
	QuoteID               *string         `json:"quoteId,omitempty"`
	Size                  decimal.Decimal `json:"size"`
	StopDistance          *float64        `json:"stopDistance,omitempty"`
	StopLevel             *float64        `json:"stopLevel,omitempty"`
	TrailingStop          bool            `json:"trailingStop"`
	TrailingStopIncrement *float64        `json:"trailingStopIncrement,omitempty"`
	TimeInForce           *string         `json:"timeInForce,omitempty"`
}

// Endpoint 是真正下单的经纪商能力；返回形状由实现决定。
type Endpoint interface {
	CreateOpenPosition(ctx context.Context, params PositionParams) (map[string]interface{}, error)
}

// Result is a successful submission; Reference is nil when the endpoint
// returned no recognizable deal reference.
type Result struct {
	Reference *string
}

// Adapter 把 Order 翻译成端点调用并归一化响应。
// 端点错误原样上抛，由 relay 决定如何记录。
type Adapter struct {
	endpoint Endpoint
}

func NewAdapter(endpoint Endpoint) *Adapter {
	return &Adapter{endpoint: endpoint}
}

func (a *Adapter) Submit(ctx context.Context, o order.Order) (Result, error) {
	resp, err := a.endpoint.CreateOpenPosition(ctx, ParamsFromOrder(o))
	if err != nil {
		return Result{}, err
	}
	return Result{Reference: extractDealReference(resp)}, nil
}

// ParamsFromOrder maps the order's execution fields onto the endpoint call shape.
func ParamsFromOrder(o order.Order) PositionParams {
	return PositionParams{
		CurrencyCode:          o.CurrencyCode,
		Direction:             o.Direction,
		Epic:                  o.Epic,
		Expiry:                o.Expiry,
		ForceOpen:             o.ForceOpen,
		GuaranteedStop:        o.GuaranteedStop,
		Level:                 o.Level,
		LimitDistance:         o.LimitDistance,
		LimitLevel:            o.LimitLevel,
		OrderType:             o.OrderType,
		QuoteID:               o.QuoteID,
		Size:                  o.Size,
		StopDistance:          o.StopDistance,
		StopLevel:             o.StopLevel,
		TrailingStop:          o.TrailingStop,
		TrailingStopIncrement: o.TrailingStopIncrement,
		TimeInForce:           o.TimeInForce,
	}
}

// extractDealReference 从异构成功响应里提取成交引用。
// 依次检查 dealReference、deal_reference，再看 dealStatus/deal_status 子对象。
func extractDealReference(resp map[string]interface{}) *string {
	if resp == nil {
		return nil
	}
	if ref, ok := resp["dealReference"].(string); ok {
		return &ref
	}
	if ref, ok := resp["deal_reference"].(string); ok {
		return &ref
	}
	status, ok := resp["dealStatus"].(map[string]interface{})
	if !ok {
		status, ok = resp["deal_status"].(map[string]interface{})
	}
	if ok {
		if ref, k := status["dealReference"].(string); k {
			return &ref
		}
		if ref, k := status["deal_reference"].(string); k {
			return &ref
		}
	}
	return nil
}
