package order

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wire is the flat key/value payload shape shared by the order source
// transport and the event log snapshots.
type Wire = map[string]interface{}

// ToWire 导出为扁平负载；所有可选字段都带键，缺省值为 nil。
func (o Order) ToWire() Wire {
	return Wire{
		"order_id":                o.OrderID,
		"source_agent":            o.SourceAgent,
		"epic":                    o.Epic,
		"direction":               o.Direction,
		"size":                    json.Number(o.Size.String()),
		"currency_code":           o.CurrencyCode,
		"order_type":              o.OrderType,
		"expiry":                  o.Expiry,
		"force_open":              o.ForceOpen,
		"guaranteed_stop":         o.GuaranteedStop,
		"trailing_stop":           o.TrailingStop,
		"quote_id":                strPtrValue(o.QuoteID),
		"level":                   floatPtrValue(o.Level),
		"limit_distance":          floatPtrValue(o.LimitDistance),
		"limit_level":             floatPtrValue(o.LimitLevel),
		"stop_distance":           floatPtrValue(o.StopDistance),
		"stop_level":              floatPtrValue(o.StopLevel),
		"trailing_stop_increment": floatPtrValue(o.TrailingStopIncrement),
		"time_in_force":           strPtrValue(o.TimeInForce),
		"metadata":                o.Metadata,
		"status":                  string(o.Status),
		"created_at":              o.CreatedAt.Format(time.RFC3339Nano),
	}
}

// FromWire 解析扁平负载；必填字段缺失即拒绝，可选字段填充默认值。
func FromWire(payload Wire) (Order, error) {
	o := Order{
		OrderType: "MARKET",
		Expiry:    "-",
		Metadata:  map[string]interface{}{},
		Status:    StatusPending,
	}

	for _, field := range []string{"source_agent", "epic", "direction", "currency_code"} {
		s, ok := stringField(payload, field)
		if !ok || s == "" {
			return Order{}, &ValidationError{Field: field, Reason: field + " is required"}
		}
		switch field {
		case "source_agent":
			o.SourceAgent = s
		case "epic":
			o.Epic = s
		case "direction":
			o.Direction = s
		case "currency_code":
			o.CurrencyCode = s
		}
	}

	raw, ok := payload["size"]
	if !ok || raw == nil {
		return Order{}, &ValidationError{Field: "size", Reason: "size is required"}
	}
	size, err := toDecimal(raw)
	if err != nil {
		return Order{}, &ValidationError{Field: "size", Reason: fmt.Sprintf("size is not numeric: %v", err)}
	}
	o.Size = size

	if id, ok := stringField(payload, "order_id"); ok && id != "" {
		o.OrderID = id
	} else {
		o.OrderID = uuid.NewString()
	}
	if s, ok := stringField(payload, "order_type"); ok && s != "" {
		o.OrderType = s
	}
	if s, ok := stringField(payload, "expiry"); ok && s != "" {
		o.Expiry = s
	}
	o.ForceOpen = boolField(payload, "force_open")
	o.GuaranteedStop = boolField(payload, "guaranteed_stop")
	o.TrailingStop = boolField(payload, "trailing_stop")

	o.QuoteID = optString(payload, "quote_id")
	o.TimeInForce = optString(payload, "time_in_force")
	for field, dst := range map[string]**float64{
		"level":                   &o.Level,
		"limit_distance":          &o.LimitDistance,
		"limit_level":             &o.LimitLevel,
		"stop_distance":           &o.StopDistance,
		"stop_level":              &o.StopLevel,
		"trailing_stop_increment": &o.TrailingStopIncrement,
	} {
		v, err := optFloat(payload, field)
		if err != nil {
			return Order{}, &ValidationError{Field: field, Reason: fmt.Sprintf("%s is not numeric: %v", field, err)}
		}
		*dst = v
	}

	if m, ok := payload["metadata"].(map[string]interface{}); ok && m != nil {
		o.Metadata = m
	}
	if s, ok := stringField(payload, "status"); ok && s != "" {
		switch st := Status(s); st {
		case StatusPending, StatusExecuting, StatusFilled, StatusRejected:
			o.Status = st
		default:
			return Order{}, &ValidationError{Field: "status", Reason: fmt.Sprintf("%q is not a valid order status", s)}
		}
	}
	if s, ok := stringField(payload, "created_at"); ok && s != "" {
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return Order{}, &ValidationError{Field: "created_at", Reason: fmt.Sprintf("created_at is not a timestamp: %v", err)}
		}
		o.CreatedAt = ts
	} else {
		o.CreatedAt = time.Now().UTC()
	}
	return o, nil
}

func stringField(payload Wire, key string) (string, bool) {
	s, ok := payload[key].(string)
	return s, ok
}

func boolField(payload Wire, key string) bool {
	b, _ := payload[key].(bool)
	return b
}

func optString(payload Wire, key string) *string {
	if s, ok := payload[key].(string); ok {
		return &s
	}
	return nil
}

func optFloat(payload Wire, key string) (*float64, error) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return nil, nil
	}
	d, err := toDecimal(raw)
	if err != nil {
		return nil, err
	}
	f, _ := d.Float64()
	return &f, nil
}

// toDecimal accepts the numeric shapes json.Unmarshal may produce
// (float64 by default, json.Number with UseNumber) plus plain strings.
func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case json.Number:
		return decimal.NewFromString(n.String())
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case string:
		return decimal.NewFromString(n)
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported type %T", v)
	}
}

func strPtrValue(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtrValue(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
