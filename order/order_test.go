package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrder() Order {
	o := New()
	o.SourceAgent = "agent-alpha"
	o.Epic = "IX.D.ASX.IFM.IP"
	o.Direction = DirectionBuy
	o.Size = decimal.NewFromFloat(1.0)
	o.CurrencyCode = "AUD"
	return o
}

func TestValidateOK(t *testing.T) {
	require.NoError(t, validOrder().Validate())
}

func TestValidateFirstViolatedFieldWins(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Order)
		field  string
	}{
		{"missing source_agent", func(o *Order) { o.SourceAgent = "" }, "source_agent"},
		{"missing epic", func(o *Order) { o.Epic = "" }, "epic"},
		{"direction HOLD", func(o *Order) { o.Direction = "HOLD" }, "direction"},
		{"empty direction", func(o *Order) { o.Direction = "" }, "direction"},
		{"zero size", func(o *Order) { o.Size = decimal.Zero }, "size"},
		{"negative size", func(o *Order) { o.Size = decimal.NewFromInt(-1) }, "size"},
		{"missing currency_code", func(o *Order) { o.CurrencyCode = "" }, "currency_code"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			o := validOrder()
			tc.mutate(&o)
			err := o.Validate()
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestNewDefaults(t *testing.T) {
	o := New()
	assert.NotEmpty(t, o.OrderID)
	assert.Equal(t, "MARKET", o.OrderType)
	assert.Equal(t, "-", o.Expiry)
	assert.Equal(t, StatusPending, o.Status)
	assert.NotNil(t, o.Metadata)
	assert.False(t, o.CreatedAt.IsZero())
}
