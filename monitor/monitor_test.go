package monitor

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	m := New(DefaultConfig())
	m.RecordOrderReceived()
	m.RecordOrderReceived()
	m.RecordOrderFilled()
	m.RecordOrderRejected()
	m.RecordDuplicate()
	m.RecordInvalidPayload()
	m.RecordStoreError("create_order")
	m.RecordSourceError()
	m.RecordExecutionLatency(0.2)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ordersReceived))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ordersFilled))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ordersRejected))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ordersDuplicate))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.invalidPayloads))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.storeErrors.WithLabelValues("create_order")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.sourceErrors))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(DefaultConfig())
	m.RecordOrderFilled()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "trading_board_relay_orders_filled_total 1")
}
