package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor Prometheus监控指标收集器
type Monitor struct {
	registry *prometheus.Registry

	// 订单指标
	ordersReceived   prometheus.Counter
	ordersFilled     prometheus.Counter
	ordersRejected   prometheus.Counter
	ordersDuplicate  prometheus.Counter
	invalidPayloads  prometheus.Counter
	executionLatency prometheus.Histogram

	// 存储/源指标
	storeErrors  *prometheus.CounterVec
	sourceErrors prometheus.Counter
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "trading_board",
		Subsystem: "relay",
	}
}

// New 创建新的Monitor实例
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Monitor{
		registry: reg,

		ordersReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orders_received_total",
			Help:      "订单接收总数",
		}),
		ordersFilled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orders_filled_total",
			Help:      "订单成交总数",
		}),
		ordersRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orders_rejected_total",
			Help:      "订单拒绝总数",
		}),
		ordersDuplicate: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orders_duplicate_total",
			Help:      "重复投递订单总数",
		}),
		invalidPayloads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "invalid_payloads_total",
			Help:      "校验失败的负载总数",
		}),
		executionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "execution_latency_seconds",
			Help:      "执行端点调用延迟（秒）",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "store_errors_total",
				Help:      "存储操作错误总数",
			},
			[]string{"operation"},
		),
		sourceErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "source_errors_total",
			Help:      "订单源读取错误总数",
		}),
	}
}

func (m *Monitor) RecordOrderReceived() {
	m.ordersReceived.Inc()
}

func (m *Monitor) RecordOrderFilled() {
	m.ordersFilled.Inc()
}

func (m *Monitor) RecordOrderRejected() {
	m.ordersRejected.Inc()
}

func (m *Monitor) RecordDuplicate() {
	m.ordersDuplicate.Inc()
}

func (m *Monitor) RecordInvalidPayload() {
	m.invalidPayloads.Inc()
}

func (m *Monitor) RecordExecutionLatency(seconds float64) {
	m.executionLatency.Observe(seconds)
}

func (m *Monitor) RecordStoreError(operation string) {
	m.storeErrors.WithLabelValues(operation).Inc()
}

func (m *Monitor) RecordSourceError() {
	m.sourceErrors.Inc()
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

// Serve 启动指标服务器；addr 为空则不启动。
func Serve(addr string, m *Monitor) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
