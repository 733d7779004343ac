package relay

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"trading-board-go/execution"
	"trading-board-go/infrastructure/logger"
	"trading-board-go/monitor"
	"trading-board-go/order"
	"trading-board-go/store"
)

// Source 按到达顺序逐条交付订单负载；Next 在没有新消息时阻塞。
// 只有源本身耗尽或致命断开时才返回错误。
type Source interface {
	Next(ctx context.Context) (order.Wire, error)
}

// Result 每笔订单恰好产生一个结果。
type Result struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

const (
	ResultFilled    = "filled"
	ResultRejected  = "rejected"
	ResultDuplicate = "duplicate"
)

// Relay 驱动订单状态机：create → executing → filled/rejected。
// 单个顺序工作循环，一次处理一笔，处理完才取下一笔。
type Relay struct {
	source  Source
	store   store.OrderStore
	adapter *execution.Adapter
	log     *logger.Logger
	mon     *monitor.Monitor

	// 执行调用的超时上限（纳秒），可热更新；0 表示不限时。
	execTimeout atomic.Int64
}

func New(src Source, st store.OrderStore, adapter *execution.Adapter, log *logger.Logger, mon *monitor.Monitor, execTimeout time.Duration) *Relay {
	r := &Relay{
		source:  src,
		store:   st,
		adapter: adapter,
		log:     log,
		mon:     mon,
	}
	r.execTimeout.Store(int64(execTimeout))
	return r
}

// SetExecutionTimeout 热更新执行超时。
func (r *Relay) SetExecutionTimeout(d time.Duration) {
	r.execTimeout.Store(int64(d))
}

// ProcessOrder 处理一条订单负载。校验失败直接上抛，不落库；
// 执行失败被捕获并记录为 REJECTED，不会作为错误传播。
func (r *Relay) ProcessOrder(ctx context.Context, payload order.Wire) (Result, error) {
	o, err := order.FromWire(payload)
	if err != nil {
		r.mon.RecordInvalidPayload()
		return Result{}, err
	}
	if err := o.Validate(); err != nil {
		r.mon.RecordInvalidPayload()
		return Result{}, err
	}

	if err := r.store.CreateOrder(ctx, o); err != nil {
		if errors.Is(err, store.ErrDuplicateOrder) {
			// at-least-once 重复投递：该订单已在处理中，跳过即可。
			r.mon.RecordDuplicate()
			r.log.LogOrder("order_duplicate", o.OrderID, nil)
			return Result{OrderID: o.OrderID, Status: ResultDuplicate}, nil
		}
		r.mon.RecordStoreError("create_order")
		return Result{}, err
	}
	r.log.LogOrder("order_created", o.OrderID, map[string]interface{}{
		"source_agent": o.SourceAgent,
		"epic":         o.Epic,
		"direction":    o.Direction,
		"size":         o.Size.String(),
	})

	if err := r.store.MarkExecuting(ctx, o.OrderID); err != nil {
		r.mon.RecordStoreError("mark_executing")
		r.log.LogError(err, map[string]interface{}{"order_id": o.OrderID, "step": "mark_executing"})
		return Result{}, err
	}
	r.log.LogOrder("order_executing", o.OrderID, nil)

	execCtx := ctx
	if d := time.Duration(r.execTimeout.Load()); d > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	started := time.Now()
	res, err := r.adapter.Submit(execCtx, o)
	r.mon.RecordExecutionLatency(time.Since(started).Seconds())
	if err != nil {
		// 执行失败是常态路径：单次尝试，终态 REJECTED，不重试。
		msg := err.Error()
		if err := r.store.MarkRejected(ctx, o.OrderID, msg); err != nil {
			r.mon.RecordStoreError("mark_rejected")
			return Result{}, err
		}
		r.mon.RecordOrderRejected()
		r.log.LogOrder("order_rejected", o.OrderID, map[string]interface{}{"error": msg})
		return Result{OrderID: o.OrderID, Status: ResultRejected, Error: msg}, nil
	}

	if err := r.store.MarkFilled(ctx, o.OrderID, res.Reference); err != nil {
		r.mon.RecordStoreError("mark_filled")
		return Result{}, err
	}
	r.mon.RecordOrderFilled()
	fields := map[string]interface{}{}
	if res.Reference != nil {
		fields["deal_reference"] = *res.Reference
	}
	r.log.LogOrder("order_filled", o.OrderID, fields)
	return Result{OrderID: o.OrderID, Status: ResultFilled}, nil
}

// Run 持续拉取负载并处理；单笔失败不会终止循环，
// 只有取下一条负载失败（源耗尽/断开）或 ctx 取消才会退出。
func (r *Relay) Run(ctx context.Context) error {
	for {
		payload, err := r.source.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.mon.RecordSourceError()
			r.log.LogError(err, map[string]interface{}{"step": "source_next"})
			return err
		}
		r.mon.RecordOrderReceived()
		result, err := r.ProcessOrder(ctx, payload)
		if err != nil {
			r.log.LogError(err, map[string]interface{}{"step": "process_order"})
			continue
		}
		r.log.LogOrder("order_result", result.OrderID, map[string]interface{}{
			"status": result.Status,
			"error":  result.Error,
		})
	}
}
