package source

import (
	"context"

	"trading-board-go/order"
)

// ChanSource 进程内通道源，供测试与 dry-run 使用。
type ChanSource struct {
	ch chan order.Wire
}

func NewChanSource(buffer int) *ChanSource {
	return &ChanSource{ch: make(chan order.Wire, buffer)}
}

func (s *ChanSource) Next(ctx context.Context) (order.Wire, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case payload, ok := <-s.ch:
		if !ok {
			return nil, ErrSourceClosed
		}
		return payload, nil
	}
}

// Publish 投递一条负载；Close 之后不可再调用。
func (s *ChanSource) Publish(payload order.Wire) {
	s.ch <- payload
}

func (s *ChanSource) Close() {
	close(s.ch)
}
