package source

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"trading-board-go/order"
)

// WSSource websocket 订单流；连接后由内部读循环把消息送入通道，
// Next 在 ctx 与读循环之间做选择。
type WSSource struct {
	conn      *websocket.Conn
	msgs      chan order.Wire
	errs      chan error
	done      chan struct{}
	closeOnce sync.Once
}

func NewWSSource(feedURL string) (*WSSource, error) {
	conn, _, err := websocket.DefaultDialer.Dial(feedURL, nil)
	if err != nil {
		return nil, err
	}
	s := &WSSource{
		conn: conn,
		msgs: make(chan order.Wire, 16),
		errs: make(chan error, 1),
		done: make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

func (s *WSSource) readLoop() {
	defer close(s.msgs)
	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			s.errs <- err
			return
		}
		payload, err := decodePayload(string(message))
		if err != nil {
			s.errs <- err
			return
		}
		// 消费者可能已经不再调用 Next，Close 后阻塞的 send 必须能退出
		select {
		case s.msgs <- payload:
		case <-s.done:
			return
		}
	}
}

func (s *WSSource) Next(ctx context.Context) (order.Wire, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-s.errs:
		return nil, err
	case payload, ok := <-s.msgs:
		if !ok {
			// 读循环已退出，优先交付其错误。
			select {
			case err := <-s.errs:
				return nil, err
			default:
				return nil, ErrSourceClosed
			}
		}
		return payload, nil
	}
}

func (s *WSSource) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return s.conn.Close()
}
