package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"trading-board-go/order"
)

// RedisSource Redis Pub/Sub 订阅端；每条消息是一个扁平 JSON 订单负载。
type RedisSource struct {
	client  *redis.Client
	pubsub  *redis.PubSub
	msgs    <-chan *redis.Message
	channel string
}

func NewRedisSource(ctx context.Context, redisURL, channel string) (*RedisSource, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	pubsub := client.Subscribe(ctx, channel)
	// 等待订阅确认，失败时尽早报错而不是静默空转。
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		_ = client.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	return &RedisSource{
		client:  client,
		pubsub:  pubsub,
		msgs:    pubsub.Channel(),
		channel: channel,
	}, nil
}

func (s *RedisSource) Next(ctx context.Context) (order.Wire, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-s.msgs:
		if !ok {
			return nil, ErrSourceClosed
		}
		return decodePayload(msg.Payload)
	}
}

func (s *RedisSource) Close() error {
	if err := s.pubsub.Close(); err != nil {
		_ = s.client.Close()
		return err
	}
	return s.client.Close()
}

// RedisPublisher 发布端；analysis 侧用它把信号转成订单投递。
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(redisURL, channel string) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisPublisher{client: redis.NewClient(opt), channel: channel}, nil
}

// Publish 校验后发布订单负载。
func (p *RedisPublisher) Publish(ctx context.Context, o order.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(o.ToWire())
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, raw).Err()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// decodePayload 解码时保留数字精度（UseNumber），避免 size 走 float64。
func decodePayload(raw string) (order.Wire, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var payload order.Wire
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode order payload: %w", err)
	}
	return payload, nil
}
