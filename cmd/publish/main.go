// 把一条订单负载发布到 Redis 频道，模拟 analysis 侧的信号桥。
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"trading-board-go/config"
	"trading-board-go/order"
	"trading-board-go/source"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	payloadFile := flag.String("file", "", "订单 JSON 文件路径")
	payloadJSON := flag.String("json", "", "内联订单 JSON")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	var raw []byte
	switch {
	case *payloadFile != "":
		raw, err = os.ReadFile(*payloadFile)
		if err != nil {
			log.Fatalf("读取负载失败: %v", err)
		}
	case *payloadJSON != "":
		raw = []byte(*payloadJSON)
	default:
		log.Fatal("需要 -file 或 -json")
	}

	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var payload order.Wire
	if err := dec.Decode(&payload); err != nil {
		log.Fatalf("解析负载失败: %v", err)
	}
	o, err := order.FromWire(payload)
	if err != nil {
		log.Fatalf("负载无效: %v", err)
	}

	pub, err := source.NewRedisPublisher(cfg.Source.RedisURL, cfg.Source.RedisChannel)
	if err != nil {
		log.Fatalf("连接 redis 失败: %v", err)
	}
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pub.Publish(ctx, o); err != nil {
		log.Fatalf("发布失败: %v", err)
	}
	log.Printf("published order %s to %s", o.OrderID, cfg.Source.RedisChannel)
}
