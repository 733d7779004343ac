// Package source provides Order Source transports for the relay:
// Redis pub/sub (the production path), a websocket feed, and an
// in-process channel for tests and dry-run.
package source

import "errors"

// ErrSourceClosed 源已经耗尽或被关闭，消费循环应当退出。
var ErrSourceClosed = errors.New("order source closed")
