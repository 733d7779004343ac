package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsTestServer(t *testing.T, messages []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// 发送完毕后等对端关闭
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestWSSourceDeliversPayloads(t *testing.T) {
	srv := wsTestServer(t, []string{
		`{"order_id":"ws-1","size":1.5}`,
		`{"order_id":"ws-2","size":2}`,
	})
	defer srv.Close()

	src, err := NewWSSource("ws" + strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	first, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ws-1", first["order_id"])
	second, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ws-2", second["order_id"])
}

// Close 必须能解除读循环在满通道上的阻塞，否则 goroutine 泄漏。
func TestWSSourceCloseUnblocksReadLoop(t *testing.T) {
	before := runtime.NumGoroutine()

	msgs := make([]string, 0, 32)
	for i := 0; i < 32; i++ {
		msgs = append(msgs, `{"order_id":"ws-flood","size":1}`)
	}
	srv := wsTestServer(t, msgs)

	src, err := NewWSSource("ws" + strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)

	// 不调用 Next，让读循环填满缓冲并阻塞在 send 上
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, src.Close())
	srv.Close()

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 20*time.Millisecond, "read loop did not exit after Close")
}

func TestWSSourceDisconnect(t *testing.T) {
	srv := wsTestServer(t, []string{`{"order_id":"ws-1"}`})

	src, err := NewWSSource("ws" + strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = src.Next(ctx)
	require.NoError(t, err)

	// 服务端关闭后 Next 返回错误而不是挂起
	srv.Close()
	_, err = src.Next(ctx)
	require.Error(t, err)
}
