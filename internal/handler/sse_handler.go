package handler

import (
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/notify"
)

// SSEHandler 服务器推送事件处理器
type SSEHandler struct {
	hub *notify.Hub
}

// NewSSEHandler 创建SSE处理器
func NewSSEHandler(hub *notify.Hub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// Stream 建立SSE长连接
// 心跳每25秒一次，连接断开或上下文取消时注销客户端
func (h *SSEHandler) Stream(c *gin.Context) {
	client := &notify.Client{
		ID:     uuid.New().String(),
		UserID: GetUserID(c),
		Events: make(chan notify.Event, 16),
	}
	h.hub.Register(client)
	defer h.hub.Unregister(client.ID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return false
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.EventType, event.Data)
			return true
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
