// Package notify 浏览器通知通道
// 变更成功/失败的toast和长时操作完成事件通过SSE推送给已连接的操作员
package notify

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event 一条服务器推送事件
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client 一个已连接的SSE客户端
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub 管理全部SSE客户端连接
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub 创建Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register 注册新客户端
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("sse client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)),
	)
}

// Unregister 注销客户端
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("sse client unregistered",
			zap.String("client_id", clientID),
			zap.Int("total", len(h.clients)),
		)
	}
}

// Broadcast 向全部客户端广播
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("sse client buffer full, dropping event",
				zap.String("client_id", client.ID),
				zap.String("event", event.EventType),
			)
		}
	}
}

// SendToUser 向特定用户的全部连接发送
func (h *Hub) SendToUser(userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.UserID != userID {
			continue
		}
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("sse client buffer full, dropping user event",
				zap.String("client_id", client.ID),
				zap.String("event", event.EventType),
			)
		}
	}
}

// toastPayload toast通知载荷
type toastPayload struct {
	Success  bool   `json:"success"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Message  string `json:"message"`
}

// PublishMutationResult 推送变更结果toast
// 成功与失败都上报；失败消息优先用服务端的用户可见文案
func (h *Hub) PublishMutationResult(userID, resource, action string, success bool, message string) {
	data, _ := json.Marshal(toastPayload{
		Success:  success,
		Resource: resource,
		Action:   action,
		Message:  message,
	})
	h.SendToUser(userID, Event{EventType: "mutation_result", Data: string(data)})
}

// PublishAnalysisDone 推送PDF分析完成事件
func (h *Hub) PublishAnalysisDone(userID, status string, lines int) {
	data, _ := json.Marshal(map[string]interface{}{
		"status": status,
		"lines":  lines,
	})
	h.SendToUser(userID, Event{EventType: "analysis_done", Data: string(data)})
}

// PublishResourceUpdate 广播资源变更（其他在看同一父记录的操作员刷新）
func (h *Hub) PublishResourceUpdate(resource string, parentID int, action string) {
	data, _ := json.Marshal(map[string]interface{}{
		"resource": resource,
		"parentId": parentID,
		"action":   action,
	})
	h.Broadcast(Event{EventType: "resource_update", Data: string(data)})
}
