package erp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// =============================================================================
// 员工考勤打卡。批量端点有三态语义，必须按状态码+载荷形状区分：
//   201                      → 全部成功
//   200 + 顶层message        → 服务端整体回滚（全有或全无）
//   422                      → 全部校验失败
// =============================================================================

// PunchPayload 打卡行载荷
type PunchPayload struct {
	EmployeeID int       `json:"employeeId"`
	Timestamp  time.Time `json:"timestamp"`
	Direction  string    `json:"direction"`
	Source     string    `json:"source,omitempty"`
}

// PunchItemResult 批量结果中的单行明细
type PunchItemResult struct {
	Index   int    `json:"index"`
	Success bool   `json:"success"`
	Punch   *Punch `json:"punch,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BulkPunchResult 批量打卡结果汇总
type BulkPunchResult struct {
	Created int               `json:"created"`
	Failed  int               `json:"failed"`
	Results []PunchItemResult `json:"results"`
	Errors  []string          `json:"errors"`
}

// ListPunches 获取打卡列表
func (c *Client) ListPunches(ctx context.Context, token string, employeeID int, from, to time.Time) ([]Punch, error) {
	query := url.Values{}
	if employeeID > 0 {
		query.Set("employeeId", strconv.Itoa(employeeID))
	}
	if !from.IsZero() {
		query.Set("from", from.Format(time.RFC3339))
	}
	if !to.IsZero() {
		query.Set("to", to.Format(time.RFC3339))
	}

	var punches []Punch
	if _, err := c.getList(ctx, token, "/api/v1/punches", query, &punches, "Error al obtener los fichajes"); err != nil {
		return nil, err
	}
	return punches, nil
}

// CreatePunch 创建单条打卡
func (c *Client) CreatePunch(ctx context.Context, token string, payload PunchPayload) (*Punch, error) {
	var created Punch
	if err := c.send(ctx, token, http.MethodPost, "/api/v1/punches", payload, &created, "Error al registrar el fichaje"); err != nil {
		return nil, err
	}
	return &created, nil
}

// BulkCreatePunches 批量创建打卡
// 载荷形状 {punches: [...]}；三态映射见包头注释
func (c *Client) BulkCreatePunches(ctx context.Context, token string, payloads []PunchPayload) (*BulkPunchResult, error) {
	body := map[string]interface{}{"punches": payloads}
	fallback := "Error al importar los fichajes"

	status, respBody, err := c.do(ctx, token, http.MethodPost, "/api/v1/punches/bulk", body, fallback)
	if err != nil {
		if apiErr, ok := AsError(err); ok && apiErr.Status == 422 {
			// 全部校验失败：聚合明细随错误返回
			return nil, apiErr
		}
		return nil, err
	}

	switch status {
	case http.StatusCreated:
		var env struct {
			Data BulkPunchResult `json:"data"`
		}
		if err := json.Unmarshal(respBody, &env); err != nil {
			return nil, fmt.Errorf("decode bulk result: %w", err)
		}
		return &env.Data, nil

	case http.StatusOK:
		// 200带顶层message且无嵌套结果 → 服务端回滚
		var probe struct {
			Message string `json:"message"`
			Data    *struct {
				Created *int `json:"created"`
				Failed  *int `json:"failed"`
			} `json:"data"`
		}
		if err := json.Unmarshal(respBody, &probe); err != nil {
			return nil, fmt.Errorf("decode bulk response: %w", err)
		}
		if probe.Data != nil && probe.Data.Created != nil && probe.Data.Failed != nil {
			var env struct {
				Data BulkPunchResult `json:"data"`
			}
			if err := json.Unmarshal(respBody, &env); err != nil {
				return nil, fmt.Errorf("decode bulk result: %w", err)
			}
			return &env.Data, nil
		}
		return nil, &Error{
			Kind:        KindRollback,
			Status:      status,
			Message:     probe.Message,
			UserMessage: fallback,
		}

	default:
		return nil, &Error{
			Kind:        KindServer,
			Status:      status,
			Message:     fmt.Sprintf("unexpected bulk punch status %d", status),
			UserMessage: fallback,
		}
	}
}

// GetWorkerStats 获取工人统计
func (c *Client) GetWorkerStats(ctx context.Context, token string, from, to time.Time) ([]WorkerStats, error) {
	query := url.Values{}
	if !from.IsZero() {
		query.Set("from", from.Format(time.RFC3339))
	}
	if !to.IsZero() {
		query.Set("to", to.Format(time.RFC3339))
	}

	var stats []WorkerStats
	if _, err := c.getList(ctx, token, "/api/v1/punches/worker-stats", query, &stats, "Error al obtener estadísticas de trabajadores"); err != nil {
		return nil, err
	}
	return stats, nil
}
