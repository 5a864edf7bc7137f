package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/service"
)

// PunchHandler 考勤打卡处理器
type PunchHandler struct {
	svc *service.PunchService
}

// NewPunchHandler 创建考勤处理器
func NewPunchHandler(svc *service.PunchService) *PunchHandler {
	return &PunchHandler{svc: svc}
}

func dateRangeFromQuery(c *gin.Context) (from, to time.Time, ok bool) {
	layout := "2006-01-02"
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(layout, v)
		if err != nil {
			BadRequest(c, "invalid from date")
			return from, to, false
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(layout, v)
		if err != nil {
			BadRequest(c, "invalid to date")
			return from, to, false
		}
		to = t
	}
	return from, to, true
}

// List 获取打卡记录列表
func (h *PunchHandler) List(c *gin.Context) {
	from, to, ok := dateRangeFromQuery(c)
	if !ok {
		return
	}
	employeeID, _ := strconv.Atoi(c.Query("employee_id"))

	punches, err := h.svc.List(c.Request.Context(), GetERPToken(c), employeeID, from, to)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, punches)
}

// Create 创建单条打卡记录
func (h *PunchHandler) Create(c *gin.Context) {
	var payload erp.PunchPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	punch, err := h.svc.Create(c.Request.Context(), GetERPToken(c), GetUserID(c), payload)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, punch)
}

// BulkImport 批量导入打卡记录
// 后端整体回滚时返回409，逐行结果随201/200返回
func (h *PunchHandler) BulkImport(c *gin.Context) {
	var req struct {
		Punches []erp.PunchPayload `json:"punches"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	result, err := h.svc.BulkImport(c.Request.Context(), GetERPToken(c), GetUserID(c), req.Punches)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, result)
}

// WorkerStats 获取工人出勤统计
func (h *PunchHandler) WorkerStats(c *gin.Context) {
	from, to, ok := dateRangeFromQuery(c)
	if !ok {
		return
	}

	stats, err := h.svc.WorkerStats(c.Request.Context(), GetERPToken(c), from, to)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, stats)
}
