package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/notify"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Production *ProductionHandler
	Pallet     *PalletHandler
	Order      *OrderHandler
	Punch      *PunchHandler
	Export     *ExportHandler
	Analysis   *AnalysisHandler
	SSE        *SSEHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, hub *notify.Hub) *Handlers {
	return &Handlers{
		Production: NewProductionHandler(svc.Production),
		Pallet:     NewPalletHandler(svc.Production),
		Order:      NewOrderHandler(svc.Order),
		Punch:      NewPunchHandler(svc.Punch),
		Export:     NewExportHandler(svc.Export),
		Analysis:   NewAnalysisHandler(svc.Analysis),
		SSE:        NewSSEHandler(hub),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// RespondError 按错误类别翻译为HTTP响应
// 校验错误 → 400；ERP类型化错误按Kind映射；其余 → 500
func RespondError(c *gin.Context, err error) {
	if service.IsValidation(err) {
		BadRequest(c, err.Error())
		return
	}
	if apiErr, ok := erp.AsError(err); ok {
		switch apiErr.Kind {
		case erp.KindNotFound:
			NotFound(c, apiErr.DisplayMessage())
		case erp.KindValidation:
			Error(c, 42200, apiErr.DisplayMessage())
		case erp.KindRollback:
			Error(c, 40900, apiErr.DisplayMessage())
		case erp.KindNetwork:
			Error(c, 50200, apiErr.DisplayMessage())
		default:
			InternalError(c, apiErr.DisplayMessage())
		}
		return
	}
	InternalError(c, err.Error())
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetERPToken 从上下文获取转发给ERP后端的令牌
func GetERPToken(c *gin.Context) string {
	token, _ := c.Get("erp_token")
	if t, ok := token.(string); ok {
		return t
	}
	return ""
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
