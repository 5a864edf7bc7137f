package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/service"
)

// OrderHandler 订单与计划明细处理器
type OrderHandler struct {
	svc *service.OrderService
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// List 获取订单列表
func (h *OrderHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	orders, meta, err := h.svc.List(c.Request.Context(), GetERPToken(c), page, pageSize)
	if err != nil {
		RespondError(c, err)
		return
	}

	resp := ListResponse{Items: orders}
	if meta != nil {
		resp.Pagination = &Pagination{
			Page:       meta.CurrentPage,
			PageSize:   meta.PerPage,
			Total:      meta.Total,
			TotalPages: meta.LastPage,
		}
	}
	Success(c, resp)
}

// Get 获取订单详情
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.svc.Get(c.Request.Context(), GetERPToken(c), orderID)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}

// MergedDetails 计划与实际对账视图
func (h *OrderHandler) MergedDetails(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, err := h.svc.MergedDetails(c.Request.Context(), GetERPToken(c), orderID)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, view)
}

// AddPlannedDetail 新增计划明细
func (h *OrderHandler) AddPlannedDetail(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var payload erp.PlannedDetailPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	if err := h.svc.AddPlannedDetail(c.Request.Context(), GetERPToken(c), GetUserID(c), orderID, payload); err != nil {
		RespondError(c, err)
		return
	}
	Created(c, nil)
}

// UpdatePlannedDetail 更新计划明细
func (h *OrderHandler) UpdatePlannedDetail(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	detailID, ok := pathID(c, "detailId")
	if !ok {
		return
	}

	var payload erp.PlannedDetailPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	if err := h.svc.UpdatePlannedDetail(c.Request.Context(), GetERPToken(c), GetUserID(c), orderID, detailID, payload); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

// DeletePlannedDetail 删除计划明细
func (h *OrderHandler) DeletePlannedDetail(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	detailID, ok := pathID(c, "detailId")
	if !ok {
		return
	}

	if err := h.svc.DeletePlannedDetail(c.Request.Context(), GetERPToken(c), GetUserID(c), orderID, detailID); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}
