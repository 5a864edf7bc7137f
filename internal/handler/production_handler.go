package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/service"
)

// ProductionHandler 生产投入/消耗处理器
type ProductionHandler struct {
	svc *service.ProductionService
}

// NewProductionHandler 创建生产处理器
func NewProductionHandler(svc *service.ProductionService) *ProductionHandler {
	return &ProductionHandler{svc: svc}
}

// ==================== 投入行 ====================

// Inputs 获取投入行视图（明细+按托盘/按产品汇总）
func (h *ProductionHandler) Inputs(c *gin.Context) {
	productionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	hasParent := c.DefaultQuery("has_parent", "true") != "false"

	view := h.svc.Inputs(c.Request.Context(), GetERPToken(c), productionID, hasParent)
	Success(c, view)
}

// AddInput 新增投入行
func (h *ProductionHandler) AddInput(c *gin.Context) {
	productionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var payload erp.ProductionInputPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	if err := h.svc.AddInput(c.Request.Context(), GetERPToken(c), GetUserID(c), productionID, payload); err != nil {
		RespondError(c, err)
		return
	}
	Created(c, nil)
}

// UpdateInput 更新投入行
func (h *ProductionHandler) UpdateInput(c *gin.Context) {
	productionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	inputID, ok := pathID(c, "inputId")
	if !ok {
		return
	}

	var payload erp.ProductionInputPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	if err := h.svc.UpdateInput(c.Request.Context(), GetERPToken(c), GetUserID(c), productionID, inputID, payload); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

// DeleteInput 删除投入行
func (h *ProductionHandler) DeleteInput(c *gin.Context) {
	productionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	inputID, ok := pathID(c, "inputId")
	if !ok {
		return
	}

	if err := h.svc.DeleteInput(c.Request.Context(), GetERPToken(c), GetUserID(c), productionID, inputID); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

// ReselectInputs 整体替换投入行选择
func (h *ProductionHandler) ReselectInputs(c *gin.Context) {
	productionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Selection []erp.ProductionInputPayload `json:"selection"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	if err := h.svc.ReselectInputs(c.Request.Context(), GetERPToken(c), GetUserID(c), productionID, req.Selection); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

// ==================== 选箱辅助 ====================

func palletFilterFromQuery(c *gin.Context) erp.PalletFilter {
	filter := erp.PalletFilter{OnlyAvailable: true}
	if v, err := strconv.Atoi(c.Query("store_id")); err == nil && v > 0 {
		filter.StoreID = v
	}
	if v, err := strconv.Atoi(c.Query("product_id")); err == nil && v > 0 {
		filter.ProductID = v
	}
	return filter
}

// SearchBoxes 按目标重量搜索可用箱
func (h *ProductionHandler) SearchBoxes(c *gin.Context) {
	target, err := strconv.ParseFloat(c.Query("target"), 64)
	if err != nil || target <= 0 {
		BadRequest(c, "invalid target")
		return
	}
	tolerance, _ := strconv.ParseFloat(c.DefaultQuery("tolerance", "0"), 64)
	exact := c.Query("exact") == "true"

	matches, err := h.svc.SearchBoxes(c.Request.Context(), GetERPToken(c), palletFilterFromQuery(c), target, tolerance, exact)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, matches)
}

// FillToTarget 贪心选箱凑目标重量
func (h *ProductionHandler) FillToTarget(c *gin.Context) {
	target, err := strconv.ParseFloat(c.Query("target"), 64)
	if err != nil || target <= 0 {
		BadRequest(c, "invalid target")
		return
	}

	result, err := h.svc.FillToTarget(c.Request.Context(), GetERPToken(c), palletFilterFromQuery(c), target)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, result)
}

// ScanBoxes 解析GS1-128条码批量匹配箱
func (h *ProductionHandler) ScanBoxes(c *gin.Context) {
	var req struct {
		Payload   string `json:"payload"`
		StoreID   int    `json:"storeId"`
		ProductID int    `json:"productId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	if req.Payload == "" {
		BadRequest(c, "payload is required")
		return
	}

	filter := erp.PalletFilter{StoreID: req.StoreID, ProductID: req.ProductID, OnlyAvailable: true}
	result, err := h.svc.ScanBoxes(c.Request.Context(), GetERPToken(c), filter, req.Payload)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, result)
}

// ==================== 消耗行 ====================

// Consumptions 获取消耗行列表
func (h *ProductionHandler) Consumptions(c *gin.Context) {
	productionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	rows, err := h.svc.Consumptions(c.Request.Context(), GetERPToken(c), productionID)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, rows)
}

// SaveConsumptions 整体保存消耗行（同步端点，旧后端自动降级为逐行差量）
func (h *ProductionHandler) SaveConsumptions(c *gin.Context) {
	productionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Rows []service.ConsumptionRow `json:"rows"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	if err := h.svc.SaveConsumptions(c.Request.Context(), GetERPToken(c), GetUserID(c), productionID, req.Rows); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}
