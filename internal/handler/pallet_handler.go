package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/service"
)

// PalletHandler 托盘与箱处理器
type PalletHandler struct {
	svc *service.ProductionService
}

// NewPalletHandler 创建托盘处理器
func NewPalletHandler(svc *service.ProductionService) *PalletHandler {
	return &PalletHandler{svc: svc}
}

// List 获取托盘列表
// only_available=true时仅返回含可用箱的托盘
func (h *PalletHandler) List(c *gin.Context) {
	filter := palletFilterFromQuery(c)
	filter.OnlyAvailable = c.Query("only_available") == "true"
	filter.Page, filter.PageSize = GetPagination(c)

	pallets, meta, err := h.svc.Pallets(c.Request.Context(), GetERPToken(c), filter)
	if err != nil {
		RespondError(c, err)
		return
	}

	resp := ListResponse{Items: pallets}
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

// Get 获取单个托盘
func (h *PalletHandler) Get(c *gin.Context) {
	palletID, ok := pathID(c, "id")
	if !ok {
		return
	}

	pallet, err := h.svc.Pallet(c.Request.Context(), GetERPToken(c), palletID)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, pallet)
}
