package handler

import (
	"fmt"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/service"
)

// ExportHandler Excel导出处理器
type ExportHandler struct {
	svc *service.ExportService
}

// NewExportHandler 创建导出处理器
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// ProductionSummary 导出生产投入汇总Excel
// archive=true时同时归档到对象存储并返回归档路径
func (h *ExportHandler) ProductionSummary(c *gin.Context) {
	productionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	f, filename, err := h.svc.ProductionSummaryXLSX(c.Request.Context(), GetERPToken(c), productionID)
	if err != nil {
		RespondError(c, err)
		return
	}

	if c.Query("archive") == "true" {
		location, err := h.svc.Archive(c.Request.Context(), f, filename)
		if err != nil {
			RespondError(c, err)
			return
		}
		Success(c, gin.H{"location": location, "filename": filename})
		return
	}

	writeXLSX(c, f, filename)
}

// OrderReport 导出订单对账Excel
func (h *ExportHandler) OrderReport(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	f, filename, err := h.svc.OrderReportXLSX(c.Request.Context(), GetERPToken(c), orderID)
	if err != nil {
		RespondError(c, err)
		return
	}

	if c.Query("archive") == "true" {
		location, err := h.svc.Archive(c.Request.Context(), f, filename)
		if err != nil {
			RespondError(c, err)
			return
		}
		Success(c, gin.H{"location": location, "filename": filename})
		return
	}

	writeXLSX(c, f, filename)
}

func writeXLSX(c *gin.Context, f *excelize.File, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, filename, url.QueryEscape(filename)))
	c.Header("Cache-Control", "no-store")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "failed to write workbook")
	}
}
