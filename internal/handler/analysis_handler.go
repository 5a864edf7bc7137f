package handler

import (
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/service"
)

// 上传的交货单PDF大小上限
const maxDeliveryNoteSize = 20 << 20

// AnalysisHandler 交货单PDF分析处理器
type AnalysisHandler struct {
	svc *service.AnalysisService
}

// NewAnalysisHandler 创建分析处理器
func NewAnalysisHandler(svc *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

// AnalyzeDeliveryNote 上传交货单PDF并等待分析完成
// 同步等待后端轮询结束；完成事件同时经SSE推送
func (h *AnalysisHandler) AnalyzeDeliveryNote(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}
	if fileHeader.Size > maxDeliveryNoteSize {
		BadRequest(c, "file too large")
		return
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		BadRequest(c, "only PDF files are supported")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "failed to read upload")
		return
	}
	defer f.Close()

	result, err := h.svc.AnalyzeDeliveryNote(c.Request.Context(), GetERPToken(c), GetUserID(c), f, fileHeader.Size, fileHeader.Filename)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, result)
}
