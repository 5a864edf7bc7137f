package erp

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// =============================================================================
// 交货单PDF数据提取（长时操作）
// 提交后返回操作位置，按固定间隔轮询到终态
// 轮询可被context取消，且有最大尝试次数上限
// =============================================================================

// AnalysisStatus 分析操作状态
const (
	AnalysisRunning   = "running"
	AnalysisSucceeded = "succeeded"
	AnalysisFailed    = "failed"
)

// AnalysisOperation 已提交的分析操作
type AnalysisOperation struct {
	Location string `json:"location"`
}

// AnalysisLine 从PDF提取出的一行交货数据
type AnalysisLine struct {
	ProductName string  `json:"productName"`
	Lot         string  `json:"lot"`
	NetWeight   float64 `json:"netWeight"`
	Boxes       int     `json:"boxes"`
}

// AnalysisResult 分析终态结果
type AnalysisResult struct {
	Status string         `json:"status"`
	Lines  []AnalysisLine `json:"lines"`
	Error  string         `json:"error,omitempty"`
}

// SubmitAnalysis 提交PDF分析，objectKey为已暂存文件的对象键
func (c *Client) SubmitAnalysis(ctx context.Context, token, objectKey string) (*AnalysisOperation, error) {
	var op AnalysisOperation
	body := map[string]string{"objectKey": objectKey}
	if err := c.send(ctx, token, http.MethodPost, "/api/v1/analysis/delivery-notes", body, &op, "Error al analizar el albarán"); err != nil {
		return nil, err
	}
	return &op, nil
}

// PollAnalysis 轮询分析操作直到终态
// interval为轮询间隔，maxAttempts为尝试上限；超限或ctx取消后返回错误
func (c *Client) PollAnalysis(ctx context.Context, token, location string, interval time.Duration, maxAttempts int) (*AnalysisResult, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		var result AnalysisResult
		if err := c.getOne(ctx, token, location, &result, "Error al consultar el análisis"); err != nil {
			return nil, err
		}

		switch result.Status {
		case AnalysisSucceeded, AnalysisFailed:
			return &result, nil
		}

		select {
		case <-ctx.Done():
			return nil, &Error{
				Kind:        KindNetwork,
				Message:     ctx.Err().Error(),
				UserMessage: "Análisis cancelado",
				cause:       ctx.Err(),
			}
		case <-ticker.C:
		}
	}

	return nil, &Error{
		Kind:        KindServer,
		Message:     fmt.Sprintf("analysis did not finish after %d attempts", maxAttempts),
		UserMessage: "El análisis del albarán ha tardado demasiado",
	}
}
