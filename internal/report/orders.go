package report

import (
	"math"
	"sort"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
)

// DetailStatus 计划与实际对账状态
type DetailStatus string

const (
	StatusPending    DetailStatus = "pending"    // 尚无生产，或偏差超出容差带
	StatusSuccess    DetailStatus = "success"    // 完全一致
	StatusDifference DetailStatus = "difference" // 容差带内的小偏差
	StatusNoPlanned  DetailStatus = "noPlanned"  // 有生产但无预测
)

// detailTolerance 计划/实际对账的容差带
const detailTolerance = 30.0

// MergedProductDetail 按产品合并的计划与实际视图
type MergedProductDetail struct {
	ProductID   int          `json:"productId"`
	ProductName string       `json:"productName"`
	Planned     float64      `json:"planned"`
	Actual      float64      `json:"actual"`
	Diff        float64      `json:"diff"`
	Boxes       int          `json:"boxes"`
	ActualBoxes int          `json:"actualBoxes"`
	Status      DetailStatus `json:"status"`
}

// MergeOrderDetails 按产品对账计划明细与实际明细
// 状态：success（P-A == 0）、difference（0 < |P-A| <= 30）、
// pending（|P-A| > 30）、noPlanned（该产品完全没有计划行）
func MergeOrderDetails(planned []erp.PlannedProductDetail, produced []erp.ProductionProductDetail) []MergedProductDetail {
	merged := make(map[int]*MergedProductDetail)
	var order []int

	for _, detail := range planned {
		row, ok := merged[detail.ProductID]
		if !ok {
			row = &MergedProductDetail{ProductID: detail.ProductID, ProductName: detail.ProductName}
			merged[detail.ProductID] = row
			order = append(order, detail.ProductID)
		}
		row.Planned += detail.Quantity
		row.Boxes += detail.Boxes
	}

	noPlanned := make(map[int]bool)
	for _, detail := range produced {
		row, ok := merged[detail.ProductID]
		if !ok {
			row = &MergedProductDetail{ProductID: detail.ProductID, ProductName: detail.ProductName}
			merged[detail.ProductID] = row
			order = append(order, detail.ProductID)
			noPlanned[detail.ProductID] = true
		}
		row.Actual += detail.Quantity
		row.ActualBoxes += detail.Boxes
	}

	result := make([]MergedProductDetail, 0, len(order))
	for _, productID := range order {
		row := merged[productID]
		row.Diff = row.Planned - row.Actual

		switch {
		case noPlanned[productID]:
			row.Status = StatusNoPlanned
		case row.Diff == 0:
			row.Status = StatusSuccess
		case math.Abs(row.Diff) <= detailTolerance:
			row.Status = StatusDifference
		default:
			row.Status = StatusPending
		}
		result = append(result, *row)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ProductID < result[j].ProductID
	})
	return result
}
