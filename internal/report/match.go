package report

import (
	"math"
	"sort"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
)

// ExactTolerance 精确模式下允许的重量偏差（kg）
const ExactTolerance = 0.001

// WeightMatch 按重量检索的命中结果
type WeightMatch struct {
	Box  erp.Box `json:"box"`
	Diff float64 `json:"diff"`
}

// MatchByWeight 在可用箱中检索重量接近目标值的候选
// 返回 |重量-目标| <= tolerance 的箱，按偏差升序（最接近的在前）
// 操作员按秤读数找实物箱时交互使用
func MatchByWeight(boxes []erp.Box, target, tolerance float64) []WeightMatch {
	matches := []WeightMatch{}
	for _, box := range boxes {
		if !box.Available {
			continue
		}
		diff := math.Abs(box.NetWeight - target)
		if diff <= tolerance {
			matches = append(matches, WeightMatch{Box: box, Diff: diff})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Diff < matches[j].Diff
	})
	return matches
}

// PackResult 凑重选择结果
type PackResult struct {
	Selected  []erp.Box `json:"selected"`
	Total     float64   `json:"total"`
	Shortfall float64   `json:"shortfall"`
}

// PackToTarget 贪心凑重选择
// 候选按重量降序逐个尝试，加入后不超过目标则接受；若一个都没接受
// 且存在候选，则回退为选不超过目标的单个最大箱。
// 这是启发式而非最优子集和：跟"大箱先装"的现场作业习惯一致，
// 不保证在所有情况下找到最接近的组合。结果带出已凑总重和缺口，
// 由调用方展示差额。
func PackToTarget(boxes []erp.Box, target float64) PackResult {
	candidates := make([]erp.Box, 0, len(boxes))
	for _, box := range boxes {
		if box.Available {
			candidates = append(candidates, box)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].NetWeight > candidates[j].NetWeight
	})

	result := PackResult{Selected: []erp.Box{}}
	for _, box := range candidates {
		if result.Total+box.NetWeight <= target {
			result.Selected = append(result.Selected, box)
			result.Total += box.NetWeight
		}
	}

	if len(result.Selected) == 0 && len(candidates) > 0 {
		// 候选按重量降序，取第一个不超过目标的即为最大可行箱
		for _, box := range candidates {
			if box.NetWeight <= target {
				result.Selected = append(result.Selected, box)
				result.Total = box.NetWeight
				break
			}
		}
	}

	result.Shortfall = target - result.Total
	return result
}
