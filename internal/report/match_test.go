package report

import (
	"math"
	"testing"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
)

func boxes(weights ...float64) []erp.Box {
	result := make([]erp.Box, len(weights))
	for i, w := range weights {
		result[i] = erp.Box{ID: i + 1, PalletID: 1, NetWeight: w, Available: true}
	}
	return result
}

func TestMatchByWeight(t *testing.T) {
	candidates := boxes(10.0, 10.4, 9.8, 12.0)
	candidates[3].Available = false // 已被别处消耗

	matches := MatchByWeight(candidates, 10.0, 0.5)

	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}
	for _, m := range matches {
		if math.Abs(m.Box.NetWeight-10.0) > 0.5 {
			t.Errorf("box %v outside tolerance", m.Box.NetWeight)
		}
	}
	// 按偏差升序
	for i := 1; i < len(matches); i++ {
		if matches[i].Diff < matches[i-1].Diff {
			t.Errorf("matches not sorted by diff: %v before %v", matches[i-1].Diff, matches[i].Diff)
		}
	}
	if matches[0].Box.NetWeight != 10.0 {
		t.Errorf("closest match = %v, want 10.0", matches[0].Box.NetWeight)
	}
}

func TestMatchByWeightExactMode(t *testing.T) {
	matches := MatchByWeight(boxes(10.0, 10.001, 10.01), 10.0, ExactTolerance)
	if len(matches) != 2 {
		t.Errorf("got %d matches, want 2", len(matches))
	}
}

func TestPackToTargetGreedy(t *testing.T) {
	result := PackToTarget(boxes(8.0, 5.0, 4.0, 3.0), 12.0)

	if result.Total > 12.0 {
		t.Fatalf("total %v exceeds target", result.Total)
	}
	// 贪心降序：8.0 + 4.0 = 12.0，5.0被跳过后4.0仍可放入
	if result.Total != 12.0 {
		t.Errorf("total = %v, want 12.0", result.Total)
	}
	if result.Shortfall != 0 {
		t.Errorf("shortfall = %v, want 0", result.Shortfall)
	}

	// 局部贪心最优：没有遗留的可放入候选
	remaining := 12.0 - result.Total
	selected := make(map[int]bool)
	for _, box := range result.Selected {
		selected[box.ID] = true
	}
	for _, box := range boxes(8.0, 5.0, 4.0, 3.0) {
		if !selected[box.ID] && box.NetWeight <= remaining {
			t.Errorf("unselected box %v still fits", box.NetWeight)
		}
	}
}

func TestPackToTargetNoFeasibleCandidate(t *testing.T) {
	// 候选全部大于目标：贪心与回退都无解，返回空选择和完整缺口
	result := PackToTarget(boxes(20.0, 25.0), 12.0)
	if len(result.Selected) != 0 {
		t.Errorf("selected %d boxes, want 0", len(result.Selected))
	}
	if result.Shortfall != 12.0 {
		t.Errorf("shortfall = %v, want 12.0", result.Shortfall)
	}
}

func TestPackToTargetDeterministic(t *testing.T) {
	input := boxes(7.0, 6.0, 5.0)
	a := PackToTarget(input, 12.0)
	b := PackToTarget(input, 12.0)
	if a.Total != b.Total || len(a.Selected) != len(b.Selected) {
		t.Errorf("packing not deterministic: %v vs %v", a, b)
	}
	if a.Total != 12.0 { // 7.0 + 5.0
		t.Errorf("total = %v, want 12.0", a.Total)
	}
}

func TestPackToTargetSkipsUnavailable(t *testing.T) {
	candidates := boxes(10.0, 9.0)
	candidates[0].Available = false

	result := PackToTarget(candidates, 10.0)
	if len(result.Selected) != 1 || result.Selected[0].NetWeight != 9.0 {
		t.Errorf("selected = %+v, want the 9.0 box only", result.Selected)
	}
}
