// Package report 展示聚合计算
// 对资源列表做纯函数折叠，不做I/O，不修改输入
package report

import (
	"sort"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
)

// ProductBreakdown 按产品的汇总明细
type ProductBreakdown struct {
	ProductID   int      `json:"productId"`
	ProductName string   `json:"productName"`
	Boxes       int      `json:"boxes"`
	NetWeight   float64  `json:"netWeight"`
	Lots        []string `json:"lots"`
}

// PalletGroup 按托盘的汇总分组
type PalletGroup struct {
	PalletID   int                `json:"palletId"`
	PalletCode string             `json:"palletCode"`
	Boxes      int                `json:"boxes"`
	NetWeight  float64            `json:"netWeight"`
	Products   []ProductBreakdown `json:"products"`
}

// Totals 总计
type Totals struct {
	Lines     int     `json:"lines"`
	NetWeight float64 `json:"netWeight"`
	Products  int     `json:"products"`
	Pallets   int     `json:"pallets"`
}

type productAcc struct {
	breakdown ProductBreakdown
	lots      map[string]struct{}
}

func (a *productAcc) add(input erp.ProductionInput) {
	a.breakdown.Boxes++
	a.breakdown.NetWeight += input.NetWeight
	if input.Lot != "" {
		if _, seen := a.lots[input.Lot]; !seen {
			a.lots[input.Lot] = struct{}{}
			a.breakdown.Lots = append(a.breakdown.Lots, input.Lot)
		}
	}
}

// GroupByPallet 按托盘分组投入行，组内再按产品细分
// 产品细分按净重降序排列
func GroupByPallet(inputs []erp.ProductionInput) []PalletGroup {
	if len(inputs) == 0 {
		return []PalletGroup{}
	}

	groups := make(map[int]*PalletGroup)
	products := make(map[int]map[int]*productAcc)
	var order []int

	for _, input := range inputs {
		group, ok := groups[input.PalletID]
		if !ok {
			group = &PalletGroup{PalletID: input.PalletID, PalletCode: input.PalletCode}
			groups[input.PalletID] = group
			products[input.PalletID] = make(map[int]*productAcc)
			order = append(order, input.PalletID)
		}
		group.Boxes++
		group.NetWeight += input.NetWeight

		acc, ok := products[input.PalletID][input.ProductID]
		if !ok {
			acc = &productAcc{
				breakdown: ProductBreakdown{ProductID: input.ProductID, ProductName: input.ProductName},
				lots:      make(map[string]struct{}),
			}
			products[input.PalletID][input.ProductID] = acc
		}
		acc.add(input)
	}

	result := make([]PalletGroup, 0, len(order))
	for _, palletID := range order {
		group := groups[palletID]
		for _, acc := range products[palletID] {
			group.Products = append(group.Products, acc.breakdown)
		}
		sort.Slice(group.Products, func(i, j int) bool {
			return group.Products[i].NetWeight > group.Products[j].NetWeight
		})
		result = append(result, *group)
	}
	return result
}

// GroupByProduct 跨托盘按产品汇总，按净重降序
func GroupByProduct(inputs []erp.ProductionInput) []ProductBreakdown {
	if len(inputs) == 0 {
		return []ProductBreakdown{}
	}

	accs := make(map[int]*productAcc)
	var order []int

	for _, input := range inputs {
		acc, ok := accs[input.ProductID]
		if !ok {
			acc = &productAcc{
				breakdown: ProductBreakdown{ProductID: input.ProductID, ProductName: input.ProductName},
				lots:      make(map[string]struct{}),
			}
			accs[input.ProductID] = acc
			order = append(order, input.ProductID)
		}
		acc.add(input)
	}

	result := make([]ProductBreakdown, 0, len(order))
	for _, productID := range order {
		result = append(result, accs[productID].breakdown)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].NetWeight > result[j].NetWeight
	})
	return result
}

// GrandTotals 总行数、总净重、不同产品数、不同托盘数
func GrandTotals(inputs []erp.ProductionInput) Totals {
	totals := Totals{Lines: len(inputs)}
	products := make(map[int]struct{})
	pallets := make(map[int]struct{})
	for _, input := range inputs {
		totals.NetWeight += input.NetWeight
		products[input.ProductID] = struct{}{}
		pallets[input.PalletID] = struct{}{}
	}
	totals.Products = len(products)
	totals.Pallets = len(pallets)
	return totals
}
