package erp

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// PalletFilter 托盘查询条件
type PalletFilter struct {
	StoreID       int
	ProductID     int
	OnlyAvailable bool
	Page          int
	PageSize      int
}

// ListPallets 获取托盘列表（含箱明细）
func (c *Client) ListPallets(ctx context.Context, token string, filter PalletFilter) ([]Pallet, *Meta, error) {
	query := url.Values{}
	if filter.StoreID > 0 {
		query.Set("storeId", strconv.Itoa(filter.StoreID))
	}
	if filter.ProductID > 0 {
		query.Set("productId", strconv.Itoa(filter.ProductID))
	}
	if filter.OnlyAvailable {
		query.Set("available", "1")
	}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PageSize > 0 {
		query.Set("perPage", strconv.Itoa(filter.PageSize))
	}

	var pallets []Pallet
	meta, err := c.getList(ctx, token, "/api/v1/pallets", query, &pallets, "Error al obtener los palets")
	if err != nil {
		return nil, nil, err
	}
	return pallets, meta, nil
}

// GetPallet 获取单个托盘
func (c *Client) GetPallet(ctx context.Context, token string, palletID int) (*Pallet, error) {
	var pallet Pallet
	path := fmt.Sprintf("/api/v1/pallets/%d", palletID)
	if err := c.getOne(ctx, token, path, &pallet, "Error al obtener el palet"); err != nil {
		return nil, err
	}
	return &pallet, nil
}
