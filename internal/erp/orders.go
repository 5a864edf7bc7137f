package erp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// PlannedDetailPayload 计划明细载荷
type PlannedDetailPayload struct {
	ProductID int     `json:"productId"`
	Quantity  float64 `json:"quantity"`
	Boxes     int     `json:"boxes"`
	Notes     string  `json:"notes,omitempty"`
}

// ListOrders 获取订单列表
func (c *Client) ListOrders(ctx context.Context, token string, page, pageSize int) ([]Order, *Meta, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		query.Set("perPage", strconv.Itoa(pageSize))
	}

	var orders []Order
	meta, err := c.getList(ctx, token, "/api/v1/orders", query, &orders, "Error al obtener los pedidos")
	if err != nil {
		return nil, nil, err
	}
	return orders, meta, nil
}

// GetOrder 获取单个订单
func (c *Client) GetOrder(ctx context.Context, token string, orderID int) (*Order, error) {
	var order Order
	path := fmt.Sprintf("/api/v1/orders/%d", orderID)
	if err := c.getOne(ctx, token, path, &order, "Error al obtener el pedido"); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListPlannedDetails 获取订单计划产品明细
func (c *Client) ListPlannedDetails(ctx context.Context, token string, orderID int) ([]PlannedProductDetail, error) {
	var details []PlannedProductDetail
	path := fmt.Sprintf("/api/v1/orders/%d/planned-details", orderID)
	if _, err := c.getList(ctx, token, path, nil, &details, "Error al obtener la previsión del pedido"); err != nil {
		return nil, err
	}
	return details, nil
}

// ListProductionDetails 获取订单实际产品明细（由关联托盘推导）
func (c *Client) ListProductionDetails(ctx context.Context, token string, orderID int) ([]ProductionProductDetail, error) {
	var details []ProductionProductDetail
	path := fmt.Sprintf("/api/v1/orders/%d/production-details", orderID)
	if _, err := c.getList(ctx, token, path, nil, &details, "Error al obtener la producción del pedido"); err != nil {
		return nil, err
	}
	return details, nil
}

// CreatePlannedDetail 创建计划明细
func (c *Client) CreatePlannedDetail(ctx context.Context, token string, orderID int, payload PlannedDetailPayload) (*PlannedProductDetail, error) {
	var created PlannedProductDetail
	path := fmt.Sprintf("/api/v1/orders/%d/planned-details", orderID)
	if err := c.send(ctx, token, http.MethodPost, path, payload, &created, "Error al crear la línea de previsión"); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdatePlannedDetail 更新计划明细
func (c *Client) UpdatePlannedDetail(ctx context.Context, token string, orderID, detailID int, payload PlannedDetailPayload) (*PlannedProductDetail, error) {
	var updated PlannedProductDetail
	path := fmt.Sprintf("/api/v1/orders/%d/planned-details/%d", orderID, detailID)
	if err := c.send(ctx, token, http.MethodPut, path, payload, &updated, "Error al actualizar la línea de previsión"); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePlannedDetail 删除计划明细
func (c *Client) DeletePlannedDetail(ctx context.Context, token string, orderID, detailID int) error {
	path := fmt.Sprintf("/api/v1/orders/%d/planned-details/%d", orderID, detailID)
	return c.send(ctx, token, http.MethodDelete, path, nil, nil, "Error al eliminar la línea de previsión")
}
