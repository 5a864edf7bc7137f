package erp

import (
	"context"
	"fmt"
	"net/http"
)

// =============================================================================
// 生产资源：投入行与产出消耗行
// =============================================================================

// ProductionInputPayload 创建/更新投入行的载荷
type ProductionInputPayload struct {
	BoxID     int     `json:"boxId"`
	PalletID  int     `json:"palletId"`
	ProductID int     `json:"productId"`
	Lot       string  `json:"lot"`
	NetWeight float64 `json:"netWeight"`
	Notes     string  `json:"notes,omitempty"`
}

// ConsumptionPayload 创建/更新消耗行的载荷
type ConsumptionPayload struct {
	OutputID  int     `json:"outputId"`
	ProductID int     `json:"productId"`
	Lot       string  `json:"lot"`
	NetWeight float64 `json:"netWeight"`
	Boxes     int     `json:"boxes"`
	Notes     string  `json:"notes,omitempty"`
}

// ConsumptionSyncRow sync端点描述的期望行
// ID为0表示新行，由服务端创建
type ConsumptionSyncRow struct {
	ID        int     `json:"id,omitempty"`
	OutputID  int     `json:"outputId"`
	ProductID int     `json:"productId"`
	Lot       string  `json:"lot"`
	NetWeight float64 `json:"netWeight"`
	Boxes     int     `json:"boxes"`
	Notes     string  `json:"notes,omitempty"`
}

// ListProductionInputs 获取生产记录的投入行列表
func (c *Client) ListProductionInputs(ctx context.Context, token string, productionID int) ([]ProductionInput, error) {
	var inputs []ProductionInput
	path := fmt.Sprintf("/api/v1/productions/%d/inputs", productionID)
	if _, err := c.getList(ctx, token, path, nil, &inputs, "Error al obtener las entradas de producción"); err != nil {
		return nil, err
	}
	return inputs, nil
}

// CreateProductionInput 创建投入行
func (c *Client) CreateProductionInput(ctx context.Context, token string, productionID int, payload ProductionInputPayload) (*ProductionInput, error) {
	var created ProductionInput
	path := fmt.Sprintf("/api/v1/productions/%d/inputs", productionID)
	if err := c.send(ctx, token, http.MethodPost, path, payload, &created, "Error al crear la entrada de producción"); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProductionInput 更新投入行
func (c *Client) UpdateProductionInput(ctx context.Context, token string, productionID, inputID int, payload ProductionInputPayload) (*ProductionInput, error) {
	var updated ProductionInput
	path := fmt.Sprintf("/api/v1/productions/%d/inputs/%d", productionID, inputID)
	if err := c.send(ctx, token, http.MethodPut, path, payload, &updated, "Error al actualizar la entrada de producción"); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProductionInput 删除投入行
func (c *Client) DeleteProductionInput(ctx context.Context, token string, productionID, inputID int) error {
	path := fmt.Sprintf("/api/v1/productions/%d/inputs/%d", productionID, inputID)
	return c.send(ctx, token, http.MethodDelete, path, nil, nil, "Error al eliminar la entrada de producción")
}

// BulkInputResult 批量创建投入行的逐项汇总
type BulkInputResult struct {
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// BulkCreateProductionInputs 批量创建投入行，返回逐项汇总
func (c *Client) BulkCreateProductionInputs(ctx context.Context, token string, productionID int, payloads []ProductionInputPayload) (*BulkInputResult, error) {
	path := fmt.Sprintf("/api/v1/productions/%d/inputs/bulk", productionID)
	body := map[string]interface{}{"inputs": payloads}

	var result BulkInputResult
	if err := c.send(ctx, token, http.MethodPost, path, body, &result, "Error al crear las entradas de producción"); err != nil {
		return nil, err
	}
	return &result, nil
}

// BulkDeleteProductionInputs 批量删除生产记录的全部投入行
func (c *Client) BulkDeleteProductionInputs(ctx context.Context, token string, productionID int) error {
	path := fmt.Sprintf("/api/v1/productions/%d/inputs", productionID)
	return c.send(ctx, token, http.MethodDelete, path, nil, nil, "Error al eliminar las entradas de producción")
}

// ListOutputConsumptions 获取产出消耗行列表
func (c *Client) ListOutputConsumptions(ctx context.Context, token string, productionID int) ([]OutputConsumption, error) {
	var rows []OutputConsumption
	path := fmt.Sprintf("/api/v1/productions/%d/consumptions", productionID)
	if _, err := c.getList(ctx, token, path, nil, &rows, "Error al obtener los consumos de producción"); err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateOutputConsumption 创建消耗行
func (c *Client) CreateOutputConsumption(ctx context.Context, token string, productionID int, payload ConsumptionPayload) (*OutputConsumption, error) {
	var created OutputConsumption
	path := fmt.Sprintf("/api/v1/productions/%d/consumptions", productionID)
	if err := c.send(ctx, token, http.MethodPost, path, payload, &created, "Error al crear el consumo"); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateOutputConsumption 更新消耗行
func (c *Client) UpdateOutputConsumption(ctx context.Context, token string, productionID, consumptionID int, payload ConsumptionPayload) (*OutputConsumption, error) {
	var updated OutputConsumption
	path := fmt.Sprintf("/api/v1/productions/%d/consumptions/%d", productionID, consumptionID)
	if err := c.send(ctx, token, http.MethodPut, path, payload, &updated, "Error al actualizar el consumo"); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteOutputConsumption 删除消耗行
func (c *Client) DeleteOutputConsumption(ctx context.Context, token string, productionID, consumptionID int) error {
	path := fmt.Sprintf("/api/v1/productions/%d/consumptions/%d", productionID, consumptionID)
	return c.send(ctx, token, http.MethodDelete, path, nil, nil, "Error al eliminar el consumo")
}

// SyncOutputConsumptions 按期望终态同步消耗行
// 旧版后端没有该端点时返回KindNotFound，调用方需回退为逐行差量
func (c *Client) SyncOutputConsumptions(ctx context.Context, token string, productionID int, rows []ConsumptionSyncRow) error {
	path := fmt.Sprintf("/api/v1/productions/%d/consumptions/sync", productionID)
	body := map[string]interface{}{"consumptions": rows}
	return c.send(ctx, token, http.MethodPost, path, body, nil, "Error al sincronizar los consumos")
}
