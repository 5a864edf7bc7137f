package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/config"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/gs1"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/notify"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/report"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/store"
)

// ProductionService 生产服务
// 为每条生产记录维护投入行仓与消耗行仓，并提供选箱辅助
type ProductionService struct {
	client   *erp.Client
	rdb      *redis.Client
	hub      *notify.Hub
	logger   *zap.Logger
	cacheTTL time.Duration
	useRedis bool

	mu                sync.Mutex
	inputStores       map[int]*store.Store[erp.ProductionInput]
	consumptionStores map[int]*store.Store[erp.OutputConsumption]
}

// NewProductionService 创建生产服务
func NewProductionService(client *erp.Client, rdb *redis.Client, hub *notify.Hub, cfg *config.Config, logger *zap.Logger) *ProductionService {
	return &ProductionService{
		client:            client,
		rdb:               rdb,
		hub:               hub,
		logger:            logger,
		cacheTTL:          cfg.Backend.CacheTTL,
		useRedis:          cfg.Backend.UseRedisCache && rdb != nil,
		inputStores:       make(map[int]*store.Store[erp.ProductionInput]),
		consumptionStores: make(map[int]*store.Store[erp.OutputConsumption]),
	}
}

func (s *ProductionService) inputStore(productionID int, hasParent bool) *store.Store[erp.ProductionInput] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.inputStores[productionID]; ok {
		return st
	}

	var cache store.SharedCache[erp.ProductionInput]
	if s.useRedis {
		key := fmt.Sprintf("production:%d:inputs", productionID)
		cache = store.NewRedisCache[erp.ProductionInput](s.rdb, key, s.cacheTTL)
	} else {
		cache = store.NewMemoryCache[erp.ProductionInput]()
	}

	st := store.New(store.Config[erp.ProductionInput]{
		List: func(ctx context.Context, token string) ([]erp.ProductionInput, error) {
			return s.client.ListProductionInputs(ctx, token, productionID)
		},
		Cache:     cache,
		HasParent: hasParent,
		Logger:    s.logger,
	})
	s.inputStores[productionID] = st
	return st
}

func (s *ProductionService) consumptionStore(productionID int) *store.Store[erp.OutputConsumption] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.consumptionStores[productionID]; ok {
		return st
	}

	var cache store.SharedCache[erp.OutputConsumption]
	if s.useRedis {
		key := fmt.Sprintf("production:%d:consumptions", productionID)
		cache = store.NewRedisCache[erp.OutputConsumption](s.rdb, key, s.cacheTTL)
	} else {
		cache = store.NewMemoryCache[erp.OutputConsumption]()
	}

	st := store.New(store.Config[erp.OutputConsumption]{
		List: func(ctx context.Context, token string) ([]erp.OutputConsumption, error) {
			return s.client.ListOutputConsumptions(ctx, token, productionID)
		},
		Cache:     cache,
		HasParent: true,
		Logger:    s.logger,
	})
	s.consumptionStores[productionID] = st
	return st
}

// InputsView 投入行视图：行项加展示聚合
type InputsView struct {
	Items     []erp.ProductionInput     `json:"items"`
	ByPallet  []report.PalletGroup      `json:"byPallet"`
	ByProduct []report.ProductBreakdown `json:"byProduct"`
	Totals    report.Totals             `json:"totals"`
	InitError string                    `json:"initError,omitempty"`
}

// Inputs 获取生产记录的投入行视图
// hasParent为false时（生产记录没有上游可消耗）直接返回空视图
func (s *ProductionService) Inputs(ctx context.Context, token string, productionID int, hasParent bool) InputsView {
	st := s.inputStore(productionID, hasParent)
	st.Init(ctx, token)
	st.Resync(ctx)

	items := st.Items()
	view := InputsView{
		Items:     items,
		ByPallet:  report.GroupByPallet(items),
		ByProduct: report.GroupByProduct(items),
		Totals:    report.GrandTotals(items),
	}
	if err := st.InitErr(); err != nil {
		view.InitError = displayMessage(err)
	}
	return view
}

// AddInput 新增投入行
func (s *ProductionService) AddInput(ctx context.Context, token, userID string, productionID int, payload erp.ProductionInputPayload) error {
	if payload.NetWeight <= 0 {
		return &ValidationError{Message: "El peso neto debe ser mayor que cero"}
	}
	if payload.PalletID <= 0 || payload.BoxID <= 0 {
		return &ValidationError{Message: "Selecciona una caja de un palet"}
	}

	st := s.inputStore(productionID, true)
	err := st.Mutate(ctx, token, func(ctx context.Context) error {
		_, err := s.client.CreateProductionInput(ctx, token, productionID, payload)
		return err
	})
	s.notifyMutation(userID, "production_inputs", "create", productionID, err)
	return err
}

// UpdateInput 更新投入行
func (s *ProductionService) UpdateInput(ctx context.Context, token, userID string, productionID, inputID int, payload erp.ProductionInputPayload) error {
	if payload.NetWeight <= 0 {
		return &ValidationError{Message: "El peso neto debe ser mayor que cero"}
	}

	st := s.inputStore(productionID, true)
	err := st.Mutate(ctx, token, func(ctx context.Context) error {
		_, err := s.client.UpdateProductionInput(ctx, token, productionID, inputID, payload)
		return err
	})
	s.notifyMutation(userID, "production_inputs", "update", productionID, err)
	return err
}

// DeleteInput 删除投入行
// 快速连点触发的第二次删除会对已删除记录失败并照常上报错误
func (s *ProductionService) DeleteInput(ctx context.Context, token, userID string, productionID, inputID int) error {
	st := s.inputStore(productionID, true)
	err := st.Mutate(ctx, token, func(ctx context.Context) error {
		return s.client.DeleteProductionInput(ctx, token, productionID, inputID)
	})
	s.notifyMutation(userID, "production_inputs", "delete", productionID, err)
	return err
}

// ReselectInputs 整体重选投入箱：删除全部现有行，再创建新集合
// 创建阶段失败时用此前已确认的行做补偿恢复
func (s *ProductionService) ReselectInputs(ctx context.Context, token, userID string, productionID int, selection []erp.ProductionInputPayload) error {
	for _, p := range selection {
		if p.NetWeight <= 0 || p.BoxID <= 0 || p.PalletID <= 0 {
			return &ValidationError{Message: "La selección contiene cajas no válidas"}
		}
	}

	st := s.inputStore(productionID, true)
	err := st.BulkReplace(ctx, token,
		func(ctx context.Context) error {
			return s.client.BulkDeleteProductionInputs(ctx, token, productionID)
		},
		func(ctx context.Context) error {
			if len(selection) == 0 {
				return nil
			}
			return s.bulkCreateInputs(ctx, token, productionID, selection)
		},
		func(ctx context.Context, previous []erp.ProductionInput) error {
			return s.bulkCreateInputs(ctx, token, productionID, inputPayloads(previous))
		},
	)
	s.notifyMutation(userID, "production_inputs", "reselect", productionID, err)
	return err
}

// bulkCreateInputs 批量创建并检查逐项汇总
// 服务端报告部分行失败时视为创建阶段失败，让补偿恢复接管
func (s *ProductionService) bulkCreateInputs(ctx context.Context, token string, productionID int, payloads []erp.ProductionInputPayload) error {
	result, err := s.client.BulkCreateProductionInputs(ctx, token, productionID, payloads)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return &erp.Error{
			Kind:        erp.KindServer,
			Message:     fmt.Sprintf("bulk input create reported %d failed rows", result.Failed),
			UserMessage: "No se pudieron crear todas las entradas seleccionadas",
			Details:     result.Errors,
		}
	}
	return nil
}

func inputPayloads(items []erp.ProductionInput) []erp.ProductionInputPayload {
	payloads := make([]erp.ProductionInputPayload, len(items))
	for i, item := range items {
		payloads[i] = erp.ProductionInputPayload{
			BoxID:     item.BoxID,
			PalletID:  item.PalletID,
			ProductID: item.ProductID,
			Lot:       item.Lot,
			NetWeight: item.NetWeight,
			Notes:     item.Notes,
		}
	}
	return payloads
}

// Pallets 获取托盘列表（含箱明细）
func (s *ProductionService) Pallets(ctx context.Context, token string, filter erp.PalletFilter) ([]erp.Pallet, *erp.Meta, error) {
	return s.client.ListPallets(ctx, token, filter)
}

// Pallet 获取单个托盘
func (s *ProductionService) Pallet(ctx context.Context, token string, palletID int) (*erp.Pallet, error) {
	return s.client.GetPallet(ctx, token, palletID)
}

// availableBoxes 拉取候选托盘并铺平可用箱
func (s *ProductionService) availableBoxes(ctx context.Context, token string, filter erp.PalletFilter) ([]erp.Box, error) {
	filter.OnlyAvailable = true
	pallets, _, err := s.client.ListPallets(ctx, token, filter)
	if err != nil {
		return nil, err
	}
	var boxes []erp.Box
	for _, pallet := range pallets {
		for _, box := range pallet.Boxes {
			if box.Available {
				boxes = append(boxes, box)
			}
		}
	}
	return boxes, nil
}

// SearchBoxes 按秤读数检索可用箱
// exact为真时用固定的极小容差，否则用操作员给定的容差
func (s *ProductionService) SearchBoxes(ctx context.Context, token string, filter erp.PalletFilter, target, tolerance float64, exact bool) ([]report.WeightMatch, error) {
	if target <= 0 {
		return nil, &ValidationError{Message: "El peso objetivo debe ser mayor que cero"}
	}
	if exact {
		tolerance = report.ExactTolerance
	} else if tolerance <= 0 {
		return nil, &ValidationError{Message: "La tolerancia debe ser mayor que cero"}
	}

	boxes, err := s.availableBoxes(ctx, token, filter)
	if err != nil {
		return nil, err
	}
	return report.MatchByWeight(boxes, target, tolerance), nil
}

// FillToTarget 贪心凑重选箱（启发式，结果带缺口）
func (s *ProductionService) FillToTarget(ctx context.Context, token string, filter erp.PalletFilter, target float64) (report.PackResult, error) {
	if target <= 0 {
		return report.PackResult{}, &ValidationError{Message: "El peso objetivo debe ser mayor que cero"}
	}

	boxes, err := s.availableBoxes(ctx, token, filter)
	if err != nil {
		return report.PackResult{}, err
	}
	return report.PackToTarget(boxes, target), nil
}

// ScanResult 扫码选箱结果
type ScanResult struct {
	Matched      []erp.Box  `json:"matched"`
	Unmatched    []gs1.Code `json:"unmatched"`
	Unrecognized int        `json:"unrecognized"`
}

// ScanBoxes 解析粘贴的GS1-128条码并匹配可用箱
// 逐行解析，失败的行聚合计数；已解析的条码按批号+重量匹配箱
func (s *ProductionService) ScanBoxes(ctx context.Context, token string, filter erp.PalletFilter, payload string) (ScanResult, error) {
	batch := gs1.ParseBatch(payload)
	result := ScanResult{
		Matched:      []erp.Box{},
		Unmatched:    []gs1.Code{},
		Unrecognized: batch.UnrecognizedCount(),
	}
	if len(batch.Codes) == 0 {
		return result, nil
	}

	boxes, err := s.availableBoxes(ctx, token, filter)
	if err != nil {
		return result, err
	}

	taken := make(map[int]map[int]bool) // palletID → boxID，箱号只在托盘内唯一
	for _, code := range batch.Codes {
		box, ok := matchScannedBox(boxes, taken, code)
		if !ok {
			result.Unmatched = append(result.Unmatched, code)
			continue
		}
		if taken[box.PalletID] == nil {
			taken[box.PalletID] = make(map[int]bool)
		}
		taken[box.PalletID][box.ID] = true
		result.Matched = append(result.Matched, box)
	}
	return result, nil
}

func matchScannedBox(boxes []erp.Box, taken map[int]map[int]bool, code gs1.Code) (erp.Box, bool) {
	weight := code.Weight
	if code.Unit == gs1.UnitPounds {
		weight = code.Weight * 0.45359237
	}
	for _, box := range boxes {
		if taken[box.PalletID][box.ID] {
			continue
		}
		if box.Lot != code.Lot {
			continue
		}
		if code.GTIN != "" && box.GTIN != "" && box.GTIN != code.GTIN {
			continue
		}
		if math.Abs(box.NetWeight-weight) <= report.ExactTolerance {
			return box, true
		}
	}
	return erp.Box{}, false
}

// ConsumptionRow 消耗表编辑行；ID为0表示未保存的草稿行
type ConsumptionRow struct {
	ID        int     `json:"id"`
	OutputID  int     `json:"outputId"`
	ProductID int     `json:"productId"`
	Lot       string  `json:"lot"`
	NetWeight float64 `json:"netWeight"`
	Boxes     int     `json:"boxes"`
	Notes     string  `json:"notes,omitempty"`
}

// rowID 把传输层的数字id折叠成带标签的行标识
func (r ConsumptionRow) rowID() store.RowID {
	if r.ID > 0 {
		return store.SavedID(r.ID)
	}
	return store.NewDraftID()
}

// Consumptions 获取消耗行列表
func (s *ProductionService) Consumptions(ctx context.Context, token string, productionID int) ([]erp.OutputConsumption, error) {
	st := s.consumptionStore(productionID)
	st.Init(ctx, token)
	st.Resync(ctx)
	if err := st.InitErr(); err != nil {
		return nil, err
	}
	return st.Items(), nil
}

// SaveConsumptions 把编辑后的消耗表与服务端对账
// 先尝试一次性的sync端点描述期望终态；后端不支持（404）时回退为
// 逐行差量：草稿行创建、保留的已保存行更新、消失的已保存行删除。
// 两条路径最后都重新拉取并整体替换
func (s *ProductionService) SaveConsumptions(ctx context.Context, token, userID string, productionID int, rows []ConsumptionRow) error {
	for _, row := range rows {
		if row.NetWeight <= 0 {
			return &ValidationError{Message: "El peso neto debe ser mayor que cero"}
		}
		if row.OutputID <= 0 {
			return &ValidationError{Message: "Cada consumo debe pertenecer a una salida"}
		}
	}

	st := s.consumptionStore(productionID)
	st.Init(ctx, token)
	previous := st.Items()

	err := st.Mutate(ctx, token, func(ctx context.Context) error {
		syncRows := make([]erp.ConsumptionSyncRow, len(rows))
		for i, row := range rows {
			syncRows[i] = erp.ConsumptionSyncRow{
				ID:        row.ID,
				OutputID:  row.OutputID,
				ProductID: row.ProductID,
				Lot:       row.Lot,
				NetWeight: row.NetWeight,
				Boxes:     row.Boxes,
				Notes:     row.Notes,
			}
		}

		syncErr := s.client.SyncOutputConsumptions(ctx, token, productionID, syncRows)
		if syncErr == nil {
			return nil
		}
		if !erp.IsKind(syncErr, erp.KindNotFound) {
			return syncErr
		}

		s.logger.Debug("sync endpoint unavailable, falling back to per-row diff",
			zap.Int("production_id", productionID),
		)
		return s.applyConsumptionDiff(ctx, token, productionID, previous, rows)
	})
	s.notifyMutation(userID, "output_consumptions", "sync", productionID, err)
	return err
}

// applyConsumptionDiff 按期望行与已知行的集合差发出逐行调用
func (s *ProductionService) applyConsumptionDiff(ctx context.Context, token string, productionID int, previous []erp.OutputConsumption, desired []ConsumptionRow) error {
	kept := make(map[int]bool)

	for _, row := range desired {
		payload := erp.ConsumptionPayload{
			OutputID:  row.OutputID,
			ProductID: row.ProductID,
			Lot:       row.Lot,
			NetWeight: row.NetWeight,
			Boxes:     row.Boxes,
			Notes:     row.Notes,
		}
		id, saved := row.rowID().Saved()
		if !saved {
			if _, err := s.client.CreateOutputConsumption(ctx, token, productionID, payload); err != nil {
				return err
			}
			continue
		}
		kept[id] = true
		if _, err := s.client.UpdateOutputConsumption(ctx, token, productionID, id, payload); err != nil {
			return err
		}
	}

	for _, prev := range previous {
		if !kept[prev.ID] {
			if err := s.client.DeleteOutputConsumption(ctx, token, productionID, prev.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// notifyMutation 变更结果统一走通知通道，成功与失败都上报
func (s *ProductionService) notifyMutation(userID, resource, action string, parentID int, err error) {
	if s.hub == nil {
		return
	}
	if err != nil {
		s.hub.PublishMutationResult(userID, resource, action, false, displayMessage(err))
		return
	}
	s.hub.PublishMutationResult(userID, resource, action, true, "")
	s.hub.PublishResourceUpdate(resource, parentID, action)
}

// displayMessage 取面向用户的错误文案
func displayMessage(err error) string {
	if apiErr, ok := erp.AsError(err); ok {
		return apiErr.DisplayMessage()
	}
	return err.Error()
}
