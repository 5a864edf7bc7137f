package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/config"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/notify"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/report"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/store"
)

// OrderService 订单服务
type OrderService struct {
	client   *erp.Client
	rdb      *redis.Client
	hub      *notify.Hub
	logger   *zap.Logger
	cacheTTL time.Duration
	useRedis bool

	mu            sync.Mutex
	plannedStores map[int]*store.Store[erp.PlannedProductDetail]
}

// NewOrderService 创建订单服务
func NewOrderService(client *erp.Client, rdb *redis.Client, hub *notify.Hub, cfg *config.Config, logger *zap.Logger) *OrderService {
	return &OrderService{
		client:        client,
		rdb:           rdb,
		hub:           hub,
		logger:        logger,
		cacheTTL:      cfg.Backend.CacheTTL,
		useRedis:      cfg.Backend.UseRedisCache && rdb != nil,
		plannedStores: make(map[int]*store.Store[erp.PlannedProductDetail]),
	}
}

func (s *OrderService) plannedStore(orderID int) *store.Store[erp.PlannedProductDetail] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.plannedStores[orderID]; ok {
		return st
	}

	var cache store.SharedCache[erp.PlannedProductDetail]
	if s.useRedis {
		key := fmt.Sprintf("order:%d:planned", orderID)
		cache = store.NewRedisCache[erp.PlannedProductDetail](s.rdb, key, s.cacheTTL)
	} else {
		cache = store.NewMemoryCache[erp.PlannedProductDetail]()
	}

	st := store.New(store.Config[erp.PlannedProductDetail]{
		List: func(ctx context.Context, token string) ([]erp.PlannedProductDetail, error) {
			return s.client.ListPlannedDetails(ctx, token, orderID)
		},
		Cache:     cache,
		HasParent: true,
		Logger:    s.logger,
	})
	s.plannedStores[orderID] = st
	return st
}

// List 订单列表
func (s *OrderService) List(ctx context.Context, token string, page, pageSize int) ([]erp.Order, *erp.Meta, error) {
	return s.client.ListOrders(ctx, token, page, pageSize)
}

// Get 单个订单
func (s *OrderService) Get(ctx context.Context, token string, orderID int) (*erp.Order, error) {
	return s.client.GetOrder(ctx, token, orderID)
}

// MergedDetailsView 合并明细视图
type MergedDetailsView struct {
	Details   []report.MergedProductDetail `json:"details"`
	Planned   []erp.PlannedProductDetail   `json:"planned"`
	InitError string                       `json:"initError,omitempty"`
}

// MergedDetails 计划与实际按产品对账的视图
// 计划明细走资源仓（可被并发视图共享），实际明细每次由关联托盘推导
func (s *OrderService) MergedDetails(ctx context.Context, token string, orderID int) (MergedDetailsView, error) {
	st := s.plannedStore(orderID)
	st.Init(ctx, token)
	st.Resync(ctx)

	produced, err := s.client.ListProductionDetails(ctx, token, orderID)
	if err != nil {
		return MergedDetailsView{}, err
	}

	planned := st.Items()
	view := MergedDetailsView{
		Details: report.MergeOrderDetails(planned, produced),
		Planned: planned,
	}
	if err := st.InitErr(); err != nil {
		view.InitError = displayMessage(err)
	}
	return view, nil
}

// AddPlannedDetail 新增计划明细
func (s *OrderService) AddPlannedDetail(ctx context.Context, token, userID string, orderID int, payload erp.PlannedDetailPayload) error {
	if payload.Quantity <= 0 {
		return &ValidationError{Message: "La cantidad debe ser mayor que cero"}
	}
	if payload.ProductID <= 0 {
		return &ValidationError{Message: "Selecciona un producto"}
	}

	st := s.plannedStore(orderID)
	err := st.Mutate(ctx, token, func(ctx context.Context) error {
		_, err := s.client.CreatePlannedDetail(ctx, token, orderID, payload)
		return err
	})
	s.notifyMutation(userID, "planned_details", "create", orderID, err)
	return err
}

// UpdatePlannedDetail 更新计划明细
func (s *OrderService) UpdatePlannedDetail(ctx context.Context, token, userID string, orderID, detailID int, payload erp.PlannedDetailPayload) error {
	if payload.Quantity <= 0 {
		return &ValidationError{Message: "La cantidad debe ser mayor que cero"}
	}

	st := s.plannedStore(orderID)
	err := st.Mutate(ctx, token, func(ctx context.Context) error {
		_, err := s.client.UpdatePlannedDetail(ctx, token, orderID, detailID, payload)
		return err
	})
	s.notifyMutation(userID, "planned_details", "update", orderID, err)
	return err
}

// DeletePlannedDetail 删除计划明细
func (s *OrderService) DeletePlannedDetail(ctx context.Context, token, userID string, orderID, detailID int) error {
	st := s.plannedStore(orderID)
	err := st.Mutate(ctx, token, func(ctx context.Context) error {
		return s.client.DeletePlannedDetail(ctx, token, orderID, detailID)
	})
	s.notifyMutation(userID, "planned_details", "delete", orderID, err)
	return err
}

func (s *OrderService) notifyMutation(userID, resource, action string, parentID int, err error) {
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
